// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// ConversionStatus records the outcome of one conversion attempt.
type ConversionStatus string

const (
	ConversionDone   ConversionStatus = "converted"
	ConversionFailed ConversionStatus = "failed"
)
