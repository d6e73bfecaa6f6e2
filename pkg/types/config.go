// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// ConversionBackend identifies the engine that turns a PDF into a DOCX.
type ConversionBackend string

const (
	BackendNative      ConversionBackend = "native"
	BackendContainer   ConversionBackend = "container"
	BackendLibreOffice ConversionBackend = "libreoffice"
	BackendRemote      ConversionBackend = "remote"
)

// Backends lists every supported backend in the order shown by --help.
var Backends = []ConversionBackend{
	BackendNative,
	BackendContainer,
	BackendLibreOffice,
	BackendRemote,
}

// Valid reports whether b names a supported backend.
func (b ConversionBackend) Valid() bool {
	for _, known := range Backends {
		if b == known {
			return true
		}
	}
	return false
}

// ContainerConfig holds settings for the container backend.
type ContainerConfig struct {
	// Image is the container image that reads a PDF on stdin and writes a
	// DOCX on stdout (default "pdf2docx:latest").
	Image string `json:"image" yaml:"image" mapstructure:"image"`

	// Runtime selects "docker", "podman", or "auto" (docker first, then podman).
	Runtime string `json:"runtime" yaml:"runtime" mapstructure:"runtime"`
}

// LibreOfficeConfig holds settings for the libreoffice backend.
type LibreOfficeConfig struct {
	// Binary is the soffice executable name or path (default "soffice").
	Binary string `json:"binary" yaml:"binary" mapstructure:"binary"`
}

// RemoteConfig holds settings for the remote conversion service backend.
type RemoteConfig struct {
	// URL is the endpoint that accepts a PDF body and answers with a DOCX.
	URL string `json:"url" yaml:"url" mapstructure:"url"`

	// APIKey is sent as a bearer token when set. Usually loaded from the
	// secrets directory rather than the config file.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// Timeout bounds a single HTTP request (default 2m).
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// MaxRetries is the number of retries on 429/503 answers (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`
}

// HistoryConfig holds settings for the conversion history ledger.
type HistoryConfig struct {
	// Enabled turns on recording of every conversion attempt.
	Enabled bool `json:"enabled" yaml:"enabled" mapstructure:"enabled"`

	// Path is the SQLite database file.
	Path string `json:"path" yaml:"path" mapstructure:"path"`
}

// ConversionConfig groups everything needed to build an engine.
type ConversionConfig struct {
	// Backend selects the engine: native, container, libreoffice, or remote.
	Backend ConversionBackend `json:"backend" yaml:"backend" mapstructure:"backend"`

	Container   ContainerConfig   `json:"container" yaml:"container" mapstructure:"container"`
	LibreOffice LibreOfficeConfig `json:"libreoffice" yaml:"libreoffice" mapstructure:"libreoffice"`
	Remote      RemoteConfig      `json:"remote" yaml:"remote" mapstructure:"remote"`
}

// Config is the full CLI configuration.
type Config struct {
	ConversionConfig `yaml:",inline" mapstructure:",squash"`

	// SecretsDir holds one credential per file (see internal/secrets).
	SecretsDir string `json:"secrets_dir" yaml:"secrets_dir" mapstructure:"secrets_dir"`

	History HistoryConfig `json:"history" yaml:"history" mapstructure:"history"`
}
