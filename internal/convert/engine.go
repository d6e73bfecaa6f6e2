// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"fmt"

	"github.com/pdiddy/pdf2docx/internal/container"
	"github.com/pdiddy/pdf2docx/pkg/types"
)

// NewEngine builds the engine selected by cfg.Backend. An empty backend
// selects the native engine. Unknown backends are usage errors; failures to
// reach an external tool are returned as *ConversionError.
func NewEngine(cfg types.ConversionConfig) (Engine, error) {
	backend := cfg.Backend
	if backend == "" {
		backend = types.BackendNative
	}

	if !backend.Valid() {
		return nil, fmt.Errorf("%w: unknown backend %q (want one of %v)", ErrUsage, backend, types.Backends)
	}

	var (
		e   Engine
		err error
	)
	switch backend {
	case types.BackendNative:
		return NewNativeEngine(), nil
	case types.BackendContainer:
		var rt container.Runtime
		rt, err = container.Select(cfg.Container.Runtime)
		if err == nil {
			e, err = NewContainerEngine(rt, cfg.Container.Image)
		}
	case types.BackendLibreOffice:
		e, err = NewLibreOfficeEngine(cfg.LibreOffice.Binary)
	case types.BackendRemote:
		e, err = NewRemoteEngine(cfg.Remote)
	}
	if err != nil {
		return nil, &ConversionError{Backend: string(backend), Err: err}
	}
	return e, nil
}
