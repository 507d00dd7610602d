// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wsurf

import (
	"errors"
	"fmt"
)

// Sentinel errors. Operations wrap them with context using %w, so callers
// test with errors.Is.
var (
	// ErrAllocFailed is returned when memory, an image or a native drawable
	// could not be created. It fails the current frame only; the surface
	// stays usable.
	ErrAllocFailed = errors.New("wsurf: allocation failed")

	// ErrUnsupportedFormat is returned when no visual matches the backend's
	// configs. It is fatal to display initialization.
	ErrUnsupportedFormat = errors.New("wsurf: no supported pixel format")

	// ErrBadMatch is returned when a surface cannot be created with the
	// requested config or attributes.
	ErrBadMatch = errors.New("wsurf: config does not match")

	// ErrBadParameter is returned for operations this window system does not
	// support, such as pixmap surfaces.
	ErrBadParameter = errors.New("wsurf: unsupported operation")

	// ErrNotInitialized is returned when a display could not be initialized
	// or has been terminated.
	ErrNotInitialized = errors.New("wsurf: display not initialized")

	// ErrBadDisplay is returned for a nil window system or backend.
	ErrBadDisplay = errors.New("wsurf: bad display")

	// ErrBadSurface is returned for operations on a destroyed surface.
	ErrBadSurface = errors.New("wsurf: bad surface")

	// ErrBadNativeWindow is returned when the window is nil or was destroyed.
	ErrBadNativeWindow = errors.New("wsurf: bad native window")
)

// Code is an EGL error code.
type Code int

// EGL error codes reported by Display.GetError.
const (
	CodeSuccess         Code = 0x3000
	CodeNotInitialized  Code = 0x3001
	CodeBadAlloc        Code = 0x3003
	CodeBadDisplay      Code = 0x3008
	CodeBadMatch        Code = 0x3009
	CodeBadNativeWindow Code = 0x300B
	CodeBadParameter    Code = 0x300C
	CodeBadSurface      Code = 0x300D
)

var codeNames = map[Code]string{
	CodeSuccess:         "EGL_SUCCESS",
	CodeNotInitialized:  "EGL_NOT_INITIALIZED",
	CodeBadAlloc:        "EGL_BAD_ALLOC",
	CodeBadDisplay:      "EGL_BAD_DISPLAY",
	CodeBadMatch:        "EGL_BAD_MATCH",
	CodeBadNativeWindow: "EGL_BAD_NATIVE_WINDOW",
	CodeBadParameter:    "EGL_BAD_PARAMETER",
	CodeBadSurface:      "EGL_BAD_SURFACE",
}

// String returns the EGL name of the code.
func (c Code) String() string {
	if s, ok := codeNames[c]; ok {
		return s
	}
	return fmt.Sprintf("Code(%#x)", int(c))
}

// CodeOf maps an error returned by this package to its EGL code.
// A nil error is CodeSuccess. An unrecognized error is CodeBadAlloc, since
// collaborator failures surface while creating resources.
func CodeOf(err error) Code {
	switch {
	case err == nil:
		return CodeSuccess
	case errors.Is(err, ErrAllocFailed):
		return CodeBadAlloc
	case errors.Is(err, ErrUnsupportedFormat), errors.Is(err, ErrNotInitialized):
		return CodeNotInitialized
	case errors.Is(err, ErrBadMatch):
		return CodeBadMatch
	case errors.Is(err, ErrBadParameter):
		return CodeBadParameter
	case errors.Is(err, ErrBadDisplay):
		return CodeBadDisplay
	case errors.Is(err, ErrBadSurface):
		return CodeBadSurface
	case errors.Is(err, ErrBadNativeWindow):
		return CodeBadNativeWindow
	default:
		return CodeBadAlloc
	}
}
