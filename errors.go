// Copyright 2025 The Kestrel Web Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.
package http2

import (
	"fmt"
)

type ErrorCode uint32

const (
	NO_ERROR            ErrorCode = 0x00
	PROTOCOL_ERROR      ErrorCode = 0x01
	INTERNAL_ERROR      ErrorCode = 0x02
	FLOW_CONTROL_ERROR  ErrorCode = 0x03
	SETTINGS_TIMEOUT    ErrorCode = 0x04
	STREAM_CLOSED       ErrorCode = 0x05
	FRAME_SIZE_ERROR    ErrorCode = 0x06
	REFUSED_STREAM      ErrorCode = 0x07
	CANCEL              ErrorCode = 0x08
	COMPRESSION_ERROR   ErrorCode = 0x09
	CONNECT_ERROR       ErrorCode = 0x0a
	ENHANCE_YOUR_CALM   ErrorCode = 0x0b
	INADEQUATE_SECURITY ErrorCode = 0x0c
)

var kErrorCodeNames = map[ErrorCode]string{
	NO_ERROR:            "NO_ERROR",
	PROTOCOL_ERROR:      "PROTOCOL_ERROR",
	INTERNAL_ERROR:      "INTERNAL_ERROR",
	FLOW_CONTROL_ERROR:  "FLOW_CONTROL_ERROR",
	SETTINGS_TIMEOUT:    "SETTINGS_TIMEOUT",
	STREAM_CLOSED:       "STREAM_CLOSED",
	FRAME_SIZE_ERROR:    "FRAME_SIZE_ERROR",
	REFUSED_STREAM:      "REFUSED_STREAM",
	CANCEL:              "CANCEL",
	COMPRESSION_ERROR:   "COMPRESSION_ERROR",
	CONNECT_ERROR:       "CONNECT_ERROR",
	ENHANCE_YOUR_CALM:   "ENHANCE_YOUR_CALM",
	INADEQUATE_SECURITY: "INADEQUATE_SECURITY",
}

func (c ErrorCode) String() string {
	if name, ok := kErrorCodeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("ErrorCode(%#x)", uint32(c))
}

// Classifies how much of the connection an error tears down.
// ConnectionError is fatal for the whole connection (GOAWAY and close),
// StreamError resets just the offending stream (RST_STREAM), and
// RecoverableError marks races around stream close which are ignored.
type ErrorLevel uint8

const (
	ConnectionError ErrorLevel = iota
	StreamError
	RecoverableError
)

func (l ErrorLevel) String() string {
	switch l {
	case ConnectionError:
		return "connection"
	case StreamError:
		return "stream"
	case RecoverableError:
		return "recoverable"
	}
	return fmt.Sprintf("ErrorLevel(%d)", uint8(l))
}

type Error struct {
	Level ErrorLevel
	Code  ErrorCode
	Err   error
}

func (e *Error) Error() string {
	return e.Err.Error()
}

// Errors are connection-level unless a caller narrows them.
func newError(code ErrorCode, format string, args ...interface{}) *Error {
	return &Error{
		Level: ConnectionError,
		Code:  code,
		Err:   fmt.Errorf(format, args...),
	}
}

func protocolError(format string, args ...interface{}) *Error {
	return newError(PROTOCOL_ERROR, format, args...)
}

func frameSizeError(format string, args ...interface{}) *Error {
	return newError(FRAME_SIZE_ERROR, format, args...)
}

func flowControlError(format string, args ...interface{}) *Error {
	return newError(FLOW_CONTROL_ERROR, format, args...)
}

func compressionError(format string, args ...interface{}) *Error {
	return newError(COMPRESSION_ERROR, format, args...)
}

func internalError(format string, args ...interface{}) *Error {
	return newError(INTERNAL_ERROR, format, args...)
}

// wrapError lifts an arbitrary error or recovered panic value into an
// *Error, passing through values which already are one.
func wrapError(value interface{}) *Error {
	switch t := value.(type) {
	case *Error:
		return t
	case error:
		return &Error{Level: ConnectionError, Code: INTERNAL_ERROR, Err: t}
	default:
		return newError(INTERNAL_ERROR, "%v", value)
	}
}

func streamError(code ErrorCode, format string, args ...interface{}) *Error {
	err := newError(code, format, args...)
	err.Level = StreamError
	return err
}
