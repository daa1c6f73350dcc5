// Copyright 2025 The Kestrel Web Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.
package http2

import (
	"bytes"
	"io"
)

// ReadPreface consumes the fixed 24-byte client connection preface, the only
// non-framed bytes ever expected. On mismatch the connection must be
// abandoned with nothing written.
func ReadPreface(in io.Reader) *Error {
	var preface [len(kConnectionPreface)]byte

	if _, err := io.ReadFull(in, preface[:]); err != nil {
		return wrapError(err)
	}
	if !bytes.Equal(preface[:], []byte(kConnectionPreface)) {
		return protocolError("invalid connection preface")
	}
	return nil
}
