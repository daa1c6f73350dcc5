// Copyright 2025 The Kestrel Web Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package http2

import (
	"io"
)

// Writer wraps an io.Writer with bit-at-a-time output, used by the Huffman
// encoder.
type Writer struct {
	writer io.Writer
	bits   BitSequence
}

func NewWriter(writer io.Writer) *Writer {
	return &Writer{writer: writer}
}

func (w *Writer) WriteBits(bits BitSequence) (n int, err error) {
	if bits.Length+w.bits.Length > 64 {
		n, err = w.FlushBits()
		if err != nil {
			return n, err
		}
	}
	if bits.Length+w.bits.Length > 64 {
		panic("too many bits to write")
	}
	w.bits.Bits |= bits.Bits >> w.bits.Length
	w.bits.Length += bits.Length
	return
}

// FlushBits writes out the whole bytes of the buffered sequence. A byte
// remainder stays buffered.
func (w *Writer) FlushBits() (int, error) {
	buffer := [...]byte{
		byte(w.bits.Bits >> 56),
		byte(w.bits.Bits >> 48),
		byte(w.bits.Bits >> 40),
		byte(w.bits.Bits >> 32),
		byte(w.bits.Bits >> 24),
		byte(w.bits.Bits >> 16),
		byte(w.bits.Bits >> 8),
		byte(w.bits.Bits)}
	n, err := w.writer.Write(buffer[:w.bits.Length/8])
	w.bits.Bits <<= uint(n) * 8
	w.bits.Length -= uint(n) * 8
	return n, err
}

func (w *Writer) ByteRemainder() uint {
	return 8 - w.bits.Length%8
}

func (w *Writer) Write(p []byte) (int, error) {
	if w.bits.Length != 0 {
		panic("unflushed written bits")
	}
	return w.writer.Write(p)
}
