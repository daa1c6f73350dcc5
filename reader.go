// Copyright 2025 The Kestrel Web Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package http2

import (
	"io"
)

// A left-aligned sequence of up to 64 bits. Bit zero of the sequence is the
// most significant bit of Bits.
type BitSequence struct {
	Bits   uint64
	Length uint
}

// Reader wraps an io.Reader with bit-at-a-time access, used by the Huffman
// decoder.
type Reader struct {
	reader io.Reader
	bits   BitSequence
}

func NewReader(reader io.Reader) *Reader {
	return &Reader{reader: reader}
}

func (r *Reader) Read(p []byte) (int, error) {
	if r.bits.Length%8 != 0 {
		panic("unread byte remainder")
	}
	wIndex := 0
	for r.bits.Length != 0 && wIndex != len(p) {
		p[wIndex] = byte(r.bits.Bits >> 56)
		r.bits.Bits <<= 8
		r.bits.Length -= 8
		wIndex += 1
	}
	if wIndex == len(p) {
		// Fully satisfied from buffered bits. Reading zero bytes from
		// the underlying reader could surface a spurious io.EOF.
		return wIndex, nil
	}
	n, err := r.reader.Read(p[wIndex:])
	return n + wIndex, err
}

// PeekBits tops up and returns the buffered bit sequence without consuming
// it. A short underlying read surfaces as a shorter-than-64-bit sequence
// with the read error.
func (r *Reader) PeekBits() (BitSequence, error) {
	var buffer [8]byte

	count := 8 - (r.bits.Length / 8)
	if r.bits.Length%8 != 0 {
		count -= 1
	}
	if count == 0 {
		return r.bits, nil
	}
	n, err := r.reader.Read(buffer[:count])
	for i := 0; i != n; i++ {
		r.bits.Bits |= uint64(buffer[i]) << (64 - 8 - r.bits.Length)
		r.bits.Length += 8
	}
	return r.bits, err
}

func (r *Reader) ConsumeBits(length uint) {
	if length > r.bits.Length {
		panic("invalid length")
	}
	r.bits.Bits <<= length
	r.bits.Length -= length
}

func (r *Reader) ByteRemainder() uint {
	return r.bits.Length % 8
}
