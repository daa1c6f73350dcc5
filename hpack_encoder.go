// Copyright 2025 The Kestrel Web Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.
package http2

// HpackEncoder compresses header blocks for the send direction of a
// connection. It prefers indexed representations, inserts new name/value
// pairs into the dynamic table, and Huffman-codes literals when shorter.
type HpackEncoder struct {
	table *HpackTable

	// A table resize is deferred to the start of the next block, where
	// a size update instruction is permitted. If the limit dipped below
	// the eventual target in between, both sizes must be emitted.
	havePending          bool
	pendingSize, minSize int
}

func NewHpackEncoder() *HpackEncoder {
	return &HpackEncoder{table: NewHpackTable()}
}

func (e *HpackEncoder) Table() *HpackTable {
	return e.table
}

// SetMaxTableSize applies the peer's SETTINGS_HEADER_TABLE_SIZE. The
// table is bounded by its initial size regardless of what the peer
// permits.
func (e *HpackEncoder) SetMaxTableSize(size int) {
	if size > HpackInitialTableSize {
		size = HpackInitialTableSize
	}
	if size == e.table.MaxSize() && !e.havePending {
		return
	}
	if !e.havePending {
		e.havePending = true
		e.minSize = size
	} else if size < e.minSize {
		e.minSize = size
	}
	e.pendingSize = size
}

func (e *HpackEncoder) EncodeBlock(headers []HeaderField) []byte {
	out := []byte{}
	if e.havePending {
		if e.minSize < e.pendingSize {
			out = appendHpackInteger(out, 0x20, 5, e.minSize)
			e.table.SetMaxSize(e.minSize)
		}
		out = appendHpackInteger(out, 0x20, 5, e.pendingSize)
		e.table.SetMaxSize(e.pendingSize)
		e.havePending = false
	}

	for _, field := range headers {
		if field.NeverIndex {
			out = e.appendLiteral(out, 0x10, 4, field)
			continue
		}
		if entry := e.table.GetByNameAndValue(field.Name, field.Value); entry != nil {
			out = appendHpackInteger(out, 0x80, 7, e.table.IndexOf(entry))
			continue
		}
		out = e.appendLiteral(out, 0x40, 6, field)
		e.table.Add(field.Name, field.Value)
	}
	return out
}

func (e *HpackEncoder) appendLiteral(out []byte, opcode byte,
	prefixBits uint, field HeaderField) []byte {
	if entry := e.table.GetByName(field.Name); entry != nil {
		out = appendHpackInteger(out, opcode, prefixBits,
			e.table.IndexOf(entry))
	} else {
		out = appendHpackInteger(out, opcode, prefixBits, 0)
		out = appendHpackString(out, field.Name)
	}
	return appendHpackString(out, field.Value)
}

// appendHpackInteger writes |value| into the low |prefixBits| of a first
// octet carrying |opcode|, with 7-bit continuation bytes as needed.
func appendHpackInteger(out []byte, opcode byte, prefixBits uint,
	value int) []byte {
	mask := int(1)<<prefixBits - 1
	if value < mask {
		return append(out, opcode|byte(value))
	}
	out = append(out, opcode|byte(mask))
	value -= mask
	for value >= 0x80 {
		out = append(out, byte(value)|0x80)
		value >>= 7
	}
	return append(out, byte(value))
}

func appendHpackString(out []byte, in string) []byte {
	if HuffmanEncodedLength(in) < len(in) {
		encoded := HuffmanEncode(in)
		out = appendHpackInteger(out, 0x80, 7, len(encoded))
		return append(out, encoded...)
	}
	out = appendHpackInteger(out, 0x00, 7, len(in))
	return append(out, in...)
}
