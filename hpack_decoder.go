// Copyright 2025 The Kestrel Web Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.
package http2

// HpackDecoder decompresses header blocks using a table shared across the
// connection. Fragments are buffered until the block is complete, as
// entries inserted by a partial block would corrupt the shared context.
type HpackDecoder struct {
	table  *HpackTable
	buffer []byte
}

func NewHpackDecoder() *HpackDecoder {
	return &HpackDecoder{table: NewHpackTable()}
}

func (d *HpackDecoder) Table() *HpackTable {
	return d.table
}

// SetSettingMaxTableSize bounds the size a table-size update may select.
func (d *HpackDecoder) SetSettingMaxTableSize(size int) {
	d.table.SetSettingMaxSize(size)
}

func (d *HpackDecoder) AppendFragment(fragment []byte) {
	d.buffer = append(d.buffer, fragment...)
}

// BlockComplete decodes the buffered block and resets the buffer.
func (d *HpackDecoder) BlockComplete() ([]HeaderField, *Error) {
	in := d.buffer
	d.buffer = nil

	out := []HeaderField{}
	atBlockStart := true

	for len(in) > 0 {
		opcode := in[0]
		switch {
		case opcode&0x80 == 0x80:
			index, rest, err := decodeHpackInteger(in, 7)
			if err != nil {
				return nil, err
			}
			entry := d.table.GetByIndex(index)
			if entry == nil {
				return nil, compressionError(
					"invalid header index %v", index)
			}
			out = append(out, HeaderField{
				Name: entry.Name, Value: entry.Value})
			in = rest

		case opcode&0xc0 == 0x40:
			name, value, rest, err := d.decodeLiteral(in, 6)
			if err != nil {
				return nil, err
			}
			d.table.Add(name, value)
			out = append(out, HeaderField{Name: name, Value: value})
			in = rest

		case opcode&0xe0 == 0x20:
			if !atBlockStart {
				return nil, compressionError(
					"table size update after first header")
			}
			size, rest, err := decodeHpackInteger(in, 5)
			if err != nil {
				return nil, err
			}
			if size > d.table.SettingMaxSize() {
				return nil, compressionError(
					"table size update %v exceeds setting %v",
					size, d.table.SettingMaxSize())
			}
			d.table.SetMaxSize(size)
			in = rest
			continue

		case opcode&0xf0 == 0x10:
			name, value, rest, err := d.decodeLiteral(in, 4)
			if err != nil {
				return nil, err
			}
			out = append(out, HeaderField{
				Name: name, Value: value, NeverIndex: true})
			in = rest

		default:
			name, value, rest, err := d.decodeLiteral(in, 4)
			if err != nil {
				return nil, err
			}
			out = append(out, HeaderField{Name: name, Value: value})
			in = rest
		}
		atBlockStart = false
	}
	return out, nil
}

func (d *HpackDecoder) decodeLiteral(in []byte, prefixBits uint) (
	name, value string, rest []byte, err *Error) {
	var nameIndex int
	nameIndex, rest, err = decodeHpackInteger(in, prefixBits)
	if err != nil {
		return
	}
	if nameIndex == 0 {
		name, rest, err = decodeHpackString(rest)
		if err != nil {
			return
		}
	} else {
		entry := d.table.GetByIndex(nameIndex)
		if entry == nil {
			err = compressionError("invalid name index %v", nameIndex)
			return
		}
		name = entry.Name
	}
	value, rest, err = decodeHpackString(rest)
	return
}

// decodeHpackInteger reads an integer beginning in the low |prefixBits|
// of in[0], with 7-bit continuation bytes.
func decodeHpackInteger(in []byte, prefixBits uint) (int, []byte, *Error) {
	if len(in) == 0 {
		return 0, nil, compressionError("truncated integer")
	}
	mask := int(1)<<prefixBits - 1
	value := int(in[0]) & mask
	in = in[1:]

	if value < mask {
		return value, in, nil
	}
	var shift uint
	for {
		if len(in) == 0 {
			return 0, nil, compressionError("truncated integer")
		}
		if shift > 28 {
			return 0, nil, compressionError("integer overflow")
		}
		octet := in[0]
		in = in[1:]

		value += int(octet&0x7f) << shift
		shift += 7

		if octet&0x80 == 0 {
			return value, in, nil
		}
	}
}

func decodeHpackString(in []byte) (string, []byte, *Error) {
	if len(in) == 0 {
		return "", nil, compressionError("truncated string")
	}
	huffman := in[0]&0x80 == 0x80

	length, in, err := decodeHpackInteger(in, 7)
	if err != nil {
		return "", nil, err
	}
	if length > len(in) {
		return "", nil, compressionError(
			"string length %v overruns block", length)
	}
	octets, rest := in[:length], in[length:]

	if !huffman {
		return string(octets), rest, nil
	}
	decoded, err := HuffmanDecode(octets)
	if err != nil {
		return "", nil, err
	}
	return decoded, rest, nil
}
