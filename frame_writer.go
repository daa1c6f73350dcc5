// Copyright 2025 The Kestrel Web Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.
package http2

import (
	"encoding/binary"
	"io"
)

// FrameWriter serializes typed frames to the transport. It is the exact
// inverse of FrameParser for every frame the engine emits.
type FrameWriter struct {
	w io.Writer
}

func NewFrameWriter(w io.Writer) *FrameWriter {
	return &FrameWriter{w: w}
}

func (w *FrameWriter) WriteFrame(frame Frame) *Error {
	payload := EncodePayload(frame)

	var header [kFrameHeaderLength]byte
	header[0] = byte(len(payload) >> 16)
	header[1] = byte(len(payload) >> 8)
	header[2] = byte(len(payload))
	header[3] = byte(frame.GetType())
	header[4] = byte(frame.GetFlags())
	binary.BigEndian.PutUint32(header[5:], uint32(frame.GetStreamID()))

	if _, err := w.w.Write(header[:]); err != nil {
		return wrapError(err)
	}
	if _, err := w.w.Write(payload); err != nil {
		return wrapError(err)
	}
	return nil
}

// EncodePayload serializes the type-specific payload of |frame|, padding
// included.
func EncodePayload(frame Frame) []byte {
	var out []byte

	appendPadLength := func(p FramePadding) {
		if frame.GetFlags()&PADDED != 0 {
			out = append(out, byte(p.PaddingLength))
		}
	}
	appendPadding := func(p FramePadding) {
		if frame.GetFlags()&PADDED != 0 {
			out = append(out, make([]byte, p.PaddingLength)...)
		}
	}
	appendUint32 := func(v uint32) {
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], v)
		out = append(out, b[:]...)
	}
	appendPriority := func(p FramePriority) {
		dependency := uint32(p.StreamDependency)
		if p.ExclusiveDependency {
			dependency |= uint32(kStreamIDReservedMask)
		}
		appendUint32(dependency)
		out = append(out, p.PriorityWeight)
	}

	switch f := frame.(type) {
	case *DataFrame:
		appendPadLength(f.FramePadding)
		out = append(out, f.Data...)
		appendPadding(f.FramePadding)
	case *HeadersFrame:
		appendPadLength(f.FramePadding)
		if f.Flags&PRIORITY_F != 0 {
			appendPriority(f.FramePriority)
		}
		out = append(out, f.Fragment...)
		appendPadding(f.FramePadding)
	case *PriorityFrame:
		appendPriority(f.FramePriority)
	case *RstStreamFrame:
		appendUint32(uint32(f.Code))
	case *SettingsFrame:
		for _, id := range orderedSettingIDs(f.Settings) {
			var b [2]byte
			binary.BigEndian.PutUint16(b[:], uint16(id))
			out = append(out, b[:]...)
			appendUint32(f.Settings[id])
		}
	case *PingFrame:
		var b [8]byte
		binary.BigEndian.PutUint64(b[:], f.OpaqueData)
		out = append(out, b[:]...)
	case *GoAwayFrame:
		appendUint32(uint32(f.LastID))
		appendUint32(uint32(f.Code))
		out = append(out, f.Debug...)
	case *WindowUpdateFrame:
		appendUint32(f.SizeDelta)
	case *ContinuationFrame:
		out = append(out, f.Fragment...)
	default:
		panic(frame.GetType())
	}
	return out
}

func orderedSettingIDs(settings map[SettingID]uint32) []SettingID {
	ids := make([]SettingID, 0, len(settings))
	for id := SETTINGS_MIN_SETTING_ID; id <= SETTINGS_MAX_SETTING_ID; id++ {
		if _, ok := settings[id]; ok {
			ids = append(ids, id)
		}
	}
	return ids
}
