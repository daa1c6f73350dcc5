// Copyright 2025 The Kestrel Web Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.
package http2

type HeaderField struct {
	// Header name. Must be lower-case.
	Name string
	// Header value.
	Value string
	// Whether the field may be added to the dynamic table, or must be
	// encoded as a never-indexed literal (sensitive values).
	NeverIndex bool
}

func (f HeaderField) Size() int {
	return len(f.Name) + len(f.Value) + HpackOverheadPerEntry
}

type Frame interface {
	GetType() FrameType
	GetFlags() Flags
	GetStreamID() StreamID
}

// Models the Flags and StreamID fields common to all frame types.
type FramePrefix struct {
	Flags    Flags
	StreamID StreamID
}

func (f *FramePrefix) GetFlags() Flags {
	return f.Flags
}
func (f *FramePrefix) GetStreamID() StreamID {
	return f.StreamID
}

// Models frames carrying padding (DATA and HEADERS).
type FramePadding struct {
	PaddingLength uint
}

// Models a priority update carried by HEADERS or PRIORITY. The engine
// validates but does not schedule by it.
type FramePriority struct {
	ExclusiveDependency bool
	StreamDependency    StreamID
	PriorityWeight      uint8
}

type DataFrame struct {
	FramePrefix
	FramePadding

	Data []byte
}

type HeadersFrame struct {
	FramePrefix
	FramePadding
	FramePriority

	Fragment []byte
}

type PriorityFrame struct {
	FramePrefix
	FramePriority
}

type RstStreamFrame struct {
	FramePrefix

	Code ErrorCode
}

type SettingsFrame struct {
	FramePrefix

	Settings map[SettingID]uint32
}

type PingFrame struct {
	FramePrefix

	OpaqueData uint64
}

type GoAwayFrame struct {
	FramePrefix

	LastID StreamID
	Code   ErrorCode
	Debug  []byte
}

type WindowUpdateFrame struct {
	FramePrefix

	SizeDelta uint32
}

type ContinuationFrame struct {
	FramePrefix

	Fragment []byte
}

func (f *DataFrame) GetType() FrameType {
	return DATA
}
func (f *HeadersFrame) GetType() FrameType {
	return HEADERS
}
func (f *PriorityFrame) GetType() FrameType {
	return PRIORITY
}
func (f *RstStreamFrame) GetType() FrameType {
	return RST_STREAM
}
func (f *SettingsFrame) GetType() FrameType {
	return SETTINGS
}
func (f *PingFrame) GetType() FrameType {
	return PING
}
func (f *GoAwayFrame) GetType() FrameType {
	return GOAWAY
}
func (f *WindowUpdateFrame) GetType() FrameType {
	return WINDOW_UPDATE
}
func (f *ContinuationFrame) GetType() FrameType {
	return CONTINUATION
}

func (f *DataFrame) PayloadLength() int {
	length := len(f.Data)
	if f.Flags&PADDED != 0 {
		length += 1 + int(f.PaddingLength)
	}
	return length
}

// Splits the frame in two at |bound| payload bytes. The receiver keeps the
// first |bound| bytes and loses END_STREAM; the returned remainder carries
// the rest. Padding never survives a split.
func (f *DataFrame) SplitAt(bound int) *DataFrame {
	remainder := &DataFrame{
		FramePrefix: FramePrefix{
			Flags:    f.Flags &^ PADDED,
			StreamID: f.StreamID,
		},
		Data: f.Data[bound:],
	}
	f.Data = f.Data[:bound]
	f.Flags &= ^(END_STREAM | PADDED)
	f.PaddingLength = 0
	return remainder
}
