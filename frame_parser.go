// Copyright 2025 The Kestrel Web Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.
package http2

import (
	"encoding/binary"
	"io"
)

const (
	kStreamIDReservedMask   StreamID = 0x80000000
	kWindowSizeReservedMask uint32   = 0x80000000
)

type FrameParser struct {
	in *io.LimitedReader

	// Largest payload length accepted, per SETTINGS_MAX_FRAME_SIZE.
	maxFrameSize uint32

	// Non-zero while a header block is open: only CONTINUATION frames
	// on this stream may follow.
	continuesStream StreamID

	frameType FrameType
	prefix    FramePrefix
}

func NewFrameParser(in io.Reader) *FrameParser {
	parser := new(FrameParser)
	parser.in = &io.LimitedReader{N: 0, R: in}
	parser.maxFrameSize = kDefaultMaxFrameSize
	return parser
}

// Adjusts the accepted payload bound after a SETTINGS_MAX_FRAME_SIZE change.
func (p *FrameParser) SetMaxFrameSize(size uint32) {
	p.maxFrameSize = size
}

func (p *FrameParser) ParseFrame() (Frame, *Error) {
	var frame Frame
	var err *Error

	for {
		var known bool
		if known, err = p.parsePrefix(); err != nil {
			p.reset()
			return nil, err
		}
		if known {
			break
		}
		// Unknown frame types are discarded without dispatch.
		if _, err := io.Copy(io.Discard, p.in); err != nil {
			p.reset()
			return nil, wrapError(err)
		}
	}

	switch p.frameType {
	case DATA:
		frame, err = p.parseDataFrame()
	case HEADERS:
		frame, err = p.parseHeadersFrame()
	case PRIORITY:
		frame, err = p.parsePriorityFrame()
	case RST_STREAM:
		frame, err = p.parseRstStreamFrame()
	case SETTINGS:
		frame, err = p.parseSettingsFrame()
	case PUSH_PROMISE:
		err = protocolError("unexpected PUSH_PROMISE from peer")
	case PING:
		frame, err = p.parsePingFrame()
	case GOAWAY:
		frame, err = p.parseGoAwayFrame()
	case WINDOW_UPDATE:
		frame, err = p.parseWindowUpdateFrame()
	case CONTINUATION:
		frame, err = p.parseContinuationFrame()
	default:
		// Frame type has already been validated.
		panic(p.frameType)
	}

	// Expect the complete frame length to have been consumed.
	if err == nil && p.in.N != 0 {
		err = frameSizeError("%v bytes of extra frame payload", p.in.N)
		frame = nil
	}
	if err != nil {
		p.reset()
	}
	return frame, err
}

func (p *FrameParser) reset() {
	in := p.in
	*p = FrameParser{in: in, maxFrameSize: p.maxFrameSize}
}

// Reads the nine byte frame header. Any header is structurally valid;
// the returned bool reports whether the frame type is a known one.
func (p *FrameParser) parsePrefix() (bool, *Error) {
	var header [kFrameHeaderLength]byte

	p.in.N = int64(kFrameHeaderLength)
	if _, err := io.ReadFull(p.in, header[:]); err != nil {
		return false, wrapError(err)
	}

	length := uint32(header[0])<<16 | uint32(header[1])<<8 | uint32(header[2])
	if length > p.maxFrameSize {
		return false, frameSizeError("frame length %v exceeds maximum %v",
			length, p.maxFrameSize)
	}
	p.in.N = int64(length)

	p.frameType = FrameType(header[3])

	// Mask off the reserved stream ID bit.
	p.prefix.StreamID =
		StreamID(binary.BigEndian.Uint32(header[5:])) &^ kStreamIDReservedMask

	if p.continuesStream != 0 && (p.frameType != CONTINUATION ||
		p.prefix.StreamID != p.continuesStream) {
		return false, protocolError("expected CONTINUATION for stream %v",
			p.continuesStream)
	}
	if p.continuesStream == 0 && p.frameType == CONTINUATION {
		return false, protocolError("unexpected CONTINUATION")
	}

	if p.frameType > LAST_FRAME_TYPE {
		return false, nil
	}

	// Undefined flags for the frame type are ignored.
	p.prefix.Flags = Flags(header[4]) & kValidFlags[p.frameType]
	return true, nil
}

func (p *FrameParser) parseFramePadding() (FramePadding, *Error) {
	if p.prefix.Flags&PADDED == 0 {
		return FramePadding{}, nil
	}
	var length uint8
	if err := p.read(&length); err != nil {
		return FramePadding{}, err
	}
	// Padding may consume the whole remainder, but no more.
	if int64(length) > p.in.N {
		return FramePadding{}, protocolError(
			"padding of %v is longer than remaining frame length %v",
			length, p.in.N)
	}
	return FramePadding{uint(length)}, nil
}

func (p *FrameParser) read(out interface{}) *Error {
	if err := binary.Read(p.in, binary.BigEndian, out); err != nil {
		if p.in.N == 0 {
			return frameSizeError("reached premature frame end reading %T", out)
		} else {
			return wrapError(err)
		}
	}
	return nil
}

func (p *FrameParser) readData(padLength uint) ([]byte, *Error) {
	// Read and buffer frame data.
	out := make([]byte, p.in.N-int64(padLength))
	if _, err := io.ReadFull(p.in, out); err != nil {
		return nil, wrapError(err)
	}
	// Read and discard padding.
	if _, err := io.Copy(io.Discard, p.in); err != nil {
		return nil, wrapError(err)
	}
	return out, nil
}

func (p *FrameParser) parseFramePriority() (FramePriority, *Error) {
	var priority FramePriority

	if err := p.read(&priority.StreamDependency); err != nil {
		return priority, err
	}
	if priority.StreamDependency&kStreamIDReservedMask != 0 {
		priority.ExclusiveDependency = true
		priority.StreamDependency =
			priority.StreamDependency ^ kStreamIDReservedMask
	}
	if err := p.read(&priority.PriorityWeight); err != nil {
		return priority, err
	}
	return priority, nil
}

func (p *FrameParser) parseDataFrame() (*DataFrame, *Error) {
	var err *Error
	frame := &DataFrame{FramePrefix: p.prefix}

	if frame.StreamID == 0 {
		return nil, protocolError("DATA must have non-zero stream ID")
	}
	if frame.FramePadding, err = p.parseFramePadding(); err != nil {
		return nil, err
	}
	if frame.Data, err = p.readData(frame.PaddingLength); err != nil {
		return nil, err
	}
	return frame, nil
}

func (p *FrameParser) parseHeadersFrame() (*HeadersFrame, *Error) {
	var err *Error
	frame := &HeadersFrame{FramePrefix: p.prefix}

	if frame.StreamID == 0 {
		return nil, protocolError("HEADERS must have non-zero stream ID")
	}
	if frame.FramePadding, err = p.parseFramePadding(); err != nil {
		return nil, err
	}
	if frame.Flags&PRIORITY_F != 0 {
		if frame.FramePriority, err = p.parseFramePriority(); err != nil {
			return nil, err
		}
		if frame.StreamDependency == frame.StreamID {
			return nil, protocolError("stream %v depends on itself",
				frame.StreamID)
		}
	}
	if frame.Fragment, err = p.readData(frame.PaddingLength); err != nil {
		return nil, err
	}
	if frame.Flags&END_HEADERS == 0 {
		p.continuesStream = frame.StreamID
	}
	return frame, nil
}

func (p *FrameParser) parsePriorityFrame() (*PriorityFrame, *Error) {
	var err *Error
	frame := &PriorityFrame{FramePrefix: p.prefix}

	if frame.StreamID == 0 {
		return nil, protocolError("PRIORITY must have non-zero stream ID")
	}
	if frame.FramePriority, err = p.parseFramePriority(); err != nil {
		return nil, err
	}
	return frame, nil
}

func (p *FrameParser) parseRstStreamFrame() (*RstStreamFrame, *Error) {
	frame := &RstStreamFrame{FramePrefix: p.prefix}

	if frame.StreamID == 0 {
		return nil, protocolError("RST_STREAM must have non-zero stream ID")
	}
	if err := p.read(&frame.Code); err != nil {
		return nil, err
	}
	return frame, nil
}

func (p *FrameParser) parseSettingsFrame() (*SettingsFrame, *Error) {
	frame := &SettingsFrame{FramePrefix: p.prefix}

	if frame.StreamID != 0 {
		return nil, protocolError("invalid SETTINGS stream ID %#x",
			frame.StreamID)
	}
	if frame.Flags&ACK != 0 && p.in.N != 0 {
		return nil, frameSizeError("SETTINGS with ACK must have empty payload")
	}
	if p.in.N%6 != 0 {
		return nil, frameSizeError("invalid SETTINGS payload (length %% 6 != 0)")
	}
	frame.Settings = make(map[SettingID]uint32)

	for p.in.N != 0 {
		var key SettingID
		if err := p.read(&key); err != nil {
			return nil, err
		}
		var value uint32
		if err := p.read(&value); err != nil {
			return nil, err
		}
		// Unknown setting identifiers are ignored.
		if key < SETTINGS_MIN_SETTING_ID || key > SETTINGS_MAX_SETTING_ID {
			continue
		}
		frame.Settings[key] = value
	}
	return frame, nil
}

func (p *FrameParser) parsePingFrame() (*PingFrame, *Error) {
	frame := &PingFrame{FramePrefix: p.prefix}

	if frame.StreamID != 0 {
		return nil, protocolError("invalid PING stream ID %#x", frame.StreamID)
	}
	if err := p.read(&frame.OpaqueData); err != nil {
		return nil, err
	}
	return frame, nil
}

func (p *FrameParser) parseGoAwayFrame() (*GoAwayFrame, *Error) {
	var err *Error
	frame := &GoAwayFrame{FramePrefix: p.prefix}

	if frame.StreamID != 0 {
		return nil, protocolError("invalid GOAWAY stream ID %#x",
			frame.StreamID)
	}
	if err := p.read(&frame.LastID); err != nil {
		return nil, err
	}
	frame.LastID &= ^kStreamIDReservedMask
	if err := p.read(&frame.Code); err != nil {
		return nil, err
	}
	if frame.Debug, err = p.readData(0); err != nil {
		return nil, err
	}
	return frame, nil
}

func (p *FrameParser) parseWindowUpdateFrame() (*WindowUpdateFrame, *Error) {
	frame := &WindowUpdateFrame{FramePrefix: p.prefix}

	if err := p.read(&frame.SizeDelta); err != nil {
		return nil, err
	}
	frame.SizeDelta &= ^kWindowSizeReservedMask
	return frame, nil
}

func (p *FrameParser) parseContinuationFrame() (*ContinuationFrame, *Error) {
	var err *Error
	frame := &ContinuationFrame{FramePrefix: p.prefix}

	if frame.Fragment, err = p.readData(0); err != nil {
		return nil, err
	}
	if frame.Flags&END_HEADERS != 0 {
		p.continuesStream = 0
	}
	return frame, nil
}
