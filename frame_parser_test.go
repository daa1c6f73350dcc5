// Copyright 2025 The Kestrel Web Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package http2

import (
	"bytes"
	"io"

	. "gopkg.in/check.v1"
)

type ParserTest struct{}

func parseOne(input []byte) (Frame, *Error) {
	return NewFrameParser(bytes.NewReader(input)).ParseFrame()
}

func (t *ParserTest) TestDataFrame(c *C) {
	frame, err := parseOne([]byte{
		0x00, 0x00, 0x05, byte(DATA), byte(END_STREAM),
		0x00, 0x00, 0x00, 0x01,
		'h', 'e', 'l', 'l', 'o',
	})
	c.Check(err, IsNil)

	data := frame.(*DataFrame)
	c.Check(data.Flags, Equals, END_STREAM)
	c.Check(data.StreamID, Equals, StreamID(1))
	c.Check(data.Data, DeepEquals, []byte("hello"))
}

func (t *ParserTest) TestDataFrameWithPadding(c *C) {
	frame, err := parseOne([]byte{
		0x00, 0x00, 0x0a, byte(DATA), byte(PADDED),
		0x00, 0x00, 0x00, 0x01,
		0x04,
		'h', 'e', 'l', 'l', 'o',
		0x00, 0x00, 0x00, 0x00,
	})
	c.Check(err, IsNil)

	data := frame.(*DataFrame)
	c.Check(data.PaddingLength, Equals, uint(4))
	c.Check(data.Data, DeepEquals, []byte("hello"))
	c.Check(data.PayloadLength(), Equals, 10)
}

func (t *ParserTest) TestDataFramePaddingTooLong(c *C) {
	frame, err := parseOne([]byte{
		0x00, 0x00, 0x06, byte(DATA), byte(PADDED),
		0x00, 0x00, 0x00, 0x01,
		0x06,
		'a', 'b', 'c', 'd', 'e',
	})
	c.Check(err, ErrorMatches,
		"padding of 6 is longer than remaining frame length 5")
	c.Check(err.Code, Equals, PROTOCOL_ERROR)
	c.Check(frame, IsNil)
}

func (t *ParserTest) TestDataFrameOnStreamZero(c *C) {
	frame, err := parseOne([]byte{
		0x00, 0x00, 0x01, byte(DATA), 0x00,
		0x00, 0x00, 0x00, 0x00,
		0xff,
	})
	c.Check(err, ErrorMatches, "DATA must have non-zero stream ID")
	c.Check(err.Code, Equals, PROTOCOL_ERROR)
	c.Check(frame, IsNil)
}

func (t *ParserTest) TestUndefinedFlagsAreMasked(c *C) {
	frame, err := parseOne([]byte{
		0x00, 0x00, 0x04, byte(RST_STREAM), 0xff,
		0x00, 0x00, 0x00, 0x01,
		0x00, 0x00, 0x00, 0x08,
	})
	c.Check(err, IsNil)
	c.Check(frame.GetFlags(), Equals, NO_FLAGS)
}

func (t *ParserTest) TestReservedStreamIDBitIsMasked(c *C) {
	frame, err := parseOne([]byte{
		0x00, 0x00, 0x04, byte(RST_STREAM), 0x00,
		0x80, 0x00, 0x00, 0x01,
		0x00, 0x00, 0x00, 0x08,
	})
	c.Check(err, IsNil)
	c.Check(frame.GetStreamID(), Equals, StreamID(1))
}

func (t *ParserTest) TestHeadersFrame(c *C) {
	frame, err := parseOne([]byte{
		0x00, 0x00, 0x03, byte(HEADERS),
		byte(END_STREAM | END_HEADERS),
		0x00, 0x00, 0x00, 0x03,
		0xaa, 0xbb, 0xcc,
	})
	c.Check(err, IsNil)

	headers := frame.(*HeadersFrame)
	c.Check(headers.StreamID, Equals, StreamID(3))
	c.Check(headers.Flags, Equals, END_STREAM|END_HEADERS)
	c.Check(headers.Fragment, DeepEquals, []byte{0xaa, 0xbb, 0xcc})
}

func (t *ParserTest) TestHeadersFrameWithPriority(c *C) {
	frame, err := parseOne([]byte{
		0x00, 0x00, 0x08, byte(HEADERS),
		byte(END_HEADERS | PRIORITY_F),
		0x00, 0x00, 0x00, 0x05,
		0x80, 0x00, 0x00, 0x03, 0x0a,
		'a', 'b', 'c',
	})
	c.Check(err, IsNil)

	headers := frame.(*HeadersFrame)
	c.Check(headers.ExclusiveDependency, Equals, true)
	c.Check(headers.StreamDependency, Equals, StreamID(3))
	c.Check(headers.PriorityWeight, Equals, uint8(10))
	c.Check(headers.Fragment, DeepEquals, []byte("abc"))
}

func (t *ParserTest) TestHeadersFrameSelfDependency(c *C) {
	frame, err := parseOne([]byte{
		0x00, 0x00, 0x05, byte(HEADERS),
		byte(END_HEADERS | PRIORITY_F),
		0x00, 0x00, 0x00, 0x03,
		0x00, 0x00, 0x00, 0x03, 0x0a,
	})
	c.Check(err, ErrorMatches, "stream 3 depends on itself")
	c.Check(err.Code, Equals, PROTOCOL_ERROR)
	c.Check(frame, IsNil)
}

func (t *ParserTest) TestContinuationExpected(c *C) {
	parser := NewFrameParser(bytes.NewReader([]byte{
		// HEADERS without END_HEADERS.
		0x00, 0x00, 0x02, byte(HEADERS), 0x00,
		0x00, 0x00, 0x00, 0x01,
		0xaa, 0xbb,
		// DATA violates the open header block.
		0x00, 0x00, 0x01, byte(DATA), 0x00,
		0x00, 0x00, 0x00, 0x01,
		0xcc,
	}))
	frame, err := parser.ParseFrame()
	c.Check(err, IsNil)
	c.Check(frame.(*HeadersFrame).Fragment, DeepEquals, []byte{0xaa, 0xbb})

	frame, err = parser.ParseFrame()
	c.Check(err, ErrorMatches, "expected CONTINUATION for stream 1")
	c.Check(err.Code, Equals, PROTOCOL_ERROR)
	c.Check(frame, IsNil)
}

func (t *ParserTest) TestContinuationOfWrongStream(c *C) {
	parser := NewFrameParser(bytes.NewReader([]byte{
		0x00, 0x00, 0x02, byte(HEADERS), 0x00,
		0x00, 0x00, 0x00, 0x01,
		0xaa, 0xbb,
		0x00, 0x00, 0x01, byte(CONTINUATION), byte(END_HEADERS),
		0x00, 0x00, 0x00, 0x03,
		0xcc,
	}))
	_, err := parser.ParseFrame()
	c.Check(err, IsNil)

	frame, err := parser.ParseFrame()
	c.Check(err, ErrorMatches, "expected CONTINUATION for stream 1")
	c.Check(frame, IsNil)
}

func (t *ParserTest) TestContinuationReassembly(c *C) {
	parser := NewFrameParser(bytes.NewReader([]byte{
		0x00, 0x00, 0x02, byte(HEADERS), 0x00,
		0x00, 0x00, 0x00, 0x01,
		0xaa, 0xbb,
		0x00, 0x00, 0x02, byte(CONTINUATION), byte(END_HEADERS),
		0x00, 0x00, 0x00, 0x01,
		0xcc, 0xdd,
		// The block is closed; other frames may follow.
		0x00, 0x00, 0x04, byte(RST_STREAM), 0x00,
		0x00, 0x00, 0x00, 0x01,
		0x00, 0x00, 0x00, 0x08,
	}))
	frame, err := parser.ParseFrame()
	c.Check(err, IsNil)
	c.Check(frame, FitsTypeOf, &HeadersFrame{})

	frame, err = parser.ParseFrame()
	c.Check(err, IsNil)
	c.Check(frame.(*ContinuationFrame).Fragment, DeepEquals,
		[]byte{0xcc, 0xdd})

	frame, err = parser.ParseFrame()
	c.Check(err, IsNil)
	c.Check(frame.(*RstStreamFrame).Code, Equals, CANCEL)
}

func (t *ParserTest) TestUnexpectedContinuation(c *C) {
	frame, err := parseOne([]byte{
		0x00, 0x00, 0x01, byte(CONTINUATION), byte(END_HEADERS),
		0x00, 0x00, 0x00, 0x01,
		0xaa,
	})
	c.Check(err, ErrorMatches, "unexpected CONTINUATION")
	c.Check(err.Code, Equals, PROTOCOL_ERROR)
	c.Check(frame, IsNil)
}

func (t *ParserTest) TestUnknownFrameTypeSkipped(c *C) {
	frame, err := parseOne([]byte{
		0x00, 0x00, 0x03, 0xbb, 0xff,
		0x00, 0x00, 0x00, 0x07,
		0xaa, 0xbb, 0xcc,
		0x00, 0x00, 0x08, byte(PING), 0x00,
		0x00, 0x00, 0x00, 0x00,
		0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08,
	})
	c.Check(err, IsNil)

	ping := frame.(*PingFrame)
	c.Check(ping.OpaqueData, Equals, uint64(0x0102030405060708))
}

func (t *ParserTest) TestSettingsFrame(c *C) {
	frame, err := parseOne([]byte{
		0x00, 0x00, 0x12, byte(SETTINGS), 0x00,
		0x00, 0x00, 0x00, 0x00,
		0x00, 0x03, 0x00, 0x00, 0x00, 0x64,
		0x00, 0x04, 0x00, 0xa0, 0x00, 0x00,
		0x00, 0x02, 0x00, 0x00, 0x00, 0x00,
	})
	c.Check(err, IsNil)

	settings := frame.(*SettingsFrame)
	c.Check(settings.Settings, DeepEquals, map[SettingID]uint32{
		SETTINGS_MAX_CONCURRENT_STREAMS: 100,
		SETTINGS_INITIAL_WINDOW_SIZE:    10485760,
		SETTINGS_ENABLE_PUSH:            0,
	})
}

func (t *ParserTest) TestSettingsFrameUnknownIdentifierIgnored(c *C) {
	frame, err := parseOne([]byte{
		0x00, 0x00, 0x0c, byte(SETTINGS), 0x00,
		0x00, 0x00, 0x00, 0x00,
		0x00, 0x99, 0x00, 0x00, 0x00, 0x01,
		0x00, 0x02, 0x00, 0x00, 0x00, 0x01,
	})
	c.Check(err, IsNil)

	settings := frame.(*SettingsFrame)
	c.Check(settings.Settings, DeepEquals, map[SettingID]uint32{
		SETTINGS_ENABLE_PUSH: 1,
	})
}

func (t *ParserTest) TestSettingsFrameAckWithPayload(c *C) {
	frame, err := parseOne([]byte{
		0x00, 0x00, 0x06, byte(SETTINGS), byte(ACK),
		0x00, 0x00, 0x00, 0x00,
		0x00, 0x02, 0x00, 0x00, 0x00, 0x01,
	})
	c.Check(err, ErrorMatches, "SETTINGS with ACK must have empty payload")
	c.Check(err.Code, Equals, FRAME_SIZE_ERROR)
	c.Check(frame, IsNil)
}

func (t *ParserTest) TestSettingsFrameBadLength(c *C) {
	frame, err := parseOne([]byte{
		0x00, 0x00, 0x05, byte(SETTINGS), 0x00,
		0x00, 0x00, 0x00, 0x00,
		0x00, 0x02, 0x00, 0x00, 0x00,
	})
	c.Check(err, ErrorMatches, `invalid SETTINGS payload \(length % 6 != 0\)`)
	c.Check(err.Code, Equals, FRAME_SIZE_ERROR)
	c.Check(frame, IsNil)
}

func (t *ParserTest) TestSettingsFrameOnNonZeroStream(c *C) {
	frame, err := parseOne([]byte{
		0x00, 0x00, 0x00, byte(SETTINGS), 0x00,
		0x00, 0x00, 0x00, 0x01,
	})
	c.Check(err, ErrorMatches, "invalid SETTINGS stream ID 0x1")
	c.Check(err.Code, Equals, PROTOCOL_ERROR)
	c.Check(frame, IsNil)
}

func (t *ParserTest) TestPingFrameShortPayload(c *C) {
	frame, err := parseOne([]byte{
		0x00, 0x00, 0x07, byte(PING), 0x00,
		0x00, 0x00, 0x00, 0x00,
		0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07,
	})
	c.Check(err, NotNil)
	c.Check(err.Code, Equals, FRAME_SIZE_ERROR)
	c.Check(frame, IsNil)
}

func (t *ParserTest) TestGoAwayFrame(c *C) {
	frame, err := parseOne([]byte{
		0x00, 0x00, 0x0b, byte(GOAWAY), 0x00,
		0x00, 0x00, 0x00, 0x00,
		0x80, 0x00, 0x00, 0x05,
		0x00, 0x00, 0x00, 0x0b,
		'b', 'y', 'e',
	})
	c.Check(err, IsNil)

	goAway := frame.(*GoAwayFrame)
	c.Check(goAway.LastID, Equals, StreamID(5))
	c.Check(goAway.Code, Equals, ENHANCE_YOUR_CALM)
	c.Check(goAway.Debug, DeepEquals, []byte("bye"))
}

func (t *ParserTest) TestWindowUpdateFrameReservedBitMasked(c *C) {
	frame, err := parseOne([]byte{
		0x00, 0x00, 0x04, byte(WINDOW_UPDATE), 0x00,
		0x00, 0x00, 0x00, 0x01,
		0x80, 0x00, 0x00, 0x01,
	})
	c.Check(err, IsNil)

	update := frame.(*WindowUpdateFrame)
	c.Check(update.StreamID, Equals, StreamID(1))
	c.Check(update.SizeDelta, Equals, uint32(1))
}

func (t *ParserTest) TestPushPromiseRejected(c *C) {
	frame, err := parseOne([]byte{
		0x00, 0x00, 0x04, byte(PUSH_PROMISE), 0x00,
		0x00, 0x00, 0x00, 0x01,
		0x00, 0x00, 0x00, 0x02,
	})
	c.Check(err, ErrorMatches, "unexpected PUSH_PROMISE from peer")
	c.Check(err.Code, Equals, PROTOCOL_ERROR)
	c.Check(frame, IsNil)
}

func (t *ParserTest) TestFrameLengthExceedsMaximum(c *C) {
	frame, err := parseOne([]byte{
		0x00, 0x40, 0x01, byte(DATA), 0x00,
		0x00, 0x00, 0x00, 0x01,
	})
	c.Check(err, ErrorMatches, "frame length 16385 exceeds maximum 16384")
	c.Check(err.Code, Equals, FRAME_SIZE_ERROR)
	c.Check(frame, IsNil)
}

func (t *ParserTest) TestRaisedFrameLengthMaximum(c *C) {
	parser := NewFrameParser(bytes.NewReader([]byte{
		0x00, 0x40, 0x01, byte(DATA), 0x00,
		0x00, 0x00, 0x00, 0x01,
	}))
	parser.SetMaxFrameSize(1 << 15)

	// The frame header is accepted; parsing fails only on the missing
	// payload.
	_, err := parser.ParseFrame()
	c.Check(err, NotNil)
	c.Check(err.Code, Not(Equals), FRAME_SIZE_ERROR)
}

func (t *ParserTest) TestExtraFramePayload(c *C) {
	frame, err := parseOne([]byte{
		0x00, 0x00, 0x05, byte(RST_STREAM), 0x00,
		0x00, 0x00, 0x00, 0x01,
		0x00, 0x00, 0x00, 0x08, 0xff,
	})
	c.Check(err, ErrorMatches, "1 bytes of extra frame payload")
	c.Check(err.Code, Equals, FRAME_SIZE_ERROR)
	c.Check(frame, IsNil)
}

func (t *ParserTest) TestEndOfInput(c *C) {
	frame, err := parseOne(nil)
	c.Check(err, NotNil)
	c.Check(err.Err, Equals, io.EOF)
	c.Check(frame, IsNil)
}

var _ = Suite(&ParserTest{})
