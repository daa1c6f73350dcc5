// Copyright 2025 The Kestrel Web Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.
package http2

import (
	gc "gopkg.in/check.v1"
)

type StreamTest struct{}

func newTestStream(state StreamState) *Stream {
	stream := NewStream(1, kDefaultInitialWindowSize,
		kDefaultInitialWindowSize)
	stream.State = state
	return stream
}

func checkStreamError(c *gc.C, err *Error, level ErrorLevel, code ErrorCode) {
	c.Assert(err, gc.NotNil)
	c.Check(err.Level, gc.Equals, level)
	c.Check(err.Code, gc.Equals, code)
}

func (t *StreamTest) TestIdleTransitions(c *gc.C) {
	stream := newTestStream(Idle)
	c.Check(stream.onHeaders(Receive, false), gc.IsNil)
	c.Check(stream.State, gc.Equals, Open)

	stream = newTestStream(Idle)
	c.Check(stream.onHeaders(Receive, true), gc.IsNil)
	c.Check(stream.State, gc.Equals, HalfClosedRemote)
	c.Check(stream.SawRemoteFin, gc.Equals, true)

	stream = newTestStream(Idle)
	checkStreamError(c, stream.onData(Receive, false),
		ConnectionError, PROTOCOL_ERROR)

	stream = newTestStream(Idle)
	checkStreamError(c, stream.onReset(Receive),
		ConnectionError, PROTOCOL_ERROR)
}

func (t *StreamTest) TestOpenTransitions(c *gc.C) {
	stream := newTestStream(Open)
	c.Check(stream.onData(Receive, false), gc.IsNil)
	c.Check(stream.State, gc.Equals, Open)

	c.Check(stream.onData(Receive, true), gc.IsNil)
	c.Check(stream.State, gc.Equals, HalfClosedRemote)
	c.Check(stream.SawRemoteFin, gc.Equals, true)

	stream = newTestStream(Open)
	c.Check(stream.onHeaders(Send, true), gc.IsNil)
	c.Check(stream.State, gc.Equals, HalfClosedLocal)

	stream = newTestStream(Open)
	c.Check(stream.onReset(Receive), gc.IsNil)
	c.Check(stream.State, gc.Equals, Closed)
	c.Check(stream.SawRemoteRst, gc.Equals, true)

	stream = newTestStream(Open)
	c.Check(stream.onReset(Send), gc.IsNil)
	c.Check(stream.State, gc.Equals, Closed)
	c.Check(stream.SentLocalRst, gc.Equals, true)
}

func (t *StreamTest) TestHalfClosedRemoteTransitions(c *gc.C) {
	// Sending completes the exchange.
	stream := newTestStream(Open)
	c.Check(stream.onData(Receive, true), gc.IsNil)
	c.Check(stream.onHeaders(Send, false), gc.IsNil)
	c.Check(stream.onData(Send, true), gc.IsNil)
	c.Check(stream.State, gc.Equals, Closed)

	// Receiving after remote close is a stream error.
	stream = newTestStream(Open)
	c.Check(stream.onData(Receive, true), gc.IsNil)
	checkStreamError(c, stream.onData(Receive, false),
		StreamError, STREAM_CLOSED)
}

func (t *StreamTest) TestHalfClosedLocalTransitions(c *gc.C) {
	stream := newTestStream(Open)
	c.Check(stream.onHeaders(Send, true), gc.IsNil)

	// The peer may still send trailers ending the stream.
	c.Check(stream.onData(Receive, false), gc.IsNil)
	c.Check(stream.onHeaders(Receive, true), gc.IsNil)
	c.Check(stream.State, gc.Equals, Closed)
}

func (t *StreamTest) TestSendAfterRemoteResetIsRecoverable(c *gc.C) {
	stream := newTestStream(Open)
	c.Check(stream.onReset(Receive), gc.IsNil)

	checkStreamError(c, stream.onData(Send, false),
		RecoverableError, STREAM_CLOSED)
	checkStreamError(c, stream.onHeaders(Send, false),
		RecoverableError, STREAM_CLOSED)
}

func (t *StreamTest) TestReceiveAfterLocalResetIsRecoverable(c *gc.C) {
	stream := newTestStream(Open)
	c.Check(stream.onReset(Send), gc.IsNil)

	checkStreamError(c, stream.onData(Receive, false),
		RecoverableError, STREAM_CLOSED)
}

func (t *StreamTest) TestReceiveAfterRemoteCloseIsStreamError(c *gc.C) {
	stream := newTestStream(Open)
	c.Check(stream.onData(Receive, true), gc.IsNil)
	c.Check(stream.onData(Send, true), gc.IsNil)
	c.Check(stream.State, gc.Equals, Closed)

	checkStreamError(c, stream.onData(Receive, false),
		StreamError, STREAM_CLOSED)
	checkStreamError(c, stream.onHeaders(Receive, false),
		StreamError, STREAM_CLOSED)
}

func (t *StreamTest) TestRepeatedResetIsIgnored(c *gc.C) {
	stream := newTestStream(Open)
	c.Check(stream.onReset(Receive), gc.IsNil)

	c.Check(stream.onReset(Receive), gc.IsNil)
	c.Check(stream.onReset(Send), gc.IsNil)
	c.Check(stream.State, gc.Equals, Closed)
}

func (t *StreamTest) TestSendOnIdleStreamIsInternalError(c *gc.C) {
	stream := newTestStream(Idle)
	checkStreamError(c, stream.onData(Send, false),
		ConnectionError, INTERNAL_ERROR)
}

var _ = gc.Suite(&StreamTest{})
