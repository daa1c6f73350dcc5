// Copyright 2025 The Kestrel Web Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.
package http2

import (
	gc "gopkg.in/check.v1"
)

type WriteQueueTest struct{}

func dequeTypes(q *writeQueue) []FrameType {
	var types []FrameType
	for {
		frame, ok := q.deque()
		if !ok {
			return types
		}
		types = append(types, frame.GetType())
	}
}

func (t *WriteQueueTest) TestControlFramesJumpData(c *gc.C) {
	var q writeQueue
	q.enqueueBack(&DataFrame{FramePrefix: FramePrefix{StreamID: 1}})
	q.enqueueBack(&PingFrame{})
	q.enqueueBack(&SettingsFrame{FramePrefix: FramePrefix{Flags: ACK}})

	c.Check(dequeTypes(&q), gc.DeepEquals,
		[]FrameType{PING, SETTINGS, DATA})
}

func (t *WriteQueueTest) TestResponseFrameOrderIsPreserved(c *gc.C) {
	var q writeQueue
	q.enqueueBack(&HeadersFrame{FramePrefix: FramePrefix{StreamID: 1}})
	q.enqueueBack(&ContinuationFrame{FramePrefix: FramePrefix{StreamID: 1}})
	q.enqueueBack(&DataFrame{FramePrefix: FramePrefix{StreamID: 1}})
	q.enqueueBack(&HeadersFrame{FramePrefix: FramePrefix{StreamID: 1}})

	c.Check(dequeTypes(&q), gc.DeepEquals,
		[]FrameType{HEADERS, CONTINUATION, DATA, HEADERS})
}

func (t *WriteQueueTest) TestEnqueueFrontKeepsStalledFrameFirst(c *gc.C) {
	var q writeQueue
	q.enqueueBack(&DataFrame{FramePrefix: FramePrefix{StreamID: 1}})
	q.enqueueBack(&DataFrame{FramePrefix: FramePrefix{StreamID: 3}})

	stalled, ok := q.deque()
	c.Assert(ok, gc.Equals, true)
	c.Check(stalled.GetStreamID(), gc.Equals, StreamID(1))
	q.enqueueFront(stalled)

	next, ok := q.deque()
	c.Assert(ok, gc.Equals, true)
	c.Check(next.GetStreamID(), gc.Equals, StreamID(1))
}

func (t *WriteQueueTest) TestDropStreamKeepsHeaderFrames(c *gc.C) {
	var q writeQueue
	q.enqueueBack(&HeadersFrame{FramePrefix: FramePrefix{StreamID: 1}})
	q.enqueueBack(&DataFrame{FramePrefix: FramePrefix{StreamID: 1}})
	q.enqueueBack(&DataFrame{FramePrefix: FramePrefix{StreamID: 3}})
	q.enqueueBack(&RstStreamFrame{FramePrefix: FramePrefix{StreamID: 1}})

	q.dropStream(1)

	frame, ok := q.deque()
	c.Assert(ok, gc.Equals, true)
	c.Check(frame.GetType(), gc.Equals, RST_STREAM)

	frame, ok = q.deque()
	c.Assert(ok, gc.Equals, true)
	c.Check(frame.GetType(), gc.Equals, HEADERS)

	frame, ok = q.deque()
	c.Assert(ok, gc.Equals, true)
	c.Check(frame.GetType(), gc.Equals, DATA)
	c.Check(frame.GetStreamID(), gc.Equals, StreamID(3))

	_, ok = q.deque()
	c.Check(ok, gc.Equals, false)
}

var _ = gc.Suite(&WriteQueueTest{})
