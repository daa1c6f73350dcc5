// Copyright 2025 The Kestrel Web Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.
package http2

import (
	"container/heap"
)

type queuedFrame struct {
	frame    Frame
	priority int64
}
type queuedFrameHeap []queuedFrame

// Pending frames ordered for writing. Control frames are always written
// ahead of DATA so that acknowledgements and window updates are not
// delayed behind large response bodies.
type writeQueue struct {
	frames      queuedFrameHeap
	queuedCount int64
}

const (
	kPriorityBandControl int64 = 0 << 40
	kPriorityBandData    int64 = 1 << 40
)

// HEADERS and CONTINUATION share the DATA band: response frames of one
// stream must retain their queue order, and a header block split across
// CONTINUATION frames may not be reordered against other header blocks
// sharing the compression context.
func frameBand(frame Frame) int64 {
	switch frame.GetType() {
	case DATA, HEADERS, CONTINUATION:
		return kPriorityBandData
	}
	return kPriorityBandControl
}

func (q *writeQueue) enqueueBack(frame Frame) {
	q.queuedCount += 1
	heap.Push(&q.frames, queuedFrame{frame, frameBand(frame) + q.queuedCount})
}

// enqueueFront re-queues a frame ahead of its band, preserving the
// position of a frame stalled on flow control.
func (q *writeQueue) enqueueFront(frame Frame) {
	q.queuedCount += 1
	heap.Push(&q.frames, queuedFrame{frame, frameBand(frame) - q.queuedCount})
}

func (q *writeQueue) deque() (Frame, bool) {
	if len(q.frames) > 0 {
		result := q.frames[0].frame
		heap.Remove(&q.frames, 0)
		return result, true
	}
	return nil, false
}

// dropStream discards queued DATA of a reset stream. Queued HEADERS and
// CONTINUATION are kept: their blocks already advanced the compression
// context, and the peer must decode them to stay synchronized.
func (q *writeQueue) dropStream(id StreamID) {
	kept := q.frames[:0]
	for _, queued := range q.frames {
		if queued.frame.GetStreamID() != id ||
			queued.frame.GetType() != DATA {
			kept = append(kept, queued)
		}
	}
	q.frames = kept
	heap.Init(&q.frames)
}

// Functions for sort.Interface.
func (h queuedFrameHeap) Len() int {
	return len(h)
}
func (h queuedFrameHeap) Less(i, j int) bool {
	return h[i].priority < h[j].priority
}
func (h queuedFrameHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
}

// Functions for heap.Interface.
func (h *queuedFrameHeap) Push(x interface{}) {
	*h = append(*h, x.(queuedFrame))
}
func (h *queuedFrameHeap) Pop() interface{} {
	n := len(*h)
	result := (*h)[n-1]
	*h = (*h)[0 : n-1]
	return result
}
