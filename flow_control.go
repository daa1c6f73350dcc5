// Copyright 2025 The Kestrel Web Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.
package http2

// Credit-based accounting for one receive window, kept at connection scope
// and per stream.
type RecvFlow struct {
	// Received bytes which have not been acknowledged by a sent
	// WINDOW_UPDATE.
	WinUsed int32
	// Received and consumed bytes which have not
	// been acknowledged by a sent WINDOW_UPDATE.
	WinUnacked int32
	// Total size of the receive window.
	WinSize int32
}

func NewRecvFlow(size uint32) RecvFlow {
	return RecvFlow{WinSize: int32(size)}
}

func (f *RecvFlow) ApplyDataReceived(n int) *Error {
	f.WinUsed += int32(n)
	if f.WinUsed > f.WinSize {
		return flowControlError("DATA exceeded available window (%v vs %v)",
			f.WinUsed, f.WinSize)
	}
	return nil
}

func (f *RecvFlow) ApplyDataConsumed(n int) {
	f.WinUnacked += int32(n)
}

// The window is replenished only after consumption passes half its size,
// to avoid a WINDOW_UPDATE storm.
func (f *RecvFlow) OverUnackedThreshold() bool {
	return f.WinUnacked*2 > f.WinSize
}

func (f *RecvFlow) BuildWindowUpdate(id StreamID) *WindowUpdateFrame {
	update := &WindowUpdateFrame{
		FramePrefix: FramePrefix{
			StreamID: id,
			Flags:    NO_FLAGS,
		},
		SizeDelta: uint32(f.WinUnacked),
	}
	f.WinUsed -= f.WinUnacked
	f.WinUnacked = 0
	return update
}

// One send window. Available may go negative after a SETTINGS shrink of
// the initial window size.
type SendFlow struct {
	Available int32
}

func NewSendFlow(size uint32) SendFlow {
	return SendFlow{Available: int32(size)}
}

func (f *SendFlow) ApplyDataSent(n int) {
	f.Available -= int32(n)
}

// ApplyWindowUpdate adds a WINDOW_UPDATE increment. Zero increments and
// additions past the signed 32-bit range are errors; the caller scopes the
// error to the stream when the update targeted one.
func (f *SendFlow) ApplyWindowUpdate(delta uint32) *Error {
	if delta == 0 {
		return protocolError("WINDOW_UPDATE with zero increment")
	}
	if int64(f.Available)+int64(delta) > int64(kMaxWindowSize) {
		return flowControlError("window increment %v overflows window %v",
			delta, f.Available)
	}
	f.Available += int32(delta)
	return nil
}

// ApplySettingsDelta adjusts the window by the difference between an old
// and new SETTINGS_INITIAL_WINDOW_SIZE.
func (f *SendFlow) ApplySettingsDelta(delta int64) *Error {
	adjusted := int64(f.Available) + delta
	if adjusted > int64(kMaxWindowSize) {
		return flowControlError(
			"SETTINGS_INITIAL_WINDOW_SIZE delta %v overflows window %v",
			delta, f.Available)
	}
	f.Available = int32(adjusted)
	return nil
}
