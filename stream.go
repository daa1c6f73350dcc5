// Copyright 2025 The Kestrel Web Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.
package http2

type StreamState uint8

type SendOrReceive bool

const (
	Idle             StreamState = 0
	Open             StreamState = iota
	HalfClosedLocal  StreamState = iota
	HalfClosedRemote StreamState = iota
	Closed           StreamState = iota

	Send    SendOrReceive = true
	Receive SendOrReceive = false
)

func (s StreamState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Open:
		return "open"
	case HalfClosedLocal:
		return "half-closed (local)"
	case HalfClosedRemote:
		return "half-closed (remote)"
	case Closed:
		return "closed"
	}
	return "unknown"
}

type Stream struct {
	ID    StreamID
	State StreamState

	SawRemoteRst bool
	SawRemoteFin bool
	SentLocalRst bool

	RecvFlow RecvFlow
	SendFlow SendFlow

	// Request accumulation, handed off at remote close.
	Headers     []HeaderField
	Body        []byte
	Trailers    []HeaderField
	SawHeaders  bool
	SawTrailers bool
	Dispatched  bool

	// Frames stalled on send flow control, in order. May hold HEADERS
	// queued behind a stalled DATA frame; those are never discarded, as
	// their blocks already advanced the shared compression context.
	sendQueue []Frame
}

func NewStream(id StreamID, recvWindow, sendWindow uint32) *Stream {
	return &Stream{
		ID:       id,
		State:    Idle,
		RecvFlow: NewRecvFlow(recvWindow),
		SendFlow: NewSendFlow(sendWindow),
	}
}

func (s *Stream) frameError(dir SendOrReceive, frameType FrameType) *Error {
	// Note that errors are Level ConnectionError by default.
	var err *Error

	if dir == Send {
		err = internalError("attempt to send %v on %v stream %v",
			frameType, s.State, s.ID)
	} else {
		err = protocolError("received %v on %v stream %v",
			frameType, s.State, s.ID)
	}

	// Special error cases around stream close.
	if dir == Send {
		if s.State == Closed && s.SawRemoteRst {
			// Local send raced with remote reset.
			err.Code = STREAM_CLOSED
			err.Level = RecoverableError
		}
	} else {
		if s.SawRemoteRst || s.SawRemoteFin {
			// Remote send after remote close. Mandated as a stream
			// error.
			err.Code = STREAM_CLOSED
			err.Level = StreamError
		} else if s.State == Closed {
			// Remote send raced with local reset.
			err.Code = STREAM_CLOSED
			err.Level = RecoverableError
		}
	}
	return err
}

func (s *Stream) onHeaders(dir SendOrReceive, fin bool) *Error {
	if s.State != Idle &&
		s.State != Open &&
		!(s.State == HalfClosedLocal && dir == Receive) &&
		!(s.State == HalfClosedRemote && dir == Send) {
		return s.frameError(dir, HEADERS)
	}

	if s.State == Idle {
		s.State = Open
	}

	if fin && dir == Send {
		s.onLocalFin()
	} else if fin {
		s.onRemoteFin()
	}
	return nil
}

func (s *Stream) onData(dir SendOrReceive, fin bool) *Error {
	if s.State != Open &&
		!(s.State == HalfClosedLocal && dir == Receive) &&
		!(s.State == HalfClosedRemote && dir == Send) {
		return s.frameError(dir, DATA)
	}

	if fin && dir == Send {
		s.onLocalFin()
	} else if fin {
		s.onRemoteFin()
	}
	return nil
}

func (s *Stream) onReset(dir SendOrReceive) *Error {
	if s.State == Idle {
		return s.frameError(dir, RST_STREAM)
	}
	if s.State == Closed {
		// A reset racing the peer's view of an already-closed stream
		// requires no action.
		return nil
	}

	if dir == Receive {
		s.SawRemoteRst = true
	} else {
		s.SentLocalRst = true
	}
	s.State = Closed
	return nil
}

func (s *Stream) onRemoteFin() {
	if s.State == Open {
		s.State = HalfClosedRemote
	} else if s.State == HalfClosedLocal {
		s.State = Closed
	} else {
		panic(s.State)
	}
	s.SawRemoteFin = true
}

func (s *Stream) onLocalFin() {
	if s.State == Open {
		s.State = HalfClosedLocal
	} else if s.State == HalfClosedRemote {
		s.State = Closed
	} else {
		panic(s.State)
	}
}
