// Copyright 2025 The Kestrel Web Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.
package http2

import (
	"bufio"
	"errors"
	"io"

	"github.com/sirupsen/logrus"
)

var (
	kConnectionStallError  error = errors.New("connection flow control stall")
	kStreamStallError      error = errors.New("stream flow control stall")
	kConnectionClosedError error = errors.New("connection is closed")
)

// A complete request received from the peer, handed off once its stream
// is remotely closed.
type Request struct {
	StreamID StreamID
	Headers  []HeaderField
	Body     []byte
	Trailers []HeaderField
}

// Application is the collaborator driving a Connection. Callbacks are
// invoked from dedicated goroutines; OnRequest may call SendResponse
// directly.
type Application interface {
	OnRequest(conn *Connection, request *Request)
	OnStreamError(conn *Connection, id StreamID, err *Error)
	OnConnectionError(conn *Connection, err *Error)
}

type Options struct {
	Logger *logrus.Logger

	// Settings advertised to the peer at connection start.
	Settings Settings
}

type readEvent struct {
	frame Frame
	err   *Error
}

type queuedResponse struct {
	id       StreamID
	headers  []HeaderField
	body     []byte
	trailers []HeaderField
}

type pendingHeaderBlock struct {
	id        StreamID
	endStream bool
}

// Connection serves one HTTP/2 session over rwc. All connection state is
// owned by the mainLoop goroutine; the read and write loops touch only
// the socket, and collaborators reach the loop through channels.
type Connection struct {
	app Application
	rwc io.ReadWriteCloser
	log *logrus.Entry

	localSettings Settings
	peerSettings  Settings

	recvFlow RecvFlow
	sendFlow SendFlow

	decoder *HpackDecoder
	encoder *HpackEncoder

	streams     map[StreamID]*Stream
	maxClientID StreamID

	writeQueue writeQueue

	recvMux     chan readEvent
	sendMux     chan Frame
	responseMux chan *queuedResponse
	closeMux    chan struct{}

	writeErr   chan *Error
	writerDone chan struct{}
	loopDone   chan struct{}

	// Header block being reassembled across CONTINUATION frames.
	pendingHeaders *pendingHeaderBlock

	draining   bool
	sentGoAway bool
	loopErr    *Error
}

func NewConnection(rwc io.ReadWriteCloser, app Application,
	opts Options) *Connection {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	settings := opts.Settings
	if settings.values == nil {
		settings = NewSettings()
	}

	conn := &Connection{
		app: app,
		rwc: rwc,
		log: logrus.NewEntry(logger),

		localSettings: settings,
		peerSettings:  NewSettings(),

		recvFlow: NewRecvFlow(kDefaultInitialWindowSize),
		sendFlow: NewSendFlow(kDefaultInitialWindowSize),

		decoder: NewHpackDecoder(),
		encoder: NewHpackEncoder(),

		streams: make(map[StreamID]*Stream),

		recvMux:     make(chan readEvent),
		sendMux:     make(chan Frame),
		responseMux: make(chan *queuedResponse),
		closeMux:    make(chan struct{}, 1),

		writeErr:   make(chan *Error, 1),
		writerDone: make(chan struct{}),
		loopDone:   make(chan struct{}),
	}
	conn.decoder.SetSettingMaxTableSize(int(settings.HeaderTableSize()))
	return conn
}

// Serve runs the connection to completion. It returns nil on an orderly
// close, and the terminal error otherwise.
func (c *Connection) Serve() error {
	defer close(c.loopDone)

	if err := ReadPreface(c.rwc); err != nil {
		c.log.WithError(err).Warn("rejected connection preface")
		c.rwc.Close()
		return err
	}
	c.writeQueue.enqueueBack(c.localSettings.Frame())

	go c.readLoop()
	go c.writeLoop()

	err := c.mainLoop()

	close(c.sendMux)
	<-c.writerDone
	c.rwc.Close()

	// The read loop may be parked on recvMux.
	go func() {
		for range c.recvMux {
		}
	}()

	if err != nil {
		return err
	}
	return nil
}

// SendResponse queues the response for |id|. Headers are sent first,
// then body DATA bounded by flow control, then trailers. The stream is
// locally closed by the last of these. Errors encountered after queueing
// are reported through Application.OnStreamError.
func (c *Connection) SendResponse(id StreamID, headers []HeaderField,
	body []byte, trailers []HeaderField) error {
	response := &queuedResponse{
		id:       id,
		headers:  headers,
		body:     body,
		trailers: trailers,
	}
	select {
	case c.responseMux <- response:
		return nil
	case <-c.loopDone:
		return kConnectionClosedError
	}
}

// Close drains the connection: no new streams are accepted, and a
// NO_ERROR GOAWAY is sent once active streams complete.
func (c *Connection) Close() {
	select {
	case c.closeMux <- struct{}{}:
	case <-c.loopDone:
	}
}

func (c *Connection) readLoop() {
	defer close(c.recvMux)

	parser := NewFrameParser(c.rwc)
	parser.SetMaxFrameSize(c.localSettings.MaxFrameSize())

	for {
		frame, err := parser.ParseFrame()
		if err != nil {
			if errors.Is(err.Err, io.EOF) {
				return
			}
			c.recvMux <- readEvent{err: err}
			return
		}
		c.recvMux <- readEvent{frame: frame}
	}
}

func (c *Connection) writeLoop() {
	defer close(c.writerDone)

	buffered := bufio.NewWriter(c.rwc)
	writer := NewFrameWriter(buffered)
	failed := false

	for frame := range c.sendMux {
		if failed {
			continue
		}
		if err := writer.WriteFrame(frame); err != nil {
			failed = true
			c.writeErr <- err
			continue
		}
		// Flush only once the queue drains, to batch small frames.
		if len(c.sendMux) == 0 {
			if err := buffered.Flush(); err != nil {
				failed = true
				c.writeErr <- wrapError(err)
			}
		}
	}
	if !failed {
		buffered.Flush()
	}
}

func (c *Connection) mainLoop() *Error {
	var pendingSend Frame

	maybeSendMux := func() chan<- Frame {
		if pendingSend != nil {
			return c.sendMux
		}
		return nil
	}

	for {
		c.maybeFinishDrain()

		// Deque the next frame to write.
		if pendingSend == nil {
			if next, ok := c.writeQueue.deque(); ok {
				if err := c.prepareToSendFrame(next); err == nil {
					pendingSend = next
				} else {
					c.handleError(err, next.GetStreamID())
				}
			}
		}

		// The loop makes progress when a frame is written, a frame is
		// received, a response is queued, or a close is requested.
		select {
		case maybeSendMux() <- pendingSend:
			sent := pendingSend
			pendingSend = nil
			if sent.GetType() == GOAWAY {
				return c.loopErr
			}

		case event, ok := <-c.recvMux:
			if !ok {
				// Peer disconnected without GOAWAY.
				c.log.Debug("peer closed transport")
				return c.loopErr
			}
			if event.err != nil {
				c.handleError(event.err, 0)
			} else if err := c.receiveFrame(event.frame); err != nil {
				c.handleError(err, event.frame.GetStreamID())
			}

		case response := <-c.responseMux:
			if err := c.queueResponse(response); err != nil {
				c.handleError(err, response.id)
			}

		case <-c.closeMux:
			c.draining = true

		case err := <-c.writeErr:
			c.log.WithError(err).Warn("transport write failed")
			return err
		}
	}
}

// maybeFinishDrain queues the final GOAWAY once a draining connection
// has no remaining streams or partial header blocks.
func (c *Connection) maybeFinishDrain() {
	if !c.draining || c.sentGoAway || c.pendingHeaders != nil {
		return
	}
	if c.countActiveStreams() != 0 {
		return
	}
	c.queueGoAway(NO_ERROR, "")
}

func (c *Connection) countActiveStreams() int {
	count := 0
	for _, stream := range c.streams {
		if stream.State != Idle && stream.State != Closed {
			count += 1
		}
	}
	return count
}

// Receive paths. All return errors scoped by Error.Level.

func (c *Connection) receiveFrame(frame Frame) *Error {
	switch f := frame.(type) {
	case *DataFrame:
		return c.receiveDataFrame(f)
	case *HeadersFrame:
		return c.receiveHeadersFrame(f)
	case *ContinuationFrame:
		return c.receiveContinuationFrame(f)
	case *PriorityFrame:
		// Validated during parse. The engine does not schedule by
		// priority.
		return nil
	case *RstStreamFrame:
		return c.receiveRstStreamFrame(f)
	case *SettingsFrame:
		return c.receiveSettingsFrame(f)
	case *PingFrame:
		return c.receivePingFrame(f)
	case *GoAwayFrame:
		return c.receiveGoAwayFrame(f)
	case *WindowUpdateFrame:
		return c.receiveWindowUpdateFrame(f)
	}
	return internalError("unknown frame type %v", frame.GetType())
}

func (c *Connection) receiveHeadersFrame(frame *HeadersFrame) *Error {
	c.decoder.AppendFragment(frame.Fragment)
	c.pendingHeaders = &pendingHeaderBlock{
		id:        frame.StreamID,
		endStream: frame.Flags&END_STREAM != 0,
	}
	if frame.Flags&END_HEADERS == 0 {
		return nil
	}
	return c.finishHeaderBlock()
}

func (c *Connection) receiveContinuationFrame(frame *ContinuationFrame) *Error {
	if c.pendingHeaders == nil || c.pendingHeaders.id != frame.StreamID {
		return protocolError("unexpected CONTINUATION of stream %v",
			frame.StreamID)
	}
	c.decoder.AppendFragment(frame.Fragment)
	if frame.Flags&END_HEADERS == 0 {
		return nil
	}
	return c.finishHeaderBlock()
}

// finishHeaderBlock decodes a completed block and applies it to stream
// state. Decoding happens before any stream admission decision, as even
// a refused block updates the shared compression context.
func (c *Connection) finishHeaderBlock() *Error {
	pending := c.pendingHeaders
	c.pendingHeaders = nil

	headers, err := c.decoder.BlockComplete()
	if err != nil {
		return err
	}

	stream := c.streams[pending.id]
	if stream == nil {
		if pending.id&1 == 0 {
			return protocolError("peer opened even stream %v", pending.id)
		}
		if pending.id <= c.maxClientID {
			return protocolError("stream %v not above prior stream %v",
				pending.id, c.maxClientID)
		}
		if c.draining || c.sentGoAway {
			// Recorded so frames pipelined behind the refused HEADERS
			// classify as closed-stream races, not idle-stream errors.
			c.maxClientID = pending.id
			return streamError(REFUSED_STREAM,
				"refusing stream %v of draining connection", pending.id)
		}
		if limit, ok := c.localSettings.MaxConcurrentStreams(); ok &&
			c.countActiveStreams() >= int(limit) {
			c.maxClientID = pending.id
			return streamError(REFUSED_STREAM,
				"concurrent stream limit %v reached", limit)
		}
		c.maxClientID = pending.id
		stream = NewStream(pending.id,
			c.localSettings.InitialWindowSize(),
			c.peerSettings.InitialWindowSize())
		c.streams[pending.id] = stream
	} else if stream.SawHeaders && stream.State != Closed && !pending.endStream {
		return streamError(PROTOCOL_ERROR,
			"trailers of stream %v without END_STREAM", pending.id)
	}

	if err := stream.onHeaders(Receive, pending.endStream); err != nil {
		return err
	}

	if !stream.SawHeaders {
		stream.SawHeaders = true
		stream.Headers = headers
	} else {
		stream.SawTrailers = true
		stream.Trailers = headers
	}
	c.maybeDispatch(stream)
	return nil
}

func (c *Connection) receiveDataFrame(frame *DataFrame) *Error {
	length := frame.PayloadLength()

	if err := c.recvFlow.ApplyDataReceived(length); err != nil {
		return err
	}
	// The engine buffers complete bodies, so received bytes are consumed
	// immediately.
	c.recvFlow.ApplyDataConsumed(length)
	if c.recvFlow.OverUnackedThreshold() {
		c.writeQueue.enqueueBack(c.recvFlow.BuildWindowUpdate(0))
	}

	stream := c.streams[frame.StreamID]
	if stream == nil {
		if frame.StreamID <= c.maxClientID {
			return streamError(STREAM_CLOSED,
				"DATA on closed stream %v", frame.StreamID)
		}
		return protocolError("DATA on idle stream %v", frame.StreamID)
	}

	fin := frame.Flags&END_STREAM != 0
	if err := stream.onData(Receive, fin); err != nil {
		return err
	}
	if err := stream.RecvFlow.ApplyDataReceived(length); err != nil {
		return err
	}
	stream.RecvFlow.ApplyDataConsumed(length)
	if stream.State != Closed && stream.RecvFlow.OverUnackedThreshold() {
		c.writeQueue.enqueueBack(
			stream.RecvFlow.BuildWindowUpdate(stream.ID))
	}

	stream.Body = append(stream.Body, frame.Data...)
	c.maybeDispatch(stream)
	return nil
}

func (c *Connection) receiveSettingsFrame(frame *SettingsFrame) *Error {
	if frame.Flags&ACK != 0 {
		return nil
	}

	previousWindow := int64(c.peerSettings.InitialWindowSize())
	if err := c.peerSettings.Apply(frame); err != nil {
		return err
	}

	c.encoder.SetMaxTableSize(int(c.peerSettings.HeaderTableSize()))

	// A changed initial window retroactively adjusts every open stream
	// send window, possibly below zero.
	delta := int64(c.peerSettings.InitialWindowSize()) - previousWindow
	if delta != 0 {
		for _, stream := range c.streams {
			if stream.State == Idle || stream.State == Closed {
				continue
			}
			if err := stream.SendFlow.ApplySettingsDelta(delta); err != nil {
				return err
			}
			c.pumpStreamSends(stream)
		}
	}

	c.writeQueue.enqueueBack(&SettingsFrame{
		FramePrefix: FramePrefix{Flags: ACK}})
	return nil
}

func (c *Connection) receivePingFrame(frame *PingFrame) *Error {
	if frame.Flags&ACK != 0 {
		return nil
	}
	c.writeQueue.enqueueBack(&PingFrame{
		FramePrefix: FramePrefix{Flags: ACK},
		OpaqueData:  frame.OpaqueData,
	})
	return nil
}

func (c *Connection) receiveGoAwayFrame(frame *GoAwayFrame) *Error {
	c.log.WithFields(logrus.Fields{
		"code":   frame.Code,
		"lastID": frame.LastID,
	}).Info("peer is going away")
	c.draining = true
	return nil
}

func (c *Connection) receiveWindowUpdateFrame(frame *WindowUpdateFrame) *Error {
	if frame.StreamID == 0 {
		return c.sendFlow.ApplyWindowUpdate(frame.SizeDelta)
	}

	stream := c.streams[frame.StreamID]
	if stream == nil {
		if frame.StreamID <= c.maxClientID {
			// Stale update of a refused stream.
			return nil
		}
		return protocolError("WINDOW_UPDATE on idle stream %v",
			frame.StreamID)
	}
	if stream.State == Closed {
		return nil
	}

	if err := stream.SendFlow.ApplyWindowUpdate(frame.SizeDelta); err != nil {
		err.Level = StreamError
		return err
	}
	c.pumpStreamSends(stream)
	return nil
}

func (c *Connection) receiveRstStreamFrame(frame *RstStreamFrame) *Error {
	stream := c.streams[frame.StreamID]
	if stream == nil {
		if frame.StreamID <= c.maxClientID {
			return nil
		}
		return protocolError("RST_STREAM on idle stream %v", frame.StreamID)
	}
	wasClosed := stream.State == Closed

	if err := stream.onReset(Receive); err != nil {
		return err
	}
	if wasClosed {
		return nil
	}
	c.writeQueue.dropStream(frame.StreamID)
	c.flushParkedFrames(stream)

	err := streamError(frame.Code, "stream %v reset by peer (%v)",
		frame.StreamID, frame.Code)
	c.dispatchStreamError(frame.StreamID, err)
	return nil
}

// Send paths.

func (c *Connection) queueResponse(response *queuedResponse) *Error {
	stream := c.streams[response.id]
	if stream == nil || stream.State == Closed ||
		stream.State == HalfClosedLocal {
		// Raced a reset. The response is dropped.
		err := newError(STREAM_CLOSED,
			"response for closed stream %v", response.id)
		err.Level = RecoverableError
		return err
	}

	finOnHeaders := len(response.body) == 0 && len(response.trailers) == 0
	c.queueHeaderBlock(response.id, response.headers, finOnHeaders)

	if len(response.body) > 0 {
		flags := NO_FLAGS
		if len(response.trailers) == 0 {
			flags = END_STREAM
		}
		// Flow control and SETTINGS_MAX_FRAME_SIZE split the frame at
		// write time.
		c.writeQueue.enqueueBack(&DataFrame{
			FramePrefix: FramePrefix{Flags: flags, StreamID: response.id},
			Data:        response.body,
		})
	}
	if len(response.trailers) > 0 {
		c.queueHeaderBlock(response.id, response.trailers, true)
	}
	return nil
}

// queueHeaderBlock encodes the block and queues it as one HEADERS frame
// plus CONTINUATION frames bounded by the peer's maximum frame size.
func (c *Connection) queueHeaderBlock(id StreamID, headers []HeaderField,
	fin bool) {
	block := c.encoder.EncodeBlock(headers)
	bound := int(c.peerSettings.MaxFrameSize())

	flags := NO_FLAGS
	if fin {
		flags = END_STREAM
	}

	fragment := block
	if len(fragment) > bound {
		fragment = block[:bound]
	}
	block = block[len(fragment):]
	if len(block) == 0 {
		flags |= END_HEADERS
	}
	c.writeQueue.enqueueBack(&HeadersFrame{
		FramePrefix: FramePrefix{Flags: flags, StreamID: id},
		Fragment:    fragment,
	})

	for len(block) > 0 {
		fragment = block
		if len(fragment) > bound {
			fragment = block[:bound]
		}
		block = block[len(fragment):]

		flags = NO_FLAGS
		if len(block) == 0 {
			flags = END_HEADERS
		}
		c.writeQueue.enqueueBack(&ContinuationFrame{
			FramePrefix: FramePrefix{Flags: flags, StreamID: id},
			Fragment:    fragment,
		})
	}
}

func (c *Connection) prepareToSendFrame(frame Frame) *Error {
	switch f := frame.(type) {
	case *DataFrame:
		return c.prepareToSendDataFrame(f)
	case *HeadersFrame:
		return c.prepareToSendHeadersFrame(f)
	case *ContinuationFrame:
		return c.prepareToSendContinuationFrame(f)
	default:
		// Control frames carry no stream state.
		return nil
	}
}

func (c *Connection) prepareToSendHeadersFrame(frame *HeadersFrame) *Error {
	stream := c.streams[frame.StreamID]
	if stream == nil {
		return internalError("HEADERS for unknown stream %v", frame.StreamID)
	}
	if stream.State == Closed {
		// The block is written anyway. Its encoding advanced the
		// compression context, and the peer must decode it.
		return nil
	}
	if len(stream.sendQueue) > 0 {
		// Queued behind a stalled DATA frame of the same stream.
		stream.sendQueue = append(stream.sendQueue, frame)
		return &Error{Level: RecoverableError, Code: FLOW_CONTROL_ERROR,
			Err: kStreamStallError}
	}
	return stream.onHeaders(Send, frame.Flags&END_STREAM != 0)
}

func (c *Connection) prepareToSendContinuationFrame(
	frame *ContinuationFrame) *Error {
	stream := c.streams[frame.StreamID]
	if stream == nil || stream.State == Closed {
		return nil
	}
	if len(stream.sendQueue) > 0 {
		stream.sendQueue = append(stream.sendQueue, frame)
		return &Error{Level: RecoverableError, Code: FLOW_CONTROL_ERROR,
			Err: kStreamStallError}
	}
	return nil
}

func (c *Connection) prepareToSendDataFrame(data *DataFrame) *Error {
	stream := c.streams[data.StreamID]
	if stream == nil {
		return internalError("DATA for unknown stream %v", data.StreamID)
	}
	if err := stream.onData(Send, false); err != nil {
		return err
	}
	if len(stream.sendQueue) > 0 {
		stream.sendQueue = append(stream.sendQueue, data)
		return &Error{Level: RecoverableError, Code: FLOW_CONTROL_ERROR,
			Err: kStreamStallError}
	}

	// Determine how much of the frame we're allowed to send.
	bound := int(c.peerSettings.MaxFrameSize())

	if c.sendFlow.Available <= 0 {
		// Stalled on connection flow control. The frame keeps its place
		// at the front of the queue.
		c.writeQueue.enqueueFront(data)
		return &Error{Level: RecoverableError, Code: FLOW_CONTROL_ERROR,
			Err: kConnectionStallError}
	} else if int(c.sendFlow.Available) < bound {
		bound = int(c.sendFlow.Available)
	}

	if stream.SendFlow.Available <= 0 {
		// Stalled on stream flow control. The frame is parked on the
		// stream so other streams keep flowing.
		stream.sendQueue = append(stream.sendQueue, data)
		return &Error{Level: RecoverableError, Code: FLOW_CONTROL_ERROR,
			Err: kStreamStallError}
	} else if int(stream.SendFlow.Available) < bound {
		bound = int(stream.SendFlow.Available)
	}

	// Split the frame if needed, and update flow control state.
	if bound < data.PayloadLength() {
		remainder := data.SplitAt(bound)
		c.writeQueue.enqueueFront(remainder)
	}

	c.sendFlow.ApplyDataSent(data.PayloadLength())
	stream.SendFlow.ApplyDataSent(data.PayloadLength())

	if data.Flags&END_STREAM != 0 {
		stream.onLocalFin()
	}
	return nil
}

// pumpStreamSends returns frames parked on stream flow control to the
// write queue, in their original order.
func (c *Connection) pumpStreamSends(stream *Stream) {
	if stream.SendFlow.Available <= 0 {
		return
	}
	for i := len(stream.sendQueue) - 1; i >= 0; i -= 1 {
		c.writeQueue.enqueueFront(stream.sendQueue[i])
	}
	stream.sendQueue = nil
}

// flushParkedFrames handles the parked frames of a reset stream: header
// frames are requeued so the peer's decoder stays synchronized, DATA is
// discarded.
func (c *Connection) flushParkedFrames(stream *Stream) {
	for i := len(stream.sendQueue) - 1; i >= 0; i -= 1 {
		if frame := stream.sendQueue[i]; frame.GetType() != DATA {
			c.writeQueue.enqueueFront(frame)
		}
	}
	stream.sendQueue = nil
}

// Error and teardown paths.

func (c *Connection) handleError(err *Error, id StreamID) {
	switch err.Level {
	case RecoverableError:
		c.log.WithField("stream", id).WithError(err).Debug(
			"recovered stream race")
	case StreamError:
		c.log.WithField("stream", id).WithError(err).Warn("stream error")
		c.resetStream(id, err)
	case ConnectionError:
		c.log.WithError(err).Error("connection error")
		c.queueGoAway(err.Code, err.Error())
		c.loopErr = err
		c.dispatchConnectionError(err)
	}
}

func (c *Connection) resetStream(id StreamID, err *Error) {
	if stream := c.streams[id]; stream != nil {
		if stream.State == Closed {
			// Already torn down. A second RST_STREAM would violate the
			// peer's view of the stream.
			return
		}
		stream.onReset(Send)
		c.flushParkedFrames(stream)
	}
	c.writeQueue.dropStream(id)
	c.writeQueue.enqueueBack(&RstStreamFrame{
		FramePrefix: FramePrefix{StreamID: id},
		Code:        err.Code,
	})
	c.dispatchStreamError(id, err)
}

func (c *Connection) queueGoAway(code ErrorCode, debug string) {
	if c.sentGoAway {
		return
	}
	c.sentGoAway = true
	c.writeQueue.enqueueBack(&GoAwayFrame{
		LastID: c.maxClientID,
		Code:   code,
		Debug:  []byte(debug),
	})
}

// Collaborator dispatch. Callbacks run outside the loop goroutine so
// they may block and may call back into SendResponse.

func (c *Connection) maybeDispatch(stream *Stream) {
	if !stream.SawRemoteFin || stream.SawRemoteRst || stream.Dispatched {
		return
	}
	stream.Dispatched = true

	request := &Request{
		StreamID: stream.ID,
		Headers:  stream.Headers,
		Body:     stream.Body,
		Trailers: stream.Trailers,
	}
	go func() {
		defer c.recoverCallbackPanic(stream.ID)
		c.app.OnRequest(c, request)
	}()
}

func (c *Connection) dispatchStreamError(id StreamID, err *Error) {
	go func() {
		defer c.recoverCallbackPanic(id)
		c.app.OnStreamError(c, id, err)
	}()
}

func (c *Connection) dispatchConnectionError(err *Error) {
	go func() {
		defer c.recoverCallbackPanic(0)
		c.app.OnConnectionError(c, err)
	}()
}

func (c *Connection) recoverCallbackPanic(id StreamID) {
	if recovered := recover(); recovered != nil {
		c.log.WithField("stream", id).Errorf(
			"application callback panic: %v", recovered)
	}
}
