// Copyright 2025 The Kestrel Web Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package http2

type StreamID uint32

type FrameType uint8

const (
	DATA            FrameType = 0x00
	HEADERS         FrameType = 0x01
	PRIORITY        FrameType = 0x02
	RST_STREAM      FrameType = 0x03
	SETTINGS        FrameType = 0x04
	PUSH_PROMISE    FrameType = 0x05
	PING            FrameType = 0x06
	GOAWAY          FrameType = 0x07
	WINDOW_UPDATE   FrameType = 0x08
	CONTINUATION    FrameType = 0x09
	LAST_FRAME_TYPE FrameType = CONTINUATION
)

type Flags uint8

const (
	NO_FLAGS    Flags = 0x00
	ACK         Flags = 0x01
	END_STREAM  Flags = 0x01
	END_HEADERS Flags = 0x04
	PADDED      Flags = 0x08
	PRIORITY_F  Flags = 0x20
)

// Flags defined for each frame type. Undefined flags are masked off on
// read rather than rejected.
var kValidFlags = [...]Flags{
	// DATA
	END_STREAM | PADDED,
	// HEADERS
	END_STREAM | END_HEADERS | PADDED | PRIORITY_F,
	// PRIORITY
	NO_FLAGS,
	// RST_STREAM
	NO_FLAGS,
	// SETTINGS
	ACK,
	// PUSH_PROMISE
	END_HEADERS | PADDED,
	// PING
	ACK,
	// GOAWAY
	NO_FLAGS,
	// WINDOW_UPDATE
	NO_FLAGS,
	// CONTINUATION
	END_HEADERS,
}

type SettingID uint16

const (
	SETTINGS_HEADER_TABLE_SIZE      SettingID = 0x01
	SETTINGS_ENABLE_PUSH            SettingID = 0x02
	SETTINGS_MAX_CONCURRENT_STREAMS SettingID = 0x03
	SETTINGS_INITIAL_WINDOW_SIZE    SettingID = 0x04
	SETTINGS_MAX_FRAME_SIZE         SettingID = 0x05
	SETTINGS_MAX_HEADER_LIST_SIZE   SettingID = 0x06

	SETTINGS_MIN_SETTING_ID SettingID = SETTINGS_HEADER_TABLE_SIZE
	SETTINGS_MAX_SETTING_ID SettingID = SETTINGS_MAX_HEADER_LIST_SIZE
)

const (
	kDefaultHeaderTableSize   uint32 = 4096
	kDefaultEnablePush        uint32 = 1
	kDefaultInitialWindowSize uint32 = 65535
	kDefaultMaxFrameSize      uint32 = 16384

	kMinMaxFrameSize uint32 = 1 << 14
	kMaxMaxFrameSize uint32 = 1<<24 - 1

	kMaxWindowSize uint32 = 1<<31 - 1

	kFrameHeaderLength int = 9

	HpackOverheadPerEntry int = 32
	HpackInitialTableSize int = 4096
)

const kConnectionPreface = "PRI * HTTP/2.0\r\n\r\nSM\r\n\r\n"
