// Copyright 2025 The Kestrel Web Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.
package http2

// Settings tracks one side's negotiated parameters. Identifiers without an
// explicit value report their protocol-defined default; the two unbounded
// settings report presence through a second return.
type Settings struct {
	values map[SettingID]uint32
}

func NewSettings() Settings {
	return Settings{values: make(map[SettingID]uint32)}
}

func (s Settings) HeaderTableSize() uint32 {
	return s.valueOr(SETTINGS_HEADER_TABLE_SIZE, kDefaultHeaderTableSize)
}

func (s Settings) EnablePush() bool {
	return s.valueOr(SETTINGS_ENABLE_PUSH, kDefaultEnablePush) != 0
}

func (s Settings) MaxConcurrentStreams() (uint32, bool) {
	value, ok := s.values[SETTINGS_MAX_CONCURRENT_STREAMS]
	return value, ok
}

func (s Settings) InitialWindowSize() uint32 {
	return s.valueOr(SETTINGS_INITIAL_WINDOW_SIZE, kDefaultInitialWindowSize)
}

func (s Settings) MaxFrameSize() uint32 {
	return s.valueOr(SETTINGS_MAX_FRAME_SIZE, kDefaultMaxFrameSize)
}

func (s Settings) MaxHeaderListSize() (uint32, bool) {
	value, ok := s.values[SETTINGS_MAX_HEADER_LIST_SIZE]
	return value, ok
}

func (s Settings) valueOr(id SettingID, fallback uint32) uint32 {
	if value, ok := s.values[id]; ok {
		return value
	}
	return fallback
}

func (s *Settings) Set(id SettingID, value uint32) {
	s.values[id] = value
}

// Apply validates every pair of |frame| in isolation and then applies them
// atomically: an out-of-range value leaves the store untouched.
func (s *Settings) Apply(frame *SettingsFrame) *Error {
	for id, value := range frame.Settings {
		if err := validateSetting(id, value); err != nil {
			return err
		}
	}
	for id, value := range frame.Settings {
		s.values[id] = value
	}
	return nil
}

// Out-of-range values are connection errors, never silently clamped.
func validateSetting(id SettingID, value uint32) *Error {
	switch id {
	case SETTINGS_ENABLE_PUSH:
		if value != 0 && value != 1 {
			return protocolError(
				"invalid value for SETTINGS_ENABLE_PUSH (must be 0 or 1)")
		}
	case SETTINGS_INITIAL_WINDOW_SIZE:
		if value > kMaxWindowSize {
			return flowControlError(
				"SETTINGS_INITIAL_WINDOW_SIZE %v exceeds maximum window size",
				value)
		}
	case SETTINGS_MAX_FRAME_SIZE:
		if value < kMinMaxFrameSize || value > kMaxMaxFrameSize {
			return protocolError(
				"SETTINGS_MAX_FRAME_SIZE %v outside of [%v, %v]",
				value, kMinMaxFrameSize, kMaxMaxFrameSize)
		}
	}
	return nil
}

// Frame returns the SETTINGS frame advertising the non-default values of |s|.
func (s Settings) Frame() *SettingsFrame {
	frame := &SettingsFrame{Settings: make(map[SettingID]uint32)}
	for id, value := range s.values {
		frame.Settings[id] = value
	}
	return frame
}
