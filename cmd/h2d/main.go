// Copyright 2025 The Kestrel Web Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// h2d is a minimal prior-knowledge HTTP/2 echo daemon.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/kestrelweb/http2"
)

type config struct {
	Listen   string `yaml:"listen"`
	LogLevel string `yaml:"log_level"`

	MaxConcurrentStreams uint32 `yaml:"max_concurrent_streams"`
	InitialWindowSize    uint32 `yaml:"initial_window_size"`
	MaxFrameSize         uint32 `yaml:"max_frame_size"`
	HeaderTableSize      uint32 `yaml:"header_table_size"`
}

func loadConfig(path string) (config, error) {
	conf := config{
		Listen:   ":8080",
		LogLevel: "info",
	}
	if path == "" {
		return conf, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return conf, err
	}
	if err := yaml.Unmarshal(raw, &conf); err != nil {
		return conf, err
	}
	return conf, nil
}

func (c config) settings() http2.Settings {
	settings := http2.NewSettings()
	if c.MaxConcurrentStreams != 0 {
		settings.Set(http2.SETTINGS_MAX_CONCURRENT_STREAMS,
			c.MaxConcurrentStreams)
	}
	if c.InitialWindowSize != 0 {
		settings.Set(http2.SETTINGS_INITIAL_WINDOW_SIZE,
			c.InitialWindowSize)
	}
	if c.MaxFrameSize != 0 {
		settings.Set(http2.SETTINGS_MAX_FRAME_SIZE, c.MaxFrameSize)
	}
	if c.HeaderTableSize != 0 {
		settings.Set(http2.SETTINGS_HEADER_TABLE_SIZE, c.HeaderTableSize)
	}
	return settings
}

// echoApplication responds to every request with its own body.
type echoApplication struct {
	log *logrus.Logger
}

func (a *echoApplication) OnRequest(conn *http2.Connection,
	request *http2.Request) {
	headers := []http2.HeaderField{
		{Name: ":status", Value: "200"},
		{Name: "content-type", Value: "text/plain"},
	}
	if err := conn.SendResponse(request.StreamID, headers,
		request.Body, nil); err != nil {
		a.log.WithField("stream", request.StreamID).WithError(err).Warn(
			"failed to queue response")
	}
}

func (a *echoApplication) OnStreamError(conn *http2.Connection,
	id http2.StreamID, err *http2.Error) {
	a.log.WithField("stream", id).WithError(err).Warn("stream failed")
}

func (a *echoApplication) OnConnectionError(conn *http2.Connection,
	err *http2.Error) {
	a.log.WithError(err).Warn("connection failed")
}

func main() {
	configPath := flag.String("config", "", "path to YAML configuration")
	flag.Parse()

	log := logrus.New()

	conf, err := loadConfig(*configPath)
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration")
	}
	level, err := logrus.ParseLevel(conf.LogLevel)
	if err != nil {
		log.WithError(err).Fatal("invalid log level")
	}
	log.SetLevel(level)

	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := &http2.Server{
		Addr:     conf.Listen,
		App:      &echoApplication{log: log},
		Logger:   log,
		Settings: conf.settings(),
	}
	log.WithField("listen", conf.Listen).Info("starting h2d")
	if err := server.ListenAndServe(ctx); err != nil {
		log.WithError(err).Fatal("server exited with error")
	}
}
