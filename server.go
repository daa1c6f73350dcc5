// Copyright 2025 The Kestrel Web Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.
package http2

import (
	"context"
	"net"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Server accepts prior-knowledge cleartext connections and serves each
// one on its own Connection.
type Server struct {
	Addr   string
	App    Application
	Logger *logrus.Logger

	// Settings advertised on every accepted connection.
	Settings Settings
}

func (s *Server) logger() *logrus.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return logrus.StandardLogger()
}

func (s *Server) ListenAndServe(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listener)
}

// Serve accepts until ctx is cancelled, then closes the listener and
// drains live connections.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	log := s.logger()
	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		<-ctx.Done()
		return listener.Close()
	})
	group.Go(func() error {
		for {
			socket, err := listener.Accept()
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}
			remote := socket.RemoteAddr()
			log.WithField("remote", remote).Info("accepted connection")

			conn := NewConnection(socket, s.App, Options{
				Logger:   log,
				Settings: s.Settings,
			})
			group.Go(func() error {
				<-ctx.Done()
				conn.Close()
				return nil
			})
			group.Go(func() error {
				if err := conn.Serve(); err != nil {
					log.WithField("remote", remote).WithError(err).Warn(
						"connection closed with error")
				} else {
					log.WithField("remote", remote).Info("connection closed")
				}
				return nil
			})
		}
	})
	return group.Wait()
}
