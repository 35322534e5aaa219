// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package web mirrors the dashboard over HTTP: the latest snapshot as JSON
// and a websocket stream of every snapshot.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/relabs-tech/trek/internal/telemetry"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // read-only telemetry, served on the local network
	},
}

// Server is a telemetry.Sink that serves what it observes.
type Server struct {
	Addr string
	hub  *Hub

	mu   sync.RWMutex
	last []byte
}

// NewServer returns a server that will listen on addr.
func NewServer(addr string) *Server {
	return &Server{Addr: addr, hub: NewHub()}
}

// Observe stores snap for /api/telemetry and broadcasts it to websocket clients.
func (s *Server) Observe(snap telemetry.Snapshot) {
	payload, err := json.Marshal(snap)
	if err != nil {
		log.Printf("web: snapshot marshal error: %v", err)
		return
	}
	s.mu.Lock()
	s.last = payload
	s.mu.Unlock()
	s.hub.Broadcast(payload)
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/telemetry", s.handleTelemetry)
	mux.HandleFunc("/ws", s.handleWS)
	return mux
}

func (s *Server) handleTelemetry(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	payload := s.last
	s.mu.RUnlock()

	if payload == nil {
		http.Error(w, "no data yet", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(payload); err != nil {
		log.Printf("web: write error: %v", err)
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("web: websocket upgrade error: %v", err)
		return
	}
	c := &client{hub: s.hub, conn: conn, send: make(chan []byte, sendBuffer)}
	if !s.hub.join(c) {
		conn.Close()
	}
}

// Run starts the hub and serves HTTP until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	go s.hub.Run(ctx)

	srv := &http.Server{
		Addr:              s.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Printf("web: listening on %s", s.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
