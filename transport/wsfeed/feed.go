// Copyright (C) 2024 right-sizer contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package wsfeed is a reference (non-core) downstream transport: it
// serializes each Envelope a BeliefBus produces onto connected WebSocket
// clients. Nothing in the core depends on it.
package wsfeed

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"saliencycore/belief"
	"saliencycore/logger"
)

// Config configures the Feed server.
type Config struct {
	MaxConnections int
	BufferSize     int
	CorsOrigins    []string
}

// connection is one subscribed dashboard/bot client.
type connection struct {
	id   string
	conn *websocket.Conn
	send chan belief.Envelope
}

// Feed fans out Envelopes to every connected WebSocket client. Safe for
// concurrent use — unlike the core, this is ordinary I/O-bound transport
// code with no single-caller synchronous contract to uphold.
type Feed struct {
	mu          sync.RWMutex
	connections map[string]*connection
	upgrader    websocket.Upgrader
	cfg         Config
	nextConnID  int
}

// New constructs a Feed.
func New(cfg Config) *Feed {
	return &Feed{
		connections: make(map[string]*connection),
		cfg:         cfg,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				if len(cfg.CorsOrigins) == 0 {
					return true
				}
				origin := r.Header.Get("Origin")
				for _, allowed := range cfg.CorsOrigins {
					if origin == allowed {
						return true
					}
				}
				return false
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// HandleWebSocket upgrades an HTTP request to a WebSocket feed
// subscription. Authentication (verifying a bot_id claim) is the
// caller's responsibility — see transport/botauth.
func (f *Feed) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	f.mu.RLock()
	count := len(f.connections)
	f.mu.RUnlock()
	if f.cfg.MaxConnections > 0 && count >= f.cfg.MaxConnections {
		http.Error(w, "too many connections", http.StatusTooManyRequests)
		return
	}

	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("wsfeed: upgrade failed: %v", err)
		return
	}

	f.mu.Lock()
	f.nextConnID++
	c := &connection{
		id:   fmt.Sprintf("conn-%d", f.nextConnID),
		conn: conn,
		send: make(chan belief.Envelope, f.cfg.BufferSize),
	}
	f.connections[c.id] = c
	total := len(f.connections)
	f.mu.Unlock()

	logger.Info("wsfeed: client connected (%s), total=%d", c.id, total)

	go f.writeLoop(c)
	go f.readLoop(c)
}

// readLoop drains and discards inbound frames; this feed is one-way
// (server -> client). It exists only to detect disconnect.
func (f *Feed) readLoop(c *connection) {
	defer f.remove(c.id)
	c.conn.SetReadLimit(512)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (f *Feed) writeLoop(c *connection) {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case env, ok := <-c.send:
			if !ok {
				return
			}
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteJSON(env); err != nil {
				logger.Debug("wsfeed: write failed for %s: %v", c.id, err)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (f *Feed) remove(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.connections[id]; ok {
		close(c.send)
		delete(f.connections, id)
	}
}

// Broadcast pushes env to every currently-connected client's send
// buffer, dropping it for clients whose buffer is full rather than
// blocking the caller.
func (f *Feed) Broadcast(env belief.Envelope) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, c := range f.connections {
		select {
		case c.send <- env:
		default:
			logger.Warn("wsfeed: dropping envelope for slow client %s", c.id)
		}
	}
}

// ConnectionCount reports the number of currently-connected clients.
func (f *Feed) ConnectionCount() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.connections)
}
