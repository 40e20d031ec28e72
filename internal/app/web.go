// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gorilla/websocket"

	"github.com/relabs-tech/telemetry_relay/internal/config"
	"github.com/relabs-tech/telemetry_relay/internal/publish"
	"github.com/relabs-tech/telemetry_relay/internal/telemetry"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

const (
	wsSendBuffer   = 8
	wsWriteTimeout = 5 * time.Second
)

// WSMessage is what live view clients receive for every published artifact.
type WSMessage struct {
	Type string `json:"type"` // "position" or "mission"
	Data any    `json:"data"`
}

// LiveView keeps the latest artifacts for the web API and pushes every new
// one to connected WebSocket clients. It is a publisher like the collector.
type LiveView struct {
	mu       sync.RWMutex
	position *telemetry.PositionArtifact
	mission  *telemetry.MissionArtifact
	clients  map[chan WSMessage]struct{}

	status func() any
}

// NewLiveView returns an empty view. status, if not nil, backs /api/status.
func NewLiveView(status func() any) *LiveView {
	return &LiveView{
		clients: make(map[chan WSMessage]struct{}),
		status:  status,
	}
}

func (v *LiveView) PublishPosition(_ context.Context, p telemetry.PositionArtifact) error {
	v.mu.Lock()
	v.position = &p
	v.mu.Unlock()
	v.broadcast(WSMessage{Type: "position", Data: p})
	return nil
}

func (v *LiveView) PublishMission(_ context.Context, m telemetry.MissionArtifact) error {
	v.mu.Lock()
	v.mission = &m
	v.mu.Unlock()
	v.broadcast(WSMessage{Type: "mission", Data: m})
	return nil
}

// broadcast never blocks; a client too slow to keep up misses messages.
func (v *LiveView) broadcast(msg WSMessage) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	for ch := range v.clients {
		select {
		case ch <- msg:
		default:
		}
	}
}

func (v *LiveView) subscribe() chan WSMessage {
	ch := make(chan WSMessage, wsSendBuffer)
	v.mu.Lock()
	v.clients[ch] = struct{}{}
	v.mu.Unlock()
	return ch
}

func (v *LiveView) unsubscribe(ch chan WSMessage) {
	v.mu.Lock()
	delete(v.clients, ch)
	v.mu.Unlock()
}

// Handler serves the JSON API and the WebSocket feed.
func (v *LiveView) Handler() http.Handler {
	mux := http.NewServeMux()

	// JSON API endpoint: latest position
	mux.HandleFunc("/api/position", func(w http.ResponseWriter, r *http.Request) {
		v.mu.RLock()
		p := v.position
		v.mu.RUnlock()
		if p == nil {
			http.Error(w, "no data yet", http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, p)
	})

	// JSON API endpoint: last completed mission
	mux.HandleFunc("/api/mission", func(w http.ResponseWriter, r *http.Request) {
		v.mu.RLock()
		m := v.mission
		v.mu.RUnlock()
		if m == nil {
			http.Error(w, "no data yet", http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, m)
	})

	mux.HandleFunc("/api/status", func(w http.ResponseWriter, r *http.Request) {
		if v.status == nil {
			http.Error(w, "status unavailable", http.StatusNotFound)
			return
		}
		writeJSON(w, v.status())
	})

	mux.HandleFunc("/ws", v.handleWS)
	return mux
}

func (v *LiveView) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("web: websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	ch := v.subscribe()
	defer v.unsubscribe(ch)

	// The feed is one way; the read loop only notices the client leaving.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					log.Printf("web: websocket error: %v", err)
				}
				return
			}
		}
	}()

	// Send what is already known so a new page is not blank.
	v.mu.RLock()
	var initial []WSMessage
	if v.position != nil {
		initial = append(initial, WSMessage{Type: "position", Data: *v.position})
	}
	if v.mission != nil {
		initial = append(initial, WSMessage{Type: "mission", Data: *v.mission})
	}
	v.mu.RUnlock()
	for _, msg := range initial {
		if err := writeWS(conn, msg); err != nil {
			return
		}
	}

	for {
		select {
		case <-gone:
			return
		case <-r.Context().Done():
			return
		case msg := <-ch:
			if err := writeWS(conn, msg); err != nil {
				log.Printf("web: websocket write error: %v", err)
				return
			}
		}
	}
}

func writeWS(conn *websocket.Conn, msg WSMessage) error {
	conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return conn.WriteJSON(msg)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("web: json encode error: %v", err)
	}
}

// ServeWeb runs the live view server until ctx is cancelled.
func ServeWeb(ctx context.Context, port int, view *LiveView) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           view.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Printf("web: live view listening on %s", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// RunWeb serves a live view fed from the relay's MQTT topics, for watching
// a relay that runs on another machine.
func RunWeb(cfg *config.Config) error {
	if cfg.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is not configured")
	}
	if cfg.WebServerPort == 0 {
		return fmt.Errorf("WEB_SERVER_PORT is not configured")
	}

	client, err := publish.ConnectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDConsole+"-web")
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	view := NewLiveView(nil)

	// Subscribe to positions and update the view on each message
	token := client.Subscribe(cfg.TopicPosition, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var p telemetry.PositionArtifact
		if err := json.Unmarshal(msg.Payload(), &p); err != nil {
			log.Printf("web: position unmarshal error: %v", err)
			return
		}
		view.PublishPosition(context.Background(), p)
	})
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}
	log.Printf("web: subscribed to %s", cfg.TopicPosition)

	token = client.Subscribe(cfg.TopicMission, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var m telemetry.MissionArtifact
		if err := json.Unmarshal(msg.Payload(), &m); err != nil {
			log.Printf("web: mission unmarshal error: %v", err)
			return
		}
		view.PublishMission(context.Background(), m)
	})
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}
	log.Printf("web: subscribed to %s", cfg.TopicMission)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return ServeWeb(ctx, cfg.WebServerPort, view)
}
