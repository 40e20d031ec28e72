// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/relabs-tech/telemetry_relay/internal/config"
	"github.com/relabs-tech/telemetry_relay/internal/telemetry"
)

func f64(v float64) *float64 { return &v }
func i64(v int64) *int64     { return &v }
func iptr(v int) *int        { return &v }

func samplePosition() telemetry.PositionArtifact {
	return telemetry.PositionArtifact{
		Timestamp: i64(1700000000),
		Lat:       f64(48.3841234),
		Lon:       f64(2.2945123),
		Alt:       f64(120.5),
		SysID:     iptr(1),
	}
}

func TestLiveViewAPI(t *testing.T) {
	view := NewLiveView(func() any { return map[string]int{"received": 3} })
	srv := httptest.NewServer(view.Handler())
	defer srv.Close()

	for _, path := range []string{"/api/position", "/api/mission"} {
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusServiceUnavailable {
			t.Errorf("%s before any artifact: status %d", path, resp.StatusCode)
		}
	}

	ctx := context.Background()
	view.PublishPosition(ctx, samplePosition())
	view.PublishMission(ctx, telemetry.NewMissionArtifact([]telemetry.Waypoint{{Lat: 1.5, Lon: 2.5}}, 7))

	var pos telemetry.PositionArtifact
	getJSON(t, srv.URL+"/api/position", &pos)
	if pos.Lat == nil || *pos.Lat != 48.3841234 || pos.Yaw != nil {
		t.Errorf("position = %s", pos)
	}

	var m telemetry.MissionArtifact
	getJSON(t, srv.URL+"/api/mission", &m)
	if m.Waypoints != "WP1: 1.5,2.5" || m.SysID != 7 {
		t.Errorf("mission = %+v", m)
	}

	var st map[string]int
	getJSON(t, srv.URL+"/api/status", &st)
	if st["received"] != 3 {
		t.Errorf("status = %v", st)
	}
}

func TestLiveViewStatusDisabled(t *testing.T) {
	srv := httptest.NewServer(NewLiveView(nil).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/status")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func getJSON(t *testing.T, url string, v any) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET %s: status %d", url, resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("GET %s: content type %q", url, ct)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
}

type wsEnvelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func TestLiveViewWebSocket(t *testing.T) {
	view := NewLiveView(nil)
	srv := httptest.NewServer(view.Handler())
	defer srv.Close()

	view.PublishPosition(context.Background(), samplePosition())

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	// the latest position is replayed on connect
	var first wsEnvelope
	if err := conn.ReadJSON(&first); err != nil {
		t.Fatalf("read: %v", err)
	}
	if first.Type != "position" {
		t.Fatalf("first message type = %q", first.Type)
	}
	var pos telemetry.PositionArtifact
	if err := json.Unmarshal(first.Data, &pos); err != nil || pos.SysID == nil || *pos.SysID != 1 {
		t.Errorf("replayed position = %s, %v", pos, err)
	}

	view.PublishMission(context.Background(), telemetry.NewMissionArtifact([]telemetry.Waypoint{{Lat: 3, Lon: 4}}, 2))
	var next wsEnvelope
	if err := conn.ReadJSON(&next); err != nil {
		t.Fatalf("read: %v", err)
	}
	if next.Type != "mission" || !strings.Contains(string(next.Data), `"WP1: 3,4"`) {
		t.Errorf("pushed message = %s %s", next.Type, next.Data)
	}
}

func TestConsolePrinters(t *testing.T) {
	payload, err := json.Marshal(samplePosition())
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	printPosition(&buf, payload)
	if got := buf.String(); !strings.HasPrefix(got, "[POS ] ") || !strings.Contains(got, "lat=48.3841234") || !strings.Contains(got, "yaw=null") {
		t.Errorf("position line = %q", got)
	}

	buf.Reset()
	printMission(&buf, []byte(`{"waypoints":"WP1: 1,2","sysid":4}`))
	if got := buf.String(); got != "[MISN] sysid=4 WP1: 1,2\n" {
		t.Errorf("mission line = %q", got)
	}

	buf.Reset()
	printMission(&buf, []byte(`not json`))
	if buf.Len() != 0 {
		t.Errorf("garbage payload printed %q", buf.String())
	}
}

func TestOpener(t *testing.T) {
	for _, linkType := range []string{"udp", "udpclient", "tcp", "serial", "nmea"} {
		if open, err := Opener(&config.Config{LinkType: linkType}); err != nil || open == nil {
			t.Errorf("Opener(%s) = %v", linkType, err)
		}
	}
	if _, err := Opener(&config.Config{LinkType: "can"}); err == nil {
		t.Error("expected an error for an unsupported link type")
	}
}

func TestRelayStopsOnCancel(t *testing.T) {
	if testing.Short() {
		t.Skip("opens a UDP socket")
	}
	cfg := config.Default()
	cfg.LinkAddress = "127.0.0.1:0"
	cfg.PositionEndpoint = "http://127.0.0.1:1/unused"
	cfg.ReceiveTimeout = 20 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	if err := Relay(ctx, cfg); err != nil {
		t.Errorf("Relay = %v, want nil after cancellation", err)
	}
}
