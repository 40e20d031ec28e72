// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package publish

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/telemetry_relay/internal/telemetry"
)

func samplePosition() telemetry.PositionArtifact {
	ts := int64(1_700_000_000)
	lat, lon := 48.3841234, 2.2945123
	sysid := 1
	return telemetry.PositionArtifact{Timestamp: &ts, Lat: &lat, Lon: &lon, SysID: &sysid}
}

func TestHTTPCollectorPostsJSON(t *testing.T) {
	var (
		gotPath, gotUA, gotCT string
		gotBody                map[string]any
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUA = r.Header.Get("User-Agent")
		gotCT = r.Header.Get("Content-Type")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
	}))
	defer srv.Close()

	c := NewHTTPCollector(srv.URL+"/drone-position", srv.URL+"/drone-mission", "", time.Second)
	if err := c.PublishPosition(context.Background(), samplePosition()); err != nil {
		t.Fatalf("PublishPosition: %v", err)
	}
	if gotPath != "/drone-position" || gotUA != DefaultUserAgent || gotCT != "application/json" {
		t.Errorf("request path=%q ua=%q ct=%q", gotPath, gotUA, gotCT)
	}
	if gotBody["lat"] != 48.3841234 || gotBody["alt"] != nil || gotBody["sysid"] != 1.0 {
		t.Errorf("body = %v", gotBody)
	}
	if _, ok := gotBody["windspeed"]; !ok {
		t.Error("unobserved fields must be sent as null")
	}

	m := telemetry.MissionArtifact{Waypoints: "WP1: 1,2", SysID: 3}
	if err := c.PublishMission(context.Background(), m); err != nil {
		t.Fatalf("PublishMission: %v", err)
	}
	if gotPath != "/drone-mission" || gotBody["waypoints"] != "WP1: 1,2" || gotBody["sysid"] != 3.0 {
		t.Errorf("mission request path=%q body=%v", gotPath, gotBody)
	}
}

func TestHTTPCollectorRejectsNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte("created\n"))
	}))
	defer srv.Close()

	c := NewHTTPCollector(srv.URL, srv.URL, "test/1.0", time.Second)
	err := c.PublishPosition(context.Background(), samplePosition())
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v, want *StatusError", err)
	}
	if se.Code != http.StatusCreated || se.Body != "created" {
		t.Errorf("StatusError = %+v", se)
	}
}

func TestHTTPCollectorDisabledURL(t *testing.T) {
	c := NewHTTPCollector("", "", "", time.Second)
	if err := c.PublishMission(context.Background(), telemetry.MissionArtifact{}); err != nil {
		t.Errorf("disabled endpoint returned %v", err)
	}
}

type recordingPublisher struct {
	mu        sync.Mutex
	positions []telemetry.PositionArtifact
	missions  []telemetry.MissionArtifact
	err       error
	block     chan struct{}
	delivered chan struct{}
}

func (r *recordingPublisher) PublishPosition(ctx context.Context, p telemetry.PositionArtifact) error {
	if r.block != nil {
		select {
		case <-r.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	r.mu.Lock()
	r.positions = append(r.positions, p)
	r.mu.Unlock()
	if r.delivered != nil {
		r.delivered <- struct{}{}
	}
	return r.err
}

func (r *recordingPublisher) PublishMission(ctx context.Context, m telemetry.MissionArtifact) error {
	r.mu.Lock()
	r.missions = append(r.missions, m)
	r.mu.Unlock()
	if r.delivered != nil {
		r.delivered <- struct{}{}
	}
	return r.err
}

func TestFanoutJoinsErrors(t *testing.T) {
	errA := errors.New("a down")
	a := &recordingPublisher{err: errA}
	b := &recordingPublisher{}
	f := Fanout{a, b}

	err := f.PublishPosition(context.Background(), samplePosition())
	if !errors.Is(err, errA) {
		t.Errorf("err = %v, want to wrap %v", err, errA)
	}
	if len(a.positions) != 1 || len(b.positions) != 1 {
		t.Error("fanout must deliver to every publisher even after a failure")
	}
	if err := (Fanout{b}).PublishMission(context.Background(), telemetry.MissionArtifact{}); err != nil {
		t.Errorf("PublishMission = %v", err)
	}
}

func TestDispatcherDeliversInOrder(t *testing.T) {
	pub := &recordingPublisher{delivered: make(chan struct{}, 4)}
	d := NewDispatcher(pub, 4, time.Second)

	first := samplePosition()
	second := samplePosition()
	lat := 1.5
	second.Lat = &lat
	d.SendPosition(first)
	d.SendMission(telemetry.MissionArtifact{Waypoints: "WP1: 1,1", SysID: 1})
	d.SendPosition(second)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	for i := 0; i < 3; i++ {
		select {
		case <-pub.delivered:
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for delivery")
		}
	}
	pub.mu.Lock()
	defer pub.mu.Unlock()
	if len(pub.positions) != 2 || *pub.positions[1].Lat != 1.5 || len(pub.missions) != 1 {
		t.Errorf("positions=%+v missions=%+v", pub.positions, pub.missions)
	}
	if got := d.Stats().Sent; got != 3 {
		t.Errorf("Stats().Sent = %d", got)
	}
}

func TestDispatcherDropsWhenFull(t *testing.T) {
	d := NewDispatcher(&recordingPublisher{}, 1, time.Second)
	d.SendPosition(samplePosition())
	d.SendPosition(samplePosition()) // no worker running: queue is full

	if got := d.Stats().Dropped; got != 1 {
		t.Errorf("Stats().Dropped = %d, want 1", got)
	}
}

func TestDispatcherBoundsSlowPublish(t *testing.T) {
	pub := &recordingPublisher{block: make(chan struct{})}
	d := NewDispatcher(pub, 1, 20*time.Millisecond)

	d.deliver(context.Background(), job{position: ptrTo(samplePosition())})
	if got := d.Stats().Failed; got != 1 {
		t.Errorf("Stats().Failed = %d, want the timed out publish counted", got)
	}
}

func ptrTo[T any](v T) *T { return &v }

type doneToken struct {
	err  error
	done chan struct{}
}

func newDoneToken(err error) *doneToken {
	t := &doneToken{err: err, done: make(chan struct{})}
	close(t.done)
	return t
}

func (t *doneToken) Wait() bool                     { return true }
func (t *doneToken) WaitTimeout(time.Duration) bool { return true }
func (t *doneToken) Done() <-chan struct{}          { return t.done }
func (t *doneToken) Error() error                   { return t.err }

type fakeMQTT struct {
	topics   []string
	payloads [][]byte
	retained []bool
	err      error
}

func (f *fakeMQTT) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	f.topics = append(f.topics, topic)
	f.payloads = append(f.payloads, payload.([]byte))
	f.retained = append(f.retained, retained)
	return newDoneToken(f.err)
}

func TestMQTTSinkPublishesRetainedJSON(t *testing.T) {
	fake := &fakeMQTT{}
	s := &MQTTSink{client: fake, positionTopic: "fleet/position", missionTopic: "fleet/mission"}

	if err := s.PublishPosition(context.Background(), samplePosition()); err != nil {
		t.Fatal(err)
	}
	if err := s.PublishMission(context.Background(), telemetry.MissionArtifact{Waypoints: "WP1: 1,1", SysID: 2}); err != nil {
		t.Fatal(err)
	}
	if len(fake.topics) != 2 || fake.topics[0] != "fleet/position" || fake.topics[1] != "fleet/mission" {
		t.Fatalf("topics = %v", fake.topics)
	}
	if !fake.retained[0] {
		t.Error("position should be retained")
	}
	var m telemetry.MissionArtifact
	if err := json.Unmarshal(fake.payloads[1], &m); err != nil || m.SysID != 2 {
		t.Errorf("mission payload %s: %v", fake.payloads[1], err)
	}
}

func TestMQTTSinkError(t *testing.T) {
	brokerErr := errors.New("not connected")
	s := &MQTTSink{client: &fakeMQTT{err: brokerErr}, positionTopic: "p"}
	if err := s.PublishPosition(context.Background(), samplePosition()); !errors.Is(err, brokerErr) {
		t.Errorf("err = %v", err)
	}
	if err := s.PublishMission(context.Background(), telemetry.MissionArtifact{}); err != nil {
		t.Errorf("empty topic should be skipped, got %v", err)
	}
}
