// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/telemetry_relay/internal/telemetry"
)

// ConnectMQTT connects a client to broker with the given client id.
func ConnectMQTT(broker, clientID string) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("MQTT connect %s: %w", broker, token.Error())
	}
	log.Printf("publish: connected to MQTT broker at %s", broker)
	return client, nil
}

// tokenPublisher is the part of mqtt.Client the sink uses.
type tokenPublisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// MQTTSink publishes artifacts as retained JSON messages. An empty topic
// disables that artifact kind.
type MQTTSink struct {
	client        tokenPublisher
	positionTopic string
	missionTopic  string
}

func NewMQTTSink(client mqtt.Client, positionTopic, missionTopic string) *MQTTSink {
	return &MQTTSink{client: client, positionTopic: positionTopic, missionTopic: missionTopic}
}

func (s *MQTTSink) PublishPosition(ctx context.Context, p telemetry.PositionArtifact) error {
	return s.publish(ctx, s.positionTopic, p)
}

func (s *MQTTSink) PublishMission(ctx context.Context, m telemetry.MissionArtifact) error {
	return s.publish(ctx, s.missionTopic, m)
}

func (s *MQTTSink) publish(ctx context.Context, topic string, v any) error {
	if topic == "" {
		return nil
	}
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("json marshal error (%s): %w", topic, err)
	}

	token := s.client.Publish(topic, 0, true, payload)
	select {
	case <-token.Done():
		if err := token.Error(); err != nil {
			return fmt.Errorf("MQTT publish error (%s): %w", topic, err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("MQTT publish (%s): %w", topic, ctx.Err())
	}
}
