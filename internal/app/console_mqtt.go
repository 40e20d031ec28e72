// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/telemetry_relay/internal/config"
	"github.com/relabs-tech/telemetry_relay/internal/publish"
	"github.com/relabs-tech/telemetry_relay/internal/telemetry"
)

// RunConsoleMQTT prints every artifact the relay publishes over MQTT until
// Ctrl+C.
func RunConsoleMQTT(cfg *config.Config) error {
	if cfg.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is not configured")
	}
	client, err := publish.ConnectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDConsole)
	if err != nil {
		return err
	}

	// Subscribe to positions
	if cfg.TopicPosition != "" {
		token := client.Subscribe(cfg.TopicPosition, 0, func(_ mqtt.Client, msg mqtt.Message) {
			printPosition(os.Stdout, msg.Payload())
		})
		token.Wait()
		if token.Error() != nil {
			return token.Error()
		}
		log.Printf("console: subscribed to %s", cfg.TopicPosition)
	}

	// Subscribe to missions
	if cfg.TopicMission != "" {
		token := client.Subscribe(cfg.TopicMission, 0, func(_ mqtt.Client, msg mqtt.Message) {
			printMission(os.Stdout, msg.Payload())
		})
		token.Wait()
		if token.Error() != nil {
			return token.Error()
		}
		log.Printf("console: subscribed to %s", cfg.TopicMission)
	}

	// Wait for Ctrl+C
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("console: shutting down")
	client.Disconnect(250)
	return nil
}

func printPosition(w io.Writer, payload []byte) {
	var p telemetry.PositionArtifact
	if err := json.Unmarshal(payload, &p); err != nil {
		log.Printf("console: position unmarshal error: %v", err)
		return
	}
	fmt.Fprintf(w, "[POS ] %s\n", p)
}

func printMission(w io.Writer, payload []byte) {
	var m telemetry.MissionArtifact
	if err := json.Unmarshal(payload, &m); err != nil {
		log.Printf("console: mission unmarshal error: %v", err)
		return
	}
	fmt.Fprintf(w, "[MISN] sysid=%d %s\n", m.SysID, m.Waypoints)
}
