package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/ardnew/fsrpad/pkg"
	"github.com/ardnew/fsrpad/pkg/config"
)

// SetSuffix is appended to the sample topic to form the topic threshold
// writes arrive on.
const SetSuffix = "/set"

// connectTimeout bounds the initial broker connection.
const connectTimeout = 5 * time.Second

// DialMQTT connects to the broker named in cfg.
func DialMQTT(cfg config.MQTTConfig) (mqtt.Client, error) {
	if cfg.Broker == "" {
		return nil, fmt.Errorf("%w: no MQTT broker configured", pkg.ErrNotConfigured)
	}
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			pkg.LogWarn(pkg.ComponentMonitor, "MQTT connection lost", "error", err)
		})

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("MQTT connect %s: %w", cfg.Broker, pkg.ErrTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("MQTT connect %s: %w", cfg.Broker, err)
	}
	pkg.LogInfo(pkg.ComponentMonitor, "MQTT connected", "broker", cfg.Broker, "clientID", cfg.ClientID)
	return client, nil
}

// MQTTSink publishes samples as JSON.
type MQTTSink struct {
	client mqtt.Client
	topic  string
	qos    byte
}

// NewMQTTSink creates a sink publishing on topic through a connected
// client.
func NewMQTTSink(client mqtt.Client, topic string, qos byte) *MQTTSink {
	return &MQTTSink{client: client, topic: topic, qos: qos}
}

// Topic returns the sample topic.
func (s *MQTTSink) Topic() string {
	return s.topic
}

// WriteSample publishes one sample, retained so new subscribers see the
// latest state.
func (s *MQTTSink) WriteSample(ctx context.Context, sample Sample) error {
	payload, err := json.Marshal(sample)
	if err != nil {
		return fmt.Errorf("marshal sample: %w", err)
	}
	return wait(ctx, s.client.Publish(s.topic, s.qos, true, payload))
}

// AcceptWrites subscribes to the set topic and forwards every valid
// threshold command to w. Malformed messages are logged and dropped.
func (s *MQTTSink) AcceptWrites(ctx context.Context, w ThresholdWriter) error {
	topic := s.topic + SetSuffix
	token := s.client.Subscribe(topic, s.qos, func(_ mqtt.Client, msg mqtt.Message) {
		var cmd Command
		if err := json.Unmarshal(msg.Payload(), &cmd); err != nil || cmd.Thresholds == nil {
			pkg.LogWarn(pkg.ComponentMonitor, "ignoring MQTT command", "topic", msg.Topic(), "payload", string(msg.Payload()))
			return
		}
		if err := w.WriteThresholds(*cmd.Thresholds); err != nil {
			pkg.LogError(pkg.ComponentMonitor, "MQTT threshold write failed", "error", err)
		}
	})
	if err := wait(ctx, token); err != nil {
		return fmt.Errorf("subscribe %s: %w", topic, err)
	}
	pkg.LogInfo(pkg.ComponentMonitor, "accepting threshold writes", "topic", topic)
	return nil
}

// Close unsubscribes and disconnects, waiting up to quiesce milliseconds
// for in-flight work.
func (s *MQTTSink) Close(quiesce uint) {
	s.client.Unsubscribe(s.topic + SetSuffix)
	s.client.Disconnect(quiesce)
}

// wait blocks until token completes or ctx is done.
func wait(ctx context.Context, token mqtt.Token) error {
	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	}
}

var _ Sink = (*MQTTSink)(nil)
