package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/ardnew/fsrpad/pkg"
	"github.com/ardnew/fsrpad/pkg/config"
	"github.com/ardnew/fsrpad/pkg/report"
)

// =============================================================================
// Fake MQTT Client
// =============================================================================

type fakeToken struct {
	done chan struct{}
	err  error
}

func newToken(err error) *fakeToken {
	t := &fakeToken{done: make(chan struct{}), err: err}
	close(t.done)
	return t
}

func (t *fakeToken) Wait() bool                       { <-t.done; return true }
func (t *fakeToken) WaitTimeout(d time.Duration) bool { return true }
func (t *fakeToken) Done() <-chan struct{}            { return t.done }
func (t *fakeToken) Error() error                     { return t.err }

type fakeMessage struct {
	topic   string
	payload []byte
}

func (m *fakeMessage) Duplicate() bool   { return false }
func (m *fakeMessage) Qos() byte         { return 0 }
func (m *fakeMessage) Retained() bool    { return false }
func (m *fakeMessage) Topic() string     { return m.topic }
func (m *fakeMessage) MessageID() uint16 { return 0 }
func (m *fakeMessage) Payload() []byte   { return m.payload }
func (m *fakeMessage) Ack()              {}

type published struct {
	topic    string
	qos      byte
	retained bool
	payload  []byte
}

// fakeClient records publishes and subscriptions. Methods the sink does
// not use panic through the nil embedded interface.
type fakeClient struct {
	mqtt.Client

	mu           sync.Mutex
	published    []published
	handlers     map[string]mqtt.MessageHandler
	unsubscribed []string
	disconnected bool
	publishErr   error
}

func newFakeClient() *fakeClient {
	return &fakeClient{handlers: make(map[string]mqtt.MessageHandler)}
}

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.published = append(c.published, published{topic, qos, retained, payload.([]byte)})
	return newToken(c.publishErr)
}

func (c *fakeClient) Subscribe(topic string, qos byte, callback mqtt.MessageHandler) mqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[topic] = callback
	return newToken(nil)
}

func (c *fakeClient) Unsubscribe(topics ...string) mqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.unsubscribed = append(c.unsubscribed, topics...)
	return newToken(nil)
}

func (c *fakeClient) Disconnect(quiesce uint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disconnected = true
}

func (c *fakeClient) deliver(topic string, payload string) {
	c.mu.Lock()
	h := c.handlers[topic]
	c.mu.Unlock()
	h(c, &fakeMessage{topic: topic, payload: []byte(payload)})
}

type recordWriter struct {
	got []report.ThresholdVector
	err error
}

func (w *recordWriter) WriteThresholds(v report.ThresholdVector) error {
	w.got = append(w.got, v)
	return w.err
}

// =============================================================================
// MQTTSink Tests
// =============================================================================

func TestMQTTSink_WriteSample(t *testing.T) {
	c := newFakeClient()
	sink := NewMQTTSink(c, "fsrpad", 1)

	s := Sample{
		Time:       time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		Device:     "/dev/hidraw0",
		Sensors:    report.SensorReading{1, 2, 3, 4},
		Thresholds: report.ThresholdVector{100, 100, 100, 100},
	}
	if err := sink.WriteSample(context.Background(), s); err != nil {
		t.Fatal(err)
	}
	if len(c.published) != 1 {
		t.Fatalf("published %d messages", len(c.published))
	}
	p := c.published[0]
	if p.topic != "fsrpad" || p.qos != 1 || !p.retained {
		t.Errorf("publish = %q qos %d retained %v", p.topic, p.qos, p.retained)
	}

	var decoded map[string]any
	if err := json.Unmarshal(p.payload, &decoded); err != nil {
		t.Fatal(err)
	}
	sensors, ok := decoded["sensors"].([]any)
	if !ok || len(sensors) != 4 || sensors[3].(float64) != 4 {
		t.Errorf("sensors field = %v, want a 4-number array", decoded["sensors"])
	}
	if decoded["device"] != "/dev/hidraw0" {
		t.Errorf("device field = %v", decoded["device"])
	}

	c.publishErr = errors.New("not connected")
	if err := sink.WriteSample(context.Background(), s); err == nil {
		t.Error("WriteSample() with failing publish succeeded")
	}
}

func TestMQTTSink_AcceptWrites(t *testing.T) {
	c := newFakeClient()
	sink := NewMQTTSink(c, "fsrpad", 0)
	w := &recordWriter{}

	if err := sink.AcceptWrites(context.Background(), w); err != nil {
		t.Fatal(err)
	}
	c.deliver("fsrpad/set", `{"thresholds":[10,20,30,40]}`)
	c.deliver("fsrpad/set", `{"thresholds":[10,20,30,400]}`)
	c.deliver("fsrpad/set", `garbage`)
	c.deliver("fsrpad/set", `{}`)
	c.deliver("fsrpad/set", `{"thresholds":[200]}`)
	c.deliver("fsrpad/set", `{"thresholds":[]}`)
	c.deliver("fsrpad/set", `{"thresholds":[1,2,3,4,5,6]}`)

	if len(w.got) != 1 || w.got[0] != (report.ThresholdVector{10, 20, 30, 40}) {
		t.Errorf("writes = %v, want one valid vector", w.got)
	}

	sink.Close(0)
	if len(c.unsubscribed) != 1 || c.unsubscribed[0] != "fsrpad/set" || !c.disconnected {
		t.Errorf("Close() unsubscribed %v, disconnected %v", c.unsubscribed, c.disconnected)
	}
}

func TestDialMQTT_NoBroker(t *testing.T) {
	if _, err := DialMQTT(config.MQTTConfig{}); !errors.Is(err, pkg.ErrNotConfigured) {
		t.Errorf("DialMQTT() error = %v, want ErrNotConfigured", err)
	}
}
