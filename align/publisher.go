package align

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// Publisher publishes alignment snapshots and pick results to MQTT so
// downstream consumers (chart panels, dashboards) see the same identity
// decisions the UI does.
type Publisher struct {
	client        mqtt.Client
	publishPrefix string
	qos           byte
	retain        bool
}

// NewPublisher creates a publisher. If client is nil, publishing is
// disabled (for testing and MQTT-less deployments).
func NewPublisher(client mqtt.Client) *Publisher {
	prefix := os.Getenv("MQTT_PUBLISH_PREFIX")
	if prefix == "" {
		prefix = "damsight"
	}

	return &Publisher{
		client:        client,
		publishPrefix: prefix,
		qos:           0,
		retain:        true, // retain latest alignment for late joiners
	}
}

// PublishAlignment publishes the full alignment snapshot to
// {prefix}/alignment.
func (p *Publisher) PublishAlignment(instruments []AlignedInstrument) error {
	if p.client == nil || !p.client.IsConnected() {
		return fmt.Errorf("MQTT client not connected")
	}

	linked := 0
	for i := range instruments {
		if instruments[i].Linked() {
			linked++
		}
	}

	message := map[string]interface{}{
		"instruments": instruments,
		"count":       len(instruments),
		"linked":      linked,
		"timestamp":   time.Now().Unix(),
	}

	payload, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("marshaling alignment: %w", err)
	}

	topic := fmt.Sprintf("%s/alignment", p.publishPrefix)
	token := p.client.Publish(topic, p.qos, p.retain, payload)
	if token.WaitTimeout(2*time.Second) && token.Error() != nil {
		return fmt.Errorf("publishing to %s: %w", topic, token.Error())
	}

	log.Printf("Published alignment: %d instrument(s), %d linked", len(instruments), linked)
	return nil
}

// PublishPick publishes one pick result to {prefix}/pick. Pick events are
// transient, so they are never retained regardless of the retain setting.
func (p *Publisher) PublishPick(result PickResult) error {
	if p.client == nil || !p.client.IsConnected() {
		return fmt.Errorf("MQTT client not connected")
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshaling pick result: %w", err)
	}

	topic := fmt.Sprintf("%s/pick", p.publishPrefix)
	token := p.client.Publish(topic, p.qos, false, payload)
	if token.WaitTimeout(2*time.Second) && token.Error() != nil {
		return fmt.Errorf("publishing to %s: %w", topic, token.Error())
	}

	log.Printf("Published pick %s: kind=%s point=%s code=%s",
		result.EventID, result.Kind, result.PointID, result.DBCode)
	return nil
}

// SetQoS sets the Quality of Service level for publishing (0, 1, or 2).
func (p *Publisher) SetQoS(qos byte) {
	if qos <= 2 {
		p.qos = qos
	}
}

// SetRetain sets whether alignment snapshots are retained by the broker.
func (p *Publisher) SetRetain(retain bool) {
	p.retain = retain
}
