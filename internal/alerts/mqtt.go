package alerts

import (
	"errors"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

// MQTTPublisher publishes alerts to a real broker.
type MQTTPublisher struct {
	client paho.Client
}

// NewMQTTPublisher connects to broker and returns a publisher.
func NewMQTTPublisher(broker, clientID string) (*MQTTPublisher, error) {
	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second)

	client := paho.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, errors.New("mqtt connection timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}

	return &MQTTPublisher{client: client}, nil
}

// Publish sends an alert with QoS 1 (at-least-once), not retained.
func (p *MQTTPublisher) Publish(a Alert) error {
	payload, err := FormatPayload(a)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}

	token := p.client.Publish(a.Topic(), 1, false, payload)
	if !token.WaitTimeout(5 * time.Second) {
		return errors.New("publish timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

// Close disconnects from the broker.
func (p *MQTTPublisher) Close() error {
	p.client.Disconnect(1000)
	return nil
}
