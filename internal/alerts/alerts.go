// Package alerts publishes compliance alerts to an MQTT broker so crew apps
// and yacht management dashboards can react without polling.
package alerts

import (
	"encoding/json"
	"time"
)

// TopicPrefix is prepended to the alert kind to form the MQTT topic.
const TopicPrefix = "seatime/alerts/"

// Kind classifies an alert.
type Kind string

const (
	KindGapReminder   Kind = "gap_reminder"
	KindVisaWarning   Kind = "visa_warning"
	KindVisaViolation Kind = "visa_violation"
)

// Alert is one compliance event for one crew member.
type Alert struct {
	Kind       Kind
	UserID     string
	EntityType string // "vessel" | "visa_area"
	EntityID   string
	Title      string
	Message    string
	CreatedAt  time.Time
}

// Topic returns the MQTT topic this alert is published on.
func (a Alert) Topic() string {
	return TopicPrefix + string(a.Kind)
}

// Publisher delivers alerts.
type Publisher interface {
	// Publish sends one alert. A failure must not stop the caller's cycle.
	Publish(a Alert) error

	// Close disconnects from the broker.
	Close() error
}

// Payload is the JSON body of an alert message.
type Payload struct {
	Alert PayloadInner `json:"alert"`
}

// PayloadInner contains the alert details.
type PayloadInner struct {
	Timestamp  string `json:"timestamp"`
	Kind       string `json:"kind"`
	UserID     string `json:"userId"`
	EntityType string `json:"entityType"`
	EntityID   string `json:"entityId"`
	Title      string `json:"title"`
	Message    string `json:"message"`
}

// FormatPayload creates the JSON payload for an alert.
func FormatPayload(a Alert) ([]byte, error) {
	return json.Marshal(Payload{
		Alert: PayloadInner{
			Timestamp:  a.CreatedAt.UTC().Format(time.RFC3339),
			Kind:       string(a.Kind),
			UserID:     a.UserID,
			EntityType: a.EntityType,
			EntityID:   a.EntityID,
			Title:      a.Title,
			Message:    a.Message,
		},
	})
}

// NopPublisher drops every alert. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(Alert) error { return nil }
func (NopPublisher) Close() error        { return nil }
