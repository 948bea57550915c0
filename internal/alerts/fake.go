package alerts

import "sync"

// FakePublisher records published alerts for test assertions.
type FakePublisher struct {
	mu sync.Mutex

	// Alerts contains every alert that was published.
	Alerts []Alert

	// Payloads contains the JSON payloads that were published.
	Payloads [][]byte

	// PublishError, if set, is returned by Publish.
	PublishError error

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakePublisher creates a FakePublisher for testing.
func NewFakePublisher() *FakePublisher {
	return &FakePublisher{}
}

// Publish records the alert.
func (f *FakePublisher) Publish(a Alert) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.PublishError != nil {
		return f.PublishError
	}

	payload, err := FormatPayload(a)
	if err != nil {
		return err
	}
	f.Alerts = append(f.Alerts, a)
	f.Payloads = append(f.Payloads, payload)
	return nil
}

// Close marks the publisher as closed.
func (f *FakePublisher) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = true
	return nil
}
