package amqp

import (
	"encoding/json"
	"errors"
	"time"
)

// NotificationMessage carries one user notification to the worker.
type NotificationMessage struct {
	ID        string    `json:"id"`
	Owner     string    `json:"owner,omitempty"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Kind      string    `json:"kind"`
	Date      time.Time `json:"date"`
	Timestamp time.Time `json:"timestamp"`
}

// ToJSON converts the message to JSON bytes
func (m *NotificationMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// NotificationMessageFromJSON decodes a message. A body without id or
// title is rejected.
func NotificationMessageFromJSON(data []byte) (*NotificationMessage, error) {
	var msg NotificationMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.ID == "" || msg.Title == "" {
		return nil, errors.New("notification message requires id and title")
	}
	return &msg, nil
}
