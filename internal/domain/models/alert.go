package models

import "time"

// Alert is an operator-facing notification persisted by the alert store.
type Alert struct {
	ID        string      `json:"id"`
	Title     string      `json:"title"`
	Severity  string      `json:"severity"`
	Source    string      `json:"source"`
	Message   string      `json:"message"`
	Payload   interface{} `json:"payload,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	Acked     bool        `json:"acked"`
}
