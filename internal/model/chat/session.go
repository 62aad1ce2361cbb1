package chat

import "time"

// Session captures one anonymous conversation with the booking assistant.
type Session struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	Greeting  Message   `json:"greeting"`
}
