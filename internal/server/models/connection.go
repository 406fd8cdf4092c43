package models

import "time"

// Connection is one open websocket session. The row exists for the lifetime
// of the session: registered on connect, deleted on disconnect or when a push
// reports the session gone. The same ID is used as the primary key on both
// the connect and disconnect paths.
type Connection struct {
	ID           string
	UserID       string
	Endpoint     string
	RegisteredAt time.Time
}
