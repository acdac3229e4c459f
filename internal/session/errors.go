package session

import "errors"

// Errors returned by Conn.Send implementations.
var (
	ErrSendQueueFull = errors.New("send queue full")
	ErrConnClosed    = errors.New("connection closed")
)
