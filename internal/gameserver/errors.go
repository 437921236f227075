package gameserver

import "errors"

var (
	ErrSessionNotFound    = errors.New("gameserver: session not found")
	ErrNotAuthenticated   = errors.New("gameserver: session has not authenticated yet")
	ErrAlreadyHandshaking = errors.New("gameserver: handshake already in progress")
)
