package services

import "errors"

var (
	// ErrNotFound means the referenced session or recording does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrUnauthenticated means the connection presented a bad or expired credential.
	ErrUnauthenticated = errors.New("invalid or expired credential")
	// ErrUnauthorized means the caller lacks the role required for the operation.
	ErrUnauthorized = errors.New("not allowed to perform this operation")
	// ErrAlreadyInRoom means the connection holds a binding to another room and
	// must leave it first.
	ErrAlreadyInRoom = errors.New("connection is already in a room")
	// ErrInvalidStateTransition means a lifecycle guard rejected the requested
	// transition; the session state is left unchanged.
	ErrInvalidStateTransition = errors.New("invalid session state transition")
	// ErrRoomFull means the session reached its participant limit.
	ErrRoomFull = errors.New("session is at max participants")
	// ErrMessageTooLong means a chat message exceeded the configured bound.
	ErrMessageTooLong = errors.New("chat message is too long")
)
