package domain

import "errors"

var (
	// ErrLoad wraps every failure to build the question bank at startup.
	ErrLoad = errors.New("question bank load failed")
	// ErrNicknameTaken is returned when another bound slot already uses the nickname.
	ErrNicknameTaken = errors.New("nickname already in use")
	// ErrInvalidNickname is returned for nicknames that cannot identify a player.
	ErrInvalidNickname = errors.New("invalid nickname")
	// ErrParticipantNotFound is returned when a player acts before logging in.
	ErrParticipantNotFound = errors.New("participant not logged in")
	// ErrTopicNotFound indicates a topic index outside the loaded bank.
	ErrTopicNotFound = errors.New("topic not found")
	// ErrSlotNotFound indicates a player slot index outside the pool.
	ErrSlotNotFound = errors.New("player slot not found")
	// ErrServerOffline marks disconnects caused by the server shutting down.
	ErrServerOffline = errors.New("server is offline")
	// ErrNicknameRejected is returned by the protocol client when the server refuses a login.
	ErrNicknameRejected = errors.New("nickname rejected by server")
)
