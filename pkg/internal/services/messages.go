package services

import (
	"unicode/utf8"

	"github.com/riffhouse/riffhouse/pkg/internal/models"
)

// SendChat appends a message to the session history and fans it out to the
// room. The history append is authoritative: a failed write means nothing is
// broadcast, and late joiners replay the log in append order.
func (c *SessionCoordinator) SendChat(client *Client, sessionId uint, content string) (models.ChatMessage, error) {
	var message models.ChatMessage

	bound, ok := c.registry.Binding(client.ID)
	if !ok || bound != sessionId {
		return message, ErrUnauthorized
	}
	// The bound counts characters, not bytes; multibyte text only hits the
	// limit at the same length as ASCII.
	if len(content) == 0 || utf8.RuneCountInString(content) > models.ChatMessageMaxLength {
		return message, ErrMessageTooLong
	}

	unlock := c.lockSession(sessionId)
	defer unlock()

	session, err := c.store.GetSession(sessionId)
	if err != nil {
		return message, err
	}
	if !session.Settings.EnableChat {
		return message, ErrUnauthorized
	}

	message = models.ChatMessage{
		SessionID:  sessionId,
		SenderID:   client.Identity.AccountID,
		SenderName: client.Identity.DisplayText(),
		Content:    content,
	}
	if err := c.store.SaveMessage(&message); err != nil {
		return message, err
	}

	c.relay.BroadcastToRoom(sessionId, models.EventChatMessage, message)

	return message, nil
}

// ToggleMedia relays an audio or video mute state change. Nothing is
// persisted; clients re-announce their state, so delivery is idempotent.
func (c *SessionCoordinator) ToggleMedia(client *Client, sessionId uint, event string, state bool) error {
	bound, ok := c.registry.Binding(client.ID)
	if !ok || bound != sessionId {
		return ErrUnauthorized
	}

	c.relay.BroadcastToRoom(sessionId, event, map[string]any{
		"connection_id": client.ID,
		"account_id":    client.Identity.AccountID,
		"name":          client.Identity.DisplayText(),
		"state":         state,
	}, client.ID)

	return nil
}

// SetTypingStatus tells the rest of the room someone is typing.
func (c *SessionCoordinator) SetTypingStatus(client *Client, sessionId uint) error {
	bound, ok := c.registry.Binding(client.ID)
	if !ok || bound != sessionId {
		return ErrUnauthorized
	}

	c.relay.BroadcastToRoom(sessionId, models.EventTyping, map[string]any{
		"connection_id": client.ID,
		"name":          client.Identity.DisplayText(),
	}, client.ID)

	return nil
}
