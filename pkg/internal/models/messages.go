package models

// ChatMessageMaxLength bounds the content of a single chat message. Anything
// longer is rejected before it reaches the session history.
const ChatMessageMaxLength = 1000

type ChatMessage struct {
	BaseModel

	SessionID  uint   `json:"session_id"`
	SenderID   *uint  `json:"sender_id"`
	SenderName string `json:"sender_name"`
	Content    string `json:"content"`
}
