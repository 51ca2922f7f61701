package models

import jsoniter "github.com/json-iterator/go"

// Client to server actions.
const (
	ActionAuthenticate   = "authenticate"
	ActionJoinSession    = "join-session"
	ActionLeaveSession   = "leave-session"
	ActionStartRecording = "start-recording"
	ActionStopRecording  = "stop-recording"
	ActionChatMessage    = "chat-message"
	ActionToggleAudio    = "toggle-audio"
	ActionToggleVideo    = "toggle-video"
	ActionTyping         = "typing"
	ActionOffer          = "webrtc-offer"
	ActionAnswer         = "webrtc-answer"
	ActionIceCandidate   = "webrtc-ice-candidate"
)

// Server to client events.
const (
	EventAuthenticated     = "authenticated"
	EventSessionJoined     = "session-joined"
	EventParticipantJoined = "participant-joined"
	EventParticipantLeft   = "participant-left"
	EventRecordingStarted  = "recording-started"
	EventRecordingStopped  = "recording-stopped"
	EventChatMessage       = "chat-message"
	EventAudioToggle       = "participant-audio-toggle"
	EventVideoToggle       = "participant-video-toggle"
	EventTyping            = "participant-typing"
	EventError             = "error"
)

// ClientPacket is the single envelope exchanged over the websocket gateway in
// both directions.
type ClientPacket struct {
	Action  string `json:"action"`
	Payload any    `json:"payload,omitempty"`
	Message string `json:"message,omitempty"`
}

func (v ClientPacket) Marshal() []byte {
	data, _ := jsoniter.Marshal(v)
	return data
}

func ClientPacketFromError(err error) ClientPacket {
	return ClientPacket{
		Action:  EventError,
		Message: err.Error(),
	}
}
