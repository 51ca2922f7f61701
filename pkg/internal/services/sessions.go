package services

import (
	"context"
	"sync"
	"time"

	"github.com/riffhouse/riffhouse/pkg/internal/models"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

// PostProcessor receives sessions that just completed and takes care of the
// media side: ingest, composition, transcription hand-off and the creator
// notification. Failures there never roll back the completed transition.
type PostProcessor interface {
	SessionCompleted(ctx context.Context, session models.Session)
}

// SessionCoordinator runs the session lifecycle. All operations on one session
// are serialized through a per-session lock, so concurrent joins, leaves and
// start/stop calls cannot produce lost updates or double post-processing.
type SessionCoordinator struct {
	store    DataStore
	registry *PresenceRegistry
	relay    *SignalRelay
	post     PostProcessor

	locks sync.Map
}

func NewSessionCoordinator(store DataStore, registry *PresenceRegistry, relay *SignalRelay, post PostProcessor) *SessionCoordinator {
	return &SessionCoordinator{
		store:    store,
		registry: registry,
		relay:    relay,
		post:     post,
	}
}

func (c *SessionCoordinator) lockSession(id uint) func() {
	val, _ := c.locks.LoadOrStore(id, &sync.Mutex{})
	mu := val.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// SessionSnapshot is what a joiner receives right after entering a room.
type SessionSnapshot struct {
	Session      models.Session       `json:"session"`
	Participants []models.Participant `json:"participants"`
	History      []models.ChatMessage `json:"history"`
}

func (c *SessionCoordinator) NewSession(creator models.Account, title string, settings models.SessionSettings) (models.Session, error) {
	if settings.MaxParticipants <= 0 {
		settings.MaxParticipants = 8
	}
	if len(settings.Quality) == 0 {
		settings.Quality = "medium"
	}
	if len(settings.OutputFormat) == 0 {
		settings.OutputFormat = "mp4"
	}

	session := models.Session{
		Title:     title,
		Status:    models.SessionStatusScheduled,
		CreatorID: creator.ID,
		Settings:  settings,
	}
	if err := c.store.SaveSession(&session); err != nil {
		return session, err
	}
	return session, nil
}

func (c *SessionCoordinator) JoinSession(client *Client, sessionId uint) (SessionSnapshot, error) {
	unlock := c.lockSession(sessionId)
	defer unlock()

	var snapshot SessionSnapshot

	session, err := c.store.GetSession(sessionId)
	if err != nil {
		return snapshot, err
	}
	if session.IsOver() {
		return snapshot, ErrInvalidStateTransition
	}

	if _, ok := c.registry.Binding(client.ID); ok {
		return snapshot, ErrAlreadyInRoom
	}

	members := c.registry.RoomMembers(sessionId)
	if session.Settings.MaxParticipants > 0 && len(members) >= session.Settings.MaxParticipants {
		return snapshot, ErrRoomFull
	}

	participant, err := c.resolveParticipant(session, client.Identity)
	if err != nil {
		return snapshot, err
	}

	if err := c.registry.Join(client, sessionId); err != nil {
		return snapshot, err
	}

	c.relay.BroadcastToRoom(sessionId, models.EventParticipantJoined, participant, client.ID)

	participants, _ := c.store.ListActiveParticipants(sessionId)
	history, _ := c.store.ListMessages(sessionId, 100, 0)

	snapshot = SessionSnapshot{
		Session:      session,
		Participants: participants,
		History:      history,
	}
	return snapshot, nil
}

// resolveParticipant reactivates the participant entry of a reconnecting
// identity instead of duplicating it; only one entry per (session, identity)
// may have a null LeftAt.
func (c *SessionCoordinator) resolveParticipant(session models.Session, identity models.Identity) (models.Participant, error) {
	if identity.AccountID != nil {
		if existing, err := c.store.GetActiveParticipant(session.ID, *identity.AccountID); err == nil {
			return existing, nil
		}
	}

	role := models.ParticipantRoleMember
	if identity.AccountID != nil && *identity.AccountID == session.CreatorID {
		role = models.ParticipantRoleHost
	}

	participant := models.Participant{
		SessionID: session.ID,
		AccountID: identity.AccountID,
		Name:      identity.DisplayText(),
		Role:      role,
		JoinedAt:  time.Now(),
	}
	if err := c.store.SaveParticipant(&participant); err != nil {
		return participant, err
	}
	return participant, nil
}

// LeaveSession is both the explicit leave path and the disconnect cleanup
// path; calling it for a connection that already left is a no-op and emits
// nothing.
func (c *SessionCoordinator) LeaveSession(client *Client) error {
	sessionId, ok := c.registry.Binding(client.ID)
	if !ok {
		return nil
	}

	unlock := c.lockSession(sessionId)
	defer unlock()

	if client.Identity.AccountID != nil {
		if participant, err := c.store.GetActiveParticipant(sessionId, *client.Identity.AccountID); err == nil {
			participant.LeftAt = lo.ToPtr(time.Now())
			if err := c.store.SaveParticipant(&participant); err != nil {
				// Presence cleanup must still run; a dead connection left in
				// the registry would occupy room capacity forever.
				log.Warn().Err(err).
					Uint("session", sessionId).
					Str("connection", client.ID).
					Msg("An error occurred when stamping participant departure...")
			}
		}
	}

	// The registry removal is atomic, so a disconnect racing a duplicate
	// leave call yields exactly one broadcast.
	if _, removed := c.registry.Leave(client.ID); !removed {
		return nil
	}

	c.relay.BroadcastToRoom(sessionId, models.EventParticipantLeft, map[string]any{
		"connection_id": client.ID,
		"name":          client.Identity.DisplayText(),
		"account_id":    client.Identity.AccountID,
	})

	return nil
}

func (c *SessionCoordinator) StartRecording(sessionId uint, account models.Account) (models.Session, error) {
	unlock := c.lockSession(sessionId)
	defer unlock()

	session, err := c.store.GetSession(sessionId)
	if err != nil {
		return session, err
	}
	if session.CreatorID != account.ID {
		return session, ErrUnauthorized
	}
	if session.Status != models.SessionStatusScheduled {
		return session, ErrInvalidStateTransition
	}

	session.Status = models.SessionStatusActive
	session.StartedAt = lo.ToPtr(time.Now())
	if err := c.store.SaveSession(&session); err != nil {
		return session, err
	}

	c.relay.BroadcastToRoom(sessionId, models.EventRecordingStarted, map[string]any{
		"session_id": session.ID,
		"started_at": session.StartedAt,
	})

	return session, nil
}

func (c *SessionCoordinator) StopRecording(sessionId uint, account models.Account) (models.Session, error) {
	unlock := c.lockSession(sessionId)
	defer unlock()

	session, err := c.store.GetSession(sessionId)
	if err != nil {
		return session, err
	}
	if session.CreatorID != account.ID {
		return session, ErrUnauthorized
	}
	if session.Status != models.SessionStatusActive || session.StartedAt == nil {
		return session, ErrInvalidStateTransition
	}

	now := time.Now()
	session.Status = models.SessionStatusCompleted
	session.EndedAt = lo.ToPtr(now)
	session.Duration = lo.ToPtr(now.Sub(*session.StartedAt).Seconds())
	if err := c.store.SaveSession(&session); err != nil {
		return session, err
	}

	c.relay.BroadcastToRoom(sessionId, models.EventRecordingStopped, map[string]any{
		"session_id": session.ID,
		"ended_at":   session.EndedAt,
		"duration":   session.Duration,
	})

	go c.post.SessionCompleted(context.Background(), session)

	return session, nil
}

func (c *SessionCoordinator) CancelSession(sessionId uint, account models.Account) (models.Session, error) {
	unlock := c.lockSession(sessionId)
	defer unlock()

	session, err := c.store.GetSession(sessionId)
	if err != nil {
		return session, err
	}
	if session.CreatorID != account.ID {
		return session, ErrUnauthorized
	}
	if session.IsOver() {
		return session, ErrInvalidStateTransition
	}

	session.Status = models.SessionStatusCancelled
	if err := c.store.SaveSession(&session); err != nil {
		return session, err
	}

	log.Info().Uint("session", session.ID).Msg("Session was cancelled by its creator.")

	return session, nil
}
