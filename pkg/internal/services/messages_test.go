package services

import (
	"strings"
	"testing"

	"github.com/riffhouse/riffhouse/pkg/internal/models"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendChatFansOutAndRecordsHistory(t *testing.T) {
	coordinator, store, _, _ := newTestCoordinator()
	session := seedSession(t, store, 1, 4)

	alice, aliceConn := newTestClient("alice", lo.ToPtr(uint(1)))
	bob, bobConn := newTestClient("bob", lo.ToPtr(uint(2)))
	_, err := coordinator.JoinSession(alice, session.ID)
	require.NoError(t, err)
	_, err = coordinator.JoinSession(bob, session.ID)
	require.NoError(t, err)

	message, err := coordinator.SendChat(alice, session.ID, "tune up, everyone")
	require.NoError(t, err)
	assert.Equal(t, "alice", message.SenderName)

	// Chat is echoed back to the sender too, so every client shares one
	// ordering of the history.
	assert.Equal(t, 1, aliceConn.countAction(models.EventChatMessage))
	assert.Equal(t, 1, bobConn.countAction(models.EventChatMessage))

	history, err := store.ListMessages(session.ID, 100, 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "tune up, everyone", history[0].Content)
}

func TestSendChatRejectsOversizedAndEmpty(t *testing.T) {
	coordinator, store, _, _ := newTestCoordinator()
	session := seedSession(t, store, 1, 4)

	alice, _ := newTestClient("alice", lo.ToPtr(uint(1)))
	_, err := coordinator.JoinSession(alice, session.ID)
	require.NoError(t, err)

	_, err = coordinator.SendChat(alice, session.ID, strings.Repeat("x", models.ChatMessageMaxLength+1))
	assert.ErrorIs(t, err, ErrMessageTooLong)
	_, err = coordinator.SendChat(alice, session.ID, "")
	assert.ErrorIs(t, err, ErrMessageTooLong)

	history, _ := store.ListMessages(session.ID, 100, 0)
	assert.Empty(t, history)
}

func TestSendChatBoundCountsCharactersNotBytes(t *testing.T) {
	coordinator, store, _, _ := newTestCoordinator()
	session := seedSession(t, store, 1, 4)

	alice, _ := newTestClient("alice", lo.ToPtr(uint(1)))
	_, err := coordinator.JoinSession(alice, session.ID)
	require.NoError(t, err)

	// 600 two-byte characters: over 1000 bytes but well under the limit.
	_, err = coordinator.SendChat(alice, session.ID, strings.Repeat("ñ", 600))
	require.NoError(t, err)

	_, err = coordinator.SendChat(alice, session.ID, strings.Repeat("ñ", models.ChatMessageMaxLength+1))
	assert.ErrorIs(t, err, ErrMessageTooLong)

	history, _ := store.ListMessages(session.ID, 100, 0)
	assert.Len(t, history, 1)
}

func TestSendChatRequiresRoomBinding(t *testing.T) {
	coordinator, store, _, _ := newTestCoordinator()
	session := seedSession(t, store, 1, 4)

	stranger, _ := newTestClient("mallory", lo.ToPtr(uint(9)))
	_, err := coordinator.SendChat(stranger, session.ID, "hello?")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestSendChatHonorsDisabledChat(t *testing.T) {
	coordinator, store, _, _ := newTestCoordinator()
	session := seedSession(t, store, 1, 4)
	session.Settings.EnableChat = false
	require.NoError(t, store.SaveSession(&session))

	alice, _ := newTestClient("alice", lo.ToPtr(uint(1)))
	_, err := coordinator.JoinSession(alice, session.ID)
	require.NoError(t, err)

	_, err = coordinator.SendChat(alice, session.ID, "anyone here?")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestSendChatFailedWriteBroadcastsNothing(t *testing.T) {
	coordinator, store, _, _ := newTestCoordinator()
	session := seedSession(t, store, 1, 4)

	alice, _ := newTestClient("alice", lo.ToPtr(uint(1)))
	bob, bobConn := newTestClient("bob", lo.ToPtr(uint(2)))
	_, err := coordinator.JoinSession(alice, session.ID)
	require.NoError(t, err)
	_, err = coordinator.JoinSession(bob, session.ID)
	require.NoError(t, err)

	store.mu.Lock()
	store.failSaves = true
	store.mu.Unlock()

	_, err = coordinator.SendChat(alice, session.ID, "lost message")
	require.Error(t, err)
	assert.Equal(t, 0, bobConn.countAction(models.EventChatMessage))
}

func TestToggleMediaExcludesSender(t *testing.T) {
	coordinator, store, _, _ := newTestCoordinator()
	session := seedSession(t, store, 1, 4)

	alice, aliceConn := newTestClient("alice", lo.ToPtr(uint(1)))
	bob, bobConn := newTestClient("bob", lo.ToPtr(uint(2)))
	_, err := coordinator.JoinSession(alice, session.ID)
	require.NoError(t, err)
	_, err = coordinator.JoinSession(bob, session.ID)
	require.NoError(t, err)

	require.NoError(t, coordinator.ToggleMedia(alice, session.ID, models.EventAudioToggle, false))

	assert.Equal(t, 1, bobConn.countAction(models.EventAudioToggle))
	assert.Equal(t, 0, aliceConn.countAction(models.EventAudioToggle))
}

func TestTypingStatusRequiresBinding(t *testing.T) {
	coordinator, store, _, _ := newTestCoordinator()
	session := seedSession(t, store, 1, 4)

	alice, _ := newTestClient("alice", lo.ToPtr(uint(1)))
	bob, bobConn := newTestClient("bob", lo.ToPtr(uint(2)))
	_, err := coordinator.JoinSession(alice, session.ID)
	require.NoError(t, err)
	_, err = coordinator.JoinSession(bob, session.ID)
	require.NoError(t, err)

	require.NoError(t, coordinator.SetTypingStatus(alice, session.ID))
	assert.Equal(t, 1, bobConn.countAction(models.EventTyping))

	stranger, _ := newTestClient("mallory", nil)
	assert.ErrorIs(t, coordinator.SetTypingStatus(stranger, session.ID), ErrUnauthorized)
}
