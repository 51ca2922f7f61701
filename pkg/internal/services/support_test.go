package services

import (
	"context"
	"errors"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/riffhouse/riffhouse/pkg/internal/models"
	"github.com/samber/lo"
)

type fakeConn struct {
	mu     sync.Mutex
	frames [][]byte
}

func (f *fakeConn) WriteMessage(messageType int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	buf := make([]byte, len(data))
	copy(buf, data)
	f.frames = append(f.frames, buf)
	return nil
}

func (f *fakeConn) actions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]string, 0, len(f.frames))
	for _, frame := range f.frames {
		var packet models.ClientPacket
		_ = jsoniter.Unmarshal(frame, &packet)
		out = append(out, packet.Action)
	}
	return out
}

func (f *fakeConn) countAction(action string) int {
	return lo.Count(f.actions(), action)
}

// memoryStore is an in-memory DataStore used across the coordinator tests.
type memoryStore struct {
	mu           sync.Mutex
	nextID       uint
	sessions     map[uint]models.Session
	participants map[uint]models.Participant
	messages     []models.ChatMessage
	recordings   map[uint]models.Recording

	failSaves bool
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		sessions:     make(map[uint]models.Session),
		participants: make(map[uint]models.Participant),
		recordings:   make(map[uint]models.Recording),
	}
}

func (s *memoryStore) stamp(base *models.BaseModel) {
	if base.ID == 0 {
		s.nextID++
		base.ID = s.nextID
		base.CreatedAt = time.Now()
	}
	base.UpdatedAt = time.Now()
}

func (s *memoryStore) GetSession(id uint) (models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return session, ErrNotFound
	}
	return session, nil
}

func (s *memoryStore) SaveSession(session *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSaves {
		return errTestWrite
	}
	s.stamp(&session.BaseModel)
	s.sessions[session.ID] = *session
	return nil
}

func (s *memoryStore) ListSessions(take, offset int) ([]models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return lo.Values(s.sessions), nil
}

func (s *memoryStore) GetActiveParticipant(sessionId uint, accountId uint) (models.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, participant := range s.participants {
		if participant.SessionID == sessionId && participant.AccountID != nil &&
			*participant.AccountID == accountId && participant.LeftAt == nil {
			return participant, nil
		}
	}
	return models.Participant{}, ErrNotFound
}

func (s *memoryStore) SaveParticipant(participant *models.Participant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSaves {
		return errTestWrite
	}
	s.stamp(&participant.BaseModel)
	s.participants[participant.ID] = *participant
	return nil
}

func (s *memoryStore) ListActiveParticipants(sessionId uint) ([]models.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Participant
	for _, participant := range s.participants {
		if participant.SessionID == sessionId && participant.LeftAt == nil {
			out = append(out, participant)
		}
	}
	return out, nil
}

func (s *memoryStore) SaveMessage(message *models.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSaves {
		return errTestWrite
	}
	s.stamp(&message.BaseModel)
	s.messages = append(s.messages, *message)
	return nil
}

func (s *memoryStore) ListMessages(sessionId uint, take, offset int) ([]models.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ChatMessage
	for _, message := range s.messages {
		if message.SessionID == sessionId {
			out = append(out, message)
		}
	}
	return out, nil
}

func (s *memoryStore) GetRecording(id uint) (models.Recording, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	recording, ok := s.recordings[id]
	if !ok {
		return recording, ErrNotFound
	}
	return recording, nil
}

func (s *memoryStore) SaveRecording(recording *models.Recording) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stamp(&recording.BaseModel)
	s.recordings[recording.ID] = *recording
	return nil
}

func (s *memoryStore) ListRecordings(sessionId uint) ([]models.Recording, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Recording
	for _, recording := range s.recordings {
		if recording.SessionID == sessionId {
			out = append(out, recording)
		}
	}
	return out, nil
}

func (s *memoryStore) ListRecordingsByStatus(sessionId uint, status models.RecordingStatus) ([]models.Recording, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Recording
	for _, recording := range s.recordings {
		if recording.SessionID == sessionId && recording.Status == status {
			out = append(out, recording)
		}
	}
	return out, nil
}

var errTestWrite = errors.New("simulated write failure")

type fakePost struct {
	completed chan uint
}

func newFakePost() *fakePost {
	return &fakePost{completed: make(chan uint, 8)}
}

func (p *fakePost) SessionCompleted(ctx context.Context, session models.Session) {
	p.completed <- session.ID
}

func newTestCoordinator() (*SessionCoordinator, *memoryStore, *PresenceRegistry, *fakePost) {
	store := newMemoryStore()
	registry := NewPresenceRegistry()
	relay := NewSignalRelay(registry)
	post := newFakePost()
	return NewSessionCoordinator(store, registry, relay, post), store, registry, post
}

func newTestClient(name string, accountId *uint) (*Client, *fakeConn) {
	conn := &fakeConn{}
	client := NewClient(conn)
	client.Identity = models.Identity{AccountID: accountId, Name: name}
	return client, conn
}
