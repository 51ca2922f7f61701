package services

import (
	"errors"

	"github.com/riffhouse/riffhouse/pkg/internal/database"
	"github.com/riffhouse/riffhouse/pkg/internal/models"
	"gorm.io/gorm"
)

// DataStore is the persistence collaborator behind the session coordinator and
// the media pipeline. Every lifecycle transition writes through it before any
// event is emitted.
type DataStore interface {
	GetSession(id uint) (models.Session, error)
	SaveSession(session *models.Session) error
	ListSessions(take, offset int) ([]models.Session, error)

	GetActiveParticipant(sessionId uint, accountId uint) (models.Participant, error)
	SaveParticipant(participant *models.Participant) error
	ListActiveParticipants(sessionId uint) ([]models.Participant, error)

	SaveMessage(message *models.ChatMessage) error
	ListMessages(sessionId uint, take, offset int) ([]models.ChatMessage, error)

	GetRecording(id uint) (models.Recording, error)
	SaveRecording(recording *models.Recording) error
	ListRecordings(sessionId uint) ([]models.Recording, error)
	ListRecordingsByStatus(sessionId uint, status models.RecordingStatus) ([]models.Recording, error)
}

type GormStore struct {
	db *gorm.DB
}

func NewGormStore() *GormStore {
	return &GormStore{db: database.C}
}

func (s *GormStore) GetSession(id uint) (models.Session, error) {
	var session models.Session
	if err := s.db.
		Where(models.Session{BaseModel: models.BaseModel{ID: id}}).
		Preload("Participants").
		Preload("Recordings").
		First(&session).Error; err != nil {
		return session, wrapNotFound(err)
	}
	return session, nil
}

func (s *GormStore) SaveSession(session *models.Session) error {
	return s.db.Omit("Participants", "Recordings", "Messages").Save(session).Error
}

func (s *GormStore) ListSessions(take, offset int) ([]models.Session, error) {
	if take > 100 || take <= 0 {
		take = 100
	}

	var sessions []models.Session
	if err := s.db.
		Limit(take).Offset(offset).
		Order("created_at DESC").
		Find(&sessions).Error; err != nil {
		return sessions, err
	}
	return sessions, nil
}

func (s *GormStore) GetActiveParticipant(sessionId uint, accountId uint) (models.Participant, error) {
	var participant models.Participant
	if err := s.db.
		Where("session_id = ? AND account_id = ?", sessionId, accountId).
		Where("left_at IS NULL").
		First(&participant).Error; err != nil {
		return participant, wrapNotFound(err)
	}
	return participant, nil
}

func (s *GormStore) SaveParticipant(participant *models.Participant) error {
	return s.db.Save(participant).Error
}

func (s *GormStore) ListActiveParticipants(sessionId uint) ([]models.Participant, error) {
	var participants []models.Participant
	if err := s.db.
		Where("session_id = ?", sessionId).
		Where("left_at IS NULL").
		Order("joined_at ASC").
		Find(&participants).Error; err != nil {
		return participants, err
	}
	return participants, nil
}

func (s *GormStore) SaveMessage(message *models.ChatMessage) error {
	return s.db.Save(message).Error
}

func (s *GormStore) ListMessages(sessionId uint, take, offset int) ([]models.ChatMessage, error) {
	if take > 100 || take <= 0 {
		take = 100
	}

	var messages []models.ChatMessage
	if err := s.db.
		Where("session_id = ?", sessionId).
		Limit(take).Offset(offset).
		Order("created_at ASC").
		Find(&messages).Error; err != nil {
		return messages, err
	}
	return messages, nil
}

func (s *GormStore) GetRecording(id uint) (models.Recording, error) {
	var recording models.Recording
	if err := s.db.
		Where(models.Recording{BaseModel: models.BaseModel{ID: id}}).
		First(&recording).Error; err != nil {
		return recording, wrapNotFound(err)
	}
	return recording, nil
}

func (s *GormStore) SaveRecording(recording *models.Recording) error {
	return s.db.Save(recording).Error
}

func (s *GormStore) ListRecordings(sessionId uint) ([]models.Recording, error) {
	var recordings []models.Recording
	if err := s.db.
		Where("session_id = ?", sessionId).
		Order("created_at ASC").
		Find(&recordings).Error; err != nil {
		return recordings, err
	}
	return recordings, nil
}

func (s *GormStore) ListRecordingsByStatus(sessionId uint, status models.RecordingStatus) ([]models.Recording, error) {
	var recordings []models.Recording
	if err := s.db.
		Where("session_id = ? AND status = ?", sessionId, status).
		Order("created_at ASC").
		Find(&recordings).Error; err != nil {
		return recordings, err
	}
	return recordings, nil
}

func wrapNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
