package services

import (
	"context"

	"github.com/riffhouse/riffhouse/pkg/internal/models"
	"github.com/riffhouse/riffhouse/pkg/internal/queue"
	"github.com/rs/zerolog/log"
)

// PostProcessJob asks the media workers to run the full post-stop pipeline
// for one session: ingest of fresh uploads, composition when more than one
// recording completed, transcription hand-off and the creator notification.
type PostProcessJob struct {
	SessionID uint `json:"session_id"`
}

// TranscriptionJob is handed to the external transcription collaborator; it
// writes its results back to the store on its own.
type TranscriptionJob struct {
	SessionID    uint   `json:"session_id"`
	RecordingIDs []uint `json:"recording_ids"`
}

type queuePostProcessor struct {
	pub *queue.Publisher
}

func NewQueuePostProcessor(pub *queue.Publisher) PostProcessor {
	return &queuePostProcessor{pub: pub}
}

func (p *queuePostProcessor) SessionCompleted(ctx context.Context, session models.Session) {
	if err := p.pub.Publish(ctx, queue.RouteSessionPostProcess, PostProcessJob{
		SessionID: session.ID,
	}); err != nil {
		// The session is already committed as completed; losing the job only
		// costs the mixed artifact, not the per-participant recordings.
		log.Error().Err(err).Uint("session", session.ID).Msg("An error occurred when dispatching post-processing...")
	}
}

// Transcriber submits completed recordings for speech-to-text.
type Transcriber interface {
	Submit(ctx context.Context, sessionId uint, recordingIds []uint) error
}

type queueTranscriber struct {
	pub *queue.Publisher
}

func NewQueueTranscriber(pub *queue.Publisher) Transcriber {
	return &queueTranscriber{pub: pub}
}

func (t *queueTranscriber) Submit(ctx context.Context, sessionId uint, recordingIds []uint) error {
	return t.pub.Publish(ctx, queue.RouteTranscription, TranscriptionJob{
		SessionID:    sessionId,
		RecordingIDs: recordingIds,
	})
}
