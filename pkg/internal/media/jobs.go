package media

import (
	"context"
	"sync"

	jsoniter "github.com/json-iterator/go"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/riffhouse/riffhouse/pkg/internal/models"
	"github.com/riffhouse/riffhouse/pkg/internal/services"
	"github.com/riffhouse/riffhouse/pkg/internal/storage"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

// Worker drains post-processing jobs published when sessions complete. It
// keeps at most one job in flight per session.
type Worker struct {
	data       services.DataStore
	ingest     *IngestStage
	engine     *CompositionEngine
	notify     services.Notifier
	transcribe services.Transcriber

	inflight sync.Map
}

func NewWorker(run Runner, data services.DataStore, blobs storage.BlobStore, notify services.Notifier, transcribe services.Transcriber) *Worker {
	return &Worker{
		data:       data,
		ingest:     NewIngestStage(run, data, blobs),
		engine:     NewCompositionEngine(run, blobs),
		notify:     notify,
		transcribe: transcribe,
	}
}

// HandlePostProcess is the queue consumer entrypoint.
func HandlePostProcess(ctx context.Context, msg amqp.Delivery, w *Worker) error {
	var job services.PostProcessJob
	if err := jsoniter.Unmarshal(msg.Body, &job); err != nil {
		return err
	}
	return w.Process(ctx, job.SessionID)
}

func (w *Worker) Process(ctx context.Context, sessionId uint) error {
	if _, busy := w.inflight.LoadOrStore(sessionId, struct{}{}); busy {
		log.Info().Uint("session", sessionId).Msg("Post-processing already in flight for session, skipping...")
		return nil
	}
	defer w.inflight.Delete(sessionId)

	session, err := w.data.GetSession(sessionId)
	if err != nil {
		return err
	}

	// Ingest everything uploaded during the session first.
	pending, err := w.data.ListRecordingsByStatus(sessionId, models.RecordingStatusProcessing)
	if err != nil {
		return err
	}
	for idx := range pending {
		if err := w.ingest.Ingest(ctx, &pending[idx]); err != nil {
			log.Warn().Err(err).
				Uint("recording", pending[idx].ID).
				Msg("An error occurred when ingesting recording, leaving it as failed...")
		}
	}

	completed, err := w.data.ListRecordingsByStatus(sessionId, models.RecordingStatusCompleted)
	if err != nil {
		return err
	}

	hasComposite := lo.SomeBy(completed, func(item models.Recording) bool {
		return item.IsComposite
	})
	sources := lo.Filter(completed, func(item models.Recording, _ int) bool {
		return !item.IsComposite
	})

	if len(sources) > 1 && !hasComposite {
		if mixed, err := w.engine.Compose(ctx, session, sources); err != nil {
			// The session stays completed and usable without the mixed
			// artifact; only the composition is lost.
			log.Error().Err(err).Uint("session", sessionId).Msg("An error occurred when composing session recordings...")
		} else if err := w.data.SaveRecording(&mixed); err != nil {
			log.Error().Err(err).Uint("session", sessionId).Msg("An error occurred when saving the mixed recording...")
		} else {
			completed = append(completed, mixed)
		}
	}

	if session.Settings.AutoTranscribe && len(completed) > 0 {
		ids := lo.Map(completed, func(item models.Recording, _ int) uint {
			return item.ID
		})
		if err := w.transcribe.Submit(ctx, sessionId, ids); err != nil {
			log.Warn().Err(err).Uint("session", sessionId).Msg("An error occurred when handing recordings to transcription...")
		}
	}

	if err := w.notify.Notify(session.CreatorID, "session-processed", map[string]any{
		"session_id": session.ID,
		"title":      session.Title,
		"recordings": len(completed),
	}); err != nil {
		log.Warn().Err(err).Uint("session", sessionId).Msg("An error occurred when notifying the session creator...")
	}

	return nil
}
