package media

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/riffhouse/riffhouse/pkg/internal/models"
	"github.com/riffhouse/riffhouse/pkg/internal/services"
	"github.com/riffhouse/riffhouse/pkg/internal/storage"
	"github.com/rs/zerolog/log"
)

// IngestStage runs the per-file pipeline over a freshly uploaded recording:
// probe, thumbnail for video, loudness normalization for audio-only files.
// The stages are strictly sequential and any failure parks the recording in
// the failed state without retrying.
type IngestStage struct {
	run   Runner
	data  services.DataStore
	blobs storage.BlobStore
}

func NewIngestStage(run Runner, data services.DataStore, blobs storage.BlobStore) *IngestStage {
	return &IngestStage{
		run:   run,
		data:  data,
		blobs: blobs,
	}
}

func (s *IngestStage) Ingest(ctx context.Context, rec *models.Recording) error {
	workDir, err := scratchDir(fmt.Sprintf("ingest-%d", rec.ID))
	if err != nil {
		return s.fail(rec, err)
	}
	defer os.RemoveAll(workDir)

	local := filepath.Join(workDir, filepath.Base(rec.StorageRef))
	if err := s.blobs.GetFile(ctx, rec.StorageRef, local); err != nil {
		return s.fail(rec, err)
	}

	probe, err := ProbeFile(ctx, s.run, local)
	if err != nil {
		return s.fail(rec, err)
	}

	rec.Duration = probe.Duration
	rec.Bitrate = probe.Bitrate
	rec.VideoCodec = probe.VideoCodec
	rec.AudioCodec = probe.AudioCodec
	rec.Width = probe.Width
	rec.Height = probe.Height
	rec.FrameRate = probe.FrameRate
	rec.HasVideo = probe.HasVideo
	rec.HasAudio = probe.HasAudio
	rec.Probe = probe.Raw

	if probe.HasVideo {
		if err := s.extractThumbnail(ctx, rec, local, workDir, probe.Duration); err != nil {
			return s.fail(rec, err)
		}
	} else if probe.HasAudio {
		if err := s.normalizeLoudness(ctx, rec, local, workDir); err != nil {
			return s.fail(rec, err)
		}
	}

	rec.Status = models.RecordingStatusCompleted
	return s.data.SaveRecording(rec)
}

// extractThumbnail grabs one frame at 10% of the duration and stores it next
// to the recording.
func (s *IngestStage) extractThumbnail(ctx context.Context, rec *models.Recording, local, workDir string, duration float64) error {
	thumbPath := filepath.Join(workDir, "thumbnail.jpg")

	_, err := s.run.Run(ctx, "ffmpeg",
		"-ss", fmt.Sprintf("%.3f", duration*0.10),
		"-i", local,
		"-frames:v", "1",
		"-q:v", "4",
		"-y",
		thumbPath,
	)
	if err != nil {
		return err
	}

	ref := fmt.Sprintf("sessions/%d/thumbnails/%d-%s.jpg", rec.SessionID, rec.ID, uuid.NewString())
	if err := s.blobs.PutFile(ctx, ref, thumbPath, "image/jpeg"); err != nil {
		return err
	}

	rec.ThumbnailRef = &ref
	return nil
}

// normalizeLoudness re-encodes an audio-only recording through loudnorm and
// swaps the stored object for the normalized one. The pre-normalization file
// is discarded.
func (s *IngestStage) normalizeLoudness(ctx context.Context, rec *models.Recording, local, workDir string) error {
	ext := filepath.Ext(local)
	normalized := filepath.Join(workDir, "normalized"+ext)

	_, err := s.run.Run(ctx, "ffmpeg",
		"-i", local,
		"-af", "loudnorm=I=-16:TP=-1.5:LRA=11",
		"-ar", "48000",
		"-y",
		normalized,
	)
	if err != nil {
		return err
	}

	oldRef := rec.StorageRef
	newRef := strings.TrimSuffix(oldRef, ext) + "-normalized" + ext
	if err := s.blobs.PutFile(ctx, newRef, normalized, rec.MimeType); err != nil {
		return err
	}
	rec.StorageRef = newRef

	if err := s.blobs.Delete(ctx, oldRef); err != nil {
		log.Warn().Err(err).Str("ref", oldRef).Msg("An error occurred when discarding the pre-normalization object...")
	}

	return nil
}

func (s *IngestStage) fail(rec *models.Recording, cause error) error {
	rec.Status = models.RecordingStatusFailed
	if err := s.data.SaveRecording(rec); err != nil {
		log.Error().Err(err).Uint("recording", rec.ID).Msg("An error occurred when marking recording as failed...")
	}
	return errors.Join(ErrProcessingFailure, cause)
}
