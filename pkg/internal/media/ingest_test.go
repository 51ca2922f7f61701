package media

import (
	"context"
	"errors"
	"testing"

	"github.com/riffhouse/riffhouse/pkg/internal/models"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pendingRecording(store *recordingStore, fileName, ref, mimeType string) models.Recording {
	rec := models.Recording{
		SessionID:  42,
		FileName:   fileName,
		MimeType:   mimeType,
		StorageRef: ref,
		Status:     models.RecordingStatusProcessing,
	}
	_ = store.SaveRecording(&rec)
	return rec
}

func TestIngestVideoExtractsThumbnail(t *testing.T) {
	viper.Set("media.temp_dir", t.TempDir())
	run := newFakeRunner(probeVideoOutput)
	store := newRecordingStore()
	blobs := &fakeBlobs{}
	stage := NewIngestStage(run, store, blobs)

	rec := pendingRecording(store, "take.mp4", "sessions/42/recordings/take.mp4", "video/mp4")
	require.NoError(t, stage.Ingest(context.Background(), &rec))

	assert.Equal(t, models.RecordingStatusCompleted, rec.Status)
	assert.InDelta(t, 120.5, rec.Duration, 1e-6)
	assert.Equal(t, "h264", rec.VideoCodec)
	assert.True(t, rec.HasVideo)

	calls := run.callsOf("ffmpeg")
	require.Len(t, calls, 1)
	// The still is grabbed at a tenth of the way in.
	assert.Equal(t, "12.050", argValue(calls[0].Args, "-ss"))
	assert.Equal(t, "1", argValue(calls[0].Args, "-frames:v"))

	require.NotNil(t, rec.ThumbnailRef)
	assert.Contains(t, *rec.ThumbnailRef, "sessions/42/thumbnails/")
	require.Len(t, blobs.puts, 1)
	assert.Equal(t, *rec.ThumbnailRef, blobs.puts[0])

	stored, err := store.GetRecording(rec.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RecordingStatusCompleted, stored.Status)
}

func TestIngestAudioOnlyNormalizesLoudness(t *testing.T) {
	viper.Set("media.temp_dir", t.TempDir())
	run := newFakeRunner(probeAudioOutput)
	store := newRecordingStore()
	blobs := &fakeBlobs{}
	stage := NewIngestStage(run, store, blobs)

	rec := pendingRecording(store, "take.ogg", "sessions/42/recordings/take.ogg", "audio/ogg")
	require.NoError(t, stage.Ingest(context.Background(), &rec))

	calls := run.callsOf("ffmpeg")
	require.Len(t, calls, 1)
	assert.Equal(t, "loudnorm=I=-16:TP=-1.5:LRA=11", argValue(calls[0].Args, "-af"))
	assert.Equal(t, "48000", argValue(calls[0].Args, "-ar"))

	// The stored object is swapped for the normalized render and the original
	// is discarded.
	assert.Equal(t, "sessions/42/recordings/take-normalized.ogg", rec.StorageRef)
	assert.Equal(t, []string{"sessions/42/recordings/take-normalized.ogg"}, blobs.puts)
	assert.Equal(t, []string{"sessions/42/recordings/take.ogg"}, blobs.deletes)
	assert.Nil(t, rec.ThumbnailRef)
	assert.Equal(t, models.RecordingStatusCompleted, rec.Status)
}

func TestIngestProbeFailureParksRecordingAsFailed(t *testing.T) {
	viper.Set("media.temp_dir", t.TempDir())
	run := newFakeRunner(probeVideoOutput)
	run.probeErr = errors.New("moov atom not found")
	store := newRecordingStore()
	stage := NewIngestStage(run, store, &fakeBlobs{})

	rec := pendingRecording(store, "broken.mp4", "sessions/42/recordings/broken.mp4", "video/mp4")
	err := stage.Ingest(context.Background(), &rec)
	assert.ErrorIs(t, err, ErrProcessingFailure)
	assert.Equal(t, models.RecordingStatusFailed, rec.Status)

	stored, getErr := store.GetRecording(rec.ID)
	require.NoError(t, getErr)
	assert.Equal(t, models.RecordingStatusFailed, stored.Status)
}

func TestIngestThumbnailUploadFailureParksRecording(t *testing.T) {
	viper.Set("media.temp_dir", t.TempDir())
	run := newFakeRunner(probeVideoOutput)
	store := newRecordingStore()
	blobs := &fakeBlobs{putErr: errors.New("bucket unavailable")}
	stage := NewIngestStage(run, store, blobs)

	rec := pendingRecording(store, "take.mp4", "sessions/42/recordings/take.mp4", "video/mp4")
	err := stage.Ingest(context.Background(), &rec)
	assert.ErrorIs(t, err, ErrProcessingFailure)
	assert.Equal(t, models.RecordingStatusFailed, rec.Status)
	assert.Nil(t, rec.ThumbnailRef)
}
