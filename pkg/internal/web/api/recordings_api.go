package api

import (
	"fmt"
	"path/filepath"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/riffhouse/riffhouse/pkg/internal/models"
	"github.com/rs/zerolog/log"
)

func listSessionRecordings(c *fiber.Ctx) error {
	id, err := c.ParamsInt("sessionId")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	if recordings, err := deps.Data.ListRecordings(uint(id)); err != nil {
		return mapServiceError(err)
	} else {
		return c.JSON(recordings)
	}
}

func getRecording(c *fiber.Ctx) error {
	id, err := c.ParamsInt("recordingId")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	if recording, err := deps.Data.GetRecording(uint(id)); err != nil {
		return mapServiceError(err)
	} else {
		return c.JSON(recording)
	}
}

func readRecordingContent(c *fiber.Ctx) error {
	id, err := c.ParamsInt("recordingId")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	recording, err := deps.Data.GetRecording(uint(id))
	if err != nil {
		return mapServiceError(err)
	}

	content, err := deps.Blobs.Get(c.Context(), recording.StorageRef)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	c.Set(fiber.HeaderContentType, recording.MimeType)
	return c.SendStream(content)
}

// uploadRecording accepts a participant's raw capture and parks it in object
// storage; the technical probe and the rest of the ingest pipeline run when
// the session finishes.
func uploadRecording(c *fiber.Ctx) error {
	user := c.Locals("user").(models.Account)
	id, err := c.ParamsInt("sessionId")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	session, err := deps.Data.GetSession(uint(id))
	if err != nil {
		return mapServiceError(err)
	}

	header, err := c.FormFile("file")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	recording := models.Recording{
		SessionID: session.ID,
		OwnerID:   &user.ID,
		FileName:  header.Filename,
		FileSize:  header.Size,
		MimeType:  header.Header.Get(fiber.HeaderContentType),
		Status:    models.RecordingStatusUploading,
	}
	if err := deps.Data.SaveRecording(&recording); err != nil {
		return mapServiceError(err)
	}

	src, err := header.Open()
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	defer src.Close()

	ref := fmt.Sprintf("sessions/%d/recordings/%d-%s%s",
		session.ID, recording.ID, uuid.NewString(), filepath.Ext(header.Filename))
	if err := deps.Blobs.Put(c.Context(), ref, src, header.Size, recording.MimeType); err != nil {
		recording.Status = models.RecordingStatusFailed
		if saveErr := deps.Data.SaveRecording(&recording); saveErr != nil {
			log.Error().Err(saveErr).Uint("recording", recording.ID).Msg("An error occurred when marking upload as failed...")
		}
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	recording.StorageRef = ref
	recording.Status = models.RecordingStatusProcessing
	if err := deps.Data.SaveRecording(&recording); err != nil {
		return mapServiceError(err)
	}

	return c.JSON(recording)
}

// reingestRecording re-runs the ingest pipeline over a failed recording.
// This is the manual recovery path; nothing retries automatically.
func reingestRecording(c *fiber.Ctx) error {
	user := c.Locals("user").(models.Account)
	id, err := c.ParamsInt("recordingId")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	recording, err := deps.Data.GetRecording(uint(id))
	if err != nil {
		return mapServiceError(err)
	}
	if recording.OwnerID == nil || *recording.OwnerID != user.ID {
		return fiber.NewError(fiber.StatusForbidden, "only the owner can re-ingest a recording")
	}
	if recording.Status != models.RecordingStatusFailed {
		return fiber.NewError(fiber.StatusConflict, "only failed recordings can be re-ingested")
	}

	if err := deps.Ingest.Ingest(c.Context(), &recording); err != nil {
		return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
	}

	return c.JSON(recording)
}
