package api

import (
	"errors"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/riffhouse/riffhouse/pkg/internal/media"
	"github.com/riffhouse/riffhouse/pkg/internal/services"
	"github.com/riffhouse/riffhouse/pkg/internal/storage"
)

// Dependencies is everything the handlers reach for; wired once from main.
type Dependencies struct {
	Coordinator *services.SessionCoordinator
	Registry    *services.PresenceRegistry
	Relay       *services.SignalRelay
	Data        services.DataStore
	Blobs       storage.BlobStore
	Ingest      *media.IngestStage
}

var deps Dependencies

func MapAPIs(app *fiber.App, baseURL string, in Dependencies) {
	deps = in

	api := app.Group(baseURL).Name("API")
	{
		sessions := api.Group("/sessions").Name("Sessions API")
		{
			sessions.Get("/", listSession)
			sessions.Post("/", authMiddleware, createSession)
			sessions.Get("/:sessionId", getSession)
			sessions.Post("/:sessionId/start", authMiddleware, startRecording)
			sessions.Post("/:sessionId/stop", authMiddleware, stopRecording)
			sessions.Post("/:sessionId/cancel", authMiddleware, cancelSession)

			sessions.Get("/:sessionId/messages", listSessionMessages)

			sessions.Get("/:sessionId/recordings", listSessionRecordings)
			sessions.Post("/:sessionId/recordings", authMiddleware, uploadRecording)
		}

		recordings := api.Group("/recordings").Name("Recordings API")
		{
			recordings.Get("/:recordingId", getRecording)
			recordings.Get("/:recordingId/content", readRecordingContent)
			recordings.Post("/:recordingId/reingest", authMiddleware, reingestRecording)
		}

		api.Get("/gateway", websocket.New(wsGateway))
	}
}

func mapServiceError(err error) error {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrUnauthenticated):
		return fiber.NewError(fiber.StatusUnauthorized, err.Error())
	case errors.Is(err, services.ErrUnauthorized):
		return fiber.NewError(fiber.StatusForbidden, err.Error())
	case errors.Is(err, services.ErrRoomFull):
		return fiber.NewError(fiber.StatusTooManyRequests, err.Error())
	case errors.Is(err, services.ErrAlreadyInRoom), errors.Is(err, services.ErrInvalidStateTransition):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, services.ErrMessageTooLong):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
}
