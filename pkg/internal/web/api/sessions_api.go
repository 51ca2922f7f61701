package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/riffhouse/riffhouse/pkg/internal/models"
	"github.com/riffhouse/riffhouse/pkg/internal/web/exts"
)

func listSession(c *fiber.Ctx) error {
	take := c.QueryInt("take", 0)
	offset := c.QueryInt("offset", 0)

	if sessions, err := deps.Data.ListSessions(take, offset); err != nil {
		return mapServiceError(err)
	} else {
		return c.JSON(sessions)
	}
}

func getSession(c *fiber.Ctx) error {
	id, err := c.ParamsInt("sessionId")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	if session, err := deps.Data.GetSession(uint(id)); err != nil {
		return mapServiceError(err)
	} else {
		return c.JSON(session)
	}
}

func createSession(c *fiber.Ctx) error {
	user := c.Locals("user").(models.Account)

	var data struct {
		Title    string                 `json:"title" validate:"required,max=256"`
		Settings models.SessionSettings `json:"settings"`
	}
	if err := exts.BindAndValidate(c, &data); err != nil {
		return err
	}

	if session, err := deps.Coordinator.NewSession(user, data.Title, data.Settings); err != nil {
		return mapServiceError(err)
	} else {
		return c.JSON(session)
	}
}

func startRecording(c *fiber.Ctx) error {
	user := c.Locals("user").(models.Account)
	id, err := c.ParamsInt("sessionId")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	if session, err := deps.Coordinator.StartRecording(uint(id), user); err != nil {
		return mapServiceError(err)
	} else {
		return c.JSON(session)
	}
}

func stopRecording(c *fiber.Ctx) error {
	user := c.Locals("user").(models.Account)
	id, err := c.ParamsInt("sessionId")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	if session, err := deps.Coordinator.StopRecording(uint(id), user); err != nil {
		return mapServiceError(err)
	} else {
		return c.JSON(session)
	}
}

func cancelSession(c *fiber.Ctx) error {
	user := c.Locals("user").(models.Account)
	id, err := c.ParamsInt("sessionId")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	if session, err := deps.Coordinator.CancelSession(uint(id), user); err != nil {
		return mapServiceError(err)
	} else {
		return c.JSON(session)
	}
}

func listSessionMessages(c *fiber.Ctx) error {
	take := c.QueryInt("take", 0)
	offset := c.QueryInt("offset", 0)
	id, err := c.ParamsInt("sessionId")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	if messages, err := deps.Data.ListMessages(uint(id), take, offset); err != nil {
		return mapServiceError(err)
	} else {
		return c.JSON(messages)
	}
}
