package services

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Notifier delivers out-of-band notices (completion emails and the like) to
// an account. Fire and forget; failures are only logged.
type Notifier interface {
	Notify(accountId uint, event string, data map[string]any) error
}

// WebhookNotifier forwards notices to the notification service configured in
// settings. Without an endpoint it degrades to logging, which keeps local
// setups working.
type WebhookNotifier struct{}

func NewWebhookNotifier() *WebhookNotifier {
	return &WebhookNotifier{}
}

func (n *WebhookNotifier) Notify(accountId uint, event string, data map[string]any) error {
	endpoint := viper.GetString("notifications.endpoint")
	if len(endpoint) == 0 {
		log.Info().Uint("account", accountId).Str("event", event).Msg("Notification endpoint unset, dropping notice...")
		return nil
	}

	agent := fiber.Post(endpoint)
	agent.JSON(fiber.Map{
		"account_id": accountId,
		"event":      event,
		"data":       data,
	})

	status, _, errs := agent.Bytes()
	if len(errs) > 0 {
		return errs[0]
	}
	if status >= 400 {
		return fiber.NewError(status, "notification endpoint rejected the notice")
	}
	return nil
}
