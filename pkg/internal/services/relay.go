package services

import (
	"github.com/riffhouse/riffhouse/pkg/internal/models"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

// SignalRelay fans events out to room members. Delivery is fire and forget;
// participants re-announce transient state themselves, so a dropped write is
// only worth a log line.
type SignalRelay struct {
	registry *PresenceRegistry
}

func NewSignalRelay(registry *PresenceRegistry) *SignalRelay {
	return &SignalRelay{registry: registry}
}

func (s *SignalRelay) BroadcastToRoom(roomId uint, action string, payload any, exclude ...string) {
	packet := models.ClientPacket{
		Action:  action,
		Payload: payload,
	}.Marshal()

	for _, client := range s.registry.RoomMembers(roomId) {
		if lo.Contains(exclude, client.ID) {
			continue
		}
		if err := client.Write(packet); err != nil {
			log.Warn().Err(err).
				Str("connection", client.ID).
				Uint("room", roomId).
				Str("action", action).
				Msg("An error occurred when delivering event to client...")
		}
	}
}

func (s *SignalRelay) SendToConnection(connId string, action string, payload any) error {
	client, ok := s.registry.GetClient(connId)
	if !ok {
		return ErrNotFound
	}

	return client.Write(models.ClientPacket{
		Action:  action,
		Payload: payload,
	}.Marshal())
}
