package api

import (
	"github.com/gofiber/contrib/websocket"
	jsoniter "github.com/json-iterator/go"
	"github.com/riffhouse/riffhouse/pkg/internal/models"
	"github.com/riffhouse/riffhouse/pkg/internal/services"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"github.com/spf13/viper"
)

// wsGateway is the per-connection event loop. Each connection gets its own
// goroutine from fiber, so commands from one participant are handled in
// order while the room state stays behind the coordinator's locks.
func wsGateway(c *websocket.Conn) {
	client := services.NewClient(c)
	authenticated := false

	var packet models.ClientPacket
	for {
		_, raw, err := c.ReadMessage()
		if err != nil {
			break
		}
		if err := jsoniter.Unmarshal(raw, &packet); err != nil {
			_ = client.Write(models.ClientPacket{
				Action:  models.EventError,
				Message: "unable to unmarshal your command, requires json request",
			}.Marshal())
			continue
		}

		if packet.Action == models.ActionAuthenticate {
			identity, err := authenticateClient(packet.Payload)
			if err != nil {
				_ = client.Write(models.ClientPacketFromError(err).Marshal())
				break
			}
			client.Identity = identity
			authenticated = true
			_ = client.Write(models.ClientPacket{
				Action: models.EventAuthenticated,
				Payload: map[string]any{
					"success":  true,
					"identity": identity,
				},
			}.Marshal())
			continue
		}

		if !authenticated {
			_ = client.Write(models.ClientPacketFromError(services.ErrUnauthenticated).Marshal())
			continue
		}

		if reply := dealCommand(client, packet); reply != nil {
			if err := client.Write(reply.Marshal()); err != nil {
				break
			}
		}
	}

	// Disconnect cleanup; a no-op when the client already left.
	if err := deps.Coordinator.LeaveSession(client); err != nil {
		log.Warn().Err(err).Str("connection", client.ID).Msg("An error occurred when cleaning up disconnected client...")
	}
}

func authenticateClient(payload any) (models.Identity, error) {
	var req struct {
		Token string `json:"token"`
		Name  string `json:"name"`
	}
	models.FitStruct(payload, &req)

	if len(req.Token) == 0 {
		if !viper.GetBool("security.allow_guests") {
			return models.Identity{}, services.ErrUnauthenticated
		}
		return models.Identity{Name: req.Name}, nil
	}

	account, err := services.Authenticate(req.Token)
	if err != nil {
		return models.Identity{}, err
	}
	return models.Identity{
		AccountID: &account.ID,
		Name:      account.Nick,
	}, nil
}

func dealCommand(client *services.Client, packet models.ClientPacket) *models.ClientPacket {
	switch packet.Action {
	case models.ActionJoinSession:
		var req struct {
			SessionID uint `json:"session_id"`
		}
		models.FitStruct(packet.Payload, &req)

		if snapshot, err := deps.Coordinator.JoinSession(client, req.SessionID); err != nil {
			return lo.ToPtr(models.ClientPacketFromError(err))
		} else {
			return &models.ClientPacket{
				Action:  models.EventSessionJoined,
				Payload: snapshot,
			}
		}
	case models.ActionLeaveSession:
		if err := deps.Coordinator.LeaveSession(client); err != nil {
			return lo.ToPtr(models.ClientPacketFromError(err))
		}
		return nil
	case models.ActionStartRecording:
		var req struct {
			SessionID uint `json:"session_id"`
		}
		models.FitStruct(packet.Payload, &req)

		account, err := requireAccount(client)
		if err != nil {
			return lo.ToPtr(models.ClientPacketFromError(err))
		}
		if _, err := deps.Coordinator.StartRecording(req.SessionID, account); err != nil {
			return lo.ToPtr(models.ClientPacketFromError(err))
		}
		return nil
	case models.ActionStopRecording:
		var req struct {
			SessionID uint `json:"session_id"`
		}
		models.FitStruct(packet.Payload, &req)

		account, err := requireAccount(client)
		if err != nil {
			return lo.ToPtr(models.ClientPacketFromError(err))
		}
		if _, err := deps.Coordinator.StopRecording(req.SessionID, account); err != nil {
			return lo.ToPtr(models.ClientPacketFromError(err))
		}
		return nil
	case models.ActionChatMessage:
		var req struct {
			SessionID uint   `json:"session_id"`
			Text      string `json:"text"`
		}
		models.FitStruct(packet.Payload, &req)

		if _, err := deps.Coordinator.SendChat(client, req.SessionID, req.Text); err != nil {
			return lo.ToPtr(models.ClientPacketFromError(err))
		}
		return nil
	case models.ActionToggleAudio, models.ActionToggleVideo:
		var req struct {
			SessionID uint `json:"session_id"`
			State     bool `json:"state"`
		}
		models.FitStruct(packet.Payload, &req)

		event := models.EventAudioToggle
		if packet.Action == models.ActionToggleVideo {
			event = models.EventVideoToggle
		}
		if err := deps.Coordinator.ToggleMedia(client, req.SessionID, event, req.State); err != nil {
			return lo.ToPtr(models.ClientPacketFromError(err))
		}
		return nil
	case models.ActionTyping:
		var req struct {
			SessionID uint `json:"session_id"`
		}
		models.FitStruct(packet.Payload, &req)

		if err := deps.Coordinator.SetTypingStatus(client, req.SessionID); err != nil {
			return lo.ToPtr(models.ClientPacketFromError(err))
		}
		return nil
	case models.ActionOffer, models.ActionAnswer, models.ActionIceCandidate:
		var req struct {
			TargetConnectionID string `json:"target_connection_id"`
			Payload            any    `json:"payload"`
		}
		models.FitStruct(packet.Payload, &req)

		// Negotiation payloads pass through untouched; only the sender's
		// connection id is attached so the peer can answer.
		err := deps.Relay.SendToConnection(req.TargetConnectionID, packet.Action, map[string]any{
			"from_connection_id": client.ID,
			"payload":            req.Payload,
		})
		if err != nil {
			return lo.ToPtr(models.ClientPacketFromError(err))
		}
		return nil
	default:
		return &models.ClientPacket{
			Action:  models.EventError,
			Message: "command not found",
		}
	}
}

func requireAccount(client *services.Client) (models.Account, error) {
	if client.Identity.AccountID == nil {
		return models.Account{}, services.ErrUnauthorized
	}
	return models.Account{
		ID:   *client.Identity.AccountID,
		Name: client.Identity.Name,
	}, nil
}
