package http

import (
	"encoding/json"
	"fmt"

	"github.com/lanechat/lanechat-server/internal/auth"
	"github.com/lanechat/lanechat-server/internal/core"
	"github.com/lanechat/lanechat-server/internal/proto"
)

// inboundToCommand maps a wire envelope to a hub command. A malformed
// or unrecognized envelope returns an error and is dropped by the
// caller; nothing is surfaced to the sender.
func inboundToCommand(client *core.Client, inbound proto.Inbound, tokens *auth.TokenService) (*core.Command, error) {
	switch inbound.Type {
	case proto.InboundTypeAuth:
		var data proto.AuthData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return nil, fmt.Errorf("auth data: %w", err)
		}
		hint := data.ID
		if data.Token != "" && tokens != nil {
			claims, err := tokens.Parse(data.Token)
			if err != nil {
				return nil, fmt.Errorf("resume token: %w", err)
			}
			hint = claims.ClientID
		}
		return &core.Command{
			Kind:         core.CommandAuth,
			Client:       client,
			Name:         data.Name,
			IdentityHint: hint,
		}, nil

	case proto.InboundTypeUser:
		if inbound.Action != proto.ActionUpdate {
			return nil, fmt.Errorf("unknown user action %q", inbound.Action)
		}
		var name string
		if err := json.Unmarshal(inbound.Data, &name); err != nil {
			return nil, fmt.Errorf("user data: %w", err)
		}
		return &core.Command{Kind: core.CommandRename, Client: client, Name: name}, nil

	case proto.InboundTypeMessage:
		var data proto.MessageData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return nil, fmt.Errorf("message data: %w", err)
		}
		return &core.Command{Kind: core.CommandSendMessage, Client: client, Content: data.Content}, nil

	case proto.InboundTypeChannels:
		return channelsToCommand(client, inbound)

	default:
		return nil, fmt.Errorf("unknown message type %q", inbound.Type)
	}
}

func channelsToCommand(client *core.Client, inbound proto.Inbound) (*core.Command, error) {
	switch inbound.Action {
	case proto.ActionAdd:
		var name string
		if err := json.Unmarshal(inbound.Data, &name); err != nil {
			return nil, fmt.Errorf("add channel data: %w", err)
		}
		return &core.Command{Kind: core.CommandAddChannel, Client: client, Name: name}, nil

	case proto.ActionGet:
		return &core.Command{Kind: core.CommandListChannels, Client: client}, nil

	case proto.ActionJoin:
		id, err := channelRef(inbound.Data)
		if err != nil {
			return nil, fmt.Errorf("join data: %w", err)
		}
		return &core.Command{
			Kind:      core.CommandJoinChannel,
			Client:    client,
			ChannelID: id,
			Password:  inbound.Password,
		}, nil

	case proto.ActionDelete:
		id, err := channelRef(inbound.Data)
		if err != nil {
			return nil, fmt.Errorf("delete data: %w", err)
		}
		return &core.Command{Kind: core.CommandDeleteChannel, Client: client, ChannelID: id}, nil

	case proto.ActionUpdate:
		var data proto.UpdateChannelData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return nil, fmt.Errorf("update channel data: %w", err)
		}
		return &core.Command{
			Kind:      core.CommandUpdateChannel,
			Client:    client,
			ChannelID: data.ID,
			Name:      data.Name,
			Password:  data.Password,
		}, nil

	default:
		return nil, fmt.Errorf("unknown channels action %q", inbound.Action)
	}
}

// channelRef accepts the channel id either as a bare JSON string or
// wrapped in a {channel} object.
func channelRef(data json.RawMessage) (string, error) {
	var id string
	if err := json.Unmarshal(data, &id); err == nil {
		return id, nil
	}
	var wrapped proto.JoinData
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return "", err
	}
	return wrapped.Channel, nil
}

func outboundFromEvent(event *core.Event) proto.Outbound {
	switch event.Kind {
	case core.EventAuth:
		return proto.Outbound{
			Type: proto.OutboundTypeAuth,
			Data: proto.AuthAck{ID: event.ClientID, Token: event.Token},
		}

	case core.EventSetChannel:
		var data any
		if event.ChannelID != "" {
			data = event.ChannelID
		}
		return proto.Outbound{Type: proto.OutboundTypeSetChannel, Data: data}

	case core.EventChannelList:
		channels := make([]proto.ChannelSummary, 0, len(event.Channels))
		for _, ch := range event.Channels {
			channels = append(channels, proto.ChannelSummary{
				ID:       ch.ID,
				Name:     ch.Name,
				Vitality: ch.Vitality,
				OwnerID:  ch.OwnerID,
			})
		}
		return proto.Outbound{Type: proto.OutboundTypeChannels, Data: channels}

	case core.EventChannelData:
		messages := make([]proto.ChannelMessage, 0, len(event.Messages))
		for _, msg := range event.Messages {
			messages = append(messages, channelMessage(msg))
		}
		members := make([]proto.UserRef, 0, len(event.Members))
		for _, m := range event.Members {
			members = append(members, proto.UserRef{ID: m.ID, Name: m.Name})
		}
		return proto.Outbound{
			Type: proto.OutboundTypeChannelData,
			Data: proto.ChannelData{
				Messages: messages,
				Members:  members,
				Vitality: event.Vitality,
			},
		}

	case core.EventChannelMessage:
		return proto.Outbound{
			Type: proto.OutboundTypeChannelMessage,
			Data: channelMessage(*event.Message),
		}

	case core.EventLifeUpdate:
		return proto.Outbound{
			Type: proto.OutboundTypeLifeUpdate,
			Data: proto.LifeUpdate{ID: event.ChannelID, Vitality: event.Vitality},
		}

	case core.EventPasswordPrompt:
		prompt := proto.PasswordPrompt{Channel: event.ChannelID}
		if event.Error != nil {
			prompt.Error = event.Error.Code
		}
		return proto.Outbound{Type: proto.OutboundTypePasswordPrompt, Data: prompt}

	case core.EventChannelSaved:
		return proto.Outbound{
			Type: proto.OutboundTypeChannelSaved,
			Data: proto.ChannelSaved{ID: event.ChannelID},
		}

	case core.EventRenamed:
		return proto.Outbound{Type: proto.OutboundTypeUser, Data: event.Name}

	case core.EventPing:
		return proto.Outbound{Type: proto.OutboundTypePing, Data: event.Timestamp.Format("15:04:05")}

	default:
		// Unmapped event kinds are dropped by the write loop.
		return proto.Outbound{}
	}
}

func channelMessage(msg core.MessageView) proto.ChannelMessage {
	return proto.ChannelMessage{
		ID:   msg.ID,
		User: proto.UserRef{ID: msg.Author.ID, Name: msg.Author.Name},
		Message: proto.MessageBody{
			Content:   msg.Content,
			Timestamp: msg.Timestamp.UnixMilli(),
		},
	}
}
