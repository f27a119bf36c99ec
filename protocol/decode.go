package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"messenger/models"
)

// ErrUnknownType is returned for tags outside the inbound event set.
var ErrUnknownType = errors.New("unknown event type")

// Decode parses and validates one inbound frame. The tag must belong to
// the closed client->server set and required fields must be present;
// nothing reaches a handler otherwise.
func Decode(raw []byte) (EventType, interface{}, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return "", nil, fmt.Errorf("invalid frame: %w", err)
	}

	switch env.Type {
	case TypeTyping, TypeStopTyping:
		var ev TypingEvent
		if err := json.Unmarshal(env.Data, &ev); err != nil {
			return env.Type, nil, err
		}
		if ev.To == 0 {
			return env.Type, nil, errors.New("missing target")
		}
		return env.Type, ev, nil

	case TypeSendDirect:
		var ev SendDirectEvent
		if err := json.Unmarshal(env.Data, &ev); err != nil {
			return env.Type, nil, err
		}
		if ev.To == 0 {
			return env.Type, nil, errors.New("missing target")
		}
		if ev.Content == "" {
			return env.Type, nil, errors.New("empty content")
		}
		if ev.Kind == "" {
			ev.Kind = models.KindText
		}
		switch ev.Kind {
		case models.KindText, models.KindVoice, models.KindImage:
		default:
			return env.Type, nil, fmt.Errorf("invalid kind %q", ev.Kind)
		}
		return env.Type, ev, nil

	case TypeSendGroup:
		var ev SendGroupEvent
		if err := json.Unmarshal(env.Data, &ev); err != nil {
			return env.Type, nil, err
		}
		if ev.GroupID == 0 {
			return env.Type, nil, errors.New("missing group")
		}
		if ev.Content == "" {
			return env.Type, nil, errors.New("empty content")
		}
		if ev.Kind == "" {
			ev.Kind = models.KindText
		}
		switch ev.Kind {
		case models.KindText, models.KindVoice, models.KindImage:
		default:
			return env.Type, nil, fmt.Errorf("invalid kind %q", ev.Kind)
		}
		return env.Type, ev, nil

	case TypeMarkRead:
		var ev MarkReadEvent
		if err := json.Unmarshal(env.Data, &ev); err != nil {
			return env.Type, nil, err
		}
		if ev.ConversationWith == 0 {
			return env.Type, nil, errors.New("missing conversation")
		}
		return env.Type, ev, nil

	case TypeReact:
		var ev ReactEvent
		if err := json.Unmarshal(env.Data, &ev); err != nil {
			return env.Type, nil, err
		}
		if ev.MessageID == "" || ev.Emoji == "" {
			return env.Type, nil, errors.New("missing message id or emoji")
		}
		return env.Type, ev, nil

	case TypeUnsend:
		var ev UnsendEvent
		if err := json.Unmarshal(env.Data, &ev); err != nil {
			return env.Type, nil, err
		}
		if ev.MessageID == "" {
			return env.Type, nil, errors.New("missing message id")
		}
		return env.Type, ev, nil

	case TypeJoinGroup, TypeLeaveGroup:
		var ev GroupRoomEvent
		if err := json.Unmarshal(env.Data, &ev); err != nil {
			return env.Type, nil, err
		}
		if ev.GroupID == 0 {
			return env.Type, nil, errors.New("missing group")
		}
		return env.Type, ev, nil

	case TypeGlobalInput:
		var ev GlobalMessageEvent
		if err := json.Unmarshal(env.Data, &ev); err != nil {
			return env.Type, nil, err
		}
		if ev.Text == "" {
			return env.Type, nil, errors.New("empty content")
		}
		return env.Type, ev, nil
	}

	return env.Type, nil, fmt.Errorf("%w: %q", ErrUnknownType, env.Type)
}
