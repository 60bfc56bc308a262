package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/STTM-NSU/pricefeed/internal/model"
	"github.com/bytedance/sonic"
)

type MessageType string

const (
	InitialState MessageType = "INITIAL_STATE"
	Update       MessageType = "UPDATE"
	Notification MessageType = "NOTIFICATION"
)

var (
	UnknownMessageTypeError = errors.New("unknown message type")
	EmptyPayloadError       = errors.New("empty message payload")
	UnknownAlertTypeError   = errors.New("unknown alert type")
)

var api = sonic.ConfigStd

type envelope struct {
	Type MessageType     `json:"type"`
	Data json.RawMessage `json:"data"`
}

type outgoing struct {
	Type MessageType `json:"type"`
	Data any         `json:"data"`
}

// Message is a decoded push-channel message. Quotes is set for INITIAL_STATE
// and UPDATE, Alert for NOTIFICATION.
type Message struct {
	Type   MessageType
	Quotes model.Batch
	Alert  model.Alert
}

func EncodeInitialState(b model.Batch) ([]byte, error) {
	return encodeQuotes(InitialState, b)
}

func EncodeUpdate(b model.Batch) ([]byte, error) {
	return encodeQuotes(Update, b)
}

func encodeQuotes(t MessageType, b model.Batch) ([]byte, error) {
	if b == nil {
		b = model.Batch{}
	}
	payload, err := api.Marshal(outgoing{Type: t, Data: b})
	if err != nil {
		return nil, fmt.Errorf("%w: can't encode %s", err, t)
	}
	return payload, nil
}

func EncodeNotification(a model.Alert) ([]byte, error) {
	payload, err := api.Marshal(outgoing{Type: Notification, Data: a})
	if err != nil {
		return nil, fmt.Errorf("%w: can't encode %s", err, Notification)
	}
	return payload, nil
}

func Decode(raw []byte) (Message, error) {
	var env envelope
	if err := api.Unmarshal(raw, &env); err != nil {
		return Message{}, fmt.Errorf("%w: can't decode envelope", err)
	}

	data := bytes.TrimSpace(env.Data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		if env.Type != InitialState && env.Type != Update && env.Type != Notification {
			return Message{}, fmt.Errorf("%w: %q", UnknownMessageTypeError, env.Type)
		}
		return Message{}, fmt.Errorf("%w: %s", EmptyPayloadError, env.Type)
	}

	msg := Message{Type: env.Type}
	switch env.Type {
	case InitialState, Update:
		if err := api.Unmarshal(data, &msg.Quotes); err != nil {
			return Message{}, fmt.Errorf("%w: can't decode quotes", err)
		}
		if msg.Quotes == nil {
			msg.Quotes = model.Batch{}
		}
	case Notification:
		if err := api.Unmarshal(data, &msg.Alert); err != nil {
			return Message{}, fmt.Errorf("%w: can't decode alert", err)
		}
		if !msg.Alert.Type.Valid() {
			return Message{}, fmt.Errorf("%w: %q", UnknownAlertTypeError, msg.Alert.Type)
		}
	default:
		return Message{}, fmt.Errorf("%w: %q", UnknownMessageTypeError, env.Type)
	}

	return msg, nil
}
