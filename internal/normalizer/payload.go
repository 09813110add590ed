package normalizer

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Payloads are decoded one level at a time: the envelope, each entry and each
// event separately, so one event of an unexpected shape only drops itself.

type MessagingEvent struct {
	Sender    Party          `json:"sender"`
	Recipient Party          `json:"recipient"`
	Timestamp Epoch          `json:"timestamp"`
	Message   *MessagingBody `json:"message"`
}

type Party struct {
	ID string `json:"id"`
}

type MessagingBody struct {
	MID    string `json:"mid"`
	Text   string `json:"text"`
	IsEcho bool   `json:"is_echo"`
}

type WhatsAppContact struct {
	WaID    string `json:"wa_id"`
	Profile struct {
		Name string `json:"name"`
	} `json:"profile"`
}

type WhatsAppMessage struct {
	From      string `json:"from"`
	ID        string `json:"id"`
	Timestamp Epoch  `json:"timestamp"`
	Type      string `json:"type"`
	Text      *struct {
		Body string `json:"body"`
	} `json:"text"`
}

// Epoch is a unix timestamp sent either as a JSON number or a numeric string.
// Anything else decodes to zero.
type Epoch int64

func (e *Epoch) UnmarshalJSON(b []byte) error {
	n, err := strconv.ParseInt(string(bytes.Trim(b, `"`)), 10, 64)
	if err != nil {
		n = 0
	}
	*e = Epoch(n)
	return nil
}

// field returns the member key of a JSON object, or nil when raw is not an object.
func field(raw json.RawMessage, key string) json.RawMessage {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil
	}
	return obj[key]
}

// list returns the elements of a JSON array, or nil when raw is not an array.
func list(raw json.RawMessage) []json.RawMessage {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	return items
}
