// Package normalizer turns platform webhook payloads into domain.InboundMessage values.
// It only translates structure; it never decides what a message means.
package normalizer

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aniladanir/reservation-intake-service/internal/domain"
)

var errInvalidJSON = errors.New("body is not valid JSON")

// Normalize decodes raw and returns every text message it carries. Events
// without text or of an unexpected shape are skipped, and payloads without a
// messaging array yield nothing; only a body that is not valid JSON is an error.
func Normalize(platform domain.Platform, raw []byte, receivedAt time.Time) ([]domain.InboundMessage, error) {
	if !json.Valid(raw) {
		return nil, fmt.Errorf("decode %s webhook: %w", platform, errInvalidJSON)
	}

	entries := list(field(raw, "entry"))
	switch platform {
	case domain.PlatformInstagram, domain.PlatformMessenger:
		return fromMessaging(platform, entries, receivedAt), nil
	case domain.PlatformWhatsApp:
		return fromChanges(entries, receivedAt), nil
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownPlatform, platform)
	}
}

func fromMessaging(platform domain.Platform, entries []json.RawMessage, receivedAt time.Time) []domain.InboundMessage {
	var out []domain.InboundMessage
	for _, entry := range entries {
		for _, raw := range list(field(entry, "messaging")) {
			var ev MessagingEvent
			if err := json.Unmarshal(raw, &ev); err != nil {
				continue
			}
			if ev.Message == nil || ev.Message.IsEcho || strings.TrimSpace(ev.Message.Text) == "" || ev.Sender.ID == "" {
				continue
			}
			out = append(out, domain.InboundMessage{
				Platform:          platform,
				CustomerID:        ev.Sender.ID,
				Text:              ev.Message.Text,
				PlatformMessageID: optional(ev.Message.MID),
				ReceivedAt:        millisOr(int64(ev.Timestamp), receivedAt),
			})
		}
	}
	return out
}

func fromChanges(entries []json.RawMessage, receivedAt time.Time) []domain.InboundMessage {
	var out []domain.InboundMessage
	for _, entry := range entries {
		for _, change := range list(field(entry, "changes")) {
			value := field(change, "value")
			contacts := decodeContacts(list(field(value, "contacts")))

			for _, raw := range list(field(value, "messages")) {
				var msg WhatsAppMessage
				if err := json.Unmarshal(raw, &msg); err != nil {
					continue
				}
				if msg.Text == nil || strings.TrimSpace(msg.Text.Body) == "" || msg.From == "" {
					continue
				}
				out = append(out, domain.InboundMessage{
					Platform:          domain.PlatformWhatsApp,
					CustomerID:        msg.From,
					CustomerName:      contactName(contacts, msg.From),
					Text:              msg.Text.Body,
					PlatformMessageID: optional(msg.ID),
					ReceivedAt:        secondsOr(int64(msg.Timestamp), receivedAt),
				})
			}
		}
	}
	return out
}

func decodeContacts(raw []json.RawMessage) []WhatsAppContact {
	contacts := make([]WhatsAppContact, 0, len(raw))
	for _, r := range raw {
		var c WhatsAppContact
		if err := json.Unmarshal(r, &c); err == nil {
			contacts = append(contacts, c)
		}
	}
	return contacts
}

// contactName prefers the contact whose wa_id matches the sender.
func contactName(contacts []WhatsAppContact, from string) *string {
	for _, c := range contacts {
		if c.WaID == from && c.Profile.Name != "" {
			return optional(c.Profile.Name)
		}
	}
	if len(contacts) > 0 {
		return optional(contacts[0].Profile.Name)
	}
	return nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func millisOr(ms int64, fallback time.Time) time.Time {
	if ms <= 0 {
		return fallback
	}
	return time.UnixMilli(ms).UTC()
}

func secondsOr(sec int64, fallback time.Time) time.Time {
	if sec <= 0 {
		return fallback
	}
	return time.Unix(sec, 0).UTC()
}
