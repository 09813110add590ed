package normalizer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aniladanir/reservation-intake-service/internal/domain"
)

var receivedAt = time.Date(2026, time.May, 2, 12, 0, 0, 0, time.UTC)

func TestNormalize_Instagram(t *testing.T) {
	raw := []byte(`{
		"object": "instagram",
		"entry": [{
			"id": "page-1",
			"time": 1777723200000,
			"messaging": [
				{"sender": {"id": "ig-42"}, "recipient": {"id": "page-1"}, "timestamp": 1777723200000,
				 "message": {"mid": "m_1", "text": "hola, mesa para 2"}},
				{"sender": {"id": "ig-42"}, "recipient": {"id": "page-1"}, "timestamp": 1777723201000,
				 "message": {"mid": "m_2", "attachments": [{"type": "image"}]}},
				{"sender": {"id": "ig-42"}, "recipient": {"id": "page-1"}, "reaction": {"emoji": "x"}}
			]
		}]
	}`)

	msgs, err := Normalize(domain.PlatformInstagram, raw, receivedAt)
	require.NoError(t, err)
	require.Len(t, msgs, 1)

	m := msgs[0]
	assert.Equal(t, domain.PlatformInstagram, m.Platform)
	assert.Equal(t, "ig-42", m.CustomerID)
	assert.Nil(t, m.CustomerName)
	assert.Equal(t, "hola, mesa para 2", m.Text)
	require.NotNil(t, m.PlatformMessageID)
	assert.Equal(t, "m_1", *m.PlatformMessageID)
	assert.Equal(t, time.UnixMilli(1777723200000).UTC(), m.ReceivedAt)
}

func TestNormalize_MessengerBatchAndEcho(t *testing.T) {
	raw := []byte(`{
		"object": "page",
		"entry": [
			{"messaging": [{"sender": {"id": "psid-1"}, "message": {"mid": "a", "text": "first"}}]},
			{"messaging": [
				{"sender": {"id": "page"}, "message": {"mid": "b", "text": "our reply", "is_echo": true}},
				{"sender": {"id": "psid-2"}, "message": {"mid": "c", "text": "second"}}
			]}
		]
	}`)

	msgs, err := Normalize(domain.PlatformMessenger, raw, receivedAt)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "psid-1", msgs[0].CustomerID)
	assert.Equal(t, "psid-2", msgs[1].CustomerID)
	// no timestamp in the event: fall back to the receive time
	assert.Equal(t, receivedAt, msgs[0].ReceivedAt)
}

func TestNormalize_WhatsAppWithContactName(t *testing.T) {
	raw := []byte(`{
		"object": "whatsapp_business_account",
		"entry": [{
			"id": "waba-1",
			"changes": [{
				"field": "messages",
				"value": {
					"messaging_product": "whatsapp",
					"contacts": [
						{"wa_id": "5491100000000", "profile": {"name": "Other"}},
						{"wa_id": "5491122223333", "profile": {"name": "Lucía"}}
					],
					"messages": [
						{"from": "5491122223333", "id": "wamid.1", "timestamp": "1777723200", "type": "text",
						 "text": {"body": "quiero reservar"}},
						{"from": "5491122223333", "id": "wamid.2", "timestamp": "1777723201", "type": "sticker"}
					]
				}
			}]
		}]
	}`)

	msgs, err := Normalize(domain.PlatformWhatsApp, raw, receivedAt)
	require.NoError(t, err)
	require.Len(t, msgs, 1)

	m := msgs[0]
	require.NotNil(t, m.CustomerName)
	assert.Equal(t, "Lucía", *m.CustomerName)
	assert.Equal(t, "5491122223333", m.CustomerID)
	assert.Equal(t, "quiero reservar", m.Text)
	assert.Equal(t, "wamid.1", *m.PlatformMessageID)
	assert.Equal(t, time.Unix(1777723200, 0).UTC(), m.ReceivedAt)
}

func TestNormalize_WhatsAppFirstContactFallback(t *testing.T) {
	raw := []byte(`{"entry":[{"changes":[{"value":{
		"contacts":[{"profile":{"name":"Juan"}}],
		"messages":[{"from":"111","id":"w1","text":{"body":"hola"}}]}}]}]}`)

	msgs, err := Normalize(domain.PlatformWhatsApp, raw, receivedAt)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	require.NotNil(t, msgs[0].CustomerName)
	assert.Equal(t, "Juan", *msgs[0].CustomerName)
}

func TestNormalize_EmptyAndNonMessagePayloads(t *testing.T) {
	payloads := map[string]string{
		"empty entry list":   `{"object":"page","entry":[]}`,
		"no entry key":       `{"object":"page"}`,
		"status change only": `{"entry":[{"changes":[{"value":{"statuses":[{"id":"x","status":"read"}]}}]}]}`,
	}

	for name, raw := range payloads {
		for _, p := range domain.Platforms {
			t.Run(name+"/"+string(p), func(t *testing.T) {
				msgs, err := Normalize(p, []byte(raw), receivedAt)
				assert.NoError(t, err)
				assert.Empty(t, msgs)
			})
		}
	}
}

func TestNormalize_UnexpectedShapesYieldNothing(t *testing.T) {
	payloads := map[string]string{
		"entry is an object":     `{"object":"page","entry":{}}`,
		"entry is a string":      `{"entry":"x"}`,
		"messaging is a string":  `{"entry":[{"messaging":"x"}]}`,
		"changes is an object":   `{"entry":[{"changes":{"value":{}}}]}`,
		"messages is a number":   `{"entry":[{"changes":[{"value":{"messages":3}}]}]}`,
		"top level array":        `[1,2,3]`,
		"top level string":       `"hello"`,
		"entry items are arrays": `{"entry":[[1],[2]]}`,
	}

	for name, raw := range payloads {
		for _, p := range domain.Platforms {
			t.Run(name+"/"+string(p), func(t *testing.T) {
				msgs, err := Normalize(p, []byte(raw), receivedAt)
				assert.NoError(t, err)
				assert.Empty(t, msgs)
			})
		}
	}
}

func TestNormalize_MalformedEventKeepsSiblings(t *testing.T) {
	raw := []byte(`{"entry":[{"messaging":[
		{"sender": {"id": "psid-1"}, "message": {"mid": "a", "text": 42}},
		{"sender": "psid-2", "message": {"mid": "b", "text": "broken sender"}},
		{"sender": {"id": "psid-3"}, "timestamp": "1777723200000", "message": {"mid": "c", "text": "hola"}}
	]}]}`)

	msgs, err := Normalize(domain.PlatformMessenger, raw, receivedAt)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "psid-3", msgs[0].CustomerID)
	assert.Equal(t, time.UnixMilli(1777723200000).UTC(), msgs[0].ReceivedAt)
}

func TestNormalize_WhatsAppTimestampShapes(t *testing.T) {
	raw := []byte(`{"entry":[{"changes":[{"value":{
		"contacts": "not a list",
		"messages":[
			{"from":"111","id":"w1","timestamp":1777723200,"text":{"body":"numeric"}},
			{"from":"111","id":"w2","timestamp":"soon","text":{"body":"garbage"}},
			{"from":"111","id":"w3","text":"not an object"},
			{"from":"111","id":"w4","timestamp":null,"text":{"body":"null"}}
		]}}]}]}`)

	msgs, err := Normalize(domain.PlatformWhatsApp, raw, receivedAt)
	require.NoError(t, err)
	require.Len(t, msgs, 3)

	assert.Equal(t, time.Unix(1777723200, 0).UTC(), msgs[0].ReceivedAt)
	assert.Equal(t, receivedAt, msgs[1].ReceivedAt)
	assert.Equal(t, "null", msgs[2].Text)
	assert.Equal(t, receivedAt, msgs[2].ReceivedAt)
	assert.Nil(t, msgs[0].CustomerName)
}

func TestNormalize_InvalidJSON(t *testing.T) {
	for _, raw := range []string{"not json", `{"entry":[`, ""} {
		_, err := Normalize(domain.PlatformMessenger, []byte(raw), receivedAt)
		assert.Error(t, err, raw)
	}
}

func TestNormalize_UnknownPlatform(t *testing.T) {
	_, err := Normalize(domain.Platform("telegram"), []byte(`{}`), receivedAt)
	assert.ErrorIs(t, err, domain.ErrUnknownPlatform)
}
