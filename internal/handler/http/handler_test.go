package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aniladanir/reservation-intake-service/internal/domain"
	"github.com/aniladanir/reservation-intake-service/internal/repository/memory"
	"github.com/aniladanir/reservation-intake-service/internal/service"
	"github.com/aniladanir/reservation-intake-service/internal/signature"
)

const (
	testSecret = "app-secret"
	testToken  = "verify-me"
)

const whatsappPayload = `{
  "object": "whatsapp_business_account",
  "entry": [{
    "changes": [{
      "value": {
        "contacts": [{"wa_id": "5491100000000", "profile": {"name": "Ana"}}],
        "messages": [{
          "from": "5491100000000",
          "id": "wamid.abc",
          "timestamp": "1767225600",
          "type": "text",
          "text": {"body": "Quiero una reserva para 4 a las 21:00"}
        }]
      }
    }]
  }]
}`

type testServer struct {
	handler  *Handler
	workflow service.ReservationWorkflow
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newTestServerWith(t, Config{AppSecret: testSecret, VerifyToken: testToken})
}

func newTestServerWith(t *testing.T, cfg Config) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memory.NewStore(time.Hour)
	// every reading of the clock moves it forward so orderings are deterministic
	tick := time.Date(2026, time.January, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time {
		tick = tick.Add(time.Second)
		return tick
	}
	wf := service.NewReservationWorkflow(store.Reservations(), store.Notifications(), logger, clock)
	d, err := service.NewDispatcher(service.DispatcherConfig{
		History:  store.Messages(),
		Workflow: wf,
		Replies:  service.Replies{AgentRequested: "agent", ReservationReceived: "received"},
	}, logger)
	require.NoError(t, err)

	h := NewHttpHandler(":0", cfg, d, wf, logger)
	return &testServer{handler: h, workflow: wf}
}

func (s *testServer) do(method, target string, body []byte, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func signed(body []byte) map[string]string {
	return map[string]string{
		signature.HeaderName: signature.Header(body, testSecret),
		"Content-Type":       "application/json",
	}
}

func TestVerifyWebhook(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/webhooks/whatsapp?hub.mode=subscribe&hub.verify_token="+testToken+"&hub.challenge=12345", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "12345", rec.Body.String())

	rec = s.do(http.MethodGet, "/webhooks/whatsapp?hub.mode=subscribe&hub.verify_token=wrong&hub.challenge=12345", nil, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(http.MethodGet, "/webhooks/whatsapp?hub.mode=unsubscribe&hub.verify_token="+testToken+"&hub.challenge=1", nil, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(http.MethodGet, "/webhooks/telegram?hub.mode=subscribe&hub.verify_token="+testToken, nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReceiveWebhook_CreatesReservation(t *testing.T) {
	s := newTestServer(t)
	body := []byte(whatsappPayload)

	rec := s.do(http.MethodPost, "/webhooks/whatsapp", body, signed(body))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	pending, err := s.workflow.ListPending(t.Context())
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "5491100000000", pending[0].CustomerID)
	require.NotNil(t, pending[0].CustomerName)
	assert.Equal(t, "Ana", *pending[0].CustomerName)

	// redelivery of the same message id is ignored
	rec = s.do(http.MethodPost, "/webhooks/whatsapp", body, signed(body))
	require.Equal(t, http.StatusOK, rec.Code)
	pending, err = s.workflow.ListPending(t.Context())
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestReceiveWebhook_Rejections(t *testing.T) {
	s := newTestServer(t)
	body := []byte(whatsappPayload)

	tests := []struct {
		name   string
		target string
		body   []byte
		header map[string]string
		want   int
	}{
		{
			name:   "missing signature",
			target: "/webhooks/whatsapp",
			body:   body,
			want:   http.StatusForbidden,
		},
		{
			name:   "signature over another body",
			target: "/webhooks/whatsapp",
			body:   body,
			header: signed([]byte(`{}`)),
			want:   http.StatusForbidden,
		},
		{
			name:   "unknown platform",
			target: "/webhooks/telegram",
			body:   body,
			header: signed(body),
			want:   http.StatusNotFound,
		},
		{
			name:   "not json",
			target: "/webhooks/messenger",
			body:   []byte("not json"),
			header: signed([]byte("not json")),
			want:   http.StatusBadRequest,
		},
		{
			name:   "too large",
			target: "/webhooks/instagram",
			body:   bytes.Repeat([]byte("a"), MaxRequestBodySize+1),
			want:   http.StatusRequestEntityTooLarge,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(http.MethodPost, tt.target, tt.body, tt.header)
			assert.Equal(t, tt.want, rec.Code)
		})
	}

	all, err := s.workflow.ListAll(t.Context())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestReceiveWebhook_EmptyEventsAccepted(t *testing.T) {
	s := newTestServer(t)
	body := []byte(`{"object":"instagram","entry":[{"messaging":[{"sender":{"id":"1"},"read":{"mid":"x"}}]}]}`)

	rec := s.do(http.MethodPost, "/webhooks/instagram", body, signed(body))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReservationEndpoints(t *testing.T) {
	s := newTestServer(t)
	body := []byte(whatsappPayload)
	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/webhooks/whatsapp", body, signed(body)).Code)

	rec := s.do(http.MethodGet, "/reservations?status=pending", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var pending []domain.Reservation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pending))
	require.Len(t, pending, 1)
	id := pending[0].ID

	rec = s.do(http.MethodPost, reservationPath(id, "confirm"), nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var confirmed domain.Reservation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &confirmed))
	assert.Equal(t, domain.StatusConfirmed, confirmed.Status)

	assert.Equal(t, http.StatusOK, s.do(http.MethodPost, reservationPath(id, "confirm"), nil, nil).Code)
	assert.Equal(t, http.StatusConflict, s.do(http.MethodPost, reservationPath(id, "reject"), nil, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodPost, "/reservations/404/confirm", nil, nil).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, "/reservations/abc/confirm", nil, nil).Code)

	rec = s.do(http.MethodGet, "/reservations?status=pending", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = s.do(http.MethodGet, "/reservations?status=confirmed", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"confirmed"`)

	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/reservations?status=maybe", nil, nil).Code)
}

func TestNotificationEndpoints(t *testing.T) {
	s := newTestServer(t)
	body := []byte(whatsappPayload)
	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/webhooks/whatsapp", body, signed(body)).Code)

	rec := s.do(http.MethodGet, "/notifications", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp notificationsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.EqualValues(t, 1, resp.UnreadCount)
	assert.Equal(t, "New reservation from Ana via whatsapp", resp.Notifications[0].Message)

	rec = s.do(http.MethodPost, "/notifications/"+strconv.Itoa(resp.Notifications[0].ID)+"/read", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodPost, "/notifications/99/read", nil, nil).Code)

	rec = s.do(http.MethodPost, "/notifications/read", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"marked":0}`, rec.Body.String())

	rec = s.do(http.MethodGet, "/notifications", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"unread_count":0,"notifications":[]}`, rec.Body.String())
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))

	rec = s.do(http.MethodGet, "/metrics", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "go_goroutines"))
}

func reservationPath(id int, action string) string {
	return "/reservations/" + strconv.Itoa(id) + "/" + action
}

func TestReceiveWebhook_EmptySecretRejectsEverything(t *testing.T) {
	s := newTestServerWith(t, Config{AppSecret: "", VerifyToken: testToken})
	body := []byte(whatsappPayload)

	header := map[string]string{signature.HeaderName: signature.Header(body, "")}
	rec := s.do(http.MethodPost, "/webhooks/whatsapp", body, header)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	all, err := s.workflow.ListAll(t.Context())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestReceiveWebhook_UnexpectedShapesAccepted(t *testing.T) {
	s := newTestServer(t)

	payloads := map[string]string{
		"entry object":      `{"object":"page","entry":{}}`,
		"messaging string":  `{"entry":[{"messaging":"x"}]}`,
		"numeric timestamp": `{"entry":[{"changes":[{"value":{"messages":[{"from":"77","id":"w9","timestamp":1767225600,"text":{"body":"reserva para 2"}}]}}]}]}`,
	}

	for name, raw := range payloads {
		t.Run(name, func(t *testing.T) {
			body := []byte(raw)
			rec := s.do(http.MethodPost, "/webhooks/whatsapp", body, signed(body))
			assert.Equal(t, http.StatusOK, rec.Code)
		})
	}

	// the well-formed event in the numeric timestamp payload was still handled
	pending, err := s.workflow.ListPending(t.Context())
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "77", pending[0].CustomerID)
}

func TestListRejectedReservations(t *testing.T) {
	s := newTestServer(t)

	for _, customer := range []string{"1", "2"} {
		body := []byte(`{"entry":[{"changes":[{"value":{"messages":[{"from":"` + customer + `","id":"w` + customer + `","text":{"body":"reserva"}}]}}]}]}`)
		require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/webhooks/whatsapp", body, signed(body)).Code)
	}

	// reject the newer one first so decision order differs from creation order
	require.Equal(t, http.StatusOK, s.do(http.MethodPost, reservationPath(2, "reject"), nil, nil).Code)
	require.Equal(t, http.StatusOK, s.do(http.MethodPost, reservationPath(1, "reject"), nil, nil).Code)

	rec := s.do(http.MethodGet, "/reservations?status=rejected", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var rejected []domain.Reservation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rejected))
	require.Len(t, rejected, 2)
	assert.Equal(t, 1, rejected[0].ID)
}

func TestConversationEndpoint(t *testing.T) {
	s := newTestServer(t)
	body := []byte(whatsappPayload)
	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/webhooks/whatsapp", body, signed(body)).Code)

	rec := s.do(http.MethodGet, "/conversations/whatsapp/5491100000000", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var history []domain.HistoryEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
	require.Len(t, history, 1, "no sender is configured, so only the inbound message is recorded")
	assert.True(t, history[0].FromCustomer)
	assert.Equal(t, "Quiero una reserva para 4 a las 21:00", history[0].Text)

	rec = s.do(http.MethodGet, "/conversations/whatsapp/unknown", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/conversations/whatsapp/5491100000000?limit=x", nil, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/conversations/telegram/1", nil, nil).Code)
}
