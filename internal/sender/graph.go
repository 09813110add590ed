// Package sender delivers text replies through the Meta Graph API.
package sender

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aniladanir/retry"
	"github.com/google/uuid"

	"github.com/aniladanir/reservation-intake-service/internal/domain"
	"github.com/aniladanir/reservation-intake-service/internal/metrics"
)

const (
	DefaultBaseURL = "https://graph.facebook.com"
	DefaultVersion = "v21.0"

	maxErrorBody = 4 << 10
)

type Config struct {
	BaseURL  string
	Version  string
	Timeout  time.Duration
	MaxRetry int
}

// Client holds what every platform sender shares: the HTTP client and the retrier.
type Client struct {
	apiURL     string
	httpClient *http.Client
	retrier    *retry.Retrier
	logger     *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	retrierOpts := make([]retry.Option, 0)
	if cfg.MaxRetry > 0 {
		retrierOpts = append(retrierOpts, retry.WithMaxAttemps(cfg.MaxRetry))
	}
	retrier, err := retry.New(retrierOpts...)
	if err != nil {
		return nil, fmt.Errorf("encountered error when initializing retrier: %w", err)
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Version == "" {
		cfg.Version = DefaultVersion
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}

	return &Client{
		apiURL:     strings.TrimRight(cfg.BaseURL, "/") + "/" + cfg.Version,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		retrier:    retrier,
		logger:     logger,
	}, nil
}

// Sender delivers messages for one platform.
type Sender struct {
	client   *Client
	platform domain.Platform
	url      string
	token    string
	payload  func(recipient, text string) any
}

// Instagram sends through the Instagram messaging API with a page access token.
func (c *Client) Instagram(pageToken string) *Sender {
	return c.pageSender(domain.PlatformInstagram, pageToken)
}

// Messenger sends through the Messenger send API with a page access token.
func (c *Client) Messenger(pageToken string) *Sender {
	return c.pageSender(domain.PlatformMessenger, pageToken)
}

func (c *Client) pageSender(platform domain.Platform, token string) *Sender {
	return &Sender{
		client:   c,
		platform: platform,
		url:      c.apiURL + "/me/messages",
		token:    token,
		payload: func(recipient, text string) any {
			return pageMessage{
				Recipient: pageRecipient{ID: recipient},
				Message:   pageText{Text: text},
			}
		},
	}
}

// WhatsApp sends from the given business phone number id.
func (c *Client) WhatsApp(phoneNumberID, token string) *Sender {
	return &Sender{
		client:   c,
		platform: domain.PlatformWhatsApp,
		url:      c.apiURL + "/" + phoneNumberID + "/messages",
		token:    token,
		payload: func(recipient, text string) any {
			return whatsAppMessage{
				MessagingProduct: "whatsapp",
				To:               recipient,
				Type:             "text",
				Text:             whatsAppText{Body: text},
			}
		},
	}
}

// Send posts text to recipient. Server errors and transport failures are
// retried; a 4XX answer is final.
func (s *Sender) Send(ctx context.Context, recipient, text string) error {
	body, err := json.Marshal(s.payload(recipient, text))
	if err != nil {
		return err
	}

	sendLogger := s.client.logger.With(slog.String("platform", string(s.platform)))

	var (
		delivered bool
		sendErr   error
	)
	retryFunc := func(attempt int) (terminate bool) {
		retryLogger := sendLogger.With(slog.Int("attempt", attempt))

		requestID := uuid.NewString()
		resp, err := s.doRequest(ctx, body, requestID)
		if err != nil {
			retryLogger.Error("failed to send request", "error", err.Error())
			sendErr = err
			return false
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode < http.StatusMultipleChoices:
			delivered = true
			retryLogger.Debug("message is successfuly sent", "requestId", requestID)
			return true
		case resp.StatusCode >= http.StatusInternalServerError:
			// 5XX status code indicates server error, try retry
			sendErr = statusError(resp)
			retryLogger.Error("response indicates error", "requestId", requestID, "statusCode", resp.StatusCode)
			return false
		default:
			// 4XX indicates client error, no need to retry
			sendErr = statusError(resp)
			retryLogger.Error("response indicates error", "requestId", requestID, "statusCode", resp.StatusCode)
			return true
		}
	}

	<-s.client.retrier.Retry(ctx, retryFunc, true)

	if delivered {
		metrics.OutboundSends.WithLabelValues(string(s.platform), "success").Inc()
		return nil
	}
	metrics.OutboundSends.WithLabelValues(string(s.platform), "failed").Inc()
	if sendErr == nil {
		sendErr = errors.New("message was not delivered")
	}
	return fmt.Errorf("send %s message: %w", s.platform, sendErr)
}

func (s *Sender) doRequest(ctx context.Context, body []byte, requestID string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("X-Request-ID", requestID)

	return s.client.httpClient.Do(req)
}

func statusError(resp *http.Response) error {
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return fmt.Errorf("graph api responded %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
}

type pageMessage struct {
	Recipient pageRecipient `json:"recipient"`
	Message   pageText      `json:"message"`
}

type pageRecipient struct {
	ID string `json:"id"`
}

type pageText struct {
	Text string `json:"text"`
}

type whatsAppMessage struct {
	MessagingProduct string       `json:"messaging_product"`
	To               string       `json:"to"`
	Type             string       `json:"type"`
	Text             whatsAppText `json:"text"`
}

type whatsAppText struct {
	Body string `json:"body"`
}
