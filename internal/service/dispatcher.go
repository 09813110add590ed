package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aniladanir/reservation-intake-service/internal/classifier"
	"github.com/aniladanir/reservation-intake-service/internal/domain"
	"github.com/aniladanir/reservation-intake-service/internal/extractor"
	"github.com/aniladanir/reservation-intake-service/internal/knowledge"
	"github.com/aniladanir/reservation-intake-service/internal/metrics"
	messageRepo "github.com/aniladanir/reservation-intake-service/internal/repository/message"
)

// Sender delivers one text message to a recipient on a single platform.
type Sender interface {
	Send(ctx context.Context, recipient, text string) error
}

// Replies holds the static texts sent for escalations and reservation requests.
type Replies struct {
	AgentRequested      string
	ReservationReceived string
}

// Outcome describes what Dispatch did with a message.
type Outcome struct {
	Intent        domain.Intent
	Reply         string
	ReservationID *int
	Duplicate     bool
}

// Dispatcher routes a normalized inbound message to its handling path and
// sends at most one reply back to the customer.
type Dispatcher interface {
	Dispatch(ctx context.Context, msg domain.InboundMessage) (Outcome, error)
	// Conversation returns the latest history of one customer, newest first.
	Conversation(ctx context.Context, platform domain.Platform, customerID string, limit int) ([]domain.HistoryEntry, error)
}

type DispatcherConfig struct {
	History    messageRepo.Repository
	Workflow   ReservationWorkflow
	Classifier classifier.Classifier
	Extractor  extractor.Extractor
	Knowledge  knowledge.Lookup
	Replies    Replies
	Senders    map[domain.Platform]Sender
	// OperatorNumber is the WhatsApp number that receives escalation notices.
	OperatorNumber string
	Now            func() time.Time
}

type dispatcher struct {
	DispatcherConfig
	logger *slog.Logger
}

func NewDispatcher(cfg DispatcherConfig, logger *slog.Logger) (Dispatcher, error) {
	if cfg.History == nil || cfg.Workflow == nil {
		return nil, errors.New("dispatcher requires a history repository and a reservation workflow")
	}
	if cfg.Classifier == nil {
		cfg.Classifier = classifier.NewKeyword()
	}
	if cfg.Extractor == nil {
		cfg.Extractor = extractor.NewHeuristic(nil)
	}
	if cfg.Knowledge == nil {
		cfg.Knowledge = knowledge.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Senders == nil {
		cfg.Senders = map[domain.Platform]Sender{}
	}

	return &dispatcher{
		DispatcherConfig: cfg,
		logger:           logger,
	}, nil
}

func (d *dispatcher) Dispatch(ctx context.Context, msg domain.InboundMessage) (Outcome, error) {
	start := time.Now()
	defer func() {
		metrics.DispatchDuration.WithLabelValues(string(msg.Platform)).Observe(time.Since(start).Seconds())
	}()

	msgLogger := d.logger.With(
		slog.String("platform", string(msg.Platform)),
		slog.String("customerId", msg.CustomerID),
	)

	marked := false
	if msg.PlatformMessageID != nil {
		fresh, err := d.History.MarkSeen(ctx, msg.Platform, *msg.PlatformMessageID)
		if err != nil {
			msgLogger.Warn("duplicate check failed, processing anyway", "error", err.Error())
		} else if !fresh {
			msgLogger.Info("duplicate message ignored", "platformMessageId", *msg.PlatformMessageID)
			return Outcome{Duplicate: true}, nil
		}
		marked = err == nil
	}

	out, err := d.route(ctx, msg, msgLogger)
	if err != nil {
		// a failed message must stay eligible for redelivery
		if marked {
			if ferr := d.History.Forget(ctx, msg.Platform, *msg.PlatformMessageID); ferr != nil {
				msgLogger.Error("failed to clear duplicate mark", "error", ferr.Error())
			}
		}
		return out, err
	}

	d.reply(ctx, msg, out.Reply, msgLogger)

	return out, nil
}

func (d *dispatcher) Conversation(ctx context.Context, platform domain.Platform, customerID string, limit int) ([]domain.HistoryEntry, error) {
	return d.History.ListByCustomer(ctx, platform, customerID, limit)
}

// route stores the inbound message and decides the reply.
func (d *dispatcher) route(ctx context.Context, msg domain.InboundMessage, msgLogger *slog.Logger) (Outcome, error) {
	if err := d.History.Save(ctx, domain.NewInboundEntry(msg)); err != nil {
		return Outcome{}, fmt.Errorf("save inbound message: %w", err)
	}

	out := Outcome{Intent: d.Classifier.Classify(msg.Text)}
	metrics.MessagesDispatched.WithLabelValues(string(msg.Platform), out.Intent.String()).Inc()
	msgLogger.Debug("message classified", "intent", out.Intent.String())

	switch out.Intent {
	case domain.IntentEscalation:
		d.notifyOperator(ctx, msg, msgLogger)
		out.Reply = d.Replies.AgentRequested

	case domain.IntentReservationRequest:
		entities := d.Extractor.Extract(msg.Text)
		res, err := d.Workflow.CreateReservation(ctx, msg, entities)
		if err != nil {
			return out, err
		}
		out.ReservationID = &res.ID
		out.Reply = d.Replies.ReservationReceived

	default:
		out.Reply = d.Knowledge.Answer(msg.Text)
	}

	return out, nil
}

// reply sends text back on the message's own platform and records it in
// history. Delivery problems never fail the dispatch.
func (d *dispatcher) reply(ctx context.Context, msg domain.InboundMessage, text string, logger *slog.Logger) {
	if text == "" {
		return
	}

	sender, ok := d.Senders[msg.Platform]
	if !ok {
		logger.Warn("no sender configured for platform, reply dropped")
		return
	}

	if err := sender.Send(ctx, msg.CustomerID, text); err != nil {
		logger.Error("failed to deliver reply", "error", err.Error())
		return
	}

	if err := d.History.Save(ctx, domain.NewOutboundEntry(msg.Platform, msg.CustomerID, text, d.Now().UTC())); err != nil {
		logger.Error("failed to record outbound message", "error", err.Error())
	}
}

func (d *dispatcher) notifyOperator(ctx context.Context, msg domain.InboundMessage, logger *slog.Logger) {
	if d.OperatorNumber == "" {
		logger.Warn("escalation requested but no operator number is configured")
		return
	}
	sender, ok := d.Senders[domain.PlatformWhatsApp]
	if !ok {
		logger.Warn("escalation requested but no whatsapp sender is configured")
		return
	}

	notice := EscalationNotice(msg)
	if err := sender.Send(ctx, d.OperatorNumber, notice); err != nil {
		logger.Error("failed to notify operator", "error", err.Error())
		return
	}
	logger.Info("operator notified of escalation")
}

// EscalationNotice is the text sent to the operator when a customer asks for a person.
func EscalationNotice(msg domain.InboundMessage) string {
	return fmt.Sprintf("ATTENTION: customer %s on %s asked to talk to an agent.\n\nLast message: %q",
		msg.DisplayName(msg.CustomerID), msg.Platform, msg.Text)
}
