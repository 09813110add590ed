// Package classifier decides what a customer message is asking for.
package classifier

import (
	"strings"

	"github.com/aniladanir/reservation-intake-service/internal/domain"
)

type Classifier interface {
	Classify(text string) domain.Intent
}

var (
	DefaultEscalationKeywords = []string{
		"agente", "agent", "hablar con alguien", "talk to someone",
		"ayuda", "help", "persona", "person",
	}
	DefaultReservationKeywords = []string{
		"reserva", "reservation", "mesa", "table",
		"turno", "slot", "cita", "appointment",
	}
)

// Keyword classifies by substring search over the lower-cased text.
// Escalation keywords always win over reservation keywords.
type Keyword struct {
	escalation  []string
	reservation []string
}

func NewKeyword() *Keyword {
	return NewKeywordWith(DefaultEscalationKeywords, DefaultReservationKeywords)
}

func NewKeywordWith(escalation, reservation []string) *Keyword {
	return &Keyword{
		escalation:  lowerAll(escalation),
		reservation: lowerAll(reservation),
	}
}

func (k *Keyword) Classify(text string) domain.Intent {
	msg := strings.ToLower(text)
	switch {
	case containsAny(msg, k.escalation):
		return domain.IntentEscalation
	case containsAny(msg, k.reservation):
		return domain.IntentReservationRequest
	default:
		return domain.IntentGeneral
	}
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}
