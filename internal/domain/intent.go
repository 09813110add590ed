package domain

import "time"

type Intent int

const (
	IntentGeneral Intent = iota
	IntentReservationRequest
	IntentEscalation
)

func (i Intent) String() string {
	switch i {
	case IntentReservationRequest:
		return "reservation_request"
	case IntentEscalation:
		return "escalation"
	default:
		return "general"
	}
}

// ExtractedEntities holds the booking details found in free text. Nil means not found.
type ExtractedEntities struct {
	PartySize *int
	Time      *string
	Date      *time.Time
}
