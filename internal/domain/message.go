package domain

import (
	"time"
)

// InboundMessage is a customer message normalized from any platform webhook.
type InboundMessage struct {
	Platform          Platform
	CustomerID        string
	CustomerName      *string
	Text              string
	PlatformMessageID *string
	ReceivedAt        time.Time
}

// DisplayName returns the customer name if the platform supplied one, otherwise fallback.
func (m InboundMessage) DisplayName(fallback string) string {
	if m.CustomerName != nil && *m.CustomerName != "" {
		return *m.CustomerName
	}
	return fallback
}

// HistoryEntry is a persisted inbound or outbound message.
type HistoryEntry struct {
	ID                int       `gorm:"primaryKey" json:"id"`
	Platform          Platform  `gorm:"type:varchar(20);not null;index" json:"platform"`
	CustomerID        string    `gorm:"type:varchar(255);not null;index" json:"customer_id"`
	Text              string    `gorm:"type:text;not null" json:"text"`
	FromCustomer      bool      `gorm:"not null" json:"from_customer"`
	PlatformMessageID *string   `gorm:"type:varchar(255)" json:"platform_message_id,omitempty"`
	CreatedAt         time.Time `gorm:"index" json:"created_at"`
}

func (HistoryEntry) TableName() string {
	return "messages_history"
}

// NewInboundEntry builds the history record for a message received from a customer.
func NewInboundEntry(m InboundMessage) *HistoryEntry {
	return &HistoryEntry{
		Platform:          m.Platform,
		CustomerID:        m.CustomerID,
		Text:              m.Text,
		FromCustomer:      true,
		PlatformMessageID: m.PlatformMessageID,
		CreatedAt:         m.ReceivedAt,
	}
}

// NewOutboundEntry builds the history record for a reply sent to a customer.
func NewOutboundEntry(platform Platform, customerID, text string, sentAt time.Time) *HistoryEntry {
	return &HistoryEntry{
		Platform:   platform,
		CustomerID: customerID,
		Text:       text,
		CreatedAt:  sentAt,
	}
}
