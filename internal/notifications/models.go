package notifications

import (
	"time"

	"github.com/google/uuid"
)

// Channels
const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"
)

// Delivery statuses
const (
	StatusSent    = "sent"
	StatusFailed  = "failed"
	StatusSkipped = "skipped"
)

// WebSocket message types
const (
	WSMessageTypeEvent  = "event"
	WSMessageTypeStatus = "status"
	WSMessageTypePing   = "ping"
)

// WebSocketMessage is the envelope sent to live feed clients
type WebSocketMessage struct {
	Type      string                 `json:"type"`
	Data      map[string]interface{} `json:"data"`
	Timestamp time.Time              `json:"timestamp"`
	Channel   string                 `json:"channel,omitempty"`
}

// ProposalNotice tells a client that their signed proposal is ready
type ProposalNotice struct {
	SimulationID   uuid.UUID
	ClientName     string
	Email          string
	Phone          string
	MonthlyPayment float64
	LoanTermYears  int
	DownloadURL    string
}

// ChannelDeliveryStatus is the outcome of one channel
type ChannelDeliveryStatus struct {
	Channel    string `json:"channel"`
	Status     string `json:"status"`
	ProviderID string `json:"provider_id,omitempty"`
	Error      string `json:"error,omitempty"`
}

// DeliveryReport collects the outcome of every channel for a notice
type DeliveryReport struct {
	SimulationID uuid.UUID               `json:"simulation_id"`
	Channels     []ChannelDeliveryStatus `json:"channels"`
}

// Delivered reports whether at least one channel succeeded
func (r DeliveryReport) Delivered() bool {
	for _, ch := range r.Channels {
		if ch.Status == StatusSent {
			return true
		}
	}
	return false
}
