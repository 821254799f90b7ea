package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Type identifies a domain event
type Type string

const (
	TypeSimulationCreated     Type = "simulation.created"
	TypeProposalStatusChanged Type = "proposal.status_changed"
)

// Products as they appear in events and admin views
const (
	ProductRealEstate = "real_estate"
	ProductVehicle    = "vehicle"
	ProductFGTS       = "fgts"
)

// Event is broadcast to admin clients and other listeners
type Event struct {
	Type         Type      `json:"type"`
	Product      string    `json:"product"`
	SimulationID uuid.UUID `json:"simulation_id"`
	ClientName   string    `json:"client_name,omitempty"`
	Amount       float64   `json:"amount,omitempty"`
	FromStatus   string    `json:"from_status,omitempty"`
	ToStatus     string    `json:"to_status,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// Publisher receives domain events. Implementations must not block the caller for long.
type Publisher interface {
	Publish(ctx context.Context, event Event)
}

// PublisherFunc adapts a function to Publisher
type PublisherFunc func(ctx context.Context, event Event)

func (f PublisherFunc) Publish(ctx context.Context, event Event) {
	f(ctx, event)
}

// Multi fans an event out to every publisher in order
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, event Event) {
	for _, p := range m {
		if p != nil {
			p.Publish(ctx, event)
		}
	}
}

// Nop discards events
type Nop struct{}

func (Nop) Publish(context.Context, Event) {}

// SimulationCreated builds a creation event
func SimulationCreated(product string, id uuid.UUID, clientName string, amount float64) Event {
	return Event{
		Type:         TypeSimulationCreated,
		Product:      product,
		SimulationID: id,
		ClientName:   clientName,
		Amount:       amount,
		OccurredAt:   time.Now().UTC(),
	}
}

// ProposalStatusChanged builds a proposal status event
func ProposalStatusChanged(id uuid.UUID, clientName, from, to string) Event {
	return Event{
		Type:         TypeProposalStatusChanged,
		Product:      ProductRealEstate,
		SimulationID: id,
		ClientName:   clientName,
		FromStatus:   from,
		ToStatus:     to,
		OccurredAt:   time.Now().UTC(),
	}
}
