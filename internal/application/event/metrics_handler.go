package event

import (
	"context"

	"github.com/bidhouse/backend/internal/domain/auction"
	"github.com/bidhouse/backend/internal/domain/identity"
	"github.com/bidhouse/backend/internal/domain/shared"
)

// MarketRecorder receives marketplace counters
type MarketRecorder interface {
	BidPlaced(amount float64)
	Outbid()
	AuctionClosed(status string)
	UserRegistered(role string)
}

// MetricsHandler feeds domain events into a MarketRecorder
type MetricsHandler struct {
	recorder MarketRecorder
}

func NewMetricsHandler(recorder MarketRecorder) *MetricsHandler {
	return &MetricsHandler{recorder: recorder}
}

func (h *MetricsHandler) EventTypes() []string {
	return []string{
		identity.EventTypeUserRegistered,
		auction.EventTypeBidPlaced,
		auction.EventTypeOutbid,
		auction.EventTypeAuctionClosed,
	}
}

func (h *MetricsHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *identity.UserRegisteredEvent:
		h.recorder.UserRegistered(string(e.Role))
	case *auction.BidPlacedEvent:
		h.recorder.BidPlaced(e.Amount.InexactFloat64())
	case *auction.OutbidEvent:
		h.recorder.Outbid()
	case *auction.AuctionClosedEvent:
		h.recorder.AuctionClosed(string(e.Status))
	}
	return nil
}

var _ shared.EventHandler = (*MetricsHandler)(nil)
