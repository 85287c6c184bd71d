// Package event holds the subscribers attached to the domain event bus.
package event

import (
	"context"

	"github.com/bidhouse/backend/internal/domain/auction"
	"github.com/bidhouse/backend/internal/domain/identity"
	"github.com/bidhouse/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// NotificationHandler turns marketplace events into user notifications.
// Notifications are written to the log; there is no delivery channel.
type NotificationHandler struct {
	logger *zap.Logger
}

func NewNotificationHandler(logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{logger: logger.Named("notification")}
}

func (h *NotificationHandler) EventTypes() []string {
	return []string{
		identity.EventTypeUserRegistered,
		identity.EventTypeUserStatusChanged,
		auction.EventTypeBidPlaced,
		auction.EventTypeOutbid,
		auction.EventTypeAuctionClosed,
		auction.EventTypeProductCancelled,
	}
}

func (h *NotificationHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *identity.UserRegisteredEvent:
		h.logger.Info("Notify: welcome",
			zap.String("user_id", e.AggregateID().String()),
			zap.String("role", string(e.Role)))
	case *identity.UserStatusChangedEvent:
		h.logger.Info("Notify: account status changed",
			zap.String("user_id", e.AggregateID().String()),
			zap.String("status", string(e.NewStatus)),
			zap.String("reason", e.Reason))
	case *auction.BidPlacedEvent:
		h.logger.Info("Notify seller: new bid",
			zap.String("seller_id", e.SellerID.String()),
			zap.String("product_id", e.AggregateID().String()),
			zap.String("amount", e.Amount.StringFixed(auction.MoneyScale)),
			zap.Int("bid_count", e.BidCount))
	case *auction.OutbidEvent:
		h.logger.Info("Notify bidder: outbid",
			zap.String("bidder_id", e.PreviousBidderID.String()),
			zap.String("product_id", e.AggregateID().String()),
			zap.String("previous_amount", e.PreviousAmount.StringFixed(auction.MoneyScale)),
			zap.String("new_amount", e.NewAmount.StringFixed(auction.MoneyScale)))
	case *auction.AuctionClosedEvent:
		fields := []zap.Field{
			zap.String("seller_id", e.SellerID.String()),
			zap.String("product_id", e.AggregateID().String()),
			zap.String("status", string(e.Status)),
		}
		if e.WinnerID != nil {
			fields = append(fields,
				zap.String("winner_id", e.WinnerID.String()),
				zap.String("final_price", e.FinalPrice.StringFixed(auction.MoneyScale)))
		}
		h.logger.Info("Notify: auction closed", fields...)
	case *auction.ProductCancelledEvent:
		h.logger.Info("Notify seller: listing cancelled",
			zap.String("seller_id", e.SellerID.String()),
			zap.String("product_id", e.AggregateID().String()),
			zap.String("reason", e.Reason))
	default:
		h.logger.Debug("Unhandled event", zap.String("event_type", event.EventType()))
	}
	return nil
}

var _ shared.EventHandler = (*NotificationHandler)(nil)
