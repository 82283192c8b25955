package saga

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/procureflow/procureflow/internal/domain"
)

const routerSource = "approval-router"

// Router reacts to OrderCreated and queues the order for approval.
type Router struct {
	orders      OrderStore
	events      EventPublisher
	creatorRole string
	audience    []string
	logger      *slog.Logger
	now         func() time.Time
}

func NewRouter(orders OrderStore, events EventPublisher, creatorRole string, audience []string, logger *slog.Logger) *Router {
	return &Router{
		orders:      orders,
		events:      events,
		creatorRole: creatorRole,
		audience:    audience,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// RouteForApproval moves CREATED -> PENDING_APPROVAL and emits
// OrderPendingApproval carrying the approver audience.
func (s *Router) RouteForApproval(ctx context.Context, orderID string) error {
	if orderID == "" {
		return &domain.ValidationError{Field: "order_id", Reason: "required"}
	}

	now := s.now()
	err := s.orders.Apply(ctx, orderID, domain.Transition{
		From: domain.OrderStatusCreated,
		To:   domain.OrderStatusPendingApproval,
		At:   now,
	})
	if err != nil {
		return fmt.Errorf("route order %s for approval: %w", orderID, err)
	}

	publish(ctx, s.events, s.logger, domain.EventOrderPendingApproval, routerSource, orderID, now, domain.OrderPendingApproval{
		OrderID:       orderID,
		CreatorRole:   s.creatorRole,
		AudienceRoles: s.audience,
	})

	s.logger.Info("order routed for approval", "order_id", orderID, "audience", s.audience)
	return nil
}

// HandleEvent is the consumer entrypoint. Duplicate deliveries surface as
// state conflicts and are dropped; anything else is returned so the
// transport redelivers.
func (s *Router) HandleEvent(ctx context.Context, payload []byte) error {
	env, err := domain.ParseEnvelope(payload)
	if err != nil {
		s.logger.Error("dropping malformed event", "error", err)
		return nil
	}
	if env.Type != domain.EventOrderCreated {
		return nil
	}

	var created domain.OrderCreated
	if err := env.DecodePayload(&created); err != nil {
		s.logger.Error("dropping undecodable event", "error", err, "type", env.Type)
		return nil
	}

	err = s.RouteForApproval(ctx, created.OrderID)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrStateConflict):
		s.logger.Info("order already routed, skipping", "order_id", created.OrderID)
		return nil
	case errors.Is(err, domain.ErrNotFound):
		// The order row is not visible yet; let the transport retry.
		return err
	default:
		return err
	}
}
