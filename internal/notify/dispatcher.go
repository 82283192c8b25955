// Package notify fans saga events out to the interested parties: approvers,
// supplier, warehouse, logistics and destination branches. Everything here
// is best effort; a lost notification never affects the saga, which is why
// HandleEvent always reports success to the consumer.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/procureflow/procureflow/internal/domain"
)

// Recognized notification roles.
const (
	RoleApprovers = "PURCHASE_APPROVERS"
	RoleSupplier  = "SUPPLIER"
	RoleWarehouse = "WAREHOUSE"
	RoleLogistics = "LOGISTICS"
	RoleBranches  = "BRANCHES"
)

// OrderReader supplies order details for messages that include line items.
type OrderReader interface {
	Get(ctx context.Context, orderID string) (*domain.Order, error)
}

// Routing enumerates the recognized roles and where their notifications go.
// It is injected at construction; there is no ambient role lookup.
type Routing struct {
	RoleWebhooks map[string]string
	APIBaseURL   string
	AppName      string
}

type Dispatcher struct {
	orders  OrderReader
	routing Routing
	client  *http.Client
	logger  *slog.Logger
}

func NewDispatcher(orders OrderReader, routing Routing, client *http.Client, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		orders:  orders,
		routing: routing,
		client:  client,
		logger:  logger,
	}
}

// Notification is the message posted to a role's webhook.
type Notification struct {
	Role    string `json:"role"`
	Branch  string `json:"branch,omitempty"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// HandleEvent consumes one raw event. Unknown event types are skipped, and
// failures are logged but never returned: redelivering an event because a
// webhook was down would not make the notification less lost.
func (d *Dispatcher) HandleEvent(ctx context.Context, payload []byte) error {
	env, err := domain.ParseEnvelope(payload)
	if err != nil {
		d.logger.Error("dropping malformed event", "error", err)
		return nil
	}

	switch env.Type {
	case domain.EventOrderPendingApproval:
		var ev domain.OrderPendingApproval
		if err := env.DecodePayload(&ev); err != nil {
			d.logger.Error("dropping undecodable event", "error", err, "type", env.Type)
			return nil
		}
		d.notifyPendingApproval(ctx, ev)
	case domain.EventOrderApproved:
		var ev domain.OrderApproved
		if err := env.DecodePayload(&ev); err != nil {
			d.logger.Error("dropping undecodable event", "error", err, "type", env.Type)
			return nil
		}
		d.notifyApproved(ctx, ev)
	case domain.EventReceptionConfirmed:
		var ev domain.ReceptionConfirmed
		if err := env.DecodePayload(&ev); err != nil {
			d.logger.Error("dropping undecodable event", "error", err, "type", env.Type)
			return nil
		}
		d.notifyReceived(ctx, ev)
	case domain.EventDispatchConfirmed:
		var ev domain.DispatchConfirmed
		if err := env.DecodePayload(&ev); err != nil {
			d.logger.Error("dropping undecodable event", "error", err, "type", env.Type)
			return nil
		}
		d.notifyDispatched(ctx, ev)
	}

	return nil
}

func (d *Dispatcher) notifyPendingApproval(ctx context.Context, ev domain.OrderPendingApproval) {
	approveURL := fmt.Sprintf("%s/orders/%s/approve", d.routing.APIBaseURL, ev.OrderID)
	rejectURL := fmt.Sprintf("%s/orders/%s/reject", d.routing.APIBaseURL, ev.OrderID)

	msg := fmt.Sprintf(
		"Purchase order %s was created by %s and requires approval.\n\nApprove: %s\nReject: %s\n",
		ev.OrderID, ev.CreatorRole, approveURL, rejectURL,
	)

	roles := ev.AudienceRoles
	if len(roles) == 0 {
		roles = []string{RoleApprovers}
	}
	for _, role := range roles {
		d.send(ctx, Notification{
			Role:    role,
			Subject: fmt.Sprintf("PO %s pending approval", ev.OrderID),
			Message: msg,
		})
	}
}

func (d *Dispatcher) notifyApproved(ctx context.Context, ev domain.OrderApproved) {
	order, err := d.orders.Get(ctx, ev.OrderID)
	if err != nil {
		d.logger.Error("failed to load order for notification", "error", err, "order_id", ev.OrderID)
		return
	}

	detail := fmt.Sprintf(
		"Purchase order APPROVED\nPO: %s\nApproved at: %s\n\nProducts:\n%s",
		order.ID, ev.ApprovedAt.Format("2006-01-02T15:04:05Z07:00"), formatItems(order.Items),
	)

	d.send(ctx, Notification{
		Role:    RoleSupplier,
		Subject: fmt.Sprintf("PO %s approved", order.ID),
		Message: detail,
	})

	acceptURL := fmt.Sprintf("%s/receptions/%s/accept", d.routing.APIBaseURL, order.ID)
	d.send(ctx, Notification{
		Role:    RoleWarehouse,
		Subject: fmt.Sprintf("PO %s approved, confirm reception on arrival", order.ID),
		Message: detail + "\n\nWhen the goods arrive, confirm reception:\n" + acceptURL,
	})
}

func (d *Dispatcher) notifyReceived(ctx context.Context, ev domain.ReceptionConfirmed) {
	confirmURL := fmt.Sprintf("%s/dispatches/%s/confirm", d.routing.APIBaseURL, ev.OrderID)

	d.send(ctx, Notification{
		Role:    RoleLogistics,
		Subject: fmt.Sprintf("[%s] stock available for PO %s", d.routing.AppName, ev.OrderID),
		Message: fmt.Sprintf(
			"Reception confirmed at warehouse.\n\nPO: %s\nReceived at: %s\n\nConfirm the dispatch here:\n%s\n",
			ev.OrderID, ev.ReceivedAt.Format("2006-01-02T15:04:05Z07:00"), confirmURL,
		),
	})
}

func (d *Dispatcher) notifyDispatched(ctx context.Context, ev domain.DispatchConfirmed) {
	for _, branch := range ev.Branches {
		d.send(ctx, Notification{
			Role:    RoleBranches,
			Branch:  branch,
			Subject: fmt.Sprintf("[%s] %s: dispatch confirmed for PO %s", d.routing.AppName, branch, ev.OrderID),
			Message: fmt.Sprintf(
				"Hello %s,\n\nDispatch was confirmed for purchase order %s.\nDispatched at: %s\n\nThis is an automated notice.",
				branch, ev.OrderID, ev.DispatchedAt.Format("2006-01-02T15:04:05Z07:00"),
			),
		})
	}
}

func (d *Dispatcher) send(ctx context.Context, n Notification) {
	url, ok := d.routing.RoleWebhooks[n.Role]
	if !ok || url == "" {
		d.logger.Error("no webhook configured for role", "role", n.Role)
		return
	}

	data, err := json.Marshal(n)
	if err != nil {
		d.logger.Error("failed to marshal notification", "error", err, "role", n.Role)
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		d.logger.Error("failed to create notification request", "error", err, "role", n.Role)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		d.logger.Error("failed to deliver notification", "error", err, "role", n.Role)
		return
	}
	_ = resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		d.logger.Error("notification endpoint returned error", "status", resp.StatusCode, "role", n.Role)
		return
	}

	d.logger.Info("notification delivered", "role", n.Role, "subject", n.Subject)
}

func formatItems(items []domain.OrderItem) string {
	if len(items) == 0 {
		return " (no items)"
	}
	lines := make([]string, 0, len(items))
	for _, it := range items {
		line := fmt.Sprintf(" - SKU: %s  Qty: %d", it.SKU, it.Qty)
		if it.Description != "" {
			line += "  " + it.Description
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
