package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/procureflow/procureflow/internal/domain"
)

type webhookCapture struct {
	mu       sync.Mutex
	received []Notification
}

func (c *webhookCapture) handler(w http.ResponseWriter, r *http.Request) {
	var n Notification
	if err := json.NewDecoder(r.Body).Decode(&n); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	c.mu.Lock()
	c.received = append(c.received, n)
	c.mu.Unlock()
	w.WriteHeader(http.StatusOK)
}

func (c *webhookCapture) all() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Notification, len(c.received))
	copy(out, c.received)
	return out
}

type fakeOrderReader struct {
	orders map[string]*domain.Order
}

func (f *fakeOrderReader) Get(_ context.Context, orderID string) (*domain.Order, error) {
	order, ok := f.orders[orderID]
	if !ok {
		return nil, fmt.Errorf("order %s: %w", orderID, domain.ErrNotFound)
	}
	return order, nil
}

func newTestDispatcher(t *testing.T, orders *fakeOrderReader) (*Dispatcher, *webhookCapture) {
	t.Helper()

	capture := &webhookCapture{}
	server := httptest.NewServer(http.HandlerFunc(capture.handler))
	t.Cleanup(server.Close)

	routing := Routing{
		RoleWebhooks: map[string]string{
			RoleApprovers: server.URL,
			RoleSupplier:  server.URL,
			RoleWarehouse: server.URL,
			RoleLogistics: server.URL,
			RoleBranches:  server.URL,
		},
		APIBaseURL: "http://gateway:8080",
		AppName:    "procureflow",
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewDispatcher(orders, routing, server.Client(), logger), capture
}

func marshalEnvelope(t *testing.T, et domain.EventType, payload any) []byte {
	t.Helper()
	env, err := domain.NewEnvelope(et, "test", time.Now().UTC(), payload)
	require.NoError(t, err)
	data, err := json.Marshal(env)
	require.NoError(t, err)
	return data
}

func TestDispatcher_PendingApproval(t *testing.T) {
	d, capture := newTestDispatcher(t, &fakeOrderReader{})

	payload := marshalEnvelope(t, domain.EventOrderPendingApproval, domain.OrderPendingApproval{
		OrderID:       "OC-0000000001",
		CreatorRole:   "head-office",
		AudienceRoles: []string{RoleApprovers},
	})
	require.NoError(t, d.HandleEvent(context.Background(), payload))

	received := capture.all()
	require.Len(t, received, 1)
	n := received[0]
	assert.Equal(t, RoleApprovers, n.Role)
	assert.Contains(t, n.Subject, "OC-0000000001")
	assert.Contains(t, n.Message, "http://gateway:8080/orders/OC-0000000001/approve")
	assert.Contains(t, n.Message, "http://gateway:8080/orders/OC-0000000001/reject")
}

func TestDispatcher_Approved(t *testing.T) {
	orders := &fakeOrderReader{orders: map[string]*domain.Order{
		"OC-0000000002": {
			ID:     "OC-0000000002",
			Status: domain.OrderStatusApproved,
			Items:  []domain.OrderItem{{SKU: "SKU-001", Qty: 4, Description: "monitors"}},
		},
	}}
	d, capture := newTestDispatcher(t, orders)

	payload := marshalEnvelope(t, domain.EventOrderApproved, domain.OrderApproved{
		OrderID:    "OC-0000000002",
		ApprovedAt: time.Now().UTC(),
	})
	require.NoError(t, d.HandleEvent(context.Background(), payload))

	received := capture.all()
	require.Len(t, received, 2)

	roles := []string{received[0].Role, received[1].Role}
	assert.Contains(t, roles, RoleSupplier)
	assert.Contains(t, roles, RoleWarehouse)

	for _, n := range received {
		assert.Contains(t, n.Message, "SKU-001")
		if n.Role == RoleWarehouse {
			assert.Contains(t, n.Message, "http://gateway:8080/receptions/OC-0000000002/accept")
		}
	}
}

func TestDispatcher_Approved_OrderLoadFailure(t *testing.T) {
	d, capture := newTestDispatcher(t, &fakeOrderReader{})

	payload := marshalEnvelope(t, domain.EventOrderApproved, domain.OrderApproved{
		OrderID: "OC-MISSING001",
	})
	require.NoError(t, d.HandleEvent(context.Background(), payload))
	assert.Empty(t, capture.all())
}

func TestDispatcher_ReceptionConfirmed(t *testing.T) {
	d, capture := newTestDispatcher(t, &fakeOrderReader{})

	payload := marshalEnvelope(t, domain.EventReceptionConfirmed, domain.ReceptionConfirmed{
		OrderID:    "OC-0000000003",
		ReceivedAt: time.Now().UTC(),
	})
	require.NoError(t, d.HandleEvent(context.Background(), payload))

	received := capture.all()
	require.Len(t, received, 1)
	assert.Equal(t, RoleLogistics, received[0].Role)
	assert.Contains(t, received[0].Message, "http://gateway:8080/dispatches/OC-0000000003/confirm")
}

func TestDispatcher_DispatchConfirmed(t *testing.T) {
	d, capture := newTestDispatcher(t, &fakeOrderReader{})

	payload := marshalEnvelope(t, domain.EventDispatchConfirmed, domain.DispatchConfirmed{
		OrderID:      "OC-0000000004",
		ShipmentID:   "OC-0000000004",
		DispatchedAt: time.Now().UTC(),
		Branches:     []string{"S1", "S3", "S5"},
	})
	require.NoError(t, d.HandleEvent(context.Background(), payload))

	received := capture.all()
	require.Len(t, received, 3)
	branches := make([]string, 0, 3)
	for _, n := range received {
		assert.Equal(t, RoleBranches, n.Role)
		branches = append(branches, n.Branch)
	}
	assert.ElementsMatch(t, []string{"S1", "S3", "S5"}, branches)
}

func TestDispatcher_IgnoresOtherEvents(t *testing.T) {
	d, capture := newTestDispatcher(t, &fakeOrderReader{})

	payload := marshalEnvelope(t, domain.EventOrderCreated, domain.OrderCreated{
		OrderID: "OC-0000000005",
	})
	require.NoError(t, d.HandleEvent(context.Background(), payload))
	assert.Empty(t, capture.all())
}

func TestDispatcher_MalformedEvent(t *testing.T) {
	d, capture := newTestDispatcher(t, &fakeOrderReader{})

	require.NoError(t, d.HandleEvent(context.Background(), []byte("not json")))
	assert.Empty(t, capture.all())
}

func TestDispatcher_WebhookDownIsNotFatal(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	d := NewDispatcher(&fakeOrderReader{}, Routing{
		RoleWebhooks: map[string]string{RoleLogistics: "http://localhost:1"},
		APIBaseURL:   "http://gateway:8080",
		AppName:      "procureflow",
	}, &http.Client{Timeout: time.Second}, logger)

	payload := marshalEnvelope(t, domain.EventReceptionConfirmed, domain.ReceptionConfirmed{
		OrderID:    "OC-0000000006",
		ReceivedAt: time.Now().UTC(),
	})
	assert.NoError(t, d.HandleEvent(context.Background(), payload))
}

func TestFormatItems(t *testing.T) {
	assert.Equal(t, " (no items)", formatItems(nil))

	out := formatItems([]domain.OrderItem{
		{SKU: "SKU-001", Qty: 2, Description: "chairs"},
		{SKU: "SKU-002", Qty: 1},
	})
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "SKU-001")
	assert.Contains(t, lines[0], "chairs")
	assert.Contains(t, lines[1], "SKU-002")
}
