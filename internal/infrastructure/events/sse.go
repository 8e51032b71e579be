package events

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"

	"github.com/credflow/credflow/internal/domain/notification"
)

// SSEDispatcher pushes lifecycle events to connected portal users. Client
// events go to the owning client's connections; staff roles listen on group
// streams.
type SSEDispatcher struct {
	hub    notification.SSEHub
	logger zerolog.Logger
}

func NewSSEDispatcher(hub notification.SSEHub, logger zerolog.Logger) *SSEDispatcher {
	return &SSEDispatcher{
		hub:    hub,
		logger: logger.With().Str("component", "sse_dispatcher").Logger(),
	}
}

func (d *SSEDispatcher) send(event, clientID string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		d.logger.Error().Err(err).Str("event", event).Msg("failed to marshal sse payload")
		return
	}
	msg := notification.NewSSEMessage(event, data)
	if clientID != "" {
		d.hub.BroadcastToUser(clientID, msg)
	}
	d.hub.BroadcastToGroup("staff", msg)
}

func (d *SSEDispatcher) NotifyStatusChanged(_ context.Context, ev notification.StatusChangedEvent) {
	d.send(notification.TopicStatusChanged, ev.ClientID, ev)
}

func (d *SSEDispatcher) NotifyDisbursement(_ context.Context, ev notification.DisbursementEvent) {
	d.send(notification.TopicDisbursed, ev.ClientID, ev)
}

func (d *SSEDispatcher) NotifyCommissionCreated(_ context.Context, ev notification.CommissionEvent) {
	d.send(notification.TopicCommissionCreated, ev.ClientID, ev)
}

func (d *SSEDispatcher) NotifyPayoutApproved(_ context.Context, ev notification.PayoutEvent) {
	d.send(notification.TopicPayoutApproved, ev.ClientID, ev)
}

func (d *SSEDispatcher) NotifyPayoutRejected(_ context.Context, ev notification.PayoutEvent) {
	d.send(notification.TopicPayoutRejected, ev.ClientID, ev)
}

// MultiDispatcher fans an event out to several transports.
type MultiDispatcher []notification.Dispatcher

func (m MultiDispatcher) NotifyStatusChanged(ctx context.Context, ev notification.StatusChangedEvent) {
	for _, d := range m {
		d.NotifyStatusChanged(ctx, ev)
	}
}

func (m MultiDispatcher) NotifyDisbursement(ctx context.Context, ev notification.DisbursementEvent) {
	for _, d := range m {
		d.NotifyDisbursement(ctx, ev)
	}
}

func (m MultiDispatcher) NotifyCommissionCreated(ctx context.Context, ev notification.CommissionEvent) {
	for _, d := range m {
		d.NotifyCommissionCreated(ctx, ev)
	}
}

func (m MultiDispatcher) NotifyPayoutApproved(ctx context.Context, ev notification.PayoutEvent) {
	for _, d := range m {
		d.NotifyPayoutApproved(ctx, ev)
	}
}

func (m MultiDispatcher) NotifyPayoutRejected(ctx context.Context, ev notification.PayoutEvent) {
	for _, d := range m {
		d.NotifyPayoutRejected(ctx, ev)
	}
}
