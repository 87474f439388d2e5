package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// RelayMetrics holds the instruments for the message relay. A nil *RelayMetrics
// is valid and records nothing, so callers never need to guard.
type RelayMetrics struct {
	activeConnections metric.Int64UpDownCounter
	messagesPersisted metric.Int64Counter
	messagesRelayed   metric.Int64Counter
	deliveryMisses    metric.Int64Counter
}

// NewRelayMetrics registers the relay instruments on the global meter provider
func NewRelayMetrics() (*RelayMetrics, error) {
	meter := otel.Meter("university-chat/relay")

	active, err := meter.Int64UpDownCounter("relay_active_connections",
		metric.WithDescription("Number of live websocket connections"))
	if err != nil {
		return nil, err
	}
	persisted, err := meter.Int64Counter("relay_messages_persisted_total",
		metric.WithDescription("Messages stored through the persistence gateway"))
	if err != nil {
		return nil, err
	}
	relayed, err := meter.Int64Counter("relay_messages_delivered_total",
		metric.WithDescription("Messages forwarded to a connected recipient"))
	if err != nil {
		return nil, err
	}
	misses, err := meter.Int64Counter("relay_delivery_misses_total",
		metric.WithDescription("Messages whose recipient was not connected"))
	if err != nil {
		return nil, err
	}

	return &RelayMetrics{
		activeConnections: active,
		messagesPersisted: persisted,
		messagesRelayed:   relayed,
		deliveryMisses:    misses,
	}, nil
}

func (m *RelayMetrics) ConnectionOpened() {
	if m == nil {
		return
	}
	m.activeConnections.Add(context.Background(), 1)
}

func (m *RelayMetrics) ConnectionClosed() {
	if m == nil {
		return
	}
	m.activeConnections.Add(context.Background(), -1)
}

func (m *RelayMetrics) MessagePersisted() {
	if m == nil {
		return
	}
	m.messagesPersisted.Add(context.Background(), 1)
}

// Delivered records the outcome of a forward attempt
func (m *RelayMetrics) Delivered(ok bool) {
	if m == nil {
		return
	}
	if ok {
		m.messagesRelayed.Add(context.Background(), 1)
	} else {
		m.deliveryMisses.Add(context.Background(), 1)
	}
}
