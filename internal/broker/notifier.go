package broker

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/UDDITwork/shipsarthi-sub007/internal/broker/messages"
)

type Producer interface {
	Publish(ctx context.Context, topic string, key, value []byte) error
}

// StatusNotifier publishes committed status transitions for fan-out.
// Keyed by waybill so per-shipment ordering survives partitioning.
type StatusNotifier struct {
	p     Producer
	topic string
}

func NewStatusNotifier(p Producer, topic string) *StatusNotifier {
	if topic == "" {
		topic = "shipment.status-changed"
	}
	return &StatusNotifier{p: p, topic: topic}
}

func (n *StatusNotifier) NotifyStatusChanged(ctx context.Context, m messages.StatusChanged) error {
	b, err := json.Marshal(m)
	if err != nil {
		return errors.Wrap(err, "marshal status-changed")
	}
	return n.p.Publish(ctx, n.topic, []byte(m.Waybill), b)
}
