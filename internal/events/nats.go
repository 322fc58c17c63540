package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/akylbek/payment-system/advisor-checkout/internal/telemetry"
)

// NatsPublisher publishes fire-and-forget notifications on one subject. The
// key travels as the Nats-Msg-Id header so JetStream consumers can dedupe.
type NatsPublisher struct {
	nc      *nats.Conn
	subject string
}

func NewNatsPublisher(url, subject string) (*NatsPublisher, error) {
	nc, err := nats.Connect(url,
		nats.Name(telemetry.ServiceName),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			telemetry.Logger.Warn("NATS disconnected", zap.Error(err))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	return &NatsPublisher{nc: nc, subject: subject}, nil
}

func (p *NatsPublisher) Publish(_ context.Context, key string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	msg := nats.NewMsg(p.subject)
	msg.Header.Set(nats.MsgIdHdr, key)
	msg.Data = data
	if err := p.nc.PublishMsg(msg); err != nil {
		return fmt.Errorf("publish to nats: %w", err)
	}
	return nil
}

func (p *NatsPublisher) Close() error {
	return p.nc.Drain()
}
