package transport

import (
	"context"
	"encoding/json"
	"time"

	"sjsage522/dealscout/logger"
	apperrors "sjsage522/dealscout/pkg/errors"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
)

// natsHeaderCarrier adapts nats.Msg headers for OTel TextMapCarrier.
type natsHeaderCarrier nats.Msg

func (c *natsHeaderCarrier) Get(key string) string {
	if c.Header == nil {
		return ""
	}
	return c.Header.Get(key)
}

func (c *natsHeaderCarrier) Set(key, val string) {
	if c.Header == nil {
		c.Header = make(nats.Header)
	}
	c.Header.Set(key, val)
}

func (c *natsHeaderCarrier) Keys() []string {
	if c.Header == nil {
		return nil
	}
	keys := make([]string, 0, len(c.Header))
	for k := range c.Header {
		keys = append(keys, k)
	}
	return keys
}

// Serve answers messages published on subject with router.
// Malformed messages and unknown types are dropped without a reply.
func Serve(nc *nats.Conn, subject string, router *Router) (*nats.Subscription, error) {
	log := logger.ForTransport()
	return nc.Subscribe(subject, func(m *nats.Msg) {
		var msg Message
		if err := json.Unmarshal(m.Data, &msg); err != nil {
			log.Warn().Err(err).Str("subject", m.Subject).Msg("Dropping malformed message")
			return
		}
		ctx := otel.GetTextMapPropagator().Extract(context.Background(), (*natsHeaderCarrier)(m))

		resp, ok := router.Dispatch(ctx, msg)
		if !ok {
			return
		}
		data, err := json.Marshal(resp)
		if err != nil {
			log.Error().Err(err).Str("type", string(msg.Type)).Msg("Failed to encode response")
			return
		}
		if err := m.Respond(data); err != nil {
			log.Warn().Err(err).Str("type", string(msg.Type)).Msg("Failed to respond")
		}
	})
}

// NATSClient sends messages to a Serve subscription
type NATSClient struct {
	nc      *nats.Conn
	subject string
	timeout time.Duration
}

// NewNATSClient creates a client; timeout bounds each request
func NewNATSClient(nc *nats.Conn, subject string, timeout time.Duration) *NATSClient {
	if timeout <= 0 {
		timeout = nats.DefaultTimeout
	}
	return &NATSClient{nc: nc, subject: subject, timeout: timeout}
}

func (c *NATSClient) Request(ctx context.Context, msg Message) (Response, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, err
	}
	out := &nats.Msg{
		Subject: c.subject,
		Data:    data,
	}
	otel.GetTextMapPropagator().Inject(ctx, (*natsHeaderCarrier)(out))

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	reply, err := c.nc.RequestMsgWithContext(ctx, out)
	if err != nil {
		return nil, apperrors.NewTransport(c.subject, "request "+string(msg.Type)+" failed", err)
	}

	var resp Response
	if err := json.Unmarshal(reply.Data, &resp); err != nil {
		return nil, apperrors.NewTransport(c.subject, "malformed response", err)
	}
	return resp, nil
}
