package transport

import (
	"context"
	"fmt"

	"sjsage522/dealscout/internal/listing"
	apperrors "sjsage522/dealscout/pkg/errors"
)

// Forwarder hands session results to the storage context as
// PROPERTY_DATA and LIST_DATA messages.
type Forwarder struct {
	requester Requester
}

// NewForwarder creates a forwarder over requester
func NewForwarder(requester Requester) *Forwarder {
	return &Forwarder{requester: requester}
}

// SaveListing forwards one detail record
func (f *Forwarder) SaveListing(ctx context.Context, rec listing.Record) error {
	return f.send(ctx, TypePropertyData, rec)
}

// SaveListings forwards the rows of a list page
func (f *Forwarder) SaveListings(ctx context.Context, rows []listing.Record) error {
	return f.send(ctx, TypeListData, rows)
}

func (f *Forwarder) send(ctx context.Context, t MessageType, data interface{}) error {
	msg, err := NewMessage(t, data)
	if err != nil {
		return apperrors.NewTransport(string(t), "encode failed", err)
	}
	resp, err := f.requester.Request(ctx, msg)
	if err != nil {
		return err
	}
	if !resp.Success() {
		return apperrors.NewStorage(string(t), fmt.Sprintf("rejected: %s", resp.Error()), nil)
	}
	return nil
}
