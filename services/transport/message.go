// Package transport carries typed messages between page sessions and the
// storage context. Messages are always encoded before they cross the
// boundary, so the two sides never share memory.
package transport

import (
	"context"
	"encoding/json"
	"errors"

	"sjsage522/dealscout/internal/listing"
)

// MessageType discriminates a message
type MessageType string

const (
	TypeSaveListing    MessageType = "SAVE_LISTING"
	TypeSaveListings   MessageType = "SAVE_LISTINGS"
	TypeGetListing     MessageType = "GET_LISTING"
	TypeGetAllListings MessageType = "GET_ALL_LISTINGS"
	TypeDeleteListing  MessageType = "DELETE_LISTING"
	TypeClearAll       MessageType = "CLEAR_ALL"
	TypeGetStats       MessageType = "GET_STATS"
	TypeGetData        MessageType = "GET_DATA"
	TypeGetList        MessageType = "GET_LIST"
	TypePropertyData   MessageType = "PROPERTY_DATA"
	TypeListData       MessageType = "LIST_DATA"
	TypeAnalyzeRequest MessageType = "ANALYZE_REQUEST"
)

// Message is the envelope every request travels in
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	ListingNo string          `json:"listingNo,omitempty"`
	Site      string          `json:"site,omitempty"`
	URL       string          `json:"url,omitempty"`
	HTML      string          `json:"html,omitempty"`
}

// Response is the reply to a message; every reply carries "success"
type Response map[string]interface{}

// Success reports the "success" flag
func (r Response) Success() bool {
	ok, _ := r["success"].(bool)
	return ok
}

// Error returns the "error" text, "" when absent
func (r Response) Error() string {
	s, _ := r["error"].(string)
	return s
}

// Int reads a numeric field that may have been decoded from JSON
func (r Response) Int(key string) int {
	switch v := r[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}

// Decode re-encodes one field into out
func (r Response) Decode(key string, out interface{}) error {
	v, ok := r[key]
	if !ok {
		return errors.New("missing field " + key)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

// OK builds a successful response
func OK(fields Response) Response {
	out := Response{"success": true}
	for k, v := range fields {
		out[k] = v
	}
	return out
}

// Fail builds a failed response
func Fail(err string) Response {
	return Response{"success": false, "error": err}
}

// NewMessage encodes data into a message of the given type
func NewMessage(t MessageType, data interface{}) (Message, error) {
	msg := Message{Type: t}
	if data == nil {
		return msg, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return Message{}, err
	}
	msg.Data = raw
	return msg, nil
}

// DecodeRecord reads a single record from the message data
func (m Message) DecodeRecord() (listing.Record, error) {
	var rec listing.Record
	if len(m.Data) == 0 {
		return rec, errors.New("empty data")
	}
	err := json.Unmarshal(m.Data, &rec)
	return rec, err
}

// DecodeRecords reads a batch of records from the message data
func (m Message) DecodeRecords() ([]listing.Record, error) {
	var recs []listing.Record
	if len(m.Data) == 0 {
		return recs, errors.New("empty data")
	}
	err := json.Unmarshal(m.Data, &recs)
	return recs, err
}

// ErrNoResponse is returned when nothing answered a message
var ErrNoResponse = errors.New("no response")

// Requester sends a message and waits for its response
type Requester interface {
	Request(ctx context.Context, msg Message) (Response, error)
}
