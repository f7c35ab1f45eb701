package rpc

import (
	"encoding/json"
	"fmt"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/dmitrijs2005/duet/internal/gateway"
)

type LoginRequest struct {
	Name string `json:"name"`
	Pin  string `json:"pin"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Name        string `json:"name"`
	Partner     string `json:"partner"`
}

type ChangePinRequest struct {
	OldPin     string `json:"old_pin"`
	NewPin     string `json:"new_pin"`
	ConfirmPin string `json:"confirm_pin"`
}

type PingResponse struct {
	Status string `json:"status"`
}

type Filter struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

type QueryRequest struct {
	Collection string   `json:"collection"`
	Filters    []Filter `json:"filters,omitempty"`
	OrderBy    string   `json:"order_by,omitempty"`
	Ascending  bool     `json:"ascending,omitempty"`
	Limit      int      `json:"limit,omitempty"`
}

type Record struct {
	ID        string         `json:"id"`
	CreatedAt string         `json:"created_at"`
	Fields    map[string]any `json:"fields"`
}

type QueryResponse struct {
	Records []Record `json:"records"`
}

type InsertRequest struct {
	Collection string         `json:"collection"`
	Fields     map[string]any `json:"fields"`
}

type InsertResponse struct {
	Record Record `json:"record"`
}

type DeleteRequest struct {
	Collection string `json:"collection"`
	ID         string `json:"id"`
}

type PresignUploadRequest struct {
	Bucket   string `json:"bucket"`
	Filename string `json:"filename"`
}

type PresignUploadResponse struct {
	UploadURL string `json:"upload_url"`
	PublicURL string `json:"public_url"`
}

// Encode turns a message into a Struct.
func Encode(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode message: %w", err)
	}
	m := map[string]any{}
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("encode message: %w", err)
	}
	s, err := structpb.NewStruct(m)
	if err != nil {
		return nil, fmt.Errorf("encode message: %w", err)
	}
	return s, nil
}

// Decode fills v from a Struct. A nil Struct decodes as empty.
func Decode[T any](s *structpb.Struct) (T, error) {
	var out T
	if s == nil {
		return out, nil
	}
	b, err := json.Marshal(s.AsMap())
	if err != nil {
		return out, fmt.Errorf("decode message: %w", err)
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return out, fmt.Errorf("decode message: %w", err)
	}
	return out, nil
}

// FromRecord converts a gateway record to its wire form.
func FromRecord(r gateway.Record) Record {
	return Record{
		ID:        r.ID,
		CreatedAt: r.CreatedAt.UTC().Format(time.RFC3339Nano),
		Fields:    r.Fields,
	}
}

// ToRecord converts a wire record to a gateway record.
func (r Record) ToRecord() (gateway.Record, error) {
	ts, err := time.Parse(time.RFC3339Nano, r.CreatedAt)
	if err != nil {
		return gateway.Record{}, fmt.Errorf("record %s: created_at: %w", r.ID, err)
	}
	return gateway.Record{ID: r.ID, CreatedAt: ts, Fields: r.Fields}, nil
}

// FromQuery converts a gateway query to its wire form.
func FromQuery(c gateway.Collection, q gateway.Query) QueryRequest {
	req := QueryRequest{
		Collection: string(c),
		OrderBy:    q.OrderBy,
		Ascending:  q.Ascending,
		Limit:      q.Limit,
	}
	for _, f := range q.Filters {
		req.Filters = append(req.Filters, Filter{Field: f.Field, Value: f.Value})
	}
	return req
}

// ToQuery converts a wire query to a gateway query.
func (r QueryRequest) ToQuery() gateway.Query {
	q := gateway.Query{OrderBy: r.OrderBy, Ascending: r.Ascending, Limit: r.Limit}
	for _, f := range r.Filters {
		q.Filters = append(q.Filters, gateway.Eq(f.Field, f.Value))
	}
	return q
}
