package cache

import (
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/tinylib/msgp/msgp"
)

// Evaluation is the persisted outcome of one BIMI evaluation, stored as a
// MessagePack record next to the cached artifacts it describes.
type Evaluation struct {
	// ID is a ULID assigned when the evaluation completes.
	ID string

	// Domain and Selector identify the evaluation.
	Domain   string
	Selector string

	// Status is the final result code (pass, fail, none, declined, skipped,
	// temperror).
	Status string

	// Authority is the certificate verdict: "pass", "fail" or "" when no
	// authority evidence was published.
	Authority string

	// When is the completion time.
	When time.Time
}

// NewEvaluationID returns a fresh ULID for an evaluation record.
func NewEvaluationID() string {
	return ulid.Make().String()
}

// MarshalMsg encodes the evaluation as MessagePack, appending to b.
func (e *Evaluation) MarshalMsg(b []byte) ([]byte, error) {
	b = msgp.AppendMapHeader(b, 6)
	b = msgp.AppendString(b, "id")
	b = msgp.AppendString(b, e.ID)
	b = msgp.AppendString(b, "domain")
	b = msgp.AppendString(b, e.Domain)
	b = msgp.AppendString(b, "selector")
	b = msgp.AppendString(b, e.Selector)
	b = msgp.AppendString(b, "status")
	b = msgp.AppendString(b, e.Status)
	b = msgp.AppendString(b, "authority")
	b = msgp.AppendString(b, e.Authority)
	b = msgp.AppendString(b, "when")
	b = msgp.AppendTime(b, e.When.UTC())
	return b, nil
}

// UnmarshalMsg decodes the evaluation from MessagePack, returning any
// trailing bytes.
func (e *Evaluation) UnmarshalMsg(bts []byte) ([]byte, error) {
	n, bts, err := msgp.ReadMapHeaderBytes(bts)
	if err != nil {
		return bts, err
	}
	for i := uint32(0); i < n; i++ {
		var key string
		key, bts, err = msgp.ReadStringBytes(bts)
		if err != nil {
			return bts, err
		}
		switch key {
		case "id":
			e.ID, bts, err = msgp.ReadStringBytes(bts)
		case "domain":
			e.Domain, bts, err = msgp.ReadStringBytes(bts)
		case "selector":
			e.Selector, bts, err = msgp.ReadStringBytes(bts)
		case "status":
			e.Status, bts, err = msgp.ReadStringBytes(bts)
		case "authority":
			e.Authority, bts, err = msgp.ReadStringBytes(bts)
		case "when":
			e.When, bts, err = msgp.ReadTimeBytes(bts)
		default:
			bts, err = msgp.Skip(bts)
		}
		if err != nil {
			return bts, err
		}
	}
	return bts, nil
}

var (
	_ msgp.Marshaler   = (*Evaluation)(nil)
	_ msgp.Unmarshaler = (*Evaluation)(nil)
)

// evalKey is the store name for an evaluation record.
func evalKey(domain, selector string) string {
	return Key(domain, selector) + ".eval"
}

// PutEvaluation persists an evaluation record for its domain and selector.
// A missing ID is assigned.
func (s *Store) PutEvaluation(e *Evaluation) error {
	if e.ID == "" {
		e.ID = NewEvaluationID()
	}
	data, err := e.MarshalMsg(nil)
	if err != nil {
		return fmt.Errorf("cache: encoding evaluation: %w", err)
	}
	return s.Put(evalKey(e.Domain, e.Selector), data)
}

// GetEvaluation loads the last persisted evaluation for domain and selector,
// or ErrNotFound.
func (s *Store) GetEvaluation(domain, selector string) (*Evaluation, error) {
	data, err := s.Get(evalKey(domain, selector))
	if err != nil {
		return nil, err
	}
	var e Evaluation
	if _, err := e.UnmarshalMsg(data); err != nil {
		return nil, fmt.Errorf("cache: decoding evaluation: %w", err)
	}
	return &e, nil
}
