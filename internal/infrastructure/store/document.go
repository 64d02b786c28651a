package store

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"
)

// Document is one stored document: the full JSON state kept under a key
// and the time it was written.
type Document struct {
	Key     string          `json:"key"`
	State   json.RawMessage `json:"state"`
	SavedAt time.Time       `json:"saved_at"`
}

// NewDocument encodes src as the state of a document stored under key.
func NewDocument(key string, src any) (*Document, error) {
	state, err := json.Marshal(src)
	if err != nil {
		return nil, errors.Wrapf(err, "marshal document %s", key)
	}
	return &Document{
		Key:     key,
		State:   state,
		SavedAt: time.Now().UTC(),
	}, nil
}

// Decode unmarshals the document state into dst.
func (d *Document) Decode(dst any) error {
	if err := json.Unmarshal(d.State, dst); err != nil {
		return errors.Wrapf(err, "unmarshal document %s", d.Key)
	}
	return nil
}
