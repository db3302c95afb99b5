package models

import (
	"bytes"
	"encoding/json"
)

// Ref is a relationship attribute. The platform returns either the related
// document's id or the expanded document, depending on query depth.
type Ref[T any] struct {
	ID  string
	Doc *T
}

// RefTo builds a reference holding only an id.
func RefTo[T any](id string) Ref[T] {
	return Ref[T]{ID: id}
}

// IsZero reports whether the reference points at nothing.
func (r Ref[T]) IsZero() bool {
	return r.ID == "" && r.Doc == nil
}

// UnmarshalJSON accepts a bare id string, an expanded document or null.
func (r *Ref[T]) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*r = Ref[T]{}
		return nil
	}
	if data[0] == '"' {
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return err
		}
		*r = Ref[T]{ID: id}
		return nil
	}

	var head struct {
		ID string `json:"$id"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return err
	}
	doc := new(T)
	if err := json.Unmarshal(data, doc); err != nil {
		return err
	}
	*r = Ref[T]{ID: head.ID, Doc: doc}
	return nil
}

// MarshalJSON emits the expanded document when present, the id otherwise.
func (r Ref[T]) MarshalJSON() ([]byte, error) {
	if r.Doc != nil {
		return json.Marshal(r.Doc)
	}
	if r.ID == "" {
		return []byte("null"), nil
	}
	return json.Marshal(r.ID)
}
