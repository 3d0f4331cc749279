// Package annotation holds the record shape shared by comments and reactions,
// the merge rules applied on save, and the generic service both are built on.
package annotation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

type Entry[E any] struct {
	ID      string `json:"id" bson:"id"`
	Payload E      `json:"payload" bson:"payload"`
}

// Entries is an insertion-ordered mapping of entry id to payload. Its JSON
// form is an object whose keys keep that order; BSON stores the list.
type Entries[E any] []Entry[E]

func (es Entries[E]) Len() int { return len(es) }

func (es Entries[E]) index(id string) int {
	for i, e := range es {
		if e.ID == id {
			return i
		}
	}
	return -1
}

func (es Entries[E]) Get(id string) (E, bool) {
	if i := es.index(id); i >= 0 {
		return es[i].Payload, true
	}
	var zero E
	return zero, false
}

func (es Entries[E]) Keys() []string {
	keys := make([]string, len(es))
	for i, e := range es {
		keys[i] = e.ID
	}
	return keys
}

// Set replaces the payload at id in place, or appends it.
func (es *Entries[E]) Set(id string, payload E) {
	if i := es.index(id); i >= 0 {
		(*es)[i].Payload = payload
		return
	}
	*es = append(*es, Entry[E]{ID: id, Payload: payload})
}

// Delete removes id and reports whether it was present.
func (es *Entries[E]) Delete(id string) bool {
	i := es.index(id)
	if i < 0 {
		return false
	}
	*es = append((*es)[:i:i], (*es)[i+1:]...)
	return true
}

func (es Entries[E]) Clone() Entries[E] {
	if es == nil {
		return nil
	}
	return append(Entries[E](nil), es...)
}

// Map returns the entries as an unordered map.
func (es Entries[E]) Map() map[string]E {
	m := make(map[string]E, len(es))
	for _, e := range es {
		m[e.ID] = e.Payload
	}
	return m
}

func (es Entries[E]) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range es {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(e.ID)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(e.Payload)
		if err != nil {
			return nil, fmt.Errorf("entry %q: %w", e.ID, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON accepts the object form, keeping key order, and the list form
// of {id, payload} pairs. A repeated key keeps its first position and its last
// payload.
func (es *Entries[E]) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*es = nil
		return nil
	}

	out := Entries[E]{}
	if len(data) > 0 && data[0] == '[' {
		var list []Entry[E]
		if err := json.Unmarshal(data, &list); err != nil {
			return err
		}
		for _, e := range list {
			out.Set(e.ID, e.Payload)
		}
		*es = out
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return errors.New("entries must be a JSON object")
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected entry key %v", tok)
		}
		var payload E
		if err := dec.Decode(&payload); err != nil {
			return fmt.Errorf("entry %q: %w", key, err)
		}
		out.Set(key, payload)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*es = out
	return nil
}

// Record is one stored annotation.
type Record[E any] struct {
	OrganizationID string         `json:"organizationId" bson:"organizationId"`
	DocumentID     string         `json:"documentId" bson:"documentId"`
	AnnotationID   string         `json:"annotationId" bson:"annotationId"`
	Entries        Entries[E]     `json:"entries" bson:"entries"`
	Metadata       map[string]any `json:"metadata,omitempty" bson:"metadata,omitempty"`
}

// Partial is the payload a caller saves for one annotation id.
type Partial[E any] struct {
	DocumentID string         `json:"documentId,omitempty"`
	Entries    Entries[E]     `json:"entries"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}
