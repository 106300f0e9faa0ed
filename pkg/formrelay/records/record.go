package records

import (
	"encoding/json"
	"errors"
)

// Record is a record store entry. The full JSON document is kept and
// decoded on demand into a typed model.
type Record struct {
	ID             string
	CollectionName string
	raw            json.RawMessage
}

// NewRecord builds a Record from any JSON-encodable value.
func NewRecord(v any) (Record, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return Record{}, err
	}
	var r Record
	if err := r.UnmarshalJSON(data); err != nil {
		return Record{}, err
	}
	return r, nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *Record) UnmarshalJSON(data []byte) error {
	var meta struct {
		ID             string `json:"id"`
		CollectionName string `json:"collectionName"`
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return err
	}
	r.ID = meta.ID
	r.CollectionName = meta.CollectionName
	r.raw = append(json.RawMessage(nil), data...)
	return nil
}

// MarshalJSON implements json.Marshaler.
func (r Record) MarshalJSON() ([]byte, error) {
	if r.raw == nil {
		return []byte("null"), nil
	}
	return r.raw, nil
}

// Decode unmarshals the record document into v.
func (r Record) Decode(v any) error {
	if r.raw == nil {
		return errors.New("decode empty record")
	}
	return json.Unmarshal(r.raw, v)
}
