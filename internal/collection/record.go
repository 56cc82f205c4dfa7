package collection

import (
	"encoding/json"
	"fmt"
	"maps"
	"time"
)

// Record is one item of a collection. Its JSON form is flat: the reserved
// id and created_at keys sit next to the schema fields.
type Record struct {
	ID        string
	CreatedAt time.Time
	Fields    map[string]string
}

// Get returns the value of a schema field.
func (r Record) Get(name string) string {
	return r.Fields[name]
}

func (r Record) clone() Record {
	r.Fields = maps.Clone(r.Fields)
	return r
}

func (r Record) MarshalJSON() ([]byte, error) {
	flat := make(map[string]any, len(r.Fields)+2)
	for k, v := range r.Fields {
		flat[k] = v
	}
	flat[FieldID] = r.ID
	flat[FieldCreatedAt] = r.CreatedAt.UTC().Format(time.RFC3339)
	return json.Marshal(flat)
}

func (r *Record) UnmarshalJSON(data []byte) error {
	var flat map[string]json.RawMessage
	if err := json.Unmarshal(data, &flat); err != nil {
		return err
	}
	out := Record{Fields: make(map[string]string, len(flat))}
	for k, raw := range flat {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return fmt.Errorf("record field %s: %w", k, err)
		}
		switch k {
		case FieldID:
			out.ID = s
		case FieldCreatedAt:
			t, err := time.Parse(time.RFC3339, s)
			if err != nil {
				return fmt.Errorf("record created_at: %w", err)
			}
			out.CreatedAt = t
		default:
			out.Fields[k] = s
		}
	}
	*r = out
	return nil
}
