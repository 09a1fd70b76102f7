package task

import (
	"bytes"
	"encoding/json"
	"errors"
)

// Optional carries a value together with whether it was supplied at all.
// A JSON key that is absent leaves Set false; a key present with any value,
// null included, sets it.
type Optional[T any] struct {
	Set   bool
	Value T
}

// Some returns an Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: v}
}

// UnmarshalJSON implements json.Unmarshaler.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		var zero T
		o.Value = zero
		return nil
	}
	return json.Unmarshal(data, &o.Value)
}

// IsZero reports whether the value was left unset, so omitzero drops it.
func (o Optional[T]) IsZero() bool {
	return !o.Set
}

// MarshalJSON implements json.Marshaler.
func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.Set {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

// Patch is a merge-patch over a task. Only fields with Set applied are changed.
type Patch struct {
	Title    Optional[string]         `json:"title,omitzero"`
	Category Optional[Category]       `json:"category,omitzero"`
	Details  Optional[*string]        `json:"details,omitzero"`
	Outcome  Optional[*string]        `json:"outcome,omitzero"`
	SubTasks Optional[[]SubTaskInput] `json:"subtasks,omitzero"`
	Tags     Optional[[]string]       `json:"tags,omitzero"`
}

// UnmarshalJSON decodes each known key on its own so a type mismatch is
// reported against the key that carried it. Unknown keys are ignored.
func (p *Patch) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	fields := []struct {
		key string
		dst json.Unmarshaler
	}{
		{"title", &p.Title},
		{"category", &p.Category},
		{"details", &p.Details},
		{"outcome", &p.Outcome},
		{"subtasks", &p.SubTasks},
		{"tags", &p.Tags},
	}
	for _, f := range fields {
		msg, ok := raw[f.key]
		if !ok {
			continue
		}
		if err := f.dst.UnmarshalJSON(msg); err != nil {
			return withField(f.key, err)
		}
	}
	return nil
}

// withField prefixes the field path of a type mismatch with key.
func withField(key string, err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		if typeErr.Field == "" {
			typeErr.Field = key
		} else {
			typeErr.Field = key + "." + typeErr.Field
		}
	}
	return err
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return !p.Title.Set && !p.Category.Set && !p.Details.Set &&
		!p.Outcome.Set && !p.SubTasks.Set && !p.Tags.Set
}

// columns returns the direct column updates carried by the patch.
func (p Patch) columns() map[string]any {
	cols := make(map[string]any)
	if p.Title.Set {
		cols["title"] = p.Title.Value
	}
	if p.Category.Set {
		cols["category"] = p.Category.Value
	}
	if p.Details.Set {
		cols["details"] = p.Details.Value
	}
	if p.Outcome.Set {
		cols["outcome"] = p.Outcome.Value
	}
	return cols
}
