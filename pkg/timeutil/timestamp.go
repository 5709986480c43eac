package timeutil

import (
	"encoding/json"
	"fmt"
	"time"
)

// StoredLayout is the fixed-width UTC layout written to documents. Lexical
// order of stored values equals chronological order, which is what the store
// sorts on.
const StoredLayout = "2006-01-02T15:04:05.000000000Z"

// Timestamp is a time.Time that serialises with StoredLayout.
type Timestamp struct {
	time.Time
}

// At wraps t.
func At(t time.Time) Timestamp {
	return Timestamp{Time: t}
}

// Ptr wraps t and returns a pointer, convenient for optional fields.
func Ptr(t time.Time) *Timestamp {
	return &Timestamp{Time: t}
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte(`""`), nil
	}
	return []byte(fmt.Sprintf("%q", t.String())), nil
}

// UnmarshalJSON accepts StoredLayout and any RFC 3339 value, so documents
// written by other clients with millisecond ISO strings still decode.
func (t *Timestamp) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if raw == "" {
		t.Time = time.Time{}
		return nil
	}
	parsed, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

func (t Timestamp) String() string {
	return t.UTC().Format(StoredLayout)
}

// SameDay reports whether t and then fall on the same local calendar day.
func (t Timestamp) SameDay(then time.Time) bool {
	ty, tm, td := t.Local().Date()
	y, m, d := then.Local().Date()
	return ty == y && tm == m && td == d
}

// MarshalYAML writes the same fixed-width form as JSON.
func (t Timestamp) MarshalYAML() (any, error) {
	if t.IsZero() {
		return "", nil
	}
	return t.String(), nil
}
