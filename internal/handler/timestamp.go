package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"time"
)

// Timestamp is an ISO-8601 instant. Inputs without a zone are taken as UTC;
// outputs are always RFC 3339 in UTC.
type Timestamp struct {
	time.Time
}

var timestampType = reflect.TypeOf(Timestamp{})

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseTimestamp accepts RFC 3339, zone-less ISO-8601 date-times and bare dates.
func ParseTimestamp(s string) (Timestamp, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Timestamp{t.UTC()}, nil
		}
	}
	return Timestamp{}, fmt.Errorf("invalid timestamp %q: want ISO-8601, e.g. 2023-01-01T00:00:00", s)
}

// UnmarshalJSON reports bad input as a *json.UnmarshalTypeError so the
// decoder fills in the name of the offending field.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return &json.UnmarshalTypeError{Value: jsonKind(data), Type: timestampType}
	}
	parsed, err := ParseTimestamp(s)
	if err != nil {
		return &json.UnmarshalTypeError{Value: "string " + s, Type: timestampType}
	}
	*t = parsed
	return nil
}

func jsonKind(data []byte) string {
	switch data[0] {
	case '{':
		return "object"
	case '[':
		return "array"
	case 't', 'f':
		return "bool"
	default:
		return "number"
	}
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}

// timePtr unwraps an optional timestamp.
func timePtr(t *Timestamp) *time.Time {
	if t == nil {
		return nil
	}
	v := t.Time
	return &v
}
