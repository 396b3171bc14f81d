package clock

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

// Layouts accepted for user-entered timestamps, most specific first.
// Layouts without a zone are read as UTC.
var instantLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	DateLayout,
}

// Instant is a point in time that remembers whether it was parsed
// successfully. Records carrying an invalid Instant are excluded from
// timestamp-dependent aggregates rather than failing the computation.
type Instant struct {
	t     time.Time
	raw   string
	valid bool
}

// At wraps t. The zero time is treated as absent (invalid).
func At(t time.Time) Instant {
	if t.IsZero() {
		return Instant{}
	}
	return Instant{t: t, valid: true}
}

// ParseInstant parses a user-entered timestamp. It never fails; unparsable
// input produces an invalid Instant that keeps the raw text.
func ParseInstant(s string) Instant {
	s = strings.TrimSpace(s)
	if s == "" {
		return Instant{}
	}
	for _, layout := range instantLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Instant{t: t, raw: s, valid: true}
		}
	}
	return Instant{raw: s}
}

// Time returns the wrapped time and whether it is valid.
func (i Instant) Time() (time.Time, bool) {
	return i.t, i.valid
}

// IsValid reports whether the instant parsed.
func (i Instant) IsValid() bool {
	return i.valid
}

// String returns RFC 3339 for valid instants and the raw text otherwise.
func (i Instant) String() string {
	if !i.valid {
		return i.raw
	}
	return i.t.Format(time.RFC3339Nano)
}

// MarshalText round-trips invalid input unchanged so callers can still see
// what the user typed.
func (i Instant) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}

// UnmarshalText never fails.
func (i *Instant) UnmarshalText(b []byte) error {
	*i = ParseInstant(string(b))
	return nil
}

// UnmarshalJSON accepts any JSON value. Strings are parsed like
// UnmarshalText; numbers, booleans, objects and arrays become an invalid
// Instant that keeps the raw text. null leaves i unchanged.
func (i *Instant) UnmarshalJSON(b []byte) error {
	s, isString, isNull := jsonText(b)
	switch {
	case isNull:
	case isString:
		*i = ParseInstant(s)
	default:
		*i = Instant{raw: s}
	}
	return nil
}

// jsonText returns a JSON string's contents, or the trimmed raw text of any
// other value.
func jsonText(b []byte) (text string, isString, isNull bool) {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return "", false, true
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err == nil {
			return s, true, false
		}
	}
	return string(b), false, false
}
