package models

import (
	"fmt"
	"strings"
	"time"
)

// APITime wraps time.Time to accept the backend's timestamp formats. The
// service emits Python isoformat strings, which may or may not carry a
// timezone offset or fractional seconds; bare RFC3339 also appears.
// Timestamps without an offset are taken as UTC.
type APITime struct {
	time.Time
}

var apiTimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

func (t *APITime) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range apiTimeLayouts {
		parsed, err := time.ParseInLocation(layout, s, time.UTC)
		if err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("unrecognized timestamp %q", s)
}

func (t APITime) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte(`null`), nil
	}
	return []byte(`"` + t.UTC().Format(time.RFC3339Nano) + `"`), nil
}

// At builds an APITime from a time.Time.
func At(tm time.Time) APITime {
	return APITime{Time: tm}
}

// Now is the current wall-clock as an APITime.
func Now() *APITime {
	t := At(time.Now())
	return &t
}
