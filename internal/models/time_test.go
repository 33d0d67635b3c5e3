package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestAPITimeUnmarshal(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  time.Time
	}{
		{
			name:  "RFC3339WithOffset",
			input: `"2025-06-15T12:30:00+02:00"`,
			want:  time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC),
		},
		{
			name:  "RFC3339Zulu",
			input: `"2025-06-15T12:30:00Z"`,
			want:  time.Date(2025, 6, 15, 12, 30, 0, 0, time.UTC),
		},
		{
			name:  "IsoformatNoOffset",
			input: `"2025-06-15T12:30:00"`,
			want:  time.Date(2025, 6, 15, 12, 30, 0, 0, time.UTC),
		},
		{
			name:  "IsoformatMicroseconds",
			input: `"2025-06-15T12:30:00.123456"`,
			want:  time.Date(2025, 6, 15, 12, 30, 0, 123456000, time.UTC),
		},
		{
			name:  "SpaceSeparated",
			input: `"2025-06-15 12:30:00"`,
			want:  time.Date(2025, 6, 15, 12, 30, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got APITime
			if err := json.Unmarshal([]byte(tt.input), &got); err != nil {
				t.Fatalf("Unmarshal(%s): %v", tt.input, err)
			}
			if !got.Time.Equal(tt.want) {
				t.Errorf("parsed = %v, want %v", got.Time, tt.want)
			}
		})
	}

	t.Run("NullYieldsZero", func(t *testing.T) {
		var got APITime
		if err := json.Unmarshal([]byte(`null`), &got); err != nil {
			t.Fatalf("Unmarshal(null): %v", err)
		}
		if !got.IsZero() {
			t.Errorf("parsed = %v, want zero time", got.Time)
		}
	})

	t.Run("GarbageFails", func(t *testing.T) {
		var got APITime
		if err := json.Unmarshal([]byte(`"next tuesday"`), &got); err == nil {
			t.Error("nonsense timestamp should fail")
		}
	})
}

func TestAPITimeMarshal(t *testing.T) {
	at := At(time.Date(2025, 6, 15, 12, 30, 0, 0, time.UTC))
	data, err := json.Marshal(at)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(data) != `"2025-06-15T12:30:00Z"` {
		t.Errorf("marshaled = %s", data)
	}

	data, err = json.Marshal(APITime{})
	if err != nil {
		t.Fatalf("Marshal zero: %v", err)
	}
	if string(data) != "null" {
		t.Errorf("zero time marshaled = %s, want null", data)
	}
}

func TestMessageDecoding(t *testing.T) {
	payload := `{
		"id": 5,
		"conversation_id": 42,
		"role": "assistant",
		"content": "hello",
		"route_taken": "vector_search",
		"timestamp": "2025-06-15T12:30:00.000001"
	}`
	var msg Message
	if err := json.Unmarshal([]byte(payload), &msg); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if msg.Role != RoleAssistant || msg.ConversationID != 42 {
		t.Errorf("message = %+v", msg)
	}
	if msg.Timestamp == nil || msg.Timestamp.IsZero() {
		t.Error("timestamp should parse")
	}
}
