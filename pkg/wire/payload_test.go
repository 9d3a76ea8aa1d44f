package wire

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestTopicsFor(t *testing.T) {
	topics := TopicsFor(3)

	if topics.Status != "consultease/faculty/3/status" {
		t.Errorf("Status topic: got %q", topics.Status)
	}
	if topics.Responses != "consultease/faculty/3/responses" {
		t.Errorf("Responses topic: got %q", topics.Responses)
	}
	if topics.LegacyStatus != "faculty/3/status" {
		t.Errorf("LegacyStatus topic: got %q", topics.LegacyStatus)
	}
}

func TestStatusPayloadGraceField(t *testing.T) {
	// Outside grace the remaining field must be absent entirely.
	p := &StatusPayload{
		FacultyID:   1,
		FacultyName: "Cris Angelo Salonga",
		Present:     true,
		Status:      StatusAvailable,
		Timestamp:   1000,
	}

	data, err := Encode(p)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if strings.Contains(string(data), "grace_period_remaining") {
		t.Errorf("grace_period_remaining serialized outside grace: %s", data)
	}

	// Inside grace it must carry the remaining milliseconds.
	remaining := int64(42500)
	p.InGracePeriod = true
	p.GracePeriodRemaining = &remaining

	data, err = Encode(p)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if got, ok := decoded["grace_period_remaining"].(float64); !ok || int64(got) != remaining {
		t.Errorf("grace_period_remaining: got %v, want %d", decoded["grace_period_remaining"], remaining)
	}
	if got, ok := decoded["in_grace_period"].(bool); !ok || !got {
		t.Errorf("in_grace_period: got %v, want true", decoded["in_grace_period"])
	}
}

func TestStatusPayloadValidate(t *testing.T) {
	p := &StatusPayload{FacultyID: 1, Status: "BUSY"}
	if err := p.Validate(); err != ErrBadStatus {
		t.Errorf("Validate() = %v, want ErrBadStatus", err)
	}

	p.Status = StatusAway
	if err := p.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}

func TestResponsePayloadValidate(t *testing.T) {
	tests := []struct {
		name    string
		payload ResponsePayload
		wantErr error
	}{
		{
			"Valid",
			ResponsePayload{FacultyID: 1, MessageID: "m1", ResponseType: ResponseAcknowledge, FacultyPresent: true},
			nil,
		},
		{
			"MissingFacultyID",
			ResponsePayload{MessageID: "m1", ResponseType: ResponseAcknowledge, FacultyPresent: true},
			ErrMissingFacultyID,
		},
		{
			"MissingMessageID",
			ResponsePayload{FacultyID: 1, ResponseType: ResponseBusy, FacultyPresent: true},
			ErrMissingMessageID,
		},
		{
			"BadResponseType",
			ResponsePayload{FacultyID: 1, MessageID: "m1", ResponseType: "MAYBE", FacultyPresent: true},
			ErrBadResponseType,
		},
		{
			"NotPresent",
			ResponsePayload{FacultyID: 1, MessageID: "m1", ResponseType: ResponseBusy},
			ErrNotPresent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.payload.Validate(); err != tt.wantErr {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestUptimeMillis(t *testing.T) {
	start := time.Now()

	if got := UptimeMillis(start, start.Add(1500*time.Millisecond)); got != 1500 {
		t.Errorf("UptimeMillis = %d, want 1500", got)
	}

	// Clock skew must never produce a negative uptime.
	if got := UptimeMillis(start, start.Add(-time.Second)); got != 0 {
		t.Errorf("UptimeMillis with past instant = %d, want 0", got)
	}
}
