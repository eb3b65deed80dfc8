package daemon

import (
	"encoding/json"
	"testing"
	"time"

	"git.home.luguber.info/inful/labrunner/internal/history"
)

func TestSubjectForEvent(t *testing.T) {
	p := &NATSPublisher{subject: "labrunner.runs"}

	cases := []struct {
		eventType string
		want      string
	}{
		{history.TypeQueued, "labrunner.runs.queued"},
		{history.TypeCompleted, "labrunner.runs.completed"},
		{"bare", "labrunner.runs.bare"},
	}

	for _, tc := range cases {
		event := &history.BaseEvent{EventType: tc.eventType}
		if got := p.subjectFor(event); got != tc.want {
			t.Errorf("subjectFor(%s) = %s, want %s", tc.eventType, got, tc.want)
		}
	}
}

func TestRunEventMessageShape(t *testing.T) {
	event, err := history.NewRunFailed("run-7", 2, "exploded", 40*time.Second)
	if err != nil {
		t.Fatalf("new event: %v", err)
	}

	msg := RunEventMessage{
		RunID:     event.RunID(),
		Type:      event.Type(),
		Timestamp: event.Timestamp(),
		Payload:   json.RawMessage(event.Payload()),
	}
	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded struct {
		RunID   string `json:"run_id"`
		Type    string `json:"type"`
		Payload struct {
			ExitCode int    `json:"exit_code"`
			Error    string `json:"error"`
		} `json:"payload"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.RunID != "run-7" || decoded.Type != history.TypeFailed {
		t.Errorf("envelope = %+v", decoded)
	}
	if decoded.Payload.ExitCode != 2 || decoded.Payload.Error != "exploded" {
		t.Errorf("payload = %+v", decoded.Payload)
	}
}

func TestPublisherNilSafety(t *testing.T) {
	var p *NATSPublisher
	if p.Connected() {
		t.Error("nil publisher should not report connected")
	}
	p.Close()
}
