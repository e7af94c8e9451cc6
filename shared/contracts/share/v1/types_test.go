package v1

import (
	"encoding/json"
	"testing"
	"time"
)

func TestEnvelopeValidate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		env     Envelope
		wantErr bool
	}{
		{"valid share-text", Envelope{V: Version, Type: TypeShareText}, false},
		{"valid legacy share-code", Envelope{V: Version, Type: TypeShareCode}, false},
		{"valid server push", Envelope{V: Version, Type: TypeUserCount}, false},
		{"missing v", Envelope{Type: TypeShareText}, true},
		{"blank v", Envelope{V: "   ", Type: TypeShareText}, true},
		{"wrong version", Envelope{V: "v2", Type: TypeShareText}, true},
		{"missing type", Envelope{V: Version}, true},
		{"blank type", Envelope{V: Version, Type: "  "}, true},
		{"unknown type", Envelope{V: Version, Type: "share-everything"}, true},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := tc.env.Validate()
			if tc.wantErr && err == nil {
				t.Fatalf("expected error for %+v", tc.env)
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestEnvelopeValidate_AcceptsEveryKnownType(t *testing.T) {
	t.Parallel()

	types := []string{
		TypeShareText, TypeShareCode, TypeShareFile, TypeShareAck,
		TypeClearSharedText, TypeClearSharedFile,
		TypeGetCurrentContent, TypeCurrentContent,
		TypeSharedTextUpdated, TypeSharedFileUpdated,
		TypeSharedTextCleared, TypeSharedFileCleared,
		TypeUserCount, TypeCurrentSharedText, TypeCurrentSharedFile,
		TypeError,
	}
	for _, typ := range types {
		if err := (Envelope{V: Version, Type: typ}).Validate(); err != nil {
			t.Errorf("type %q: %v", typ, err)
		}
	}
}

func TestEnvelopeJSONShape(t *testing.T) {
	t.Parallel()

	payload, _ := json.Marshal(ShareTextPayload{Content: "hi"})
	env := Envelope{
		V:       Version,
		Type:    TypeShareText,
		ID:      "01ARZ3NDEKTSV4RRFFQ69G5FAV",
		TS:      time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Payload: payload,
	}

	b, err := json.Marshal(env)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var round Envelope
	if err := json.Unmarshal(b, &round); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if round.V != env.V || round.Type != env.Type || round.ID != env.ID || !round.TS.Equal(env.TS) {
		t.Fatalf("round trip mismatch: %+v", round)
	}

	var p ShareTextPayload
	if err := json.Unmarshal(round.Payload, &p); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if p.Content != "hi" {
		t.Fatalf("content=%q", p.Content)
	}

	// Optional fields stay off the wire when zero.
	min, _ := json.Marshal(Envelope{V: Version, Type: TypeGetCurrentContent})
	var m map[string]any
	_ = json.Unmarshal(min, &m)
	for _, key := range []string{"id", "payload"} {
		if _, ok := m[key]; ok {
			t.Errorf("zero field %q should be omitted, got %s", key, min)
		}
	}
}
