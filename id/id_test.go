package id_test

import (
	"strings"
	"testing"

	"github.com/workscale/backlog/id"
)

func TestNewWorkerID(t *testing.T) {
	i := id.NewWorkerID()
	if i.IsNil() {
		t.Fatal("expected non-nil ID")
	}
	if i.Prefix() != id.PrefixWorker {
		t.Errorf("expected prefix %q, got %q", id.PrefixWorker, i.Prefix())
	}
	if !strings.HasPrefix(i.String(), "wkr_") {
		t.Errorf("expected wkr_ prefix, got %q", i.String())
	}
}

func TestParseRoundTrip(t *testing.T) {
	orig := id.NewWorkerID()
	parsed, err := id.ParseWorkerID(orig.String())
	if err != nil {
		t.Fatalf("ParseWorkerID: %v", err)
	}
	if parsed.String() != orig.String() {
		t.Errorf("round trip mismatch: %q != %q", parsed.String(), orig.String())
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []string{"", "not-a-typeid", "wkr_!!!"}
	for _, s := range tests {
		if _, err := id.Parse(s); err == nil {
			t.Errorf("Parse(%q): expected error", s)
		}
	}
}

func TestParseWorkerID_WrongPrefix(t *testing.T) {
	other := id.New(id.Prefix("job"))
	if _, err := id.ParseWorkerID(other.String()); err == nil {
		t.Error("expected prefix mismatch error")
	}
}

func TestTextMarshaling(t *testing.T) {
	orig := id.NewWorkerID()

	data, err := orig.MarshalText()
	if err != nil {
		t.Fatalf("MarshalText: %v", err)
	}

	var parsed id.ID
	if err := parsed.UnmarshalText(data); err != nil {
		t.Fatalf("UnmarshalText: %v", err)
	}
	if parsed.String() != orig.String() {
		t.Errorf("round trip mismatch: %q != %q", parsed.String(), orig.String())
	}
}

func TestNilID(t *testing.T) {
	if !id.Nil.IsNil() {
		t.Error("Nil should report IsNil")
	}
	if id.Nil.String() != "" {
		t.Errorf("Nil String: want empty, got %q", id.Nil.String())
	}

	var parsed id.ID
	if err := parsed.UnmarshalText(nil); err != nil {
		t.Fatalf("UnmarshalText(nil): %v", err)
	}
	if !parsed.IsNil() {
		t.Error("unmarshaling empty text should yield Nil")
	}
}
