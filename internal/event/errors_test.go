package event

import (
	"errors"
	"testing"
)

func TestNotSubscriberError(t *testing.T) {
	p := NewPublisher("owner", nil)
	err := p.AddSubscriber(42)
	if err == nil {
		t.Fatal("expected error for a peer that cannot capture events")
	}
	if !errors.Is(err, ErrNotSubscriber) {
		t.Error("errors.Is should match ErrNotSubscriber")
	}

	var nse *NotSubscriberError
	if !errors.As(err, &nse) || nse.Type != "int" {
		t.Errorf("errors.As = %v, type %+v", err, nse)
	}
	if err.Error() != "int: peer cannot capture events" {
		t.Errorf("unexpected error string: %s", err.Error())
	}
}

func TestSentinelErrors(t *testing.T) {
	r := NewRegistry()
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"empty event", r.AddFunc("", RoleSelf, func(_, _ any) {}), ErrInvalidEvent},
		{"nil handler", r.Add("saved", RoleSelf, nil), ErrNilHandler},
		{"nil func", r.AddFunc("saved", RoleSelf, nil), ErrNilHandler},
	}
	for _, tt := range tests {
		if !errors.Is(tt.err, tt.want) {
			t.Errorf("%s: got %v, want %v", tt.name, tt.err, tt.want)
		}
	}
	if r.Count() != 0 {
		t.Errorf("failed registrations left %d handlers", r.Count())
	}
}
