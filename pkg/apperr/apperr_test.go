package apperr

import (
	"testing"

	"github.com/pkg/errors"
)

func TestKindOfThroughWraps(t *testing.T) {
	base := Rejection(-4046, "No need to change margin type.")
	wrapped := errors.Wrap(errors.Wrap(base, "set margin type"), "init")

	if got := KindOf(wrapped); got != KindRejection {
		t.Fatalf("kind = %v, want rejection", got)
	}
	if got := CodeOf(wrapped); got != -4046 {
		t.Fatalf("code = %d, want -4046", got)
	}
	if !Ignorable(wrapped, -4046) {
		t.Fatal("expected -4046 to be ignorable")
	}
	if Ignorable(wrapped, -2019) {
		t.Fatal("-2019 must not match")
	}
}

func TestKindOfPlainError(t *testing.T) {
	if got := KindOf(errors.New("boom")); got != KindUnknown {
		t.Fatalf("kind = %v, want unknown", got)
	}
	if Is(nil, KindTransient) {
		t.Fatal("nil is never transient")
	}
}

func TestErrorString(t *testing.T) {
	err := Transient(errors.New("EOF"), "GET /fapi/v1/klines")
	want := "transient: GET /fapi/v1/klines: EOF"
	if err.Error() != want {
		t.Fatalf("got %q, want %q", err.Error(), want)
	}
}
