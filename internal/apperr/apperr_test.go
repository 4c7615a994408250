package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want Kind
	}{
		{"validation", Validation("missing field"), KindValidation},
		{"unauthorized", Unauthorized("no token"), KindUnauthorized},
		{"forbidden", Forbidden("not yours"), KindForbidden},
		{"not found", NotFound("gone"), KindNotFound},
		{"decode", Decode("bad payload"), KindDecode},
		{"conflict", Conflict("duplicate code"), KindConflict},
		{"internal wrap", Internal(errors.New("db down")), KindInternal},
		{"plain error", errors.New("anything"), KindInternal},
		{"wrapped in fmt", fmt.Errorf("outer: %w", NotFound("gone")), KindNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := KindOf(tc.err); got != tc.want {
				t.Fatalf("KindOf = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestClientMessageHidesInternalCause(t *testing.T) {
	err := Internal(errors.New("pq: connection refused"))
	if msg := ClientMessage(err); msg != "internal error" {
		t.Fatalf("internal cause leaked: %q", msg)
	}
	if msg := ClientMessage(Forbidden("access denied")); msg != "access denied" {
		t.Fatalf("got %q", msg)
	}
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("row not found")
	err := Wrap(KindNotFound, "record not found", cause)
	if !errors.Is(err, cause) {
		t.Fatal("wrapped cause not reachable via errors.Is")
	}
	if !IsKind(err, KindNotFound) {
		t.Fatal("kind lost after wrapping")
	}
}
