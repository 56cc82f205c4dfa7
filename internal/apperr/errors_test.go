package apperr

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestValidationErrorMatchesSentinel(t *testing.T) {
	err := fmt.Errorf("create goal: %w", NewValidationError(nil, "type"))
	if !errors.Is(err, ErrValidation) {
		t.Fatal("wrapped ValidationError should match ErrValidation")
	}
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatal("errors.As should find the ValidationError")
	}
	if len(ve.Fields) != 1 || ve.Fields[0] != "type" {
		t.Errorf("fields = %v", ve.Fields)
	}
}

func TestValidationErrorMessageNamesFields(t *testing.T) {
	err := NewValidationError(errors.New("cannot be blank"), "back", "front")
	msg := err.Error()
	if !strings.Contains(msg, "back, front") {
		t.Errorf("message %q should name both fields", msg)
	}
	if !strings.Contains(msg, "cannot be blank") {
		t.Errorf("message %q should carry the cause", msg)
	}
}
