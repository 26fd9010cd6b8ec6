package newsletter

import (
	"errors"
	"testing"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		email string
		want  error
	}{
		{"", ErrEmpty},
		{"plainaddress", ErrNotEmail},
		{"a@b", ErrInvalid},
		{"a b@c.de", ErrInvalid},
		{"a@@b.co", ErrInvalid},
		{" ", ErrNotEmail},
		{" reader@example.com", ErrInvalid},
		{"reader@example.com", nil},
		{"first.last+tag@sub.example.co.uk", nil},
	}
	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			err := Validate(tt.email)
			if tt.want == nil {
				if err != nil {
					t.Fatalf("expected valid, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestValidate_ReturnsExportedErrors(t *testing.T) {
	for _, email := range []string{"", "nope", "a@b"} {
		var verr *Error
		if !errors.As(Validate(email), &verr) {
			t.Fatalf("%q: expected *Error, got %T", email, Validate(email))
		}
		if verr.Message == "" || verr.Code == "" {
			t.Errorf("%q: expected code and message, got %+v", email, verr)
		}
	}
}

func TestErrorMessages(t *testing.T) {
	if ErrEmpty.Error() != "Please enter your email address" {
		t.Errorf("unexpected message %q", ErrEmpty.Error())
	}
	var verr *Error
	if !errors.As(Validate("nope"), &verr) || verr.Code != "not_email" {
		t.Errorf("expected not_email error, got %+v", verr)
	}
}
