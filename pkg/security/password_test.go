package security

import (
	"reflect"
	"testing"
)

func TestDefaultPasswordPolicy(t *testing.T) {
	policy := DefaultPasswordPolicy(6, 0)

	tests := []struct {
		name     string
		password string
		want     []string
	}{
		{name: "valid", password: "Passw0rd!", want: nil},
		{
			name:     "short without symbol",
			password: "Ab1",
			want: []string{
				"Passwords must be at least 6 characters.",
				"Passwords must have at least one non alphanumeric character.",
			},
		},
		{
			name:     "all lowercase",
			password: "password",
			want: []string{
				"Passwords must have at least one non alphanumeric character.",
				"Passwords must have at least one digit ('0'-'9').",
				"Passwords must have at least one uppercase ('A'-'Z').",
			},
		},
		{
			name:     "empty",
			password: "",
			want: []string{
				"Passwords must be at least 6 characters.",
				"Passwords must have at least one non alphanumeric character.",
				"Passwords must have at least one digit ('0'-'9').",
				"Passwords must have at least one lowercase ('a'-'z').",
				"Passwords must have at least one uppercase ('A'-'Z').",
			},
		},
		{name: "unicode letter counts as non alphanumeric", password: "Passw0rdé", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := policy.Messages(tt.password)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Messages(%q) = %v, want %v", tt.password, got, tt.want)
			}
		})
	}
}

func TestPasswordStrengthRule(t *testing.T) {
	policy := NewPasswordPolicy(RequirePasswordStrengthRule(3))

	if got := policy.Check("Passw0rd!"); len(got) != 1 || got[0].Code != "PasswordTooWeak" {
		t.Errorf("expected common password to be rejected, got %v", got)
	}
	if got := policy.Check("vR7#qL9!mZ2@wX5$kP"); len(got) != 0 {
		t.Errorf("expected strong password to pass, got %v", got)
	}
}

func TestNilPolicyAcceptsEverything(t *testing.T) {
	var policy *PasswordPolicy
	if got := policy.Messages("x"); got != nil {
		t.Errorf("expected nil, got %v", got)
	}
}
