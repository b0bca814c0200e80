package security

import (
	"fmt"
	"strings"

	zxcvbn "github.com/nbutton23/zxcvbn-go"
)

// PasswordValidationError represents a single password policy violation.
type PasswordValidationError struct {
	Code    string
	Message string
}

// Error implements error for PasswordValidationError.
func (e *PasswordValidationError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

// PasswordRule validates a password according to a specific policy rule.
type PasswordRule interface {
	Validate(password string, userInputs []string) *PasswordValidationError
}

// PasswordRuleFunc adapts a function to be used as a PasswordRule.
type PasswordRuleFunc func(password string, userInputs []string) *PasswordValidationError

// Validate executes the underlying rule function.
func (f PasswordRuleFunc) Validate(password string, userInputs []string) *PasswordValidationError {
	return f(password, userInputs)
}

// PasswordPolicy applies every rule and reports all violations in rule order.
type PasswordPolicy struct {
	rules []PasswordRule
}

// NewPasswordPolicy constructs a policy with the provided rules.
func NewPasswordPolicy(rules ...PasswordRule) *PasswordPolicy {
	copied := make([]PasswordRule, len(rules))
	copy(copied, rules)
	return &PasswordPolicy{rules: copied}
}

// DefaultPasswordPolicy mirrors the classic identity defaults: six characters with
// a digit, a lowercase, an uppercase and a non-alphanumeric character. A positive
// minScore adds a zxcvbn strength rule on top.
func DefaultPasswordPolicy(minLength, minScore int) *PasswordPolicy {
	rules := []PasswordRule{
		MinLengthRule(minLength),
		RequireNonAlphanumericRule(),
		RequireDigitRule(),
		RequireLowercaseRule(),
		RequireUppercaseRule(),
	}
	if minScore > 0 {
		rules = append(rules, RequirePasswordStrengthRule(minScore))
	}
	return NewPasswordPolicy(rules...)
}

// Check returns every violation, nil when the password is acceptable.
// userInputs (email, names) feed the strength rule.
func (p *PasswordPolicy) Check(password string, userInputs ...string) []*PasswordValidationError {
	if p == nil {
		return nil
	}

	var violations []*PasswordValidationError
	for _, rule := range p.rules {
		if err := rule.Validate(password, userInputs); err != nil {
			violations = append(violations, err)
		}
	}
	return violations
}

// Messages returns the human readable messages of Check.
func (p *PasswordPolicy) Messages(password string, userInputs ...string) []string {
	violations := p.Check(password, userInputs...)
	if len(violations) == 0 {
		return nil
	}

	messages := make([]string, len(violations))
	for i, v := range violations {
		messages[i] = v.Message
	}
	return messages
}

// MinLengthRule ensures the password has at least min characters.
func MinLengthRule(min int) PasswordRule {
	return PasswordRuleFunc(func(password string, _ []string) *PasswordValidationError {
		if len([]rune(password)) < min {
			return &PasswordValidationError{
				Code:    "PasswordTooShort",
				Message: fmt.Sprintf("Passwords must be at least %d characters.", min),
			}
		}
		return nil
	})
}

// RequireNonAlphanumericRule ensures the password has a character that is neither letter nor digit.
func RequireNonAlphanumericRule() PasswordRule {
	return PasswordRuleFunc(func(password string, _ []string) *PasswordValidationError {
		if strings.IndexFunc(password, func(r rune) bool { return !isASCIILetterOrDigit(r) }) >= 0 {
			return nil
		}
		return &PasswordValidationError{
			Code:    "PasswordRequiresNonAlphanumeric",
			Message: "Passwords must have at least one non alphanumeric character.",
		}
	})
}

// RequireDigitRule ensures the password contains at least one digit.
func RequireDigitRule() PasswordRule {
	return PasswordRuleFunc(func(password string, _ []string) *PasswordValidationError {
		if strings.IndexFunc(password, isASCIIDigit) >= 0 {
			return nil
		}
		return &PasswordValidationError{
			Code:    "PasswordRequiresDigit",
			Message: "Passwords must have at least one digit ('0'-'9').",
		}
	})
}

// RequireLowercaseRule ensures the password contains at least one lowercase letter.
func RequireLowercaseRule() PasswordRule {
	return PasswordRuleFunc(func(password string, _ []string) *PasswordValidationError {
		if strings.IndexFunc(password, isASCIILower) >= 0 {
			return nil
		}
		return &PasswordValidationError{
			Code:    "PasswordRequiresLower",
			Message: "Passwords must have at least one lowercase ('a'-'z').",
		}
	})
}

// RequireUppercaseRule ensures the password contains at least one uppercase letter.
func RequireUppercaseRule() PasswordRule {
	return PasswordRuleFunc(func(password string, _ []string) *PasswordValidationError {
		if strings.IndexFunc(password, isASCIIUpper) >= 0 {
			return nil
		}
		return &PasswordValidationError{
			Code:    "PasswordRequiresUpper",
			Message: "Passwords must have at least one uppercase ('A'-'Z').",
		}
	})
}

// RequirePasswordStrengthRule enforces a minimum zxcvbn score to reject weak passwords.
func RequirePasswordStrengthRule(minScore int) PasswordRule {
	if minScore > 4 {
		minScore = 4
	}
	return PasswordRuleFunc(func(password string, userInputs []string) *PasswordValidationError {
		if minScore <= 0 {
			return nil
		}

		result := zxcvbn.PasswordStrength(password, userInputs)
		if result.Score >= minScore {
			return nil
		}

		return &PasswordValidationError{
			Code:    "PasswordTooWeak",
			Message: "Password is too easy to guess. Choose a less common password.",
		}
	})
}

func isASCIIDigit(r rune) bool { return r >= '0' && r <= '9' }
func isASCIILower(r rune) bool { return r >= 'a' && r <= 'z' }
func isASCIIUpper(r rune) bool { return r >= 'A' && r <= 'Z' }

func isASCIILetterOrDigit(r rune) bool {
	return isASCIIDigit(r) || isASCIILower(r) || isASCIIUpper(r)
}
