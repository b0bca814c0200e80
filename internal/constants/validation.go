package constants

// Field Length Limits
const (
	MinPasswordLength = 6
	MaxPasswordLength = 100
	MaxNameLength     = 100
	MaxEmailLength    = 255
	MaxOrgNameLength  = 200
)

// Lockout policy defaults
const (
	DefaultMaxFailedAccessAttempts = 5
	DefaultLockoutMinutes          = 15
)

// Validation Patterns
const (
	EmailPattern = `^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`
)
