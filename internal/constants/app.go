package constants

// Application Information
const (
	AppName    = "Tracker Auth Service"
	AppVersion = "1.0.0"
)

// Environment Types
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

// Default Application Settings
const (
	DefaultPort        = "8080"
	DefaultEnvironment = EnvDevelopment
)

// Cache Key Prefixes
const (
	CacheKeyUserToken = "user-token"
)

// Token purposes for single-use user tokens
const (
	TokenPurposeResetPassword = "ResetPassword"
)
