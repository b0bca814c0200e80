package constants

// Headers read or echoed by the middleware
const (
	HeaderAuthorization  = "Authorization"
	HeaderXRequestID     = "X-Request-ID"
	HeaderXCorrelationID = "X-Correlation-ID"
	HeaderXRealIP        = "X-Real-IP"
)
