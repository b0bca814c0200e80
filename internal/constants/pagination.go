package constants

// List query parameters
const (
	QueryParamPage   = "page"
	QueryParamLimit  = "limit"
	QueryParamSearch = "search"
)

// Defaults applied when a list parameter is absent
const (
	DefaultPage   = "1"
	DefaultLimit  = "10"
	DefaultSearch = ""
)

// Bounds enforced by ParsePaginationParams
const (
	MinPage  = 1
	MinLimit = 1
	MaxLimit = 100
)
