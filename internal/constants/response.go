package constants

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// Standard Response Field Keys
const (
	// Pagination fields
	ResponseFieldTotal     = "total"
	ResponseFieldPage      = "page"
	ResponseFieldPageTotal = "page_total"
	ResponseFieldData      = "data"

	// Common response fields
	ResponseFieldMessage = "message"
	ResponseFieldDetails = "details"
	ResponseFieldErrors  = "errors"
	ResponseFieldSuccess = "success"
)

// PaginationParams holds the parsed list query
type PaginationParams struct {
	Page   int    // Page number from user request (default: 1)
	Limit  int    // Limit per page from user request (default: 10)
	Offset int    // Calculated offset (page - 1) * limit
	Search string // Free text search, trimmed
}

// ParsePaginationParams parses page, limit and search query parameters
func ParsePaginationParams(c *gin.Context) PaginationParams {
	pageStr := c.DefaultQuery(QueryParamPage, DefaultPage)
	limitStr := c.DefaultQuery(QueryParamLimit, DefaultLimit)

	page, _ := strconv.Atoi(pageStr)
	limit, _ := strconv.Atoi(limitStr)

	// Validate pagination parameters
	if page < MinPage {
		page = MinPage
	}
	if limit < MinLimit {
		limit = MinLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	return PaginationParams{
		Page:   page,
		Limit:  limit,
		Offset: (page - 1) * limit,
		Search: strings.TrimSpace(c.DefaultQuery(QueryParamSearch, DefaultSearch)),
	}
}

// PageTotal returns the number of pages needed for total rows.
func (p PaginationParams) PageTotal(total int64) int {
	if p.Limit <= 0 || total <= 0 {
		return 0
	}
	return int((total + int64(p.Limit) - 1) / int64(p.Limit))
}

// Response Format Functions
func BuildListResponse(total int64, page int, pageTotal int, data any) map[string]any {
	return map[string]any{
		ResponseFieldTotal:     total,
		ResponseFieldPage:      page,
		ResponseFieldPageTotal: pageTotal,
		ResponseFieldData:      data,
	}
}

func BuildErrorResponse(message string, details any) map[string]any {
	response := map[string]any{
		ResponseFieldMessage: message,
	}

	if details != nil {
		response[ResponseFieldDetails] = details
	}

	return response
}

func BuildSuccessResponse(message string) map[string]any {
	return map[string]any{
		ResponseFieldMessage: message,
	}
}

// BuildResultResponse is the uniform success/errors envelope of the auth endpoints
func BuildResultResponse(success bool, errors []string) map[string]any {
	if errors == nil {
		errors = []string{}
	}
	return map[string]any{
		ResponseFieldSuccess: success,
		ResponseFieldErrors:  errors,
	}
}
