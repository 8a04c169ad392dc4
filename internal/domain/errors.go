package domain

// APIError is the problem-details body of every failed request
type APIError struct {
	Type   string            `json:"type"`
	Title  string            `json:"title"`
	Status int               `json:"status"`
	Detail string            `json:"detail,omitempty"`
	Errors map[string]string `json:"errors,omitempty"`
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return e.Title
}

// tagMessages covers validator tags that formatValidationError does not word itself
var tagMessages = map[string]string{
	"gte": "Must be greater than or equal to the minimum value",
	"gt":  "Must be greater than the minimum value",
	"lte": "Must be less than or equal to the maximum value",
	"lt":  "Must be less than the maximum value",
	"len": "Must be exactly the specified length",
}

// GetValidationMessage returns a readable message for a validator tag
func GetValidationMessage(tag string) string {
	if msg, ok := tagMessages[tag]; ok {
		return msg
	}
	return "Validation failed: " + tag
}

// Error types of APIError
const (
	ErrorTypeValidation   = "validation_error"
	ErrorTypeNotFound     = "not_found"
	ErrorTypeBadRequest   = "bad_request"
	ErrorTypeConflict     = "conflict"
	ErrorTypeUnauthorized = "unauthorized"
	ErrorTypeForbidden    = "forbidden"
	ErrorTypeInternal     = "internal_error"
	ErrorTypeRateLimited  = "rate_limited"
)
