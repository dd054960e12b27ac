package dto

import "time"

// APIResponse is the envelope returned by every record endpoint
type APIResponse struct {
	Success   bool         `json:"success"`
	Data      interface{}  `json:"data,omitempty"`
	Error     *ErrorDetail `json:"error,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
}

// NewSuccessResponse wraps data in a successful envelope
func NewSuccessResponse(data interface{}) APIResponse {
	return APIResponse{
		Success:   true,
		Data:      data,
		Timestamp: time.Now(),
	}
}

// HealthResponse reports storage reachability
type HealthResponse struct {
	Status  string `json:"status"`
	Backend string `json:"backend"`
}

// FieldSchema describes one field of a category
type FieldSchema struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	Unique     bool   `json:"unique,omitempty"`
	References string `json:"references,omitempty"`
}

// CategorySchema describes a category and its ordered fields
type CategorySchema struct {
	Category string        `json:"category"`
	Fields   []FieldSchema `json:"fields"`
}
