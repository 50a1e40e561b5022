package response

import "handyhub/pkg/pagination"

// Response is the envelope every endpoint returns
type Response struct {
	Success bool              `json:"success"`
	Message string            `json:"message,omitempty"`
	Data    interface{}       `json:"data,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// PaginatedResponse adds page metadata next to the data
type PaginatedResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
	Page    int         `json:"page"`
	Limit   int         `json:"limit"`
	Total   int64       `json:"total"`
	Pages   int         `json:"pages"`
}

// Success returns a standard success response wrapping the data
func Success(message string, data interface{}) Response {
	return Response{
		Success: true,
		Message: message,
		Data:    data,
	}
}

// Error returns a standard error response; fields is optional field-level detail
func Error(message string, fields map[string]string) Response {
	return Response{
		Success: false,
		Message: message,
		Errors:  fields,
	}
}

// Paginated wraps a page of results
func Paginated(data interface{}, meta pagination.Meta) PaginatedResponse {
	return PaginatedResponse{
		Success: true,
		Data:    data,
		Page:    meta.Page,
		Limit:   meta.Limit,
		Total:   meta.Total,
		Pages:   meta.Pages,
	}
}
