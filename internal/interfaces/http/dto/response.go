package dto

import "time"

// Response is the envelope of every JSON reply
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorInfo  `json:"error,omitempty"`
	Meta    *Meta       `json:"meta,omitempty"`
}

// ErrorInfo describes a failed request
type ErrorInfo struct {
	Code      string             `json:"code" example:"BID_TOO_LOW"`
	Message   string             `json:"message" example:"bid must be at least 110.00"`
	RequestID string             `json:"request_id,omitempty"`
	Details   []ValidationDetail `json:"details,omitempty"`
	Timestamp time.Time          `json:"timestamp"`
}

// ValidationDetail describes a single invalid request field
type ValidationDetail struct {
	Field   string `json:"field" example:"email"`
	Message string `json:"message" example:"must be a valid email address"`
	Tag     string `json:"tag,omitempty" example:"email"`
	Value   string `json:"value,omitempty"`
}

// Meta is the pagination block of list replies
type Meta struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
}

const defaultPageSize = 20

func NewSuccessResponse(data interface{}) Response {
	return Response{Success: true, Data: data}
}

// NewSuccessResponseWithMeta wraps one page of a list. A non-positive page
// size falls back to 20.
func NewSuccessResponseWithMeta(data interface{}, total int64, page, pageSize int) Response {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	pages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return Response{
		Success: true,
		Data:    data,
		Meta:    &Meta{Total: total, Page: page, PageSize: pageSize, TotalPages: pages},
	}
}

// NewErrorResponseWithRequestID builds an error envelope. Shared domain
// codes are normalized to their ERR_ form.
func NewErrorResponseWithRequestID(code, message, requestID string) Response {
	return Response{
		Error: &ErrorInfo{
			Code:      NormalizeErrorCode(code),
			Message:   message,
			RequestID: requestID,
			Timestamp: time.Now(),
		},
	}
}

// NewValidationErrorResponse creates a validation error response with field details
func NewValidationErrorResponse(message, requestID string, details []ValidationDetail) Response {
	resp := NewErrorResponseWithRequestID(ErrCodeValidation, message, requestID)
	resp.Error.Details = details
	return resp
}
