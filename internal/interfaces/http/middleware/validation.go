package middleware

import (
	"errors"
	"net/http"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/bidhouse/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var (
	usernameTagRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)
	setupOnce        sync.Once
)

// SetupValidator configures gin's validator: JSON field names in errors plus
// the marketplace tags
//
//	username    letters, digits and underscores, starting with a letter
//	dgt=N       decimal.Decimal strictly greater than N
//	dgte=N      decimal.Decimal greater than or equal to N
//	dlte=N      decimal.Decimal less than or equal to N
func SetupValidator() {
	setupOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
			}
			return name
		})
		_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
			return usernameTagRegex.MatchString(fl.Field().String())
		})
		_ = v.RegisterValidation("dgt", decimalCompare(func(d, bound decimal.Decimal) bool { return d.GreaterThan(bound) }))
		_ = v.RegisterValidation("dgte", decimalCompare(func(d, bound decimal.Decimal) bool { return d.GreaterThanOrEqual(bound) }))
		_ = v.RegisterValidation("dlte", decimalCompare(func(d, bound decimal.Decimal) bool { return d.LessThanOrEqual(bound) }))
	})
}

func decimalCompare(ok func(d, bound decimal.Decimal) bool) validator.Func {
	return func(fl validator.FieldLevel) bool {
		d, isDecimal := fl.Field().Interface().(decimal.Decimal)
		if !isDecimal {
			return false
		}
		bound, err := decimal.NewFromString(fl.Param())
		if err != nil {
			return false
		}
		return ok(d, bound)
	}
}

// FormatValidationErrors formats validation errors into a standard response
func FormatValidationErrors(err error, requestID string) dto.Response {
	var details []dto.ValidationDetail

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		for _, e := range validationErrors {
			details = append(details, dto.ValidationDetail{
				Field:   e.Field(),
				Message: getValidationMessage(e),
				Tag:     e.Tag(),
			})
		}
		return dto.NewValidationErrorResponse("Request validation failed", requestID, details)
	}

	// Malformed JSON or a value of the wrong type
	return dto.NewValidationErrorResponse("Invalid request body: "+err.Error(), requestID, nil)
}

// HandleValidationError returns a validation error response, or 413 when
// binding failed on an oversized body
func HandleValidationError(c *gin.Context, err error) {
	if IsBodyTooLarge(err) {
		AbortBodyTooLarge(c)
		return
	}
	c.AbortWithStatusJSON(http.StatusBadRequest, FormatValidationErrors(err, GetRequestID(c)))
}

// getValidationMessage returns a human-readable validation message
func getValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Invalid email format"
	case "username":
		return "Must start with a letter and contain only letters, numbers and underscores"
	case "min":
		if e.Type().Kind() == reflect.String {
			return "Must be at least " + e.Param() + " characters"
		}
		return "Must be at least " + e.Param()
	case "max":
		if e.Type().Kind() == reflect.String {
			return "Must be at most " + e.Param() + " characters"
		}
		return "Must be at most " + e.Param()
	case "len":
		return "Must be exactly " + e.Param() + " characters"
	case "uuid":
		return "Invalid UUID format"
	case "oneof":
		return "Must be one of: " + e.Param()
	case "gte", "dgte":
		return "Must be greater than or equal to " + e.Param()
	case "lte", "dlte":
		return "Must be less than or equal to " + e.Param()
	case "gt", "dgt":
		return "Must be greater than " + e.Param()
	case "lt":
		return "Must be less than " + e.Param()
	case "gtfield":
		return "Must be after " + e.Param()
	case "numeric":
		return "Must be numeric"
	default:
		return "Invalid value"
	}
}
