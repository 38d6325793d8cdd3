package middleware

import (
	"encoding/json"
	"net/http"
	"regexp"
	"strings"
	"time"
)

// ValidationError represents a validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

// Error implements the error interface.
func (v ValidationErrors) Error() string {
	if len(v.Errors) == 0 {
		return "validation failed"
	}
	var msgs []string
	for _, e := range v.Errors {
		msgs = append(msgs, e.Field+": "+e.Message)
	}
	return strings.Join(msgs, "; ")
}

// HasErrors returns true if there are validation errors.
func (v ValidationErrors) HasErrors() bool {
	return len(v.Errors) > 0
}

// Add adds a validation error.
func (v *ValidationErrors) Add(field, message string) {
	v.Errors = append(v.Errors, ValidationError{Field: field, Message: message})
}

// WriteJSON writes the validation errors as a 400 response. The top-level
// message matches the API's error shape.
func (v ValidationErrors) WriteJSON(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	json.NewEncoder(w).Encode(struct {
		Message string            `json:"message"`
		Errors  []ValidationError `json:"errors"`
	}{v.Error(), v.Errors})
}

// Common validation patterns.
var (
	dateRegex     = regexp.MustCompile(`^\d{8}$`)
	currencyRegex = regexp.MustCompile(`^[A-Z]{3}$`)
)

// KIS overseas exchange codes.
var exchanges = map[string]bool{
	"NASD": true, "NYSE": true, "AMEX": true,
	"SEHK": true, "SHAA": true, "SZAA": true,
	"TKSE": true, "HASE": true, "VNSE": true,
}

// ValidateDate checks a YYYYMMDD calendar date.
func ValidateDate(date string) bool {
	if !dateRegex.MatchString(date) {
		return false
	}
	_, err := time.Parse("20060102", date)
	return err == nil
}

// ValidateDateRange checks that both dates are valid and start <= end.
func ValidateDateRange(start, end string) bool {
	return ValidateDate(start) && ValidateDate(end) && start <= end
}

// ValidateCurrency validates a currency code (3 uppercase letters).
func ValidateCurrency(code string) bool {
	return currencyRegex.MatchString(code)
}

// ValidateExchange checks a KIS overseas exchange code.
func ValidateExchange(code string) bool {
	return exchanges[code]
}

// ValidateRequired checks if a string is non-empty.
func ValidateRequired(value string) bool {
	return strings.TrimSpace(value) != ""
}

// SanitizeString trims whitespace and removes control characters.
func SanitizeString(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\n' && r != '\r' && r != '\t' {
			return -1
		}
		return r
	}, s)
}
