package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestValidateDate(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"20240102", true},
		{"20240229", true},
		{"20230229", false},
		{"2024-01-02", false},
		{"2024012", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := ValidateDate(tt.in); got != tt.want {
			t.Errorf("ValidateDate(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestValidateDateRange(t *testing.T) {
	if !ValidateDateRange("20240101", "20240131") {
		t.Error("ValidateDateRange(20240101, 20240131) = false, want true")
	}
	if ValidateDateRange("20240131", "20240101") {
		t.Error("ValidateDateRange(reversed) = true, want false")
	}
}

func TestValidateExchangeAndCurrency(t *testing.T) {
	if !ValidateExchange("NASD") || ValidateExchange("nasd") || ValidateExchange("KRX") {
		t.Error("ValidateExchange accepted or rejected the wrong codes")
	}
	if !ValidateCurrency("USD") || ValidateCurrency("usd") || ValidateCurrency("US") {
		t.Error("ValidateCurrency accepted or rejected the wrong codes")
	}
}

func TestSanitizeString(t *testing.T) {
	if got := SanitizeString("  NASD\x00 "); got != "NASD" {
		t.Errorf("SanitizeString() = %q, want %q", got, "NASD")
	}
}

func TestValidationErrors_WriteJSON(t *testing.T) {
	var v ValidationErrors
	if v.HasErrors() {
		t.Fatal("HasErrors() = true on empty set")
	}
	v.Add("startDate", "required")
	v.Add("endDate", "required")

	rec := httptest.NewRecorder()
	v.WriteJSON(rec)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	var body struct {
		Message string            `json:"message"`
		Errors  []ValidationError `json:"errors"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if body.Message != "startDate: required; endDate: required" || len(body.Errors) != 2 {
		t.Errorf("body = %+v", body)
	}
}
