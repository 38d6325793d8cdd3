package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"brokerdash/internal/broker"
)

func TestFromBroker(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"invalid request", &broker.InvalidRequestError{Operation: "balance", Field: "account"}, http.StatusBadRequest},
		{"token", &broker.TokenAcquisitionError{Source: "kis oauth", Status: 403}, http.StatusServiceUnavailable},
		{"page fetch", &broker.PageFetchError{Operation: "daily_orders", Page: 2, Status: 500}, http.StatusBadGateway},
		{"upstream", &broker.UpstreamError{Operation: "balance", Status: 200, Code: "OPSQ0002"}, http.StatusBadGateway},
		{"page limit", &broker.PaginationLimitExceeded{Operation: "daily_orders", Limit: 50}, http.StatusBadGateway},
		{"wrapped upstream", fmt.Errorf("loading: %w", &broker.UpstreamError{Operation: "balance"}), http.StatusBadGateway},
		{"app error", Validation("bad date"), http.StatusBadRequest},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := FromBroker(tc.err)
			if status := HTTPStatus(got); status != tc.wantStatus {
				t.Errorf("HTTPStatus(FromBroker(%v)) = %d, want %d", tc.err, status, tc.wantStatus)
			}
		})
	}
}

func TestFromBroker_Nil(t *testing.T) {
	if got := FromBroker(nil); got != nil {
		t.Errorf("FromBroker(nil) = %v, want nil", got)
	}
}

func TestFromBroker_InvalidRequestField(t *testing.T) {
	got := FromBroker(&broker.InvalidRequestError{Operation: "stock_period_pnl", Field: "start_date", Reason: "expected YYYYMMDD for"})
	if got.Details["field"] != "start_date" {
		t.Errorf("Details = %v, want field start_date", got.Details)
	}
	if !IsValidation(got) {
		t.Errorf("IsValidation(%v) = false, want true", got)
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{NotFound("route"), http.StatusNotFound},
		{New(ErrRateLimit, "slow down").WithDetails(map[string]any{"retry_after": 1}), http.StatusTooManyRequests},
		{Upstream("kis down", nil), http.StatusBadGateway},
		{Unavailable("no token", nil), http.StatusServiceUnavailable},
		{errors.New("plain"), http.StatusInternalServerError},
	}

	for _, tc := range tests {
		if got := HTTPStatus(tc.err); got != tc.want {
			t.Errorf("HTTPStatus(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}
