package httpclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

type quote struct {
	Amount string `json:"amount"`
}

func TestRequest_RetriesThenDecodes(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		if got := r.URL.Query().Get("token"); got != "a b" {
			t.Errorf("token query = %q", got)
		}
		w.Write([]byte(`{"amount":"42"}`))
	}))
	defer srv.Close()

	client, err := NewInstrumentedClient(
		WithBaseURL(srv.URL),
		WithProviderName("test"),
		WithRetry(RetryPolicy{Max: 3, WaitMin: time.Millisecond, WaitMax: 2 * time.Millisecond}),
	)
	if err != nil {
		t.Fatal(err)
	}

	var out quote
	resp, err := client.NewRequest().
		SetQueryParam("token", "a b").
		SetResult(&out).
		Get(context.Background(), "/quote")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !resp.IsSuccess() || out.Amount != "42" {
		t.Fatalf("unexpected response %d %+v", resp.StatusCode, out)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
}

func TestRequest_ErrorHandlerSeesFinalResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"code":500,"message":"route not found"}`))
	}))
	defer srv.Close()

	client, err := NewInstrumentedClient(
		WithBaseURL(srv.URL),
		WithRetry(RetryPolicy{Max: 1, WaitMin: time.Millisecond, WaitMax: time.Millisecond}),
	)
	if err != nil {
		t.Fatal(err)
	}

	_, err = client.NewRequestWithOptions(WithResponseErrorHandler(JSONErrorHandler)).
		SetBody(map[string]string{"a": "b"}).
		Post(context.Background(), "/swap")

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.StatusCode != 500 || apiErr.Code != "500" || apiErr.Message != "route not found" {
		t.Errorf("unexpected api error %+v", apiErr)
	}
}

func TestParseAPIError_Shapes(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantCode string
		wantMsg  string
	}{
		{"code message", `{"code":"AMOUNT_TOO_LOW","message":"min $10"}`, "AMOUNT_TOO_LOW", "min $10"},
		{"error id", `{"errorId":"ERROR_LOW_GIVE_AMOUNT","errorMessage":"too low"}`, "ERROR_LOW_GIVE_AMOUNT", "too low"},
		{"nested", `{"error":{"code":-32000,"message":"bad"}}`, "-32000", "bad"},
		{"string error", `{"error":"unsupported"}`, "", "unsupported"},
		{"plain text", `gateway timeout`, "", "gateway timeout"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := ParseAPIError(400, []byte(tt.body))
			if e.Code != tt.wantCode || e.Message != tt.wantMsg {
				t.Errorf("got code=%q msg=%q", e.Code, e.Message)
			}
		})
	}
}
