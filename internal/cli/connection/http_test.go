package connection

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewHTTPClient_BaseURL(t *testing.T) {
	tests := []struct {
		server string
		want   string
	}{
		{"localhost:5080", "http://localhost:5080"},
		{"http://localhost:5080/", "http://localhost:5080"},
		{"https://pcd.example.com", "https://pcd.example.com"},
	}
	for _, tt := range tests {
		if got := NewHTTPClient(tt.server).BaseURL(); got != tt.want {
			t.Errorf("NewHTTPClient(%q).BaseURL() = %q, want %q", tt.server, got, tt.want)
		}
	}
}

func TestHTTPClient_Headers(t *testing.T) {
	var gotUA, gotCT string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotCT = r.Header.Get("Content-Type")
		w.Write([]byte(`{"code":"OK","data":{}}`))
	}))
	defer srv.Close()

	resp, err := NewHTTPClient(srv.URL).Post(context.Background(), "/x", map[string]int{"a": 1})
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if !strings.HasPrefix(gotUA, "pcd-cli/") {
		t.Errorf("User-Agent = %q", gotUA)
	}
	if gotCT != "application/json" {
		t.Errorf("Content-Type = %q", gotCT)
	}
}

func TestParseResponse(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantErr  bool
		wantCode string
		check    func(*testing.T, map[string]any)
	}{
		{
			name:   "success",
			status: http.StatusOK,
			body:   `{"code":"OK","message":"success","data":{"position":7}}`,
			check: func(t *testing.T, m map[string]any) {
				if m["position"] != float64(7) {
					t.Errorf("position = %v", m["position"])
				}
			},
		},
		{
			name:     "error envelope",
			status:   http.StatusNotFound,
			body:     `{"code":"PCD-SESS-4040","message":"session not found","errno":"EBADF","request_id":"req-1"}`,
			wantErr:  true,
			wantCode: "PCD-SESS-4040",
		},
		{
			name:    "error without envelope",
			status:  http.StatusBadGateway,
			body:    `<html>bad gateway</html>`,
			wantErr: true,
		},
		{
			name:    "invalid json",
			status:  http.StatusOK,
			body:    `{`,
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			rec.WriteHeader(tt.status)
			rec.WriteString(tt.body)

			var out map[string]any
			err := ParseResponse(rec.Result(), &out)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseResponse() error = %v, wantErr %v", err, tt.wantErr)
			}
			var apiErr *APIError
			if tt.wantCode != "" {
				if !errors.As(err, &apiErr) || apiErr.Code != tt.wantCode {
					t.Errorf("error = %v, want code %s", err, tt.wantCode)
				}
				if apiErr.Status != tt.status || apiErr.RequestID != "req-1" {
					t.Errorf("APIError = %+v", apiErr)
				}
			}
			if tt.check != nil {
				tt.check(t, out)
			}
		})
	}
}

func TestAPIError_Error(t *testing.T) {
	err := &APIError{Code: "PCD-DEV-5071", Message: "storage full", Errno: "ENOMEM"}
	if got := err.Error(); got != "[PCD-DEV-5071] storage full (ENOMEM)" {
		t.Errorf("Error() = %q", got)
	}
	err = &APIError{Status: 502, Message: "request failed with status 502"}
	if got := err.Error(); got != "request failed with status 502" {
		t.Errorf("Error() = %q", got)
	}
}

func TestParseResponse_NilTarget(t *testing.T) {
	body, _ := json.Marshal(map[string]any{"code": "OK", "data": map[string]any{"closed": true}})
	rec := httptest.NewRecorder()
	rec.Write(body)
	if err := ParseResponse(rec.Result(), nil); err != nil {
		t.Errorf("ParseResponse(nil target) = %v", err)
	}
}
