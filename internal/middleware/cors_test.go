package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCORS(t *testing.T) {
	t.Parallel()

	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	tests := []struct {
		name        string
		allowed     []string
		method      string
		origin      string
		wantStatus  int
		wantOrigin  string
		wantCredits bool
	}{
		{"explicit origin", []string{"https://app.example"}, http.MethodGet, "https://app.example", http.StatusTeapot, "https://app.example", true},
		{"wildcard no credentials", []string{"*"}, http.MethodGet, "https://other.example", http.StatusTeapot, "https://other.example", false},
		{"unknown origin", []string{"https://app.example"}, http.MethodGet, "https://evil.example", http.StatusTeapot, "", false},
		{"preflight", []string{"https://app.example"}, http.MethodOptions, "https://app.example", http.StatusNoContent, "https://app.example", true},
		{"empty allow list", []string{""}, http.MethodGet, "https://app.example", http.StatusTeapot, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(tt.method, "/api/sessions", nil)
			req.Header.Set("Origin", tt.origin)
			w := httptest.NewRecorder()

			CORS(tt.allowed)(next).ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if got := w.Header().Get("Access-Control-Allow-Origin"); got != tt.wantOrigin {
				t.Errorf("allow-origin = %q, want %q", got, tt.wantOrigin)
			}
			if got := w.Header().Get("Access-Control-Allow-Credentials") == "true"; got != tt.wantCredits {
				t.Errorf("allow-credentials = %v, want %v", got, tt.wantCredits)
			}
		})
	}
}
