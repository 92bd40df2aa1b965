package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/JonMunkholm/registros/internal/logging"
	chimw "github.com/go-chi/chi/v5/middleware"
)

func TestTrustedRealIP(t *testing.T) {
	tests := []struct {
		name    string
		proxies []string
		remote  string
		headers map[string]string
		want    string
	}{
		{"no proxies configured", nil, "10.0.0.1:1234", map[string]string{"X-Real-IP": "1.2.3.4"}, "10.0.0.1:1234"},
		{"untrusted source", []string{"10.0.0.0/8"}, "192.168.1.5:1234", map[string]string{"X-Real-IP": "1.2.3.4"}, "192.168.1.5:1234"},
		{"trusted x-real-ip", []string{"10.0.0.0/8"}, "10.1.2.3:1234", map[string]string{"X-Real-IP": "1.2.3.4"}, "1.2.3.4"},
		{"trusted forwarded-for", []string{"10.0.0.0/8"}, "10.1.2.3:1234", map[string]string{"X-Forwarded-For": "5.6.7.8, 10.1.2.3"}, "5.6.7.8"},
		{"single address entry", []string{"127.0.0.1"}, "127.0.0.1:80", map[string]string{"X-Real-IP": "9.9.9.9"}, "9.9.9.9"},
		{"invalid header ignored", []string{"10.0.0.0/8"}, "10.1.2.3:1234", map[string]string{"X-Real-IP": "not-an-ip"}, "10.1.2.3:1234"},
		{"invalid proxy entry skipped", []string{"bogus"}, "10.1.2.3:1234", map[string]string{"X-Real-IP": "1.2.3.4"}, "10.1.2.3:1234"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			h := TrustedRealIP(tt.proxies)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = r.RemoteAddr
			}))

			req := httptest.NewRequest(http.MethodGet, "/registros", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)

			if got != tt.want {
				t.Errorf("RemoteAddr = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(logging.NewHandler(&buf, "info", "text")))
	defer slog.SetDefault(prev)

	h := chimw.RequestID(Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"Registro no encontrado"}`))
	})))

	req := httptest.NewRequest(http.MethodDelete, "/registros/1", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}

	out := buf.String()
	for _, want := range []string{"level=WARN", "method=DELETE", "path=/registros/1", "status=404", "request_id=", "duration_ms="} {
		if !strings.Contains(out, want) {
			t.Errorf("log line missing %q: %s", want, out)
		}
	}
}
