// File: cmd/server/main_test.go
package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func corsRequest(allowedOrigins []string, origin string) *httptest.ResponseRecorder {
	handler := corsMiddleware(allowedOrigins)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	req := httptest.NewRequest("GET", "/chats", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestCORSEchoesMatchedOrigin(t *testing.T) {
	rec := corsRequest([]string{"https://partshub.ru"}, "https://partshub.ru")

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://partshub.ru" {
		t.Fatalf("expected the matched origin echoed, got %q", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Credentials"); got != "true" {
		t.Fatalf("expected credentials allowed, got %q", got)
	}
}

// Подстановочный список тоже отдаёт конкретный Origin запроса: ответ "*"
// вместе с Allow-Credentials браузеры отклоняют.
func TestCORSWildcardNeverCombinesStarWithCredentials(t *testing.T) {
	rec := corsRequest([]string{"*"}, "https://example.com")

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://example.com" {
		t.Fatalf("expected the request origin echoed, got %q", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Credentials"); got != "true" {
		t.Fatalf("expected credentials allowed, got %q", got)
	}
}

func TestCORSOmitsHeadersOnNoMatch(t *testing.T) {
	rec := corsRequest([]string{"https://partshub.ru"}, "https://evil.example")

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("expected no allow-origin header, got %q", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Credentials"); got != "" {
		t.Fatalf("expected no credentials header, got %q", got)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("request itself must still be served, got %d", rec.Code)
	}
}

func TestCORSPreflightShortCircuits(t *testing.T) {
	handler := corsMiddleware([]string{"https://partshub.ru"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("preflight must not reach the next handler")
	}))
	req := httptest.NewRequest("OPTIONS", "/chats", nil)
	req.Header.Set("Origin", "https://partshub.ru")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 preflight, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Methods"); got == "" {
		t.Fatal("expected allowed methods on preflight")
	}
}
