package main

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/jayjaytrn/URLMapper/config"
)

func setupApp(b *testing.B) *app {
	b.Helper()
	cfg := &config.Config{
		ServerAddress:     "localhost:8080",
		BaseURL:           "http://localhost:8080",
		StorageType:       config.StorageMemory,
		MaxInsertAttempts: 5,
		MaxCodeDraws:      1000,
	}

	a, err := newApp(cfg, zap.NewNop().Sugar())
	if err != nil {
		b.Fatal(err)
	}
	return a
}

func BenchmarkCreateURL(b *testing.B) {
	a := setupApp(b)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		body := fmt.Sprintf(`{"longurl":"https://example.com/%d"}`, i)
		req := httptest.NewRequest(http.MethodPost, "/api/urls", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		a.router.ServeHTTP(w, req)
	}
}

func BenchmarkResolve(b *testing.B) {
	a := setupApp(b)

	// Добавляем тестовый URL
	a.storage.Insert(context.Background(), "https://example.com", "abcd12")

	req := httptest.NewRequest(http.MethodGet, "/abcd12", nil)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		w := httptest.NewRecorder()
		a.router.ServeHTTP(w, req)
	}
}

func BenchmarkListURLs(b *testing.B) {
	a := setupApp(b)
	for i := 0; i < 100; i++ {
		a.storage.Insert(context.Background(), fmt.Sprintf("https://example.com/%d", i), fmt.Sprintf("code%02d", i))
	}

	req := httptest.NewRequest(http.MethodGet, "/api/urls", nil)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		w := httptest.NewRecorder()
		a.router.ServeHTTP(w, req)
	}
}

func BenchmarkPing(b *testing.B) {
	a := setupApp(b)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		w := httptest.NewRecorder()
		a.router.ServeHTTP(w, req)
	}
}
