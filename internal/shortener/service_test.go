package shortener

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jayjaytrn/URLMapper/internal/db/memorystorage"
	"github.com/jayjaytrn/URLMapper/internal/metrics"
	"github.com/jayjaytrn/URLMapper/internal/types"
	"github.com/jayjaytrn/URLMapper/internal/urlshort"
)

// scriptedGenerator hands out codes in order without consulting the store.
type scriptedGenerator struct {
	codes []string
	calls int
}

func (g *scriptedGenerator) Generate(_ context.Context, _ urlshort.ExistsFunc) (string, error) {
	code := g.codes[g.calls%len(g.codes)]
	g.calls++
	return code, nil
}

// racingStorage reports every code as free, so conflicts only surface on insert.
type racingStorage struct {
	*memorystorage.Manager
}

func (racingStorage) Exists(context.Context, string) (bool, error) { return false, nil }

func newTestService(t *testing.T) (*Service, *memorystorage.Manager) {
	t.Helper()
	store := memorystorage.NewManager()
	return NewService(store, Options{}), store
}

func TestShorten_Idempotent(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	first, created, err := s.Shorten(ctx, "https://example.com")
	if err != nil || !created {
		t.Fatalf("first Shorten = %+v, %v, %v", first, created, err)
	}

	second, created, err := s.Shorten(ctx, "https://example.com")
	if err != nil {
		t.Fatalf("second Shorten error: %v", err)
	}
	if created {
		t.Error("expected existing mapping on second call")
	}
	if second != first {
		t.Errorf("expected %+v, got %+v", first, second)
	}
}

func TestShorten_RoundTrip(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	m, _, err := s.Shorten(ctx, "https://go.dev/doc")
	if err != nil {
		t.Fatalf("Shorten error: %v", err)
	}
	if len(m.ShortCode) != urlshort.CodeLength {
		t.Errorf("unexpected code %q", m.ShortCode)
	}

	got, err := s.Resolve(ctx, m.ShortCode)
	if err != nil || got != "https://go.dev/doc" {
		t.Fatalf("Resolve = %q, %v", got, err)
	}

	if err = s.Delete(ctx, m.ID); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	var notFound *types.NotFoundError
	if _, err = s.Resolve(ctx, m.ShortCode); !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError after delete, got %v", err)
	}
}

func TestShorten_Empty(t *testing.T) {
	s, store := newTestService(t)

	var validation *types.ValidationError
	if _, _, err := s.Shorten(context.Background(), ""); !errors.As(err, &validation) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if all, _ := store.List(context.Background()); len(all) != 0 {
		t.Fatalf("expected empty store, got %v", all)
	}
}

func TestShorten_RetriesInsertConflict(t *testing.T) {
	store := memorystorage.NewManager()
	ctx := context.Background()
	if _, err := store.Insert(ctx, "https://taken.example", "aaaaaa"); err != nil {
		t.Fatal(err)
	}

	m := metrics.New()
	gen := &scriptedGenerator{codes: []string{"aaaaaa", "bbbbbb"}}
	s := NewService(racingStorage{store}, Options{Generator: gen, Metrics: m})

	got, created, err := s.Shorten(ctx, "https://new.example")
	if err != nil || !created {
		t.Fatalf("Shorten = %+v, %v, %v", got, created, err)
	}
	if got.ShortCode != "bbbbbb" {
		t.Errorf("expected second candidate, got %q", got.ShortCode)
	}
	if gen.calls != 2 {
		t.Errorf("expected 2 generator calls, got %d", gen.calls)
	}

	// the original mapping is untouched
	if long, _ := s.Resolve(ctx, "aaaaaa"); long != "https://taken.example" {
		t.Errorf("aaaaaa now resolves to %q", long)
	}
}

func TestShorten_InsertAttemptsExhausted(t *testing.T) {
	store := memorystorage.NewManager()
	ctx := context.Background()
	if _, err := store.Insert(ctx, "https://taken.example", "aaaaaa"); err != nil {
		t.Fatal(err)
	}

	m := metrics.New()
	gen := &scriptedGenerator{codes: []string{"aaaaaa"}}
	s := NewService(racingStorage{store}, Options{Generator: gen, MaxInsertAttempts: 3, Metrics: m})

	var conflict *types.ConflictError
	if _, _, err := s.Shorten(ctx, "https://new.example"); !errors.As(err, &conflict) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	if gen.calls != 3 {
		t.Errorf("expected 3 attempts, got %d", gen.calls)
	}
	if all, _ := store.List(ctx); len(all) != 1 {
		t.Errorf("expected store unchanged, got %v", all)
	}

	body := scrape(t, m)
	for _, want := range []string{
		`shortener_shorten_total{outcome="conflict_retry"} 3`,
		`shortener_shorten_total{outcome="exhausted"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics missing %q", want)
		}
	}
}

func TestShorten_GeneratorExhausted(t *testing.T) {
	store := memorystorage.NewManager()
	ctx := context.Background()
	if _, err := store.Insert(ctx, "https://taken.example", "aaaaaa"); err != nil {
		t.Fatal(err)
	}

	s := NewService(store, Options{Generator: fixedDraw{code: "aaaaaa"}})

	var conflict *types.ConflictError
	if _, _, err := s.Shorten(ctx, "https://new.example"); !errors.As(err, &conflict) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
}

// fixedDraw asks exists about code and reports a conflict when it is taken.
type fixedDraw struct {
	code string
}

func (f fixedDraw) Generate(ctx context.Context, exists urlshort.ExistsFunc) (string, error) {
	taken, err := exists(ctx, f.code)
	if err != nil {
		return "", err
	}
	if taken {
		return "", &types.ConflictError{ShortCode: f.code}
	}
	return f.code, nil
}

func TestShorten_Metrics(t *testing.T) {
	m := metrics.New()
	s := NewService(memorystorage.NewManager(), Options{Metrics: m})
	ctx := context.Background()

	for range 2 {
		if _, _, err := s.Shorten(ctx, "https://example.com"); err != nil {
			t.Fatal(err)
		}
	}

	body := scrape(t, m)
	for _, want := range []string{
		`shortener_shorten_total{outcome="created"} 1`,
		`shortener_shorten_total{outcome="deduplicated"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics missing %q", want)
		}
	}
}

func TestUpdate(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	m, _, err := s.Shorten(ctx, "https://old.example")
	if err != nil {
		t.Fatal(err)
	}

	var validation *types.ValidationError
	if _, err = s.Update(ctx, m.ID, ""); !errors.As(err, &validation) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if got, _ := s.Get(ctx, m.ID); got != m {
		t.Fatalf("mapping changed after rejected update: %+v", got)
	}

	updated, err := s.Update(ctx, m.ID, "https://new.example")
	if err != nil {
		t.Fatalf("Update error: %v", err)
	}
	if updated.ShortCode != m.ShortCode || updated.LongURL != "https://new.example" {
		t.Errorf("unexpected update result %+v", updated)
	}
	if long, _ := s.Resolve(ctx, m.ShortCode); long != "https://new.example" {
		t.Errorf("code resolves to %q after update", long)
	}
}

func TestGetMissing(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	var notFound *types.NotFoundError
	if _, err := s.Get(ctx, 9999); !errors.As(err, &notFound) {
		t.Errorf("Get: expected NotFoundError, got %v", err)
	}
	if _, err := s.Update(ctx, 9999, "https://x.example"); !errors.As(err, &notFound) {
		t.Errorf("Update: expected NotFoundError, got %v", err)
	}
	if err := s.Delete(ctx, 9999); !errors.As(err, &notFound) {
		t.Errorf("Delete: expected NotFoundError, got %v", err)
	}
}

func TestList(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	views, err := s.List(ctx, "http://localhost:8080")
	if err != nil || len(views) != 0 {
		t.Fatalf("List on empty store = %v, %v", views, err)
	}

	a, _, _ := s.Shorten(ctx, "https://a.example")
	b, _, _ := s.Shorten(ctx, "https://b.example")

	views, err = s.List(ctx, "http://localhost:8080/")
	if err != nil {
		t.Fatal(err)
	}
	if len(views) != 2 || views[0].ID != a.ID || views[1].ID != b.ID {
		t.Fatalf("unexpected list %+v", views)
	}
	if views[0].AccessURL != "http://localhost:8080/"+a.ShortCode {
		t.Errorf("unexpected access url %q", views[0].AccessURL)
	}
}

func TestView(t *testing.T) {
	m := types.URLMapping{ID: 1, LongURL: "https://example.com", ShortCode: "abc123"}
	for _, base := range []string{"http://short.example", "http://short.example/"} {
		if got := View(m, base).AccessURL; got != "http://short.example/abc123" {
			t.Errorf("View(%q) access url = %q", base, got)
		}
	}
}

func scrape(t *testing.T, m *metrics.Metrics) string {
	t.Helper()
	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	return rr.Body.String()
}
