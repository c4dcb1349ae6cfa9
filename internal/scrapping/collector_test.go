package scrapping

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/valkhart/grimoire-backend/internal/clients/dofusdb"
	"github.com/valkhart/grimoire-backend/internal/platform/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	return log
}

func testClient(t *testing.T, baseURL string) dofusdb.Client {
	t.Helper()
	return dofusdb.NewClientWithOptions(testLogger(t), dofusdb.Options{
		BaseURL: baseURL,
		RPS:     1000,
		Burst:   1000,
	})
}

// fakeListServer serves a fixed number of records and silently caps the
// requested page size, the way the real upstream does.
func fakeListServer(t *testing.T, total, serverCap int, skips *[]int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		skip, _ := strconv.Atoi(q.Get("$skip"))
		limit, _ := strconv.Atoi(q.Get("$limit"))
		if limit <= 0 || limit > serverCap {
			limit = serverCap
		}
		if skips != nil {
			*skips = append(*skips, skip)
		}

		var data []map[string]any
		for i := skip; i < skip+limit && i < total; i++ {
			data = append(data, map[string]any{
				"id":   i + 1,
				"name": map[string]any{"fr": fmt.Sprintf("record-%d", i+1)},
			})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"total": total,
			"limit": limit,
			"skip":  skip,
			"data":  data,
		})
	}))
}

func TestCollect_WalksAllPagesWithServerCappedLimit(t *testing.T) {
	var skips []int
	srv := fakeListServer(t, 120, 40, &skips)
	defer srv.Close()

	c := NewCollector(testLogger(t), testClient(t, srv.URL))
	cfg := EntityConfig{Name: "item", Endpoint: "/items"}

	got, err := c.Collect(context.Background(), cfg, nil, CollectOptions{MaxItems: 500})
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if got.Returned != 120 {
		t.Fatalf("expected 120 records, got %d", got.Returned)
	}
	if got.Pages != 3 {
		t.Fatalf("expected 3 pages, got %d", got.Pages)
	}
	// Skip arithmetic must follow the server's effective limit, not the
	// requested one, or records between 40 and 50 would be silently skipped.
	want := []int{0, 40, 80}
	if len(skips) != len(want) {
		t.Fatalf("expected skips %v, got %v", want, skips)
	}
	for i := range want {
		if skips[i] != want[i] {
			t.Fatalf("expected skips %v, got %v", want, skips)
		}
	}
}

func TestCollect_StopsAtMaxItems(t *testing.T) {
	srv := fakeListServer(t, 500, 50, nil)
	defer srv.Close()

	c := NewCollector(testLogger(t), testClient(t, srv.URL))
	cfg := EntityConfig{Name: "item", Endpoint: "/items"}

	got, err := c.Collect(context.Background(), cfg, nil, CollectOptions{MaxItems: 75})
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if got.Returned != 75 {
		t.Fatalf("expected 75 records, got %d", got.Returned)
	}
}

func TestCollect_BoundsAreClamped(t *testing.T) {
	if got := clampBound(0, DefaultMaxItems, HardMaxItems); got != DefaultMaxItems {
		t.Fatalf("expected default for zero, got %d", got)
	}
	if got := clampBound(999999, DefaultMaxItems, HardMaxItems); got != HardMaxItems {
		t.Fatalf("expected hard ceiling, got %d", got)
	}
	if got := clampBound(100, DefaultMaxItems, HardMaxItems); got != 100 {
		t.Fatalf("expected requested value, got %d", got)
	}
}

func TestFetchPage_TruncatesFilterValuesToCap(t *testing.T) {
	var seen int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = len(r.URL.Query()["id[$in][]"])
		_ = json.NewEncoder(w).Encode(map[string]any{
			"total": 0, "limit": 50, "skip": 0, "data": []any{},
		})
	}))
	defer srv.Close()

	c := NewCollector(testLogger(t), testClient(t, srv.URL))
	cfg := EntityConfig{
		Name:     "item",
		Endpoint: "/items",
		Filters: map[string]FilterConfig{
			"id": {Param: "id[$in][]", MaxValues: 3},
		},
	}

	vals := []string{"1", "2", "3", "4", "5"}
	if _, err := c.FetchPage(context.Background(), cfg, map[string][]string{"id": vals}, 0, 50, CollectOptions{}); err != nil {
		t.Fatalf("fetch page: %v", err)
	}
	if seen != 3 {
		t.Fatalf("expected 3 filter values after truncation, got %d", seen)
	}
}

func TestFetchPage_RejectsUnknownFilter(t *testing.T) {
	c := NewCollector(testLogger(t), testClient(t, "http://127.0.0.1:0"))
	cfg := EntityConfig{Name: "item", Endpoint: "/items"}

	_, err := c.FetchPage(context.Background(), cfg, map[string][]string{"bogus": {"1"}}, 0, 50, CollectOptions{})
	if err == nil {
		t.Fatalf("expected error for unsupported filter")
	}
}

func TestFetchOne_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := NewCollector(testLogger(t), testClient(t, srv.URL))
	cfg := EntityConfig{Name: "item", Endpoint: "/items"}

	_, err := c.FetchOne(context.Background(), cfg, "12345", CollectOptions{})
	if !errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestFetchOne_ReturnsRecord(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/items/42" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":   42,
			"name": map[string]any{"fr": "Gelano"},
		})
	}))
	defer srv.Close()

	c := NewCollector(testLogger(t), testClient(t, srv.URL))
	cfg := EntityConfig{Name: "item", Endpoint: "/items"}

	rec, err := c.FetchOne(context.Background(), cfg, "42", CollectOptions{})
	if err != nil {
		t.Fatalf("fetch one: %v", err)
	}
	id, ok := rec.ID()
	if !ok || id != 42 {
		t.Fatalf("expected id 42, got %d (ok=%v)", id, ok)
	}
	if got := rec.Localized("name", "fr"); got != "Gelano" {
		t.Fatalf("expected name Gelano, got %q", got)
	}
}
