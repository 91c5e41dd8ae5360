package headhunter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"

	"go.uber.org/zap"
)

func TestBuildParams(t *testing.T) {
	q := buildParams(&SearchParams{
		Areas:             []int{2},
		ProfessionalRoles: []string{"31", "52"},
		PerPage:           "99",
	})

	if got := q.Get("area"); got != "2" {
		t.Fatalf("expected area=2, got %q", got)
	}
	if got := q["professional_role"]; len(got) != 2 || got[0] != "31" || got[1] != "52" {
		t.Fatalf("unexpected professional_role values: %v", got)
	}
	if got := q.Get("per_page"); got != "99" {
		t.Fatalf("expected per_page=99, got %q", got)
	}
	if q.Has("text") || q.Has("period") || q.Has("order_by") {
		t.Fatalf("expected empty values to be skipped: %v", q)
	}
}

func newPagedServer(t *testing.T, pages int, calls *int32) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)

		if r.URL.Path != SearchPath {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "" {
			t.Errorf("did not expect authorization header without a token")
		}

		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		resp := map[string]any{
			"items":    []map[string]any{{"id": strconv.Itoa(page)}},
			"found":    pages,
			"pages":    pages,
			"page":     page,
			"per_page": 1,
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func TestSearchFollowsPages(t *testing.T) {
	var calls int32
	srv := newPagedServer(t, 3, &calls)
	defer srv.Close()

	client := New(zap.NewNop(), "")
	client.APIURL = srv.URL

	items, err := client.Search(context.Background(), &SearchParams{Areas: []int{2}}, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(items) != 3 || calls != 3 {
		t.Fatalf("expected 3 items over 3 calls, got %d items / %d calls", len(items), calls)
	}
}

func TestSearchRespectsMaxPages(t *testing.T) {
	var calls int32
	srv := newPagedServer(t, 5, &calls)
	defer srv.Close()

	client := New(zap.NewNop(), "")
	client.APIURL = srv.URL

	items, err := client.Search(context.Background(), &SearchParams{}, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(items) != 2 || calls != 2 {
		t.Fatalf("expected 2 items over 2 calls, got %d items / %d calls", len(items), calls)
	}
}

func TestSearchBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	client := New(nil, "token")
	client.APIURL = srv.URL

	if _, err := client.Search(context.Background(), &SearchParams{}, 0); err == nil {
		t.Fatalf("expected error for bad status")
	}
}
