package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/swwwjjw/barometer-pulkovo/internal/headhunter"
	"github.com/swwwjjw/barometer-pulkovo/internal/roles"
	"github.com/swwwjjw/barometer-pulkovo/internal/store"
)

type memoryStore struct {
	mu        sync.Mutex
	snapshots [][]headhunter.Item
}

func (m *memoryStore) Save(_ context.Context, items []headhunter.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots = append(m.snapshots, items)
	return nil
}

func (m *memoryStore) Load(_ context.Context) ([]headhunter.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.snapshots) == 0 {
		return nil, store.ErrNoSnapshot
	}
	return m.snapshots[len(m.snapshots)-1], nil
}

func (m *memoryStore) Close() error { return nil }

type fakeSearcher struct {
	mu      sync.Mutex
	calls   []*headhunter.SearchParams
	results map[string][]headhunter.Item
	fail    map[string]bool
}

func (f *fakeSearcher) Search(_ context.Context, params *headhunter.SearchParams, _ int) ([]headhunter.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, params)

	key := strings.Join(params.ProfessionalRoles, ",")
	if params.Text != "" {
		key = "text:" + params.Text
	}
	if f.fail[key] {
		return nil, errors.New("bad status: 400 Bad Request")
	}
	return f.results[key], nil
}

func item(id string) headhunter.Item {
	return map[string]any{"id": id}
}

var catalog = roles.Catalog{
	{Name: "Грузчик на склад", IDs: []string{"52", "31"}},
	{Name: "Агент по сервису", IDs: []string{"89"}},
	{Name: "Агент по сервису в Бизнес-зал", IDs: []string{"89"}},
	{Name: "Кинолог", IDs: []string{"90", "120"}},
}

func TestRoleGroupsDeduplicates(t *testing.T) {
	groups := roleGroups(catalog)

	assert.Equal(t, [][]string{{"31", "52"}, {"89"}, {"120", "90"}}, groups)
}

func TestFetchOnce(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)
	searcher := &fakeSearcher{
		results: map[string][]headhunter.Item{
			"31,52": {item("1"), item("2")},
			"89":    {item("2"), item("3")},
		},
		fail: map[string]bool{"120,90": true},
	}
	st := &memoryStore{}

	cfg := DefaultConfig()
	f := New(cfg, searcher, st, catalog, zap.New(core))

	count, err := f.FetchOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	require.Len(t, st.snapshots, 1)
	var ids []string
	for _, it := range st.snapshots[0] {
		ids = append(ids, headhunter.ItemID(it))
	}
	assert.Equal(t, []string{"1", "2", "3"}, ids)

	require.Len(t, searcher.calls, 3)
	for _, p := range searcher.calls {
		assert.Equal(t, []int{DefaultArea}, p.Areas)
		assert.Equal(t, "99", p.PerPage)
	}

	assert.Equal(t, 1, observed.FilterMessage("fetching search group failed").Len())
}

func TestKeywordGroups(t *testing.T) {
	got := keywordGroups([]string{"  машинист   катка ", "", "Машинист катка", "гбр охрана"})

	assert.Equal(t, []string{"машинист катка", "гбр охрана"}, got)
}

func TestFetchOnceKeywords(t *testing.T) {
	searcher := &fakeSearcher{
		results: map[string][]headhunter.Item{
			"63":                  {item("1")},
			"text:машинист катка": {item("1"), item("2")},
			"text:гбр охрана":     {item("3")},
		},
	}
	st := &memoryStore{}

	cfg := DefaultConfig()
	cfg.Keywords = []string{"машинист катка", "гбр охрана"}
	f := New(cfg, searcher, st, roles.Catalog{{Name: "Машинист катка", IDs: []string{"63"}}}, nil)

	count, err := f.FetchOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	require.Len(t, searcher.calls, 3)
	var texts []string
	for _, p := range searcher.calls {
		if p.Text != "" {
			assert.Empty(t, p.ProfessionalRoles)
			texts = append(texts, p.Text)
		}
	}
	assert.ElementsMatch(t, []string{"машинист катка", "гбр охрана"}, texts)
}

func TestFetchOnceNothingFetched(t *testing.T) {
	st := &memoryStore{}
	f := New(DefaultConfig(), &fakeSearcher{}, st, catalog, nil)

	_, err := f.FetchOnce(context.Background())
	assert.ErrorIs(t, err, ErrNothingFetched)
	assert.Empty(t, st.snapshots)
}

func TestFetchOnceAgainstAPI(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		assert.Equal(t, "/vacancies", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("area"))

		role := r.URL.Query().Get("professional_role")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"items":    []any{map[string]any{"id": "v" + role, "professional_roles": []any{map[string]any{"id": role}}}},
			"found":    1,
			"pages":    1,
			"page":     0,
			"per_page": 99,
		})
	}))
	defer server.Close()

	client := headhunter.New(nil, "")
	client.APIURL = server.URL

	st := &memoryStore{}
	f := New(DefaultConfig(), client, st, roles.Catalog{{Name: "Машинист катка", IDs: []string{"63"}}, {Name: "Инженер склада", IDs: []string{"81"}}}, nil)

	count, err := f.FetchOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.EqualValues(t, 2, requests.Load())

	items, err := st.Load(context.Background())
	require.NoError(t, err)
	vacancies, groupErrs := headhunter.DecodeVacancies(items)
	assert.Empty(t, groupErrs)
	ids := make([]string, 0, vacancies.Len())
	for _, v := range vacancies.Items {
		ids = append(ids, v.ID)
	}
	assert.Contains(t, ids, "v63")
}

func TestEvery(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var runs atomic.Int32
	done := make(chan struct{})
	go func() {
		defer close(done)
		Every(ctx, 10*time.Millisecond, "test", true, func(context.Context) error {
			if runs.Add(1) >= 3 {
				cancel()
			}
			return errors.New("ignored")
		}, nil)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop after cancel")
	}
	assert.GreaterOrEqual(t, runs.Load(), int32(3))
}
