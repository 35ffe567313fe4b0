package saucenao

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
)

func newTestClient(t *testing.T, cfg Config, handler http.HandlerFunc) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg.BaseURL = server.URL
	client, err := New(cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return client
}

func jsonHandler(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, body)
	}
}

const successBody = `{
	"header": {
		"status": 0,
		"short_limit": "4",
		"long_limit": "100",
		"short_remaining": 3,
		"long_remaining": 96
	},
	"results": [
		{
			"header": {
				"similarity": "93.21",
				"thumbnail": "https://img3.saucenao.com/thumb1.jpg",
				"index_id": 5,
				"index_name": "Index #5: pixiv Images - 1234.jpg"
			},
			"data": {
				"ext_urls": ["https://www.pixiv.net/artworks/1234"],
				"title": "artwork",
				"member_id": 5678
			}
		},
		{
			"header": {
				"similarity": "61.50",
				"thumbnail": "https://img3.saucenao.com/thumb2.jpg",
				"index_id": 7,
				"index_name": "Index #7: Unknown Index"
			},
			"data": {
				"ext_urls": ["https://example.com/7"]
			}
		}
	]
}`

func TestClient_Search(t *testing.T) {
	client := newTestClient(t, Config{APIKey: "test-key"}, jsonHandler(successBody))

	results, err := client.Search(context.Background(), "https://i.imgur.com/W42kkKS.jpg", nil)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	if len(results) != 2 {
		t.Fatalf("Search() returned %d results, want 2", len(results))
	}

	first := results[0]
	if first.Site != "pixiv Images" {
		t.Errorf("Site = %q, want %q", first.Site, "pixiv Images")
	}
	if first.Index != 5 || first.IndexID != 5 {
		t.Errorf("Index = %d, IndexID = %d, want 5, 5", first.Index, first.IndexID)
	}
	if first.Similarity != 93.21 {
		t.Errorf("Similarity = %v, want 93.21", first.Similarity)
	}
	if string(first.AdditionalFields["member_id"]) != "5678" {
		t.Errorf("AdditionalFields[member_id] = %s, want 5678", first.AdditionalFields["member_id"])
	}

	// index 7 is not in the catalog, so the raw label is kept
	second := results[1]
	if second.Site != "Index #7: Unknown Index" {
		t.Errorf("Site = %q, want raw index_name fallback", second.Site)
	}

	rl := client.RateLimit()
	want := RateLimit{ShortLimit: 4, LongLimit: 100, ShortRemaining: 3, LongRemaining: 96}
	if rl != want {
		t.Errorf("RateLimit() = %+v, want %+v", rl, want)
	}
}

func TestClient_Search_ProviderError(t *testing.T) {
	body := `{"header": {"status": -2, "message": "Invalid API key"}}`
	client := newTestClient(t, Config{APIKey: "bad-key"}, jsonHandler(body))

	_, err := client.Search(context.Background(), "https://example.com/image.jpg", nil)

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Search() error = %v, want *APIError", err)
	}
	if apiErr.Code != -2 {
		t.Errorf("Code = %d, want -2", apiErr.Code)
	}
	if apiErr.Message != "Invalid API key" {
		t.Errorf("Message = %q, want %q", apiErr.Message, "Invalid API key")
	}

	// counters stay at the construction defaults on a provider error
	rl := client.RateLimit()
	want := RateLimit{ShortLimit: 12, LongLimit: 200, ShortRemaining: 12, LongRemaining: 200}
	if rl != want {
		t.Errorf("RateLimit() = %+v, want untouched defaults %+v", rl, want)
	}
}

func similarityBody(sims ...string) string {
	body := `{"header": {"status": 0, "short_limit": "4", "long_limit": "100", "short_remaining": 3, "long_remaining": 90}, "results": [`
	for i, s := range sims {
		if i > 0 {
			body += ","
		}
		body += fmt.Sprintf(`{
			"header": {"similarity": %q, "thumbnail": "t", "index_id": 5, "index_name": "Index #5: pixiv Images"},
			"data": {"ext_urls": ["https://example.com/%d"]}
		}`, s, i)
	}
	return body + `]}`
}

func TestClient_Search_SimilarityFilter(t *testing.T) {
	client := newTestClient(t, Config{}, jsonHandler(similarityBody("10.0", "60.0", "90.0")))

	minSim := 50.0
	results, err := client.Search(context.Background(), "https://example.com/image.jpg", &SearchOptions{MinSimilarity: &minSim})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	if len(results) != 2 {
		t.Fatalf("Search() returned %d results, want 2", len(results))
	}
	if results[0].Similarity != 60.0 || results[1].Similarity != 90.0 {
		t.Errorf("similarities = %v, %v, want 60, 90 in input order", results[0].Similarity, results[1].Similarity)
	}
}

func TestClient_Search_DefaultMinSimilarity(t *testing.T) {
	client := newTestClient(t, Config{}, jsonHandler(similarityBody("10.0", "60.0", "90.0")))

	if err := client.SetMinSimilarity(75); err != nil {
		t.Fatalf("SetMinSimilarity() error = %v", err)
	}

	results, err := client.Search(context.Background(), "https://example.com/image.jpg", nil)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 1 || results[0].Similarity != 90.0 {
		t.Errorf("results = %+v, want only the 90.0 row", results)
	}
}

func TestClient_Search_EmptyFilter(t *testing.T) {
	body := `{"header": {"status": 0, "short_limit": "4", "long_limit": "100", "short_remaining": 3, "long_remaining": 90}, "results": [
		{"header": {"similarity": "99.0", "thumbnail": "t", "index_id": 21, "index_name": "Index #21: Anime"}, "data": {}},
		{"header": {"similarity": "80.0", "thumbnail": "t", "index_id": 5, "index_name": "Index #5: pixiv Images"}, "data": {"ext_urls": ["https://example.com/1"]}}
	]}`
	client := newTestClient(t, Config{EmptyFilter: true}, jsonHandler(body))

	results, err := client.Search(context.Background(), "https://example.com/image.jpg", nil)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	// the 99% row has no ext_urls and must be dropped despite its similarity
	if len(results) != 1 || results[0].Index != 5 {
		t.Errorf("results = %+v, want only the pixiv row", results)
	}
}

func TestClient_Search_ValidationBeforeIO(t *testing.T) {
	requested := false
	client := newTestClient(t, Config{}, func(w http.ResponseWriter, r *http.Request) {
		requested = true
	})

	tooMany := uint32(1000)
	tooLow := -1.0
	tooHigh := 100.5

	tests := []struct {
		name string
		opts *SearchOptions
	}{
		{"num_results over cap", &SearchOptions{NumResults: &tooMany}},
		{"min_similarity negative", &SearchOptions{MinSimilarity: &tooLow}},
		{"min_similarity over 100", &SearchOptions{MinSimilarity: &tooHigh}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.Search(context.Background(), "https://example.com/image.jpg", tt.opts)
			if !errors.Is(err, ErrInvalidParameters) {
				t.Errorf("Search() error = %v, want ErrInvalidParameters", err)
			}
		})
	}

	if requested {
		t.Error("validation failures must not reach the network")
	}
}

func TestClient_Search_MalformedSimilarity(t *testing.T) {
	client := newTestClient(t, Config{}, jsonHandler(similarityBody("ninety")))

	_, err := client.Search(context.Background(), "https://example.com/image.jpg", nil)
	if !errors.Is(err, ErrInvalidParse) {
		t.Errorf("Search() error = %v, want ErrInvalidParse", err)
	}
}

func TestClient_Search_NoResults(t *testing.T) {
	body := `{"header": {"status": 0, "short_limit": "4", "long_limit": "100", "short_remaining": 2, "long_remaining": 80}}`
	client := newTestClient(t, Config{}, jsonHandler(body))

	results, err := client.Search(context.Background(), "https://example.com/image.jpg", nil)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 0 {
		t.Errorf("Search() returned %d results, want 0", len(results))
	}

	// the header still counts against the quota
	if rl := client.RateLimit(); rl.ShortRemaining != 2 || rl.LongRemaining != 80 {
		t.Errorf("RateLimit() = %+v, want short=2 long=80", rl)
	}
}

func TestClient_Search_RemainingNeverIncreases(t *testing.T) {
	call := 0
	client := newTestClient(t, Config{}, func(w http.ResponseWriter, r *http.Request) {
		call++
		fmt.Fprintf(w, `{"header": {"status": 0, "short_limit": "4", "long_limit": "100", "short_remaining": %d, "long_remaining": %d}}`, 4-call, 100-call)
	})

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		before := client.RateLimit()
		if _, err := client.Search(ctx, "https://example.com/image.jpg", nil); err != nil {
			t.Fatalf("Search() #%d error = %v", i+1, err)
		}
		after := client.RateLimit()
		if after.ShortRemaining > before.ShortRemaining || after.LongRemaining > before.LongRemaining {
			t.Errorf("remaining increased: before=%+v after=%+v", before, after)
		}
	}
}

func TestClient_Search_TransportAndDecodeErrors(t *testing.T) {
	t.Run("non-json on http error", func(t *testing.T) {
		client := newTestClient(t, Config{}, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			fmt.Fprint(w, "<html>down</html>")
		})
		_, err := client.Search(context.Background(), "https://example.com/image.jpg", nil)
		if !errors.Is(err, ErrRequestFailed) {
			t.Errorf("Search() error = %v, want ErrRequestFailed", err)
		}
	})

	t.Run("garbage on 200", func(t *testing.T) {
		client := newTestClient(t, Config{}, jsonHandler("not json at all"))
		_, err := client.Search(context.Background(), "https://example.com/image.jpg", nil)
		if !errors.Is(err, ErrInvalidResponse) {
			t.Errorf("Search() error = %v, want ErrInvalidResponse", err)
		}
	})

	t.Run("unreachable server", func(t *testing.T) {
		client, err := New(Config{BaseURL: "http://127.0.0.1:1"}, zap.NewNop())
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}
		_, err = client.Search(context.Background(), "https://example.com/image.jpg", nil)
		if !errors.Is(err, ErrRequestFailed) {
			t.Errorf("Search() error = %v, want ErrRequestFailed", err)
		}
	})
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"num_results over cap", Config{NumResults: 1000}},
		{"min_similarity negative", Config{MinSimilarity: -0.1}},
		{"min_similarity over 100", Config{MinSimilarity: 100.1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg, zap.NewNop())
			if !errors.Is(err, ErrInvalidParameters) {
				t.Errorf("New() error = %v, want ErrInvalidParameters", err)
			}
		})
	}
}

func TestSetMinSimilarity_Validation(t *testing.T) {
	client, err := New(Config{}, zap.NewNop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := client.SetMinSimilarity(150); !errors.Is(err, ErrInvalidParameters) {
		t.Errorf("SetMinSimilarity(150) error = %v, want ErrInvalidParameters", err)
	}
	if got := client.MinSimilarity(); got != 0 {
		t.Errorf("MinSimilarity() = %v after rejected set, want 0", got)
	}

	if err := client.SetMinSimilarity(42.5); err != nil {
		t.Fatalf("SetMinSimilarity(42.5) error = %v", err)
	}
	if got := client.MinSimilarity(); got != 42.5 {
		t.Errorf("MinSimilarity() = %v, want 42.5", got)
	}
}

func TestClient_SearchJSON(t *testing.T) {
	client := newTestClient(t, Config{}, jsonHandler(similarityBody("90.0")))

	compact, err := client.SearchJSON(context.Background(), "https://example.com/image.jpg", nil)
	if err != nil {
		t.Fatalf("SearchJSON() error = %v", err)
	}
	if compact == "" || compact[0] != '[' {
		t.Errorf("SearchJSON() = %q, want a JSON array", compact)
	}

	pretty, err := client.SearchPrettyJSON(context.Background(), "https://example.com/image.jpg", nil)
	if err != nil {
		t.Fatalf("SearchPrettyJSON() error = %v", err)
	}
	if len(pretty) <= len(compact) {
		t.Errorf("pretty output should be longer than compact: %d <= %d", len(pretty), len(compact))
	}
}
