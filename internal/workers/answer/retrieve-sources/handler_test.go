package retrievesources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	apperrors "health-assistant/internal/common/errors"
	"health-assistant/internal/common/logger"
	"health-assistant/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	records []models.SourceRecord
	err     error
	queries []Query
}

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) Search(ctx context.Context, q Query) ([]models.SourceRecord, error) {
	s.queries = append(s.queries, q)
	return s.records, s.err
}

func createTestConfig() *Config {
	return &Config{
		Provider:       "serper",
		APIKey:         "test-api-key",
		Timeout:        time.Second,
		MaxResults:     5,
		TrustedDomains: []string{"who.int", "fiocruz.br"},
	}
}

func createSerperResponse(n int) string {
	organic := make([]map[string]string, n)
	for i := range organic {
		organic[i] = map[string]string{
			"title":   fmt.Sprintf("Título %d", i+1),
			"snippet": fmt.Sprintf("Trecho %d", i+1),
			"link":    fmt.Sprintf("https://who.int/%d", i+1),
		}
	}
	data, _ := json.Marshal(map[string]interface{}{"organic": organic})
	return string(data)
}

func TestHandler_Retrieve_UsesTrustedSetByDefault(t *testing.T) {
	provider := &stubProvider{records: []models.SourceRecord{{Title: "a", Snippet: "b", Link: "https://who.int/a"}}}
	handler := NewHandler(createTestConfig(), provider, logger.NewTestLogger(t))

	out := handler.Retrieve(context.Background(), &Input{Query: "dengue"})

	require.Len(t, provider.queries, 1)
	assert.Equal(t, []string{"who.int", "fiocruz.br"}, provider.queries[0].Domains)
	assert.Equal(t, 5, provider.queries[0].Num)
	assert.Len(t, out.Sources, 1)
}

func TestHandler_Retrieve_DomainOverride(t *testing.T) {
	provider := &stubProvider{}
	handler := NewHandler(createTestConfig(), provider, logger.NewTestLogger(t))

	handler.Retrieve(context.Background(), &Input{Query: "câncer", Domains: []string{"inca.gov.br"}})

	require.Len(t, provider.queries, 1)
	assert.Equal(t, []string{"inca.gov.br"}, provider.queries[0].Domains)
}

func TestHandler_Retrieve_FailureDegradesToEmpty(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"timeout", fmt.Errorf("%w: deadline", ErrSearchTimeout)},
		{"failure", fmt.Errorf("%w: status 500", ErrSearchFailed)},
		{"unexpected", errors.New("boom")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewHandler(createTestConfig(), &stubProvider{err: tt.err}, logger.NewTestLogger(t))

			out := handler.Retrieve(context.Background(), &Input{Query: "q"})

			require.NotNil(t, out.Sources)
			assert.Empty(t, out.Sources)
		})
	}
}

func TestHandler_Retrieve_CleansAndTruncates(t *testing.T) {
	records := []models.SourceRecord{
		{Title: " A ", Snippet: " a ", Link: " https://who.int/a "},
		{Title: "sem link", Snippet: "x", Link: ""},
	}
	for i := 0; i < 6; i++ {
		records = append(records, models.SourceRecord{Title: "t", Snippet: "s", Link: fmt.Sprintf("https://who.int/%d", i)})
	}
	handler := NewHandler(createTestConfig(), &stubProvider{records: records}, logger.NewTestLogger(t))

	out := handler.Retrieve(context.Background(), &Input{Query: "q"})

	require.Len(t, out.Sources, 5)
	assert.Equal(t, models.SourceRecord{Title: "A", Snippet: "a", Link: "https://who.int/a"}, out.Sources[0])
	assert.Equal(t, "https://who.int/0", out.Sources[1].Link)
}

func TestSerperProvider_Search(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "test-api-key", r.Header.Get("X-API-KEY"))

		var body serperRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "What are symptoms of dengue? (site:who.int OR site:fiocruz.br)", body.Q)
		assert.Equal(t, 5, body.Num)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(createSerperResponse(3)))
	}))
	defer server.Close()

	config := createTestConfig()
	config.BaseURL = server.URL
	handler := NewHandler(config, NewSerperProvider(config), logger.NewTestLogger(t))

	out := handler.Retrieve(context.Background(), &Input{Query: "What are symptoms of dengue?"})

	require.Len(t, out.Sources, 3)
	assert.Equal(t, "Título 1", out.Sources[0].Title)
	assert.Equal(t, "https://who.int/3", out.Sources[2].Link)
}

func TestSerperProvider_EmptyOrganic(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"searchParameters":{}}`))
	}))
	defer server.Close()

	config := createTestConfig()
	config.BaseURL = server.URL
	handler := NewHandler(config, NewSerperProvider(config), logger.NewTestLogger(t))

	out := handler.Retrieve(context.Background(), &Input{Query: "q"})
	assert.Empty(t, out.Sources)
}

func TestSerperProvider_Non200(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	config := createTestConfig()
	config.BaseURL = server.URL
	provider := NewSerperProvider(config)

	_, err := provider.Search(context.Background(), Query{Text: "q"})
	assert.ErrorIs(t, err, ErrSearchFailed)

	out := NewHandler(config, provider, logger.NewTestLogger(t)).Retrieve(context.Background(), &Input{Query: "q"})
	assert.Empty(t, out.Sources)
	require.NotNil(t, out.Err)
	assert.Equal(t, apperrors.ErrCodeRetrievalFailure, out.Err.Code)
	assert.Equal(t, "serper", out.Err.Metadata["provider"])
	assert.Equal(t, string(apperrors.ErrCodeSearchRequestFailed), out.Err.Metadata["cause"])
}

func TestSerperProvider_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.Copy(io.Discard, r.Body)
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer server.Close()
	defer close(release)

	config := createTestConfig()
	config.BaseURL = server.URL
	config.Timeout = 50 * time.Millisecond
	provider := NewSerperProvider(config)

	start := time.Now()
	out := NewHandler(config, provider, logger.NewTestLogger(t)).Retrieve(context.Background(), &Input{Query: "q"})

	assert.Empty(t, out.Sources)
	assert.Less(t, time.Since(start), 2*time.Second)
	require.NotNil(t, out.Err)
	assert.Equal(t, apperrors.ErrCodeRetrievalFailure, out.Err.Code)
	assert.Equal(t, string(apperrors.ErrCodeSearchTimeout), out.Err.Metadata["cause"])
}
