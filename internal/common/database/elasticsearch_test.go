package database

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"health-assistant/internal/common/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestElasticsearchClient_IndexCheck(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr string
	}{
		{name: "index present", status: http.StatusOK},
		{name: "index missing", status: http.StatusNotFound, wantErr: "not found"},
		{name: "cluster error", status: http.StatusInternalServerError, wantErr: "index check error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodHead, r.Method)
				assert.Equal(t, "/health_articles", r.URL.Path)
				w.Header().Set("X-Elastic-Product", "Elasticsearch")
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			client, err := NewElasticsearch(config.ElasticsearchConfig{Addresses: []string{server.URL}})
			require.NoError(t, err)

			err = client.IndexCheck("health_articles")(context.Background())
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
