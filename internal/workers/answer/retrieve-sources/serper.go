package retrievesources

import (
	"context"
	"errors"
	"fmt"
	"strings"

	commonhttp "health-assistant/internal/common/http"
	composequery "health-assistant/internal/workers/answer/compose-query"
	"health-assistant/internal/models"
)

// SerperProvider queries google.serper.dev. The site restriction is
// folded into the query string.
type SerperProvider struct {
	baseURL string
	apiKey  string
	client  *commonhttp.Client
}

func NewSerperProvider(config *Config) *SerperProvider {
	return &SerperProvider{
		baseURL: strings.TrimRight(config.BaseURL, "/"),
		apiKey:  config.APIKey,
		client:  commonhttp.NewClient(config.Timeout),
	}
}

func (p *SerperProvider) Name() string { return "serper" }

type serperRequest struct {
	Q   string `json:"q"`
	Num int    `json:"num"`
}

type serperResponse struct {
	Organic []struct {
		Title   string `json:"title"`
		Snippet string `json:"snippet"`
		Link    string `json:"link"`
	} `json:"organic"`
}

func (p *SerperProvider) Search(ctx context.Context, q Query) ([]models.SourceRecord, error) {
	var resp serperResponse
	err := p.client.PostJSON(ctx, p.baseURL+"/search",
		map[string]string{"X-API-KEY": p.apiKey},
		serperRequest{Q: composequery.Compose(q.Text, q.Domains), Num: q.Num},
		&resp,
	)
	if err != nil {
		if errors.Is(err, commonhttp.ErrTimeout) {
			return nil, fmt.Errorf("%w: %v", ErrSearchTimeout, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrSearchFailed, err)
	}

	records := make([]models.SourceRecord, 0, len(resp.Organic))
	for _, item := range resp.Organic {
		records = append(records, models.SourceRecord{
			Title:   item.Title,
			Snippet: item.Snippet,
			Link:    item.Link,
		})
	}
	return records, nil
}
