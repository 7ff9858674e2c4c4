package retrievesources

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"health-assistant/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

const snippetRunes = 320

// ElasticsearchProvider searches a curated article index. Documents carry
// title, content, url and the keyword field domain.
type ElasticsearchProvider struct {
	client *elasticsearch.Client
	index  string
}

func NewElasticsearchProvider(client *elasticsearch.Client, index string) *ElasticsearchProvider {
	return &ElasticsearchProvider{client: client, index: index}
}

func (p *ElasticsearchProvider) Name() string { return "elasticsearch" }

func (p *ElasticsearchProvider) Search(ctx context.Context, q Query) ([]models.SourceRecord, error) {
	body, err := json.Marshal(buildSearchBody(q))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSearchFailed, err)
	}

	req := esapi.SearchRequest{
		Index: []string{p.index},
		Body:  bytes.NewReader(body),
	}
	res, err := req.Do(ctx, p.client)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", ErrSearchTimeout, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrSearchFailed, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("%w: %s", ErrSearchFailed, res.String())
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				Source struct {
					Title   string `json:"title"`
					Content string `json:"content"`
					URL     string `json:"url"`
				} `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrSearchFailed, err)
	}

	records := make([]models.SourceRecord, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		records = append(records, models.SourceRecord{
			Title:   hit.Source.Title,
			Snippet: truncateRunes(hit.Source.Content, snippetRunes),
			Link:    hit.Source.URL,
		})
	}
	return records, nil
}

func buildSearchBody(q Query) map[string]interface{} {
	boolQuery := map[string]interface{}{
		"must": []interface{}{
			map[string]interface{}{
				"multi_match": map[string]interface{}{
					"query":  q.Text,
					"fields": []string{"title^2", "content"},
				},
			},
		},
	}

	if len(q.Domains) > 0 {
		should := make([]interface{}, 0, len(q.Domains))
		for _, d := range q.Domains {
			host, path, hasPath := strings.Cut(d, "/")
			if !hasPath {
				should = append(should, map[string]interface{}{"term": map[string]interface{}{"domain": host}})
				continue
			}
			should = append(should, map[string]interface{}{
				"bool": map[string]interface{}{
					"filter": []interface{}{
						map[string]interface{}{"term": map[string]interface{}{"domain": host}},
						map[string]interface{}{"prefix": map[string]interface{}{"path": "/" + path}},
					},
				},
			})
		}
		boolQuery["filter"] = []interface{}{
			map[string]interface{}{
				"bool": map[string]interface{}{
					"should":               should,
					"minimum_should_match": 1,
				},
			},
		}
	}

	return map[string]interface{}{
		"size":    q.Num,
		"query":   map[string]interface{}{"bool": boolQuery},
		"_source": []string{"title", "content", "url"},
	}
}

func truncateRunes(s string, n int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= n {
		return string(r)
	}
	return strings.TrimSpace(string(r[:n])) + "…"
}
