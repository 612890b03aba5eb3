package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/Hdensac/articlo/internal/models"
)

// Search runs a fuzzy multi_match over article titles and descriptions.
func Search(ctx context.Context, es *elasticsearch.Client, index, query string, from, size int) (int64, []models.Article, error) {
	body := map[string]interface{}{
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":     query,
				"fields":    []string{"title^2", "description"},
				"fuzziness": "AUTO",
			},
		},
		"from": from,
		"size": size,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return 0, nil, fmt.Errorf("search: encode query: %w", err)
	}

	res, err := es.Search(
		es.Search.WithContext(ctx),
		es.Search.WithIndex(index),
		es.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, nil, fmt.Errorf("search: %s", res.Status())
	}

	var r struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source models.Article `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, err
	}

	articles := make([]models.Article, len(r.Hits.Hits))
	for i, hit := range r.Hits.Hits {
		articles[i] = hit.Source
	}
	return r.Hits.Total.Value, articles, nil
}

// IndexArticle upserts the article document. Callers treat failures as
// best-effort: the SQL row is the source of truth.
func IndexArticle(ctx context.Context, es *elasticsearch.Client, index string, a *models.Article) error {
	doc := map[string]interface{}{
		"id":          a.ID,
		"title":       a.Title,
		"description": a.Description,
		"price":       a.Price,
		"seller_id":   a.SellerID,
		"created_at":  a.CreatedAt,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(doc); err != nil {
		return fmt.Errorf("index article: encode: %w", err)
	}

	res, err := es.Index(index, &buf,
		es.Index.WithContext(ctx),
		es.Index.WithDocumentID(strconv.FormatUint(uint64(a.ID), 10)),
	)
	if err != nil {
		return fmt.Errorf("index article: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("index article: %s", res.Status())
	}
	return nil
}

func DeleteArticle(ctx context.Context, es *elasticsearch.Client, index string, id uint) error {
	res, err := es.Delete(index, strconv.FormatUint(uint64(id), 10),
		es.Delete.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("delete article: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("delete article: %s", res.Status())
	}
	return nil
}
