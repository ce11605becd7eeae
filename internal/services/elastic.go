package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"ecoshop_back_end/internal/models"
)

// ProductSearch transforme un mot-clé libre en ids de produits correspondants.
type ProductSearch interface {
	Index(ctx context.Context, p *models.Product) error
	Delete(ctx context.Context, id string) error
	Search(ctx context.Context, keyword string, size int) ([]string, error)
}

// ProductIndex recopie les champs recherchables des produits dans Elasticsearch.
type ProductIndex struct {
	client *elasticsearch.Client
	index  string
}

func NewProductIndex(client *elasticsearch.Client, index string) *ProductIndex {
	return &ProductIndex{client: client, index: index}
}

type productDoc struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Price       float64 `json:"price"`
	Ratings     float64 `json:"ratings"`
}

func (x *ProductIndex) Index(ctx context.Context, p *models.Product) error {
	data, err := json.Marshal(productDoc{
		Name:        p.Name,
		Description: p.Description,
		Category:    p.Category,
		Price:       p.Price,
		Ratings:     p.Ratings,
	})
	if err != nil {
		return fmt.Errorf("encode product %s: %w", p.ID, err)
	}

	req := esapi.IndexRequest{
		Index:      x.index,
		DocumentID: p.ID,
		Body:       bytes.NewReader(data),
		Refresh:    "true",
	}
	res, err := req.Do(ctx, x.client)
	if err != nil {
		return fmt.Errorf("index product %s: %w", p.ID, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("index product %s: %s", p.ID, res.String())
	}
	return nil
}

func (x *ProductIndex) Delete(ctx context.Context, id string) error {
	req := esapi.DeleteRequest{Index: x.index, DocumentID: id}
	res, err := req.Do(ctx, x.client)
	if err != nil {
		return fmt.Errorf("delete product %s from index: %w", id, err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("delete product %s from index: %s", id, res.String())
	}
	return nil
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			ID string `json:"_id"`
		} `json:"hits"`
	} `json:"hits"`
}

// Search exécute un multi_match sur le nom, la description et la catégorie.
func (x *ProductIndex) Search(ctx context.Context, keyword string, size int) ([]string, error) {
	var buf bytes.Buffer
	q := map[string]any{
		"size":    size,
		"_source": false,
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     keyword,
				"fields":    []string{"name^2", "description", "category"},
				"fuzziness": "AUTO",
			},
		},
	}
	if err := json.NewEncoder(&buf).Encode(q); err != nil {
		return nil, fmt.Errorf("encode search query: %w", err)
	}

	req := esapi.SearchRequest{
		Index: []string{x.index},
		Body:  &buf,
	}
	res, err := req.Do(ctx, x.client)
	if err != nil {
		return nil, fmt.Errorf("search products: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("search products: %s: %s", res.Status(), body)
	}

	var r searchResponse
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	ids := make([]string, 0, len(r.Hits.Hits))
	for _, h := range r.Hits.Hits {
		ids = append(ids, h.ID)
	}
	return ids, nil
}
