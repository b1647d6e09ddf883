package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/usagi-project/usagi-api/internal/logging"
	"github.com/usagi-project/usagi-api/internal/models"
)

// Index keeps a secondary elasticsearch index of user aliases for fuzzy
// search. A nil Index disables the path and listings fall back to SQL.
type Index struct {
	ES   *elasticsearch.Client
	Name string
}

func NewIndex(client *elasticsearch.Client, name string) *Index {
	if client == nil {
		return nil
	}
	if name == "" {
		name = "users"
	}
	return &Index{ES: client, Name: name}
}

func (i *Index) Enabled() bool { return i != nil && i.ES != nil }

type userDoc struct {
	Alias string `json:"alias"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// IndexUser upserts the user's searchable fields. Failures are logged and
// swallowed; the index is best-effort beside the store of record.
func (i *Index) IndexUser(ctx context.Context, u *models.User) {
	if !i.Enabled() {
		return
	}
	l := logging.FromContext(ctx).With("component", "search", "user_id", u.ID)

	body, err := json.Marshal(userDoc{Alias: u.Alias, Email: u.Email, Role: string(u.Role)})
	if err != nil {
		l.Error("index_marshal_failed", "error", err)
		return
	}

	res, err := i.ES.Index(
		i.Name,
		bytes.NewReader(body),
		i.ES.Index.WithDocumentID(u.ID),
		i.ES.Index.WithContext(ctx),
	)
	if err != nil {
		l.Error("index_failed", "error", err)
		return
	}
	defer res.Body.Close()
	if res.IsError() {
		l.Error("index_failed", "status", res.Status())
	}
}

func (i *Index) Remove(ctx context.Context, id string) {
	if !i.Enabled() {
		return
	}
	l := logging.FromContext(ctx).With("component", "search", "user_id", id)

	res, err := i.ES.Delete(i.Name, id, i.ES.Delete.WithContext(ctx))
	if err != nil {
		l.Error("index_delete_failed", "error", err)
		return
	}
	defer res.Body.Close()
}

// SearchAlias fuzzy-matches aliases and returns matching user ids in score
// order plus the total hit count.
func (i *Index) SearchAlias(ctx context.Context, query string, from, size int) ([]string, int64, error) {
	body := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     query,
				"fields":    []string{"alias^2", "email"},
				"fuzziness": "AUTO",
			},
		},
		"from": from,
		"size": size,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, 0, fmt.Errorf("search: encode query: %w", err)
	}

	res, err := i.ES.Search(
		i.ES.Search.WithContext(ctx),
		i.ES.Search.WithIndex(i.Name),
		i.ES.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, 0, fmt.Errorf("search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, 0, fmt.Errorf("search: %s", res.Status())
	}

	var r struct {
		Hits struct {
			Total struct{ Value int64 }       `json:"total"`
			Hits  []struct{ ID string `json:"_id"` } `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, 0, fmt.Errorf("search: decode response: %w", err)
	}

	ids := make([]string, 0, len(r.Hits.Hits))
	for _, hit := range r.Hits.Hits {
		ids = append(ids, hit.ID)
	}
	return ids, r.Hits.Total.Value, nil
}

// NewClient connects to elasticsearch and verifies the cluster responds.
func NewClient(url, user, password string) (*elasticsearch.Client, error) {
	if strings.TrimSpace(url) == "" {
		return nil, nil
	}

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{url},
		Username:  user,
		Password:  password,
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch client: %w", err)
	}

	res, err := client.Info()
	if err != nil {
		return nil, fmt.Errorf("elasticsearch info: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch info: %s", res.Status())
	}
	return client, nil
}
