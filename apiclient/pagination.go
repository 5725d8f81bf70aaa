package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/jrsteele09/go-partner-portal/internal/utils"
	"github.com/pkg/errors"
)

// Page is the paginated envelope some list endpoints answer with.
type Page[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// ToList normalizes a list response. The backend answers either with a bare
// array or with an object carrying the items under "results"; both become a
// plain slice. An empty or null body is an empty list.
func ToList[T any](raw json.RawMessage) ([]T, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []T{}, nil
	}

	switch trimmed[0] {
	case '[':
		items := []T{}
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, errors.Wrap(err, "[ToList] decode array")
		}
		return items, nil
	case '{':
		var envelope struct {
			Results *[]T `json:"results"`
		}
		if err := json.Unmarshal(trimmed, &envelope); err != nil {
			return nil, errors.Wrap(err, "[ToList] decode object")
		}
		if envelope.Results == nil {
			return nil, errors.Wrap(ErrUnexpectedShape, "[ToList] object without results")
		}
		if *envelope.Results == nil {
			return []T{}, nil
		}
		return *envelope.Results, nil
	}
	return nil, errors.Wrap(ErrUnexpectedShape, "[ToList]")
}

// List fetches endpoint and normalizes the response with ToList.
func List[T any](ctx context.Context, c *Client, endpoint string, query url.Values) ([]T, error) {
	raw, err := c.Do(ctx, Request{Method: http.MethodGet, Endpoint: endpoint, Query: query})
	if err != nil {
		return nil, err
	}
	return ToList[T](raw)
}

// ListAll follows "next" links until the last page. Bare array responses are
// returned as they are.
func ListAll[T any](ctx context.Context, c *Client, endpoint string, query url.Values) ([]T, error) {
	all := []T{}
	next := endpoint
	for next != "" {
		raw, err := c.Do(ctx, Request{Method: http.MethodGet, Endpoint: next, Query: query})
		if err != nil {
			return nil, err
		}
		trimmed := bytes.TrimSpace(raw)
		if len(trimmed) == 0 || trimmed[0] != '{' {
			items, err := ToList[T](raw)
			if err != nil {
				return nil, err
			}
			return append(all, items...), nil
		}

		var page Page[T]
		if err := json.Unmarshal(trimmed, &page); err != nil {
			return nil, errors.Wrap(err, "[ListAll] decode page")
		}
		all = append(all, page.Results...)

		next = utils.Value(page.Next)
		query = nil // next links already carry the query
	}
	return all, nil
}
