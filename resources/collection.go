// Package resources gives typed access to the backend's REST collections.
package resources

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/jrsteele09/go-partner-portal/apiclient"
)

// Collection is a REST collection rooted at Path, e.g. "/api/applicants/".
type Collection[T any] struct {
	client *apiclient.Client
	Path   string
}

func NewCollection[T any](client *apiclient.Client, path string) Collection[T] {
	if !strings.HasSuffix(path, "/") {
		path += "/"
	}
	return Collection[T]{client: client, Path: path}
}

// List returns the first page of the collection.
func (c Collection[T]) List(ctx context.Context, query url.Values) ([]T, error) {
	return apiclient.List[T](ctx, c.client, c.Path, query)
}

// All follows pagination to the last page.
func (c Collection[T]) All(ctx context.Context, query url.Values) ([]T, error) {
	return apiclient.ListAll[T](ctx, c.client, c.Path, query)
}

func (c Collection[T]) Get(ctx context.Context, id int) (T, error) {
	var v T
	err := c.client.Get(ctx, c.item(id), &v)
	return v, err
}

func (c Collection[T]) Create(ctx context.Context, v any) (T, error) {
	var created T
	err := c.client.Post(ctx, c.Path, v, &created)
	return created, err
}

// Update applies a partial update.
func (c Collection[T]) Update(ctx context.Context, id int, patch any) (T, error) {
	var updated T
	err := c.client.Patch(ctx, c.item(id), patch, &updated)
	return updated, err
}

// Replace overwrites the record.
func (c Collection[T]) Replace(ctx context.Context, id int, v any) (T, error) {
	var replaced T
	err := c.client.Put(ctx, c.item(id), v, &replaced)
	return replaced, err
}

func (c Collection[T]) Delete(ctx context.Context, id int) error {
	return c.client.Delete(ctx, c.item(id))
}

func (c Collection[T]) item(id int) string {
	return c.Path + strconv.Itoa(id) + "/"
}
