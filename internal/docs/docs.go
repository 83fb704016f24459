// Package docs defines the remote document store that backs authenticated
// ledgers: logical collections of JSON documents partitioned by owner.
package docs

import (
	"context"
	"encoding/json"
	"errors"
)

// Collection names.
const (
	Transactions = "transactions"
	Goals        = "goals"
	Categories   = "categories"
	Accounts     = "accounts"
)

// Collections lists every collection a ledger is made of.
var Collections = []string{Transactions, Goals, Categories, Accounts}

// Operation names, used in logs and by test doubles.
const (
	OpList   = "list"
	OpInsert = "insert"
	OpUpdate = "update"
	OpDelete = "delete"
)

// ErrNotFound is returned by Update and Delete when no document has the id.
var ErrNotFound = errors.New("docs: document not found")

// Document is one stored entity. Data holds its JSON encoding.
type Document struct {
	ID   string
	Data json.RawMessage
}

// Store is the remote data store. Every call is expected to be visible to
// the next one as soon as it returns successfully.
type Store interface {
	List(ctx context.Context, owner, collection string) ([]Document, error)
	Insert(ctx context.Context, owner, collection string, doc Document) error
	Update(ctx context.Context, owner, collection string, doc Document) error
	Delete(ctx context.Context, owner, collection, id string) error
}

// Pinger is implemented by stores that can report their health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Encode wraps v into a Document with the given id.
func Encode(id string, v any) (Document, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return Document{}, err
	}
	return Document{ID: id, Data: data}, nil
}

// Decode unmarshals every document into a T, keeping order.
func Decode[T any](in []Document) ([]T, error) {
	out := make([]T, 0, len(in))
	for _, d := range in {
		var v T
		if err := json.Unmarshal(d.Data, &v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
