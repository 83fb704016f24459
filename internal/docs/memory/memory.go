// Package memory is an in-process docs.Store. Besides serving the memory
// remote backend it can inject failures per operation, which the retry
// and compensation paths are tested with.
package memory

import (
	"context"
	"sync"

	"anjo/internal/docs"
)

type Store struct {
	mu       sync.Mutex
	data     map[string][]docs.Document
	failures map[string][]error
	calls    map[string]int
}

func New() *Store {
	return &Store{
		data:     make(map[string][]docs.Document),
		failures: make(map[string][]error),
		calls:    make(map[string]int),
	}
}

func key(owner, collection string) string { return owner + "/" + collection }

// FailNext queues errors returned by the next calls of op on collection,
// one per call. A nil entry lets that call succeed.
func (s *Store) FailNext(op, collection string, errs ...error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := op + ":" + collection
	s.failures[k] = append(s.failures[k], errs...)
}

// Calls returns how many times op was invoked on collection.
func (s *Store) Calls(op, collection string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op+":"+collection]
}

// injected must be called with s.mu held.
func (s *Store) injected(op, collection string) error {
	k := op + ":" + collection
	s.calls[k]++
	queue := s.failures[k]
	if len(queue) == 0 {
		return nil
	}
	s.failures[k] = queue[1:]
	return queue[0]
}

func (s *Store) List(_ context.Context, owner, collection string) ([]docs.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected(docs.OpList, collection); err != nil {
		return nil, err
	}
	src := s.data[key(owner, collection)]
	out := make([]docs.Document, len(src))
	for i, d := range src {
		out[i] = docs.Document{ID: d.ID, Data: append([]byte(nil), d.Data...)}
	}
	return out, nil
}

func (s *Store) Insert(_ context.Context, owner, collection string, doc docs.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected(docs.OpInsert, collection); err != nil {
		return err
	}
	k := key(owner, collection)
	s.data[k] = append(s.data[k], docs.Document{ID: doc.ID, Data: append([]byte(nil), doc.Data...)})
	return nil
}

func (s *Store) Update(_ context.Context, owner, collection string, doc docs.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected(docs.OpUpdate, collection); err != nil {
		return err
	}
	list := s.data[key(owner, collection)]
	for i := range list {
		if list[i].ID == doc.ID {
			list[i].Data = append([]byte(nil), doc.Data...)
			return nil
		}
	}
	return docs.ErrNotFound
}

func (s *Store) Delete(_ context.Context, owner, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected(docs.OpDelete, collection); err != nil {
		return err
	}
	k := key(owner, collection)
	list := s.data[k]
	for i := range list {
		if list[i].ID == id {
			s.data[k] = append(list[:i:i], list[i+1:]...)
			return nil
		}
	}
	return docs.ErrNotFound
}

func (s *Store) Ping(context.Context) error { return nil }

var _ docs.Store = (*Store)(nil)
