package keywords

import (
	"context"
	"log/slog"
)

// Store is the keyword-management flow: backend client plus the local cache.
// Every mutation goes to the backend first; the cache changes only on an
// acknowledged result, so a failed request leaves it untouched.
type Store struct {
	client *Client
	cache  *Cache
	logger *slog.Logger
}

func NewStore(client *Client, cache *Cache, logger *slog.Logger) *Store {
	return &Store{
		client: client,
		cache:  cache,
		logger: logger.With("component", "keywords"),
	}
}

func (s *Store) Cache() *Cache {
	return s.cache
}

// Refresh seeds the cache from the backend. A failed listing leaves the
// current cache in place.
func (s *Store) Refresh(ctx context.Context) error {
	kws, err := s.client.List(ctx)
	if err != nil {
		s.logger.Error("keyword refresh failed", "error", err)
		return err
	}
	s.cache.Replace(kws)
	s.logger.Info("keyword cache refreshed", "count", len(kws))
	return nil
}

func (s *Store) List() []Keyword {
	return s.cache.Snapshot()
}

func (s *Store) Create(ctx context.Context, word, talkingPoint string, active bool) (*Keyword, error) {
	kw, err := s.client.Create(ctx, word, talkingPoint, active)
	if err != nil {
		s.logger.Error("keyword create failed", "word", word, "error", err)
		return nil, err
	}
	s.cache.Add(*kw)
	return kw, nil
}

func (s *Store) Delete(ctx context.Context, id int) error {
	if err := s.client.Delete(ctx, id); err != nil {
		s.logger.Error("keyword delete failed", "id", id, "error", err)
		return err
	}
	s.cache.Remove(id)
	return nil
}
