package database

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/redis/go-redis/v9"
)

const watchlistPrefix = "watchlist:"

// WatchlistStore keeps per-user symbol sets in Redis.
type WatchlistStore struct {
	client *redis.Client
}

// NewWatchlistStore creates a Redis-backed watchlist store.
func NewWatchlistStore(client *redis.Client) *WatchlistStore {
	return &WatchlistStore{client: client}
}

func watchlistKey(userID string) string {
	return watchlistPrefix + userID
}

// Add inserts symbols into the user's watchlist and reports how many were new.
func (s *WatchlistStore) Add(ctx context.Context, userID string, symbols ...string) (int64, error) {
	if len(symbols) == 0 {
		return 0, nil
	}
	members := make([]interface{}, len(symbols))
	for i, sym := range symbols {
		members[i] = sym
	}
	added, err := s.client.SAdd(ctx, watchlistKey(userID), members...).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to add to watchlist: %w", err)
	}
	return added, nil
}

// Remove deletes a symbol and reports whether it was present.
func (s *WatchlistStore) Remove(ctx context.Context, userID, symbol string) (bool, error) {
	removed, err := s.client.SRem(ctx, watchlistKey(userID), symbol).Result()
	if err != nil {
		return false, fmt.Errorf("failed to remove from watchlist: %w", err)
	}
	return removed > 0, nil
}

// List returns the user's symbols in sorted order.
func (s *WatchlistStore) List(ctx context.Context, userID string) ([]string, error) {
	symbols, err := s.client.SMembers(ctx, watchlistKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list watchlist: %w", err)
	}
	sort.Strings(symbols)
	return symbols, nil
}

// AllSymbols implements services.SymbolLister with the union of every watchlist.
func (s *WatchlistStore) AllSymbols(ctx context.Context) ([]string, error) {
	var keys []string
	iter := s.client.Scan(ctx, 0, watchlistPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if strings.TrimPrefix(iter.Val(), watchlistPrefix) != "" {
			keys = append(keys, iter.Val())
		}
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan watchlists: %w", err)
	}
	if len(keys) == 0 {
		return []string{}, nil
	}

	symbols, err := s.client.SUnion(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to merge watchlists: %w", err)
	}
	sort.Strings(symbols)
	return symbols, nil
}
