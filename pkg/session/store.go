// Package session keeps the current identity and its history and favorites.
//
// History and favorites live under a namespace derived from the identity
// ("guest_" or "user_<id>_"). Changing identity swaps the active collections
// to the target namespace; namespaces are never merged.
package session

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"trend-finder-be/internal/entity"
	"trend-finder-be/internal/pkg/logger"
	"trend-finder-be/internal/repository/kv"

	"github.com/google/uuid"
)

const (
	KeyUser      = "trendFinderUser"
	KeyHistory   = "trendFinderHistory"
	KeyFavorites = "trendFinderFavorites"

	MaxHistory = 20
)

func Namespace(user *entity.User) string {
	if user == nil {
		return "guest_"
	}
	return "user_" + user.Id + "_"
}

type Store struct {
	mu sync.RWMutex

	kv     kv.Store
	logger logger.ILogger
	now    func() time.Time

	identity  *entity.User
	history   []entity.HistoryItem
	favorites []entity.FavoriteItem
}

func NewStore(store kv.Store, log logger.ILogger) *Store {
	return &Store{
		kv:     store,
		logger: log,
		now:    time.Now,
	}
}

// Open restores the persisted identity and loads its collections.
func (s *Store) Open(ctx context.Context) {
	var user *entity.User
	if raw, ok := s.read(ctx, KeyUser); ok {
		var u entity.User
		if err := json.Unmarshal([]byte(raw), &u); err != nil || u.Id == "" {
			s.logger.Warn("SESSION", "Discarding unreadable identity", nil)
		} else {
			user = &u
		}
	}

	history, favorites := s.LoadForIdentity(ctx, user)

	s.mu.Lock()
	s.identity = user
	s.history = history
	s.favorites = favorites
	s.mu.Unlock()
}

// LoadForIdentity reads the persisted collections of user's namespace (nil for guest)
// without touching the active state.
func (s *Store) LoadForIdentity(ctx context.Context, user *entity.User) ([]entity.HistoryItem, []entity.FavoriteItem) {
	ns := Namespace(user)

	history := []entity.HistoryItem{}
	if raw, ok := s.read(ctx, ns+KeyHistory); ok {
		if err := json.Unmarshal([]byte(raw), &history); err != nil {
			s.logger.Warn("SESSION", "Failed to parse history", map[string]interface{}{
				"namespace": ns,
				"error":     err.Error(),
			})
			history = []entity.HistoryItem{}
		}
	}

	favorites := []entity.FavoriteItem{}
	if raw, ok := s.read(ctx, ns+KeyFavorites); ok {
		if err := json.Unmarshal([]byte(raw), &favorites); err != nil {
			s.logger.Warn("SESSION", "Failed to parse favorites", map[string]interface{}{
				"namespace": ns,
				"error":     err.Error(),
			})
			favorites = []entity.FavoriteItem{}
		}
	}

	return history, favorites
}

// SetIdentity persists user (nil signs out) and swaps the active collections.
func (s *Store) SetIdentity(ctx context.Context, user *entity.User) {
	if user != nil {
		u := *user
		user = &u
		if data, err := json.Marshal(user); err == nil {
			s.write(ctx, KeyUser, string(data))
		}
	} else {
		if err := s.kv.Delete(ctx, KeyUser); err != nil {
			s.logger.Error("SESSION", "Failed to remove identity", map[string]interface{}{"error": err.Error()})
		}
	}

	history, favorites := s.LoadForIdentity(ctx, user)

	s.mu.Lock()
	s.identity = user
	s.history = history
	s.favorites = favorites
	s.mu.Unlock()
}

func (s *Store) Identity() *entity.User {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.identity == nil {
		return nil
	}
	u := *s.identity
	return &u
}

func (s *Store) History() []entity.HistoryItem {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]entity.HistoryItem{}, s.history...)
}

func (s *Store) Favorites() []entity.FavoriteItem {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return cloneFavorites(s.favorites)
}

// AppendHistory drops any entry with the same query, prepends item and keeps
// the MaxHistory most recent. Id and Timestamp are filled in when empty.
func (s *Store) AppendHistory(ctx context.Context, item entity.HistoryItem) entity.HistoryItem {
	if item.Id == "" {
		item.Id = uuid.NewString()
	}
	if item.Timestamp == 0 {
		item.Timestamp = s.now().UnixMilli()
	}

	s.mu.Lock()
	next := make([]entity.HistoryItem, 0, len(s.history)+1)
	next = append(next, item)
	for _, h := range s.history {
		if h.Query != item.Query {
			next = append(next, h)
		}
	}
	if len(next) > MaxHistory {
		next = next[:MaxHistory]
	}
	s.history = next
	ns := Namespace(s.identity)
	s.mu.Unlock()

	s.persist(ctx, ns+KeyHistory, next)
	return item
}

func (s *Store) ClearHistory(ctx context.Context) {
	s.mu.Lock()
	s.history = []entity.HistoryItem{}
	ns := Namespace(s.identity)
	s.mu.Unlock()

	s.persist(ctx, ns+KeyHistory, []entity.HistoryItem{})
}

// ReplaceHistory overwrites the collection, normalized by the AppendHistory rules.
func (s *Store) ReplaceHistory(ctx context.Context, items []entity.HistoryItem) {
	next := NormalizeHistory(items)

	s.mu.Lock()
	s.history = next
	ns := Namespace(s.identity)
	s.mu.Unlock()

	s.persist(ctx, ns+KeyHistory, next)
}

// ToggleFavorite removes the favorite matching (query, result.Summary) or, when
// there is none, prepends a snapshot of result. It reports whether the pair is
// favorited afterwards.
func (s *Store) ToggleFavorite(ctx context.Context, query string, result *entity.AnalysisResult) bool {
	summary := summaryOf(result)

	s.mu.Lock()
	next := make([]entity.FavoriteItem, 0, len(s.favorites)+1)
	removed := false
	for _, f := range s.favorites {
		if f.Query == query && summaryOf(f.Result) == summary {
			removed = true
			continue
		}
		next = append(next, f)
	}
	if !removed {
		item := entity.FavoriteItem{
			Id:        uuid.NewString(),
			Query:     query,
			Result:    result.Clone(),
			Timestamp: s.now().UnixMilli(),
		}
		next = append([]entity.FavoriteItem{item}, next...)
	}
	s.favorites = next
	ns := Namespace(s.identity)
	s.mu.Unlock()

	s.persist(ctx, ns+KeyFavorites, next)
	return !removed
}

func (s *Store) IsFavorited(query string, result *entity.AnalysisResult) bool {
	if result == nil {
		return false
	}
	summary := result.Summary

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, f := range s.favorites {
		if f.Query == query && summaryOf(f.Result) == summary {
			return true
		}
	}
	return false
}

func (s *Store) FindFavorite(id string) (entity.FavoriteItem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, f := range s.favorites {
		if f.Id == id {
			f.Result = f.Result.Clone()
			return f, true
		}
	}
	return entity.FavoriteItem{}, false
}

func (s *Store) ClearFavorites(ctx context.Context) {
	s.mu.Lock()
	s.favorites = []entity.FavoriteItem{}
	ns := Namespace(s.identity)
	s.mu.Unlock()

	s.persist(ctx, ns+KeyFavorites, []entity.FavoriteItem{})
}

// ReplaceFavorites overwrites the collection. Entries without a result are
// dropped, and later duplicates of a (query, summary) pair are ignored.
func (s *Store) ReplaceFavorites(ctx context.Context, items []entity.FavoriteItem) {
	next := NormalizeFavorites(items)

	s.mu.Lock()
	s.favorites = next
	ns := Namespace(s.identity)
	s.mu.Unlock()

	s.persist(ctx, ns+KeyFavorites, next)
}

func NormalizeHistory(items []entity.HistoryItem) []entity.HistoryItem {
	seen := make(map[string]struct{}, len(items))
	out := make([]entity.HistoryItem, 0, len(items))
	for _, h := range items {
		if _, dup := seen[h.Query]; dup {
			continue
		}
		seen[h.Query] = struct{}{}
		if h.Id == "" {
			h.Id = uuid.NewString()
		}
		out = append(out, h)
		if len(out) == MaxHistory {
			break
		}
	}
	return out
}

func NormalizeFavorites(items []entity.FavoriteItem) []entity.FavoriteItem {
	type key struct{ query, summary string }

	seen := make(map[key]struct{}, len(items))
	out := make([]entity.FavoriteItem, 0, len(items))
	for _, f := range items {
		if f.Result == nil {
			continue
		}
		k := key{f.Query, f.Result.Summary}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		if f.Id == "" {
			f.Id = uuid.NewString()
		}
		f.Result = f.Result.Clone()
		out = append(out, f)
	}
	return out
}

func summaryOf(r *entity.AnalysisResult) string {
	if r == nil {
		return ""
	}
	return r.Summary
}

func cloneFavorites(in []entity.FavoriteItem) []entity.FavoriteItem {
	out := make([]entity.FavoriteItem, len(in))
	for i, f := range in {
		f.Result = f.Result.Clone()
		out[i] = f
	}
	return out
}

func (s *Store) read(ctx context.Context, key string) (string, bool) {
	raw, found, err := s.kv.Get(ctx, key)
	if err != nil {
		s.logger.Warn("SESSION", "Failed to read storage", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		return "", false
	}
	return raw, found
}

func (s *Store) write(ctx context.Context, key, value string) {
	if err := s.kv.Set(ctx, key, value); err != nil {
		s.logger.Error("SESSION", "Failed to write storage", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}
}

func (s *Store) persist(ctx context.Context, key string, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("SESSION", "Failed to encode collection", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		return
	}
	s.write(ctx, key, string(data))
}
