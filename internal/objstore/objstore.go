// Package objstore caches user-created geo objects per category. It is
// the single shared mutable resource of the editor: every mutation goes
// through one of the four entry points, each atomic under the store
// lock, so readers never observe a partial update.
package objstore

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/avetrov/geodesk/internal/core/observability"
	"github.com/avetrov/geodesk/internal/model"
)

// Fetcher retrieves the server truth for one category.
type Fetcher interface {
	FetchAll(ctx context.Context, c model.Category) ([]model.GeoObject, error)
}

type Store struct {
	logger  *slog.Logger
	fetcher Fetcher

	mu      sync.Mutex
	objects map[model.Category][]model.GeoObject
	loading map[model.Category]bool
	errs    map[model.Category]string
	gen     map[model.Category]uint64
}

func New(logger *slog.Logger, fetcher Fetcher) *Store {
	objects := make(map[model.Category][]model.GeoObject)
	loading := make(map[model.Category]bool)
	for _, c := range model.Categories() {
		objects[c] = nil
		loading[c] = false
	}
	return &Store{
		logger:  logger,
		fetcher: fetcher,
		objects: objects,
		loading: loading,
		errs:    make(map[model.Category]string),
		gen:     make(map[model.Category]uint64),
	}
}

// Objects returns a copy of the dynamic set for a category.
func (s *Store) Objects(c model.Category) []model.GeoObject {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.GeoObject, len(s.objects[c]))
	copy(out, s.objects[c])
	return out
}

// Snapshot returns copies of all per-category sets, for composition.
func (s *Store) Snapshot() map[model.Category][]model.GeoObject {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[model.Category][]model.GeoObject, len(s.objects))
	for c, objs := range s.objects {
		cp := make([]model.GeoObject, len(objs))
		copy(cp, objs)
		out[c] = cp
	}
	return out
}

func (s *Store) Loading(c model.Category) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading[c]
}

// Err returns the last fetch error message for a category, empty when
// the last fetch succeeded or none ran yet.
func (s *Store) Err(c model.Category) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errs[c]
}

// Generation counts applied mutations per category; it feeds the
// composed layer version so clients can cheap-compare render state.
func (s *Store) Generation(c model.Category) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen[c]
}

// FetchAll replaces the category's set with server truth. The loading
// flag is up for the duration; on failure the prior data stays and the
// error message is recorded. Overlapping calls for one category are
// not guarded: the last completion wins, stale-response races included.
func (s *Store) FetchAll(ctx context.Context, c model.Category) error {
	s.mu.Lock()
	s.loading[c] = true
	delete(s.errs, c)
	s.mu.Unlock()

	start := time.Now()
	objs, err := s.fetcher.FetchAll(ctx, c)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading[c] = false
	if err != nil {
		s.errs[c] = err.Error()
		observability.ObserveStoreFetch(string(c), "failure", time.Since(start).Seconds())
		s.logger.Error("fetch objects failed", "category", string(c), "err", err)
		return err
	}
	s.objects[c] = objs
	s.gen[c]++
	observability.ObserveStoreFetch(string(c), "success", time.Since(start).Seconds())
	s.logger.Debug("fetched objects", "category", string(c), "count", len(objs))
	return nil
}

// Add appends a freshly created object.
func (s *Store) Add(c model.Category, obj model.GeoObject) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[c] = append(s.objects[c], obj)
	s.gen[c]++
}

// Remove filters out the object with the given id. Reports whether
// anything was removed.
func (s *Store) Remove(c model.Category, id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	objs := s.objects[c]
	kept := objs[:0:0]
	removed := false
	for _, o := range objs {
		if o.ID == id {
			removed = true
			continue
		}
		kept = append(kept, o)
	}
	if removed {
		s.objects[c] = kept
		s.gen[c]++
	}
	return removed
}

// Replace swaps the object whose id matches, leaving others untouched.
func (s *Store) Replace(c model.Category, obj model.GeoObject) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, o := range s.objects[c] {
		if o.ID == obj.ID {
			s.objects[c][i] = obj
			s.gen[c]++
			return true
		}
	}
	return false
}
