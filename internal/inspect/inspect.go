// Package inspect prepares feature properties for the inspection
// panel: it hides internal keys, picks a display title, and remembers
// recently viewed features.
package inspect

import (
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/avetrov/geodesk/internal/model"
)

// hiddenKeys never reach the panel.
var hiddenKeys = map[string]struct{}{
	"fid":             {},
	"id":              {},
	"geometry":        {},
	"properties_data": {},
	"created_at":      {},
	"updated_at":      {},
	"icon":            {},
}

// titleKeys in priority order; the first present and non-empty wins.
var titleKeys = []string{"name", "NAME", "name_mpv", "name_station", "ST_NAME"}

// FallbackTitle matches the generic label of the upstream UI.
const FallbackTitle = "Детали объекта"

type Card struct {
	Title  string         `json:"title"`
	Fields map[string]any `json:"fields"`
}

// BuildCard filters an arbitrary property mapping down to what the
// panel shows.
func BuildCard(props map[string]any) Card {
	c := Card{Title: FallbackTitle, Fields: make(map[string]any, len(props))}
	for k, v := range props {
		if _, hidden := hiddenKeys[k]; hidden {
			continue
		}
		c.Fields[k] = v
	}
	for _, k := range titleKeys {
		if v, ok := props[k]; ok {
			if s, ok := v.(string); ok && s != "" {
				c.Title = s
				break
			}
		}
	}
	return c
}

type View struct {
	Category model.Category `json:"category"`
	ID       int64          `json:"id"`
	Title    string         `json:"title"`
	ViewedAt time.Time      `json:"viewedAt"`
}

// History is a bounded record of recently inspected features. Viewing
// a feature again moves it to the front.
type History struct {
	cache *lru.Cache[string, View]
	now   func() time.Time // for tests
}

func NewHistory(size int) (*History, error) {
	if size <= 0 {
		size = 32
	}
	c, err := lru.New[string, View](size)
	if err != nil {
		return nil, fmt.Errorf("inspect history: %w", err)
	}
	return &History{cache: c, now: time.Now}, nil
}

func key(c model.Category, id int64) string {
	return fmt.Sprintf("%s/%d", c, id)
}

func (h *History) Record(c model.Category, id int64, title string) {
	h.cache.Add(key(c, id), View{
		Category: c,
		ID:       id,
		Title:    title,
		ViewedAt: h.now(),
	})
}

// Recent returns the remembered views, most recent first.
func (h *History) Recent() []View {
	keys := h.cache.Keys() // oldest to newest
	out := make([]View, 0, len(keys))
	for i := len(keys) - 1; i >= 0; i-- {
		if v, ok := h.cache.Peek(keys[i]); ok {
			out = append(out, v)
		}
	}
	return out
}
