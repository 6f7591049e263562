// Package config loads service configuration from the environment,
// with an optional YAML overlay for layer gates and baseline sources.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Addr         string
	LogLevel     string
	BackendURL   string
	DataDir      string
	LayersFile   string
	InitialZoom  int
	NoticeTTL    time.Duration
	FetchTimeout time.Duration
	RecentViews  int
}

func FromEnv() Config {
	return Config{
		Addr:         getenv("ADDR", ":8070"),
		LogLevel:     getenv("LOG_LEVEL", "info"),
		BackendURL:   getenv("BACKEND_URL", "http://localhost:8000"),
		DataDir:      getenv("DATA_DIR", "data"),
		LayersFile:   getenv("LAYERS_FILE", ""),
		InitialZoom:  getint("INITIAL_ZOOM", 10),
		NoticeTTL:    getduration("NOTICE_TTL", 4*time.Second),
		FetchTimeout: getduration("FETCH_TIMEOUT", 15*time.Second),
		RecentViews:  getint("RECENT_VIEWS", 32),
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getduration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

// LayerOverlay is one layer's entry in the YAML overlay file. Absent
// zoom bounds stay unbounded; absent file lists keep the built-in
// baseline sources.
type LayerOverlay struct {
	MinZoom *int     `yaml:"minZoom"`
	MaxZoom *int     `yaml:"maxZoom"`
	Files   []string `yaml:"files"`
}

type layersDoc struct {
	Layers map[string]LayerOverlay `yaml:"layers"`
}

// LoadLayerOverlays reads the overlay file. A missing path is not an
// error when it was never configured; the caller decides.
func LoadLayerOverlays(path string) (map[string]LayerOverlay, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read layers file: %w", err)
	}
	var doc layersDoc
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("parse layers file: %w", err)
	}
	out := make(map[string]LayerOverlay, len(doc.Layers))
	for name, lo := range doc.Layers {
		out[strings.TrimSpace(name)] = lo
	}
	return out, nil
}
