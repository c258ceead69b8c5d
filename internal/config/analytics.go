package config

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// AnalyticsSettings are the tunables of the adaptive engine and its analytics
type AnalyticsSettings struct {
	TotalQuestions int      `toml:"total_questions" yaml:"total_questions" json:"total_questions"`
	LearningRate   float64  `toml:"learning_rate" yaml:"learning_rate" json:"learning_rate"`
	Jitter         float64  `toml:"jitter" yaml:"jitter" json:"jitter"`
	PeerLimit      int      `toml:"peer_limit" yaml:"peer_limit" json:"peer_limit"`
	HistoryLimit   int      `toml:"history_limit" yaml:"history_limit" json:"history_limit"`
	ReportCacheTTL Duration `toml:"report_cache_ttl" yaml:"report_cache_ttl" json:"report_cache_ttl"`
}

// DefaultAnalyticsSettings returns the built-in tuning
func DefaultAnalyticsSettings() AnalyticsSettings {
	return AnalyticsSettings{
		TotalQuestions: 10,
		LearningRate:   2,
		Jitter:         0.3,
		PeerLimit:      50,
		HistoryLimit:   20,
		ReportCacheTTL: Duration(10 * time.Minute),
	}
}

// normalize replaces unusable values with their defaults
func (s *AnalyticsSettings) normalize() {
	def := DefaultAnalyticsSettings()
	if s.TotalQuestions <= 0 {
		s.TotalQuestions = def.TotalQuestions
	}
	if s.LearningRate <= 0 {
		s.LearningRate = def.LearningRate
	}
	if s.Jitter < 0 {
		s.Jitter = def.Jitter
	}
	if s.PeerLimit <= 0 {
		s.PeerLimit = def.PeerLimit
	}
	if s.HistoryLimit <= 0 {
		s.HistoryLimit = def.HistoryLimit
	}
	if s.ReportCacheTTL <= 0 {
		s.ReportCacheTTL = def.ReportCacheTTL
	}
}

// Duration is a time.Duration written as "10m" in config files
type Duration time.Duration

func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) String() string { return time.Duration(d).String() }

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalYAML accepts the same textual form as TOML and JSON
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	return d.UnmarshalText([]byte(value.Value))
}

// LoadAnalyticsSettings reads the tuning file. The format follows the file
// extension; a missing file yields the defaults.
func LoadAnalyticsSettings(path string) (AnalyticsSettings, error) {
	settings := DefaultAnalyticsSettings()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return settings, nil
		}
		return settings, fmt.Errorf("failed to read analytics config: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		_, err = toml.Decode(string(data), &settings)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &settings)
	case ".json":
		err = json.Unmarshal(data, &settings)
	default:
		return DefaultAnalyticsSettings(), fmt.Errorf("unsupported analytics config format: %s", filepath.Ext(path))
	}
	if err != nil {
		return DefaultAnalyticsSettings(), fmt.Errorf("failed to parse analytics config: %w", err)
	}

	settings.normalize()
	return settings, nil
}

// AnalyticsStore holds the active tuning and swaps it on reload
type AnalyticsStore struct {
	path     string
	current  atomic.Pointer[AnalyticsSettings]
	mu       sync.Mutex
	onChange []func(AnalyticsSettings)
}

// NewAnalyticsStore loads the tuning file once
func NewAnalyticsStore(path string) (*AnalyticsStore, error) {
	settings, err := LoadAnalyticsSettings(path)
	if err != nil {
		return nil, err
	}
	store := &AnalyticsStore{path: path}
	store.current.Store(&settings)
	return store, nil
}

// NewStaticAnalyticsStore returns a store that never reads a file
func NewStaticAnalyticsStore(settings AnalyticsSettings) *AnalyticsStore {
	settings.normalize()
	store := &AnalyticsStore{}
	store.current.Store(&settings)
	return store
}

// Current returns the active settings
func (s *AnalyticsStore) Current() AnalyticsSettings {
	return *s.current.Load()
}

// OnChange registers a callback run after every successful reload
func (s *AnalyticsStore) OnChange(cb func(AnalyticsSettings)) {
	s.mu.Lock()
	s.onChange = append(s.onChange, cb)
	s.mu.Unlock()
}

// Reload re-reads the tuning file. A failed reload keeps the previous values.
func (s *AnalyticsStore) Reload() error {
	settings, err := LoadAnalyticsSettings(s.path)
	if err != nil {
		return err
	}
	s.current.Store(&settings)

	s.mu.Lock()
	callbacks := append([]func(AnalyticsSettings){}, s.onChange...)
	s.mu.Unlock()
	for _, cb := range callbacks {
		cb(settings)
	}
	return nil
}

const reloadDebounce = 100 * time.Millisecond

// Watch reloads the tuning file whenever it is written, until ctx is done.
// The directory is watched so editors that replace the file are handled.
func (s *AnalyticsStore) Watch(ctx context.Context, logger *slog.Logger) error {
	if s.path == "" {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch analytics config: %w", err)
	}

	go func() {
		defer watcher.Close()
		var debounce *time.Timer
		for {
			select {
			case <-ctx.Done():
				if debounce != nil {
					debounce.Stop()
				}
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Base(event.Name) != filepath.Base(s.path) {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				if debounce != nil {
					debounce.Stop()
				}
				debounce = time.AfterFunc(reloadDebounce, func() {
					if err := s.Reload(); err != nil {
						logger.Error("Failed to reload analytics config", "path", s.path, "error", err)
						return
					}
					logger.Info("Analytics config reloaded", "path", s.path)
				})
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("Analytics config watcher error", "error", err)
			}
		}
	}()

	return nil
}
