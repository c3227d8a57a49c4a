// Package hookcfg discovers, parses, validates, and caches the external
// hook configuration file (.agent/hooks.json or .yaml/.yml). Malformed
// input never surfaces as a Go error: every failure becomes a
// human-readable string in the returned error list, and the previous
// cache entry stays untouched.
package hookcfg

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigDirName is the fixed project-local directory the hook file lives
// in, relative to the configured base directory.
const ConfigDirName = ".agent"

var candidateNames = []string{"hooks.json", "hooks.yaml", "hooks.yml"}

// DefaultPath returns the first existing hook file under baseDir's config
// directory, preferring JSON. When none exists it returns the .json path
// so callers have a stable target for future writes.
func DefaultPath(baseDir string) string {
	for _, name := range candidateNames {
		path := filepath.Join(baseDir, ConfigDirName, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return filepath.Join(baseDir, ConfigDirName, candidateNames[0])
}

// Store serves the current Config, re-reading the backing file only when
// its mtime changes.
type Store struct {
	Path string

	mu     sync.Mutex
	cached *Config
	mtime  time.Time
}

func NewStore(path string) *Store {
	return &Store{Path: path}
}

// Exists reports whether the backing file is present, bypassing the cache.
func (s *Store) Exists() bool {
	info, err := os.Stat(s.Path)
	return err == nil && !info.IsDir()
}

// Load returns the current config. Concurrent callers are serialized so a
// reload never races. On any failure the config is nil and every problem
// is reported as one entry in the string list.
func (s *Store) Load(ctx context.Context) (*Config, []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, []string{fmt.Sprintf("hook config load cancelled: %v", err)}
	}

	info, err := os.Stat(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, []string{fmt.Sprintf("hook config not found at %s", s.Path)}
		}
		return nil, []string{fmt.Sprintf("stat hook config %s: %v", s.Path, err)}
	}

	if s.cached != nil && info.ModTime().Equal(s.mtime) {
		return s.cached, nil
	}

	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, []string{fmt.Sprintf("read hook config %s: %v", s.Path, err)}
	}

	raw, errs := parse(s.Path, data)
	if len(errs) > 0 {
		return nil, errs
	}
	cfg, errs := validate(raw)
	if len(errs) > 0 {
		return nil, errs
	}

	s.cached = cfg
	s.mtime = info.ModTime()
	return cfg, nil
}

// Reload drops the cache and loads fresh from disk.
func (s *Store) Reload(ctx context.Context) (*Config, []string) {
	s.mu.Lock()
	s.cached = nil
	s.mtime = time.Time{}
	s.mu.Unlock()
	return s.Load(ctx)
}

func parse(path string, data []byte) (map[string]any, []string) {
	var raw map[string]any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, []string{fmt.Sprintf("parse %s: %v", path, err)}
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, []string{fmt.Sprintf("parse %s: %v", path, err)}
		}
	default:
		return nil, []string{fmt.Sprintf("unsupported hook config format %q (want .json, .yaml, or .yml)", filepath.Ext(path))}
	}
	if raw == nil {
		return nil, []string{"hook config must be an object"}
	}
	return raw, nil
}

// validate walks the raw document and builds the typed Config. Any
// structural violation rejects the whole load; every violation yields its
// own message so a broken file can be fixed in one pass.
func validate(raw map[string]any) (*Config, []string) {
	var errs []string

	rawHooks, ok := raw["hooks"].(map[string]any)
	if !ok {
		return nil, []string{`hook config missing "hooks" object`}
	}

	cfg := &Config{Hooks: map[string][]Matcher{}}
	for eventType, rawBucket := range rawHooks {
		bucket, ok := rawBucket.([]any)
		if !ok {
			errs = append(errs, fmt.Sprintf("hooks.%s must be a list of matchers", eventType))
			continue
		}
		matchers := make([]Matcher, 0, len(bucket))
		for i, rawMatcher := range bucket {
			obj, ok := rawMatcher.(map[string]any)
			if !ok {
				errs = append(errs, fmt.Sprintf("hooks.%s[%d] must be an object", eventType, i))
				continue
			}
			pattern, ok := obj["matcher"].(string)
			if !ok {
				errs = append(errs, fmt.Sprintf(`hooks.%s[%d] missing "matcher" string`, eventType, i))
				continue
			}
			rawList, ok := obj["hooks"].([]any)
			if !ok || len(rawList) == 0 {
				errs = append(errs, fmt.Sprintf(`hooks.%s[%d] missing non-empty "hooks" list`, eventType, i))
				continue
			}
			hooks := make([]Hook, 0, len(rawList))
			for j, rawHook := range rawList {
				hookObj, ok := rawHook.(map[string]any)
				if !ok {
					errs = append(errs, fmt.Sprintf("hooks.%s[%d].hooks[%d] must be an object", eventType, i, j))
					continue
				}
				kind, ok := hookObj["type"].(string)
				if !ok || kind == "" {
					errs = append(errs, fmt.Sprintf(`hooks.%s[%d].hooks[%d] missing "type"`, eventType, i, j))
					continue
				}
				command, ok := hookObj["command"].(string)
				if !ok || command == "" {
					errs = append(errs, fmt.Sprintf(`hooks.%s[%d].hooks[%d] missing "command"`, eventType, i, j))
					continue
				}
				description, _ := hookObj["description"].(string)
				hooks = append(hooks, Hook{Kind: HookKind(kind), Command: command, Description: description})
			}
			matchers = append(matchers, Matcher{Pattern: pattern, Hooks: hooks})
		}
		cfg.Hooks[eventType] = matchers
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return cfg, nil
}
