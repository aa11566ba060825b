// Package appdata loads the baseline dashboard configuration and applies
// persisted overrides, producing the application-state snapshot every other
// component starts from.
package appdata

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/statewatch/statewatch/internal/store"
)

// Feed is a polled news source bound to one state.
type Feed struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	URL   string `json:"url"`
	State string `json:"state"`
}

// Group is a named, curated subset of states for focused viewing.
type Group struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	States []string `json:"states"`
}

// Keyword flags a story as high-priority when its word appears in a title.
type Keyword struct {
	Word string `json:"word"`
}

// Settings are the user-tunable knobs. Interval fields keep the original
// numeric-millisecond JSON encoding so persisted blobs stay compatible.
type Settings struct {
	TickerSpeed       int    `json:"tickerSpeed"`
	RefreshIntervalMs int64  `json:"refreshInterval"`
	HeatmapDecayMs    int64  `json:"heatmapDecay"`
	Theme             string `json:"theme"`
}

func (s Settings) RefreshInterval() time.Duration {
	return time.Duration(s.RefreshIntervalMs) * time.Millisecond
}

func (s Settings) HeatmapDecay() time.Duration {
	return time.Duration(s.HeatmapDecayMs) * time.Millisecond
}

// DefaultSettings returns the baseline knobs used when no override exists.
func DefaultSettings() Settings {
	return Settings{
		TickerSpeed:       50,
		RefreshIntervalMs: 300000,
		HeatmapDecayMs:    3600000,
		Theme:             "green",
	}
}

// Data is the loaded application-state snapshot.
type Data struct {
	Feeds    []Feed
	Groups   []Group
	Keywords []Keyword
	Settings Settings
}

// Overrides is the read side of the persisted override store. Get returns
// nil for an absent key.
type Overrides interface {
	Get(key string) ([]byte, error)
}

// Load reads the three baseline resources from dir and applies overrides.
// Any baseline read or parse failure is fatal and aggregated into a single
// error; there is no partial result. A nil overrides source means baseline
// only.
func Load(dir string, overrides Overrides) (*Data, error) {
	var feedsDoc struct {
		Feeds []Feed `json:"feeds"`
	}
	var groupsDoc struct {
		Groups []Group `json:"groups"`
	}
	var keywordsDoc struct {
		Keywords []Keyword `json:"keywords"`
	}

	errs := []error{
		readJSON(filepath.Join(dir, "feeds.json"), &feedsDoc),
		readJSON(filepath.Join(dir, "groups.json"), &groupsDoc),
		readJSON(filepath.Join(dir, "keywords.json"), &keywordsDoc),
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("loading baseline data: %w", err)
	}

	d := &Data{
		Feeds:    feedsDoc.Feeds,
		Groups:   groupsDoc.Groups,
		Keywords: keywordsDoc.Keywords,
		Settings: DefaultSettings(),
	}

	if overrides != nil {
		d.Feeds = overrideList(overrides, store.KeyFeeds, d.Feeds)
		d.Groups = overrideList(overrides, store.KeyGroups, d.Groups)
		d.Keywords = overrideList(overrides, store.KeyKeywords, d.Keywords)
		d.Settings = overrideSettings(overrides, d.Settings)
	}

	return d, nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
	}
	return nil
}

// overrideList replaces the baseline list wholesale when the override blob
// is a well-formed JSON array. Anything else, including corrupt JSON, keeps
// the baseline.
func overrideList[T any](overrides Overrides, key string, baseline []T) []T {
	blob, err := overrides.Get(key)
	if err != nil {
		log.Printf("reading override %s: %v", key, err)
		return baseline
	}
	if blob == nil || !startsWith(blob, '[') {
		return baseline
	}

	var replacement []T
	if err := json.Unmarshal(blob, &replacement); err != nil {
		log.Printf("corrupt override %s, using baseline: %v", key, err)
		return baseline
	}
	return replacement
}

// overrideSettings merges a persisted settings object key-by-key over the
// defaults. A non-object blob (array, scalar, corrupt JSON) is ignored.
// Unknown keys in the object pass through harmlessly.
func overrideSettings(overrides Overrides, defaults Settings) Settings {
	blob, err := overrides.Get(store.KeySettings)
	if err != nil {
		log.Printf("reading override %s: %v", store.KeySettings, err)
		return defaults
	}
	if blob == nil || !startsWith(blob, '{') {
		return defaults
	}

	merged := defaults
	if err := json.Unmarshal(blob, &merged); err != nil {
		log.Printf("corrupt override %s, using defaults: %v", store.KeySettings, err)
		return defaults
	}
	return merged
}

func startsWith(blob []byte, c byte) bool {
	for _, b := range blob {
		switch b {
		case ' ', '\t', '\n', '\r':
			continue
		default:
			return b == c
		}
	}
	return false
}
