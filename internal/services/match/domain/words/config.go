package words

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync/atomic"
	"time"

	apperrors "github.com/louisbranch/wordclash/internal/platform/errors"
)

// DistanceRule maps a minimum word length to the edit distance tolerated for
// words at least that long. Shorter words tolerate fewer errors.
type DistanceRule struct {
	MinLength   int `json:"min_length"`
	MaxDistance int `json:"max_distance"`
}

// Rules carries the tunable match parameters shipped with a category pack.
type Rules struct {
	NumRounds            int            `json:"num_rounds"`
	RoundSeconds         int            `json:"round_seconds"`
	TimeExtensionSeconds int            `json:"time_extension_seconds"`
	MatchExpirySeconds   int            `json:"match_expiry_seconds"`
	GroupChoiceCount     int            `json:"group_choice_count"`
	MaxGroupRefreshes    int            `json:"max_group_refreshes"`
	MaxTimeExtensions    int            `json:"max_time_extensions"`
	MaxWordReveals       int            `json:"max_word_reveals"`
	TimeExtensionPrices  []int          `json:"time_extension_prices"`
	RevealPrices         []int          `json:"reveal_prices"`
	FuzzyDistance        []DistanceRule `json:"fuzzy_distance"`
}

// RoundDuration returns the configured turn length.
func (r Rules) RoundDuration() time.Duration {
	return time.Duration(r.RoundSeconds) * time.Second
}

// TimeExtension returns the duration one purchased extension adds to a turn.
func (r Rules) TimeExtension() time.Duration {
	return time.Duration(r.TimeExtensionSeconds) * time.Second
}

// MatchExpiry returns the inactivity window before a match is forfeited.
func (r Rules) MatchExpiry() time.Duration {
	return time.Duration(r.MatchExpirySeconds) * time.Second
}

// PriceForUse returns the escalating price for the nth use (0-based) from a
// price ladder; past the ladder's end the last price repeats.
func PriceForUse(ladder []int, used int) int {
	if len(ladder) == 0 {
		return 0
	}
	if used >= len(ladder) {
		return ladder[len(ladder)-1]
	}
	if used < 0 {
		return ladder[0]
	}
	return ladder[used]
}

// GroupDef declares one category group as loaded from a pack.
type GroupDef struct {
	Name       string   `json:"name"`
	Categories []string `json:"categories"`
}

// Pack is the JSON document a category pack is loaded from.
type Pack struct {
	Rules      Rules        `json:"rules"`
	Groups     []GroupDef   `json:"groups"`
	Categories []Definition `json:"categories"`
}

// Config is one immutable snapshot of categories, groups, and rules. Updates
// replace the whole snapshot through a Holder; a Config is never mutated, so
// concurrent match entities read it without locking.
type Config struct {
	rules         Rules
	categories    map[string]*Category
	categoryNames []string
	groups        map[string][]string
	groupNames    []string
	distanceRules []DistanceRule
}

// Parse builds a config snapshot from pack JSON, validating the pack's
// structural invariants.
func Parse(data []byte) (*Config, error) {
	var pack Pack
	if err := json.Unmarshal(data, &pack); err != nil {
		return nil, apperrors.Wrap(apperrors.CodePackInvalid, "decode category pack", err)
	}
	return FromPack(pack)
}

// Load reads and parses a category pack file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read category pack: %w", err)
	}
	return Parse(data)
}

// FromPack builds a config snapshot from an already-decoded pack.
func FromPack(pack Pack) (*Config, error) {
	if pack.Rules.NumRounds <= 0 {
		return nil, apperrors.New(apperrors.CodePackInvalid, "pack rules must set num_rounds above zero")
	}
	if pack.Rules.RoundSeconds <= 0 {
		return nil, apperrors.New(apperrors.CodePackInvalid, "pack rules must set round_seconds above zero")
	}
	if len(pack.Categories) == 0 {
		return nil, apperrors.New(apperrors.CodePackInvalid, "pack declares no categories")
	}

	cfg := &Config{
		rules:      pack.Rules,
		categories: make(map[string]*Category, len(pack.Categories)),
		groups:     make(map[string][]string, len(pack.Groups)),
	}
	for _, def := range pack.Categories {
		cat, err := NewCategory(def)
		if err != nil {
			return nil, err
		}
		if _, exists := cfg.categories[cat.Name()]; exists {
			return nil, apperrors.WithMetadata(apperrors.CodePackInvalid,
				fmt.Sprintf("category %q declared twice", cat.Name()),
				map[string]string{"category": cat.Name()})
		}
		cfg.categories[cat.Name()] = cat
		cfg.categoryNames = append(cfg.categoryNames, cat.Name())
	}
	for _, group := range pack.Groups {
		if group.Name == "" {
			return nil, apperrors.New(apperrors.CodePackInvalid, "group name is required")
		}
		if _, exists := cfg.groups[group.Name]; exists {
			return nil, apperrors.WithMetadata(apperrors.CodePackInvalid,
				fmt.Sprintf("group %q declared twice", group.Name),
				map[string]string{"group": group.Name})
		}
		if len(group.Categories) == 0 {
			return nil, apperrors.WithMetadata(apperrors.CodePackInvalid,
				fmt.Sprintf("group %q lists no categories", group.Name),
				map[string]string{"group": group.Name})
		}
		for _, name := range group.Categories {
			if _, ok := cfg.categories[name]; !ok {
				return nil, apperrors.WithMetadata(apperrors.CodePackCategoryNotFound,
					fmt.Sprintf("group %q references unknown category %q", group.Name, name),
					map[string]string{"group": group.Name, "category": name})
			}
		}
		cfg.groups[group.Name] = append([]string(nil), group.Categories...)
		cfg.groupNames = append(cfg.groupNames, group.Name)
	}

	cfg.distanceRules = append([]DistanceRule(nil), pack.Rules.FuzzyDistance...)
	sort.Slice(cfg.distanceRules, func(i, j int) bool {
		return cfg.distanceRules[i].MinLength < cfg.distanceRules[j].MinLength
	})
	return cfg, nil
}

// Rules returns the pack's match parameters.
func (c *Config) Rules() Rules { return c.rules }

// Category resolves a category by name.
func (c *Config) Category(name string) (*Category, bool) {
	cat, ok := c.categories[name]
	return cat, ok
}

// CategoryNames returns every category name in pack order.
func (c *Config) CategoryNames() []string {
	return append([]string(nil), c.categoryNames...)
}

// GroupNames returns every group name in pack order.
func (c *Config) GroupNames() []string {
	return append([]string(nil), c.groupNames...)
}

// GroupCategories returns the category names belonging to one group.
func (c *Config) GroupCategories(group string) ([]string, bool) {
	names, ok := c.groups[group]
	if !ok {
		return nil, false
	}
	return append([]string(nil), names...), true
}

// DistanceForLength returns the fuzzy-correction budget for a word of the
// given rune length, per the pack's distance ladder.
func (c *Config) DistanceForLength(length int) int {
	budget := 0
	for _, rule := range c.distanceRules {
		if length >= rule.MinLength {
			budget = rule.MaxDistance
		}
	}
	return budget
}

// Holder publishes the current config snapshot. Swaps are atomic and
// wholesale; readers pin a snapshot once per operation and never observe a
// partial update.
type Holder struct {
	current atomic.Pointer[Config]
}

// NewHolder creates a holder seeded with an initial snapshot.
func NewHolder(cfg *Config) *Holder {
	h := &Holder{}
	h.current.Store(cfg)
	return h
}

// Current returns the live snapshot.
func (h *Holder) Current() *Config {
	return h.current.Load()
}

// Swap replaces the live snapshot.
func (h *Holder) Swap(cfg *Config) {
	h.current.Store(cfg)
}
