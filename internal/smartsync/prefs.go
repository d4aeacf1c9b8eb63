// Package smartsync scores candidate workstreams against current activity
// and decides between staying silent, nudging the user, and switching
// automatically.
//
// Each detection call walks Idle → Scoring → one of {Suppressed, Nudge,
// AutoSwitch}; nothing about the state machine is persisted — only the
// preferences that gate it.
package smartsync

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/avhern/weave/internal/jsonio"
)

// Choice values for a learned per-project preference.
const (
	ChoiceAlways = "always"
	ChoiceNever  = "never"
)

// ProjectChoice is a saved user decision for one project. An explicit
// decision always outranks the heuristic.
type ProjectChoice struct {
	WorkstreamID string `json:"workstreamId"`
	Choice       string `json:"choice"`
	SavedAt      string `json:"savedAt"`
}

// Prefs governs whether a scored suggestion is surfaced, suppressed, or
// auto-applied.
type Prefs struct {
	Enabled             bool                     `json:"enabled"`
	AutoSwitchThreshold int                      `json:"autoSwitchThreshold"`
	ProjectChoices      map[string]ProjectChoice `json:"projectChoices"`
	DismissedNudges     []string                 `json:"dismissedNudges"`
	LastNudgeTime       string                   `json:"lastNudgeTime,omitempty"`
}

// DefaultPrefs returns the preferences a fresh install starts with.
func DefaultPrefs() *Prefs {
	return &Prefs{
		Enabled:             true,
		AutoSwitchThreshold: 80,
		ProjectChoices:      map[string]ProjectChoice{},
		DismissedNudges:     []string{},
	}
}

// Dismissed reports whether a nudge key was dismissed before.
func (p *Prefs) Dismissed(key string) bool {
	for _, k := range p.DismissedNudges {
		if k == key {
			return true
		}
	}
	return false
}

// PrefsStore persists smart-sync preferences.
type PrefsStore interface {
	Load() (*Prefs, error)
	Save(*Prefs) error
}

// FilePrefsStore implements PrefsStore against smart-sync.json.
type FilePrefsStore struct {
	mu   sync.Mutex
	path string
}

// NewFilePrefsStore creates a preferences store backed by the given path.
func NewFilePrefsStore(path string) *FilePrefsStore {
	return &FilePrefsStore{path: path}
}

// Load reads preferences; a missing file yields the defaults.
func (fs *FilePrefsStore) Load() (*Prefs, error) {
	var p Prefs
	if err := jsonio.ReadFile(fs.path, &p); err != nil {
		if os.IsNotExist(err) {
			return DefaultPrefs(), nil
		}
		return nil, fmt.Errorf("loading smart-sync prefs: %w", err)
	}
	if p.ProjectChoices == nil {
		p.ProjectChoices = map[string]ProjectChoice{}
	}
	if p.DismissedNudges == nil {
		p.DismissedNudges = []string{}
	}
	return &p, nil
}

// Save writes preferences back to disk.
func (fs *FilePrefsStore) Save(p *Prefs) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return jsonio.WriteFile(fs.path, p)
}

// Tunables are the heuristic's knobs. The shipped defaults are the
// historically used values; none of them is derived from first
// principles, so they are injected rather than inlined.
type Tunables struct {
	// OverlapWeight weighs how much of the current focus a workstream
	// explains; CoverageWeight weighs how much of the workstream is
	// currently being touched. Overlap dominates: the signal that
	// matters is "is the user's current focus well explained by this
	// workstream", not "has the user finished its scope".
	OverlapWeight  float64
	CoverageWeight float64
	// NudgeFloor is the minimum confidence before a nudge is surfaced.
	NudgeFloor int
	// AutoSwitchThreshold is the fallback when prefs carry none.
	AutoSwitchThreshold int
	// NudgeCooldown rate-limits nudges globally.
	NudgeCooldown time.Duration
}

// DefaultTunables returns the shipped heuristic constants.
func DefaultTunables() Tunables {
	return Tunables{
		OverlapWeight:       0.7,
		CoverageWeight:      0.3,
		NudgeFloor:          50,
		AutoSwitchThreshold: 80,
		NudgeCooldown:       5 * time.Minute,
	}
}

// timeNow is a package-level var to allow test injection.
var timeNow = time.Now
