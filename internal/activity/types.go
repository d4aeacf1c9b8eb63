// Package activity maintains the append-only session activity log.
//
// Callers feed it the file paths touched in a session; the store derives
// project membership for each file, keeps per-project counters, and tracks
// co-activity — a symmetric per-session count of how often two projects
// are touched together. The smart-sync heuristic reads these aggregates.
package activity

import (
	"os"
	"path/filepath"
	"time"
)

// FileTouch is one observed file event within a session.
type FileTouch struct {
	Path      string `json:"path"`
	Action    string `json:"action"`
	Timestamp string `json:"timestamp"`
}

// Session groups the files and projects touched together in one sitting.
// Repeated record calls with the same id append to the same session.
type Session struct {
	ID        string      `json:"id"`
	StartedAt string      `json:"startedAt"`
	Files     []FileTouch `json:"files"`
	Projects  []string    `json:"projects"`
}

// hasProject reports whether the session already attributes project.
func (s *Session) hasProject(project string) bool {
	for _, p := range s.Projects {
		if p == project {
			return true
		}
	}
	return false
}

// ProjectStats are the per-project aggregates derived from sessions.
type ProjectStats struct {
	FileCount    int    `json:"fileCount"`
	LastActive   string `json:"lastActive"`
	SessionCount int    `json:"sessionCount"`
}

// Log is the persisted activity record.
type Log struct {
	Sessions     []Session                 `json:"sessions"`
	ProjectStats map[string]ProjectStats   `json:"projectStats"`
	CoActivity   map[string]map[string]int `json:"coActivity"`
}

// RecordResult reports what one record call did.
type RecordResult struct {
	SessionID   string   `json:"sessionId"`
	FilesLogged int      `json:"filesLogged"`
	Projects    []string `json:"projects"`
}

// Config holds activity store configuration. Retention and suggestion
// thresholds are tunable rather than baked-in constants.
type Config struct {
	Path string
	// MaxSessions bounds retention: sessions beyond the most recent cap
	// are pruned (to the archive, when one is attached) after each write.
	MaxSessions int
	// Markers are the directory names whose presence identifies a
	// project root during upward attribution walks.
	Markers []string
	// SuggestionFloor is the minimum number of sessions a project set
	// must co-occur in before it is proposed as a workstream.
	SuggestionFloor int
	// MaxSuggestions caps the suggestion list.
	MaxSuggestions int
}

// DefaultConfig returns the default activity store configuration for the
// given activity.json path.
func DefaultConfig(path string) Config {
	return Config{
		Path:            path,
		MaxSessions:     100,
		Markers:         []string{".git", ".claude"},
		SuggestionFloor: 3,
		MaxSuggestions:  5,
	}
}

// timeNow and userHomeDir are package-level vars to allow test injection.
var (
	timeNow     = time.Now
	userHomeDir = os.UserHomeDir
)

// attributeProject walks upward from the file's directory until a project
// marker directory is found. The walk stops at the user's home directory
// boundary or the filesystem root, in which case no project is attributed.
func attributeProject(path string, markers []string) string {
	home, _ := userHomeDir()

	dir := filepath.Dir(path)
	abs, err := filepath.Abs(dir)
	if err != nil {
		return ""
	}

	current := abs
	for {
		if home != "" && current == home {
			return ""
		}
		for _, marker := range markers {
			if info, err := os.Stat(filepath.Join(current, marker)); err == nil && info.IsDir() {
				return current
			}
		}
		parent := filepath.Dir(current)
		if parent == current {
			return ""
		}
		current = parent
	}
}
