package activity

import (
	"fmt"
	"log"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/avhern/weave/internal/jsonio"
	"github.com/google/uuid"
)

// Archiver receives sessions pruned past the retention cap. Archiving is
// best effort: a failing archiver never fails a record call.
type Archiver interface {
	ArchiveSessions(sessions []Session) error
}

// Store defines activity persistence. Abstracted for testability.
type Store interface {
	Load() (*Log, error)
	Record(paths []string, action, sessionID string) (*RecordResult, error)
	SuggestWorkstreams(existing [][]string) ([]Suggestion, error)
}

// FileStore implements Store against activity.json. A process-level mutex
// serializes the load-modify-save sequence.
type FileStore struct {
	mu      sync.Mutex
	cfg     Config
	archive Archiver
}

// NewFileStore creates an activity store with the given configuration.
func NewFileStore(cfg Config) *FileStore {
	return &FileStore{cfg: cfg}
}

// SetArchiver attaches an archive for pruned sessions.
func (fs *FileStore) SetArchiver(a Archiver) {
	fs.archive = a
}

// Load reads the activity log. A missing file yields an empty log; a
// corrupt one is treated as absent (logged) so activity recording keeps
// working rather than wedging on one bad file.
func (fs *FileStore) Load() (*Log, error) {
	var l Log
	if err := jsonio.ReadFile(fs.cfg.Path, &l); err != nil {
		if !os.IsNotExist(err) {
			log.Printf("WARNING: activity log unreadable, starting fresh: %v", err)
		}
		return emptyLog(), nil
	}
	if l.ProjectStats == nil {
		l.ProjectStats = map[string]ProjectStats{}
	}
	if l.CoActivity == nil {
		l.CoActivity = map[string]map[string]int{}
	}
	return &l, nil
}

func emptyLog() *Log {
	return &Log{
		Sessions:     []Session{},
		ProjectStats: map[string]ProjectStats{},
		CoActivity:   map[string]map[string]int{},
	}
}

// Record appends file-touch events to a session. An empty sessionID starts
// a new session; a repeated id appends to the existing one. For each file
// the project root is derived by the marker walk; per-project counters and
// lastActive are updated monotonically, and the co-activity counter for
// every newly co-present project pair is incremented once for the session.
func (fs *FileStore) Record(paths []string, action, sessionID string) (*RecordResult, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("at least one file path is required")
	}
	if action == "" {
		action = "edit"
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	l, err := fs.Load()
	if err != nil {
		return nil, err
	}

	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	now := timeNow().UTC().Format(time.RFC3339)

	idx := -1
	for i := range l.Sessions {
		if l.Sessions[i].ID == sessionID {
			idx = i
			break
		}
	}
	if idx < 0 {
		l.Sessions = append(l.Sessions, Session{
			ID:        sessionID,
			StartedAt: now,
			Files:     []FileTouch{},
			Projects:  []string{},
		})
		idx = len(l.Sessions) - 1
	}
	session := &l.Sessions[idx]

	before := append([]string(nil), session.Projects...)

	for _, path := range paths {
		session.Files = append(session.Files, FileTouch{
			Path:      path,
			Action:    action,
			Timestamp: now,
		})

		project := attributeProject(path, fs.cfg.Markers)
		if project == "" {
			continue
		}

		stats := l.ProjectStats[project]
		stats.FileCount++
		// lastActive is monotonic: a more recent timestamp always
		// replaces an older one, even across out-of-order calls.
		if now > stats.LastActive {
			stats.LastActive = now
		}
		if !session.hasProject(project) {
			session.Projects = append(session.Projects, project)
			stats.SessionCount++
		}
		l.ProjectStats[project] = stats
	}

	// Co-activity is counted once per unordered pair per session, not per
	// file. Pairs among the pre-existing projects were counted on earlier
	// calls; only pairs involving a newly attributed project increment.
	bumpNewPairs(l.CoActivity, before, session.Projects)

	fs.prune(l)

	result := &RecordResult{
		SessionID:   sessionID,
		FilesLogged: len(paths),
		Projects:    append([]string(nil), session.Projects...),
	}

	if err := jsonio.WriteFile(fs.cfg.Path, l); err != nil {
		return nil, fmt.Errorf("writing activity log: %w", err)
	}
	return result, nil
}

// bumpNewPairs increments the symmetric co-activity edge for every project
// pair present after the call but not before it.
func bumpNewPairs(co map[string]map[string]int, before, after []string) {
	wasPresent := make(map[string]bool, len(before))
	for _, p := range before {
		wasPresent[p] = true
	}

	for i, a := range after {
		for _, b := range after[i+1:] {
			if wasPresent[a] && wasPresent[b] {
				continue // pair already counted for this session
			}
			bumpEdge(co, a, b)
			bumpEdge(co, b, a)
		}
	}
}

func bumpEdge(co map[string]map[string]int, from, to string) {
	if co[from] == nil {
		co[from] = map[string]int{}
	}
	co[from][to]++
}

// prune enforces ring-buffer retention: only the most recent MaxSessions
// sessions are kept. Pruned sessions go to the archive when one is
// attached; archive failures are logged and otherwise ignored.
func (fs *FileStore) prune(l *Log) {
	if fs.cfg.MaxSessions <= 0 || len(l.Sessions) <= fs.cfg.MaxSessions {
		return
	}
	cut := len(l.Sessions) - fs.cfg.MaxSessions
	pruned := l.Sessions[:cut]
	if fs.archive != nil {
		if err := fs.archive.ArchiveSessions(pruned); err != nil {
			log.Printf("WARNING: archiving %d pruned sessions: %v", len(pruned), err)
		}
	}
	l.Sessions = append([]Session(nil), l.Sessions[cut:]...)
}

// Suggestion proposes a new workstream from a project set that keeps
// being touched together.
type Suggestion struct {
	Projects []string `json:"projects"`
	Sessions int      `json:"sessions"`
}

// SuggestWorkstreams groups sessions by their set of touched projects
// (order-independent) and proposes a workstream for any multi-project set
// that co-occurred in at least SuggestionFloor sessions and is not already
// fully covered by an existing workstream's project list. Ranked by
// occurrence count, capped at MaxSuggestions.
func (fs *FileStore) SuggestWorkstreams(existing [][]string) ([]Suggestion, error) {
	l, err := fs.Load()
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	sets := make(map[string][]string)
	for _, session := range l.Sessions {
		if len(session.Projects) < 2 {
			continue
		}
		set := append([]string(nil), session.Projects...)
		sort.Strings(set)
		key := setKey(set)
		counts[key]++
		sets[key] = set
	}

	var suggestions []Suggestion
	for key, count := range counts {
		if count < fs.cfg.SuggestionFloor {
			continue
		}
		if coveredByAny(sets[key], existing) {
			continue
		}
		suggestions = append(suggestions, Suggestion{
			Projects: sets[key],
			Sessions: count,
		})
	}

	sort.Slice(suggestions, func(i, j int) bool {
		if suggestions[i].Sessions != suggestions[j].Sessions {
			return suggestions[i].Sessions > suggestions[j].Sessions
		}
		return setKey(suggestions[i].Projects) < setKey(suggestions[j].Projects)
	})
	if len(suggestions) > fs.cfg.MaxSuggestions {
		suggestions = suggestions[:fs.cfg.MaxSuggestions]
	}
	return suggestions, nil
}

func setKey(sorted []string) string {
	key := ""
	for _, p := range sorted {
		key += p + "\x00"
	}
	return key
}

// coveredByAny reports whether some existing workstream's project list
// contains every project in the set.
func coveredByAny(set []string, existing [][]string) bool {
	for _, projects := range existing {
		have := make(map[string]bool, len(projects))
		for _, p := range projects {
			have[p] = true
		}
		all := true
		for _, p := range set {
			if !have[p] {
				all = false
				break
			}
		}
		if all {
			return true
		}
	}
	return false
}
