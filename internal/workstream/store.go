package workstream

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/avhern/weave/internal/jsonio"
)

// Store defines workstream persistence. Abstracted for testability.
type Store interface {
	Load() (*File, error)
	Create(name string, projects []string, rules string) (*Workstream, error)
	Update(id string, name, rules *string) (*Workstream, error)
	Delete(id string) error
	AddProject(id, project string) (*Workstream, error)
	RemoveProject(id, project string) (*Workstream, error)
	SetActive(id string) (*Workstream, error)
	ClearActive() error
	Active() (*Workstream, error)
	Get(id string) (*Workstream, error)
}

// FileStore implements Store against workstreams.json. A process-level
// mutex serializes the load-modify-save sequence so the CLI surface and
// the MCP surface in the same process cannot lose updates.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore creates a workstream store backed by the given file path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads the store file. A missing file yields an empty store.
func (fs *FileStore) Load() (*File, error) {
	var f File
	if err := jsonio.ReadFile(fs.path, &f); err != nil {
		if os.IsNotExist(err) {
			return &File{}, nil
		}
		return nil, fmt.Errorf("loading workstreams: %w", err)
	}
	return &f, nil
}

func (fs *FileStore) save(f *File) error {
	return jsonio.WriteFile(fs.path, f)
}

// Create adds a new workstream. Names are unique case-insensitively; a
// missing name is a rejected operation.
func (fs *FileStore) Create(name string, projects []string, rules string) (*Workstream, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	f, err := fs.Load()
	if err != nil {
		return nil, err
	}
	for _, ws := range f.Workstreams {
		if strings.EqualFold(ws.Name, name) {
			return nil, fmt.Errorf("workstream %q already exists", ws.Name)
		}
	}

	// Slug collisions get a numeric suffix.
	id := Slugify(name)
	base := id
	suffix := 2
	for fs.findIndex(f, id) >= 0 {
		id = fmt.Sprintf("%s-%d", base, suffix)
		suffix++
	}

	if projects == nil {
		projects = []string{}
	}
	now := time.Now().UTC().Format(time.RFC3339)
	ws := Workstream{
		ID:        id,
		Name:      name,
		Projects:  projects,
		Rules:     rules,
		CreatedAt: now,
		UpdatedAt: now,
	}
	f.Workstreams = append(f.Workstreams, ws)

	if err := fs.save(f); err != nil {
		return nil, err
	}
	return &ws, nil
}

// Update renames a workstream and/or replaces its rules text. Nil fields
// are left untouched.
func (fs *FileStore) Update(id string, name, rules *string) (*Workstream, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	f, err := fs.Load()
	if err != nil {
		return nil, err
	}
	idx := fs.findIndex(f, id)
	if idx < 0 {
		return nil, fmt.Errorf("workstream %q not found", id)
	}

	if name != nil {
		if err := ValidateName(*name); err != nil {
			return nil, err
		}
		for i, ws := range f.Workstreams {
			if i != idx && strings.EqualFold(ws.Name, *name) {
				return nil, fmt.Errorf("workstream %q already exists", ws.Name)
			}
		}
		f.Workstreams[idx].Name = *name
	}
	if rules != nil {
		f.Workstreams[idx].Rules = *rules
	}
	f.Workstreams[idx].UpdatedAt = time.Now().UTC().Format(time.RFC3339)

	if err := fs.save(f); err != nil {
		return nil, err
	}
	ws := f.Workstreams[idx]
	return &ws, nil
}

// Delete removes a workstream, clearing the active pointer and any
// lastUsedByProject entries that reference it.
func (fs *FileStore) Delete(id string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	f, err := fs.Load()
	if err != nil {
		return err
	}
	idx := fs.findIndex(f, id)
	if idx < 0 {
		return fmt.Errorf("workstream %q not found", id)
	}

	f.Workstreams = append(f.Workstreams[:idx], f.Workstreams[idx+1:]...)
	if f.ActiveID == id {
		f.ActiveID = ""
	}
	for project, wsID := range f.LastUsedByProject {
		if wsID == id {
			delete(f.LastUsedByProject, project)
		}
	}

	return fs.save(f)
}

// AddProject appends a project path to a workstream, ignoring duplicates.
func (fs *FileStore) AddProject(id, project string) (*Workstream, error) {
	if strings.TrimSpace(project) == "" {
		return nil, fmt.Errorf("project path is required")
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	f, err := fs.Load()
	if err != nil {
		return nil, err
	}
	idx := fs.findIndex(f, id)
	if idx < 0 {
		return nil, fmt.Errorf("workstream %q not found", id)
	}

	if !f.Workstreams[idx].HasProject(project) {
		f.Workstreams[idx].Projects = append(f.Workstreams[idx].Projects, project)
		f.Workstreams[idx].UpdatedAt = time.Now().UTC().Format(time.RFC3339)
		if err := fs.save(f); err != nil {
			return nil, err
		}
	}
	ws := f.Workstreams[idx]
	return &ws, nil
}

// RemoveProject removes a project path from a workstream.
func (fs *FileStore) RemoveProject(id, project string) (*Workstream, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	f, err := fs.Load()
	if err != nil {
		return nil, err
	}
	idx := fs.findIndex(f, id)
	if idx < 0 {
		return nil, fmt.Errorf("workstream %q not found", id)
	}

	projects := f.Workstreams[idx].Projects
	for i, p := range projects {
		if p == project {
			f.Workstreams[idx].Projects = append(projects[:i], projects[i+1:]...)
			f.Workstreams[idx].UpdatedAt = time.Now().UTC().Format(time.RFC3339)
			if err := fs.save(f); err != nil {
				return nil, err
			}
			break
		}
	}
	ws := f.Workstreams[idx]
	return &ws, nil
}

// SetActive points the single active pointer at a workstream and stamps
// lastUsedByProject for each of its projects.
func (fs *FileStore) SetActive(id string) (*Workstream, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	f, err := fs.Load()
	if err != nil {
		return nil, err
	}
	idx := fs.findIndex(f, id)
	if idx < 0 {
		return nil, fmt.Errorf("workstream %q not found", id)
	}

	f.ActiveID = id
	if f.LastUsedByProject == nil {
		f.LastUsedByProject = map[string]string{}
	}
	for _, project := range f.Workstreams[idx].Projects {
		f.LastUsedByProject[project] = id
	}

	if err := fs.save(f); err != nil {
		return nil, err
	}
	ws := f.Workstreams[idx]
	return &ws, nil
}

// ClearActive drops the active pointer without touching any workstream.
func (fs *FileStore) ClearActive() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	f, err := fs.Load()
	if err != nil {
		return err
	}
	if f.ActiveID == "" {
		return nil
	}
	f.ActiveID = ""
	return fs.save(f)
}

// Active returns the active workstream, or nil when none is active.
func (fs *FileStore) Active() (*Workstream, error) {
	f, err := fs.Load()
	if err != nil {
		return nil, err
	}
	if f.ActiveID == "" {
		return nil, nil
	}
	if idx := fs.findIndex(f, f.ActiveID); idx >= 0 {
		ws := f.Workstreams[idx]
		return &ws, nil
	}
	return nil, nil
}

// Get returns a workstream by id.
func (fs *FileStore) Get(id string) (*Workstream, error) {
	f, err := fs.Load()
	if err != nil {
		return nil, err
	}
	if idx := fs.findIndex(f, id); idx >= 0 {
		ws := f.Workstreams[idx]
		return &ws, nil
	}
	return nil, fmt.Errorf("workstream %q not found", id)
}

func (fs *FileStore) findIndex(f *File, id string) int {
	for i, ws := range f.Workstreams {
		if ws.ID == id {
			return i
		}
	}
	return -1
}
