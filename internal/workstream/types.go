// Package workstream manages named groupings of project paths.
//
// A workstream bundles related project directories plus free-text rules.
// At most one workstream is active at a time — the active pointer is a
// single field on the store file, not a per-workstream flag, which gives a
// total order of precedence when multiple workstreams claim a project.
package workstream

import (
	"fmt"
	"strings"
)

// Workstream is one named project grouping.
type Workstream struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Projects  []string `json:"projects"`
	Rules     string   `json:"rules,omitempty"`
	CreatedAt string   `json:"createdAt"`
	UpdatedAt string   `json:"updatedAt"`
}

// HasProject reports whether the workstream contains the given project path.
func (w *Workstream) HasProject(project string) bool {
	for _, p := range w.Projects {
		if p == project {
			return true
		}
	}
	return false
}

// File is the persisted workstream store: all workstreams, the single
// active pointer, and the last workstream used per project.
type File struct {
	Workstreams       []Workstream      `json:"workstreams"`
	ActiveID          string            `json:"activeId,omitempty"`
	LastUsedByProject map[string]string `json:"lastUsedByProject,omitempty"`
}

const maxSlugLen = 50

// Slugify converts a workstream name into a filesystem/URL-safe id.
// Example: "Billing & Payments" → "billing-payments".
func Slugify(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))

	var b strings.Builder
	prevHyphen := false
	for _, r := range s {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
			prevHyphen = false
		case r == ' ' || r == '_' || r == '-':
			if !prevHyphen {
				b.WriteByte('-')
				prevHyphen = true
			}
		}
	}

	slug := strings.Trim(b.String(), "-")
	if slug == "" {
		return "workstream"
	}
	if len(slug) > maxSlugLen {
		truncated := slug[:maxSlugLen]
		if lastHyphen := strings.LastIndex(truncated, "-"); lastHyphen > maxSlugLen/2 {
			truncated = truncated[:lastHyphen]
		}
		slug = strings.TrimRight(truncated, "-")
	}
	return slug
}

// ValidateName checks the create/rename input constraint: a non-empty name.
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("workstream name is required")
	}
	return nil
}
