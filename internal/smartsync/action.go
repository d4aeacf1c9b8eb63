package smartsync

import (
	"fmt"
	"time"
)

// Action types a caller can apply in response to a suggestion or nudge.
const (
	ActionSwitch  = "switch"
	ActionAdd     = "add"
	ActionAlways  = "always"
	ActionNever   = "never"
	ActionDismiss = "dismiss"
)

// Action is one user response.
type Action struct {
	Type         string `json:"type"`
	WorkstreamID string `json:"workstreamId,omitempty"`
	Project      string `json:"project,omitempty"`
	NudgeKey     string `json:"nudgeKey,omitempty"`
}

// ActionResult describes what an action changed.
type ActionResult struct {
	Applied  string `json:"applied"`
	Switched bool   `json:"switched"`
}

// HandleAction is a pure state transition over the preferences and the
// workstream store: switch activates, add appends a project, always/never
// persist a learned per-project choice (always also switches
// immediately), dismiss records the nudge key so it never resurfaces
// verbatim.
func (d *Detector) HandleAction(action Action) (*ActionResult, error) {
	switch action.Type {
	case ActionSwitch:
		if action.WorkstreamID == "" {
			return nil, fmt.Errorf("'workstreamId' is required for switch")
		}
		if _, err := d.workstreams.SetActive(action.WorkstreamID); err != nil {
			return nil, err
		}
		return &ActionResult{Applied: ActionSwitch, Switched: true}, nil

	case ActionAdd:
		if action.WorkstreamID == "" || action.Project == "" {
			return nil, fmt.Errorf("'workstreamId' and 'project' are required for add")
		}
		if _, err := d.workstreams.AddProject(action.WorkstreamID, action.Project); err != nil {
			return nil, err
		}
		return &ActionResult{Applied: ActionAdd}, nil

	case ActionAlways, ActionNever:
		if action.WorkstreamID == "" || action.Project == "" {
			return nil, fmt.Errorf("'workstreamId' and 'project' are required for %s", action.Type)
		}
		prefs, err := d.prefs.Load()
		if err != nil {
			return nil, err
		}
		prefs.ProjectChoices[action.Project] = ProjectChoice{
			WorkstreamID: action.WorkstreamID,
			Choice:       action.Type,
			SavedAt:      timeNow().UTC().Format(time.RFC3339),
		}
		if err := d.prefs.Save(prefs); err != nil {
			return nil, err
		}
		result := &ActionResult{Applied: action.Type}
		if action.Type == ActionAlways {
			if _, err := d.workstreams.SetActive(action.WorkstreamID); err != nil {
				return nil, err
			}
			result.Switched = true
		}
		return result, nil

	case ActionDismiss:
		if action.NudgeKey == "" {
			return nil, fmt.Errorf("'nudgeKey' is required for dismiss")
		}
		prefs, err := d.prefs.Load()
		if err != nil {
			return nil, err
		}
		if !prefs.Dismissed(action.NudgeKey) {
			prefs.DismissedNudges = append(prefs.DismissedNudges, action.NudgeKey)
			if err := d.prefs.Save(prefs); err != nil {
				return nil, err
			}
		}
		return &ActionResult{Applied: ActionDismiss}, nil

	default:
		return nil, fmt.Errorf("unknown action %q: must be one of: switch, add, always, never, dismiss", action.Type)
	}
}
