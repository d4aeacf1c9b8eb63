package smartsync

import (
	"fmt"
	"time"
)

// Nudge kinds.
const (
	NudgeSwitch     = "switch"
	NudgeAddProject = "add"
)

// Nudge is a suppressible, rate-limited suggestion surfaced to the user.
// Its key identifies the exact suggestion: dismissing a key suppresses
// that nudge verbatim, while the same idea with a different key (another
// workstream, another project) may still resurface.
type Nudge struct {
	Kind         string `json:"kind"`
	Key          string `json:"key"`
	WorkstreamID string `json:"workstreamId"`
	Project      string `json:"project,omitempty"`
	Confidence   int    `json:"confidence,omitempty"`
	Message      string `json:"message"`
}

// SwitchKey derives the dismissal key for a switch nudge.
func SwitchKey(workstreamID string) string {
	return fmt.Sprintf("switch:%s", workstreamID)
}

// AddKey derives the dismissal key for an add-project nudge.
func AddKey(workstreamID, project string) string {
	return fmt.Sprintf("add:%s:%s", workstreamID, project)
}

// CheckNudge decides whether a detection result (plus the current project
// context) should surface a nudge. At most one nudge is surfaced globally
// per cooldown window. A switch nudge needs confidence at or above the
// floor and an undismissed key. The second nudge class — a touched
// project that belongs to neither the active workstream nor any other —
// is independent of the scoring path.
//
// A detection that auto-switched never nudges: the switch is the outcome
// of that pass, and the cooldown is left untouched for future nudges.
//
// Surfacing a nudge stamps LastNudgeTime; returning nil leaves the
// preferences untouched.
func (d *Detector) CheckNudge(detection *Detection, currentProjects []string) (*Nudge, error) {
	if detection != nil && detection.AutoSwitch {
		return nil, nil
	}

	prefs, err := d.prefs.Load()
	if err != nil {
		return nil, err
	}
	if !prefs.Enabled {
		return nil, nil
	}

	if prefs.LastNudgeTime != "" {
		last, err := time.Parse(time.RFC3339, prefs.LastNudgeTime)
		if err == nil && timeNow().UTC().Sub(last) < d.tun.NudgeCooldown {
			return nil, nil
		}
	}

	if nudge := d.switchNudge(detection, prefs); nudge != nil {
		return d.surface(prefs, nudge)
	}

	nudge, err := d.newProjectNudge(currentProjects, prefs)
	if err != nil {
		return nil, err
	}
	if nudge != nil {
		return d.surface(prefs, nudge)
	}
	return nil, nil
}

func (d *Detector) switchNudge(detection *Detection, prefs *Prefs) *Nudge {
	if detection == nil || detection.Suggestion == nil {
		return nil
	}
	if detection.Confidence < d.tun.NudgeFloor {
		return nil
	}
	ws := detection.Suggestion.Workstream
	key := SwitchKey(ws.ID)
	if prefs.Dismissed(key) {
		return nil
	}
	return &Nudge{
		Kind:         NudgeSwitch,
		Key:          key,
		WorkstreamID: ws.ID,
		Confidence:   detection.Confidence,
		Message: fmt.Sprintf("Your current activity looks like %q (%d%% match). Switch to it?",
			ws.Name, detection.Confidence),
	}
}

// newProjectNudge fires when a touched project belongs to neither the
// active workstream nor any other workstream.
func (d *Detector) newProjectNudge(currentProjects []string, prefs *Prefs) (*Nudge, error) {
	f, err := d.workstreams.Load()
	if err != nil {
		return nil, err
	}
	if f.ActiveID == "" {
		return nil, nil
	}
	var active *Nudge
	for _, project := range currentProjects {
		known := false
		for _, ws := range f.Workstreams {
			if ws.HasProject(project) {
				known = true
				break
			}
		}
		if known {
			continue
		}
		key := AddKey(f.ActiveID, project)
		if prefs.Dismissed(key) {
			continue
		}
		active = &Nudge{
			Kind:         NudgeAddProject,
			Key:          key,
			WorkstreamID: f.ActiveID,
			Project:      project,
			Message: fmt.Sprintf("You're working in %s, which isn't in any workstream. Add it to the active one?",
				project),
		}
		break
	}
	return active, nil
}

func (d *Detector) surface(prefs *Prefs, nudge *Nudge) (*Nudge, error) {
	prefs.LastNudgeTime = timeNow().UTC().Format(time.RFC3339)
	if err := d.prefs.Save(prefs); err != nil {
		return nil, err
	}
	return nudge, nil
}
