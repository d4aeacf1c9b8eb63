package smartsync

import (
	"math"
	"sort"

	"github.com/avhern/weave/internal/workstream"
)

// Detection reasons.
const (
	ReasonDisabledOrNoData = "disabled_or_no_data"
	ReasonUserPreference   = "user_preference"
	ReasonScored           = "scored"
	ReasonNoCandidates     = "no_candidates"
)

// Candidate is one scored workstream.
type Candidate struct {
	Workstream workstream.Workstream `json:"workstream"`
	Confidence int                   `json:"confidence"`
}

// Detection is the outcome of one scoring pass.
type Detection struct {
	Suggestion   *Candidate  `json:"suggestion,omitempty"`
	Confidence   int         `json:"confidence"`
	Reason       string      `json:"reason"`
	AutoSwitch   bool        `json:"autoSwitch"`
	Alternatives []Candidate `json:"alternatives,omitempty"`
}

// Detector runs the smart-sync heuristic over the workstream store and
// the learned preferences.
type Detector struct {
	workstreams workstream.Store
	prefs       PrefsStore
	tun         Tunables
}

// NewDetector wires a detector.
func NewDetector(ws workstream.Store, prefs PrefsStore, tun Tunables) *Detector {
	return &Detector{workstreams: ws, prefs: prefs, tun: tun}
}

// Detect scores candidate workstreams against the current projects.
//
// Learned preferences short-circuit scoring: an `always` choice for any
// current project returns that workstream at confidence 100. Workstreams
// marked `never` for a current project and the already-active workstream
// are excluded — there is no self-suggestion.
func (d *Detector) Detect(currentProjects []string) (*Detection, error) {
	prefs, err := d.prefs.Load()
	if err != nil {
		return nil, err
	}
	if !prefs.Enabled || len(currentProjects) == 0 {
		return &Detection{Reason: ReasonDisabledOrNoData}, nil
	}

	f, err := d.workstreams.Load()
	if err != nil {
		return nil, err
	}
	if len(f.Workstreams) == 0 {
		return &Detection{Reason: ReasonDisabledOrNoData}, nil
	}

	threshold := prefs.AutoSwitchThreshold
	if threshold <= 0 {
		threshold = d.tun.AutoSwitchThreshold
	}

	// An explicit user decision always outranks the heuristic.
	for _, project := range currentProjects {
		choice, ok := prefs.ProjectChoices[project]
		if !ok || choice.Choice != ChoiceAlways {
			continue
		}
		for _, ws := range f.Workstreams {
			if ws.ID == choice.WorkstreamID {
				cand := Candidate{Workstream: ws, Confidence: 100}
				return &Detection{
					Suggestion: &cand,
					Confidence: 100,
					Reason:     ReasonUserPreference,
					AutoSwitch: 100 >= threshold,
				}, nil
			}
		}
	}

	excluded := make(map[string]bool)
	if f.ActiveID != "" {
		excluded[f.ActiveID] = true
	}
	for _, project := range currentProjects {
		if choice, ok := prefs.ProjectChoices[project]; ok && choice.Choice == ChoiceNever {
			excluded[choice.WorkstreamID] = true
		}
	}

	var candidates []Candidate
	for _, ws := range f.Workstreams {
		if excluded[ws.ID] || len(ws.Projects) == 0 {
			continue
		}
		confidence := d.score(currentProjects, ws.Projects)
		if confidence == 0 {
			continue
		}
		candidates = append(candidates, Candidate{Workstream: ws, Confidence: confidence})
	}
	if len(candidates) == 0 {
		return &Detection{Reason: ReasonNoCandidates}, nil
	}

	sortCandidates(candidates)

	top := candidates[0]
	detection := &Detection{
		Suggestion: &top,
		Confidence: top.Confidence,
		Reason:     ReasonScored,
		AutoSwitch: top.Confidence >= threshold,
	}
	if len(candidates) > 1 {
		end := len(candidates)
		if end > 3 {
			end = 3
		}
		detection.Alternatives = candidates[1:end]
	}
	return detection, nil
}

// score blends two percentages: overlap (how much of the current focus
// this workstream explains) and coverage (how much of the workstream is
// being touched right now).
func (d *Detector) score(currentProjects, wsProjects []string) int {
	have := make(map[string]bool, len(wsProjects))
	for _, p := range wsProjects {
		have[p] = true
	}
	intersection := 0
	for _, p := range currentProjects {
		if have[p] {
			intersection++
		}
	}
	if intersection == 0 {
		return 0
	}

	overlap := float64(intersection) / float64(len(currentProjects)) * 100
	coverage := float64(intersection) / float64(len(wsProjects)) * 100
	return int(math.Round(overlap*d.tun.OverlapWeight + coverage*d.tun.CoverageWeight))
}

// sortCandidates orders by confidence descending, breaking ties by name
// for a stable ranking.
func sortCandidates(candidates []Candidate) {
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Confidence != candidates[j].Confidence {
			return candidates[i].Confidence > candidates[j].Confidence
		}
		return candidates[i].Workstream.Name < candidates[j].Workstream.Name
	})
}
