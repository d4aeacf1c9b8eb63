package smartsync

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/avhern/weave/internal/workstream"
)

func newDetector(t *testing.T) (*Detector, *workstream.FileStore, *FilePrefsStore) {
	t.Helper()
	dir := t.TempDir()
	ws := workstream.NewFileStore(filepath.Join(dir, "workstreams.json"))
	prefs := NewFilePrefsStore(filepath.Join(dir, "smart-sync.json"))
	return NewDetector(ws, prefs, DefaultTunables()), ws, prefs
}

// --- Detect: short circuits ---

func TestDetect_DisabledReturnsNoSuggestion(t *testing.T) {
	d, ws, prefs := newDetector(t)
	if _, err := ws.Create("A", []string{"/p/a"}, ""); err != nil {
		t.Fatal(err)
	}
	p := DefaultPrefs()
	p.Enabled = false
	if err := prefs.Save(p); err != nil {
		t.Fatal(err)
	}

	detection, err := d.Detect([]string{"/p/a"})
	if err != nil {
		t.Fatal(err)
	}
	if detection.Reason != ReasonDisabledOrNoData || detection.Suggestion != nil {
		t.Errorf("detection = %+v, want disabled_or_no_data with no suggestion", detection)
	}
}

func TestDetect_NoCurrentProjects(t *testing.T) {
	d, ws, _ := newDetector(t)
	if _, err := ws.Create("A", []string{"/p/a"}, ""); err != nil {
		t.Fatal(err)
	}

	detection, err := d.Detect(nil)
	if err != nil {
		t.Fatal(err)
	}
	if detection.Reason != ReasonDisabledOrNoData {
		t.Errorf("reason = %s, want disabled_or_no_data", detection.Reason)
	}
}

func TestDetect_NoWorkstreams(t *testing.T) {
	d, _, _ := newDetector(t)

	detection, err := d.Detect([]string{"/p/a"})
	if err != nil {
		t.Fatal(err)
	}
	if detection.Reason != ReasonDisabledOrNoData {
		t.Errorf("reason = %s, want disabled_or_no_data", detection.Reason)
	}
}

// --- Detect: scoring ---

func TestDetect_ConfidenceBlendsOverlapAndCoverage(t *testing.T) {
	d, ws, _ := newDetector(t)

	// current = {a, b}; ws covers a only and has 3 projects:
	// overlap = 1/2 = 50%, coverage = 1/3 ≈ 33.3%
	// confidence = round(50*0.7 + 33.3*0.3) = round(45) = 45
	if _, err := ws.Create("Partial", []string{"/p/a", "/p/c", "/p/d"}, ""); err != nil {
		t.Fatal(err)
	}

	detection, err := d.Detect([]string{"/p/a", "/p/b"})
	if err != nil {
		t.Fatal(err)
	}
	if detection.Suggestion == nil {
		t.Fatal("expected a suggestion")
	}
	if detection.Confidence != 45 {
		t.Errorf("confidence = %d, want 45", detection.Confidence)
	}
	if detection.Reason != ReasonScored {
		t.Errorf("reason = %s, want scored", detection.Reason)
	}
}

func TestDetect_PerfectMatchScoresHundredAndAutoSwitches(t *testing.T) {
	d, ws, _ := newDetector(t)

	if _, err := ws.Create("Exact", []string{"/p/a", "/p/b"}, ""); err != nil {
		t.Fatal(err)
	}

	detection, err := d.Detect([]string{"/p/a", "/p/b"})
	if err != nil {
		t.Fatal(err)
	}
	if detection.Confidence != 100 {
		t.Errorf("confidence = %d, want 100", detection.Confidence)
	}
	if !detection.AutoSwitch {
		t.Error("confidence 100 should auto-switch at the default threshold of 80")
	}
}

func TestDetect_MoreOverlapNeverScoresLower(t *testing.T) {
	d, ws, _ := newDetector(t)

	// Workstream size held fixed at 3.
	if _, err := ws.Create("Fixed", []string{"/p/a", "/p/b", "/p/c"}, ""); err != nil {
		t.Fatal(err)
	}

	current := []string{"/p/a", "/p/x", "/p/y"}
	prev := 0
	// Swap the non-matching projects for matching ones one at a time:
	// intersection grows 1 → 2 → 3 with |current| fixed.
	variants := [][]string{
		current,
		{"/p/a", "/p/b", "/p/y"},
		{"/p/a", "/p/b", "/p/c"},
	}
	for i, projects := range variants {
		detection, err := d.Detect(projects)
		if err != nil {
			t.Fatal(err)
		}
		if detection.Confidence < prev {
			t.Errorf("variant %d: confidence %d dropped below %d as overlap grew",
				i, detection.Confidence, prev)
		}
		prev = detection.Confidence
	}
}

func TestDetect_ActiveWorkstreamNotSuggested(t *testing.T) {
	d, ws, _ := newDetector(t)

	active, err := ws.Create("Active", []string{"/p/a"}, "")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ws.SetActive(active.ID); err != nil {
		t.Fatal(err)
	}

	detection, err := d.Detect([]string{"/p/a"})
	if err != nil {
		t.Fatal(err)
	}
	if detection.Suggestion != nil {
		t.Errorf("suggestion = %v, want none (no self-suggestion)", detection.Suggestion)
	}
	if detection.Reason != ReasonNoCandidates {
		t.Errorf("reason = %s, want no_candidates", detection.Reason)
	}
}

func TestDetect_NeverChoiceExcludesWorkstream(t *testing.T) {
	d, ws, prefs := newDetector(t)

	banned, err := ws.Create("Banned", []string{"/p/a"}, "")
	if err != nil {
		t.Fatal(err)
	}
	p := DefaultPrefs()
	p.ProjectChoices["/p/a"] = ProjectChoice{WorkstreamID: banned.ID, Choice: ChoiceNever}
	if err := prefs.Save(p); err != nil {
		t.Fatal(err)
	}

	detection, err := d.Detect([]string{"/p/a"})
	if err != nil {
		t.Fatal(err)
	}
	if detection.Suggestion != nil {
		t.Errorf("suggestion = %v, want none (workstream marked never)", detection.Suggestion)
	}
}

func TestDetect_AlwaysChoiceOutranksScoring(t *testing.T) {
	d, ws, prefs := newDetector(t)

	// Scoring would strongly favor Exact; the learned choice wins anyway.
	if _, err := ws.Create("Exact", []string{"/p/a", "/p/b"}, ""); err != nil {
		t.Fatal(err)
	}
	pinned, err := ws.Create("Pinned", []string{"/p/z"}, "")
	if err != nil {
		t.Fatal(err)
	}
	p := DefaultPrefs()
	p.ProjectChoices["/p/a"] = ProjectChoice{WorkstreamID: pinned.ID, Choice: ChoiceAlways}
	if err := prefs.Save(p); err != nil {
		t.Fatal(err)
	}

	detection, err := d.Detect([]string{"/p/a", "/p/b"})
	if err != nil {
		t.Fatal(err)
	}
	if detection.Suggestion == nil || detection.Suggestion.Workstream.ID != pinned.ID {
		t.Fatalf("suggestion = %+v, want pinned workstream", detection.Suggestion)
	}
	if detection.Confidence != 100 {
		t.Errorf("confidence = %d, want 100", detection.Confidence)
	}
	if detection.Reason != ReasonUserPreference {
		t.Errorf("reason = %s, want user_preference", detection.Reason)
	}
}

func TestDetect_RanksAndExposesAlternatives(t *testing.T) {
	d, ws, _ := newDetector(t)

	if _, err := ws.Create("Best", []string{"/p/a", "/p/b"}, ""); err != nil {
		t.Fatal(err)
	}
	if _, err := ws.Create("Second", []string{"/p/a", "/p/x"}, ""); err != nil {
		t.Fatal(err)
	}
	if _, err := ws.Create("Third", []string{"/p/b", "/p/x", "/p/y"}, ""); err != nil {
		t.Fatal(err)
	}

	detection, err := d.Detect([]string{"/p/a", "/p/b"})
	if err != nil {
		t.Fatal(err)
	}
	if detection.Suggestion == nil || detection.Suggestion.Workstream.Name != "Best" {
		t.Fatalf("suggestion = %+v, want Best", detection.Suggestion)
	}
	if len(detection.Alternatives) != 2 {
		t.Fatalf("alternatives = %d, want 2", len(detection.Alternatives))
	}
	if detection.Alternatives[0].Confidence < detection.Alternatives[1].Confidence {
		t.Error("alternatives should be ordered by confidence descending")
	}
}

// --- Nudges ---

func TestCheckNudge_SurfacesSwitchNudgeAboveFloor(t *testing.T) {
	d, ws, _ := newDetector(t)

	if _, err := ws.Create("Match", []string{"/p/a"}, ""); err != nil {
		t.Fatal(err)
	}
	detection, err := d.Detect([]string{"/p/a"})
	if err != nil {
		t.Fatal(err)
	}

	nudge, err := d.CheckNudge(detection, []string{"/p/a"})
	if err != nil {
		t.Fatal(err)
	}
	if nudge == nil || nudge.Kind != NudgeSwitch {
		t.Fatalf("nudge = %+v, want a switch nudge", nudge)
	}
	if nudge.Key != SwitchKey(detection.Suggestion.Workstream.ID) {
		t.Errorf("key = %s, want derived switch key", nudge.Key)
	}
}

func TestCheckNudge_CooldownSuppressesSecondNudge(t *testing.T) {
	d, ws, _ := newDetector(t)

	if _, err := ws.Create("Match", []string{"/p/a"}, ""); err != nil {
		t.Fatal(err)
	}
	detection, _ := d.Detect([]string{"/p/a"})

	if nudge, err := d.CheckNudge(detection, []string{"/p/a"}); err != nil || nudge == nil {
		t.Fatalf("first nudge = %v, %v; want surfaced", nudge, err)
	}
	nudge, err := d.CheckNudge(detection, []string{"/p/a"})
	if err != nil {
		t.Fatal(err)
	}
	if nudge != nil {
		t.Errorf("second nudge inside cooldown = %+v, want nil", nudge)
	}
}

func TestCheckNudge_CooldownExpires(t *testing.T) {
	d, ws, _ := newDetector(t)

	if _, err := ws.Create("Match", []string{"/p/a"}, ""); err != nil {
		t.Fatal(err)
	}
	detection, _ := d.Detect([]string{"/p/a"})
	if _, err := d.CheckNudge(detection, []string{"/p/a"}); err != nil {
		t.Fatal(err)
	}

	orig := timeNow
	timeNow = func() time.Time { return orig().Add(6 * time.Minute) }
	t.Cleanup(func() { timeNow = orig })

	nudge, err := d.CheckNudge(detection, []string{"/p/a"})
	if err != nil {
		t.Fatal(err)
	}
	if nudge == nil {
		t.Error("nudge should surface again after the cooldown window")
	}
}

func TestCheckNudge_DismissedKeyNeverResurfaces(t *testing.T) {
	d, ws, _ := newDetector(t)

	match, err := ws.Create("Match", []string{"/p/a"}, "")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := d.HandleAction(Action{Type: ActionDismiss, NudgeKey: SwitchKey(match.ID)}); err != nil {
		t.Fatal(err)
	}

	detection, _ := d.Detect([]string{"/p/a"})
	nudge, err := d.CheckNudge(detection, []string{"/p/a"})
	if err != nil {
		t.Fatal(err)
	}
	if nudge != nil {
		t.Errorf("nudge = %+v, want nil for a dismissed key", nudge)
	}
}

func TestCheckNudge_BelowFloorStaysSilent(t *testing.T) {
	d, ws, _ := newDetector(t)

	// overlap 1/3, coverage 1/3 → round(33.3*0.7 + 33.3*0.3) = 33 < 50.
	if _, err := ws.Create("Weak", []string{"/p/a", "/p/x", "/p/y"}, ""); err != nil {
		t.Fatal(err)
	}
	detection, _ := d.Detect([]string{"/p/a", "/p/b", "/p/c"})

	nudge, err := d.CheckNudge(detection, nil)
	if err != nil {
		t.Fatal(err)
	}
	if nudge != nil {
		t.Errorf("nudge = %+v, want nil below the confidence floor", nudge)
	}
}

func TestCheckNudge_NewProjectWhileWorkstreamActive(t *testing.T) {
	d, ws, _ := newDetector(t)

	active, err := ws.Create("Active", []string{"/p/a"}, "")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ws.SetActive(active.ID); err != nil {
		t.Fatal(err)
	}

	// /p/new belongs to no workstream at all.
	nudge, err := d.CheckNudge(&Detection{Reason: ReasonNoCandidates}, []string{"/p/a", "/p/new"})
	if err != nil {
		t.Fatal(err)
	}
	if nudge == nil || nudge.Kind != NudgeAddProject {
		t.Fatalf("nudge = %+v, want an add-project nudge", nudge)
	}
	if nudge.Project != "/p/new" || nudge.WorkstreamID != active.ID {
		t.Errorf("nudge = %+v, want /p/new against the active workstream", nudge)
	}
}

func TestCheckNudge_AutoSwitchedDetectionStaysSilent(t *testing.T) {
	d, ws, prefs := newDetector(t)

	if _, err := ws.Create("Backend", []string{"/p/a", "/p/b"}, ""); err != nil {
		t.Fatal(err)
	}

	detection, err := d.Detect([]string{"/p/a", "/p/b"})
	if err != nil {
		t.Fatal(err)
	}
	if !detection.AutoSwitch {
		t.Fatal("perfect match should auto-switch at the default threshold")
	}
	if _, err := d.HandleAction(Action{Type: ActionSwitch, WorkstreamID: detection.Suggestion.Workstream.ID}); err != nil {
		t.Fatal(err)
	}

	nudge, err := d.CheckNudge(detection, []string{"/p/a", "/p/b"})
	if err != nil {
		t.Fatal(err)
	}
	if nudge != nil {
		t.Fatalf("nudge = %+v, want none after an auto-switch", nudge)
	}

	p, err := prefs.Load()
	if err != nil {
		t.Fatal(err)
	}
	if p.LastNudgeTime != "" {
		t.Errorf("LastNudgeTime = %q, auto-switch must not consume the nudge cooldown", p.LastNudgeTime)
	}
}

// --- Actions ---

func TestHandleAction_AlwaysSavesChoiceAndSwitches(t *testing.T) {
	d, ws, prefs := newDetector(t)

	target, err := ws.Create("Target", []string{"/p/a"}, "")
	if err != nil {
		t.Fatal(err)
	}

	result, err := d.HandleAction(Action{Type: ActionAlways, WorkstreamID: target.ID, Project: "/p/a"})
	if err != nil {
		t.Fatal(err)
	}
	if !result.Switched {
		t.Error("always should switch immediately")
	}

	p, err := prefs.Load()
	if err != nil {
		t.Fatal(err)
	}
	choice, ok := p.ProjectChoices["/p/a"]
	if !ok || choice.Choice != ChoiceAlways || choice.WorkstreamID != target.ID {
		t.Errorf("saved choice = %+v, want always for target", choice)
	}

	active, err := ws.Active()
	if err != nil {
		t.Fatal(err)
	}
	if active == nil || active.ID != target.ID {
		t.Errorf("active = %v, want target", active)
	}
}

func TestHandleAction_NeverDoesNotSwitch(t *testing.T) {
	d, ws, _ := newDetector(t)

	target, err := ws.Create("Target", []string{"/p/a"}, "")
	if err != nil {
		t.Fatal(err)
	}

	result, err := d.HandleAction(Action{Type: ActionNever, WorkstreamID: target.ID, Project: "/p/a"})
	if err != nil {
		t.Fatal(err)
	}
	if result.Switched {
		t.Error("never must not switch")
	}
	active, _ := ws.Active()
	if active != nil {
		t.Errorf("active = %v, want nil", active)
	}
}

func TestHandleAction_AddAppendsProject(t *testing.T) {
	d, ws, _ := newDetector(t)

	target, err := ws.Create("Target", nil, "")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := d.HandleAction(Action{Type: ActionAdd, WorkstreamID: target.ID, Project: "/p/x"}); err != nil {
		t.Fatal(err)
	}

	got, err := ws.Get(target.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Projects) != 1 || got.Projects[0] != "/p/x" {
		t.Errorf("projects = %v, want [/p/x]", got.Projects)
	}
}

func TestHandleAction_UnknownTypeRejected(t *testing.T) {
	d, _, _ := newDetector(t)

	if _, err := d.HandleAction(Action{Type: "explode"}); err == nil {
		t.Fatal("unknown action type should be rejected")
	}
}
