package template

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/avhern/weave/internal/hierarchy"
	"github.com/avhern/weave/internal/jsonio"
)

// writeTemplate creates a template dir with a manifest and optional rule
// files (name → content).
func writeTemplate(t *testing.T, root, category, name, manifest string, rules map[string]string) {
	t.Helper()
	dir := filepath.Join(root, category, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, ManifestFile), []byte(manifest), 0o644); err != nil {
		t.Fatal(err)
	}
	for file, content := range rules {
		path := filepath.Join(dir, "rules", file)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func chainNames(chain []Node) []string {
	names := make([]string, len(chain))
	for i, n := range chain {
		names[i] = n.Name
	}
	return names
}

// --- Resolve ---

func TestResolve_IncludesPrecedeDependents(t *testing.T) {
	root := t.TempDir()
	writeTemplate(t, root, "languages", "go-base", `{"description":"base"}`, nil)
	writeTemplate(t, root, "frameworks", "api", `{"includes":["go-base"]}`, nil)

	chain, err := NewResolver(root).Resolve("api")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	got := chainNames(chain)
	if len(got) != 2 || got[0] != "go-base" || got[1] != "api" {
		t.Errorf("chain = %v, want [go-base api]", got)
	}
}

func TestResolve_CycleTerminatesWithEachNodeOnce(t *testing.T) {
	root := t.TempDir()
	writeTemplate(t, root, "composites", "a", `{"includes":["b"]}`, nil)
	writeTemplate(t, root, "composites", "b", `{"includes":["a"]}`, nil)

	chain, err := NewResolver(root).Resolve("a")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	counts := make(map[string]int)
	for _, n := range chain {
		counts[n.Name]++
	}
	if counts["a"] != 1 || counts["b"] != 1 {
		t.Errorf("chain = %v, want each of a, b exactly once", chainNames(chain))
	}
}

func TestResolve_DiamondAppearsOnce(t *testing.T) {
	root := t.TempDir()
	writeTemplate(t, root, "languages", "base", `{}`, nil)
	writeTemplate(t, root, "frameworks", "left", `{"includes":["base"]}`, nil)
	writeTemplate(t, root, "frameworks", "right", `{"includes":["base"]}`, nil)
	writeTemplate(t, root, "composites", "top", `{"includes":["left","right"]}`, nil)

	chain, err := NewResolver(root).Resolve("top")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	got := chainNames(chain)
	want := []string{"base", "left", "right", "top"}
	if len(got) != len(want) {
		t.Fatalf("chain = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("chain[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestResolve_MissingNestedIncludeSkipped(t *testing.T) {
	root := t.TempDir()
	writeTemplate(t, root, "frameworks", "app", `{"includes":["ghost"]}`, nil)

	chain, err := NewResolver(root).Resolve("app")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(chain) != 1 || chain[0].Name != "app" {
		t.Errorf("chain = %v, want [app]", chainNames(chain))
	}
}

func TestResolve_UnknownTopLevelNameIsError(t *testing.T) {
	root := t.TempDir()

	if _, err := NewResolver(root).Resolve("nope"); err == nil {
		t.Fatal("Resolve of an unknown template should fail")
	}
}

// --- Apply ---

func TestApply_CopiesRulesIntoProject(t *testing.T) {
	root := t.TempDir()
	proj := t.TempDir()
	writeTemplate(t, root, "languages", "go-base", `{}`, map[string]string{
		"style.md": "# style\n",
	})

	chain, err := NewResolver(root).Resolve("go-base")
	if err != nil {
		t.Fatal(err)
	}
	result, err := Apply(chain, proj, false)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	if result.Copied != 1 || result.Skipped != 0 {
		t.Errorf("copied/skipped = %d/%d, want 1/0", result.Copied, result.Skipped)
	}
	dest := filepath.Join(proj, ".claude", "rules", "style.md")
	if !jsonio.Exists(dest) {
		t.Error("rule file not copied into project")
	}
}

func TestApply_SecondRunIsIdempotent(t *testing.T) {
	root := t.TempDir()
	proj := t.TempDir()
	writeTemplate(t, root, "languages", "go-base", `{}`, map[string]string{
		"style.md": "# original\n",
	})

	chain, err := NewResolver(root).Resolve("go-base")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Apply(chain, proj, false); err != nil {
		t.Fatal(err)
	}

	// Second run: nothing new, contents untouched.
	result, err := Apply(chain, proj, false)
	if err != nil {
		t.Fatalf("second Apply: %v", err)
	}
	if result.Copied != 0 {
		t.Errorf("second run copied %d files, want 0", result.Copied)
	}
	if result.Skipped != 1 {
		t.Errorf("second run skipped %d files, want 1", result.Skipped)
	}

	data, err := os.ReadFile(filepath.Join(proj, ".claude", "rules", "style.md"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "# original\n" {
		t.Errorf("file content changed on second run: %q", data)
	}
}

func TestApply_NeverOverwritesExistingWithoutForce(t *testing.T) {
	root := t.TempDir()
	proj := t.TempDir()
	writeTemplate(t, root, "languages", "go-base", `{}`, map[string]string{
		"style.md": "# template\n",
	})

	dest := filepath.Join(proj, ".claude", "rules", "style.md")
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(dest, []byte("# mine\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	chain, _ := NewResolver(root).Resolve("go-base")
	result, err := Apply(chain, proj, false)
	if err != nil {
		t.Fatal(err)
	}
	if result.Skipped != 1 {
		t.Errorf("skipped = %d, want 1", result.Skipped)
	}

	data, _ := os.ReadFile(dest)
	if string(data) != "# mine\n" {
		t.Errorf("existing file was overwritten: %q", data)
	}
}

func TestApply_ForceOverwrites(t *testing.T) {
	root := t.TempDir()
	proj := t.TempDir()
	writeTemplate(t, root, "languages", "go-base", `{}`, map[string]string{
		"style.md": "# template\n",
	})

	dest := filepath.Join(proj, ".claude", "rules", "style.md")
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(dest, []byte("# mine\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	chain, _ := NewResolver(root).Resolve("go-base")
	if _, err := Apply(chain, proj, true); err != nil {
		t.Fatal(err)
	}

	data, _ := os.ReadFile(dest)
	if string(data) != "# template\n" {
		t.Errorf("force apply did not overwrite: %q", data)
	}
}

func TestApply_DependentOverridesIncludeWithinRun(t *testing.T) {
	root := t.TempDir()
	proj := t.TempDir()
	writeTemplate(t, root, "languages", "base", `{}`, map[string]string{
		"conventions.md": "# base\n",
	})
	writeTemplate(t, root, "frameworks", "api", `{"includes":["base"]}`, map[string]string{
		"conventions.md": "# api\n",
	})

	chain, err := NewResolver(root).Resolve("api")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Apply(chain, proj, false); err != nil {
		t.Fatal(err)
	}

	data, _ := os.ReadFile(filepath.Join(proj, ".claude", "rules", "conventions.md"))
	if string(data) != "# api\n" {
		t.Errorf("dependent should override its include within one run, got %q", data)
	}
}

func TestApply_MergesMCPDefaultsIntoFragment(t *testing.T) {
	root := t.TempDir()
	proj := t.TempDir()
	writeTemplate(t, root, "languages", "base", `{"mcpDefaults":["fs"]}`, nil)
	writeTemplate(t, root, "frameworks", "api", `{"includes":["base"],"mcpDefaults":["github","fs"]}`, nil)

	chain, err := NewResolver(root).Resolve("api")
	if err != nil {
		t.Fatal(err)
	}
	result, err := Apply(chain, proj, false)
	if err != nil {
		t.Fatal(err)
	}
	if result.Included != 2 {
		t.Errorf("included = %d, want 2 (fs, github)", result.Included)
	}

	var frag hierarchy.Fragment
	if err := jsonio.ReadFile(hierarchy.FragmentPath(proj), &frag); err != nil {
		t.Fatalf("reading fragment: %v", err)
	}
	if len(frag.Include) != 2 || frag.Include[0] != "fs" || frag.Include[1] != "github" {
		t.Errorf("fragment include = %v, want [fs github]", frag.Include)
	}
}
