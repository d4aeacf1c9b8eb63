package hierarchy

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/avhern/weave/internal/jsonio"
	"github.com/avhern/weave/internal/registry"
)

// writeFragment writes a fragment file under dir/.claude/mcps.json.
func writeFragment(t *testing.T, dir, content string) {
	t.Helper()
	path := FragmentPath(dir)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fragment: %v", err)
	}
}

// fakeHome points the user-global level at a temp dir for the test.
func fakeHome(t *testing.T, dir string) {
	t.Helper()
	orig := userHomeDir
	userHomeDir = func() (string, error) { return dir, nil }
	t.Cleanup(func() { userHomeDir = orig })
}

// --- Discover ---

func TestDiscover_RootFirstLeafLast(t *testing.T) {
	root := t.TempDir()
	fakeHome(t, filepath.Join(root, "nohome"))

	leaf := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(leaf, 0o755); err != nil {
		t.Fatal(err)
	}
	writeFragment(t, root, `{"include":["one"]}`)
	writeFragment(t, leaf, `{"include":["two"]}`)

	results, err := NewResolver().Discover(leaf)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d fragments, want 2", len(results))
	}
	if results[0].Dir != root {
		t.Errorf("first fragment dir = %s, want root %s", results[0].Dir, root)
	}
	if results[1].Dir != leaf {
		t.Errorf("last fragment dir = %s, want leaf %s", results[1].Dir, leaf)
	}
}

func TestDiscover_StartDirNeedNotBeConfigRoot(t *testing.T) {
	root := t.TempDir()
	fakeHome(t, filepath.Join(root, "nohome"))

	writeFragment(t, root, `{"include":["one"]}`)
	deep := filepath.Join(root, "x", "y", "z")
	if err := os.MkdirAll(deep, 0o755); err != nil {
		t.Fatal(err)
	}

	results, err := NewResolver().Discover(deep)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d fragments, want 1", len(results))
	}
}

func TestDiscover_EmptyHierarchyIsNotAnError(t *testing.T) {
	root := t.TempDir()
	fakeHome(t, filepath.Join(root, "nohome"))

	results, err := NewResolver().Discover(root)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("got %d fragments, want 0", len(results))
	}
}

func TestDiscover_UserGlobalSortsFirst(t *testing.T) {
	root := t.TempDir()
	home := filepath.Join(root, "home")
	fakeHome(t, home)

	proj := filepath.Join(root, "proj")
	writeFragment(t, home, `{"include":["global"]}`)
	writeFragment(t, proj, `{"include":["local"]}`)

	results, err := NewResolver().Discover(proj)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d fragments, want 2", len(results))
	}
	if results[0].Dir != home {
		t.Errorf("first fragment = %s, want user-global %s", results[0].Dir, home)
	}
}

func TestDiscover_UserGlobalDeduplicatedWhenInChain(t *testing.T) {
	root := t.TempDir()
	fakeHome(t, root)

	writeFragment(t, root, `{"include":["home"]}`)
	sub := filepath.Join(root, "proj")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}

	results, err := NewResolver().Discover(sub)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d fragments, want 1 (home deduplicated)", len(results))
	}
}

func TestDiscover_MalformedFragmentCarriesError(t *testing.T) {
	root := t.TempDir()
	fakeHome(t, filepath.Join(root, "nohome"))

	writeFragment(t, root, `{not json`)

	results, err := NewResolver().Discover(root)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d fragments, want 1", len(results))
	}
	if results[0].Err == nil {
		t.Error("malformed fragment should carry a parse error")
	}
}

// --- Merge ---

func TestMerge_IncludeDedupPreservesFirstSeenOrder(t *testing.T) {
	results := []FragmentResult{
		{Fragment: &Fragment{Include: []string{"a", "b"}}},
		{Fragment: &Fragment{Include: []string{"b", "c"}}},
	}

	merged := Merge(results)

	want := []string{"a", "b", "c"}
	if len(merged.Include) != len(want) {
		t.Fatalf("include = %v, want %v", merged.Include, want)
	}
	for i, name := range want {
		if merged.Include[i] != name {
			t.Errorf("include[%d] = %s, want %s", i, merged.Include[i], name)
		}
	}
}

func TestMerge_InlineServerLeafWins(t *testing.T) {
	results := []FragmentResult{
		{Fragment: &Fragment{Servers: map[string]registry.ServerSpec{
			"x": {"command": "root-cmd"},
		}}},
		{Fragment: &Fragment{Servers: map[string]registry.ServerSpec{
			"x": {"command": "leaf-cmd"},
		}}},
	}

	merged := Merge(results)

	if got := merged.Servers["x"]["command"]; got != "leaf-cmd" {
		t.Errorf("servers[x].command = %v, want leaf-cmd", got)
	}
}

func TestMerge_TemplateLastNonEmptyWins(t *testing.T) {
	results := []FragmentResult{
		{Fragment: &Fragment{Template: "base"}},
		{Fragment: &Fragment{}},
		{Fragment: &Fragment{Template: "specific"}},
	}

	if got := Merge(results).Template; got != "specific" {
		t.Errorf("template = %s, want specific", got)
	}
}

func TestMerge_ErroredFragmentContributesNothing(t *testing.T) {
	results := []FragmentResult{
		{Fragment: &Fragment{Include: []string{"a"}}},
		{Err: os.ErrInvalid},
		{Fragment: &Fragment{Include: []string{"b"}}},
	}

	merged := Merge(results)

	if len(merged.Include) != 2 {
		t.Errorf("include = %v, want [a b]", merged.Include)
	}
}

// --- Build ---

func TestBuild_MissingIncludeSkippedWithWarning(t *testing.T) {
	merged := &Merged{Include: []string{"known", "unknown"}}
	reg := &registry.Registry{Servers: map[string]registry.ServerSpec{
		"known": {"command": "x"},
	}}

	result := Build(merged, reg, nil, false)

	if _, ok := result.Output.Servers["known"]; !ok {
		t.Error("known include missing from output")
	}
	if len(result.MissingIncludes) != 1 || result.MissingIncludes[0] != "unknown" {
		t.Errorf("missing includes = %v, want [unknown]", result.MissingIncludes)
	}
}

func TestBuild_InlineWinsOverRegistryOnCollision(t *testing.T) {
	merged := &Merged{
		Include: []string{"x"},
		Servers: map[string]registry.ServerSpec{"x": {"command": "inline"}},
	}
	reg := &registry.Registry{Servers: map[string]registry.ServerSpec{
		"x": {"command": "registry"},
	}}

	result := Build(merged, reg, nil, false)

	if got := result.Output.Servers["x"]["command"]; got != "inline" {
		t.Errorf("servers[x].command = %v, want inline", got)
	}
}

func TestBuild_InterpolatesFromEnvFile(t *testing.T) {
	dir := t.TempDir()
	envPath := EnvPath(dir)
	if err := os.MkdirAll(filepath.Dir(envPath), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(envPath, []byte("TOKEN=secret\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	merged := &Merged{Servers: map[string]registry.ServerSpec{
		"s": {"env": map[string]any{"API_KEY": "${TOKEN}"}},
	}}

	result := Build(merged, &registry.Registry{}, []string{envPath}, false)

	env := result.Output.Servers["s"]["env"].(map[string]any)
	if env["API_KEY"] != "secret" {
		t.Errorf("API_KEY = %v, want secret", env["API_KEY"])
	}
}

func TestBuild_UnresolvedTokenLeftLiteralByDefault(t *testing.T) {
	merged := &Merged{Servers: map[string]registry.ServerSpec{
		"s": {"command": "${NOPE_WEAVE_TEST}"},
	}}

	result := Build(merged, &registry.Registry{}, nil, false)

	if got := result.Output.Servers["s"]["command"]; got != "${NOPE_WEAVE_TEST}" {
		t.Errorf("command = %v, want literal token", got)
	}
	if len(result.UnresolvedVars) != 0 {
		t.Errorf("unresolved vars = %v, want none outside strict mode", result.UnresolvedVars)
	}
}

func TestBuild_StrictModeSubstitutesEmptyAndWarns(t *testing.T) {
	merged := &Merged{Servers: map[string]registry.ServerSpec{
		"s": {"command": "${NOPE_WEAVE_TEST}"},
	}}

	result := Build(merged, &registry.Registry{}, nil, true)

	if got := result.Output.Servers["s"]["command"]; got != "" {
		t.Errorf("command = %v, want empty string", got)
	}
	if len(result.UnresolvedVars) != 1 || result.UnresolvedVars[0] != "NOPE_WEAVE_TEST" {
		t.Errorf("unresolved vars = %v, want [NOPE_WEAVE_TEST]", result.UnresolvedVars)
	}
}

// --- Apply (end to end) ---

func TestApply_EndToEnd(t *testing.T) {
	root := t.TempDir()
	home := filepath.Join(root, "home")
	fakeHome(t, home)

	proj := filepath.Join(home, "proj")
	writeFragment(t, home, `{"include":["github"]}`)
	writeFragment(t, proj, `{"include":["fs"],"mcpServers":{"custom":{"command":"x"}}}`)

	reg := &registry.Registry{Servers: map[string]registry.ServerSpec{
		"github": {"command": "gh-mcp"},
		"fs":     {"command": "fs-mcp"},
	}}

	result, err := Apply(NewResolver(), reg, proj, false)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	var out Output
	if err := jsonio.ReadFile(filepath.Join(proj, OutputFile), &out); err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if len(out.Servers) != 3 {
		t.Fatalf("output has %d servers, want 3 (github, fs, custom)", len(out.Servers))
	}
	for _, name := range []string{"github", "fs", "custom"} {
		if _, ok := out.Servers[name]; !ok {
			t.Errorf("output missing server %q", name)
		}
	}
	if len(result.MissingIncludes) != 0 {
		t.Errorf("missing includes = %v, want none", result.MissingIncludes)
	}
}

func TestApply_EmptyHierarchyIsFatal(t *testing.T) {
	root := t.TempDir()
	fakeHome(t, filepath.Join(root, "nohome"))

	_, err := Apply(NewResolver(), &registry.Registry{}, root, false)
	if err == nil {
		t.Fatal("Apply should fail when no fragments exist anywhere")
	}
}

func TestApply_OutputEndsWithNewline(t *testing.T) {
	root := t.TempDir()
	fakeHome(t, filepath.Join(root, "nohome"))

	writeFragment(t, root, `{"mcpServers":{"a":{"command":"x"}}}`)

	if _, err := Apply(NewResolver(), &registry.Registry{}, root, false); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(root, OutputFile))
	if err != nil {
		t.Fatal(err)
	}
	if len(data) == 0 || data[len(data)-1] != '\n' {
		t.Error("output file should end with a trailing newline")
	}
}
