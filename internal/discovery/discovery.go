// Package discovery probes the MCP servers of an effective configuration
// and reports the tools each one exposes. Probing spawns the server
// process, so results are cached aggressively: successes for a few
// minutes, failures for a shorter window so a fixed server comes back
// quickly.
package discovery

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/avhern/weave/internal/registry"
)

// ToolInfo is one tool advertised by a server.
type ToolInfo struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// ServerTools is the probe outcome for one server. Err is a user-facing
// message; a failed probe contributes no tools but does not abort the
// discovery of the remaining servers.
type ServerTools struct {
	Server string     `json:"server"`
	Tools  []ToolInfo `json:"tools,omitempty"`
	Err    string     `json:"error,omitempty"`
}

// Prober performs a single live probe. Abstracted for testability.
type Prober interface {
	Probe(ctx context.Context, name string, spec registry.ServerSpec) ([]ToolInfo, error)
}

const (
	probeTimeout = 10 * time.Second
	successTTL   = 5 * time.Minute
	failureTTL   = time.Minute
	cacheSize    = 64
)

// Discoverer fans a discovery request out over the servers of an
// effective configuration, consulting its caches before probing.
type Discoverer struct {
	prober Prober
	ok     *expirable.LRU[string, []ToolInfo]
	fail   *expirable.LRU[string, string]
}

// NewDiscoverer creates a discoverer with a live stdio prober.
func NewDiscoverer() *Discoverer {
	return NewDiscovererWith(&stdioProber{timeout: probeTimeout})
}

// NewDiscovererWith creates a discoverer around a custom prober.
func NewDiscovererWith(p Prober) *Discoverer {
	return &Discoverer{
		prober: p,
		ok:     expirable.NewLRU[string, []ToolInfo](cacheSize, nil, successTTL),
		fail:   expirable.NewLRU[string, string](cacheSize, nil, failureTTL),
	}
}

// Discover probes every server of the given set and returns one entry
// per server, ordered by server name.
func (d *Discoverer) Discover(ctx context.Context, servers map[string]registry.ServerSpec) []ServerTools {
	names := make([]string, 0, len(servers))
	for name := range servers {
		names = append(names, name)
	}
	sort.Strings(names)

	results := make([]ServerTools, 0, len(names))
	for _, name := range names {
		results = append(results, d.discoverOne(ctx, name, servers[name]))
	}
	return results
}

func (d *Discoverer) discoverOne(ctx context.Context, name string, spec registry.ServerSpec) ServerTools {
	key := cacheKey(name, spec)
	if tools, hit := d.ok.Get(key); hit {
		return ServerTools{Server: name, Tools: tools}
	}
	if msg, hit := d.fail.Get(key); hit {
		return ServerTools{Server: name, Err: msg}
	}

	tools, err := d.prober.Probe(ctx, name, spec)
	if err != nil {
		msg := err.Error()
		d.fail.Add(key, msg)
		return ServerTools{Server: name, Err: msg}
	}
	d.ok.Add(key, tools)
	return ServerTools{Server: name, Tools: tools}
}

// cacheKey ties cached results to the spec that produced them, so an
// edited server definition is re-probed instead of served stale.
func cacheKey(name string, spec registry.ServerSpec) string {
	command, _ := spec["command"].(string)
	return strings.Join([]string{
		name,
		command,
		strings.Join(specArgs(spec), "\x1f"),
		strings.Join(specEnv(spec), "\x1f"),
	}, "\x00")
}

func specArgs(spec registry.ServerSpec) []string {
	raw, _ := spec["args"].([]any)
	args := make([]string, 0, len(raw))
	for _, a := range raw {
		if s, ok := a.(string); ok {
			args = append(args, s)
		}
	}
	return args
}

func specEnv(spec registry.ServerSpec) []string {
	raw, _ := spec["env"].(map[string]any)
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	env := make([]string, 0, len(keys))
	for _, k := range keys {
		if v, ok := raw[k].(string); ok {
			env = append(env, fmt.Sprintf("%s=%s", k, v))
		}
	}
	return env
}
