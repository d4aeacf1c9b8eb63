// Package server wires all MCP components and creates the server instance.
//
// This is the composition root: it creates the concrete stores and
// injects them into the tools, prompts, and resources that depend on
// abstractions. No business logic lives here, only wiring.
package server

import (
	"log"

	"github.com/mark3labs/mcp-go/server"

	"github.com/avhern/weave/internal/activity"
	"github.com/avhern/weave/internal/discovery"
	"github.com/avhern/weave/internal/hierarchy"
	"github.com/avhern/weave/internal/install"
	"github.com/avhern/weave/internal/prompts"
	"github.com/avhern/weave/internal/registry"
	"github.com/avhern/weave/internal/resources"
	"github.com/avhern/weave/internal/smartsync"
	"github.com/avhern/weave/internal/template"
	"github.com/avhern/weave/internal/tools"
	"github.com/avhern/weave/internal/workstream"
)

// Version is set at build time via ldflags.
var Version = "dev"

// New creates and configures the MCP server with all tools, prompts,
// and resources registered. This is the single place where all
// dependencies are resolved.
//
// The returned cleanup function closes the activity archive and must be
// called on shutdown (typically via defer). It is always non-nil and
// safe to call even if the archive failed to open.
func New() (*server.MCPServer, func(), error) {
	root := install.Root()

	// --- Create shared dependencies ---

	resolver := hierarchy.NewResolver()
	regStore := registry.NewFileStore(install.RegistryPath(root))
	templates := template.NewResolver(install.TemplatesDir(root))
	workstreams := workstream.NewFileStore(install.WorkstreamsPath(root))
	activityStore := activity.NewFileStore(activity.DefaultConfig(install.ActivityPath(root)))
	prefsStore := smartsync.NewFilePrefsStore(install.SmartSyncPath(root))
	detector := smartsync.NewDetector(workstreams, prefsStore, smartsync.DefaultTunables())
	discoverer := discovery.NewDiscoverer()

	// The archive is an independent subsystem: when it fails to open,
	// activity recording still works, pruned sessions are just dropped
	// and the history tool reports the archive as unavailable.
	cleanup := noop
	archive, archiveErr := activity.OpenArchive(install.ArchivePath(root))
	if archiveErr != nil {
		log.Printf("WARNING: activity archive disabled: %v", archiveErr)
		archive = nil
	} else {
		activityStore.SetArchiver(archive)
		cleanup = func() {
			if err := archive.Close(); err != nil {
				log.Printf("WARNING: activity archive close: %v", err)
			}
		}
	}

	// --- Create the MCP server ---

	s := server.NewMCPServer(
		"weave",
		Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithPromptCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	// --- Register configuration tools ---

	configShow := tools.NewConfigShowTool(resolver, regStore)
	s.AddTool(configShow.Definition(), configShow.Handle)

	configApply := tools.NewConfigApplyTool(resolver, regStore)
	s.AddTool(configApply.Definition(), configApply.Handle)

	registryTool := tools.NewRegistryTool(regStore)
	s.AddTool(registryTool.Definition(), registryTool.Handle)

	templateApply := tools.NewTemplateApplyTool(templates)
	s.AddTool(templateApply.Definition(), templateApply.Handle)

	templateList := tools.NewTemplateListTool(templates)
	s.AddTool(templateList.Definition(), templateList.Handle)

	discoverTool := tools.NewDiscoverTool(resolver, regStore, discoverer)
	s.AddTool(discoverTool.Definition(), discoverTool.Handle)

	// --- Register activity and workstream tools ---

	activityRecord := tools.NewActivityRecordTool(activityStore)
	s.AddTool(activityRecord.Definition(), activityRecord.Handle)

	activitySuggest := tools.NewActivitySuggestTool(activityStore, workstreams)
	s.AddTool(activitySuggest.Definition(), activitySuggest.Handle)

	activityHistory := tools.NewActivityHistoryTool(archive)
	s.AddTool(activityHistory.Definition(), activityHistory.Handle)

	workstreamTool := tools.NewWorkstreamTool(workstreams)
	s.AddTool(workstreamTool.Definition(), workstreamTool.Handle)

	// --- Register smart-sync tools ---

	syncDetect := tools.NewSyncDetectTool(detector, workstreams)
	s.AddTool(syncDetect.Definition(), syncDetect.Handle)

	syncAction := tools.NewSyncActionTool(detector)
	s.AddTool(syncAction.Definition(), syncAction.Handle)

	// --- Register prompts ---

	statusPrompt := prompts.NewStatusPrompt()
	s.AddPrompt(statusPrompt.Definition(), statusPrompt.Handle)

	setupPrompt := prompts.NewSetupPrompt()
	s.AddPrompt(setupPrompt.Definition(), setupPrompt.Handle)

	// --- Register resources ---

	resourceHandler := resources.NewHandler(resolver, regStore, workstreams)
	s.AddResource(resourceHandler.ConfigResource(), resourceHandler.HandleConfig)
	s.AddResource(resourceHandler.WorkstreamResource(), resourceHandler.HandleWorkstream)

	return s, cleanup, nil
}

// noop is the default cleanup when the archive is disabled.
func noop() {}

// serverInstructions returns the system instructions that tell the AI
// how to use weave effectively.
func serverInstructions() string {
	return `You have access to weave, an MCP server that manages layered MCP
configuration, project templates, and workstreams.

## CONFIGURATION

Projects get their MCP configuration from a hierarchy of fragments:
the user-global ~/.claude/mcps.json, then every ancestor directory's
.claude/mcps.json down to the project itself. Deeper levels override
shallower ones. Fragments reference shared server definitions by name
(the registry) and can inline full server specs. ${VAR} tokens are
filled from the hierarchy's .env files and the process environment.

- Use weave_config_show to preview what a project would get and why.
- Use weave_config_apply to write the project's .mcp.json.
- Use weave_registry to manage the shared server definitions.
- After changing fragments, registry entries, or .env files, re-run
  weave_config_apply so the project file reflects the change.

## TEMPLATES

Templates bundle rules, commands, and MCP defaults for a stack. They
can include other templates (react includes typescript). Applying is
idempotent and never overwrites user-edited files.

- weave_template_list shows what is installed.
- weave_template_apply sets a project up. Suggest a template when the
  user starts working in a fresh project whose stack you can identify.

## ACTIVITY AND WORKSTREAMS

A workstream is a named group of projects worked on together, with
optional shared rules text. Record which files you touch with
weave_activity_record (reuse the returned session_id for the whole
conversation). Recording powers two features:

1. weave_activity_suggest proposes workstreams from projects that keep
   being touched together.
2. weave_sync_detect matches the current projects against existing
   workstreams. It may auto-switch on a confident match, or return a
   nudge. When you get a nudge, ask the user the nudge's question and
   forward their answer via weave_sync_action (switch, add, always,
   never, or dismiss). Respect "never" answers: do not keep asking.

Call weave_activity_record after edits, and weave_sync_detect when the
set of projects in play changes. When a workstream becomes active,
read its rules and follow them for the rest of the session.

## WHEN SOMETHING LOOKS WRONG

- Missing registry entries or unresolved ${VAR} warnings from
  weave_config_show: tell the user which registry name or .env entry
  to add, then re-apply.
- weave_discover_tools failing for one server usually means its
  command is not installed; the rest of the config is still fine.`
}
