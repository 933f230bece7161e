// Package engine is the composition root: it wires every leaf and mid-tier
// package into one Engine, exposes one method per protocol operation, and
// owns the cross-cutting rules (storage first, workspace mirror second,
// event emission last) that every operation family shares. New is a single
// large constructor with forward-declared variables, breaking the circular
// id-generator/backing-store dependency without a second initialization pass.
package engine

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/open-palace/openpalace/internal/changelog"
	"github.com/open-palace/openpalace/internal/component"
	"github.com/open-palace/openpalace/internal/config"
	"github.com/open-palace/openpalace/internal/decay"
	"github.com/open-palace/openpalace/internal/entity"
	"github.com/open-palace/openpalace/internal/event"
	"github.com/open-palace/openpalace/internal/health"
	"github.com/open-palace/openpalace/internal/idgen"
	"github.com/open-palace/openpalace/internal/llm"
	"github.com/open-palace/openpalace/internal/memindex"
	"github.com/open-palace/openpalace/internal/paths"
	"github.com/open-palace/openpalace/internal/relationship"
	"github.com/open-palace/openpalace/internal/retrieval"
	"github.com/open-palace/openpalace/internal/scratch"
	"github.com/open-palace/openpalace/internal/search"
	"github.com/open-palace/openpalace/internal/snapshot"
	"github.com/open-palace/openpalace/internal/summarizer"
	"github.com/open-palace/openpalace/internal/validator"
	"github.com/open-palace/openpalace/internal/vcs"
	"github.com/open-palace/openpalace/internal/workspace"
)

// Engine holds every subsystem the protocol operations dispatch against. mu
// guards only the sampling hook; the leaf packages take no locks of their
// own (their files are whole-file read-modify-write), so concurrent
// operations touching the same files are not synchronized.
type Engine struct {
	root   string
	layout paths.Layout

	vcs         *vcs.Backer
	configStore *config.FileStore
	bus         *event.Bus

	entities      *entity.Registry
	components    *component.Store
	changelogs    *changelog.Engine
	scratch       *scratch.Store
	snapshots     *snapshot.Store
	relationships *relationship.Store
	index         *memindex.Index

	searchRouter *search.Router
	validator    *validator.Validator

	summarizerStore *summarizer.Store
	summarizer      *summarizer.Pipeline

	decay            *decay.Engine
	decayAccessStore *decay.AccessLogStore
	decayStateStore  *decay.StateStore

	workspace      *workspace.Syncer
	workspaceStore *workspace.Store

	health    *health.Checker
	retrieval *retrieval.Retriever

	now func() time.Time

	mu       sync.Mutex
	sampling llm.SamplingFunc
}

// New composes an Engine rooted at root, creating the on-disk skeleton and a
// default config document on first run. now defaults to time.Now.
func New(root string, now func() time.Time) (*Engine, error) {
	if now == nil {
		now = time.Now
	}

	layout := paths.New(root)
	for _, dir := range layout.EnsureSkeleton() {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("engine: creating %s: %w", dir, err)
		}
	}

	configStore := config.NewFileStore(layout.Config())
	if !configStore.Exists() {
		if err := configStore.Save(config.Default()); err != nil {
			return nil, fmt.Errorf("engine: writing default config: %w", err)
		}
	}

	vcsBacker := vcs.New(root)
	if err := vcsBacker.Init(); err != nil {
		return nil, fmt.Errorf("engine: initializing version control: %w", err)
	}

	bus := event.New()

	entityStore := entity.NewFileStore(layout.EntitiesDir())
	entities := entity.New(entityStore, now)

	componentStore := component.New(layout)

	// changelogEngine and scratchStore are forward-declared so their own
	// idgen.Generator recovery closures can capture them before either is
	// fully constructed.
	var changelogEngine *changelog.Engine
	changelogIDs := idgen.New(now, func(prefix, mmdd string) (int, error) {
		return changelogEngine.RecoverCounter(prefix, mmdd)
	})
	changelogEngine = changelog.New(layout, componentStore.Exists, changelogIDs.Generate, now)

	var scratchStore *scratch.Store
	scratchIDs := idgen.New(now, func(prefix, mmdd string) (int, error) {
		return scratchStore.RecoverCounter(prefix, mmdd)
	})
	scratchStore = scratch.New(layout, scratchIDs.Generate, now)

	snapshotStore := snapshot.New(layout.Snapshot(), now)

	ensureRelComponent := func(entityID string) error {
		if componentStore.Exists(component.TypeRelationships, entityID) {
			return nil
		}
		return componentStore.Create(component.TypeRelationships, entityID, "# "+entityID+"\n\nRelationship profile.\n")
	}
	relationshipStore := relationship.New(layout.ComponentTypeDir(component.TypeRelationships), ensureRelComponent, now)

	index := memindex.New(layout.IndexMaster())
	if err := index.Init(); err != nil {
		return nil, fmt.Errorf("engine: initializing L0 index: %w", err)
	}

	e := &Engine{
		root:          root,
		layout:        layout,
		vcs:           vcsBacker,
		configStore:   configStore,
		bus:           bus,
		entities:      entities,
		components:    componentStore,
		changelogs:    changelogEngine,
		scratch:       scratchStore,
		snapshots:     snapshotStore,
		relationships: relationshipStore,
		index:         index,
		now:           now,
	}

	cfg, err := configStore.Load()
	if err != nil {
		return nil, fmt.Errorf("engine: loading config: %w", err)
	}

	corpus := &storeCorpus{layout: layout, components: componentStore, changelogs: changelogEngine, scratch: scratchStore, now: now}

	var backends []search.Backend
	if cfg.Search.ExternalBinary != "" {
		backends = append(backends, search.NewExternalBackend(cfg.Search.ExternalBinary, cfg.Search.ExternalCollection, root))
	}
	backends = append(backends, search.NewBM25Backend(corpus), search.NewSimpleBackend(corpus))
	router := search.New(backends, cfg.Search.AutoReindex, cfg.Search.ReindexDebounceMS)
	e.searchRouter = router

	bus.Register(event.CommitHandler(vcsBacker.Commit))
	bus.Register(event.ReindexHandler(func() {
		router.ScheduleDebouncedReindex(e.searchBackendChoice())
	}))

	e.validator = validator.New(e.ask)

	summarizerStore := summarizer.NewStore(layout.SummarizerState())
	e.summarizerStore = summarizerStore
	e.summarizer = summarizer.New(summarizerStore, componentStore, changelogEngine, index, e.ask, now, layout.IndexWeeklyDir(), layout.IndexMonthlyDir())

	decayAccessStore := decay.NewAccessLogStore(layout.AccessLog())
	decayStateStore := decay.NewStateStore(layout.DecayState())
	e.decayAccessStore = decayAccessStore
	e.decayStateStore = decayStateStore
	watermark := func() (time.Time, bool) {
		st, err := summarizerStore.Load()
		if err != nil {
			return time.Time{}, false
		}
		return st.SafeWatermark()
	}
	e.decay = decay.New(decayAccessStore, decayStateStore, componentStore, changelogEngine, layout, watermark, now)

	workspaceStore := workspace.NewStore(layout.SyncState())
	e.workspaceStore = workspaceStore
	e.workspace = workspace.New(workspaceStore, layout, entities, now)

	e.health = &health.Checker{
		Index:      index,
		Components: componentStore,
		Entities:   entities,
		VCS:        vcsBacker,
		Config:     configStore,
	}

	e.retrieval = retrieval.New(index, componentStore, router, e.ask)

	return e, nil
}

// SetSampling installs the MCP client's sampling capability, typically
// called once by the server layer right after a client connects.
func (e *Engine) SetSampling(fn llm.SamplingFunc) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sampling = fn
}

// ask implements the ask(system_prompt, user_message) helper every
// higher-level package depends on through its own Asker type, reading live
// config on every call so a config_update to llm.* takes effect immediately.
func (e *Engine) ask(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	cfg, err := e.configStore.Load()
	if err != nil {
		return "", fmt.Errorf("%w: loading config for ask: %v", ErrBackingStore, err)
	}

	e.mu.Lock()
	sampling := e.sampling
	e.mu.Unlock()

	baseURL := trimChatCompletionsSuffix(cfg.LLM.Endpoint)
	apiKey := cfg.LLM.APIKey
	if apiKey == "" && cfg.LLM.APIKeyEnv != "" {
		apiKey = os.Getenv(cfg.LLM.APIKeyEnv)
	}
	caller := llm.New(llm.Strategy(cfg.LLM.Mode), sampling, llm.DirectConfig{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Model:   cfg.LLM.Model,
	})
	reply, err := caller.Ask(ctx, systemPrompt, userMessage, 0)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrLanguageModelUnavailable, err)
	}
	return reply, nil
}

func trimChatCompletionsSuffix(endpoint string) string {
	const suffix = "/chat/completions"
	if len(endpoint) > len(suffix) && endpoint[len(endpoint)-len(suffix):] == suffix {
		return endpoint[:len(endpoint)-len(suffix)]
	}
	return endpoint
}

// searchBackendChoice reads the live config's search.backend tunable,
// defaulting to "auto" if config cannot be read.
func (e *Engine) searchBackendChoice() string {
	cfg, err := e.configStore.Load()
	if err != nil {
		return "auto"
	}
	if cfg.Search.Backend == "" {
		return "auto"
	}
	return cfg.Search.Backend
}

// resolveWorkspaceRoot applies the candidate order: an explicit config
// override, then OPEN_PALACE_WORKSPACE, then HOME.
func (e *Engine) resolveWorkspaceRoot(cfg config.Document) string {
	return workspace.ResolveRoot(cfg.WorkspaceSync.WorkspacePath, []workspace.Candidate{
		workspace.EnvCandidate("OPEN_PALACE_WORKSPACE"),
		workspace.EnvCandidate("HOME"),
	})
}
