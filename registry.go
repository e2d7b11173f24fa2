package joinz

import (
	"context"
	"io"
	"regexp"
	"slices"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/zoobzio/clockz"
	"github.com/zoobzio/hookz"
	"github.com/zoobzio/metricz"
	"github.com/zoobzio/tracez"
)

var pluginNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// reservedNames are Joiner members; plugins and shortcuts may not take them.
var reservedNames = []Name{
	"join", "j", "joinContext",
	"with", "mustWith", "withPlugin", "enable", "render",
	"config", "renderer", "registry", "joiner",
}

// IsPluginName reports whether name is syntactically valid for a plugin or
// shortcut: letters, digits and underscores, not starting with a digit.
func IsPluginName(name string) bool {
	return pluginNamePattern.MatchString(name)
}

type preStage struct {
	fn   PreProcessor
	name Name
}

type postStage struct {
	fn   PostProcessor
	name Name
}

// RegistryBuilder collects plugins and shortcuts during initialization.
// Build freezes it into a read-only Registry; registering afterwards fails
// with ErrRegistryFrozen.
//
// Registration errors are programming errors. Code registering at package
// init should wrap the calls in Must so a bad name stops the program:
//
//	b := joinz.DefaultRegistryBuilder()
//	joinz.Must(b.RegisterPostProcessor("upper", upper))
//	registry := joinz.MustBuild(b)
type RegistryBuilder struct {
	names         map[Name]Kind
	renderers     map[Name]Renderer
	shortcuts     map[Name]Config
	logger        *log.Logger
	clock         clockz.Clock
	pre           []preStage
	post          []postStage
	rendererOrder []Name
	shortcutOrder []Name
	mu            sync.Mutex
	frozen        bool
}

// NewRegistryBuilder returns an empty builder. See DefaultRegistryBuilder for
// one carrying the built-in plugins and shortcuts.
func NewRegistryBuilder() *RegistryBuilder {
	names := make(map[Name]Kind, len(reservedNames))
	for _, n := range reservedNames {
		names[n] = reservedKind
	}
	return &RegistryBuilder{
		names:     names,
		renderers: make(map[Name]Renderer),
		shortcuts: make(map[Name]Config),
		logger:    log.New(io.Discard),
	}
}

// WithLogger sets the logger used by the builder and the Registry it builds.
func (b *RegistryBuilder) WithLogger(logger *log.Logger) *RegistryBuilder {
	b.mu.Lock()
	defer b.mu.Unlock()
	if logger != nil {
		b.logger = logger
	}
	return b
}

// WithClock sets the clock the Registry uses for stage timing.
func (b *RegistryBuilder) WithClock(clock clockz.Clock) *RegistryBuilder {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.clock = clock
	return b
}

// Available reports whether name is valid and not yet taken.
func (b *RegistryBuilder) Available(name Name) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.checkName(name) == nil
}

// RegisterPreProcessor adds a pre-processor. Pre-processors run in the order
// they were registered.
func (b *RegistryBuilder) RegisterPreProcessor(name Name, fn PreProcessor) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.admit(name, fn == nil); err != nil {
		return err
	}
	b.pre = append(b.pre, preStage{name: name, fn: fn})
	b.claim(name, PreProcessorKind)
	return nil
}

// RegisterRenderer adds a renderer.
func (b *RegistryBuilder) RegisterRenderer(name Name, fn Renderer) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.admit(name, fn == nil); err != nil {
		return err
	}
	b.renderers[name] = fn
	b.rendererOrder = append(b.rendererOrder, name)
	b.claim(name, RendererKind)
	return nil
}

// RegisterPostProcessor adds a post-processor. Post-processors run in the
// order they were registered.
func (b *RegistryBuilder) RegisterPostProcessor(name Name, fn PostProcessor) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.admit(name, fn == nil); err != nil {
		return err
	}
	b.post = append(b.post, postStage{name: name, fn: fn})
	b.claim(name, PostProcessorKind)
	return nil
}

// RegisterShortcut adds a named preset configuration.
func (b *RegistryBuilder) RegisterShortcut(name Name, preset Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.admit(name, false); err != nil {
		return err
	}
	b.shortcuts[name] = preset.Clone()
	b.shortcutOrder = append(b.shortcutOrder, name)
	b.claim(name, ShortcutKind)
	return nil
}

func (b *RegistryBuilder) admit(name Name, nilFn bool) error {
	if b.frozen {
		return ErrRegistryFrozen
	}
	if nilFn {
		return ErrNilStage
	}
	return b.checkName(name)
}

func (b *RegistryBuilder) checkName(name Name) error {
	if !IsPluginName(name) {
		return &NameError{Name: name}
	}
	if owner, taken := b.names[name]; taken {
		return &CollisionError{Name: name, Owner: owner}
	}
	return nil
}

func (b *RegistryBuilder) claim(name Name, kind Kind) {
	b.names[name] = kind
	b.logger.Debug("registered plugin", "name", name, "kind", kind)
}

// Build freezes the builder and returns the Registry.
func (b *RegistryBuilder) Build() (*Registry, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.frozen {
		return nil, ErrRegistryFrozen
	}
	b.frozen = true

	renderers := make(map[Name]Renderer, len(b.renderers))
	for n, fn := range b.renderers {
		renderers[n] = fn
	}
	shortcuts := make(map[Name]Config, len(b.shortcuts))
	for n, preset := range b.shortcuts {
		shortcuts[n] = preset.Clone()
	}
	names := make(map[Name]Kind, len(b.names))
	for n, k := range b.names {
		names[n] = k
	}

	metrics := metricz.New()
	metrics.Counter(JoinsTotal)
	metrics.Counter(JoinSuccessesTotal)
	metrics.Counter(JoinFailuresTotal)
	metrics.Counter(StagesTotal)
	metrics.Counter(StageFailuresTotal)
	metrics.Gauge(JoinDurationMs)

	return &Registry{
		names:         names,
		pre:           slices.Clone(b.pre),
		post:          slices.Clone(b.post),
		renderers:     renderers,
		rendererOrder: slices.Clone(b.rendererOrder),
		shortcuts:     shortcuts,
		shortcutOrder: slices.Clone(b.shortcutOrder),
		logger:        b.logger,
		clock:         b.clock,
		metrics:       metrics,
		tracer:        tracez.New(),
		hooks:         hookz.New[Event](),
	}, nil
}

// Must panics if err is non-nil. It is meant for registration at init time,
// where a bad plugin name should stop the program.
func Must(err error) {
	if err != nil {
		panic(err)
	}
}

// MustBuild builds b and panics on failure.
func MustBuild(b *RegistryBuilder) *Registry {
	r, err := b.Build()
	Must(err)
	return r
}

// Registry is the frozen set of plugins and shortcuts a Joiner runs against.
// It is read-only and safe for concurrent use by any number of Joiners.
//
// The Registry also owns the pipeline's observability: metrics, traces and
// hook events for every join executed against it.
type Registry struct {
	names         map[Name]Kind
	renderers     map[Name]Renderer
	shortcuts     map[Name]Config
	logger        *log.Logger
	clock         clockz.Clock
	metrics       *metricz.Registry
	tracer        *tracez.Tracer
	hooks         *hookz.Hooks[Event]
	pre           []preStage
	post          []postStage
	rendererOrder []Name
	shortcutOrder []Name
}

// Kind returns the kind registered under name.
func (r *Registry) Kind(name Name) (Kind, bool) {
	k, ok := r.names[name]
	if !ok || k == reservedKind {
		return 0, false
	}
	return k, true
}

// PreProcessors returns pre-processor names in execution order.
func (r *Registry) PreProcessors() []Name {
	names := make([]Name, len(r.pre))
	for i, s := range r.pre {
		names[i] = s.name
	}
	return names
}

// Renderers returns renderer names in registration order.
func (r *Registry) Renderers() []Name {
	return slices.Clone(r.rendererOrder)
}

// PostProcessors returns post-processor names in execution order.
func (r *Registry) PostProcessors() []Name {
	names := make([]Name, len(r.post))
	for i, s := range r.post {
		names[i] = s.name
	}
	return names
}

// Shortcuts returns shortcut names in registration order.
func (r *Registry) Shortcuts() []Name {
	return slices.Clone(r.shortcutOrder)
}

// Shortcut returns a copy of the preset registered under name.
func (r *Registry) Shortcut(name Name) (Config, bool) {
	preset, ok := r.shortcuts[name]
	if !ok {
		return Config{}, false
	}
	return preset.Clone(), true
}

// Renderer returns the renderer registered under name.
func (r *Registry) Renderer(name Name) (Renderer, bool) {
	fn, ok := r.renderers[name]
	return fn, ok
}

// Metrics returns the metrics registry for joins run against r.
func (r *Registry) Metrics() *metricz.Registry {
	return r.metrics
}

// Tracer returns the tracer for joins run against r.
func (r *Registry) Tracer() *tracez.Tracer {
	return r.tracer
}

// Close shuts down observability components.
func (r *Registry) Close() error {
	if r.tracer != nil {
		r.tracer.Close()
	}
	r.hooks.Close()
	return nil
}

// OnStageComplete registers a handler called after every stage runs,
// successfully or not. Handlers run asynchronously.
func (r *Registry) OnStageComplete(handler func(context.Context, Event) error) error {
	_, err := r.hooks.Hook(EventStageComplete, handler)
	return err
}

// OnJoinComplete registers a handler called after every join finishes.
// Handlers run asynchronously.
func (r *Registry) OnJoinComplete(handler func(context.Context, Event) error) error {
	_, err := r.hooks.Hook(EventJoinComplete, handler)
	return err
}

func (r *Registry) getClock() clockz.Clock {
	if r.clock == nil {
		return clockz.RealClock
	}
	return r.clock
}
