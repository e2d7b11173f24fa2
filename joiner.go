package joinz

import (
	"context"
	"fmt"
)

// PluginAwareBuilder is the surface for deriving configured joiners from
// registered plugins and shortcuts. Every derivation returns a new Joiner and
// leaves the receiver untouched.
type PluginAwareBuilder interface {
	With(shortcut Name) (*Joiner, error)
	WithPlugin(kind Kind, name Name, opts any) (*Joiner, error)
	Join(data any, opts ...Settings) (string, error)
}

var _ PluginAwareBuilder = (*Joiner)(nil)

// Joiner turns values into human readable strings.
//
// A Joiner is immutable: With, WithPlugin and Enable return a new Joiner
// holding its own deep copy of the merged configuration, so a Joiner handed
// out earlier never changes behavior. Joiners are safe for concurrent use.
//
//	j := joinz.Default()
//	or, _ := j.With("or")
//	quoted, _ := or.Enable("quote", `"`)
//
//	quoted.Join([]string{"a", "b"}) // `"a" or "b"`
//	j.Join([]string{"a", "b"})      // "a & b"
type Joiner struct {
	registry *Registry
	config   Config
}

// New returns a Joiner running against registry with a copy of config.
func New(registry *Registry, config Config) *Joiner {
	return &Joiner{registry: registry, config: config.Clone()}
}

// Join runs the pipeline on data. Each Settings value is applied in order
// on top of the Joiner's configuration for this call only; plugins named in
// them are switched on unless they say otherwise.
func (j *Joiner) Join(data any, opts ...Settings) (string, error) {
	return j.JoinContext(context.Background(), data, opts...)
}

// J is an alias for Join.
func (j *Joiner) J(data any, opts ...Settings) (string, error) {
	return j.Join(data, opts...)
}

// JoinContext is Join with a parent context for tracing and hook events.
func (j *Joiner) JoinContext(ctx context.Context, data any, opts ...Settings) (string, error) {
	resolved := Resolve(mergeSettings(opts), j.config)
	return j.registry.execute(ctx, data, resolved)
}

// With returns a new Joiner with the named shortcut merged over this
// Joiner's configuration.
func (j *Joiner) With(shortcut Name) (*Joiner, error) {
	preset, ok := j.registry.Shortcut(shortcut)
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownShortcut, shortcut)
	}
	return &Joiner{registry: j.registry, config: Merge(j.config, preset)}, nil
}

// MustWith is With for shortcut names known to exist; it panics otherwise.
func (j *Joiner) MustWith(shortcut Name) *Joiner {
	out, err := j.With(shortcut)
	if err != nil {
		panic(err)
	}
	return out
}

// WithPlugin returns a new Joiner with a plugin configured from shorthand
// options (see Normalize).
//
// For a pre- or post-processor the options are merged into the plugin's
// slot, which starts out disabled; pass true, an argument or a mapping with
// "enabled": true to switch it on. For a renderer the Joiner also selects it.
func (j *Joiner) WithPlugin(kind Kind, name Name, opts any) (*Joiner, error) {
	registered, ok := j.registry.Kind(name)
	if !ok || registered == ShortcutKind {
		return nil, fmt.Errorf("%w %q", ErrUnknownPlugin, name)
	}
	if registered != kind {
		return nil, fmt.Errorf("%w: %q is a %s, not a %s", ErrKindMismatch, name, registered, kind)
	}

	config := j.config.Clone()
	if config.Plugins == nil {
		config.Plugins = make(map[Name]Options, 1)
	}
	slot, ok := config.Plugins[name]
	if !ok && kind != RendererKind {
		slot = Enable(false)
	}
	normalized := Normalize(opts)
	if kind == RendererKind && opts == nil {
		normalized = Options{}
	}
	config.Plugins[name] = MergeOptions(slot, normalized)
	if kind == RendererKind {
		config.Renderer = name
	}
	return &Joiner{registry: j.registry, config: config}, nil
}

// Enable is WithPlugin for a pre- or post-processor looked up by name.
//
//	j.Enable("quote", `"`)      // quote with double quotes
//	j.Enable("wrap", "[")       // wrap in square brackets
//	j.Enable("quote", false)    // switch quoting off
func (j *Joiner) Enable(name Name, opts any) (*Joiner, error) {
	kind, ok := j.registry.Kind(name)
	if !ok || (kind != PreProcessorKind && kind != PostProcessorKind) {
		return nil, fmt.Errorf("%w: %q is not a pre- or post-processor", ErrUnknownPlugin, name)
	}
	return j.WithPlugin(kind, name, opts)
}

// Render joins data once with the named renderer. The renderer's options
// are normalized from opts. The Joiner itself is not changed.
func (j *Joiner) Render(renderer Name, data any, opts any) (string, error) {
	if _, ok := j.registry.Renderer(renderer); !ok {
		return "", &UnknownRendererError{Name: renderer}
	}
	settings := Settings{RendererKey: renderer}
	if opts != nil {
		settings[renderer] = opts
	}
	return j.Join(data, settings)
}

// Config returns a copy of the Joiner's configuration.
func (j *Joiner) Config() Config {
	return j.config.Clone()
}

// Renderer returns the name of the active renderer.
func (j *Joiner) Renderer() Name {
	return j.config.Renderer
}

// Registry returns the Registry the Joiner runs against.
func (j *Joiner) Registry() *Registry {
	return j.registry
}
