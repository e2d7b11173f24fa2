package joinz

import "sync"

// DefaultRegistryBuilder returns a fresh builder carrying the built-in inline
// renderer, the quote pre-processor, the wrap post-processor and the built-in
// shortcuts. Extend it and Build it to get a Registry with your own plugins.
func DefaultRegistryBuilder() *RegistryBuilder {
	b := NewRegistryBuilder()
	Must(b.RegisterRenderer(InlineName, Inline))
	Must(b.RegisterPreProcessor(QuoteName, Quote))
	Must(b.RegisterPostProcessor(WrapName, Wrap))
	Must(b.LoadShortcuts(defaultShortcuts))
	return b
}

var (
	defaultRegistry     *Registry
	defaultRegistryOnce sync.Once
)

// DefaultRegistry returns the shared Registry built from DefaultRegistryBuilder.
func DefaultRegistry() *Registry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = MustBuild(DefaultRegistryBuilder())
	})
	return defaultRegistry
}

// Default returns a Joiner over the default registry using the inline renderer.
func Default() *Joiner {
	return New(DefaultRegistry(), Config{Renderer: InlineName})
}

// Join joins data with the default Joiner.
//
//	joinz.Join([]string{"boogers", "snot", "bogies"}) // "boogers, snot & bogies"
func Join(data any, opts ...Settings) (string, error) {
	return Default().Join(data, opts...)
}

// With returns the default Joiner with a shortcut applied.
//
//	j, _ := joinz.With("or")
//	j.Join([]string{"a", "b", "c"}) // "a, b or c"
func With(shortcut Name) (*Joiner, error) {
	return Default().With(shortcut)
}
