// Package joinz turns values into human readable joined strings through a small,
// pluggable pipeline.
//
// # Overview
//
// joinz takes a value, usually a slice, and produces a single line such as
// "a, b & c". The work is split into stages that are registered by name:
//
//   - Pre-processors transform a private copy of the elements (e.g. quoting)
//   - A renderer produces the string (e.g. the inline "a, b & c" join)
//   - Post-processors transform the rendered string (e.g. bracket wrapping)
//
// Pre-processors and post-processors run in registration order when they are
// enabled; exactly one renderer runs per join.
//
// # Quick Start
//
//	out, _ := joinz.Join([]string{"boogers", "snot", "bogies"})
//	// out: "boogers, snot & bogies"
//
//	or, _ := joinz.With("or")
//	out, _ = or.Join([]string{"a", "b", "c"})
//	// out: "a, b or c"
//
//	out, _ = joinz.Join([]string{"a", "b"}, joinz.Settings{"quote": `"`, "wrap": "["})
//	// out: `["a" & "b"]`
//
// # Configuration
//
// A Joiner holds a Config: the active renderer plus options per plugin.
// Options can be given in shorthand and are normalized (see Normalize):
// true/false switch a plugin, strings and numbers become its argument, and
// mappings are full options.
//
// Configuration combines at three levels, later levels winning field by field:
//
//  1. The Config a Joiner was created with
//  2. Shortcuts applied with With (e.g. "or", "q", "bracket")
//  3. Settings passed to Join for a single call
//
// Naming a plugin in call-time Settings switches it on unless the options
// say otherwise. Options stored on a Joiner are only active when enabled
// explicitly.
//
// Joiners are immutable. With, WithPlugin and Enable return new Joiners and
// never change the receiver.
//
// # Extending
//
// Plugins are registered on a RegistryBuilder during initialization, then
// frozen into a read-only Registry:
//
//	b := joinz.DefaultRegistryBuilder()
//	joinz.Must(b.RegisterPostProcessor("upper", func(_ context.Context, s string, _ joinz.Options) (string, error) {
//	    return strings.ToUpper(s), nil
//	}))
//	joinz.Must(b.LoadShortcuts([]byte("shout:\n  upper: {enabled: true}\n")))
//	registry := joinz.MustBuild(b)
//
//	j := joinz.New(registry, joinz.Config{Renderer: joinz.InlineName}).MustWith("shout")
//
// All names share one namespace: a name that is taken, or that would shadow
// a Joiner member such as "join", fails with a CollisionError. Invalid
// identifiers fail with a NameError.
//
// # Error Handling
//
// A failure inside a stage stops the join and surfaces as a *StageError
// carrying the stage kind and name along with the original error. Panics in
// stages are recovered the same way. A configuration selecting an unknown
// renderer fails with *UnknownRendererError before any stage runs.
//
// # Observability
//
// Every Registry carries metrics (metricz), traces (tracez) and hook events
// (hookz) for the joins run against it:
//
//   - joinz.joins.total, joinz.successes.total, joinz.failures.total
//   - joinz.stages.total, joinz.stage.failures.total, joinz.duration.ms
//   - joinz.join and joinz.stage spans
//   - joinz.stage_complete and joinz.join_complete events
//
// Hook handlers run asynchronously and only observe.
package joinz
