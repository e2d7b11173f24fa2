package joinz

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/zoobzio/hookz"
	"github.com/zoobzio/metricz"
	"github.com/zoobzio/tracez"
)

// Observability constants for pipeline execution.
const (
	// Metrics.
	JoinsTotal         = metricz.Key("joinz.joins.total")
	JoinSuccessesTotal = metricz.Key("joinz.successes.total")
	JoinFailuresTotal  = metricz.Key("joinz.failures.total")
	StagesTotal        = metricz.Key("joinz.stages.total")
	StageFailuresTotal = metricz.Key("joinz.stage.failures.total")
	JoinDurationMs     = metricz.Key("joinz.duration.ms")

	// Spans.
	JoinSpan  = tracez.Key("joinz.join")
	StageSpan = tracez.Key("joinz.stage")

	// Tags.
	TagCallID    = tracez.Tag("joinz.call_id")
	TagRenderer  = tracez.Tag("joinz.renderer")
	TagStageKind = tracez.Tag("joinz.stage_kind")
	TagStageName = tracez.Tag("joinz.stage_name")
	TagSuccess   = tracez.Tag("joinz.success")
	TagError     = tracez.Tag("joinz.error")

	// Hook event keys.
	EventStageComplete = hookz.Key("joinz.stage_complete")
	EventJoinComplete  = hookz.Key("joinz.join_complete")
)

// Event describes a finished stage or a finished join. It is emitted via
// hookz; see Registry.OnStageComplete and Registry.OnJoinComplete.
type Event struct {
	Timestamp time.Time
	Error     error
	CallID    string        // Shared by every event of one join
	Name      Name          // Stage name; empty for join events
	Renderer  Name          // Renderer selected for the join
	Output    string        // Final string (join events, on success)
	Kind      Kind          // Stage kind; zero for join events
	Stages    int           // Stages executed so far
	Duration  time.Duration // Stage or join duration
	Success   bool
}

// execute runs the pipeline for one join: enabled pre-processors in
// registration order, the selected renderer, then enabled post-processors
// in registration order. The first failing stage stops the run.
func (r *Registry) execute(ctx context.Context, input any, cfg Config) (result string, err error) {
	if ctx == nil {
		ctx = context.Background()
	}

	clock := r.getClock()
	start := clock.Now()
	callID := uuid.NewString()
	stages := 0

	r.metrics.Counter(JoinsTotal).Inc()

	ctx, span := r.tracer.StartSpan(ctx, JoinSpan)
	span.SetTag(TagCallID, callID)
	span.SetTag(TagRenderer, cfg.Renderer)
	defer func() {
		elapsed := clock.Since(start)
		r.metrics.Gauge(JoinDurationMs).Set(float64(elapsed.Milliseconds()))
		if err == nil {
			span.SetTag(TagSuccess, "true")
			r.metrics.Counter(JoinSuccessesTotal).Inc()
		} else {
			span.SetTag(TagSuccess, "false")
			span.SetTag(TagError, err.Error())
			r.metrics.Counter(JoinFailuresTotal).Inc()
		}
		span.Finish()

		_ = r.hooks.Emit(ctx, EventJoinComplete, Event{ //nolint:errcheck
			CallID:    callID,
			Renderer:  cfg.Renderer,
			Output:    result,
			Stages:    stages,
			Success:   err == nil,
			Error:     err,
			Duration:  elapsed,
			Timestamp: clock.Now(),
		})
	}()

	render, ok := r.renderers[cfg.Renderer]
	if !ok {
		return "", &UnknownRendererError{Name: cfg.Renderer}
	}

	data := NewData(input)

	for _, stage := range r.pre {
		opts, enabled := enabledOptions(cfg, stage.name)
		if !enabled {
			continue
		}
		stages++
		err = r.runStage(ctx, callID, cfg.Renderer, PreProcessorKind, stage.name, stages, func(ctx context.Context) error {
			return stage.fn(ctx, &data, opts)
		})
		if err != nil {
			return "", err
		}
	}

	stages++
	renderOpts := cfg.Plugins[cfg.Renderer]
	err = r.runStage(ctx, callID, cfg.Renderer, RendererKind, cfg.Renderer, stages, func(ctx context.Context) error {
		var renderErr error
		result, renderErr = render(ctx, data, renderOpts)
		return renderErr
	})
	if err != nil {
		return "", err
	}

	for _, stage := range r.post {
		opts, enabled := enabledOptions(cfg, stage.name)
		if !enabled {
			continue
		}
		stages++
		in := result
		err = r.runStage(ctx, callID, cfg.Renderer, PostProcessorKind, stage.name, stages, func(ctx context.Context) error {
			out, postErr := stage.fn(ctx, in, opts)
			if postErr == nil {
				result = out
			}
			return postErr
		})
		if err != nil {
			return "", err
		}
	}

	return result, nil
}

func enabledOptions(cfg Config, name Name) (Options, bool) {
	opts, ok := cfg.Plugins[name]
	if !ok || !opts.IsEnabled() {
		return Options{}, false
	}
	return opts, true
}

// runStage invokes one stage, converting errors and panics into a StageError
// and reporting the outcome to metrics, traces and hooks.
func (r *Registry) runStage(ctx context.Context, callID string, renderer Name, kind Kind, name Name, number int, fn func(context.Context) error) error {
	clock := r.getClock()

	stageCtx, span := r.tracer.StartSpan(ctx, StageSpan)
	span.SetTag(TagCallID, callID)
	span.SetTag(TagStageKind, kind.String())
	span.SetTag(TagStageName, name)

	start := clock.Now()
	err := invokeStage(stageCtx, name, fn)
	duration := clock.Since(start)

	r.metrics.Counter(StagesTotal).Inc()
	if err == nil {
		span.SetTag(TagSuccess, "true")
	} else {
		span.SetTag(TagSuccess, "false")
		span.SetTag(TagError, err.Error())
		r.metrics.Counter(StageFailuresTotal).Inc()
	}
	span.Finish()

	_ = r.hooks.Emit(ctx, EventStageComplete, Event{ //nolint:errcheck
		CallID:    callID,
		Name:      name,
		Renderer:  renderer,
		Kind:      kind,
		Stages:    number,
		Success:   err == nil,
		Error:     err,
		Duration:  duration,
		Timestamp: clock.Now(),
	})

	if err == nil {
		return nil
	}

	r.logger.Debug("stage failed", "call", callID, "kind", kind, "stage", name, "err", err)
	return &StageError{
		Kind:      kind,
		Name:      name,
		Err:       err,
		Duration:  duration,
		Timestamp: clock.Now(),
	}
}

func invokeStage(ctx context.Context, name Name, fn func(context.Context) error) (err error) {
	defer recoverStage(&err, name)
	return fn(ctx)
}
