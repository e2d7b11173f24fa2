// Package testing provides test utilities and helpers for joinz-based applications.
//
// This package includes mock stages, metric and event assertions, and chaos
// testing tools to make testing custom plugins and registries easier.
//
// Example usage:
//
//	func TestMyPlugin(t *testing.T) {
//		post := testing.NewMockPostProcessor(t, "shout").WithReturn("LOUD", nil)
//
//		b := joinz.DefaultRegistryBuilder()
//		joinz.Must(b.RegisterPostProcessor(post.Name(), post.Func()))
//		reg := joinz.MustBuild(b)
//
//		out, err := joinz.New(reg, joinz.Config{Renderer: joinz.InlineName}).
//			Join([]string{"a"}, joinz.Settings{"shout": true})
//
//		require.NoError(t, err)
//		assert.Equal(t, "LOUD", out)
//		testing.AssertCalled(t, post, 1)
//	}
package testing

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	mathrand "math/rand"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/zoobzio/joinz"
	"github.com/zoobzio/metricz"
)

// MockCall represents a single call to a mock stage.
type MockCall struct {
	Input     any
	Options   joinz.Options
	Timestamp time.Time
	Context   context.Context
}

// Called is implemented by every mock stage.
type Called interface {
	Name() joinz.Name
	CallCount() int
}

// mockStage holds the call tracking and behavior shared by the mock stages.
type mockStage struct { //nolint:govet // fieldalignment: Test helper struct optimized for functionality over memory efficiency
	t           *testing.T
	name        joinz.Name
	callCount   int64
	lastInput   any
	lastOptions joinz.Options
	returnErr   error
	delay       time.Duration
	panicMsg    string
	mu          sync.RWMutex
	callHistory []MockCall
	maxHistory  int
}

func (m *mockStage) init(t *testing.T, name joinz.Name) {
	m.t = t
	m.name = name
	m.maxHistory = 100 // Keep last 100 calls by default
}

// record tracks a call and applies the configured panic and delay.
func (m *mockStage) record(ctx context.Context, input any, opts joinz.Options) error {
	atomic.AddInt64(&m.callCount, 1)

	m.mu.Lock()
	m.lastInput = input
	m.lastOptions = opts
	if m.maxHistory > 0 {
		m.callHistory = append(m.callHistory, MockCall{
			Input:     input,
			Options:   opts,
			Timestamp: time.Now(),
			Context:   ctx,
		})
		if len(m.callHistory) > m.maxHistory {
			m.callHistory = m.callHistory[1:] // Remove oldest
		}
	}
	delay := m.delay
	panicMsg := m.panicMsg
	m.mu.Unlock()

	if panicMsg != "" {
		panic(panicMsg)
	}

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (m *mockStage) configure(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn()
}

func (m *mockStage) setHistorySize(size int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.maxHistory = size
	if size == 0 {
		m.callHistory = nil
	} else if len(m.callHistory) > size {
		m.callHistory = m.callHistory[len(m.callHistory)-size:]
	}
}

// Name returns the name the mock is meant to be registered under.
func (m *mockStage) Name() joinz.Name {
	return m.name
}

// CallCount returns the number of times the stage has run.
func (m *mockStage) CallCount() int {
	return int(atomic.LoadInt64(&m.callCount))
}

// LastInput returns the input of the most recent call. Pre-processors
// record a copy of the Data they received, renderers the Data and
// post-processors the string.
func (m *mockStage) LastInput() any {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastInput
}

// LastOptions returns the options of the most recent call.
func (m *mockStage) LastOptions() joinz.Options {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastOptions
}

// CallHistory returns a copy of all recorded calls.
// Returns nil if history tracking is disabled.
func (m *mockStage) CallHistory() []MockCall {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.maxHistory == 0 {
		return nil
	}
	history := make([]MockCall, len(m.callHistory))
	copy(history, m.callHistory)
	return history
}

// Reset clears all call tracking.
func (m *mockStage) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	atomic.StoreInt64(&m.callCount, 0)
	m.lastInput = nil
	m.lastOptions = joinz.Options{}
	m.callHistory = nil
}

// MockPreProcessor is a configurable pre-processor that records its calls.
type MockPreProcessor struct {
	mockStage
	mutate func(*joinz.Data)
}

// NewMockPreProcessor creates a mock pre-processor. By default it leaves
// the data untouched and succeeds.
func NewMockPreProcessor(t *testing.T, name joinz.Name) *MockPreProcessor {
	m := &MockPreProcessor{}
	m.init(t, name)
	return m
}

// WithMutation sets a function applied to the data on every call.
func (m *MockPreProcessor) WithMutation(fn func(*joinz.Data)) *MockPreProcessor {
	m.configure(func() { m.mutate = fn })
	return m
}

// WithError makes every call fail with err.
func (m *MockPreProcessor) WithError(err error) *MockPreProcessor {
	m.configure(func() { m.returnErr = err })
	return m
}

// WithDelay delays every call. The delay honors context cancellation.
func (m *MockPreProcessor) WithDelay(d time.Duration) *MockPreProcessor {
	m.configure(func() { m.delay = d })
	return m
}

// WithPanic makes every call panic with msg.
func (m *MockPreProcessor) WithPanic(msg string) *MockPreProcessor {
	m.configure(func() { m.panicMsg = msg })
	return m
}

// WithHistorySize configures how many calls to keep in history.
// Set to 0 to disable history tracking.
func (m *MockPreProcessor) WithHistorySize(size int) *MockPreProcessor {
	m.setHistorySize(size)
	return m
}

// Func returns the stage function to register.
func (m *MockPreProcessor) Func() joinz.PreProcessor {
	return func(ctx context.Context, data *joinz.Data, opts joinz.Options) error {
		if err := m.record(ctx, data.Clone(), opts); err != nil {
			return err
		}
		m.mu.RLock()
		mutate, err := m.mutate, m.returnErr
		m.mu.RUnlock()
		if err != nil {
			return err
		}
		if mutate != nil {
			mutate(data)
		}
		return nil
	}
}

// MockRenderer is a configurable renderer that records its calls.
type MockRenderer struct {
	mockStage
	returnVal string
}

// NewMockRenderer creates a mock renderer returning the empty string.
func NewMockRenderer(t *testing.T, name joinz.Name) *MockRenderer {
	m := &MockRenderer{}
	m.init(t, name)
	return m
}

// WithReturn configures the value and error returned by every call.
func (m *MockRenderer) WithReturn(val string, err error) *MockRenderer {
	m.configure(func() {
		m.returnVal = val
		m.returnErr = err
	})
	return m
}

// WithDelay delays every call. The delay honors context cancellation.
func (m *MockRenderer) WithDelay(d time.Duration) *MockRenderer {
	m.configure(func() { m.delay = d })
	return m
}

// WithPanic makes every call panic with msg.
func (m *MockRenderer) WithPanic(msg string) *MockRenderer {
	m.configure(func() { m.panicMsg = msg })
	return m
}

// Func returns the stage function to register.
func (m *MockRenderer) Func() joinz.Renderer {
	return func(ctx context.Context, data joinz.Data, opts joinz.Options) (string, error) {
		if err := m.record(ctx, data.Clone(), opts); err != nil {
			return "", err
		}
		m.mu.RLock()
		defer m.mu.RUnlock()
		return m.returnVal, m.returnErr
	}
}

// MockPostProcessor is a configurable post-processor that records its calls.
type MockPostProcessor struct {
	mockStage
	returnVal string
	hasReturn bool
}

// NewMockPostProcessor creates a mock post-processor. Until WithReturn is
// called it passes its input through unchanged.
func NewMockPostProcessor(t *testing.T, name joinz.Name) *MockPostProcessor {
	m := &MockPostProcessor{}
	m.init(t, name)
	return m
}

// WithReturn configures the value and error returned by every call.
func (m *MockPostProcessor) WithReturn(val string, err error) *MockPostProcessor {
	m.configure(func() {
		m.returnVal = val
		m.returnErr = err
		m.hasReturn = true
	})
	return m
}

// WithDelay delays every call. The delay honors context cancellation.
func (m *MockPostProcessor) WithDelay(d time.Duration) *MockPostProcessor {
	m.configure(func() { m.delay = d })
	return m
}

// WithPanic makes every call panic with msg.
func (m *MockPostProcessor) WithPanic(msg string) *MockPostProcessor {
	m.configure(func() { m.panicMsg = msg })
	return m
}

// Func returns the stage function to register.
func (m *MockPostProcessor) Func() joinz.PostProcessor {
	return func(ctx context.Context, s string, opts joinz.Options) (string, error) {
		if err := m.record(ctx, s, opts); err != nil {
			return s, err
		}
		m.mu.RLock()
		defer m.mu.RUnlock()
		if !m.hasReturn {
			return s, nil
		}
		return m.returnVal, m.returnErr
	}
}

// Assertion Helpers

// AssertCalled verifies that a mock stage ran exactly n times.
func AssertCalled(t *testing.T, mock Called, expectedCalls int) {
	t.Helper()
	actualCalls := mock.CallCount()
	if actualCalls != expectedCalls {
		t.Errorf("expected mock stage %s to be called %d times, but was called %d times",
			mock.Name(), expectedCalls, actualCalls)
	}
}

// AssertNotCalled verifies that a mock stage never ran.
func AssertNotCalled(t *testing.T, mock Called) {
	t.Helper()
	AssertCalled(t, mock, 0)
}

// AssertCounter verifies the value of a registry counter.
func AssertCounter(t *testing.T, reg *joinz.Registry, key metricz.Key, expected float64) {
	t.Helper()
	actual := reg.Metrics().Counter(key).Value()
	if actual != expected {
		t.Errorf("expected counter %s to be %v, got %v", key, expected, actual)
	}
}

// EventRecorder collects the events a Registry emits.
type EventRecorder struct {
	mu     sync.Mutex
	stages []joinz.Event
	joins  []joinz.Event
}

// NewEventRecorder subscribes a recorder to the stage and join events of reg.
func NewEventRecorder(reg *joinz.Registry) (*EventRecorder, error) {
	r := &EventRecorder{}
	if err := reg.OnStageComplete(func(_ context.Context, e joinz.Event) error {
		r.mu.Lock()
		r.stages = append(r.stages, e)
		r.mu.Unlock()
		return nil
	}); err != nil {
		return nil, err
	}
	if err := reg.OnJoinComplete(func(_ context.Context, e joinz.Event) error {
		r.mu.Lock()
		r.joins = append(r.joins, e)
		r.mu.Unlock()
		return nil
	}); err != nil {
		return nil, err
	}
	return r, nil
}

// StageEvents returns a copy of the recorded stage events.
func (r *EventRecorder) StageEvents() []joinz.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]joinz.Event(nil), r.stages...)
}

// JoinEvents returns a copy of the recorded join events.
func (r *EventRecorder) JoinEvents() []joinz.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]joinz.Event(nil), r.joins...)
}

// WaitForJoins waits until at least n join events arrived. Events are
// delivered asynchronously. Returns true if the expected events were seen.
func (r *EventRecorder) WaitForJoins(n int, timeout time.Duration) bool {
	start := time.Now()
	for time.Since(start) < timeout {
		if len(r.JoinEvents()) >= n {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}

// ChaosPostProcessor introduces controlled failures and delays around a
// wrapped post-processor.
type ChaosPostProcessor struct { //nolint:govet // fieldalignment: Test helper struct optimized for functionality over memory efficiency
	wrapped      joinz.PostProcessor
	failureRate  float64
	latencyMin   time.Duration
	latencyMax   time.Duration
	timeoutRate  float64
	panicRate    float64
	rng          *mathrand.Rand
	mu           sync.Mutex
	totalCalls   int64
	failedCalls  int64
	timeoutCalls int64
	panicCalls   int64
}

// ChaosConfig holds configuration for chaos testing.
type ChaosConfig struct {
	FailureRate float64       // Probability of returning an error (0.0 to 1.0)
	LatencyMin  time.Duration // Minimum additional latency to inject
	LatencyMax  time.Duration // Maximum additional latency to inject
	TimeoutRate float64       // Probability of simulating timeout (0.0 to 1.0)
	PanicRate   float64       // Probability of panicking (0.0 to 1.0)
	Seed        int64         // Random seed for reproducible chaos (0 for random seed)
}

// NewChaosPostProcessor wraps a post-processor with chaos injection.
func NewChaosPostProcessor(wrapped joinz.PostProcessor, config ChaosConfig) *ChaosPostProcessor {
	seed := config.Seed
	if seed == 0 {
		var seedBytes [8]byte
		if _, err := rand.Read(seedBytes[:]); err != nil {
			seed = time.Now().UnixNano()
		} else {
			seed = int64(seedBytes[0])<<56 | int64(seedBytes[1])<<48 | int64(seedBytes[2])<<40 | int64(seedBytes[3])<<32 |
				int64(seedBytes[4])<<24 | int64(seedBytes[5])<<16 | int64(seedBytes[6])<<8 | int64(seedBytes[7])
		}
	}

	return &ChaosPostProcessor{
		wrapped:     wrapped,
		failureRate: config.FailureRate,
		latencyMin:  config.LatencyMin,
		latencyMax:  config.LatencyMax,
		timeoutRate: config.TimeoutRate,
		panicRate:   config.PanicRate,
		rng:         mathrand.New(mathrand.NewSource(seed)), //nolint:gosec // G404: Test utility uses weak RNG for deterministic chaos scenarios
	}
}

// Func returns the stage function to register.
func (c *ChaosPostProcessor) Func() joinz.PostProcessor {
	return c.process
}

func (c *ChaosPostProcessor) process(ctx context.Context, s string, opts joinz.Options) (string, error) {
	atomic.AddInt64(&c.totalCalls, 1)

	c.mu.Lock()
	if c.rng.Float64() < c.panicRate {
		c.mu.Unlock()
		atomic.AddInt64(&c.panicCalls, 1)
		panic("chaos post-processor induced panic")
	}

	var latency time.Duration
	if c.latencyMax > c.latencyMin {
		latency = c.latencyMin + time.Duration(c.rng.Int63n(int64(c.latencyMax-c.latencyMin)))
	} else if c.latencyMin > 0 {
		latency = c.latencyMin
	}
	simulateTimeout := c.rng.Float64() < c.timeoutRate
	injectFailure := c.rng.Float64() < c.failureRate
	c.mu.Unlock()

	if latency > 0 {
		select {
		case <-time.After(latency):
		case <-ctx.Done():
			return s, ctx.Err()
		}
	}

	if simulateTimeout {
		atomic.AddInt64(&c.timeoutCalls, 1)
		return s, context.DeadlineExceeded
	}

	result, err := c.wrapped(ctx, s, opts)

	if injectFailure && err == nil {
		atomic.AddInt64(&c.failedCalls, 1)
		return s, errors.New("chaos post-processor induced failure")
	}
	return result, err
}

// Stats returns statistics about chaos injection.
func (c *ChaosPostProcessor) Stats() ChaosStats {
	return ChaosStats{
		TotalCalls:   atomic.LoadInt64(&c.totalCalls),
		FailedCalls:  atomic.LoadInt64(&c.failedCalls),
		TimeoutCalls: atomic.LoadInt64(&c.timeoutCalls),
		PanicCalls:   atomic.LoadInt64(&c.panicCalls),
	}
}

// ChaosStats holds statistics about chaos injection.
type ChaosStats struct {
	TotalCalls   int64
	FailedCalls  int64
	TimeoutCalls int64
	PanicCalls   int64
}

// FailureRate returns the observed failure rate.
func (s ChaosStats) FailureRate() float64 {
	if s.TotalCalls == 0 {
		return 0
	}
	return float64(s.FailedCalls) / float64(s.TotalCalls)
}

// TimeoutRate returns the observed timeout rate.
func (s ChaosStats) TimeoutRate() float64 {
	if s.TotalCalls == 0 {
		return 0
	}
	return float64(s.TimeoutCalls) / float64(s.TotalCalls)
}

// PanicRate returns the observed panic rate.
func (s ChaosStats) PanicRate() float64 {
	if s.TotalCalls == 0 {
		return 0
	}
	return float64(s.PanicCalls) / float64(s.TotalCalls)
}

func (s ChaosStats) String() string {
	return fmt.Sprintf("ChaosStats{Total: %d, Failed: %d (%.1f%%), Timeouts: %d (%.1f%%), Panics: %d (%.1f%%)}",
		s.TotalCalls, s.FailedCalls, s.FailureRate()*100,
		s.TimeoutCalls, s.TimeoutRate()*100,
		s.PanicCalls, s.PanicRate()*100)
}

// Helper Functions

// WaitForCalls waits for a mock stage to run at least n times, with a
// timeout. Returns true if the expected calls were reached.
func WaitForCalls(mock Called, expectedCalls int, timeout time.Duration) bool {
	start := time.Now()
	for time.Since(start) < timeout {
		if mock.CallCount() >= expectedCalls {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}

// ParallelTest runs testFunc on several goroutines and waits for all of them.
func ParallelTest(t *testing.T, goroutines int, testFunc func(int)) {
	t.Helper()

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func(id int) {
			defer wg.Done()
			testFunc(id)
		}(i)
	}
	wg.Wait()
}
