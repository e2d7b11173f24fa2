package integration

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/zoobzio/joinz"
	joinztesting "github.com/zoobzio/joinz/testing"
)

// Product is a domain value joined through custom plugins.
type Product struct {
	Name  string
	Price float64
}

func productRegistry(t *testing.T) *joinz.Registry {
	t.Helper()
	b := joinz.DefaultRegistryBuilder()

	joinz.Must(b.RegisterPreProcessor("priced", func(_ context.Context, d *joinz.Data, opts joinz.Options) error {
		currency, ok := opts.ArgString()
		if !ok {
			currency = "$"
		}
		for i, item := range d.Items {
			p, ok := item.(Product)
			if !ok {
				return fmt.Errorf("item %d is %T, not a Product", i, item)
			}
			d.Items[i] = fmt.Sprintf("%s (%s%.2f)", p.Name, currency, p.Price)
		}
		return nil
	}))
	joinz.Must(b.RegisterRenderer("bullets", func(_ context.Context, d joinz.Data, opts joinz.Options) (string, error) {
		bullet, ok := opts.String("bullet")
		if !ok {
			bullet = "-"
		}
		lines := make([]string, len(d.Items))
		for i, item := range d.Items {
			lines[i] = fmt.Sprintf("%s %v", bullet, item)
		}
		return strings.Join(lines, "\n"), nil
	}))
	joinz.Must(b.RegisterPostProcessor("sentence", func(_ context.Context, s string, _ joinz.Options) (string, error) {
		if s == "" {
			return s, nil
		}
		return strings.ToUpper(s[:1]) + s[1:] + ".", nil
	}))
	joinz.Must(b.RegisterShortcut("receipt", joinz.Config{
		Renderer: "bullets",
		Plugins: map[joinz.Name]joinz.Options{
			"priced":  joinz.Enable(true),
			"bullets": {Fields: joinz.Fields{"bullet": "*"}},
		},
	}))

	reg, err := b.Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	t.Cleanup(func() { _ = reg.Close() })
	return reg
}

func TestJoinFlows_CustomPlugins(t *testing.T) {
	reg := productRegistry(t)
	base := joinz.New(reg, joinz.Config{Renderer: joinz.InlineName})
	products := []Product{{Name: "tea", Price: 3.5}, {Name: "scone", Price: 2}}

	t.Run("Inline With Custom Stages", func(t *testing.T) {
		out, err := base.MustWith("or").Join(products, joinz.Settings{"priced": "€", "sentence": true})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out != "Tea (€3.50) or scone (€2.00)." {
			t.Errorf("unexpected output: %q", out)
		}
	})

	t.Run("Shortcut Selecting Custom Renderer", func(t *testing.T) {
		out, err := base.MustWith("receipt").Join(products)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := "* tea ($3.50)\n* scone ($2.00)"
		if out != want {
			t.Errorf("expected %q, got %q", want, out)
		}
	})

	t.Run("Built-in Stages Mix With Custom Ones", func(t *testing.T) {
		out, err := base.MustWith("receipt").MustWith("sb").Join(products[:1])
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out != "[* tea ($3.50)]" {
			t.Errorf("unexpected output: %q", out)
		}
	})

	t.Run("Stage Error Surfaces Kind And Name", func(t *testing.T) {
		_, err := base.Join([]any{"not a product"}, joinz.Settings{"priced": true})
		var stageErr *joinz.StageError
		if !errors.As(err, &stageErr) {
			t.Fatalf("expected *StageError, got %v", err)
		}
		if stageErr.Kind != joinz.PreProcessorKind || stageErr.Name != "priced" {
			t.Errorf("unexpected stage %s %q", stageErr.Kind, stageErr.Name)
		}
		if !strings.Contains(err.Error(), "not a Product") {
			t.Errorf("expected cause in error, got: %v", err)
		}
	})
}

func TestJoinFlows_ConcurrentDerivation(t *testing.T) {
	reg := productRegistry(t)
	base := joinz.New(reg, joinz.Config{Renderer: joinz.InlineName})
	shortcuts := []joinz.Name{"or", "and", "q", "qq", "bracket", "sb", "cb", "receipt"}

	rec, err := joinztesting.NewEventRecorder(reg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var mu sync.Mutex
	outputs := make(map[joinz.Name]string)

	joinztesting.ParallelTest(t, len(shortcuts)*4, func(id int) {
		name := shortcuts[id%len(shortcuts)]
		j := base.MustWith(name)
		input := any([]string{"a", "b"})
		if name == "receipt" {
			input = []Product{{Name: "a", Price: 1}, {Name: "b", Price: 2}}
		}
		out, err := j.Join(input)
		if err != nil {
			t.Errorf("shortcut %s: unexpected error: %v", name, err)
			return
		}
		mu.Lock()
		defer mu.Unlock()
		if prev, ok := outputs[name]; ok && prev != out {
			t.Errorf("shortcut %s: nondeterministic output %q vs %q", name, prev, out)
		}
		outputs[name] = out
	})

	if got, _ := base.Join([]string{"a", "b"}); got != "a & b" {
		t.Errorf("expected base joiner unchanged, got %q", got)
	}

	joinztesting.AssertCounter(t, reg, joinz.JoinsTotal, float64(len(shortcuts)*4+1))
	joinztesting.AssertCounter(t, reg, joinz.JoinFailuresTotal, 0)
	if !rec.WaitForJoins(len(shortcuts)*4+1, time.Second) {
		t.Errorf("expected %d join events, got %d", len(shortcuts)*4+1, len(rec.JoinEvents()))
	}
}

func TestJoinFlows_ContextCancellation(t *testing.T) {
	slow := joinztesting.NewMockPostProcessor(t, "slow").WithDelay(time.Second)
	after := joinztesting.NewMockPostProcessor(t, "after")

	b := joinz.DefaultRegistryBuilder()
	joinz.Must(b.RegisterPostProcessor(slow.Name(), slow.Func()))
	joinz.Must(b.RegisterPostProcessor(after.Name(), after.Func()))
	reg := joinz.MustBuild(b)
	defer reg.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := joinz.New(reg, joinz.Config{Renderer: joinz.InlineName}).
		JoinContext(ctx, []string{"a"}, joinz.Settings{"slow": true, "after": true})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	joinztesting.AssertCalled(t, slow, 1)
	joinztesting.AssertNotCalled(t, after)
}
