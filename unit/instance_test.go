package unit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonwraymond/unitops/cache"
	"github.com/jonwraymond/unitops/observe"
	"github.com/jonwraymond/unitops/outcome"
)

func passDecl(id string) Declaration {
	return Declaration{
		ID: id,
		Inputs: map[string]InputSpec{
			"q": {Example: "hello", Description: "query string"},
		},
		Exits: map[string]ExitSpec{
			outcome.Success: {Description: "the echoed value"},
		},
		Fn: func(ctx context.Context, in Inputs, sc Scope) outcome.Outcome {
			return outcome.Successful(in["q"])
		},
	}
}

func buildInstance(t *testing.T, decl Declaration, opts ...Option) *Instance {
	t.Helper()
	inst, err := Build(decl, opts...)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return inst
}

func TestBuild_RequiresImplementation(t *testing.T) {
	_, err := Build(Declaration{ID: "hollow"})
	if !errors.Is(err, ErrInvalidDeclaration) {
		t.Errorf("Build() error = %v, want ErrInvalidDeclaration", err)
	}
}

func TestBuild_DefaultsApplied(t *testing.T) {
	inst := buildInstance(t, passDecl("defaults"))

	if inst.keyer == nil {
		t.Error("keyer not defaulted")
	}
	if inst.clock == nil {
		t.Error("clock not defaulted")
	}
	if inst.logger == nil {
		t.Error("logger not defaulted")
	}
	if inst.instr == nil {
		t.Error("instrumentation not defaulted")
	}
}

func TestBuild_LoggerDefaultsFromInstrumentation(t *testing.T) {
	lg := observe.NewLoggerWithWriter("warn", &syncBuffer{})
	instr := observe.NewInstrumentation(nil, nil, lg)

	inst := buildInstance(t, passDecl("wired"), WithInstrumentation(instr))
	if inst.logger != lg {
		t.Error("logger not taken from the configured instrumentation")
	}
}

func TestBuild_ExplicitLoggerWins(t *testing.T) {
	lg := observe.NewLoggerWithWriter("warn", &syncBuffer{})
	instr := observe.NewInstrumentation(nil, nil, observe.NewLoggerWithWriter("warn", &syncBuffer{}))

	inst := buildInstance(t, passDecl("wired"), WithInstrumentation(instr), WithLogger(lg))
	if inst.logger != lg {
		t.Error("explicit logger overridden by instrumentation logger")
	}
}

func TestSetInputs_LaterKeysWin(t *testing.T) {
	inst := buildInstance(t, passDecl("merge"))

	inst.SetInputs(Inputs{"q": "first", "limit": 10})
	inst.SetInputs(Inputs{"q": "second"})

	if got := inst.inputs["q"]; got != "second" {
		t.Errorf("inputs[q] = %v, want second", got)
	}
	if got := inst.inputs["limit"]; got != 10 {
		t.Errorf("inputs[limit] = %v, want 10", got)
	}
}

func TestSetInputs_DeepCopiesValues(t *testing.T) {
	inst := buildInstance(t, passDecl("isolation"))

	nested := map[string]any{"page": 1}
	list := []any{"a", "b"}
	inst.SetInputs(Inputs{"filter": nested, "tags": list})

	// Mutating the caller's values must not reach instance state
	nested["page"] = 99
	list[0] = "mutated"

	gotFilter := inst.inputs["filter"].(map[string]any)
	if gotFilter["page"] != 1 {
		t.Errorf("filter.page = %v, want 1 after caller mutation", gotFilter["page"])
	}
	gotTags := inst.inputs["tags"].([]any)
	if gotTags[0] != "a" {
		t.Errorf("tags[0] = %v, want a after caller mutation", gotTags[0])
	}
}

func TestSetOutcomes_DropsNilHandlers(t *testing.T) {
	inst := buildInstance(t, passDecl("handlers"))

	inst.SetOutcomes(outcome.Handlers{outcome.Success: func(outcome.Outcome) {}})
	inst.SetOutcomes(outcome.Handlers{
		outcome.Success: nil,
		"partial":       func(outcome.Outcome) {},
	})

	if inst.handlers[outcome.Success] == nil {
		t.Error("nil handler shadowed a live channel")
	}
	if inst.handlers["partial"] == nil {
		t.Error("new channel not merged")
	}
}

func TestSetScope_ShallowMergeReachesFn(t *testing.T) {
	var seen Scope
	decl := passDecl("scoped")
	decl.Fn = func(ctx context.Context, in Inputs, sc Scope) outcome.Outcome {
		seen = sc
		return outcome.Successful(nil)
	}

	inst := buildInstance(t, decl)
	inst.SetScope(Scope{"db": "conn-1", "region": "eu"})
	inst.SetScope(Scope{"region": "us"})
	inst.SetOutcomes(outcome.Single(func(outcome.Outcome) {}))

	if err := inst.Execute(context.Background()); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if seen["db"] != "conn-1" {
		t.Errorf("scope[db] = %v, want conn-1", seen["db"])
	}
	if seen["region"] != "us" {
		t.Errorf("scope[region] = %v, want us (later merge wins)", seen["region"])
	}
}

func TestSetCachePolicy_FieldMerge(t *testing.T) {
	store := cache.NewMemoryStore()
	inst := buildInstance(t, passDecl("policy"))

	inst.SetCachePolicy(cache.Policy{TTL: 30 * time.Minute})
	inst.SetCachePolicy(cache.Policy{Store: store, MaxStale: 3, Coalesce: true})

	p := inst.policy
	if p.TTL != 30*time.Minute {
		t.Errorf("TTL = %v, want 30m preserved across merges", p.TTL)
	}
	if p.Store != store {
		t.Error("store not merged")
	}
	if p.MaxStale != 3 {
		t.Errorf("MaxStale = %d, want 3", p.MaxStale)
	}
	if !p.Coalesce {
		t.Error("Coalesce not merged")
	}
}

func TestSet_Chaining(t *testing.T) {
	inst := buildInstance(t, passDecl("chain"))

	got := inst.
		SetInputs(Inputs{"q": "x"}).
		SetScope(Scope{"k": "v"}).
		SetOutcomes(outcome.Single(func(outcome.Outcome) {})).
		SetCachePolicy(cache.Policy{TTL: time.Hour})

	if got != inst {
		t.Error("Set methods must return the receiver for chaining")
	}
}
