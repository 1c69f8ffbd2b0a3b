package unit_test

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonwraymond/unitops/cache"
	"github.com/jonwraymond/unitops/outcome"
	"github.com/jonwraymond/unitops/unit"
)

func Example() {
	decl := unit.Declaration{
		ID: "greet",
		Inputs: map[string]unit.InputSpec{
			"name": {Example: "world", Required: true, Description: "who to greet"},
		},
		Exits: map[string]unit.ExitSpec{
			outcome.Success: {Description: "the greeting"},
		},
		Fn: func(ctx context.Context, in unit.Inputs, sc unit.Scope) outcome.Outcome {
			return outcome.Successful(fmt.Sprintf("hello, %s", in["name"]))
		},
	}

	inst, err := unit.Build(decl)
	if err != nil {
		fmt.Println("build failed:", err)
		return
	}

	inst.SetInputs(unit.Inputs{"name": "gopher"}).
		SetOutcomes(outcome.Handlers{
			outcome.Success: func(o outcome.Outcome) { fmt.Println(o.Value()) },
		})

	if err := inst.Execute(context.Background()); err != nil {
		fmt.Println("execute failed:", err)
	}
	// Output:
	// hello, gopher
}

func ExampleInstance_Execute_cached() {
	runs := 0
	decl := unit.Declaration{
		ID: "lookup",
		Fn: func(ctx context.Context, in unit.Inputs, sc unit.Scope) outcome.Outcome {
			runs++
			return outcome.Successful(42)
		},
	}

	inst, _ := unit.Build(decl)
	inst.SetInputs(unit.Inputs{"id": 7}).
		SetOutcomes(outcome.Handlers{
			outcome.Success: func(o outcome.Outcome) { fmt.Println("result:", o.Value()) },
		}).
		SetCachePolicy(cache.Policy{Store: cache.NewMemoryStore(), TTL: time.Hour})

	ctx := context.Background()
	_ = inst.Execute(ctx)
	_ = inst.Execute(ctx)

	fmt.Println("runs:", runs)
	// Output:
	// result: 42
	// result: 42
	// runs: 1
}

func ExampleInstance_Execute_handlers() {
	decl := unit.Declaration{
		ID: "probe",
		Fn: func(ctx context.Context, in unit.Inputs, sc unit.Scope) outcome.Outcome {
			return outcome.Named("degraded", "partial data")
		},
	}

	inst, _ := unit.Build(decl)
	inst.SetOutcomes(outcome.Single(func(o outcome.Outcome) {
		fmt.Println("unhandled:", o.Name())
	}))

	// The dedicated handler applies to this call only
	_ = inst.Execute(context.Background(), unit.WithHandlers(outcome.Handlers{
		"degraded": func(o outcome.Outcome) { fmt.Println("degraded:", o.Value()) },
	}))
	_ = inst.Execute(context.Background())
	// Output:
	// degraded: partial data
	// unhandled: degraded
}

func ExampleBuild_withChecker() {
	decl := unit.Declaration{
		ID: "strict",
		Inputs: map[string]unit.InputSpec{
			"token": {Required: true, Description: "caller credential"},
		},
		Fn: func(ctx context.Context, in unit.Inputs, sc unit.Scope) outcome.Outcome {
			return outcome.Successful("let in")
		},
	}

	checker := func(spec unit.InputSpec, value any) (any, bool) {
		if spec.Required && value == nil {
			return nil, false
		}
		return value, true
	}

	inst, _ := unit.Build(decl, unit.WithChecker(checker))
	inst.SetOutcomes(outcome.Handlers{
		outcome.Error: func(o outcome.Outcome) {
			fmt.Println("rejected:", errors.Is(o.Err(), unit.ErrInputRejected))
		},
	})

	_ = inst.Execute(context.Background())
	// Output:
	// rejected: true
}

func ExampleInstance_SetScope() {
	decl := unit.Declaration{
		ID: "fetch",
		Fn: func(ctx context.Context, in unit.Inputs, sc unit.Scope) outcome.Outcome {
			endpoint := sc["endpoint"].(string)
			return outcome.Successful(endpoint + "/" + in["path"].(string))
		},
	}

	inst, _ := unit.Build(decl)
	inst.SetInputs(unit.Inputs{"path": "users"}).
		SetScope(unit.Scope{"endpoint": "https://api.internal"}).
		SetOutcomes(outcome.Handlers{
			outcome.Success: func(o outcome.Outcome) { fmt.Println(o.Value()) },
		})

	_ = inst.Execute(context.Background())
	// Output:
	// https://api.internal/users
}
