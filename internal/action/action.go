package action

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/joseignaciorc/great-expectations/internal/config"
	"github.com/joseignaciorc/great-expectations/internal/expectation"
	"github.com/joseignaciorc/great-expectations/internal/ir"
)

// ErrUnknownAction is returned when no factory is registered for a
// descriptor's class_name.
var ErrUnknownAction = errors.New("unknown action class")

// Result is the outcome of one action. ResultClassKey holds the action
// class and ResultErrorKey the message of a failed action.
type Result map[string]any

// Keys every Result may carry. Data docs site names must not use them.
const (
	ResultClassKey = "class"
	ResultErrorKey = "error"
)

// IsReservedResultKey reports whether name collides with a Result key.
func IsReservedResultKey(name string) bool {
	return name == ResultClassKey || name == ResultErrorKey
}

// Class returns the ResultClassKey entry.
func (r Result) Class() string {
	s, _ := r[ResultClassKey].(string)
	return s
}

// Input is what an action sees of one validation.
type Input struct {
	CheckpointName string
	Identifier     ir.ValidationResultIdentifier
	Result         *expectation.SuiteValidationResult

	// EvaluationParameters are the resolved parameters of the validation.
	EvaluationParameters map[string]any

	// Prior holds the results of actions that already ran for this
	// validation, by action name.
	Prior map[string]Result
}

// Action runs after a validation.
type Action interface {
	Run(ctx context.Context, in *Input) (Result, error)
}

// ResultStore persists what the store actions produce.
type ResultStore interface {
	PutValidationResult(ctx context.Context, id ir.ValidationResultIdentifier, result *expectation.SuiteValidationResult) error
	PutEvaluationParameters(ctx context.Context, runID ir.RunIdentifier, suite string, params, metrics map[string]any) error
}

// Deps are the collaborators actions are built with.
type Deps struct {
	Store ResultStore

	// Sites maps data docs site names to their base directories.
	Sites map[string]string

	HTTPClient *http.Client

	// NewBackOff returns the retry schedule of webhook deliveries.
	NewBackOff func() backoff.BackOff

	// MaxTries bounds webhook delivery attempts.
	MaxTries uint

	Logger *slog.Logger
}

func (d Deps) withDefaults() Deps {
	if d.HTTPClient == nil {
		d.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
	if d.NewBackOff == nil {
		d.NewBackOff = func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 500 * time.Millisecond
			b.MaxInterval = 5 * time.Second
			return b
		}
	}
	if d.MaxTries == 0 {
		d.MaxTries = 3
	}
	if d.Logger == nil {
		d.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return d
}

// Factory builds an action from its descriptor parameters.
type Factory func(params map[string]any, deps Deps) (Action, error)

// Registry maps action class names to factories.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry returns a registry holding the built-in actions.
func NewRegistry() *Registry {
	r := &Registry{factories: make(map[string]Factory)}
	r.Register(config.ActionStoreValidationResult, newStoreValidationResult)
	r.Register(config.ActionStoreEvaluationParams, newStoreEvaluationParameters)
	r.Register(config.ActionUpdateDataDocs, newUpdateDataDocs)
	r.Register(config.ActionSlackNotification, newSlackNotification)
	r.Register(config.ActionNoOp, newNoOp)
	return r
}

// Register adds or replaces the factory of className.
func (r *Registry) Register(className string, f Factory) {
	r.factories[className] = f
}

// Known reports whether className has a factory.
func (r *Registry) Known(className string) bool {
	_, ok := r.factories[className]
	return ok
}

// Classes returns the registered class names, sorted.
func (r *Registry) Classes() []string {
	out := make([]string, 0, len(r.factories))
	for name := range r.factories {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}

// Build constructs the action described by spec.
func (r *Registry) Build(spec config.ActionSpec, deps Deps) (Action, error) {
	cls := spec.ClassName()
	f, ok := r.factories[cls]
	if !ok {
		return nil, fmt.Errorf("action %q: %w %q", spec.Name, ErrUnknownAction, cls)
	}
	a, err := f(spec.Action, deps.withDefaults())
	if err != nil {
		return nil, fmt.Errorf("action %q: %w", spec.Name, err)
	}
	return a, nil
}

// noOp does nothing.
type noOp struct{}

func newNoOp(map[string]any, Deps) (Action, error) { return noOp{}, nil }

func (noOp) Run(context.Context, *Input) (Result, error) {
	return Result{"class": config.ActionNoOp}, nil
}

func stringParam(params map[string]any, name string) (string, error) {
	v, ok := params[name]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%s must be a string, got %T", name, v)
	}
	return s, nil
}

// namesParam reads a parameter written as "all", a name or a list of names.
func namesParam(params map[string]any, name string) (config.NameList, error) {
	switch v := params[name].(type) {
	case nil:
		return nil, nil
	case string:
		return config.NameList{v}, nil
	case []string:
		return config.NameList(v), nil
	case []any:
		out := make(config.NameList, 0, len(v))
		for i, e := range v {
			s, ok := e.(string)
			if !ok {
				return nil, fmt.Errorf("%s[%d] must be a string, got %T", name, i, e)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%s must be a name or a list of names, got %T", name, v)
	}
}
