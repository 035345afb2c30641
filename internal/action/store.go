package action

import (
	"context"
	"fmt"

	"github.com/joseignaciorc/great-expectations/internal/config"
)

// storeValidationResult persists the suite validation result.
type storeValidationResult struct {
	store ResultStore
}

func newStoreValidationResult(_ map[string]any, deps Deps) (Action, error) {
	if deps.Store == nil {
		return nil, fmt.Errorf("%s requires a store", config.ActionStoreValidationResult)
	}
	return &storeValidationResult{store: deps.Store}, nil
}

func (a *storeValidationResult) Run(ctx context.Context, in *Input) (Result, error) {
	if err := a.store.PutValidationResult(ctx, in.Identifier, in.Result); err != nil {
		return nil, err
	}
	return Result{"class": config.ActionStoreValidationResult}, nil
}

// storeEvaluationParameters persists the resolved evaluation parameters
// together with the metrics the validation observed.
type storeEvaluationParameters struct {
	store ResultStore
}

func newStoreEvaluationParameters(_ map[string]any, deps Deps) (Action, error) {
	if deps.Store == nil {
		return nil, fmt.Errorf("%s requires a store", config.ActionStoreEvaluationParams)
	}
	return &storeEvaluationParameters{store: deps.Store}, nil
}

func (a *storeEvaluationParameters) Run(ctx context.Context, in *Input) (Result, error) {
	params := in.EvaluationParameters
	if params == nil {
		params = in.Result.EvaluationParameters
	}
	err := a.store.PutEvaluationParameters(ctx,
		in.Identifier.RunID,
		in.Identifier.ExpectationSuite.Name,
		params,
		in.Result.ObservedMetrics(),
	)
	if err != nil {
		return nil, err
	}
	return Result{"class": config.ActionStoreEvaluationParams}, nil
}
