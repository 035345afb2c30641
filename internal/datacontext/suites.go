package datacontext

import (
	"context"

	"github.com/joseignaciorc/great-expectations/internal/expectation"
)

// CreateExpectationSuite registers an empty suite. Fails with
// store.ErrAlreadyExists when the name is taken.
func (c *Context) CreateExpectationSuite(ctx context.Context, name string) (*expectation.Suite, error) {
	suite := expectation.NewSuite(name)
	if err := suite.Validate(); err != nil {
		return nil, err
	}
	if err := c.store.InsertSuite(ctx, suite); err != nil {
		return nil, err
	}
	c.logger.Info("expectation suite created", "suite", name)
	return suite, nil
}

// AddExpectationSuite registers suite, replacing a suite of the same name.
func (c *Context) AddExpectationSuite(ctx context.Context, suite *expectation.Suite) error {
	if err := suite.Validate(); err != nil {
		return err
	}
	if err := c.store.PutSuite(ctx, suite); err != nil {
		return err
	}
	c.logger.Info("expectation suite saved", "suite", suite.Name, "expectations", len(suite.Expectations))
	return nil
}

// GetExpectationSuite loads a registered suite.
func (c *Context) GetExpectationSuite(ctx context.Context, name string) (*expectation.Suite, error) {
	return c.store.GetSuite(ctx, name)
}

// ListExpectationSuites returns suite names in registration order.
func (c *Context) ListExpectationSuites(ctx context.Context) ([]string, error) {
	return c.store.ListSuiteNames(ctx)
}
