package runner

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Group runs named tasks under one context; the first failure cancels the rest.
type Group struct {
	eg  *errgroup.Group
	ctx context.Context
}

func New(ctx context.Context) *Group {
	eg, gctx := errgroup.WithContext(ctx)
	return &Group{eg: eg, ctx: gctx}
}

// Go starts fn with the group context, which is cancelled when any task
// fails or the parent is done.
func (g *Group) Go(name string, fn func(ctx context.Context) error) {
	g.eg.Go(func() error {
		if err := fn(g.ctx); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		return nil
	})
}

func (g *Group) Wait() error { return g.eg.Wait() }
