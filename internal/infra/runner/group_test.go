package runner

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestGroupCancelsOnFailure(t *testing.T) {
	g := New(context.Background())
	boom := errors.New("boom")
	g.Go("failing", func(ctx context.Context) error { return boom })
	g.Go("waiting", func(ctx context.Context) error {
		<-ctx.Done()
		return nil
	})
	err := g.Wait()
	if !errors.Is(err, boom) || !strings.HasPrefix(err.Error(), "failing:") {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestGroupCleanExit(t *testing.T) {
	g := New(context.Background())
	g.Go("noop", func(context.Context) error { return nil })
	if err := g.Wait(); err != nil {
		t.Fatalf("Wait: %v", err)
	}
}
