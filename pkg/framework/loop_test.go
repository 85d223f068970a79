package framework

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoopPriorityOrder(t *testing.T) {
	var order []int
	record := func(n int) Controller {
		return ControlFunc(func(cc ControlContext) error {
			order = append(order, n*10+cc.PriorityLevel())
			return nil
		})
	}
	loop := NewLoop().
		AddController(PrLvPublish, record(3)).
		AddController(PrLvSense, record(1)).
		AddController(PrLvControl, record(2))
	loop.RunIteration(context.Background())
	require.Equal(t, []int{10 + PrLvSense, 20 + PrLvControl, 30 + PrLvPublish}, order)
	require.Equal(t, uint64(1), loop.Iterations())
}

func TestLoopRunsUntilCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	iterations := make(chan uint64, 16)
	loop := NewLoop()
	loop.Interval = time.Millisecond
	loop.AddController(PrLvControl, ControlFunc(func(cc ControlContext) error {
		select {
		case iterations <- cc.Iteration():
		default:
		}
		return errors.New("logged only")
	}))
	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()
	require.Equal(t, uint64(1), <-iterations)
	require.Equal(t, uint64(2), <-iterations)
	cancel()
	select {
	case err := <-done:
		require.Equal(t, context.Canceled, err)
	case <-time.After(time.Second):
		t.Fatal("loop didn't stop")
	}
}

func TestLoopTriggerNext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ran := make(chan struct{}, 1)
	loop := NewLoop()
	loop.Interval = time.Hour
	loop.AddController(PrLvControl, ControlFunc(func(ControlContext) error {
		ran <- struct{}{}
		return nil
	}))
	go loop.Run(ctx)
	loop.TriggerNext()
	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("iteration not triggered")
	}
}

func TestRunnerAggregatesErrors(t *testing.T) {
	errA, errB := errors.New("a"), errors.New("b")
	err := NewRunner().Go(
		RunFunc(func(context.Context) error { return errA }),
		NamedRun("b", RunFunc(func(context.Context) error { return errB })),
		RunFunc(func(context.Context) error { return context.Canceled }),
	).Wait()
	require.Error(t, err)
	require.True(t, errors.Is(err, errA))
	require.True(t, errors.Is(err, errB))
}

func TestLoopStopsOnRunnableFailure(t *testing.T) {
	failure := errors.New("broker unreachable")
	stopped := make(chan struct{})
	loop := NewLoop()
	loop.Interval = time.Millisecond
	loop.AddRunnable(
		NamedRun("failing", RunFunc(func(context.Context) error { return failure })),
		RunFunc(func(ctx context.Context) error {
			<-ctx.Done()
			close(stopped)
			return ctx.Err()
		}),
	)
	done := make(chan error, 1)
	go func() { done <- loop.Run(context.Background()) }()
	select {
	case err := <-done:
		require.Equal(t, failure, err)
	case <-time.After(time.Second):
		t.Fatal("loop didn't stop")
	}
	<-stopped
}

func TestAggregatedError(t *testing.T) {
	var errs AggregatedError
	require.NoError(t, errs.Add(nil).Aggregate())
	single := errors.New("single")
	require.Equal(t, single, errs.Add(single).Aggregate())
	errs.Add(errors.New("other"))
	err := errs.Aggregate()
	require.Equal(t, &errs, err)
	require.Contains(t, err.Error(), "single")
	require.Contains(t, err.Error(), "other")
}

func TestRunWithContextCloser(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	stop := make(chan struct{})
	closer := closerFunc(func() error { close(stop); return nil })
	done := make(chan error, 1)
	go func() {
		done <- RunWithContextCloser(ctx, closer, func() error {
			<-stop
			return nil
		})
	}()
	cancel()
	require.Equal(t, context.Canceled, <-done)
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }
