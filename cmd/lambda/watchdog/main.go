// watchdog Lambda recovers alarm instances whose wake was lost.
// Invoked by EventBridge on a regular interval (e.g. every 5 minutes).
package main

import (
	"context"
	"log/slog"
	"os"
	"sync"

	awslambda "github.com/aws/aws-lambda-go/lambda"

	intlambda "github.com/dwsmith1983/alarmd/internal/lambda"
	"github.com/dwsmith1983/alarmd/internal/watchdog"
)

var (
	deps     *intlambda.Deps
	depsOnce sync.Once
	depsErr  error
)

func getDeps() (*intlambda.Deps, error) {
	depsOnce.Do(func() {
		deps, depsErr = intlambda.Init(context.Background())
	})
	return deps, depsErr
}

func handler(ctx context.Context) (intlambda.SweepResponse, error) {
	d, err := getDeps()
	if err != nil {
		return intlambda.SweepResponse{}, err
	}
	resp := sweep(ctx, d)
	if err := d.Shutdown(ctx); err != nil {
		d.Logger.Warn("telemetry flush failed", "error", err)
	}
	return resp, nil
}

func sweep(ctx context.Context, d *intlambda.Deps) intlambda.SweepResponse {
	res := watchdog.Sweep(ctx, watchdog.CheckOptions{
		Store:       d.Repo,
		Engine:      d.Engine,
		Logger:      d.Logger,
		Concurrency: d.SweepConcurrency,
	})
	return intlambda.SweepResponse{
		Scanned:  res.Scanned,
		Advanced: res.Advanced,
		Idle:     res.Idle,
		Failed:   res.Failed,
	}
}

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, nil)))
	awslambda.Start(handler)
}
