// action Lambda applies user and device triggers to alarm instances:
// scheduling, dismiss, snooze, ringtone end and instance queries.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	awslambda "github.com/aws/aws-lambda-go/lambda"

	"github.com/dwsmith1983/alarmd/internal/engine"
	intlambda "github.com/dwsmith1983/alarmd/internal/lambda"
	"github.com/dwsmith1983/alarmd/internal/store"
	"github.com/dwsmith1983/alarmd/pkg/types"
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

func handler(ctx context.Context, req intlambda.ActionRequest) (intlambda.ActionResponse, error) {
	d, err := getDeps()
	if err != nil {
		return intlambda.ActionResponse{}, err
	}
	return handleAction(ctx, d, req)
}

// handleAction dispatches to action-specific handlers. Invalid triggers are
// reported as skips; only infrastructure failures are returned as errors so
// the caller retries them.
func handleAction(ctx context.Context, d *intlambda.Deps, req intlambda.ActionRequest) (intlambda.ActionResponse, error) {
	switch req.Action {
	case intlambda.ActionSchedule:
		return schedule(ctx, d, req)
	case intlambda.ActionDismiss:
		return trigger(ctx, d, req, d.Engine.Dismiss)
	case intlambda.ActionSnooze:
		return trigger(ctx, d, req, d.Engine.Snooze)
	case intlambda.ActionRingtoneEnded:
		return trigger(ctx, d, req, d.Engine.RingtoneEnded)
	case intlambda.ActionDeleteOthers:
		return deleteOthers(ctx, d, req)
	case intlambda.ActionGet:
		return get(ctx, d, req)
	case intlambda.ActionNextUpcoming:
		return nextUpcoming(ctx, d, req)
	default:
		return errorResponse(req.Action, fmt.Sprintf("unknown action: %s", req.Action)), nil
	}
}

func schedule(ctx context.Context, d *intlambda.Deps, req intlambda.ActionRequest) (intlambda.ActionResponse, error) {
	if req.Instance == nil {
		return errorResponse(req.Action, "instance is required"), nil
	}
	inst := req.Instance.Clone()
	inst.ID = types.InvalidID
	if err := d.Engine.Schedule(ctx, inst); err != nil {
		return outcome(d, req, err)
	}
	return intlambda.ActionResponse{Action: req.Action, Result: intlambda.ResultOK, Instance: inst}, nil
}

func trigger(ctx context.Context, d *intlambda.Deps, req intlambda.ActionRequest, fn func(context.Context, int64) error) (intlambda.ActionResponse, error) {
	if err := fn(ctx, req.InstanceID); err != nil {
		return outcome(d, req, err)
	}
	inst, err := d.Repo.GetByID(ctx, req.InstanceID)
	if err != nil {
		return outcome(d, req, err)
	}
	return intlambda.ActionResponse{Action: req.Action, Result: intlambda.ResultOK, Instance: inst}, nil
}

func deleteOthers(ctx context.Context, d *intlambda.Deps, req intlambda.ActionRequest) (intlambda.ActionResponse, error) {
	if err := d.Repo.DeleteOtherInstances(ctx, req.AlarmID, req.KeepInstanceID); err != nil {
		return outcome(d, req, err)
	}
	return intlambda.ActionResponse{Action: req.Action, Result: intlambda.ResultOK}, nil
}

func get(ctx context.Context, d *intlambda.Deps, req intlambda.ActionRequest) (intlambda.ActionResponse, error) {
	inst, err := d.Repo.GetByID(ctx, req.InstanceID)
	if err != nil {
		return outcome(d, req, err)
	}
	return intlambda.ActionResponse{Action: req.Action, Result: intlambda.ResultOK, Instance: inst}, nil
}

func nextUpcoming(ctx context.Context, d *intlambda.Deps, req intlambda.ActionRequest) (intlambda.ActionResponse, error) {
	inst, err := d.Repo.GetNextUpcomingByAlarmID(ctx, req.AlarmID)
	if err != nil {
		return outcome(d, req, err)
	}
	return intlambda.ActionResponse{Action: req.Action, Result: intlambda.ResultOK, Instance: inst}, nil
}

// outcome maps an engine or repository error to a response.
func outcome(d *intlambda.Deps, req intlambda.ActionRequest, err error) (intlambda.ActionResponse, error) {
	switch {
	case errors.Is(err, engine.ErrInvalidTransition), errors.Is(err, store.ErrNotFound):
		return intlambda.ActionResponse{Action: req.Action, Result: intlambda.ResultSkip, Message: err.Error()}, nil
	case errors.Is(err, types.ErrInvalidInstance):
		return errorResponse(req.Action, err.Error()), nil
	default:
		d.Logger.Error("action failed", "action", req.Action, "instanceID", req.InstanceID, "error", err)
		return intlambda.ActionResponse{}, err
	}
}

func errorResponse(action, msg string) intlambda.ActionResponse {
	return intlambda.ActionResponse{Action: action, Result: intlambda.ResultError, Message: msg}
}

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, nil)))
	awslambda.Start(handler)
}
