// wake Lambda advances alarm instances whose scheduled wake has arrived.
// Invoked by an SQS queue that EventBridge Scheduler delivers wakes to.
package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"sync"

	"github.com/aws/aws-lambda-go/events"
	awslambda "github.com/aws/aws-lambda-go/lambda"

	"github.com/dwsmith1983/alarmd/internal/engine"
	intlambda "github.com/dwsmith1983/alarmd/internal/lambda"
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

func handler(ctx context.Context, event intlambda.WakeEvent) (intlambda.WakeResponse, error) {
	d, err := getDeps()
	if err != nil {
		return intlambda.WakeResponse{}, err
	}
	return handleWake(ctx, d, event), nil
}

// handleWake advances each instance named in the batch. Messages that fail
// for a retryable reason are reported back for redelivery; stale wakes and
// unknown instances are dropped.
func handleWake(ctx context.Context, d *intlambda.Deps, event intlambda.WakeEvent) intlambda.WakeResponse {
	var resp intlambda.WakeResponse
	for _, record := range event.Records {
		if err := processRecord(ctx, d, record); err != nil {
			d.Logger.Error("wake failed", "messageID", record.MessageId, "error", err)
			resp.BatchItemFailures = append(resp.BatchItemFailures, events.SQSBatchItemFailure{
				ItemIdentifier: record.MessageId,
			})
		}
	}
	return resp
}

func processRecord(ctx context.Context, d *intlambda.Deps, record events.SQSMessage) error {
	var msg types.WakeMessage
	if err := json.Unmarshal([]byte(record.Body), &msg); err != nil {
		d.Logger.Warn("dropping malformed wake message", "messageID", record.MessageId, "error", err)
		return nil
	}

	err := d.Engine.Advance(ctx, msg.InstanceID)
	if err == nil {
		return nil
	}
	if !engine.IsRetryable(err) {
		d.Logger.Info("wake ignored", "instanceID", msg.InstanceID, "reason", err)
		return nil
	}
	return err
}

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, nil)))
	awslambda.Start(handler)
}
