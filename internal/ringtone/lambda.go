package ringtone

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
)

// LambdaAPI is the subset of the Lambda client used by LambdaLookup.
type LambdaAPI interface {
	Invoke(ctx context.Context, input *lambda.InvokeInput, opts ...func(*lambda.Options)) (*lambda.InvokeOutput, error)
}

type probeRequest struct {
	Ringtone string `json:"ringtone"`
}

type probeResponse struct {
	DurationMs int64  `json:"durationMs"`
	Error      string `json:"error,omitempty"`
}

// LambdaLookup asks a media-probe function for a ringtone's length.
type LambdaLookup struct {
	client   LambdaAPI
	function string
}

// NewLambdaLookup creates a lookup invoking function synchronously.
func NewLambdaLookup(client LambdaAPI, function string) (*LambdaLookup, error) {
	if function == "" {
		return nil, fmt.Errorf("probe function name required")
	}
	return &LambdaLookup{client: client, function: function}, nil
}

// Duration implements DurationLookup.
func (l *LambdaLookup) Duration(ctx context.Context, ref string) (time.Duration, error) {
	payload, err := json.Marshal(probeRequest{Ringtone: ref})
	if err != nil {
		return 0, err
	}

	out, err := l.client.Invoke(ctx, &lambda.InvokeInput{
		FunctionName: aws.String(l.function),
		Payload:      payload,
	})
	if err != nil {
		return 0, fmt.Errorf("invoking %s: %w", l.function, err)
	}
	if out.FunctionError != nil {
		return 0, fmt.Errorf("probe %s failed: %s", l.function, aws.ToString(out.FunctionError))
	}

	var resp probeResponse
	if err := json.Unmarshal(out.Payload, &resp); err != nil {
		return 0, fmt.Errorf("decoding probe response: %w", err)
	}
	if resp.Error != "" || resp.DurationMs <= 0 {
		return 0, fmt.Errorf("ringtone %q: %w", ref, ErrUnknownDuration)
	}
	return time.Duration(resp.DurationMs) * time.Millisecond, nil
}
