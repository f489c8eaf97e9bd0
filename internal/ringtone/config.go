package ringtone

import (
	"context"
	"fmt"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/lambda"

	"github.com/dwsmith1983/alarmd/pkg/types"
)

// FromConfig builds the lookup described by cfg: configured durations
// first, then the probe function behind a circuit breaker and a cache. A
// nil client is created from the default AWS config when a probe is set.
// A nil cfg yields a nil lookup.
func FromConfig(ctx context.Context, cfg *types.RingtoneConfig, client LambdaAPI) (DurationLookup, error) {
	if cfg == nil {
		return nil, nil
	}
	static, err := NewStaticLookup(cfg.Durations)
	if err != nil {
		return nil, err
	}
	if cfg.ProbeFunction == "" {
		return static, nil
	}

	if client == nil {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("loading AWS config: %w", err)
		}
		client = lambda.NewFromConfig(awsCfg)
	}
	probe, err := NewLambdaLookup(client, cfg.ProbeFunction)
	if err != nil {
		return nil, err
	}

	var bc BreakerConfig
	if cfg.Breaker != nil {
		bc.FailThreshold = cfg.Breaker.FailThreshold
		if cfg.Breaker.Cooldown != "" {
			d, err := time.ParseDuration(cfg.Breaker.Cooldown)
			if err != nil {
				return nil, fmt.Errorf("breaker cooldown: %w", err)
			}
			bc.Cooldown = d
		}
	}
	return Chain{static, NewCachedLookup(NewBreakerLookup(cfg.ProbeFunction, probe, bc))}, nil
}
