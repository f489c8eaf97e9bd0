// Package config handles loading and validation of alarmd.yaml project configuration.
package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dwsmith1983/alarmd/internal/ringtone"
	"github.com/dwsmith1983/alarmd/internal/settings"
	"github.com/dwsmith1983/alarmd/internal/store"
	ddbstore "github.com/dwsmith1983/alarmd/internal/store/dynamodb"
	"github.com/dwsmith1983/alarmd/internal/store/memory"
	"github.com/dwsmith1983/alarmd/internal/store/redis"
	"github.com/dwsmith1983/alarmd/pkg/types"
)

// FileName is the project config file looked up by Load.
const FileName = "alarmd.yaml"

// storeConfigs is a helper struct used for a second YAML unmarshal pass
// to decode store-specific config sections into their concrete types.
type storeConfigs struct {
	Redis    *redis.Config    `yaml:"redis,omitempty"`
	DynamoDB *ddbstore.Config `yaml:"dynamodb,omitempty"`
}

// Load reads and parses alarmd.yaml from the given directory.
func Load(dir string) (*types.ProjectConfig, error) {
	data, err := os.ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a config document.
func Parse(data []byte) (*types.ProjectConfig, error) {
	// Settings decode over the defaults so an explicit 0 survives.
	cfg := types.ProjectConfig{Settings: types.DefaultSettings()}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	// Second pass: decode store-specific sections into concrete types.
	var raw storeConfigs
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing store config: %w", err)
	}
	if raw.Redis != nil {
		cfg.Redis = raw.Redis
	}
	if raw.DynamoDB != nil {
		cfg.DynamoDB = raw.DynamoDB
	}

	if cfg.Store == "" {
		cfg.Store = types.StoreMemory
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return &cfg, nil
}

func validate(cfg *types.ProjectConfig) error {
	switch cfg.Store {
	case types.StoreMemory:
	case types.StoreRedis:
		rc, _ := cfg.Redis.(*redis.Config)
		if rc == nil {
			return fmt.Errorf("redis config is required when store is redis")
		}
		if rc.Addr == "" {
			return fmt.Errorf("redis.addr is required")
		}
	case types.StoreDynamoDB:
		dc, _ := cfg.DynamoDB.(*ddbstore.Config)
		if dc == nil {
			return fmt.Errorf("dynamodb config is required when store is dynamodb")
		}
		if dc.TableName == "" {
			return fmt.Errorf("dynamodb.tableName is required")
		}
	default:
		return fmt.Errorf("unknown store %q", cfg.Store)
	}

	if err := settings.Validate(cfg.Settings); err != nil {
		return fmt.Errorf("settings: %w", err)
	}

	for i, s := range cfg.Sinks {
		if err := validateSink(s); err != nil {
			return fmt.Errorf("sinks[%d]: %w", i, err)
		}
	}

	if rc := cfg.Ringtone; rc != nil {
		if _, err := ringtone.NewStaticLookup(rc.Durations); err != nil {
			return fmt.Errorf("ringtone: %w", err)
		}
		if _, err := ParseDuration(breakerCooldown(rc), 0); err != nil {
			return fmt.Errorf("ringtone.breaker.cooldown: %w", err)
		}
	}

	if sc := cfg.Scheduler; sc != nil {
		if sc.TargetARN == "" || sc.RoleARN == "" {
			return fmt.Errorf("scheduler.targetArn and scheduler.roleArn are required")
		}
	}

	if sw := cfg.Sweep; sw != nil {
		if sw.Concurrency < 0 {
			return fmt.Errorf("sweep.concurrency must be >= 0")
		}
		if _, err := ParseDuration(sw.LockWait, 0); err != nil {
			return fmt.Errorf("sweep.lockWait: %w", err)
		}
		if _, err := ParseDuration(sw.Interval, 0); err != nil {
			return fmt.Errorf("sweep.interval: %w", err)
		}
	}

	if srv := cfg.Server; srv != nil && srv.MaxBodyBytes < 0 {
		return fmt.Errorf("server.maxBodyBytes must be >= 0")
	}
	return nil
}

func validateSink(s types.SinkConfig) error {
	switch s.Type {
	case types.SinkLog:
	case types.SinkSQS:
		if s.QueueURL == "" {
			return fmt.Errorf("sqs sink requires queueUrl")
		}
	case types.SinkEventBridge:
		if s.BusName == "" {
			return fmt.Errorf("eventbridge sink requires busName")
		}
	case types.SinkCloudWatchLogs:
		if s.LogGroup == "" {
			return fmt.Errorf("cloudwatchlogs sink requires logGroup")
		}
	default:
		return fmt.Errorf("unknown sink type %q", s.Type)
	}
	return nil
}

func breakerCooldown(rc *types.RingtoneConfig) string {
	if rc.Breaker == nil {
		return ""
	}
	return rc.Breaker.Cooldown
}

// ParseDuration parses s, returning def when s is empty.
func ParseDuration(s string, def time.Duration) (time.Duration, error) {
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("duration %q must not be negative", s)
	}
	return d, nil
}

// NewBackend builds the configured instance store backend. It is not started.
func NewBackend(ctx context.Context, cfg *types.ProjectConfig) (store.Backend, error) {
	switch cfg.Store {
	case types.StoreRedis:
		return redis.New(cfg.Redis.(*redis.Config)), nil
	case types.StoreDynamoDB:
		return ddbstore.New(ctx, cfg.DynamoDB.(*ddbstore.Config))
	case types.StoreMemory, "":
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown store %q", cfg.Store)
	}
}
