package config

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ddbstore "github.com/dwsmith1983/alarmd/internal/store/dynamodb"
	"github.com/dwsmith1983/alarmd/internal/store/memory"
	"github.com/dwsmith1983/alarmd/internal/store/redis"
	"github.com/dwsmith1983/alarmd/pkg/types"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0o644))
	return dir
}

func TestLoad(t *testing.T) {
	dir := writeConfig(t, `store: redis
redis:
  addr: localhost:6379
  keyPrefix: "alarmd-test:"
settings:
  reminderLeadMinutes: 45
  snoozeMinutes: 9
  timeout: ringtone-end
  defaultRingtone: ocean
  timezone: Europe/Paris
scheduler:
  groupName: alarmd
  targetArn: arn:aws:sqs:us-east-1:123456789012:wake
  roleArn: arn:aws:iam::123456789012:role/scheduler
sinks:
  - type: log
  - type: sqs
    queueUrl: https://sqs.us-east-1.amazonaws.com/123456789012/devices.fifo
ringtone:
  durations:
    ocean: 1m15s
  breaker:
    failThreshold: 3
    cooldown: 45s
sweep:
  concurrency: 4
  lockWait: 5s
  interval: 1m
server:
  addr: ":9090"
  allowedOrigins: ["http://localhost:3000"]
`)

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, types.StoreRedis, cfg.Store)
	rc, ok := cfg.Redis.(*redis.Config)
	require.True(t, ok, "Redis config should be *redis.Config")
	assert.Equal(t, "localhost:6379", rc.Addr)
	assert.Equal(t, "alarmd-test:", rc.KeyPrefix)

	assert.Equal(t, 45, cfg.Settings.ReminderLeadMinutes)
	assert.Equal(t, types.DefaultHighNotificationLeadMinutes, cfg.Settings.HighNotificationLeadMinutes)
	assert.Equal(t, 9, cfg.Settings.SnoozeMinutes)
	assert.Equal(t, types.TimeoutAtRingtoneEnd, cfg.Settings.Timeout)
	assert.Equal(t, "Europe/Paris", cfg.Settings.Timezone)
	assert.Len(t, cfg.Sinks, 2)
	assert.Equal(t, "1m15s", cfg.Ringtone.Durations["ocean"])
	assert.Equal(t, 4, cfg.Sweep.Concurrency)
	assert.Equal(t, "1m", cfg.Sweep.Interval)
	require.NotNil(t, cfg.Server)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Server.AllowedOrigins)
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "settings:\n  timeout: never\n"))
	require.NoError(t, err)
	assert.Equal(t, types.StoreMemory, cfg.Store)
	assert.Equal(t, types.TimeoutNever, cfg.Settings.Timeout)
	assert.Equal(t, types.DefaultReminderLeadMinutes, cfg.Settings.ReminderLeadMinutes)
	assert.Equal(t, types.DefaultLabel, cfg.Settings.DefaultLabel)

	b, err := NewBackend(context.Background(), cfg)
	require.NoError(t, err)
	assert.IsType(t, &memory.Backend{}, b)
}

func TestLoad_ExplicitZeroLeads(t *testing.T) {
	cfg, err := Load(writeConfig(t, `settings:
  reminderLeadMinutes: 0
  highNotificationLeadMinutes: 0
`))
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.Settings.ReminderLeadMinutes)
	assert.Equal(t, 0, cfg.Settings.HighNotificationLeadMinutes)
	assert.Equal(t, types.DefaultSnoozeMinutes, cfg.Settings.SnoozeMinutes)
	assert.Equal(t, types.TimeoutPolicy(types.DefaultTimeoutMinutes), cfg.Settings.Timeout)
}

func TestLoad_DynamoDB(t *testing.T) {
	cfg, err := Load(writeConfig(t, `store: dynamodb
dynamodb:
  tableName: alarmd
  region: us-east-1
  createTable: true
`))
	require.NoError(t, err)
	dc, ok := cfg.DynamoDB.(*ddbstore.Config)
	require.True(t, ok)
	assert.Equal(t, "alarmd", dc.TableName)
	assert.True(t, dc.CreateTable)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent")
	assert.Error(t, err)
}

func TestLoadInvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "store: [yaml"))
	assert.Error(t, err)
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"unknown store", "store: postgres\n", `unknown store "postgres"`},
		{"redis without section", "store: redis\n", "redis config is required"},
		{"redis without addr", "store: redis\nredis:\n  db: 2\n", "redis.addr is required"},
		{"dynamodb without table", "store: dynamodb\ndynamodb:\n  region: us-east-1\n", "dynamodb.tableName is required"},
		{"zero timeout", "settings:\n  timeout: 0\n", "invalid timeout policy"},
		{"negative lead", "settings:\n  reminderLeadMinutes: -5\n", "reminderLeadMinutes"},
		{"bad timezone", "settings:\n  timezone: Mars/Olympus\n", "Mars/Olympus"},
		{"sqs without url", "sinks:\n  - type: sqs\n", "requires queueUrl"},
		{"unknown sink", "sinks:\n  - type: pager\n", `unknown sink type "pager"`},
		{"bad ringtone duration", "ringtone:\n  durations:\n    bell: forever\n", "ringtone"},
		{"bad breaker cooldown", "ringtone:\n  breaker:\n    cooldown: soon\n", "cooldown"},
		{"scheduler without role", "scheduler:\n  targetArn: arn\n", "roleArn"},
		{"bad lock wait", "sweep:\n  lockWait: -1s\n", "lockWait"},
		{"bad interval", "sweep:\n  interval: often\n", "sweep.interval"},
		{"negative body limit", "server:\n  maxBodyBytes: -1\n", "maxBodyBytes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseDuration(t *testing.T) {
	d, err := ParseDuration("", 3*time.Second)
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, d)

	d, err = ParseDuration("250ms", 0)
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, d)
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLogLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLogLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLogLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLogLevel(""))
}
