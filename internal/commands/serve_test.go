package commands

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dwsmith1983/alarmd/internal/config"
	"github.com/dwsmith1983/alarmd/pkg/types"
)

func execute(t *testing.T, ctx context.Context, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd("1.2.3")
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	return out.String(), err
}

func TestRootCmd_Version(t *testing.T) {
	out, err := execute(t, context.Background(), "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "1.2.3")
}

func TestRootCmd_PersistentFlags(t *testing.T) {
	root := NewRootCmd("dev")
	serve, _, err := root.Find([]string{"serve"})
	require.NoError(t, err)

	require.NoError(t, root.ParseFlags([]string{"--config", "/etc/alarmd", "--log-level", "debug"}))
	assert.Equal(t, "/etc/alarmd", root.PersistentFlags().Lookup("config").Value.String())
	assert.Equal(t, "debug", root.PersistentFlags().Lookup("log-level").Value.String())
	assert.NotNil(t, serve.InheritedFlags().Lookup("config"))
	assert.NotNil(t, serve.Flags().Lookup("addr"))
}

func TestRootCmd_UnknownFlag(t *testing.T) {
	_, err := execute(t, context.Background(), "serve", "--bogus")
	assert.Error(t, err)
}

func TestServe_MemoryStoreStartsAndStops(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.FileName), []byte(`store: memory
sweep:
  interval: 50ms
`), 0o644))

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	_, err := execute(t, ctx, "serve", "--config", dir, "--addr", "127.0.0.1:0", "--log-level", "error")
	assert.NoError(t, err)
}

func TestServe_MissingConfig(t *testing.T) {
	_, err := execute(t, context.Background(), "serve", "--config", t.TempDir())
	assert.ErrorContains(t, err, "reading config")
}

func TestListenAddr(t *testing.T) {
	cfg := &types.ProjectConfig{}
	assert.Equal(t, defaultAddr, listenAddr(cfg, ""))

	cfg.Server = &types.ServerConfig{Addr: ":7000"}
	assert.Equal(t, ":7000", listenAddr(cfg, ""))
	assert.Equal(t, ":7001", listenAddr(cfg, ":7001"))
}

func TestSweepOptions(t *testing.T) {
	cfg := &types.ProjectConfig{Sweep: &types.SweepConfig{Concurrency: 3, LockWait: "2s", Interval: "30s"}}
	opts, interval, err := sweepOptions(cfg)
	require.NoError(t, err)
	assert.Equal(t, 3, opts.Concurrency)
	assert.Equal(t, 2*time.Second, opts.LockWait)
	assert.Equal(t, 30*time.Second, interval)

	_, interval, err = sweepOptions(&types.ProjectConfig{})
	require.NoError(t, err)
	assert.Equal(t, defaultSweepInterval, interval)

	_, _, err = sweepOptions(&types.ProjectConfig{Sweep: &types.SweepConfig{Interval: "soon"}})
	assert.Error(t, err)
}

func TestServerOptions(t *testing.T) {
	cfg := &types.ProjectConfig{Server: &types.ServerConfig{APIKey: "k", MaxBodyBytes: 512, AllowedOrigins: []string{"https://a"}}}
	o := serverOptions(cfg, nil)
	assert.Equal(t, "k", o.APIKey)
	assert.Equal(t, int64(512), o.MaxBodyBytes)
	assert.Equal(t, []string{"https://a"}, o.AllowedOrigins)
}
