package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justyntemme/vst3host/pkg/render"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := NewRootCommand(&out).Execute(args)
	return out.String(), err
}

func TestNewRootCommand(t *testing.T) {
	root := NewRootCommand(io.Discard)
	for _, name := range []string{"run", "render", "serve", "info", "version"} {
		assert.Contains(t, root.Subcommands, name)
	}
	assert.Len(t, root.Subcommands, 5)
}

func TestUsage(t *testing.T) {
	out, err := execute(t)
	require.NoError(t, err)
	assert.Contains(t, out, "Usage: vst3host")
	assert.Contains(t, out, "render")

	_, err = execute(t, "frobnicate")
	assert.EqualError(t, err, "unknown command: frobnicate")
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "vst3host dev")
}

func TestInfo(t *testing.T) {
	out, err := execute(t, "info", "-env", "", "-json", "-params", "builtin:gain")
	require.NoError(t, err)

	var m moduleJSON
	require.NoError(t, json.Unmarshal([]byte(out), &m))
	assert.Equal(t, "vst3host", m.Vendor)
	require.Len(t, m.Classes, 1)
	assert.Equal(t, "Gain", m.Classes[0].Name)
	require.Len(t, m.Parameters, 2)
	assert.Equal(t, "dB", m.Parameters[0].Units)

	out, err = execute(t, "info", "-env", "", "builtin:suite")
	require.NoError(t, err)
	assert.Contains(t, out, "Synth")
	assert.Contains(t, out, "audio")

	_, err = execute(t, "info", "-env", "")
	assert.Error(t, err)
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "ok.lua")
	require.NoError(t, os.WriteFile(script, []byte(`
		local h = vst3.loadPlugin("builtin:gain")
		vst3.initialize(h)
		vst3.process(h, nil, 64)
	`), 0o644))
	_, err := execute(t, "run", "-env", "", "-log-level", "error", script)
	assert.NoError(t, err)

	bad := filepath.Join(dir, "bad.lua")
	require.NoError(t, os.WriteFile(bad, []byte(`vst3.getParameter(7, 0)`), 0o644))
	_, err = execute(t, "run", "-env", "", "-log-level", "error", bad)
	assert.ErrorContains(t, err, "(not_found)")
}

func TestRender(t *testing.T) {
	dir := t.TempDir()
	job := filepath.Join(dir, "job.yaml")
	require.NoError(t, os.WriteFile(job, []byte(`
output: out.wav
duration: 10ms
plugins:
  - path: builtin:synth
`), 0o644))

	override := filepath.Join(dir, "other.wav")
	out, err := execute(t, "render", "-env", "", "-log-level", "error", "-o", override, job)
	require.NoError(t, err)
	assert.Contains(t, out, "480 frames, 2 channels")

	channels, rate, err := render.ReadWAV(override)
	require.NoError(t, err)
	assert.Equal(t, 48000, rate)
	assert.Len(t, channels[0], 480)
}

func freeAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())
	return addr
}

func TestServe(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "serve.lua")
	require.NoError(t, os.WriteFile(script, []byte(`
		local h = vst3.loadPlugin("builtin:delay")
		vst3.initialize(h)
	`), 0o644))

	a, err := newApp(&globalFlags{logLevel: "error"}, false)
	require.NoError(t, err)
	defer a.close()

	addr := freeAddr(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serve(ctx, a, addr, script, false) }()

	url := fmt.Sprintf("http://%s/instances/1", addr)
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	resp, err := http.Get(fmt.Sprintf("http://%s/metrics", addr))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Contains(t, string(body), "vst3host_instances")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not stop")
	}
}
