package manifest_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sequor-org/sequor/internal/manifest"
)

func writeManifest(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "suite.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDecodesTestsAndDurations(t *testing.T) {
	path := writeManifest(t, `
suite: smoke
baseurl: http://api.internal
tests:
  - name: health
    groups: [infra]
    request:
      path: /healthz
    expect:
      status: 200
  - name: user-visible
    dependson: [health]
    runsaftergroups: [infra]
    request:
      method: post
      path: /users
      body: '{"name":"ada"}'
    expect:
      status: 201
      assert:
        - path: id
          exists: true
    eventually:
      attempts: 5
      interval: 250ms
      factor: 1.5
`)

	def, err := manifest.Load(t.Context(), path)
	require.NoError(t, err)
	require.Equal(t, "smoke", def.Suite)
	require.Equal(t, "http://api.internal", def.BaseURL)
	require.Len(t, def.Tests, 2)

	require.Equal(t, "health", def.Tests[0].Name)
	require.Equal(t, []string{"infra"}, def.Tests[0].Groups)
	require.Nil(t, def.Tests[0].Eventually)

	td := def.Tests[1]
	require.Equal(t, []string{"health"}, td.DependsOn)
	require.Equal(t, []string{"infra"}, td.RunsAfterGroups)
	require.Equal(t, "post", td.Request.Method)
	require.NotNil(t, td.Eventually)
	require.Equal(t, 5, td.Eventually.Attempts)
	require.Equal(t, 250*time.Millisecond, td.Eventually.Interval)
	require.Equal(t, 1.5, td.Eventually.Factor)
}

func TestLoadMergesDefaultsWithoutClobberingOverrides(t *testing.T) {
	path := writeManifest(t, `
suite: defaults
defaults:
  headers:
    Accept: application/json
    X-Env: staging
  eventually:
    attempts: 3
    interval: 10ms
tests:
  - name: plain
    request:
      path: /a
  - name: overrides
    request:
      path: /b
      headers:
        X-Env: prod
    eventually:
      attempts: 7
      interval: 1s
`)

	def, err := manifest.Load(t.Context(), path)
	require.NoError(t, err)

	plain := def.Tests[0]
	require.Equal(t, "application/json", plain.Request.Headers["Accept"])
	require.Equal(t, "staging", plain.Request.Headers["X-Env"])
	require.Equal(t, 3, plain.Eventually.Attempts)
	require.Equal(t, 10*time.Millisecond, plain.Eventually.Interval)

	overrides := def.Tests[1]
	require.Equal(t, "application/json", overrides.Request.Headers["Accept"])
	require.Equal(t, "prod", overrides.Request.Headers["X-Env"])
	require.Equal(t, 7, overrides.Eventually.Attempts)
	require.Equal(t, time.Second, overrides.Eventually.Interval)
}

func TestLoadRejectsEmptyPathAndEmptySuite(t *testing.T) {
	_, err := manifest.Load(t.Context(), "")
	require.ErrorIs(t, err, manifest.ErrPathRequired)

	path := writeManifest(t, "suite: empty\n")
	_, err = manifest.Load(t.Context(), path)
	require.ErrorIs(t, err, manifest.ErrNoTests)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := writeManifest(t, "tests: [unclosed\n")
	_, err := manifest.Load(t.Context(), path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to parse manifest")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := manifest.Load(t.Context(), filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to read manifest")
}
