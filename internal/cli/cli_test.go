package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/mentions/pkg/mentions"
	"github.com/mesh-intelligence/mentions/pkg/types"
)

// env is an isolated config and data directory pair.
type env struct {
	configDir string
	dataDir   string
}

func newEnv(t *testing.T) env {
	t.Helper()
	for _, key := range append([]string{"data_dir"}, envKeys...) {
		t.Setenv("MENTIONS_"+strings.ToUpper(key), "")
	}
	root := t.TempDir()
	return env{configDir: filepath.Join(root, "config"), dataDir: filepath.Join(root, "data")}
}

// run executes the CLI with the env's directories and returns stdout,
// stderr and the exit code.
func (e env) run(t *testing.T, args ...string) (string, string, int) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	full := append([]string{"--config-dir", e.configDir, "--data-dir", e.dataDir}, args...)
	code := Execute(full, &stdout, &stderr)
	return stdout.String(), stderr.String(), code
}

func (e env) exec(t *testing.T, pub, data string) (types.TransitionResult, int) {
	t.Helper()
	out, stderr, code := e.run(t, "--json", "exec",
		"--data-key", "subject-1",
		"--contract", "0xcontract",
		"--public-key", pub,
		"--data", data,
	)
	var res types.TransitionResult
	require.NoError(t, json.Unmarshal([]byte(out), &res), "stdout=%q stderr=%q", out, stderr)
	return res, code
}

func TestVersion(t *testing.T) {
	e := newEnv(t)

	out, _, code := e.run(t, "version")
	assert.Equal(t, exitSuccess, code)
	assert.Contains(t, out, "mentions v"+mentions.Version)
	assert.Contains(t, out, modulePath)

	out, _, code = e.run(t, "--json", "version")
	assert.Equal(t, exitSuccess, code)
	var v map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	assert.Equal(t, mentions.Version, v["version"])
}

func TestInit(t *testing.T) {
	e := newEnv(t)

	out, _, code := e.run(t, "init")
	require.Equal(t, exitSuccess, code)
	assert.Contains(t, out, "initialized")

	data, err := os.ReadFile(filepath.Join(e.configDir, configFileExt))
	require.NoError(t, err)
	var cfg configFile
	require.NoError(t, yaml.Unmarshal(data, &cfg))
	assert.Equal(t, types.BackendSQLite, cfg.Backend)
	assert.Equal(t, "subject", cfg.Correlation)
	assert.Equal(t, "reject", cfg.Policy)
	assert.Equal(t, "10s", cfg.StoreTimeout)
	assert.True(t, cfg.RequireOwner)

	for _, name := range []string{"metadata.jsonl", "blocks.jsonl"} {
		_, err := os.Stat(filepath.Join(e.dataDir, name))
		assert.NoError(t, err, "%s not created", name)
	}

	_, _, code = e.run(t, "init")
	assert.Equal(t, exitSuccess, code, "init is idempotent")
}

func TestExec_OwnershipAcrossInvocations(t *testing.T) {
	e := newEnv(t)

	res, code := e.exec(t, "0xa", `{"cid":"bafy1","owner":"0xa"}`)
	require.Equal(t, exitSuccess, code, res.Error)
	assert.True(t, res.Success)
	assert.Len(t, res.Mutations, 3)

	res, code = e.exec(t, "0xb", `{"cid":"bafy1","owner":"0xb"}`)
	assert.Equal(t, exitUserError, code)
	assert.False(t, res.Success)
	assert.Equal(t, types.ReasonNotOwner, res.Error)
	assert.Empty(t, res.Mutations)

	res, code = e.exec(t, "0xa", `{"cid":"bafy1","mentionable":false,"owner":"0xa"}`)
	require.Equal(t, exitSuccess, code, res.Error)
	require.Len(t, res.Mutations, 1)
	m, err := types.DecodeMentionMap([]byte(res.Mutations[0].Content))
	require.NoError(t, err)
	assert.False(t, m["bafy1"].Mentionable)
}

func TestExec_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		data   string
		reason string
	}{
		{"malformed payload", `{"cid":`, types.ReasonSchema},
		{"empty cid", `{"cid":"","owner":"0xa"}`, types.ReasonEmptyCID},
		{"missing owner", `{"cid":"bafy"}`, types.ReasonEmptyOwner},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t)
			res, code := e.exec(t, "0xa", tt.data)
			assert.Equal(t, exitUserError, code)
			assert.Equal(t, tt.reason, res.Error)
		})
	}
}

func TestExec_ArgumentErrors(t *testing.T) {
	e := newEnv(t)

	_, stderr, code := e.run(t, "exec", "--data-key", "k")
	assert.Equal(t, exitUserError, code)
	assert.Contains(t, stderr, "required")

	_, stderr, code = e.run(t, "exec",
		"--data-key", "k", "--contract", "c", "--public-key", "p", "--data", "{}",
		"--store", "s3")
	assert.Equal(t, exitUserError, code)
	assert.Contains(t, stderr, "unknown store")
}

func TestExec_ContentCorrelationFromConfig(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, os.MkdirAll(e.configDir, 0o755))
	cfg := defaultConfigFile("")
	cfg.Correlation = "content"
	cfg.Bootstrap = false
	data, err := yaml.Marshal(&cfg)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(e.configDir, configFileExt), data, 0o644))

	res, code := e.exec(t, "0xa", `{"cid":"bafy1","owner":"0xa"}`)
	require.Equal(t, exitSuccess, code, res.Error)
	require.Len(t, res.Mutations, 1)
	assert.Equal(t, "bafy1", res.Mutations[0].Version)

	var fm types.FinalMention
	require.NoError(t, json.Unmarshal([]byte(res.Mutations[0].Content), &fm))
	assert.Equal(t, "0xa", fm.Owner)
	assert.True(t, fm.Mentionable)
}

func TestConfig_EnvOverride(t *testing.T) {
	e := newEnv(t)
	t.Setenv("MENTIONS_POLICY", "bogus")

	_, stderr, code := e.run(t, "exec",
		"--data-key", "k", "--contract", "c", "--public-key", "p", "--data", "{}")
	assert.Equal(t, exitUserError, code)
	assert.Contains(t, stderr, types.ErrPolicyUnknown.Error())
}

func TestConfig_DataDirPrecedence(t *testing.T) {
	e := newEnv(t)
	fromConfig := filepath.Join(t.TempDir(), "from-config")
	fromEnv := filepath.Join(t.TempDir(), "from-env")
	t.Setenv("MENTIONS_DATA_DIR", fromEnv)

	require.NoError(t, os.MkdirAll(e.configDir, 0o755))
	data, err := yaml.Marshal(defaultConfigFile(fromConfig))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(e.configDir, configFileExt), data, 0o644))

	var stdout, stderr bytes.Buffer
	code := Execute([]string{"--config-dir", e.configDir, "init"}, &stdout, &stderr)
	require.Equal(t, exitSuccess, code, stderr.String())

	_, err = os.Stat(filepath.Join(fromConfig, "metadata.jsonl"))
	assert.NoError(t, err, "config.yaml data_dir wins over the env")
	_, err = os.Stat(fromEnv)
	assert.True(t, os.IsNotExist(err))
}

func TestGet(t *testing.T) {
	e := newEnv(t)
	_, code := e.exec(t, "0xa", `{"cid":"bafy1","owner":"0xa"}`)
	require.Equal(t, exitSuccess, code)

	files, err := os.ReadFile(filepath.Join(e.dataDir, "blocks.jsonl"))
	require.NoError(t, err)
	var line struct {
		CID string `json:"cid"`
	}
	require.NoError(t, json.Unmarshal(bytes.SplitN(files, []byte("\n"), 2)[0], &line))

	out, _, code := e.run(t, "--json", "get", line.CID)
	require.Equal(t, exitSuccess, code)
	var block types.StoredBlock
	require.NoError(t, json.Unmarshal([]byte(out), &block))
	assert.NotZero(t, block.Timestamp)

	_, stderr, code := e.run(t, "get", "sha256-missing")
	assert.Equal(t, exitUserError, code)
	assert.Contains(t, stderr, "not found")

	out, _, code = e.run(t, "get", line.CID)
	require.Equal(t, exitSuccess, code)
	assert.Contains(t, out, "timestamp: ")
	assert.Contains(t, out, "previous:  null")
}

func TestTextOutput(t *testing.T) {
	e := newEnv(t)
	args := []string{"exec", "--data-key", "subject-1", "--contract", "0xcontract"}

	out, _, code := e.run(t, append(args, "--public-key", "0xa", "--data", `{"cid":"bafy1","owner":"0xa"}`)...)
	require.Equal(t, exitSuccess, code, out)
	assert.True(t, strings.HasPrefix(out, "ok: 3 mutations\n"), out)
	assert.Contains(t, out, "ALIAS")
	assert.Contains(t, out, "mentions")

	out, _, code = e.run(t, append(args, "--public-key", "0xb", "--data", `{"cid":"bafy1","owner":"0xb"}`)...)
	assert.Equal(t, exitUserError, code)
	assert.Equal(t, "rejected: Not owner of the post\n", out)

	out, _, code = e.run(t, "mint", "--data-key", "k")
	assert.Equal(t, exitUserError, code)
	assert.Equal(t, "rejected: on_mint is not available\n", out)
}

func TestMintAndClone(t *testing.T) {
	e := newEnv(t)

	out, _, code := e.run(t, "--json", "mint", "--data-key", "k")
	assert.Equal(t, exitUserError, code)
	var res types.TransitionResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, types.ReasonMintUnavailable, res.Error)

	out, _, code = e.run(t, "clone")
	assert.Equal(t, exitSuccess, code)
	assert.Equal(t, "false\n", out)
}

func TestServe_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	srv := &http.Server{Addr: "127.0.0.1:0", Handler: http.NotFoundHandler()}

	done := make(chan error, 1)
	go func() { done <- serve(ctx, srv, log.New(&bytes.Buffer{}, "", 0)) }()
	cancel()
	assert.NoError(t, <-done)
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, exitSuccess, ExitCode(nil))
	assert.Equal(t, exitSysError, ExitCode(sysError("boom")))
	assert.Equal(t, exitUserError, ExitCode(userError("bad")))
	assert.Equal(t, exitUserError, ExitCode(errRejected))
	assert.Equal(t, exitUserError, ExitCode(assert.AnError))
}
