package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/inoxlang/phpcheck/internal/config"
	"github.com/inoxlang/phpcheck/internal/report"
	"github.com/inoxlang/phpcheck/internal/run"
	"github.com/inoxlang/phpcheck/internal/utils"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type syncBuffer struct {
	lock sync.Mutex
	buf  bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.buf.String()
}

func writeProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"foo.php": `<?php
class Foo {
	public function bar(): bool { return true; }
}`,
		"use.php": `<?php
function f(Foo $a) {
	return $a->missing();
}`,
		"info.php": `<?php
function g() {
	$unused = 1;
}`,
	}
	for path, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(root, path), []byte(content), 0o600))
	}
	return root
}

func exec(args ...string) (status int, out, errOut string) {
	outW, errW := &syncBuffer{}, &syncBuffer{}
	status = _main(context.Background(), append([]string{COMMAND_NAME}, args...), outW, errW)
	return status, outW.String(), errW.String()
}

type jsonOutput struct {
	Diagnostics []report.Diagnostic `json:"diagnostics"`
	Summary     report.Summary      `json:"summary"`
}

func TestCommands(t *testing.T) {
	t.Run("help", func(t *testing.T) {
		status, out, _ := exec("help")
		assert.Zero(t, status)
		assert.Equal(t, CMD_HELP, out)

		status, out, _ = exec("--help")
		assert.Zero(t, status)
		assert.Equal(t, CMD_HELP, out)
	})

	t.Run("subcommand help", func(t *testing.T) {
		status, out, _ := exec("help", CHECK_SUBCMD)
		assert.Zero(t, status)
		assert.Contains(t, out, SUBCOMMAND_DESCRIPTION_MAP[CHECK_SUBCMD])
		assert.Contains(t, out, "-workers")
	})

	t.Run("unknown command", func(t *testing.T) {
		status, _, errOut := exec("chekc")
		assert.Equal(t, ERROR_STATUS_CODE, status)
		assert.Contains(t, errOut, "did you mean 'check' ?")
	})
}

func TestCheckProject(t *testing.T) {
	t.Run("text", func(t *testing.T) {
		root := writeProject(t)
		status, out, _ := exec(CHECK_SUBCMD, "-root", root, "-no-color")

		assert.Equal(t, report.SeverityError.ExitStatus(), status)
		assert.Contains(t, out, filepath.Join(root, "use.php")+":3: error [Standard.Unknown.Class.Method] call to unknown method Foo::missing()")
		assert.Contains(t, out, "2 diagnostic(s), 3 file(s)")
	})

	t.Run("json", func(t *testing.T) {
		root := writeProject(t)
		status, out, _ := exec(CHECK_SUBCMD, "-root", root, "-output", "json", "-disable", "UnknownMethod")

		assert.Equal(t, report.SeverityInfo.ExitStatus(), status)

		var output jsonOutput
		require.NoError(t, json.Unmarshal([]byte(out), &output))
		require.Len(t, output.Diagnostics, 1)
		assert.Equal(t, report.UnusedVariable, output.Diagnostics[0].Code)
		assert.Equal(t, 3, output.Summary.Files)
	})

	t.Run("configuration file", func(t *testing.T) {
		root := writeProject(t)
		configPath := filepath.Join(root, config.DEFAULT_CONFIG_FILENAME)
		require.NoError(t, os.WriteFile(configPath, []byte("min-severity: warning\noutput: checkstyle\n"), 0o600))

		status, out, _ := exec(CHECK_SUBCMD, "-config", configPath)
		assert.Equal(t, report.SeverityError.ExitStatus(), status)
		assert.Contains(t, out, `<checkstyle version="4.3">`)
		assert.Contains(t, out, `source="Standard.Unknown.Class.Method"`)
		assert.NotContains(t, out, string(report.UnusedVariable))
	})

	t.Run("explicit files", func(t *testing.T) {
		root := writeProject(t)
		status, out, _ := exec(CHECK_SUBCMD, "-root", root, "-no-color", filepath.Join(root, "info.php"))

		assert.Equal(t, report.SeverityInfo.ExitStatus(), status)
		assert.Contains(t, out, "1 diagnostic(s), 1 file(s)")
	})

	t.Run("invalid flag value", func(t *testing.T) {
		root := writeProject(t)
		status, _, errOut := exec(CHECK_SUBCMD, "-root", root, "-output", "xml")

		assert.Equal(t, ERROR_STATUS_CODE, status)
		assert.Contains(t, errOut, report.ErrUnknownFormat.Error())
	})
}

func TestIndexProject(t *testing.T) {
	root := writeProject(t)

	status, _, errOut := exec(INDEX_SUBCMD, "-root", root)
	assert.Equal(t, ERROR_STATUS_CODE, status)
	assert.Contains(t, errOut, run.ErrNoIndexCache.Error())

	cache := filepath.Join(t.TempDir(), "index.bbolt")
	status, out, _ := exec(INDEX_SUBCMD, "-root", root, "-index-cache", cache)
	assert.Zero(t, status)
	assert.Equal(t, "1 classes and 2 functions indexed in "+cache+"\n", out)
}

func TestWatch(t *testing.T) {
	WATCH_DEBOUNCE_DURATION = 20 * time.Millisecond

	root := writeProject(t)
	cfg := config.Default()
	cfg.Root = root

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	results := make(chan *run.Result, 10)
	done := make(chan error, 1)

	go func() {
		done <- watch(ctx, cfg, zerolog.New(&utils.TestWriter{T: t}), func(result *run.Result) {
			results <- result
		})
	}()

	select {
	case result := <-results:
		assert.Len(t, result.Diagnostics, 2)
	case <-time.After(5 * time.Second):
		require.FailNow(t, "no initial result")
	}

	//the file is moved into the project to produce a single event
	tempPath := filepath.Join(t.TempDir(), "new.php")
	require.NoError(t, os.WriteFile(tempPath, []byte("<?php\nnew Missing();"), 0o600))
	require.NoError(t, os.Rename(tempPath, filepath.Join(root, "new.php")))

	select {
	case result := <-results:
		assert.Len(t, result.Diagnostics, 3)
		assert.Equal(t, 4, result.Summary.Files)
	case <-time.After(5 * time.Second):
		require.FailNow(t, "no result after a change")
	}

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		require.FailNow(t, "watch did not stop")
	}
}
