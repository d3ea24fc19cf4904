package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"icabridge/internal/analyzers"
	"icabridge/internal/argv"
	"icabridge/internal/config"
	"icabridge/internal/ica"
	"icabridge/internal/render"
	"icabridge/internal/sidecar"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeSidecar answers every run with the given stdout and records the args.
type fakeSidecar struct {
	mu     sync.Mutex
	calls  [][]string
	stdout func(args []string) string
	code   int
	stderr string
}

func (f *fakeSidecar) Execute(ctx context.Context, args []string) (*sidecar.Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, args)
	f.mu.Unlock()

	code := f.code
	res := &sidecar.Result{Code: &code, Stderr: f.stderr}
	if f.stdout != nil {
		res.Stdout = f.stdout(args)
	}
	return res, nil
}

// setupCLI points the globals at a temp store and a fake sidecar.
func setupCLI(t *testing.T, fake *fakeSidecar) {
	t.Helper()

	logger = zap.NewNop()
	cfg = config.DefaultConfig()
	cfg.Store.Path = filepath.Join(t.TempDir(), "store.json")

	oldExecutor := newExecutor
	newExecutor = func() sidecar.Executor { return fake }

	t.Cleanup(func() {
		newExecutor = oldExecutor
		runLine = ""
		runContacts = nil
		runOutputFormat = string(render.FormatTable)
		reportLimit = 0
	})
}

func testCmd() (*cobra.Command, *bytes.Buffer) {
	cmd := &cobra.Command{}
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetContext(context.Background())
	return cmd, out
}

func TestContactsCommands(t *testing.T) {
	setupCLI(t, &fakeSidecar{})

	cmd, out := testCmd()
	require.NoError(t, contactsGet(cmd, nil))
	assert.Equal(t, "(no contacts selected)\n", out.String())

	out.Reset()
	require.NoError(t, contactsSet(cmd, []string{" Jane Doe ", "Bob", "Jane Doe"}))
	assert.Equal(t, "Jane Doe\nBob\n", out.String())

	out.Reset()
	require.NoError(t, contactsGet(cmd, nil))
	assert.Equal(t, "Jane Doe\nBob\n", out.String())

	out.Reset()
	require.NoError(t, contactsClear(cmd, nil))
	require.NoError(t, contactsGet(cmd, nil))
	assert.Contains(t, out.String(), "(no contacts selected)")
}

func TestContactsGet_MigratesLegacyFile(t *testing.T) {
	setupCLI(t, &fakeSidecar{})
	require.NoError(t, os.WriteFile(cfg.Store.Path, []byte(`{"selectedContact":"Jane"}`), 0644))

	cmd, out := testCmd()
	require.NoError(t, contactsGet(cmd, nil))
	assert.Equal(t, "Jane\n", out.String())

	data, err := os.ReadFile(cfg.Store.Path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"selectedContacts":["Jane"]}`, string(data))
}

func TestContactsCommands_SQLiteBackend(t *testing.T) {
	setupCLI(t, &fakeSidecar{})
	cfg.Store.Backend = config.BackendSQLite
	cfg.Store.Path = filepath.Join(t.TempDir(), "settings.db")

	cmd, out := testCmd()
	require.NoError(t, contactsSet(cmd, []string{"Jane"}))
	out.Reset()
	require.NoError(t, contactsGet(cmd, nil))
	assert.Equal(t, "Jane\n", out.String())

	err := contactsWatch(cmd, nil)
	assert.ErrorContains(t, err, "file backend")
}

func TestContactsWatch_UnwatchablePath(t *testing.T) {
	setupCLI(t, &fakeSidecar{})
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0644))
	cfg.Store.Path = filepath.Join(blocker, "sub", "store.json")

	cmd, _ := testCmd()
	done := make(chan error, 1)
	go func() { done <- contactsWatch(cmd, nil) }()

	select {
	case err := <-done:
		assert.ErrorContains(t, err, "failed to watch")
	case <-time.After(2 * time.Second):
		t.Fatal("contacts watch did not return after the watcher failed to start")
	}
}

func TestRunAnalyzer_UsesSavedContacts(t *testing.T) {
	fake := &fakeSidecar{stdout: func([]string) string { return "Messages,Contact\n12,Jane" }}
	setupCLI(t, fake)

	cmd, out := testCmd()
	require.NoError(t, contactsSet(cmd, []string{"Jane"}))
	out.Reset()

	runOutputFormat = "csv"
	require.NoError(t, runAnalyzer(cmd, []string{"message_totals", "--from-date", "2024-01-01"}))

	require.Len(t, fake.calls, 1)
	assert.Equal(t, []string{
		"message_totals", "--from-date", "2024-01-01",
		"--contact", "Jane",
		"--format", "csv",
	}, fake.calls[0])
	assert.Equal(t, "Messages,Contact\n12,Jane\n", out.String())
}

func TestRunAnalyzer_ExplicitContactsAndLine(t *testing.T) {
	fake := &fakeSidecar{stdout: func([]string) string { return "Total\n3" }}
	setupCLI(t, fake)

	cmd, out := testCmd()
	runLine = `count_phrases "good morning" -f md`
	runContacts = []string{"Jane", "Bob"}
	runOutputFormat = "json"
	require.NoError(t, runAnalyzer(cmd, nil))

	assert.Equal(t, []string{
		"count_phrases", "good morning",
		"--contact", "Jane", "--contact", "Bob",
		"--format", "csv",
	}, fake.calls[0])
	assert.Equal(t, "[\n  {\"total\": 3}\n]\n", out.String())
}

func TestRunAnalyzer_MissingContact(t *testing.T) {
	fake := &fakeSidecar{}
	setupCLI(t, fake)

	cmd, _ := testCmd()
	err := runAnalyzer(cmd, []string{"message_totals"})
	assert.ErrorIs(t, err, argv.ErrMissingContact)
	assert.Empty(t, fake.calls)
}

func TestRunAnalyzer_ToolFailure(t *testing.T) {
	fake := &fakeSidecar{code: 1, stderr: "contact not found"}
	setupCLI(t, fake)

	cmd, _ := testCmd()
	runContacts = []string{"Nobody"}
	err := runAnalyzer(cmd, []string{"message_totals"})

	var tf *ica.ToolFailureError
	require.True(t, errors.As(err, &tf))
	assert.Equal(t, "contact not found", err.Error())
}

func TestRunAnalyzer_ArgumentErrors(t *testing.T) {
	setupCLI(t, &fakeSidecar{})
	cmd, _ := testCmd()

	err := runAnalyzer(cmd, nil)
	assert.ErrorContains(t, err, "analyzer name or --line")

	err = runAnalyzer(cmd, []string{"no_such_analyzer"})
	assert.ErrorIs(t, err, analyzers.ErrAnalyzerNotFound)

	runLine = "message_totals"
	err = runAnalyzer(cmd, []string{"transcript"})
	assert.ErrorContains(t, err, "cannot be combined")

	runLine = ""
	runOutputFormat = "xlsx"
	err = runAnalyzer(cmd, []string{"message_totals"})
	assert.ErrorContains(t, err, "unknown output format")
}

func TestRunAnalyzer_CustomAnalyzerPath(t *testing.T) {
	fake := &fakeSidecar{stdout: func([]string) string { return "A\n1" }}
	setupCLI(t, fake)

	cmd, _ := testCmd()
	runContacts = []string{"Jane"}
	require.NoError(t, runAnalyzer(cmd, []string{"./my_analyzer.py"}))
	assert.Equal(t, "./my_analyzer.py", fake.calls[0][0])
}

func TestExportAnalyzer(t *testing.T) {
	fake := &fakeSidecar{}
	setupCLI(t, fake)

	cmd, out := testCmd()
	runContacts = []string{"Jane"}
	require.NoError(t, exportAnalyzer(cmd, []string{"/tmp/out.csv", "transcript", "-o", "other.csv"}))

	assert.Equal(t, []string{
		"transcript",
		"--contact", "Jane",
		"--format", "csv",
		"--output", "/tmp/out.csv",
	}, fake.calls[0])
	assert.Contains(t, out.String(), "Wrote /tmp/out.csv")
}

func TestRunReport(t *testing.T) {
	fake := &fakeSidecar{stdout: func(args []string) string { return "Analyzer\n" + args[0] }}
	setupCLI(t, fake)

	cmd, out := testCmd()
	runContacts = []string{"Jane"}
	runOutputFormat = "csv"
	reportLimit = 2
	require.NoError(t, runReport(cmd, []string{"message_totals", "attachment_totals", "totals_by_day"}))

	want := strings.Join([]string{
		"== message_totals ==", "Analyzer", "message_totals", "",
		"== attachment_totals ==", "Analyzer", "attachment_totals", "",
		"== totals_by_day ==", "Analyzer", "totals_by_day", "",
	}, "\n")
	assert.Equal(t, want, out.String())
	assert.Len(t, fake.calls, 3)
}

func TestRunReport_UnknownAnalyzer(t *testing.T) {
	fake := &fakeSidecar{}
	setupCLI(t, fake)

	cmd, _ := testCmd()
	err := runReport(cmd, []string{"message_totals", "bogus"})
	assert.ErrorIs(t, err, analyzers.ErrAnalyzerNotFound)
	assert.Empty(t, fake.calls)
}

func TestListAnalyzers(t *testing.T) {
	setupCLI(t, &fakeSidecar{})

	cmd, out := testCmd()
	require.NoError(t, listAnalyzers(cmd, nil))
	for _, name := range registry.Names() {
		assert.Contains(t, out.String(), name)
	}
}

func TestRootCmd_LoadsConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "icabridge.yaml")
	storePath := filepath.Join(dir, "store.json")
	require.NoError(t, os.WriteFile(path, []byte("store:\n  backend: file\n  path: "+storePath+"\n"), 0644))

	oldPath := configPath
	configPath = path
	defer func() { configPath = oldPath }()

	cmd, _ := testCmd()
	cmd.Flags().Duration("timeout", 0, "")
	require.NoError(t, rootCmd.PersistentPreRunE(cmd, nil))
	assert.Equal(t, storePath, cfg.Store.Path)
	assert.Equal(t, "ica", cfg.Sidecar.Command)
	assert.NotNil(t, logger)
}

func TestRootCmd_RejectsInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "icabridge.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store:\n  backend: redis\n"), 0644))

	oldPath := configPath
	configPath = path
	defer func() { configPath = oldPath }()

	cmd, _ := testCmd()
	cmd.Flags().Duration("timeout", 0, "")
	err := rootCmd.PersistentPreRunE(cmd, nil)
	assert.ErrorContains(t, err, "invalid store backend")
}
