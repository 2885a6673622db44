package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/superbot/internal/ledger"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestRootCommandTree(t *testing.T) {
	root := newRootCmd()
	flag := root.PersistentFlags().Lookup("config")
	require.NotNil(t, flag)
	assert.Equal(t, "c", flag.Shorthand)

	for _, path := range [][]string{{"serve"}, {"version"}, {"ledger", "report"}} {
		cmd, _, err := root.Find(path)
		require.NoError(t, err)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "superbot dev")
}

func TestLedgerReportRejectsBadMonth(t *testing.T) {
	_, err := execute(t, "ledger", "report", "13")
	require.Error(t, err)
}

func TestLedgerReportPrintsCurrentYear(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("LEDGER_BACKEND", "")
	t.Setenv("LEDGER_FILE", "")

	year := time.Now().Year()
	store := ledger.NewFileStore(filepath.Join(dir, "keuangan.json"))
	engine := ledger.NewEngine(store)
	d1, err := ledger.NewDate(20, 3, year)
	require.NoError(t, err)
	d2, err := ledger.NewDate(2, 3, year)
	require.NoError(t, err)
	_, err = engine.Save(context.Background(), d1, 1500000)
	require.NoError(t, err)
	_, err = engine.Save(context.Background(), d2, 250000)
	require.NoError(t, err)

	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("ledger:\n  file: keuangan.json\n"), 0o600))

	out, err := execute(t, "--config", cfgPath, "ledger", "report", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "Maret")
	assert.Contains(t, out, "Rp 1,500,000")
	assert.Contains(t, out, "Total: Rp 1,750,000")
	assert.Less(t, bytes.Index([]byte(out), []byte("2-3-")), bytes.Index([]byte(out), []byte("20-3-")))
}

func TestLedgerReportEmptyMonth(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("LEDGER_BACKEND", "")
	t.Setenv("LEDGER_FILE", "")
	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("ledger:\n  file: keuangan.json\n"), 0o600))

	out, err := execute(t, "-c", cfgPath, "ledger", "report", "7")
	require.NoError(t, err)
	assert.Contains(t, out, "No entries for Juli")
}

func TestCloseLedgerJoinsCloseError(t *testing.T) {
	var err error
	closeLedger(&err, func() error { return nil })
	require.NoError(t, err)

	boom := errors.New("connection reset")
	closeLedger(&err, func() error { return boom })
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "ledger: close")

	first := errors.New("report failed")
	err = first
	closeLedger(&err, func() error { return boom })
	require.ErrorIs(t, err, first)
	require.ErrorIs(t, err, boom)
}
