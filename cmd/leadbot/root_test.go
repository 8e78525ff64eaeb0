package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/leadgenbot/core/buildinfo"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "leadbot "+buildinfo.Summary()+"\n", out)
}

func TestCatalogCommandPrintsEmbeddedCatalog(t *testing.T) {
	out, err := run(t, "catalog")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Contains(t, lines[0], "Ready FTDs")
	assert.Contains(t, out, "United Kingdom")
	assert.Contains(t, out, "$10 / 300")
	assert.Contains(t, out, "Pay: USDT TRC20")
}

func TestCatalogCommandRejectsInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("payment: x\ngeos:\n  - key: italy\n    leads:\n      live: {price: 50, moq: 100}\n"), 0o600))

	_, err := run(t, "catalog", "--file", path)
	assert.Error(t, err)
}

func TestLoadEnvFile(t *testing.T) {
	require.NoError(t, loadEnvFile(filepath.Join(t.TempDir(), "absent.env")))

	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("LEADBOT_TEST_VALUE=from-file\n"), 0o600))
	t.Setenv("LEADBOT_TEST_VALUE", "")
	os.Unsetenv("LEADBOT_TEST_VALUE")

	require.NoError(t, loadEnvFile(path))
	assert.Equal(t, "from-file", os.Getenv("LEADBOT_TEST_VALUE"))
}
