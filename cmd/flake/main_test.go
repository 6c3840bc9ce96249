package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rexliu/flake/pkg/flake"
)

func initFixedProfile(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	var out bytes.Buffer
	require.NoError(t, run("init", []string{"-profile", dir, "-source", "fixed", "-fixed", "123456789"}, &out))
	assert.Contains(t, out.String(), "initialized profile dev")
	return dir
}

func TestInitRefusesOverwrite(t *testing.T) {
	dir := initFixedProfile(t)
	var out bytes.Buffer
	assert.Error(t, run("init", []string{"-profile", dir}, &out))
	assert.NoError(t, run("init", []string{"-profile", dir, "-force", "-source", "fixed"}, &out))
}

func TestGenRecordAndList(t *testing.T) {
	dir := initFixedProfile(t)

	var out bytes.Buffer
	require.NoError(t, run("gen", []string{"-profile", dir, "-n", "5", "-record"}, &out))
	lines := strings.Fields(out.String())
	require.Len(t, lines, 5)
	for _, line := range lines {
		id, err := flake.ParseHex(line)
		require.NoError(t, err)
		assert.Equal(t, int64(123456789), id.NodeValue())
	}

	out.Reset()
	require.NoError(t, run("list", []string{"-profile", dir}, &out))
	assert.Equal(t, lines, strings.Fields(out.String()))
}

func TestGenRunsDoNotRepeat(t *testing.T) {
	dir := initFixedProfile(t)

	var first, second bytes.Buffer
	require.NoError(t, run("gen", []string{"-profile", dir, "-n", "3", "-record"}, &first))
	time.Sleep(2 * time.Millisecond)
	require.NoError(t, run("gen", []string{"-profile", dir, "-n", "3", "-record"}, &second))

	seen := make(map[string]bool)
	for _, line := range append(strings.Fields(first.String()), strings.Fields(second.String())...) {
		assert.False(t, seen[line], "id %s issued twice", line)
		seen[line] = true
	}
	assert.Len(t, seen, 6)
}

func TestGenFormats(t *testing.T) {
	dir := initFixedProfile(t)
	for _, format := range []string{"hex", "components", "base32", "uuid"} {
		var out bytes.Buffer
		require.NoError(t, run("gen", []string{"-profile", dir, "-format", format}, &out), format)
		id, err := flake.Parse(strings.TrimSpace(out.String()))
		require.NoError(t, err, format)
		assert.Equal(t, int64(123456789), id.NodeValue(), format)
	}

	var out bytes.Buffer
	assert.Error(t, run("gen", []string{"-profile", dir, "-format", "roman"}, &out))
	assert.Error(t, run("gen", []string{"-profile", dir, "-n", "0"}, &out))
}

func TestDecode(t *testing.T) {
	id := flake.Compose(1_700_000_000_000, [6]byte{0, 0, 0x07, 0x5b, 0xcd, 0x15}, 3)
	var out bytes.Buffer
	require.NoError(t, run("decode", []string{id.Components()}, &out))
	assert.Contains(t, out.String(), id.Hex())
	assert.Contains(t, out.String(), "sequence:   3")
	assert.Contains(t, out.String(), "2023-11-14T22:13:20Z")

	assert.Error(t, run("decode", []string{"nope"}, &out))
	assert.Error(t, run("decode", nil, &out))
}

func TestNodeAndDiag(t *testing.T) {
	dir := initFixedProfile(t)
	var out bytes.Buffer
	require.NoError(t, run("node", []string{"-profile", dir}, &out))
	assert.Contains(t, out.String(), "node id: 123456789 (0000075bcd15) via fixed")

	out.Reset()
	require.NoError(t, run("diag", []string{"-profile", dir}, &out))
	assert.Contains(t, out.String(), "Fixed Node: 123456789")
}

func TestMissingProfile(t *testing.T) {
	var out bytes.Buffer
	err := run("gen", []string{"-profile", t.TempDir()}, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "flake init")
	assert.Error(t, run("bogus", nil, &out))
}
