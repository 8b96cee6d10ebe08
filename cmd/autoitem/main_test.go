package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cliScene = `
name = "flyby"
fps = 24.0
frame_start = 1
frame_end = 48

[[objects]]
name = "Cube"
dimensions = [1.0, 1.0, 1.0]

  [[objects.keyframes]]
  frame = 1
  location = [0.0, 0.0, 0.0]

  [[objects.keyframes]]
  frame = 48
  location = [2.0, 4.0, 1.0]

[[objects]]
name = "Bounds"
dimensions = [2.0, 4.0, 1.0]
`

func TestRun_WritesItems(t *testing.T) {
	scenePath := filepath.Join(t.TempDir(), "flyby.toml")
	require.NoError(t, os.WriteFile(scenePath, []byte(cliScene), 0o644))
	outDir := t.TempDir()

	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{
		"-scene", scenePath,
		"-object", "Cube",
		"-boundary", "Bounds",
		"-tempo", "120",
		"-out", outDir,
		"-project", "mix",
	}, &stdout, &stderr)
	require.NoError(t, err, stderr.String())

	assert.Equal(t, "files saved to: "+outDir+"\n", stdout.String())
	for _, ch := range []string{"loc_x", "loc_y", "loc_z", "rot_z"} {
		assert.FileExists(t, filepath.Join(outDir, "mix_"+ch+".ReaperAutoItem"))
	}

	data, err := os.ReadFile(filepath.Join(outDir, "mix_loc_y.ReaperAutoItem"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Equal(t, "PPT 4 1 0", lines[len(lines)-1])
}

func TestRun_MissingFlags(t *testing.T) {
	tests := [][]string{
		{"-object", "Cube", "-boundary", "Bounds", "-out", "/tmp"},
		{"-scene", "s.yaml", "-boundary", "Bounds", "-out", "/tmp"},
		{"-scene", "s.yaml", "-object", "Cube", "-out", "/tmp"},
		{"-scene", "s.yaml", "-object", "Cube", "-boundary", "Bounds", "extra"},
	}
	for _, args := range tests {
		var stdout, stderr bytes.Buffer
		assert.Error(t, run(context.Background(), args, &stdout, &stderr), "args %v", args)
		assert.Empty(t, stdout.String())
	}
}

func TestRun_UnknownObject(t *testing.T) {
	scenePath := filepath.Join(t.TempDir(), "flyby.toml")
	require.NoError(t, os.WriteFile(scenePath, []byte(cliScene), 0o644))
	outDir := t.TempDir()

	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{
		"-scene", scenePath, "-object", "Sphere", "-boundary", "Bounds", "-out", outDir,
	}, &stdout, &stderr)
	require.Error(t, err)

	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "nothing is written when validation fails")
}
