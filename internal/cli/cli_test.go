package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runCLI(t *testing.T, args []string) (stdout []byte, stderr []byte, err error) {
	t.Helper()

	cmd := NewRootCmd()

	var outBuf bytes.Buffer
	var errBuf bytes.Buffer
	cmd.SetOut(&outBuf)
	cmd.SetErr(&errBuf)
	cmd.SetArgs(args)

	e := cmd.Execute()
	return outBuf.Bytes(), errBuf.Bytes(), e
}

// testWorkspace isolates config and returns a store dir.
func testWorkspace(t *testing.T) string {
	t.Helper()
	t.Setenv("GALLERY_CONFIG", filepath.Join(t.TempDir(), "config.yml"))
	t.Setenv("GALLERY_DIR", "")
	t.Setenv("GALLERY_LOG_LEVEL", "")
	t.Setenv("GALLERY_FORMAT", "")
	return filepath.Join(t.TempDir(), ".gallery")
}

func writeItems(t *testing.T, items string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "items.json")
	if err := os.WriteFile(path, []byte(items), 0o644); err != nil {
		t.Fatalf("write items: %v", err)
	}
	return path
}

func mustRun(t *testing.T, args ...string) map[string]any {
	t.Helper()
	out, stderr, err := runCLI(t, args)
	if err != nil {
		t.Fatalf("%v: %v\nstderr: %s", args, err, stderr)
	}
	var env map[string]any
	if err := json.Unmarshal(out, &env); err != nil {
		t.Fatalf("%v: invalid json %q: %v", args, out, err)
	}
	return env
}

func entryIDs(t *testing.T, env map[string]any) string {
	t.Helper()
	data, _ := env["data"].(map[string]any)
	entries, ok := data["entries"].([]any)
	if !ok {
		t.Fatalf("expected entries in %v", env)
	}
	var b strings.Builder
	for _, e := range entries {
		m := e.(map[string]any)
		if m["kind"] == "placeholder" {
			b.WriteByte('_')
			continue
		}
		b.WriteString(m["id"].(string))
	}
	return b.String()
}

const threeItems = `[
  {"id":"a","ownerRevision":"1","name":"Alpha"},
  {"id":"b","ownerRevision":"1","name":"Beta"},
  {"id":"c","ownerRevision":"1","name":"Gamma"}
]`
