package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/hypercut/pkg/config"
	hio "github.com/matzehuels/hypercut/pkg/io"
	"github.com/matzehuels/hypercut/pkg/store"
)

const ringHgr = `% six pins in two triangles joined by one net
4 6
1 2 3
4 5 6
3 4
1 6
`

// isolate points every XDG directory at a fresh temp dir.
func isolate(t *testing.T) string {
	t.Helper()
	base := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(base, "config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(base, "cache"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(base, "data"))
	return base
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	c := New(io.Discard, log.InfoLevel)
	root := c.RootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := New(io.Discard, log.InfoLevel).RootCommand()
	for _, name := range []string{"partition", "render", "serve", "runs", "cache", "completion"} {
		if cmd, _, err := root.Find([]string{name}); err != nil || cmd.Name() != name {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func TestVerboseFlag(t *testing.T) {
	isolate(t)
	for _, tt := range []struct {
		args []string
		want log.Level
	}{
		{[]string{"cache", "path"}, log.InfoLevel},
		{[]string{"-v", "cache", "path"}, log.DebugLevel},
		{[]string{"cache", "path", "--verbose"}, log.DebugLevel},
	} {
		c := New(io.Discard, log.InfoLevel)
		root := c.RootCommand()
		root.SetOut(io.Discard)
		root.SetArgs(tt.args)
		if err := root.ExecuteContext(context.Background()); err != nil {
			t.Fatalf("%v: %v", tt.args, err)
		}
		if got := c.Logger.GetLevel(); got != tt.want {
			t.Errorf("%v: level = %v, want %v", tt.args, got, tt.want)
		}
	}
}

func TestPartitionCommand(t *testing.T) {
	base := isolate(t)
	in := writeFile(t, base, "ring.hgr", ringHgr)

	if _, err := execute(t, "partition", in, "--trials", "2", "--epsilon", "0.5"); err != nil {
		t.Fatalf("partition: %v", err)
	}

	labels, err := hio.ImportLabels(in + ".part.2")
	if err != nil {
		t.Fatalf("labels not written: %v", err)
	}
	if len(labels) != 6 {
		t.Errorf("len(labels) = %d, want 6", len(labels))
	}

	st, err := store.NewFileStore(filepath.Join(base, "data", config.AppName, "runs"))
	if err != nil {
		t.Fatal(err)
	}
	recs, err := st.List(context.Background(), store.ListOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 || recs[0].Name != "ring" || recs[0].Trials != 2 {
		t.Fatalf("history = %+v", recs)
	}

	// Second run hits the file cache.
	if _, err := execute(t, "partition", in, "--trials", "2", "--epsilon", "0.5", "--no-save"); err != nil {
		t.Fatal(err)
	}
	entries, err := os.ReadDir(filepath.Join(base, "cache", config.AppName))
	if err != nil || len(entries) == 0 {
		t.Errorf("cache directory empty: %v", err)
	}
	if recs, _ := st.List(context.Background(), store.ListOptions{}); len(recs) != 1 {
		t.Errorf("--no-save recorded a run: %d runs", len(recs))
	}
}

func TestPartitionCommandDOT(t *testing.T) {
	base := isolate(t)
	in := writeFile(t, base, "ring.hgr", ringHgr)
	dot := filepath.Join(base, "ring.dot")
	out := filepath.Join(base, "labels.txt")

	if _, err := execute(t, "partition", in, "--no-cache", "--no-save", "-t", "1", "-o", out, "--dot", dot); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(dot)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "graph H") {
		t.Errorf("dot output = %q", data)
	}
	if _, err := os.Stat(out); err != nil {
		t.Errorf("labels file: %v", err)
	}
}

func TestPartitionCommandErrors(t *testing.T) {
	base := isolate(t)
	in := writeFile(t, base, "ring.hgr", ringHgr)

	if _, err := execute(t, "partition", filepath.Join(base, "missing.hgr")); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := execute(t, "partition", in, "--epsilon", "-1"); err == nil {
		t.Error("expected error for negative epsilon")
	}
	bad := writeFile(t, base, "bad.hgr", "1 2\n1 3\n")
	if _, err := execute(t, "partition", bad); err == nil {
		t.Error("expected error for out of range pin")
	}
}

func TestRenderCommandDOT(t *testing.T) {
	base := isolate(t)
	in := writeFile(t, base, "ring.hgr", ringHgr)
	labels := writeFile(t, base, "ring.part.2", "0\n0\n0\n1\n1\n1\n")

	if _, err := execute(t, "render", in, labels, "-f", "dot", "--detailed"); err != nil {
		t.Fatalf("render: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(base, "ring.dot"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "#d62828") {
		t.Error("cut nets should be highlighted")
	}
}

func TestRenderCommandSVGCached(t *testing.T) {
	base := isolate(t)
	in := writeFile(t, base, "ring.hgr", ringHgr)
	labels := writeFile(t, base, "ring.part.2", "0\n0\n0\n1\n1\n1\n")
	out := filepath.Join(base, "ring.svg")

	if _, err := execute(t, "render", in, labels); err != nil {
		t.Fatalf("render: %v", err)
	}
	first, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	entries, err := os.ReadDir(filepath.Join(base, "cache", config.AppName))
	if err != nil || len(entries) == 0 {
		t.Fatalf("artifact not cached: %v", err)
	}

	if _, err := execute(t, "render", in, labels); err != nil {
		t.Fatalf("cached render: %v", err)
	}
	second, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if string(first) != string(second) {
		t.Error("cached rendering differs")
	}
}

func TestRenderCommandArgs(t *testing.T) {
	base := isolate(t)
	in := writeFile(t, base, "ring.hgr", ringHgr)
	labels := writeFile(t, base, "ring.part.2", "0\n0\n0\n1\n1\n1\n")

	if _, err := execute(t, "render", in); err == nil {
		t.Error("expected error without labels or --run")
	}
	if _, err := execute(t, "render", in, labels, "--run", "x"); err == nil {
		t.Error("expected error with both labels and --run")
	}
	if _, err := execute(t, "render", in, labels, "-f", "gif"); err == nil {
		t.Error("expected error for unknown format")
	}
	short := writeFile(t, base, "short.part.2", "0\n1\n")
	if _, err := execute(t, "render", in, short, "-f", "dot"); err == nil {
		t.Error("expected error for label count mismatch")
	}
}

func TestRenderFromRun(t *testing.T) {
	base := isolate(t)
	in := writeFile(t, base, "ring.hgr", ringHgr)

	st, err := config.Default().Store.OpenStore(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	rec := &store.Record{ID: "run-1", Labels: []bool{true, true, true, false, false, false}}
	if err := st.Save(context.Background(), rec); err != nil {
		t.Fatal(err)
	}

	out := filepath.Join(base, "fromrun")
	if _, err := execute(t, "render", in, "--run", "run-1", "-f", "dot", "-o", out); err != nil {
		t.Fatalf("render --run: %v", err)
	}
	if _, err := os.Stat(out + ".dot"); err != nil {
		t.Error(err)
	}
}

func TestCachePathCommand(t *testing.T) {
	base := isolate(t)
	out, err := execute(t, "cache", "path")
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(base, "cache", config.AppName); strings.TrimSpace(out) != want {
		t.Errorf("cache path = %q, want %q", out, want)
	}
}

func TestCachePathFromConfig(t *testing.T) {
	base := isolate(t)
	dir := filepath.Join(base, "elsewhere")
	cfg := writeFile(t, base, "hypercut.toml", "[cache]\ndir = \""+filepath.ToSlash(dir)+"\"\n")

	out, err := execute(t, "--config", cfg, "cache", "path")
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) != dir {
		t.Errorf("cache path = %q, want %q", out, dir)
	}
}

func TestInvalidConfigFails(t *testing.T) {
	base := isolate(t)
	cfg := writeFile(t, base, "hypercut.toml", "[cache]\nbackend = \"tape\"\n")
	if _, err := execute(t, "--config", cfg, "cache", "path"); err == nil {
		t.Error("expected error for an invalid config file")
	}
}

func TestCompletionCommand(t *testing.T) {
	isolate(t)
	out, err := execute(t, "completion", "bash")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "hypercut") {
		t.Error("bash completion should mention the command name")
	}
	if _, err := execute(t, "completion", "tcsh"); err == nil {
		t.Error("expected error for unsupported shell")
	}
}
