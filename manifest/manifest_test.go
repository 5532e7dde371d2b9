package manifest

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeManifest(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, "objhandles.toml"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, `
[cache]
initial-capacity = 1024

[logging]
verbosity = 2
path = "/tmp/objhandles.log"

[types]
by-handle = ["*pricing.Curve", "*risk.Model"]
`)

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if m.Cache.InitialCapacity != 1024 {
		t.Errorf("InitialCapacity = %d, want 1024", m.Cache.InitialCapacity)
	}
	if m.Logging.Verbosity != 2 {
		t.Errorf("Verbosity = %d, want 2", m.Logging.Verbosity)
	}
	if m.Logging.Path != "/tmp/objhandles.log" {
		t.Errorf("Path = %q, want %q", m.Logging.Path, "/tmp/objhandles.log")
	}
	want := []string{"*pricing.Curve", "*risk.Model"}
	if !reflect.DeepEqual(m.Types.ByHandle, want) {
		t.Errorf("ByHandle = %v, want %v", m.Types.ByHandle, want)
	}
	if m.Dir == "" {
		t.Error("Dir should be set at load time")
	}
}

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "")

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if m.Cache.InitialCapacity != 256 {
		t.Errorf("default InitialCapacity = %d, want 256", m.Cache.InitialCapacity)
	}
	if len(m.Types.ByHandle) != 0 {
		t.Errorf("default ByHandle = %v, want empty", m.Types.ByHandle)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(t.TempDir()); err == nil {
		t.Error("Load of empty directory should fail")
	}
}

func TestLoadBadToml(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "[cache\ninitial-capacity = ")

	if _, err := Load(dir); err == nil {
		t.Error("Load of malformed TOML should fail")
	}
}

func TestFindAndLoadWalksUp(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "[cache]\ninitial-capacity = 32\n")

	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}

	m, err := FindAndLoad(nested)
	if err != nil {
		t.Fatalf("FindAndLoad returned error: %v", err)
	}
	if m == nil {
		t.Fatal("FindAndLoad returned nil, want manifest")
	}
	if m.Cache.InitialCapacity != 32 {
		t.Errorf("InitialCapacity = %d, want 32", m.Cache.InitialCapacity)
	}
}

func TestFindAndLoadNotFound(t *testing.T) {
	m, err := FindAndLoad(t.TempDir())
	if err != nil {
		t.Fatalf("FindAndLoad returned error: %v", err)
	}
	if m != nil {
		t.Errorf("FindAndLoad = %+v, want nil", m)
	}
}
