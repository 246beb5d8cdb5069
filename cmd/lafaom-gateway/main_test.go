package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lafaom-mao/apilocale"
	"github.com/lafaom-mao/apilocale/cache"
	"github.com/lafaom-mao/apilocale/store"
)

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(args, &stdout, &stderr)
	return stdout.String(), err
}

// diskConfig writes a config using a disk store under a temp dir.
func diskConfig(t *testing.T) (path, folder string) {
	t.Helper()
	dir := t.TempDir()
	folder = filepath.Join(dir, "store")
	path = filepath.Join(dir, "gateway.yaml")

	yaml := "cache:\n  store: disk\n  folder: " + folder + "\ntranslation:\n  endpoint: mock\nlogging:\n  level: error\n"
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}
	return path, folder
}

func TestRun_Version(t *testing.T) {
	out, err := runCmd(t, "version")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.HasPrefix(out, apilocale.Name+" "+apilocale.Version) {
		t.Errorf("expected version output, got: %s", out)
	}
}

func TestRun_VersionIgnoresBadConfig(t *testing.T) {
	if _, err := runCmd(t, "--config", "/does/not/exist.yaml", "version"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRun_UnknownCommand(t *testing.T) {
	if _, err := runCmd(t, "frobnicate"); err == nil {
		t.Fatal("expected error for unknown command")
	}
}

func TestRun_TranslateMock(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{[]string{"Bonjour"}, "Hello"},
		{[]string{"Bienvenue", "sur", "notre", "site."}, "Welcome to our site."},
		{[]string{"Soudure"}, "[en] Soudure"},
	}

	for _, tt := range tests {
		args := append([]string{"translate", "--endpoint", "mock", "--lang", "en", "--log-level", "error"}, tt.args...)
		out, err := runCmd(t, args...)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := strings.TrimSpace(out); got != tt.want {
			t.Errorf("translate %v = %q, want %q", tt.args, got, tt.want)
		}
	}
}

func TestRun_TranslateSourceLanguage(t *testing.T) {
	out, err := runCmd(t, "translate", "--endpoint", "mock", "--lang", "fr", "Bonjour")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(out) != "Bonjour" {
		t.Errorf("expected untouched text, got %q", out)
	}
}

func TestRun_TranslateMissingLang(t *testing.T) {
	_, err := runCmd(t, "translate", "--endpoint", "mock", "Bonjour")
	if err == nil {
		t.Fatal("expected error for missing --lang")
	}
	if !strings.Contains(err.Error(), `"lang"`) {
		t.Errorf("expected missing lang error, got: %v", err)
	}
}

func TestRun_InvalidLogLevel(t *testing.T) {
	_, err := runCmd(t, "translate", "--log-level", "loud", "--lang", "en", "Bonjour")
	if err == nil || !strings.Contains(err.Error(), "invalid log level") {
		t.Fatalf("expected log level error, got: %v", err)
	}
}

func TestRun_ServeRequiresBackend(t *testing.T) {
	_, err := runCmd(t, "serve", "--endpoint", "mock")
	if err == nil || !strings.Contains(err.Error(), "backend URL is required") {
		t.Fatalf("expected backend error, got: %v", err)
	}
}

func TestRun_CacheClear(t *testing.T) {
	configPath, folder := diskConfig(t)
	ctx := context.Background()

	st, err := store.NewDiskStore(folder)
	if err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{
		apilocale.ResponseKey("en", "GET", "/trainings"),
		apilocale.ResponseKey("en", "GET", "/news?page=2"),
		apilocale.ResponseKey("es", "GET", "/trainings"),
		apilocale.PersistentKey("en", "Bonjour"),
	} {
		if err := st.Set(ctx, key, `{}`); err != nil {
			t.Fatal(err)
		}
	}

	out, err := runCmd(t, "--config", configPath, "cache", "clear", "--lang", "en-GB")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "Removed 2 cached responses") {
		t.Errorf("unexpected output: %s", out)
	}

	out, err = runCmd(t, "--config", configPath, "cache", "clear", "--translations")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "Removed 1 cached responses") || !strings.Contains(out, "Removed 1 cached translations") {
		t.Errorf("unexpected output: %s", out)
	}

	keys, err := st.Keys(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(keys) != 0 {
		t.Errorf("expected empty store, got %v", keys)
	}
}

func TestRun_CacheImportExport(t *testing.T) {
	configPath, _ := diskConfig(t)
	dir := t.TempDir()

	importFile := filepath.Join(dir, "import.json")
	data, err := json.Marshal(cache.ExportFormat{
		Version: cache.ExportVersion,
		Entries: []cache.ExportEntry{
			{Key: "en:Formation continue", Value: "Continuing education"},
			{Key: "", Value: "orphan"},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(importFile, data, 0644); err != nil {
		t.Fatal(err)
	}

	out, err := runCmd(t, "--config", configPath, "cache", "import", importFile)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "Imported 1 translations (1 failed)") {
		t.Errorf("unexpected output: %s", out)
	}

	// the persisted translation wins over the endpoint
	out, err = runCmd(t, "--config", configPath, "translate", "--lang", "en", "Formation continue")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(out) != "Continuing education" {
		t.Errorf("expected imported translation, got %q", out)
	}

	exportFile := filepath.Join(dir, "export.json")
	if _, err := runCmd(t, "--config", configPath, "cache", "export", exportFile); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	raw, err := os.ReadFile(exportFile)
	if err != nil {
		t.Fatal(err)
	}
	var export cache.ExportFormat
	if err := json.Unmarshal(raw, &export); err != nil {
		t.Fatal(err)
	}
	if len(export.Entries) != 1 || export.Entries[0].Value != "Continuing education" {
		t.Errorf("unexpected export entries: %+v", export.Entries)
	}
	if export.Metadata["source_lang"] != "fr" {
		t.Errorf("expected source_lang metadata, got %v", export.Metadata)
	}
}

func TestRun_CachePurge(t *testing.T) {
	configPath, folder := diskConfig(t)
	ctx := context.Background()

	st, err := store.NewDiskStore(folder)
	if err != nil {
		t.Fatal(err)
	}
	if err := st.Set(ctx, apilocale.ResponseKey("en", "GET", "/trainings"), "not json"); err != nil {
		t.Fatal(err)
	}
	if err := st.Set(ctx, apilocale.PersistentKey("en", "Bonjour"), "not json"); err != nil {
		t.Fatal(err)
	}

	out, err := runCmd(t, "--config", configPath, "cache", "purge")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "Removed 1 responses and 1 translations") {
		t.Errorf("unexpected output: %s", out)
	}
}
