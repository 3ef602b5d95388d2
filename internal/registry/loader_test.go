package registry

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func touch(t *testing.T, dir, name string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte("gguf"), 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return p
}

func TestLoadDir_FiltersGGUF(t *testing.T) {
	dir := t.TempDir()
	for _, f := range []string{"b.GGUF", "a.gguf", "not-model.txt", "model.bin"} {
		touch(t, dir, f)
	}
	if err := os.Mkdir(filepath.Join(dir, "sub.gguf"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	models, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("scan error: %v", err)
	}
	if len(models) != 2 || models[0].ID != "a.gguf" || models[1].ID != "b.GGUF" {
		t.Fatalf("unexpected models: %+v", models)
	}
	if models[0].SizeBytes != 4 {
		t.Fatalf("size not recorded: %+v", models[0])
	}
}

func TestLoadDir_ExpandHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)
	if err := os.Mkdir(filepath.Join(home, "models"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	touch(t, filepath.Join(home, "models"), "x.gguf")
	models, err := LoadDir("~/models")
	if err != nil {
		t.Fatalf("scan error: %v", err)
	}
	if len(models) != 1 || models[0].ID != "x.gguf" {
		t.Fatalf("unexpected models: %+v", models)
	}
}

func TestDescribe_QuantAndFamily(t *testing.T) {
	dir := t.TempDir()
	cases := []struct {
		file, name, quant, family string
	}{
		{"llama-2-7b-chat.Q4_K_M.gguf", "llama-2-7b-chat", "Q4_K_M", "llama"},
		{"Mistral-7B-Instruct-v0.2-q8_0.gguf", "Mistral-7B-Instruct-v0.2", "Q8_0", "mistral"},
		{"phi-2.F16.gguf", "phi-2", "F16", "phi"},
		{"custom.gguf", "custom", "", ""},
	}
	for _, tc := range cases {
		m, ok := describe(touch(t, dir, tc.file))
		if !ok {
			t.Fatalf("%s: not described", tc.file)
		}
		if m.ID != tc.file || m.Name != tc.name || m.Quant != tc.quant || m.Family != tc.family {
			t.Fatalf("%s: unexpected model %+v", tc.file, m)
		}
	}
}

func TestResolve(t *testing.T) {
	dir := t.TempDir()
	a := touch(t, dir, "a.Q4_0.gguf")
	touch(t, dir, "b.Q4_0.gguf")

	m, err := Resolve(a, "ignored")
	if err != nil || m.Path != a {
		t.Fatalf("file path: %+v err=%v", m, err)
	}
	m, err = Resolve(dir, "")
	if err != nil || m.ID != "a.Q4_0.gguf" {
		t.Fatalf("first in dir: %+v err=%v", m, err)
	}
	m, err = Resolve(dir, "b")
	if err != nil || m.ID != "b.Q4_0.gguf" {
		t.Fatalf("by name: %+v err=%v", m, err)
	}
	if _, err := Resolve(dir, "zzz"); !errors.Is(err, ErrNoModel) {
		t.Fatalf("expected ErrNoModel for unknown name, got %v", err)
	}
	if _, err := Resolve(t.TempDir(), ""); !errors.Is(err, ErrNoModel) {
		t.Fatalf("expected ErrNoModel for empty dir, got %v", err)
	}
	if _, err := Resolve(filepath.Join(dir, "missing.gguf"), ""); !errors.Is(err, ErrNoModel) {
		t.Fatalf("expected ErrNoModel for missing file, got %v", err)
	}
	txt := touch(t, dir, "notes.txt")
	if _, err := Resolve(txt, ""); !errors.Is(err, ErrNoModel) {
		t.Fatalf("expected ErrNoModel for non-gguf file, got %v", err)
	}
}
