package fsutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestExpandHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)

	cases := map[string]string{
		"":          "",
		"/tmp":      "/tmp",
		"~":         home,
		"~/models":  filepath.Join(home, "models"),
		"~user/x":   "~user/x",
		"rel/~/dir": "rel/~/dir",
	}
	for in, want := range cases {
		got, err := ExpandHome(in)
		if err != nil {
			t.Fatalf("ExpandHome(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("ExpandHome(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestAbs(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)
	got, err := Abs("~/a/../b")
	if err != nil {
		t.Fatalf("abs: %v", err)
	}
	if got != filepath.Join(home, "b") {
		t.Fatalf("unexpected abs path: %q", got)
	}
}

func TestRegularFile(t *testing.T) {
	d := t.TempDir()
	p := filepath.Join(d, "m.gguf")
	if err := os.WriteFile(p, []byte("abcd"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if n, ok := RegularFile(p); !ok || n != 4 {
		t.Fatalf("RegularFile(file) = %d, %v", n, ok)
	}
	if _, ok := RegularFile(d); ok {
		t.Fatalf("directory reported as regular file")
	}
	if _, ok := RegularFile(filepath.Join(d, "missing")); ok {
		t.Fatalf("missing file reported as present")
	}
}
