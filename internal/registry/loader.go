package registry

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"predictd/internal/common/fsutil"
	"predictd/pkg/types"
)

// ErrNoModel is returned when no weights can be found at the configured path.
var ErrNoModel = errors.New("no gguf model found")

// quantRe matches llama.cpp quantization suffixes such as Q4_K_M, Q8_0, IQ3_XS, F16.
var quantRe = regexp.MustCompile(`(?i)(?:^|[.\-_])((?:I?Q\d(?:_[A-Z0-9]+)*)|F16|F32|BF16)$`)

var families = []string{"codellama", "llama", "mistral", "mixtral", "phi", "qwen", "gemma", "falcon"}

// LoadDir scans a directory for *.gguf files, sorted by file name.
// ID is the full filename (including extension); Path is the absolute file path.
func LoadDir(dir string) ([]types.Model, error) {
	abs, err := fsutil.Abs(dir)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}
	var models []types.Model
	for _, e := range entries {
		if e.IsDir() || !isGGUF(e.Name()) {
			continue
		}
		if m, ok := describe(filepath.Join(abs, e.Name())); ok {
			models = append(models, m)
		}
	}
	sort.Slice(models, func(i, j int) bool { return models[i].ID < models[j].ID })
	return models, nil
}

// Resolve picks the model weights to serve. path may name a .gguf file, in
// which case name is ignored, or a directory. In a directory, name selects a
// file by ID or by Name; an empty name picks the first file.
func Resolve(path, name string) (types.Model, error) {
	abs, err := fsutil.Abs(path)
	if err != nil {
		return types.Model{}, err
	}
	if m, ok := describe(abs); ok {
		return m, nil
	}
	fi, err := os.Stat(abs)
	if err != nil {
		return types.Model{}, fmt.Errorf("%w: %v", ErrNoModel, err)
	}
	if !fi.IsDir() {
		return types.Model{}, fmt.Errorf("%w: %s is not a gguf file", ErrNoModel, abs)
	}
	models, err := LoadDir(abs)
	if err != nil {
		return types.Model{}, err
	}
	if len(models) == 0 {
		return types.Model{}, fmt.Errorf("%w in %s", ErrNoModel, abs)
	}
	if name == "" {
		return models[0], nil
	}
	for _, m := range models {
		if m.ID == name || m.Name == name {
			return m, nil
		}
	}
	return types.Model{}, fmt.Errorf("%w: %q not in %s", ErrNoModel, name, abs)
}

func isGGUF(name string) bool { return strings.HasSuffix(strings.ToLower(name), ".gguf") }

// describe builds a Model from a file name, or reports false when path is
// not a regular .gguf file.
func describe(path string) (types.Model, bool) {
	if !isGGUF(path) {
		return types.Model{}, false
	}
	size, ok := fsutil.RegularFile(path)
	if !ok {
		return types.Model{}, false
	}
	id := filepath.Base(path)
	name := id[:len(id)-len(".gguf")]
	m := types.Model{ID: id, Name: name, Path: path, SizeBytes: size}
	if q := quantRe.FindStringSubmatch(name); q != nil {
		m.Quant = strings.ToUpper(q[1])
		m.Name = strings.TrimRight(name[:len(name)-len(q[1])], ".-_")
	}
	lower := strings.ToLower(m.Name)
	for _, f := range families {
		if strings.Contains(lower, f) {
			m.Family = f
			break
		}
	}
	return m, true
}
