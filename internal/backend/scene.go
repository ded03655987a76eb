// Package backend provides concrete host implementations for the relay.
// This file implements the "scene" host: an in-memory scene graph with named
// text buffers, a scripting hook that runs source through an external
// interpreter, and a renderer that writes a YAML snapshot of the scene.
package backend

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/mfulz/scenerelay/interfaces"
	"github.com/mfulz/scenerelay/internal/logging"
)

const (
	defaultCodeTimeout = 30 * time.Second
	projectPrefix      = "//"
)

var defaultInterpreter = []string{"sh", "-c"}

// Object is one primitive in the scene.
type Object struct {
	ID       string                   `yaml:"id"`
	Name     string                   `yaml:"name"`
	Kind     interfaces.PrimitiveKind `yaml:"kind"`
	Location [3]float64               `yaml:"location,flow"`
	Size     float64                  `yaml:"size"`
}

// Snapshot is what RenderScene writes.
type Snapshot struct {
	RenderedAt  string   `yaml:"rendered_at"`
	Objects     []Object `yaml:"objects"`
	TextBuffers []string `yaml:"text_buffers,omitempty"`
}

// Scene is the reference Host.
type Scene struct {
	mu          sync.Mutex
	objects     []Object
	counters    map[interfaces.PrimitiveKind]int
	buffers     map[string]string
	interpreter []string
	projectDir  string
	codeTimeout time.Duration
}

func init() {
	interfaces.RegisterHost("scene", NewScene())
}

// NewScene returns an empty scene with default settings.
func NewScene() *Scene {
	return &Scene{
		counters:    make(map[interfaces.PrimitiveKind]int),
		buffers:     make(map[string]string),
		interpreter: defaultInterpreter,
		projectDir:  ".",
		codeTimeout: defaultCodeTimeout,
	}
}

// Configure reads interpreter, project_dir and code_timeout.
func (s *Scene) Configure(cfg map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if raw, ok := cfg["interpreter"]; ok {
		interp, err := stringList(raw)
		if err != nil {
			return fmt.Errorf("interpreter: %w", err)
		}
		if len(interp) == 0 {
			return fmt.Errorf("interpreter: must not be empty")
		}
		s.interpreter = interp
	}

	if raw, ok := cfg["project_dir"]; ok {
		dir, ok := raw.(string)
		if !ok || dir == "" {
			return fmt.Errorf("project_dir: expected non-empty string, got %v", raw)
		}
		s.projectDir = dir
	}

	if raw, ok := cfg["code_timeout"]; ok {
		d, err := duration(raw)
		if err != nil {
			return fmt.Errorf("code_timeout: %w", err)
		}
		s.codeTimeout = d
	}

	logging.Log.Debugf("[scene] Configured interpreter=%v project_dir=%s code_timeout=%s", s.interpreter, s.projectDir, s.codeTimeout)
	return nil
}

// CreatePrimitive adds an object named after its kind ("Cube", "Cube.001", ...).
func (s *Scene) CreatePrimitive(kind interfaces.PrimitiveKind, location interfaces.Vector, size float64) error {
	switch kind {
	case interfaces.PrimitiveCube, interfaces.PrimitiveSphere:
	default:
		return fmt.Errorf("unsupported primitive kind %q", kind)
	}
	if size <= 0 {
		return fmt.Errorf("%s size must be positive, got %v", kind, size)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.counters[kind]
	s.counters[kind] = n + 1
	name := displayName(kind)
	if n > 0 {
		name = fmt.Sprintf("%s.%03d", name, n)
	}

	s.objects = append(s.objects, Object{
		ID:       uuid.NewString(),
		Name:     name,
		Kind:     kind,
		Location: location,
		Size:     size,
	})
	logging.Log.Debugf("[scene] Created %s at %v", name, location)
	return nil
}

// DeleteAll clears the scene. Text buffers are kept.
func (s *Scene) DeleteAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	logging.Log.Debugf("[scene] Deleting %d objects", len(s.objects))
	s.objects = nil
	s.counters = make(map[interfaces.PrimitiveKind]int)
	return nil
}

// RunCode executes source with the configured interpreter.
func (s *Scene) RunCode(source string) (string, error) {
	s.mu.Lock()
	interp := append([]string(nil), s.interpreter...)
	dir := s.projectDir
	timeout := s.codeTimeout
	count := len(s.objects)
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, interp[0], append(interp[1:], source)...)
	cmd.Dir = dir
	cmd.WaitDelay = time.Second
	cmd.Env = append(os.Environ(),
		"SCENERELAY_PROJECT_DIR="+dir,
		fmt.Sprintf("SCENERELAY_OBJECT_COUNT=%d", count),
	)

	out, err := cmd.CombinedOutput()
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return string(out), fmt.Errorf("timed out after %s", timeout)
	}
	if err != nil {
		detail := strings.TrimSpace(string(out))
		if detail == "" {
			return "", err
		}
		return string(out), fmt.Errorf("%w: %s", err, detail)
	}
	return string(out), nil
}

// RenderScene writes a YAML snapshot. A leading "//" is relative to project_dir.
func (s *Scene) RenderScene(path string) error {
	target := s.resolvePath(path)

	s.mu.Lock()
	snap := Snapshot{
		RenderedAt:  time.Now().UTC().Format(time.RFC3339),
		Objects:     append([]Object(nil), s.objects...),
		TextBuffers: s.bufferNamesLocked(),
	}
	s.mu.Unlock()

	data, err := yaml.Marshal(&snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create render dir: %w", err)
	}
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return fmt.Errorf("write render: %w", err)
	}
	logging.Log.Infof("[scene] Rendered %d objects to %s", len(snap.Objects), target)
	return nil
}

// WriteTextBuffer creates or replaces a named buffer.
func (s *Scene) WriteTextBuffer(name, content string) error {
	if name == "" {
		return fmt.Errorf("text buffer name must not be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buffers[name] = content
	return nil
}

// RunTextBuffer runs the content of a named buffer through RunCode.
func (s *Scene) RunTextBuffer(name string) (string, error) {
	s.mu.Lock()
	content, ok := s.buffers[name]
	s.mu.Unlock()

	if !ok {
		return "", fmt.Errorf("%q: %w", name, interfaces.ErrTextBufferNotFound)
	}
	return s.RunCode(content)
}

// Objects returns a copy of the scene content.
func (s *Scene) Objects() []Object {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Object(nil), s.objects...)
}

// TextBuffer returns the content of a named buffer.
func (s *Scene) TextBuffer(name string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	content, ok := s.buffers[name]
	return content, ok
}

func (s *Scene) resolvePath(path string) string {
	if !strings.HasPrefix(path, projectPrefix) {
		return path
	}
	s.mu.Lock()
	dir := s.projectDir
	s.mu.Unlock()
	return filepath.Join(dir, strings.TrimPrefix(path, projectPrefix))
}

func (s *Scene) bufferNamesLocked() []string {
	names := make([]string, 0, len(s.buffers))
	for name := range s.buffers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func displayName(kind interfaces.PrimitiveKind) string {
	k := string(kind)
	return strings.ToUpper(k[:1]) + k[1:]
}

func stringList(raw any) ([]string, error) {
	switch v := raw.(type) {
	case string:
		return strings.Fields(v), nil
	case []string:
		return v, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			str, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("expected strings, got %T", item)
			}
			out = append(out, str)
		}
		return out, nil
	}
	return nil, fmt.Errorf("expected list of strings, got %T", raw)
}

func duration(raw any) (time.Duration, error) {
	switch v := raw.(type) {
	case string:
		return time.ParseDuration(v)
	case int:
		return time.Duration(v) * time.Second, nil
	case float64:
		return time.Duration(v * float64(time.Second)), nil
	case time.Duration:
		return v, nil
	}
	return 0, fmt.Errorf("expected duration, got %T", raw)
}
