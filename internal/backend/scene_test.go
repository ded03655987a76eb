package backend

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mfulz/scenerelay/interfaces"
)

func TestSceneRegistered(t *testing.T) {
	h, err := interfaces.GetHost("scene")
	if err != nil {
		t.Fatalf("GetHost: %v", err)
	}
	if _, ok := h.(*Scene); !ok {
		t.Errorf("scene host is %T", h)
	}
}

func TestCreatePrimitiveNaming(t *testing.T) {
	s := NewScene()
	for i := 0; i < 3; i++ {
		if err := s.CreatePrimitive(interfaces.PrimitiveCube, interfaces.Vector{float64(i), 0, 0}, 2); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.CreatePrimitive(interfaces.PrimitiveSphere, interfaces.Vector{}, 1); err != nil {
		t.Fatal(err)
	}

	objs := s.Objects()
	var names []string
	for _, o := range objs {
		names = append(names, o.Name)
		if o.ID == "" {
			t.Errorf("%s has no id", o.Name)
		}
	}
	if got := strings.Join(names, ","); got != "Cube,Cube.001,Cube.002,Sphere" {
		t.Errorf("names = %s", got)
	}
	if objs[2].Location != [3]float64{2, 0, 0} {
		t.Errorf("location = %v", objs[2].Location)
	}
}

func TestCreatePrimitiveRejectsBadInput(t *testing.T) {
	s := NewScene()
	if err := s.CreatePrimitive("torus", interfaces.Vector{}, 1); err == nil {
		t.Error("expected error for unknown kind")
	}
	if err := s.CreatePrimitive(interfaces.PrimitiveCube, interfaces.Vector{}, 0); err == nil {
		t.Error("expected error for zero size")
	}
	if len(s.Objects()) != 0 {
		t.Error("invalid primitive was added")
	}
}

func TestDeleteAllResetsNaming(t *testing.T) {
	s := NewScene()
	_ = s.CreatePrimitive(interfaces.PrimitiveCube, interfaces.Vector{}, 1)
	_ = s.WriteTextBuffer("keep", "echo")
	if err := s.DeleteAll(); err != nil {
		t.Fatal(err)
	}
	if len(s.Objects()) != 0 {
		t.Fatal("objects left after DeleteAll")
	}
	if _, ok := s.TextBuffer("keep"); !ok {
		t.Error("DeleteAll removed text buffers")
	}
	_ = s.CreatePrimitive(interfaces.PrimitiveCube, interfaces.Vector{}, 1)
	if name := s.Objects()[0].Name; name != "Cube" {
		t.Errorf("name after reset = %q", name)
	}
}

func TestRenderSceneWritesSnapshot(t *testing.T) {
	dir := t.TempDir()
	s := NewScene()
	if err := s.Configure(map[string]any{"project_dir": dir}); err != nil {
		t.Fatal(err)
	}
	_ = s.CreatePrimitive(interfaces.PrimitiveSphere, interfaces.Vector{1, 2, 3}, 1.5)
	_ = s.WriteTextBuffer("setup.sh", "true")

	if err := s.RenderScene("//renders/out.yaml"); err != nil {
		t.Fatalf("RenderScene: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "renders", "out.yaml"))
	if err != nil {
		t.Fatalf("read render: %v", err)
	}
	var snap struct {
		Objects []struct {
			Name     string    `yaml:"name"`
			Kind     string    `yaml:"kind"`
			Location []float64 `yaml:"location"`
			Size     float64   `yaml:"size"`
		} `yaml:"objects"`
		TextBuffers []string `yaml:"text_buffers"`
	}
	if err := yaml.Unmarshal(data, &snap); err != nil {
		t.Fatalf("parse render: %v", err)
	}
	if len(snap.Objects) != 1 || snap.Objects[0].Name != "Sphere" || snap.Objects[0].Size != 1.5 {
		t.Fatalf("objects = %+v", snap.Objects)
	}
	if len(snap.Objects[0].Location) != 3 || snap.Objects[0].Location[2] != 3 {
		t.Errorf("location = %v", snap.Objects[0].Location)
	}
	if len(snap.TextBuffers) != 1 || snap.TextBuffers[0] != "setup.sh" {
		t.Errorf("text buffers = %v", snap.TextBuffers)
	}
}

func TestRenderSceneAbsolutePath(t *testing.T) {
	target := filepath.Join(t.TempDir(), "abs.yaml")
	if err := NewScene().RenderScene(target); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(target); err != nil {
		t.Errorf("render missing: %v", err)
	}
}

func TestRunCode(t *testing.T) {
	s := NewScene()
	_ = s.CreatePrimitive(interfaces.PrimitiveCube, interfaces.Vector{}, 1)

	out, err := s.RunCode(`echo "objects=$SCENERELAY_OBJECT_COUNT"`)
	if err != nil {
		t.Fatalf("RunCode: %v", err)
	}
	if strings.TrimSpace(out) != "objects=1" {
		t.Errorf("output = %q", out)
	}
}

func TestRunCodeFailure(t *testing.T) {
	s := NewScene()
	_, err := s.RunCode(`echo "boom happened" >&2; exit 3`)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "boom happened") {
		t.Errorf("err = %v, want stderr detail", err)
	}
}

func TestRunCodeTimeout(t *testing.T) {
	s := NewScene()
	if err := s.Configure(map[string]any{"code_timeout": "100ms"}); err != nil {
		t.Fatal(err)
	}
	start := time.Now()
	_, err := s.RunCode("sleep 5")
	if err == nil || !strings.Contains(err.Error(), "timed out") {
		t.Errorf("err = %v", err)
	}
	if time.Since(start) > 3*time.Second {
		t.Error("timeout not enforced")
	}
}

func TestTextBuffers(t *testing.T) {
	s := NewScene()
	if err := s.WriteTextBuffer("greet", "echo one"); err != nil {
		t.Fatal(err)
	}
	if err := s.WriteTextBuffer("greet", "echo two"); err != nil {
		t.Fatal(err)
	}
	out, err := s.RunTextBuffer("greet")
	if err != nil || strings.TrimSpace(out) != "two" {
		t.Errorf("RunTextBuffer = %q, %v", out, err)
	}
	if _, err := s.RunTextBuffer("nope"); !errors.Is(err, interfaces.ErrTextBufferNotFound) {
		t.Errorf("missing buffer err = %v", err)
	}
	if err := s.WriteTextBuffer("", "x"); err == nil {
		t.Error("expected error for empty name")
	}
}

func TestConfigure(t *testing.T) {
	s := NewScene()
	err := s.Configure(map[string]any{
		"interpreter":  []any{"bash", "-c"},
		"code_timeout": 2,
	})
	if err != nil {
		t.Fatalf("Configure: %v", err)
	}
	if strings.Join(s.interpreter, " ") != "bash -c" || s.codeTimeout != 2*time.Second {
		t.Errorf("interpreter=%v timeout=%v", s.interpreter, s.codeTimeout)
	}

	bad := []map[string]any{
		{"interpreter": []any{}},
		{"interpreter": []any{1}},
		{"project_dir": ""},
		{"code_timeout": "soon"},
	}
	for _, cfg := range bad {
		if err := NewScene().Configure(cfg); err == nil {
			t.Errorf("Configure(%v): expected error", cfg)
		}
	}
}
