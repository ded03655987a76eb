// Package interfaces defines the capabilities a host application must provide
// to the relay and the sink that receives execution outcomes.
// Each host (the built-in scene backend, an embedding application) implements Host.
package interfaces

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// PrimitiveKind names a mesh primitive the host can create.
type PrimitiveKind string

const (
	PrimitiveCube   PrimitiveKind = "cube"
	PrimitiveSphere PrimitiveKind = "sphere"
)

// Vector is a location in scene space.
type Vector [3]float64

// ErrTextBufferNotFound is returned by RunTextBuffer for an unknown name.
var ErrTextBufferNotFound = errors.New("text buffer not found")

// Host defines the operations actions may perform on the host application.
// Every call is synchronous and is made from the host's designated thread.
type Host interface {
	// CreatePrimitive adds a primitive at location. size is the edge length
	// for cubes and the radius for spheres.
	CreatePrimitive(kind PrimitiveKind, location Vector, size float64) error

	// DeleteAll removes every object from the scene.
	DeleteAll() error

	// RunCode executes source through the host's scripting hook and returns
	// its output. A failing script returns an error describing the failure.
	RunCode(source string) (string, error)

	// RenderScene renders the current scene to path.
	RenderScene(path string) error

	// WriteTextBuffer creates the named buffer, or replaces its content.
	WriteTextBuffer(name, content string) error

	// RunTextBuffer executes the content of a named buffer.
	RunTextBuffer(name string) (string, error)

	// Configure allows setting host-specific configuration parameters.
	// This is called once before the relay starts.
	Configure(config map[string]any) error
}

// Outcome is the result of executing one queued action.
type Outcome struct {
	ID      string
	Label   string
	Success bool
	Message string
	At      time.Time
}

// Reporter receives one Outcome per executed action.
type Reporter interface {
	Report(o Outcome)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(o Outcome)

func (f ReporterFunc) Report(o Outcome) { f(o) }

// MultiReporter fans an outcome out to every sink in order.
type MultiReporter []Reporter

func (m MultiReporter) Report(o Outcome) {
	for _, r := range m {
		if r != nil {
			r.Report(o)
		}
	}
}

var (
	hostsMu         sync.RWMutex
	registeredHosts = make(map[string]Host)
)

// RegisterHost adds a new host to the global registry under a unique name.
func RegisterHost(name string, host Host) {
	hostsMu.Lock()
	defer hostsMu.Unlock()
	if _, exists := registeredHosts[name]; exists {
		panic(fmt.Sprintf("host already registered: %s", name))
	}
	registeredHosts[name] = host
}

// GetHost retrieves a previously registered host by name.
func GetHost(name string) (Host, error) {
	hostsMu.RLock()
	defer hostsMu.RUnlock()
	h, ok := registeredHosts[name]
	if !ok {
		return nil, fmt.Errorf("no host registered with name: %s", name)
	}
	return h, nil
}
