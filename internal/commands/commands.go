// Package commands provides the action factories for every command relayd
// understands. Factories only read parameters; all host calls happen when the
// returned action runs on the designated thread.
package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/mfulz/scenerelay/dispatch"
	"github.com/mfulz/scenerelay/interfaces"
	"github.com/mfulz/scenerelay/protocol"
)

// Parameter defaults.
const (
	DefaultCubeSize     = 2.0
	DefaultSphereRadius = 1.0
	DefaultRenderPath   = "//render.png"
)

// now is replaced in tests.
var now = time.Now

// Register installs every command factory bound to host.
func Register(table *dispatch.Table, host interfaces.Host) {
	table.Register(protocol.CmdCreateCube, CreateCube(host))
	table.Register(protocol.CmdCreateSphere, CreateSphere(host))
	table.Register(protocol.CmdDeleteAll, DeleteAll(host))
	table.Register(protocol.CmdExecuteCode, ExecuteCode(host))
	table.Register(protocol.CmdRenderScene, RenderScene(host))
	table.Register(protocol.CmdCreateTextBlock, CreateTextBlock(host))
	table.Register(protocol.CmdExecuteTextBlock, ExecuteTextBlock(host))
}

// failed defers a parameter error to execution time.
func failed(err error) dispatch.Action {
	return func() (string, error) { return "", err }
}

func CreateCube(host interfaces.Host) dispatch.Factory {
	return func(params protocol.Params) dispatch.Action {
		location, err := params.Vector("location", [3]float64{})
		if err != nil {
			return failed(err)
		}
		size, err := params.Float("size", DefaultCubeSize)
		if err != nil {
			return failed(err)
		}

		return func() (string, error) {
			if err := host.CreatePrimitive(interfaces.PrimitiveCube, interfaces.Vector(location), size); err != nil {
				return "", fmt.Errorf("create cube: %w", err)
			}
			return "Cube created", nil
		}
	}
}

func CreateSphere(host interfaces.Host) dispatch.Factory {
	return func(params protocol.Params) dispatch.Action {
		location, err := params.Vector("location", [3]float64{})
		if err != nil {
			return failed(err)
		}
		radius, err := params.Float("radius", DefaultSphereRadius)
		if err != nil {
			return failed(err)
		}

		return func() (string, error) {
			if err := host.CreatePrimitive(interfaces.PrimitiveSphere, interfaces.Vector(location), radius); err != nil {
				return "", fmt.Errorf("create sphere: %w", err)
			}
			return "Sphere created", nil
		}
	}
}

func DeleteAll(host interfaces.Host) dispatch.Factory {
	return func(protocol.Params) dispatch.Action {
		return func() (string, error) {
			if err := host.DeleteAll(); err != nil {
				return "", fmt.Errorf("delete all: %w", err)
			}
			return "All objects deleted", nil
		}
	}
}

func ExecuteCode(host interfaces.Host) dispatch.Factory {
	return func(params protocol.Params) dispatch.Action {
		code, err := params.String("code", "")
		if err != nil {
			return failed(err)
		}

		return func() (string, error) {
			out, err := host.RunCode(code)
			if err != nil {
				return "", fmt.Errorf("error executing code: %w", err)
			}
			return withOutput("Code executed successfully", out), nil
		}
	}
}

func RenderScene(host interfaces.Host) dispatch.Factory {
	return func(params protocol.Params) dispatch.Action {
		path, err := params.String("filepath", DefaultRenderPath)
		if err != nil {
			return failed(err)
		}

		return func() (string, error) {
			if err := host.RenderScene(path); err != nil {
				return "", fmt.Errorf("render scene: %w", err)
			}
			return fmt.Sprintf("Scene rendered to %s", path), nil
		}
	}
}

func CreateTextBlock(host interfaces.Host) dispatch.Factory {
	return func(params protocol.Params) dispatch.Action {
		code, err := params.String("code", "")
		if err != nil {
			return failed(err)
		}
		name, err := params.String("name", "")
		if err != nil {
			return failed(err)
		}
		execute, err := params.Bool("execute", false)
		if err != nil {
			return failed(err)
		}

		return func() (string, error) {
			textName := name
			if textName == "" {
				textName = fmt.Sprintf("script_%s.py", now().Format("20060102_150405"))
			}

			if err := host.WriteTextBuffer(textName, code); err != nil {
				return "", fmt.Errorf("error creating text block '%s': %w", textName, err)
			}
			if !execute {
				return fmt.Sprintf("Text block '%s' created (execution not requested)", textName), nil
			}

			out, err := host.RunTextBuffer(textName)
			if err != nil {
				return "", fmt.Errorf("text block '%s' created but execution failed: %w", textName, err)
			}
			return withOutput(fmt.Sprintf("Text block '%s' created and executed", textName), out), nil
		}
	}
}

func ExecuteTextBlock(host interfaces.Host) dispatch.Factory {
	return func(params protocol.Params) dispatch.Action {
		name, err := params.String("name", "")
		if err != nil {
			return failed(err)
		}

		return func() (string, error) {
			if name == "" {
				return "", fmt.Errorf("text block '': %w", interfaces.ErrTextBufferNotFound)
			}
			out, err := host.RunTextBuffer(name)
			if err != nil {
				return "", fmt.Errorf("error executing text block '%s': %w", name, err)
			}
			return withOutput(fmt.Sprintf("Text block '%s' executed", name), out), nil
		}
	}
}

func withOutput(msg, out string) string {
	out = strings.TrimSpace(out)
	if out == "" {
		return msg
	}
	return msg + ": " + out
}
