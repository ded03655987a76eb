package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mfulz/scenerelay/internal/commands"
	"github.com/mfulz/scenerelay/internal/controlcli"
	"github.com/mfulz/scenerelay/protocol"
)

var (
	rawParams []string
	location  []float64
	cubeSize  float64
	radius    float64
)

// SendCmd sends any command with raw parameters.
var SendCmd = &cobra.Command{
	Use:   "send <command>",
	Short: "Send an arbitrary command",
	Long: `Send a command with key=value parameters. Values that parse as JSON keep
their type, everything else is sent as a string.

Example:
  relayctl send create_cube --param 'location=[0,0,2]' --param size=1.5`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		params, err := controlcli.ParseParams(rawParams)
		if err != nil {
			return err
		}
		return send(cmd.Context(), args[0], params)
	},
}

// CubeCmd creates a cube.
var CubeCmd = &cobra.Command{
	Use:   "cube",
	Short: "Create a cube",
	RunE: func(cmd *cobra.Command, args []string) error {
		loc, err := vector(location)
		if err != nil {
			return err
		}
		return send(cmd.Context(), protocol.CmdCreateCube, protocol.Params{"location": loc[:], "size": cubeSize})
	},
}

// SphereCmd creates a sphere.
var SphereCmd = &cobra.Command{
	Use:   "sphere",
	Short: "Create a sphere",
	RunE: func(cmd *cobra.Command, args []string) error {
		loc, err := vector(location)
		if err != nil {
			return err
		}
		return send(cmd.Context(), protocol.CmdCreateSphere, protocol.Params{"location": loc[:], "radius": radius})
	},
}

// DeleteAllCmd clears the scene.
var DeleteAllCmd = &cobra.Command{
	Use:   "delete-all",
	Short: "Delete every object in the scene",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return send(cmd.Context(), protocol.CmdDeleteAll, nil)
	},
}

// ExecCmd runs code on the host.
var ExecCmd = &cobra.Command{
	Use:   "exec <code>",
	Short: "Execute code on the host",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return send(cmd.Context(), protocol.CmdExecuteCode, protocol.Params{"code": strings.Join(args, " ")})
	},
}

// RenderCmd renders the scene.
var RenderCmd = &cobra.Command{
	Use:   "render [path]",
	Short: "Render the scene (default " + commands.DefaultRenderPath + ")",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := commands.DefaultRenderPath
		if len(args) == 1 {
			path = args[0]
		}
		return send(cmd.Context(), protocol.CmdRenderScene, protocol.Params{"filepath": path})
	},
}

func vector(v []float64) ([3]float64, error) {
	var out [3]float64
	switch len(v) {
	case 0:
		return out, nil
	case 3:
		copy(out[:], v)
		return out, nil
	}
	parts := make([]string, len(v))
	for i, f := range v {
		parts[i] = strconv.FormatFloat(f, 'g', -1, 64)
	}
	return out, fmt.Errorf("location needs x,y,z; got %s", strings.Join(parts, ","))
}

func init() {
	SendCmd.Flags().StringArrayVarP(&rawParams, "param", "p", nil, "parameter as key=value (repeatable)")

	CubeCmd.Flags().Float64SliceVar(&location, "location", nil, "x,y,z (default 0,0,0)")
	CubeCmd.Flags().Float64Var(&cubeSize, "size", commands.DefaultCubeSize, "edge length")

	SphereCmd.Flags().Float64SliceVar(&location, "location", nil, "x,y,z (default 0,0,0)")
	SphereCmd.Flags().Float64Var(&radius, "radius", commands.DefaultSphereRadius, "radius")
}
