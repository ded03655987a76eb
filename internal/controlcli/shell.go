package controlcli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/mfulz/scenerelay/protocol"
)

const shellHelp = `
BASIC COMMANDS:
  help                              show this help
  create_cube [x y z] [size]        default position (0,0,0), size 2.0
  create_sphere [x y z] [radius]    default position (0,0,0), radius 1.0
  delete_all                        delete every object in the scene
  render_scene [filepath]           default //render.png (relative to the project)

SCRIPTING:
  execute_code <code>               run code on the host
  create_text_block <name> <code>   store code in a named text block
  run_text_block <name> <code>      store and run a text block
  execute_text_block <name>         run an existing text block

RAW:
  send <command> [key=value ...]    send any command; values may be JSON

  exit                              leave the shell
`

// Shell is the interactive line mode of relayctl.
type Shell struct {
	sender *Sender
	out    io.Writer
}

func NewShell(sender *Sender, out io.Writer) *Shell {
	return &Shell{sender: sender, out: out}
}

// Run reads commands from in until "exit", EOF or ctx is done.
// Errors for a single line are printed and the shell continues.
func (s *Shell) Run(ctx context.Context, in io.Reader) error {
	fmt.Fprintln(s.out, "===== Scene Relay Shell =====")
	fmt.Fprintln(s.out, "Type 'help' for a list of available commands")
	fmt.Fprintln(s.out, "Type 'exit' to quit")
	fmt.Fprintf(s.out, "Current user: %s\n", s.sender.cfg.User)
	fmt.Fprintf(s.out, "Current time (UTC): %s\n", time.Now().UTC().Format(protocol.TimestampLayout))

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for {
		fmt.Fprint(s.out, "\nEnter command: ")
		if !scanner.Scan() {
			fmt.Fprintln(s.out)
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		switch strings.ToLower(line) {
		case "exit", "quit":
			return nil
		case "help":
			fmt.Fprint(s.out, shellHelp)
			continue
		}

		if err := s.Exec(ctx, line); err != nil {
			fmt.Fprintf(s.out, "Error: %v\n", err)
		}
	}
}

// Exec parses and sends a single shell line.
func (s *Shell) Exec(ctx context.Context, line string) error {
	cmd, args, _ := strings.Cut(strings.TrimSpace(line), " ")
	cmd = strings.ToLower(cmd)
	args = strings.TrimSpace(args)

	var (
		command string
		params  protocol.Params
	)
	switch cmd {
	case protocol.CmdCreateCube, protocol.CmdCreateSphere:
		location, value, err := parsePrimitive(args)
		if err != nil {
			return err
		}
		command = cmd
		params = protocol.Params{"location": location[:]}
		if value != nil {
			if cmd == protocol.CmdCreateCube {
				params["size"] = *value
			} else {
				params["radius"] = *value
			}
		}
	case protocol.CmdDeleteAll:
		command = cmd
	case protocol.CmdExecuteCode:
		if args == "" {
			return fmt.Errorf("usage: execute_code <code>")
		}
		command, params = cmd, protocol.Params{"code": args}
	case protocol.CmdRenderScene:
		command, params = cmd, protocol.Params{}
		if args != "" {
			params["filepath"] = args
		}
	case protocol.CmdCreateTextBlock, "run_text_block":
		name, code, _ := strings.Cut(args, " ")
		if name == "" {
			return fmt.Errorf("usage: %s <name> <code>", cmd)
		}
		command = protocol.CmdCreateTextBlock
		params = protocol.Params{"name": name, "code": strings.TrimSpace(code), "execute": cmd == "run_text_block"}
	case protocol.CmdExecuteTextBlock:
		if args == "" {
			return fmt.Errorf("usage: execute_text_block <name>")
		}
		command, params = cmd, protocol.Params{"name": args}
	case "send":
		fields := strings.Fields(args)
		if len(fields) == 0 {
			return fmt.Errorf("usage: send <command> [key=value ...]")
		}
		p, err := ParseParams(fields[1:])
		if err != nil {
			return err
		}
		command, params = fields[0], p
	default:
		fmt.Fprintf(s.out, "Unknown command: %s\nType 'help' for a list of available commands\n", cmd)
		return nil
	}

	if err := s.sender.Send(ctx, command, params); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Sent command: %s with params: %v\n", command, params)
	return nil
}

// parsePrimitive reads "[x y z] [value]".
func parsePrimitive(args string) ([3]float64, *float64, error) {
	var location [3]float64
	fields := strings.Fields(args)
	nums := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return location, nil, fmt.Errorf("invalid number %q", f)
		}
		nums[i] = v
	}

	switch {
	case len(nums) == 0:
		return location, nil, nil
	case len(nums) >= 3:
		copy(location[:], nums[:3])
		if len(nums) >= 4 {
			return location, &nums[3], nil
		}
		return location, nil, nil
	}
	return location, nil, fmt.Errorf("expected x y z [value], got %d numbers", len(nums))
}

func parseValue(raw string) any {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err == nil {
		return v
	}
	return raw
}
