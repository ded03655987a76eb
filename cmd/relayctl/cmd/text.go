package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mfulz/scenerelay/protocol"
)

var (
	textName    string
	textFile    string
	textExecute bool
)

// TextCmd groups the text block commands.
var TextCmd = &cobra.Command{
	Use:   "text",
	Short: "Manage named text blocks on the host",
}

var textCreateCmd = &cobra.Command{
	Use:   "create [code]",
	Short: "Create or replace a text block",
	Long: `Create or replace a named text block. The code is taken from the argument,
from --file, or from stdin when neither is given. Without --name the host
generates one.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		code, err := readCode(args, textFile, cmd.InOrStdin())
		if err != nil {
			return err
		}
		params := protocol.Params{"code": code, "execute": textExecute}
		if textName != "" {
			params["name"] = textName
		}
		return send(cmd.Context(), protocol.CmdCreateTextBlock, params)
	},
}

var textRunCmd = &cobra.Command{
	Use:   "run <name>",
	Short: "Execute an existing text block",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return send(cmd.Context(), protocol.CmdExecuteTextBlock, protocol.Params{"name": args[0]})
	},
}

func readCode(args []string, file string, stdin io.Reader) (string, error) {
	switch {
	case len(args) == 1 && file != "":
		return "", fmt.Errorf("pass code either as argument or with --file, not both")
	case len(args) == 1:
		return args[0], nil
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", file, err)
		}
		return string(data), nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return string(data), nil
}

func init() {
	textCreateCmd.Flags().StringVarP(&textName, "name", "n", "", "text block name")
	textCreateCmd.Flags().StringVarP(&textFile, "file", "f", "", "read code from file")
	textCreateCmd.Flags().BoolVarP(&textExecute, "execute", "x", false, "run the block after creating it")

	TextCmd.AddCommand(textCreateCmd)
	TextCmd.AddCommand(textRunCmd)
}
