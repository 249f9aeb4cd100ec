package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/riftlock/vaultengine/pkg/history"

	"github.com/spf13/cobra"
)

var execFile string

var execCmd = &cobra.Command{
	Use:   "exec [command-line]",
	Short: "Executes one already-rendered history command line against the unlocked vault",
	Long: `Executes one command in the engine's textual command log format, e.g.:

  vaultenginectl exec 'cgr <parentId> <id>'
  vaultenginectl exec 'sep <entryId> title "Example"'

The command is applied atomically: on failure, neither the tree nor the
history changes. With --file, every line of the file is executed as a
single batch (pkg/engine's ExecuteBatch): either all of them apply, or
none do. Run 'save' afterwards to persist the change.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := currentEngine()
		if err != nil {
			return err
		}

		if execFile != "" {
			lines, err := readCommandFile(execFile)
			if err != nil {
				return err
			}
			if err := e.ExecuteBatch(lines); err != nil {
				return fmt.Errorf("failed to execute batch: %w", err)
			}
			fmt.Printf("Batch of %d command(s) executed.\n", len(lines))
			return nil
		}

		if len(args) != 1 {
			return fmt.Errorf("exec requires exactly one command-line argument, or --file")
		}
		line, err := history.ParseLine(args[0])
		if err != nil {
			return fmt.Errorf("failed to parse command line: %w", err)
		}
		if err := e.Execute(line); err != nil {
			return fmt.Errorf("failed to execute command: %w", err)
		}

		fmt.Println("Command executed.")
		return nil
	},
}

// readCommandFile parses one command line per non-blank line of path.
func readCommandFile(path string) ([]history.Line, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read command file: %w", err)
	}
	var out []history.Line
	for _, raw := range strings.Split(string(data), "\n") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		line, err := history.ParseLine(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to parse command line %q: %w", raw, err)
		}
		out = append(out, line)
	}
	return out, nil
}
