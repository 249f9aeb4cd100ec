// Package main provides the vaultenginectl CLI, a thin harness over the
// engine for exercising init/unlock/exec/save/merge/attach from a
// terminal or a script.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/riftlock/vaultengine/internal/auditlog"
	"github.com/riftlock/vaultengine/internal/credstore"
	"github.com/riftlock/vaultengine/pkg/datasource"
	"github.com/riftlock/vaultengine/pkg/engine"
	"github.com/riftlock/vaultengine/pkg/history"
	"github.com/riftlock/vaultengine/pkg/kvstore"
	"github.com/riftlock/vaultengine/pkg/search"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	vaultFile   string
	dataDirFlag string

	creds    = credstore.New()
	log      *auditlog.Logger
	files    *datasource.LocalFileBackend
	urlIndex *search.URLIndex
)

var rootCmd = &cobra.Command{
	Use:   "vaultenginectl",
	Short: "vaultenginectl drives the vault data engine from the command line",
	Long:  `A local-first, end-to-end encrypted credential vault, exposed as a CLI.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get user home directory: %w", err)
		}
		cfg, err := loadConfig(filepath.Join(home, ".vaultenginectl", "config.yaml"))
		if err != nil {
			return err
		}
		dataDir := applyConfig(cfg, home, dataDirFlag)

		files, err = datasource.NewLocalFileBackend(dataDir)
		if err != nil {
			return fmt.Errorf("failed to open data directory: %w", err)
		}
		log = auditlog.NewLogger(filepath.Join(dataDir, "audit"))

		searchStore, err := kvstore.Open(filepath.Join(dataDir, "search.db"))
		if err != nil {
			return fmt.Errorf("failed to open search index: %w", err)
		}
		urlIndex = search.NewURLIndex(searchStore)

		if vaultFile == "" {
			vaultFile = filepath.Join(dataDir, "default.vault")
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&vaultFile, "vault", "", "path to the vault file (default: ~/.vaultenginectl/default.vault)")
	rootCmd.PersistentFlags().StringVar(&dataDirFlag, "data-dir", "", "directory for vault data and audit logs (overrides config.yaml)")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(unlockCmd)
	rootCmd.AddCommand(lockCmd)
	rootCmd.AddCommand(execCmd)
	rootCmd.AddCommand(saveCmd)
	rootCmd.AddCommand(catCmd)
	rootCmd.AddCommand(findCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(optimiseCmd)
	rootCmd.AddCommand(mergeCmd)
	rootCmd.AddCommand(attachCmd)
	attachCmd.AddCommand(attachPutCmd)
	attachCmd.AddCommand(attachGetCmd)
	attachCmd.AddCommand(attachRemoveCmd)
	attachCmd.AddCommand(attachListCmd)

	attachPutCmd.Flags().StringVar(&attachName, "name", "", "attachment file name")
	attachPutCmd.Flags().StringVar(&attachMime, "mime", "application/octet-stream", "attachment MIME type")
	attachGetCmd.Flags().StringVarP(&attachOutput, "output", "o", "", "output file path (default: stdout)")

	searchCmd.Flags().BoolVar(&searchByURL, "url", false, "rank by host relation and hit count instead of fuzzy text match")
	searchCmd.Flags().IntVar(&searchLimit, "limit", 10, "maximum number of results (0 = unlimited)")

	execCmd.Flags().StringVar(&execFile, "file", "", "execute every command line in this file as one atomic batch")
}

// readPassword prompts on the controlling terminal, falling back to a
// plain stdin read when stdin is not a TTY (e.g. piped input in scripts).
func readPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	if !isatty.IsTerminal(os.Stdin.Fd()) {
		var line string
		if _, err := fmt.Scanln(&line); err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return line, nil
	}
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(password), nil
}

// currentEngine returns the engine registered for the active vault file,
// erroring with a hint to run unlock first if none is registered.
func currentEngine() (*engine.Engine, error) {
	e, err := creds.Get(vaultFile)
	if err != nil {
		return nil, fmt.Errorf("vault is locked, run 'unlock' first: %w", err)
	}
	return e, nil
}

// auditListener bridges Engine.Listener notifications into the audit
// trail (spec §1 "operational events ... are recorded through
// internal/auditlog"), so every command an unlocked vault executes -
// whether from 'exec', a merge replay, or anywhere else - is recorded,
// not just the commands individual subcommands log by hand.
type auditListener struct{ path string }

func (a auditListener) OnCommandsExecuted(lines []history.Line) {
	_ = log.LogSuccess(a.path, auditlog.OpCommandsExecuted, map[string]interface{}{"lines": len(lines)})
}

// registerEngine installs e as the active engine for path and attaches
// the audit listener, the one place an engine becomes reachable from
// 'exec' and friends.
func registerEngine(path string, e *engine.Engine) {
	e.SetListener(auditListener{path: path})
	creds.Put(path, e)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
