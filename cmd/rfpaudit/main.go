package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dusk-indust/rfpaudit/internal/audit"
	"github.com/dusk-indust/rfpaudit/internal/config"
	"github.com/dusk-indust/rfpaudit/internal/history"
	"github.com/dusk-indust/rfpaudit/internal/mcptools"
	"github.com/dusk-indust/rfpaudit/internal/retrieval"
	"github.com/dusk-indust/rfpaudit/internal/rules"
)

// CLI flags parsed from command line.
type cliFlags struct {
	ProjectRoot  string
	Rules        string
	Format       string
	Parallel     bool
	StageTimeout time.Duration
	Strict       bool
	HistoryDB    string
	Verbose      bool
	ServeMCP     bool
	Version      bool
}

// version is set by goreleaser at build time.
var version = "dev"

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var flags cliFlags

	fs := flag.NewFlagSet("rfpaudit", flag.ContinueOnError)
	fs.StringVar(&flags.ProjectRoot, "project-root", ".", "directory containing rfpaudit.yml")
	fs.StringVar(&flags.Rules, "rules", "", "path to the guideline rule set (.json, .yaml, or .yml); built-in rules when empty")
	fs.StringVar(&flags.Format, "format", "markdown", "output format: markdown or json")
	fs.BoolVar(&flags.Parallel, "parallel", false, "run reviewer stages in parallel")
	fs.DurationVar(&flags.StageTimeout, "stage-timeout", 0, "per-stage timeout (0 disables)")
	fs.BoolVar(&flags.Strict, "strict", false, "fail on contradictory findings instead of resolving them")
	fs.StringVar(&flags.HistoryDB, "history-db", "", "path to the audit history database (empty disables history)")
	fs.BoolVar(&flags.Verbose, "verbose", false, "enable verbose output")
	fs.BoolVar(&flags.ServeMCP, "serve-mcp", false, "run as MCP server for agent host integration")
	fs.BoolVar(&flags.Version, "version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if flags.Version {
		fmt.Println(version)
		return nil
	}

	cfg, err := config.Load(flags.ProjectRoot)
	if err != nil {
		return fmt.Errorf("loading rfpaudit.yml: %w", err)
	}
	applyConfig(fs, &flags, cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pipelineCfg := audit.Config{
		Parallel:        flags.Parallel,
		StageTimeout:    flags.StageTimeout,
		StrictConflicts: flags.Strict,
		Verbose:         flags.Verbose,
	}

	if flags.ServeMCP {
		return serveMCP(ctx, pipelineCfg, flags)
	}

	rest := fs.Args()
	if len(rest) == 0 {
		return fmt.Errorf("usage: rfpaudit [flags] <document> | rfpaudit history | rfpaudit show <run-id>")
	}

	switch rest[0] {
	case "history":
		return runHistory(ctx, flags, rest[1:])
	case "show":
		return runShow(ctx, flags, rest[1:])
	default:
		return runAudit(ctx, pipelineCfg, flags, rest[0])
	}
}

// applyConfig fills flag values from the project config for flags the user
// did not set explicitly.
func applyConfig(fs *flag.FlagSet, flags *cliFlags, cfg *config.ProjectConfig) {
	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if !set["rules"] && cfg.RulesPath != "" {
		flags.Rules = cfg.RulesPath
	}
	if !set["history-db"] && cfg.HistoryDB != "" {
		flags.HistoryDB = cfg.HistoryDB
	}
	if !set["parallel"] && cfg.Parallel {
		flags.Parallel = true
	}
	if !set["stage-timeout"] {
		if d := cfg.StageTimeoutDuration(); d > 0 {
			flags.StageTimeout = d
		}
	}
	if !set["strict"] && cfg.StrictConflicts {
		flags.Strict = true
	}
	if !set["verbose"] && cfg.Verbose {
		flags.Verbose = true
	}
}

// loadRuleSet loads the configured rule set, falling back to the embedded
// built-in rules when no path is given.
func loadRuleSet(flags cliFlags) (*rules.RuleSet, error) {
	if flags.Rules == "" {
		if flags.Verbose {
			fmt.Fprintln(os.Stderr, "no rule set configured, using built-in rules")
		}
		return rules.Default()
	}
	return rules.Load(flags.Rules)
}

// openHistory opens the history store when a database path is configured.
func openHistory(flags cliFlags) (*history.Store, error) {
	if flags.HistoryDB == "" {
		return nil, nil
	}
	return history.Open(flags.HistoryDB)
}

func serveMCP(ctx context.Context, cfg audit.Config, flags cliFlags) error {
	store, err := openHistory(flags)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}

	svc := mcptools.NewAuditService(cfg, flags.Rules, store)
	server := mcptools.NewAuditMCPServer(svc)
	return mcptools.RunAuditMCPServerStdio(ctx, server)
}

func runAudit(ctx context.Context, cfg audit.Config, flags cliFlags, docPath string) error {
	ruleset, err := loadRuleSet(flags)
	if err != nil {
		return err
	}

	pipeline := audit.NewPipeline(cfg, retrieval.NewFileRetriever(), ruleset)
	defer pipeline.Close()

	if flags.Verbose {
		go func() {
			for ev := range pipeline.Progress() {
				fmt.Fprintln(os.Stderr, audit.FormatProgress(ev))
			}
		}()
	}

	result, err := pipeline.Run(ctx, docPath)
	if err != nil {
		return err
	}

	if flags.HistoryDB != "" {
		store, err := openHistory(flags)
		if err != nil {
			return err
		}
		defer store.Close()
		if _, err := store.SaveRun(ctx, result); err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not save run to history: %v\n", err)
		}
	}

	return writeResult(os.Stdout, flags.Format, result)
}
