package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/softwarewrighter/guardian/internal/config"
	"github.com/softwarewrighter/guardian/internal/engine"
	"github.com/softwarewrighter/guardian/internal/gitdiff"
	"github.com/softwarewrighter/guardian/internal/logger"
	"github.com/softwarewrighter/guardian/internal/model"
	"github.com/softwarewrighter/guardian/internal/policy"
	"github.com/softwarewrighter/guardian/internal/report"
	"github.com/softwarewrighter/guardian/internal/tui"
)

type checkOptions struct {
	path  string
	only  string
	noLLM bool
	plain bool
}

// blockedError signals a blocking verdict after the report has already
// been rendered; main maps it to a nonzero exit code.
type blockedError struct{}

func (e *blockedError) Error() string {
	return "blocking findings present, do not proceed"
}

func newCheckCmd(root *rootFlags) *cobra.Command {
	opts := checkOptions{}

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run the configured checks against pending changes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, root, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.path, "path", "p", ".", "Repository path to check")
	cmd.Flags().StringVar(&opts.only, "only", "", "Comma-separated unit kinds to run (scripts,policy,llm)")
	cmd.Flags().BoolVar(&opts.noLLM, "no-llm", false, "Skip the LLM review even if configured")
	cmd.Flags().BoolVar(&opts.plain, "plain", false, "Disable the interactive progress view")

	return cmd
}

func runCheck(cmd *cobra.Command, root *rootFlags, opts checkOptions) error {
	log, err := newLogger(root)
	if err != nil {
		return err
	}

	cfg, _, err := loadConfig(root, log)
	if err != nil {
		return err
	}
	if !root.verbose && cfg.Settings.LogLevel != "" {
		log, err = logger.New(logger.Options{Level: cfg.Settings.LogLevel, HumanReadable: true})
		if err != nil {
			return err
		}
	}
	if opts.noLLM {
		cfg.LLM.Enabled = false
	}
	if opts.only != "" {
		if err := restrictUnits(cfg, opts.only); err != nil {
			return err
		}
	}

	payload, err := gitdiff.NewCollector(log).Collect(opts.path)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	coord := engine.NewCoordinator(cfg, log)

	interactive := !root.jsonOutput && !opts.plain && term.IsTerminal(int(os.Stdout.Fd()))
	var verdict *model.CheckVerdict
	if interactive {
		verdict, err = runCheckInteractive(ctx, coord, cfg, payload)
		if err != nil {
			return err
		}
	} else {
		verdict = coord.Run(ctx, payload)
	}
	if verdict == nil {
		return ctx.Err()
	}

	renderOpts := report.Options{
		JSON:    root.jsonOutput,
		Verbose: root.verbose,
		Color:   interactive,
	}
	if err := report.Render(cmd.OutOrStdout(), verdict, renderOpts); err != nil {
		return err
	}

	if verdict.Blocking() {
		return &blockedError{}
	}
	return nil
}

// restrictUnits trims the configuration down to the requested unit kinds.
func restrictUnits(cfg *config.Config, only string) error {
	keep := map[string]bool{}
	for _, kind := range strings.Split(only, ",") {
		kind = strings.TrimSpace(kind)
		switch kind {
		case "scripts", "policy", "llm":
			keep[kind] = true
		case "":
		default:
			return fmt.Errorf("unknown unit kind %q for --only (want scripts, policy, or llm)", kind)
		}
	}
	if !keep["scripts"] {
		cfg.Scripts.Commands = nil
	}
	if !keep["policy"] {
		cfg.Policy.Rules = nil
	}
	if !keep["llm"] {
		cfg.LLM.Enabled = false
	}
	return nil
}

func runCheckInteractive(ctx context.Context, coord *engine.Coordinator, cfg *config.Config, payload policy.Payload) (*model.CheckVerdict, error) {
	total := len(cfg.Scripts.Commands)
	if len(cfg.Policy.Rules) > 0 {
		total++
	}
	if cfg.LLM.Enabled {
		total++
	}

	// The TUI owns the terminal and swallows SIGINT, so Ctrl-C surfaces as
	// a key event rather than through the signal context. Cancellation has
	// to be propagated to the run explicitly, and the run goroutine must be
	// drained before returning so no launched script outlives the command.
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	prog := tea.NewProgram(tui.NewModel(total))
	coord.Notify(func(u engine.Update) {
		if u.Outcome != nil {
			prog.Send(tui.UnitCompleteMsg{Outcome: *u.Outcome})
			return
		}
		prog.Send(tui.PhaseMsg{Phase: u.Phase})
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		prog.Send(tui.VerdictMsg{Verdict: coord.Run(runCtx, payload)})
	}()

	final, err := prog.Run()
	if err != nil {
		cancel()
		<-done
		return nil, err
	}

	m := final.(tui.Model)
	if m.Cancelled() {
		cancel()
		<-done
		return nil, context.Canceled
	}
	return m.Verdict(), nil
}
