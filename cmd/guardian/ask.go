package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/softwarewrighter/guardian/internal/backend"
	"github.com/softwarewrighter/guardian/internal/config"
	"github.com/softwarewrighter/guardian/internal/logger"
	guardianerrors "github.com/softwarewrighter/guardian/pkg/errors"
)

type askOptions struct {
	model string
	host  string
}

func newAskCmd(root *rootFlags) *cobra.Command {
	opts := askOptions{}

	cmd := &cobra.Command{
		Use:   "ask <prompt>",
		Short: "Send a one-off prompt to a resolved host",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAsk(cmd, root, opts, strings.Join(args, " "))
		},
	}

	cmd.Flags().StringVarP(&opts.model, "model", "m", "", "Model to use (defaults to the configured review model)")
	cmd.Flags().StringVar(&opts.host, "host", "", "Use the named host instead of racing the tiers")

	return cmd
}

func runAsk(cmd *cobra.Command, root *rootFlags, opts askOptions, prompt string) error {
	log, err := newLogger(root)
	if err != nil {
		return err
	}
	cfg, _, err := loadConfig(root, log)
	if err != nil {
		return err
	}

	model := opts.model
	if model == "" {
		model = cfg.LLM.Model
	}
	if model == "" {
		return fmt.Errorf("no model given and none configured under llm.model")
	}

	client := backend.NewClient(log)
	host, err := resolveAskHost(cmd.Context(), client, log, cfg, opts.host)
	if err != nil {
		return err
	}

	genCtx, cancel := context.WithTimeout(cmd.Context(), cfg.LLMTimeout())
	defer cancel()

	reply, err := client.Generate(genCtx, host, model, prompt)
	if err != nil {
		return err
	}

	if root.jsonOutput {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(map[string]any{
			"host":     host.Name,
			"model":    model,
			"prompt":   prompt,
			"response": reply.Response,
		})
	}

	fmt.Fprintln(cmd.OutOrStdout(), reply.Response)
	return nil
}

func resolveAskHost(ctx context.Context, client *backend.Client, log *logger.Logger, cfg *config.Config, name string) (config.Backend, error) {
	if name != "" {
		for _, host := range cfg.EnabledBackends() {
			if host.Name == name {
				return host, nil
			}
		}
		return config.Backend{}, fmt.Errorf("no enabled host named %q", name)
	}

	resolved := backend.NewResolver(client, log).Resolve(ctx, cfg.Backends, cfg.ProbeTimeout())
	if resolved == nil {
		return config.Backend{}, guardianerrors.NewBackendUnreachableError(len(cfg.EnabledBackends()))
	}
	return resolved.Backend, nil
}
