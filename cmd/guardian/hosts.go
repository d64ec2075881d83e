package main

import (
	"context"
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/softwarewrighter/guardian/internal/backend"
	"github.com/softwarewrighter/guardian/internal/config"
	guardianerrors "github.com/softwarewrighter/guardian/pkg/errors"
)

func newHostsCmd(root *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hosts",
		Short: "Inspect configured inference hosts",
	}

	cmd.AddCommand(newHostsPingCmd(root))
	cmd.AddCommand(newHostsSelectCmd(root))

	return cmd
}

func newHostsPingCmd(root *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Probe every enabled host and report reachability",
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := newLogger(root)
			if err != nil {
				return err
			}
			cfg, _, err := loadConfig(root, log)
			if err != nil {
				return err
			}

			hosts := cfg.EnabledBackends()
			if len(hosts) == 0 {
				return fmt.Errorf("no enabled hosts configured")
			}

			resolver := backend.NewResolver(backend.NewClient(log), log)
			outcomes := resolver.ProbeAll(cmd.Context(), cfg.Backends, cfg.ProbeTimeout())

			if root.jsonOutput {
				encoder := json.NewEncoder(cmd.OutOrStdout())
				encoder.SetIndent("", "  ")
				return encoder.Encode(outcomes)
			}

			writer := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(writer, "HOST\tTIER\tREACHABLE\tLATENCY\tREASON")
			reachable := 0
			for _, o := range outcomes {
				if o.Reachable {
					reachable++
				}
				fmt.Fprintf(writer, "%s\t%s\t%t\t%s\t%s\n",
					o.Backend, o.Tier, o.Reachable, o.Latency.Round(time.Millisecond), o.Reason)
			}
			if err := writer.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\n%d/%d hosts reachable\n", reachable, len(outcomes))
			return nil
		},
	}
}

func newHostsSelectCmd(root *rootFlags) *cobra.Command {
	var model string

	cmd := &cobra.Command{
		Use:   "select",
		Short: "Race the probe tiers and print the host a run would use",
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := newLogger(root)
			if err != nil {
				return err
			}
			cfg, _, err := loadConfig(root, log)
			if err != nil {
				return err
			}

			client := backend.NewClient(log)
			resolver := backend.NewResolver(client, log)
			resolved := resolver.Resolve(cmd.Context(), cfg.Backends, cfg.ProbeTimeout())
			if resolved == nil {
				return guardianerrors.NewBackendUnreachableError(len(cfg.EnabledBackends()))
			}

			if model != "" {
				resolved, err = selectHostServing(cmd.Context(), client, cfg, resolved, model)
				if err != nil {
					return err
				}
			}

			if root.jsonOutput {
				encoder := json.NewEncoder(cmd.OutOrStdout())
				encoder.SetIndent("", "  ")
				return encoder.Encode(map[string]any{
					"host": resolved.Backend.Name,
					"url":  resolved.Backend.URL,
					"tier": resolved.Tier,
				})
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s, %s tier)\n",
				resolved.Backend.Name, resolved.Backend.URL, resolved.Tier)
			return nil
		},
	}

	cmd.Flags().StringVarP(&model, "model", "m", "", "Require a host that serves the named model")

	return cmd
}

// selectHostServing keeps the race winner when it serves the wanted model,
// and otherwise walks the remaining enabled hosts in tier order for one that
// does. Each tags call is bounded by the probe budget.
func selectHostServing(ctx context.Context, client *backend.Client, cfg *config.Config, winner *backend.ResolvedBackend, model string) (*backend.ResolvedBackend, error) {
	candidates := []backend.ResolvedBackend{*winner}
	for _, tier := range []struct {
		tier  config.Tier
		hosts []config.Backend
	}{
		{config.TierPrimary, cfg.PrimaryBackends()},
		{config.TierFallback, cfg.FallbackBackends()},
	} {
		for _, host := range tier.hosts {
			if host.Name == winner.Backend.Name {
				continue
			}
			candidates = append(candidates, backend.ResolvedBackend{Backend: host, Tier: tier.tier})
		}
	}

	for _, candidate := range candidates {
		models, err := listModelsWithTimeout(ctx, client, candidate.Backend, cfg.ProbeTimeout())
		if err != nil {
			continue
		}
		for _, m := range models {
			if m.Name == model {
				return &candidate, nil
			}
		}
	}

	return nil, fmt.Errorf("no reachable host serves model %q", model)
}
