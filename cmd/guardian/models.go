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
)

type modelsOptions struct {
	host string
}

func newModelsCmd(root *rootFlags) *cobra.Command {
	opts := modelsOptions{}

	cmd := &cobra.Command{
		Use:   "models",
		Short: "List models available on reachable hosts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runModels(cmd, root, opts)
		},
	}

	cmd.Flags().StringVar(&opts.host, "host", "", "Only query the named host")

	return cmd
}

type hostModels struct {
	Host      string              `json:"host"`
	Reachable bool                `json:"reachable"`
	Models    []backend.ModelInfo `json:"models,omitempty"`
	Error     string              `json:"error,omitempty"`
}

func runModels(cmd *cobra.Command, root *rootFlags, opts modelsOptions) error {
	log, err := newLogger(root)
	if err != nil {
		return err
	}
	cfg, _, err := loadConfig(root, log)
	if err != nil {
		return err
	}

	hosts := filterHosts(cfg.EnabledBackends(), opts.host)
	if len(hosts) == 0 {
		if opts.host != "" {
			return fmt.Errorf("no enabled host named %q", opts.host)
		}
		return fmt.Errorf("no enabled hosts configured")
	}

	client := backend.NewClient(log)
	results := make([]hostModels, 0, len(hosts))
	for _, host := range hosts {
		entry := hostModels{Host: host.Name}
		models, err := listModelsWithTimeout(cmd.Context(), client, host, cfg.ProbeTimeout())
		if err != nil {
			entry.Error = err.Error()
		} else {
			entry.Reachable = true
			entry.Models = models
		}
		results = append(results, entry)
	}

	if root.jsonOutput {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(results)
	}

	writer := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "HOST\tMODEL\tSIZE")
	for _, entry := range results {
		if !entry.Reachable {
			fmt.Fprintf(writer, "%s\t(unreachable)\t\n", entry.Host)
			continue
		}
		if len(entry.Models) == 0 {
			fmt.Fprintf(writer, "%s\t(no models)\t\n", entry.Host)
			continue
		}
		for _, m := range entry.Models {
			fmt.Fprintf(writer, "%s\t%s\t%s\n", entry.Host, m.Name, formatBytes(m.Size))
		}
	}
	return writer.Flush()
}

// listModelsWithTimeout bounds the tags call with the probe budget so a host
// that accepts connections but never answers cannot hang the listing.
func listModelsWithTimeout(ctx context.Context, client *backend.Client, host config.Backend, timeout time.Duration) ([]backend.ModelInfo, error) {
	listCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return client.ListModels(listCtx, host)
}

func filterHosts(hosts []config.Backend, name string) []config.Backend {
	if name == "" {
		return hosts
	}
	var out []config.Backend
	for _, h := range hosts {
		if h.Name == name {
			out = append(out, h)
		}
	}
	return out
}

func formatBytes(n int64) string {
	switch {
	case n >= 1<<30:
		return fmt.Sprintf("%.1f GiB", float64(n)/float64(1<<30))
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MiB", float64(n)/float64(1<<20))
	case n > 0:
		return fmt.Sprintf("%d B", n)
	default:
		return ""
	}
}
