// Package cli implements faqctl, the operator command line for a running
// faq-jsonld server.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
)

type app struct {
	server   string
	password string
	timeout  time.Duration
	stdout   io.Writer
	stderr   io.Writer
}

func NewRootCommand() *cobra.Command {
	return NewRootCommandWithIO(os.Stdout, os.Stderr)
}

func NewRootCommandWithIO(out, errOut io.Writer) *cobra.Command {
	a := &app{stdout: out, stderr: errOut}

	cmd := &cobra.Command{
		Use:           "faqctl",
		Short:         "Operate the FAQ JSON-LD invalidation queue and render cache",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetOut(out)
	cmd.SetErr(errOut)

	cmd.PersistentFlags().StringVar(&a.server, "server", envOr("FAQJ_SERVER", "http://localhost:8080"), "base URL of the faq-jsonld server")
	cmd.PersistentFlags().StringVar(&a.password, "password", os.Getenv("FAQJ_PASSWORD"), "operator password (or FAQJ_PASSWORD)")
	cmd.PersistentFlags().DurationVar(&a.timeout, "timeout", 30*time.Second, "request timeout")

	cmd.AddCommand(
		newProcessQueueCmd(a),
		newPurgeCmd(a),
		newQueueInfoCmd(a),
		newClearLogCmd(a),
		newReindexCmd(a),
	)
	return cmd
}

func (a *app) client(ctx context.Context) (*Client, error) {
	c := NewClient(a.server, a.password, a.timeout)
	if err := c.Login(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

func (a *app) printJSON(v any) error {
	enc := json.NewEncoder(a.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func newProcessQueueCmd(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "process-queue",
		Short: "Drain up to --limit queued content ids now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if limit < 0 {
				return fmt.Errorf("--limit cannot be negative")
			}
			c, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			run, err := c.Drain(cmd.Context(), limit)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "processed %d, remaining %d\n", run.Processed, run.Remaining)
			if len(run.Sample) > 0 {
				fmt.Fprintf(a.stdout, "sample: %v\n", run.Sample)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum ids to process (0 uses the configured batch size)")
	return cmd
}

func newPurgeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "purge",
		Short: "Drop every cached render",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			purged, err := c.Purge(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "purged %d cached entries\n", purged)
			return nil
		},
	}
}

func newQueueInfoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "queue-info",
		Short: "Show queue length, recent runs and cache stats",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			health, err := c.Health(cmd.Context())
			if err != nil {
				return err
			}
			return a.printJSON(health)
		},
	}
}

func newClearLogCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clear-log",
		Short: "Delete the queue run history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			if err := c.ClearLog(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, "run log cleared")
			return nil
		},
	}
}

func newReindexCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "reindex",
		Short: "Recompile every FAQ rule and enqueue changed targets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			result, err := c.Reindex(cmd.Context())
			if err != nil {
				return err
			}
			return a.printJSON(result)
		},
	}
}
