package main

import (
	"context"
	"courier-service/internal/realtime"
	"errors"
	"fmt"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

func newWatchCmd(g *globals) *cobra.Command {
	var (
		role       string
		maxRetries int
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print realtime change events until interrupted",
		Long: `Connects to /ws-api and prints each change event with the cached
collections it invalidates. Reconnects with exponential backoff.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := g.client()
			if err != nil {
				return err
			}
			logger, err := g.logger()
			if err != nil {
				return err
			}
			defer logger.Sync()

			n := realtime.NewNotifier(c.WebSocketURL(), c.Cache(), logger)
			n.Backoff.MaxRetries = maxRetries
			if g.user != "" {
				n.Auth = &realtime.AuthData{UserID: g.user, Role: role}
			}

			out := cmd.OutOrStdout()
			n.OnMessage = func(m realtime.Message) {
				buckets := realtime.BucketsFor(m.Type)
				if len(buckets) == 0 {
					fmt.Fprintf(out, "%s %s\n", m.Timestamp.Format(time.TimeOnly), m.Type)
					return
				}
				fmt.Fprintf(out, "%s %s -> %s\n", m.Timestamp.Format(time.TimeOnly), m.Type, strings.Join(buckets, ", "))
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			fmt.Fprintf(out, "watching %s\n", c.WebSocketURL())
			err = n.Run(ctx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().StringVar(&role, "role", "kurir", "role announced with --user")
	cmd.Flags().IntVar(&maxRetries, "max-retries", 0, "give up after this many failed reconnects (0 retries forever)")
	return cmd
}
