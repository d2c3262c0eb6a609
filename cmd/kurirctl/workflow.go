package main

import (
	"courier-service/internal/api/dto"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"
)

func newWorkflowCmd(g *globals) *cobra.Command {
	var sessionID string

	cmd := &cobra.Command{
		Use:   "workflow",
		Short: "Drive a session's daily delivery workflow",
	}
	cmd.PersistentFlags().StringVarP(&sessionID, "session", "s", "", "session id from login")
	_ = cmd.MarkPersistentFlagRequired("session")

	show := func(out io.Writer, st dto.WorkflowResponse) {
		fmt.Fprintf(out, "step: %s (scanned %d, delivering %d, delivered %d, pending %d)\n",
			st.Step, len(st.ScannedPackages), len(st.DeliveryPackages),
			len(st.DeliveredPackages), len(st.PendingPackages))
		for _, p := range st.DeliveryPackages {
			fmt.Fprintf(out, "  %s  %s  cod=%t\n", p.ID, p.TrackingNumber, p.IsCOD)
		}
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the current state",
			RunE: func(cmd *cobra.Command, _ []string) error {
				c, err := g.client()
				if err != nil {
					return err
				}
				st, err := c.Workflow(cmd.Context(), sessionID)
				if err != nil {
					return err
				}
				show(cmd.OutOrStdout(), st)
				return nil
			},
		},
		&cobra.Command{
			Use:   "input <total> <cod> <non-cod>",
			Short: "Save the day's package counts",
			Args:  cobra.ExactArgs(3),
			RunE: func(cmd *cobra.Command, args []string) error {
				counts := make([]int, 3)
				for i, a := range args {
					n, err := strconv.Atoi(a)
					if err != nil {
						return fmt.Errorf("argument %d: %q is not a number", i+1, a)
					}
					counts[i] = n
				}
				c, err := g.client()
				if err != nil {
					return err
				}
				st, err := c.SaveDailyInput(cmd.Context(), sessionID, dto.DailyInputRequest{
					TotalPackages: counts[0], CODPackages: counts[1], NonCODPackages: counts[2],
				})
				if err != nil {
					return err
				}
				show(cmd.OutOrStdout(), st)
				return nil
			},
		},
		newScanCmd(g, &sessionID),
		&cobra.Command{
			Use:   "complete-scan",
			Short: "Finish scanning and start delivery",
			RunE: func(cmd *cobra.Command, _ []string) error {
				c, err := g.client()
				if err != nil {
					return err
				}
				st, err := c.CompleteScan(cmd.Context(), sessionID)
				if err != nil {
					return err
				}
				show(cmd.OutOrStdout(), st)
				return nil
			},
		},
		&cobra.Command{
			Use:   "deliver <delivery-id> <recipient>",
			Short: "Mark a package delivered",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				c, err := g.client()
				if err != nil {
					return err
				}
				st, err := c.MarkDelivered(cmd.Context(), sessionID, args[0], dto.DeliveredRequest{RecipientName: args[1]})
				if err != nil {
					return err
				}
				show(cmd.OutOrStdout(), st)
				return nil
			},
		},
		&cobra.Command{
			Use:   "pending <delivery-id> <reason>",
			Short: "Mark a package undeliverable",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				c, err := g.client()
				if err != nil {
					return err
				}
				st, err := c.MarkPending(cmd.Context(), sessionID, args[0], dto.PendingRequest{Reason: args[1]})
				if err != nil {
					return err
				}
				show(cmd.OutOrStdout(), st)
				return nil
			},
		},
		&cobra.Command{
			Use:   "return <leader-name>",
			Short: "Hand all pending packages back to the warehouse",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				c, err := g.client()
				if err != nil {
					return err
				}
				res, err := c.ReturnPending(cmd.Context(), sessionID, dto.ReturnRequest{LeaderName: args[0]})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "returned %d package(s)\n", res.Returned)
				show(cmd.OutOrStdout(), res.State)
				return nil
			},
		},
		&cobra.Command{
			Use:   "performance",
			Short: "Print the day's performance summary",
			RunE: func(cmd *cobra.Command, _ []string) error {
				c, err := g.client()
				if err != nil {
					return err
				}
				res, err := c.Performance(cmd.Context(), sessionID)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), res.Summary)
			},
		},
		&cobra.Command{
			Use:   "reset",
			Short: "Discard the session's workflow state",
			RunE: func(cmd *cobra.Command, _ []string) error {
				c, err := g.client()
				if err != nil {
					return err
				}
				st, err := c.ResetWorkflow(cmd.Context(), sessionID)
				if err != nil {
					return err
				}
				show(cmd.OutOrStdout(), st)
				return nil
			},
		},
	)
	return cmd
}

func newScanCmd(g *globals, sessionID *string) *cobra.Command {
	var cod bool

	cmd := &cobra.Command{
		Use:   "scan <tracking-number>...",
		Short: "Scan packages into today's load",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := g.client()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, tn := range args {
				res, err := c.Scan(cmd.Context(), *sessionID, tn, cod)
				if err != nil {
					return fmt.Errorf("scan %s: %w", tn, err)
				}
				fmt.Fprintf(out, "scanned %s as %s\n", res.Package.TrackingNumber, res.Package.ID)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&cod, "cod", false, "packages collect payment on delivery")
	return cmd
}
