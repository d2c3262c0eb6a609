package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newLoginCmd(g *globals) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and print the new session id",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := g.client()
			if err != nil {
				return err
			}
			res, err := c.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "signed in as %s (%s)\nsession: %s\ntab: %s\n",
				res.User.Name, res.User.Role, res.Session.SessionID, res.Session.TabID)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newLogoutCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "logout <session-id>",
		Short: "Close a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := g.client()
			if err != nil {
				return err
			}
			return c.Logout(cmd.Context(), args[0])
		},
	}
}

func newPackagesCmd(g *globals) *cobra.Command {
	var kurirID string

	cmd := &cobra.Command{
		Use:   "packages",
		Short: "List shipments",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := g.client()
			if err != nil {
				return err
			}
			pkgs, err := c.Packages(cmd.Context(), kurirID)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, p := range pkgs {
				fmt.Fprintf(out, "%-16s %-18s %-12s %s\n", p.ResiNumber, p.Status, p.KurirID, p.Penerima)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&kurirID, "kurir", "", "filter by courier user id")
	return cmd
}
