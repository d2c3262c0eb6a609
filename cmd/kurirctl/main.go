package main

import (
	"courier-service/internal/apiclient"
	"courier-service/internal/config"
	"courier-service/internal/platform/obs"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	config.LoadDotenv()
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type globals struct {
	server   string
	user     string
	logLevel string
}

func (g *globals) client() (*apiclient.Client, error) {
	c, err := apiclient.New(g.server)
	if err != nil {
		return nil, err
	}
	c.UserID = g.user
	return c, nil
}

func (g *globals) logger() (*zap.Logger, error) {
	return obs.NewLogger("development", g.logLevel)
}

func newRootCmd() *cobra.Command {
	g := &globals{}

	root := &cobra.Command{
		Use:          "kurirctl",
		Short:        "Drive the courier-service API from the terminal",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&g.server, "server", config.Get("KURIR_API_URL", "http://localhost:8080"), "API base URL")
	root.PersistentFlags().StringVar(&g.user, "user", config.Get("KURIR_USER_ID", ""), "user id sent with requests")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "warn", "log level")

	root.AddCommand(
		newLoginCmd(g),
		newLogoutCmd(g),
		newPackagesCmd(g),
		newWatchCmd(g),
		newWorkflowCmd(g),
	)
	return root
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("print: %w", err)
	}
	return nil
}
