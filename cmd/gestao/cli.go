package main

import (
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"gestao/internal"
	"gestao/internal/config"
)

const (
	defaultShutdownTimeout = 30 * time.Second
	defaultReportTimeout   = 60 * time.Second
)

// CLI holds what every command needs; tests swap the factories
type CLI struct {
	loadConfig func() (*config.Config, error)
	newApp     func(opts internal.Options) (*internal.Application, error)
	stdout     io.Writer
	stderr     io.Writer
}

func newCLI() *CLI {
	return &CLI{
		loadConfig: config.Load,
		newApp:     internal.NewAppWithOptions,
		stdout:     os.Stdout,
		stderr:     os.Stderr,
	}
}

func (cli *CLI) rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "gestao",
		Short:         "Shopify management dashboard with period comparison",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetOut(cli.stdout)
	cmd.SetErr(cli.stderr)

	cmd.AddCommand(cli.serveCmd())
	cmd.AddCommand(cli.reportCmd())
	cmd.AddCommand(cli.presetsCmd())
	cmd.AddCommand(cli.warmCmd())

	return cmd
}

// buildApp wires the application with logs on stderr so stdout carries only command output
func (cli *CLI) buildApp() (*internal.Application, error) {
	cfg, err := cli.loadConfig()
	if err != nil {
		return nil, err
	}
	return cli.newApp(internal.Options{Config: cfg, LogOutput: cli.stderr})
}
