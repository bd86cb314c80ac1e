package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/tinytelemetry/msglog/internal/model"
	"github.com/tinytelemetry/msglog/internal/socketrpc"
)

type globalOptions struct {
	socket  string
	output  string
	caller  string
	timeout time.Duration
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "msglogctl",
		Short: "msglogctl - remote caller for the msglog service",
		Long: `msglogctl queries and writes to a running msglog server through its
Unix socket. Every call is recorded by the server on the External channel.

Examples:
  # Show message counts per channel
  msglogctl status

  # Record a custom message
  msglogctl log deploy "v1.2.3 rolled out"`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"msglogctl version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	defaultSocket := socketrpc.DefaultSocketPath()
	if env := os.Getenv("MSGLOG_SOCKET_PATH"); env != "" {
		defaultSocket = env
	}
	rootCmd.PersistentFlags().StringVar(&opts.socket, "socket", defaultSocket, "Server socket path")
	rootCmd.PersistentFlags().StringVarP(&opts.output, "output", "o", "json", "Output format (json|yaml)")
	rootCmd.PersistentFlags().StringVar(&opts.caller, "caller", "", "Caller identity recorded with log (default host:pid)")
	rootCmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", model.DefaultRemoteTimeout, "Per-call deadline")

	rootCmd.AddCommand(newStatusCmd(opts))
	rootCmd.AddCommand(newHistoryCmd(opts))
	rootCmd.AddCommand(newClearCmd(opts))
	rootCmd.AddCommand(newLogCmd(opts))
	return rootCmd
}

func newStatusCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show client count, message count and per-channel counters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(opts, func(c *socketrpc.Client) (any, error) {
				return c.ExternalGetStatus()
			}, cmd.OutOrStdout())
		},
	}
}

func newHistoryCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "Print the retained message history, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(opts, func(c *socketrpc.Client) (any, error) {
				return c.ExternalGetHistory()
			}, cmd.OutOrStdout())
		},
	}
}

func newClearCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear the history and per-channel counters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(opts, func(c *socketrpc.Client) (any, error) {
				return c.ExternalClearHistory()
			}, cmd.OutOrStdout())
		},
	}
}

func newLogCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "log <type> <content...>",
		Short: "Record a custom message",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			messageType, content := args[0], strings.Join(args[1:], " ")
			return withClient(opts, func(c *socketrpc.Client) (any, error) {
				return c.LogExternalMessage(messageType, content)
			}, cmd.OutOrStdout())
		},
	}
}

func withClient(opts *globalOptions, call func(*socketrpc.Client) (any, error), w io.Writer) error {
	if opts.output != "json" && opts.output != "yaml" {
		return fmt.Errorf("unsupported output format: %s", opts.output)
	}

	c, err := socketrpc.Dial(opts.socket, socketrpc.ClientConfig{
		Caller:  opts.caller,
		Timeout: opts.timeout,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", opts.socket, err)
	}
	defer c.Close()

	result, err := call(c)
	if err != nil {
		return err
	}
	return render(w, opts.output, result)
}

// render prints v using its JSON field names in either format.
func render(w io.Writer, format string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	if format == "json" {
		_, err = fmt.Fprintln(w, string(data))
		return err
	}

	var generic any
	if err := json.Unmarshal(data, &generic); err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	out, err := yaml.Marshal(generic)
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	_, err = w.Write(out)
	return err
}
