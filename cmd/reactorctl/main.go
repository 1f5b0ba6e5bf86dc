// Command reactorctl is a small demonstration and inspection CLI for the
// reactive engine, built on spf13/cobra for subcommands and flag parsing.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/voodooEntity/reactor/internal/archivist"
	"github.com/voodooEntity/reactor/internal/config"
	"github.com/voodooEntity/reactor/internal/reactor"
	"github.com/voodooEntity/reactor/internal/runner"
	"github.com/voodooEntity/reactor/internal/scheduler"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:   "reactorctl",
		Short: "Inspect and drive a reactive computation engine instance",
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file (uses engine defaults if empty)")

	root.AddCommand(newSetCmd())
	root.AddCommand(newGetCmd())
	root.AddCommand(newDumpCmd())
	root.AddCommand(newWatchCmd())
	root.AddCommand(newVersionCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func buildApp() (*reactor.App, error) {
	log := archivist.New(&archivist.Config{LogLevel: archivist.LEVEL_WARNING})
	if configPath == "" {
		return reactor.New(reactor.DefaultOptions(), log), nil
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	return reactor.New(cfg.ReactorOptions(), log), nil
}

func newSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <path> <value>",
		Short: "Set a value at a document path and print the resulting document",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp()
			if err != nil {
				return err
			}
			if err := app.Set(args[0], args[1], nil); err != nil {
				return err
			}
			out, err := app.Data.DebugJSON()
			if err != nil {
				return err
			}
			fmt.Println(out)
			return nil
		},
	}
}

func newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <path>",
		Short: "Read a value from a document path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp()
			if err != nil {
				return err
			}
			v, found, err := app.Get(args[0], nil)
			if err != nil {
				return err
			}
			if !found {
				fmt.Println("<absent>")
				return nil
			}
			fmt.Printf("%v\n", v)
			return nil
		},
	}
}

func newDumpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dump",
		Short: "Print the whole document as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp()
			if err != nil {
				return err
			}
			out, err := app.Data.DebugJSON()
			if err != nil {
				return err
			}
			fmt.Println(out)
			return nil
		},
	}
}

func newWatchCmd() *cobra.Command {
	var intervalMS int
	var idleLimit int
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Run the frame-policy scheduler until it has been idle for a while, then print metrics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := archivist.New(&archivist.Config{LogLevel: archivist.LEVEL_INFO})
			opts := reactor.DefaultOptions()
			opts.Policy = scheduler.PolicyFrame
			app := reactor.New(opts, log)

			r := runner.New(app.Scheduler, time.Duration(intervalMS)*time.Millisecond, idleLimit, func() {
				m := app.Metrics()
				fmt.Printf("updates=%d events=%d nodes_processed=%d cache_hits=%d cache_misses=%d\n",
					m.UpdatesTotal, m.EventsTotal, m.NodesProcessedTotal, m.RouterCacheHits, m.RouterCacheMisses)
			}, log)
			r.Loop()
			return nil
		},
	}
	cmd.Flags().IntVar(&intervalMS, "interval-ms", 100, "frame poll interval in milliseconds")
	cmd.Flags().IntVar(&idleLimit, "idle-limit", 5, "the watch loop stops after more than this many consecutive idle polls")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print reactorctl's version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("reactorctl dev")
		},
	}
}
