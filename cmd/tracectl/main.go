// Command tracectl is a host-side demo and snapshot CLI for tracecore,
// grounded on the teacher pack's cobra-based single-binary commands
// (coordinator/cmd/coordinator and controlplane/cmd/yncp-director):
// a package-level rootCmd with flag-bound subcommands, a zap logger built
// by newLogger, and RunE command bodies that return their errors to main,
// which prints them and exits with status 1.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/c2h5oh/datasize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tracecore/tracecore"
	"github.com/tracecore/tracecore/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "tracectl",
	Short: "Demo and inspection CLI for the tracecore in-process tracer",
}

func main() {
	rootCmd.AddCommand(demoCmd, exportCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}
}

func newLogger() *logging.Logger {
	config := zap.NewDevelopmentConfig()
	config.Development = false
	z, err := config.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	return logging.New(z)
}

type demoFlags struct {
	configPath string
	bufferSize string
	spans      int
	out        string
}

var demoArgs demoFlags

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run a synthetic workload through a tracer and write a trace document",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDemo(cmd.Context(), demoArgs)
	},
}

func init() {
	demoCmd.Flags().StringVar(&demoArgs.configPath, "config", "", "optional YAML config file (see tracecore.LoadConfig)")
	demoCmd.Flags().StringVar(&demoArgs.bufferSize, "buffer-size", "64KiB", "ring buffer size, e.g. 256KiB (ignored if --config is set)")
	demoCmd.Flags().IntVar(&demoArgs.spans, "spans", 1000, "number of synthetic spans to emit")
	demoCmd.Flags().StringVarP(&demoArgs.out, "out", "o", "trace.json", "output trace document path")
}

func runDemo(ctx context.Context, args demoFlags) error {
	logging.SetDefault(newLogger())

	cfg, err := resolveConfig(args.configPath, args.bufferSize)
	if err != nil {
		return err
	}

	t := tracecore.New(*cfg)
	if err := t.Init(); err != nil {
		return fmt.Errorf("tracer init: %w", err)
	}
	defer t.Deinit()

	bg := context.Background()
	for i := 0; i < args.spans; i++ {
		span := t.Begin(bg, "demo-span", 0)
		time.Sleep(time.Microsecond)
		span.End()
	}

	f, err := os.Create(args.out)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer f.Close()

	if err := t.Snapshot(ctx, f); err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	fmt.Fprintf(os.Stdout, "wrote %s\n", args.out)
	return nil
}

// resolveConfig loads cfg from a YAML file when configPath is set,
// otherwise builds one from DefaultConfig with bufferSize applied.
func resolveConfig(configPath, bufferSize string) (*tracecore.Config, error) {
	if configPath != "" {
		cfg, err := tracecore.LoadConfig(configPath)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		return cfg, nil
	}
	var size datasize.ByteSize
	if err := size.UnmarshalText([]byte(bufferSize)); err != nil {
		return nil, fmt.Errorf("invalid --buffer-size: %w", err)
	}
	cfg := tracecore.DefaultConfig()
	cfg.BufferSize = int(size.Bytes())
	return &cfg, nil
}

var exportArgs struct {
	configPath string
	bufferSize string
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Print the worst-case trace document size for a given buffer size",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := resolveConfig(exportArgs.configPath, exportArgs.bufferSize)
		if err != nil {
			return err
		}
		t := tracecore.New(*cfg)
		fmt.Fprintf(os.Stdout, "%d\n", t.SnapshotSizeUpperBound())
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportArgs.configPath, "config", "", "optional YAML config file (see tracecore.LoadConfig)")
	exportCmd.Flags().StringVar(&exportArgs.bufferSize, "buffer-size", "64KiB", "ring buffer size, e.g. 256KiB (ignored if --config is set)")
}
