package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/vk/flowpack/internal/cli"
	"github.com/vk/flowpack/internal/ctxlog"
	"github.com/vk/flowpack/internal/loader"
	"github.com/vk/flowpack/internal/registry"
	"github.com/vk/flowpack/internal/workflow"
	"github.com/vk/flowpack/modules/echo"
	"github.com/vk/flowpack/modules/scale"
	"github.com/vk/flowpack/modules/sink"
	"github.com/vk/flowpack/modules/source"
)

// main is the entrypoint for the flowpack tool.
func main() {
	// Use a minimal logger until the full one is configured.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	// The real main function handles errors and exit codes.
	if err := run(os.Stdout, os.Args[1:]); err != nil {
		if exitErr, ok := err.(*cli.ExitError); ok {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run encapsulates the tool's logic for easier testing and error handling.
func run(outW io.Writer, args []string) error {
	config, shouldExit, err := cli.Parse(args, outW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	logger := cli.NewLogger(config.LogLevel, config.LogFormat, os.Stderr)
	ctx := ctxlog.WithLogger(context.Background(), logger)

	reg := registry.New(echo.Module{}, source.Module{}, sink.Module{}, scale.Module{})

	var opts []loader.Option
	if config.TempDir != "" {
		opts = append(opts, loader.WithTempBase(config.TempDir))
	}

	wf, err := loader.New(reg, opts...).Load(ctx, config.ArchivePath)
	if err != nil {
		return err
	}
	defer wf.Release()

	printSummary(outW, wf)
	return nil
}

// printSummary writes a human-readable description of the loaded workflow.
func printSummary(outW io.Writer, wf *workflow.Workflow) {
	name := wf.Name()
	if name == "" {
		name = "(unnamed)"
	}
	fmt.Fprintf(outW, "workflow %s", name)
	if v := wf.Version(); v != "" {
		fmt.Fprintf(outW, " version %s", v)
	}
	fmt.Fprintf(outW, ": %d units, %d links\n", wf.Len(), len(wf.Edges()))

	for i := 0; i < wf.Len(); i++ {
		fmt.Fprintf(outW, "  %-3d %s", i, wf.ID(i))
		if in := wf.Inputs(i); len(in) > 0 {
			fmt.Fprint(outW, " <-")
			for _, e := range in {
				fmt.Fprintf(outW, " %s", wf.ID(e.From))
			}
		}
		fmt.Fprintln(outW)
	}
}
