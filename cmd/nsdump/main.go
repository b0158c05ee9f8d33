// FILE: lixenwraith/namespace/cmd/nsdump/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lixenwraith/namespace"
)

type options struct {
	delimiter string
	strict    bool
	lookups   []string
	envPrefix string
	verbose   bool
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := buildCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func buildCmd() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:          "nsdump [root]",
		Short:        "Build a namespace from a file or directory and print it",
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(opts.verbose)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			root, err := build(opts, args, logger)
			if err != nil {
				logger.Error("build failed", zap.Error(err))
				return err
			}
			return printNamespace(cmd, root, opts.lookups)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.delimiter, "delimiter", namespace.DefaultDelimiter, "path segment delimiter")
	flags.BoolVar(&opts.strict, "strict", false, "reject duplicate keys across sources")
	flags.StringArrayVar(&opts.lookups, "lookup", nil, "print only the binding at this path (repeatable)")
	flags.StringVar(&opts.envPrefix, "env-prefix", "", "also load environment variables with this prefix")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "log loader activity")

	return cmd
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func build(opts options, args []string, logger *zap.Logger) (*namespace.Node, error) {
	policy := namespace.MergeOverwrite
	if opts.strict {
		policy = namespace.MergeStrict
	}

	b := namespace.NewBuilder().
		WithDelimiter(opts.delimiter).
		WithMergePolicy(policy).
		WithEnvPrefix(opts.envPrefix).
		WithLogger(logger)

	if len(args) == 1 {
		b.WithRoot(args[0])
	} else {
		b.WithRootDiscovery(namespace.DefaultDiscoveryOptions("nsdump"))
	}
	return b.Build()
}

func printNamespace(cmd *cobra.Command, root *namespace.Node, lookups []string) error {
	out := cmd.OutOrStdout()
	if len(lookups) == 0 {
		return root.Dump(out)
	}

	var errs []error
	for _, path := range lookups {
		b, err := root.Lookup(path)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if b.IsSubtree() {
			fmt.Fprint(out, b.Node().Debug())
			continue
		}
		fmt.Fprintf(out, "%s = %v (%s)\n", path, b.Value(), b.Leaf().TypeName())
	}
	return errors.Join(errs...)
}
