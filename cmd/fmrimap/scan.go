package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/fmrimap/internal/catalog"
	"github.com/fyrsmithlabs/fmrimap/internal/dataset"
	"github.com/fyrsmithlabs/fmrimap/internal/metrics"
	"github.com/fyrsmithlabs/fmrimap/internal/watch"
)

var (
	watchFlag    bool
	debounceFlag time.Duration
)

var scanCmd = &cobra.Command{
	Use:   "scan [root]",
	Short: "List datasets grouped by acquisition month",
	Long: `Scan the root and print the dataset catalog without prompting.

With --watch the root is watched for changes and the catalog is printed
again after each burst of activity. Indices of datasets already listed
never change; new datasets are appended and vanished ones are marked
missing.

Examples:
  # Print the catalog of the current directory
  fmrimap scan

  # Keep watching an acquisition share
  fmrimap scan --watch /mnt/paravision`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScan,
}

func init() {
	scanCmd.Flags().BoolVar(&watchFlag, "watch", false, "re-scan when the tree changes")
	scanCmd.Flags().DurationVar(&debounceFlag, "debounce", watch.DefaultDebounce, "quiet period before re-scanning")
}

func runScan(cmd *cobra.Command, args []string) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}
	defer e.close()
	ctx := cmd.Context()

	root, err := resolveRoot(args)
	if err != nil {
		return err
	}
	scanner, err := dataset.NewScanner(dataset.OptionsFromConfig(e.cfg), e.logger)
	if err != nil {
		return err
	}
	m := metrics.New()
	defer func() {
		if path := e.cfg.Metrics.TextFile; path != "" {
			if err := m.WriteTextfile(path); err != nil {
				e.logger.Warn(ctx, "failed to write metrics textfile", zap.String("path", path), zap.Error(err))
			}
		}
	}()

	datasets, err := scanOnce(ctx, scanner, root, m)
	if err != nil {
		return err
	}
	c, err := catalog.Build(datasets)
	if err != nil {
		return fmt.Errorf("%w under %s", err, root)
	}
	out := cmd.OutOrStdout()
	opts := catalog.RenderOptions{Plain: e.cfg.UI.Plain}
	if err := catalog.Render(out, c, opts); err != nil {
		return err
	}
	if !watchFlag {
		return nil
	}

	w, err := watch.New(root, e.cfg.Scan.MaxDepth, scanner.ExcludePatterns(ctx, root), debounceFlag, e.logger)
	if err != nil {
		return err
	}
	if err := w.Start(ctx); err != nil {
		return err
	}
	defer w.Stop()
	e.logger.Info(ctx, "watching for changes", zap.String("root", root))

	for {
		select {
		case <-ctx.Done():
			return nil
		case change := <-w.Changes():
			e.logger.Debug(ctx, "rescanning", zap.String("trigger", change.Path))
			datasets, err := scanOnce(ctx, scanner, root, m)
			if err != nil {
				e.logger.Warn(ctx, "rescan failed", zap.Error(err))
				continue
			}
			if err := rerender(out, c, datasets, opts); err != nil {
				return err
			}
		}
	}
}

func scanOnce(ctx context.Context, scanner *dataset.Scanner, root string, m *metrics.Metrics) ([]dataset.Dataset, error) {
	start := time.Now()
	datasets, err := scanner.Scan(ctx, root)
	if err != nil {
		return nil, err
	}
	m.ObserveScan(len(datasets), time.Since(start))
	return datasets, nil
}

// rerender merges a rescan into c and prints it again.
func rerender(w io.Writer, c *catalog.Catalog, datasets []dataset.Dataset, opts catalog.RenderOptions) error {
	res := c.Merge(datasets)
	fmt.Fprintf(w, "\n%d new, %d missing\n", res.Added, res.Missing)
	return catalog.Render(w, c, opts)
}
