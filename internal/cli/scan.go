package cli

import (
	"github.com/spf13/cobra"

	"github.com/kmoran/notekit/internal/batch"
	"github.com/kmoran/notekit/internal/scan"
)

func newScanCmd() *cobra.Command {
	var (
		batchSize int
		verbose   bool
	)

	cmd := &cobra.Command{
		Use:   "scan [path]",
		Short: "Classify the query blocks in a vault",
		Long: `Walks the markdown files under the given path (default: the current
directory) and reports how each fenced query block would be treated during
re-serialization: handed to the task-query engine, left alone because of an
ignore directive, or re-serialized as ordinary content. Drawing files are
detected and excluded. File reads run in batches to bound concurrency.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := "."
			if len(args) == 1 {
				root = args[0]
			}

			ctx := cmd.Context()
			size := configFromContext(ctx).Scan.BatchSize
			if cmd.Flags().Changed("batch-size") {
				size = batchSize
			}

			summary, err := scan.Vault(ctx, root, size)
			if err != nil {
				return err
			}

			if verbose {
				for _, r := range summary.Reports {
					switch {
					case r.Excalidraw:
						cmd.Printf("%s: drawing file\n", r.Path)
					default:
						cmd.Printf("%s: %d task queries, %d ignored, %d other blocks\n",
							r.Path, r.TaskQueries, r.SkipBlocks, r.OtherBlocks)
					}
				}
			}

			cmd.Printf("Scanned %d files: %d task queries, %d ignored blocks, %d other blocks, %d drawing files\n",
				summary.Files, summary.TaskQueries, summary.SkipBlocks, summary.OtherBlocks, summary.Excalidraw)
			return nil
		},
	}

	cmd.Flags().IntVar(&batchSize, "batch-size", batch.DefaultSize,
		"maximum number of files read concurrently")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print a line per file")

	return cmd
}
