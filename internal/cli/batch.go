package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"item-appraiser/internal/filewalker"
	"item-appraiser/internal/item"
	"item-appraiser/internal/parser"
	"item-appraiser/internal/query"
	"item-appraiser/internal/worker"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// batchResult is one line of `batch` output.
type batchResult struct {
	File   string                `json:"file"`
	Item   *item.Item            `json:"item,omitempty"`
	Ranges []query.RangeArgument `json:"ranges,omitempty"`
	Error  string                `json:"error,omitempty"`
}

func batchCmd(opts *options) *cobra.Command {
	var (
		withRanges bool
		tolerance  float64
		extensions []string
		chunkSize  int
	)

	cmd := &cobra.Command{
		Use:   "batch <directory>",
		Short: "Parse every item text dump under a directory, one JSON line per file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := setupContext()
			defer cancel()

			cfg := opts.cfg
			if !cmd.Flags().Changed("tolerance") {
				tolerance = cfg.ToleranceRatio
			}

			cat, err := loadCatalog(ctx, cfg)
			if err != nil {
				return err
			}
			p, err := parser.New(cat)
			if err != nil {
				return err
			}

			w := filewalker.NewWalker(extensions...)
			entries, err := w.Walk(args[0])
			if err != nil {
				return fmt.Errorf("walk input directory: %w", err)
			}

			pool := worker.NewPool[filewalker.FileEntry, *item.Item](cfg.WorkerCount,
				func(_ context.Context, entry filewalker.FileEntry) (*item.Item, error) {
					text, err := w.ReadFile(entry)
					if err != nil {
						return nil, err
					}
					return p.Parse(text)
				},
			)

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetEscapeHTML(false)

			var parsed, failed int
			for _, chunk := range worker.Batch(entries, chunkSize) {
				for _, task := range pool.Execute(ctx, chunk) {
					res := batchResult{File: task.Input.Path}
					if task.Err != nil {
						log.Error().Err(task.Err).Str("file", task.Input.Path).Msg("Parse failed")
						res.Error = task.Err.Error()
						failed++
					} else {
						res.Item = task.Result
						if withRanges {
							res.Ranges = query.ToRangeArguments(task.Result, cat, tolerance)
						}
						parsed++
					}
					if err := enc.Encode(res); err != nil {
						return fmt.Errorf("encode JSON: %w", err)
					}
				}
				if err := ctx.Err(); err != nil {
					return err
				}
			}

			log.Info().
				Int("files", len(entries)).
				Int("parsed", parsed).
				Int("failed", failed).
				Msg("Batch complete")

			return nil
		},
	}

	cmd.Flags().BoolVar(&withRanges, "ranges", false, "Include search ranges for every mod")
	cmd.Flags().Float64Var(&tolerance, "tolerance", query.DefaultToleranceRatio, "Tolerance ratio for search ranges")
	cmd.Flags().StringSliceVar(&extensions, "ext", nil, "File extensions to parse (default .txt)")
	cmd.Flags().IntVar(&chunkSize, "chunk", 256, "Files parsed before results are flushed")

	return cmd
}
