// Package statscmder provides the stats command for inspecting the
// retrieval stack and index state.
package statscmder

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/studyloop/satchel/pkg/cliui"
	"github.com/studyloop/satchel/pkg/config"
	"github.com/studyloop/satchel/pkg/engine"
	"github.com/studyloop/satchel/pkg/logger"
)

type statsCommander struct {
	asJSON bool

	cfg    *config.Config
	debug  bool
	logger *zap.Logger
}

const statsLongDesc string = `Show retrieval engine statistics.

Prints the index shape (vector count, dimension), the embedding and reranker
models in use, and whether the index is persisted on disk.

Example:
  satchel stats
  satchel stats --json`

const statsShortDesc string = "Show retrieval engine statistics"

func NewStatsCmd() *cobra.Command {
	cmder := &statsCommander{}

	cmd := &cobra.Command{
		Use:   "stats",
		Short: statsShortDesc,
		Long:  statsLongDesc,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			v, err := config.InitViper(configDir)
			if err != nil {
				return err
			}

			cmder.cfg = config.FromViper(v)
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}
			configDir, _ := cmd.Flags().GetString("config-dir")

			return cmder.run(cmd.Context(), configDir)
		},
	}

	cmd.Flags().BoolVar(&cmder.asJSON, "json", false, "Output stats as JSON")

	return cmd
}

func (c *statsCommander) run(ctx context.Context, configDir string) error {
	c.logger = logger.NewLogger(c.debug)
	defer func() { _ = c.logger.Sync() }()

	eng, err := engine.New(ctx, c.cfg, configDir, c.logger)
	if err != nil {
		return err
	}
	defer eng.Close()

	stats := eng.Pipeline().Stats()

	if c.asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	}

	printRow("Vectors", strconv.Itoa(stats.VectorCount))
	printRow("Dimension", strconv.Itoa(stats.Dimension))
	printRow("Similarity", stats.SimilarityAlgorithm)
	printRow("Embedding model", stats.EmbeddingModel)
	if stats.RerankerEnabled {
		printRow("Reranker", stats.RerankerModel)
	} else {
		printRow("Reranker", "disabled")
	}
	if stats.EnrichmentEnabled {
		printRow("Enricher", stats.EnricherName)
	}
	printRow("Persisted", strconv.FormatBool(stats.IndexPersisted))
	printRow("Fingerprint", stats.Fingerprint)

	return nil
}

func printRow(key, value string) {
	fmt.Printf("%s %s\n",
		cliui.KeyStyle.Render(fmt.Sprintf("%-18s", key)),
		cliui.ValueStyle.Render(value),
	)
}
