// Package reindexcmder provides the reindex command for rebuilding the
// vector index from the knowledge corpus.
package reindexcmder

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/studyloop/satchel/pkg/cliui"
	"github.com/studyloop/satchel/pkg/config"
	"github.com/studyloop/satchel/pkg/engine"
	"github.com/studyloop/satchel/pkg/logger"
)

type reindexCommander struct {
	corpus string
	force  bool

	cfg    *config.Config
	debug  bool
	logger *zap.Logger
}

var reindexFlags = config.FlagSet{
	config.FlagCorpusPath: {
		Name: "corpus", Shorthand: "c", ViperKey: "corpus.path",
		Description: "Path to the knowledge corpus JSON file",
	},
}

var reindexFlagKeys = []string{config.FlagCorpusPath}

const reindexLongDesc string = `Rebuild the vector index from the knowledge corpus.

Re-reads the corpus file, embeds every entry, and swaps in the fresh index.
The rebuilt index is persisted so later commands can load it from disk.
Without --force the rebuild is skipped when the corpus fingerprint already
matches the persisted index.

Example:
  satchel reindex
  satchel reindex --corpus ./knowledge.json
  satchel reindex --force`

const reindexShortDesc string = "Rebuild the vector index"

func NewReindexCmd() *cobra.Command {
	cmder := &reindexCommander{}

	cmd := &cobra.Command{
		Use:   "reindex",
		Short: reindexShortDesc,
		Long:  reindexLongDesc,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			v, err := config.InitViper(configDir)
			if err != nil {
				return err
			}

			config.BindRegisteredFlags(v, cmd, reindexFlags, reindexFlagKeys)
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

	config.AddStringFlag(cmd, reindexFlags, config.FlagCorpusPath, &cmder.corpus)
	cmd.Flags().BoolVarP(&cmder.force, "force", "f", false, "Rebuild even when the persisted index is current")

	return cmd
}

func (c *reindexCommander) run(ctx context.Context, configDir string) error {
	c.logger = logger.NewLogger(c.debug)
	defer func() { _ = c.logger.Sync() }()

	eng, err := engine.New(ctx, c.cfg, configDir, c.logger)
	if err != nil {
		return err
	}
	defer eng.Close()

	err = cliui.Step(os.Stdout, "Rebuilding index", func() error {
		if c.force {
			return eng.Manager().Rebuild(ctx)
		}
		return eng.Manager().Refresh(ctx)
	})
	if err != nil {
		return err
	}

	state, err := eng.Manager().Snapshot()
	if err != nil {
		return err
	}

	fmt.Printf("%s %d\n", cliui.KeyStyle.Render("Vectors:"), state.Index.Len())
	fmt.Printf("%s %s\n", cliui.KeyStyle.Render("Fingerprint:"), cliui.DimStyle.Render(state.Fingerprint))

	return nil
}
