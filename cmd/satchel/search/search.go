// Package searchcmder provides the search command for semantic retrieval
// over the knowledge corpus.
package searchcmder

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/studyloop/satchel/pkg/config"
	"github.com/studyloop/satchel/pkg/engine"
	"github.com/studyloop/satchel/pkg/logger"
	"github.com/studyloop/satchel/pkg/retrieval"
	"github.com/studyloop/satchel/pkg/utils"
)

var (
	rankStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true)
	scoreStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	topicStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	descStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	headerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Bold(true)
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	rerankedNote = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
)

var searchFlags = config.FlagSet{
	config.FlagCorpusPath: {
		Name: "corpus", Shorthand: "c", ViperKey: "corpus.path",
		Description: "Path to the knowledge corpus JSON file",
	},
	config.FlagRerankerEnabled: {
		Name: "rerank", Shorthand: "r", ViperKey: "reranker.enabled",
		Description: "Refine results with the cross-encoder reranker",
	},
	config.FlagTopK: {
		Name: "top", Shorthand: "k", ViperKey: "retrieval.top_k",
		Description: "Number of results to return",
	},
	config.FlagCandidates: {
		Name: "candidates", ViperKey: "retrieval.rerank_candidates",
		Description: "Candidate pool size for the rerank stage",
	},
	config.FlagMinSimilarity: {
		Name: "min-score", ViperKey: "retrieval.min_similarity",
		Description: "Drop results scoring below this similarity (0-1)",
	},
}

var searchFlagKeys = []string{
	config.FlagCorpusPath,
	config.FlagRerankerEnabled,
	config.FlagTopK,
	config.FlagCandidates,
	config.FlagMinSimilarity,
}

type searchCommander struct {
	query    string
	corpus   string
	topK     uint
	rerank   bool
	pool     uint
	minScore float64
	asJSON   bool

	cfg    *config.Config
	debug  bool
	logger *zap.Logger
}

const searchLongDesc string = `Search the knowledge corpus.

Embeds the query, ranks corpus entries by vector similarity, and prints the
most relevant entries. With --rerank the top candidates are rescored by a
cross-encoder and the two signals are fused into the final order.

The index is loaded from disk when its fingerprint still matches the corpus,
otherwise it is rebuilt first.

Example:
  satchel search "how do I solve quadratic equations"
  satchel search "photosynthesis" --top 10
  satchel search "persuasive essays" --rerank --candidates 30
  satchel search "fractions" --min-score 0.4
  satchel search "cell division" --json`

const searchShortDesc string = "Search the knowledge corpus"

func NewSearchCmd() *cobra.Command {
	cmder := &searchCommander{}

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: searchShortDesc,
		Long:  searchLongDesc,
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			v, err := config.InitViper(configDir)
			if err != nil {
				return err
			}

			config.BindRegisteredFlags(v, cmd, searchFlags, searchFlagKeys)
			cmder.cfg = config.FromViper(v)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.query = args[0]

			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}
			configDir, _ := cmd.Flags().GetString("config-dir")

			return cmder.run(cmd.Context(), configDir)
		},
	}

	config.AddStringFlag(cmd, searchFlags, config.FlagCorpusPath, &cmder.corpus)
	config.AddBoolFlag(cmd, searchFlags, config.FlagRerankerEnabled, &cmder.rerank)
	config.AddUintFlag(cmd, searchFlags, config.FlagTopK, &cmder.topK)
	config.AddUintFlag(cmd, searchFlags, config.FlagCandidates, &cmder.pool)
	config.AddFloat64Flag(cmd, searchFlags, config.FlagMinSimilarity, &cmder.minScore)
	cmd.Flags().BoolVar(&cmder.asJSON, "json", false, "Output results as JSON")

	return cmd
}

func (c *searchCommander) run(ctx context.Context, configDir string) error {
	c.logger = logger.NewLogger(c.debug)
	defer func() { _ = c.logger.Sync() }()

	eng, err := engine.New(ctx, c.cfg, configDir, c.logger)
	if err != nil {
		return err
	}
	defer eng.Close()

	var (
		results  []retrieval.Result
		reranked bool
	)
	switch {
	case c.cfg.Reranker.Enabled:
		results, reranked, err = eng.Pipeline().RetrieveWithReranking(ctx, c.query,
			int(c.cfg.Retrieval.RerankCandidates), int(c.cfg.Retrieval.TopK))
	case c.cfg.Retrieval.MinSimilarity > 0:
		results, err = eng.Pipeline().Retriever().RetrieveWithThreshold(ctx, c.query,
			int(c.cfg.Retrieval.TopK), c.cfg.Retrieval.MinSimilarity)
	default:
		results, err = eng.Pipeline().Retriever().Retrieve(ctx, c.query, int(c.cfg.Retrieval.TopK))
	}
	if err != nil {
		return err
	}

	if c.asJSON {
		return json.NewEncoder(os.Stdout).Encode(results)
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Printf("\n%s %s",
		headerStyle.Render("Results for:"),
		topicStyle.Render(fmt.Sprintf("%q", c.query)),
	)
	if reranked {
		fmt.Printf("  %s", rerankedNote.Render("(reranked)"))
	}
	fmt.Print("\n\n")

	for i, result := range results {
		printResult(i+1, result)
	}

	return nil
}

func printResult(rank int, result retrieval.Result) {
	entry := result.Entry

	fmt.Printf("  %s  %s  %s\n",
		rankStyle.Render(fmt.Sprintf("#%d", rank)),
		scoreStyle.Render(fmt.Sprintf("score: %.4f", result.Score)),
		topicStyle.Render(entry.Topic),
	)

	category := entry.Category
	if entry.Subcategory != "" {
		category += " / " + entry.Subcategory
	}
	fmt.Printf("      %s %s\n", dimStyle.Render(entry.ID), dimStyle.Render(category))

	if entry.Description != "" {
		fmt.Printf("      %s\n", descStyle.Render(utils.Truncate(entry.Description, 100)))
	}

	fmt.Println()
}
