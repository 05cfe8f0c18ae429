// Package satchelcmder
package satchelcmder

import (
	"github.com/spf13/cobra"

	configcmder "github.com/studyloop/satchel/cmd/satchel/config"
	initcmder "github.com/studyloop/satchel/cmd/satchel/init"
	reindexcmder "github.com/studyloop/satchel/cmd/satchel/reindex"
	searchcmder "github.com/studyloop/satchel/cmd/satchel/search"
	servecmder "github.com/studyloop/satchel/cmd/satchel/serve"
	statscmder "github.com/studyloop/satchel/cmd/satchel/stats"
	versioncmder "github.com/studyloop/satchel/cmd/version"
)

const satchelLongDesc string = `Satchel is semantic retrieval over curriculum knowledge.

It embeds a knowledge corpus into a vector index and answers free-text
queries with the most relevant entries, optionally refined by a
cross-encoder reranker.

Common commands:
  satchel search "query"   Search the knowledge corpus
  satchel serve            Run the HTTP API server
  satchel reindex          Rebuild the vector index
  satchel stats            Show index and pipeline statistics`

const satchelShortDesc string = "Satchel - Semantic Curriculum Retrieval"

func NewSatchelCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "satchel",
		Short: satchelShortDesc,
		Long:  satchelLongDesc,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override the .satchel/ config directory")

	// Add subcommands
	cmd.AddCommand(searchcmder.NewSearchCmd())
	cmd.AddCommand(statscmder.NewStatsCmd())
	cmd.AddCommand(reindexcmder.NewReindexCmd())
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(initcmder.NewInitCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
