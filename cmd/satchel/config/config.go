// Package configcmder provides the config command for managing persistent
// satchel configuration stored in the .satchel/ directory.
package configcmder

import (
	"github.com/spf13/cobra"
)

const configLongDesc string = `Manage persistent satchel configuration.

Configuration is stored as config.toml in the .satchel/ directory and provides
default values for command flags. CLI flags always take precedence over
config file values.

Keys use dotted notation matching the TOML section structure:
  corpus.path, corpus.watch,
  index.dir, index.batch_size, index.workers,
  api.listen,
  embedding.provider, embedding.target, embedding.model, embedding.dimensions,
  reranker.enabled, reranker.provider, reranker.target, reranker.model,
  retrieval.top_k, retrieval.rerank_candidates, retrieval.min_similarity

Use subcommands to get, set, or list configuration values:
  satchel config set <key> <value>    Set a configuration value
  satchel config get <key>            Get a configuration value
  satchel config list                 List all configuration values

Examples:
  satchel config set corpus.path ./knowledge.json
  satchel config set embedding.model nomic-embed-text
  satchel config get reranker.enabled
  satchel config list`

const configShortDesc string = "Manage persistent satchel configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}
