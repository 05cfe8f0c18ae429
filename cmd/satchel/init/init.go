// Package initcmder provides the init command for initializing a local
// .satchel directory in the current working directory.
package initcmder

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/studyloop/satchel/pkg/config"
)

const (
	dirName = ".satchel"
)

const initLongDesc string = `Initialize a new .satchel/ directory in the current working directory.

Creates a local .satchel/ directory that takes precedence over the default
~/.satchel/ directory for configuration and the persisted index.

This is useful for maintaining separate corpora and indexes per project.

With --preset a config.toml is written from a named preset:
  ollama      Local Ollama embeddings, no reranker (default settings)
  reranked    Ollama embeddings plus a TEI cross-encoder reranker

Examples:
  satchel init
  satchel init --preset reranked`

const initShortDesc string = "Initialize a local .satchel/ directory"

func NewInitCmd() *cobra.Command {
	var preset string

	cmd := &cobra.Command{
		Use:   "init",
		Short: initShortDesc,
		Long:  initLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runInit(preset)
		},
	}

	cmd.Flags().StringVarP(&preset, "preset", "p", "",
		fmt.Sprintf("Write a config.toml from a preset (%s)", strings.Join(config.ValidPresetNames(), ", ")))

	return cmd
}

func runInit(preset string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	dir := filepath.Join(cwd, dirName)

	info, err := os.Stat(dir)
	if err == nil && info.IsDir() {
		fmt.Printf("Already initialized: %s\n", dir)
	} else {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating .satchel directory: %w", err)
		}
		fmt.Printf("Initialized .satchel directory: %s\n", dir)
	}

	if preset == "" {
		return nil
	}

	cfg, err := config.PresetConfig(preset)
	if err != nil {
		return err
	}

	cfger, err := config.NewConfiger(dir)
	if err != nil {
		return fmt.Errorf("resolving config target: %w", err)
	}

	if err := cfger.SaveConfig(cfg); err != nil {
		return fmt.Errorf("writing preset config: %w", err)
	}

	fmt.Printf("Wrote %s preset config: %s\n", preset, cfger.GetTarget())
	return nil
}
