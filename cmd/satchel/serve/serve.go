// Package servecmder provides the serve command for running the retrieval
// HTTP API.
package servecmder

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/studyloop/satchel/api"
	"github.com/studyloop/satchel/pkg/config"
	"github.com/studyloop/satchel/pkg/engine"
	"github.com/studyloop/satchel/pkg/logger"
)

type serveCommander struct {
	listen string
	corpus string
	watch  bool

	cfg    *config.Config
	debug  bool
	logger *zap.Logger
}

var serveFlags = config.FlagSet{
	config.FlagAPIListen: {
		Name: "listen", Shorthand: "l", ViperKey: "api.listen",
		Description: "Address for the API server to listen on",
	},
	config.FlagCorpusPath: {
		Name: "corpus", Shorthand: "c", ViperKey: "corpus.path",
		Description: "Path to the knowledge corpus JSON file",
	},
	config.FlagCorpusWatch: {
		Name: "watch", Shorthand: "w", ViperKey: "corpus.watch",
		Description: "Watch the corpus file and reindex on change",
	},
}

var serveFlagKeys = []string{
	config.FlagAPIListen,
	config.FlagCorpusPath,
	config.FlagCorpusWatch,
}

const serveLongDesc string = `Run the retrieval API server.

Builds or loads the vector index, then serves search, stats, and reindex
endpoints over HTTP. With --watch the corpus file is monitored and the index
is rebuilt automatically when it changes.

Example:
  satchel serve
  satchel serve --listen :9090
  satchel serve --watch`

const serveShortDesc string = "Run the retrieval API server"

func NewServeCmd() *cobra.Command {
	cmder := &serveCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			v, err := config.InitViper(configDir)
			if err != nil {
				return err
			}

			config.BindRegisteredFlags(v, cmd, serveFlags, serveFlagKeys)
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

	config.AddStringFlag(cmd, serveFlags, config.FlagAPIListen, &cmder.listen)
	config.AddStringFlag(cmd, serveFlags, config.FlagCorpusPath, &cmder.corpus)
	config.AddBoolFlag(cmd, serveFlags, config.FlagCorpusWatch, &cmder.watch)

	return cmd
}

func (c *serveCommander) run(ctx context.Context, configDir string) error {
	c.logger = logger.NewLogger(c.debug)
	defer func() { _ = c.logger.Sync() }()

	eng, err := engine.New(ctx, c.cfg, configDir, c.logger)
	if err != nil {
		return err
	}
	defer eng.Close()

	if c.cfg.Corpus.Watch {
		if err := eng.Watch(ctx); err != nil {
			return fmt.Errorf("watching corpus: %w", err)
		}
	}

	server := api.NewServer(api.Config{ListenAddr: c.cfg.API.Listen}, eng, c.logger)

	c.logger.Info("starting api server",
		zap.String("api_addr", c.cfg.API.Listen),
		zap.Bool("watch", c.cfg.Corpus.Watch),
	)

	errChan := make(chan error, 1)
	go func() {
		if err := server.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
		return server.Shutdown()
	}
}
