package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mohammad-safakhou/websage/config"
	"github.com/mohammad-safakhou/websage/internal/chat"
	"github.com/mohammad-safakhou/websage/internal/pipeline"
	"github.com/mohammad-safakhou/websage/internal/server"
	"github.com/mohammad-safakhou/websage/internal/telemetry"
	"github.com/mohammad-safakhou/websage/provider"
	"github.com/mohammad-safakhou/websage/tools/web_fetch"
	"github.com/mohammad-safakhou/websage/tools/web_search"
)

const version = "0.1.0"

func main() {
	root := &cobra.Command{Use: "websage", Short: "Search-augmented conversational assistant"}
	root.AddCommand(chatCMD(), serveCMD(), versionCMD())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func chatCMD() *cobra.Command {
	var cfgPath string
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Run the interactive assistant on stdin/stdout",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(cfgPath)
			if err != nil {
				return err
			}

			prov, err := provider.NewProvider(cfg.LLM)
			if err != nil {
				return err
			}
			searcher, err := web_search.NewWebSearcher(web_search.Provider(cfg.Search.Provider), cfg.Search.Endpoint, cfg.Search.UserAgent, cfg.Search.Timeout)
			if err != nil {
				return err
			}
			fetcher, err := web_fetch.NewWebFetcher(web_fetch.ReadabilityFetcherType, cfg.Extract.Timeout, cfg.Extract.MaxChars, cfg.Search.UserAgent)
			if err != nil {
				return err
			}

			tele := telemetry.New()
			orch := pipeline.NewOrchestrator(cfg, prov, searcher, fetcher, newLogger(cfg, "[PIPELINE] "), tele)
			chatSvc := chat.NewChat(cfg, prov, orch, newLogger(cfg, "[CHAT] "), tele)
			sess := chat.NewStore().Create(chat.DefaultSystemPrompt)

			// An interrupt aborts the current turn and ends the loop; it
			// never tears the process down mid-append.
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			repl := chat.NewREPL(chatSvc, sess, os.Stdin, os.Stdout, newLogger(cfg, "[REPL] "))
			return repl.Run(ctx)
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "config file (default is ./config)")
	return cmd
}

func serveCMD() *cobra.Command {
	var cfgPath string
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(cfgPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Address = addr
			}
			return server.Run(cfg)
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "config file (default is ./config)")
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	return cmd
}

func versionCMD() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("websage " + version)
		},
	}
}

func newLogger(cfg *config.Config, prefix string) *log.Logger {
	flags := log.LstdFlags
	if cfg.General.Debug {
		flags |= log.Lshortfile
	}
	return log.New(os.Stdout, prefix, flags)
}
