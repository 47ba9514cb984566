package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/linechat-server/internal/app"
	"github.com/vovakirdan/linechat-server/internal/auth"
	"github.com/vovakirdan/linechat-server/internal/config"
	applog "github.com/vovakirdan/linechat-server/internal/log"
)

type rootFlags struct {
	configPath string
	logLevel   string
}

type serveFlags struct {
	addr          string
	httpAddr      string
	auditDBPath   string
	excludeSender bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var rf rootFlags

	root := &cobra.Command{
		Use:          "linechat",
		Short:        "Line-oriented JSON chat server",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&rf.configPath, "config", "", "path to config.yaml")
	root.PersistentFlags().StringVar(&rf.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	serve := newServeCmd(&rf)
	root.AddCommand(serve, newTokenCmd(&rf))
	// bare "linechat" serves
	root.RunE = serve.RunE
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func newServeCmd(rf *rootFlags) *cobra.Command {
	var sf serveFlags

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the chat server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(rf)
			if err != nil {
				return err
			}
			cfg.UpdateFrom(config.Config{
				Addr:          sf.addr,
				HTTPAddr:      sf.httpAddr,
				AuditDBPath:   sf.auditDBPath,
				ExcludeSender: sf.excludeSender,
			})

			logger := applog.New(cfg.LogLevel, cfg.LogFormat)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			application, err := app.New(&cfg, logger)
			if err != nil {
				logger.Error().Err(err).Msg("failed to initialize app")
				return err
			}

			logger.Info().
				Str("tcp_addr", cfg.Addr).
				Str("http_addr", cfg.HTTPAddr).
				Bool("exclude_sender", cfg.ExcludeSender).
				Msg("starting linechat server")
			if err := application.Run(ctx); err != nil {
				logger.Error().Err(err).Msg("server exited with error")
				return err
			}
			logger.Info().Msg("server stopped")
			return nil
		},
	}

	cmd.Flags().StringVar(&sf.addr, "addr", "", "TCP chat listen address")
	cmd.Flags().StringVar(&sf.httpAddr, "http-addr", "", "HTTP listen address for /ws and the admin API")
	cmd.Flags().StringVar(&sf.auditDBPath, "audit-db", "", "SQLite path for the session audit log")
	cmd.Flags().BoolVar(&sf.excludeSender, "exclude-sender", false, "do not echo chat messages to their author")

	return cmd
}

func newTokenCmd(rf *rootFlags) *cobra.Command {
	var (
		subject string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an admin API bearer token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(rf)
			if err != nil {
				return err
			}
			if cfg.AdminJWTSecret == "" {
				return fmt.Errorf("admin_jwt_secret is not configured")
			}

			token, err := auth.GenerateToken(&auth.JWTConfig{
				Secret: []byte(cfg.AdminJWTSecret),
				Issuer: cfg.AdminJWTIssuer,
				TTL:    ttl,
			}, subject)
			if err != nil {
				return fmt.Errorf("generate token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "admin", "token subject")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")

	return cmd
}

func loadConfig(rf *rootFlags) (config.Config, error) {
	bootLevel := rf.logLevel
	if bootLevel == "" {
		bootLevel = "info"
	}
	bootLogger := applog.New(bootLevel, "console")

	cfg, path, err := config.Load(bootLogger, rf.configPath)
	if err != nil {
		bootLogger.Error().Err(err).Str("path", path).Msg("failed to load config")
		return cfg, err
	}
	cfg.UpdateFrom(config.Config{LogLevel: rf.logLevel})
	bootLogger.Debug().Str("path", path).Msg("config loaded")
	return cfg, nil
}
