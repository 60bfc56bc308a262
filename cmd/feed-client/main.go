package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/STTM-NSU/pricefeed/internal/config"
	"github.com/STTM-NSU/pricefeed/internal/history"
	"github.com/STTM-NSU/pricefeed/internal/logger"
	"github.com/STTM-NSU/pricefeed/internal/sqldb"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

type app struct {
	cfgPath string
	cfg     config.ClientConfig
	logger  logger.Logger
	sync    func()
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("can't detect .env file")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:          "feed-client",
		Short:        "Live quote mirror and paper portfolio for a price feed server",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.sync != nil {
				a.sync()
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&a.cfgPath, "config", "c", os.Getenv("FEED_CLIENT_CONFIG"), "client config file")
	rootCmd.PersistentFlags().String("server", "", "push channel url, overrides the config")

	rootCmd.AddCommand(newWatchCmd(a))
	rootCmd.AddCommand(newQuotesCmd(a))
	rootCmd.AddCommand(newHistoryCmd(a))

	return rootCmd
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.LoadClientConfig(a.cfgPath)
	if err != nil {
		return fmt.Errorf("%w: can't load client cfg", err)
	}
	if server, _ := cmd.Flags().GetString("server"); server != "" {
		cfg.ServerURL = server
		if err := cfg.ValidateAndSetup(); err != nil {
			return fmt.Errorf("%w: invalid server url", err)
		}
	}
	a.cfg = cfg

	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	zapLogger, loggerSync, err := logger.NewZapLogger(level)
	if err != nil {
		return err
	}
	a.logger = zapLogger
	a.sync = loggerSync
	return nil
}

// openHistory builds the configured trade history sink.
func (a *app) openHistory(ctx context.Context) (history.Sink, func(), error) {
	switch a.cfg.History.Driver {
	case config.SQLite:
		db, err := sqldb.NewSQLite(a.cfg.History.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		sink, err := history.NewSQL(ctx, db)
		if err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return sink, func() { _ = db.Close() }, nil
	case config.Postgres:
		db, err := sqldb.NewDB(sqldb.NewConfigFromEnv().Setup())
		if err != nil {
			return nil, nil, err
		}
		sink, err := history.NewSQL(ctx, db)
		if err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return sink, func() { _ = db.Close() }, nil
	default:
		return history.NewMemory(), func() {}, nil
	}
}
