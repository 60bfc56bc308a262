package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/STTM-NSU/pricefeed/internal/feed"
	"github.com/STTM-NSU/pricefeed/internal/feedapi"
	"github.com/STTM-NSU/pricefeed/internal/model"
	"github.com/STTM-NSU/pricefeed/internal/notify"
	"github.com/STTM-NSU/pricefeed/internal/portfolio"
	"github.com/STTM-NSU/pricefeed/internal/terminal"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const (
	_apiTimeout = 5 * time.Second
)

func newWatchCmd(a *app) *cobra.Command {
	var every time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Mirror live quotes, value the portfolio and trade from the console",
		Long: `Connects to the push channel and keeps a live quote mirror. Holdings from
the config are revalued on every tick and closed automatically when their
stop-loss is hit. Type "help" for console commands.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.watch(cmd.Context(), every, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().DurationVar(&every, "every", 10*time.Second, "portfolio print interval, 0 disables")

	return cmd
}

func (a *app) watch(ctx context.Context, every time.Duration, in io.Reader, stdout io.Writer) error {
	out := &syncWriter{w: stdout}

	api, err := a.api()
	if err != nil {
		return err
	}
	defer api.Close()
	if err := api.Health(ctx); err != nil {
		a.logger.Warnf("%s: feed server not ready, will keep retrying", err)
	}

	sink, closeSink, err := a.openHistory(ctx)
	if err != nil {
		return fmt.Errorf("%w: can't open trade history", err)
	}
	defer closeSink()

	p, err := portfolio.New(a.cfg.Holdings)
	if err != nil {
		return fmt.Errorf("%w: invalid holdings", err)
	}
	alerts := notify.NewStore(a.cfg.NotificationLimit, notify.WithHook(func(al model.Alert) {
		fmt.Fprintln(out, renderAlert(al))
	}))
	term := terminal.New(p, sink, alerts, a.logger.Named("terminal"))

	consumer, err := feed.NewConsumer(feed.Config{
		URL:              a.cfg.ServerURL,
		Backoff:          a.cfg.ReconnectBackoff,
		HandshakeTimeout: a.cfg.HandshakeTimeout,
		ReadTimeout:      a.cfg.ReadTimeout,
	}, term, a.logger.Named("feed"))
	if err != nil {
		return err
	}

	con := &console{term: term, alerts: alerts, out: out}
	go func() {
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			if err := con.exec(ctx, scanner.Text()); err != nil {
				fmt.Fprintln(out, downStyle.Render(err.Error()))
			}
		}
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return consumer.Run(gctx)
	})
	if every > 0 {
		g.Go(func() error {
			ticker := time.NewTicker(every)
			defer ticker.Stop()
			for {
				select {
				case <-gctx.Done():
					return nil
				case <-ticker.C:
					if !consumer.Connected() {
						fmt.Fprintln(out, mutedStyle.Render("waiting for feed..."))
						continue
					}
					fmt.Fprintln(out, renderPositions(term.Positions(), term.Summary()))
				}
			}
		})
	}

	return g.Wait()
}

func newQuotesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "quotes",
		Short: "Print the current quote snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := a.api()
			if err != nil {
				return err
			}
			defer api.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), _apiTimeout)
			defer cancel()
			batch, err := api.Quotes(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderQuotes(batch))
			return nil
		},
	}
}

func newHistoryCmd(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Print recorded trades, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sink, closeSink, err := a.openHistory(cmd.Context())
			if err != nil {
				return err
			}
			defer closeSink()

			trades, err := sink.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTrades(trades))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of trades, 0 for all")

	return cmd
}

func (a *app) api() (*feedapi.Client, error) {
	baseURL, err := feedapi.BaseURL(a.cfg.ServerURL)
	if err != nil {
		return nil, err
	}
	return feedapi.NewClient(baseURL, _apiTimeout, a.logger.Named("api")), nil
}
