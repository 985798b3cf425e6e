// Command ingest is the HoopGeek data ingestion CLI.
//
// Usage:
//
//	hoopgeek-ingest players sync --season 2024-25
//	hoopgeek-ingest career --limit 50
//	hoopgeek-ingest gamelogs --season 2024-25 --season-type "Regular Season"
//	hoopgeek-ingest games --season 2024-25
//	hoopgeek-ingest teams --team 1610612743
//	hoopgeek-ingest projections --file espn_projections.json
//	hoopgeek-ingest salaries --file hoopshype_salaries.json
//	hoopgeek-ingest salaries --html hoopshype_salaries.html
//	hoopgeek-ingest leagues schedule --all
//	hoopgeek-ingest --dry-run salaries --file hoopshype_salaries.json
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/albapepper/hoopgeek-data/internal/config"
	"github.com/albapepper/hoopgeek-data/internal/db"
	"github.com/albapepper/hoopgeek-data/internal/metrics"
	"github.com/albapepper/hoopgeek-data/internal/model"
	"github.com/albapepper/hoopgeek-data/internal/provider/nbastats"
	"github.com/albapepper/hoopgeek-data/internal/scrape"
	"github.com/albapepper/hoopgeek-data/internal/seed"
	"github.com/albapepper/hoopgeek-data/internal/store"
)

var (
	dryRun      bool
	metricsFile string
)

func main() {
	_ = godotenv.Load(".env")

	root := &cobra.Command{
		Use:           "hoopgeek-ingest",
		Short:         "HoopGeek data ingestion CLI",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "Read and reconcile but write nothing")
	root.PersistentFlags().StringVar(&metricsFile, "metrics-file", "", "Write run counters in Prometheus text format to this file")

	root.AddCommand(playersCmd())
	root.AddCommand(careerCmd())
	root.AddCommand(gameLogsCmd())
	root.AddCommand(gamesCmd())
	root.AddCommand(teamsCmd())
	root.AddCommand(projectionsCmd())
	root.AddCommand(salariesCmd())
	root.AddCommand(leaguesCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// --------------------------------------------------------------------------
// players
// --------------------------------------------------------------------------

func playersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "players",
		Short: "Manage the player registry",
	}
	var season string
	sync := &cobra.Command{
		Use:   "sync",
		Short: "Sync the registry from stats.nba.com commonallplayers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed("players", func(ctx context.Context, r *runner) (seed.Result, error) {
				return r.importer.SyncPlayers(ctx, seasonOr(season, r.cfg))
			})
		},
	}
	sync.Flags().StringVar(&season, "season", "", "Season, e.g. 2024-25 (default NBA_SEASON)")
	cmd.AddCommand(sync)
	return cmd
}

// --------------------------------------------------------------------------
// career / gamelogs / games / teams
// --------------------------------------------------------------------------

func careerCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "career",
		Short: "Import career and per-season regular-season totals",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed("career", func(ctx context.Context, r *runner) (seed.Result, error) {
				return r.importer.ImportCareerStats(ctx, limit)
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "Process at most this many players (0 = all)")
	return cmd
}

func gameLogsCmd() *cobra.Command {
	var season, seasonType string
	cmd := &cobra.Command{
		Use:   "gamelogs",
		Short: "Import every player game log of a season",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed("gamelogs", func(ctx context.Context, r *runner) (seed.Result, error) {
				return r.importer.ImportGameLogs(ctx, seasonOr(season, r.cfg), seasonType)
			})
		},
	}
	cmd.Flags().StringVar(&season, "season", "", "Season, e.g. 2024-25 (default NBA_SEASON)")
	cmd.Flags().StringVar(&seasonType, "season-type", nbastats.SeasonTypeRegular, "Season type")
	return cmd
}

func gamesCmd() *cobra.Command {
	var season, seasonType string
	cmd := &cobra.Command{
		Use:   "games",
		Short: "Import one row per game of a season into nba_games",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed("games", func(ctx context.Context, r *runner) (seed.Result, error) {
				return r.importer.ImportGames(ctx, seasonOr(season, r.cfg), seasonType)
			})
		},
	}
	cmd.Flags().StringVar(&season, "season", "", "Season, e.g. 2024-25 (default NBA_SEASON)")
	cmd.Flags().StringVar(&seasonType, "season-type", nbastats.SeasonTypeRegular, "Season type")
	return cmd
}

func teamsCmd() *cobra.Command {
	var teams []int
	cmd := &cobra.Command{
		Use:   "teams",
		Short: "Import franchise details through upsert_nba_team",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed("teams", func(ctx context.Context, r *runner) (seed.Result, error) {
				return r.importer.ImportTeams(ctx, teams)
			})
		},
	}
	cmd.Flags().IntSliceVar(&teams, "team", nil, "NBA team id (repeatable, default every franchise)")
	return cmd
}

// --------------------------------------------------------------------------
// projections / salaries
// --------------------------------------------------------------------------

func projectionsCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "projections",
		Short: "Import ESPN projections from a scraped JSON file",
		RunE: func(cmd *cobra.Command, args []string) error {
			recs, err := readRecords(file, scrape.LoadProjections)
			if err != nil {
				return err
			}
			return runSeed("projections", func(ctx context.Context, r *runner) (seed.Result, error) {
				return r.importer.ImportProjections(ctx, recs)
			})
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "ESPN projections JSON file")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func salariesCmd() *cobra.Command {
	var file, html string
	cmd := &cobra.Command{
		Use:   "salaries",
		Short: "Import HoopsHype salaries from scraped JSON or a saved HTML page",
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				recs []model.ExternalRecord
				err  error
			)
			switch {
			case file != "":
				recs, err = readRecords(file, scrape.LoadSalaries)
			case html != "":
				recs, err = readRecords(html, scrape.ParseSalaryHTML)
			}
			if err != nil {
				return err
			}
			return runSeed("salaries", func(ctx context.Context, r *runner) (seed.Result, error) {
				return r.importer.ImportSalaries(ctx, recs)
			})
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "HoopsHype salaries JSON file")
	cmd.Flags().StringVar(&html, "html", "", "Saved HoopsHype salaries HTML page")
	cmd.MarkFlagsOneRequired("file", "html")
	cmd.MarkFlagsMutuallyExclusive("file", "html")
	return cmd
}

func readRecords(path string, load func(io.Reader) ([]model.ExternalRecord, error)) ([]model.ExternalRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	recs, err := load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return recs, nil
}

// --------------------------------------------------------------------------
// leagues
// --------------------------------------------------------------------------

func leaguesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "leagues",
		Short: "Fantasy league maintenance",
	}

	var (
		leagueIDs []string
		all       bool
		start     string
	)
	params := seed.DefaultScheduleParams()
	schedule := &cobra.Command{
		Use:   "schedule",
		Short: "Generate weekly matchups for leagues without a schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			if start != "" {
				t, err := time.Parse("2006-01-02", start)
				if err != nil {
					return fmt.Errorf("--start: %w", err)
				}
				params.SeasonStart = t
			}
			return runSeed("league_schedule", func(ctx context.Context, r *runner) (seed.Result, error) {
				ids := leagueIDs
				if all {
					var err error
					if ids, err = r.importer.LeagueIDs(ctx); err != nil {
						return seed.Result{}, err
					}
				}
				r.logger.Info("generating schedules", "leagues", len(ids))
				return r.importer.GenerateSchedules(ctx, ids, params), nil
			})
		},
	}
	schedule.Flags().StringSliceVar(&leagueIDs, "league", nil, "League id (repeatable)")
	schedule.Flags().BoolVar(&all, "all", false, "Every league")
	schedule.Flags().IntVar(&params.RegularSeasonWeeks, "weeks", params.RegularSeasonWeeks, "Regular season weeks")
	schedule.Flags().IntVar(&params.PlayoffTeams, "playoff-teams", params.PlayoffTeams, "Playoff teams")
	schedule.Flags().IntVar(&params.PlayoffWeeks, "playoff-weeks", params.PlayoffWeeks, "Playoff weeks")
	schedule.Flags().StringVar(&start, "start", "", "Season start date (YYYY-MM-DD)")
	schedule.MarkFlagsOneRequired("league", "all")
	schedule.MarkFlagsMutuallyExclusive("league", "all")

	cmd.AddCommand(schedule)
	return cmd
}

// --------------------------------------------------------------------------
// Shared runner
// --------------------------------------------------------------------------

type runner struct {
	cfg      *config.Config
	logger   *slog.Logger
	importer *seed.Importer
}

// runSeed sets up config, database, store and importer, runs fn and logs
// the outcome summary. Only setup failures and cancellation are errors;
// per-record failures are reported in the summary.
func runSeed(name string, fn func(ctx context.Context, r *runner) (seed.Result, error)) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := newLogger(cfg)
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	pool, err := db.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	var st store.Store = store.NewPostgres(pool)
	var dry *store.DryRun
	if dryRun {
		dry = store.NewDryRun(st, logger)
		st = dry
		logger.Info("dry run: nothing will be written")
	}

	m := metrics.New()
	stats := nbastats.NewClient(cfg.NBAStatsBaseURL, cfg.NBAStatsRequestsPerMinute, logger,
		nbastats.WithRetry(cfg.NBAStatsMaxRetries, cfg.NBAStatsRetryBackoff),
		nbastats.WithTimeout(cfg.NBAStatsTimeout))
	r := &runner{
		cfg:      cfg,
		logger:   logger,
		importer: seed.NewImporter(st, stats, logger, seed.OptionsFromConfig(cfg), m),
	}

	start := time.Now()
	res, err := fn(ctx, r)
	elapsed := time.Since(start)
	m.ObserveRun(name, elapsed)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}

	logger.Info("run finished", "job", name, "duration", elapsed.Round(time.Second), "summary", res.Summary())
	if names := res.UnmatchedNames(); len(names) > 0 {
		logger.Warn("unmatched records", "job", name, "count", len(names), "names", names)
	}
	for _, msg := range res.FailureMessages() {
		logger.Error("record failed", "job", name, "detail", msg)
	}
	for _, msg := range res.FetchFailures {
		logger.Error("fetch failed", "job", name, "detail", msg)
	}
	if dry != nil {
		logger.Info("dry run: rows withheld", "tables", dry.Unwritten())
	}

	if metricsFile != "" {
		if err := prometheus.WriteToTextfile(metricsFile, m.Registry()); err != nil {
			logger.Warn("write metrics file failed", "path", metricsFile, "error", err)
		}
	}
	return ctx.Err()
}

func newLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if cfg.Debug {
		opts.Level = slog.LevelDebug
	}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func seasonOr(season string, cfg *config.Config) string {
	if season != "" {
		return season
	}
	return cfg.Season
}
