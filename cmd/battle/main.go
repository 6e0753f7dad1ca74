// Package main runs a single turn-based encounter, interactively in the
// terminal or headless for scripted runs.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/cory-johannsen/battle/internal/config"
	"github.com/cory-johannsen/battle/internal/game/combat"
	"github.com/cory-johannsen/battle/internal/game/dice"
	"github.com/cory-johannsen/battle/internal/game/roster"
	"github.com/cory-johannsen/battle/internal/observability"
	"github.com/cory-johannsen/battle/internal/scripting"
	"github.com/cory-johannsen/battle/internal/storage/postgres"
	"github.com/cory-johannsen/battle/internal/ui"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	envFile := flag.String("env", ".env", "optional dotenv file loaded before configuration")
	headless := flag.Bool("headless", false, "run without the terminal UI, always attacking the first hostile")
	noDelay := flag.Bool("no-delay", false, "skip pacing delays (headless only)")
	logFile := flag.String("log-file", "battle.log", "log destination while the terminal UI owns stdout")
	history := flag.Int("history", 0, "print the N most recent stored encounters and outcome totals, then exit")
	reportID := flag.String("report", "", "print the stored encounter with this id, then exit")
	flag.Parse()

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("note: %s not loaded: %v", *envFile, err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	var logger *zap.Logger
	if *headless || *history > 0 || *reportID != "" {
		logger, err = observability.NewLogger(cfg.Logging)
	} else {
		logger, err = observability.NewFileLogger(cfg.Logging, *logFile)
	}
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown, err := observability.SetupTracing(ctx, cfg.Telemetry)
	if err != nil {
		logger.Warn("tracing disabled", zap.Error(err))
	} else {
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				logger.Warn("shutting down tracing", zap.Error(err))
			}
		}()
	}

	if *history > 0 || *reportID != "" {
		if err := showHistory(ctx, cfg.Database, *history, *reportID); err != nil {
			logger.Fatal("reading encounter history", zap.Error(err))
		}
		return
	}

	party, enemies, err := loadRoster(cfg.Content, logger)
	if err != nil {
		logger.Fatal("loading roster", zap.Error(err))
	}

	src := newSource(cfg.Battle.Seed, logger)

	policy, closePolicy, err := newPolicy(cfg, src, logger)
	if err != nil {
		logger.Fatal("creating hostile policy", zap.Error(err))
	}
	defer closePolicy()

	order, err := combat.ParseTurnOrder(cfg.Battle.TurnOrder)
	if err != nil {
		logger.Fatal("parsing turn order", zap.Error(err))
	}

	opts := combat.Options{
		Party:        party,
		Enemies:      enemies,
		PartyAnchors: anchors(cfg.Battle.PartyAnchors),
		EnemyAnchors: anchors(cfg.Battle.EnemyAnchors),
		Source:       src,
		Pacing: combat.Pacing{
			TurnDelay:    cfg.Battle.TurnDelay,
			DamageDelay:  cfg.Battle.DamageDelay,
			DefeatDelay:  cfg.Battle.DefeatDelay,
			VictoryDelay: cfg.Battle.VictoryDelay,
		},
		Policy:    policy,
		TurnOrder: order,
		Logger:    logger,
		OnEnd: func(o combat.Outcome) {
			logger.Info("encounter outcome", zap.Stringer("outcome", o))
		},
	}

	logger.Info("starting encounter",
		zap.String("hostile_policy", cfg.Battle.HostilePolicy),
		zap.String("turn_order", order.String()),
		zap.Bool("headless", *headless),
		zap.Duration("elapsed", time.Since(start)),
	)

	var enc *combat.Encounter
	if *headless {
		if *noDelay {
			opts.Pacer = combat.NoDelayPacer{}
		}
		enc, err = runHeadless(ctx, opts)
	} else {
		enc, err = runInteractive(ctx, opts, logger)
	}
	if errors.Is(err, ui.ErrQuit) {
		logger.Info("quit before the encounter ended")
		return
	}
	if err != nil {
		logger.Error("encounter failed", zap.Error(err))
	}
	if enc == nil {
		os.Exit(1)
	}

	rep, ok := enc.Report()
	if !ok {
		return
	}
	if *headless {
		printReport(rep)
	}
	if cfg.Database.Enabled {
		if err := saveReport(ctx, cfg.Database, rep, logger); err != nil {
			logger.Error("saving encounter report", zap.Error(err))
		}
	}
	if rep.Failure != "" {
		os.Exit(1)
	}
}

// loadRoster builds the party and enemy providers from content files.
func loadRoster(cfg config.ContentConfig, logger *zap.Logger) (*roster.Party, *roster.EnemyGroup, error) {
	party, err := roster.LoadParty(cfg.PartyFile)
	if err != nil {
		return nil, nil, err
	}
	templates, err := roster.LoadTemplates(cfg.EnemyDir)
	if err != nil {
		return nil, nil, err
	}
	gen, err := roster.NewGenerator(templates)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("loaded enemy templates", zap.Strings("names", gen.Names()))
	return party, roster.NewEnemyGroup(gen, cfg.Encounter), nil
}

func newSource(seed int64, logger *zap.Logger) dice.Source {
	var src dice.Source
	if seed != 0 {
		src = dice.NewSeededSource(seed)
	} else {
		src = dice.NewCryptoSource()
	}
	return dice.NewLoggedSource(src, logger)
}

// newPolicy returns the configured hostile policy and a release func.
func newPolicy(cfg config.Config, src dice.Source, logger *zap.Logger) (combat.HostilePolicy, func(), error) {
	if cfg.Battle.HostilePolicy == "script" {
		p, err := scripting.NewScriptPolicy(cfg.Scripting.AIScript, cfg.Scripting.InstructionLimit, src, logger)
		if err != nil {
			return nil, nil, err
		}
		return p, p.Close, nil
	}
	p, err := combat.NewPolicy(cfg.Battle.HostilePolicy, src)
	if err != nil {
		return nil, nil, err
	}
	return p, func() {}, nil
}

func anchors(in []config.Anchor) []combat.Anchor {
	out := make([]combat.Anchor, len(in))
	for i, a := range in {
		out[i] = combat.Anchor{X: a.X, Y: a.Y}
	}
	return out
}

func runInteractive(ctx context.Context, opts combat.Options, logger *zap.Logger) (*combat.Encounter, error) {
	screen, err := ui.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("opening terminal: %w", err)
	}
	defer screen.Close()

	board := ui.NewBoard(screen)
	opts.Spawner = board
	opts.Listener = board.Listen

	enc, err := combat.NewEncounter(opts)
	if err != nil {
		return nil, err
	}
	if err := enc.Start(ctx); err != nil {
		return enc, err
	}
	return enc, ui.NewApp(screen, board, enc, logger).Run(ctx)
}

// runHeadless plays the encounter with every party member attacking the
// first alive hostile until a terminal phase is reached.
func runHeadless(ctx context.Context, opts combat.Options) (*combat.Encounter, error) {
	enc, err := combat.NewEncounter(opts)
	if err != nil {
		return nil, err
	}
	if err := enc.Start(ctx); err != nil {
		return enc, err
	}
	for !enc.Phase().Terminal() {
		if err := enc.SubmitAttack(ctx, 0); err != nil {
			return enc, err
		}
	}
	return enc, enc.Err()
}

func printReport(rep combat.Report) {
	fmt.Fprintf(os.Stdout, "encounter %s: %s after %d round(s) [%s]\n",
		rep.ID, rep.Outcome, rep.Rounds, rep.Duration().Round(time.Millisecond))
	fmt.Fprintf(os.Stdout, "  survivors: %v\n", rep.Survivors)
	fmt.Fprintf(os.Stdout, "  defeated:  %v\n", rep.Defeated)
	if rep.Failure != "" {
		fmt.Fprintf(os.Stdout, "  failure:   %s\n", rep.Failure)
	}
}

func saveReport(ctx context.Context, cfg config.DatabaseConfig, rep combat.Report, logger *zap.Logger) error {
	dbStart := time.Now()
	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer pool.Close()

	if err := pool.CheckSchema(ctx); err != nil {
		return err
	}
	if err := pool.Reports().Save(ctx, rep); err != nil {
		return err
	}
	logger.Info("encounter report saved",
		zap.String("id", rep.ID.String()),
		zap.String("host", cfg.Host),
		zap.Duration("elapsed", time.Since(dbStart)),
	)
	return nil
}

// showHistory prints one stored report when id is set, otherwise the latest
// limit reports followed by outcome totals.
func showHistory(ctx context.Context, cfg config.DatabaseConfig, limit int, id string) error {
	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer pool.Close()
	if err := pool.CheckSchema(ctx); err != nil {
		return err
	}
	repo := pool.Reports()

	if id != "" {
		parsed, err := uuid.Parse(id)
		if err != nil {
			return fmt.Errorf("parsing report id: %w", err)
		}
		rep, err := repo.Get(ctx, parsed)
		if err != nil {
			return err
		}
		printReport(rep)
		return nil
	}

	reports, err := repo.Recent(ctx, limit)
	if err != nil {
		return err
	}
	for _, rep := range reports {
		printReport(rep)
	}
	counts, err := repo.OutcomeCounts(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "totals: won=%d lost=%d run=%d\n",
		counts[combat.OutcomeWon], counts[combat.OutcomeLost], counts[combat.OutcomeRun])
	return nil
}
