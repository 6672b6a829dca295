package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/handoffdev/handoff/internal/config"
	"github.com/handoffdev/handoff/internal/meter"
	"github.com/handoffdev/handoff/internal/orchestrator"
	"github.com/handoffdev/handoff/internal/rules"
	"github.com/handoffdev/handoff/internal/state"
)

// stateDirName is the per-project state directory.
const stateDirName = ".handoff"

// handoffDir resolves the state directory for this invocation.
func handoffDir() (string, error) {
	if stateDirOverride != "" {
		return filepath.Abs(stateDirOverride)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}
	return filepath.Join(cwd, stateDirName), nil
}

// requireHandoffDir resolves the state directory and fails with a
// hint when the project was never initialized.
func requireHandoffDir() (string, error) {
	dir, err := handoffDir()
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return "", fmt.Errorf("%s not found. Run 'handoff init' first", dir)
	}
	return dir, nil
}

// openStore opens the task store database with migrations applied.
func openStore(dir string) (*state.DB, error) {
	db, err := state.Open(state.DBPath(dir))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return db, nil
}

// newClassifier loads the rules file (defaults when missing).
func newClassifier(dir string) (*rules.Classifier, error) {
	set, err := rules.Load(rules.FilePath(dir))
	if err != nil {
		return nil, fmt.Errorf("load rules: %w", err)
	}
	return rules.NewClassifier(set), nil
}

// engineEnv bundles the engine with the collaborators a command may
// also need directly.
type engineEnv struct {
	dir        string
	cfg        *config.Config
	engine     *orchestrator.Engine
	db         *state.DB
	meter      *meter.Meter
	classifier *rules.Classifier
	logger     *orchestrator.DebugLogger
}

// close releases the env's resources.
func (e *engineEnv) close() {
	if e.db != nil {
		e.db.Close()
	}
	if e.logger != nil {
		e.logger.Close()
	}
}

// newEngineEnv wires the full engine: config, task store, resource
// meter, rule classifier, telemetry tracker, and debug logger.
func newEngineEnv(opts ...orchestrator.Option) (*engineEnv, error) {
	dir, err := requireHandoffDir()
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	db, err := openStore(dir)
	if err != nil {
		return nil, err
	}

	classifier, err := newClassifier(dir)
	if err != nil {
		db.Close()
		return nil, err
	}

	logPath := cfg.DebugLog
	if envPath := os.Getenv("HANDOFF_DEBUG_LOG"); envPath != "" {
		logPath = envPath
	}
	var logger *orchestrator.DebugLogger
	switch logPath {
	case "":
		logger = orchestrator.NopLogger()
	case "1", "true":
		logger = orchestrator.NewDebugLoggerForDir(dir)
	default:
		logger, err = orchestrator.NewDebugLogger(logPath)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("open debug log: %w", err)
		}
	}

	m := meter.New(dir, cfg.Meter.WindowSize)

	engineOpts := append([]orchestrator.Option{
		orchestrator.WithTracker(db),
		orchestrator.WithLogger(logger),
	}, opts...)

	engine := orchestrator.New(dir,
		orchestrator.LimitsFromConfig(cfg.Orchestration),
		m, db, classifier, engineOpts...)

	return &engineEnv{
		dir:        dir,
		cfg:        cfg,
		engine:     engine,
		db:         db,
		meter:      m,
		classifier: classifier,
		logger:     logger,
	}, nil
}
