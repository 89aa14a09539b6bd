// Package app wires catalogs, configuration and solvers for the command-line and HTTP front ends.
package app

import (
	"context"
	"os"

	"github.com/joho/godotenv"
	"github.com/limaJavier/coursetable/pkg/model"
	"github.com/limaJavier/coursetable/pkg/sat"
	"github.com/limaJavier/coursetable/pkg/timetable"
	"go.uber.org/zap"
)

const (
	EnvSolver   = "COURSETABLE_SOLVER"
	EnvStrategy = "COURSETABLE_STRATEGY"
	EnvConfig   = "COURSETABLE_CONFIG"
	EnvAddr     = "COURSETABLE_ADDR"
)

// Env holds the defaults read from the environment, after an optional .env file.
type Env struct {
	Solver   string
	Strategy string
	Config   string
	Addr     string
}

func LoadEnv(logger *zap.Logger) Env {
	if err := godotenv.Load(); err != nil {
		logger.Debug("no .env file loaded, using the process environment")
	}
	return Env{
		Solver:   getEnv(EnvSolver, sat.GiniSolverName),
		Strategy: getEnv(EnvStrategy, timetable.EmbeddedStrategy),
		Config:   os.Getenv(EnvConfig),
		Addr:     getEnv(EnvAddr, ":8080"),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

// NewLogger returns a production (JSON) logger or a development (console) one.
func NewLogger(production bool) (*zap.Logger, error) {
	if production {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// LoadConfig reads the constraints config, falling back to the defaults without a file.
func LoadConfig(file string) (model.Config, error) {
	if file == "" {
		return model.DefaultConfig(), nil
	}
	return model.ConfigFromFile(file)
}

// Session is a validated plan ready to be solved with one strategy and solver.
type Session struct {
	Registry   *model.Registry
	Plan       *timetable.Plan
	Timetabler timetable.Timetabler
}

// NewSession builds the registry and the plan, reporting every input error before any solve.
func NewSession(catalog model.Catalog, config model.Config, strategy, solverName string, logger *zap.Logger) (*Session, error) {
	solver, err := sat.NewSolver(solverName)
	if err != nil {
		return nil, err
	}
	timetabler, err := timetable.NewTimetabler(strategy, solver, logger.With(zap.String("solver", solverName)))
	if err != nil {
		return nil, err
	}

	registry, err := model.NewRegistry(catalog, config, logger)
	if err != nil {
		return nil, err
	}
	plan, err := timetable.NewPlan(registry, catalog.Selections)
	if err != nil {
		return nil, err
	}

	return &Session{
		Registry:   registry,
		Plan:       plan,
		Timetabler: timetabler,
	}, nil
}

func (session *Session) Solve(ctx context.Context) (timetable.Result, error) {
	return session.Timetabler.Build(ctx, session.Plan)
}
