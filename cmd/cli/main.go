package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/limaJavier/coursetable/internal/app"
	"github.com/limaJavier/coursetable/pkg/model"
	"github.com/limaJavier/coursetable/pkg/sat"
	"github.com/limaJavier/coursetable/pkg/timetable"
	"go.uber.org/zap"
)

// Exit codes follow the SAT competition convention for solved (10) and unsatisfiable (20) runs.
const (
	exitSolved             = 10
	exitVerificationFailed = 15
	exitInfeasible         = 20
	exitTimeout            = 30
	exitInputError         = 1
)

func main() {
	// Define arguments
	catalogPtr := flag.String("catalog", "", "Path to a JSON or YAML catalog with courses, rooms, faculty, students and selections")
	coursesPtr := flag.String("courses", "", "Path to the courses CSV file (used when -catalog is empty)")
	roomsPtr := flag.String("rooms", "", "Path to the rooms CSV file")
	facultyPtr := flag.String("faculty", "", "Path to the faculty CSV file")
	studentsPtr := flag.String("students", "", "Path to the students CSV file")
	selectionsPtr := flag.String("selections", "", "Path to the selections CSV file; without selections every catalog section is scheduled")
	configPtr := flag.String("config", "", "Path to the JSON or YAML constraints config; defaults to $"+app.EnvConfig+" or the built-in config")
	strategyPtr := flag.String("strategy", "", fmt.Sprintf(`Strategy to build the timetable. Allowed values are:
- "embedded" (rooms are decided by the solver, therefore a solution will be found if it exists) and
- "postponed" (rooms are assigned after solving; correctness is guaranteed, completeness is not),
where $%v or "embedded" is the default`, app.EnvStrategy))
	solverPtr := flag.String("solver", "", fmt.Sprintf("Solver to use, one of %v; defaults to $%v or %q", sat.SolverNames(), app.EnvSolver, sat.GiniSolverName))
	timeLimitPtr := flag.Int("time-limit", -1, "Time limit in seconds; overrides time_limit_sec from the config when not negative")
	outPtr := flag.String("out", "", "Path to the file where the schedule will be written as JSON or CSV (by extension); if empty, JSON is written into the Standard Output")
	dumpPtr := flag.String("dump", "", "Path to the file where the model will be written in OPB format")
	gridPtr := flag.Bool("grid", false, "Render the weekly grid into the Standard Error")
	jsonLogPtr := flag.Bool("json-log", false, "Log in JSON instead of the console format")
	flag.Parse()

	logger, err := app.NewLogger(*jsonLogPtr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot build logger: %v\n", err)
		os.Exit(exitInputError)
	}
	exit := func(code int) {
		_ = logger.Sync()
		os.Exit(code)
	}

	env := app.LoadEnv(logger)
	strategy := orDefault(*strategyPtr, env.Strategy)
	solverName := orDefault(*solverPtr, env.Solver)

	// Extract input
	config, err := app.LoadConfig(orDefault(*configPtr, env.Config))
	if err != nil {
		logger.Fatal("cannot load constraints config", zap.Error(err))
	}
	if *timeLimitPtr >= 0 {
		config.TimeLimitSec = *timeLimitPtr
	}

	var catalog model.Catalog
	switch {
	case *catalogPtr != "":
		catalog, err = model.CatalogFromFile(*catalogPtr, config)
	case *coursesPtr != "":
		catalog, err = model.CatalogFromCSV(model.CSVFiles{
			Courses:    *coursesPtr,
			Rooms:      *roomsPtr,
			Faculty:    *facultyPtr,
			Students:   *studentsPtr,
			Selections: *selectionsPtr,
		}, config)
	default:
		err = errors.New("either -catalog or the CSV files must be specified")
	}
	if err != nil {
		logger.Fatal("cannot load catalog", zap.Error(err))
	}

	session, err := app.NewSession(catalog, config, strategy, solverName, logger)
	if err != nil {
		logger.Fatal("invalid input", zap.Error(err))
	}

	if *dumpPtr != "" {
		if err := os.WriteFile(*dumpPtr, []byte(session.Timetabler.Model(session.Plan).ToOPB()), 0666); err != nil {
			logger.Fatal("cannot write model", zap.Error(err))
		}
	}

	// Build timetable
	result, err := session.Solve(context.Background())
	if errors.Is(err, model.ErrContractViolation) {
		logger.Error("solver returned an invalid schedule", zap.Error(err))
		exit(exitVerificationFailed)
	} else if err != nil {
		logger.Fatal("an error occurred during timetable construction", zap.Error(err))
	}

	logger.Info("timetable built",
		zap.String("status", string(result.Status)),
		zap.Float64("objective", result.Objective),
		zap.Uint64("variables", result.Variables),
		zap.Int("clauses", result.Clauses),
	)

	if !result.Status.Solved() {
		if result.Diagnostic != nil {
			fmt.Fprintln(os.Stderr, result.Diagnostic.Message)
		}
		if result.Status == timetable.StatusTimeout {
			exit(exitTimeout)
		}
		exit(exitInfeasible)
	}

	// Verify timetable correctness
	if err := session.Timetabler.Verify(result.Entries, session.Plan); err != nil {
		logger.Error("schedule verification failed", zap.Error(err))
		exit(exitVerificationFailed)
	}

	if *gridPtr {
		fmt.Fprintln(os.Stderr, renderWeek(result.Entries, config))
	}

	if err := writeResult(*outPtr, result); err != nil {
		logger.Fatal("an error occurred while writing the schedule", zap.Error(err))
	}
	exit(exitSolved)
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func writeResult(outFile string, result timetable.Result) error {
	if strings.EqualFold(filepath.Ext(outFile), ".csv") {
		file, err := os.Create(outFile)
		if err != nil {
			return err
		}
		defer file.Close()
		return model.WriteScheduleCSV(file, result.Entries)
	}

	resultJson, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}

	// Verify outfile is empty, if so then write the results to the Standard Output
	if outFile == "" {
		fmt.Println(string(resultJson))
		return nil
	}
	return os.WriteFile(outFile, resultJson, 0666)
}
