package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/limaJavier/coursetable/internal/app"
	"github.com/limaJavier/coursetable/pkg/model"
	"github.com/limaJavier/coursetable/pkg/sat"
	"github.com/limaJavier/coursetable/pkg/timetable"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

const (
	defaultExecutable               = "../../bin/coursetable"
	defaultCatalogDirectory         = "../../test/catalogs/"
	MB                      float32 = 1024 * 1024
)

// Exit codes of the command-line front end
const (
	exitSolved             = 10
	exitVerificationFailed = 15
	exitInfeasible         = 20
	exitTimeout            = 30
)

type ResultType string

const (
	solved       ResultType = "solved"
	infeasible   ResultType = "infeasible"
	timeout      ResultType = "timeout"
	unverifiable ResultType = "verification-failed"
)

type TestMetadata struct {
	Name       string
	Courses    int
	Rooms      int
	Faculty    int
	Students   int
	Selections int
}

type BenchmarkResult struct {
	Solver        string     `csv:"solver"`
	Strategy      string     `csv:"strategy"`
	Test          string     `csv:"test"`
	Courses       int        `csv:"courses"`
	Rooms         int        `csv:"rooms"`
	Faculty       int        `csv:"faculty"`
	Students      int        `csv:"students"`
	Selections    int        `csv:"selections"`
	Duration      int64      `csv:"duration_ms"`
	Memory        float32    `csv:"memory_mb"`
	CpuPercentage int64      `csv:"cpu_percent"`
	Result        ResultType `csv:"result"`
}

func main() {
	executablePtr := flag.String("executable", defaultExecutable, "Path to the coursetable binary")
	directoryPtr := flag.String("catalogs", defaultCatalogDirectory, "Directory with the JSON or YAML catalogs to benchmark")
	configPtr := flag.String("config", "", "Path to the constraints config passed to every run")
	outPtr := flag.String("out", "benchmark_results.csv", "Path to the CSV report")
	flag.Parse()

	logger, err := app.NewLogger(false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	config, err := app.LoadConfig(*configPtr)
	if err != nil {
		logger.Fatal("cannot load constraints config", zap.Error(err))
	}

	tests, err := getTests(*directoryPtr, config)
	if err != nil {
		logger.Fatal("cannot collect the benchmark catalogs", zap.Error(err))
	}
	strategies := timetable.Strategies()
	solvers := sat.SolverNames()
	results := make([]BenchmarkResult, 0, len(tests)*len(strategies)*len(solvers))

	for _, test := range tests {
		for _, strategy := range strategies {
			for _, solver := range solvers {
				runLogger := logger.With(zap.String("test", test.Name), zap.String("strategy", strategy), zap.String("solver", solver))
				runLogger.Info("benchmarking")

				duration, maxMemory, cpuPercentage, result, err := measure(*executablePtr, *configPtr, strategy, solver, test.Name)
				if err != nil {
					runLogger.Fatal("benchmark run failed", zap.Error(err))
				}

				results = append(results, BenchmarkResult{
					Solver:        solver,
					Strategy:      strategy,
					Test:          test.Name,
					Courses:       test.Courses,
					Rooms:         test.Rooms,
					Faculty:       test.Faculty,
					Students:      test.Students,
					Selections:    test.Selections,
					Duration:      duration,
					Memory:        maxMemory,
					CpuPercentage: cpuPercentage,
					Result:        result,
				})
			}
		}
	}

	if err := toCsv(*outPtr, results); err != nil {
		logger.Fatal("cannot write the benchmark report", zap.Error(err))
	}
}

func getTests(directory string, config model.Config) ([]TestMetadata, error) {
	testFiles, err := os.ReadDir(directory)
	if err != nil {
		return nil, fmt.Errorf("cannot read directory: %w", err)
	}

	tests := make([]TestMetadata, 0, len(testFiles))
	for _, file := range testFiles {
		if file.IsDir() {
			continue
		}
		filename := filepath.Join(directory, file.Name())
		catalog, err := model.CatalogFromFile(filename, config)
		if err != nil {
			return nil, fmt.Errorf("cannot parse catalog file: %w", err)
		}

		tests = append(tests, TestMetadata{
			Name:       filename,
			Courses:    len(catalog.Courses),
			Rooms:      len(catalog.Rooms),
			Faculty:    len(catalog.Faculty),
			Students:   len(catalog.Students),
			Selections: len(catalog.Selections),
		})
	}
	return tests, nil
}

func measure(executable, configFile, strategy, solver, testFile string) (duration int64, maxMemory float32, cpuPercentage int64, result ResultType, err error) {
	args := []string{"-v", executable, "-strategy", strategy, "-solver", solver, "-catalog", testFile, "-json-log"}
	if configFile != "" {
		args = append(args, "-config", configFile)
	}
	cmd := exec.Command("/usr/bin/time", args...)

	var stdOut bytes.Buffer
	cmd.Stdout = &stdOut
	var stdErr bytes.Buffer
	cmd.Stderr = &stdErr

	cmd.Run()
	switch cmd.ProcessState.ExitCode() {
	case exitSolved:
		result = solved
	case exitInfeasible:
		result = infeasible
	case exitTimeout:
		result = timeout
	case exitVerificationFailed:
		result = unverifiable
	default:
		return 0, 0, 0, "", fmt.Errorf("coursetable exited with code %d: %v", cmd.ProcessState.ExitCode(), stdErr.String())
	}

	splits := strings.Split(stdErr.String(), "\n")
	getLine := func(substr string) string {
		line, _ := lo.Find(splits, func(line string) bool {
			return strings.Contains(strings.ToLower(line), substr)
		})
		return line
	}

	if duration, err = parseDurationLine(getLine("wall clock")); err != nil {
		return 0, 0, 0, "", err
	}
	if maxMemory, err = parseMemoryLine(getLine("maximum resident set size")); err != nil {
		return 0, 0, 0, "", err
	}
	if cpuPercentage, err = parseCpuPercentageLine(getLine("percent of cpu")); err != nil {
		return 0, 0, 0, "", err
	}

	return duration, maxMemory, cpuPercentage, result, nil
}

func toCsv(outFile string, results []BenchmarkResult) error {
	file, err := os.Create(outFile)
	if err != nil {
		return fmt.Errorf("cannot create CSV file: %w", err)
	}
	defer file.Close()

	if err := gocsv.MarshalFile(&results, file); err != nil {
		return fmt.Errorf("cannot write CSV report: %w", err)
	}
	return nil
}

var errDurationFormat = errors.New("unexpected duration format")

func parseDurationLine(line string) (int64, error) {
	_, durationStr, found := strings.Cut(line, "(h:mm:ss or m:ss):")
	if !found {
		return 0, fmt.Errorf("%w: %q", errDurationFormat, line)
	}
	return parseDuration(strings.TrimSpace(durationStr))
}

// parseDuration reads the "h:mm:ss.cc" or "m:ss.cc" elapsed time of GNU time in milliseconds.
func parseDuration(durationStr string) (int64, error) {
	parts := strings.Split(durationStr, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("%w: %v", errDurationFormat, durationStr)
	}

	seconds, hundredths, found := strings.Cut(parts[len(parts)-1], ".")
	if !found {
		return 0, fmt.Errorf("%w: %v", errDurationFormat, durationStr)
	}

	var total int64
	for _, part := range append(parts[:len(parts)-1], seconds) {
		value, err := strconv.Atoi(part)
		if err != nil {
			return 0, fmt.Errorf("%w: %v", errDurationFormat, durationStr)
		}
		total = total*60 + int64(value)
	}
	value, err := strconv.Atoi(hundredths)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", errDurationFormat, durationStr)
	}
	return total*1000 + int64(value)*10, nil
}

// Maximum resident set size is reported in kilobytes
func parseMemoryLine(line string) (float32, error) {
	_, memoryStr, _ := strings.Cut(line, ":")
	kilobytes, err := strconv.ParseFloat(strings.TrimSpace(memoryStr), 32)
	if err != nil {
		return 0, fmt.Errorf("unexpected memory line %q: %w", line, err)
	}
	return float32(kilobytes) * 1024 / MB, nil
}

func parseCpuPercentageLine(line string) (int64, error) {
	_, percentageStr, _ := strings.Cut(line, ":")
	percentage, err := strconv.Atoi(strings.TrimSuffix(strings.TrimSpace(percentageStr), "%"))
	if err != nil {
		return 0, fmt.Errorf("unexpected cpu line %q: %w", line, err)
	}
	return int64(percentage), nil
}
