package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/limaJavier/coursetable/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDuration(t *testing.T) {
	for text, expected := range map[string]int64{
		"00:01:01.12": 60*1000 + 1000 + 120,
		"01:01:01.12": 60*60*1000 + 60*1000 + 1000 + 120,
		"1:01.12":     60*1000 + 1000 + 120,
		"0:00.12":     120,
		"00:00:00.12": 120,
	} {
		duration, err := parseDuration(text)
		require.NoError(t, err, text)
		assert.Equal(t, expected, duration, text)
	}

	for _, text := range []string{"12.5", "0:02", "a:02.50", "1:2:3:4.00"} {
		_, err := parseDuration(text)
		assert.ErrorIs(t, err, errDurationFormat, text)
	}
}

func TestParseTimeOutput(t *testing.T) {
	duration, err := parseDurationLine("\tElapsed (wall clock) time (h:mm:ss or m:ss): 0:02.50")
	require.NoError(t, err)
	assert.Equal(t, int64(2500), duration)
	_, err = parseDurationLine("")
	assert.ErrorIs(t, err, errDurationFormat)

	memory, err := parseMemoryLine("\tMaximum resident set size (kbytes): 51200")
	require.NoError(t, err)
	assert.InDelta(t, float32(50), memory, 0.001)
	_, err = parseMemoryLine("")
	assert.Error(t, err)

	cpu, err := parseCpuPercentageLine("\tPercent of CPU this job got: 97%")
	require.NoError(t, err)
	assert.Equal(t, int64(97), cpu)
}

func TestGetTests(t *testing.T) {
	tests, err := getTests(defaultCatalogDirectory, model.DefaultConfig())

	require.NoError(t, err)
	require.NotEmpty(t, tests)
	for _, test := range tests {
		assert.Positive(t, test.Courses)
		assert.Positive(t, test.Rooms)
	}
}

func TestToCsv(t *testing.T) {
	outFile := filepath.Join(t.TempDir(), "results.csv")
	results := []BenchmarkResult{
		{Solver: "gini", Strategy: "embedded", Test: "sample.json", Courses: 3, Duration: 1200, Memory: 12.5, CpuPercentage: 99, Result: solved},
		{Solver: "gophersat", Strategy: "postponed", Test: "sample.json", Courses: 3, Result: infeasible},
	}

	require.NoError(t, toCsv(outFile, results))

	content, err := os.ReadFile(outFile)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "solver,strategy,test,courses,rooms,faculty,students,selections,duration_ms,memory_mb,cpu_percent,result", lines[0])
	assert.Equal(t, "gini,embedded,sample.json,3,0,0,0,0,1200,12.5,99,solved", lines[1])
	assert.True(t, strings.HasSuffix(lines[2], ",infeasible"))
}
