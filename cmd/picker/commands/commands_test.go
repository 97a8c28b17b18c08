package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pricesCSV = `Date,AAA,BBB,CCC
2024-01-01,100,50,20
2024-01-02,102,50.5,19.8
2024-01-03,104,50.2,19.9
2024-01-04,103,51,19.5
2024-01-05,106,51.3,19.6
`

func writePrices(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "prices.csv")
	require.NoError(t, os.WriteFile(path, []byte(pricesCSV), 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestSelect_JSON(t *testing.T) {
	path := writePrices(t)

	out, err := execute(t, "select", "--file", path, "--budget", "2", "--grid", "2", "--shots", "128", "--workers", "2", "--json")
	require.NoError(t, err)

	var result struct {
		Picks       []string `json:"picks"`
		Source      string   `json:"source"`
		Evaluations int      `json:"evaluations"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Len(t, result.Picks, 2)
	assert.Contains(t, []string{"sampled", "fallback"}, result.Source)
}

func TestSelect_Deterministic(t *testing.T) {
	path := writePrices(t)
	args := []string{"select", "-f", path, "--budget", "1", "--grid", "3", "--shots", "64", "--seed", "7"}

	first, err := execute(t, append(args, "--workers", "1")...)
	require.NoError(t, err)
	second, err := execute(t, append(args, "--workers", "4")...)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Contains(t, first, "picks:")
}

func TestSelect_Errors(t *testing.T) {
	path := writePrices(t)

	tests := []struct {
		name string
		args []string
	}{
		{name: "missing file flag", args: []string{"select"}},
		{name: "file does not exist", args: []string{"select", "-f", filepath.Join(t.TempDir(), "nope.csv")}},
		{name: "budget too large", args: []string{"select", "-f", path, "--budget", "9"}},
		{name: "bad policy", args: []string{"select", "-f", path, "--degenerate-policy", "maybe"}},
		{name: "too many evaluations", args: []string{"select", "-f", path, "--grid", "100", "--depth", "2", "--max-evaluations", "10"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			assert.Error(t, err)
		})
	}
}

func TestStats(t *testing.T) {
	path := writePrices(t)

	out, err := execute(t, "stats", "--file", path)
	require.NoError(t, err)
	assert.Contains(t, out, "TICKER")
	assert.Contains(t, out, "AAA")
	assert.Contains(t, out, "observations: 4")

	out, err = execute(t, "stats", "--file", path, "--json")
	require.NoError(t, err)
	var stats struct {
		Tickers []string    `json:"tickers"`
		Mu      []float64   `json:"mu"`
		Cov     [][]float64 `json:"cov"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &stats))
	assert.Equal(t, []string{"AAA", "BBB", "CCC"}, stats.Tickers)
	assert.Len(t, stats.Cov, 3)
	assert.Greater(t, stats.Mu[0], 0.0)
}
