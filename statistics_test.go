package puctstep

import (
	"bytes"
	"encoding/csv"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrialGap(t *testing.T) {
	cases := []struct {
		name   string
		trial  Trial
		gap    float64
		passed bool
	}{
		{"pass", Trial{Return: 3, MaxReturn: 3, SecondMax: 2.5}, 0.5, true},
		{"fail", Trial{Return: 1, MaxReturn: 3, SecondMax: 2}, 1, false},
		{"single node", Trial{Return: 0.3, MaxReturn: 0.3, SecondMax: math.Inf(-1)}, 0, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.InDelta(t, c.gap, c.trial.Gap(), 1e-12)
			assert.Equal(t, c.passed, c.trial.Passed())
		})
	}
}

func TestStatisticsUpdate(t *testing.T) {
	s := makeStatistics()
	assert.True(t, math.IsNaN(s.PassRate()))

	s.update(Trial{Return: 3, MaxReturn: 3, SecondMax: 2})   // pass, gap 1
	s.update(Trial{Return: 1, MaxReturn: 3, SecondMax: 2.5}) // fail, gap 0.5
	s.update(Trial{Return: 4, MaxReturn: 4, SecondMax: 2})   // pass, gap 2
	s.update(Trial{Return: 1, MaxReturn: 4, SecondMax: 3})   // fail, gap 1

	assert.Equal(t, 2, s.Passes)
	assert.Equal(t, 2, s.Fails)
	assert.InDelta(t, 0.5, s.PassRate(), 1e-12)
	assert.InDelta(t, 1.5, s.AvgGapPass, 1e-12)
	assert.InDelta(t, 0.75, s.AvgGapFail, 1e-12)
	assert.Len(t, s.Records, 4)

	s.reset()
	assert.Empty(t, s.Records)
	assert.Zero(t, s.Passes)
}

func TestStatisticsCSV(t *testing.T) {
	s := makeStatistics()
	s.update(Trial{Episode: 0, Path: "r.1.0", Return: 3, MaxReturn: 3, SecondMax: 2, Nodes: 12})
	s.update(Trial{Episode: 1, Path: "r.0.2", Return: 1, MaxReturn: 3, SecondMax: 2, Nodes: 9})

	var buf bytes.Buffer
	require.NoError(t, s.WriteCSV(&buf))
	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, csvHeader, records[0])
	assert.Equal(t, []string{"0", "r.1.0", "3.000000", "3.000000", "2.000000", "1.000000", "12", "true"}, records[1])
	assert.Equal(t, "false", records[2][7])

	filename := filepath.Join(t.TempDir(), "stats.csv")
	require.NoError(t, s.Dump(filename))
	b, err := os.ReadFile(filename)
	require.NoError(t, err)
	buf.Reset()
	require.NoError(t, s.WriteCSV(&buf))
	assert.Equal(t, buf.String(), string(b))

	assert.Error(t, s.Dump(filepath.Join(t.TempDir(), "missing", "stats.csv")))
}
