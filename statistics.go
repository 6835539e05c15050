package puctstep

import (
	"encoding/csv"
	"io"
	"math"
	"os"
	"strconv"

	"github.com/pkg/errors"
)

// Trial is the outcome of one episode played to the end.
type Trial struct {
	Episode   int
	Path      string  // path of the final search root
	Return    float64 // return of the final search root
	MaxReturn float64
	SecondMax float64
	Nodes     int
}

// Passed reports whether the episode ended on a node with the highest return of the episode.
func (t Trial) Passed() bool { return t.Return == t.MaxReturn }

// Gap is |max return - second max return|. It is 0 when the episode created a single node.
func (t Trial) Gap() float64 {
	if math.IsInf(t.SecondMax, -1) {
		return 0
	}
	return math.Abs(t.MaxReturn - t.SecondMax)
}

// Statistics accumulates trials.
type Statistics struct {
	Records []Trial

	Passes, Fails int
	AvgGapPass    float64 // running mean of the gaps of passed trials
	AvgGapFail    float64 // running mean of the gaps of failed trials
}

func makeStatistics() Statistics {
	return Statistics{Records: make([]Trial, 0, 64)}
}

func (s *Statistics) update(t Trial) {
	s.Records = append(s.Records, t)
	if t.Passed() {
		s.Passes++
		s.AvgGapPass += (t.Gap() - s.AvgGapPass) / float64(s.Passes)
		return
	}
	s.Fails++
	s.AvgGapFail += (t.Gap() - s.AvgGapFail) / float64(s.Fails)
}

// PassRate is the fraction of trials that found the highest return. It is NaN when there are no trials.
func (s *Statistics) PassRate() float64 {
	return float64(s.Passes) / float64(s.Passes+s.Fails)
}

func (s *Statistics) reset() { *s = makeStatistics() }

var csvHeader = []string{"episode", "path", "return", "max_return", "second_max_return", "gap", "nodes", "passed"}

// WriteCSV writes one record per trial, preceded by a header.
func (s *Statistics) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return errors.WithStack(err)
	}
	records := make([][]string, 0, len(s.Records))
	for _, t := range s.Records {
		records = append(records, []string{
			strconv.Itoa(t.Episode),
			t.Path,
			formatFloat(t.Return),
			formatFloat(t.MaxReturn),
			formatFloat(t.SecondMax),
			formatFloat(t.Gap()),
			strconv.Itoa(t.Nodes),
			strconv.FormatBool(t.Passed()),
		})
	}
	// WriteAll flushes
	return errors.WithStack(cw.WriteAll(records))
}

// Dump writes the trials to a CSV file.
func (s *Statistics) Dump(filename string) error {
	f, err := os.OpenFile(filename, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return errors.WithStack(err)
	}
	defer f.Close()
	if err := s.WriteCSV(f); err != nil {
		return errors.Wrapf(err, "dump statistics to %v", filename)
	}
	return errors.WithStack(f.Close())
}

func formatFloat(f float64) string { return strconv.FormatFloat(f, 'f', 6, 64) }
