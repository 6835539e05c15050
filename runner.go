package puctstep

import (
	"fmt"
	"io"

	"github.com/gorgonia/puctstep/mcts"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Runner drives a search episode by episode: it runs searches, advances the search root, and
// records how often the chosen trajectory ends on the highest return.
type Runner struct {
	*mcts.MCTS
	Statistics

	name    string
	trials  int
	episode int
	logger  zerolog.Logger

	// io
	outEnc OutputEncoder
}

// New creates a Runner. The logger is passed on to the search; opts may override it.
func New(conf Config, logger zerolog.Logger, opts ...mcts.Option) (*Runner, error) {
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	opts = append([]mcts.Option{mcts.WithLogger(logger)}, opts...)
	t, err := mcts.New(conf.Search, opts...)
	if err != nil {
		return nil, err
	}
	name := conf.Name
	if name == "" {
		name = "UNKNOWN RUN"
	}
	return &Runner{
		MCTS:       t,
		Statistics: makeStatistics(),
		name:       name,
		trials:     conf.Trials,
		logger:     logger.With().Str("run", name).Logger(),
		outEnc:     conf.OutputEncoder,
	}, nil
}

func (r *Runner) Name() string { return r.name }
func (r *Runner) Episode() int { return r.episode }

// Search runs the remaining iterations of the current search.
func (r *Runner) Search() error {
	if err := r.FinishSearch(); err != nil {
		return err
	}
	return r.emit(SearchFinished)
}

// Advance moves the search root to its most visited child.
func (r *Runner) Advance() (mcts.Node, error) {
	n, err := r.AdvanceRoot()
	if err != nil {
		return n, err
	}
	return n, r.emit(RootAdvanced)
}

// RunToEnd alternates searches and root advancements until the search root reaches the maximum
// depth. It returns the paths of the successive search roots, starting with the one it began at.
func (r *Runner) RunToEnd() ([]string, error) {
	trajectory := []string{r.SearchRoot().Path()}
	for !r.Exhausted() {
		if err := r.Search(); err != nil {
			return trajectory, err
		}
		n, err := r.Advance()
		if err != nil {
			return trajectory, err
		}
		trajectory = append(trajectory, n.Path())
	}
	return trajectory, nil
}

// Play resets the tree, runs an episode to the end and records the outcome.
func (r *Runner) Play() (Trial, error) {
	r.Reset()
	if _, err := r.RunToEnd(); err != nil {
		return Trial{}, errors.WithMessagef(err, "episode %d", r.episode)
	}
	root := r.SearchRoot()
	stats := r.Stats()
	trial := Trial{
		Episode:   r.episode,
		Path:      root.Path(),
		Return:    root.Return(),
		MaxReturn: stats.MaxReturn,
		SecondMax: stats.SecondMaxReturn,
		Nodes:     stats.Nodes,
	}
	r.update(trial)
	if err := r.emit(EpisodeEnded); err != nil {
		return trial, err
	}
	r.logger.Debug().
		Int("episode", trial.Episode).
		Str("path", trial.Path).
		Float64("return", trial.Return).
		Float64("max_return", trial.MaxReturn).
		Bool("passed", trial.Passed()).
		Msg("episode ended")
	r.episode++
	return trial, nil
}

// Trials plays n episodes, or as many as configured when n is 0, and returns the accumulated
// statistics. Statistics of previous calls are discarded.
func (r *Runner) Trials(n int) (Statistics, error) {
	if n <= 0 {
		n = r.trials
	}
	r.Statistics.reset()
	r.episode = 0
	for i := 0; i < n; i++ {
		if _, err := r.Play(); err != nil {
			return r.Statistics, err
		}
	}
	r.logger.Info().
		Int("trials", n).
		Float64("pass_rate", r.PassRate()).
		Float64("avg_gap_pass", r.AvgGapPass).
		Float64("avg_gap_fail", r.AvgGapFail).
		Msg("trials finished")
	if r.outEnc != nil {
		if err := r.outEnc.Flush(); err != nil {
			return r.Statistics, errors.Wrap(err, "flush output")
		}
	}
	return r.Statistics, nil
}

// Snapshot describes the current state of the search.
func (r *Runner) Snapshot(kind EventKind) Event {
	root := r.SearchRoot()
	stats := r.Stats()
	return Event{
		Kind:       kind,
		Name:       r.name,
		Episode:    r.episode,
		Iteration:  stats.Iteration,
		Nodes:      stats.Nodes,
		Root:       root.Path(),
		RootDepth:  root.Depth(),
		RootVisits: root.Visits(),
		RootValue:  root.Value(),
		RootReturn: root.Return(),
		MaxReturn:  stats.MaxReturn,
	}
}

func (r *Runner) emit(kind EventKind) error {
	if r.outEnc == nil {
		return nil
	}
	if err := r.outEnc.Encode(r.Snapshot(kind)); err != nil {
		return errors.Wrapf(err, "encode %v event", kind)
	}
	return nil
}

// Log writes the summary of the trials so far followed by the step trace of the search.
func (r *Runner) Log(w io.Writer) {
	fmt.Fprintf(w, "%v: %d passes, %d fails\n", r.name, r.Passes, r.Fails)
	fmt.Fprintf(w, "avg gap of passes: %.6f\navg gap of failures: %.6f\n", r.AvgGapPass, r.AvgGapFail)
	fmt.Fprintln(w, r.MCTS.Log())
}
