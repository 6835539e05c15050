package protocol

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/gorgonia/puctstep/mcts"
	"github.com/pkg/errors"
)

type Command interface {
	Do(id int, args []string, e *Engine) (int, string, error)
}

type stdlib func(e *Engine) string

type stdlib2 func(e *Engine, args []string) (string, error)

func (f stdlib) Do(id int, args []string, e *Engine) (int, string, error) {
	str := f(e)
	return id, str, nil
}

func (f stdlib2) Do(id int, args []string, e *Engine) (int, string, error) {
	str, err := f(e, args)
	return id, str, err
}

func protocolVersion(e *Engine) string { return "1" }
func name(e *Engine) string            { return e.name }
func version(e *Engine) string         { return e.version }

func listCommands(e *Engine) string {
	cmds := make([]string, 0, len(e.known))
	for c := range e.known {
		cmds = append(cmds, c)
	}
	sort.Strings(cmds)
	return strings.Join(cmds, "\n")
}

func quit(e *Engine) string  { e.done = true; return "" }
func reset(e *Engine) string { e.r.Reset(); return "" }
func phase(e *Engine) string { return e.r.Phase().String() }

func iteration(e *Engine) string { return strconv.Itoa(e.r.Iteration()) }

func currentNode(e *Engine) string { return fmt.Sprintf("%v", e.r.CurrentNode()) }
func searchRoot(e *Engine) string  { return fmt.Sprintf("%v", e.r.SearchRoot()) }

func stats(e *Engine) string {
	s := e.r.Stats()
	return fmt.Sprintf("nodes %d iteration %d phase %v root_depth %d max_return %.4f second_max_return %.4f",
		s.Nodes, s.Iteration, s.Phase, s.SearchRootDepth, s.MaxReturn, s.SecondMaxReturn)
}

func log(e *Engine) string {
	var buf bytes.Buffer
	e.r.Log(&buf)
	return "\n" + strings.TrimRight(buf.String(), "\n")
}

func knownCommand(e *Engine, args []string) (string, error) {
	if len(args) == 0 {
		return "", errors.New("Not enough arguments for \"known_command\"")
	}
	if _, ok := e.known[args[0]]; ok {
		return "true", nil
	}
	return "false", nil
}

// selection replies with the phase after the step and the path of the node under the cursor.
func selection(e *Engine, args []string) (string, error) {
	p, err := e.r.StepSelection()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%v %v", p, e.r.CurrentNode().Path()), nil
}

// backprop replies with whether the iteration is complete and the path of the node under the cursor.
func backprop(e *Engine, args []string) (string, error) {
	done, err := e.r.StepBackprop()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%t %v", done, e.r.CurrentNode().Path()), nil
}

func finishIteration(e *Engine, args []string) (string, error) {
	if err := e.r.FinishIteration(); err != nil {
		return "", err
	}
	return strconv.Itoa(e.r.Iteration()), nil
}

func finishSearch(e *Engine, args []string) (string, error) {
	if err := e.r.Search(); err != nil {
		return "", err
	}
	return strconv.Itoa(e.r.Iteration()), nil
}

func advanceRoot(e *Engine, args []string) (string, error) {
	n, err := e.r.Advance()
	if err != nil {
		return "", err
	}
	return n.Path(), nil
}

func runToEnd(e *Engine, args []string) (string, error) {
	trajectory, err := e.r.RunToEnd()
	if err != nil {
		return "", err
	}
	return strings.Join(trajectory, " "), nil
}

// children lists the children of the node with the given ID, or of the node under the cursor.
func children(e *Engine, args []string) (string, error) {
	of := e.r.CurrentNode().ID()
	if len(args) > 0 {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return "", errors.WithMessage(err, "Unable to parse node ID")
		}
		if _, ok := e.r.Node(mcts.NodeID(id)); !ok {
			return "", errors.Errorf("No node with ID %d", id)
		}
		of = mcts.NodeID(id)
	}

	var buf bytes.Buffer
	for _, kid := range e.r.Children(of) {
		n, _ := e.r.Node(kid)
		s, _ := e.r.Scores(kid)
		fmt.Fprintf(&buf, "\n%d %v N %d P %.4f Q %.4f U %.4f PUCT %.4f", kid, n.Path(), n.Visits(), s.Prior, s.Q, s.U, s.PUCT)
	}
	return buf.String(), nil
}

func dot(e *Engine, args []string) (string, error) {
	s, err := e.r.ToDot()
	if err != nil {
		return "", err
	}
	return "\n" + strings.TrimRight(s, "\n"), nil
}

// trials plays the given number of episodes, or the configured number, and replies with the pass rate.
func trials(e *Engine, args []string) (string, error) {
	var n int
	if len(args) > 0 {
		var err error
		if n, err = strconv.Atoi(args[0]); err != nil {
			return "", errors.WithMessage(err, "Unable to parse number of trials")
		}
	}
	s, err := e.r.Trials(n)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("pass_rate %.4f passes %d fails %d avg_gap_pass %.4f avg_gap_fail %.4f",
		s.PassRate(), s.Passes, s.Fails, s.AvgGapPass, s.AvgGapFail), nil
}

func StandardLib() map[string]Command {
	return map[string]Command{
		"protocol_version": stdlib(protocolVersion),
		"name":             stdlib(name),
		"version":          stdlib(version),
		"list_commands":    stdlib(listCommands),
		"quit":             stdlib(quit),
		"reset":            stdlib(reset),
		"phase":            stdlib(phase),
		"iteration":        stdlib(iteration),
		"current_node":     stdlib(currentNode),
		"search_root":      stdlib(searchRoot),
		"stats":            stdlib(stats),
		"log":              stdlib(log),

		"known_command":    stdlib2(knownCommand),
		"selection":        stdlib2(selection),
		"backprop":         stdlib2(backprop),
		"finish_iteration": stdlib2(finishIteration),
		"finish_search":    stdlib2(finishSearch),
		"advance_root":     stdlib2(advanceRoot),
		"run_to_end":       stdlib2(runToEnd),
		"children":         stdlib2(children),
		"dot":              stdlib2(dot),
		"trials":           stdlib2(trials),
	}
}
