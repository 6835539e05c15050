// Package protocol implements a line based text protocol to drive a search one step at a time.
// It follows the conventions of GTP: an optional numeric ID, a command and its arguments on one
// line; replies start with "=" on success or "?" on failure and end with an empty line.
package protocol

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/gorgonia/puctstep"
	"github.com/pkg/errors"
)

type Engine struct {
	r *puctstep.Runner

	known map[string]Command

	ch   chan string
	ret  chan string
	done bool

	name, version string
}

// New creates an engine that drives r. A nil known uses StandardLib.
func New(r *puctstep.Runner, name, version string, known map[string]Command) *Engine {
	if known == nil {
		known = StandardLib()
	}
	return &Engine{
		r:       r,
		known:   known,
		name:    name,
		version: version,
	}
}

// Start runs the engine in its own goroutine. Each command sent on input gets exactly one reply on
// output, except for empty lines and comments. output is closed after "quit" or when input is
// closed.
func (e *Engine) Start() (input chan<- string, output <-chan string) {
	e.ch = make(chan string)
	e.ret = make(chan string)
	go e.start()
	return e.ch, e.ret
}

func (e *Engine) start() {
	defer close(e.ret)
	for cmd := range e.ch {
		reply, ok := e.Exec(cmd)
		if !ok {
			continue
		}
		e.ret <- reply
		if e.done {
			return
		}
	}
}

// Serve reads commands from r line by line and writes the replies to w, until "quit" or EOF.
func (e *Engine) Serve(r io.Reader, w io.Writer) error {
	s := bufio.NewScanner(r)
	for s.Scan() {
		reply, ok := e.Exec(s.Text())
		if !ok {
			continue
		}
		if _, err := io.WriteString(w, reply); err != nil {
			return errors.WithStack(err)
		}
		if e.done {
			return nil
		}
	}
	return errors.WithStack(s.Err())
}

// Exec runs one command and returns the reply. ok is false if the line holds no command.
func (e *Engine) Exec(cmd string) (reply string, ok bool) {
	id, x, args, err := e.parse(cmd)
	if x == nil && err == nil {
		return "", false
	}
	if err != nil {
		return handleErr(id, err), true
	}
	id, result, err := x.Do(id, args, e)
	return handleResult(id, result, err), true
}

func (e *Engine) Runner() *puctstep.Runner { return e.r }

// Done reports whether "quit" has been received.
func (e *Engine) Done() bool { return e.done }

func (e *Engine) parse(cmd string) (id int, x Command, args []string, err error) {
	cmd = preprocess(cmd)
	tokens := strings.Fields(cmd)
	id = -1
	if len(tokens) == 0 {
		return id, nil, nil, nil
	}
	if n, err := strconv.Atoi(tokens[0]); err == nil {
		// the ID is optional
		id = n
		tokens = tokens[1:]
	}
	if len(tokens) == 0 {
		return id, nil, nil, nil // an ID on its own is ignored
	}

	var ok bool
	if x, ok = e.known[tokens[0]]; !ok {
		return id, nil, nil, errors.Errorf("Unknown command %q", tokens[0])
	}
	if len(tokens) > 1 {
		args = tokens[1:]
	}
	return
}

// preprocess drops comments and normalizes case.
func preprocess(a string) string {
	if i := strings.IndexByte(a, '#'); i >= 0 {
		a = a[:i]
	}
	return strings.ToLower(strings.TrimSpace(a))
}

func handleErr(id int, err error) string {
	if id != -1 {
		return fmt.Sprintf("? %d %v\n\n", id, err)
	}
	return fmt.Sprintf("? %v\n\n", err)
}

func handleResult(id int, result string, err error) string {
	if err != nil {
		return handleErr(id, err)
	}

	if id != -1 {
		return fmt.Sprintf("= %d %v\n\n", id, result)
	}
	return fmt.Sprintf("= %v\n\n", result)
}
