// Package engine provides the Lisp front end for ramify. It wraps zygomys in
// a sandboxed environment and turns a user script into a rule graph whose
// producers call back into the script during expansion.
package engine

import (
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/chazu/ramify/pkg/kernel"
	"github.com/chazu/ramify/pkg/kernel/sdfx"
	zygo "github.com/glycerine/zygomys/zygo"
)

// EvalError represents a non-fatal error encountered during evaluation,
// such as a parse error or a runtime error in user code.
type EvalError struct {
	Line    int
	Col     int
	Message string
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// Engine wraps the zygomys interpreter for ramify scripts.
// It is safe for concurrent use; each call to Evaluate creates a fresh
// sandboxed environment and a fresh random source for determinism.
type Engine struct {
	mu         sync.Mutex
	generation uint64

	kernel kernel.Kernel
	seed   uint64
	logger *log.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithKernel sets the solid modeling kernel behind the box, cylinder, ball
// and tessellate builtins. The default is an sdfx kernel.
func WithKernel(k kernel.Kernel) Option {
	return func(e *Engine) {
		if k != nil {
			e.kernel = k
		}
	}
}

// WithSeed sets the seed of the random source behind rand, rand-int and
// choose. Evaluations with the same seed and source expand identically.
func WithSeed(seed uint64) Option {
	return func(e *Engine) { e.seed = seed }
}

// WithLogger sets the logger used to report producer failures during
// expansion.
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewEngine creates a new Engine instance.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		kernel: sdfx.New(),
		logger: log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate runs Lisp source code and returns the program it builds.
// Each call creates a fresh zygomys sandbox for deterministic evaluation.
// The returned Program keeps its sandbox alive so that lazy producers can
// call back into the script; callers must Close it.
//
// Return semantics:
//   - On success: returns program + nil errors + nil error
//   - On parse/eval failure: returns nil program + eval errors + nil error
//   - On fatal failure (timeout, panic): returns nil + nil + error
func (e *Engine) Evaluate(source string) (*Program, []EvalError, error) {
	e.mu.Lock()
	e.generation++
	gen := e.generation
	e.mu.Unlock()

	ch := make(chan evalResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()

		p, evalErrs, err := e.evaluate(source)
		ch <- evalResult{program: p, errors: evalErrs, err: err}
	}()

	return waitWithTimeout(ch, gen, &e.mu, &e.generation)
}

// evaluate performs the actual zygomys evaluation in a fresh sandbox.
func (e *Engine) evaluate(source string) (*Program, []EvalError, error) {
	p := newProgram(e.kernel, e.seed, e.logger)

	// Empty source is a valid program that renders nothing.
	if strings.TrimSpace(source) == "" {
		return p, nil, nil
	}

	// Sandbox mode prevents user code from accessing the filesystem or syscalls.
	env := zygo.NewZlispSandbox()
	p.env = env
	registerBuiltins(env, p)

	err := env.LoadString(preprocessSource(source))
	if err != nil {
		p.Close()
		return nil, parseZygomysError(err), nil
	}

	last, err := env.Run()
	if err != nil {
		p.Close()
		return nil, parseZygomysError(err), nil
	}

	// Without an explicit render, a rule-like final expression is the root.
	if p.root.Len() == 0 {
		if child, err := toChild(last); err == nil {
			p.root.Push(nil, child)
		}
	}
	return p, nil, nil
}

// linePattern matches zygomys error messages that include "Error on line N: ..."
var linePattern = regexp.MustCompile(`(?is)(?:error )?on line (\d+):\s*(.*)`)

// linePatternShort matches simpler "line N: ..." patterns.
var linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)

// parseZygomysError converts a zygomys error into one or more EvalError values.
// It attempts to extract line number information from the error message.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()

	// zygomys formats parse errors as "Error on line N: <details>\n"
	for _, re := range []*regexp.Regexp{linePattern, linePatternShort} {
		if m := re.FindStringSubmatch(msg); m != nil {
			line, _ := strconv.Atoi(m[1])
			return []EvalError{{
				Line:    line,
				Message: strings.TrimSpace(m[2]),
			}}
		}
	}

	return []EvalError{{Message: strings.TrimSpace(msg)}}
}
