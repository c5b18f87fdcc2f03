package engine

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/chazu/ramify/pkg/kernel"
	"github.com/chazu/ramify/pkg/rule"
	zygo "github.com/glycerine/zygomys/zygo"
)

// maxRecordedErrors caps how many producer failures a Program keeps.
const maxRecordedErrors = 16

// Program is an evaluated script. Its root rule holds everything passed to
// render, and its lazy producers re-enter the script's sandbox each time
// they are expanded. A Program must only be expanded from one goroutine at
// a time.
type Program struct {
	env    *zygo.Zlisp
	kernel kernel.Kernel
	rng    *rand.Rand
	logger *log.Logger
	root   *rule.Rule

	mu      sync.Mutex
	errs    []error
	dropped int
	closed  bool
}

func newProgram(k kernel.Kernel, seed uint64, logger *log.Logger) *Program {
	return &Program{
		kernel: k,
		rng:    rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		logger: logger,
		root:   rule.New(),
	}
}

// Root returns the rule to expand. It is never nil; a script that renders
// nothing has an empty root.
func (p *Program) Root() *rule.Rule {
	return p.root
}

// Err returns the failures recorded while expanding lazy producers, joined,
// or nil if there were none.
func (p *Program) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.errs) == 0 {
		return nil
	}
	err := errors.Join(p.errs...)
	if p.dropped > 0 {
		err = fmt.Errorf("%w\n(%d more producer errors)", err, p.dropped)
	}
	return err
}

// Close releases the sandbox. Producers expanded after Close yield empty
// rules. Close is safe to call more than once and on a nil Program.
func (p *Program) Close() {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	if p.env != nil {
		p.env.Stop()
	}
}

func (p *Program) record(err error) {
	p.mu.Lock()
	if len(p.errs) < maxRecordedErrors {
		p.errs = append(p.errs, err)
	} else {
		p.dropped++
	}
	p.mu.Unlock()
	p.logger.Warn("producer failed", "err", err)
}

func (p *Program) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// scriptProducer re-invokes a script function on every expansion.
type scriptProducer struct {
	prog *Program
	fn   *zygo.SexpFunction
	args []zygo.Sexp
}

// Expand calls the function and converts its result into a rule. Failures
// are recorded on the Program and yield an empty rule so traversal can
// continue.
func (sp *scriptProducer) Expand() *rule.Rule {
	if sp.prog.isClosed() {
		sp.prog.record(fmt.Errorf("lazy %s: program closed", sp.fn.SexpString(nil)))
		return rule.New()
	}
	out, err := sp.call()
	if err != nil {
		sp.prog.record(fmt.Errorf("lazy %s: %w", sp.fn.SexpString(nil), err))
		return rule.New()
	}
	r, err := toRule(out)
	if err != nil {
		sp.prog.record(fmt.Errorf("lazy %s: %w", sp.fn.SexpString(nil), err))
		return rule.New()
	}
	return r
}

// Names of the globals a producer call is staged through.
const (
	lazyFnName  = "__ramify_lazy_fn"
	lazyArgName = "__ramify_lazy_arg"
)

// call evaluates (fn args...) as top-level code so that special forms in
// fn's body run. Clear drops the previous call's code and any stack state a
// failed call left behind; globals survive it.
func (sp *scriptProducer) call() (zygo.Sexp, error) {
	env := sp.prog.env
	env.Clear()
	env.AddGlobal(lazyFnName, sp.fn)
	form := make([]zygo.Sexp, 0, len(sp.args)+1)
	form = append(form, env.MakeSymbol(lazyFnName))
	for i, a := range sp.args {
		name := fmt.Sprintf("%s%d", lazyArgName, i)
		env.AddGlobal(name, a)
		form = append(form, env.MakeSymbol(name))
	}
	return env.EvalExpressions([]zygo.Sexp{zygo.MakeList(form)})
}
