package goscript

import (
	"context"
	"go/scanner"
	"go/token"
	"os"
	"reflect"
	"sync"

	"github.com/pkg/errors"
	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"

	"github.com/ddossot/jruby-rack-worker/interpreters"
	"github.com/ddossot/jruby-rack-worker/runtime"
)

// HostPackage is the import path scripts use to reach values bound into
// the interpreter by the worker manager:
//
//	import "workerhost"
//	m := workerhost.Get("worker_manager")
const HostPackage = "workerhost"

type interpreter struct {
	m       sync.Mutex
	monitor runtime.Monitor
	interp  *interp.Interpreter
	host    map[string]interface{}
}

func newInterpreter(monitor runtime.Monitor, c configType) (*interpreter, error) {
	i := &interpreter{
		monitor: monitor,
		host:    make(map[string]interface{}),
	}
	i.interp = interp.New(interp.Options{
		GoPath:       c.GoPath,
		Unrestricted: c.Unrestricted,
	})
	if !c.NoStdlib {
		if err := i.interp.Use(stdlib.Symbols); err != nil {
			return nil, err
		}
	}
	err := i.interp.Use(interp.Exports{
		HostPackage + "/" + HostPackage: {
			"Get": reflect.ValueOf(i.hostGet),
			"Has": reflect.ValueOf(i.hostHas),
		},
	})
	if err != nil {
		return nil, err
	}
	return i, nil
}

// hostGet is exposed to scripts as workerhost.Get, it returns nil for
// names that aren't bound.
func (i *interpreter) hostGet(name string) interface{} {
	i.m.Lock()
	defer i.m.Unlock()

	return i.host[name]
}

func (i *interpreter) hostHas(name string) bool {
	i.m.Lock()
	defer i.m.Unlock()

	_, ok := i.host[name]
	return ok
}

func (i *interpreter) Bind(name string, value interface{}) error {
	i.m.Lock()
	defer i.m.Unlock()

	i.host[name] = value
	return nil
}

func (i *interpreter) Unbind(name string) error {
	i.m.Lock()
	defer i.m.Unlock()

	delete(i.host, name)
	return nil
}

func (i *interpreter) Run(ctx context.Context, script, fileName string) error {
	src := script
	if src == "" {
		if fileName == "" {
			return interpreters.ErrNoScript
		}
		data, err := os.ReadFile(fileName)
		if err != nil {
			return err
		}
		src = string(data)
	}

	// Scripts are written REPL style, import clauses followed by top level
	// declarations and statements. The underlying interpreter only accepts
	// one such form per evaluation, so the source is split at top level
	// boundaries and evaluated form by form against shared state.
	forms, err := splitForms(src)
	if err != nil {
		return errors.Wrap(err, "failed to scan script")
	}
	for _, form := range forms {
		if _, err := i.interp.EvalWithContext(ctx, form); err != nil {
			if ctx.Err() != nil {
				// Script was aborted, the underlying evaluation goroutine
				// may still be winding down, that is the accepted cost of
				// interruption.
				return interpreters.ErrInterrupted
			}
			return err
		}
		if ctx.Err() != nil {
			return interpreters.ErrInterrupted
		}
	}
	return nil
}

// splitForms cuts source into top level forms, each a single declaration
// or statement. Go's own tokenizer does the heavy lifting so implicit
// semicolons, nested braces and multi-line expressions are honored.
func splitForms(src string) ([]string, error) {
	fset := token.NewFileSet()
	file := fset.AddFile("", fset.Base(), len(src))

	var s scanner.Scanner
	var errs scanner.ErrorList
	s.Init(file, []byte(src), errs.Add, 0)

	var forms []string
	depth := 0
	start := 0
	sawToken := false
	for {
		pos, tok, _ := s.Scan()
		if tok == token.EOF {
			break
		}
		switch tok {
		case token.LPAREN, token.LBRACE, token.LBRACK:
			depth++
		case token.RPAREN, token.RBRACE, token.RBRACK:
			depth--
		case token.SEMICOLON:
			if depth == 0 {
				if sawToken {
					forms = append(forms, src[start:file.Offset(pos)])
				}
				start = file.Offset(pos) + 1
				sawToken = false
			}
			continue
		}
		sawToken = true
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}
	if sawToken {
		forms = append(forms, src[start:])
	}
	return forms, nil
}

func (i *interpreter) Close() error {
	i.m.Lock()
	defer i.m.Unlock()

	i.host = make(map[string]interface{})
	return nil
}
