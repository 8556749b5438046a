package run

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/inoxlang/phpcheck/internal/ast"
	"github.com/inoxlang/phpcheck/internal/evaluator"
	"github.com/inoxlang/phpcheck/internal/logs"
	"github.com/inoxlang/phpcheck/internal/report"
	"github.com/inoxlang/phpcheck/internal/symbols"
	"github.com/inoxlang/phpcheck/internal/utils"
	"github.com/rs/zerolog"
)

// worker evaluates the files it receives one at a time, each file gets its own evaluator.
// The diagnostics are sent to the coordinator as messages.
type worker struct {
	id     int
	table  symbols.Table
	checks []evaluator.Check
	strict bool
	out    *messageWriter
	state  *State
	logger zerolog.Logger
}

func (w *worker) work(ctx context.Context, jobs <-chan *ast.File) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case file, ok := <-jobs:
			if !ok {
				return nil
			}
			if err := w.evaluate(file); err != nil {
				return err
			}
		}
	}
}

// evaluate evaluates a file and sends its diagnostics, a panic during the evaluation becomes an internal
// error diagnostic and does not stop the worker.
func (w *worker) evaluate(file *ast.File) (finalErr error) {
	emitter := &workerEmitter{worker: w}
	logger := w.logger.With().Str(logs.FILE_LOG_FIELD_NAME, file.Path).Logger()

	defer func() {
		if e := recover(); e != nil {
			err := utils.ConvertPanicValueToError(e)
			w.state.crashed.Add(1)
			logger.Error().Err(err).Msg("evaluation panicked")
			//no check name: crashes are reported even if every check is disabled
			emitter.Emit("", file.Path, 0, report.InternalError, fmt.Sprintf("internal error: %s", err))
		} else {
			w.state.evaluated.Add(1)
		}

		if emitter.err != nil {
			finalErr = emitter.err
			return
		}
		finalErr = w.out.send(message{
			Kind:   MESSAGE_KIND_FILE_DONE,
			Worker: w.id,
			File:   file.Path,
			Checks: emitter.checks.Load(),
		})
	}()

	e := evaluator.New(file, evaluator.Config{
		Symbols:     w.table,
		Emitter:     emitter,
		Checks:      w.checks,
		Logger:      logger,
		StrictTypes: w.strict,
	})
	e.Evaluate()
	return nil
}

// workerEmitter forwards the diagnostics of an evaluation to the coordinator, the first send error is kept
// and the following diagnostics are dropped.
type workerEmitter struct {
	worker *worker
	checks atomic.Int64
	err    error
}

func (em *workerEmitter) Emit(check, file string, line int, code report.Code, msg string) {
	if em.err != nil {
		return
	}
	em.err = em.worker.out.send(message{
		Kind:   MESSAGE_KIND_DIAGNOSTIC,
		Worker: em.worker.id,
		File:   file,
		Diagnostic: &report.Diagnostic{
			File:     file,
			Line:     line,
			Code:     code,
			Severity: code.Severity(),
			Message:  msg,
			Check:    check,
		},
	})
}

func (em *workerEmitter) IncChecks() {
	em.checks.Add(1)
}
