package dataprocessing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"healthvault/pkg/contracts/domain"
)

// OffloadThreshold is the payload size above which parsing moves off
// the caller's goroutine: 10 MiB of decoded text.
const OffloadThreshold = 10 << 20

// errWorkerCommunication marks an offload worker that died before
// replying. It never leaves this package; the executor converts it into
// a synchronous fallback.
var errWorkerCommunication = errors.New("parse worker communication failed")

// ParseExecutor runs the parsing contract, possibly off the caller's
// goroutine. Implementations must be interchangeable: offloading is a
// responsiveness optimization, never a correctness dependency.
type ParseExecutor interface {
	RunParse(ctx context.Context, payload string) (*domain.ParsedHealthData, error)
}

// InlineExecutor parses synchronously on the caller's goroutine.
type InlineExecutor struct {
	parser *Parser
}

// NewInlineExecutor creates the synchronous executor.
func NewInlineExecutor(parser *Parser) *InlineExecutor {
	return &InlineExecutor{parser: parser}
}

// RunParse implements ParseExecutor.
func (e *InlineExecutor) RunParse(_ context.Context, payload string) (*domain.ParsedHealthData, error) {
	return e.parser.Parse(payload)
}

// OffloadExecutor parses on a dedicated worker goroutine, exchanging a
// one-shot request and a one-shot reply. There is no shared mutable
// state with the worker; it is used once and discarded. Any failure of
// the worker itself falls back to the inline path.
type OffloadExecutor struct {
	parser   *Parser
	fallback ParseExecutor
	logger   *slog.Logger
}

// NewOffloadExecutor creates the worker-backed executor.
func NewOffloadExecutor(parser *Parser, logger *slog.Logger) *OffloadExecutor {
	return &OffloadExecutor{
		parser:   parser,
		fallback: NewInlineExecutor(parser),
		logger:   logger.With(slog.String("component", "offload_executor")),
	}
}

// RunParse implements ParseExecutor. Parse errors from the worker
// propagate unchanged; only worker failures trigger the fallback.
func (e *OffloadExecutor) RunParse(ctx context.Context, payload string) (*domain.ParsedHealthData, error) {
	data, err := e.runWorker(ctx, payload)
	if errors.Is(err, errWorkerCommunication) {
		e.logger.Warn("parse worker failed, falling back to inline parse",
			slog.String("error", err.Error()))
		return e.fallback.RunParse(ctx, payload)
	}
	return data, err
}

func (e *OffloadExecutor) runWorker(ctx context.Context, payload string) (*domain.ParsedHealthData, error) {
	type reply struct {
		data *domain.ParsedHealthData
		err  error
	}
	replyCh := make(chan reply, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				replyCh <- reply{err: fmt.Errorf("%w: panic: %v", errWorkerCommunication, r)}
			}
		}()
		data, err := e.parser.Parse(payload)
		replyCh <- reply{data: data, err: err}
	}()

	select {
	case res := <-replyCh:
		return res.data, res.err
	case <-ctx.Done():
		// The worker runs to completion and is discarded; the reply
		// channel is buffered so it never leaks.
		return nil, ctx.Err()
	}
}

// SelectExecutor picks the executor for a payload: inline for small
// documents, offloaded above the threshold.
func SelectExecutor(parser *Parser, logger *slog.Logger, payloadSize int) ParseExecutor {
	if payloadSize > OffloadThreshold {
		return NewOffloadExecutor(parser, logger)
	}
	return NewInlineExecutor(parser)
}
