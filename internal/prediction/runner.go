package prediction

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/lifelink/emergency-coordinator/internal/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

var tracer = otel.Tracer("prediction-bridge")

// Predictor runs one prediction command and returns the decoded result
type Predictor interface {
	Run(ctx context.Context, req Request) (any, error)
}

// Request is a single prediction exchange
type Request struct {
	Command string
	Payload any
	// Script is a file name inside the script directory; empty selects the default.
	Script string
}

// Options configures a Runner
type Options struct {
	Interpreter    string
	ScriptDir      string
	DefaultScript  string
	Timeout        time.Duration
	MaxConcurrency int64
	Logger         *zap.Logger
	Metrics        *metrics.PredictionMetrics
}

// Runner spawns one interpreter process per call
type Runner struct {
	interpreter   string
	scriptDir     string
	defaultScript string
	timeout       time.Duration
	sem           *semaphore.Weighted
	logger        *zap.Logger
	metrics       *metrics.PredictionMetrics
	tracer        trace.Tracer
}

// NewRunner creates a Runner from options, filling unset fields with defaults
func NewRunner(opts Options) *Runner {
	if opts.Interpreter == "" {
		opts.Interpreter = "python3"
	}
	if opts.DefaultScript == "" {
		opts.DefaultScript = "ai_ml.py"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxConcurrency < 1 {
		opts.MaxConcurrency = 8
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	return &Runner{
		interpreter:   opts.Interpreter,
		scriptDir:     opts.ScriptDir,
		defaultScript: opts.DefaultScript,
		timeout:       opts.Timeout,
		sem:           semaphore.NewWeighted(opts.MaxConcurrency),
		logger:        opts.Logger,
		metrics:       opts.Metrics,
		tracer:        tracer,
	}
}

// Run executes [interpreter, script, command, payload] and parses its stdout
func (r *Runner) Run(ctx context.Context, req Request) (any, error) {
	ctx, span := r.tracer.Start(ctx, "prediction.run")
	defer span.End()

	script := req.Script
	if script == "" {
		script = r.defaultScript
	}
	span.SetAttributes(
		attribute.String("prediction.command", req.Command),
		attribute.String("prediction.script", script),
	)

	if strings.TrimSpace(req.Command) == "" {
		return nil, r.fail(span, newError(KindInvalidRequest, req.Command, "command is required", nil))
	}
	if script != filepath.Base(script) {
		return nil, r.fail(span, newError(KindInvalidRequest, req.Command, "script must be a file name", nil))
	}

	payload, err := encodePayload(req.Command, req.Payload)
	if err != nil {
		return nil, r.fail(span, newError(KindInvalidRequest, req.Command, "", err))
	}

	if err := r.sem.Acquire(ctx, 1); err != nil {
		return nil, r.fail(span, newError(KindCanceled, req.Command, "waiting for a free slot", err))
	}
	defer r.sem.Release(1)

	start := time.Now()
	if r.metrics != nil {
		r.metrics.RecordStarted(ctx, req.Command)
	}

	result, err := r.exec(ctx, req.Command, script, payload)
	elapsed := time.Since(start)
	if err != nil {
		if r.metrics != nil {
			r.metrics.RecordFailed(ctx, req.Command, string(KindOf(err)), elapsed)
		}
		r.logger.Warn("prediction failed",
			zap.String("command", req.Command),
			zap.String("kind", string(KindOf(err))),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)
		return nil, r.fail(span, err)
	}

	if r.metrics != nil {
		r.metrics.RecordCompleted(ctx, req.Command, elapsed)
	}
	r.logger.Debug("prediction completed",
		zap.String("command", req.Command),
		zap.Duration("elapsed", elapsed),
	)
	return result, nil
}

func (r *Runner) exec(ctx context.Context, command, script string, payload []byte) (any, error) {
	runCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, r.interpreter, filepath.Join(r.scriptDir, script), command, string(payload))
	cmd.Dir = r.scriptDir
	cmd.WaitDelay = time.Second

	var stdout bytes.Buffer
	stderr := &stderrLog{logger: r.logger, command: command}
	cmd.Stdout = &stdout
	cmd.Stderr = stderr

	runErr := cmd.Run()

	switch {
	case ctx.Err() != nil:
		return nil, newError(KindCanceled, command, "", ctx.Err())
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		return nil, newError(KindTimeout, command, "killed after "+r.timeout.String(), runCtx.Err())
	case runErr != nil && !errors.Is(runErr, exec.ErrWaitDelay):
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = strings.TrimSpace(stdout.String())
		}
		return nil, newError(KindExecutionFailure, command, detail, runErr)
	}

	result, err := decodeResult(stdout.Bytes())
	if err != nil {
		return nil, newError(KindMalformedResponse, command, stdout.String(), err)
	}
	return result, nil
}

func (r *Runner) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, string(KindOf(err)))
	return err
}

// stderrLog keeps the full stderr text and logs each chunk as it arrives.
type stderrLog struct {
	mu      sync.Mutex
	buf     bytes.Buffer
	logger  *zap.Logger
	command string
}

func (s *stderrLog) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger.Warn("prediction stderr",
		zap.String("command", s.command),
		zap.String("output", strings.TrimRight(string(p), "\n")),
	)
	return s.buf.Write(p)
}

func (s *stderrLog) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}
