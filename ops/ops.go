// Package ops exposes the parent tools as operators: named batch actions over
// the selection of a scene, each checked by Poll and run by Execute. Failures
// of single objects are reported and never stop the rest of the batch.
package ops

import (
	"context"
	"sort"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/anthonyesau/blender-custom-tools/host"
)

type Status string

const (
	StatusFinished  Status = "FINISHED"
	StatusCancelled Status = "CANCELLED"
)

type Operator interface {
	IDName() string
	Label() string
	Description() string
	// Poll returns nil when the operator can run on sel
	Poll(sel host.Selection) error
	Execute(ctx context.Context, sel host.Selection) *Report
}

var gOperators = make(map[string]Operator)

func SetOperator(op Operator) {
	gOperators[op.IDName()] = op
}

func GetOperator(idname string) (Operator, error) {
	if op, found := gOperators[idname]; found {
		return op, nil
	}
	return nil, errors.Errorf("Unknown operator %q", idname)
}

// Operators sorted by idname
func Operators() []Operator {
	res := make([]Operator, 0, len(gOperators))
	for _, op := range gOperators {
		res = append(res, op)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].IDName() < res[j].IDName() })
	return res
}

type ObjectReport struct {
	Object string `json:"object"`
	Error  string `json:"error,omitempty"`
	// the object did not meet a precondition of the operator and was left
	// unchanged, like a root object for the parent tools
	Skipped bool     `json:"skipped,omitempty"`
	Details []string `json:"details,omitempty"`

	err error
}

func (o *ObjectReport) Err() error { return o.err }

type Report struct {
	RunID    string         `json:"run_id"`
	Operator string         `json:"operator"`
	Status   Status         `json:"status"`
	Error    string         `json:"error,omitempty"`
	Objects  []ObjectReport `json:"objects"`
	Started  time.Time      `json:"started"`
	Duration time.Duration  `json:"duration"`
}

func newReport(op Operator) *Report {
	return &Report{
		RunID:    uuid.NewString(),
		Operator: op.IDName(),
		Status:   StatusFinished,
		Started:  time.Now(),
	}
}

func (r *Report) cancel(err error) *Report {
	r.Status = StatusCancelled
	r.Error = err.Error()
	r.Duration = time.Since(r.Started)
	return r
}

func (r *Report) add(obj host.Object, err error, details ...string) {
	or := ObjectReport{Object: obj.Name(), Details: details, err: err}
	if err != nil {
		or.Error = err.Error()
		or.Skipped = errors.Is(err, host.ErrPreconditionViolation)
	}
	r.Objects = append(r.Objects, or)
}

// Failed counts objects the operator could not process. Skipped objects
// are not failures.
func (r *Report) Failed() int {
	n := 0
	for _, o := range r.Objects {
		if o.err != nil && !o.Skipped {
			n++
		}
	}
	return n
}

func (r *Report) Skipped() int {
	n := 0
	for _, o := range r.Objects {
		if o.Skipped {
			n++
		}
	}
	return n
}

// pollActive is the Poll shared by all parent tools
func pollActive(sel host.Selection) error {
	if sel.ActiveObject() == nil {
		return host.ErrNoActiveObject
	}
	return nil
}

// run polls op and calls fn for every selected object in order. Errors of fn
// are logged and recorded; the batch goes on.
func run(ctx context.Context, op Operator, sel host.Selection, fn func(obj host.Object) ([]string, error)) *Report {
	logger := LoggerFromContext(ctx).With("op", op.IDName())
	r := newReport(op)

	if err := op.Poll(sel); err != nil {
		logger.Warn("Poll failed", "err", err)
		return r.cancel(err)
	}

	objects := sel.SelectedObjects()
	for i, obj := range objects {
		if err := ctx.Err(); err != nil {
			logger.Warn("Interrupted", "done", i, "total", len(objects))
			r.Error = err.Error()
			break
		}

		ProgressFromContext(ctx)(float32(i)/float32(len(objects)), "%s: %s", op.Label(), obj.Name())

		details, err := fn(obj)
		r.add(obj, err, details...)
		switch {
		case err == nil:
			logger.Debug("Done", "object", obj.Name())
		case r.Objects[len(r.Objects)-1].Skipped:
			logger.Warn("Skipped", "object", obj.Name(), "err", err)
		default:
			logger.Error("Failed", "object", obj.Name(), "err", err)
		}
	}

	r.Duration = time.Since(r.Started)
	ProgressFromContext(ctx)(1, "%s: %d objects, %d skipped, %d failed", op.Label(), len(r.Objects), r.Skipped(), r.Failed())
	logger.Info("Finished", "run", r.RunID, "objects", len(r.Objects), "skipped", r.Skipped(), "failed", r.Failed())
	return r
}

type ctxKey int

const (
	loggerKey ctxKey = iota
	progressKey
	conversionLogKey
)

func WithLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// LoggerFromContext falls back to log.Default()
func LoggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}

// ProgressFunc receives the batch progress in [0, 1]
type ProgressFunc func(progress float32, format string, a ...interface{})

func WithProgress(ctx context.Context, fn ProgressFunc) context.Context {
	return context.WithValue(ctx, progressKey, fn)
}

func ProgressFromContext(ctx context.Context) ProgressFunc {
	if fn, ok := ctx.Value(progressKey).(ProgressFunc); ok {
		return fn
	}
	return func(float32, string, ...interface{}) {}
}

// WithConversionLog turns on per frame logging of the keyframe converter
func WithConversionLog(ctx context.Context, enabled bool) context.Context {
	return context.WithValue(ctx, conversionLogKey, enabled)
}

func conversionLog(ctx context.Context) bool {
	enabled, _ := ctx.Value(conversionLogKey).(bool)
	return enabled
}
