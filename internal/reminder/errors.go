package reminder

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
)

type FailureKind string

const (
	FailureStorage    FailureKind = "storage"
	FailureScheduling FailureKind = "scheduling"
	FailurePermission FailureKind = "permission"
)

// Failure wraps an error raised at the storage or notification boundary.
type Failure struct {
	Kind     FailureKind
	Op       string
	RecordID string
	Err      error
}

func (f *Failure) Error() string {
	if f.RecordID == "" {
		return fmt.Sprintf("reminder: %s %s: %v", f.Kind, f.Op, f.Err)
	}
	return fmt.Sprintf("reminder: %s %s %s: %v", f.Kind, f.Op, f.RecordID, f.Err)
}

func (f *Failure) Unwrap() error { return f.Err }

// Reporter receives failures the controller swallowed so they stay observable.
type Reporter interface {
	Report(ctx context.Context, f *Failure)
}

type ReporterFunc func(ctx context.Context, f *Failure)

func (fn ReporterFunc) Report(ctx context.Context, f *Failure) { fn(ctx, f) }

type LogReporter struct {
	Logger *log.Logger
}

func (r LogReporter) Report(_ context.Context, f *Failure) {
	logger := r.Logger
	if logger == nil {
		logger = log.Default()
	}
	logger.Warn("reminder failure", "kind", f.Kind, "op", f.Op, "id", f.RecordID, "err", f.Err)
}

// multiReporter fans out to several reporters.
type multiReporter []Reporter

func (m multiReporter) Report(ctx context.Context, f *Failure) {
	for _, r := range m {
		r.Report(ctx, f)
	}
}

// Tee reports every failure to each non-nil reporter in order.
func Tee(reporters ...Reporter) Reporter {
	out := make(multiReporter, 0, len(reporters))
	for _, r := range reporters {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}
