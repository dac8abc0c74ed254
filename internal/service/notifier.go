package service

import (
	"context"
	"errors"

	"github.com/attaboy/academy/internal/domain"
)

// Notifier is told about every persisted mutation. Failures are logged by the
// caller and never undo the mutation.
type Notifier interface {
	Notify(ctx context.Context, snapshot *domain.Snapshot, events []domain.ProgressEvent) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, snapshot *domain.Snapshot, events []domain.ProgressEvent) error

func (f NotifierFunc) Notify(ctx context.Context, snapshot *domain.Snapshot, events []domain.ProgressEvent) error {
	return f(ctx, snapshot, events)
}

// MultiNotifier fans out to every notifier and joins their errors.
type MultiNotifier []Notifier

func (m MultiNotifier) Notify(ctx context.Context, snapshot *domain.Snapshot, events []domain.ProgressEvent) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, snapshot, events); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
