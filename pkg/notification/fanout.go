package notification

import (
	"context"
	"errors"
	"strings"

	"github.com/spendlog/spendlog/pkg/user"
)

// Fanout delivers to every sink that has the user's permission.
type Fanout struct {
	sinks []Sink
}

func NewFanout(sinks ...Sink) *Fanout {
	return &Fanout{sinks: sinks}
}

func (f *Fanout) Name() string {
	names := make([]string, 0, len(f.sinks))
	for _, s := range f.sinks {
		names = append(names, s.Name())
	}
	return strings.Join(names, ",")
}

// Permission is granted when at least one sink may deliver.
func (f *Fanout) Permission(ctx context.Context, recipient user.User) Permission {
	return combine(f.sinks, func(s Sink) Permission { return s.Permission(ctx, recipient) })
}

func (f *Fanout) RequestPermission(ctx context.Context, recipient user.User) Permission {
	return combine(f.sinks, func(s Sink) Permission {
		if p := s.Permission(ctx, recipient); p == PermissionGranted {
			return p
		}
		return s.RequestPermission(ctx, recipient)
	})
}

func (f *Fanout) Send(ctx context.Context, recipient user.User, n Notification) error {
	var errs []error
	for _, s := range f.sinks {
		if s.Permission(ctx, recipient) != PermissionGranted {
			continue
		}
		if err := s.Send(ctx, recipient, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// combine asks every sink and returns the most permissive answer.
func combine(sinks []Sink, permission func(Sink) Permission) Permission {
	result := PermissionDenied
	for _, s := range sinks {
		switch permission(s) {
		case PermissionGranted:
			result = PermissionGranted
		case PermissionDefault:
			if result != PermissionGranted {
				result = PermissionDefault
			}
		}
	}
	return result
}
