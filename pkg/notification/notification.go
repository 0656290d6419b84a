package notification

import (
	"context"

	"github.com/spendlog/spendlog/pkg/user"
)

type Notification struct {
	Title string
	Body  string
}

type Permission string

const (
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
	// PermissionDefault means the user was not asked yet or has not answered.
	PermissionDefault Permission = "default"
)

// Sink delivers notifications to a user. Sinks decide per user whether they may deliver.
type Sink interface {
	Name() string
	Permission(ctx context.Context, recipient user.User) Permission
	RequestPermission(ctx context.Context, recipient user.User) Permission
	Send(ctx context.Context, recipient user.User, n Notification) error
}
