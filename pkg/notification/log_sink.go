package notification

import (
	"context"

	"github.com/spendlog/spendlog/pkg/user"
	log "github.com/sirupsen/logrus"
)

// LogSink writes notifications to the application log. It never refuses.
type LogSink struct{}

func (LogSink) Name() string {
	return "log"
}

func (LogSink) Permission(ctx context.Context, recipient user.User) Permission {
	return PermissionGranted
}

func (LogSink) RequestPermission(ctx context.Context, recipient user.User) Permission {
	return PermissionGranted
}

func (LogSink) Send(ctx context.Context, recipient user.User, n Notification) error {
	log.WithFields(log.Fields{
		"user":  recipient.Id,
		"title": n.Title,
	}).Info(n.Body)
	return nil
}
