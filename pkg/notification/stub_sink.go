package notification

import (
	"context"
	"sync"

	"github.com/spendlog/spendlog/pkg/user"
)

type Delivery struct {
	Recipient    user.User
	Notification Notification
}

// StubSink records deliveries in memory.
type StubSink struct {
	mu         sync.Mutex
	permission Permission
	// GrantOnRequest makes RequestPermission switch the permission to granted.
	GrantOnRequest bool
	SendErr        error
	Requests       int
	Sent           []Delivery
}

func NewStubSink(permission Permission) *StubSink {
	return &StubSink{permission: permission}
}

func (s *StubSink) Name() string {
	return "stub"
}

func (s *StubSink) Permission(ctx context.Context, recipient user.User) Permission {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.permission
}

func (s *StubSink) RequestPermission(ctx context.Context, recipient user.User) Permission {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Requests++
	if s.GrantOnRequest {
		s.permission = PermissionGranted
	}
	return s.permission
}

func (s *StubSink) Send(ctx context.Context, recipient user.User, n Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SendErr != nil {
		return s.SendErr
	}
	s.Sent = append(s.Sent, Delivery{Recipient: recipient, Notification: n})
	return nil
}

func (s *StubSink) Titles() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	titles := make([]string, 0, len(s.Sent))
	for _, d := range s.Sent {
		titles = append(titles, d.Notification.Title)
	}
	return titles
}

func (s *StubSink) Cleanup(permission Permission) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.permission = permission
	s.GrantOnRequest = false
	s.SendErr = nil
	s.Requests = 0
	s.Sent = nil
}
