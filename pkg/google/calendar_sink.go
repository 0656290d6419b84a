package google

import (
	"context"
	"fmt"

	"github.com/spendlog/spendlog/internal/utils"
	"github.com/spendlog/spendlog/pkg/notification"
	"github.com/spendlog/spendlog/pkg/user"
	log "github.com/sirupsen/logrus"
	"google.golang.org/api/calendar/v3"
)

const defaultCalendarId = "primary"

type grantChecker interface {
	HasGrant(ctx context.Context, userId int) (bool, error)
}

type eventInserter interface {
	InsertEvent(ctx context.Context, userId int, calendarId string, event *calendar.Event) error
}

// CalendarSink writes each notification as an all-day event on the current day of the user's chosen calendar.
type CalendarSink struct {
	grants grantChecker
	events eventInserter
	clock  utils.Clock
}

func NewCalendarSink(grants grantChecker, events eventInserter, clock utils.Clock) *CalendarSink {
	return &CalendarSink{grants: grants, events: events, clock: clock}
}

func (s *CalendarSink) Name() string {
	return "google"
}

func (s *CalendarSink) Permission(ctx context.Context, recipient user.User) notification.Permission {
	granted, err := s.grants.HasGrant(ctx, recipient.Id)
	if err != nil {
		log.Warnf("cannot check Google grant of user %d: %v", recipient.Id, err)
		return notification.PermissionDefault
	}
	if !granted {
		return notification.PermissionDefault
	}
	return notification.PermissionGranted
}

// RequestPermission cannot grant anything by itself: the user has to complete the OAuth login.
func (s *CalendarSink) RequestPermission(ctx context.Context, recipient user.User) notification.Permission {
	return s.Permission(ctx, recipient)
}

func (s *CalendarSink) Send(ctx context.Context, recipient user.User, n notification.Notification) error {
	calendarId := recipient.Settings.GoogleCalendar.CalendarId
	if calendarId == "" {
		calendarId = defaultCalendarId
	}
	today := utils.CivilDate(s.clock.Now(), recipient.Location())
	event := &calendar.Event{
		Summary:     n.Title,
		Description: n.Body,
		Start:       &calendar.EventDateTime{Date: today.Format(utils.DayLayout)},
		End:         &calendar.EventDateTime{Date: today.AddDate(0, 0, 1).Format(utils.DayLayout)},
	}
	if err := s.events.InsertEvent(ctx, recipient.Id, calendarId, event); err != nil {
		return fmt.Errorf("google calendar send: %w", err)
	}
	return nil
}
