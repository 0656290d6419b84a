package google

import (
	"context"
	"errors"
	"fmt"

	"github.com/spendlog/spendlog/pkg/user"
	log "github.com/sirupsen/logrus"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

var ErrUnauthenticated = errors.New("user is unauthenticated, authentication is required")

type CalendarItem struct {
	ID      string
	Summary string
}

type Service interface {
	ListCalendars(ctx context.Context) ([]CalendarItem, error)
	InsertEvent(ctx context.Context, userId int, calendarId string, event *calendar.Event) error
}

type ServiceImpl struct {
	auth *GoogleAuth
}

func NewService(auth *GoogleAuth) *ServiceImpl {
	return &ServiceImpl{
		auth: auth,
	}
}

func (s *ServiceImpl) ListCalendars(ctx context.Context) ([]CalendarItem, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}

	googleService, err := s.prepareGoogleService(ctx, userId)
	if err != nil {
		return nil, err
	}
	calendars, err := googleService.CalendarList.List().Context(ctx).Do()
	if err != nil {
		err := fmt.Errorf("unable to retrieve calendars from Google Calendar: %w", err)
		log.Error(err)
		return nil, err
	}
	var googleCalendars []CalendarItem
	for _, cal := range calendars.Items {
		googleCalendars = append(googleCalendars, CalendarItem{
			ID:      cal.Id,
			Summary: cal.Summary,
		})
	}
	return googleCalendars, nil
}

func (s *ServiceImpl) InsertEvent(ctx context.Context, userId int, calendarId string, event *calendar.Event) error {
	googleService, err := s.prepareGoogleService(ctx, userId)
	if err != nil {
		return err
	}
	result, err := googleService.Events.Insert(calendarId, event).Context(ctx).Do()
	if err != nil {
		err := fmt.Errorf("unable to insert event in Google Calendar: %w", err)
		log.Error(err)
		return err
	}
	log.Debugf("Inserted event %s in calendar %s of user %d", result.Id, calendarId, userId)
	return nil
}

func (s *ServiceImpl) prepareGoogleService(ctx context.Context, userId int) (*calendar.Service, error) {
	client, err := s.auth.getClient(ctx, userId)
	if err != nil {
		err := fmt.Errorf("unable to retrieve Google auth client: %w", err)
		log.Error(err)
		return nil, err
	}
	if client == nil {
		log.Debug("user is unauthenticated, authentication is required")
		return nil, ErrUnauthenticated
	}
	service, err := calendar.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		err := fmt.Errorf("unable to retrieve Calendar client: %w", err)
		log.Error(err)
		return nil, err
	}

	return service, nil
}
