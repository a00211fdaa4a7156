package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"gcalevent/internal/models"

	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// DefaultScopes are the OAuth scopes needed to insert events.
var DefaultScopes = []string{calendar.CalendarEventsScope}

// ErrEventCreationFailed wraps any failure reported while inserting an event.
var ErrEventCreationFailed = errors.New("event creation failed")

// CalendarClient provides a client for interacting with the Google Calendar API.
type CalendarClient struct {
	service *calendar.Service
	logger  *slog.Logger
}

// NewClient creates a new Google Calendar client on top of an already authorized HTTP client.
// Extra options are appended after the HTTP client, e.g. to point at a different endpoint.
func NewClient(ctx context.Context, logger *slog.Logger, httpClient *http.Client, opts ...option.ClientOption) (*CalendarClient, error) {
	opts = append([]option.ClientOption{option.WithHTTPClient(httpClient)}, opts...)
	service, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}

	return &CalendarClient{service: service, logger: logger}, nil
}

// CreateEvent inserts a single event. It makes exactly one API call and never retries;
// an expired or revoked credential is reported like any other failure.
func (c *CalendarClient) CreateEvent(ctx context.Context, spec models.EventSpec) (*models.CreatedEvent, error) {
	c.logger.Debug("Creating event", "calendarID", spec.CalendarID, "summary", spec.Summary, "start", spec.Start, "end", spec.End)

	event, err := c.service.Events.Insert(spec.CalendarID, toGoogleEvent(spec)).Context(ctx).Do()
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) {
			return nil, fmt.Errorf("%w: calendar %q: %d %s: %w", ErrEventCreationFailed, spec.CalendarID, apiErr.Code, apiErr.Message, err)
		}
		return nil, fmt.Errorf("%w: calendar %q: %w", ErrEventCreationFailed, spec.CalendarID, err)
	}

	c.logger.Info("Successfully created event in Google Calendar", "id", event.Id, "calendarID", spec.CalendarID)
	return &models.CreatedEvent{
		ID:       event.Id,
		ICalUID:  event.ICalUID,
		HTMLLink: event.HtmlLink,
	}, nil
}

// toGoogleEvent converts the internal EventSpec to a Google Calendar event.
func toGoogleEvent(spec models.EventSpec) *calendar.Event {
	return &calendar.Event{
		Summary:     spec.Summary,
		Location:    spec.Location,
		Description: spec.Description,
		Start: &calendar.EventDateTime{
			DateTime: spec.Start,
			TimeZone: spec.TimeZone,
		},
		End: &calendar.EventDateTime{
			DateTime: spec.End,
			TimeZone: spec.TimeZone,
		},
	}
}
