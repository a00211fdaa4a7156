package dav

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"time"

	"gcalevent/internal/ics"
	"gcalevent/internal/models"

	"github.com/emersion/go-ical"
	"github.com/emersion/go-webdav"
	"github.com/emersion/go-webdav/caldav"
)

const (
	// DefaultEndpoint is used when Options.Endpoint is empty.
	DefaultEndpoint = "https://caldav.icloud.com/"
)

// customTransport handles adding Basic Auth and custom headers to requests.
type customTransport struct {
	Username  string
	Password  string
	Transport http.RoundTripper
}

// RoundTrip adds required headers and authentication to each request.
func (t *customTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.SetBasicAuth(t.Username, t.Password)
	req.Header.Set("User-Agent", "gcalevent/1.0")
	return t.Transport.RoundTrip(req)
}

// Options configures the CalDAV mirror.
type Options struct {
	Endpoint     string
	Username     string
	Password     string
	CalendarName string // Looked up on the server when CalendarPath is empty
	CalendarPath string // Absolute collection path, e.g. /123/calendars/home/
	Transport    http.RoundTripper
}

// Client copies created events into a calendar on a CalDAV server.
type Client struct {
	caldavClient *caldav.Client
	webdavClient *webdav.Client
	logger       *slog.Logger
	calendarPath string
	now          func() time.Time
}

// NewClient creates a CalDAV client and resolves the target calendar collection.
func NewClient(ctx context.Context, logger *slog.Logger, opts Options) (*Client, error) {
	endpoint := opts.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	base := opts.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	httpClient := &http.Client{Transport: &customTransport{
		Username:  opts.Username,
		Password:  opts.Password,
		Transport: base,
	}}

	caldavClient, err := caldav.NewClient(httpClient, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to create caldav client: %w", err)
	}

	webdavClient, err := webdav.NewClient(httpClient, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to create webdav client: %w", err)
	}

	c := &Client{
		caldavClient: caldavClient,
		webdavClient: webdavClient,
		logger:       logger,
		calendarPath: opts.CalendarPath,
		now:          time.Now,
	}

	if c.calendarPath == "" {
		logger.Info("Finding CalDAV calendar", "calendarName", opts.CalendarName)
		calendarPath, err := c.findCalendar(ctx, opts.CalendarName)
		if err != nil {
			return nil, fmt.Errorf("could not find calendar '%s': %w", opts.CalendarName, err)
		}
		c.calendarPath = calendarPath
		logger.Info("Successfully found CalDAV calendar", "path", calendarPath)
	}

	return c, nil
}

func (c *Client) Name() string {
	return "caldav:" + c.calendarPath
}

// Mirror stores the created event as <uid>.ics in the calendar collection.
func (c *Client) Mirror(ctx context.Context, spec models.EventSpec, created *models.CreatedEvent) error {
	c.logger.Debug("Mirroring event to CalDAV", "summary", spec.Summary, "uid", created.ICalUID)

	cal, err := ics.Build(spec, created.ICalUID, c.now())
	if err != nil {
		return err
	}

	eventPath := path.Join(c.calendarPath, created.ICalUID+".ics")
	writer, err := c.webdavClient.Create(ctx, eventPath)
	if err != nil {
		return fmt.Errorf("failed to create event on CalDAV server: %w", err)
	}

	if err := ical.NewEncoder(writer).Encode(cal); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to encode event to iCal format: %w", err)
	}
	// The upload completes on Close.
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to upload event to CalDAV server: %w", err)
	}

	c.logger.Info("Successfully mirrored event to CalDAV", "path", eventPath)
	return nil
}

// findCalendar discovers the user's calendars and returns the path of the one with the matching name.
func (c *Client) findCalendar(ctx context.Context, name string) (string, error) {
	principalPath, err := c.caldavClient.FindCurrentUserPrincipal(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to find principal path: %w", err)
	}

	homeSetPath, err := c.caldavClient.FindCalendarHomeSet(ctx, principalPath)
	if err != nil {
		return "", fmt.Errorf("failed to find calendar home set: %w", err)
	}

	calendars, err := c.caldavClient.FindCalendars(ctx, homeSetPath)
	if err != nil {
		return "", fmt.Errorf("failed to find calendars: %w", err)
	}

	for _, cal := range calendars {
		if cal.Name == name {
			return cal.Path, nil
		}
	}

	return "", fmt.Errorf("no calendar found with name '%s'", name)
}

