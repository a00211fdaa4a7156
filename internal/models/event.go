package models

// EventSpec describes the single event to create.
// Values are passed through as given; the calendar service is responsible for rejecting
// malformed timestamps or timezones.
type EventSpec struct {
	CalendarID  string // Target calendar, e.g. "primary"
	Summary     string // Title of the event
	Location    string // Free-form location
	Description string // Detailed description of the event
	Start       string // Start date-time, e.g. 2024-01-01T09:00:00
	End         string // End date-time
	TimeZone    string // IANA timezone applied to Start and End
}

// CreatedEvent is what the calendar service reports back for a newly inserted event.
type CreatedEvent struct {
	ID       string // Provider event identifier
	ICalUID  string // The iCalendar UID, used when mirroring the event elsewhere
	HTMLLink string // Link to the event in the provider's web UI
}
