// Package ics renders an event as an iCalendar object and writes it to disk.
package ics

import (
	"fmt"
	"time"

	"gcalevent/internal/models"

	"github.com/emersion/go-ical"
)

const productID = "-//gcalevent//EN"

// localLayouts are accepted when a timestamp carries no UTC offset; the event timezone applies.
var localLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// Build converts spec into a VCALENDAR holding a single VEVENT with the given UID.
func Build(spec models.EventSpec, uid string, now time.Time) (*ical.Calendar, error) {
	start, err := parseTime(spec.Start, spec.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("invalid start time: %w", err)
	}
	end, err := parseTime(spec.End, spec.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("invalid end time: %w", err)
	}

	ve := ical.NewComponent(ical.CompEvent)
	ve.Props.SetText(ical.PropUID, uid)
	ve.Props.SetText(ical.PropSummary, spec.Summary)
	ve.Props.SetDateTime(ical.PropDateTimeStamp, now.UTC())
	ve.Props.SetDateTime(ical.PropDateTimeStart, start)
	ve.Props.SetDateTime(ical.PropDateTimeEnd, end)

	if spec.Description != "" {
		ve.Props.SetText(ical.PropDescription, spec.Description)
	}
	if spec.Location != "" {
		ve.Props.SetText(ical.PropLocation, spec.Location)
	}

	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, productID)
	cal.Children = append(cal.Children, ve)
	return cal, nil
}

func parseTime(value, tz string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}

	loc := time.UTC
	if tz != "" {
		var err error
		loc, err = time.LoadLocation(tz)
		if err != nil {
			return time.Time{}, fmt.Errorf("unknown timezone %q: %w", tz, err)
		}
	}

	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", value)
}
