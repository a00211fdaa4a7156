package ics

import (
	"context"
	"fmt"
	"os"
	"time"

	"gcalevent/internal/models"

	"github.com/emersion/go-ical"
)

// FileMirror writes a copy of the created event to an .ics file.
type FileMirror struct {
	Path string
	now  func() time.Time
}

// NewFileMirror creates a mirror that writes to path, replacing any existing file.
func NewFileMirror(path string) *FileMirror {
	return &FileMirror{Path: path, now: time.Now}
}

func (m *FileMirror) Name() string {
	return "ics:" + m.Path
}

// Mirror writes the event using created.ICalUID as its UID.
func (m *FileMirror) Mirror(ctx context.Context, spec models.EventSpec, created *models.CreatedEvent) error {
	cal, err := Build(spec, created.ICalUID, m.now())
	if err != nil {
		return err
	}

	f, err := os.Create(m.Path)
	if err != nil {
		return fmt.Errorf("unable to create ics file: %w", err)
	}
	if err := ical.NewEncoder(f).Encode(cal); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to encode event to iCal format: %w", err)
	}
	return f.Close()
}
