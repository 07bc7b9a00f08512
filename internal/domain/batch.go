package domain

import (
	"path/filepath"
	"strings"
	"time"
)

// Batch is a finished table handed to output sinks. Zone labels the
// station (or run) the table belongs to.
type Batch struct {
	Zone        string
	Table       Table
	ProcessedAt time.Time
}

// NewBatch stamps a table for output.
func NewBatch(zone string, t Table) Batch {
	return Batch{Zone: zone, Table: t, ProcessedAt: clock.Now().UTC()}
}

// ZoneFromPath derives the default zone name from an input path: the file
// name without its extension.
func ZoneFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
