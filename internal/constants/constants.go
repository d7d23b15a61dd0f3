package constants

import "time"

// RangeName identifies a named analytics window.
type RangeName string

const (
	AppName            = "lifelog"
	DefaultKeyringUser = "database-connection"
	DefaultOwnerID     = "local"
	DefaultCurrency    = "INR"
	Version            = "v0.1.0"

	// DateFormat is the canonical day-bucket key format (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// TimeFormat is the wall-clock format used for sleep inputs (HH:MM)
	TimeFormat = "15:04"

	// DefaultUTCOffset is the deployment's reference offset for day bucketing
	DefaultUTCOffset = "+00:00"

	// DefaultDomainTimeout bounds a single analytics domain read
	DefaultDomainTimeout = 5 * time.Second

	// MaxJournalHighlights caps the ordered highlight list of a journal entry
	MaxJournalHighlights = 10

	// Range names
	RangeDaily       RangeName = "daily"
	RangeWeekly      RangeName = "weekly"
	RangeMonthToDate RangeName = "mtd"
	RangeYearToDate  RangeName = "ytd"
	RangeCustom      RangeName = "custom"

	// Log file
	LogDirName  = "logs"
	LogFileName = "lifelog.log"
)
