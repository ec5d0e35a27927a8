package model

import "time"

// WorklogEntry is a per-item, per-phase audit record appended to
// _worklog/{item_id}.md after every phase execution.
type WorklogEntry struct {
	Phase      string
	Started    time.Time
	Ended      time.Time
	ResultCode ResultCode
	Summary    string
	CommitSHA  string
}
