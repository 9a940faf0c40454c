package pipeline

import (
	"fmt"
	"time"
)

// State is where a message ended up within a pass.
type State int

const (
	StateReceived State = iota
	StateSkipped
	StateFiltered
	StateDuplicate
	StateDeduped
	StateFetched
	StateSummarized
	StatePersisted
	StateNotified
	StateFailed
)

var stateNames = [...]string{
	StateReceived:   "received",
	StateSkipped:    "skipped",
	StateFiltered:   "filtered",
	StateDuplicate:  "duplicate",
	StateDeduped:    "deduped",
	StateFetched:    "fetched",
	StateSummarized: "summarized",
	StatePersisted:  "persisted",
	StateNotified:   "notified",
	StateFailed:     "failed",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Result is the outcome for one message.
type Result struct {
	UpdateID int64  `json:"update_id"`
	ID       string `json:"id,omitempty"`
	State    State  `json:"state"`
	Title    string `json:"title,omitempty"`
	Path     string `json:"path,omitempty"`
	Link     string `json:"link,omitempty"`
	Err      error  `json:"-"`
}

// Report summarizes one pass.
type Report struct {
	RunID      string    `json:"run_id"`
	Started    time.Time `json:"started"`
	Finished   time.Time `json:"finished"`
	Seen       int       `json:"seen"`
	Skipped    int       `json:"skipped"`
	Duplicates int       `json:"duplicates"`
	Processed  int       `json:"processed"`
	Failed     int       `json:"failed"`
	Results    []Result  `json:"results,omitempty"`
}

func (r *Report) add(res Result) {
	switch res.State {
	case StateSkipped:
		r.Skipped++
		return
	case StateDuplicate:
		r.Duplicates++
	case StateNotified:
		r.Processed++
	case StateFailed:
		r.Failed++
	}
	r.Results = append(r.Results, res)
}

func (r Report) finish(at time.Time) Report {
	r.Finished = at
	return r
}
