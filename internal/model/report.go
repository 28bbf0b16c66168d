package model

import "time"

// CompileReport summarizes one compile of a source with a rule set.
type CompileReport struct {
	RunID      string
	RuleID     string
	Source     Path
	Output     Path
	Lines      int // lines read from the source
	Insertions int // rule blocks written after a marker
	Duration   time.Duration
}
