package faq

import "time"

type Trigger string

const (
	TriggerScheduled Trigger = "scheduled"
	TriggerOperator  Trigger = "operator"
)

// QueueRun records one drain of the invalidation queue.
type QueueRun struct {
	ID        string    `json:"id"`
	RanAt     time.Time `json:"ranAt"`
	Processed int       `json:"processed"`
	Sample    []int64   `json:"sample"`
	Trigger   Trigger   `json:"trigger"`
	Remaining int       `json:"remaining"`
}
