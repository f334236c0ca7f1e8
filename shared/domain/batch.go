package domain

import "time"

type OpKind int

const (
	OpCreate OpKind = iota
	OpUpdate
	OpDelete
	OpWatermark
)

func (k OpKind) String() string {
	switch k {
	case OpCreate:
		return "create"
	case OpUpdate:
		return "update"
	case OpDelete:
		return "delete"
	case OpWatermark:
		return "watermark"
	}
	return "unknown"
}

// BatchOp is one write of an atomic store batch.
type BatchOp struct {
	Kind OpKind

	// Thread is set for creates and updates.
	Thread ThreadRecord
	// ThreadId is set for deletes.
	ThreadId ThreadId

	// SubscriptionId and Watermark are set for watermark ops.
	SubscriptionId SubscriptionId
	Watermark      time.Time
}
