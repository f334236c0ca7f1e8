package service

import (
	"time"

	"github.com/itchan-dev/roomkit/shared/domain"
)

// Reconcile turns a remote delta into the batch that brings the local
// thread records of sub in step with it.
//
// Updates for unknown ids become creates, updates for known ids become
// updates unless nothing changed, removals of known ids become deletes.
// An id present in both update and remove is deleted, and so is an update
// the server marks as a removed message. Records the delta
// does not mention are left alone. The batch always ends with exactly one
// watermark op, which never moves the subscription's watermark backwards.
func Reconcile(sub domain.Subscription, local []domain.ThreadRecord, update []domain.ThreadSummary, remove []domain.ThreadId, watermark time.Time) []domain.BatchOp {
	known := make(map[domain.ThreadId]domain.ThreadRecord, len(local))
	for _, rec := range local {
		known[rec.Id] = rec
	}

	// last entry wins for duplicate ids, first position is kept
	var order []domain.ThreadId
	latest := make(map[domain.ThreadId]domain.ThreadSummary, len(update))
	for _, s := range update {
		if _, seen := latest[s.Id]; !seen {
			order = append(order, s.Id)
		}
		latest[s.Id] = s
	}

	for _, id := range order {
		if latest[id].Removed() {
			remove = append(remove[:len(remove):len(remove)], id)
		}
	}
	removed := make(map[domain.ThreadId]struct{}, len(remove))
	for _, id := range remove {
		removed[id] = struct{}{}
	}

	var creates, updates, deletes []domain.BatchOp
	for _, id := range order {
		if _, ok := removed[id]; ok {
			continue
		}
		s := latest[id]
		rec, ok := known[id]
		if !ok {
			creates = append(creates, domain.BatchOp{
				Kind:   domain.OpCreate,
				Thread: domain.ThreadRecord{ThreadSummary: s, SubscriptionId: sub.Id},
			})
			continue
		}
		if rec.ThreadSummary.Equal(s) {
			continue
		}
		rec.ThreadSummary = s
		updates = append(updates, domain.BatchOp{Kind: domain.OpUpdate, Thread: rec})
	}

	seen := make(map[domain.ThreadId]struct{}, len(remove))
	for _, id := range remove {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if _, ok := known[id]; !ok {
			continue
		}
		deletes = append(deletes, domain.BatchOp{Kind: domain.OpDelete, ThreadId: id})
	}

	ops := make([]domain.BatchOp, 0, len(creates)+len(updates)+len(deletes)+1)
	ops = append(ops, creates...)
	ops = append(ops, updates...)
	ops = append(ops, deletes...)
	return append(ops, domain.BatchOp{
		Kind:           domain.OpWatermark,
		SubscriptionId: sub.Id,
		Watermark:      nextWatermark(sub.LastThreadSync, watermark),
	})
}

func nextWatermark(current *time.Time, candidate time.Time) time.Time {
	if current != nil && current.After(candidate) {
		return *current
	}
	return candidate
}
