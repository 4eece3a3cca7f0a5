// Package queue keeps readings that could not be transmitted until a later
// cycle can deliver them.
//
// Each entry is one record, queue/<unix_seconds>.txt, holding a single line
// "timestamp,temperature_f,humidity_pct". Because the name is the capture
// time, listing the records in numeric order yields the readings oldest
// first, which is the order they are delivered in.
//
// The queue is self-cleaning: records with unparseable names or contents
// are deleted the first time they are seen.
//
// Usage:
//
//	q := queue.New(st, "txt")
//	if _, err := q.Enqueue(ctx, r); err != nil {
//	    // storage full or read-only; the reading is only in the log
//	}
//
//	res, err := q.DrainVia(ctx, ch, 10)
package queue
