// Package cycle runs the node's wake cycle.
//
// Each cycle walks the same states:
//
//	Start -> TimeValidated -> ThrottleChecked -> Attempted -> Scheduled
//
//  1. A clock earlier than the configured minimum means the real-time clock
//     lost power: sleep briefly and try again, touching nothing.
//  2. The quiet throttle may force a long sleep; nothing else happens.
//  3. The reading is appended to the durable log, then sent. If it cannot
//     be sent it is queued. If it was sent, the backlog is drained through
//     the same channel.
//  4. The node sleeps for the interval the earlier steps settled on.
//
// Nothing fails a cycle. Errors are classified into an ErrorKind on the
// Outcome and logged with the cycle's ID.
//
// # Usage
//
//	s, err := cycle.New(cycle.Capabilities{...}, cycle.Config{...})
//	if err != nil {
//	    return err
//	}
//	s.SetLogger(log)
//	return s.Run(ctx)
package cycle
