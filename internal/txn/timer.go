package txn

import "time"

// Timer is the single timer a transaction may own (§3, §5: "arming it
// displaces any prior arming"; it is an event source serviced by
// ExpireDialPrompt/ExpireSupervision, never a blocking call).
type Timer struct {
	armed    bool
	deadline time.Time
}

// Arm starts the timer to fire `d` after `now`, displacing any prior
// arming.
func (t *Timer) Arm(now time.Time, d time.Duration) {
	t.armed = true
	t.deadline = now.Add(d)
}

// Disarm cancels the timer.
func (t *Timer) Disarm() {
	t.armed = false
}

// Armed reports whether the timer is currently running.
func (t *Timer) Armed() bool {
	return t.armed
}

// Expired reports whether the timer is armed and its deadline has
// passed as of `now`. It does not disarm the timer; callers that treat
// expiry as consumed should call Disarm explicitly, matching the
// original's explicit "timer_stop" calls at each transition.
func (t *Timer) Expired(now time.Time) bool {
	return t.armed && !now.Before(t.deadline)
}
