package txn

import "time"

// BlockDuration is the wall-clock time one plain organisation-channel
// block occupies on air: 198 bits (§4.1's 7+184+7 gap/data/gap layout)
// at the 5,280 bit/s nominal rate. `0.0375 * F_xxx` style timer
// formulas in the original source are frame counts against exactly
// this duration.
const BlockDuration = 37500 * time.Microsecond

// Timing collects the per-state timer durations and retry/repeat
// counts of §4.4. The original source parameterises these with
// macros (F_BQ, F_VHQK, F_DS, F_RTA, F_VHQ, N_AFKT, N_AFV) that were
// not present in the filtered original_source/ excerpt retained for
// this rebuild (only cnetz.c survived filtering, not cnetz.h). The
// values below are a documented Open Question resolution: concrete,
// reasonable block-count-based defaults consistent with the shape of
// every formula the source *does* show (two-slot-plus-frames style),
// not a guess at the original vendor's exact tuning.
type Timing struct {
	DialPrompt              time.Duration // WAF: wait for dialled digits before retrying
	DialRetries             int           // WAF: bounded retries before WBN
	Allocation              time.Duration // BQ: wait for BEL_K before resending
	Hold                    time.Duration // VHQ: wait for VH_K/VH_V before release
	ThroughWait             time.Duration // DS: wait for DSQ_K
	RingWait                time.Duration // RTA: wait for AH_K
	AnswerWait              time.Duration // AHQ: wait for sub=7·R mode switch point
	ReleaseCount            int           // AF/AT: AF_K/AF_V repeats before destruction (N_AFKT)
	DistributedReleaseCount int           // AF/AT in distributed mode: AF_V repeats before destruction (N_AFV)
}

// DefaultTiming returns the Timing this rebuild ships with.
func DefaultTiming() Timing {
	return Timing{
		DialPrompt:   4 * time.Second,
		DialRetries:  3,
		Allocation:   150*time.Millisecond + 16*BlockDuration,
		Hold:         16 * BlockDuration,
		ThroughWait:  8 * BlockDuration,
		RingWait:     800 * BlockDuration,
		AnswerWait:              BlockDuration + 16*BlockDuration,
		ReleaseCount:            5,
		DistributedReleaseCount: 5,
	}
}
