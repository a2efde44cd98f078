// Package progress implements threshold-gated progress reporting for
// long-running replay passes: a single Info log line each time replay
// crosses the next whole-percent boundary of the guest_instr_count in
// the log header's last_prog_point, rather than a line per entry.
package progress

import (
	"github.com/ehrlich-b/go-ndlog/internal/constants"
	"github.com/ehrlich-b/go-ndlog/internal/interfaces"
	"github.com/ehrlich-b/go-ndlog/internal/wire"
)

// Reporter tracks progress against a known total (the highest
// guest_instr_count recorded in the log header) and logs at Info only
// when crossing the next ProgressThresholdPercent boundary.
type Reporter struct {
	total     uint64
	lastPct   int
	logger    interfaces.Logger
	threshold int
}

// New returns a Reporter against total (the header's last_prog_point
// guest_instr_count). If total is zero, Report is a no-op: there is
// nothing to measure progress against.
func New(total uint64, logger interfaces.Logger) *Reporter {
	return &Reporter{total: total, logger: logger, threshold: constants.ProgressThresholdPercent}
}

// Report logs progress if current crosses the next percent boundary
// since the last report. Safe to call on every consumed entry; it is
// the gating, not the caller, that keeps logging infrequent.
func (r *Reporter) Report(current wire.ProgramPoint) {
	if r.total == 0 || r.logger == nil {
		return
	}
	pct := int(current.GuestInstrCount * 100 / r.total)
	if pct > 100 {
		pct = 100
	}
	if pct-r.lastPct < r.threshold {
		return
	}
	r.lastPct = pct
	r.logger.Printf("replay progress: %d%% (instr=%d/%d)", pct, current.GuestInstrCount, r.total)
}
