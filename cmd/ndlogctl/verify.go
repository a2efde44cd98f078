package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ehrlich-b/go-ndlog/internal/queue"
	"github.com/ehrlich-b/go-ndlog/internal/wire"
)

func newVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <log-file>",
		Short: "Walk a log file checking monotonicity and structure",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, hdr, err := openLog(args[0])
			if err != nil {
				return err
			}
			defer r.Close()

			alloc := queue.NewAllocator()
			hist := queue.NewHistory()
			counts := map[wire.Kind]int{}
			var prev wire.ProgramPoint
			var lastSeen bool
			var count int
			var maxSeen wire.ProgramPoint

			for {
				e, err := r.Next(alloc)
				if err != nil {
					return fmt.Errorf("entry %d: %w", count, err)
				}
				if e == nil {
					break
				}
				p := e.Point()
				if count > 0 && p.GuestInstrCount < prev.GuestInstrCount {
					printHistory(hist)
					return fmt.Errorf("entry %d: program point regressed: %d < %d", count, p.GuestInstrCount, prev.GuestInstrCount)
				}
				if e.Kind() == wire.KindLast {
					lastSeen = true
				} else if lastSeen {
					printHistory(hist)
					return fmt.Errorf("entry %d: %s after a LAST entry", count, e.Kind())
				}
				counts[e.Kind()]++
				prev = p
				if p.GuestInstrCount > maxSeen.GuestInstrCount {
					maxSeen = p
				}
				count++
				hist.Record(e)
				alloc.Put(e)
			}

			if maxSeen.GuestInstrCount > hdr.LastProgPoint.GuestInstrCount {
				return fmt.Errorf("header last_prog_point (%d) understates the highest entry seen (%d)",
					hdr.LastProgPoint.GuestInstrCount, maxSeen.GuestInstrCount)
			}
			if !lastSeen {
				fmt.Println("warning: no terminal LAST entry (log from a session that did not close cleanly)")
			}

			fmt.Printf("%d entries, monotonic, header last_prog_point=%d\n", count, hdr.LastProgPoint.GuestInstrCount)
			for _, k := range []wire.Kind{
				wire.KindInput1, wire.KindInput2, wire.KindInput4, wire.KindInput8,
				wire.KindInterruptRequest, wire.KindExitRequest, wire.KindSkippedCall,
				wire.KindDebug, wire.KindLast,
			} {
				if n := counts[k]; n > 0 {
					fmt.Printf("  %-18s %d\n", k, n)
				}
			}
			return nil
		},
	}
}

// printHistory dumps the entries leading up to a detected violation, the
// same diagnostic window a live divergence would show.
func printHistory(hist *queue.History) {
	recent := hist.Recent()
	if len(recent) == 0 {
		return
	}
	fmt.Println("entries leading up to the violation:")
	for i := range recent {
		fmt.Printf("  %s\n", formatEntry(&recent[i]))
	}
}
