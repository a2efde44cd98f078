package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ehrlich-b/go-ndlog/internal/queue"
	"github.com/ehrlich-b/go-ndlog/internal/wire"
)

func newDumpCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "dump <log-file>",
		Short: "Print every entry in the log, one per line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, _, err := openLog(args[0])
			if err != nil {
				return err
			}
			defer r.Close()

			alloc := queue.NewAllocator()
			n := 0
			for limit <= 0 || n < limit {
				e, err := r.Next(alloc)
				if err != nil {
					return err
				}
				if e == nil {
					break
				}
				fmt.Println(formatEntry(e))
				alloc.Put(e)
				n++
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "stop after this many entries (0 = all)")
	return cmd
}

func formatEntry(e *queue.Entry) string {
	p := e.Point()
	prefix := fmt.Sprintf("[%09d] %-18s cs=%-14s file_pos=%d", p.GuestInstrCount, e.Kind(), e.Header.Callsite, e.FilePos)

	switch e.Kind() {
	case wire.KindInput1, wire.KindInput2, wire.KindInput4, wire.KindInput8:
		in := e.Variant.(wire.Input)
		return fmt.Sprintf("%s value=0x%x", prefix, in.Value)
	case wire.KindInterruptRequest:
		ir := e.Variant.(wire.InterruptRequest)
		return fmt.Sprintf("%s value=0x%x", prefix, ir.Value)
	case wire.KindExitRequest:
		er := e.Variant.(wire.ExitRequest)
		return fmt.Sprintf("%s code=%d", prefix, er.Code)
	case wire.KindSkippedCall:
		return fmt.Sprintf("%s sub=%s %s", prefix, e.SkippedKind, formatSkippedVariant(e))
	default:
		return prefix
	}
}

func formatSkippedVariant(e *queue.Entry) string {
	switch e.SkippedKind {
	case wire.SkippedCPUMemRW:
		c := e.Variant.(wire.CPUMemRW)
		return fmt.Sprintf("addr=0x%x len=%d", c.Addr, c.Length)
	case wire.SkippedCPUMemUnmap:
		c := e.Variant.(wire.CPUMemUnmap)
		return fmt.Sprintf("addr=0x%x len=%d", c.Addr, c.Length)
	case wire.SkippedMemRegionChange:
		m := e.Variant.(wire.MemRegionChange)
		added := "removed"
		if m.Added != 0 {
			added = "added"
		}
		return fmt.Sprintf("start=0x%x size=%d type=%d %s name=%q", m.Start, m.Size, m.MemType, added, string(e.Buf))
	case wire.SkippedHDTransfer, wire.SkippedNetTransfer:
		tr := e.Variant.(wire.Transfer)
		return fmt.Sprintf("type=%d src=0x%x dest=0x%x bytes=%d", tr.TransferType, tr.Src, tr.Dest, tr.Bytes)
	case wire.SkippedHandlePacket:
		h := e.Variant.(wire.HandlePacket)
		return fmt.Sprintf("dir=%d size=%d", h.Direction, h.Size)
	default:
		return ""
	}
}
