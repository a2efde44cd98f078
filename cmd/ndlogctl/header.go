package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newHeaderCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "header <log-file>",
		Short: "Print the log file's header",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, hdr, err := openLog(args[0])
			if err != nil {
				return err
			}
			defer r.Close()

			fmt.Printf("last_prog_point: guest_instr_count=%d pc=0x%x secondary=%d\n",
				hdr.LastProgPoint.GuestInstrCount, hdr.LastProgPoint.PC, hdr.LastProgPoint.Secondary)
			return nil
		},
	}
}
