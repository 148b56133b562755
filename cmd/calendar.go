package cmd

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"attendance-backend/calendar"
)

func newCalendarCmd() *cobra.Command {
	var from, to string
	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Count instructional days in a date range",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := calendar.ParseDate(from)
			if err != nil {
				return errors.Wrap(err, "--from")
			}
			t, err := calendar.ParseDate(to)
			if err != nil {
				return errors.Wrap(err, "--to")
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			n, err := cfg.Calendar.CountInstructionalDays(f, t)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), n)
			return err
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "first day, YYYY-MM-DD")
	cmd.Flags().StringVar(&to, "to", "", "last day, YYYY-MM-DD")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}
