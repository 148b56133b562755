package cmd

import (
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"attendance-backend/calendar"
	"attendance-backend/models"
	"attendance-backend/report"
)

type reportOptions struct {
	department string
	year       int
	from       string
	to         string
	format     string
	out        string
}

func newReportCmd() *cobra.Command {
	var o reportOptions
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Export an attendance report as CSV or XLSX",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(cmd, o)
		},
	}
	f := cmd.Flags()
	f.StringVar(&o.department, "department", "", "department code, empty for all")
	f.IntVar(&o.year, "year", 0, "year of study 1-4, 0 for all")
	f.StringVar(&o.from, "from", "", "first day, YYYY-MM-DD")
	f.StringVar(&o.to, "to", "", "last day, YYYY-MM-DD")
	f.StringVar(&o.format, "format", "csv", "csv or xlsx")
	f.StringVarP(&o.out, "out", "o", "", "output file, defaults to a generated name; - for stdout")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func runReport(cmd *cobra.Command, o reportOptions) error {
	o.format = strings.ToLower(o.format)
	if o.format != "csv" && o.format != "xlsx" {
		return errors.Errorf("--format must be csv or xlsx, got %q", o.format)
	}
	if o.year < 0 || o.year > 4 {
		return errors.Errorf("--year must be between 0 and 4, got %d", o.year)
	}
	from, err := calendar.ParseDate(o.from)
	if err != nil {
		return errors.Wrap(err, "--from")
	}
	to, err := calendar.ParseDate(o.to)
	if err != nil {
		return errors.Wrap(err, "--to")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	be, err := openBackend(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer be.close()

	s, err := report.NewBuilder(be.records, cfg.Calendar).Summarize(cmd.Context(), models.RecordFilter{
		Department: o.department,
		Year:       o.year,
		From:       from,
		To:         to,
	})
	if err != nil {
		return err
	}

	var w io.Writer = cmd.OutOrStdout()
	if o.out != "-" {
		name := o.out
		if name == "" {
			name = report.Filename(s, o.format)
		}
		file, err := os.Create(name)
		if err != nil {
			return errors.Wrap(err, "create report file")
		}
		defer file.Close()
		w = file
		defer cmd.PrintErrf("wrote %d rows to %s\n", len(s.Rows), name)
	}

	if o.format == "xlsx" {
		return report.WriteXLSX(w, s)
	}
	return report.WriteCSV(w, s)
}
