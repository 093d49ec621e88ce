package timing

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"
)

// Row summarises every recorded execution of one call.
type Row struct {
	Call     string
	Count    int
	Cycles   uint64
	Total    time.Duration
	Mean     time.Duration
	P50, P95 time.Duration
	Max      time.Duration
}

// Print writes rows as an aligned table.
func Print(w io.Writer, rows []Row) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CALL\tCOUNT\tCYCLES\tTOTAL\tMEAN\tP50\tP95\tMAX")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%s\t%s\t%s\t%s\n", r.Call, r.Count, r.Cycles, r.Total, r.Mean, r.P50, r.P95, r.Max)
	}
	return tw.Flush()
}
