package cmd

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/popsim-lab/popsim/sim"
	"github.com/popsim-lab/popsim/sim/trace"
)

// printReport renders the end-of-run tables.
func printReport(w io.Writer, res *runResult) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle(fmt.Sprintf("RUN %s - GENERATION %d", res.RunID, res.Population.Generation))
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Subpop", "Size", "Sex ratio", "Total", "Mean", "StdDev", "Min", "Max"})

	for _, sp := range res.Population.Subpopulations() {
		row := table.Row{fmt.Sprintf("p%d", sp.ID()), sp.IndividualCount(), "-"}
		if sp.SexEnabled() {
			row[2] = fmt.Sprintf("%.3f", sp.SexRatio())
		}
		if w, err := sp.CachedFitness(); err == nil {
			s := sim.SummarizeFitness(w)
			row = append(row,
				fmt.Sprintf("%.4f", s.Total),
				fmt.Sprintf("%.4f", s.Mean),
				fmt.Sprintf("%.4f", s.StdDev),
				fmt.Sprintf("%.4f", s.Min),
				fmt.Sprintf("%.4f", s.Max))
		} else {
			row = append(row, "n/a", "n/a", "n/a", "n/a", "n/a")
		}
		t.AppendRow(row)
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft},
		{Number: 2, Align: text.AlignRight},
	})
	t.Render()

	if res.Trace.Enabled() {
		printTraceSummary(w, trace.Summarize(res.Trace))
	}
	if len(res.Samples) > 0 {
		printSamples(w, res.Samples)
	}
}

func printTraceSummary(w io.Writer, s *trace.TraceSummary) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("FITNESS PASSES")
	t.SetStyle(table.StyleRounded)
	t.AppendRows([]table.Row{
		{"Passes", s.TotalPasses},
		{"Callback invocations", s.CallbackInvocations},
		{"Mean of pass means", fmt.Sprintf("%.4f", s.MeanFitness)},
		{"Lowest pass mean", fmt.Sprintf("%.4f", s.MinMeanFitness)},
		{"Highest pass mean", fmt.Sprintf("%.4f", s.MaxMeanFitness)},
		{"Generation swaps", s.TotalSwaps},
		{"Child regenerations", s.Regenerations},
	})
	t.AppendSeparator()
	variants := make([]string, 0, len(s.PassesByVariant))
	for v := range s.PassesByVariant {
		variants = append(variants, v)
	}
	sort.Strings(variants)
	for _, v := range variants {
		t.AppendRow(table.Row{"Variant " + v, s.PassesByVariant[v]})
	}
	t.Render()
}

func printSamples(w io.Writer, samples map[int64][]sampledIndividual) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("SAMPLES")
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Generation", "Subpop", "Index", "Sex", "Point", "Extension"})
	gens := make([]int64, 0, len(samples))
	for g := range samples {
		gens = append(gens, g)
	}
	sort.Slice(gens, func(i, j int) bool { return gens[i] < gens[j] })
	for _, g := range gens {
		for _, rec := range samples[g] {
			t.AppendRow(table.Row{g, fmt.Sprintf("p%d", rec.Subpop), rec.Individual.Index(),
				rec.Individual.Sex().String(), formatPoint(rec.Point), rec.Individual.Ext.Serialization()})
		}
	}
	t.Render()
}

func formatPoint(p []float64) string {
	if len(p) == 0 {
		return "-"
	}
	parts := make([]string, len(p))
	for i, x := range p {
		parts[i] = strconv.FormatFloat(x, 'f', 3, 64)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
