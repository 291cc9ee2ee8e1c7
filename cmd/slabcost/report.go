package main

import (
	"io"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/piwi3910/SlabCost/internal/engine"
	"github.com/piwi3910/SlabCost/internal/model"
	"github.com/piwi3910/SlabCost/internal/slat"
)

// Reports are printed in Brazilian Portuguese number format (1.234,56).
var printer = message.NewPrinter(language.BrazilianPortuguese)

func money(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

func printQuote(w io.Writer, q engine.Quote) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	printer.Fprintf(tw, "PEÇAS\tQTD\tCOMPR. mm\tLARG. mm\tÁREA m²\tFITA m\tMATERIAL\n")
	for _, p := range q.Pieces {
		printer.Fprintf(tw, "%s\t%d\t%.1f\t%.1f\t%.3f\t%.2f\t%s\n",
			p.Name, p.Quantity, p.LengthMm, p.WidthMm, p.AreaM2, p.EdgeBandingMeters, p.MaterialID)
	}

	printer.Fprintf(tw, "\nMATERIAL\tÁREA m²\tCHAPAS\tPERDA %%\tFITA m\tCUSTO R$\n")
	for _, m := range q.Summary.Materials {
		printer.Fprintf(tw, "%s\t%.3f\t%d\t%.1f\t%.2f\t%.2f\n",
			m.Name, m.AreaM2, m.Sheets, m.WastePercent, m.EdgeBandingWithWasteM,
			money(m.Cost.Add(m.EdgeBandingCost)))
	}

	if len(q.Hardware) > 0 {
		printer.Fprintf(tw, "\nFERRAGEM\tQTD\tUNIT. R$\tCUSTO R$\n")
		for _, h := range q.Hardware {
			printer.Fprintf(tw, "%s\t%.0f\t%.2f\t%.2f\n", h.Name, h.Quantity, money(h.UnitPrice), money(h.Cost))
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	printer.Fprintf(w, "\nÁrea total: %.3f m²\n", q.TotalAreaM2)
	printer.Fprintf(w, "Fita de borda: %.2f m\n", q.TotalEdgeBandingM)
	printer.Fprintf(w, "Custo bruto: R$ %.2f\n", money(q.RawCost))
	printer.Fprintf(w, "Dificuldade: %.2f\n", q.DifficultyCoefficient)
	printer.Fprintf(w, "Preço: R$ %.2f\n", money(q.Price))
	printIssues(w, q.Issues)
	return nil
}

func printLayout(w io.Writer, r slat.Result) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	printer.Fprintf(tw, "EIXO\tRIPAS\tCOMPR. mm\tMETROS\tMARGEM mm\tPOR CHAPA\tCHAPAS\tCUSTO R$\n")
	axes := []struct {
		name string
		ax   *slat.AxisResult
	}{{"vertical", &r.Vertical}, {"horizontal", r.Horizontal}}
	for _, a := range axes {
		if a.ax == nil {
			continue
		}
		printer.Fprintf(tw, "%s\t%d\t%.1f\t%.2f\t%.1f\t%d\t%d\t%.2f\n", a.name,
			a.ax.Count, a.ax.SlatLengthMm, a.ax.LinearM, a.ax.MarginMm, a.ax.SlatsPerSheet, a.ax.Sheets, money(a.ax.Cost))
	}
	if r.Backing != nil {
		printer.Fprintf(tw, "fundo\t\t\t\t\t\t%d\t%.2f\n", r.Backing.Sheets, money(r.Backing.Cost))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	printer.Fprintf(w, "\nÁrea do painel: %.3f m²\n", r.PanelAreaM2)
	printer.Fprintf(w, "Cobertura: %.1f%% (vazado %.1f%%)\n", r.CoveragePercent, r.VoidPercent)
	printer.Fprintf(w, "Custo: R$ %.2f\n", money(r.TotalCost))
	printIssues(w, r.Issues)
	return nil
}

func printIssues(w io.Writer, issues []model.Issue) {
	if len(issues) == 0 {
		return
	}
	printer.Fprintf(w, "\nAvisos:\n")
	for _, is := range issues {
		printer.Fprintf(w, "  - %s\n", is.String())
	}
}
