package main

import (
	"fmt"
	"io"
	"strings"

	"trend-finder-be/internal/entity"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

func scoreColor(score entity.SentimentScore) *color.Color {
	switch score {
	case entity.SentimentPositive:
		return color.New(color.FgGreen, color.Bold)
	case entity.SentimentNegative:
		return color.New(color.FgRed, color.Bold)
	}
	return color.New(color.FgYellow, color.Bold)
}

func renderSentiment(d entity.SentimentDetails) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Sentiment", "Share"})
	tw.AppendRow(table.Row{color.GreenString("positive"), fmt.Sprintf("%.0f%%", d.PositivePercentage)})
	tw.AppendRow(table.Row{color.RedString("negative"), fmt.Sprintf("%.0f%%", d.NegativePercentage)})
	tw.AppendRow(table.Row{color.YellowString("neutral"), fmt.Sprintf("%.0f%%", d.NeutralPercentage)})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}

func printResult(w io.Writer, r *entity.AnalysisResult) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, color.New(color.Bold).Sprint("Summary"))
	fmt.Fprintln(w, r.Summary)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Overall: %s\n", scoreColor(r.Sentiment.Score).Sprint(r.Sentiment.Score))
	fmt.Fprintln(w, renderSentiment(r.Sentiment.Details))

	if len(r.Sentiment.ExampleQuotes) > 0 {
		fmt.Fprintln(w, color.New(color.Bold).Sprint("Voices"))
		for _, q := range r.Sentiment.ExampleQuotes {
			fmt.Fprintf(w, "  \"%s\"\n", q)
		}
	}

	if len(r.RelatedKeywords) > 0 {
		fmt.Fprintf(w, "\n%s %s\n", color.New(color.Bold).Sprint("Related:"), color.CyanString(strings.Join(r.RelatedKeywords, ", ")))
	}

	sources := 0
	for _, src := range r.Sources {
		if src.Web == nil {
			continue
		}
		if sources == 0 {
			fmt.Fprintln(w, color.New(color.Bold).Sprint("\nSources"))
		}
		sources++
		title := src.Web.Title
		if title == "" {
			title = src.Web.URI
		}
		fmt.Fprintf(w, "  %d. %s %s\n", sources, title, color.HiBlackString(src.Web.URI))
	}
}
