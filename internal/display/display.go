// Package display renders a completed session to the terminal: one ticker
// report at a time, then the session summary. Plain formatted text, not a
// live-updating panel — there is no in-progress view to refresh since the
// orchestrator runs a session to completion before anything is shown.
package display

import (
	"fmt"
	"strings"
	"time"

	"github.com/hanriver/tradepilot/internal/models"
)

// ReportDisplay renders one ticker's agent-pipeline report.
type ReportDisplay struct {
	ticker models.Ticker
}

func NewReportDisplay(ticker models.Ticker) *ReportDisplay {
	return &ReportDisplay{ticker: ticker}
}

func (d *ReportDisplay) Show(report models.Report) {
	d.showHeader()
	for _, id := range models.SectionOrder {
		section, ok := report.Sections[id]
		if !ok {
			continue
		}
		d.showSection(string(id), section)
	}
	d.showSummary(report)
	d.showFooter()
}

func (d *ReportDisplay) showHeader() {
	fmt.Println()
	fmt.Println(strings.Repeat("=", 79))
	fmt.Printf("report for %s\n", d.ticker)
	fmt.Println(strings.Repeat("=", 79))
}

func (d *ReportDisplay) showSection(title string, section models.SectionOutput) {
	fmt.Printf("\n[%s]", title)
	if section.Failed {
		fmt.Printf(" (degraded: %s)", section.Err)
	}
	fmt.Println()
	displayWrapped(section.Content, "  ")
}

func (d *ReportDisplay) showSummary(report models.Report) {
	if report.Summary == "" {
		return
	}
	fmt.Println("\n[summary]")
	displayWrapped(report.Summary, "  ")
}

func (d *ReportDisplay) showFooter() {
	fmt.Println(strings.Repeat("-", 79))
	fmt.Printf("generated at %s\n\n", time.Now().Format("2006-01-02 15:04:05"))
}

// ShowSessionSummary renders a completed session's trigger hits, tickers
// analyzed, and their buy/sell/skip outcomes.
func ShowSessionSummary(summary models.SessionSummary) {
	if summary.NoOp {
		fmt.Printf("%s/%s: not a trading day, no-op\n", summary.Realm, summary.Mode)
		return
	}
	fmt.Println(strings.Repeat("=", 79))
	fmt.Printf("session %s/%s on %s\n", summary.Realm, summary.Mode, summary.TradingDay)
	fmt.Println(strings.Repeat("=", 79))
	fmt.Printf("selected: %d tickers\n", len(summary.Selected))
	for _, res := range summary.Results {
		fmt.Printf("  %-12s %-10s %s\n", res.Ticker, res.Outcome, res.Reason)
	}
	if len(summary.Errors) > 0 {
		fmt.Println("errors:")
		for _, e := range summary.Errors {
			fmt.Printf("  - %s\n", e)
		}
	}
	fmt.Printf("elapsed: %s\n", summary.FinishedAt.Sub(summary.StartedAt))
}

func displayWrapped(text, indent string) {
	const maxWidth = 75
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			fmt.Println()
			continue
		}
		line := indent + words[0]
		for _, w := range words[1:] {
			if len(line)+1+len(w) > maxWidth {
				fmt.Println(line)
				line = indent + w
			} else {
				line += " " + w
			}
		}
		fmt.Println(line)
	}
}

func DisplayError(err error, context string) {
	fmt.Printf("error in %s: %v\n", context, err)
}

func DisplayWarning(message string) {
	fmt.Printf("warning: %s\n", message)
}

func DisplaySuccess(message string) {
	fmt.Println(message)
}

func DisplayInfo(message string) {
	fmt.Println(message)
}
