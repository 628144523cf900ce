package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/teemow/mailmeet/internal/meeting"
	"github.com/teemow/mailmeet/internal/scheduling"
)

func printDecision(out io.Writer, d meeting.Decision) {
	verdict := "no"
	if d.IsMeetingRequest {
		verdict = "yes"
		if d.Corroborated {
			verdict = "yes (several weak signals)"
		}
	}
	fmt.Fprintf(out, "Meeting request: %s\n", verdict)
	if d.Signals != 0 {
		fmt.Fprintf(out, "Signals: %s\n", d.Signals)
	}

	for i, h := range d.Hints {
		fmt.Fprintf(out, "  %d. %-30q %.2f", i+1, h.Span, h.Confidence)
		if h.Date != nil {
			fmt.Fprintf(out, "  %s", h.Date)
		} else if h.Weekday != nil {
			fmt.Fprintf(out, "  %s", h.Weekday)
		}
		if h.Time != nil {
			fmt.Fprintf(out, " %02d:%02d", h.Time.Hour, h.Time.Minute)
		}
		fmt.Fprintln(out)
	}
}

func printSlots(out io.Writer, slots []meeting.SlotCandidate) {
	if len(slots) == 0 {
		fmt.Fprintln(out, "No free slots.")
		return
	}
	for i, slot := range slots {
		fmt.Fprintf(out, "  %d. %s\n", i+1, slot)
	}
}

func printProposal(out io.Writer, p *scheduling.Proposal) {
	if p.ThreadID != "" {
		fmt.Fprintf(out, "Thread %s: %s\n", p.ThreadID, p.Subject)
	}
	if !p.IsMeetingRequest() {
		fmt.Fprintln(out, "No meeting request detected.")
		return
	}
	if best, ok := p.Decision.Best(); ok {
		fmt.Fprintf(out, "Meeting request: %q\n", best.Span)
	}
	if len(p.Slots) == 0 {
		fmt.Fprintln(out, "No free slots.")
		return
	}
	for i, slot := range p.Slots {
		mark := ""
		if slot.Requested {
			mark = " [requested]"
		}
		fmt.Fprintf(out, "  %d. %s%s  %s\n", i+1, slot.SlotCandidate, mark, slot.Start.Format(time.RFC3339))
	}
}
