package output

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/jamesainslie/tidy/pkg/tidy/types"
)

// PrettyFormatter renders a colored preview for terminals.
type PrettyFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *PrettyFormatter) Format(w *bytes.Buffer, r *Result) error {
	w.WriteString(f.formatHeader(r))
	w.WriteString("\n")
	w.WriteString(f.formatTable(r))
	w.WriteString(f.formatFooter(r))

	if len(r.Warnings) > 0 {
		w.WriteString("\n")
		w.WriteString(f.formatWarnings(r.Warnings))
	}
	return nil
}

func (f *PrettyFormatter) formatHeader(r *Result) string {
	var lines []string
	lines = append(lines, LabelStyle.Render("Source:")+" "+ValueStyle.Render(r.Source))

	scanned := fmt.Sprintf("%s files (%s)", humanize.Comma(r.Stats.FilesScanned), humanize.IBytes(uint64(max(r.TotalSize(), 0))))
	if r.Stats.Duration > 0 {
		scanned += " in " + r.Stats.Duration.Round(time.Millisecond).String()
	}
	info := LabelStyle.Render("Scanned:") + " " + ValueStyle.Render(scanned)
	if r.Stats.CacheHits > 0 {
		info += "  " + MutedStyle.Render(fmt.Sprintf("%s cached", humanize.Comma(r.Stats.CacheHits)))
	}
	lines = append(lines, info)

	if r.Preview != nil && r.Preview.TemplateUsed != "" {
		lines = append(lines, LabelStyle.Render("Template:")+" "+ValueStyle.Render(r.Preview.TemplateUsed))
	}
	return HeaderBox.Render(strings.Join(lines, "\n"))
}

func (f *PrettyFormatter) formatTable(r *Result) string {
	proposals := r.Proposals()
	if len(proposals) == 0 {
		return MutedStyle.Render("  No files to rename\n")
	}

	statusWidth, nameWidth := len("STATUS"), len("ORIGINAL")
	for _, p := range proposals {
		statusWidth = max(statusWidth, len(p.Status))
		nameWidth = max(nameWidth, lipgloss.Width(p.OriginalName))
	}

	var sb strings.Builder
	sb.WriteString("  ")
	sb.WriteString(TableHeaderStyle.Render(padRight("STATUS", statusWidth)))
	sb.WriteString(TableHeaderStyle.Render(padRight("ORIGINAL", nameWidth+3)))
	sb.WriteString(TableHeaderStyle.Render("PROPOSED"))
	sb.WriteString("\n")

	for _, p := range proposals {
		sb.WriteString("  ")
		sb.WriteString(StatusStyle(p.Status).Render(padRight(string(p.Status), statusWidth)))
		sb.WriteString("  ")
		sb.WriteString(padRight(p.OriginalName, nameWidth))
		sb.WriteString(ArrowStyle.Render(" → "))
		sb.WriteString("  ")
		sb.WriteString(ValueStyle.Render(relTo(r.Source, Target(p))))
		if tag := sourceTag(p); tag != "" {
			sb.WriteString(" ")
			sb.WriteString(MutedStyle.Render(tag))
		}
		sb.WriteString("\n")
		for _, is := range p.Issues {
			if is.Severity == types.SeverityInfo {
				continue
			}
			style := WarningStyle
			if is.Severity == types.SeverityError {
				style = ErrorStyle
			}
			sb.WriteString("      ")
			sb.WriteString(style.Render(is.Code + ": " + is.Message))
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

func sourceTag(p types.RenameProposal) string {
	switch p.TemplateSource {
	case types.SourceRule:
		if p.AppliedRule != nil {
			return "[rule: " + p.AppliedRule.RuleName + "]"
		}
	case types.SourceLLM:
		return "[llm]"
	case types.SourceFallback:
		return "[fallback]"
	}
	return ""
}

func (f *PrettyFormatter) formatFooter(r *Result) string {
	s := r.Summary()
	parts := []string{
		LabelStyle.Render("Files:") + " " + ValueStyle.Render(humanize.Comma(int64(s.Total))),
		SuccessStyle.Render(fmt.Sprintf("%d ready", s.Ready)),
	}
	if s.Conflicts > 0 {
		parts = append(parts, ErrorStyle.Render(fmt.Sprintf("%d conflicts", s.Conflicts)))
	}
	if s.MissingData > 0 {
		parts = append(parts, WarningStyle.Render(fmt.Sprintf("%d missing data", s.MissingData)))
	}
	if s.InvalidName > 0 {
		parts = append(parts, ErrorStyle.Render(fmt.Sprintf("%d invalid", s.InvalidName)))
	}
	if s.NoChange > 0 {
		parts = append(parts, MutedStyle.Render(fmt.Sprintf("%d unchanged", s.NoChange)))
	}
	if s.MoveOperations > 0 {
		parts = append(parts, SizeStyle.Render(fmt.Sprintf("%d moves", s.MoveOperations)))
	}
	if s.LLMSuggested > 0 {
		parts = append(parts, MutedStyle.Render(fmt.Sprintf("%d llm", s.LLMSuggested)))
	}
	return FooterBox.Render(strings.Join(parts, "  "))
}

func (f *PrettyFormatter) formatWarnings(warnings []string) string {
	var sb strings.Builder
	sb.WriteString(WarningStyle.Bold(true).Render("Warnings:"))
	sb.WriteString("\n")
	for _, warning := range warnings {
		sb.WriteString(WarningStyle.Render("  " + warning))
		sb.WriteString("\n")
	}
	return sb.String()
}

func padRight(s string, width int) string {
	if w := lipgloss.Width(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}

func init() {
	Register("pretty", func() Formatter {
		return &PrettyFormatter{}
	})
}

var _ Formatter = (*PrettyFormatter)(nil)
