package output

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/jamesainslie/tidy/pkg/tidy/types"
)

// Colors from the ANSI 256-color palette.
const (
	ColorPrimary = lipgloss.Color("39")
	ColorSuccess = lipgloss.Color("42")
	ColorWarning = lipgloss.Color("214")
	ColorDanger  = lipgloss.Color("196")
	ColorMuted   = lipgloss.Color("245")
)

// Box styles.
var (
	HeaderBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorPrimary).
			Padding(0, 1).
			MarginBottom(1)

	FooterBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorMuted).
			Padding(0, 1).
			MarginTop(1)
)

// Text styles.
var (
	LabelStyle   = lipgloss.NewStyle().Foreground(ColorMuted)
	ValueStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	SuccessStyle = lipgloss.NewStyle().Foreground(ColorSuccess)
	WarningStyle = lipgloss.NewStyle().Foreground(ColorWarning)
	ErrorStyle   = lipgloss.NewStyle().Foreground(ColorDanger)
	MutedStyle   = lipgloss.NewStyle().Foreground(ColorMuted)
	SizeStyle    = lipgloss.NewStyle().Foreground(ColorPrimary).Bold(true)
	ArrowStyle   = lipgloss.NewStyle().Foreground(ColorPrimary)

	TableHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(ColorMuted).
				PaddingRight(2)
)

// StatusStyle picks the style for a proposal status.
func StatusStyle(s types.ProposalStatus) lipgloss.Style {
	switch s {
	case types.StatusReady:
		return SuccessStyle
	case types.StatusMissingData:
		return WarningStyle
	case types.StatusConflict, types.StatusInvalidName:
		return ErrorStyle
	default:
		return MutedStyle
	}
}
