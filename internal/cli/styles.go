// Package cli renders ledgerly's terminal output with lipgloss.
package cli

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

// Money moving in is drawn in creditColor, money moving out in debitColor.
var (
	accentColor  = lipgloss.Color("#5B8DEF")
	creditColor  = lipgloss.Color("#4ECDC4")
	debitColor   = lipgloss.Color("#FF6B6B")
	cautionColor = lipgloss.Color("#FFE66D")
	noteColor    = lipgloss.Color("#95E1D3")
	mutedColor   = lipgloss.Color("#666666")
)

var (
	// TitleStyle heads reports and listings.
	TitleStyle   = lipgloss.NewStyle().Bold(true).Foreground(accentColor).MarginBottom(1)
	// SuccessStyle marks completed writes and positive amounts.
	SuccessStyle = lipgloss.NewStyle().Foreground(creditColor)
	// ErrorStyle marks negative amounts.
	ErrorStyle   = lipgloss.NewStyle().Foreground(debitColor)
	// WarningStyle marks drift and destructive confirmations.
	WarningStyle = lipgloss.NewStyle().Foreground(cautionColor)
	// InfoStyle marks hints.
	InfoStyle    = lipgloss.NewStyle().Foreground(noteColor)
	// SubtleStyle is for ids, dates and other secondary columns.
	SubtleStyle  = lipgloss.NewStyle().Foreground(mutedColor)
	// BoldStyle emphasizes totals and group headers.
	BoldStyle    = lipgloss.NewStyle().Bold(true)

	boxStyle    = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(mutedColor).
			Padding(1, 2)
	promptStyle = lipgloss.NewStyle().Bold(true).Foreground(accentColor)
)

// Icons.
const (
	SuccessIcon = "✓"
	WarningIcon = "⚠️"
	InfoIcon    = "ℹ️"
	LedgerIcon  = "📒"
	ChartIcon   = "📊"
)

// FormatSuccess reports a completed write.
func FormatSuccess(message string) string {
	return SuccessStyle.Render(SuccessIcon + " " + message)
}

// FormatWarning formats a warning message with icon.
func FormatWarning(message string) string {
	return WarningStyle.Render(WarningIcon + " " + message)
}

// FormatInfo formats an info message with icon.
func FormatInfo(message string) string {
	return InfoStyle.Render(InfoIcon + " " + message)
}

// FormatTitle formats a title with the ledger icon.
func FormatTitle(title string) string {
	return TitleStyle.Render(LedgerIcon + " " + title)
}

// FormatPrompt formats a question that waits for input.
func FormatPrompt(prompt string) string {
	return promptStyle.Render(prompt + " → ")
}

// FormatSigned renders text in the credit color when amount is positive
// and the debit color when it is negative. Zero stays unstyled.
func FormatSigned(amount decimal.Decimal, text string) string {
	switch amount.Sign() {
	case 1:
		return SuccessStyle.Render(text)
	case -1:
		return ErrorStyle.Render(text)
	default:
		return text
	}
}

// RenderBox draws a titled, bordered panel such as the period summary.
func RenderBox(title, content string) string {
	heading := TitleStyle.UnsetMargins().Render(title)
	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, heading, content))
}
