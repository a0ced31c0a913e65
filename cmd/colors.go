package cmd

import (
	"github.com/fatih/color"
)

var (
	colorSuccess = color.New(color.FgGreen).SprintFunc()
	colorInfo    = color.New(color.FgCyan).SprintFunc()
	colorWarn    = color.New(color.FgYellow).SprintFunc()
	colorError   = color.New(color.FgRed).SprintFunc()
	colorTitle   = color.New(color.FgBlue, color.Bold).SprintFunc()
)

func formatState(success bool, label string) string {
	if success {
		return colorSuccess(label)
	}
	return colorError(label)
}

func formatGrade(letter string) string {
	switch letter {
	case "A+", "A":
		return colorSuccess(letter)
	case "B", "C":
		return colorWarn(letter)
	default:
		return colorError(letter)
	}
}
