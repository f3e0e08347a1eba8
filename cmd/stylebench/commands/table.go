package commands

import (
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/RyanBlaney/sonido-estilo/evaluation"
)

var (
	tableBorder   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6e7681"))
	tableHeader   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00ff9f")).Padding(0, 1)
	tableCell     = lipgloss.NewStyle().Padding(0, 1).Align(lipgloss.Right)
	tableDiagonal = tableCell.Bold(true).Foreground(lipgloss.Color("#00ff9f"))
	tableRowLabel = lipgloss.NewStyle().Bold(true).Padding(0, 1)
)

// renderConfusionTable draws truth labels as rows and predictions as
// columns, highlighting the diagonal
func renderConfusionTable(cm *evaluation.ConfusionMatrix) string {
	labels := cm.Labels()

	headers := make([]string, 0, len(labels)+1)
	headers = append(headers, "truth \\ predicted")
	for _, l := range labels {
		headers = append(headers, string(l))
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(tableBorder).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return tableHeader
			case col == 0:
				return tableRowLabel
			case row == col-1:
				return tableDiagonal
			default:
				return tableCell
			}
		})

	for _, truth := range labels {
		cells := make([]string, 0, len(labels)+1)
		cells = append(cells, string(truth))
		for _, predicted := range labels {
			cells = append(cells, strconv.Itoa(cm.Count(truth, predicted)))
		}
		t.Row(cells...)
	}

	return t.String()
}
