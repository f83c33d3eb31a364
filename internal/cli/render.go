package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	accent = lipgloss.Color("#D97706")
	dim    = lipgloss.Color("#6B7280")

	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(accent)
	dimStyle    = lipgloss.NewStyle().Foreground(dim)
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

func renderDevices(customerUUID string, rows []deviceRow) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Devices for " + customerUUID))
	b.WriteString("\n")

	if len(rows) == 0 {
		b.WriteString(dimStyle.Render("no active devices"))
		return b.String()
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers("PLATFORM", "ID", "NAME", "ACTIVE")

	for _, r := range rows {
		t.Row(r.Platform, strconv.FormatUint(uint64(r.ID), 10), r.Name, strconv.FormatBool(r.Active))
	}

	b.WriteString(t.Render())
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("%d device(s)", len(rows))))
	return b.String()
}
