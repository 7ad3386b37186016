package cli

import (
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// table renders borderless left-aligned listings for the inspection commands.
type table struct {
	t      *tablewriter.Table
	header []string
	rows   [][]string
}

func newTable(w io.Writer, header []string) *table {
	t := tablewriter.NewTable(w,
		tablewriter.WithConfig(tablewriter.Config{
			Row: tw.CellConfig{
				Formatting: tw.CellFormatting{
					AutoWrap: tw.WrapNone,
				},
				Alignment: tw.CellAlignment{
					Global: tw.AlignLeft,
				},
			},
			Header: tw.CellConfig{
				Formatting: tw.CellFormatting{
					AutoFormat: tw.On,
				},
				Alignment: tw.CellAlignment{
					Global: tw.AlignLeft,
				},
			},
		}),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.BorderNone,
			Settings: tw.Settings{
				Separators: tw.Separators{
					ShowHeader: tw.Off,
				},
			},
		}),
	)

	return &table{t: t, header: header}
}

func (t *table) Append(row []string) {
	t.rows = append(t.rows, row)
}

func (t *table) Render() {
	t.t.Header(t.header)
	t.t.Bulk(t.rows)
	t.t.Render()
}
