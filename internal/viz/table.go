package viz

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"pdcoea/internal/model"
	"pdcoea/internal/stats"
)

// WriteHeatmapTable prints the sweep means as an aligned table with one row
// per population size and one column per chi value.
func WriteHeatmapTable(w io.Writer, sweep model.SweepRecord) error {
	means := stats.HeatmapMeans(sweep)

	header := make([]string, 0, len(sweep.Chis)+1)
	header = append(header, "size\\chi")
	for _, chi := range sweep.Chis {
		header = append(header, strconv.FormatFloat(chi, 'g', 3, 64))
	}
	rows := [][]string{header}
	for i, size := range sweep.PopulationSizes {
		row := make([]string, 0, len(sweep.Chis)+1)
		row = append(row, strconv.Itoa(size))
		for _, v := range means[i] {
			row = append(row, humanize.Comma(int64(math.Round(v))))
		}
		rows = append(rows, row)
	}

	widths := make([]int, len(header))
	for _, row := range rows {
		for j, cell := range row {
			widths[j] = max(widths[j], len(cell))
		}
	}

	var b strings.Builder
	for _, row := range rows {
		for j, cell := range row {
			if j > 0 {
				b.WriteString("  ")
			}
			fmt.Fprintf(&b, "%*s", widths[j], cell)
		}
		b.WriteByte('\n')
	}
	_, err := io.WriteString(w, b.String())
	return err
}
