package render

import (
	"fmt"
	"strings"

	"github.com/kavmehta/chatlens/internal/parse"
	"github.com/kavmehta/chatlens/internal/stats"
	"github.com/mattn/go-runewidth"
)

const systemSender = parse.SystemSender

const barColor = "\033[36m" // cyan

// Bars renders timeline points as a horizontal bar chart scaled to width
// columns. Labels are right-padded to align the bars.
func Bars(points []stats.TimelinePoint, width int) string {
	if len(points) == 0 {
		return colorDim + "(no data)" + colorReset + "\n"
	}

	labelW := 0
	max := 0
	for _, p := range points {
		if w := runewidth.StringWidth(p.Label); w > labelW {
			labelW = w
		}
		if p.Count > max {
			max = p.Count
		}
	}
	if max == 0 {
		max = 1
	}

	countW := len(fmt.Sprintf("%d", max))
	barW := width - labelW - countW - 4
	if barW < 10 {
		barW = 10
	}

	var b strings.Builder
	for _, p := range points {
		n := p.Count * barW / max
		if p.Count > 0 && n == 0 {
			n = 1
		}
		fmt.Fprintf(&b, "%s  %s%s%s %*d\n",
			runewidth.FillRight(p.Label, labelW),
			barColor, strings.Repeat("█", n), colorReset,
			countW, p.Count,
		)
	}
	return b.String()
}
