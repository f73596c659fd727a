package output

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/curielabs/elusched/pkg/application/dto"
	"github.com/curielabs/elusched/pkg/domain/entities"
)

const timelineWidth = 72

type elution struct {
	orderID entities.OrderID
	at      time.Time
}

// generateTimeline draws an ASCII timeline of the day per generator,
// marking each elution against the span of scheduled activity.
func generateTimeline(w io.Writer, result *dto.AssignmentResult) error {
	elutions := make(map[entities.GeneratorID][]elution)
	var earliest, latest time.Time
	for _, o := range result.Orders {
		if !o.Assigned() {
			continue
		}
		at := *o.AssignedEluteTime
		for _, id := range o.AssignedGeneratorIDs {
			elutions[id] = append(elutions[id], elution{orderID: o.ID, at: at})
		}
		if earliest.IsZero() || at.Before(earliest) {
			earliest = at
		}
		if latest.IsZero() || at.After(latest) {
			latest = at
		}
	}
	if len(elutions) == 0 {
		fmt.Fprintln(w, "No assigned orders to draw.")
		return nil
	}

	// Round the window outward to whole hours so the axis labels land
	// on readable marks.
	start := earliest.Truncate(time.Hour)
	end := latest.Truncate(time.Hour).Add(time.Hour)
	span := end.Sub(start)

	ids := make([]entities.GeneratorID, 0, len(elutions))
	for id := range elutions {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	fmt.Fprintf(w, "Elution timeline %s to %s\n\n",
		start.Format("2006-01-02 15:04"), end.Format("15:04"))

	for _, id := range ids {
		row := []rune(strings.Repeat(".", timelineWidth))
		marks := elutions[id]
		sort.Slice(marks, func(i, j int) bool { return marks[i].at.Before(marks[j].at) })
		for _, m := range marks {
			pos := int(float64(timelineWidth-1) * float64(m.at.Sub(start)) / float64(span))
			if row[pos] == '*' {
				row[pos] = '#'
			} else {
				row[pos] = '*'
			}
		}
		fmt.Fprintf(w, "%-14s |%s|\n", id, string(row))
		for _, m := range marks {
			fmt.Fprintf(w, "%-14s   %s  %s\n", "", m.at.Format("15:04"), m.orderID)
		}
	}

	fmt.Fprintf(w, "\n%-14s  %s%s%s\n", "",
		start.Format("15:04"),
		strings.Repeat(" ", timelineWidth-10),
		end.Format("15:04"))
	return nil
}
