// Package output renders assignment results for the CLI.
package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/curielabs/elusched/pkg/application/dto"
	"github.com/curielabs/elusched/pkg/domain/entities"
)

// Config selects how a result is rendered.
type Config struct {
	Format  string // "text", "json" or "timeline"
	Verbose bool
}

// Generate writes the result to w in the configured format.
func Generate(w io.Writer, result *dto.AssignmentResult, config Config) error {
	switch config.Format {
	case "", "text":
		return generateText(w, result, config)
	case "json":
		return generateJSON(w, result)
	case "timeline":
		return generateTimeline(w, result)
	default:
		return fmt.Errorf("unsupported output format: %s", config.Format)
	}
}

func generateText(w io.Writer, result *dto.AssignmentResult, config Config) error {
	assigned := 0
	for _, o := range result.Orders {
		if o.Assigned() {
			assigned++
		}
	}
	fmt.Fprintf(w, "Schedule: %d/%d orders assigned\n\n", assigned, len(result.Orders))

	fmt.Fprintf(w, "%-24s %-10s %-8s %-17s %-17s %-14s\n",
		"Order", "Product", "mCi", "Calibration", "Elution", "Generators")
	fmt.Fprintf(w, "%-24s %-10s %-8s %-17s %-17s %-14s\n",
		"------------------------", "----------", "--------", "-----------------", "-----------------", "--------------")

	for _, o := range result.Orders {
		elute := "-"
		gens := "-"
		if o.Assigned() {
			elute = o.AssignedEluteTime.Format("2006-01-02 15:04")
			gens = joinGeneratorIDs(o.AssignedGeneratorIDs)
		}
		fmt.Fprintf(w, "%-24s %-10s %-8.2f %-17s %-17s %-14s\n",
			o.ID,
			o.Product,
			o.RequestedActivityMCi,
			o.CalibrationTime.Format("2006-01-02 15:04"),
			elute,
			gens)
	}
	fmt.Fprintln(w)

	if len(result.Generators) > 0 {
		fmt.Fprintf(w, "%-14s %-10s %-8s %-17s %-10s\n",
			"Generator", "Parent", "Eff %", "Last Eluted", "Wear")
		fmt.Fprintf(w, "%-14s %-10s %-8s %-17s %-10s\n",
			"--------------", "----------", "--------", "-----------------", "----------")
		for _, g := range result.Generators {
			fmt.Fprintf(w, "%-14s %-10.2f %-8.1f %-17s %-10s\n",
				g.ID,
				g.ParentActivityMCi,
				g.EfficiencyPercent,
				g.LastElutedTime.Format("2006-01-02 15:04"),
				g.WearToday.StringFixed(2))
		}
		fmt.Fprintln(w)
	}

	if config.Verbose {
		fmt.Fprintln(w, "Audit:")
		for _, line := range result.Audit {
			fmt.Fprintf(w, "  %s\n", line)
		}
	}
	return nil
}

func generateJSON(w io.Writer, result *dto.AssignmentResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func joinGeneratorIDs(ids []entities.GeneratorID) string {
	out := ""
	for i, id := range ids {
		if i > 0 {
			out += "+"
		}
		out += string(id)
	}
	return out
}
