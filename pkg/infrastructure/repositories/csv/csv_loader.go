// Package csv loads the scheduling dataset from CSV files, for
// spreadsheet-driven seeding of a fresh installation.
package csv

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/curielabs/elusched/pkg/domain/entities"
)

// Loader reads generators, hospitals and orders from CSV files.
type Loader struct{}

func NewLoader() *Loader {
	return &Loader{}
}

// LoadGenerators loads generators from a CSV file.
//
// Columns: id, parent_activity_mci, efficiency_percent,
// calibration_time, last_eluted_time. Times are RFC 3339;
// last_eluted_time may be empty for a never-used generator.
func (l *Loader) LoadGenerators(filename string) ([]*entities.Generator, error) {
	records, err := readAll(filename)
	if err != nil {
		return nil, fmt.Errorf("while reading generators CSV: %w", err)
	}
	expected := []string{"id", "parent_activity_mci", "efficiency_percent", "calibration_time", "last_eluted_time"}
	if err := validateHeader(records[0], expected); err != nil {
		return nil, fmt.Errorf("generators CSV: %w", err)
	}

	var gens []*entities.Generator
	for i, record := range records[1:] {
		if len(record) != len(expected) {
			return nil, fmt.Errorf("generators CSV row %d: expected %d columns, got %d", i+2, len(expected), len(record))
		}
		g, err := parseGenerator(record)
		if err != nil {
			return nil, fmt.Errorf("generators CSV row %d: %w", i+2, err)
		}
		gens = append(gens, g)
	}
	return gens, nil
}

// LoadHospitals loads hospitals from a CSV file.
//
// Columns: id, name, travel_minutes.
func (l *Loader) LoadHospitals(filename string) ([]*entities.Hospital, error) {
	records, err := readAll(filename)
	if err != nil {
		return nil, fmt.Errorf("while reading hospitals CSV: %w", err)
	}
	expected := []string{"id", "name", "travel_minutes"}
	if err := validateHeader(records[0], expected); err != nil {
		return nil, fmt.Errorf("hospitals CSV: %w", err)
	}

	var hospitals []*entities.Hospital
	for i, record := range records[1:] {
		if len(record) != len(expected) {
			return nil, fmt.Errorf("hospitals CSV row %d: expected %d columns, got %d", i+2, len(expected), len(record))
		}
		h, err := parseHospital(record)
		if err != nil {
			return nil, fmt.Errorf("hospitals CSV row %d: %w", i+2, err)
		}
		hospitals = append(hospitals, h)
	}
	return hospitals, nil
}

// LoadOrders loads orders from a CSV file.
//
// Columns: id, hospital_id, product, requested_activity_mci,
// calibration_time, prep_minutes, travel_minutes.
func (l *Loader) LoadOrders(filename string) ([]*entities.Order, error) {
	records, err := readAll(filename)
	if err != nil {
		return nil, fmt.Errorf("while reading orders CSV: %w", err)
	}
	expected := []string{"id", "hospital_id", "product", "requested_activity_mci", "calibration_time", "prep_minutes", "travel_minutes"}
	if err := validateHeader(records[0], expected); err != nil {
		return nil, fmt.Errorf("orders CSV: %w", err)
	}

	var orders []*entities.Order
	for i, record := range records[1:] {
		if len(record) != len(expected) {
			return nil, fmt.Errorf("orders CSV row %d: expected %d columns, got %d", i+2, len(expected), len(record))
		}
		o, err := parseOrder(record)
		if err != nil {
			return nil, fmt.Errorf("orders CSV row %d: %w", i+2, err)
		}
		orders = append(orders, o)
	}
	return orders, nil
}

func readAll(filename string) ([][]string, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("while opening %s: %w", filename, err)
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("file must have a header and at least one data row")
	}
	return records, nil
}

func validateHeader(header, expected []string) error {
	if len(header) != len(expected) {
		return fmt.Errorf("header mismatch: expected %v, got %v", expected, header)
	}
	for i, col := range expected {
		if strings.TrimSpace(strings.ToLower(header[i])) != col {
			return fmt.Errorf("header mismatch: expected %v, got %v", expected, header)
		}
	}
	return nil
}

func parseGenerator(record []string) (*entities.Generator, error) {
	parent, err := strconv.ParseFloat(strings.TrimSpace(record[1]), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid parent_activity_mci %q: %w", record[1], err)
	}
	efficiency, err := strconv.ParseFloat(strings.TrimSpace(record[2]), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid efficiency_percent %q: %w", record[2], err)
	}
	calibration, err := parseTime(record[3])
	if err != nil {
		return nil, fmt.Errorf("invalid calibration_time %q: %w", record[3], err)
	}
	var lastEluted time.Time
	if strings.TrimSpace(record[4]) != "" {
		lastEluted, err = parseTime(record[4])
		if err != nil {
			return nil, fmt.Errorf("invalid last_eluted_time %q: %w", record[4], err)
		}
	}
	return entities.NewGenerator(entities.GeneratorID(strings.TrimSpace(record[0])), parent, efficiency, calibration, lastEluted)
}

func parseHospital(record []string) (*entities.Hospital, error) {
	travel, err := strconv.Atoi(strings.TrimSpace(record[2]))
	if err != nil {
		return nil, fmt.Errorf("invalid travel_minutes %q: %w", record[2], err)
	}
	return entities.NewHospital(entities.HospitalID(strings.TrimSpace(record[0])), strings.TrimSpace(record[1]), travel)
}

func parseOrder(record []string) (*entities.Order, error) {
	product, err := entities.ParseProduct(strings.TrimSpace(record[2]))
	if err != nil {
		return nil, err
	}
	requested, err := strconv.ParseFloat(strings.TrimSpace(record[3]), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid requested_activity_mci %q: %w", record[3], err)
	}
	calibration, err := parseTime(record[4])
	if err != nil {
		return nil, fmt.Errorf("invalid calibration_time %q: %w", record[4], err)
	}
	prep, err := strconv.Atoi(strings.TrimSpace(record[5]))
	if err != nil {
		return nil, fmt.Errorf("invalid prep_minutes %q: %w", record[5], err)
	}
	travel, err := strconv.Atoi(strings.TrimSpace(record[6]))
	if err != nil {
		return nil, fmt.Errorf("invalid travel_minutes %q: %w", record[6], err)
	}
	return entities.NewOrder(
		entities.OrderID(strings.TrimSpace(record[0])),
		entities.HospitalID(strings.TrimSpace(record[1])),
		product,
		requested,
		calibration,
		prep,
		travel,
	)
}

func parseTime(value string) (time.Time, error) {
	return time.Parse(time.RFC3339, strings.TrimSpace(value))
}
