package csv

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curielabs/elusched/pkg/domain/entities"
)

func writeFile(t *testing.T, name, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestLoadGenerators(t *testing.T) {
	path := writeFile(t, "generators.csv", `id,parent_activity_mci,efficiency_percent,calibration_time,last_eluted_time
G-1,50,60,2026-03-10T08:00:00Z,2026-03-10T09:00:00Z
G-2,30,55,2026-02-01T08:00:00Z,
`)
	gens, err := NewLoader().LoadGenerators(path)
	require.NoError(t, err)
	require.Len(t, gens, 2)
	assert.Equal(t, entities.GeneratorID("G-1"), gens[0].ID)
	assert.InDelta(t, 60.0, gens[0].EfficiencyPercent, 1e-9)
	// A blank last_eluted_time falls back to the calibration time.
	assert.True(t, gens[1].LastElutedTime.Equal(gens[1].CalibrationTime))
}

func TestLoadHospitals(t *testing.T) {
	path := writeFile(t, "hospitals.csv", `id,name,travel_minutes
H-1,General,15
H-2,Regional,45
`)
	hospitals, err := NewLoader().LoadHospitals(path)
	require.NoError(t, err)
	require.Len(t, hospitals, 2)
	assert.Equal(t, "Regional", hospitals[1].Name)
	assert.Equal(t, 45, hospitals[1].TravelMinutes)
}

func TestLoadOrders(t *testing.T) {
	path := writeFile(t, "orders.csv", `id,hospital_id,product,requested_activity_mci,calibration_time,prep_minutes,travel_minutes
O-1,H-1,PSMA,5,2026-03-10T11:00:00Z,15,15
`)
	orders, err := NewLoader().LoadOrders(path)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, entities.ProductPSMA, orders[0].Product)
	assert.InDelta(t, 5.0, orders[0].RequestedActivityMCi, 1e-9)
}

func TestLoadOrders_BadProduct(t *testing.T) {
	path := writeFile(t, "orders.csv", `id,hospital_id,product,requested_activity_mci,calibration_time,prep_minutes,travel_minutes
O-1,H-1,XENON,5,2026-03-10T11:00:00Z,15,15
`)
	_, err := NewLoader().LoadOrders(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, entities.ErrInvalidProduct)
}

func TestHeaderMismatch(t *testing.T) {
	path := writeFile(t, "hospitals.csv", `id,travel_minutes
H-1,15
`)
	_, err := NewLoader().LoadHospitals(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "header mismatch")
}
