package entities

// Settings holds the operator-configurable scheduling knobs persisted
// alongside the dataset.
type Settings struct {
	// MinLockMinutes is the minimum rest window between two elutions of the
	// same generator.
	MinLockMinutes int `json:"min_lock_minutes"`
}

// DefaultSettings returns the settings used until the operator changes them.
func DefaultSettings() *Settings {
	return &Settings{MinLockMinutes: 30}
}

// Clone returns an independent copy.
func (s *Settings) Clone() *Settings {
	c := *s
	return &c
}
