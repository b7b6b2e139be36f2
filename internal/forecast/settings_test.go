package forecast

import (
	"errors"
	"math"
	"testing"
)

func TestSettings_DefaultsAreValid(t *testing.T) {
	s := DefaultSettings()
	if err := s.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
	if s.VelocityAdjFactor != 0.1 || s.GrowthFactor != 0.05 || s.LeadTimeDays != 90 ||
		s.SafetyStockWeeks != 4 || s.SmoothingFactor != 0.85 {
		t.Errorf("unexpected defaults: %+v", s)
	}
}

func TestSettings_Validate(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(*Settings)
		field  string
	}{
		{"negative lead time", func(s *Settings) { s.LeadTimeDays = -1 }, "lead_time_days"},
		{"negative safety stock", func(s *Settings) { s.SafetyStockWeeks = -2 }, "safety_stock_weeks"},
		{"smoothing above one", func(s *Settings) { s.SmoothingFactor = 1.5 }, "smoothing_factor"},
		{"growth wipes demand", func(s *Settings) { s.GrowthFactor = -1 }, "growth_factor"},
		{"negative velocity", func(s *Settings) { s.VelocityAdjFactor = -0.1 }, "velocity_adj_factor"},
		{"nan velocity", func(s *Settings) { s.VelocityAdjFactor = math.NaN() }, "velocity_adj_factor"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := DefaultSettings()
			tc.mutate(&s)

			err := s.Validate()
			var invalid *InvalidSettingsError
			if !errors.As(err, &invalid) {
				t.Fatalf("expected InvalidSettingsError, got %v", err)
			}
			if invalid.Field != tc.field {
				t.Errorf("expected field %s, got %s", tc.field, invalid.Field)
			}
		})
	}
}

func TestSettings_Fingerprint(t *testing.T) {
	a := DefaultSettings()
	b := DefaultSettings()
	if a.Fingerprint() != b.Fingerprint() {
		t.Fatal("expected equal settings to share a fingerprint")
	}

	b.SafetyStockWeeks = 5
	if a.Fingerprint() == b.Fingerprint() {
		t.Fatal("expected different settings to have different fingerprints")
	}
}

func TestSettings_LeadTimeWeeks(t *testing.T) {
	cases := map[int]int{0: 0, 1: 1, 7: 1, 8: 2, 90: 13}
	for days, want := range cases {
		s := Settings{LeadTimeDays: days}
		if got := s.LeadTimeWeeks(); got != want {
			t.Errorf("LeadTimeWeeks(%d days) = %d, want %d", days, got, want)
		}
	}
}
