package phys

import (
	"errors"
	"math"
	"testing"
)

func TestResistancesSingularities(t *testing.T) {
	c := DefaultCalibration()

	tests := []struct {
		name              string
		sm, sd, lai, smax float64
	}{
		{"zero soil moisture", 0, 100, 2, 0.4},
		{"negative soil moisture", -0.1, 100, 2, 0.4},
		{"zero lai", 0.3, 100, 0, 0.4},
		{"zero soil moisture max", 0.3, 100, 2, 0},
		{"nan soil moisture", math.NaN(), 100, 2, 0.4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := c.Resistances(tt.sm, tt.sd, tt.lai, tt.smax)
			if !errors.Is(err, ErrDivisionSingularity) {
				t.Errorf("err = %v, want ErrDivisionSingularity", err)
			}
		})
	}
}

func TestResistancesPositive(t *testing.T) {
	c := DefaultCalibration()

	canopy, soil, err := c.Resistances(0.3, 200, 2, 0.4)
	if err != nil {
		t.Fatalf("Resistances: %v", err)
	}
	if canopy <= 0 {
		t.Errorf("canopy resistance = %v, want positive", canopy)
	}
	if soil <= c.SoilResistanceC {
		t.Errorf("soil resistance = %v, want > offset %v", soil, c.SoilResistanceC)
	}
}

func TestResistancesRadiationResponse(t *testing.T) {
	c := DefaultCalibration()

	// Strong insolation opens stomata: canopy resistance drops toward
	// r_st_min/(c_sw * LAI).
	dark, _, err := c.Resistances(0.3, 0, 2, 0.4)
	if err != nil {
		t.Fatalf("Resistances dark: %v", err)
	}
	bright, _, err := c.Resistances(0.3, 800, 2, 0.4)
	if err != nil {
		t.Fatalf("Resistances bright: %v", err)
	}
	if bright >= dark {
		t.Errorf("canopy resistance under insolation = %v, want < dark value %v", bright, dark)
	}

	wantBright := c.StomatalResistanceMin / (0.3 / 0.4) / 2
	if math.Abs(bright-wantBright) > 1e-6 {
		t.Errorf("saturated-light canopy resistance = %v, want %v", bright, wantBright)
	}
}

func TestResistancesDrynessResponse(t *testing.T) {
	c := DefaultCalibration()

	_, wet, err := c.Resistances(0.38, 200, 2, 0.4)
	if err != nil {
		t.Fatalf("Resistances wet: %v", err)
	}
	_, dry, err := c.Resistances(0.05, 200, 2, 0.4)
	if err != nil {
		t.Fatalf("Resistances dry: %v", err)
	}
	if dry <= wet {
		t.Errorf("dry soil resistance = %v, want > wet %v", dry, wet)
	}
}

func TestResistancesOverridableConstants(t *testing.T) {
	c := DefaultCalibration()
	c.SoilResistanceA = 0
	c.SoilResistanceC = 100

	_, soil, err := c.Resistances(0.3, 200, 2, 0.4)
	if err != nil {
		t.Fatalf("Resistances: %v", err)
	}
	// With A=0 the power-law term vanishes and only the offset remains.
	if soil != 100 {
		t.Errorf("soil resistance with A=0, C=100 = %v, want 100", soil)
	}
}
