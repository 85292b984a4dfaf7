// Package phys implements the latent heat flux retrieval: Bolton (1980)
// humidity relations, the canopy/soil resistance network, and the two-path
// evapotranspiration flux model. All functions are pure computations over
// their inputs; batching over space and time happens in the pipeline.
package phys

import "errors"

var (
	ErrInvalidPhysicalInput = errors.New("phys: non-physical temperature or pressure")
	ErrDivisionSingularity  = errors.New("phys: zero soil moisture or leaf area index")
)

// Calibration holds the empirical constants of the retrieval. The defaults
// match the published model; recalibration overrides fields without code
// changes. Treat values as immutable configuration once a run starts.
type Calibration struct {
	// Stomatal resistance bounds (s/m) and the radiation scaling constant
	// (W/m2) of the tanh response.
	StomatalResistanceMin float64
	StomatalResistanceMax float64
	RadiationScale        float64

	// Soil resistance power law r = A*(sm_max/sm)^B + C.
	SoilResistanceA float64
	SoilResistanceB float64
	SoilResistanceC float64

	// Physical constants.
	LatentHeatVaporization float64 // J/kg
	GasConstantDryAir      float64 // J/(K kg)
	ReferenceVaporPressure float64 // hPa, e_0 in Bolton (1980)
}

// DefaultCalibration returns the empirical constants the model was
// calibrated with.
func DefaultCalibration() Calibration {
	return Calibration{
		StomatalResistanceMin:  100,
		StomatalResistanceMax:  10000,
		RadiationScale:         25,
		SoilResistanceA:        3.5,
		SoilResistanceB:        2.3,
		SoilResistanceC:        433.5,
		LatentHeatVaporization: 2.5e6,
		GasConstantDryAir:      287.05,
		ReferenceVaporPressure: 6.113,
	}
}
