package phys

import "math"

// Resistances returns the canopy and soil surface resistances (s/m) for a
// pixel. Stomatal resistance interpolates between its bounds as a function
// of normalised soil water content and incoming shortwave radiation, then
// scales down by leaf area; soil resistance is a power law in normalised
// dryness. The formulas divide by soil moisture and LAI, so zero or
// negative inputs fail before reaching them.
func (c Calibration) Resistances(soilMoisture, solarDown, leafAreaIndex, soilMoistureMax float64) (canopy, soil float64, err error) {
	if soilMoisture <= 0 || soilMoistureMax <= 0 || leafAreaIndex == 0 {
		return 0, 0, ErrDivisionSingularity
	}
	if math.IsNaN(soilMoisture) || math.IsNaN(solarDown) || math.IsNaN(leafAreaIndex) || math.IsNaN(soilMoistureMax) {
		return 0, 0, ErrDivisionSingularity
	}

	cSW := soilMoisture / soilMoistureMax
	rSt := c.StomatalResistanceMin/cSW +
		((c.StomatalResistanceMax-c.StomatalResistanceMin)/cSW)*(1-math.Tanh(solarDown/c.RadiationScale))
	canopy = rSt / leafAreaIndex

	soil = c.SoilResistanceA*math.Pow(soilMoistureMax/soilMoisture, c.SoilResistanceB) + c.SoilResistanceC
	return canopy, soil, nil
}
