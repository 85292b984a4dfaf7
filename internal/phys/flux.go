package phys

// FluxInputs are the per-pixel per-hour inputs to the latent heat flux
// retrieval. Temperatures Kelvin, pressure hPa, resistances s/m, soil
// moisture m3/m3, radiation W/m2.
type FluxInputs struct {
	SurfaceTemp     float64 // land surface temperature
	AirTemp         float64
	Dewpoint        float64
	Pressure        float64
	AeroResistance  float64 // aerodynamic resistance r_av
	SoilMoisture    float64
	SolarDown       float64
	LeafAreaIndex   float64
	SoilMoistureMax float64 // saturation water content of the pixel's soil
}

// LatentHeatFlux computes the latent heat flux (W/m2) from two parallel
// evapotranspiration pathways sharing the aerodynamic resistance:
// transpiration through the canopy resistance driven by the air saturation
// deficit, and direct evaporation through the soil resistance driven by the
// surface-air humidity gradient. Single closed-form pass; negative output
// means condensation (downward flux) and is returned as-is.
func (c Calibration) LatentHeatFlux(in FluxInputs) (float64, error) {
	qAir, qSatAir, err := c.SpecificHumidity(in.AirTemp, in.Dewpoint, in.Pressure)
	if err != nil {
		return 0, err
	}
	_, qSatSurface, err := c.SpecificHumidity(in.SurfaceTemp, in.Dewpoint, in.Pressure)
	if err != nil {
		return 0, err
	}
	rCanopy, rSoil, err := c.Resistances(in.SoilMoisture, in.SolarDown, in.LeafAreaIndex, in.SoilMoistureMax)
	if err != nil {
		return 0, err
	}
	rho, err := c.AirDensity(in.AirTemp, in.Pressure)
	if err != nil {
		return 0, err
	}

	transpiration := rho * (qSatAir - qAir) / (in.AeroResistance + rCanopy)
	evaporation := rho * (qSatSurface - qAir) / (in.AeroResistance + rSoil)
	return (transpiration + evaporation) * c.LatentHeatVaporization, nil
}
