package phys

import "math"

// kelvinZero is 0 degrees Celsius in Kelvin. Temperatures enter this
// package in Kelvin; the Bolton relations are written in Celsius.
const kelvinZero = 273.15

// CToK converts degrees Celsius to Kelvin.
func CToK(t float64) float64 { return t + kelvinZero }

// KToC converts Kelvin to degrees Celsius.
func KToC(t float64) float64 { return t - kelvinZero }

// VaporPressure returns the vapor pressure (hPa) for a temperature via the
// Bolton (1980) approximation. Saturation vapor pressure when given the air
// temperature, actual vapor pressure when given the dewpoint.
func (c Calibration) VaporPressure(tK float64) (float64, error) {
	if tK <= 0 || math.IsNaN(tK) {
		return 0, ErrInvalidPhysicalInput
	}
	tC := KToC(tK)
	return c.ReferenceVaporPressure * math.Exp(17.67*tC/(tC+243.5)), nil
}

// SpecificHumidity returns the actual specific humidity (from the dewpoint)
// and the saturated specific humidity (from the air temperature), both as
// fractional kg/kg.
func (c Calibration) SpecificHumidity(tAirK, tDewK, pressureHPa float64) (qActual, qSaturated float64, err error) {
	if pressureHPa <= 0 || math.IsNaN(pressureHPa) {
		return 0, 0, ErrInvalidPhysicalInput
	}
	e, err := c.VaporPressure(tDewK)
	if err != nil {
		return 0, 0, err
	}
	eSat, err := c.VaporPressure(tAirK)
	if err != nil {
		return 0, 0, err
	}
	qActual = 0.622 * e / (pressureHPa - 0.378*e)
	qSaturated = 0.622 * eSat / (pressureHPa - 0.378*eSat)
	return qActual, qSaturated, nil
}

// AirDensity returns moist-air density (kg/m3) from the ideal gas law with
// the dry-air gas constant. Pressure is hPa.
func (c Calibration) AirDensity(tAirK, pressureHPa float64) (float64, error) {
	if tAirK <= 0 || pressureHPa <= 0 || math.IsNaN(tAirK) || math.IsNaN(pressureHPa) {
		return 0, ErrInvalidPhysicalInput
	}
	return pressureHPa * 100 / (c.GasConstantDryAir * tAirK), nil
}

// PotentialTemperature returns the potential temperature (K) referenced to
// 1000 hPa, with c_p = 1006 J/(K kg).
func (c Calibration) PotentialTemperature(tAirK, pressureHPa float64) (float64, error) {
	if tAirK <= 0 || pressureHPa <= 0 || math.IsNaN(tAirK) || math.IsNaN(pressureHPa) {
		return 0, ErrInvalidPhysicalInput
	}
	return tAirK * math.Pow(1000/pressureHPa, c.GasConstantDryAir/1006), nil
}
