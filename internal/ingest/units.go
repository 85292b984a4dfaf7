package ingest

// Unit conversions applied at the ingestion boundary. Everything past this
// package is Kelvin, m/s, and hPa.

const knotsToMS = 0.51444

// CToK converts degrees Celsius to Kelvin.
func CToK(t float64) float64 { return t + 273.15 }

// KToC converts Kelvin to degrees Celsius.
func KToC(t float64) float64 { return t - 273.15 }

// KnotsToMS converts wind speed in knots to meters per second.
func KnotsToMS(u float64) float64 { return u * knotsToMS }

// KPaToHPa converts kilopascals (Ameriflux PA) to hectopascals.
func KPaToHPa(p float64) float64 { return p * 10 }
