package weather

import "math"

// KmhFromMps converts meters per second to whole kilometers per hour,
// dropping the fraction.
func KmhFromMps(mps float64) int {
	return int(math.Trunc(mps * 3.6))
}

// WholeDegrees drops the fractional part of a temperature.
func WholeDegrees(c float64) int {
	return int(math.Trunc(c))
}

func toSample(r ProviderReading) Sample {
	return Sample{
		Temperature:  WholeDegrees(r.TemperatureC),
		Condition:    r.Condition,
		WindSpeedKmh: KmhFromMps(r.WindSpeedMS),
	}
}
