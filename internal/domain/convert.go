package domain

// ConvertTemperature converts a temperature value between "celsius" and
// "fahrenheit". Returns v unchanged if from == to or if the units are
// unrecognised. Records are stored in celsius; this serves display in the
// unit the user configured.
func ConvertTemperature(v float64, from, to string) float64 {
	if from == to {
		return v
	}
	if from == "celsius" && to == "fahrenheit" {
		return v*9/5 + 32
	}
	if from == "fahrenheit" && to == "celsius" {
		return (v - 32) * 5 / 9
	}
	return v
}
