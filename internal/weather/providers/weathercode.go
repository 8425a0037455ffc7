package providers

// wmoConditions maps WMO weather interpretation codes, as used by Open-Meteo,
// to human readable text.
var wmoConditions = map[int]string{
	0:  "clear",
	1:  "mainly clear",
	2:  "partly cloudy",
	3:  "cloudy",
	45: "fog",
	48: "depositing rime fog",
	51: "light drizzle",
	53: "moderate drizzle",
	55: "dense drizzle",
	56: "freezing drizzle light",
	57: "freezing drizzle dense",
	61: "light rain",
	63: "rain",
	65: "heavy rain",
	66: "freezing rain light",
	67: "freezing rain heavy",
	71: "light snow",
	73: "snow",
	75: "heavy snow",
	77: "snow grains",
	80: "rain showers light",
	81: "rain showers",
	82: "rain showers heavy",
	85: "snow showers light",
	86: "snow showers heavy",
	95: "thunderstorm",
	96: "thunderstorm hail light",
	99: "thunderstorm hail heavy",
}

// WeatherCodeToText maps a weather code to text; nil and unknown codes yield "unknown".
func WeatherCodeToText(code *int) string {
	if code == nil {
		return "unknown"
	}
	if text, ok := wmoConditions[*code]; ok {
		return text
	}
	return "unknown"
}
