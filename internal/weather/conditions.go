package weather

var conditions = map[int]string{
	0:  "Cerah",
	1:  "Sebagian berawan",
	2:  "Berawan",
	3:  "Mendung",
	45: "Kabut",
	48: "Kabut es",
	51: "Gerimis ringan",
	53: "Gerimis sedang",
	55: "Gerimis lebat",
	56: "Gerimis dingin ringan",
	57: "Gerimis dingin lebat",
	61: "Hujan ringan",
	63: "Hujan sedang",
	65: "Hujan lebat",
	66: "Hujan dingin ringan",
	67: "Hujan dingin lebat",
	71: "Salju ringan",
	73: "Salju sedang",
	75: "Salju lebat",
	77: "Butiran salju",
	80: "Hujan sebentar ringan",
	81: "Hujan sebentar sedang",
	82: "Hujan sebentar lebat",
	85: "Hujan salju ringan",
	86: "Hujan salju lebat",
	95: "Badai petir",
	96: "Badai petir dengan hujan es ringan",
	99: "Badai petir dengan hujan es lebat",
}

// Condition maps a WMO weather code to its Indonesian label.
func Condition(code int) string {
	if label, ok := conditions[code]; ok {
		return label
	}
	return "Tidak diketahui"
}
