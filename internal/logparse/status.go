package logparse

import "strconv"

// StatusClass maps an HTTP status code to its class ("2xx", "4xx", ...).
// Unparseable codes map to "other".
func StatusClass(status string) string {
	code, err := strconv.Atoi(status)
	if err != nil || code < 100 || code > 599 {
		return "other"
	}
	return strconv.Itoa(code/100) + "xx"
}

// StatusSeverity converts a status code to a log-style severity so sinks can
// colour responses the way they colour log levels.
func StatusSeverity(status string) string {
	switch StatusClass(status) {
	case "5xx":
		return "ERROR"
	case "4xx":
		return "WARN"
	case "other":
		return "UNKNOWN"
	default:
		return "INFO"
	}
}
