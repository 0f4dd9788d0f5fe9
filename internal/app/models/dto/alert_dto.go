package dto

// SweepResultResponse represents the outcome of one alert sweep run
type SweepResultResponse struct {
	VisaAlerts       int `json:"visaAlerts"`
	MissingDocAlerts int `json:"missingDocAlerts"`
	ExpiryWarnings   int `json:"expiryWarnings"`
	Skipped          int `json:"skipped"`
	Failures         int `json:"failures"`
}
