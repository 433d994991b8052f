package dto

// SweepError records one subscription the renewal sweep could not process.
type SweepError struct {
	SubscriptionID string `json:"subscription_id"`
	Error          string `json:"error"`
}

// SweepResult summarizes one renewal sweep run.
type SweepResult struct {
	Total   int          `json:"total"`
	Success int          `json:"success"`
	Failed  int          `json:"failed"`
	Errors  []SweepError `json:"errors,omitempty"`
}
