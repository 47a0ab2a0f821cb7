package domain

// Stats holds the public instance counters shown on the landing page.
type Stats struct {
	Users     int64 `json:"users"`
	Materials int64 `json:"materials"`
	Downloads int64 `json:"downloads"`
}
