package dto

import "time"

type StopResponse struct {
	StopID         string     `json:"stop_id"`
	Lat            float64    `json:"lat"`
	Lon            float64    `json:"lon"`
	Demand         int        `json:"demand"`
	Earliest       *time.Time `json:"earliest,omitempty"`
	Latest         *time.Time `json:"latest,omitempty"`
	ServiceSeconds int64      `json:"service_seconds"`
	Priority       string     `json:"priority"`
	Status         string     `json:"status"`
	Zone           string     `json:"zone"`
}

type ListStopResponse struct {
	Stops []StopResponse `json:"stops"`
}

// StopPayload carries a new stop in adjustment requests.
type StopPayload struct {
	StopID         string     `json:"stop_id"`
	Lat            float64    `json:"lat"`
	Lon            float64    `json:"lon"`
	Demand         int        `json:"demand"`
	Earliest       *time.Time `json:"earliest"`
	Latest         *time.Time `json:"latest"`
	ServiceSeconds int64      `json:"service_seconds"`
	Priority       string     `json:"priority"`
	Zone           string     `json:"zone"`
}
