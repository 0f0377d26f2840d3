package model

import "time"

// StatsSnapshot is a read-side projection over the code store. It is allowed
// to lag in-flight activations by one query (read-committed).
type StatsSnapshot struct {
	TotalCodes        int64              `json:"total_codes"`
	ActivatedCodes    int64              `json:"activated_codes"`
	ActivationRate    float64            `json:"activation_rate"`
	TodayQueries      int64              `json:"today_queries"`
	WeekActivations   int64              `json:"week_activations"`
	RecentActivations []RecentActivation `json:"recent_activations,omitempty"`
}

type RecentActivation struct {
	Code           string    `json:"code"`
	ActivationDate time.Time `json:"activation_date"`
	QueryCount     int64     `json:"query_count"`
}
