package models

import "time"

type PredictionRecord struct {
	ID          string
	RecordID    string
	Source      string
	Potable     bool
	Probability float64
	Confidence  float64
	LatencyMS   int
	CreatedAt   time.Time
}

type AlertRecord struct {
	ID        string
	RecordID  string
	Recipient string
	Delivered bool
	Message   string
	Error     string
	CreatedAt time.Time
}

type RecipientRow struct {
	Identity     string
	Address      string
	Name         string
	SubscribedAt time.Time
}
