// Package types contains common types used across the application
package types

import "time"

// Summary is the read shape returned by report listings.
type Summary struct {
	ID         string    `json:"id"`
	Title      string    `json:"title,omitempty"`
	Status     string    `json:"status"`
	Confidence float64   `json:"confidence"`
	CreatedAt  time.Time `json:"created_at"`
}
