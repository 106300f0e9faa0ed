// Package models defines the records and payloads exchanged with the record store.
package models

// Project status values.
const (
	// StatusUploaded marks a submission waiting to be processed.
	StatusUploaded = "uploaded"
	// StatusProcessed marks a submission whose workbook has been mailed.
	StatusProcessed = "processed"
)

// Project represents a form submission stored in the projects collection.
type Project struct {
	// ID is the record store identifier.
	ID string `json:"id"`
	// Status is the workflow status (uploaded, processed).
	Status string `json:"status"`
	// FormData is the submitted form payload.
	FormData FormData `json:"form_data"`
	// Created is the record creation timestamp as reported by the store.
	Created string `json:"created,omitempty"`
	// Updated is the last update timestamp as reported by the store.
	Updated string `json:"updated,omitempty"`
}
