package repositories

import "fmt"

// ValidationError menandai input yang melanggar aturan bisnis.
// Controller memetakan error ini ke HTTP 400.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// ConflictError menandai benturan kardinalitas atau duplikasi.
// Controller memetakan error ini ke HTTP 409.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

// ProtectedReferenceError menandai penghapusan yang diblokir karena
// masih ada record lain yang mereferensikan record tersebut.
type ProtectedReferenceError struct {
	Model      string
	ID         int64
	References int64
}

func (e *ProtectedReferenceError) Error() string {
	return fmt.Sprintf("%s %d is referenced by %d outbound shipment item(s), remove them first", e.Model, e.ID, e.References)
}
