package models

import (
	"time"

	"freight-app/controllers/idgen"

	"gorm.io/gorm"
)

// InShipment adalah catatan penerimaan barang (shipment masuk).
// Kolom exported_count dan exported hanya boleh diubah oleh
// repositories.ShipmentRepository.
type InShipment struct {
	ID                 int64   `json:"id" gorm:"primaryKey"`
	BillNumber         string  `json:"bill_number" gorm:"not null"`
	SubBillNumber      string  `json:"sub_bill_number" gorm:"unique;not null"`
	CompanyName        string  `json:"company_name"`
	Destination        string  `json:"destination"`
	PackageCount       int     `json:"package_count"`
	ExportedCount      int     `json:"exported_count"`
	Weight             float64 `json:"weight"`
	PaymentFees        float64 `json:"payment_fees"`
	GroundFees         float64 `json:"ground_fees"`
	CustomsCertificate string  `json:"customs_certificate"`
	ContractStatus     string  `json:"contract_status"`
	ArrivalDate        string  `json:"arrival_date" gorm:"type:date"`
	DisbursementDate   string  `json:"disbursement_date"`
	ReceiverName       string  `json:"receiver_name"`
	Exported           bool    `json:"exported"`

	// Status dihitung dari disbursement_date, tidak disimpan di database
	Status bool `json:"status" gorm:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *InShipment) BeforeCreate(tx *gorm.DB) (err error) {
	s.ID = idgen.GenerateID()
	return
}

func (s *InShipment) AfterFind(tx *gorm.DB) (err error) {
	s.Status = s.DisbursementDate != ""
	return
}

func (s *InShipment) AfterSave(tx *gorm.DB) (err error) {
	s.Status = s.DisbursementDate != ""
	return
}

// Remaining mengembalikan sisa paket yang belum diklaim shipment keluar
func (s *InShipment) Remaining() int {
	return s.PackageCount - s.ExportedCount
}
