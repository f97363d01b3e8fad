package models

import (
	"time"

	"freight-app/controllers/idgen"

	"gorm.io/gorm"
)

// OutShipment adalah transaksi ekspor yang mengklaim paket dari satu
// atau lebih InShipment melalui OutShipmentItem.
type OutShipment struct {
	ID                 int64   `json:"id" gorm:"primaryKey"`
	BillNumber         string  `json:"bill_number" gorm:"not null"`
	SubBillNumber      string  `json:"sub_bill_number"`
	CompanyName        string  `json:"company_name"`
	Destination        string  `json:"destination"`
	PackageCount       int     `json:"package_count"`
	Weight             float64 `json:"weight"`
	PaymentFees        float64 `json:"payment_fees"`
	GroundFees         float64 `json:"ground_fees"`
	CustomsCertificate string  `json:"customs_certificate"`
	ContractStatus     string  `json:"contract_status"`
	ArrivalDate        string  `json:"arrival_date" gorm:"type:date"`
	ExportDate         string  `json:"export_date" gorm:"type:date"`
	DisbursementDate   string  `json:"disbursement_date"`
	ReceiverName       string  `json:"receiver_name"`

	Status bool `json:"status" gorm:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Items []OutShipmentItem `json:"items" gorm:"foreignKey:OutShipmentID;references:ID;constraint:OnDelete:CASCADE"`
}

func (s *OutShipment) BeforeCreate(tx *gorm.DB) (err error) {
	s.ID = idgen.GenerateID()
	return
}

func (s *OutShipment) AfterFind(tx *gorm.DB) (err error) {
	s.Status = s.DisbursementDate != ""
	return
}

func (s *OutShipment) AfterSave(tx *gorm.DB) (err error) {
	s.Status = s.DisbursementDate != ""
	return
}

// OutShipmentItem adalah baris klaim: berapa paket yang diambil
// OutShipment dari satu InShipment.
type OutShipmentItem struct {
	ID            int64 `json:"id" gorm:"primaryKey"`
	OutShipmentID int64 `json:"out_shipment_id" gorm:"uniqueIndex:idx_out_in_shipment"`
	InShipmentID  int64 `json:"in_shipment_id" gorm:"uniqueIndex:idx_out_in_shipment"`
	PackageCount  int   `json:"package_count"`

	InShipment *InShipment `json:"in_shipment,omitempty" gorm:"foreignKey:InShipmentID;references:ID"`

	CreatedAt time.Time `json:"created_at"`
}

func (i *OutShipmentItem) BeforeCreate(tx *gorm.DB) (err error) {
	i.ID = idgen.GenerateID()
	return
}
