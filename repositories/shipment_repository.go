package repositories

import (
	"fmt"
	"math"
	"time"

	"freight-app/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Notifier adalah port notifikasi yang dipanggil repository setelah
// transaksi commit. Gagal publish tidak boleh menggagalkan mutasi.
type Notifier interface {
	PublishShipmentEvent(model string, action string, id int64)
	PublishStatsChanged()
}

// OutShipmentClaim adalah permintaan klaim paket terhadap satu InShipment
type OutShipmentClaim struct {
	InShipmentID int64 `json:"in_shipment_id" validate:"required"`
	PackageCount int   `json:"package_count" validate:"required,min=1"`
}

// OutShipmentPayload adalah input create/update shipment keluar.
// Field deskriptif yang kosong akan disalin dari InShipment pertama
// yang diklaim.
type OutShipmentPayload struct {
	BillNumber         string             `json:"bill_number"`
	SubBillNumber      string             `json:"sub_bill_number"`
	CompanyName        string             `json:"company_name"`
	Destination        string             `json:"destination"`
	CustomsCertificate string             `json:"customs_certificate"`
	ContractStatus     string             `json:"contract_status"`
	ArrivalDate        string             `json:"arrival_date"`
	ExportDate         string             `json:"export_date"`
	DisbursementDate   string             `json:"disbursement_date"`
	ReceiverName       string             `json:"receiver_name"`
	Claims             []OutShipmentClaim `json:"claims" validate:"omitempty,min=1,dive"`
}

// ShipmentRepository memegang semua mutasi lintas InShipment/OutShipment.
// Tidak ada komponen lain yang boleh menulis exported / exported_count.
type ShipmentRepository struct {
	db       *gorm.DB
	notifier Notifier
}

func NewShipmentRepository(db *gorm.DB, notifier Notifier) *ShipmentRepository {
	return &ShipmentRepository{db: db, notifier: notifier}
}

// lockInShipments mengambil baris InShipment dengan SELECT ... FOR UPDATE
// supaya pengecekan sisa kapasitas dan update-nya atomik terhadap
// transaksi lain. SQLite tidak mengenal FOR UPDATE; di sana serialisasi
// sudah dijamin oleh write lock level database.
func (r *ShipmentRepository) lockInShipments(tx *gorm.DB, ids []int64) (map[int64]*models.InShipment, error) {
	q := tx
	if tx.Dialector.Name() != "sqlite" {
		q = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var rows []models.InShipment
	if err := q.Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}

	byID := make(map[int64]*models.InShipment, len(rows))
	for i := range rows {
		byID[rows[i].ID] = &rows[i]
	}
	return byID, nil
}

func validateClaims(claims []OutShipmentClaim) error {
	if len(claims) == 0 {
		return &ValidationError{Field: "claims", Message: "at least one inbound shipment must be selected"}
	}

	seen := make(map[int64]bool, len(claims))
	for _, claim := range claims {
		if claim.PackageCount <= 0 {
			return &ValidationError{Field: "package_count", Message: "claimed package count must be positive"}
		}
		if seen[claim.InShipmentID] {
			return &ConflictError{Message: fmt.Sprintf("inbound shipment %d is claimed more than once", claim.InShipmentID)}
		}
		seen[claim.InShipmentID] = true
	}
	return nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// applyClaims memeriksa sisa kapasitas tiap InShipment lalu menambah
// exported_count sesuai klaim. Harus dipanggil setelah baris terkunci.
func applyClaims(inbounds map[int64]*models.InShipment, claims []OutShipmentClaim) error {
	for _, claim := range claims {
		in, ok := inbounds[claim.InShipmentID]
		if !ok {
			return gorm.ErrRecordNotFound
		}
		remaining := in.PackageCount - in.ExportedCount
		if claim.PackageCount > remaining {
			return &ValidationError{
				Field:   "package_count",
				Message: fmt.Sprintf("exceeds remaining (%d) for inbound shipment %s", remaining, in.SubBillNumber),
			}
		}
		in.ExportedCount += claim.PackageCount
	}
	return nil
}

func saveInShipmentCounts(tx *gorm.DB, inbounds map[int64]*models.InShipment) error {
	for _, in := range inbounds {
		in.Exported = in.ExportedCount >= in.PackageCount
		err := tx.Model(&models.InShipment{}).Where("id = ?", in.ID).
			Updates(map[string]interface{}{
				"exported_count": in.ExportedCount,
				"exported":       in.Exported,
			}).Error
		if err != nil {
			return err
		}
	}
	return nil
}

// deriveOutShipment melengkapi OutShipment dari klaimnya: field
// deskriptif yang masih kosong disalin dari klaim pertama, jumlah paket
// adalah total klaim, dan biaya diprorata sesuai porsi paket yang
// diklaim. Field payload sudah diterapkan lewat applyOutShipmentFields.
func deriveOutShipment(out *models.OutShipment, inbounds map[int64]*models.InShipment, claims []OutShipmentClaim) {
	first := inbounds[claims[0].InShipmentID]
	if out.BillNumber == "" {
		out.BillNumber = first.BillNumber
	}
	if out.SubBillNumber == "" {
		out.SubBillNumber = first.SubBillNumber
	}
	if out.CompanyName == "" {
		out.CompanyName = first.CompanyName
	}
	if out.Destination == "" {
		out.Destination = first.Destination
	}
	if out.CustomsCertificate == "" {
		out.CustomsCertificate = first.CustomsCertificate
	}
	if out.ContractStatus == "" {
		out.ContractStatus = first.ContractStatus
	}
	if out.ArrivalDate == "" {
		out.ArrivalDate = first.ArrivalDate
	}
	if out.ReceiverName == "" {
		out.ReceiverName = first.ReceiverName
	}

	var totalPackages int
	var weight, paymentFees, groundFees float64
	for _, claim := range claims {
		in := inbounds[claim.InShipmentID]
		totalPackages += claim.PackageCount

		fraction := float64(claim.PackageCount) / float64(in.PackageCount)
		weight += in.Weight * fraction
		paymentFees += in.PaymentFees * fraction
		groundFees += in.GroundFees * fraction
	}
	out.PackageCount = totalPackages
	out.Weight = round2(weight)
	out.PaymentFees = round2(paymentFees)
	out.GroundFees = round2(groundFees)
}

func claimIDs(claims []OutShipmentClaim) []int64 {
	ids := make([]int64, 0, len(claims))
	for _, claim := range claims {
		ids = append(ids, claim.InShipmentID)
	}
	return ids
}

// CreateOutShipment membuat shipment keluar beserta klaimnya dalam satu
// transaksi. Semua InShipment terpilih harus punya sisa kapasitas cukup,
// kalau tidak seluruh transaksi dibatalkan.
func (r *ShipmentRepository) CreateOutShipment(payload *OutShipmentPayload) (*models.OutShipment, error) {
	if err := validateClaims(payload.Claims); err != nil {
		return nil, err
	}

	var out models.OutShipment
	err := r.db.Transaction(func(tx *gorm.DB) error {
		inbounds, err := r.lockInShipments(tx, claimIDs(payload.Claims))
		if err != nil {
			return err
		}
		if err := applyClaims(inbounds, payload.Claims); err != nil {
			return err
		}

		applyOutShipmentFields(&out, payload)
		deriveOutShipment(&out, inbounds, payload.Claims)
		if payload.ExportDate != "" {
			out.ExportDate = payload.ExportDate
		} else {
			out.ExportDate = time.Now().Format("2006-01-02")
		}

		if err := tx.Create(&out).Error; err != nil {
			return err
		}

		for _, claim := range payload.Claims {
			item := models.OutShipmentItem{
				OutShipmentID: out.ID,
				InShipmentID:  claim.InShipmentID,
				PackageCount:  claim.PackageCount,
			}
			if err := tx.Create(&item).Error; err != nil {
				return err
			}
		}

		if err := saveInShipmentCounts(tx, inbounds); err != nil {
			return err
		}

		out.Items = nil
		return tx.Preload("Items.InShipment").First(&out, out.ID).Error
	})
	if err != nil {
		return nil, err
	}

	r.publish("out_shipment", "created", out.ID)
	for _, item := range out.Items {
		r.publish("in_shipment", "updated", item.InShipmentID)
	}
	r.publishStats()
	return &out, nil
}

// UpdateOutShipment memperbarui shipment keluar. Jika payload membawa
// klaim baru, semua klaim lama dilepas lalu klaim baru diterapkan dalam
// transaksi yang sama; tanpa klaim baru, set link dipertahankan dan
// status exported tiap InShipment tertaut dihitung ulang dari counter.
func (r *ShipmentRepository) UpdateOutShipment(id int64, payload *OutShipmentPayload) (*models.OutShipment, error) {
	if len(payload.Claims) > 0 {
		if err := validateClaims(payload.Claims); err != nil {
			return nil, err
		}
	}

	var out models.OutShipment
	var touched []int64
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Items").First(&out, id).Error; err != nil {
			return err
		}

		if len(payload.Claims) > 0 {
			idSet := make(map[int64]bool)
			for _, item := range out.Items {
				idSet[item.InShipmentID] = true
			}
			for _, claim := range payload.Claims {
				idSet[claim.InShipmentID] = true
			}
			ids := make([]int64, 0, len(idSet))
			for inID := range idSet {
				ids = append(ids, inID)
			}

			inbounds, err := r.lockInShipments(tx, ids)
			if err != nil {
				return err
			}

			// Lepas klaim lama dulu supaya perpindahan kuota antar
			// InShipment yang sama dihitung sebagai selisih bersih
			for _, item := range out.Items {
				in, ok := inbounds[item.InShipmentID]
				if !ok {
					continue
				}
				in.ExportedCount -= item.PackageCount
				if in.ExportedCount < 0 {
					in.ExportedCount = 0
				}
			}

			if err := applyClaims(inbounds, payload.Claims); err != nil {
				return err
			}

			if err := tx.Where("out_shipment_id = ?", out.ID).Delete(&models.OutShipmentItem{}).Error; err != nil {
				return err
			}
			for _, claim := range payload.Claims {
				item := models.OutShipmentItem{
					OutShipmentID: out.ID,
					InShipmentID:  claim.InShipmentID,
					PackageCount:  claim.PackageCount,
				}
				if err := tx.Create(&item).Error; err != nil {
					return err
				}
			}

			if err := saveInShipmentCounts(tx, inbounds); err != nil {
				return err
			}
			touched = ids

			// Field deskriptif yang tidak diisi payload dipertahankan,
			// sama seperti update tanpa klaim baru
			applyOutShipmentFields(&out, payload)
			deriveOutShipment(&out, inbounds, payload.Claims)
			if payload.ExportDate != "" {
				out.ExportDate = payload.ExportDate
			}
		} else {
			// Repair-on-save: pastikan flag exported InShipment tertaut
			// konsisten dengan counter-nya
			ids := make([]int64, 0, len(out.Items))
			for _, item := range out.Items {
				ids = append(ids, item.InShipmentID)
			}
			if len(ids) > 0 {
				inbounds, err := r.lockInShipments(tx, ids)
				if err != nil {
					return err
				}
				if err := saveInShipmentCounts(tx, inbounds); err != nil {
					return err
				}
				touched = ids
			}

			applyOutShipmentFields(&out, payload)
			if payload.ExportDate != "" {
				out.ExportDate = payload.ExportDate
			}
		}

		if out.ExportDate == "" {
			out.ExportDate = time.Now().Format("2006-01-02")
		}

		if err := tx.Model(&models.OutShipment{}).Where("id = ?", out.ID).
			Omit("id", "created_at").Updates(outShipmentColumns(&out)).Error; err != nil {
			return err
		}

		out.Items = nil
		return tx.Preload("Items.InShipment").First(&out, out.ID).Error
	})
	if err != nil {
		return nil, err
	}

	r.publish("out_shipment", "updated", out.ID)
	for _, inID := range touched {
		r.publish("in_shipment", "updated", inID)
	}
	r.publishStats()
	return &out, nil
}

// applyOutShipmentFields menimpa field deskriptif dengan nilai payload
// yang tidak kosong (update tanpa klaim baru).
func applyOutShipmentFields(out *models.OutShipment, payload *OutShipmentPayload) {
	if payload.BillNumber != "" {
		out.BillNumber = payload.BillNumber
	}
	if payload.SubBillNumber != "" {
		out.SubBillNumber = payload.SubBillNumber
	}
	if payload.CompanyName != "" {
		out.CompanyName = payload.CompanyName
	}
	if payload.Destination != "" {
		out.Destination = payload.Destination
	}
	if payload.CustomsCertificate != "" {
		out.CustomsCertificate = payload.CustomsCertificate
	}
	if payload.ContractStatus != "" {
		out.ContractStatus = payload.ContractStatus
	}
	if payload.ArrivalDate != "" {
		out.ArrivalDate = payload.ArrivalDate
	}
	if payload.DisbursementDate != "" {
		out.DisbursementDate = payload.DisbursementDate
	}
	if payload.ReceiverName != "" {
		out.ReceiverName = payload.ReceiverName
	}
}

func outShipmentColumns(out *models.OutShipment) map[string]interface{} {
	return map[string]interface{}{
		"bill_number":         out.BillNumber,
		"sub_bill_number":     out.SubBillNumber,
		"company_name":        out.CompanyName,
		"destination":         out.Destination,
		"package_count":       out.PackageCount,
		"weight":              out.Weight,
		"payment_fees":        out.PaymentFees,
		"ground_fees":         out.GroundFees,
		"customs_certificate": out.CustomsCertificate,
		"contract_status":     out.ContractStatus,
		"arrival_date":        out.ArrivalDate,
		"export_date":         out.ExportDate,
		"disbursement_date":   out.DisbursementDate,
		"receiver_name":       out.ReceiverName,
	}
}

// DeleteOutShipment menghapus shipment keluar dan mengembalikan klaim
// tiap InShipment tertaut. Set link dibaca dulu karena barisnya ikut
// terhapus bersama induknya.
func (r *ShipmentRepository) DeleteOutShipment(id int64) error {
	var released []int64
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var out models.OutShipment
		if err := tx.Preload("Items").First(&out, id).Error; err != nil {
			return err
		}

		ids := make([]int64, 0, len(out.Items))
		for _, item := range out.Items {
			ids = append(ids, item.InShipmentID)
		}

		if len(ids) > 0 {
			inbounds, err := r.lockInShipments(tx, ids)
			if err != nil {
				return err
			}
			for _, item := range out.Items {
				in, ok := inbounds[item.InShipmentID]
				if !ok {
					continue
				}
				in.ExportedCount -= item.PackageCount
				if in.ExportedCount < 0 {
					in.ExportedCount = 0
				}
			}
			if err := saveInShipmentCounts(tx, inbounds); err != nil {
				return err
			}
			released = ids
		}

		if err := tx.Where("out_shipment_id = ?", out.ID).Delete(&models.OutShipmentItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.OutShipment{}, out.ID).Error
	})
	if err != nil {
		return err
	}

	r.publish("out_shipment", "deleted", id)
	for _, inID := range released {
		r.publish("in_shipment", "updated", inID)
	}
	r.publishStats()
	return nil
}

// CreateInShipment menyimpan shipment masuk baru. Counter klaim selalu
// mulai dari nol.
func (r *ShipmentRepository) CreateInShipment(in *models.InShipment) error {
	in.ExportedCount = 0
	in.Exported = false
	if err := r.db.Create(in).Error; err != nil {
		return err
	}

	r.publish("in_shipment", "created", in.ID)
	r.publishStats()
	return nil
}

// UpdateInShipment memperbarui field deskriptif shipment masuk.
// exported dan exported_count dimiliki engine, tidak ikut diubah.
func (r *ShipmentRepository) UpdateInShipment(id int64, columns map[string]interface{}) (*models.InShipment, error) {
	delete(columns, "exported")
	delete(columns, "exported_count")

	var in models.InShipment
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&in, id).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.InShipment{}).Where("id = ?", id).Updates(columns).Error; err != nil {
			return err
		}
		return tx.First(&in, id).Error
	})
	if err != nil {
		return nil, err
	}

	r.publish("in_shipment", "updated", in.ID)
	r.publishStats()
	return &in, nil
}

// DeleteInShipment menghapus shipment masuk, kecuali masih direferensikan
// shipment keluar (protect-on-delete).
func (r *ShipmentRepository) DeleteInShipment(id int64) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var in models.InShipment
		if err := tx.First(&in, id).Error; err != nil {
			return err
		}

		var refs int64
		if err := tx.Model(&models.OutShipmentItem{}).Where("in_shipment_id = ?", id).Count(&refs).Error; err != nil {
			return err
		}
		if refs > 0 {
			return &ProtectedReferenceError{Model: "in_shipment", ID: id, References: refs}
		}

		return tx.Delete(&models.InShipment{}, id).Error
	})
	if err != nil {
		return err
	}

	r.publish("in_shipment", "deleted", id)
	r.publishStats()
	return nil
}

func (r *ShipmentRepository) publish(model string, action string, id int64) {
	if r.notifier != nil {
		r.notifier.PublishShipmentEvent(model, action, id)
	}
}

func (r *ShipmentRepository) publishStats() {
	if r.notifier != nil {
		r.notifier.PublishStatsChanged()
	}
}
