package repositories

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// ShipmentStats adalah agregat satu koleksi shipment
type ShipmentStats struct {
	TotalShipments   int64     `json:"total_shipments"`
	TotalWeight      float64   `json:"total_weight"`
	TotalPaymentFees float64   `json:"total_payment_fees"`
	TotalGroundFees  float64   `json:"total_ground_fees"`
	LastUpdated      time.Time `json:"last_updated"`
}

type StatsRepository struct {
	db *gorm.DB
}

func NewStatsRepository(db *gorm.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

func (r *StatsRepository) InShipmentStats() (*ShipmentStats, error) {
	return r.stats("in_shipments")
}

func (r *StatsRepository) OutShipmentStats() (*ShipmentStats, error) {
	return r.stats("out_shipments")
}

// stats membaca agregat langsung dari tabel, tanpa cache. Koleksi kosong
// menghasilkan count dan sum nol; last_updated diisi waktu sekarang
// supaya klien tidak perlu menangani null.
func (r *StatsRepository) stats(table string) (*ShipmentStats, error) {
	var row struct {
		TotalShipments   int64
		TotalWeight      float64
		TotalPaymentFees float64
		TotalGroundFees  float64
		LastUpdated      *time.Time
	}

	sql := fmt.Sprintf(`SELECT
			COUNT(id) AS total_shipments,
			COALESCE(SUM(weight), 0) AS total_weight,
			COALESCE(SUM(payment_fees), 0) AS total_payment_fees,
			COALESCE(SUM(ground_fees), 0) AS total_ground_fees,
			MAX(updated_at) AS last_updated
		FROM %s`, table)

	if err := r.db.Raw(sql).Scan(&row).Error; err != nil {
		return nil, err
	}

	stats := &ShipmentStats{
		TotalShipments:   row.TotalShipments,
		TotalWeight:      row.TotalWeight,
		TotalPaymentFees: row.TotalPaymentFees,
		TotalGroundFees:  row.TotalGroundFees,
		LastUpdated:      time.Now(),
	}
	if row.LastUpdated != nil {
		stats.LastUpdated = *row.LastUpdated
	}
	return stats, nil
}
