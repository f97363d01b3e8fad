package repositories

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"freight-app/controllers/idgen"
	"freight-app/migration"
	"freight-app/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestMain(m *testing.M) {
	idgen.Init()
	os.Exit(m.Run())
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, migration.Migrate(db))
	return db
}

type recordingNotifier struct {
	events []string
	stats  int
}

func (n *recordingNotifier) PublishShipmentEvent(model string, action string, id int64) {
	n.events = append(n.events, model+":"+action)
}

func (n *recordingNotifier) PublishStatsChanged() {
	n.stats++
}

func seedInShipment(t *testing.T, db *gorm.DB, subBill string, packages int) *models.InShipment {
	t.Helper()

	in := &models.InShipment{
		BillNumber:    "BL-1001",
		SubBillNumber: subBill,
		CompanyName:   "Acme Freight",
		Destination:   "Aden",
		PackageCount:  packages,
		Weight:        250.50,
		PaymentFees:   120,
		GroundFees:    80,
		ArrivalDate:   "2025-03-01",
		ReceiverName:  "Hamid",
	}
	require.NoError(t, db.Create(in).Error)
	return in
}

func reload(t *testing.T, db *gorm.DB, id int64) *models.InShipment {
	t.Helper()

	var in models.InShipment
	require.NoError(t, db.First(&in, id).Error)
	return &in
}

func TestCreateOutShipmentPartialClaim(t *testing.T) {
	db := newTestDB(t)
	repo := NewShipmentRepository(db, nil)

	in := seedInShipment(t, db, "SUB-001", 100)

	out, err := repo.CreateOutShipment(&OutShipmentPayload{
		Claims: []OutShipmentClaim{{InShipmentID: in.ID, PackageCount: 40}},
	})
	require.NoError(t, err)

	updated := reload(t, db, in.ID)
	assert.Equal(t, 40, updated.ExportedCount)
	assert.False(t, updated.Exported)

	assert.Equal(t, 40, out.PackageCount)
	assert.Equal(t, "BL-1001", out.BillNumber)
	assert.Equal(t, "Acme Freight", out.CompanyName)
	assert.Equal(t, time.Now().Format("2006-01-02"), out.ExportDate)
	// biaya diprorata: 40% dari shipment masuk
	assert.InDelta(t, 100.20, out.Weight, 0.001)
	assert.InDelta(t, 48.0, out.PaymentFees, 0.001)
	assert.InDelta(t, 32.0, out.GroundFees, 0.001)

	require.Len(t, out.Items, 1)
	assert.Equal(t, in.ID, out.Items[0].InShipmentID)
	assert.Equal(t, 40, out.Items[0].PackageCount)
	require.NotNil(t, out.Items[0].InShipment)
	assert.Equal(t, "SUB-001", out.Items[0].InShipment.SubBillNumber)
}

func TestCreateOutShipmentExceedsRemaining(t *testing.T) {
	db := newTestDB(t)
	repo := NewShipmentRepository(db, nil)

	in := seedInShipment(t, db, "SUB-001", 100)

	_, err := repo.CreateOutShipment(&OutShipmentPayload{
		Claims: []OutShipmentClaim{{InShipmentID: in.ID, PackageCount: 40}},
	})
	require.NoError(t, err)

	_, err = repo.CreateOutShipment(&OutShipmentPayload{
		Claims: []OutShipmentClaim{{InShipmentID: in.ID, PackageCount: 70}},
	})

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Contains(t, validationErr.Message, "exceeds remaining (60)")

	// state tidak berubah
	updated := reload(t, db, in.ID)
	assert.Equal(t, 40, updated.ExportedCount)

	var count int64
	require.NoError(t, db.Model(&models.OutShipment{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestCreateOutShipmentFullClaimFlipsExported(t *testing.T) {
	db := newTestDB(t)
	repo := NewShipmentRepository(db, nil)

	in := seedInShipment(t, db, "SUB-001", 100)

	_, err := repo.CreateOutShipment(&OutShipmentPayload{
		Claims: []OutShipmentClaim{{InShipmentID: in.ID, PackageCount: 100}},
	})
	require.NoError(t, err)

	updated := reload(t, db, in.ID)
	assert.Equal(t, 100, updated.ExportedCount)
	assert.True(t, updated.Exported)

	_, err = repo.CreateOutShipment(&OutShipmentPayload{
		Claims: []OutShipmentClaim{{InShipmentID: in.ID, PackageCount: 1}},
	})
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Contains(t, validationErr.Message, "exceeds remaining (0)")
}

func TestCreateOutShipmentRequiresClaims(t *testing.T) {
	db := newTestDB(t)
	repo := NewShipmentRepository(db, nil)

	_, err := repo.CreateOutShipment(&OutShipmentPayload{})

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "claims", validationErr.Field)
}

func TestCreateOutShipmentUnknownInbound(t *testing.T) {
	db := newTestDB(t)
	repo := NewShipmentRepository(db, nil)

	_, err := repo.CreateOutShipment(&OutShipmentPayload{
		Claims: []OutShipmentClaim{{InShipmentID: 999, PackageCount: 1}},
	})
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestCreateOutShipmentDuplicateClaimTarget(t *testing.T) {
	db := newTestDB(t)
	repo := NewShipmentRepository(db, nil)

	in := seedInShipment(t, db, "SUB-001", 100)

	_, err := repo.CreateOutShipment(&OutShipmentPayload{
		Claims: []OutShipmentClaim{
			{InShipmentID: in.ID, PackageCount: 10},
			{InShipmentID: in.ID, PackageCount: 10},
		},
	})

	var conflictErr *ConflictError
	assert.ErrorAs(t, err, &conflictErr)
}

func TestCreateOutShipmentMultipleInbounds(t *testing.T) {
	db := newTestDB(t)
	notifier := &recordingNotifier{}
	repo := NewShipmentRepository(db, notifier)

	first := seedInShipment(t, db, "SUB-001", 100)
	second := seedInShipment(t, db, "SUB-002", 50)

	out, err := repo.CreateOutShipment(&OutShipmentPayload{
		Claims: []OutShipmentClaim{
			{InShipmentID: first.ID, PackageCount: 30},
			{InShipmentID: second.ID, PackageCount: 50},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 80, out.PackageCount)
	assert.Len(t, out.Items, 2)
	assert.Equal(t, "SUB-001", out.SubBillNumber)

	assert.Equal(t, 30, reload(t, db, first.ID).ExportedCount)
	assert.False(t, reload(t, db, first.ID).Exported)
	assert.Equal(t, 50, reload(t, db, second.ID).ExportedCount)
	assert.True(t, reload(t, db, second.ID).Exported)

	assert.Contains(t, notifier.events, "out_shipment:created")
	assert.Contains(t, notifier.events, "in_shipment:updated")
	assert.Equal(t, 1, notifier.stats)
}

func TestCreateOutShipmentNoPartialWrites(t *testing.T) {
	db := newTestDB(t)
	repo := NewShipmentRepository(db, nil)

	first := seedInShipment(t, db, "SUB-001", 100)
	second := seedInShipment(t, db, "SUB-002", 50)

	_, err := repo.CreateOutShipment(&OutShipmentPayload{
		Claims: []OutShipmentClaim{
			{InShipmentID: first.ID, PackageCount: 40},
			{InShipmentID: second.ID, PackageCount: 70},
		},
	})

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)

	assert.Equal(t, 0, reload(t, db, first.ID).ExportedCount)
	assert.Equal(t, 0, reload(t, db, second.ID).ExportedCount)

	var count int64
	require.NoError(t, db.Model(&models.OutShipment{}).Count(&count).Error)
	assert.EqualValues(t, 0, count)
}

// Dua create yang bersaing memperebutkan kapasitas penuh satu InShipment
// tidak boleh sama-sama lolos: berapa pun yang menang, counter tidak
// boleh melebihi package_count.
func TestCreateOutShipmentConcurrentClaims(t *testing.T) {
	db := newTestDB(t)
	repo := NewShipmentRepository(db, nil)

	in := seedInShipment(t, db, "SUB-001", 10)

	results := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.CreateOutShipment(&OutShipmentPayload{
				Claims: []OutShipmentClaim{{InShipmentID: in.ID, PackageCount: 10}},
			})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	// yang kalah boleh gagal karena validasi sisa kapasitas maupun
	// lock database, tapi tidak boleh dua-duanya berhasil
	successes := 0
	for err := range results {
		if err == nil {
			successes++
		}
	}
	assert.LessOrEqual(t, successes, 1)

	updated := reload(t, db, in.ID)
	assert.LessOrEqual(t, updated.ExportedCount, updated.PackageCount)
	assert.Equal(t, successes*10, updated.ExportedCount)

	var count int64
	require.NoError(t, db.Model(&models.OutShipment{}).Count(&count).Error)
	assert.EqualValues(t, successes, count)
}

func TestDeleteOutShipmentReleasesClaims(t *testing.T) {
	db := newTestDB(t)
	repo := NewShipmentRepository(db, nil)

	first := seedInShipment(t, db, "SUB-001", 100)
	second := seedInShipment(t, db, "SUB-002", 50)

	out, err := repo.CreateOutShipment(&OutShipmentPayload{
		Claims: []OutShipmentClaim{
			{InShipmentID: first.ID, PackageCount: 40},
			{InShipmentID: second.ID, PackageCount: 50},
		},
	})
	require.NoError(t, err)
	assert.True(t, reload(t, db, second.ID).Exported)

	require.NoError(t, repo.DeleteOutShipment(out.ID))

	// round-trip: state kembali seperti sebelum create
	assert.Equal(t, 0, reload(t, db, first.ID).ExportedCount)
	assert.False(t, reload(t, db, first.ID).Exported)
	assert.Equal(t, 0, reload(t, db, second.ID).ExportedCount)
	assert.False(t, reload(t, db, second.ID).Exported)

	var items int64
	require.NoError(t, db.Model(&models.OutShipmentItem{}).Count(&items).Error)
	assert.EqualValues(t, 0, items)

	err = db.First(&models.OutShipment{}, out.ID).Error
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestDeleteInShipmentProtected(t *testing.T) {
	db := newTestDB(t)
	repo := NewShipmentRepository(db, nil)

	in := seedInShipment(t, db, "SUB-001", 100)

	out, err := repo.CreateOutShipment(&OutShipmentPayload{
		Claims: []OutShipmentClaim{{InShipmentID: in.ID, PackageCount: 10}},
	})
	require.NoError(t, err)

	err = repo.DeleteInShipment(in.ID)
	var protectedErr *ProtectedReferenceError
	require.ErrorAs(t, err, &protectedErr)
	assert.EqualValues(t, 1, protectedErr.References)

	// setelah shipment keluar dihapus, penghapusan diizinkan
	require.NoError(t, repo.DeleteOutShipment(out.ID))
	require.NoError(t, repo.DeleteInShipment(in.ID))

	err = db.First(&models.InShipment{}, in.ID).Error
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestDeleteInShipmentUnreferenced(t *testing.T) {
	db := newTestDB(t)
	notifier := &recordingNotifier{}
	repo := NewShipmentRepository(db, notifier)

	in := seedInShipment(t, db, "SUB-001", 100)
	require.NoError(t, repo.DeleteInShipment(in.ID))

	assert.Contains(t, notifier.events, "in_shipment:deleted")
}

func TestUpdateOutShipmentReplacesClaims(t *testing.T) {
	db := newTestDB(t)
	repo := NewShipmentRepository(db, nil)

	first := seedInShipment(t, db, "SUB-001", 100)
	second := seedInShipment(t, db, "SUB-002", 50)

	out, err := repo.CreateOutShipment(&OutShipmentPayload{
		Claims: []OutShipmentClaim{{InShipmentID: first.ID, PackageCount: 40}},
	})
	require.NoError(t, err)

	updated, err := repo.UpdateOutShipment(out.ID, &OutShipmentPayload{
		Claims: []OutShipmentClaim{{InShipmentID: second.ID, PackageCount: 20}},
	})
	require.NoError(t, err)

	// klaim lama dilepas, klaim baru diterapkan
	assert.Equal(t, 0, reload(t, db, first.ID).ExportedCount)
	assert.Equal(t, 20, reload(t, db, second.ID).ExportedCount)

	require.Len(t, updated.Items, 1)
	assert.Equal(t, second.ID, updated.Items[0].InShipmentID)
	assert.Equal(t, 20, updated.PackageCount)
}

func TestUpdateOutShipmentReclaimsSameInbound(t *testing.T) {
	db := newTestDB(t)
	repo := NewShipmentRepository(db, nil)

	in := seedInShipment(t, db, "SUB-001", 100)

	out, err := repo.CreateOutShipment(&OutShipmentPayload{
		Claims: []OutShipmentClaim{{InShipmentID: in.ID, PackageCount: 40}},
	})
	require.NoError(t, err)

	// naik ke 100 valid karena klaim lama dilepas dulu
	_, err = repo.UpdateOutShipment(out.ID, &OutShipmentPayload{
		Claims: []OutShipmentClaim{{InShipmentID: in.ID, PackageCount: 100}},
	})
	require.NoError(t, err)

	updated := reload(t, db, in.ID)
	assert.Equal(t, 100, updated.ExportedCount)
	assert.True(t, updated.Exported)

	// melebihi kapasitas total tetap ditolak
	_, err = repo.UpdateOutShipment(out.ID, &OutShipmentPayload{
		Claims: []OutShipmentClaim{{InShipmentID: in.ID, PackageCount: 101}},
	})
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, 100, reload(t, db, in.ID).ExportedCount)
}

func TestUpdateOutShipmentRepairOnSave(t *testing.T) {
	db := newTestDB(t)
	repo := NewShipmentRepository(db, nil)

	in := seedInShipment(t, db, "SUB-001", 100)

	out, err := repo.CreateOutShipment(&OutShipmentPayload{
		Claims: []OutShipmentClaim{{InShipmentID: in.ID, PackageCount: 100}},
	})
	require.NoError(t, err)

	// simulasikan drift: flag exported diubah di luar engine
	require.NoError(t, db.Model(&models.InShipment{}).Where("id = ?", in.ID).Update("exported", false).Error)

	updated, err := repo.UpdateOutShipment(out.ID, &OutShipmentPayload{ReceiverName: "Salim"})
	require.NoError(t, err)

	assert.True(t, reload(t, db, in.ID).Exported)
	assert.Equal(t, "Salim", updated.ReceiverName)
	assert.Equal(t, out.ExportDate, updated.ExportDate)
	require.Len(t, updated.Items, 1)
}

func TestUpdateOutShipmentClaimsKeepsDescriptiveFields(t *testing.T) {
	db := newTestDB(t)
	repo := NewShipmentRepository(db, nil)

	in := seedInShipment(t, db, "SUB-001", 100)

	out, err := repo.CreateOutShipment(&OutShipmentPayload{
		DisbursementDate: "2025-04-20",
		ReceiverName:     "Salim",
		Claims:           []OutShipmentClaim{{InShipmentID: in.ID, PackageCount: 10}},
	})
	require.NoError(t, err)
	assert.True(t, out.Status)

	// klaim baru tanpa field deskriptif tidak menghapus nilai lama
	updated, err := repo.UpdateOutShipment(out.ID, &OutShipmentPayload{
		Claims: []OutShipmentClaim{{InShipmentID: in.ID, PackageCount: 25}},
	})
	require.NoError(t, err)

	assert.Equal(t, "2025-04-20", updated.DisbursementDate)
	assert.True(t, updated.Status)
	assert.Equal(t, "Salim", updated.ReceiverName)
	assert.Equal(t, 25, updated.PackageCount)
}

func TestUpdateOutShipmentExportDatePrecedence(t *testing.T) {
	db := newTestDB(t)
	repo := NewShipmentRepository(db, nil)

	in := seedInShipment(t, db, "SUB-001", 100)

	out, err := repo.CreateOutShipment(&OutShipmentPayload{
		ExportDate: "2025-04-10",
		Claims:     []OutShipmentClaim{{InShipmentID: in.ID, PackageCount: 10}},
	})
	require.NoError(t, err)
	assert.Equal(t, "2025-04-10", out.ExportDate)

	updated, err := repo.UpdateOutShipment(out.ID, &OutShipmentPayload{
		Claims: []OutShipmentClaim{{InShipmentID: in.ID, PackageCount: 15}},
	})
	require.NoError(t, err)
	assert.Equal(t, "2025-04-10", updated.ExportDate)

	updated, err = repo.UpdateOutShipment(out.ID, &OutShipmentPayload{ExportDate: "2025-05-01"})
	require.NoError(t, err)
	assert.Equal(t, "2025-05-01", updated.ExportDate)
}

func TestUpdateInShipmentIgnoresEngineColumns(t *testing.T) {
	db := newTestDB(t)
	repo := NewShipmentRepository(db, nil)

	in := seedInShipment(t, db, "SUB-001", 100)

	updated, err := repo.UpdateInShipment(in.ID, map[string]interface{}{
		"receiver_name":  "Salim",
		"exported":       true,
		"exported_count": 99,
	})
	require.NoError(t, err)

	assert.Equal(t, "Salim", updated.ReceiverName)
	assert.Equal(t, 0, updated.ExportedCount)
	assert.False(t, updated.Exported)
}

func TestCreateInShipmentDuplicateSubBill(t *testing.T) {
	db := newTestDB(t)
	repo := NewShipmentRepository(db, nil)

	seedInShipment(t, db, "SUB-001", 100)

	err := repo.CreateInShipment(&models.InShipment{
		BillNumber:    "BL-2002",
		SubBillNumber: "SUB-001",
		PackageCount:  10,
		ArrivalDate:   "2025-03-02",
	})
	assert.True(t, errors.Is(err, gorm.ErrDuplicatedKey))
}

func TestCreateInShipmentResetsCounters(t *testing.T) {
	db := newTestDB(t)
	repo := NewShipmentRepository(db, nil)

	in := &models.InShipment{
		BillNumber:    "BL-3003",
		SubBillNumber: "SUB-009",
		PackageCount:  10,
		ExportedCount: 7,
		Exported:      true,
		ArrivalDate:   "2025-03-02",
	}
	require.NoError(t, repo.CreateInShipment(in))

	stored := reload(t, db, in.ID)
	assert.Equal(t, 0, stored.ExportedCount)
	assert.False(t, stored.Exported)
}
