package controllers

import (
	"fmt"
	"net/http"
	"strings"

	"freight-app/models"
	"freight-app/repositories"

	"github.com/go-playground/validator"
	"github.com/gofiber/fiber/v2"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

type InShipmentController struct {
	DB       *gorm.DB
	Notifier repositories.Notifier
}

func NewInShipmentController(db *gorm.DB, notifier repositories.Notifier) *InShipmentController {
	return &InShipmentController{DB: db, Notifier: notifier}
}

type InShipmentForm struct {
	BillNumber         string  `json:"bill_number" validate:"required"`
	SubBillNumber      string  `json:"sub_bill_number" validate:"required"`
	CompanyName        string  `json:"company_name" validate:"required"`
	Destination        string  `json:"destination" validate:"required"`
	PackageCount       int     `json:"package_count" validate:"required,min=1"`
	Weight             float64 `json:"weight" validate:"min=0"`
	PaymentFees        float64 `json:"payment_fees" validate:"min=0"`
	GroundFees         float64 `json:"ground_fees" validate:"min=0"`
	CustomsCertificate string  `json:"customs_certificate"`
	ContractStatus     string  `json:"contract_status"`
	ArrivalDate        string  `json:"arrival_date" validate:"required"`
	DisbursementDate   string  `json:"disbursement_date"`
	ReceiverName       string  `json:"receiver_name" validate:"required"`
}

func (c *InShipmentController) CreateInShipment(ctx *fiber.Ctx) error {
	var form InShipmentForm
	if err := ctx.BodyParser(&form); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid payload",
			"error":   err.Error(),
		})
	}

	// Validasi input menggunakan validator
	validate := validator.New()
	if err := validate.Struct(form); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": err.Error()})
	}

	shipment := models.InShipment{
		BillNumber:         form.BillNumber,
		SubBillNumber:      form.SubBillNumber,
		CompanyName:        form.CompanyName,
		Destination:        form.Destination,
		PackageCount:       form.PackageCount,
		Weight:             form.Weight,
		PaymentFees:        form.PaymentFees,
		GroundFees:         form.GroundFees,
		CustomsCertificate: form.CustomsCertificate,
		ContractStatus:     form.ContractStatus,
		ArrivalDate:        form.ArrivalDate,
		DisbursementDate:   form.DisbursementDate,
		ReceiverName:       form.ReceiverName,
	}

	repo := repositories.NewShipmentRepository(c.DB, c.Notifier)
	if err := repo.CreateInShipment(&shipment); err != nil {
		return errorResponse(ctx, err)
	}

	return ctx.Status(fiber.StatusOK).JSON(fiber.Map{"success": true, "message": "Inbound shipment created successfully", "data": shipment})
}

var inShipmentOrderings = map[string]string{
	"arrival_date":      "arrival_date",
	"disbursement_date": "disbursement_date",
	"payment_fees":      "payment_fees",
	"created_at":        "created_at",
}

func orderClause(orderings map[string]string, param string, fallback string) string {
	direction := "ASC"
	if strings.HasPrefix(param, "-") {
		direction = "DESC"
		param = strings.TrimPrefix(param, "-")
	}
	column, ok := orderings[param]
	if !ok {
		return fallback
	}
	return column + " " + direction
}

func (c *InShipmentController) GetAllInShipments(ctx *fiber.Ctx) error {
	query := c.DB.Model(&models.InShipment{})

	if billNumber := ctx.Query("bill_number"); billNumber != "" {
		query = query.Where("LOWER(bill_number) = LOWER(?)", billNumber)
	}
	if subBillNumber := ctx.Query("sub_bill_number"); subBillNumber != "" {
		query = query.Where("LOWER(sub_bill_number) = LOWER(?)", subBillNumber)
	}
	if export := ctx.Query("export"); export != "" {
		query = query.Where("exported = ?", export == "true")
	}
	if search := ctx.Query("search"); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where(
			"LOWER(company_name) LIKE ? OR LOWER(sub_bill_number) LIKE ? OR LOWER(bill_number) LIKE ? OR LOWER(destination) LIKE ? OR LOWER(contract_status) LIKE ?",
			pattern, pattern, pattern, pattern, pattern,
		)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	page := ctx.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	limit := ctx.QueryInt("limit", 50)
	if limit < 1 {
		limit = 50
	}

	order := orderClause(inShipmentOrderings, ctx.Query("ordering"), "created_at DESC")

	var shipments []models.InShipment
	if err := query.Order(order).Offset((page - 1) * limit).Limit(limit).Find(&shipments).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": "Inbound shipments found",
		"data":    shipments,
		"total":   total,
		"page":    page,
		"limit":   limit,
	})
}

func (c *InShipmentController) GetInShipmentByID(ctx *fiber.Ctx) error {
	id, err := ctx.ParamsInt("id")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid ID"})
	}

	var shipment models.InShipment
	if err := c.DB.First(&shipment, id).Error; err != nil {
		return errorResponse(ctx, err)
	}

	return ctx.Status(fiber.StatusOK).JSON(fiber.Map{"success": true, "message": "Inbound shipment found", "data": shipment})
}

func (c *InShipmentController) UpdateInShipment(ctx *fiber.Ctx) error {
	id, err := ctx.ParamsInt("id")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid ID"})
	}

	var form InShipmentForm
	if err := ctx.BodyParser(&form); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid payload",
			"error":   err.Error(),
		})
	}

	validate := validator.New()
	if err := validate.Struct(form); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": err.Error()})
	}

	columns := map[string]interface{}{
		"bill_number":         form.BillNumber,
		"sub_bill_number":     form.SubBillNumber,
		"company_name":        form.CompanyName,
		"destination":         form.Destination,
		"package_count":       form.PackageCount,
		"weight":              form.Weight,
		"payment_fees":        form.PaymentFees,
		"ground_fees":         form.GroundFees,
		"customs_certificate": form.CustomsCertificate,
		"contract_status":     form.ContractStatus,
		"arrival_date":        form.ArrivalDate,
		"disbursement_date":   form.DisbursementDate,
		"receiver_name":       form.ReceiverName,
	}

	repo := repositories.NewShipmentRepository(c.DB, c.Notifier)
	shipment, err := repo.UpdateInShipment(int64(id), columns)
	if err != nil {
		return errorResponse(ctx, err)
	}

	return ctx.Status(fiber.StatusOK).JSON(fiber.Map{"success": true, "message": "Inbound shipment updated successfully", "data": shipment})
}

func (c *InShipmentController) DeleteInShipment(ctx *fiber.Ctx) error {
	id, err := ctx.ParamsInt("id")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid ID"})
	}

	repo := repositories.NewShipmentRepository(c.DB, c.Notifier)
	if err := repo.DeleteInShipment(int64(id)); err != nil {
		return errorResponse(ctx, err)
	}

	return ctx.Status(fiber.StatusOK).JSON(fiber.Map{"success": true, "message": "Inbound shipment deleted successfully"})
}

func (c *InShipmentController) GetStats(ctx *fiber.Ctx) error {
	stats, err := repositories.NewStatsRepository(c.DB).InShipmentStats()
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.Status(fiber.StatusOK).JSON(fiber.Map{"success": true, "message": "Inbound shipment stats", "data": stats})
}

func (c *InShipmentController) ExportExcel(ctx *fiber.Ctx) error {
	var shipments []models.InShipment
	if err := c.DB.Order("created_at DESC").Find(&shipments).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	// Buat file Excel baru
	f := excelize.NewFile()
	sheet := "Sheet1"

	// Buat header
	f.SetCellValue(sheet, "A1", "Sub Bill Number")
	f.SetCellValue(sheet, "B1", "Bill Number")
	f.SetCellValue(sheet, "C1", "Company")
	f.SetCellValue(sheet, "D1", "Destination")
	f.SetCellValue(sheet, "E1", "Packages")
	f.SetCellValue(sheet, "F1", "Exported Packages")
	f.SetCellValue(sheet, "G1", "Weight")
	f.SetCellValue(sheet, "H1", "Payment Fees")
	f.SetCellValue(sheet, "I1", "Ground Fees")
	f.SetCellValue(sheet, "J1", "Arrival Date")
	f.SetCellValue(sheet, "K1", "Exported")

	// Isi data ke dalam sheet
	for i, item := range shipments {
		f.SetCellValue(sheet, fmt.Sprintf("A%d", i+2), item.SubBillNumber)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", i+2), item.BillNumber)
		f.SetCellValue(sheet, fmt.Sprintf("C%d", i+2), item.CompanyName)
		f.SetCellValue(sheet, fmt.Sprintf("D%d", i+2), item.Destination)
		f.SetCellValue(sheet, fmt.Sprintf("E%d", i+2), item.PackageCount)
		f.SetCellValue(sheet, fmt.Sprintf("F%d", i+2), item.ExportedCount)
		f.SetCellValue(sheet, fmt.Sprintf("G%d", i+2), item.Weight)
		f.SetCellValue(sheet, fmt.Sprintf("H%d", i+2), item.PaymentFees)
		f.SetCellValue(sheet, fmt.Sprintf("I%d", i+2), item.GroundFees)
		f.SetCellValue(sheet, fmt.Sprintf("J%d", i+2), item.ArrivalDate)
		f.SetCellValue(sheet, fmt.Sprintf("K%d", i+2), item.Exported)
	}

	// Simpan file ke dalam response
	ctx.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	ctx.Set("Content-Disposition", `attachment; filename="in_shipments.xlsx"`)

	if err := f.Write(ctx.Response().BodyWriter()); err != nil {
		return ctx.Status(http.StatusInternalServerError).SendString("Failed to generate Excel")
	}

	return nil
}
