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

type OutShipmentController struct {
	DB       *gorm.DB
	Notifier repositories.Notifier
}

func NewOutShipmentController(db *gorm.DB, notifier repositories.Notifier) *OutShipmentController {
	return &OutShipmentController{DB: db, Notifier: notifier}
}

func (c *OutShipmentController) CreateOutShipment(ctx *fiber.Ctx) error {
	var payload repositories.OutShipmentPayload
	if err := ctx.BodyParser(&payload); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid payload",
			"error":   err.Error(),
		})
	}

	// Validasi input menggunakan validator
	validate := validator.New()
	if err := validate.Struct(payload); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": err.Error()})
	}

	repo := repositories.NewShipmentRepository(c.DB, c.Notifier)
	shipment, err := repo.CreateOutShipment(&payload)
	if err != nil {
		return errorResponse(ctx, err)
	}

	return ctx.Status(fiber.StatusOK).JSON(fiber.Map{"success": true, "message": "Outbound shipment created successfully", "data": shipment})
}

var outShipmentOrderings = map[string]string{
	"export_date":       "export_date",
	"disbursement_date": "disbursement_date",
	"arrival_date":      "arrival_date",
	"payment_fees":      "payment_fees",
	"created_at":        "created_at",
}

func (c *OutShipmentController) GetAllOutShipments(ctx *fiber.Ctx) error {
	query := c.DB.Model(&models.OutShipment{})

	// Filter bill_number mencocokkan bill number InShipment yang tertaut
	if billNumber := ctx.Query("bill_number"); billNumber != "" {
		query = query.Where(
			"id IN (?)",
			c.DB.Model(&models.OutShipmentItem{}).
				Select("out_shipment_items.out_shipment_id").
				Joins("JOIN in_shipments ON in_shipments.id = out_shipment_items.in_shipment_id").
				Where("LOWER(in_shipments.bill_number) = LOWER(?)", billNumber),
		)
	}
	if search := ctx.Query("search"); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		linked := c.DB.Model(&models.OutShipmentItem{}).
			Select("out_shipment_items.out_shipment_id").
			Joins("JOIN in_shipments ON in_shipments.id = out_shipment_items.in_shipment_id").
			Where("LOWER(in_shipments.bill_number) LIKE ?", pattern)
		query = query.Where(
			"LOWER(company_name) LIKE ? OR LOWER(sub_bill_number) LIKE ? OR LOWER(bill_number) LIKE ? OR LOWER(destination) LIKE ? OR LOWER(contract_status) LIKE ? OR id IN (?)",
			pattern, pattern, pattern, pattern, pattern, linked,
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

	order := orderClause(outShipmentOrderings, ctx.Query("ordering"), "created_at DESC")

	var shipments []models.OutShipment
	if err := query.Preload("Items.InShipment").Order(order).Offset((page - 1) * limit).Limit(limit).Find(&shipments).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": "Outbound shipments found",
		"data":    shipments,
		"total":   total,
		"page":    page,
		"limit":   limit,
	})
}

func (c *OutShipmentController) GetOutShipmentByID(ctx *fiber.Ctx) error {
	id, err := ctx.ParamsInt("id")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid ID"})
	}

	var shipment models.OutShipment
	if err := c.DB.Preload("Items.InShipment").First(&shipment, id).Error; err != nil {
		return errorResponse(ctx, err)
	}

	return ctx.Status(fiber.StatusOK).JSON(fiber.Map{"success": true, "message": "Outbound shipment found", "data": shipment})
}

func (c *OutShipmentController) UpdateOutShipment(ctx *fiber.Ctx) error {
	id, err := ctx.ParamsInt("id")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid ID"})
	}

	var payload repositories.OutShipmentPayload
	if err := ctx.BodyParser(&payload); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid payload",
			"error":   err.Error(),
		})
	}

	validate := validator.New()
	if err := validate.Struct(payload); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": err.Error()})
	}

	repo := repositories.NewShipmentRepository(c.DB, c.Notifier)
	shipment, err := repo.UpdateOutShipment(int64(id), &payload)
	if err != nil {
		return errorResponse(ctx, err)
	}

	return ctx.Status(fiber.StatusOK).JSON(fiber.Map{"success": true, "message": "Outbound shipment updated successfully", "data": shipment})
}

func (c *OutShipmentController) DeleteOutShipment(ctx *fiber.Ctx) error {
	id, err := ctx.ParamsInt("id")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid ID"})
	}

	repo := repositories.NewShipmentRepository(c.DB, c.Notifier)
	if err := repo.DeleteOutShipment(int64(id)); err != nil {
		return errorResponse(ctx, err)
	}

	return ctx.Status(fiber.StatusOK).JSON(fiber.Map{"success": true, "message": "Outbound shipment deleted successfully"})
}

func (c *OutShipmentController) GetStats(ctx *fiber.Ctx) error {
	stats, err := repositories.NewStatsRepository(c.DB).OutShipmentStats()
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.Status(fiber.StatusOK).JSON(fiber.Map{"success": true, "message": "Outbound shipment stats", "data": stats})
}

func (c *OutShipmentController) ExportExcel(ctx *fiber.Ctx) error {
	var shipments []models.OutShipment
	if err := c.DB.Preload("Items.InShipment").Order("created_at DESC").Find(&shipments).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	f := excelize.NewFile()
	sheet := "Sheet1"

	f.SetCellValue(sheet, "A1", "Sub Bill Number")
	f.SetCellValue(sheet, "B1", "Bill Number")
	f.SetCellValue(sheet, "C1", "Company")
	f.SetCellValue(sheet, "D1", "Destination")
	f.SetCellValue(sheet, "E1", "Packages")
	f.SetCellValue(sheet, "F1", "Weight")
	f.SetCellValue(sheet, "G1", "Payment Fees")
	f.SetCellValue(sheet, "H1", "Ground Fees")
	f.SetCellValue(sheet, "I1", "Export Date")
	f.SetCellValue(sheet, "J1", "Linked Inbound Bills")

	for i, item := range shipments {
		linked := make([]string, 0, len(item.Items))
		for _, link := range item.Items {
			if link.InShipment != nil {
				linked = append(linked, link.InShipment.SubBillNumber)
			}
		}

		f.SetCellValue(sheet, fmt.Sprintf("A%d", i+2), item.SubBillNumber)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", i+2), item.BillNumber)
		f.SetCellValue(sheet, fmt.Sprintf("C%d", i+2), item.CompanyName)
		f.SetCellValue(sheet, fmt.Sprintf("D%d", i+2), item.Destination)
		f.SetCellValue(sheet, fmt.Sprintf("E%d", i+2), item.PackageCount)
		f.SetCellValue(sheet, fmt.Sprintf("F%d", i+2), item.Weight)
		f.SetCellValue(sheet, fmt.Sprintf("G%d", i+2), item.PaymentFees)
		f.SetCellValue(sheet, fmt.Sprintf("H%d", i+2), item.GroundFees)
		f.SetCellValue(sheet, fmt.Sprintf("I%d", i+2), item.ExportDate)
		f.SetCellValue(sheet, fmt.Sprintf("J%d", i+2), strings.Join(linked, ", "))
	}

	ctx.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	ctx.Set("Content-Disposition", `attachment; filename="out_shipments.xlsx"`)

	if err := f.Write(ctx.Response().BodyWriter()); err != nil {
		return ctx.Status(http.StatusInternalServerError).SendString("Failed to generate Excel")
	}

	return nil
}
