package controllers

import (
	"errors"

	"freight-app/models"
	"freight-app/repositories"

	"github.com/go-playground/validator"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type CompanyController struct {
	DB       *gorm.DB
	Notifier repositories.Notifier
}

func NewCompanyController(db *gorm.DB, notifier repositories.Notifier) *CompanyController {
	return &CompanyController{DB: db, Notifier: notifier}
}

func (c *CompanyController) CreateCompany(ctx *fiber.Ctx) error {
	var input struct {
		Name string `json:"name" validate:"required"`
	}

	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	validate := validator.New()
	if err := validate.Struct(input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "name is required"})
	}

	company := models.Company{Name: input.Name}
	if err := c.DB.Create(&company).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{"success": false, "message": "Company already exists"})
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	if c.Notifier != nil {
		c.Notifier.PublishShipmentEvent("company", "created", company.ID)
	}

	return ctx.Status(fiber.StatusOK).JSON(fiber.Map{"success": true, "message": "Company created successfully", "data": company})
}

func (c *CompanyController) GetAllCompanies(ctx *fiber.Ctx) error {
	query := c.DB.Order("name")
	if search := ctx.Query("search"); search != "" {
		query = query.Where("LOWER(name) LIKE LOWER(?)", "%"+search+"%")
	}

	var companies []models.Company
	if err := query.Find(&companies).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.Status(fiber.StatusOK).JSON(fiber.Map{"success": true, "message": "Companies found", "data": companies})
}

func (c *CompanyController) GetCompanyByID(ctx *fiber.Ctx) error {
	id, err := ctx.ParamsInt("id")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid ID"})
	}

	var company models.Company
	if err := c.DB.First(&company, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Company not found"})
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.Status(fiber.StatusOK).JSON(fiber.Map{"success": true, "message": "Company found", "data": company})
}

// UpdateNotAllowed: company hanya mendukung POST dan DELETE
func (c *CompanyController) UpdateNotAllowed(ctx *fiber.Ctx) error {
	return ctx.Status(fiber.StatusMethodNotAllowed).JSON(fiber.Map{
		"success": false,
		"message": "Method not allowed. Use DELETE and POST to modify companies.",
	})
}

func (c *CompanyController) DeleteCompany(ctx *fiber.Ctx) error {
	id, err := ctx.ParamsInt("id")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid ID"})
	}

	var company models.Company
	if err := c.DB.First(&company, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Company not found"})
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	if err := c.DB.Delete(&company).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	if c.Notifier != nil {
		c.Notifier.PublishShipmentEvent("company", "deleted", company.ID)
	}

	return ctx.Status(fiber.StatusOK).JSON(fiber.Map{"success": true, "message": "Company deleted successfully", "data": company})
}
