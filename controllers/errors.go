package controllers

import (
	"errors"

	"freight-app/repositories"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// errorResponse memetakan error domain repository ke status HTTP
func errorResponse(ctx *fiber.Ctx, err error) error {
	var validationErr *repositories.ValidationError
	var conflictErr *repositories.ConflictError
	var protectedErr *repositories.ProtectedReferenceError

	switch {
	case errors.As(err, &validationErr):
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": validationErr.Message,
			"field":   validationErr.Field,
		})
	case errors.As(err, &conflictErr):
		return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{
			"success": false,
			"message": conflictErr.Message,
		})
	case errors.As(err, &protectedErr):
		return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{
			"success": false,
			"message": protectedErr.Error(),
		})
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Record not found",
		})
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{
			"success": false,
			"message": "Duplicate value violates a unique constraint",
		})
	default:
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
		})
	}
}
