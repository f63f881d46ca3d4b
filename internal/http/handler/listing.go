package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"docpay/internal/service"
)

// parseShareID validates the :shareId path parameter, or writes 400 and returns "".
func parseShareID(c *fiber.Ctx) string {
	id := c.Params("shareId")
	if _, err := uuid.Parse(id); err != nil {
		_ = writeError(c, fiber.StatusBadRequest, "INVALID_SHARE_ID", "invalid share id format")
		return ""
	}
	return id
}

// GetListing serves the public, pre-purchase projection of a shared document.
func GetListing(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		shareID := parseShareID(c)
		if shareID == "" {
			return nil
		}

		listing, err := svc.GetListing(c.UserContext(), shareID)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(listing)
	}
}

// purchaseBody is the customer-supplied part of a purchase attempt.
type purchaseBody struct {
	CustomerEmail string `json:"customer_email"`
	CustomerName  string `json:"customer_name"`
}

// PurchaseListing runs a purchase attempt against a shared document. Outcome
// maps to status: 201 completed, 200 already purchased, 402 declined.
func PurchaseListing(docSvc service.DocumentService, purchaseSvc service.PurchaseService, observe func(outcome string)) fiber.Handler {
	return func(c *fiber.Ctx) error {
		shareID := parseShareID(c)
		if shareID == "" {
			return nil
		}

		var body purchaseBody
		if err := c.BodyParser(&body); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "cannot parse request body")
		}

		doc, err := docSvc.FindActiveByShareID(c.UserContext(), shareID)
		if err != nil {
			return writeServiceError(c, err)
		}

		res, err := purchaseSvc.Purchase(c.UserContext(), service.PurchaseRequest{
			DocumentID:    doc.ID,
			CustomerEmail: body.CustomerEmail,
			CustomerName:  body.CustomerName,
		})
		if err != nil {
			return writeServiceError(c, err)
		}
		if observe != nil {
			observe(string(res.Status))
		}

		switch res.Status {
		case service.OutcomeCompleted:
			return c.Status(fiber.StatusCreated).JSON(res)
		case service.OutcomeDeclined:
			return c.Status(fiber.StatusPaymentRequired).JSON(res)
		default:
			return c.JSON(res)
		}
	}
}

// CheckAccess reports whether the email already holds access to the shared
// document. Read-only and safe to poll from the reader page.
func CheckAccess(docSvc service.DocumentService, purchaseSvc service.PurchaseService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		shareID := parseShareID(c)
		if shareID == "" {
			return nil
		}
		email := c.Query("email")
		if email == "" {
			return writeError(c, fiber.StatusBadRequest, "EMAIL_REQUIRED", "email query parameter is required")
		}

		doc, err := docSvc.FindActiveByShareID(c.UserContext(), shareID)
		if err != nil {
			return writeServiceError(c, err)
		}

		entitled, err := purchaseSvc.CheckEntitlement(c.UserContext(), doc.ID, email)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(fiber.Map{"has_access": entitled})
	}
}

// ListSales returns the authenticated creator's sales history.
func ListSales(svc service.PurchaseService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		creator := creatorID(c)
		if creator == "" {
			return nil
		}

		limit, err := strconv.Atoi(c.Query("limit", "10"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		}
		offset, err := strconv.Atoi(c.Query("offset", "0"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_OFFSET", "invalid offset")
		}

		res, err := svc.ListSales(c.UserContext(), creator, limit, offset)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(res)
	}
}
