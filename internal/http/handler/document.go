package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"docpay/internal/service"
)

// Creator identity comes from the authenticating proxy in front of this
// service; the trusted headers are the only identity source here.
const (
	CreatorIDHeader   = "X-Creator-ID"
	CreatorNameHeader = "X-Creator-Name"
)

// creatorID extracts the authenticated creator, or writes 401 and returns "".
func creatorID(c *fiber.Ctx) string {
	id := c.Get(CreatorIDHeader)
	if id == "" {
		_ = writeError(c, fiber.StatusUnauthorized, "UNAUTHORIZED", "creator identity required")
	}
	return id
}

// parseDocumentID validates the :id path parameter, or writes 400 and returns "".
func parseDocumentID(c *fiber.Ctx) string {
	id := c.Params("id")
	if _, err := uuid.Parse(id); err != nil {
		_ = writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		return ""
	}
	return id
}

// CreateDocument registers a new paywalled listing for the authenticated creator.
func CreateDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		creator := creatorID(c)
		if creator == "" {
			return nil
		}

		var req service.CreateDocumentRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "cannot parse request body")
		}
		req.CreatorID = creator
		req.CreatorName = c.Get(CreatorNameHeader)

		doc, err := svc.Create(c.UserContext(), req)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(doc)
	}
}

// ListDocuments returns the creator's documents with limit/offset pagination.
func ListDocuments(svc service.DocumentService) fiber.Handler {
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

		res, err := svc.List(c.UserContext(), creator, limit, offset)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(res)
	}
}

// GetDocument returns one of the creator's documents by ID.
func GetDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		creator := creatorID(c)
		if creator == "" {
			return nil
		}
		id := parseDocumentID(c)
		if id == "" {
			return nil
		}

		doc, err := svc.Get(c.UserContext(), creator, id)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(doc)
	}
}

// UpdateDocument applies mutable listing fields.
func UpdateDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		creator := creatorID(c)
		if creator == "" {
			return nil
		}
		id := parseDocumentID(c)
		if id == "" {
			return nil
		}

		var req service.UpdateDocumentRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "cannot parse request body")
		}

		doc, err := svc.Update(c.UserContext(), creator, id, req)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(doc)
	}
}

// DeleteDocument removes or deactivates a document depending on whether the
// ledger references it.
func DeleteDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		creator := creatorID(c)
		if creator == "" {
			return nil
		}
		id := parseDocumentID(c)
		if id == "" {
			return nil
		}

		if err := svc.Delete(c.UserContext(), creator, id); err != nil {
			return writeServiceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// UploadCover attaches a cover image uploaded as multipart form field "cover".
func UploadCover(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		creator := creatorID(c)
		if creator == "" {
			return nil
		}
		id := parseDocumentID(c)
		if id == "" {
			return nil
		}

		fh, err := c.FormFile("cover")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "cover file is required")
		}
		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		ct := fh.Header.Get("Content-Type")
		if ct == "" {
			ct = "application/octet-stream"
		}

		doc, err := svc.UploadCover(c.UserContext(), creator, id, f, fh.Filename, ct, fh.Size)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(doc)
	}
}

// ReconcileDocument recomputes a document's aggregates from the ledger.
func ReconcileDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		creator := creatorID(c)
		if creator == "" {
			return nil
		}
		id := parseDocumentID(c)
		if id == "" {
			return nil
		}

		doc, err := svc.Reconcile(c.UserContext(), creator, id)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(doc)
	}
}

// GetAnalytics returns the creator's documents with aggregates plus recent sales.
func GetAnalytics(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		creator := creatorID(c)
		if creator == "" {
			return nil
		}

		res, err := svc.Analytics(c.UserContext(), creator)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(res)
	}
}
