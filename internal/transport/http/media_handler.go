package http

import (
	"context"
	"io"

	"github.com/gofiber/fiber/v2"
)

// Uploader pushes a payload to object storage and returns (key, publicURL).
type Uploader interface {
	Upload(ctx context.Context, folder, filename, contentType string, payload []byte) (string, string, error)
}

// MediaHandler serves multipart uploads for question media, category icons
// and team avatars.
type MediaHandler struct {
	store Uploader
}

func NewMediaHandler(store Uploader) *MediaHandler {
	return &MediaHandler{store: store}
}

const maxUploadBytes = 10 << 20

func (h *MediaHandler) Upload(c *fiber.Ctx) error {
	if h.store == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "media storage not configured")
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "file is required")
	}
	if fileHeader.Size > maxUploadBytes {
		return fiber.NewError(fiber.StatusRequestEntityTooLarge, "file too large")
	}
	folder := c.FormValue("folder", "uploads")

	file, err := fileHeader.Open()
	if err != nil {
		return fiber.ErrBadRequest
	}
	defer file.Close()
	payload, err := io.ReadAll(file)
	if err != nil {
		return err
	}

	key, url, err := h.store.Upload(c.UserContext(), folder, fileHeader.Filename,
		fileHeader.Header.Get(fiber.HeaderContentType), payload)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"key": key, "url": url})
}
