package api

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofiber/fiber/v2"
)

// FileHandler accepts corpus PDFs over HTTP and drops them into the
// loader's source directory for the next ingestion run.
type FileHandler struct {
	sourceDir string
}

func NewFileHandler(sourceDir string) *FileHandler {
	return &FileHandler{
		sourceDir: sourceDir,
	}
}

func (h *FileHandler) HandleUpload(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return ErrBadRequest()
	}

	path := filepath.Join(h.sourceDir, filepath.Base(file.Filename))
	if err := c.SaveFile(file, path); err != nil {
		return err
	}
	fmt.Printf("[UPLOAD] File successfully saved to: %s\n", path)

	return c.JSON(fiber.Map{"status": "queued", "file": filepath.Base(file.Filename)})
}

// HandleDelete removes a not-yet-ingested file from the source directory.
func (h *FileHandler) HandleDelete(c *fiber.Ctx) error {
	name := filepath.Base(c.Params("name"))
	if name == "" || name == "." {
		return ErrBadRequest()
	}
	if err := os.Remove(filepath.Join(h.sourceDir, name)); err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound(name, "file")
		}
		return err
	}
	return c.JSON(fiber.Map{"status": "deleted", "file": name})
}
