package handler

import (
	"context"
	"io"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"jobmarket/internal/middleware"
	"jobmarket/pkg/cloudinary"

	"github.com/gin-gonic/gin"
)

const maxUploadSize = 20 << 20

// Folders a client may upload into.
var uploadFolders = map[string]bool{
	"posts":         true,
	"offers":        true,
	"deliveries":    true,
	"verifications": true,
	"categories":    true,
	"profile":       true,
}

type uploadFunc func(ctx context.Context, file io.Reader, folder, publicID string) (string, error)

type UploadHandler struct {
	cloud cloudinary.Client
	root  string
}

func NewUploadHandler(cloud cloudinary.Client, root string) *UploadHandler {
	return &UploadHandler{cloud: cloud, root: root}
}

// UploadImage handles POST /uploads/images/:folder. Returns the hosted URL,
// which clients then pass in post, offer or delivery payloads.
func (h *UploadHandler) UploadImage(c *gin.Context) {
	h.upload(c, "img_", h.cloud.UploadImage)
}

// UploadFile handles POST /uploads/files/:folder for PDFs and project archives.
func (h *UploadHandler) UploadFile(c *gin.Context) {
	h.upload(c, "file_", h.cloud.UploadFile)
}

func (h *UploadHandler) upload(c *gin.Context, prefix string, put uploadFunc) {
	kind := c.Param("folder")
	if !uploadFolders[kind] {
		badRequest(c, "unknown upload folder")
		return
	}
	file, err := c.FormFile("file")
	if err != nil {
		badRequest(c, "file required")
		return
	}
	if file.Size > maxUploadSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
		return
	}
	f, err := file.Open()
	if err != nil {
		badRequest(c, "could not read file")
		return
	}
	defer f.Close()

	userID := middleware.GetUserID(c)
	folder := path.Join(h.root, kind, strconv.FormatUint(uint64(userID), 10))
	publicID := prefix + strings.ReplaceAll(uuid.New().String(), "-", "")[:16]
	url, err := put(c.Request.Context(), f, folder, publicID)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "upload failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}
