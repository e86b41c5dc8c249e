package main

import (
	"bytes"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/pos_sync/config"
	"github.com/mmdatafocus/pos_sync/utils"
	"github.com/sirupsen/logrus"
)

const (
	maxUploadSizeBytes int64 = 5 * 1024 * 1024
	thumbnailWidth           = 200
	thumbnailsDirName        = "thumbnails"
)

var imageMimeTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

var errUploadTooLarge = errors.New("file size exceeds 5MB limit")

type uploadAssetResponse struct {
	FileName   string `json:"fileName"`
	LocalImage string `json:"localImage"`
	Image      string `json:"image"`
	Thumbnail  string `json:"thumbnail,omitempty"`
}

func thumbnailDir(assetsDir string) string {
	return filepath.Join(assetsDir, thumbnailsDirName)
}

func thumbnailFileName(fileName string) string {
	return strings.TrimSuffix(fileName, filepath.Ext(fileName)) + ".jpg"
}

// uploadAssetHandler stores a product image where /assets serves it from
// and writes a small JPEG preview next to it.
func uploadAssetHandler(a *app) gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := config.GetLogger()
		correlationId, _ := utils.GetCorrelationIdFromContext(c.Request.Context())

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSizeBytes+1<<20)
		header, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
			return
		}
		if header.Size > maxUploadSizeBytes {
			c.JSON(http.StatusBadRequest, gin.H{"error": errUploadTooLarge.Error()})
			return
		}

		data, err := readUpload(header)
		if err != nil {
			status := http.StatusBadRequest
			if !errors.Is(err, errUploadTooLarge) {
				status = http.StatusInternalServerError
				logUploadError(logger, err, correlationId)
			}
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}

		mimeType := http.DetectContentType(data)
		if !imageMimeTypes[mimeType] {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported image type"})
			return
		}

		fileName := utils.GenerateAssetFilename(header.Filename, time.Now())
		localPath := filepath.Join(a.settings.AssetsDir, fileName)
		if err := os.MkdirAll(a.settings.AssetsDir, 0o755); err != nil {
			logUploadError(logger, err, correlationId)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store image"})
			return
		}
		if err := os.WriteFile(localPath, data, 0o644); err != nil {
			logUploadError(logger, err, correlationId)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store image"})
			return
		}

		baseURL := a.baseURL(c)
		resp := uploadAssetResponse{
			FileName:   fileName,
			LocalImage: localPath,
			Image:      utils.BuildAssetURL(baseURL, fileName),
		}

		// A broken preview must not lose the upload.
		thumbName, err := createThumbnail(data, a.settings.AssetsDir, fileName)
		if err != nil {
			logUploadError(logger, err, correlationId)
		} else {
			resp.Thumbnail = strings.TrimRight(baseURL, "/") + utils.AssetsRoutePrefix + "/" + thumbnailsDirName + "/" + thumbName
		}

		c.JSON(http.StatusOK, resp)
	}
}

func readUpload(header *multipart.FileHeader) ([]byte, error) {
	file, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadSizeBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > maxUploadSizeBytes {
		return nil, errUploadTooLarge
	}
	return data, nil
}

func createThumbnail(data []byte, assetsDir string, fileName string) (string, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return "", err
	}
	thumbnail := imaging.Resize(img, thumbnailWidth, 0, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumbnail, imaging.JPEG); err != nil {
		return "", err
	}

	dir := thumbnailDir(assetsDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	name := thumbnailFileName(fileName)
	if err := os.WriteFile(filepath.Join(dir, name), buf.Bytes(), 0o644); err != nil {
		return "", err
	}
	return name, nil
}

func logUploadError(logger *logrus.Logger, err error, requestID string) {
	logger.WithFields(logrus.Fields{
		"error":      err.Error(),
		"request_id": requestID,
	}).Error("[upload.error]")
}
