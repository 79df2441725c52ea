package routes

import (
	"context"
	"net/http"
	"strings"

	"github.com/OFFIS-RIT/ned/internal/queue"
	"github.com/OFFIS-RIT/ned/internal/storage"
	"github.com/OFFIS-RIT/ned/pkg/common"
	"github.com/OFFIS-RIT/ned/pkg/loader"
	"github.com/OFFIS-RIT/ned/pkg/logger"

	"github.com/labstack/echo/v4"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

type createDocumentResponse struct {
	Message string `json:"message"`
	ID      string `json:"id,omitempty"`
}

// CreateDocumentHandler stores a document and queues it for
// disambiguation. It accepts either a JSON body with mentions or a
// multipart upload with a "file" field and an optional "format".
func CreateDocumentHandler(c echo.Context) error {
	app, user := appFrom(c)
	if user == nil {
		return c.JSON(http.StatusUnauthorized, createDocumentResponse{Message: "Unauthorized"})
	}
	if app.Queue == nil {
		return c.JSON(http.StatusServiceUnavailable, createDocumentResponse{Message: "Queue not configured"})
	}

	id, err := gonanoid.New()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, createDocumentResponse{Message: "Internal server error"})
	}

	ctx := c.Request().Context()
	msg := queue.DisambiguateMsg{DocumentID: id}
	doc := common.Document{ID: id}

	if strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		key, format, status := uploadDocument(ctx, c, id)
		if status != 0 {
			if status == http.StatusBadRequest {
				return c.JSON(status, createDocumentResponse{Message: "Invalid request body"})
			}
			return c.JSON(status, createDocumentResponse{Message: "Internal server error"})
		}
		msg.FileKey = key
		msg.Format = format
	} else {
		type createDocumentBody struct {
			Mentions []string `json:"mentions" validate:"required,min=1,dive,required"`
		}
		data := new(createDocumentBody)
		if err := c.Bind(data); err != nil {
			return c.JSON(http.StatusBadRequest, createDocumentResponse{Message: "Invalid request body"})
		}
		if err := c.Validate(data); err != nil {
			return c.JSON(http.StatusBadRequest, createDocumentResponse{Message: "Invalid request body"})
		}
		doc.Mentions = data.Mentions
	}

	if err := app.Results.CreateDocument(ctx, doc); err != nil {
		logger.Error("[Server] Failed to store document", "document_id", id, "err", err)
		if msg.FileKey != "" {
			if delErr := storage.DeleteFile(ctx, app.S3, msg.FileKey); delErr != nil {
				logger.Warn("[Server] Failed to remove orphaned upload", "key", msg.FileKey, "err", delErr)
			}
		}
		return c.JSON(http.StatusInternalServerError, createDocumentResponse{Message: "Internal server error"})
	}

	body, err := queue.EncodeMessage(msg)
	if err == nil {
		err = queue.PublishFIFO(app.Queue, queue.DisambiguateQueue, body)
	}
	if err != nil {
		logger.Error("[Server] Failed to queue document", "document_id", id, "err", err)
		_ = app.Results.SaveResult(ctx, common.DocumentResult{DocumentID: id, Err: err, Error: "failed to queue document"})
		return c.JSON(http.StatusInternalServerError, createDocumentResponse{Message: "Internal server error"})
	}

	logger.Info("[Server] Document queued", "document_id", id, "user_id", user.UserID)
	return c.JSON(http.StatusAccepted, createDocumentResponse{Message: "Document queued", ID: id})
}

// uploadDocument stores the multipart file in object storage. A non-zero
// status reports the failure.
func uploadDocument(ctx context.Context, c echo.Context, id string) (string, loader.DocumentFormat, int) {
	app, _ := appFrom(c)
	if app.S3 == nil {
		return "", "", http.StatusServiceUnavailable
	}

	file, err := c.FormFile("file")
	if err != nil {
		return "", "", http.StatusBadRequest
	}
	format := loader.DetectFormat(file.Filename)
	if f := c.FormValue("format"); f != "" {
		if format, err = loader.ParseFormat(f); err != nil {
			return "", "", http.StatusBadRequest
		}
	}

	src, err := file.Open()
	if err != nil {
		return "", "", http.StatusBadRequest
	}
	defer src.Close()

	key := storage.DocumentKey(id, file.Filename)
	if err := storage.PutFile(ctx, app.S3, key, src); err != nil {
		logger.Error("[Server] Failed to upload document", "document_id", id, "err", err)
		return "", "", http.StatusInternalServerError
	}
	return key, format, 0
}
