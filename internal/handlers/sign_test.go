package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"legalflow/internal/models"
	"legalflow/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type signTestEnv struct {
	db        *gorm.DB
	documents *services.DocumentService
	tokens    *services.TokenService
	router    *gin.Engine
}

func newSignTestEnv(t *testing.T) *signTestEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&models.Document{}, &models.AccessToken{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	documents := services.NewDocumentService(db)
	tokens := services.NewTokenService(db, time.Hour)
	artifacts := services.NewArtifactService(db, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	handler := NewSignHandler(tokens, artifacts)

	router := gin.New()
	sign := router.Group("/api/v1/sign")
	sign.GET("/:documentId", handler.Resolve)
	sign.POST("/:documentId", handler.Sign)
	sign.GET("/:documentId/download", handler.Download)

	return &signTestEnv{db: db, documents: documents, tokens: tokens, router: router}
}

func (env *signTestEnv) createSentDocument(t *testing.T) (*models.Document, *models.AccessToken) {
	t.Helper()
	ctx := context.Background()
	doc, err := env.documents.Create(ctx, "user-1", services.DocumentInput{
		TemplateName: "Employment Agreement",
		FormData:     map[string]interface{}{"employeeName": "Jane Doe"},
	})
	if err != nil {
		t.Fatalf("create document: %v", err)
	}
	if err := env.db.Model(doc).Update("status", models.StatusSentForSignature).Error; err != nil {
		t.Fatalf("set status: %v", err)
	}
	token, err := env.tokens.Mint(ctx, doc.ID, "jane@example.com", "user-1")
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	return doc, token
}

func (env *signTestEnv) do(method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func TestSignResolve(t *testing.T) {
	env := newSignTestEnv(t)
	doc, token := env.createSentDocument(t)

	w := env.do("GET", fmt.Sprintf("/api/v1/sign/%s?token=%s", doc.ID, token.Token), "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var resp struct {
		Document map[string]interface{} `json:"document"`
		CanSign  bool                   `json:"can_sign"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.CanSign {
		t.Error("can_sign should be true")
	}
	if resp.Document["id"] != doc.ID {
		t.Errorf("document id = %v", resp.Document["id"])
	}
	if _, leaked := resp.Document["user_id"]; leaked {
		t.Error("owner id must not leak to token holders")
	}
}

func TestSignResolveBadToken(t *testing.T) {
	env := newSignTestEnv(t)
	doc, _ := env.createSentDocument(t)

	w := env.do("GET", fmt.Sprintf("/api/v1/sign/%s?token=bogus", doc.ID), "")
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}

	w = env.do("GET", fmt.Sprintf("/api/v1/sign/%s", doc.ID), "")
	if w.Code != http.StatusNotFound {
		t.Errorf("missing token: status = %d, want 404", w.Code)
	}
}

func TestSignResolveTokenForOtherDocument(t *testing.T) {
	env := newSignTestEnv(t)
	_, token := env.createSentDocument(t)

	w := env.do("GET", fmt.Sprintf("/api/v1/sign/%s?token=%s", "other-document", token.Token), "")
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestSignSubmit(t *testing.T) {
	env := newSignTestEnv(t)
	doc, token := env.createSentDocument(t)

	w := env.do("POST", fmt.Sprintf("/api/v1/sign/%s?token=%s", doc.ID, token.Token),
		`{"signature":"Jane Doe"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var stored models.Document
	if err := env.db.First(&stored, "id = ?", doc.ID).Error; err != nil {
		t.Fatalf("load: %v", err)
	}
	if stored.Status != models.StatusFullySigned {
		t.Errorf("status = %s, want fully_signed", stored.Status)
	}
	if stored.ClientSignature != "Jane Doe" {
		t.Errorf("client signature = %q", stored.ClientSignature)
	}

	// Replaying the link conflicts instead of overwriting.
	w = env.do("POST", fmt.Sprintf("/api/v1/sign/%s?token=%s", doc.ID, token.Token),
		`{"signature":"Mallory"}`)
	if w.Code != http.StatusConflict {
		t.Errorf("replay status = %d, want 409", w.Code)
	}
}

func TestSignSubmitRequiresSignature(t *testing.T) {
	env := newSignTestEnv(t)
	doc, token := env.createSentDocument(t)

	w := env.do("POST", fmt.Sprintf("/api/v1/sign/%s?token=%s", doc.ID, token.Token),
		`{"signature":"  "}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestSignDownload(t *testing.T) {
	env := newSignTestEnv(t)
	doc, token := env.createSentDocument(t)

	w := env.do("GET", fmt.Sprintf("/api/v1/sign/%s/download?token=%s", doc.ID, token.Token), "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Header().Get("Content-Disposition"), ".html") {
		t.Errorf("content disposition = %q", w.Header().Get("Content-Disposition"))
	}
	if !strings.Contains(w.Body.String(), "Employment Agreement") {
		t.Error("download should contain the rendered document")
	}
}
