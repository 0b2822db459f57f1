// Package upload turns a user-selected file into a storage key the backend can reference.
//
// Order: presign against the draft id, compress photos, PUT to the presigned URL,
// then hand back the key with a local preview. Nothing is recorded on failure.
package upload

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"rental-admin-console/internal/apiclient"
	"rental-admin-console/internal/apperr"
	"rental-admin-console/internal/models"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"
)

type Presigner interface {
	PresignUpload(ctx context.Context, req apiclient.PresignRequest) (*models.PresignedUpload, error)
}

// File is an uploaded file held in memory.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

type PhotoResult struct {
	Key     string
	Preview string
}

type DocumentResult struct {
	Key       string
	Filename  string
	SizeBytes int64
}

type Options struct {
	MaxDimension int
	MaxBytes     int
	// MaxPixels caps width*height of an incoming photo; zero means DefaultMaxPixels.
	MaxPixels int
	// Operation is the add_vehicle presign operation; defaults to getPresignedUrl.
	Operation string
}

type Pipeline struct {
	presigner Presigner
	http      *http.Client
	opts      Options
	logger    *zap.Logger
}

func NewPipeline(presigner Presigner, httpClient *http.Client, opts Options, logger *zap.Logger) *Pipeline {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if opts.Operation == "" {
		opts.Operation = apiclient.OpPresignedURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{presigner: presigner, http: httpClient, opts: opts, logger: logger}
}

// UploadPhoto compresses an image and stores it under the draft.
func (p *Pipeline) UploadPhoto(ctx context.Context, draftID string, slot models.PhotoSlot, f File) (*PhotoResult, error) {
	fail := func(stage string, err error) error {
		return &apperr.UploadError{Slot: string(slot), Stage: stage, Err: err}
	}

	if ct := detectContentType(f); !strings.HasPrefix(ct, "image/") {
		return nil, fail(apperr.StageEncode, fmt.Errorf("%s is %s, not an image", f.Name, ct))
	}
	data, err := Compress(f.Data, p.opts.MaxDimension, p.opts.MaxBytes, p.opts.MaxPixels)
	if err != nil {
		return nil, fail(apperr.StageEncode, err)
	}
	name := strings.TrimSuffix(f.Name, filepath.Ext(f.Name)) + ".jpg"

	key, err := p.send(ctx, draftID, name, "image/jpeg", data, fail)
	if err != nil {
		return nil, err
	}
	p.logger.Info("photo uploaded",
		zap.String("draftID", draftID), zap.String("slot", string(slot)),
		zap.Int("originalBytes", len(f.Data)), zap.Int("uploadedBytes", len(data)))

	return &PhotoResult{
		Key:     key,
		Preview: "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(data),
	}, nil
}

// UploadDocument stores the file unmodified.
func (p *Pipeline) UploadDocument(ctx context.Context, draftID string, slot models.DocumentSlot, f File) (*DocumentResult, error) {
	fail := func(stage string, err error) error {
		return &apperr.UploadError{Slot: string(slot), Stage: stage, Err: err}
	}

	key, err := p.send(ctx, draftID, f.Name, detectContentType(f), f.Data, fail)
	if err != nil {
		return nil, err
	}
	p.logger.Info("document uploaded",
		zap.String("draftID", draftID), zap.String("slot", string(slot)), zap.Int("bytes", len(f.Data)))

	return &DocumentResult{Key: key, Filename: f.Name, SizeBytes: int64(len(f.Data))}, nil
}

func (p *Pipeline) send(ctx context.Context, draftID, name, contentType string, data []byte, fail func(string, error) error) (string, error) {
	presigned, err := p.presigner.PresignUpload(ctx, apiclient.PresignRequest{
		Operation:   p.opts.Operation,
		VehicleID:   draftID,
		FileName:    name,
		ContentType: contentType,
	})
	if err != nil {
		return "", fail(apperr.StagePresign, err)
	}
	if err := p.put(ctx, presigned.URL, contentType, data); err != nil {
		return "", fail(apperr.StagePut, err)
	}
	return presigned.Key, nil
}

func (p *Pipeline) put(ctx context.Context, url, contentType string, data []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)
	req.ContentLength = int64(len(data))

	resp, err := p.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("storage returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}

func detectContentType(f File) string {
	if f.ContentType != "" && f.ContentType != "application/octet-stream" {
		return f.ContentType
	}
	return mimetype.Detect(f.Data).String()
}
