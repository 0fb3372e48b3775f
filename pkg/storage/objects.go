package storage

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/DeBrosOfficial/supasaas/pkg/client"
	"github.com/DeBrosOfficial/supasaas/pkg/validate"
)

// UploadFile stores content at uploadPath in bucket. An existing object is
// not overwritten.
func (s *Storage) UploadFile(ctx context.Context, bucket, uploadPath string, content []byte, mimetype string) bool {
	fail := func(err error) bool {
		s.log(zapcore.ErrorLevel, "upload file",
			zap.String("bucket", bucket),
			zap.String("upload_path", uploadPath),
			zap.ByteString("file_content", content),
			zap.String("file_mimetype", mimetype),
			zap.Error(err))
		return false
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(path.Base(uploadPath))))
	if mimetype != "" {
		header.Set("Content-Type", mimetype)
	}
	part, err := writer.CreatePart(header)
	if err != nil {
		return fail(fmt.Errorf("failed to create form file: %w", err))
	}
	if _, err := part.Write(content); err != nil {
		return fail(fmt.Errorf("failed to copy data: %w", err))
	}
	if err := writer.Close(); err != nil {
		return fail(fmt.Errorf("failed to close writer: %w", err))
	}

	_, err = s.do(ctx, client.Request{
		Method: http.MethodPost,
		Path:   objectPath("", bucket, uploadPath),
		Header: http.Header{
			"Cache-Control": {"max-age=3600"},
			"X-Upsert":      {"false"},
		},
		Body:        buf.Bytes(),
		ContentType: writer.FormDataContentType(),
	})
	if err != nil {
		return fail(err)
	}
	return true
}

// DeleteFile removes filePath from bucket.
func (s *Storage) DeleteFile(ctx context.Context, bucket, filePath string) bool {
	_, err := s.do(ctx, client.Request{
		Method: http.MethodDelete,
		Path:   objectPath("", bucket, ""),
		JSON:   map[string]any{"prefixes": []string{filePath}},
	})
	if err != nil {
		s.log(zapcore.ErrorLevel, "delete file",
			zap.String("bucket", bucket),
			zap.String("file_path", filePath),
			zap.Error(err))
		return false
	}
	return true
}

// DownloadFile fetches downloadPath from bucket and writes it to
// destinationPath. Storage and filesystem errors are both reported as false.
func (s *Storage) DownloadFile(ctx context.Context, bucket, downloadPath, destinationPath string) bool {
	fail := func(err error) bool {
		s.log(zapcore.ErrorLevel, "download file",
			zap.String("bucket", bucket),
			zap.String("download_path", downloadPath),
			zap.String("destination_path", destinationPath),
			zap.Error(err))
		return false
	}

	resp, err := s.do(ctx, client.Request{
		Method: http.MethodGet,
		Path:   objectPath("", bucket, downloadPath),
	})
	if err != nil {
		return fail(err)
	}
	if err := os.WriteFile(destinationPath, resp.Body, 0644); err != nil {
		return fail(err)
	}
	return true
}

// ListFiles lists the first page of objects directly under folder. An empty
// folder lists the bucket root.
func (s *Storage) ListFiles(ctx context.Context, bucket, folder string) []FileObject {
	const action = "list files"
	fail := func(err error) []FileObject {
		s.log(zapcore.ErrorLevel, action,
			zap.String("bucket", bucket),
			zap.String("folder", folder),
			zap.Error(err))
		return EmptyValue()
	}

	resp, err := s.do(ctx, client.Request{
		Method:     http.MethodPost,
		Path:       objectPath("list", bucket, ""),
		Idempotent: true,
		JSON: map[string]any{
			"prefix": folder,
			"limit":  listLimit,
			"offset": 0,
			"sortBy": map[string]string{"column": "name", "order": "asc"},
		},
	})
	if err != nil {
		return fail(err)
	}
	body, err := resp.JSON()
	if err != nil {
		return fail(err)
	}
	if list, ok := body.([]any); ok && len(list) == 0 {
		s.log(zapcore.InfoLevel, action, zap.String("bucket", bucket), zap.String("folder", folder))
		return EmptyValue()
	}
	if err := s.validate(body, validate.List); err != nil {
		return fail(err)
	}

	list, _ := body.([]any)
	files := make([]FileObject, 0, len(list))
	for _, item := range list {
		if obj, ok := item.(map[string]any); ok {
			files = append(files, obj)
		}
	}
	return files
}

// CreateSignedURL returns an absolute URL granting read access to path for
// expiresIn seconds, or "" on failure. Zero uses the configured default.
func (s *Storage) CreateSignedURL(ctx context.Context, bucket, downloadPath string, expiresIn int) string {
	const action = "create signed url"
	if expiresIn <= 0 {
		expiresIn = s.signedURLTTL
	}
	fail := func(err error) string {
		s.log(zapcore.ErrorLevel, action,
			zap.String("bucket", bucket),
			zap.String("download_path", downloadPath),
			zap.Int("expires_in", expiresIn),
			zap.Error(err))
		return ""
	}

	resp, err := s.do(ctx, client.Request{
		Method:     http.MethodPost,
		Path:       objectPath("sign", bucket, downloadPath),
		JSON:       map[string]any{"expiresIn": expiresIn},
		Idempotent: true,
	})
	if err != nil {
		return fail(err)
	}

	var body struct {
		SignedURL string `json:"signedURL"`
	}
	if err := resp.Decode(&body); err != nil {
		return fail(err)
	}
	if err := s.validate(body.SignedURL, validate.String); err != nil {
		return fail(err)
	}
	return s.absolute(body.SignedURL)
}

func (s *Storage) absolute(signed string) string {
	if strings.HasPrefix(signed, "http://") || strings.HasPrefix(signed, "https://") {
		return signed
	}
	return s.client.Login().URL + client.StoragePath + "/" + strings.TrimPrefix(signed, "/")
}

func escapeQuotes(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s)
}
