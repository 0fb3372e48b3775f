package storage

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/DeBrosOfficial/supasaas/pkg/client"
	"github.com/DeBrosOfficial/supasaas/pkg/logging"
	"github.com/DeBrosOfficial/supasaas/pkg/platformtest"
)

func setup(t *testing.T, opts ...Option) (*Storage, *client.Client, *platformtest.Server, *observer.ObservedLogs) {
	t.Helper()
	srv := platformtest.New(t)
	c, err := client.NewClient(srv.Login(), client.WithLogger(zap.NewNop()), client.WithRetry(1, 0))
	require.NoError(t, err)
	t.Cleanup(c.Close)

	core, logs := observer.New(zapcore.DebugLevel)
	logFn := logging.NewActionLogger(logging.WrapLogger(zap.New(core)), logging.ComponentStorage)
	opts = append([]Option{WithLogger(logFn)}, opts...)
	return NewStorage(c, opts...), c, srv, logs
}

func TestUploadFile(t *testing.T) {
	s, _, srv, logs := setup(t)
	srv.CreateBucket("avatars")
	ctx := context.Background()

	ok := s.UploadFile(ctx, "avatars", "users/1/me.png", []byte("png-bytes"), "image/png")
	require.True(t, ok, logs.All())

	data, mimetype, found := srv.Object("avatars", "users/1/me.png")
	require.True(t, found)
	assert.Equal(t, "png-bytes", string(data))
	assert.Equal(t, "image/png", mimetype)
	assert.Equal(t, "Bearer "+platformtest.AnonKey, srv.LastRequest().Header.Get("Authorization"))
}

func TestUploadFileRedactsContent(t *testing.T) {
	s, _, srv, logs := setup(t)
	srv.CreateBucket("avatars")
	ctx := context.Background()

	require.True(t, s.UploadFile(ctx, "avatars", "a.txt", []byte("first"), "text/plain"))
	assert.False(t, s.UploadFile(ctx, "avatars", "a.txt", []byte("top secret"), "text/plain"), "duplicate should fail")

	require.Equal(t, 1, logs.Len())
	msg := logs.All()[0].Message
	assert.Contains(t, msg, "Error performing upload file with bucket=avatars, upload_path=a.txt, file_content=text, file_mimetype=text/plain")
	assert.Contains(t, msg, "The resource already exists")
	assert.NotContains(t, msg, "top secret")
}

func TestDeleteFile(t *testing.T) {
	s, _, srv, logs := setup(t)
	srv.PutObject("docs", "a.txt", []byte("a"), "text/plain")
	ctx := context.Background()

	require.True(t, s.DeleteFile(ctx, "docs", "a.txt"), logs.All())
	_, _, found := srv.Object("docs", "a.txt")
	assert.False(t, found)

	last := srv.LastRequest()
	assert.Equal(t, http.MethodDelete, last.Method)
	assert.Equal(t, "/storage/v1/object/docs", last.Path)
	assert.JSONEq(t, `{"prefixes":["a.txt"]}`, string(last.Body))

	assert.False(t, s.DeleteFile(ctx, "missing", "a.txt"))
	require.Equal(t, 1, logs.Len())
	assert.Contains(t, logs.All()[0].Message, "Error performing delete file with bucket=missing, file_path=a.txt")
}

func TestDownloadFile(t *testing.T) {
	s, _, srv, logs := setup(t)
	srv.PutObject("docs", "reports/q1.csv", []byte("a,b\n1,2\n"), "text/csv")
	ctx := context.Background()
	dir := t.TempDir()

	dest := filepath.Join(dir, "q1.csv")
	require.True(t, s.DownloadFile(ctx, "docs", "reports/q1.csv", dest), logs.All())
	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,2\n", string(data))

	assert.False(t, s.DownloadFile(ctx, "docs", "reports/missing.csv", filepath.Join(dir, "x.csv")))
	assert.False(t, s.DownloadFile(ctx, "docs", "reports/q1.csv", filepath.Join(dir, "no", "such", "dir.csv")), "filesystem errors are reported")
	assert.Equal(t, 2, logs.FilterLevelExact(zapcore.ErrorLevel).Len())
}

func TestListFiles(t *testing.T) {
	s, _, srv, logs := setup(t)
	srv.PutObject("docs", "b.txt", []byte("b"), "text/plain")
	srv.PutObject("docs", "a.txt", []byte("a"), "text/plain")
	srv.PutObject("docs", "reports/q1.csv", []byte("q"), "text/csv")
	ctx := context.Background()

	files := s.ListFiles(ctx, "docs", "")
	require.Len(t, files, 3, logs.All())
	assert.Equal(t, "a.txt", files[0]["name"])
	assert.Equal(t, "b.txt", files[1]["name"])
	assert.Equal(t, "reports", files[2]["name"])
	assert.Nil(t, files[2]["id"])

	files = s.ListFiles(ctx, "docs", "reports")
	require.Len(t, files, 1)
	assert.Equal(t, "q1.csv", files[0]["name"])

	var body map[string]any
	require.NoError(t, json.Unmarshal(srv.LastRequest().Body, &body))
	assert.Equal(t, "reports", body["prefix"])
	assert.EqualValues(t, 100, body["limit"])

	assert.Equal(t, EmptyValue(), s.ListFiles(ctx, "docs", "empty-folder"))
	assert.Equal(t, EmptyValue(), s.ListFiles(ctx, "missing", ""))
	assert.Equal(t, 1, logs.FilterLevelExact(zapcore.ErrorLevel).Len())
}

func TestCreateSignedURL(t *testing.T) {
	s, _, srv, logs := setup(t)
	srv.PutObject("docs", "a.txt", []byte("hello"), "text/plain")
	ctx := context.Background()

	signed := s.CreateSignedURL(ctx, "docs", "a.txt", 0)
	require.NotEmpty(t, signed, logs.All())
	assert.True(t, strings.HasPrefix(signed, srv.URL+"/storage/v1/object/sign/docs/a.txt?token="), signed)

	var body map[string]any
	require.NoError(t, json.Unmarshal(srv.LastRequest().Body, &body))
	assert.EqualValues(t, DefaultSignedURLExpiry, body["expiresIn"])

	resp, err := http.Get(signed)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "hello", string(data))

	assert.Empty(t, s.CreateSignedURL(ctx, "docs", "missing.txt", 60))
	require.Equal(t, 1, logs.Len())
	assert.Contains(t, logs.All()[0].Message, "Error performing create signed url with bucket=docs, download_path=missing.txt, expires_in=60")
}

func TestCreateSignedURLConfiguredExpiry(t *testing.T) {
	s, _, srv, _ := setup(t, WithSignedURLExpiry(120))
	srv.PutObject("docs", "a.txt", []byte("hello"), "text/plain")

	require.NotEmpty(t, s.CreateSignedURL(context.Background(), "docs", "a.txt", 0))
	var body map[string]any
	require.NoError(t, json.Unmarshal(srv.LastRequest().Body, &body))
	assert.EqualValues(t, 120, body["expiresIn"])
}

func TestCreateSignedURLRejectsEmptyURL(t *testing.T) {
	s, _, srv, logs := setup(t)
	srv.PutObject("docs", "a.txt", []byte("hello"), "text/plain")
	srv.FailNext(http.MethodPost, "/storage/v1/object/sign/", http.StatusOK, `{"signedURL":""}`)

	assert.Empty(t, s.CreateSignedURL(context.Background(), "docs", "a.txt", 60))
	require.Equal(t, 1, logs.Len())
	assert.Contains(t, logs.All()[0].Message, "must have value")
}

func TestObjectPath(t *testing.T) {
	assert.Equal(t, "/storage/v1/object/docs/a%20b/c.txt", objectPath("", "docs", "/a b/c.txt"))
	assert.Equal(t, "/storage/v1/object/list/docs", objectPath("list", "docs", ""))
	assert.Equal(t, "/storage/v1/object/sign/docs/x", objectPath("sign", "docs", "x"))
}
