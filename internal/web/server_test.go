package web

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/JonMunkholm/registros/internal/config"
	"github.com/JonMunkholm/registros/internal/core"
	"github.com/JonMunkholm/registros/internal/workbook"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type testEnv struct {
	server   *Server
	store    *workbook.Store
	dataFile string
}

func testConfig(dir string) *config.Config {
	return &config.Config{
		Server:  config.ServerConfig{RequestTimeout: 10 * time.Second},
		Storage: config.StorageConfig{DataFile: filepath.Join(dir, "base.xlsx"), Sheet: workbook.DefaultSheet},
		Upload: config.UploadConfig{
			Dir:           filepath.Join(dir, "uploads"),
			MaxFileSize:   1 << 20,
			MaxConcurrent: 2,
			MaxWaitTime:   time.Second,
		},
		Security: config.SecurityConfig{AllowedOrigins: []string{"*"}},
	}
}

// newTestEnv starts a server over a backing file seeded with records.
func newTestEnv(t *testing.T, cfg *config.Config, records ...workbook.Record) *testEnv {
	t.Helper()
	if cfg == nil {
		cfg = testConfig(t.TempDir())
	}
	require.NoError(t, os.MkdirAll(cfg.Upload.Dir, 0o755))

	store := workbook.NewStore(cfg.Storage.DataFile, cfg.Storage.Sheet)
	ds := &workbook.Dataset{Records: records}
	if len(records) > 0 {
		ds.Columns = []string{"id", "name"}
	}
	require.NoError(t, store.Save(ds))

	svc := core.NewService(store, core.Options{
		UploadDir:            cfg.Upload.Dir,
		MaxConcurrentUploads: cfg.Upload.MaxConcurrent,
		MaxUploadWait:        cfg.Upload.MaxWaitTime,
	})
	srv := NewServer(svc, cfg)
	t.Cleanup(func() { srv.Shutdown(t.Context()) })

	return &testEnv{server: srv, store: store, dataFile: cfg.Storage.DataFile}
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.server.Router().ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) records(t *testing.T) []workbook.Record {
	t.Helper()
	ds, err := e.store.Load()
	require.NoError(t, err)
	return ds.Records
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), "body: %s", rec.Body.String())
}

func seed() []workbook.Record {
	return []workbook.Record{
		{"id": int64(1), "name": "Ana"},
		{"id": int64(2), "name": "Luis"},
		{"id": int64(3), "name": "Eva"},
	}
}

func TestListRecords(t *testing.T) {
	env := newTestEnv(t, nil, seed()...)

	rec := env.do(t, http.MethodGet, "/registros", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var got []map[string]any
	decodeBody(t, rec, &got)
	require.Len(t, got, 3)
	assert.Equal(t, "Ana", got[0]["name"])
	assert.Equal(t, float64(3), got[2]["id"])
}

func TestListRecords_EmptyIsArray(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/registros", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestCreateRecord(t *testing.T) {
	env := newTestEnv(t, nil, seed()...)
	before := time.Now().UnixMilli()

	rec := env.do(t, http.MethodPost, "/registros", `{"name":"Bea","age":30,"id":5}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var got map[string]any
	decodeBody(t, rec, &got)
	id := int64(got["id"].(float64))
	assert.GreaterOrEqual(t, id, before)
	assert.LessOrEqual(t, id, time.Now().UnixMilli())
	assert.Equal(t, "Bea", got["name"])
	assert.Equal(t, float64(30), got["age"])

	stored := env.records(t)
	require.Len(t, stored, 4)
	last := stored[3]
	assert.Equal(t, id, last["id"])
	assert.Equal(t, int64(30), last["age"])
	assert.Equal(t, "Bea", last["name"])
}

func TestCreateRecord_InvalidBody(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed", `{"name":`},
		{"array", `[1,2]`},
		{"null", `null`},
		{"string", `"hola"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, nil, seed()...)

			rec := env.do(t, http.MethodPost, "/registros", tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code)

			var resp ErrorResponse
			decodeBody(t, rec, &resp)
			assert.Equal(t, "REC002", resp.Code)
			assert.Len(t, env.records(t), 3)
		})
	}
}

func TestCreateRecord_UnstorableFields(t *testing.T) {
	env := newTestEnv(t, nil, seed()...)

	rec := env.do(t, http.MethodPost, "/registros", `{"":"x","name":"ok"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp ErrorResponse
	decodeBody(t, rec, &resp)
	assert.Equal(t, "REC003", resp.Code)
	require.Len(t, resp.Details, 1)
	assert.Contains(t, resp.Details[0], "field name is empty")
	assert.Len(t, env.records(t), 3)

	rec = env.do(t, http.MethodPut, "/registros/1", `{"note":"`+strings.Repeat("x", workbook.MaxCellChars+1)+`"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	decodeBody(t, rec, &resp)
	assert.Equal(t, "REC003", resp.Code)
	require.Len(t, resp.Details, 1)
	assert.Contains(t, resp.Details[0], `"note"`)
}

func TestUpdateRecord(t *testing.T) {
	env := newTestEnv(t, nil, seed()...)

	rec := env.do(t, http.MethodPut, "/registros/2", `{"name":"Luisa","city":"Lima","id":99}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var got map[string]any
	decodeBody(t, rec, &got)
	assert.Equal(t, float64(2), got["id"])
	assert.Equal(t, "Luisa", got["name"])
	assert.Equal(t, "Lima", got["city"])

	stored := env.records(t)
	require.Len(t, stored, 3)
	assert.Equal(t, workbook.Record{"id": int64(2), "name": "Luisa", "city": "Lima"}, stored[1])
	assert.Equal(t, "Ana", stored[0]["name"])
}

func TestRecordID_NumericPrefix(t *testing.T) {
	env := newTestEnv(t, nil, seed()...)

	rec := env.do(t, http.MethodPut, "/registros/2abc", `{"name":"Luisa"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Luisa", env.records(t)[1]["name"])

	rec = env.do(t, http.MethodDelete, "/registros/3.0", "")
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Len(t, env.records(t), 2)
}

func TestUpdateRecord_NotFound(t *testing.T) {
	for _, path := range []string{"/registros/42", "/registros/abc"} {
		t.Run(path, func(t *testing.T) {
			env := newTestEnv(t, nil, seed()...)
			before, err := os.ReadFile(env.dataFile)
			require.NoError(t, err)

			rec := env.do(t, http.MethodPut, path, `{"name":"x"}`)
			require.Equal(t, http.StatusNotFound, rec.Code)
			assert.JSONEq(t, `{"message":"Registro no encontrado"}`, rec.Body.String())

			after, err := os.ReadFile(env.dataFile)
			require.NoError(t, err)
			assert.Equal(t, before, after, "backing file must be untouched")
		})
	}
}

func TestDeleteRecord(t *testing.T) {
	env := newTestEnv(t, nil, seed()...)

	rec := env.do(t, http.MethodDelete, "/registros/2", "")
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())

	stored := env.records(t)
	require.Len(t, stored, 2)
	assert.Equal(t, int64(1), stored[0]["id"])
	assert.Equal(t, int64(3), stored[1]["id"])

	rec = env.do(t, http.MethodDelete, "/registros/2", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"message":"Registro no encontrado"}`, rec.Body.String())
}

func TestCreateThenDelete_RestoresDataset(t *testing.T) {
	env := newTestEnv(t, nil, seed()...)

	rec := env.do(t, http.MethodPost, "/registros", `{"name":"Temp"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created map[string]any
	decodeBody(t, rec, &created)
	id := strconv.FormatInt(int64(created["id"].(float64)), 10)

	rec = env.do(t, http.MethodDelete, "/registros/"+id, "")
	require.Equal(t, http.StatusNoContent, rec.Code)

	assert.Equal(t, seed(), env.records(t))
}

func TestRecords_StorageFailure(t *testing.T) {
	env := newTestEnv(t, nil, seed()...)
	require.NoError(t, os.WriteFile(env.dataFile, []byte("not a workbook"), 0o644))

	rec := env.do(t, http.MethodGet, "/registros", "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp ErrorResponse
	decodeBody(t, rec, &resp)
	assert.Equal(t, "FILE002", resp.Code)
	assert.NotContains(t, resp.Message, env.dataFile)
}

// multipartBody builds a form with one file part named field.
func multipartBody(t *testing.T, field, name string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, name)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func xlsxBytes(t *testing.T, rows [][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	var buf bytes.Buffer
	_, err := f.WriteTo(&buf)
	require.NoError(t, err)
	return buf.Bytes()
}

func (e *testEnv) upload(t *testing.T, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	e.server.Router().ServeHTTP(rec, req)
	return rec
}

func TestUpload_ReplacesDataset(t *testing.T) {
	cfg := testConfig(t.TempDir())
	env := newTestEnv(t, cfg, seed()...)

	data := xlsxBytes(t, [][]any{
		{"id", "producto", "precio"},
		{10, "Pan", 1.5},
		{11, "Leche", 2},
	})
	body, ct := multipartBody(t, "file", "precios.xlsx", data)

	rec := env.upload(t, body, ct)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Archivo cargado y procesado correctamente.", rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")

	rec = env.do(t, http.MethodGet, "/registros", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"id":10,"producto":"Pan","precio":1.5},{"id":11,"producto":"Leche","precio":2}]`, rec.Body.String())

	entries, err := os.ReadDir(cfg.Upload.Dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "uploaded temp file must be removed")
}

func TestUpload_CSV(t *testing.T) {
	env := newTestEnv(t, nil)

	body, ct := multipartBody(t, "file", "datos.csv", []byte("id,nombre\n7,Sol\n"))
	rec := env.upload(t, body, ct)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Equal(t, []workbook.Record{{"id": int64(7), "nombre": "Sol"}}, env.records(t))
}

func TestUpload_NoFile(t *testing.T) {
	env := newTestEnv(t, nil, seed()...)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("other", "value"))
	require.NoError(t, mw.Close())

	tests := []struct {
		name        string
		body        *bytes.Buffer
		contentType string
	}{
		{"missing file field", &buf, mw.FormDataContentType()},
		{"not multipart", bytes.NewBufferString(`{}`), "application/json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.upload(t, tt.body, tt.contentType)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "No se ha subido ningún archivo.", rec.Body.String())
			assert.Len(t, env.records(t), 3)
		})
	}
}

func TestUpload_TooLarge(t *testing.T) {
	cfg := testConfig(t.TempDir())
	cfg.Upload.MaxFileSize = 1024
	env := newTestEnv(t, cfg, seed()...)

	body, ct := multipartBody(t, "file", "big.csv", bytes.Repeat([]byte("a,b\n"), 1024))
	rec := env.upload(t, body, ct)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Len(t, env.records(t), 3)
}

func TestUpload_InvalidWorkbook(t *testing.T) {
	cfg := testConfig(t.TempDir())
	env := newTestEnv(t, cfg, seed()...)

	body, ct := multipartBody(t, "file", "roto.xlsx", []byte("definitely not a zip"))
	rec := env.upload(t, body, ct)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Body.String(), "Error al procesar el archivo: "), rec.Body.String())

	assert.Equal(t, seed(), env.records(t), "dataset must be unchanged")

	entries, err := os.ReadDir(cfg.Upload.Dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig(t.TempDir())
	cfg.Rate = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 2, UploadLimit: 1}
	env := newTestEnv(t, cfg)

	for i := 0; i < 2; i++ {
		rec := env.do(t, http.MethodGet, "/registros", "")
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := env.do(t, http.MethodGet, "/registros", "")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	var resp ErrorResponse
	decodeBody(t, rec, &resp)
	assert.Equal(t, "RATE001", resp.Code)
}

func TestCORS_Preflight(t *testing.T) {
	env := newTestEnv(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/registros/1", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPut)
	rec := httptest.NewRecorder()
	env.server.Router().ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), http.MethodPut)
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got struct {
		Status  string                   `json:"status"`
		Uploads core.UploadLimiterStatus `json:"uploads"`
	}
	decodeBody(t, rec, &got)
	assert.Equal(t, "ok", got.Status)
	assert.Equal(t, 2, got.Uploads.MaxConcurrent)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}
