package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonimelisma/gdrive-go/internal/drive"
	"github.com/tonimelisma/gdrive-go/internal/mimetype"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLs_JSON(t *testing.T) {
	d, url := startFakeDrive(t)
	cliEnv(t, url)

	out, err := runCLI(t, "--json", "ls")
	require.NoError(t, err)

	var files []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &files))
	require.Len(t, files, 4)
	assert.Equal(t, "dir1", files[0]["id"])
	assert.InDelta(t, 2048, files[2]["sizeBytes"], 0)

	assert.Equal(t, "Bearer "+testAccessToken, d.auth[0])
}

func TestLs_Table(t *testing.T) {
	_, url := startFakeDrive(t)
	cliEnv(t, url)

	out, err := runCLI(t, "ls", "root")
	require.NoError(t, err)
	assert.Contains(t, out, "Projects/")
	assert.Contains(t, out, "photo.jpg")
	assert.Contains(t, out, "2.0 KB")
}

func TestLs_EmptyFolderJSON(t *testing.T) {
	_, url := startFakeDrive(t)
	cliEnv(t, url)

	out, err := runCLI(t, "--json", "ls", "dir1")
	require.NoError(t, err)
	assert.Equal(t, "[]\n", out)
}

func TestStat_NativeDocument(t *testing.T) {
	_, url := startFakeDrive(t)
	cliEnv(t, url)

	out, err := runCLI(t, "stat", "doc1")
	require.NoError(t, err)
	assert.Contains(t, out, "Name:     Plan")
	assert.Contains(t, out, "Kind:     document")
	assert.Contains(t, out, "application/pdf")
	assert.NotContains(t, out, "Size:")
}

func TestStat_JSON(t *testing.T) {
	_, url := startFakeDrive(t)
	cliEnv(t, url)

	out, err := runCLI(t, "--json", "stat", "bin1")
	require.NoError(t, err)

	var got statOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "photo.jpg", got.File.Name)
	assert.Equal(t, int64(2048), got.File.SizeBytes)
	assert.False(t, got.Export.IsManagedDocument)
}

func TestStat_NotFound(t *testing.T) {
	_, url := startFakeDrive(t)
	cliEnv(t, url)

	_, err := runCLI(t, "stat", "missing")
	require.Error(t, err)

	var re *drive.RemoteError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, 404, re.StatusCode)
}

func TestGet_DownloadsAndExports(t *testing.T) {
	d, url := startFakeDrive(t)
	home := cliEnv(t, url)
	outDir := filepath.Join(home, "out")

	_, err := runCLI(t, "get", "doc1", "bin1", "txt1", "dup1", "-o", outDir)
	require.NoError(t, err)

	docx, err := os.ReadFile(filepath.Join(outDir, "Plan.docx"))
	require.NoError(t, err)
	assert.Equal(t, "exported doc1 as "+mimetype.Classify("application/vnd.google-apps.document").ExportMimeTypes[0], string(docx))

	jpg, err := os.ReadFile(filepath.Join(outDir, "photo.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "JPEGDATA", string(jpg))

	notes, err := os.ReadFile(filepath.Join(outDir, "notes.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello notes", string(notes))

	dup, err := os.ReadFile(filepath.Join(outDir, "notes (dup1).txt"))
	require.NoError(t, err)
	assert.Equal(t, "dup", string(dup))

	assert.Len(t, d.exports, 1)

	leftovers, err := filepath.Glob(filepath.Join(outDir, ".gdrive-*"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestGet_ExportFormat(t *testing.T) {
	d, url := startFakeDrive(t)
	home := cliEnv(t, url)

	_, err := runCLI(t, "get", "sheet", "--export", "text/csv", "-o", home)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(home, "Budget.csv"))
	require.NoError(t, err)
	assert.Equal(t, "exported sheet as text/csv", string(data))
	assert.Equal(t, []string{"sheet|text/csv"}, d.exports)
}

func TestGet_RejectsUnsupportedExport(t *testing.T) {
	d, url := startFakeDrive(t)
	home := cliEnv(t, url)

	_, err := runCLI(t, "get", "sheet", "--export", "image/png", "-o", home)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot be exported as image/png")
	assert.Empty(t, d.exports)
}

func TestGet_RejectsFolder(t *testing.T) {
	_, url := startFakeDrive(t)
	home := cliEnv(t, url)

	_, err := runCLI(t, "get", "dir1", "-o", home)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dir1 is a folder")
}

func TestCat_PlainFile(t *testing.T) {
	_, url := startFakeDrive(t)
	cliEnv(t, url)

	out, err := runCLI(t, "cat", "txt1")
	require.NoError(t, err)
	assert.Equal(t, "hello notes", out)
}

func TestCat_NativeDocumentUsesDefaultExport(t *testing.T) {
	d, url := startFakeDrive(t)
	cliEnv(t, url)

	out, err := runCLI(t, "cat", "doc1")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "exported doc1 as "))
	require.Len(t, d.exports, 1)
}

func TestPut_Uploads(t *testing.T) {
	d, url := startFakeDrive(t)
	home := cliEnv(t, url)
	local := writeFile(t, home, "report.txt", "quarterly")

	out, err := runCLI(t, "--json", "put", local, "--parent", "dir1")
	require.NoError(t, err)

	var f map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &f))
	assert.Equal(t, "new1", f["id"])
	assert.Equal(t, []string{"report.txt|dir1"}, d.uploads)
}

func TestPut_RejectsDirectory(t *testing.T) {
	_, url := startFakeDrive(t)
	home := cliEnv(t, url)

	_, err := runCLI(t, "put", home)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is a directory")
}

func TestRejectedCredential_Explained(t *testing.T) {
	d, url := startFakeDrive(t)
	cliEnv(t, url)
	d.status = 401

	_, err := runCLI(t, "ls")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "credential rejected")
	assert.True(t, drive.IsRemoteStatus(err, 401))
}

func TestMissingOAuthSettings(t *testing.T) {
	_, url := startFakeDrive(t)
	cliEnv(t, url)

	cfgPath := writeFile(t, t.TempDir(), "bare.toml", "[logging]\nlog_level = \"error\"\n")

	_, err := runCLI(t, "--config", cfgPath, "ls")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "incomplete OAuth settings")
	assert.Contains(t, err.Error(), "oauth.client_id")
}

func TestPlanDownloads(t *testing.T) {
	files := []*drive.File{
		{ID: "a", Name: "Slides", MimeType: "application/vnd.google-apps.presentation"},
		{ID: "b", Name: "Slides.pptx", MimeType: "application/octet-stream"},
		{ID: "c", Name: "a/b", MimeType: "text/plain"},
		{ID: "d", Name: "..", MimeType: "text/plain"},
	}

	plan, err := planDownloads(files, "", "out")
	require.NoError(t, err)
	require.Len(t, plan, 4)

	assert.Equal(t, filepath.Join("out", "Slides.pptx"), plan[0].path)
	assert.NotEmpty(t, plan[0].exportMime)
	assert.Equal(t, filepath.Join("out", "Slides (b).pptx"), plan[1].path)
	assert.Empty(t, plan[1].exportMime)
	assert.Equal(t, filepath.Join("out", "a_b"), plan[2].path)
	assert.Equal(t, filepath.Join("out", "d"), plan[3].path)
}

func TestLocalName_KeepsExistingExtension(t *testing.T) {
	f := &drive.File{ID: "x", Name: "Report.PDF"}
	assert.Equal(t, "Report.PDF", localName(f, "application/pdf"))
	assert.Equal(t, "Report.PDF.txt", localName(f, "text/plain"))
}

func TestPrintFilesTable(t *testing.T) {
	var buf bytes.Buffer

	printFilesTable(&buf, []drive.File{
		{ID: "f", Name: "Docs", MimeType: mimetype.FolderMimeType},
		{ID: "g", Name: "Plan", MimeType: "application/vnd.google-apps.document"},
		{ID: "h", Name: "big.bin", MimeType: "application/octet-stream", SizeBytes: 3 * 1024 * 1024},
	})

	out := buf.String()
	assert.Contains(t, out, "Docs/")
	assert.Contains(t, out, "3.0 MB")
	assert.Contains(t, out, "ID")
}
