package drive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path/filepath"
)

// Multipart part names expected by the upload endpoint.
const (
	partMetadata = "metadata"
	partMedia    = "media"
)

// Upload creates a file named name from r in a single multipart request.
// parentID may be empty, in which case the service picks the default parent.
// Returns the created file's metadata.
func (c *Client) Upload(ctx context.Context, r io.Reader, name, parentID, token string) (*File, error) {
	c.logger.Info("uploading file",
		slog.String("name", name),
		slog.String("parent_id", parentID),
	)

	// Resolve first so a missing credential fails before the body is read.
	tok, err := c.resolveToken(ctx, token)
	if err != nil {
		return nil, err
	}

	body, contentType, err := buildMultipartBody(r, name, parentID)
	if err != nil {
		return nil, err
	}

	params := c.allDrivesParams()
	params.Set("uploadType", "multipart")

	resp, err := c.do(ctx, http.MethodPost, c.uploadURL+"/files?"+params.Encode(), tok, contentType, body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var f File
	if err := json.NewDecoder(resp.Body).Decode(&f); err != nil {
		return nil, fmt.Errorf("drive: decoding upload response: %w", err)
	}

	c.logger.Info("upload complete",
		slog.String("file_id", f.ID),
		slog.Int("body_bytes", body.Len()),
	)

	return &f, nil
}

// buildMultipartBody assembles the metadata + media parts. The body is
// buffered; resumable upload is out of scope.
func buildMultipartBody(r io.Reader, name, parentID string) (*bytes.Buffer, string, error) {
	meta := uploadMetadata{Name: name}
	if parentID != "" {
		meta.Parents = []string{parentID}
	}

	metaBytes, err := json.Marshal(meta)
	if err != nil {
		return nil, "", fmt.Errorf("drive: marshaling upload metadata: %w", err)
	}

	var buf bytes.Buffer

	mw := multipart.NewWriter(&buf)

	metaPart, err := mw.CreatePart(partHeader(partMetadata, "", "application/json; charset=UTF-8"))
	if err != nil {
		return nil, "", fmt.Errorf("drive: creating metadata part: %w", err)
	}

	if _, err := metaPart.Write(metaBytes); err != nil {
		return nil, "", fmt.Errorf("drive: writing metadata part: %w", err)
	}

	mediaPart, err := mw.CreatePart(partHeader(partMedia, name, mediaContentType(name)))
	if err != nil {
		return nil, "", fmt.Errorf("drive: creating media part: %w", err)
	}

	if _, err := io.Copy(mediaPart, r); err != nil {
		return nil, "", fmt.Errorf("drive: writing media part: %w", err)
	}

	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("drive: closing multipart body: %w", err)
	}

	return &buf, mw.FormDataContentType(), nil
}

func partHeader(field, filename, contentType string) textproto.MIMEHeader {
	disposition := map[string]string{"name": field}
	if filename != "" {
		disposition["filename"] = filename
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", mime.FormatMediaType("form-data", disposition))
	h.Set("Content-Type", contentType)

	return h
}

// mediaContentType guesses the media part type from the file extension.
func mediaContentType(name string) string {
	if t := mime.TypeByExtension(filepath.Ext(name)); t != "" {
		return t
	}

	return "application/octet-stream"
}
