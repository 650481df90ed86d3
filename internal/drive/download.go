package drive

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

// Download returns the raw content of a non-native file (alt=media).
func (c *Client) Download(ctx context.Context, fileID, token string) ([]byte, error) {
	var buf bytes.Buffer
	if _, _, err := c.download(ctx, fileID, token, &buf); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// DownloadText is Download decoded as text.
func (c *Client) DownloadText(ctx context.Context, fileID, token string) (string, error) {
	var buf bytes.Buffer

	contentType, _, err := c.download(ctx, fileID, token, &buf)
	if err != nil {
		return "", err
	}

	return decodeText(buf.Bytes(), contentType)
}

// DownloadTo streams raw content to w and returns the bytes written.
func (c *Client) DownloadTo(ctx context.Context, fileID, token string, w io.Writer) (int64, error) {
	_, n, err := c.download(ctx, fileID, token, w)

	return n, err
}

// Export returns a native document converted to exportMimeType.
func (c *Client) Export(ctx context.Context, fileID, exportMimeType, token string) ([]byte, error) {
	var buf bytes.Buffer
	if _, _, err := c.export(ctx, fileID, exportMimeType, token, &buf); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// ExportText is Export decoded as text.
func (c *Client) ExportText(ctx context.Context, fileID, exportMimeType, token string) (string, error) {
	var buf bytes.Buffer

	contentType, _, err := c.export(ctx, fileID, exportMimeType, token, &buf)
	if err != nil {
		return "", err
	}

	return decodeText(buf.Bytes(), contentType)
}

// ExportTo streams exported content to w and returns the bytes written.
func (c *Client) ExportTo(ctx context.Context, fileID, exportMimeType, token string, w io.Writer) (int64, error) {
	_, n, err := c.export(ctx, fileID, exportMimeType, token, w)

	return n, err
}

// ReadContent returns the content of f: native documents are exported to
// their preferred format, everything else is downloaded verbatim.
func (c *Client) ReadContent(ctx context.Context, f *File, token string) ([]byte, error) {
	info := f.ExportInfo()
	if info.IsManagedDocument {
		return c.Export(ctx, f.ID, info.ExportMimeTypes[0], token)
	}

	return c.Download(ctx, f.ID, token)
}

// ReadContentText is ReadContent decoded as text.
func (c *Client) ReadContentText(ctx context.Context, f *File, token string) (string, error) {
	info := f.ExportInfo()
	if info.IsManagedDocument {
		return c.ExportText(ctx, f.ID, info.ExportMimeTypes[0], token)
	}

	return c.DownloadText(ctx, f.ID, token)
}

func (c *Client) download(ctx context.Context, fileID, token string, w io.Writer) (string, int64, error) {
	c.logger.Info("downloading file", slog.String("file_id", fileID))

	params := c.allDrivesParams()
	params.Set("alt", "media")

	return c.stream(ctx, c.fileURL(fileID, "", params), token, w)
}

func (c *Client) export(ctx context.Context, fileID, exportMimeType, token string, w io.Writer) (string, int64, error) {
	c.logger.Info("exporting file",
		slog.String("file_id", fileID),
		slog.String("export_mime_type", exportMimeType),
	)

	params := c.allDrivesParams()
	params.Set("alt", "media")
	params.Set("mimeType", exportMimeType)

	return c.stream(ctx, c.fileURL(fileID, "/export", params), token, w)
}

// stream issues a GET and copies the body to w. Returns the response
// Content-Type and the number of bytes copied.
func (c *Client) stream(ctx context.Context, rawURL, token string, w io.Writer) (string, int64, error) {
	resp, err := c.do(ctx, http.MethodGet, rawURL, token, "", nil)
	if err != nil {
		return "", 0, err
	}
	defer resp.Body.Close()

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		c.logger.Error("streaming content failed",
			slog.String("error", err.Error()),
			slog.Int64("bytes_before_error", n),
		)

		return "", n, fmt.Errorf("drive: streaming content: %w", err)
	}

	c.logger.Debug("content received", slog.Int64("bytes", n))

	return resp.Header.Get("Content-Type"), n, nil
}
