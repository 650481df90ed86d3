package drive

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
)

// ListChildren returns every item whose parent is parentID, following
// nextPageToken until the listing is exhausted. An empty token means the
// client's TokenSource supplies one.
func (c *Client) ListChildren(ctx context.Context, parentID, token string) ([]File, error) {
	c.logger.Info("listing children",
		slog.String("parent_id", parentID),
		slog.Bool("all_drives", c.supportAllDrives),
	)

	var files []File

	pageToken := ""
	page := 1

	for {
		pageFiles, next, err := c.listChildrenPage(ctx, parentID, pageToken, token)
		if err != nil {
			return nil, err
		}

		files = append(files, pageFiles...)

		c.logger.Debug("fetched children page",
			slog.Int("page", page),
			slog.Int("count", len(pageFiles)),
		)

		if next == "" {
			break
		}

		pageToken = next
		page++
	}

	c.logger.Info("listed children complete",
		slog.String("parent_id", parentID),
		slog.Int("total_items", len(files)),
	)

	return files, nil
}

func (c *Client) listChildrenPage(ctx context.Context, parentID, pageToken, token string) ([]File, string, error) {
	params := c.allDrivesParams()
	params.Set("q", fmt.Sprintf("'%s' in parents", parentID))

	if pageToken != "" {
		params.Set("pageToken", pageToken)
	}

	resp, err := c.do(ctx, http.MethodGet, c.baseURL+"/files?"+params.Encode(), token, "", nil)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	var flr fileListResponse
	if err := json.NewDecoder(resp.Body).Decode(&flr); err != nil {
		return nil, "", fmt.Errorf("drive: decoding file list response: %w", err)
	}

	return flr.Files, flr.NextPageToken, nil
}

// GetFile fetches the metadata of a single file.
func (c *Client) GetFile(ctx context.Context, fileID, token string) (*File, error) {
	c.logger.Info("getting file", slog.String("file_id", fileID))

	resp, err := c.do(ctx, http.MethodGet, c.fileURL(fileID, "", c.allDrivesParams()), token, "", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var f File
	if err := json.NewDecoder(resp.Body).Decode(&f); err != nil {
		return nil, fmt.Errorf("drive: decoding file response: %w", err)
	}

	return &f, nil
}
