package drive

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/tonimelisma/gdrive-go/internal/mimetype"
)

// File describes a remote Drive file as delivered by the picker or the REST
// API. Fields the client does not model are kept verbatim in Extra.
type File struct {
	ID          string
	Name        string
	MimeType    string
	Description string
	SizeBytes   int64
	Starred     bool
	Trashed     bool
	ServiceID   string
	Extra       map[string]json.RawMessage
}

// ExportInfo classifies the file by its MIME type.
func (f *File) ExportInfo() mimetype.ExportInfo {
	return mimetype.Classify(f.MimeType)
}

// Known keys, removed from Extra on decode. "size" is the REST spelling
// (a decimal string); "sizeBytes" is the picker spelling (a number).
const (
	keyID          = "id"
	keyName        = "name"
	keyMimeType    = "mimeType"
	keyDescription = "description"
	keySize        = "size"
	keySizeBytes   = "sizeBytes"
	keyStarred     = "starred"
	keyTrashed     = "trashed"
	keyServiceID   = "serviceId"
)

// UnmarshalJSON decodes both picker documents and REST file resources.
func (f *File) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var out File

	fields := []struct {
		key string
		dst any
	}{
		{keyID, &out.ID},
		{keyName, &out.Name},
		{keyMimeType, &out.MimeType},
		{keyDescription, &out.Description},
		{keyStarred, &out.Starred},
		{keyTrashed, &out.Trashed},
		{keyServiceID, &out.ServiceID},
	}

	for _, fld := range fields {
		v, ok := raw[fld.key]
		if !ok {
			continue
		}

		if err := json.Unmarshal(v, fld.dst); err != nil {
			return fmt.Errorf("drive: decoding file field %q: %w", fld.key, err)
		}

		delete(raw, fld.key)
	}

	size, err := decodeSize(raw)
	if err != nil {
		return err
	}

	out.SizeBytes = size

	if len(raw) > 0 {
		out.Extra = raw
	}

	*f = out

	return nil
}

// decodeSize reads sizeBytes (number) or size (string or number) and removes
// whichever keys it consumed. null and "" count as 0.
func decodeSize(raw map[string]json.RawMessage) (int64, error) {
	for _, key := range []string{keySizeBytes, keySize} {
		v, ok := raw[key]
		if !ok {
			continue
		}

		delete(raw, key)

		var n json.Number
		if err := json.Unmarshal(v, &n); err == nil {
			// null leaves n empty.
			if n == "" {
				return 0, nil
			}

			size, err := n.Int64()
			if err != nil {
				return 0, fmt.Errorf("drive: decoding file field %q: %w", key, err)
			}

			return size, nil
		}

		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return 0, fmt.Errorf("drive: decoding file field %q: %w", key, err)
		}

		if s == "" {
			return 0, nil
		}

		size, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("drive: decoding file field %q: %w", key, err)
		}

		return size, nil
	}

	return 0, nil
}

// MarshalJSON writes the picker shape: known fields plus Extra.
func (f File) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(f.Extra)+8)
	for k, v := range f.Extra {
		out[k] = v
	}

	out[keyID] = f.ID
	out[keyName] = f.Name
	out[keyMimeType] = f.MimeType
	out[keySizeBytes] = f.SizeBytes
	out[keyStarred] = f.Starred
	out[keyTrashed] = f.Trashed

	if f.Description != "" {
		out[keyDescription] = f.Description
	}

	if f.ServiceID != "" {
		out[keyServiceID] = f.ServiceID
	}

	return json.Marshal(out)
}

// fileListResponse mirrors the files.list JSON.
type fileListResponse struct {
	Files         []File `json:"files"`
	NextPageToken string `json:"nextPageToken"`
}

// uploadMetadata is the JSON "metadata" part of a multipart upload.
type uploadMetadata struct {
	Name    string   `json:"name"`
	Parents []string `json:"parents,omitempty"`
}
