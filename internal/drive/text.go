package drive

import (
	"fmt"
	"mime"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

// decodeText converts a response body to a string using the charset from
// contentType (UTF-8 when absent). Invalid sequences become U+FFFD.
func decodeText(body []byte, contentType string) (string, error) {
	charset := "utf-8"

	if _, params, err := mime.ParseMediaType(contentType); err == nil {
		if cs := strings.TrimSpace(params["charset"]); cs != "" {
			charset = cs
		}
	}

	enc, err := htmlindex.Get(charset)
	if err != nil {
		return "", fmt.Errorf("drive: unsupported charset %q: %w", charset, err)
	}

	out, _, err := transform.Bytes(enc.NewDecoder(), body)
	if err != nil {
		return "", fmt.Errorf("drive: decoding %s body: %w", charset, err)
	}

	return string(out), nil
}
