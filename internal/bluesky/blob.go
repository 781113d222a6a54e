package bluesky

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

type uploadBlobResponse struct {
	Blob json.RawMessage `json:"blob"`
}

// UploadBlob uploads raw bytes and returns the blob reference to embed in
// a record, exactly as the server returned it.
func (c *Client) UploadBlob(ctx context.Context, data []byte, mimeType string) (json.RawMessage, error) {
	if c == nil {
		return nil, errors.New("nil bluesky client")
	}
	if len(data) == 0 {
		return nil, errors.New("empty blob")
	}
	if strings.TrimSpace(mimeType) == "" {
		mimeType = "application/octet-stream"
	}
	var out uploadBlobResponse
	if err := c.call(ctx, http.MethodPost, "com.atproto.repo.uploadBlob", nil, mimeType, bytes.NewReader(data), true, &out); err != nil {
		return nil, err
	}
	if len(out.Blob) == 0 || string(out.Blob) == "null" {
		return nil, errors.New("upload blob: response missing blob")
	}
	return out.Blob, nil
}
