package chatservice

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

const maxUploadBytes = 32 << 20

type uploadResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// Upload sends the file at path to /upload, filed under kind (for example
// "logo" or "team"). It returns the service's confirmation message.
func (c *Client) Upload(ctx context.Context, kind, path string) (string, error) {
	kind = strings.TrimSpace(kind)
	if kind == "" {
		kind = "general"
	}
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("stat upload: %w", err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("upload %s: is a directory", path)
	}
	if info.Size() > maxUploadBytes {
		return "", fmt.Errorf("upload %s: %d bytes exceeds %d byte limit", path, info.Size(), maxUploadBytes)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := writeUpload(mw, kind, filepath.Base(path), f); err != nil {
		return "", fmt.Errorf("encode upload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(uploadPath), &body)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	raw, err := c.do(req)
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) {
			var out uploadResponse
			if json.Unmarshal([]byte(se.Body), &out) == nil && out.Error != "" {
				se.Body = out.Error
			}
		}
		return "", err
	}

	var out uploadResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedReply, err)
	}
	if out.Error != "" {
		return "", fmt.Errorf("%w: %s", ErrRejected, out.Error)
	}
	return out.Message, nil
}

func writeUpload(mw *multipart.Writer, kind, name string, src io.Reader) error {
	if err := mw.WriteField("type", kind); err != nil {
		return err
	}
	part, err := mw.CreateFormFile("file", name)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, src); err != nil {
		return err
	}
	return mw.Close()
}
