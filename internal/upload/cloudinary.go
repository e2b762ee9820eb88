// Package upload pushes task attachments to Cloudinary's unsigned
// upload endpoint and hands back the hosted URL.
package upload

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// ErrNotConfigured is returned before any network call when the upload
// settings are incomplete.
var ErrNotConfigured = errors.New("cloudinary is not configured (cloud_name and upload_preset required)")

const endpointFormat = "https://api.cloudinary.com/v1_1/%s/upload"

// Uploader uploads files to a Cloudinary cloud.
type Uploader struct {
	CloudName    string
	UploadPreset string

	// HTTPClient is used for the upload request; a default client with
	// a generous timeout is used when nil (uploads can be large).
	HTTPClient *http.Client
}

// New creates an uploader for the given cloud and preset. Either value
// may be empty; Upload fails fast in that case.
func New(cloudName, uploadPreset string) *Uploader {
	return &Uploader{CloudName: cloudName, UploadPreset: uploadPreset}
}

// Upload sends the file at path as multipart form data and returns the
// hosted secure URL. The dependent task create/update must wait for
// this to finish; the attachment URL goes into the task record.
func (u *Uploader) Upload(ctx context.Context, path string) (string, error) {
	if u.CloudName == "" || u.UploadPreset == "" {
		return "", ErrNotConfigured
	}

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open attachment: %w", err)
	}
	defer f.Close()

	pr, pw := io.Pipe()
	form := multipart.NewWriter(pw)

	// Stream the form body so large images never sit in memory whole.
	go func() {
		part, err := form.CreateFormFile("file", filepath.Base(path))
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, f); err != nil {
			pw.CloseWithError(err)
			return
		}
		if err := form.WriteField("upload_preset", u.UploadPreset); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(form.Close())
	}()

	url := fmt.Sprintf(endpointFormat, u.CloudName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, pr)
	if err != nil {
		return "", fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	client := u.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 2 * time.Minute}
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload attachment: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("upload failed with status %d: %s", resp.StatusCode, body)
	}

	var result struct {
		SecureURL string `json:"secure_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode upload response: %w", err)
	}
	if result.SecureURL == "" {
		return "", errors.New("upload response carried no secure_url")
	}

	return result.SecureURL, nil
}
