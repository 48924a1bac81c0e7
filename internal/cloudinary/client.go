package cloudinary

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

const defaultBaseURL = "https://api.cloudinary.com/v1_1"

// Client uploads generated QR images through Cloudinary's signed upload API.
type Client struct {
	CloudName string
	APIKey    string
	APISecret string
	// Folder prefixes every public ID.
	Folder  string
	BaseURL string
	HTTP    *http.Client
	now     func() time.Time
}

// New creates a Cloudinary client.
func New(cloudName, apiKey, apiSecret, folder string) *Client {
	return &Client{
		CloudName: cloudName,
		APIKey:    apiKey,
		APISecret: apiSecret,
		Folder:    folder,
		BaseURL:   defaultBaseURL,
		HTTP:      &http.Client{Timeout: 30 * time.Second},
		now:       time.Now,
	}
}

// UploadResult is the subset of the upload response the API uses.
type UploadResult struct {
	PublicID  string `json:"public_id"`
	SecureURL string `json:"secure_url"`
	Format    string `json:"format"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Bytes     int    `json:"bytes"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// UploadBytes uploads an image. A non-empty publicID overwrites the previous
// upload under the same ID, so regenerating a student's code replaces it.
func (c *Client) UploadBytes(ctx context.Context, data []byte, filename, publicID string) (*UploadResult, error) {
	params := url.Values{}
	params.Set("timestamp", strconv.FormatInt(c.now().Unix(), 10))
	if c.Folder != "" {
		params.Set("folder", c.Folder)
	}
	if publicID != "" {
		params.Set("public_id", publicID)
		params.Set("overwrite", "true")
	}
	params.Set("signature", signature(params, c.APISecret))
	params.Set("api_key", c.APIKey)

	body, contentType, err := multipartBody(params, filename, data)
	if err != nil {
		return nil, fmt.Errorf("cloudinary: build form: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s/image/upload", c.BaseURL, url.PathEscape(c.CloudName))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("cloudinary: create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cloudinary: request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("cloudinary: read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		var ae apiError
		if json.Unmarshal(raw, &ae) == nil && ae.Error.Message != "" {
			return nil, fmt.Errorf("cloudinary: upload failed (%d): %s", resp.StatusCode, ae.Error.Message)
		}
		return nil, fmt.Errorf("cloudinary: upload failed (%d)", resp.StatusCode)
	}

	var result UploadResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("cloudinary: decode response: %w", err)
	}
	return &result, nil
}

func multipartBody(params url.Values, filename string, data []byte) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k := range params {
		if err := w.WriteField(k, params.Get(k)); err != nil {
			return nil, "", err
		}
	}
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(data); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

// signature is the hex SHA-1 of the sorted, unescaped key=value pairs joined
// by '&' with the secret appended. api_key, file and empty values are not signed.
func signature(params url.Values, secret string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		switch k {
		case "api_key", "file", "resource_type", "signature":
			continue
		}
		if params.Get(k) != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	pairs := make([]string, len(keys))
	for i, k := range keys {
		pairs[i] = k + "=" + params.Get(k)
	}
	sum := sha1.Sum([]byte(strings.Join(pairs, "&") + secret))
	return hex.EncodeToString(sum[:])
}
