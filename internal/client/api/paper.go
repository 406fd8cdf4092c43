package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/avolkov/paperstand/internal/netx"
)

// UploadCredential is a time-limited direct-upload capability.
type UploadCredential struct {
	URL       string            `json:"url"`
	Method    string            `json:"method"`
	Fields    map[string]string `json:"fields"`
	Key       string            `json:"key"`
	ExpiresIn int64             `json:"expiresIn"`
}

// UploadGrant is the server's answer to an upload request.
type UploadGrant struct {
	PaperID string            `json:"paperId"`
	FileKey string            `json:"fileKey"`
	Upload  *UploadCredential `json:"upload"`
}

// Paper mirrors the server's paper projection.
type Paper struct {
	ID            string    `json:"id"`
	UserID        string    `json:"userId"`
	Title         string    `json:"title"`
	FileKey       string    `json:"fileKey"`
	Status        string    `json:"status"`
	SummaryKey    string    `json:"summaryKey"`
	StructuredKey string    `json:"structuredKey"`
	ErrorMessage  string    `json:"errorMessage"`
	UploadedAt    time.Time `json:"uploadedAt"`
	LastUpdated   time.Time `json:"lastUpdated"`
	ThumbnailURL  string    `json:"thumbnailUrl"`
}

// LibraryPage is one page of the library listing.
type LibraryPage struct {
	Items     []*Paper `json:"items"`
	NextToken string   `json:"nextToken"`
	HasMore   bool     `json:"hasMore"`
	Total     int      `json:"total"`
}

// ContentURLs carries presigned read URLs for a paper's artifacts.
type ContentURLs struct {
	PDFURL        string `json:"pdfUrl"`
	SummaryURL    string `json:"summaryUrl"`
	StructuredURL string `json:"structuredUrl"`
	ExpiresIn     int64  `json:"expiresIn"`
}

// RequestUpload asks the server for an upload credential for a new paper.
func (c *Client) RequestUpload(ctx context.Context, fileName string, fileSize int64) (*UploadGrant, error) {
	var grant UploadGrant
	err := c.do(ctx, http.MethodPost, "/api/upload/request", map[string]any{
		"fileName": fileName,
		"fileType": "application/pdf",
		"fileSize": fileSize,
	}, &grant, true)
	if err != nil {
		return nil, err
	}
	return &grant, nil
}

// UploadPaper runs the full two-step upload: request a credential, then push
// the bytes straight to the object store. Returns the new paper's ID.
func (c *Client) UploadPaper(ctx context.Context, fileName string, data []byte) (string, error) {
	grant, err := c.RequestUpload(ctx, fileName, int64(len(data)))
	if err != nil {
		return "", err
	}

	switch grant.Upload.Method {
	case http.MethodPost:
		err = netx.UploadPOST(c.http, grant.Upload.URL, grant.Upload.Fields, fileName, data)
	case http.MethodPut:
		err = netx.UploadPUT(c.http, grant.Upload.URL, "application/pdf", data)
	default:
		err = fmt.Errorf("unsupported upload method %q", grant.Upload.Method)
	}
	if err != nil {
		return "", err
	}
	return grant.PaperID, nil
}

// LibraryQuery selects and orders a library page.
type LibraryQuery struct {
	UserID    string
	Limit     int
	SortBy    string
	Order     string
	NextToken string
}

// LoadLibrary fetches one page of the caller's library.
func (c *Client) LoadLibrary(ctx context.Context, q LibraryQuery) (*LibraryPage, error) {
	var page LibraryPage
	err := c.do(ctx, http.MethodPost, "/api/library/load", map[string]any{
		"userId":    q.UserID,
		"limit":     q.Limit,
		"sortBy":    q.SortBy,
		"order":     q.Order,
		"nextToken": q.NextToken,
	}, &page, true)
	if err != nil {
		return nil, err
	}
	return &page, nil
}

// GetContentURLs fetches presigned read URLs for a paper.
func (c *Client) GetContentURLs(ctx context.Context, paperID string) (*ContentURLs, error) {
	var urls ContentURLs
	path := "/api/papers/" + url.PathEscape(paperID) + "/contentUrl"
	if err := c.do(ctx, http.MethodGet, path, nil, &urls, true); err != nil {
		return nil, err
	}
	return &urls, nil
}

// UploadAvatar requests a profile-image credential, uploads the bytes, and
// confirms the new key.
func (c *Client) UploadAvatar(ctx context.Context, fileName, contentType string, data []byte) (*User, error) {
	var resp struct {
		Upload *UploadCredential `json:"upload"`
	}
	err := c.do(ctx, http.MethodPost, "/api/profile/upload", map[string]any{
		"fileName": fileName,
		"fileType": contentType,
		"fileSize": int64(len(data)),
	}, &resp, true)
	if err != nil {
		return nil, err
	}

	if err := netx.UploadPUT(c.http, resp.Upload.URL, contentType, data); err != nil {
		return nil, err
	}

	var confirmed userResponse
	err = c.do(ctx, http.MethodPost, "/api/profile/confirm",
		map[string]string{"fileKey": resp.Upload.Key}, &confirmed, true)
	if err != nil {
		return nil, err
	}
	return confirmed.User, nil
}
