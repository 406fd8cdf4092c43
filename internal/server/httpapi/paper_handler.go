package httpapi

import (
	"net/http"

	"github.com/avolkov/paperstand/internal/server/repositories/papers"
	"github.com/go-chi/chi/v5"
)

type uploadRequest struct {
	FileName string `json:"fileName"`
	FileType string `json:"fileType"`
	FileSize int64  `json:"fileSize"`
}

func (s *Server) handleUploadRequest(w http.ResponseWriter, r *http.Request) {
	userID, err := UserIDFromContext(r.Context())
	if err != nil {
		fail(r.Context(), w, s.log, err)
		return
	}

	var req uploadRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(r.Context(), w, s.log, err)
		return
	}

	grant, err := s.papers.RequestUpload(r.Context(), userID, req.FileName, req.FileType, req.FileSize)
	if err != nil {
		fail(r.Context(), w, s.log, err)
		return
	}

	if s.collector != nil {
		s.collector.RecordUploadGrant()
	}
	ok(w, http.StatusCreated, map[string]any{
		"paperId": grant.PaperID,
		"fileKey": grant.FileKey,
		"upload":  credentialJSON(grant.Credential),
	})
}

func (s *Server) handleContentURLs(w http.ResponseWriter, r *http.Request) {
	userID, err := UserIDFromContext(r.Context())
	if err != nil {
		fail(r.Context(), w, s.log, err)
		return
	}

	paperID := chi.URLParam(r, "paperID")

	urls, err := s.papers.GetContentURLs(r.Context(), userID, paperID)
	if err != nil {
		fail(r.Context(), w, s.log, err)
		return
	}

	ok(w, http.StatusOK, map[string]any{
		"pdfUrl":        urls.PDFURL,
		"summaryUrl":    urls.SummaryURL,
		"structuredUrl": urls.StructuredURL,
		"expiresIn":     urls.ExpiresIn,
	})
}

type libraryLoadRequest struct {
	UserID    string `json:"userId"`
	Limit     int    `json:"limit"`
	SortBy    string `json:"sortBy"`
	Order     string `json:"order"`
	NextToken string `json:"nextToken"`
}

func (s *Server) handleLibraryLoad(w http.ResponseWriter, r *http.Request) {
	subjectID, err := UserIDFromContext(r.Context())
	if err != nil {
		fail(r.Context(), w, s.log, err)
		return
	}

	var req libraryLoadRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(r.Context(), w, s.log, err)
		return
	}
	if req.UserID == "" {
		req.UserID = subjectID
	}

	page, err := s.papers.LoadLibrary(r.Context(), subjectID, req.UserID, req.Limit, req.SortBy, req.Order, req.NextToken)
	if err != nil {
		fail(r.Context(), w, s.log, err)
		return
	}

	items := make([]map[string]any, 0, len(page.Items))
	for _, item := range page.Items {
		row := paperJSON(item.Paper)
		row["thumbnailUrl"] = item.ThumbnailURL
		items = append(items, row)
	}

	ok(w, http.StatusOK, map[string]any{
		"items":     items,
		"nextToken": page.NextToken,
		"hasMore":   page.HasMore,
		"total":     page.Total,
	})
}

type workerStatusRequest struct {
	PaperID       string `json:"paperId"`
	Status        string `json:"status"`
	SummaryKey    string `json:"summaryKey"`
	StructuredKey string `json:"structuredKey"`
	ErrorMessage  string `json:"errorMessage"`
}

// handleWorkerStatus applies a status report from the summarization worker
// and fans the new state out over the realtime channel. Fan-out failures do
// not fail the callback: the worker's report is already durable.
func (s *Server) handleWorkerStatus(w http.ResponseWriter, r *http.Request) {
	var req workerStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(r.Context(), w, s.log, err)
		return
	}

	paper, err := s.papers.UpdateStatus(r.Context(), req.PaperID, papers.StatusUpdate{
		Status:        req.Status,
		SummaryKey:    req.SummaryKey,
		StructuredKey: req.StructuredKey,
		ErrorMessage:  req.ErrorMessage,
	})
	if err != nil {
		fail(r.Context(), w, s.log, err)
		return
	}

	if s.collector != nil {
		s.collector.RecordStatusUpdate(paper.Status)
	}
	if s.relay != nil {
		if err := s.relay.NotifyPaperStatus(r.Context(), paper); err != nil {
			s.log.Warn(r.Context(), "status fan-out failed", "paperID", paper.ID, "error", err)
		}
	}

	ok(w, http.StatusOK, map[string]any{"paper": paperJSON(paper)})
}
