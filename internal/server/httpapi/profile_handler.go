package httpapi

import "net/http"

type profileUploadRequest struct {
	FileName string `json:"fileName"`
	FileType string `json:"fileType"`
	FileSize int64  `json:"fileSize"`
}

func (s *Server) handleProfileUpload(w http.ResponseWriter, r *http.Request) {
	userID, err := UserIDFromContext(r.Context())
	if err != nil {
		fail(r.Context(), w, s.log, err)
		return
	}

	var req profileUploadRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(r.Context(), w, s.log, err)
		return
	}

	cred, err := s.users.RequestAvatarUpload(r.Context(), userID, req.FileName, req.FileType, req.FileSize)
	if err != nil {
		fail(r.Context(), w, s.log, err)
		return
	}

	ok(w, http.StatusCreated, map[string]any{"upload": credentialJSON(cred)})
}

type profileConfirmRequest struct {
	FileKey string `json:"fileKey"`
}

func (s *Server) handleProfileConfirm(w http.ResponseWriter, r *http.Request) {
	userID, err := UserIDFromContext(r.Context())
	if err != nil {
		fail(r.Context(), w, s.log, err)
		return
	}

	var req profileConfirmRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(r.Context(), w, s.log, err)
		return
	}

	user, err := s.users.ConfirmAvatar(r.Context(), userID, req.FileKey)
	if err != nil {
		fail(r.Context(), w, s.log, err)
		return
	}

	ok(w, http.StatusOK, map[string]any{"user": user.Sanitized()})
}
