package mockapi

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/analuiza2102/bioaccess/capture"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type enrollRequest struct {
	Username    string `json:"username"`
	ImageB64    string `json:"image_b64"`
	ImageFormat string `json:"image_format"`
}

type verifyRequest struct {
	Username  string `json:"username"`
	ImageB64  string `json:"image_b64"`
	ImageB64A string `json:"image_b64_a"`
	ImageB64B string `json:"image_b64_b"`
}

type createUserRequest struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	Role      string `json:"role"`
	Clearance int    `json:"clearance"`
}

type resetPasswordRequest struct {
	NewPassword string `json:"new_password"`
}

// Login exchanges a credential pair for a bearer token. Wrong username and
// wrong password are indistinguishable to the caller.
func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	u, ok := s.findUser(req.Username)
	if !ok || bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(req.Password)) != nil {
		s.record(req.Username, "login", 0, false, r)
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	token, err := s.issueToken(u)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "token issuance failed")
		return
	}
	s.record(u.Username, "login", 0, true, r)
	writeJSON(w, http.StatusOK, map[string]any{
		"access_token": token,
		"token_type":   "bearer",
		"role":         u.Role,
		"clearance":    u.Clearance,
		"username":     u.Username,
	})
}

// CheckBiometric reports whether an identity has an enrolled template. The
// endpoint deliberately does not reveal whether the account exists.
func (s *Server) CheckBiometric(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	u, ok := s.findUser(req.Username)
	enrolled := ok && u.Template != nil
	msg := "no biometric enrolled"
	if enrolled {
		msg = "biometric enrolled"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"has_biometric": enrolled,
		"message":       msg,
	})
}

// Enroll stores a face template for an existing account.
func (s *Server) Enroll(w http.ResponseWriter, r *http.Request) {
	var req enrollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	data, err := base64.StdEncoding.DecodeString(req.ImageB64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "image_b64 is not valid base64")
		return
	}
	s.enroll(w, r, req.Username, data)
}

// EnrollUpload stores a face template from a multipart file upload.
func (s *Server) EnrollUpload(w http.ResponseWriter, r *http.Request) {
	username, data, ok := s.readUpload(w, r, "image")
	if !ok {
		return
	}
	s.enroll(w, r, username, data)
}

func (s *Server) enroll(w http.ResponseWriter, r *http.Request, username string, data []byte) {
	u, ok := s.findUser(username)
	if !ok {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}

	tpl, err := detectFace(data)
	if err != nil {
		s.record(username, "enroll", 0, false, r)
		writeError(w, http.StatusBadRequest, "no face detected in the image")
		return
	}

	s.mu.Lock()
	if u.Template != nil {
		s.mu.Unlock()
		writeError(w, http.StatusConflict, "user already has an enrolled biometric")
		return
	}
	u.Template = tpl
	s.mu.Unlock()

	s.record(username, "enroll", 0, true, r)
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "biometric enrolled",
		"user_id": u.ID,
	})
}

// Verify authenticates by face image, or by a liveness pair when both
// image_b64_a and image_b64_b are present.
func (s *Server) Verify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	if req.ImageB64A != "" || req.ImageB64B != "" {
		frameA, errA := base64.StdEncoding.DecodeString(req.ImageB64A)
		frameB, errB := base64.StdEncoding.DecodeString(req.ImageB64B)
		if errA != nil || errB != nil || len(frameA) == 0 || len(frameB) == 0 {
			writeError(w, http.StatusBadRequest, "liveness verification needs two base64 frames")
			return
		}
		s.verifyLiveness(w, r, req.Username, frameA, frameB)
		return
	}

	data, err := base64.StdEncoding.DecodeString(req.ImageB64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "image_b64 is not valid base64")
		return
	}
	s.verify(w, r, req.Username, data)
}

// VerifyUpload authenticates by an uploaded image file.
func (s *Server) VerifyUpload(w http.ResponseWriter, r *http.Request) {
	username, data, ok := s.readUpload(w, r, "image")
	if !ok {
		return
	}
	s.verify(w, r, username, data)
}

// VerifyCamera authenticates by a camera snapshot upload.
func (s *Server) VerifyCamera(w http.ResponseWriter, r *http.Request) {
	username, data, ok := s.readUpload(w, r, "camera_image")
	if !ok {
		return
	}
	s.verify(w, r, username, data)
}

func (s *Server) verify(w http.ResponseWriter, r *http.Request, username string, data []byte) {
	u, ok := s.findUser(username)
	if !ok {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	if u.Template == nil {
		writeError(w, http.StatusBadRequest, "user has no enrolled biometric")
		return
	}
	if _, err := detectFace(data); err != nil {
		s.record(username, "verify", 0, false, r)
		writeError(w, http.StatusBadRequest, "no face detected in the image")
		return
	}
	s.grantVerified(w, r, u)
}

func (s *Server) verifyLiveness(w http.ResponseWriter, r *http.Request, username string, frameA, frameB []byte) {
	u, ok := s.findUser(username)
	if !ok {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	if u.Template == nil {
		writeError(w, http.StatusBadRequest, "user has no enrolled biometric")
		return
	}
	if err := checkLiveness(frameA, frameB); err != nil {
		s.record(username, "verify", 0, false, r)
		if errors.Is(err, errNoMotion) {
			writeError(w, http.StatusUnauthorized, "verification rejected")
			return
		}
		writeError(w, http.StatusBadRequest, "no face detected in the image")
		return
	}
	s.grantVerified(w, r, u)
}

func (s *Server) grantVerified(w http.ResponseWriter, r *http.Request, u *account) {
	token, err := s.issueToken(u)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "token issuance failed")
		return
	}
	s.record(u.Username, "verify", 0, true, r)
	writeJSON(w, http.StatusOK, map[string]any{
		"token":     token,
		"role":      u.Role,
		"clearance": u.Clearance,
		"username":  u.Username,
	})
}

// readUpload pulls the named multipart file plus the username field,
// enforcing the type and size limits uploads are subject to.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request, field string) (string, []byte, bool) {
	if err := r.ParseMultipartForm(capture.MaxUploadBytes + 1024); err != nil {
		writeError(w, http.StatusBadRequest, "malformed multipart body")
		return "", nil, false
	}
	file, _, err := r.FormFile(field)
	if err != nil {
		writeError(w, http.StatusBadRequest, field+" file is required")
		return "", nil, false
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, capture.MaxUploadBytes+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "unreadable upload")
		return "", nil, false
	}
	if _, err := capture.ValidateUpload(data); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return "", nil, false
	}
	return r.FormValue("username"), data, true
}

var validRoles = map[string]int{"public": 1, "director": 2, "minister": 3}

// CreateUser registers a new account without a biometric template.
func (s *Server) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	switch {
	case len(req.Username) < 3:
		writeError(w, http.StatusBadRequest, "username must have at least 3 characters")
		return
	case len(req.Password) < 6:
		writeError(w, http.StatusBadRequest, "password must have at least 6 characters")
		return
	case req.Clearance < 1 || req.Clearance > 3:
		writeError(w, http.StatusBadRequest, "clearance must be between 1 and 3")
		return
	}
	if _, ok := validRoles[req.Role]; !ok {
		writeError(w, http.StatusBadRequest, "role must be public, director or minister")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.MinCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "hashing password")
		return
	}

	s.mu.Lock()
	if _, exists := s.users[req.Username]; exists {
		s.mu.Unlock()
		writeError(w, http.StatusConflict, "username already taken")
		return
	}
	u := &account{
		ID:           s.nextID,
		Username:     req.Username,
		PasswordHash: hash,
		Role:         req.Role,
		Clearance:    req.Clearance,
	}
	s.nextID++
	s.users[req.Username] = u
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"message":   "user created",
		"user_id":   u.ID,
		"username":  u.Username,
		"role":      u.Role,
		"clearance": u.Clearance,
	})
}

// ListUsers returns every account, ordered by ID.
func (s *Server) ListUsers(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	out := make([]map[string]any, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, map[string]any{
			"id":            u.ID,
			"username":      u.Username,
			"role":          u.Role,
			"clearance":     u.Clearance,
			"has_biometric": u.Template != nil,
		})
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i]["id"].(int) < out[j]["id"].(int) })
	writeJSON(w, http.StatusOK, map[string]any{"users": out})
}

// DeleteUser removes an account. The caller cannot remove itself.
func (s *Server) DeleteUser(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	if claimsFrom(r).Subject == username {
		writeError(w, http.StatusBadRequest, "cannot delete own account")
		return
	}

	s.mu.Lock()
	_, ok := s.users[username]
	if ok {
		delete(s.users, username)
	}
	s.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "user deleted"})
}

// ResetPassword replaces an account's password.
func (s *Server) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if len(req.NewPassword) < 6 {
		writeError(w, http.StatusBadRequest, "password must have at least 6 characters")
		return
	}

	username := chi.URLParam(r, "username")
	u, ok := s.findUser(username)
	if !ok {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.MinCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "hashing password")
		return
	}

	s.mu.Lock()
	u.PasswordHash = hash
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "password reset"})
}
