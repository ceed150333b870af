package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/dorakhq/dorak/config"
	"github.com/dorakhq/dorak/internal/model"
	"github.com/dorakhq/dorak/internal/usecase"
)

type contextKey string

const emailContextKey contextKey = "email"

func withEmail(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, emailContextKey, email)
}

func emailFromContext(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(emailContextKey).(string)
	return email, ok
}

// authSkipPaths are reachable without a token.
var authSkipPaths = map[string]bool{
	"/api/auth/register": true,
	"/api/auth/verify":   true,
	"/api/auth/resend":   true,
	"/api/auth/login":    true,
	"/api/auth/forgot":   true,
	"/api/auth/reset":    true,
	"/api/auth/google":   true,
}

type Handlers struct {
	account *usecase.AccountUsecase
	chat    *usecase.ChatUsecase
	images  *usecase.ImageUsecase
	cfg     config.HTTP

	mu       sync.Mutex
	sessions map[uuid.UUID]*usecase.ChatSession
}

func NewHandlers(
	account *usecase.AccountUsecase,
	chat *usecase.ChatUsecase,
	images *usecase.ImageUsecase,
	cfg config.HTTP,
) *Handlers {
	return &Handlers{
		account:  account,
		chat:     chat,
		images:   images,
		cfg:      cfg,
		sessions: make(map[uuid.UUID]*usecase.ChatSession),
	}
}

func (h *Handlers) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/auth/register", h.HandleRegister)
	mux.HandleFunc("/api/auth/verify", h.HandleVerify)
	mux.HandleFunc("/api/auth/login", h.HandleLogin)
	mux.HandleFunc("/api/auth/logout", h.HandleLogout)
	mux.HandleFunc("/api/auth/resend", h.HandleResendVerification)
	mux.HandleFunc("/api/auth/forgot", h.HandleForgotPassword)
	mux.HandleFunc("/api/auth/reset", h.HandleResetPassword)
	mux.HandleFunc("/api/auth/google", h.HandleGoogleLogin)
	mux.HandleFunc("/api/profile", h.HandleProfile)
	mux.HandleFunc("/api/profile/password", h.HandleChangePassword)
	mux.HandleFunc("/api/credits/plans", h.HandleCreditPlans)
	mux.HandleFunc("/api/credits/purchase", h.HandlePurchaseCredits)
	mux.HandleFunc("/api/theme", h.HandleTheme)
	mux.HandleFunc("/api/generate", h.HandleGenerate)
	mux.HandleFunc("/api/chat/attachment", h.HandleAttachment)
	mux.HandleFunc("/api/chat/ws", h.HandleChatWS)
}

// Middleware

func (h *Handlers) WithAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if authSkipPaths[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}

		email, err := h.emailFromRequest(r)
		if err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(withEmail(r.Context(), email)))
	})
}

func (h *Handlers) WithCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Upgrade") == "websocket" {
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("Access-Control-Allow-Origin", h.cfg.AllowedOrigin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Allow-Credentials", "true")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Auth handlers

func (h *Handlers) HandleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Username        string `json:"username"`
		Email           string `json:"email"`
		Password        string `json:"password"`
		ConfirmPassword string `json:"confirm_password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.account.SignUp(r.Context(), req.Username, req.Email, req.Password, req.ConfirmPassword)
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, userResponse(user))
}

func (h *Handlers) HandleVerify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.account.VerifyEmail(r.Context(), req.Email); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handlers) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.account.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	if err = h.issueToken(w, user.Email); err != nil {
		http.Error(w, "Failed to create token", http.StatusInternalServerError)
		return
	}
	writeJSON(w, userResponse(user))
}

func (h *Handlers) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := h.account.Logout(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	clearTokenCookie(w)
	w.WriteHeader(http.StatusOK)
}

// HandleResendVerification only confirms the account exists; the
// verification mail itself is simulated client-side.
func (h *Handlers) HandleResendVerification(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if _, err := h.account.User(r.Context(), req.Email); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handlers) HandleForgotPassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.account.ForgotPassword(r.Context(), req.Email); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handlers) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Email           string `json:"email"`
		Password        string `json:"password"`
		ConfirmPassword string `json:"confirm_password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.account.ResetPassword(r.Context(), req.Email, req.Password, req.ConfirmPassword); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handlers) HandleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.account.GoogleLogin(r.Context(), req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	if err = h.issueToken(w, user.Email); err != nil {
		http.Error(w, "Failed to create token", http.StatusInternalServerError)
		return
	}
	writeJSON(w, userResponse(user))
}

// Profile handlers

func (h *Handlers) HandleProfile(w http.ResponseWriter, r *http.Request) {
	email, ok := emailFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	switch r.Method {
	case http.MethodGet:
		user, err := h.account.User(r.Context(), email)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, userResponse(user))
	case http.MethodPut:
		var req struct {
			Username string `json:"username"`
			Email    string `json:"email"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		user, err := h.account.UpdateProfile(r.Context(), email, req.Username, req.Email)
		if err != nil {
			writeError(w, err)
			return
		}
		// The token carries the email, so a changed email needs a new one.
		if user.Email != email {
			if err = h.issueToken(w, user.Email); err != nil {
				http.Error(w, "Failed to create token", http.StatusInternalServerError)
				return
			}
		}
		writeJSON(w, userResponse(user))
	case http.MethodDelete:
		if err := h.account.DeleteAccount(r.Context(), email); err != nil {
			writeError(w, err)
			return
		}
		clearTokenCookie(w)
		w.WriteHeader(http.StatusOK)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handlers) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	email, ok := emailFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	var req struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
		ConfirmPassword string `json:"confirm_password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.account.ChangePassword(r.Context(), email, req.CurrentPassword, req.NewPassword, req.ConfirmPassword); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// Credit handlers

func (h *Handlers) HandleCreditPlans(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, h.account.CreditPlans())
}

func (h *Handlers) HandlePurchaseCredits(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	email, ok := emailFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	var req struct {
		Plan string `json:"plan"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	user, err := h.account.PurchaseCredits(r.Context(), email, req.Plan)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, userResponse(user))
}

// Theme handlers

func (h *Handlers) HandleTheme(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		theme, err := h.account.Theme(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, map[string]string{"theme": string(theme)})
	case http.MethodPut:
		var req struct {
			Theme string `json:"theme"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if err := h.account.SetTheme(r.Context(), model.ParseTheme(req.Theme)); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusOK)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// Image generation

func (h *Handlers) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	email, ok := emailFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		http.Error(w, "Invalid multipart form", http.StatusBadRequest)
		return
	}

	quantity, _ := strconv.Atoi(r.FormValue("quantity"))
	req := model.GenerationRequest{
		Prompt:      r.FormValue("prompt"),
		AspectRatio: model.ParseAspectRatio(r.FormValue("aspect_ratio")),
		Quantity:    quantity,
		Style:       model.ImageStyle(r.FormValue("style")),
		Colors:      r.FormValue("colors"),
	}

	var err error
	if req.Character, err = formImage(r, "character"); err != nil {
		writeError(w, err)
		return
	}
	if req.Inspiration, err = formImage(r, "inspiration"); err != nil {
		writeError(w, err)
		return
	}

	urls, user, err := h.images.GenerateForUser(r.Context(), email, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]any{
		"images":  urls,
		"credits": user.Credits,
	})
}

// formImage reads an optional reference image from the multipart form.
func formImage(r *http.Request, field string) (*model.InlineData, error) {
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s image: %w", field, err)
	}
	defer file.Close()

	att, err := usecase.EncodeAttachment(header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		return nil, err
	}
	if att.Kind != model.AttachmentImage {
		return nil, fmt.Errorf("%w: %s must be an image", usecase.ErrUnsupportedFileType, field)
	}
	return &model.InlineData{MIMEType: att.MIMEType, Data: att.Data}, nil
}

// Chat attachment staging

func (h *Handlers) HandleAttachment(w http.ResponseWriter, r *http.Request) {
	session, err := h.sessionFromRequest(r)
	if err != nil {
		http.Error(w, "Unknown session", http.StatusNotFound)
		return
	}

	switch r.Method {
	case http.MethodPost:
		if err = r.ParseMultipartForm(32 << 20); err != nil {
			http.Error(w, "Invalid multipart form", http.StatusBadRequest)
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			http.Error(w, "Missing file", http.StatusBadRequest)
			return
		}
		defer file.Close()

		att, err := usecase.EncodeAttachment(header.Filename, header.Header.Get("Content-Type"), file)
		if err != nil {
			writeError(w, err)
			return
		}
		session.StageAttachment(att)
		writeJSON(w, map[string]string{"kind": string(att.Kind)})
	case http.MethodDelete:
		session.RemoveAttachment()
		w.WriteHeader(http.StatusOK)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handlers) sessionFromRequest(r *http.Request) (*usecase.ChatSession, error) {
	id, err := uuid.Parse(r.URL.Query().Get("session"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse session id: %w", err)
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	session, ok := h.sessions[id]
	if !ok {
		return nil, errors.New("unknown session")
	}
	return session, nil
}

// Token helpers

func (h *Handlers) issueToken(w http.ResponseWriter, email string) error {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"email": email,
		"exp":   time.Now().Add(h.cfg.TokenTTL).Unix(),
	})
	signed, err := token.SignedString([]byte(h.cfg.JWTSecret))
	if err != nil {
		return fmt.Errorf("failed to sign token: %w", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     "auth_token",
		Value:    signed,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(h.cfg.TokenTTL.Seconds()),
	})
	return nil
}

func clearTokenCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     "auth_token",
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}

func (h *Handlers) emailFromRequest(r *http.Request) (string, error) {
	cookie, err := r.Cookie("auth_token")
	if err != nil {
		return "", fmt.Errorf("missing auth cookie: %w", err)
	}

	claims := jwt.MapClaims{}
	_, err = jwt.ParseWithClaims(cookie.Value, claims, func(token *jwt.Token) (any, error) {
		return []byte(h.cfg.JWTSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return "", fmt.Errorf("failed to parse token: %w", err)
	}
	email, ok := claims["email"].(string)
	if !ok || email == "" {
		return "", errors.New("token has no email claim")
	}
	return email, nil
}

// Response helpers

type userPayload struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Credits  int    `json:"credits"`
	Verified bool   `json:"verified"`
}

func userResponse(user model.User) userPayload {
	return userPayload{
		Username: user.Username,
		Email:    user.Email,
		Credits:  user.Credits,
		Verified: user.Verified,
	}
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	http.Error(w, err.Error(), statusFor(err))
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, usecase.ErrNoAccount):
		return http.StatusNotFound
	case errors.Is(err, usecase.ErrWrongPassword), errors.Is(err, usecase.ErrNotVerified):
		return http.StatusUnauthorized
	case errors.Is(err, usecase.ErrEmailTaken):
		return http.StatusConflict
	case errors.Is(err, usecase.ErrInsufficientCredits):
		return http.StatusPaymentRequired
	case errors.Is(err, usecase.ErrPasswordMismatch),
		errors.Is(err, usecase.ErrWeakPassword),
		errors.Is(err, usecase.ErrShortPassword),
		errors.Is(err, usecase.ErrEmptyProfileFields),
		errors.Is(err, usecase.ErrUnknownCreditPlan),
		errors.Is(err, usecase.ErrEmptyGoogleName),
		errors.Is(err, usecase.ErrEmptyPrompt),
		errors.Is(err, usecase.ErrUnsupportedFileType):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
