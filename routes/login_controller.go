package routes

import (
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-chi/render"
	"golang.org/x/crypto/bcrypt"

	"github.com/avollaro/formsmith/app"
	"github.com/avollaro/formsmith/httpx"
	"github.com/avollaro/formsmith/log"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login adapts the JSON credential body to the bearer server's password
// grant and lets it issue the token pair.
func Login(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		creds := loginRequest{}
		err := render.DecodeJSON(r.Body, &creds)
		if err != nil || creds.Email == "" {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "login.parse_body")
			return
		}

		body := url.Values{
			"grant_type": {"password"},
			"username":   {creds.Email},
			"password":   {creds.Password},
		}
		r.Body = io.NopCloser(strings.NewReader(body.Encode()))
		r.Header.Set("content-type", "application/x-www-form-urlencoded")
		r.Header.Set("content-length", strconv.Itoa(len(body.Encode())))
		app.UserCredentials(w, r)
	}
}

func Refresh(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("authorization")
		match := regexp.MustCompile(`(?i)^refresh\s+(.*)`).FindStringSubmatch(auth)
		if len(match) == 0 {
			httpx.LogStatus(w, http.StatusUnauthorized, log.DebugLevel, "refresh.token")
			return
		}
		token := match[1]

		body := url.Values{
			"grant_type":    {"refresh_token"},
			"refresh_token": {token},
		}

		req, err := http.NewRequest("POST", "/", strings.NewReader(body.Encode()))
		if err != nil {
			httpx.LogStatus(w, http.StatusInternalServerError, log.DebugLevel, "refresh.new_request")
			return
		}
		req.Header.Set("content-type", "application/x-www-form-urlencoded")
		req.Header.Set("content-length", strconv.Itoa(len(body.Encode())))

		resp := httpx.NewResponseBuffer()
		app.UserCredentials(resp, req)
		resp.Flush(w)
	}
}

type resetPasswordRequest struct {
	Email       string `json:"email"`
	NewPassword string `json:"newPassword"`
	SecretKey   string `json:"secretKey"`
}

// ResetPassword rewrites an admin's password hash, gated by the recovery
// code from configuration.
func ResetPassword(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := resetPasswordRequest{}
		err := render.DecodeJSON(r.Body, &req)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "reset_password.parse_body")
			return
		}

		if req.SecretKey != app.ResetSecret {
			httpx.LogStatusMsg(w, http.StatusForbidden, log.WarnLevel, "reset_password.secret", "Invalid Recovery Code")
			return
		}
		if req.NewPassword == "" {
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "reset_password.password", "A new password is required")
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			httpx.LogInternalError(w, "reset_password.hash", err)
			return
		}

		res, err := app.ExecContext(r.Context(),
			"UPDATE admin_user SET password_hash = ? WHERE email = ?",
			hash, req.Email,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.update_password", err)
			return
		}
		n, err := res.RowsAffected()
		if err != nil {
			httpx.LogInternalError(w, "db.update_password.verify", err)
			return
		}
		if n < 1 {
			httpx.LogStatusMsg(w, http.StatusNotFound, log.DebugLevel, "reset_password.user", "User not found")
			return
		}

		render.JSON(w, r, map[string]any{"message": "Password reset successful"})
	}
}
