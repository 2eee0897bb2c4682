package routes

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/go-chi/render"
	"golang.org/x/crypto/bcrypt"

	"formlink/app"
	"formlink/httpx"
	"formlink/log"
	"formlink/routes/middlewares"
	"formlink/token"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func Login(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		err := render.DecodeJSON(r.Body, &req)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		var hash []byte
		var level, status int
		err = app.QueryRowContext(r.Context(), `
			SELECT password_hash, level, status
			FROM user
			WHERE username = ?`,
			req.Username,
		).Scan(&hash, &level, &status)
		if errors.Is(err, sql.ErrNoRows) {
			render.JSON(w, r, map[string]any{
				"success": false,
				"message": "invalid username or password",
			})
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "db.get_user", err)
			return
		}

		if bcrypt.CompareHashAndPassword(hash, []byte(req.Password)) != nil {
			log.Debugf("login.password: mismatch for %q", req.Username)
			render.JSON(w, r, map[string]any{
				"success": false,
				"message": "invalid username or password",
			})
			return
		}
		if status == 0 {
			log.Debugf("login.status: account %q suspended", req.Username)
			render.JSON(w, r, map[string]any{
				"success": false,
				"message": "account suspended",
			})
			return
		}

		tok, err := app.Tokens.Issue(req.Username, level)
		if err != nil {
			httpx.LogInternalError(w, "token.issue", err)
			return
		}

		maxAge := int(app.Tokens.TTL().Seconds())
		setSessionCookie(w, "token", tok, maxAge)
		setSessionCookie(w, "username", req.Username, maxAge)

		render.JSON(w, r, map[string]any{
			"success":     true,
			"redirectUrl": token.RoleForLevel(level).HomePath(),
		})
	}
}

func Logout(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		setSessionCookie(w, "token", "", -1)
		setSessionCookie(w, "username", "", -1)
		render.JSON(w, r, map[string]any{"message": "logged out"})
	}
}

func CheckToken(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie("token")
		if err != nil {
			render.JSON(w, r, map[string]any{"valid": false})
			return
		}

		claims, err := app.Tokens.Validate(cookie.Value)
		if err != nil {
			log.Debugf("check_token.validate: %s", err)
			render.JSON(w, r, map[string]any{"valid": false})
			return
		}

		render.JSON(w, r, map[string]any{
			"valid":    true,
			"username": claims.Username,
			"level":    claims.Level,
			"role":     claims.Role,
		})
	}
}

// claims helper shared by the gated controllers
func requestClaims(r *http.Request) (username string) {
	if claims, ok := middlewares.ClaimsFrom(r.Context()); ok {
		return claims.Username
	}
	return ""
}

func setSessionCookie(w http.ResponseWriter, name, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Path:     "/",
		Name:     name,
		Value:    value,
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
