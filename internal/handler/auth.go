package handler

import (
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dukerupert/pantrylist/internal/store"
	"golang.org/x/crypto/bcrypt"
)

const sessionCookieName = "pantrylist_session"

type AuthHandler struct {
	users     *store.UserStore
	sessions  *store.SessionStore
	templates *template.Template
	logger    *slog.Logger
}

func NewAuthHandler(users *store.UserStore, sessions *store.SessionStore, logger *slog.Logger) *AuthHandler {
	tmpl := template.Must(template.ParseGlob("web/templates/auth_*.html"))
	return &AuthHandler{users: users, sessions: sessions, templates: tmpl, logger: logger}
}

func (h *AuthHandler) render(w http.ResponseWriter, name string, data any) {
	if err := h.templates.ExecuteTemplate(w, name, data); err != nil {
		h.logger.Error("render template", "template", name, "error", err)
	}
}

func (h *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, "auth_login.html", map[string]any{"Title": "Log In"})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	handle := strings.TrimSpace(r.FormValue("handle"))
	password := r.FormValue("password")
	if handle == "" || password == "" {
		h.render(w, "auth_login.html", map[string]any{"Title": "Log In", "Error": "Handle and password are required."})
		return
	}

	user, err := h.users.GetByHandle(handle)
	if err != nil {
		h.logger.Error("login lookup", "error", err)
		http.Error(w, "login failed", http.StatusInternalServerError)
		return
	}
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		h.render(w, "auth_login.html", map[string]any{"Title": "Log In", "Error": "Incorrect handle or password."})
		return
	}

	sess, err := h.sessions.Create(user.ID)
	if err != nil {
		h.logger.Error("create session", "error", err)
		http.Error(w, "login failed", http.StatusInternalServerError)
		return
	}

	h.setSessionCookie(w, sess.Token, sess.ExpiresAt)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *AuthHandler) RegisterPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, "auth_register.html", map[string]any{"Title": "Register"})
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	handle := strings.TrimSpace(r.FormValue("handle"))
	name := strings.TrimSpace(r.FormValue("name"))
	email := strings.TrimSpace(strings.ToLower(r.FormValue("email")))
	password := r.FormValue("password")

	fail := func(msg string) {
		h.render(w, "auth_register.html", map[string]any{"Title": "Register", "Error": msg})
	}

	if handle == "" || name == "" || email == "" {
		fail("Handle, name, and email are required.")
		return
	}
	if len(password) < 8 {
		fail("Password must be at least 8 characters.")
		return
	}

	if existing, err := h.users.GetByHandle(handle); err != nil {
		h.logger.Error("register lookup", "error", err)
		http.Error(w, "registration failed", http.StatusInternalServerError)
		return
	} else if existing != nil {
		fail("That handle is taken.")
		return
	}
	if existing, err := h.users.GetByEmail(email); err != nil {
		h.logger.Error("register lookup", "error", err)
		http.Error(w, "registration failed", http.StatusInternalServerError)
		return
	} else if existing != nil {
		fail("An account with that email already exists.")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		h.logger.Error("hash password", "error", err)
		http.Error(w, "registration failed", http.StatusInternalServerError)
		return
	}

	user, err := h.users.Create(handle, name, email, string(hash))
	if err != nil {
		h.logger.Error("create user", "error", err)
		http.Error(w, "registration failed", http.StatusInternalServerError)
		return
	}

	sess, err := h.sessions.Create(user.ID)
	if err != nil {
		h.logger.Error("create session", "error", err)
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	h.setSessionCookie(w, sess.Token, sess.ExpiresAt)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(sessionCookieName); err == nil && cookie.Value != "" {
		if sess, err := h.sessions.GetByToken(cookie.Value); err == nil && sess != nil {
			if err := h.sessions.Delete(sess.ID); err != nil {
				h.logger.Error("delete session", "error", err)
			}
		}
	}

	h.setSessionCookie(w, "", time.Unix(0, 0))
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
