package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"echowipe/internal/domain"
	"echowipe/internal/service"
)

const (
	kindSuccess = "success"
	kindWarning = "warning"
	kindDanger  = "danger"
)

// UserHandler mantiene dependencias para login, alta y sesión.
type UserHandler struct {
	logger       *zap.Logger
	userServ     *service.UserService
	sessions     *service.SessionService
	cookieSecure bool
}

// NewUserHandler crea una instancia de UserHandler con dependencias necesarias.
func NewUserHandler(logger *zap.Logger, userServ *service.UserService, sessions *service.SessionService, cookieSecure bool) *UserHandler {
	return &UserHandler{
		logger:       logger,
		userServ:     userServ,
		sessions:     sessions,
		cookieSecure: cookieSecure,
	}
}

// Index maneja GET /.
func (h *UserHandler) Index(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", pageView{})
}

// Submit maneja POST / con action=login o action=signup.
func (h *UserHandler) Submit(c *gin.Context) {
	switch c.PostForm("action") {
	case "login":
		h.login(c)
	case "signup":
		if strings.TrimSpace(c.PostForm("otp_code")) == "" {
			h.signUp(c)
		} else {
			h.confirmSignUp(c)
		}
	default:
		c.HTML(http.StatusBadRequest, "index.html", notice(kindDanger, "Unknown action"))
	}
}

func (h *UserHandler) login(c *gin.Context) {
	user, err := h.userServ.Authenticate(c.Request.Context(), c.PostForm("login_email"), c.PostForm("login_password"))
	if err != nil {
		if !errors.Is(err, service.ErrInvalidCredentials) {
			h.logger.Error("login failed", zap.Error(err))
		}
		c.HTML(http.StatusOK, "index.html", notice(kindDanger, "Invalid email or password"))
		return
	}
	h.startSession(c, user)
}

func (h *UserHandler) signUp(c *gin.Context) {
	res, err := h.userServ.SignUp(c.Request.Context(), service.SignUpInput{
		FirstName:       c.PostForm("first_name"),
		LastName:        c.PostForm("last_name"),
		Email:           c.PostForm("signup_email"),
		Password:        c.PostForm("signup_password"),
		ConfirmPassword: c.PostForm("confirm_password"),
		Agree:           c.PostForm("agree") != "",
	})
	if err != nil {
		c.HTML(http.StatusOK, "index.html", h.signUpErrorView(err))
		return
	}

	if !res.OTPSent {
		h.startSession(c, res.User)
		return
	}
	view := notice(kindSuccess, "Verification email sent!")
	view.OTPSent = true
	view.EmailForOTP = res.Email
	c.HTML(http.StatusOK, "index.html", view)
}

func (h *UserHandler) signUpErrorView(err error) pageView {
	switch {
	case errors.Is(err, service.ErrMissingFields):
		return notice(kindWarning, "All fields are required")
	case errors.Is(err, service.ErrPasswordMismatch):
		return notice(kindDanger, "Passwords do not match")
	case errors.Is(err, service.ErrPasswordTooLong):
		return notice(kindDanger, "Password must be at most 72 bytes")
	case errors.Is(err, service.ErrInvalidEmail):
		return notice(kindDanger, "Invalid email address")
	case errors.Is(err, service.ErrUserExists):
		return notice(kindDanger, "User already exists")
	case errors.Is(err, service.ErrEmailSendFailure):
		return notice(kindDanger, "Email sending failed")
	case errors.Is(err, service.ErrRateLimited):
		return notice(kindWarning, "Too many verification requests, try again later")
	default:
		h.logger.Error("signup failed", zap.Error(err))
		return notice(kindDanger, "Could not complete signup")
	}
}

func (h *UserHandler) confirmSignUp(c *gin.Context) {
	emailAddr := strings.TrimSpace(c.PostForm("signup_email"))
	user, err := h.userServ.ConfirmSignUp(c.Request.Context(), emailAddr, c.PostForm("otp_code"))
	if err != nil {
		var view pageView
		switch {
		case errors.Is(err, service.ErrOTPNotRequested),
			errors.Is(err, service.ErrOTPExpired),
			errors.Is(err, service.ErrOTPInvalid):
			h.logger.Info("otp rejected", zap.Error(err), zap.String("email", emailAddr))
			view = notice(kindDanger, "Invalid or expired verification code")
		case errors.Is(err, service.ErrUserExists):
			view = notice(kindDanger, "User already exists")
		default:
			h.logger.Error("verify otp failed", zap.Error(err))
			view = notice(kindDanger, "Could not verify code")
		}
		view.OTPSent = true
		view.EmailForOTP = emailAddr
		c.HTML(http.StatusOK, "index.html", view)
		return
	}
	h.startSession(c, user)
}

// Dashboard maneja GET /dashboard.
func (h *UserHandler) Dashboard(c *gin.Context) {
	session, _ := GetSession(c)
	c.HTML(http.StatusOK, "dashboard.html", pageView{Email: session.Email})
}

// Logout maneja GET /logout.
func (h *UserHandler) Logout(c *gin.Context) {
	if token, err := c.Cookie(sessionCookieName); err == nil && token != "" {
		if err := h.sessions.Revoke(token); err != nil {
			h.logger.Debug("revoke session failed", zap.Error(err))
		}
	}
	clearSessionCookie(c, h.cookieSecure)
	c.Redirect(http.StatusSeeOther, "/")
}

func (h *UserHandler) startSession(c *gin.Context, user domain.User) {
	token, _, err := h.sessions.Issue(user)
	if err != nil {
		h.logger.Error("session issue failed", zap.Error(err))
		c.HTML(http.StatusInternalServerError, "index.html", notice(kindDanger, "Could not start session"))
		return
	}
	setSessionCookie(c, token, int(h.sessions.TTL().Seconds()), h.cookieSecure)
	c.Redirect(http.StatusSeeOther, "/dashboard")
}
