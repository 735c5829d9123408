package handlers

import (
	"context"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"time"

	"github.com/dimitrije/dashboard-api/internal/config"
	"github.com/dimitrije/dashboard-api/internal/middleware"
	"github.com/dimitrije/dashboard-api/internal/models"
	"github.com/dimitrije/dashboard-api/internal/oauth"
	"github.com/dimitrije/dashboard-api/internal/services"
	"github.com/dimitrije/dashboard-api/internal/session"
	"github.com/dimitrije/dashboard-api/pkg/dto"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"go.uber.org/zap"
)

const (
	stateTTL    = 10 * time.Minute
	authCodeTTL = 30 * time.Second
)

type AuthHandler struct {
	cfg          *config.Config
	providers    oauth.Registry
	sessions     session.Store
	userService  UserServiceInterface
	tokenService TokenServiceInterface
	jwtService   JWTServiceInterface
	provisioner  ProvisionerInterface
	accounts     AccountServiceInterface
	log          *zap.SugaredLogger
}

func NewAuthHandler(
	cfg *config.Config,
	providers oauth.Registry,
	sessions session.Store,
	userService UserServiceInterface,
	tokenService TokenServiceInterface,
	jwtService JWTServiceInterface,
	provisioner ProvisionerInterface,
	accounts AccountServiceInterface,
	log *zap.SugaredLogger,
) *AuthHandler {
	return &AuthHandler{
		cfg:          cfg,
		providers:    providers,
		sessions:     sessions,
		userService:  userService,
		tokenService: tokenService,
		jwtService:   jwtService,
		provisioner:  provisioner,
		accounts:     accounts,
		log:          log,
	}
}

func (h *AuthHandler) GetConsentURL(c *drift.Context) {
	provider := c.Param("provider")

	p, ok := h.providers.Get(provider)
	if !ok {
		c.BadRequest("unsupported provider: " + provider)
		return
	}

	state, err := oauth.GenerateState()
	if err != nil {
		c.InternalServerError("failed to generate state")
		return
	}

	if err := h.sessions.Put(c.Request.Context(), session.KindState, state, provider, stateTTL); err != nil {
		h.log.Errorw("failed to store oauth state", "provider", provider, "error", err)
		c.InternalServerError("failed to store state")
		return
	}

	_ = c.JSON(200, dto.ConsentURLResponse{
		URL: p.GetConsentURL(state),
	})
}

func (h *AuthHandler) Callback(c *drift.Context) {
	provider := c.Param("provider")

	p, ok := h.providers.Get(provider)
	if !ok {
		h.redirectWithError(c, "unsupported provider")
		return
	}

	state := c.QueryParam("state")
	if state == "" {
		h.redirectWithError(c, "missing state parameter")
		return
	}

	issuedFor, ok, err := h.sessions.Take(c.Request.Context(), session.KindState, state)
	if err != nil {
		h.log.Errorw("failed to read oauth state", "error", err)
		h.redirectWithError(c, "failed to verify state")
		return
	}
	if !ok || issuedFor != provider {
		h.redirectWithError(c, "invalid or expired state")
		return
	}

	code := c.QueryParam("code")
	if code == "" {
		h.redirectWithError(c, "missing authorization code")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	userInfo, err := p.ExchangeCode(ctx, code)
	if err != nil {
		h.redirectWithError(c, "failed to exchange code: "+err.Error())
		return
	}

	user, err := h.userService.FindOrCreateFromOAuth(ctx, userInfo)
	if err != nil {
		h.log.Errorw("oauth user upsert failed", "provider", provider, "error", err)
		h.redirectWithError(c, "failed to create user")
		return
	}

	if err := h.provisioner.EnsureProfile(ctx, user); err != nil {
		h.log.Errorw("profile provisioning failed", "user_id", user.ID, "error", err)
		h.redirectWithError(c, err.Error())
		return
	}

	authCode, err := oauth.GenerateState()
	if err != nil {
		h.redirectWithError(c, "failed to generate auth code")
		return
	}

	if err := h.sessions.Put(ctx, session.KindAuthCode, authCode, user.ID.String(), authCodeTTL); err != nil {
		h.log.Errorw("failed to store auth code", "error", err)
		h.redirectWithError(c, "failed to store auth code")
		return
	}

	redirectURL := fmt.Sprintf("%s?code=%s",
		h.cfg.FrontendCallbackURL,
		url.QueryEscape(authCode),
	)

	h.renderCallbackPage(c, redirectURL, authCode, "")
}

func (h *AuthHandler) ExchangeCode(c *drift.Context) {
	var req dto.ExchangeCodeRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	if req.Code == "" {
		c.BadRequest("code is required")
		return
	}

	ctx := c.Request.Context()

	value, ok, err := h.sessions.Take(ctx, session.KindAuthCode, req.Code)
	if err != nil {
		c.InternalServerError("failed to verify code")
		return
	}
	if !ok {
		c.Unauthorized("invalid or expired code")
		return
	}

	userID, err := uuid.Parse(value)
	if err != nil {
		c.Unauthorized("invalid or expired code")
		return
	}

	user, err := h.userService.GetByID(ctx, userID)
	if err != nil {
		c.Unauthorized("user not found")
		return
	}

	tokens, ok := h.issueTokens(c, user)
	if !ok {
		return
	}

	h.setAccessCookie(c, tokens)
	_ = c.JSON(200, tokens)
}

func (h *AuthHandler) RefreshToken(c *drift.Context) {
	var req dto.RefreshTokenRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	if req.RefreshToken == "" {
		c.BadRequest("refresh_token is required")
		return
	}

	userID, err := h.jwtService.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		c.Unauthorized("invalid refresh token")
		return
	}

	tokenHash := services.HashToken(req.RefreshToken)
	ctx := c.Request.Context()

	storedUserID, err := h.tokenService.ValidateRefreshToken(ctx, tokenHash)
	if err != nil || storedUserID != userID {
		c.Unauthorized("refresh token not found or expired")
		return
	}

	user, err := h.userService.GetByID(ctx, userID)
	if err != nil {
		c.Unauthorized("user not found")
		return
	}

	if err := h.tokenService.RevokeRefreshToken(ctx, tokenHash); err != nil {
		c.InternalServerError("failed to revoke old token")
		return
	}

	tokens, ok := h.issueTokens(c, user)
	if !ok {
		return
	}

	h.setAccessCookie(c, tokens)
	_ = c.JSON(200, tokens)
}

// issueTokens writes the error response itself and reports ok=false when it
// does.
func (h *AuthHandler) issueTokens(c *drift.Context, user *models.User) (*dto.TokenResponse, bool) {
	tokens, err := services.IssueTokens(c.Request.Context(), h.jwtService, h.tokenService, user)
	if err != nil {
		h.log.Errorw("failed to issue tokens", "user_id", user.ID, "error", err)
		c.InternalServerError("failed to issue tokens")
		return nil, false
	}
	return tokens, true
}

func (h *AuthHandler) SignIn(c *drift.Context) {
	var req dto.SignInRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	res := h.accounts.SignIn(c.Request.Context(), req.Email, req.Password)
	h.setAccessCookie(c, res.Tokens)
	_ = c.JSON(200, res)
}

func (h *AuthHandler) SignUp(c *drift.Context) {
	var req dto.SignUpRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	res := h.accounts.SignUp(c.Request.Context(), req.Email, req.Password, req.DisplayName)
	h.setAccessCookie(c, res.Tokens)
	_ = c.JSON(200, res)
}

func (h *AuthHandler) Logout(c *drift.Context) {
	var req dto.SignOutRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	res := h.accounts.SignOut(c.Request.Context(), req.RefreshToken)
	h.clearAccessCookie(c)
	_ = c.JSON(200, res)
}

func (h *AuthHandler) LogoutAll(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	if err := h.tokenService.RevokeAllUserTokens(c.Request.Context(), userID); err != nil {
		c.InternalServerError("failed to revoke tokens")
		return
	}

	h.clearAccessCookie(c)
	_ = c.JSON(200, dto.Success("Signed out everywhere."))
}

func (h *AuthHandler) RequestPasswordReset(c *drift.Context) {
	var req dto.ResetPasswordRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	_ = c.JSON(200, h.accounts.RequestPasswordReset(c.Request.Context(), req.Email))
}

func (h *AuthHandler) ConfirmPasswordReset(c *drift.Context) {
	var req dto.ConfirmResetRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	_ = c.JSON(200, h.accounts.ConfirmPasswordReset(c.Request.Context(), req.Token, req.Password, req.ConfirmPassword))
}

func (h *AuthHandler) setAccessCookie(c *drift.Context, tokens *dto.TokenResponse) {
	if tokens == nil {
		return
	}
	http.SetCookie(c.Response, &http.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    tokens.AccessToken,
		Path:     "/",
		MaxAge:   int(tokens.ExpiresIn),
		HttpOnly: true,
		Secure:   h.cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) clearAccessCookie(c *drift.Context) {
	http.SetCookie(c.Response, &http.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) redirectWithError(c *drift.Context, errMsg string) {
	redirectURL := fmt.Sprintf("%s?error=%s",
		h.cfg.FrontendCallbackURL,
		url.QueryEscape(errMsg),
	)
	h.renderCallbackPage(c, redirectURL, errMsg, "error")
}

func (h *AuthHandler) renderCallbackPage(c *drift.Context, deepLink, code, status string) {
	title := "Sign-in Successful"
	heading := "You're signed in!"
	subtitle := "Taking you to your dashboard..."
	headingColor := "#111827"
	statusCode := 200

	if status == "error" {
		title = "Sign-in Failed"
		heading = "Sign-in failed"
		subtitle = html.EscapeString(code)
		headingColor = "#991b1b"
		statusCode = 400
	}

	page := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>%s</title>
    <style>
        body { font-family: system-ui, -apple-system, sans-serif; background: #f9fafb; color: #374151; margin: 0; padding: 40px 20px; }
        .container { max-width: 400px; margin: 0 auto; background: #fff; border: 1px solid #e5e7eb; border-radius: 8px; padding: 40px 32px; text-align: center; }
        h1 { font-size: 20px; font-weight: 600; color: %s; margin: 0 0 8px 0; }
        .subtitle { color: #6b7280; font-size: 14px; margin: 0 0 4px 0; }
        a { color: #374151; font-size: 13px; }
    </style>
</head>
<body>
    <div class="container">
        <h1>%s</h1>
        <p class="subtitle">%s</p>
        <a href="%s">Continue</a>
    </div>
    <script>
        window.location.href = %q;
    </script>
</body>
</html>`, title, headingColor, heading, subtitle, html.EscapeString(deepLink), deepLink)

	_ = c.HTML(statusCode, page)
}
