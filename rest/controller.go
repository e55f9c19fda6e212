// Package rest exposes the identity use cases over HTTP. It contains no
// domain logic: handlers decode requests, invoke a use case, and map the
// error taxonomy to status codes.
package rest

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-identity"
	"github.com/goliatone/go-identity/oauth"
)

// Controller wires the identity use cases to fiber routes.
type Controller struct {
	register *identity.RegisterLocalHandler
	login    *identity.LoginLocalHandler
	getMe    *identity.GetMeHandler
	logout   *identity.LogoutHandler
	flow     *oauth.Flow
	tokens   identity.TokenService
	logger   identity.Logger
}

// ControllerOption configures the controller.
type ControllerOption func(*Controller)

// WithLogger sets the logger.
func WithLogger(logger identity.Logger) ControllerOption {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewController creates the HTTP boundary for the identity use cases.
func NewController(
	register *identity.RegisterLocalHandler,
	login *identity.LoginLocalHandler,
	getMe *identity.GetMeHandler,
	logout *identity.LogoutHandler,
	flow *oauth.Flow,
	tokens identity.TokenService,
	opts ...ControllerOption,
) *Controller {
	c := &Controller{
		register: register,
		login:    login,
		getMe:    getMe,
		logout:   logout,
		flow:     flow,
		tokens:   tokens,
		logger:   identity.DefaultLogger(),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	return c
}

// RegisterRoutes mounts the identity routes on the app.
func (c *Controller) RegisterRoutes(app *fiber.App) {
	app.Post("/auth/register", c.Register)
	app.Post("/auth/login", c.Login)
	app.Get("/auth/me", c.Me)
	app.Post("/auth/logout", c.Logout)
	app.Get("/auth/oauth/:provider", c.OAuthStart)
	app.Get("/auth/oauth/:provider/callback", c.OAuthCallback)
	app.Get("/.well-known/jwks.json", c.JWKS)
}

// Register handles local registration.
func (c *Controller) Register(ctx *fiber.Ctx) error {
	var msg identity.RegisterLocalMessage
	if err := ctx.BodyParser(&msg); err != nil {
		return badRequest(ctx, "invalid request body")
	}

	result, err := c.register.Execute(ctx.Context(), msg)
	if err != nil {
		return c.renderError(ctx, err)
	}

	return ctx.Status(fiber.StatusCreated).JSON(result)
}

// Login handles local login.
func (c *Controller) Login(ctx *fiber.Ctx) error {
	var msg identity.LoginLocalMessage
	if err := ctx.BodyParser(&msg); err != nil {
		return badRequest(ctx, "invalid request body")
	}

	result, err := c.login.Execute(ctx.Context(), msg)
	if err != nil {
		return c.renderError(ctx, err)
	}

	return ctx.JSON(result)
}

// Me returns the public projection of the bearer's user.
func (c *Controller) Me(ctx *fiber.Ctx) error {
	claims, err := c.bearerClaims(ctx)
	if err != nil {
		return c.renderError(ctx, err)
	}

	user, err := c.getMe.Execute(ctx.Context(), claims.UserID())
	if err != nil {
		return c.renderError(ctx, err)
	}

	return ctx.JSON(fiber.Map{"user": user})
}

// Logout acknowledges a logout. Tokens stay valid until expiry; there is no
// server-side revocation.
func (c *Controller) Logout(ctx *fiber.Ctx) error {
	claims, err := c.bearerClaims(ctx)
	if err != nil {
		return c.renderError(ctx, err)
	}

	userID, err := c.logout.Execute(ctx.Context(), claims.UserID())
	if err != nil {
		return c.renderError(ctx, err)
	}

	return ctx.JSON(fiber.Map{"user_id": userID})
}

// OAuthStart begins the authorization flow and redirects to the provider.
func (c *Controller) OAuthStart(ctx *fiber.Ctx) error {
	redirectURI := ctx.Query("redirect_uri")
	if redirectURI == "" {
		return badRequest(ctx, "redirect_uri is required")
	}

	result, err := c.flow.Start(ctx.Context(), oauth.StartRequest{
		Provider:     ctx.Params("provider"),
		RedirectURI:  redirectURI,
		IncludeNonce: ctx.QueryBool("nonce"),
	})
	if err != nil {
		return c.renderError(ctx, err)
	}

	return ctx.Redirect(result.AuthorizationURL, fiber.StatusFound)
}

// OAuthCallback finishes the authorization flow.
func (c *Controller) OAuthCallback(ctx *fiber.Ctx) error {
	result, err := c.flow.Callback(ctx.Context(), oauth.CallbackRequest{
		Provider: ctx.Params("provider"),
		Code:     ctx.Query("code"),
		State:    ctx.Query("state"),
	})
	if err != nil {
		return c.renderError(ctx, err)
	}

	return ctx.JSON(result)
}

// JWKS publishes the verification key set.
func (c *Controller) JWKS(ctx *fiber.Ctx) error {
	doc, err := c.tokens.PublicJWKS()
	if err != nil {
		return c.renderError(ctx, err)
	}

	return ctx.JSON(doc)
}

func (c *Controller) bearerClaims(ctx *fiber.Ctx) (*identity.IdentityClaims, error) {
	header := ctx.Get(fiber.HeaderAuthorization)
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return nil, identity.ErrTokenMalformed
	}

	return c.tokens.Verify(token)
}

// renderError maps the error taxonomy onto transport status codes. Errors
// outside the taxonomy are logged and rendered as an opaque 500.
func (c *Controller) renderError(ctx *fiber.Ctx, err error) error {
	status := statusFor(err)

	if status == fiber.StatusInternalServerError && !identity.IsDomainError(err) {
		c.logger.Error("unexpected failure: %v", err)
		return ctx.Status(status).JSON(fiber.Map{"error": "internal error"})
	}

	message := err.Error()
	var rich *errors.Error
	if errors.As(err, &rich) {
		message = rich.Message
	}

	return ctx.Status(status).JSON(fiber.Map{"error": message})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, identity.ErrEmailAlreadyTaken),
		errors.Is(err, identity.ErrAccountAlreadyLinked):
		return fiber.StatusConflict
	case errors.Is(err, identity.ErrInvalidCredentials),
		errors.Is(err, identity.ErrTokenExpired),
		errors.Is(err, identity.ErrTokenMalformed):
		return fiber.StatusUnauthorized
	case errors.Is(err, identity.ErrProviderNotConfigured),
		errors.Is(err, identity.ErrUserNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, identity.ErrOAuthStateExpired),
		errors.Is(err, identity.ErrOAuthProfileEmailRequired):
		return fiber.StatusBadRequest
	}

	var rich *errors.Error
	if errors.As(err, &rich) && rich.Category == errors.CategoryValidation {
		return fiber.StatusBadRequest
	}

	return fiber.StatusInternalServerError
}

func badRequest(ctx *fiber.Ctx, message string) error {
	return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": message})
}
