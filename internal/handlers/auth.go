package handlers

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/sgpfreelancing/platform_be/internal/models"
	"github.com/sgpfreelancing/platform_be/internal/services/mailer"
	"github.com/sgpfreelancing/platform_be/internal/services/otp"
	"github.com/sgpfreelancing/platform_be/internal/store"
	"github.com/sgpfreelancing/platform_be/internal/utils"
)

type AuthHandler struct {
	Store      store.Store
	Otp        *otp.Service
	Mailer     mailer.Sender
	JWTSecret  string
	Expires    int
	CookieName string
}

func NewAuthHandler(st store.Store, otpSvc *otp.Service, sender mailer.Sender, secret string, expiresMin int) *AuthHandler {
	return &AuthHandler{
		Store:      st,
		Otp:        otpSvc,
		Mailer:     sender,
		JWTSecret:  secret,
		Expires:    expiresMin,
		CookieName: "sgp_token",
	}
}

type RegisterReq struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"` // client / freelancer
}

type FieldErrors map[string][]string

func (e FieldErrors) Add(field, msg string) {
	e[field] = append(e[field], msg)
}

func validationFail(c *fiber.Ctx, errs FieldErrors) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"success": false,
		"message": "Validation error",
		"errors":  errs,
	})
}

// Register creates an unverified account and emails an OTP to confirm the
// address.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req RegisterReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid body")
	}

	name := strings.TrimSpace(req.Name)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	password := strings.TrimSpace(req.Password)
	role := strings.ToLower(strings.TrimSpace(req.Role))

	errs := FieldErrors{}
	if name == "" {
		errs.Add("name", "Name is required")
	}
	if email == "" {
		errs.Add("email", "Email is required")
	} else if !strings.Contains(email, "@") {
		errs.Add("email", "Email format is invalid")
	}
	if password == "" {
		errs.Add("password", "Password is required")
	} else if len(password) < 6 {
		errs.Add("password", "Password must be at least 6 characters")
	}
	if role != string(models.RoleClient) && role != string(models.RoleFreelancer) {
		errs.Add("role", "Role must be client or freelancer")
	}
	if len(errs) > 0 {
		return validationFail(c, errs)
	}

	if _, err := h.Store.GetUserByEmail(email); err == nil {
		errs.Add("email", "Email is already registered")
		return validationFail(c, errs)
	} else if !errors.Is(err, store.ErrNotFound) {
		return fail(c, fiber.StatusInternalServerError, "internal server error")
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to process password")
	}

	u := models.User{
		Name:     name,
		Email:    email,
		Password: hash,
		Role:     models.Role(role),
		IsActive: true,
	}
	if err := h.Store.CreateUser(&u); err != nil {
		return fail(c, fiber.StatusBadRequest, "failed to register")
	}

	if err := h.sendOtp(c, email, name); err != nil {
		// account exists; the user can ask for a resend
		log.Printf("auth: send otp to %s: %v", email, err)
	}

	return created(c, fiber.Map{
		"id":    u.ID,
		"email": u.Email,
		"role":  u.Role,
	})
}

type VerifyEmailReq struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// VerifyEmail consumes the OTP and, on success, marks the account verified
// and issues the session cookie.
func (h *AuthHandler) VerifyEmail(c *fiber.Ctx) error {
	var req VerifyEmailReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid body")
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	code := strings.TrimSpace(req.Code)
	if email == "" || code == "" {
		return fail(c, fiber.StatusBadRequest, "email and code are required")
	}

	valid, err := h.Otp.Verify(email, code)
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "internal server error")
	}
	if !valid {
		return fail(c, fiber.StatusBadRequest, "invalid or expired code")
	}

	u, err := h.Store.GetUserByEmail(email)
	if err != nil {
		return fail(c, fiber.StatusNotFound, "user not found")
	}
	if !u.EmailVerified {
		u.EmailVerified = true
		if err := h.Store.UpdateUser(u); err != nil {
			return fail(c, fiber.StatusInternalServerError, "internal server error")
		}
	}

	if err := h.issueCookie(c, u); err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to create token")
	}
	return ok(c, fiber.Map{"verified": true})
}

type ResendOtpReq struct {
	Email string `json:"email"`
}

func (h *AuthHandler) ResendOtp(c *fiber.Ctx) error {
	var req ResendOtpReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid body")
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	u, err := h.Store.GetUserByEmail(email)
	if err != nil {
		// do not reveal whether the address exists
		return ok(c, fiber.Map{"sent": true})
	}

	if err := h.sendOtp(c, u.Email, u.Name); err != nil {
		log.Printf("auth: resend otp to %s: %v", email, err)
		return fail(c, fiber.StatusInternalServerError, "failed to send code")
	}
	return ok(c, fiber.Map{"sent": true})
}

type LoginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid body")
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	u, err := h.Store.GetUserByEmail(email)
	if err != nil || !utils.CheckPassword(u.Password, req.Password) {
		return fail(c, fiber.StatusUnauthorized, "invalid email or password")
	}
	if !u.IsActive {
		return fail(c, fiber.StatusForbidden, "account is disabled")
	}
	if !u.EmailVerified {
		return fail(c, fiber.StatusForbidden, "email is not verified")
	}

	if err := h.issueCookie(c, u); err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to create token")
	}
	return ok(c, fiber.Map{
		"id":    u.ID,
		"name":  u.Name,
		"email": u.Email,
		"role":  u.Role,
	})
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:     h.CookieName,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
		SameSite: "Lax",
	})
	return ok(c, fiber.Map{"logged_out": true})
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	uid, err := userUUID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "unauthorized")
	}
	u, err := h.Store.GetUser(uid)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "user not found")
	}
	return ok(c, fiber.Map{
		"id":             u.ID,
		"name":           u.Name,
		"email":          u.Email,
		"role":           u.Role,
		"email_verified": u.EmailVerified,
	})
}

func (h *AuthHandler) sendOtp(c *fiber.Ctx, email, name string) error {
	code, err := h.Otp.Generate(email)
	if err != nil {
		return err
	}
	return h.Mailer.SendOtpEmail(c.Context(), email, name, code)
}

func (h *AuthHandler) issueCookie(c *fiber.Ctx, u *models.User) error {
	token, err := utils.SignJWT(h.JWTSecret, u.ID.String(), string(u.Role), h.Expires)
	if err != nil {
		return err
	}
	c.Cookie(&fiber.Cookie{
		Name:     h.CookieName,
		Value:    token,
		Expires:  time.Now().Add(time.Duration(h.Expires) * time.Minute),
		HTTPOnly: true,
		SameSite: "Lax",
	})
	return nil
}
