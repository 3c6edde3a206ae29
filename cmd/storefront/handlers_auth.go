package main

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MikeMC777/storefront/internal/httpx"
	"github.com/MikeMC777/storefront/internal/user"
)

// RegisterRequest is the body of POST /api/auth/register.
// swagger:model RegisterRequest
type RegisterRequest struct {
	Name     string `json:"name" example:"Ada Lovelace"`
	Email    string `json:"email" example:"ada@example.com"`
	Password string `json:"password" example:"secret1"`
}

// LoginRequest is the body of POST /api/auth/login.
// swagger:model LoginRequest
type LoginRequest struct {
	Email    string `json:"email" example:"ada@example.com"`
	Password string `json:"password" example:"secret1"`
}

// AuthResponse carries a bearer token for the Authorization header.
// swagger:model AuthResponse
type AuthResponse struct {
	Token string     `json:"token"`
	User  *user.User `json:"user"`
}

// @Summary  Create an account
// @Tags     auth
// @Accept   json
// @Produce  json
// @Param    body body RegisterRequest true "new account"
// @Success  201 {object} AuthResponse
// @Failure  400 {object} map[string]string
// @Failure  409 {object} map[string]string
// @Router   /api/auth/register [post]
func registerHandler(svc accounts) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
			return
		}
		u, tok, err := svc.Register(c.Request.Context(), req.Name, req.Email, req.Password)
		if err != nil {
			httpx.WriteError(c, err)
			return
		}
		c.JSON(http.StatusCreated, AuthResponse{Token: tok, User: u})
	}
}

// @Summary  Log in
// @Tags     auth
// @Accept   json
// @Produce  json
// @Param    body body LoginRequest true "credentials"
// @Success  200 {object} AuthResponse
// @Failure  401 {object} map[string]string
// @Failure  429 {object} map[string]string
// @Router   /api/auth/login [post]
func loginHandler(svc accounts) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
			return
		}
		u, tok, err := svc.Login(c.Request.Context(), req.Email, req.Password)
		if err != nil {
			httpx.WriteError(c, err)
			return
		}
		c.JSON(http.StatusOK, AuthResponse{Token: tok, User: u})
	}
}

// @Summary   Current user for a token
// @Tags      auth
// @Produce   json
// @Security  BearerAuth
// @Success   200 {object} map[string]user.User
// @Failure   401 {object} map[string]string
// @Router    /api/auth/verify [get]
func verifyHandler(svc accounts) gin.HandlerFunc {
	return func(c *gin.Context) {
		tok, ok := httpx.BearerToken(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing or malformed authorization header"})
			return
		}
		u, err := svc.Verify(c.Request.Context(), tok)
		if err != nil {
			httpx.WriteError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"user": u})
	}
}
