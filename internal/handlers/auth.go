package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/starcrunch/starcrunch-api/internal/middleware"
	"github.com/starcrunch/starcrunch-api/internal/services/oidc"
)

// defaultOIDCProvider is used when no provider name is configured
const defaultOIDCProvider = "cognito"

// AuthHandler handles authentication-related requests
type AuthHandler struct {
	oidcProvider    *oidc.Provider
	defaultProvider string
}

// NewAuthHandler creates a new auth handler. defaultProvider names the
// OIDC provider used when a request does not pick one; empty falls back
// to cognito.
func NewAuthHandler(oidcProvider *oidc.Provider, defaultProvider string) *AuthHandler {
	if defaultProvider == "" {
		defaultProvider = defaultOIDCProvider
	}
	return &AuthHandler{
		oidcProvider:    oidcProvider,
		defaultProvider: defaultProvider,
	}
}

// RegisterRoutes registers auth routes on the given router.
// The router should already have the /auth prefix. The login and
// exchange endpoints must stay reachable without a token.
func (h *AuthHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/oidc/login", h.GetOIDCLogin).Methods("GET")
	r.HandleFunc("/oidc/exchange", h.PostOIDCExchange).Methods("POST")
	r.HandleFunc("/me", h.GetMe).Methods("GET")
}

// OIDCExchangeRequest carries an authorization code for the backend to
// exchange, so confidential clients keep the secret server-side
type OIDCExchangeRequest struct {
	Code     string `json:"code" validate:"required"`
	Provider string `json:"provider,omitempty"`
}

// OIDCExchangeResponse carries the tokens from the code exchange
type OIDCExchangeResponse struct {
	AccessToken  string `json:"access_token"`
	IDToken      string `json:"id_token,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in,omitempty"`
}

// GetOIDCLogin returns OIDC configuration for frontend login
func (h *AuthHandler) GetOIDCLogin(w http.ResponseWriter, r *http.Request) {
	loginConfig, err := h.oidcProvider.GetLoginConfig(r.Context(), h.defaultProvider)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to get OIDC configuration")
		return
	}

	respondJSON(w, http.StatusOK, loginConfig)
}

// PostOIDCExchange exchanges an authorization code for tokens
func (h *AuthHandler) PostOIDCExchange(w http.ResponseWriter, r *http.Request) {
	var req OIDCExchangeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !validateStruct(w, req) {
		return
	}

	providerName := req.Provider
	if providerName == "" {
		providerName = h.defaultProvider
	}

	ctx := r.Context()
	config, err := h.oidcProvider.GetConfig(ctx, providerName)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to get OIDC configuration")
		return
	}

	client := oidc.NewClient(config)
	token, err := client.ExchangeCode(ctx, req.Code)
	if err != nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "Failed to exchange authorization code")
		return
	}

	response := OIDCExchangeResponse{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		TokenType:    token.TokenType,
	}
	if idToken, ok := token.Extra("id_token").(string); ok {
		response.IDToken = idToken
	}
	if !token.Expiry.IsZero() {
		response.ExpiresIn = int64(time.Until(token.Expiry).Seconds())
	}

	respondJSON(w, http.StatusOK, response)
}

// GetMe returns current user information
func (h *AuthHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	respondJSON(w, http.StatusOK, user)
}
