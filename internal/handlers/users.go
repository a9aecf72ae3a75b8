package handlers

import (
	"net/http"

	"github.com/todoshare/backend/internal/users"
)

// UserHandler implements account endpoints.
type UserHandler struct {
	Users UserService
}

type signUpRequest struct {
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	CountryName  string `json:"countryName"`
	MobileNumber string `json:"mobileNumber"`
	Email        string `json:"email"`
	Password     string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// SignUp handles POST /users/signup.
func (h UserHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req signUpRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}

	user, err := h.Users.SignUp(ctx, users.SignUpInput(req))
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondOK(ctx, w, "User created", user)
}

// Login handles POST /users/login.
func (h UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}

	result, err := h.Users.Login(ctx, req.Email, req.Password)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondOK(ctx, w, "Login successful", result)
}

// Refresh handles POST /users/refresh.
func (h UserHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req refreshRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}

	tokens, err := h.Users.Refresh(ctx, req.RefreshToken)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondOK(ctx, w, "Session refreshed", tokens)
}

// Logout handles POST /users/logout/{userId}.
func (h UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.Users.Logout(ctx, callerFrom(r), pathParam(r, "userId")); err != nil {
		respondError(ctx, w, err)
		return
	}
	respondOK(ctx, w, "Logged out successfully", nil)
}

// Delete handles POST /users/{userId}/delete.
func (h UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, err := h.Users.Delete(ctx, callerFrom(r), pathParam(r, "userId"))
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondOK(ctx, w, "Deleted the user successfully", user)
}

// All handles GET /users/view/all.
func (h UserHandler) All(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	all, err := h.Users.All(ctx)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondOK(ctx, w, "All user details found", all)
}

// Details handles GET /users/{userId}/details.
func (h UserHandler) Details(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	details, err := h.Users.Details(ctx, callerFrom(r), pathParam(r, "userId"))
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondOK(ctx, w, "User details found", details)
}
