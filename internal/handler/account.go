package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/shoply-dev/shoply/internal/api"
	"github.com/shoply-dev/shoply/internal/domain"
	"github.com/shoply-dev/shoply/internal/service"
	"github.com/shoply-dev/shoply/internal/utils"
)

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user := requireUser(w, r)
	if user == nil {
		return
	}

	account, err := h.account.Get(user.Id)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	writeJSON(w, http.StatusOK, api.UserResponse{
		Id:       account.Id,
		Email:    account.Email,
		Username: account.Username,
		Admin:    account.Admin,
		Verified: account.Verified,
	})
}

func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	user := requireUser(w, r)
	if user == nil {
		return
	}

	var req api.UpdateProfileRequest
	if err := utils.DecodeValidate(r.Body, &req); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	update := service.ProfileUpdate{Username: req.Username, Password: req.Password}
	if err := h.account.UpdateProfile(user.Id, update); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	writeJSON(w, http.StatusOK, api.MessageResponse{Message: "Profile updated"})
}

// DeleteAccount removes the caller's account. Reserved cart stock flows back
// to the ledger in the same transaction.
func (h *Handler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	user := requireUser(w, r)
	if user == nil {
		return
	}

	if err := h.account.Delete(user.Id); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	// The session cookie is now orphaned, drop it too.
	http.SetCookie(w, &http.Cookie{
		Path:     "/",
		Name:     "accessToken",
		Value:    "",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cfg.Public.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, http.StatusOK, api.MessageResponse{Message: "Account deleted"})
}

// DeleteUser removes an arbitrary account. Admin only, routed accordingly.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	userId, err := parseIntParam(chi.URLParam(r, "user"), "user")
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	if err := h.account.Delete(domain.UserId(userId)); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	writeJSON(w, http.StatusOK, api.MessageResponse{Message: "Account deleted"})
}
