package handler

import (
	"log/slog"
	"net/http"

	"github.com/apexkudos/kudos/internal/service"
)

// RewardHandler serves the reward catalog and redemptions.
type RewardHandler struct {
	svc    *service.RewardService
	logger *slog.Logger
}

func NewRewardHandler(svc *service.RewardService, logger *slog.Logger) *RewardHandler {
	return &RewardHandler{svc: svc, logger: logger}
}

// redeemRequest is the body of POST /redeem.
type redeemRequest struct {
	RewardID int64 `json:"reward_id"`
}

// HandleList returns the active rewards.
//
// HTTP: GET /rewards
func (h *RewardHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// HandleCreate adds a reward.
//
// HTTP: POST /admin/rewards
// REQUEST BODY: {"name": "Mug", "description": "...", "point_cost": 50}
func (h *RewardHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in service.RewardInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}

	reward, err := h.svc.Create(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reward)
}

// HandleDelete archives a reward.
//
// HTTP: DELETE /admin/rewards/{id}
func (h *RewardHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Reward deleted"})
}

// HandleRedeem spends the authenticated user's points on a reward.
//
// HTTP: POST /redeem
// REQUEST BODY: {"reward_id": 3}
func (h *RewardHandler) HandleRedeem(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req redeemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	redemption, err := h.svc.Redeem(r.Context(), userID, req.RewardID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, redemption)
}

// HandleMyRedemptions returns the authenticated user's redemptions.
//
// HTTP: GET /my-redemptions
func (h *RewardHandler) HandleMyRedemptions(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	list, err := h.svc.MyRedemptions(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// HandleAllRedemptions returns every redemption.
//
// HTTP: GET /admin/redemptions
func (h *RewardHandler) HandleAllRedemptions(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.AllRedemptions(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// HandleFulfill marks a pending redemption fulfilled.
//
// HTTP: PATCH /admin/redemptions/{id}/fulfill
func (h *RewardHandler) HandleFulfill(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.svc.Fulfill(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Redemption fulfilled"})
}
