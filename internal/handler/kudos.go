package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/apexkudos/kudos/internal/apperror"
	"github.com/apexkudos/kudos/internal/service"
)

// KudosHandler serves core values, praise, and the user directory.
type KudosHandler struct {
	coreValues *service.CoreValueService
	praise     *service.PraiseService
	users      *service.UserService
	logger     *slog.Logger
}

func NewKudosHandler(
	coreValues *service.CoreValueService,
	praise *service.PraiseService,
	users *service.UserService,
	logger *slog.Logger,
) *KudosHandler {
	return &KudosHandler{
		coreValues: coreValues,
		praise:     praise,
		users:      users,
		logger:     logger,
	}
}

// HandleListCoreValues returns the active core values.
//
// HTTP: GET /core-values
func (h *KudosHandler) HandleListCoreValues(w http.ResponseWriter, r *http.Request) {
	list, err := h.coreValues.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// HandleCreateCoreValue creates a core value from query parameters.
//
// HTTP: POST /admin/core-values?name=...&description=...
func (h *KudosHandler) HandleCreateCoreValue(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if !q.Has("name") {
		writeError(w, apperror.ValidationFailed("name", "name query parameter is required"))
		return
	}

	cv, err := h.coreValues.Create(r.Context(), q.Get("name"), q.Get("description"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cv)
}

// HandleDeleteCoreValue archives a core value.
//
// HTTP: DELETE /admin/core-values/{id}
func (h *KudosHandler) HandleDeleteCoreValue(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.coreValues.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Core value deleted"})
}

// HandleGivePraise records praise from the authenticated user.
//
// HTTP: POST /praise
// REQUEST BODY: {"receiver_id": 2, "core_value_id": 1, "message": "..."}
func (h *KudosHandler) HandleGivePraise(w http.ResponseWriter, r *http.Request) {
	giverID, err := currentUserID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var in service.GivePraiseInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}

	p, err := h.praise.Give(r.Context(), giverID, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// HandleListPraise returns everyone's praise, newest first.
//
// HTTP: GET /praise?limit=N
func (h *KudosHandler) HandleListPraise(w http.ResponseWriter, r *http.Request) {
	list, err := h.praise.List(r.Context(), queryLimit(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// HandleReceivedPraise returns the praise the authenticated user received.
//
// HTTP: GET /praise/received
func (h *KudosHandler) HandleReceivedPraise(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	list, err := h.praise.Received(r.Context(), userID, queryLimit(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// HandleListUsers returns the user directory.
//
// HTTP: GET /users
func (h *KudosHandler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// queryLimit reads ?limit=N. Missing or unparsable means no limit.
func queryLimit(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil {
		return 0
	}
	return n
}
