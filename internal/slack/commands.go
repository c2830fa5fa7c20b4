package slack

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/apexkudos/kudos/internal/apperror"
	"github.com/apexkudos/kudos/internal/model"
	"github.com/apexkudos/kudos/internal/service"
)

const praiseUsage = "Usage: `/praise @user \"Your message\" #core-value`"

// Response is the JSON body Slack renders for a slash command.
type Response struct {
	ResponseType string `json:"response_type"` // "ephemeral" or "in_channel"
	Text         string `json:"text"`
}

func ephemeral(format string, args ...any) Response {
	return Response{ResponseType: "ephemeral", Text: fmt.Sprintf(format, args...)}
}

// Handler serves the slash commands on top of the same services the REST
// API uses, so point rules are identical.
type Handler struct {
	secret     []byte
	users      *service.UserService
	praise     *service.PraiseService
	coreValues *service.CoreValueService
	logger     *slog.Logger
	now        func() time.Time
}

func NewHandler(
	signingSecret string,
	users *service.UserService,
	praise *service.PraiseService,
	coreValues *service.CoreValueService,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		secret:     []byte(signingSecret),
		users:      users,
		praise:     praise,
		coreValues: coreValues,
		logger:     logger,
		now:        time.Now,
	}
}

// Routes mounts the three commands behind signature verification.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(Verify(h.secret, func() time.Time { return h.now() }))
	r.Post("/praise", h.HandlePraise)
	r.Post("/my-praise", h.HandleMyPraise)
	r.Post("/my-points", h.HandleMyPoints)
	return r
}

// praiseCommand is the parsed text of /praise.
type praiseCommand struct {
	ReceiverSlackID string
	Message         string
	CoreValueTag    string
}

// parsePraise parses `<@U123|name> "message" #core-value`. A non-empty
// problem is the user-facing reason the text was rejected.
func parsePraise(text string) (cmd praiseCommand, problem string) {
	text = strings.TrimSpace(text)

	end := strings.IndexByte(text, '>')
	if !strings.HasPrefix(text, "<@") || end == -1 {
		return praiseCommand{}, "Please mention a user. " + praiseUsage
	}
	receiver, _, _ := strings.Cut(text[2:end], "|")
	rest := strings.TrimSpace(text[end+1:])

	if !strings.Contains(rest, `"`) {
		return praiseCommand{}, "Please put your message in quotes. " + praiseUsage
	}
	parts := strings.Split(rest, `"`)
	if len(parts) < 3 || strings.TrimSpace(parts[1]) == "" {
		return praiseCommand{}, "Invalid format. " + praiseUsage
	}

	return praiseCommand{
		ReceiverSlackID: receiver,
		Message:         strings.TrimSpace(parts[1]),
		CoreValueTag:    strings.TrimSpace(parts[2]),
	}, ""
}

// HandlePraise gives praise from the calling Slack user.
func (h *Handler) HandlePraise(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	giver, ok := h.lookupCaller(ctx, w, r)
	if !ok {
		return
	}

	cmd, problem := parsePraise(r.PostFormValue("text"))
	if problem != "" {
		writeResponse(w, ephemeral("❌ %s", problem))
		return
	}

	receiver, err := h.users.BySlackID(ctx, cmd.ReceiverSlackID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			writeResponse(w, ephemeral("❌ This user hasn't registered yet. They need to sign up on the web app first."))
			return
		}
		h.fail(w, "slack praise: receiver lookup", err)
		return
	}
	if receiver.ID == giver.ID {
		writeResponse(w, ephemeral("❌ You can't praise yourself!"))
		return
	}

	cv, err := h.coreValues.FindByName(ctx, cmd.CoreValueTag)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) || errors.Is(err, apperror.ErrValidation) {
			writeResponse(w, ephemeral("❌ Core value not found. Available values: %s", h.availableValues(ctx)))
			return
		}
		h.fail(w, "slack praise: core value lookup", err)
		return
	}

	p, err := h.praise.Give(ctx, giver.ID, service.GivePraiseInput{
		ReceiverID:  receiver.ID,
		CoreValueID: cv.ID,
		Message:     cmd.Message,
	})
	if err != nil {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			writeResponse(w, ephemeral("❌ %s", appErr.Message))
			return
		}
		h.fail(w, "slack praise: give", err)
		return
	}

	writeResponse(w, Response{
		ResponseType: "in_channel",
		Text: fmt.Sprintf("🎉 %s praised %s for *%s*!\n\"%s\"\n\n+%d points to %s, +%d points to %s",
			giver.FirstName, receiver.FirstName, p.CoreValue.Name, p.Message,
			p.PointsAwarded, receiver.FirstName, service.GiverBonusPoints, giver.FirstName),
	})
}

// HandleMyPraise lists the caller's most recent received praise.
func (h *Handler) HandleMyPraise(w http.ResponseWriter, r *http.Request) {
	user, ok := h.lookupCaller(r.Context(), w, r)
	if !ok {
		return
	}

	list, err := h.praise.Received(r.Context(), user.ID, service.SlackRecentPraise)
	if err != nil {
		h.fail(w, "slack my-praise", err)
		return
	}
	if len(list) == 0 {
		writeResponse(w, ephemeral("You haven't received any praise yet. Keep up the great work!"))
		return
	}

	writeResponse(w, ephemeral("%s", formatPraiseList(list)))
}

// HandleMyPoints reports the caller's balance.
func (h *Handler) HandleMyPoints(w http.ResponseWriter, r *http.Request) {
	user, ok := h.lookupCaller(r.Context(), w, r)
	if !ok {
		return
	}
	writeResponse(w, ephemeral("💰 You have *%d points*!", user.PointsBalance))
}

func formatPraiseList(list []model.Praise) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*Your Recent Praise (%d shown):*\n\n", len(list))
	for _, p := range list {
		fmt.Fprintf(&b, "• *%s* from %s: \"%s\" (+%d pts)\n",
			p.CoreValue.Name, p.Giver.FirstName, p.Message, p.PointsAwarded)
	}
	return b.String()
}

// lookupCaller resolves the form's user_id. When it returns false a
// response has already been written.
func (h *Handler) lookupCaller(ctx context.Context, w http.ResponseWriter, r *http.Request) (*model.User, bool) {
	user, err := h.users.BySlackID(ctx, r.PostFormValue("user_id"))
	if err == nil {
		return user, true
	}
	if errors.Is(err, apperror.ErrNotFound) || errors.Is(err, apperror.ErrValidation) {
		writeResponse(w, ephemeral("❌ You need to register on the web app first."))
		return nil, false
	}
	h.fail(w, "slack: caller lookup", err)
	return nil, false
}

func (h *Handler) availableValues(ctx context.Context) string {
	list, err := h.coreValues.List(ctx)
	if err != nil {
		return "(unavailable)"
	}
	tags := make([]string, 0, len(list))
	for _, cv := range list {
		tags = append(tags, "#"+strings.ReplaceAll(cv.Name, " ", ""))
	}
	return strings.Join(tags, ", ")
}

// fail logs err and answers with a generic ephemeral message. Slack shows
// non-200 responses as a broken command, so errors still return 200.
func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	h.logger.Error(op, slog.String("error", err.Error()))
	writeResponse(w, ephemeral("❌ Something went wrong. Please try again."))
}

func writeResponse(w http.ResponseWriter, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(resp)
}
