package service

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/apexkudos/kudos/internal/apperror"
	"github.com/apexkudos/kudos/internal/model"
	"github.com/apexkudos/kudos/internal/repository"
)

// =========================================================================
// FAKES AND HELPERS
// =========================================================================

// memStore is an in-memory implementation of every repository interface.
// It mirrors the SQLite rules the services rely on: case-insensitive unique
// email, archived rows hidden from lists, atomic redeem, one-way fulfill.
type memStore struct {
	users       map[int64]*model.User
	coreValues  map[int64]*model.CoreValue
	archivedCV  map[int64]bool
	praise      []model.Praise
	rewards     map[int64]*model.Reward
	redemptions []*model.Redemption
	nextID      int64

	// set to a non-nil error to simulate a database failure
	failWith error
}

var (
	_ repository.UserRepository       = (*memStore)(nil)
	_ repository.CoreValueRepository  = (*memStore)(nil)
	_ repository.PraiseRepository     = (*memStore)(nil)
	_ repository.RewardRepository     = (*memStore)(nil)
	_ repository.RedemptionRepository = (*memStore)(nil)
)

func newMemStore() *memStore {
	return &memStore{
		users:      make(map[int64]*model.User),
		coreValues: make(map[int64]*model.CoreValue),
		archivedCV: make(map[int64]bool),
		rewards:    make(map[int64]*model.Reward),
	}
}

func (m *memStore) id() int64 {
	m.nextID++
	return m.nextID
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func idStr(id int64) string { return strconv.FormatInt(id, 10) }

// --- users ---

func (m *memStore) CreateUser(_ context.Context, u *model.User) error {
	if m.failWith != nil {
		return m.failWith
	}
	for _, existing := range m.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return apperror.ValidationFailed("email", "Email already registered")
		}
	}
	u.ID = m.id()
	u.CreatedAt = time.Now().UTC()
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *memStore) GetUserByID(_ context.Context, id int64) (*model.User, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	u, ok := m.users[id]
	if !ok {
		return nil, apperror.NotFound("user", idStr(id))
	}
	cp := *u
	return &cp, nil
}

func (m *memStore) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperror.NotFound("user", email)
}

func (m *memStore) GetUserBySlackID(_ context.Context, slackID string) (*model.User, error) {
	for _, u := range m.users {
		if u.SlackID == slackID {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperror.NotFound("user", slackID)
}

func (m *memStore) ListUsers(_ context.Context) ([]model.User, error) {
	out := []model.User{}
	for _, u := range m.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) SetAdmin(_ context.Context, email string, admin bool) (bool, error) {
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			u.IsAdmin = admin
			return true, nil
		}
	}
	return false, nil
}

// --- core values ---

func (m *memStore) CreateCoreValue(_ context.Context, cv *model.CoreValue) error {
	cv.ID = m.id()
	cp := *cv
	m.coreValues[cv.ID] = &cp
	return nil
}

func (m *memStore) GetCoreValue(_ context.Context, id int64) (*model.CoreValue, error) {
	cv, ok := m.coreValues[id]
	if !ok || m.archivedCV[id] {
		return nil, apperror.NotFound("core value", idStr(id))
	}
	cp := *cv
	return &cp, nil
}

func (m *memStore) FindCoreValueByName(_ context.Context, fragment string) (*model.CoreValue, error) {
	want := strings.ToLower(fragment)
	for _, cv := range m.activeCoreValues() {
		name := strings.ToLower(cv.Name)
		if strings.Contains(name, want) || strings.Contains(strings.ReplaceAll(name, " ", ""), want) {
			return &cv, nil
		}
	}
	return nil, apperror.NotFound("core value", fragment)
}

func (m *memStore) activeCoreValues() []model.CoreValue {
	out := []model.CoreValue{}
	for id, cv := range m.coreValues {
		if !m.archivedCV[id] {
			out = append(out, *cv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *memStore) ListCoreValues(_ context.Context) ([]model.CoreValue, error) {
	return m.activeCoreValues(), nil
}

func (m *memStore) ArchiveCoreValue(_ context.Context, id int64) error {
	if _, ok := m.coreValues[id]; !ok || m.archivedCV[id] {
		return apperror.NotFound("core value", idStr(id))
	}
	m.archivedCV[id] = true
	return nil
}

// --- praise ---

func (m *memStore) CreatePraise(_ context.Context, p repository.NewPraise) (*model.Praise, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	giver, ok := m.users[p.GiverID]
	if !ok {
		return nil, apperror.NotFound("user", idStr(p.GiverID))
	}
	receiver := m.users[p.ReceiverID]
	receiver.PointsBalance += p.PointsAwarded
	giver.PointsBalance += p.GiverBonus

	praise := model.Praise{
		ID:            m.id(),
		Giver:         *giver,
		Receiver:      *receiver,
		CoreValue:     *m.coreValues[p.CoreValueID],
		Message:       p.Message,
		PointsAwarded: p.PointsAwarded,
		CreatedAt:     time.Now().UTC(),
	}
	m.praise = append(m.praise, praise)
	return &praise, nil
}

func (m *memStore) ListPraise(_ context.Context, f repository.PraiseFilter) ([]model.Praise, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	out := []model.Praise{}
	for i := len(m.praise) - 1; i >= 0; i-- {
		p := m.praise[i]
		if f.ReceiverID != 0 && p.Receiver.ID != f.ReceiverID {
			continue
		}
		out = append(out, p)
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out, nil
}

// --- rewards ---

func (m *memStore) CreateReward(_ context.Context, r *model.Reward) error {
	r.ID = m.id()
	r.IsActive = true
	cp := *r
	m.rewards[r.ID] = &cp
	return nil
}

func (m *memStore) GetReward(_ context.Context, id int64) (*model.Reward, error) {
	r, ok := m.rewards[id]
	if !ok {
		return nil, apperror.NotFound("reward", idStr(id))
	}
	cp := *r
	return &cp, nil
}

func (m *memStore) ListActiveRewards(_ context.Context) ([]model.Reward, error) {
	out := []model.Reward{}
	for _, r := range m.rewards {
		if r.IsActive {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) ArchiveReward(_ context.Context, id int64) error {
	r, ok := m.rewards[id]
	if !ok || !r.IsActive {
		return apperror.NotFound("reward", idStr(id))
	}
	r.IsActive = false
	return nil
}

// --- redemptions ---

func (m *memStore) Redeem(_ context.Context, userID, rewardID int64) (*model.Redemption, error) {
	reward, ok := m.rewards[rewardID]
	if !ok || !reward.IsActive {
		return nil, apperror.NotFound("reward", idStr(rewardID))
	}
	user, ok := m.users[userID]
	if !ok {
		return nil, apperror.NotFound("user", idStr(userID))
	}
	if user.PointsBalance < reward.PointCost {
		return nil, apperror.ValidationFailed("reward_id", "Not enough points")
	}
	user.PointsBalance -= reward.PointCost

	r := &model.Redemption{
		ID:          m.id(),
		UserID:      userID,
		Reward:      *reward,
		PointsSpent: reward.PointCost,
		Status:      model.RedemptionPending,
		RedeemedAt:  time.Now().UTC(),
	}
	m.redemptions = append(m.redemptions, r)
	cp := *r
	return &cp, nil
}

func (m *memStore) GetRedemption(_ context.Context, id int64) (*model.Redemption, error) {
	for _, r := range m.redemptions {
		if r.ID == id {
			cp := *r
			return &cp, nil
		}
	}
	return nil, apperror.NotFound("redemption", idStr(id))
}

func (m *memStore) ListRedemptions(_ context.Context, f repository.RedemptionFilter) ([]model.Redemption, error) {
	out := []model.Redemption{}
	for i := len(m.redemptions) - 1; i >= 0; i-- {
		r := m.redemptions[i]
		if f.UserID != 0 && r.UserID != f.UserID {
			continue
		}
		out = append(out, *r)
	}
	return out, nil
}

func (m *memStore) FulfillRedemption(_ context.Context, id int64) error {
	for _, r := range m.redemptions {
		if r.ID != id {
			continue
		}
		if r.Status != model.RedemptionPending {
			return apperror.Conflict("redemption", idStr(id))
		}
		r.Status = model.RedemptionFulfilled
		return nil
	}
	return apperror.NotFound("redemption", idStr(id))
}

// seedUser stores a user directly, bypassing registration.
func (m *memStore) seedUser(email string, balance int) *model.User {
	u := &model.User{Email: email, FirstName: strings.Split(email, "@")[0], LastName: "Test", PointsBalance: balance}
	_ = m.CreateUser(context.Background(), u)
	return u
}
