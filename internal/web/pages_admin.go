package web

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/apexkudos/kudos/internal/apiclient"
	"github.com/apexkudos/kudos/internal/model"
)

// Admin tabs. Each is fetched only when selected.
const (
	tabCoreValues  = "core-values"
	tabRewards     = "rewards"
	tabRedemptions = "redemptions"
	tabUsers       = "users"
)

var adminTabs = []string{tabCoreValues, tabRewards, tabRedemptions, tabUsers}

type adminData struct {
	Tab         string
	CoreValues  []model.CoreValue
	Rewards     []model.Reward
	Redemptions []redemptionRow
	Users       []model.User
}

// redemptionRow pairs a redemption with its redeemer's display name.
type redemptionRow struct {
	model.Redemption
	UserName string
}

// redemptionRows resolves user IDs against the user list. Unknown IDs
// render as "User #<id>".
func redemptionRows(redemptions []model.Redemption, users []model.User) []redemptionRow {
	names := make(map[int64]string, len(users))
	for _, u := range users {
		names[u.ID] = u.FullName()
	}
	rows := make([]redemptionRow, 0, len(redemptions))
	for _, rd := range redemptions {
		name, ok := names[rd.UserID]
		if !ok {
			name = "User #" + strconv.FormatInt(rd.UserID, 10)
		}
		rows = append(rows, redemptionRow{Redemption: rd, UserName: name})
	}
	return rows
}

// adminTab normalizes ?tab=, defaulting to core values.
func adminTab(r *http.Request) string {
	tab := r.URL.Query().Get("tab")
	for _, t := range adminTabs {
		if t == tab {
			return t
		}
	}
	return tabCoreValues
}

func adminURL(tab string) string {
	return "/admin?tab=" + tab
}

// handleAdmin renders one tab. There is no client-side role check: a
// non-admin sees the load-failed block when the backend says 403.
func (s *Server) handleAdmin(w http.ResponseWriter, r *http.Request) {
	tab := adminTab(r)

	s.loadPage(w, r, "admin", "Admin", func(ctx context.Context, api *apiclient.Client) (any, error) {
		d := adminData{Tab: tab}
		var err error
		switch tab {
		case tabCoreValues:
			d.CoreValues, err = api.CoreValues(ctx)
		case tabRewards:
			d.Rewards, err = api.Rewards(ctx)
		case tabRedemptions:
			var (
				redemptions []model.Redemption
				users       []model.User
			)
			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() (err error) {
				redemptions, err = api.AllRedemptions(gctx)
				return err
			})
			g.Go(func() (err error) {
				users, err = api.AllUsers(gctx)
				return err
			})
			if err = g.Wait(); err == nil {
				d.Redemptions = redemptionRows(redemptions, users)
			}
		case tabUsers:
			d.Users, err = api.AllUsers(ctx)
		}
		if err != nil {
			return nil, err
		}
		return d, nil
	})
}

func (s *Server) handleCreateCoreValue(w http.ResponseWriter, r *http.Request) {
	a := action{
		name:    "create-core-value",
		back:    adminURL(tabCoreValues),
		success: "Core value created!",
		failure: "Failed to create core value",
	}
	s.mutate(w, r, a, func(ctx context.Context, api *apiclient.Client) error {
		_, err := api.CreateCoreValue(ctx,
			strings.TrimSpace(r.PostFormValue("name")),
			strings.TrimSpace(r.PostFormValue("description")),
		)
		return err
	})
}

func (s *Server) handleDeleteCoreValue(w http.ResponseWriter, r *http.Request) {
	a := action{
		name:    "delete-core-value",
		back:    adminURL(tabCoreValues),
		success: "Core value deleted!",
		failure: "Failed to delete core value",
	}
	s.mutate(w, r, a, func(ctx context.Context, api *apiclient.Client) error {
		id, err := urlID(r)
		if err != nil {
			return err
		}
		return api.DeleteCoreValue(ctx, id)
	})
}

func (s *Server) handleCreateReward(w http.ResponseWriter, r *http.Request) {
	a := action{
		name:    "create-reward",
		back:    adminURL(tabRewards),
		success: "Reward created!",
		failure: "Failed to create reward",
	}
	s.mutate(w, r, a, func(ctx context.Context, api *apiclient.Client) error {
		cost, err := strconv.Atoi(strings.TrimSpace(r.PostFormValue("point_cost")))
		if err != nil {
			return err
		}
		_, err = api.CreateReward(ctx, apiclient.RewardRequest{
			Name:        strings.TrimSpace(r.PostFormValue("name")),
			Description: strings.TrimSpace(r.PostFormValue("description")),
			PointCost:   cost,
		})
		return err
	})
}

func (s *Server) handleDeleteReward(w http.ResponseWriter, r *http.Request) {
	a := action{
		name:    "delete-reward",
		back:    adminURL(tabRewards),
		success: "Reward deleted!",
		failure: "Failed to delete reward",
	}
	s.mutate(w, r, a, func(ctx context.Context, api *apiclient.Client) error {
		id, err := urlID(r)
		if err != nil {
			return err
		}
		return api.DeleteReward(ctx, id)
	})
}

func (s *Server) handleFulfill(w http.ResponseWriter, r *http.Request) {
	a := action{
		name:    "fulfill-redemption",
		back:    adminURL(tabRedemptions),
		success: "Redemption fulfilled!",
		failure: "Failed to fulfill redemption",
	}
	s.mutate(w, r, a, func(ctx context.Context, api *apiclient.Client) error {
		id, err := urlID(r)
		if err != nil {
			return err
		}
		return api.FulfillRedemption(ctx, id)
	})
}
