package web

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/apexkudos/kudos/internal/apiclient"
	"github.com/apexkudos/kudos/internal/model"
)

type rewardsData struct {
	Me          *model.User
	Rewards     []model.Reward
	Redemptions []model.Redemption
}

// handleRewards shows the catalog next to the caller's balance and history.
// The redeem buttons are always enabled; the backend decides affordability.
func (s *Server) handleRewards(w http.ResponseWriter, r *http.Request) {
	s.loadPage(w, r, "rewards", "Rewards", func(ctx context.Context, api *apiclient.Client) (any, error) {
		var d rewardsData
		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() (err error) {
			d.Me, err = api.CurrentUser(ctx)
			return err
		})
		g.Go(func() (err error) {
			d.Rewards, err = api.Rewards(ctx)
			return err
		})
		g.Go(func() (err error) {
			d.Redemptions, err = api.MyRedemptions(ctx)
			return err
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}
		return d, nil
	})
}

func (s *Server) handleRedeem(w http.ResponseWriter, r *http.Request) {
	a := action{
		name:    "redeem",
		back:    "/rewards",
		success: "Reward redeemed!",
		failure: "Failed to redeem reward",
	}
	s.mutate(w, r, a, func(ctx context.Context, api *apiclient.Client) error {
		id, err := urlID(r)
		if err != nil {
			return err
		}
		_, err = api.RedeemReward(ctx, id)
		return err
	})
}

// urlID parses the {id} route parameter.
func urlID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("web: invalid id %q", raw)
	}
	return id, nil
}
