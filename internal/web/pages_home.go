package web

import (
	"context"
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/apexkudos/kudos/internal/apiclient"
	"github.com/apexkudos/kudos/internal/model"
)

type dashboardData struct {
	Me     *model.User
	Praise []model.Praise
}

// handleDashboard shows the caller's balance and the company-wide feed.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	s.loadPage(w, r, "dashboard", "Dashboard", func(ctx context.Context, api *apiclient.Client) (any, error) {
		var d dashboardData
		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() (err error) {
			d.Me, err = api.CurrentUser(ctx)
			return err
		})
		g.Go(func() (err error) {
			d.Praise, err = api.AllPraise(ctx)
			return err
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}
		return d, nil
	})
}

type profileData struct {
	Me       *model.User
	Received []model.Praise
}

func (s *Server) handleMyProfile(w http.ResponseWriter, r *http.Request) {
	s.loadPage(w, r, "my_profile", "My Profile", func(ctx context.Context, api *apiclient.Client) (any, error) {
		var d profileData
		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() (err error) {
			d.Me, err = api.CurrentUser(ctx)
			return err
		})
		g.Go(func() (err error) {
			d.Received, err = api.MyPraise(ctx)
			return err
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}
		return d, nil
	})
}
