package web

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/apexkudos/kudos/internal/apiclient"
	"github.com/apexkudos/kudos/internal/model"
)

type givePraiseData struct {
	CoreValues []model.CoreValue
	Users      []model.User
}

func (s *Server) handleGivePraisePage(w http.ResponseWriter, r *http.Request) {
	s.loadPage(w, r, "give_praise", "Give Praise", func(ctx context.Context, api *apiclient.Client) (any, error) {
		var d givePraiseData
		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() (err error) {
			d.CoreValues, err = api.CoreValues(ctx)
			return err
		})
		g.Go(func() (err error) {
			d.Users, err = api.AllUsers(ctx)
			return err
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}
		return d, nil
	})
}

func (s *Server) handleGivePraise(w http.ResponseWriter, r *http.Request) {
	a := action{
		name:    "give-praise",
		back:    "/give-praise",
		success: "Praise sent!",
		failure: "Failed to send praise",
	}
	s.mutate(w, r, a, func(ctx context.Context, api *apiclient.Client) error {
		receiver, err1 := formID(r, "receiver_id")
		coreValue, err2 := formID(r, "core_value_id")
		if err := errors.Join(err1, err2); err != nil {
			return err
		}
		_, err := api.GivePraise(ctx, apiclient.PraiseRequest{
			ReceiverID:  receiver,
			CoreValueID: coreValue,
			Message:     strings.TrimSpace(r.PostFormValue("message")),
		})
		return err
	})
}

// formID parses a positive integer form field.
func formID(r *http.Request, field string) (int64, error) {
	id, err := strconv.ParseInt(r.PostFormValue(field), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("web: " + field + " must be a positive integer")
	}
	return id, nil
}
