package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/apexkudos/kudos/internal/model"
)

// RegisterRequest is the body of POST /register.
type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// PraiseRequest is the body of POST /praise.
type PraiseRequest struct {
	ReceiverID  int64  `json:"receiver_id"`
	CoreValueID int64  `json:"core_value_id"`
	Message     string `json:"message"`
}

// RewardRequest is the body of POST /admin/rewards.
type RewardRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	PointCost   int    `json:"point_cost"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// Login exchanges credentials for an access token. The body is
// form-encoded with exactly two fields, username and password. The caller
// decides whether to store the token.
func (c *Client) Login(ctx context.Context, email, password string) (*oauth2.Token, error) {
	form := url.Values{"username": {email}, "password": {password}}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("/token", nil),
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("apiclient: building login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	var tr tokenResponse
	if err := c.send(req, &tr); err != nil {
		return nil, err
	}
	if tr.AccessToken == "" {
		return nil, fmt.Errorf("apiclient: login response has no access_token")
	}

	tok := &oauth2.Token{AccessToken: tr.AccessToken, TokenType: tr.TokenType}
	if tr.ExpiresIn > 0 {
		tok.Expiry = time.Now().Add(time.Duration(tr.ExpiresIn) * time.Second)
	}
	return tok, nil
}

// Register creates an account. It does not log in.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*model.User, error) {
	var u model.User
	if err := c.doJSON(ctx, http.MethodPost, "/register", nil, req, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// CurrentUser returns the user the session token belongs to.
func (c *Client) CurrentUser(ctx context.Context) (*model.User, error) {
	var u model.User
	if err := c.doJSON(ctx, http.MethodGet, "/me", nil, nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// CoreValues lists core values in backend order.
func (c *Client) CoreValues(ctx context.Context) ([]model.CoreValue, error) {
	return getList[model.CoreValue](ctx, c, "/core-values")
}

// Rewards lists active rewards in backend order.
func (c *Client) Rewards(ctx context.Context) ([]model.Reward, error) {
	return getList[model.Reward](ctx, c, "/rewards")
}

// GivePraise records praise from the session user.
func (c *Client) GivePraise(ctx context.Context, req PraiseRequest) (*model.Praise, error) {
	var p model.Praise
	if err := c.doJSON(ctx, http.MethodPost, "/praise", nil, req, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// AllPraise lists everyone's praise, newest first.
func (c *Client) AllPraise(ctx context.Context) ([]model.Praise, error) {
	return getList[model.Praise](ctx, c, "/praise")
}

// MyPraise lists praise the session user received, newest first.
func (c *Client) MyPraise(ctx context.Context) ([]model.Praise, error) {
	return getList[model.Praise](ctx, c, "/praise/received")
}

// RedeemReward spends the session user's points on a reward.
func (c *Client) RedeemReward(ctx context.Context, rewardID int64) (*model.Redemption, error) {
	var r model.Redemption
	body := struct {
		RewardID int64 `json:"reward_id"`
	}{rewardID}
	if err := c.doJSON(ctx, http.MethodPost, "/redeem", nil, body, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// MyRedemptions lists the session user's redemptions.
func (c *Client) MyRedemptions(ctx context.Context) ([]model.Redemption, error) {
	return getList[model.Redemption](ctx, c, "/my-redemptions")
}

// CreateCoreValue creates a core value. Name and description travel as
// query parameters.
func (c *Client) CreateCoreValue(ctx context.Context, name, description string) (*model.CoreValue, error) {
	q := url.Values{"name": {name}, "description": {description}}
	var cv model.CoreValue
	if err := c.doJSON(ctx, http.MethodPost, "/admin/core-values", q, nil, &cv); err != nil {
		return nil, err
	}
	return &cv, nil
}

// DeleteCoreValue removes a core value from the list.
func (c *Client) DeleteCoreValue(ctx context.Context, id int64) error {
	return c.doJSON(ctx, http.MethodDelete, idPath("/admin/core-values/%s", id), nil, nil, nil)
}

// CreateReward adds a reward.
func (c *Client) CreateReward(ctx context.Context, req RewardRequest) (*model.Reward, error) {
	var r model.Reward
	if err := c.doJSON(ctx, http.MethodPost, "/admin/rewards", nil, req, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// DeleteReward removes a reward from the catalog.
func (c *Client) DeleteReward(ctx context.Context, id int64) error {
	return c.doJSON(ctx, http.MethodDelete, idPath("/admin/rewards/%s", id), nil, nil, nil)
}

// AllRedemptions lists every user's redemptions.
func (c *Client) AllRedemptions(ctx context.Context) ([]model.Redemption, error) {
	return getList[model.Redemption](ctx, c, "/admin/redemptions")
}

// FulfillRedemption marks a pending redemption fulfilled.
func (c *Client) FulfillRedemption(ctx context.Context, id int64) error {
	return c.doJSON(ctx, http.MethodPatch, idPath("/admin/redemptions/%s/fulfill", id), nil, nil, nil)
}

// AllUsers lists every user.
func (c *Client) AllUsers(ctx context.Context) ([]model.User, error) {
	return getList[model.User](ctx, c, "/users")
}

// getList GETs a JSON array.
func getList[T any](ctx context.Context, c *Client, path string) ([]T, error) {
	var out []T
	if err := c.doJSON(ctx, http.MethodGet, path, nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
