package backend

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Alturino/sneakerzone/user/pkg/request"
	"github.com/Alturino/sneakerzone/user/pkg/response"
)

func (cl *Client) Login(c context.Context, param request.Login) (response.User, error) {
	user := response.User{}
	if err := cl.do(c, http.MethodPost, "/auth/login", param.Payload(), &user); err != nil {
		return response.User{}, fmt.Errorf("failed login with error=%w", err)
	}
	if user.ID == 0 {
		return response.User{}, fmt.Errorf("%w: login without user", ErrMalformedResponse)
	}
	return user, nil
}

func (cl *Client) Register(c context.Context, param request.Register) (response.User, error) {
	user := response.User{}
	if err := cl.do(c, http.MethodPost, "/auth/register", param.Payload(), &user); err != nil {
		return response.User{}, fmt.Errorf("failed registering user with error=%w", err)
	}
	if user.ID == 0 {
		return response.User{}, fmt.Errorf("%w: register without user", ErrMalformedResponse)
	}
	return user, nil
}

func (cl *Client) FindProfile(c context.Context, userID int64) (response.User, error) {
	user := response.User{}
	if err := cl.do(c, http.MethodGet, fmt.Sprintf("/auth/profile/%d", userID), nil, &user); err != nil {
		return response.User{}, fmt.Errorf("failed finding profile of userId=%d with error=%w", userID, err)
	}
	return user, nil
}

func (cl *Client) UpdateProfile(c context.Context, param request.UpdateProfile) (response.User, error) {
	user := response.User{}
	if err := cl.do(c, http.MethodPut, "/auth/update-profile", param, &user); err != nil {
		return response.User{}, fmt.Errorf("failed updating profile of userId=%d with error=%w", param.ID, err)
	}
	return user, nil
}

func (cl *Client) FindUsers(c context.Context) ([]response.User, error) {
	users := []response.User{}
	if err := cl.do(c, http.MethodGet, "/users", nil, &users); err != nil {
		return nil, fmt.Errorf("failed finding users with error=%w", err)
	}
	return users, nil
}

func (cl *Client) DeleteUser(c context.Context, id int64) error {
	if err := cl.do(c, http.MethodDelete, fmt.Sprintf("/users/%d", id), nil, nil); err != nil {
		return fmt.Errorf("failed deleting userId=%d with error=%w", id, err)
	}
	return nil
}
