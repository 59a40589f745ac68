package gateway

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"talentflow/internal/model"
)

// userView is a User without its password.
type userView struct {
	ID        int64      `json:"id"`
	Email     string     `json:"email"`
	Name      string     `json:"name"`
	Role      model.Role `json:"role"`
	Avatar    string     `json:"avatar,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

func viewOf(u *model.User) *userView {
	if u == nil {
		return nil
	}
	return &userView{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role,
		Avatar:    u.Avatar,
		CreatedAt: u.CreatedAt,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signupRequest struct {
	Email    string     `json:"email"`
	Password string     `json:"password"`
	Name     string     `json:"name"`
	Role     model.Role `json:"role"`
}

func (g *Gateway) login(c *gin.Context) {
	var req loginRequest
	if err := bindJSON(c, &req); err != nil {
		g.fail(c, err)
		return
	}
	user, err := g.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dataResponse{Data: viewOf(user)})
}

func (g *Gateway) signup(c *gin.Context) {
	var req signupRequest
	if err := bindJSON(c, &req); err != nil {
		g.fail(c, err)
		return
	}
	if req.Role == "" {
		req.Role = model.RoleApplicant
	}
	user, err := g.auth.Signup(c.Request.Context(), req.Email, req.Password, req.Name, req.Role)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, dataResponse{Data: viewOf(user)})
}

func (g *Gateway) logout(c *gin.Context) {
	if err := g.auth.Logout(c.Request.Context()); err != nil {
		g.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (g *Gateway) currentSession(c *gin.Context) {
	user, err := g.auth.CurrentUser(c.Request.Context())
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dataResponse{Data: viewOf(user)})
}

func (g *Gateway) listUsers(c *gin.Context) {
	users, err := g.auth.Users(c.Request.Context())
	if err != nil {
		g.fail(c, err)
		return
	}
	views := make([]*userView, 0, len(users))
	for _, u := range users {
		views = append(views, viewOf(u))
	}
	c.JSON(http.StatusOK, dataResponse{Data: views})
}
