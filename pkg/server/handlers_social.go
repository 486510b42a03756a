package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/soshbru/soshbru/pkg/common/errors"
	"github.com/soshbru/soshbru/pkg/service"
	"github.com/soshbru/soshbru/pkg/supabase"
)

func (s *Server) handleProfessionals(c *gin.Context) {
	members, err := s.social.Professionals(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"professionals": members, "total": len(members)})
}

// handleMe returns the caller's profile, creating it from the token claims
// on first use.
func (s *Server) handleMe(c *gin.Context) {
	claims := claimsFrom(c)
	fullName, _ := claims.UserMetadata["full_name"].(string)
	p, err := s.social.EnsureProfile(claims.UserID(), claims.Email, fullName)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) handleUpdateMe(c *gin.Context) {
	var req service.ProfileUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, errors.NewAppError(http.StatusBadRequest, "Invalid request body", err))
		return
	}
	claims := claimsFrom(c)
	if _, err := s.social.EnsureProfile(claims.UserID(), claims.Email, ""); err != nil {
		handleError(c, err)
		return
	}
	p, err := s.social.UpdateProfile(claims.UserID(), req)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) handleActiveCheckIn(c *gin.Context) {
	ci, err := s.social.ActiveCheckIn(userID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, ci)
}

func (s *Server) handleCheckIn(c *gin.Context) {
	var req struct {
		CafeID string `json:"cafeId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, errors.NewAppError(http.StatusBadRequest, "Missing cafe ID", err))
		return
	}
	ci, err := s.social.CheckIn(c.Request.Context(), userID(c), req.CafeID)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, ci)
}

func (s *Server) handleCheckOut(c *gin.Context) {
	ci, err := s.social.CheckOut(userID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, ci)
}

func (s *Server) handleMeetups(c *gin.Context) {
	list, err := s.social.Meetups(userID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"meetups": list})
}

func (s *Server) handleSendMeetup(c *gin.Context) {
	var req struct {
		ReceiverID string `json:"receiverId" binding:"required"`
		CafeID     string `json:"cafeId" binding:"required"`
		Message    string `json:"message"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, errors.NewAppError(http.StatusBadRequest, "Missing receiver or cafe", err))
		return
	}
	m, err := s.social.SendMeetup(c.Request.Context(), userID(c), req.ReceiverID, req.CafeID, req.Message)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, m)
}

func (s *Server) handleRespondMeetup(c *gin.Context) {
	var req struct {
		Accept *bool `json:"accept" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, errors.NewAppError(http.StatusBadRequest, "Missing accept flag", err))
		return
	}
	m, err := s.social.RespondMeetup(userID(c), c.Param("id"), *req.Accept)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (s *Server) handleFavorites(c *gin.Context) {
	cafes, err := s.social.Favorites(c.Request.Context(), userID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cafes": cafes})
}

func (s *Server) handleAddFavorite(c *gin.Context) {
	if err := s.social.AddFavorite(c.Request.Context(), userID(c), c.Param("cafeId")); err != nil {
		handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleRemoveFavorite(c *gin.Context) {
	if err := s.social.RemoveFavorite(userID(c), c.Param("cafeId")); err != nil {
		handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleSignUp(c *gin.Context) {
	var req supabase.SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, errors.NewAppError(http.StatusBadRequest, "Invalid request body", err))
		return
	}
	session, err := s.auth.SignUp(c.Request.Context(), req)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, session)
}

func (s *Server) handleLogin(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, errors.NewAppError(http.StatusBadRequest, "Invalid request body", err))
		return
	}
	session, err := s.auth.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

func (s *Server) handleRefresh(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, errors.NewAppError(http.StatusBadRequest, "Invalid request body", err))
		return
	}
	session, err := s.auth.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

func (s *Server) handleResetPassword(c *gin.Context) {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, errors.NewAppError(http.StatusBadRequest, "Invalid request body", err))
		return
	}
	if err := s.auth.ResetPassword(c.Request.Context(), req.Email); err != nil {
		handleError(c, err)
		return
	}
	c.Status(http.StatusAccepted)
}

func (s *Server) handleOAuth(c *gin.Context) {
	u, err := s.auth.OAuthURL(c.Param("provider"))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": u})
}

func (s *Server) handleLogout(c *gin.Context) {
	if err := s.auth.SignOut(c.Request.Context(), c.GetString(tokenKey)); err != nil {
		handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleUpdatePassword(c *gin.Context) {
	var req struct {
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, errors.NewAppError(http.StatusBadRequest, "Invalid request body", err))
		return
	}
	user, err := s.auth.UpdatePassword(c.Request.Context(), c.GetString(tokenKey), req.Password)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
