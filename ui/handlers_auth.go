package ui

import (
	"github.com/gin-gonic/gin"

	"ncsresearch/internal/errors"
	"ncsresearch/internal/settings"
)

func (s *Server) handleLogin(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, errors.InvalidInput(err.Error()))
		return
	}
	user, err := s.deps.Identity.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, gin.H{"user": user, "token": s.deps.Settings.Token()})
}

func (s *Server) handleLogout(c *gin.Context) {
	if err := s.deps.Identity.Logout(c.Request.Context()); err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, gin.H{"logged_out": true})
}

func (s *Server) handleCurrentUser(c *gin.Context) {
	user, err := s.deps.Identity.CurrentUser(c.Request.Context())
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, user)
}

func (s *Server) handleGetSettings(c *gin.Context) {
	theme, _ := s.deps.Settings.Get(settings.KeyTheme)
	respondOK(c, gin.H{
		"site":     s.deps.Settings.Site(),
		"language": s.deps.Settings.Language(),
		"theme":    theme,
	})
}

func (s *Server) handlePutSettings(c *gin.Context) {
	var req struct {
		Site     *settings.SiteSettings `json:"site"`
		Language string                 `json:"language"`
		Theme    string                 `json:"theme"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, errors.InvalidInput(err.Error()))
		return
	}

	ctx := c.Request.Context()
	if req.Site != nil {
		if err := s.deps.Settings.SetSite(ctx, *req.Site); err != nil {
			respondErr(c, err)
			return
		}
	}
	if req.Language != "" {
		if req.Language != "en" && req.Language != "vi" {
			respondErr(c, errors.InvalidInput("language must be \"en\" or \"vi\""))
			return
		}
		if err := s.deps.Settings.Set(ctx, settings.KeyLanguage, req.Language); err != nil {
			respondErr(c, err)
			return
		}
	}
	if req.Theme != "" {
		if err := s.deps.Settings.Set(ctx, settings.KeyTheme, req.Theme); err != nil {
			respondErr(c, err)
			return
		}
	}
	s.handleGetSettings(c)
}
