package ui

import (
	"github.com/gin-gonic/gin"

	"ncsresearch/domain/core"
	"ncsresearch/domain/demographic"
	"ncsresearch/domain/variable"
	"ncsresearch/internal/errors"
)

func variableID(c *gin.Context) (core.VariableID, bool) {
	id, err := core.ParseVariableID(c.Param("variableID"))
	if err != nil {
		respondErr(c, errors.InvalidInput("invalid variable id"))
		return "", false
	}
	return id, true
}

func (s *Server) handleAddVariable(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	var req struct {
		Name string        `json:"name" binding:"required"`
		Type variable.Type `json:"type"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, errors.InvalidInput(err.Error()))
		return
	}
	if req.Type == "" {
		req.Type = variable.TypeContinuous
	}
	session, err := s.deps.Wizard.AddVariable(c.Request.Context(), s.userID(c), id, req.Name, req.Type)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondCreated(c, session)
}

func (s *Server) handleUpdateVariable(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	varID, ok := variableID(c)
	if !ok {
		return
	}
	var update variable.Update
	if err := c.ShouldBindJSON(&update); err != nil {
		respondErr(c, errors.InvalidInput(err.Error()))
		return
	}
	session, err := s.deps.Wizard.UpdateVariable(c.Request.Context(), s.userID(c), id, varID, update)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, session)
}

func (s *Server) handleDeleteVariable(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	varID, ok := variableID(c)
	if !ok {
		return
	}
	session, err := s.deps.Wizard.DeleteVariable(c.Request.Context(), s.userID(c), id, varID)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, session)
}

func (s *Server) handleUnassignGroup(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	varID, ok := variableID(c)
	if !ok {
		return
	}
	session, err := s.deps.Wizard.UnassignGroup(c.Request.Context(), s.userID(c), id, varID)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, session)
}

func (s *Server) handleRenameGroup(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, errors.InvalidInput(err.Error()))
		return
	}
	session, err := s.deps.Wizard.RenameGroup(c.Request.Context(), s.userID(c), id, c.Param("name"), req.Name)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, session)
}

func (s *Server) handleDeleteGroup(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	session, err := s.deps.Wizard.DeleteGroup(c.Request.Context(), s.userID(c), id, c.Param("name"))
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, session)
}

func (s *Server) handleSetGroupDemographic(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	var req struct {
		IsDemographic bool `json:"is_demographic"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, errors.InvalidInput(err.Error()))
		return
	}
	session, err := s.deps.Wizard.SetGroupDemographic(c.Request.Context(), s.userID(c), id, c.Param("name"), req.IsDemographic)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, session)
}

func (s *Server) handleMapDemographic(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	var req struct {
		Column string `json:"column"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, errors.InvalidInput(err.Error()))
		return
	}
	key := demographic.Key(c.Param("key"))
	session, err := s.deps.Wizard.MapDemographic(c.Request.Context(), s.userID(c), id, key, req.Column)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, session)
}

func (s *Server) handleAddRank(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	var rank demographic.Rank
	if err := c.ShouldBindJSON(&rank); err != nil {
		respondErr(c, errors.InvalidInput(err.Error()))
		return
	}
	key := demographic.Key(c.Param("key"))
	session, err := s.deps.Wizard.AddDemographicRank(c.Request.Context(), s.userID(c), id, key, rank)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondCreated(c, session)
}
