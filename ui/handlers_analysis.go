package ui

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"ncsresearch/domain/analysis"
	"ncsresearch/domain/model"
	"ncsresearch/internal/errors"
)

func (s *Server) handleAnalysisCatalog(c *gin.Context) {
	respondOK(c, analysis.Catalog())
}

func (s *Server) handleAddRelationship(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	var rel model.Relationship
	if err := c.ShouldBindJSON(&rel); err != nil {
		respondErr(c, errors.InvalidInput(err.Error()))
		return
	}
	if !rel.Type.IsValid() {
		respondErr(c, errors.InvalidInput("relationship type must be direct, moderating, or mediating"))
		return
	}
	session, err := s.deps.Wizard.AddRelationship(c.Request.Context(), s.userID(c), id, rel)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondCreated(c, session)
}

func (s *Server) handleRemoveRelationship(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	idx, err := strconv.Atoi(c.Param("idx"))
	if err != nil {
		respondErr(c, errors.InvalidInput("invalid relationship index"))
		return
	}
	session, err := s.deps.Wizard.RemoveRelationship(c.Request.Context(), s.userID(c), id, idx)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, session)
}

func (s *Server) handleSelectAnalyses(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	var req struct {
		Analyses []analysis.Kind `json:"analyses"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, errors.InvalidInput(err.Error()))
		return
	}
	session, err := s.deps.Wizard.SelectAnalyses(c.Request.Context(), s.userID(c), id, req.Analyses)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, session)
}

func (s *Server) handleRunAnalysis(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	session, err := s.deps.Wizard.RunAnalysis(c.Request.Context(), s.userID(c), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, session)
}

// handleExport streams the session's results in the requested format
func (s *Server) handleExport(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	session, err := s.deps.Wizard.GetSession(c.Request.Context(), s.userID(c), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	if len(session.Results) == 0 {
		respondErr(c, errors.ValidationError("no results to export yet"))
		return
	}

	format := c.DefaultQuery("format", "json")
	switch format {
	case "json":
		blob, err := s.deps.Exporter.ExportJSON(session.Results)
		if err != nil {
			respondErr(c, err)
			return
		}
		serveDownload(c, "results.json", "application/json", blob)
	case "xlsx":
		blob, err := s.deps.Exporter.ExportWorkbookRemote(c.Request.Context(), session.Results)
		if err != nil {
			respondErr(c, err)
			return
		}
		serveDownload(c, "results.xlsx",
			"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", blob)
	case "html":
		blob, err := s.deps.Exporter.ExportHTML(session.Results)
		if err != nil {
			respondErr(c, err)
			return
		}
		serveDownload(c, "results.html", "text/html; charset=utf-8", blob)
	default:
		respondErr(c, errors.InvalidInput("format must be json, xlsx, or html"))
	}
}

// handleExportBackend streams the workbook blob, preferring the backend's
// renderer and falling back to local generation when it is unavailable
func (s *Server) handleExportBackend(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	session, err := s.deps.Wizard.GetSession(c.Request.Context(), s.userID(c), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	if len(session.Results) == 0 {
		respondErr(c, errors.ValidationError("no results to export yet"))
		return
	}
	blob, err := s.deps.Exporter.ExportWorkbookRemote(c.Request.Context(), session.Results)
	if err != nil {
		respondErr(c, err)
		return
	}
	serveDownload(c, "results.xlsx",
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", blob)
}

func serveDownload(c *gin.Context, filename, contentType string, blob []byte) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, blob)
}
