package ui

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"ncsresearch/internal/errors"
	"ncsresearch/models"
)

const ctxUserID = "userID"

// withUser resolves the acting platform user and stores their ID on the
// request context. Single-account deployment: the default user is created on
// first touch.
func (s *Server) withUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := s.deps.UserRepo.GetOrCreateDefaultUser(c.Request.Context())
		if err != nil {
			respondErr(c, errors.Wrap(err, "failed to resolve user"))
			c.Abort()
			return
		}
		c.Set(ctxUserID, user.ID)
		c.Next()
	}
}

func (s *Server) userID(c *gin.Context) uuid.UUID {
	return c.MustGet(ctxUserID).(uuid.UUID)
}

// sessionID parses the :id route parameter
func sessionID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondErr(c, errors.InvalidInput("invalid session id"))
		return uuid.Nil, false
	}
	return id, true
}

func (s *Server) handleCreateSession(c *gin.Context) {
	session, err := s.deps.Wizard.CreateSession(c.Request.Context(), s.userID(c))
	if err != nil {
		respondErr(c, err)
		return
	}
	respondCreated(c, session)
}

func (s *Server) handleListSessions(c *gin.Context) {
	sessions, err := s.deps.Wizard.ListSessions(c.Request.Context(), s.userID(c), 50)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, sessions)
}

func (s *Server) handleGetSession(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	session, err := s.deps.Wizard.GetSession(c.Request.Context(), s.userID(c), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, session)
}

func (s *Server) handleDeleteSession(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	if err := s.deps.Wizard.DeleteSession(c.Request.Context(), s.userID(c), id); err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, gin.H{"deleted": id})
}

func (s *Server) handleUpload(c *gin.Context) {
	s.upload(c, false)
}

func (s *Server) handleUploadOffline(c *gin.Context) {
	s.upload(c, true)
}

func (s *Server) upload(c *gin.Context, offline bool) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respondErr(c, errors.InvalidInput("multipart field \"file\" is required"))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		respondErr(c, errors.Wrap(err, "failed to open uploaded file"))
		return
	}
	defer file.Close()

	ctx := c.Request.Context()
	user := s.userID(c)
	var session interface{}
	if offline {
		session, err = s.deps.Wizard.UploadOffline(ctx, user, id, fileHeader.Filename, file)
	} else {
		session, err = s.deps.Wizard.Upload(ctx, user, id, fileHeader.Filename, file)
	}
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, session)
}

func (s *Server) handleAdvance(c *gin.Context) {
	s.transition(c, s.deps.Wizard.Advance)
}

func (s *Server) handleBack(c *gin.Context) {
	s.transition(c, s.deps.Wizard.Back)
}

func (s *Server) handleRestart(c *gin.Context) {
	s.transition(c, s.deps.Wizard.Restart)
}

type transitionFn func(context.Context, uuid.UUID, uuid.UUID) (*models.AnalysisSession, error)

func (s *Server) transition(c *gin.Context, fn transitionFn) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	session, err := fn(c.Request.Context(), s.userID(c), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, session)
}
