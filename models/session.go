package models

import (
	"time"

	"github.com/google/uuid"

	"ncsresearch/domain/analysis"
	"ncsresearch/domain/demographic"
	"ncsresearch/domain/model"
	"ncsresearch/domain/variable"
	"ncsresearch/domain/wizard"
)

// AnalysisSession is one run of the data-analysis wizard for a user: the
// current step, the working variable set, the demographic catalog state, the
// research model, the selected analyses, and the accumulated results.
type AnalysisSession struct {
	ID               uuid.UUID         `json:"id" db:"id"`
	UserID           uuid.UUID         `json:"user_id" db:"user_id"`
	Step             wizard.Step       `json:"step" db:"step"`
	Filename         string            `json:"filename,omitempty" db:"filename"`
	HealthCheck      HealthCheckColumn `json:"health_check" db:"health_check"`
	Variables        VariableList      `json:"variables" db:"variables"`
	Demographics     MappingList       `json:"demographics" db:"demographics"`
	Relationships    RelationshipList  `json:"relationships" db:"relationships"`
	SelectedAnalyses KindList          `json:"selected_analyses" db:"selected_analyses"`
	Metadata         JSONBMap          `json:"metadata" db:"metadata"`
	CreatedAt        time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at" db:"updated_at"`

	// Results are kept in their own append-only table and populated on load
	Results []analysis.Result `json:"results" db:"-"`
}

// NewAnalysisSession creates a session at the upload step
func NewAnalysisSession(id, userID uuid.UUID) *AnalysisSession {
	now := time.Now()
	return &AnalysisSession{
		ID:           id,
		UserID:       userID,
		Step:         wizard.StepUpload,
		Variables:    VariableList{},
		Demographics: MappingList(demographic.NewCatalog().Mappings()),
		Metadata:     make(JSONBMap),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// VariableSet materializes the working set for domain operations. Mutations
// must be written back with SetVariables.
func (s *AnalysisSession) VariableSet() *variable.Set {
	return variable.NewSet(s.Variables)
}

// SetVariables writes a mutated working set back onto the session
func (s *AnalysisSession) SetVariables(set *variable.Set) {
	s.Variables = VariableList(set.Variables())
	s.UpdatedAt = time.Now()
}

// Catalog materializes the demographic catalog. Mutations must be written
// back with SetCatalog.
func (s *AnalysisSession) Catalog() *demographic.Catalog {
	return demographic.Restore(s.Demographics)
}

// SetCatalog writes the demographic catalog state back onto the session
func (s *AnalysisSession) SetCatalog(c *demographic.Catalog) {
	s.Demographics = MappingList(c.Mappings())
	s.UpdatedAt = time.Now()
}

// Model materializes the research model over the current working set
func (s *AnalysisSession) Model() model.ResearchModel {
	return model.ResearchModel{
		Variables:     []variable.Variable(s.Variables),
		Relationships: []model.Relationship(s.Relationships),
	}
}

// SetModel writes the research model's relationships back onto the session
func (s *AnalysisSession) SetModel(m model.ResearchModel) {
	s.Relationships = RelationshipList(m.Relationships)
	s.UpdatedAt = time.Now()
}

// Progress snapshots the gate inputs for the wizard state machine
func (s *AnalysisSession) Progress() wizard.Progress {
	set := s.VariableSet()
	m := s.Model()
	return wizard.Progress{
		HasHealthCheck:   s.HealthCheck.Report != nil,
		VariableCount:    set.Len(),
		VariableIssues:   len(set.Validate()),
		ModelProblems:    len(m.Validate()),
		SelectedAnalyses: len(s.SelectedAnalyses),
		ResultCount:      len(s.Results),
	}
}

// SeedUpload replaces the upload-derived state wholesale: health report and
// variable list. Called on every (re-)upload.
func (s *AnalysisSession) SeedUpload(filename string, report *analysis.HealthCheck, variables []variable.Variable) {
	s.Filename = filename
	s.HealthCheck = HealthCheckColumn{Report: report}
	s.Variables = VariableList(variables)
	s.UpdatedAt = time.Now()
}

// ClearResults drops accumulated results; taken on the cyclic restart
// transition back to the upload step.
func (s *AnalysisSession) ClearResults() {
	s.Results = nil
	s.SelectedAnalyses = nil
	s.UpdatedAt = time.Now()
}
