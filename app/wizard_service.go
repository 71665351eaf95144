package app

import (
	"bytes"
	"context"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"ncsresearch/adapters/excel"
	"ncsresearch/domain/analysis"
	"ncsresearch/domain/core"
	"ncsresearch/domain/demographic"
	"ncsresearch/domain/model"
	"ncsresearch/domain/variable"
	"ncsresearch/domain/wizard"
	"ncsresearch/internal"
	"ncsresearch/internal/errors"
	"ncsresearch/internal/profiling"
	"ncsresearch/models"
	"ncsresearch/ports"
)

// WizardService orchestrates the analysis workflow: it owns the step
// transitions, delegates statistics to the backend port, and persists every
// state change through the session repository.
type WizardService struct {
	sessions ports.SessionRepository
	results  ports.ResultRepository
	backend  ports.StatsBackend
	profiler *profiling.Profiler
	log      *internal.Logger

	// locks serializes concurrent API calls against the same session; entries
	// are per session ID and live for the process lifetime.
	locks sync.Map
}

// NewWizardService creates the workflow orchestrator
func NewWizardService(sessions ports.SessionRepository, results ports.ResultRepository, backend ports.StatsBackend) *WizardService {
	return &WizardService{
		sessions: sessions,
		results:  results,
		backend:  backend,
		profiler: profiling.NewProfiler(),
		log:      internal.DefaultLogger.Named("wizard"),
	}
}

// CreateSession starts a new wizard session at the upload step
func (s *WizardService) CreateSession(ctx context.Context, userID uuid.UUID) (*models.AnalysisSession, error) {
	session := models.NewAnalysisSession(uuid.New(), userID)
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, errors.Wrap(err, "failed to create session")
	}
	s.log.Info("session %s created for user %s", session.ID, userID)
	return session, nil
}

// GetSession loads a session with its accumulated results
func (s *WizardService) GetSession(ctx context.Context, userID, sessionID uuid.UUID) (*models.AnalysisSession, error) {
	session, err := s.sessions.Get(ctx, userID, sessionID)
	if err != nil {
		return nil, errors.WithCode(errors.CodeNotFound, errors.Wrap(err, "session not found"))
	}
	results, err := s.results.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load results")
	}
	session.Results = results
	return session, nil
}

// ListSessions returns the user's sessions, newest first
func (s *WizardService) ListSessions(ctx context.Context, userID uuid.UUID, limit int) ([]*models.AnalysisSession, error) {
	return s.sessions.ListByUser(ctx, userID, limit)
}

// DeleteSession removes a session and its result log
func (s *WizardService) DeleteSession(ctx context.Context, userID, sessionID uuid.UUID) error {
	if err := s.results.DeleteBySession(ctx, sessionID); err != nil {
		return errors.Wrap(err, "failed to delete results")
	}
	return s.sessions.Delete(ctx, userID, sessionID)
}

func (s *WizardService) sessionLock(sessionID uuid.UUID) *sync.Mutex {
	mu, _ := s.locks.LoadOrStore(sessionID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// mutate loads a session, applies fn, and persists the outcome under the
// session's lock. Every state-changing operation funnels through here so
// persistence cannot be forgotten and concurrent calls against one session
// are serialized.
func (s *WizardService) mutate(ctx context.Context, userID, sessionID uuid.UUID, fn func(*models.AnalysisSession) error) (*models.AnalysisSession, error) {
	mu := s.sessionLock(sessionID)
	mu.Lock()
	defer mu.Unlock()

	session, err := s.GetSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if err := fn(session); err != nil {
		return nil, err
	}
	if err := s.sessions.Update(ctx, session); err != nil {
		return nil, errors.Wrap(err, "failed to persist session")
	}
	return session, nil
}

// Upload submits the dataset to the statistics backend and seeds the session
// with the returned health report, variables, and grouping. The transport
// client runs its bounded preflight first; a failed envelope surfaces as an
// error carrying the localized message and no session state changes.
func (s *WizardService) Upload(ctx context.Context, userID, sessionID uuid.UUID, filename string, file io.Reader) (*models.AnalysisSession, error) {
	// Reject out-of-step uploads before spending a round trip on the backend.
	session, err := s.GetSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if err := requireStep(session, wizard.StepUpload); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read uploaded file")
	}
	table, err := excel.ReadTable(filename, bytes.NewReader(data))
	if err != nil {
		return nil, errors.InvalidInput(err.Error())
	}

	env := s.backend.UploadDataFile(ctx, filename, bytes.NewReader(data))
	if !env.Success {
		s.log.Warn("upload rejected for session %s: %s", sessionID, env.Error)
		return nil, errors.New(env.ErrorCode, env.Error)
	}

	return s.mutate(ctx, userID, sessionID, func(session *models.AnalysisSession) error {
		return s.seedUpload(ctx, session, filename, table, env.Data)
	})
}

// UploadOffline seeds the session from local profiling alone, without
// contacting the statistics backend. Used when the researcher wants to
// inspect data quality while the backend is down; analyses still require the
// backend later.
func (s *WizardService) UploadOffline(ctx context.Context, userID, sessionID uuid.UUID, filename string, file io.Reader) (*models.AnalysisSession, error) {
	table, err := excel.ReadTable(filename, file)
	if err != nil {
		return nil, errors.InvalidInput(err.Error())
	}
	return s.mutate(ctx, userID, sessionID, func(session *models.AnalysisSession) error {
		return s.seedUpload(ctx, session, filename, table, ports.UploadPayload{})
	})
}

// requireStep guards operations that are only legal at one wizard step.
func requireStep(session *models.AnalysisSession, step wizard.Step) error {
	if session.Step != step {
		return errors.InvalidTransition(string(session.Step), string(step))
	}
	return nil
}

func (s *WizardService) seedUpload(ctx context.Context, session *models.AnalysisSession, filename string, table *excel.Table, payload ports.UploadPayload) error {
	if err := requireStep(session, wizard.StepUpload); err != nil {
		return err
	}
	report := payload.HealthCheck
	if report == nil {
		// Backend gave no health summary; profile the table ourselves.
		local, err := s.profiler.Profile(ctx, table.Headers, table.Rows)
		if err != nil {
			return errors.Wrap(err, "failed to profile dataset")
		}
		report = local
	}

	vars := payload.Variables
	if len(vars) == 0 {
		vars = inferVariables(table)
	}

	session.SeedUpload(filename, report, vars)

	set := session.VariableSet()
	set.ApplyBackendGroups(payload.Groups)
	session.SetVariables(set)

	// New columns invalidate demographic mappings and relationships that
	// reference the old ones.
	names := make(map[string]bool, len(vars))
	for _, v := range set.Variables() {
		names[v.Name] = true
	}
	catalog := session.Catalog()
	for _, m := range catalog.Mappings() {
		if m.SelectedColumn != "" && !names[m.SelectedColumn] {
			catalog.DropColumn(m.SelectedColumn)
		}
	}
	session.SetCatalog(catalog)

	m := session.Model()
	if dropped := m.PruneDangling(); dropped > 0 {
		s.log.Debug("pruned %d dangling relationships after upload", dropped)
	}
	session.SetModel(m)

	s.log.Info("session %s seeded from %s: %d variables, quality %.1f",
		session.ID, filename, set.Len(), report.DataQualityScore)
	return nil
}

// Advance moves the session one step forward, enforcing the step's gate
func (s *WizardService) Advance(ctx context.Context, userID, sessionID uuid.UUID) (*models.AnalysisSession, error) {
	return s.mutate(ctx, userID, sessionID, func(session *models.AnalysisSession) error {
		next, err := wizard.Advance(session.Step, session.Progress())
		if err != nil {
			return err
		}
		session.Step = next
		return nil
	})
}

// Back moves the session one step back, preserving later-step state
func (s *WizardService) Back(ctx context.Context, userID, sessionID uuid.UUID) (*models.AnalysisSession, error) {
	return s.mutate(ctx, userID, sessionID, func(session *models.AnalysisSession) error {
		prev, err := wizard.Back(session.Step)
		if err != nil {
			return err
		}
		session.Step = prev
		return nil
	})
}

// Restart takes the cyclic transition from results back to upload, clearing
// the accumulated result log.
func (s *WizardService) Restart(ctx context.Context, userID, sessionID uuid.UUID) (*models.AnalysisSession, error) {
	return s.mutate(ctx, userID, sessionID, func(session *models.AnalysisSession) error {
		next, err := wizard.Restart(session.Step)
		if err != nil {
			return err
		}
		if err := s.results.DeleteBySession(ctx, session.ID); err != nil {
			return errors.Wrap(err, "failed to clear results")
		}
		session.ClearResults()
		session.Step = next
		return nil
	})
}

// AddVariable appends a manually created variable to the working set
func (s *WizardService) AddVariable(ctx context.Context, userID, sessionID uuid.UUID, name string, typ variable.Type) (*models.AnalysisSession, error) {
	if strings.TrimSpace(name) == "" {
		return nil, errors.InvalidInput("variable name cannot be empty")
	}
	return s.mutate(ctx, userID, sessionID, func(session *models.AnalysisSession) error {
		set := session.VariableSet()
		if _, exists := set.ByName(name); exists {
			return errors.ValidationError("variable " + name + " already exists")
		}
		set.Add(variable.New(name, typ))
		session.SetVariables(set)
		return nil
	})
}

// UpdateVariable applies a partial update to one variable
func (s *WizardService) UpdateVariable(ctx context.Context, userID, sessionID uuid.UUID, variableID core.VariableID, update variable.Update) (*models.AnalysisSession, error) {
	return s.mutate(ctx, userID, sessionID, func(session *models.AnalysisSession) error {
		set := session.VariableSet()
		old, ok := set.Get(variableID)
		if !ok {
			return errors.NotFound("variable " + variableID.String())
		}
		updated, err := set.Update(variableID, update)
		if err != nil {
			return err
		}
		session.SetVariables(set)

		// A rename retargets any demographic mapping pointing at the old name.
		if old.Name != updated.Name {
			catalog := session.Catalog()
			names := variableNames(set)
			for _, m := range catalog.Mappings() {
				if m.SelectedColumn == old.Name {
					if err := catalog.MapColumn(m.Key, updated.Name, names); err != nil {
						return err
					}
				}
			}
			session.SetCatalog(catalog)
		}
		return nil
	})
}

// DeleteVariable removes a variable, clears mappings that referenced it, and
// prunes relationships it participated in.
func (s *WizardService) DeleteVariable(ctx context.Context, userID, sessionID uuid.UUID, variableID core.VariableID) (*models.AnalysisSession, error) {
	return s.mutate(ctx, userID, sessionID, func(session *models.AnalysisSession) error {
		set := session.VariableSet()
		v, ok := set.Get(variableID)
		if !ok {
			return errors.NotFound("variable " + variableID.String())
		}
		if err := set.Delete(variableID); err != nil {
			return err
		}
		session.SetVariables(set)

		catalog := session.Catalog()
		catalog.DropColumn(v.Name)
		session.SetCatalog(catalog)

		m := session.Model()
		m.PruneDangling()
		session.SetModel(m)
		return nil
	})
}

// DeleteGroup removes every member variable of a group
func (s *WizardService) DeleteGroup(ctx context.Context, userID, sessionID uuid.UUID, groupName string) (*models.AnalysisSession, error) {
	return s.mutate(ctx, userID, sessionID, func(session *models.AnalysisSession) error {
		set := session.VariableSet()

		var memberNames []string
		for _, v := range set.Variables() {
			if variable.GroupKeyFor(v) == groupName {
				memberNames = append(memberNames, v.Name)
			}
		}

		removed, err := set.DeleteGroup(groupName)
		if err != nil {
			return err
		}
		session.SetVariables(set)

		catalog := session.Catalog()
		for _, name := range memberNames {
			catalog.DropColumn(name)
		}
		session.SetCatalog(catalog)

		m := session.Model()
		m.PruneDangling()
		session.SetModel(m)

		s.log.Info("deleted group %q (%d variables) from session %s", groupName, removed, session.ID)
		return nil
	})
}

// RenameGroup durably renames a group by writing the name onto its members
func (s *WizardService) RenameGroup(ctx context.Context, userID, sessionID uuid.UUID, oldName, newName string) (*models.AnalysisSession, error) {
	return s.mutate(ctx, userID, sessionID, func(session *models.AnalysisSession) error {
		set := session.VariableSet()
		if err := set.RenameGroup(oldName, newName); err != nil {
			return err
		}
		session.SetVariables(set)
		return nil
	})
}

// SetGroupDemographic cascades the demographic flag across a group
func (s *WizardService) SetGroupDemographic(ctx context.Context, userID, sessionID uuid.UUID, groupName string, demographicFlag bool) (*models.AnalysisSession, error) {
	return s.mutate(ctx, userID, sessionID, func(session *models.AnalysisSession) error {
		set := session.VariableSet()
		if err := set.SetGroupDemographic(groupName, demographicFlag); err != nil {
			return err
		}
		session.SetVariables(set)
		return nil
	})
}

// UnassignGroup clears a variable's durable group override
func (s *WizardService) UnassignGroup(ctx context.Context, userID, sessionID uuid.UUID, variableID core.VariableID) (*models.AnalysisSession, error) {
	return s.mutate(ctx, userID, sessionID, func(session *models.AnalysisSession) error {
		set := session.VariableSet()
		if err := set.UnassignGroup(variableID); err != nil {
			return err
		}
		session.SetVariables(set)
		return nil
	})
}

// MapDemographic binds a demographic concept to a dataset column; an empty
// column clears the binding.
func (s *WizardService) MapDemographic(ctx context.Context, userID, sessionID uuid.UUID, key demographic.Key, column string) (*models.AnalysisSession, error) {
	return s.mutate(ctx, userID, sessionID, func(session *models.AnalysisSession) error {
		catalog := session.Catalog()
		if err := catalog.MapColumn(key, column, variableNames(session.VariableSet())); err != nil {
			return err
		}
		session.SetCatalog(catalog)
		return nil
	})
}

// AddDemographicRank appends a rank entry to a demographic mapping
func (s *WizardService) AddDemographicRank(ctx context.Context, userID, sessionID uuid.UUID, key demographic.Key, rank demographic.Rank) (*models.AnalysisSession, error) {
	if strings.TrimSpace(rank.Name) == "" {
		return nil, errors.InvalidInput("rank name cannot be empty")
	}
	return s.mutate(ctx, userID, sessionID, func(session *models.AnalysisSession) error {
		catalog := session.Catalog()
		if err := catalog.AddRank(key, rank); err != nil {
			return err
		}
		session.SetCatalog(catalog)
		return nil
	})
}

// AddRelationship declares a relationship in the research model, seeding the
// hypothesis text when the caller left it empty.
func (s *WizardService) AddRelationship(ctx context.Context, userID, sessionID uuid.UUID, rel model.Relationship) (*models.AnalysisSession, error) {
	return s.mutate(ctx, userID, sessionID, func(session *models.AnalysisSession) error {
		m := session.Model()
		m.AddRelationship(rel)
		session.SetModel(m)
		return nil
	})
}

// RemoveRelationship deletes the relationship at the given index
func (s *WizardService) RemoveRelationship(ctx context.Context, userID, sessionID uuid.UUID, idx int) (*models.AnalysisSession, error) {
	return s.mutate(ctx, userID, sessionID, func(session *models.AnalysisSession) error {
		m := session.Model()
		if err := m.RemoveRelationship(idx); err != nil {
			return errors.InvalidInput(err.Error())
		}
		session.SetModel(m)
		return nil
	})
}

// SelectAnalyses records the analysis kinds to run as one batch
func (s *WizardService) SelectAnalyses(ctx context.Context, userID, sessionID uuid.UUID, kinds []analysis.Kind) (*models.AnalysisSession, error) {
	for _, k := range kinds {
		if !k.IsValid() {
			return nil, errors.InvalidInput("unknown analysis type " + string(k))
		}
	}
	return s.mutate(ctx, userID, sessionID, func(session *models.AnalysisSession) error {
		session.SelectedAnalyses = models.KindList(kinds)
		return nil
	})
}

// RunAnalysis submits the selected analyses as one atomic batch. On success
// the results are appended to the session's log and the wizard moves to the
// results step; a failed envelope leaves the session untouched.
func (s *WizardService) RunAnalysis(ctx context.Context, userID, sessionID uuid.UUID) (*models.AnalysisSession, error) {
	mu := s.sessionLock(sessionID)
	mu.Lock()
	defer mu.Unlock()

	session, err := s.GetSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if !wizard.CanRunAnalysis(session.Step, session.Progress()) {
		return nil, errors.ValidationError("select at least one analysis type on the analysis step first")
	}

	env := s.backend.RunAnalysis(ctx, ports.AnalysisRequest{
		Variables: session.VariableSet().Variables(),
		Model:     session.Model(),
		Analyses:  []analysis.Kind(session.SelectedAnalyses),
	})
	if !env.Success {
		s.log.Warn("analysis batch failed for session %s: %s", sessionID, env.Error)
		return nil, errors.New(env.ErrorCode, env.Error)
	}

	results := env.Data.Results
	now := time.Now()
	for i := range results {
		if results[i].ID.String() == "" {
			results[i].ID = core.NewResultID()
		}
		if results[i].CreatedAt.IsZero() {
			results[i].CreatedAt = now
		}
	}

	if err := s.results.Append(ctx, sessionID, results); err != nil {
		return nil, errors.Wrap(err, "failed to store results")
	}
	session.Results = append(session.Results, results...)
	session.Step = wizard.StepResults
	if err := s.sessions.Update(ctx, session); err != nil {
		return nil, errors.Wrap(err, "failed to persist session")
	}

	s.log.Info("session %s: %d analyses completed", sessionID, len(results))
	return session, nil
}

func variableNames(set *variable.Set) []string {
	vars := set.Variables()
	names := make([]string, len(vars))
	for i, v := range vars {
		names[i] = v.Name
	}
	return names
}

// demographicHints are column-name fragments that mark a column demographic
// when the backend returned no variable typing of its own.
var demographicHints = []string{"gender", "sex", "age", "income", "education", "occupation", "marital"}

// inferVariables derives a variable list from the parsed table: numeric
// columns become continuous, text columns categorical, and recognizably
// demographic column names are typed demographic.
func inferVariables(table *excel.Table) []variable.Variable {
	vars := make([]variable.Variable, 0, len(table.Headers))
	for _, h := range table.Headers {
		if h == "" {
			continue
		}
		typ := variable.TypeCategorical
		if columnNumeric(table.Column(h)) {
			typ = variable.TypeContinuous
		}
		lower := strings.ToLower(h)
		for _, hint := range demographicHints {
			if strings.Contains(lower, hint) {
				typ = variable.TypeDemographic
				break
			}
		}
		vars = append(vars, variable.New(h, typ))
	}
	return vars
}

func columnNumeric(values []string) bool {
	seen := false
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			continue
		}
		if _, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err != nil {
			return false
		}
		seen = true
	}
	return seen
}
