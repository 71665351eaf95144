package app

import (
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ncsresearch/domain/analysis"
	"ncsresearch/domain/demographic"
	"ncsresearch/domain/model"
	"ncsresearch/domain/variable"
	"ncsresearch/domain/wizard"
	"ncsresearch/internal/errors"
	"ncsresearch/models"
	"ncsresearch/ports"
)

// in-memory fakes

type memSessions struct {
	store map[uuid.UUID]*models.AnalysisSession
}

func newMemSessions() *memSessions {
	return &memSessions{store: make(map[uuid.UUID]*models.AnalysisSession)}
}

func (r *memSessions) Create(_ context.Context, s *models.AnalysisSession) error {
	r.store[s.ID] = s
	return nil
}

func (r *memSessions) Get(_ context.Context, userID, sessionID uuid.UUID) (*models.AnalysisSession, error) {
	s, ok := r.store[sessionID]
	if !ok || s.UserID != userID {
		return nil, errors.NotFound("session")
	}
	return s, nil
}

func (r *memSessions) Update(_ context.Context, s *models.AnalysisSession) error {
	r.store[s.ID] = s
	return nil
}

func (r *memSessions) ListByUser(_ context.Context, userID uuid.UUID, _ int) ([]*models.AnalysisSession, error) {
	var out []*models.AnalysisSession
	for _, s := range r.store {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *memSessions) Delete(_ context.Context, _, sessionID uuid.UUID) error {
	delete(r.store, sessionID)
	return nil
}

type memResults struct {
	store map[uuid.UUID][]analysis.Result
}

func newMemResults() *memResults {
	return &memResults{store: make(map[uuid.UUID][]analysis.Result)}
}

func (r *memResults) Append(_ context.Context, sessionID uuid.UUID, results []analysis.Result) error {
	r.store[sessionID] = append(r.store[sessionID], results...)
	return nil
}

func (r *memResults) ListBySession(_ context.Context, sessionID uuid.UUID) ([]analysis.Result, error) {
	return r.store[sessionID], nil
}

func (r *memResults) DeleteBySession(_ context.Context, sessionID uuid.UUID) error {
	delete(r.store, sessionID)
	return nil
}

type stubBackend struct {
	uploadResp   ports.Response[ports.UploadPayload]
	analysisResp ports.Response[ports.AnalysisPayload]
	uploads      int
}

func (b *stubBackend) Health(context.Context) ports.Response[json.RawMessage] {
	return ports.Response[json.RawMessage]{Success: true}
}

func (b *stubBackend) UploadDataFile(context.Context, string, io.Reader) ports.Response[ports.UploadPayload] {
	b.uploads++
	return b.uploadResp
}

func (b *stubBackend) RunAnalysis(context.Context, ports.AnalysisRequest) ports.Response[ports.AnalysisPayload] {
	return b.analysisResp
}

func (b *stubBackend) ExportResults(context.Context, []analysis.Result) ports.Response[[]byte] {
	return ports.Fail[[]byte](errors.CodeBackendUnreachable, "offline")
}

// test harness

type fixture struct {
	svc      *WizardService
	sessions *memSessions
	results  *memResults
	backend  *stubBackend
	userID   uuid.UUID
	session  *models.AnalysisSession
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		sessions: newMemSessions(),
		results:  newMemResults(),
		backend:  &stubBackend{},
		userID:   uuid.New(),
	}
	f.svc = NewWizardService(f.sessions, f.results, f.backend)
	session, err := f.svc.CreateSession(context.Background(), f.userID)
	require.NoError(t, err)
	f.session = session
	return f
}

const sampleCSV = "CX1,CX2,HL1,Gender\n4,5,3,male\n3,4,5,female\n2,3,4,male\n"

func (f *fixture) upload(t *testing.T) *models.AnalysisSession {
	t.Helper()
	f.backend.uploadResp = ports.Response[ports.UploadPayload]{Success: true}
	session, err := f.svc.Upload(context.Background(), f.userID, f.session.ID,
		"survey.csv", strings.NewReader(sampleCSV))
	require.NoError(t, err)
	return session
}

func TestUploadSeedsSessionFromInference(t *testing.T) {
	f := newFixture(t)
	session := f.upload(t)

	require.NotNil(t, session.HealthCheck.Report)
	assert.Equal(t, 3, session.HealthCheck.Report.TotalRows)
	assert.Equal(t, "survey.csv", session.Filename)

	set := session.VariableSet()
	assert.Equal(t, 4, set.Len())

	gender, ok := set.ByName("Gender")
	require.True(t, ok)
	assert.Equal(t, variable.TypeDemographic, gender.Type)
	assert.True(t, gender.IsDemographic)

	cx1, ok := set.ByName("CX1")
	require.True(t, ok)
	assert.Equal(t, variable.TypeContinuous, cx1.Type)

	groups := set.Groups()
	names := make([]string, len(groups))
	for i, g := range groups {
		names[i] = g.Name
	}
	assert.Equal(t, []string{"CX", "HL", "Gender"}, names)
}

func TestUploadFailedEnvelopeLeavesSessionUntouched(t *testing.T) {
	f := newFixture(t)
	f.backend.uploadResp = ports.Fail[ports.UploadPayload](
		errors.CodeBackendUnhealthy, "Cannot connect to the analysis server at http://localhost:8000")

	_, err := f.svc.Upload(context.Background(), f.userID, f.session.ID,
		"survey.csv", strings.NewReader(sampleCSV))
	require.Error(t, err)
	assert.Equal(t, errors.CodeBackendUnhealthy, errors.GetCode(err))
	assert.Contains(t, err.Error(), "http://localhost:8000")

	session, err := f.svc.GetSession(context.Background(), f.userID, f.session.ID)
	require.NoError(t, err)
	assert.Nil(t, session.HealthCheck.Report)
	assert.Equal(t, wizard.StepUpload, session.Step)
}

func TestUploadMergesBackendGroups(t *testing.T) {
	f := newFixture(t)
	f.backend.uploadResp = ports.Response[ports.UploadPayload]{
		Success: true,
		Data: ports.UploadPayload{
			Groups: map[string][]string{"Satisfaction": {"CX1", "CX2"}},
		},
	}
	session, err := f.svc.Upload(context.Background(), f.userID, f.session.ID,
		"survey.csv", strings.NewReader(sampleCSV))
	require.NoError(t, err)

	set := session.VariableSet()
	cx1, _ := set.ByName("CX1")
	assert.Equal(t, "Satisfaction", cx1.GroupName)
	// HL1 was not covered by the backend grouping and keeps its prefix group.
	hl1, _ := set.ByName("HL1")
	assert.Empty(t, hl1.GroupName)
	assert.Equal(t, "HL", variable.GroupKeyFor(hl1))
}

func TestUploadRejectsUnparseableFile(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Upload(context.Background(), f.userID, f.session.ID,
		"notes.txt", strings.NewReader("not a table"))
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
}

func TestUploadOfflineProfilesLocally(t *testing.T) {
	f := newFixture(t)
	session, err := f.svc.UploadOffline(context.Background(), f.userID, f.session.ID,
		"survey.csv", strings.NewReader(sampleCSV))
	require.NoError(t, err)
	require.NotNil(t, session.HealthCheck.Report)
	assert.Equal(t, 4, session.HealthCheck.Report.TotalColumns)
}

func TestUploadAfterAdvanceIsRejectedBeforeBackendCall(t *testing.T) {
	f := newFixture(t)
	f.upload(t)
	_, err := f.svc.Advance(context.Background(), f.userID, f.session.ID)
	require.NoError(t, err)

	_, err = f.svc.Upload(context.Background(), f.userID, f.session.ID,
		"survey.csv", strings.NewReader(sampleCSV))
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidTransition, errors.GetCode(err))
	// Only the first upload reached the backend.
	assert.Equal(t, 1, f.backend.uploads)

	_, err = f.svc.UploadOffline(context.Background(), f.userID, f.session.ID,
		"survey.csv", strings.NewReader(sampleCSV))
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidTransition, errors.GetCode(err))

	session, err := f.svc.GetSession(context.Background(), f.userID, f.session.ID)
	require.NoError(t, err)
	assert.Equal(t, wizard.StepHealthCheck, session.Step)
}

func TestAdvanceGateRequiresUpload(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Advance(context.Background(), f.userID, f.session.ID)
	require.Error(t, err)
	assert.Equal(t, errors.CodeValidationError, errors.GetCode(err))

	f.upload(t)
	session, err := f.svc.Advance(context.Background(), f.userID, f.session.ID)
	require.NoError(t, err)
	assert.Equal(t, wizard.StepHealthCheck, session.Step)
}

func TestBackFromUploadRejected(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Back(context.Background(), f.userID, f.session.ID)
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidTransition, errors.GetCode(err))
}

func TestRunAnalysisAppendsResultsAndAdvances(t *testing.T) {
	f := newFixture(t)
	f.upload(t)

	ctx := context.Background()
	session := f.session
	// Walk to the analysis step.
	for _, want := range []wizard.Step{wizard.StepHealthCheck, wizard.StepVariables, wizard.StepModel, wizard.StepAnalysis} {
		var err error
		session, err = f.svc.Advance(ctx, f.userID, f.session.ID)
		require.NoError(t, err)
		require.Equal(t, want, session.Step)
	}

	_, err := f.svc.SelectAnalyses(ctx, f.userID, f.session.ID,
		[]analysis.Kind{analysis.KindDescriptive, analysis.KindReliability})
	require.NoError(t, err)

	f.backend.analysisResp = ports.Response[ports.AnalysisPayload]{
		Success: true,
		Data: ports.AnalysisPayload{Results: []analysis.Result{
			{Type: analysis.KindDescriptive, Name: "Descriptives", Data: json.RawMessage(`{"n":3}`)},
			{Type: analysis.KindReliability, Name: "Cronbach Alpha", Data: json.RawMessage(`{"alpha":0.81}`)},
		}},
	}

	session, err = f.svc.RunAnalysis(ctx, f.userID, f.session.ID)
	require.NoError(t, err)
	assert.Equal(t, wizard.StepResults, session.Step)
	require.Len(t, session.Results, 2)
	assert.False(t, session.Results[0].ID.String() == "")
	assert.False(t, session.Results[0].CreatedAt.IsZero())

	stored, err := f.results.ListBySession(ctx, f.session.ID)
	require.NoError(t, err)
	assert.Len(t, stored, 2)
}

func TestRunAnalysisFailedBatchLeavesLogUntouched(t *testing.T) {
	f := newFixture(t)
	f.upload(t)
	ctx := context.Background()
	for i := 0; i < 4; i++ {
		_, err := f.svc.Advance(ctx, f.userID, f.session.ID)
		require.NoError(t, err)
	}
	_, err := f.svc.SelectAnalyses(ctx, f.userID, f.session.ID, []analysis.Kind{analysis.KindSEM})
	require.NoError(t, err)

	f.backend.analysisResp = ports.Fail[ports.AnalysisPayload](errors.CodeHTTPStatus, "HTTP 500: lavaan error")
	_, err = f.svc.RunAnalysis(ctx, f.userID, f.session.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 500")

	stored, _ := f.results.ListBySession(ctx, f.session.ID)
	assert.Empty(t, stored)
}

func TestRunAnalysisRequiresSelection(t *testing.T) {
	f := newFixture(t)
	f.upload(t)
	_, err := f.svc.RunAnalysis(context.Background(), f.userID, f.session.ID)
	require.Error(t, err)
	assert.Equal(t, errors.CodeValidationError, errors.GetCode(err))
}

func TestRestartClearsResultsAndReturnsToUpload(t *testing.T) {
	f := newFixture(t)
	f.upload(t)
	ctx := context.Background()
	for i := 0; i < 4; i++ {
		_, err := f.svc.Advance(ctx, f.userID, f.session.ID)
		require.NoError(t, err)
	}
	_, err := f.svc.SelectAnalyses(ctx, f.userID, f.session.ID, []analysis.Kind{analysis.KindDescriptive})
	require.NoError(t, err)
	f.backend.analysisResp = ports.Response[ports.AnalysisPayload]{
		Success: true,
		Data:    ports.AnalysisPayload{Results: []analysis.Result{{Type: analysis.KindDescriptive, Name: "D"}}},
	}
	_, err = f.svc.RunAnalysis(ctx, f.userID, f.session.ID)
	require.NoError(t, err)

	session, err := f.svc.Restart(ctx, f.userID, f.session.ID)
	require.NoError(t, err)
	assert.Equal(t, wizard.StepUpload, session.Step)
	assert.Empty(t, session.Results)
	assert.Empty(t, session.SelectedAnalyses)

	stored, _ := f.results.ListBySession(ctx, f.session.ID)
	assert.Empty(t, stored)
}

func TestRestartOnlyFromResults(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Restart(context.Background(), f.userID, f.session.ID)
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidTransition, errors.GetCode(err))
}

func TestDeleteVariableCascades(t *testing.T) {
	f := newFixture(t)
	f.upload(t)
	ctx := context.Background()

	session, err := f.svc.MapDemographic(ctx, f.userID, f.session.ID, demographic.KeyGender, "Gender")
	require.NoError(t, err)

	set := session.VariableSet()
	gender, _ := set.ByName("Gender")
	cx1, _ := set.ByName("CX1")
	session, err = f.svc.AddRelationship(ctx, f.userID, f.session.ID, model.Relationship{
		From: cx1.ID, To: gender.ID, Type: model.RelationDirect,
	})
	require.NoError(t, err)
	require.Len(t, session.Relationships, 1)

	session, err = f.svc.DeleteVariable(ctx, f.userID, f.session.ID, gender.ID)
	require.NoError(t, err)

	_, exists := session.VariableSet().ByName("Gender")
	assert.False(t, exists)
	mapping, _ := session.Catalog().Get(demographic.KeyGender)
	assert.Empty(t, mapping.SelectedColumn)
	assert.Empty(t, session.Relationships)
}

func TestRenameVariableRetargetsDemographicMapping(t *testing.T) {
	f := newFixture(t)
	f.upload(t)
	ctx := context.Background()

	session, err := f.svc.MapDemographic(ctx, f.userID, f.session.ID, demographic.KeyGender, "Gender")
	require.NoError(t, err)
	gender, _ := session.VariableSet().ByName("Gender")

	newName := "GioiTinh"
	session, err = f.svc.UpdateVariable(ctx, f.userID, f.session.ID, gender.ID, variable.Update{Name: &newName})
	require.NoError(t, err)

	mapping, _ := session.Catalog().Get(demographic.KeyGender)
	assert.Equal(t, "GioiTinh", mapping.SelectedColumn)
}

func TestRenameGroupSurvivesReload(t *testing.T) {
	f := newFixture(t)
	f.upload(t)
	ctx := context.Background()

	_, err := f.svc.RenameGroup(ctx, f.userID, f.session.ID, "CX", "Trải nghiệm khách hàng")
	require.NoError(t, err)

	session, err := f.svc.GetSession(ctx, f.userID, f.session.ID)
	require.NoError(t, err)
	groups := session.VariableSet().Groups()
	found := false
	for _, g := range groups {
		if g.Name == "Trải nghiệm khách hàng" {
			found = true
			assert.Len(t, g.Variables, 2)
		}
	}
	assert.True(t, found)
}

func TestMapDemographicRejectsUnknownColumn(t *testing.T) {
	f := newFixture(t)
	f.upload(t)
	_, err := f.svc.MapDemographic(context.Background(), f.userID, f.session.ID, demographic.KeyAge, "NoSuchColumn")
	require.Error(t, err)
	assert.Equal(t, errors.CodeValidationError, errors.GetCode(err))
}

func TestSelectAnalysesRejectsUnknownKind(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.SelectAnalyses(context.Background(), f.userID, f.session.ID, []analysis.Kind{"bayesian"})
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
}
