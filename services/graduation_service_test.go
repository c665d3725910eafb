package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"mygym-server/model"
	"mygym-server/repository"
)

// fakeRepo is an in-memory GraduationRepository with per-query error injection
type fakeRepo struct {
	alerts     map[string]model.GraduationAlert
	rules      []model.GraduationRule
	exams      map[string]model.GraduationExam
	students   []model.Student
	recipients []model.NotificationRecipient

	failExams    bool
	failUpcoming bool
}

var _ repository.GraduationRepository = (*fakeRepo)(nil)

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		alerts: make(map[string]model.GraduationAlert),
		exams:  make(map[string]model.GraduationExam),
	}
}

func (f *fakeRepo) GetAlerts(context.Context) ([]model.GraduationAlert, error) {
	out := make([]model.GraduationAlert, 0, len(f.alerts))
	for _, a := range f.alerts {
		out = append(out, a)
	}
	return out, nil
}

func (f *fakeRepo) GetAlertsByStudent(_ context.Context, studentID string) ([]model.GraduationAlert, error) {
	var out []model.GraduationAlert
	for _, a := range f.alerts {
		if a.StudentID == studentID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeRepo) GetAlertsByModality(_ context.Context, modality string) ([]model.GraduationAlert, error) {
	var out []model.GraduationAlert
	for _, a := range f.alerts {
		if a.Modality == modality {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeRepo) GetEligibleAlerts(_ context.Context, modality string) ([]model.GraduationAlert, error) {
	var out []model.GraduationAlert
	for _, a := range f.alerts {
		if a.IsEligible && (modality == "" || a.Modality == modality) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeRepo) GetUnnotifiedAlerts(context.Context) ([]model.GraduationAlert, error) {
	var out []model.GraduationAlert
	for _, a := range f.alerts {
		if a.IsEligible && !a.Notified {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeRepo) CreateAlert(_ context.Context, alert *model.GraduationAlert) error {
	if alert.CreatedAt.IsZero() {
		alert.CreatedAt = time.Now()
	}
	f.alerts[alert.ID] = *alert
	return nil
}

func (f *fakeRepo) UpdateAlert(_ context.Context, id string, alert *model.GraduationAlert) error {
	prev, ok := f.alerts[id]
	if !ok {
		return repository.ErrNotFound
	}
	next := *alert
	next.ID = prev.ID
	next.CreatedAt = prev.CreatedAt
	next.Notified = prev.Notified
	next.NotifiedAt = prev.NotifiedAt
	f.alerts[id] = next
	return nil
}

func (f *fakeRepo) DeleteAlert(_ context.Context, id string) error {
	if _, ok := f.alerts[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.alerts, id)
	return nil
}

func (f *fakeRepo) MarkAlertNotified(_ context.Context, id string, at time.Time) error {
	a, ok := f.alerts[id]
	if !ok {
		return repository.ErrNotFound
	}
	a.Notified = true
	a.NotifiedAt = &at
	f.alerts[id] = a
	return nil
}

func (f *fakeRepo) GetRules(context.Context) ([]model.GraduationRule, error) {
	return f.rules, nil
}

func (f *fakeRepo) GetRulesByModality(_ context.Context, modality string) ([]model.GraduationRule, error) {
	var out []model.GraduationRule
	for _, r := range f.rules {
		if r.Modality == modality {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRepo) CreateRule(_ context.Context, rule *model.GraduationRule) error {
	f.rules = append(f.rules, *rule)
	return nil
}

func (f *fakeRepo) UpdateRule(_ context.Context, modality, fromBelt, toBelt string, rule *model.GraduationRule) error {
	for i := range f.rules {
		if f.rules[i].Matches(modality, fromBelt) && f.rules[i].ToBelt == toBelt {
			f.rules[i].MinimumDays = rule.MinimumDays
			f.rules[i].MinimumClasses = rule.MinimumClasses
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeRepo) DeleteRule(_ context.Context, modality, fromBelt, toBelt string) error {
	for i := range f.rules {
		if f.rules[i].Matches(modality, fromBelt) && f.rules[i].ToBelt == toBelt {
			f.rules = append(f.rules[:i], f.rules[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeRepo) GetExams(context.Context) ([]model.GraduationExam, error) {
	if f.failExams {
		return nil, errors.New("exam history unavailable")
	}
	out := make([]model.GraduationExam, 0, len(f.exams))
	for _, e := range f.exams {
		out = append(out, e)
	}
	return out, nil
}

func (f *fakeRepo) GetExamsByModality(_ context.Context, modality string) ([]model.GraduationExam, error) {
	var out []model.GraduationExam
	for _, e := range f.exams {
		if e.Modality == modality {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeRepo) GetUpcomingExams(context.Context) ([]model.GraduationExam, error) {
	if f.failUpcoming {
		return nil, errors.New("exams unavailable")
	}
	var out []model.GraduationExam
	for _, e := range f.exams {
		if e.Status == model.ExamStatusScheduled && !e.Date.Before(time.Now()) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeRepo) GetExamByID(_ context.Context, id string) (*model.GraduationExam, error) {
	e, ok := f.exams[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &e, nil
}

func (f *fakeRepo) CreateExam(_ context.Context, exam *model.GraduationExam) error {
	if exam.ID == "" {
		exam.ID = "exam-" + time.Now().Format("150405.000000000")
	}
	f.exams[exam.ID] = *exam
	return nil
}

func (f *fakeRepo) UpdateExam(_ context.Context, id string, updates map[string]interface{}) error {
	e, ok := f.exams[id]
	if !ok {
		return repository.ErrNotFound
	}
	if status, ok := updates["status"].(model.ExamStatus); ok {
		e.Status = status
	}
	if results, ok := updates["results"].(datatypes.JSONSlice[model.ExamResult]); ok {
		e.Results = results
	}
	e.UpdatedAt = time.Now()
	f.exams[id] = e
	return nil
}

func (f *fakeRepo) DeleteExam(_ context.Context, id string) error {
	if _, ok := f.exams[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.exams, id)
	return nil
}

func (f *fakeRepo) ListActiveStudents(context.Context) ([]model.Student, error) {
	return f.students, nil
}

func (f *fakeRepo) ListRecipients(context.Context) ([]model.NotificationRecipient, error) {
	return f.recipients, nil
}

func newTestGraduationService(repo *fakeRepo) *GraduationService {
	calc := NewGraduationCalculationService(testRules())
	notifications := NewGraduationNotificationService(nil)
	return NewGraduationService(repo, calc, notifications)
}

func TestUpdateAlertsPreservesIdentity(t *testing.T) {
	repo := newFakeRepo()
	repo.students = []model.Student{
		{ID: "s1", Name: "Ana", CurrentBelt: "White", Modality: "Karate", TrainingStartDate: daysAgo(200), Active: true},
	}
	svc := newTestGraduationService(repo)
	ctx := context.Background()

	first, err := svc.UpdateAlerts(ctx)
	require.NoError(t, err)
	require.Len(t, first, 1)
	firstID := first[0].ID
	firstCreated := first[0].CreatedAt

	time.Sleep(2 * time.Millisecond)

	second, err := svc.UpdateAlerts(ctx)
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, firstID, second[0].ID)
	assert.Equal(t, firstCreated, second[0].CreatedAt)
	assert.Len(t, repo.alerts, 1)
}

func TestUpdateAlertsKeepsUnmatchedAlerts(t *testing.T) {
	repo := newFakeRepo()
	repo.alerts["left"] = model.GraduationAlert{
		ID: "left", StudentID: "gone", Modality: "Karate", IsEligible: true,
	}
	svc := newTestGraduationService(repo)

	// The student behind the stored alert is no longer active; the refresh
	// must not remove the alert on their behalf.
	alerts, err := svc.UpdateAlerts(context.Background())
	require.NoError(t, err)
	assert.Empty(t, alerts)
	require.Contains(t, repo.alerts, "left")
	assert.Equal(t, "gone", repo.alerts["left"].StudentID)
}

func TestUpdateAlertsForCallerBatch(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestGraduationService(repo)

	// The batch comes from the caller, not from the active-student listing
	alerts, err := svc.UpdateAlertsFor(context.Background(), []model.Student{
		{ID: "s1", Name: "Ana", CurrentBelt: "White", Modality: "Karate", TrainingStartDate: daysAgo(200)},
		{ID: "s2", Name: "Bruno", CurrentBelt: "White", Modality: "Judo", TrainingStartDate: daysAgo(30)},
	})
	require.NoError(t, err)
	require.Len(t, alerts, 2)
	assert.Len(t, repo.alerts, 2)
}

func TestGetGraduationBoardDegradesRecentGraduations(t *testing.T) {
	repo := newFakeRepo()
	repo.failExams = true
	repo.exams["e1"] = model.GraduationExam{
		ID: "e1", Modality: "Karate", Status: model.ExamStatusScheduled, Date: time.Now().AddDate(0, 0, 3),
	}
	repo.alerts["a1"] = model.GraduationAlert{
		ID: "a1", StudentID: "s1", Modality: "Karate", IsEligible: true, TrainingStartDate: daysAgo(200),
	}
	svc := newTestGraduationService(repo)

	board, err := svc.GetGraduationBoard(context.Background())
	require.NoError(t, err)
	assert.Empty(t, board.RecentGraduations)
	assert.Len(t, board.UpcomingExams, 1)
	assert.Len(t, board.EligibleStudents, 1)
	require.Len(t, board.ModalityStats, 1)
	assert.Equal(t, "Karate", board.ModalityStats[0].Modality)
}

func TestGetGraduationBoardPropagatesExamError(t *testing.T) {
	repo := newFakeRepo()
	repo.failUpcoming = true
	svc := newTestGraduationService(repo)

	_, err := svc.GetGraduationBoard(context.Background())
	require.Error(t, err)
	var domainErr *DomainError
	assert.True(t, errors.As(err, &domainErr))
}

func TestGetGraduationBoardRecentGraduations(t *testing.T) {
	repo := newFakeRepo()
	repo.exams["done"] = model.GraduationExam{
		ID:        "done",
		Modality:  "Judo",
		Status:    model.ExamStatusCompleted,
		Date:      time.Now().AddDate(0, 0, -5),
		UpdatedAt: time.Now().AddDate(0, 0, -5),
		Results: []model.ExamResult{
			{StudentID: "s1", Passed: true, NewBelt: "Yellow"},
			{StudentID: "s2", Passed: false},
		},
	}
	repo.exams["ancient"] = model.GraduationExam{
		ID:        "ancient",
		Modality:  "Judo",
		Status:    model.ExamStatusCompleted,
		Date:      time.Now().AddDate(0, 0, -90),
		UpdatedAt: time.Now().AddDate(0, 0, -90),
		Results:   []model.ExamResult{{StudentID: "s3", Passed: true}},
	}
	svc := newTestGraduationService(repo)

	board, err := svc.GetGraduationBoard(context.Background())
	require.NoError(t, err)
	require.Len(t, board.RecentGraduations, 2)
	for _, g := range board.RecentGraduations {
		assert.Equal(t, "Judo", g.Modality)
		assert.NotEqual(t, "s3", g.StudentID)
	}
}

func TestProcessNotificationsNoEligibleAlerts(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestGraduationService(repo)

	built, err := svc.ProcessNotifications(context.Background())
	require.NoError(t, err)
	assert.Empty(t, built)
}

func TestProcessNotificationsMarksAlerts(t *testing.T) {
	repo := newFakeRepo()
	repo.alerts["a1"] = model.GraduationAlert{
		ID: "a1", StudentID: "s1", StudentName: "Ana", CurrentBelt: "White",
		NextBelt: "Yellow", Modality: "Karate", IsEligible: true,
	}
	repo.recipients = []model.NotificationRecipient{
		{ID: "admin-1", Name: "Admin", Email: "admin@gym.test", Role: model.RecipientRoleAdmin},
	}
	svc := newTestGraduationService(repo)
	ctx := context.Background()

	built, err := svc.ProcessNotifications(ctx)
	require.NoError(t, err)
	require.Len(t, built, 1)
	assert.Equal(t, model.NotificationTypeStudentEligible, built[0].Type)

	updated := repo.alerts["a1"]
	assert.True(t, updated.Notified)
	require.NotNil(t, updated.NotifiedAt)

	// Second run finds nothing left to announce
	built, err = svc.ProcessNotifications(ctx)
	require.NoError(t, err)
	assert.Empty(t, built)
}

func TestProcessNotificationsMarksAlertsWithoutRecipients(t *testing.T) {
	repo := newFakeRepo()
	repo.alerts["a1"] = model.GraduationAlert{
		ID: "a1", StudentID: "s1", StudentName: "Ana", CurrentBelt: "White",
		NextBelt: "Yellow", Modality: "Muay Thai", IsEligible: true,
	}
	// Only a Karate instructor on staff, so nobody covers Muay Thai
	repo.recipients = []model.NotificationRecipient{
		{ID: "inst-ka", Name: "Karate Coach", Role: model.RecipientRoleInstructor, Modalities: []string{"Karate"}},
	}
	svc := newTestGraduationService(repo)
	ctx := context.Background()

	built, err := svc.ProcessNotifications(ctx)
	require.NoError(t, err)
	assert.Empty(t, built)

	// The alert still counts as processed so it is not picked up again
	updated := repo.alerts["a1"]
	assert.True(t, updated.Notified)
	require.NotNil(t, updated.NotifiedAt)

	built, err = svc.ProcessNotifications(ctx)
	require.NoError(t, err)
	assert.Empty(t, built)
}

func TestRuleMutationsKeyedByTargetBelt(t *testing.T) {
	repo := newFakeRepo()
	classes := 40
	repo.rules = []model.GraduationRule{
		{Modality: "Taekwondo", FromBelt: "Red", ToBelt: "Red-Black", MinimumDays: 180},
		{Modality: "Taekwondo", FromBelt: "Red", ToBelt: "Black", MinimumDays: 365, MinimumClasses: &classes},
	}
	ctx := context.Background()

	// Mismatched target belt does not touch anything
	err := repo.UpdateRule(ctx, "Taekwondo", "Red", "Blue", &model.GraduationRule{MinimumDays: 10})
	assert.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, repo.UpdateRule(ctx, "Taekwondo", "Red", "Black", &model.GraduationRule{MinimumDays: 400, MinimumClasses: &classes}))
	assert.Equal(t, 180, repo.rules[0].MinimumDays)
	assert.Equal(t, 400, repo.rules[1].MinimumDays)

	require.NoError(t, repo.DeleteRule(ctx, "Taekwondo", "Red", "Red-Black"))
	require.Len(t, repo.rules, 1)
	assert.Equal(t, "Black", repo.rules[0].ToBelt)
}

func TestScheduleExam(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestGraduationService(repo)

	exam := &model.GraduationExam{
		Date:              time.Now().AddDate(0, 0, 10),
		Modality:          "Karate",
		Examiner:          "Sensei Tanaka",
		CandidateStudents: []string{"s1"},
		Status:            model.ExamStatusCompleted, // caller-provided status is ignored
		Results:           []model.ExamResult{{StudentID: "junk"}},
	}

	require.NoError(t, svc.ScheduleExam(context.Background(), exam))
	assert.Equal(t, model.ExamStatusScheduled, exam.Status)
	assert.Empty(t, exam.Results)
	assert.NotEmpty(t, exam.ID)
}

func TestRecordExamResults(t *testing.T) {
	repo := newFakeRepo()
	score := 8.5
	repo.exams["e1"] = model.GraduationExam{
		ID: "e1", Modality: "Karate", Status: model.ExamStatusScheduled,
		Date: time.Now().AddDate(0, 0, -1),
	}
	svc := newTestGraduationService(repo)

	results := []model.ExamResult{
		{StudentID: "s1", Passed: true, NewBelt: "Yellow", Notes: "strong kata", Score: &score},
		{StudentID: "s2", Passed: false, Notes: "needs more sparring"},
	}

	exam, err := svc.RecordExamResults(context.Background(), "e1", results)
	require.NoError(t, err)
	assert.Equal(t, model.ExamStatusCompleted, exam.Status)

	stored := repo.exams["e1"]
	assert.Equal(t, model.ExamStatusCompleted, stored.Status)
	require.Len(t, stored.Results, 2)
	assert.Equal(t, "strong kata", stored.Results[0].Notes)
	require.NotNil(t, stored.Results[0].Score)
	assert.Equal(t, 8.5, *stored.Results[0].Score)
	assert.Equal(t, 1, stored.ApprovedCount())
}

func TestRecordExamResultsTerminalExam(t *testing.T) {
	repo := newFakeRepo()
	repo.exams["e1"] = model.GraduationExam{ID: "e1", Status: model.ExamStatusCompleted}
	svc := newTestGraduationService(repo)

	_, err := svc.RecordExamResults(context.Background(), "e1", []model.ExamResult{{StudentID: "s1"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already completed")
}

func TestRecordExamResultsNotFound(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestGraduationService(repo)

	_, err := svc.RecordExamResults(context.Background(), "missing", []model.ExamResult{{StudentID: "s1"}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, repository.ErrNotFound))
}

func TestCheckStudentEligibility(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestGraduationService(repo)
	tenClasses := 10

	// No rule for this belt
	check := svc.CheckStudentEligibility(model.Student{
		ID: "s1", CurrentBelt: "Black", Modality: "Karate", TrainingStartDate: daysAgo(500),
	})
	assert.False(t, check.IsEligible)
	assert.Equal(t, "no promotion rule defined for this modality and belt", check.Reason)

	// Class requirement not met
	check = svc.CheckStudentEligibility(model.Student{
		ID: "s2", CurrentBelt: "Yellow", Modality: "Karate",
		TrainingStartDate: daysAgo(500), TotalClasses: &tenClasses,
	})
	assert.False(t, check.IsEligible)
	assert.Equal(t, "minimum class count not yet reached", check.Reason)

	// Not enough training time yet
	check = svc.CheckStudentEligibility(model.Student{
		ID: "s3", CurrentBelt: "White", Modality: "Karate", TrainingStartDate: daysAgo(10),
	})
	assert.False(t, check.IsEligible)
	assert.Equal(t, "minimum training time not yet reached", check.Reason)
	require.NotNil(t, check.Alert)

	// Fully eligible
	check = svc.CheckStudentEligibility(model.Student{
		ID: "s4", CurrentBelt: "White", Modality: "Karate", TrainingStartDate: daysAgo(200),
	})
	assert.True(t, check.IsEligible)
	assert.Empty(t, check.Reason)
}

func TestCalculateTimeToNextGraduation(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestGraduationService(repo)

	forecast := svc.CalculateTimeToNextGraduation(model.Student{
		ID: "s1", CurrentBelt: "White", Modality: "Karate", TrainingStartDate: daysAgo(100),
	})
	require.NotNil(t, forecast)
	assert.Equal(t, 80, forecast.DaysRemaining)
	assert.Equal(t, "Yellow", forecast.NextBelt)

	assert.Nil(t, svc.CalculateTimeToNextGraduation(model.Student{
		ID: "s2", CurrentBelt: "Black", Modality: "Karate", TrainingStartDate: daysAgo(100),
	}))
}

func TestGetUpcomingExamsModalityFilter(t *testing.T) {
	repo := newFakeRepo()
	repo.exams["k"] = model.GraduationExam{
		ID: "k", Modality: "Karate", Status: model.ExamStatusScheduled, Date: time.Now().AddDate(0, 0, 2),
	}
	repo.exams["j"] = model.GraduationExam{
		ID: "j", Modality: "Judo", Status: model.ExamStatusScheduled, Date: time.Now().AddDate(0, 0, 4),
	}
	svc := newTestGraduationService(repo)
	ctx := context.Background()

	all, err := svc.GetUpcomingExams(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	judo, err := svc.GetUpcomingExams(ctx, "Judo")
	require.NoError(t, err)
	require.Len(t, judo, 1)
	assert.Equal(t, "j", judo[0].ID)
}
