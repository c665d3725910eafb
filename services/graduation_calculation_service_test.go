package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mygym-server/model"
)

// daysAgo returns a start date exactly n training days in the past. The
// extra minute keeps the elapsed-time ceiling from rounding up to n+1.
func daysAgo(n int) time.Time {
	return time.Now().Add(-time.Duration(n) * 24 * time.Hour).Add(time.Minute)
}

func testRules() []model.GraduationRule {
	classes := 24
	return []model.GraduationRule{
		{Modality: "Karate", FromBelt: "White", ToBelt: "Yellow", MinimumDays: 180},
		{Modality: "Karate", FromBelt: "Yellow", ToBelt: "Orange", MinimumDays: 120, MinimumClasses: &classes},
		{Modality: "Judo", FromBelt: "White", ToBelt: "Yellow", MinimumDays: 90},
	}
}

func TestCalculateAlertEligible(t *testing.T) {
	calc := NewGraduationCalculationService(testRules())

	alert := calc.CalculateAlert(model.Student{
		ID:                "s1",
		Name:              "Ana Silva",
		CurrentBelt:       "White",
		Modality:          "Karate",
		TrainingStartDate: daysAgo(200),
	})

	require.NotNil(t, alert)
	assert.True(t, alert.IsEligible)
	assert.Equal(t, 0, alert.DaysUntilEligible)
	assert.Equal(t, model.AlertLevelReady, alert.AlertLevel)
	assert.Equal(t, "Yellow", alert.NextBelt)
	assert.Equal(t, 180, alert.MinimumTrainingDays)
	assert.Equal(t, "s1", alert.StudentID)
	assert.NotEmpty(t, alert.ID)
}

func TestCalculateAlertInfo(t *testing.T) {
	calc := NewGraduationCalculationService(testRules())

	alert := calc.CalculateAlert(model.Student{
		ID:                "s2",
		Name:              "Bruno Costa",
		CurrentBelt:       "White",
		Modality:          "Karate",
		TrainingStartDate: daysAgo(100),
	})

	require.NotNil(t, alert)
	assert.False(t, alert.IsEligible)
	assert.Equal(t, 80, alert.DaysUntilEligible)
	assert.Equal(t, model.AlertLevelInfo, alert.AlertLevel)
}

func TestCalculateAlertWarning(t *testing.T) {
	calc := NewGraduationCalculationService(testRules())

	alert := calc.CalculateAlert(model.Student{
		ID:                "s3",
		Name:              "Carla Dias",
		CurrentBelt:       "White",
		Modality:          "Karate",
		TrainingStartDate: daysAgo(160),
	})

	require.NotNil(t, alert)
	assert.False(t, alert.IsEligible)
	assert.Equal(t, 20, alert.DaysUntilEligible)
	assert.Equal(t, model.AlertLevelWarning, alert.AlertLevel)
}

func TestCalculateAlertNoRule(t *testing.T) {
	calc := NewGraduationCalculationService(testRules())

	alert := calc.CalculateAlert(model.Student{
		ID:                "s4",
		CurrentBelt:       "Black",
		Modality:          "Karate",
		TrainingStartDate: daysAgo(400),
	})

	assert.Nil(t, alert)
}

func TestCalculateAlertClassRequirement(t *testing.T) {
	calc := NewGraduationCalculationService(testRules())
	tenClasses := 10
	fortyClasses := 40

	student := model.Student{
		ID:                "s5",
		CurrentBelt:       "Yellow",
		Modality:          "Karate",
		TrainingStartDate: daysAgo(150),
	}

	// Below the class requirement: no alert at all
	student.TotalClasses = &tenClasses
	assert.Nil(t, calc.CalculateAlert(student))

	// Requirement met: time-based evaluation proceeds
	student.TotalClasses = &fortyClasses
	alert := calc.CalculateAlert(student)
	require.NotNil(t, alert)
	assert.True(t, alert.IsEligible)

	// Unknown class count: the gate does not apply
	student.TotalClasses = nil
	assert.NotNil(t, calc.CalculateAlert(student))
}

func TestCalculateAlertEstimatedDate(t *testing.T) {
	calc := NewGraduationCalculationService(testRules())
	start := daysAgo(50)

	alert := calc.CalculateAlert(model.Student{
		ID:                "s6",
		CurrentBelt:       "White",
		Modality:          "Karate",
		TrainingStartDate: start,
	})

	require.NotNil(t, alert)
	assert.Equal(t, start.AddDate(0, 0, 180), alert.EstimatedGraduationDate)
}

func TestCalculateBulkAlertsSkipsUnmatched(t *testing.T) {
	calc := NewGraduationCalculationService(testRules())

	alerts := calc.CalculateBulkAlerts([]model.Student{
		{ID: "a", CurrentBelt: "White", Modality: "Karate", TrainingStartDate: daysAgo(200)},
		{ID: "b", CurrentBelt: "Black", Modality: "Karate", TrainingStartDate: daysAgo(200)},
		{ID: "c", CurrentBelt: "White", Modality: "Judo", TrainingStartDate: daysAgo(30)},
	})

	require.Len(t, alerts, 2)
	assert.Equal(t, "a", alerts[0].StudentID)
	assert.Equal(t, "c", alerts[1].StudentID)
}

func TestGetNextBelt(t *testing.T) {
	calc := NewGraduationCalculationService(testRules())

	next, ok := calc.GetNextBelt("Karate", "White")
	assert.True(t, ok)
	assert.Equal(t, "Yellow", next)

	_, ok = calc.GetNextBelt("Karate", "Black")
	assert.False(t, ok)
}

func TestIsStudentEligible(t *testing.T) {
	calc := NewGraduationCalculationService(testRules())

	assert.True(t, calc.IsStudentEligible(model.Student{
		ID: "a", CurrentBelt: "White", Modality: "Judo", TrainingStartDate: daysAgo(100),
	}))
	assert.False(t, calc.IsStudentEligible(model.Student{
		ID: "b", CurrentBelt: "White", Modality: "Judo", TrainingStartDate: daysAgo(10),
	}))
}

func TestGetModalityGraduationStats(t *testing.T) {
	calc := NewGraduationCalculationService(testRules())

	students := []model.Student{
		{ID: "a", CurrentBelt: "White", Modality: "Karate", TrainingStartDate: daysAgo(200)},
		{ID: "b", CurrentBelt: "White", Modality: "Karate", TrainingStartDate: daysAgo(100)},
		// No rule covers a black belt, but the student still counts
		{ID: "c", CurrentBelt: "Black", Modality: "Karate", TrainingStartDate: daysAgo(300)},
		{ID: "d", CurrentBelt: "White", Modality: "Judo", TrainingStartDate: daysAgo(90)},
	}

	karate := calc.GetModalityGraduationStats(students, "Karate")
	assert.Equal(t, "Karate", karate.Modality)
	assert.Equal(t, 3, karate.TotalStudents)
	assert.Equal(t, 1, karate.EligibleStudents)
	assert.Equal(t, 200, karate.AverageTrainingTime)

	judo := calc.GetModalityGraduationStats(students, "Judo")
	assert.Equal(t, 1, judo.TotalStudents)
	assert.Equal(t, 1, judo.EligibleStudents)
	assert.Equal(t, 90, judo.AverageTrainingTime)

	// A modality with no students yields zeroes, not a division error
	empty := calc.GetModalityGraduationStats(students, "Muay Thai")
	assert.Equal(t, 0, empty.TotalStudents)
	assert.Equal(t, 0, empty.AverageTrainingTime)
}

func TestCalculateModalityStats(t *testing.T) {
	calc := NewGraduationCalculationService(testRules())

	alerts := []model.GraduationAlert{
		{StudentID: "a", Modality: "Karate", IsEligible: true, TrainingStartDate: daysAgo(200)},
		{StudentID: "b", Modality: "Karate", IsEligible: false, TrainingStartDate: daysAgo(100)},
		{StudentID: "c", Modality: "Judo", IsEligible: true, TrainingStartDate: daysAgo(90)},
	}
	examDate := time.Now().AddDate(0, 0, 5)
	upcoming := []model.GraduationExam{
		{ID: "e1", Modality: "Karate", Date: examDate.AddDate(0, 0, 3)},
		{ID: "e2", Modality: "Karate", Date: examDate},
	}

	stats := calc.CalculateModalityStats(alerts, upcoming)

	require.Len(t, stats, 2)
	// Sorted by modality name
	judo, karate := stats[0], stats[1]

	assert.Equal(t, "Judo", judo.Modality)
	assert.Equal(t, 1, judo.TotalStudents)
	assert.Equal(t, 1, judo.EligibleStudents)
	assert.Equal(t, 90, judo.AverageTrainingTime)
	assert.Nil(t, judo.NextExamDate)

	assert.Equal(t, "Karate", karate.Modality)
	assert.Equal(t, 2, karate.TotalStudents)
	assert.Equal(t, 1, karate.EligibleStudents)
	assert.Equal(t, 150, karate.AverageTrainingTime)
	require.NotNil(t, karate.NextExamDate)
	assert.Equal(t, examDate, *karate.NextExamDate)
}

func TestCalculateModalityStatsEmpty(t *testing.T) {
	calc := NewGraduationCalculationService(testRules())

	stats := calc.CalculateModalityStats(nil, nil)
	assert.Empty(t, stats)
}
