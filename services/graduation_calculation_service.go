package services

import (
	"fmt"
	"math"
	"sort"
	"time"

	"mygym-server/model"
)

// GraduationCalculationService derives promotion eligibility from the rule
// table. It is a pure computation layer: no persistence, no side effects.
type GraduationCalculationService struct {
	rules []model.GraduationRule
	now   func() time.Time
}

// NewGraduationCalculationService creates a calculator over the given rules
func NewGraduationCalculationService(rules []model.GraduationRule) *GraduationCalculationService {
	return &GraduationCalculationService{
		rules: rules,
		now:   time.Now,
	}
}

// Rule returns the promotion rule for a modality and source belt, if any
func (s *GraduationCalculationService) Rule(modality, fromBelt string) (*model.GraduationRule, bool) {
	for i := range s.rules {
		if s.rules[i].Matches(modality, fromBelt) {
			return &s.rules[i], true
		}
	}
	return nil, false
}

// CalculateAlert computes the graduation alert for one student. It returns
// nil when no rule covers the student's modality and belt, or when the rule
// carries a class requirement the student has not met yet.
func (s *GraduationCalculationService) CalculateAlert(student model.Student) *model.GraduationAlert {
	rule, ok := s.Rule(student.Modality, student.CurrentBelt)
	if !ok {
		return nil
	}

	if rule.MinimumClasses != nil && student.TotalClasses != nil && *student.TotalClasses < *rule.MinimumClasses {
		return nil
	}

	now := s.now()
	elapsed := now.Sub(student.TrainingStartDate)
	trainingDays := int(math.Ceil(elapsed.Hours() / 24))

	daysUntil := rule.MinimumDays - trainingDays
	if daysUntil < 0 {
		daysUntil = 0
	}
	eligible := trainingDays >= rule.MinimumDays

	level := model.AlertLevelInfo
	switch {
	case eligible:
		level = model.AlertLevelReady
	case daysUntil <= 30:
		level = model.AlertLevelWarning
	}

	return &model.GraduationAlert{
		ID:                      fmt.Sprintf("alert_%s_%s_%d", student.ID, student.Modality, now.UnixMilli()),
		StudentID:               student.ID,
		StudentName:             student.Name,
		CurrentBelt:             student.CurrentBelt,
		NextBelt:                rule.ToBelt,
		Modality:                student.Modality,
		TrainingStartDate:       student.TrainingStartDate,
		MinimumTrainingDays:     rule.MinimumDays,
		EstimatedGraduationDate: student.TrainingStartDate.AddDate(0, 0, rule.MinimumDays),
		DaysUntilEligible:       daysUntil,
		IsEligible:              eligible,
		AlertLevel:              level,
	}
}

// CalculateBulkAlerts computes alerts for a batch of students, skipping
// students that produce no alert.
func (s *GraduationCalculationService) CalculateBulkAlerts(students []model.Student) []model.GraduationAlert {
	alerts := make([]model.GraduationAlert, 0, len(students))
	for _, student := range students {
		if alert := s.CalculateAlert(student); alert != nil {
			alerts = append(alerts, *alert)
		}
	}
	return alerts
}

// IsStudentEligible reports whether a student meets the promotion
// requirements right now.
func (s *GraduationCalculationService) IsStudentEligible(student model.Student) bool {
	alert := s.CalculateAlert(student)
	return alert != nil && alert.IsEligible
}

// GetNextBelt returns the target belt for a modality and current belt
func (s *GraduationCalculationService) GetNextBelt(modality, currentBelt string) (string, bool) {
	rule, ok := s.Rule(modality, currentBelt)
	if !ok {
		return "", false
	}
	return rule.ToBelt, true
}

// GetModalityGraduationStats summarizes one modality across a student list.
// Every student of the modality counts toward the totals, including those no
// promotion rule currently produces an alert for; the average is the mean of
// elapsed training days, zero when the modality has no students.
func (s *GraduationCalculationService) GetModalityGraduationStats(students []model.Student, modality string) model.ModalityGraduationStats {
	stat := model.ModalityGraduationStats{Modality: modality}

	now := s.now()
	trainingDays := 0
	for _, student := range students {
		if student.Modality != modality {
			continue
		}
		stat.TotalStudents++
		if s.IsStudentEligible(student) {
			stat.EligibleStudents++
		}
		trainingDays += int(math.Ceil(now.Sub(student.TrainingStartDate).Hours() / 24))
	}
	if stat.TotalStudents > 0 {
		stat.AverageTrainingTime = int(math.Round(float64(trainingDays) / float64(stat.TotalStudents)))
	}
	return stat
}

// CalculateModalityStats aggregates per-modality readiness from a set of
// alerts. Upcoming exams contribute the next exam date per modality.
func (s *GraduationCalculationService) CalculateModalityStats(alerts []model.GraduationAlert, upcoming []model.GraduationExam) []model.ModalityGraduationStats {
	type agg struct {
		total        int
		eligible     int
		trainingDays int
	}
	byModality := make(map[string]*agg)

	now := s.now()
	for _, alert := range alerts {
		a := byModality[alert.Modality]
		if a == nil {
			a = &agg{}
			byModality[alert.Modality] = a
		}
		a.total++
		if alert.IsEligible {
			a.eligible++
		}
		a.trainingDays += int(math.Ceil(now.Sub(alert.TrainingStartDate).Hours() / 24))
	}

	nextExam := make(map[string]time.Time)
	for _, exam := range upcoming {
		if existing, ok := nextExam[exam.Modality]; !ok || exam.Date.Before(existing) {
			nextExam[exam.Modality] = exam.Date
		}
	}

	stats := make([]model.ModalityGraduationStats, 0, len(byModality))
	for modality, a := range byModality {
		stat := model.ModalityGraduationStats{
			Modality:         modality,
			TotalStudents:    a.total,
			EligibleStudents: a.eligible,
		}
		if a.total > 0 {
			stat.AverageTrainingTime = int(math.Round(float64(a.trainingDays) / float64(a.total)))
		}
		if date, ok := nextExam[modality]; ok {
			d := date
			stat.NextExamDate = &d
		}
		stats = append(stats, stat)
	}
	sort.Slice(stats, func(i, j int) bool {
		return stats[i].Modality < stats[j].Modality
	})
	return stats
}
