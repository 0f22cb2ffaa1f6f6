package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/unipath-ai/unipath/core"
	"github.com/unipath-ai/unipath/store"
)

// GetProfile implements store.Profiles.
func (s *Store) GetProfile(ctx context.Context, userID string) (*core.Profile, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, email, full_name, onboarding_completed, current_stage, created_at
		FROM profiles WHERE id = ?`, userID)

	var p core.Profile
	err := row.Scan(&p.ID, &p.Email, &p.FullName, &p.OnboardingCompleted, &p.CurrentStage, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return &p, nil
}

// SaveProfile implements store.Profiles.
func (s *Store) SaveProfile(ctx context.Context, profile *core.Profile) error {
	stage := profile.CurrentStage
	if stage == 0 {
		stage = core.StageOnboarding
	}
	createdAt := profile.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO profiles (id, email, full_name, onboarding_completed, current_stage, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			email = excluded.email,
			full_name = excluded.full_name,
			onboarding_completed = excluded.onboarding_completed,
			current_stage = excluded.current_stage`,
		profile.ID, profile.Email, profile.FullName, profile.OnboardingCompleted, stage, createdAt)
	if err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

// GetStudentProfile implements store.Profiles.
func (s *Store) GetStudentProfile(ctx context.Context, userID string) (*core.StudentProfile, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT user_id, education_level, degree, graduation_year, gpa, gpa_scale,
		       intended_degree, field_of_study, target_intake, preferred_countries,
		       budget_min, budget_max, funding_type,
		       english_test_type, english_test_status, english_test_score,
		       aptitude_test_type, aptitude_test_status, aptitude_test_score,
		       sop_status
		FROM student_profiles WHERE user_id = ?`, userID)

	var p core.StudentProfile
	var countries string
	err := row.Scan(&p.UserID, &p.EducationLevel, &p.Degree, &p.GraduationYear,
		&p.GPA, &p.GPAScale, &p.IntendedDegree, &p.FieldOfStudy, &p.TargetIntake,
		&countries, &p.BudgetMin, &p.BudgetMax, &p.FundingType,
		&p.EnglishTestType, &p.EnglishTestStatus, &p.EnglishTestScore,
		&p.AptitudeTestType, &p.AptitudeTestStatus, &p.AptitudeTestScore,
		&p.SOPStatus)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get student profile: %w", err)
	}
	if countries != "" {
		if err := json.Unmarshal([]byte(countries), &p.PreferredCountries); err != nil {
			return nil, fmt.Errorf("decode preferred countries: %w", err)
		}
	}
	return &p, nil
}

// SaveStudentProfile implements store.Profiles.
func (s *Store) SaveStudentProfile(ctx context.Context, profile *core.StudentProfile) error {
	countries, err := json.Marshal(profile.PreferredCountries)
	if err != nil {
		return fmt.Errorf("encode preferred countries: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO student_profiles (
			user_id, education_level, degree, graduation_year, gpa, gpa_scale,
			intended_degree, field_of_study, target_intake, preferred_countries,
			budget_min, budget_max, funding_type,
			english_test_type, english_test_status, english_test_score,
			aptitude_test_type, aptitude_test_status, aptitude_test_score,
			sop_status
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			education_level = excluded.education_level,
			degree = excluded.degree,
			graduation_year = excluded.graduation_year,
			gpa = excluded.gpa,
			gpa_scale = excluded.gpa_scale,
			intended_degree = excluded.intended_degree,
			field_of_study = excluded.field_of_study,
			target_intake = excluded.target_intake,
			preferred_countries = excluded.preferred_countries,
			budget_min = excluded.budget_min,
			budget_max = excluded.budget_max,
			funding_type = excluded.funding_type,
			english_test_type = excluded.english_test_type,
			english_test_status = excluded.english_test_status,
			english_test_score = excluded.english_test_score,
			aptitude_test_type = excluded.aptitude_test_type,
			aptitude_test_status = excluded.aptitude_test_status,
			aptitude_test_score = excluded.aptitude_test_score,
			sop_status = excluded.sop_status`,
		profile.UserID, profile.EducationLevel, profile.Degree, profile.GraduationYear,
		profile.GPA, profile.GPAScale, profile.IntendedDegree, profile.FieldOfStudy,
		profile.TargetIntake, string(countries), profile.BudgetMin, profile.BudgetMax,
		profile.FundingType, profile.EnglishTestType, profile.EnglishTestStatus,
		profile.EnglishTestScore, profile.AptitudeTestType, profile.AptitudeTestStatus,
		profile.AptitudeTestScore, profile.SOPStatus)
	if err != nil {
		return fmt.Errorf("save student profile: %w", err)
	}
	return nil
}

// CompleteOnboarding implements store.Profiles. The stage advance is
// monotonic; an already higher stage is left alone.
func (s *Store) CompleteOnboarding(ctx context.Context, userID string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE profiles
		SET onboarding_completed = 1,
		    current_stage = MAX(current_stage, ?)
		WHERE id = ?`, core.StageDiscovery, userID)
	if err != nil {
		return fmt.Errorf("complete onboarding: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("complete onboarding: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
