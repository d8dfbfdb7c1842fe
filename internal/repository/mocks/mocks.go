package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/rgale/cadence/internal/domain/activity"
	"github.com/rgale/cadence/internal/domain/objective"
	"github.com/rgale/cadence/internal/domain/session"
)

// ObjectiveRepository is a mock for repository.ObjectiveRepository.
type ObjectiveRepository struct {
	mock.Mock
}

func (m *ObjectiveRepository) LoadObjectives(ctx context.Context) ([]objective.Objective, error) {
	args := m.Called(ctx)
	if list, ok := args.Get(0).([]objective.Objective); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ObjectiveRepository) UpsertObjective(ctx context.Context, obj objective.Objective) error {
	args := m.Called(ctx, obj)
	return args.Error(0)
}

func (m *ObjectiveRepository) RemoveObjective(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *ObjectiveRepository) CreateObjective(ctx context.Context, title string, colorHex *string, endDate *time.Time, keyResults []objective.KeyResult) (objective.Objective, error) {
	args := m.Called(ctx, title, colorHex, endDate, keyResults)
	if obj, ok := args.Get(0).(objective.Objective); ok {
		return obj, args.Error(1)
	}
	return objective.Objective{}, args.Error(1)
}

// ActivityRepository is a mock for repository.ActivityRepository.
type ActivityRepository struct {
	mock.Mock
}

func (m *ActivityRepository) LoadActivities(ctx context.Context) ([]activity.Activity, error) {
	args := m.Called(ctx)
	if list, ok := args.Get(0).([]activity.Activity); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ActivityRepository) RecordActivity(ctx context.Context, act activity.Activity) error {
	args := m.Called(ctx, act)
	return args.Error(0)
}

func (m *ActivityRepository) UpdateActivity(ctx context.Context, act activity.Activity) error {
	args := m.Called(ctx, act)
	return args.Error(0)
}

func (m *ActivityRepository) RemoveActivity(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// SessionRepository is a mock for repository.SessionRepository.
type SessionRepository struct {
	mock.Mock
}

func (m *SessionRepository) FetchSessions(ctx context.Context) ([]session.Session, error) {
	args := m.Called(ctx)
	if list, ok := args.Get(0).([]session.Session); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *SessionRepository) AddSession(ctx context.Context, sess session.Session) error {
	args := m.Called(ctx, sess)
	return args.Error(0)
}

func (m *SessionRepository) UpdateSession(ctx context.Context, sess session.Session) error {
	args := m.Called(ctx, sess)
	return args.Error(0)
}

func (m *SessionRepository) DeleteSession(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
