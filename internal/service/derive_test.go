package service

import (
	"testing"
	"time"

	"github.com/glebovvv/bugtrack/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var deriveNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func TestDeriveProjectEmptyPopulation(t *testing.T) {
	got := deriveProject(domain.ProjectStatusInProgress, nil, 0, 0, deriveNow)

	assert.Equal(t, domain.ProjectStatusPlanned, got.Status)
	assert.Equal(t, 0, got.Progress)
	assert.Nil(t, got.CompletedAt)
}

func TestDeriveProjectOpenBugs(t *testing.T) {
	tests := []struct {
		name     string
		total    int
		resolved int
		progress int
	}{
		{"all open", 4, 0, 0},
		{"half resolved", 4, 2, 50},
		{"one third resolved", 3, 1, 33},
		{"two thirds resolved", 3, 2, 67},
		{"almost done", 100, 99, 99},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := deriveProject(domain.ProjectStatusPlanned, nil, tt.total, tt.resolved, deriveNow)

			assert.Equal(t, domain.ProjectStatusInProgress, got.Status)
			assert.Equal(t, tt.progress, got.Progress)
			assert.Nil(t, got.CompletedAt)
		})
	}
}

func TestDeriveProjectAllResolved(t *testing.T) {
	got := deriveProject(domain.ProjectStatusInProgress, nil, 5, 5, deriveNow)

	assert.Equal(t, domain.ProjectStatusCompleted, got.Status)
	assert.Equal(t, 100, got.Progress)
	require.NotNil(t, got.CompletedAt)
	assert.Equal(t, deriveNow, *got.CompletedAt)
}

func TestDeriveProjectKeepsCompletionTimestamp(t *testing.T) {
	earlier := deriveNow.Add(-48 * time.Hour)

	got := deriveProject(domain.ProjectStatusCompleted, &earlier, 5, 5, deriveNow)

	require.NotNil(t, got.CompletedAt)
	assert.Equal(t, earlier, *got.CompletedAt, "recomputation must not move an existing completion timestamp")
}

func TestDeriveProjectReopenResetsCompletion(t *testing.T) {
	earlier := deriveNow.Add(-48 * time.Hour)

	got := deriveProject(domain.ProjectStatusCompleted, &earlier, 5, 4, deriveNow)

	assert.Equal(t, domain.ProjectStatusInProgress, got.Status)
	assert.Equal(t, 80, got.Progress)
	assert.Nil(t, got.CompletedAt, "a reopened bug must clear the completion timestamp")
}

func TestDeriveProjectTerminalStatusesUntouched(t *testing.T) {
	for _, status := range []domain.ProjectStatus{
		domain.ProjectStatusArchived,
		domain.ProjectStatusCancelled,
	} {
		got := deriveProject(status, nil, 3, 0, deriveNow)
		assert.Equal(t, status, got.Status)
	}
}

func TestDeriveProjectIdempotent(t *testing.T) {
	first := deriveProject(domain.ProjectStatusPlanned, nil, 7, 3, deriveNow)
	second := deriveProject(first.Status, first.CompletedAt, 7, 3, deriveNow)

	assert.Equal(t, first, second)
}

func TestDeriveProjectLifecycleScenario(t *testing.T) {
	// Empty project.
	state := deriveProject(domain.ProjectStatusPlanned, nil, 0, 0, deriveNow)
	assert.Equal(t, domain.ProjectStatusPlanned, state.Status)
	assert.Equal(t, 0, state.Progress)

	// Two open bugs.
	state = deriveProject(state.Status, state.CompletedAt, 2, 0, deriveNow)
	assert.Equal(t, domain.ProjectStatusInProgress, state.Status)
	assert.Equal(t, 0, state.Progress)

	// One resolved.
	state = deriveProject(state.Status, state.CompletedAt, 2, 1, deriveNow)
	assert.Equal(t, domain.ProjectStatusInProgress, state.Status)
	assert.Equal(t, 50, state.Progress)

	// Both resolved.
	state = deriveProject(state.Status, state.CompletedAt, 2, 2, deriveNow)
	assert.Equal(t, domain.ProjectStatusCompleted, state.Status)
	assert.Equal(t, 100, state.Progress)
	require.NotNil(t, state.CompletedAt)

	// One reopens.
	state = deriveProject(state.Status, state.CompletedAt, 2, 1, deriveNow)
	assert.Equal(t, domain.ProjectStatusInProgress, state.Status)
	assert.Nil(t, state.CompletedAt)
}

func TestProgressPercentBounds(t *testing.T) {
	assert.Equal(t, 0, progressPercent(0, 0))
	assert.Equal(t, 0, progressPercent(5, 0))

	for total := 1; total <= 20; total++ {
		for resolved := 0; resolved <= total; resolved++ {
			p := progressPercent(resolved, total)
			assert.GreaterOrEqual(t, p, 0)
			assert.LessOrEqual(t, p, 100)
		}
	}
}
