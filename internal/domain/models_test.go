package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProjectStatusTerminal(t *testing.T) {
	assert.True(t, ProjectStatusArchived.Terminal())
	assert.True(t, ProjectStatusCancelled.Terminal())

	for _, s := range []ProjectStatus{
		ProjectStatusPlanned,
		ProjectStatusInProgress,
		ProjectStatusOnHold,
		ProjectStatusCompleted,
	} {
		assert.False(t, s.Terminal(), string(s))
	}
}

func TestBugStatusResolved(t *testing.T) {
	assert.True(t, BugStatusResolved.Resolved())
	assert.True(t, BugStatusClosed.Resolved())
	assert.False(t, BugStatusOpen.Resolved())
	assert.False(t, BugStatusInProgress.Resolved())
}

func TestValidBugStatus(t *testing.T) {
	for _, s := range []BugStatus{BugStatusOpen, BugStatusInProgress, BugStatusResolved, BugStatusClosed} {
		assert.True(t, ValidBugStatus(s), string(s))
	}
	assert.False(t, ValidBugStatus(BugStatus("Reopened")))
	assert.False(t, ValidBugStatus(BugStatus("")))
}

func TestValidReviewStatus(t *testing.T) {
	for _, s := range []ReportStatus{ReportStatusApproved, ReportStatusRejected, ReportStatusDuplicate} {
		assert.True(t, ValidReviewStatus(s), string(s))
	}
	assert.False(t, ValidReviewStatus(ReportStatusPending), "a review can not leave a report pending")
}
