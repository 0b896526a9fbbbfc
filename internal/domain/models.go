package domain

import "time"

type ProjectStatus string

const (
	ProjectStatusPlanned    ProjectStatus = "Planned"
	ProjectStatusInProgress ProjectStatus = "In Progress"
	ProjectStatusOnHold     ProjectStatus = "On Hold"
	ProjectStatusCompleted  ProjectStatus = "Completed"
	ProjectStatusArchived   ProjectStatus = "Archived"
	ProjectStatusCancelled  ProjectStatus = "Cancelled"
)

// Terminal reports whether bug-driven derivation must leave the status alone.
func (s ProjectStatus) Terminal() bool {
	return s == ProjectStatusArchived || s == ProjectStatusCancelled
}

type BugStatus string

const (
	BugStatusOpen       BugStatus = "Open"
	BugStatusInProgress BugStatus = "In Progress"
	BugStatusResolved   BugStatus = "Resolved"
	BugStatusClosed     BugStatus = "Closed"
)

// Resolved reports whether the bug counts toward project progress.
func (s BugStatus) Resolved() bool {
	return s == BugStatusResolved || s == BugStatusClosed
}

func ValidBugStatus(s BugStatus) bool {
	switch s {
	case BugStatusOpen, BugStatusInProgress, BugStatusResolved, BugStatusClosed:
		return true
	}
	return false
}

type BugPriority string

const (
	BugPriorityLow      BugPriority = "Low"
	BugPriorityMedium   BugPriority = "Medium"
	BugPriorityHigh     BugPriority = "High"
	BugPriorityCritical BugPriority = "Critical"
)

type BugSeverity string

const (
	BugSeverityMinor    BugSeverity = "Minor"
	BugSeverityMajor    BugSeverity = "Major"
	BugSeverityCritical BugSeverity = "Critical"
)

type ReportStatus string

const (
	ReportStatusPending   ReportStatus = "Pending"
	ReportStatusApproved  ReportStatus = "Approved"
	ReportStatusRejected  ReportStatus = "Rejected"
	ReportStatusDuplicate ReportStatus = "Duplicate"
)

func ValidReviewStatus(s ReportStatus) bool {
	switch s {
	case ReportStatusApproved, ReportStatusRejected, ReportStatusDuplicate:
		return true
	}
	return false
}

// ProjectStats is the cached aggregate counter block on a project. It is a
// denormalized view of the live bug/report population and is only ever
// overwritten wholesale from fresh counts, never adjusted in place.
type ProjectStats struct {
	TotalBugs       int
	OpenBugs        int
	ResolvedBugs    int
	PendingReports  int
	ApprovedReports int
}

type Project struct {
	ID          string
	Name        string
	Description string
	Status      ProjectStatus
	Progress    int
	Archived    bool
	CreatedBy   string
	CompletedAt *time.Time
	Stats       ProjectStats
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Bug struct {
	ID             string
	ProjectID      string
	Title          string
	Description    string
	Status         BugStatus
	Priority       BugPriority
	Severity       BugSeverity
	Tags           []string
	ReportedBy     string
	AssignedTo     *string
	ParentBug      *string
	LinkedBugs     []string
	DueDate        *time.Time
	ResolutionDate *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// BugHistoryEntry is one row of a bug's append-only change log.
type BugHistoryEntry struct {
	BugID     string
	ChangedBy string
	Field     string
	OldValue  string
	NewValue  string
	ChangedAt time.Time
}

type Report struct {
	ID               string
	ProjectID        string
	BugID            *string
	Title            string
	Description      string
	StepsToReproduce string
	ExpectedResult   string
	ActualResult     string
	Priority         BugPriority
	Severity         BugSeverity
	Status           ReportStatus
	ReportedBy       string
	ReviewedBy       *string
	ReviewComment    string
	ReviewedAt       *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type Team struct {
	ID          string
	Name        string
	Description string
	Lead        *string
	Members     []string
	Projects    []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type UserRole string

const (
	UserRoleAdmin      UserRole = "admin"
	UserRoleTeamLeader UserRole = "team-leader"
	UserRoleDeveloper  UserRole = "developer"
	UserRoleTester     UserRole = "tester"
)

type User struct {
	ID        string
	Name      string
	Email     string
	Role      UserRole
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreateBugInput carries the validated fields of a bug-creation request.
// The trailing block is used only when a report is created alongside the bug.
type CreateBugInput struct {
	ProjectID   string
	Title       string
	Description string
	Priority    BugPriority
	Severity    BugSeverity
	Tags        []string
	AssignedTo  *string
	ParentBug   *string
	RelatedBugs []string
	DueDate     *time.Time

	StepsToReproduce string
	ExpectedResult   string
	ActualResult     string
}

// CreateReportInput carries a standalone report-creation request.
type CreateReportInput struct {
	ProjectID        string
	Title            string
	Description      string
	Priority         BugPriority
	Severity         BugSeverity
	StepsToReproduce string
	ExpectedResult   string
	ActualResult     string
}

// ReviewReportInput carries a report review decision.
type ReviewReportInput struct {
	Status        ReportStatus
	ReviewComment string
	AssignedTo    *string
}
