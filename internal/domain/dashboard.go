package domain

import "time"

// ProjectRollup pairs a project with the live-bug counts its display
// status and progress are derived from at read time.
type ProjectRollup struct {
	Project      Project
	TotalBugs    int
	ResolvedBugs int
}

// TeamProgress is the average derived progress over a team's projects.
type TeamProgress struct {
	TeamID       string
	TeamName     string
	ProjectCount int
	AvgProgress  int
}

// ActivityItem is one entry of the merged recent-activity feed.
type ActivityItem struct {
	Kind      string // "bug" or "report"
	ID        string
	ProjectID string
	Title     string
	Status    string
	CreatedAt time.Time
}

// Dashboard is the cross-project read model. It is assembled purely from
// queries over the live population; building it performs no writes.
type Dashboard struct {
	RecentProjects []ProjectRollup
	RecentActivity []ActivityItem
	BugStatus      map[BugStatus]int
	ProjectStatus  map[ProjectStatus]int
	TeamProgress   []TeamProgress
	TotalProjects  int
	TotalBugs      int
	TotalTeams     int
	ActiveUsers    int
}
