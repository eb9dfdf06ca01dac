package api

import (
	"fmt"

	"github.com/miva-edu/mind-analytics/backend/internal/auth"
	"github.com/miva-edu/mind-analytics/backend/internal/catalog"
)

// ReportParams holds the typed parameters a report may consume. Unused
// fields are simply ignored by the builder.
type ReportParams struct {
	Days      int
	Threshold float64
	Limit     int
}

// ReportBuilder produces the SQL for one report from its parameters.
type ReportBuilder func(p ReportParams) string

// ReportEntry couples a report's SQL builder with the dashboard page that
// gates it.
type ReportEntry struct {
	Page  auth.Page
	Build ReportBuilder
}

// ReportRegistry holds a map of report names to their entries.
type ReportRegistry struct {
	entries map[string]ReportEntry
}

// NewReportRegistry creates and returns a new registry.
func NewReportRegistry() *ReportRegistry {
	return &ReportRegistry{
		entries: make(map[string]ReportEntry),
	}
}

// Register adds a report to the registry under the given name.
func (r *ReportRegistry) Register(name string, entry ReportEntry) {
	if _, exists := r.entries[name]; exists {
		panic(fmt.Sprintf("report '%s' is already registered", name))
	}
	r.entries[name] = entry
}

// Get retrieves a report entry from the registry by name.
func (r *ReportRegistry) Get(name string) (ReportEntry, bool) {
	entry, found := r.entries[name]
	return entry, found
}

// RegisterDefaults binds every catalog report to its page gate. Admins can
// open all pages, so every report is reachable for them.
func RegisterDefaults(r *ReportRegistry, b *catalog.Builder) {
	// User totals and engagement live on the admin overview.
	r.Register("total_users", ReportEntry{Page: auth.PageAdmin, Build: func(p ReportParams) string {
		return b.TotalUsers()
	}})
	r.Register("active_users", ReportEntry{Page: auth.PageAdmin, Build: func(p ReportParams) string {
		return b.ActiveUsers(p.Days)
	}})
	r.Register("total_sessions", ReportEntry{Page: auth.PageAdmin, Build: func(p ReportParams) string {
		return b.TotalSessions()
	}})
	r.Register("daily_active_users", ReportEntry{Page: auth.PageAdmin, Build: func(p ReportParams) string {
		return b.DailyActiveUsers(p.Days)
	}})
	r.Register("session_engagement", ReportEntry{Page: auth.PageAdmin, Build: func(p ReportParams) string {
		return b.SessionEngagement(p.Days)
	}})

	// Academic reports belong to the faculty page.
	r.Register("average_grade", ReportEntry{Page: auth.PageFaculty, Build: func(p ReportParams) string {
		return b.AverageGrade()
	}})
	r.Register("grade_distribution", ReportEntry{Page: auth.PageFaculty, Build: func(p ReportParams) string {
		return b.GradeDistribution()
	}})
	r.Register("case_study_performance", ReportEntry{Page: auth.PageFaculty, Build: func(p ReportParams) string {
		return b.CaseStudyPerformance()
	}})
	r.Register("cohort_performance", ReportEntry{Page: auth.PageFaculty, Build: func(p ReportParams) string {
		return b.CohortPerformance()
	}})
	r.Register("department_performance", ReportEntry{Page: auth.PageFaculty, Build: func(p ReportParams) string {
		return b.DepartmentPerformance()
	}})
	r.Register("student_performance", ReportEntry{Page: auth.PageFaculty, Build: func(p ReportParams) string {
		return b.StudentPerformance()
	}})
	r.Register("students_at_risk", ReportEntry{Page: auth.PageFaculty, Build: func(p ReportParams) string {
		return b.StudentsAtRisk(p.Threshold)
	}})

	// AI resource management is an admin concern.
	r.Register("ai_token_usage", ReportEntry{Page: auth.PageAdmin, Build: func(p ReportParams) string {
		return b.AITokenUsage()
	}})
	r.Register("ai_model_distribution", ReportEntry{Page: auth.PageAdmin, Build: func(p ReportParams) string {
		return b.AIModelDistribution()
	}})

	// Health metrics belong to the developer page.
	r.Register("system_health", ReportEntry{Page: auth.PageDeveloper, Build: func(p ReportParams) string {
		return b.SystemHealth()
	}})
	r.Register("response_time_by_route", ReportEntry{Page: auth.PageDeveloper, Build: func(p ReportParams) string {
		return b.ResponseTimeByRoute()
	}})
	r.Register("error_log", ReportEntry{Page: auth.PageDeveloper, Build: func(p ReportParams) string {
		return b.ErrorLog(p.Limit)
	}})
}
