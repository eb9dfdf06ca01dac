// Package catalog maps named analytical reports to BigQuery SQL. Every
// method is a pure string builder over a fixed dataset namespace; no I/O
// happens here and no parameters are validated beyond substitution.
package catalog

import (
	"fmt"
	"strings"
)

// AllTimeDays is the sentinel lookback meaning "no date filter". Dashboard
// clients send it when the user selects the All Time period.
const AllTimeDays = 9999

// Builder generates SQL for one fully-qualified dataset, e.g.
// "my-project.mind_analytics". All generated statements are read-only.
type Builder struct {
	dataset string
}

// NewBuilder creates a Builder bound to the given fully-qualified dataset id.
func NewBuilder(datasetID string) *Builder {
	return &Builder{dataset: datasetID}
}

// table returns the backtick-quoted, fully-qualified table reference.
func (b *Builder) table(name string) string {
	return "`" + b.dataset + "." + name + "`"
}

// sinceFilter returns a predicate restricting column to the last n days, or
// an empty string for the all-time sentinel. Callers splice it with
// joinClauses so the surrounding statement is identical in both forms.
func sinceFilter(column string, days int) string {
	if days >= AllTimeDays {
		return ""
	}
	return fmt.Sprintf("WHERE %s >= TIMESTAMP_SUB(CURRENT_TIMESTAMP(), INTERVAL %d DAY)", column, days)
}

// joinClauses assembles SQL fragments, skipping empty ones, one per line.
func joinClauses(clauses ...string) string {
	parts := make([]string, 0, len(clauses))
	for _, c := range clauses {
		if c != "" {
			parts = append(parts, c)
		}
	}
	return strings.Join(parts, "\n")
}

// --- User totals ---

func (b *Builder) TotalUsers() string {
	return fmt.Sprintf("SELECT COUNT(*) AS total_users FROM %s", b.table("user"))
}

func (b *Builder) ActiveUsers(days int) string {
	return joinClauses(
		"SELECT COUNT(DISTINCT user_id) AS active_users",
		"FROM "+b.table("sessions"),
		sinceFilter("started_at", days),
	)
}

func (b *Builder) TotalSessions() string {
	return fmt.Sprintf("SELECT COUNT(*) AS total_sessions FROM %s", b.table("sessions"))
}

// --- Engagement trends ---

func (b *Builder) DailyActiveUsers(days int) string {
	return joinClauses(
		"SELECT DATE(started_at) AS date, COUNT(DISTINCT user_id) AS active_users",
		"FROM "+b.table("sessions"),
		sinceFilter("started_at", days),
		"GROUP BY date",
		"ORDER BY date",
	)
}

func (b *Builder) SessionEngagement(days int) string {
	return joinClauses(
		"SELECT DATE(started_at) AS date,",
		"  AVG(duration_minutes) AS avg_duration_minutes,",
		"  AVG(pageviews) AS avg_pageviews",
		"FROM "+b.table("sessions"),
		sinceFilter("started_at", days),
		"GROUP BY date",
		"ORDER BY date",
	)
}

// --- Grades and performance ---

func (b *Builder) AverageGrade() string {
	return joinClauses(
		"SELECT AVG(score) AS avg_grade,",
		"  AVG(communication) AS avg_communication,",
		"  AVG(comprehension) AS avg_comprehension,",
		"  AVG(critical_thinking) AS avg_critical_thinking",
		"FROM "+b.table("grades"),
	)
}

func (b *Builder) GradeDistribution() string {
	return joinClauses(
		"SELECT",
		"  CASE",
		"    WHEN score >= 90 THEN 'A (90-100)'",
		"    WHEN score >= 80 THEN 'B (80-89)'",
		"    WHEN score >= 70 THEN 'C (70-79)'",
		"    WHEN score >= 60 THEN 'D (60-69)'",
		"    ELSE 'F (below 60)'",
		"  END AS grade_bracket,",
		"  COUNT(*) AS count",
		"FROM "+b.table("grades"),
		"GROUP BY grade_bracket",
		"ORDER BY grade_bracket",
	)
}

func (b *Builder) CaseStudyPerformance() string {
	return joinClauses(
		"SELECT case_study, AVG(score) AS avg_score, COUNT(*) AS attempts",
		"FROM "+b.table("grades"),
		"GROUP BY case_study",
		"ORDER BY avg_score DESC",
	)
}

func (b *Builder) CohortPerformance() string {
	return joinClauses(
		"SELECT u.cohort,",
		"  COUNT(DISTINCT u.user_id) AS students,",
		"  AVG(g.score) AS avg_grade",
		"FROM "+b.table("grades")+" g",
		"JOIN "+b.table("user")+" u ON g.user_id = u.user_id",
		"GROUP BY u.cohort",
		"ORDER BY avg_grade DESC",
	)
}

func (b *Builder) DepartmentPerformance() string {
	return joinClauses(
		"SELECT u.department,",
		"  COUNT(DISTINCT u.user_id) AS students,",
		"  AVG(g.score) AS avg_grade",
		"FROM "+b.table("grades")+" g",
		"JOIN "+b.table("user")+" u ON g.user_id = u.user_id",
		"GROUP BY u.department",
		"ORDER BY avg_grade DESC",
	)
}

func (b *Builder) StudentPerformance() string {
	return joinClauses(
		"SELECT u.full_name AS student_name,",
		"  u.email AS student_email,",
		"  COUNT(g.case_study) AS cases_completed,",
		"  AVG(g.score) AS avg_grade",
		"FROM "+b.table("user")+" u",
		"LEFT JOIN "+b.table("grades")+" g ON g.user_id = u.user_id",
		"WHERE u.role = 'student'",
		"GROUP BY student_name, student_email",
		"ORDER BY avg_grade DESC",
	)
}

// StudentsAtRisk lists students whose overall average sits below threshold.
func (b *Builder) StudentsAtRisk(threshold float64) string {
	return joinClauses(
		"WITH averages AS (",
		"  SELECT user_id, AVG(score) AS avg_grade",
		"  FROM "+b.table("grades"),
		"  GROUP BY user_id",
		")",
		"SELECT u.full_name AS student_name,",
		"  u.email AS student_email,",
		"  ROUND(a.avg_grade, 1) AS avg_grade",
		"FROM averages a",
		"JOIN "+b.table("user")+" u ON a.user_id = u.user_id",
		fmt.Sprintf("WHERE a.avg_grade < %.1f", threshold),
		"ORDER BY a.avg_grade",
	)
}

// --- AI resource usage ---

func (b *Builder) AITokenUsage() string {
	return joinClauses(
		"SELECT SUM(input_tokens + output_tokens) AS total_tokens,",
		"  SUM(input_tokens) AS input_tokens,",
		"  SUM(output_tokens) AS output_tokens",
		"FROM "+b.table("ai_usage"),
	)
}

func (b *Builder) AIModelDistribution() string {
	return joinClauses(
		"SELECT model,",
		"  COUNT(*) AS request_count,",
		"  SUM(input_tokens + output_tokens) AS total_tokens",
		"FROM "+b.table("ai_usage"),
		"GROUP BY model",
		"ORDER BY request_count DESC",
	)
}

// --- System health ---

func (b *Builder) SystemHealth() string {
	return joinClauses(
		"SELECT COUNT(*) AS total_requests,",
		"  COUNTIF(status_code >= 500) AS error_count,",
		"  AVG(response_time_ms) AS avg_response_time,",
		"  APPROX_QUANTILES(response_time_ms, 100)[OFFSET(95)] AS p95_latency,",
		"  APPROX_QUANTILES(response_time_ms, 100)[OFFSET(99)] AS p99_latency",
		"FROM "+b.table("request_logs"),
	)
}

func (b *Builder) ResponseTimeByRoute() string {
	return joinClauses(
		"SELECT http_route,",
		"  COUNT(*) AS request_count,",
		"  AVG(response_time_ms) AS avg_latency,",
		"  APPROX_QUANTILES(response_time_ms, 100)[OFFSET(95)] AS p95_latency",
		"FROM "+b.table("request_logs"),
		"GROUP BY http_route",
		"ORDER BY p95_latency DESC",
	)
}

func (b *Builder) ErrorLog(limit int) string {
	return joinClauses(
		"SELECT logged_at, http_route, status_code, error_message",
		"FROM "+b.table("request_logs"),
		"WHERE status_code >= 500",
		"ORDER BY logged_at DESC",
		fmt.Sprintf("LIMIT %d", limit),
	)
}

// --- Dataset introspection ---

// TableList enumerates all tables in the dataset, used by the full export.
func (b *Builder) TableList() string {
	return joinClauses(
		"SELECT table_name",
		fmt.Sprintf("FROM `%s.INFORMATION_SCHEMA.TABLES`", b.dataset),
		"ORDER BY table_name",
	)
}

// TableDump selects every row of one table. Only fed with names returned by
// TableList, never with user input.
func (b *Builder) TableDump(tableName string) string {
	return fmt.Sprintf("SELECT * FROM %s", b.table(tableName))
}
