package catalog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDataset = "test-project.mind_analytics"

func isReadOnly(sql string) bool {
	s := strings.ToLower(strings.TrimSpace(sql))
	return strings.HasPrefix(s, "select") || strings.HasPrefix(s, "with")
}

func TestAllReportsAreReadOnly(t *testing.T) {
	b := NewBuilder(testDataset)

	reports := []struct {
		name string
		sql  string
	}{
		{"total_users", b.TotalUsers()},
		{"active_users", b.ActiveUsers(30)},
		{"active_users_all_time", b.ActiveUsers(AllTimeDays)},
		{"total_sessions", b.TotalSessions()},
		{"daily_active_users", b.DailyActiveUsers(7)},
		{"session_engagement", b.SessionEngagement(90)},
		{"average_grade", b.AverageGrade()},
		{"grade_distribution", b.GradeDistribution()},
		{"case_study_performance", b.CaseStudyPerformance()},
		{"cohort_performance", b.CohortPerformance()},
		{"department_performance", b.DepartmentPerformance()},
		{"student_performance", b.StudentPerformance()},
		{"students_at_risk", b.StudentsAtRisk(60.0)},
		{"ai_token_usage", b.AITokenUsage()},
		{"ai_model_distribution", b.AIModelDistribution()},
		{"system_health", b.SystemHealth()},
		{"response_time_by_route", b.ResponseTimeByRoute()},
		{"error_log", b.ErrorLog(50)},
		{"table_list", b.TableList()},
		{"table_dump", b.TableDump("user")},
	}

	for _, tc := range reports {
		t.Run(tc.name, func(t *testing.T) {
			assert.True(t, isReadOnly(tc.sql), "generated SQL must start with SELECT or WITH:\n%s", tc.sql)
		})
	}
}

func TestTotalUsersExactStatement(t *testing.T) {
	b := NewBuilder(testDataset)
	assert.Equal(t,
		"SELECT COUNT(*) AS total_users FROM `test-project.mind_analytics.user`",
		b.TotalUsers(),
	)
}

func TestActiveUsersWindowFilter(t *testing.T) {
	b := NewBuilder(testDataset)

	windowed := b.ActiveUsers(30)
	assert.Contains(t, windowed, "INTERVAL 30 DAY")
	assert.Contains(t, windowed, "TIMESTAMP_SUB(CURRENT_TIMESTAMP()")
}

func TestAllTimeSentinelOmitsFilterOnly(t *testing.T) {
	b := NewBuilder(testDataset)

	windowed := b.ActiveUsers(30)
	allTime := b.ActiveUsers(AllTimeDays)

	assert.NotContains(t, allTime, "TIMESTAMP_SUB")

	// Removing the date predicate from the windowed form must yield the
	// all-time form exactly; nothing else may change.
	filter := "\nWHERE started_at >= TIMESTAMP_SUB(CURRENT_TIMESTAMP(), INTERVAL 30 DAY)"
	require.Contains(t, windowed, filter)
	assert.Equal(t, allTime, strings.Replace(windowed, filter, "", 1))
}

func TestDaysBeyondSentinelAreAllTime(t *testing.T) {
	b := NewBuilder(testDataset)
	assert.Equal(t, b.DailyActiveUsers(AllTimeDays), b.DailyActiveUsers(AllTimeDays+1))
}

func TestParameterSubstitution(t *testing.T) {
	b := NewBuilder(testDataset)

	testCases := []struct {
		name     string
		sql      string
		contains string
	}{
		{"error log limit", b.ErrorLog(25), "LIMIT 25"},
		{"at risk threshold", b.StudentsAtRisk(72.5), "WHERE a.avg_grade < 72.5"},
		{"at risk whole threshold", b.StudentsAtRisk(60), "WHERE a.avg_grade < 60.0"},
		{"engagement window", b.SessionEngagement(7), "INTERVAL 7 DAY"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Contains(t, tc.sql, tc.contains)
		})
	}
}

func TestQueriesReferenceFullyQualifiedTables(t *testing.T) {
	b := NewBuilder(testDataset)

	testCases := []struct {
		name  string
		sql   string
		table string
	}{
		{"sessions", b.TotalSessions(), "`test-project.mind_analytics.sessions`"},
		{"grades", b.AverageGrade(), "`test-project.mind_analytics.grades`"},
		{"ai_usage", b.AITokenUsage(), "`test-project.mind_analytics.ai_usage`"},
		{"request_logs", b.SystemHealth(), "`test-project.mind_analytics.request_logs`"},
		{"information schema", b.TableList(), "`test-project.mind_analytics.INFORMATION_SCHEMA.TABLES`"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Contains(t, tc.sql, tc.table)
		})
	}
}

func TestDeterminism(t *testing.T) {
	b := NewBuilder(testDataset)
	assert.Equal(t, b.StudentsAtRisk(60.0), b.StudentsAtRisk(60.0))
	assert.Equal(t, b.DailyActiveUsers(30), b.DailyActiveUsers(30))
}
