package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRole(t *testing.T) {
	for _, valid := range []string{"admin", "developer", "faculty", "student"} {
		role, err := ParseRole(valid)
		assert.NoError(t, err)
		assert.Equal(t, Role(valid), role)
	}

	_, err := ParseRole("superuser")
	assert.Error(t, err)
	_, err = ParseRole("")
	assert.Error(t, err)
}

func TestCanAccess(t *testing.T) {
	testCases := []struct {
		role    Role
		page    Page
		allowed bool
	}{
		{RoleAdmin, PageAdmin, true},
		{RoleAdmin, PageDeveloper, true},
		{RoleAdmin, PageFaculty, true},
		{RoleAdmin, PageStudent, true},
		{RoleAdmin, PageHome, true},

		{RoleDeveloper, PageDeveloper, true},
		{RoleDeveloper, PageHome, true},
		{RoleDeveloper, PageAdmin, false},
		{RoleDeveloper, PageFaculty, false},

		{RoleFaculty, PageFaculty, true},
		{RoleFaculty, PageHome, true},
		{RoleFaculty, PageAdmin, false},
		{RoleFaculty, PageStudent, false},

		{RoleStudent, PageStudent, true},
		{RoleStudent, PageHome, true},
		{RoleStudent, PageAdmin, false},
		{RoleStudent, PageDeveloper, false},

		{Role("unknown"), PageAdmin, false},
	}

	for _, tc := range testCases {
		t.Run(string(tc.role)+"_"+string(tc.page), func(t *testing.T) {
			assert.Equal(t, tc.allowed, CanAccess(tc.role, tc.page))
		})
	}
}
