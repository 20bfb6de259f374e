package account

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		in   string
		want Role
	}{
		{in: "free", want: RoleFree},
		{in: "member", want: RoleMember},
		{in: " Master ", want: RoleMaster},
		{in: "BOTH", want: RoleBoth},
		{in: "admin", want: RoleFree},
		{in: "", want: RoleFree},
		{in: "premium", want: RoleFree},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := ParseRole(tt.in)
			assert.Equal(t, tt.want, got)
			assert.True(t, got.IsValid())
		})
	}
}

func TestRoleAccess(t *testing.T) {
	tests := []struct {
		role       Role
		wantMember bool
		wantMaster bool
	}{
		{role: RoleFree},
		{role: RoleMember, wantMember: true},
		{role: RoleMaster, wantMaster: true},
		{role: RoleBoth, wantMember: true, wantMaster: true},
	}
	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			assert.Equal(t, tt.wantMember, tt.role.HasMemberAccess())
			assert.Equal(t, tt.wantMaster, tt.role.HasMasterAccess())
		})
	}
}

func TestResolveRole(t *testing.T) {
	tests := []struct {
		name      string
		raw       *Raw
		wantRole  Role
		wantAdmin bool
	}{
		{name: "nil account", raw: nil, wantRole: RoleFree},
		{name: "empty account", raw: &Raw{}, wantRole: RoleFree},
		{name: "direct role", raw: &Raw{Role: "member"}, wantRole: RoleMember},
		{name: "userRole field", raw: &Raw{UserRole: "master"}, wantRole: RoleMaster},
		{name: "role wins over userRole", raw: &Raw{Role: "both", UserRole: "member"}, wantRole: RoleBoth},
		{name: "nested account wins", raw: &Raw{Role: "member", Accounts: []Raw{{Role: "master"}}}, wantRole: RoleMaster},
		{name: "only first nested account counts", raw: &Raw{Accounts: []Raw{{Role: "free"}, {Role: "both"}}}, wantRole: RoleFree},
		{name: "isAdmin flag", raw: &Raw{Role: "member", IsAdmin: true}, wantRole: RoleMember, wantAdmin: true},
		{name: "is_admin flag", raw: &Raw{IsAdminSnake: true}, wantRole: RoleFree, wantAdmin: true},
		{name: "nested admin", raw: &Raw{Accounts: []Raw{{Role: "both", IsAdmin: true}}}, wantRole: RoleBoth, wantAdmin: true},
		{name: "admin role", raw: &Raw{Role: "admin"}, wantRole: RoleFree, wantAdmin: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantRole, ResolveRole(tt.raw))
			assert.Equal(t, tt.wantAdmin, IsAdmin(tt.raw))
		})
	}
}

func TestResolve(t *testing.T) {
	t.Run("anonymous", func(t *testing.T) {
		v := Resolve(nil)
		assert.Equal(t, Anonymous(), v)
		assert.False(t, v.IsAuthenticated())
	})

	t.Run("raw json shapes", func(t *testing.T) {
		tests := []struct {
			name string
			data string
			want Viewer
		}{
			{
				name: "flat",
				data: `{"id": 7, "role": "master", "is_admin": true, "master_cohort": "2"}`,
				want: Viewer{ID: 7, Role: RoleMaster, IsAdmin: true, Cohort: "2"},
			},
			{
				name: "nested",
				data: `{"id": "12", "accounts": [{"userRole": "both", "isAdmin": false, "cohort": "3"}]}`,
				want: Viewer{ID: 12, Role: RoleBoth, Cohort: "3"},
			},
			{
				name: "nested id",
				data: `{"accounts": [{"id": 4, "role": "member"}]}`,
				want: Viewer{ID: 4, Role: RoleMember},
			},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				var raw Raw
				require.NoError(t, json.Unmarshal([]byte(tt.data), &raw))
				assert.Equal(t, tt.want, Resolve(&raw))
			})
		}
	})
}
