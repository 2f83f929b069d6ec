package handlers

import "testing"

func TestDSRScopeFilter(t *testing.T) {
	requested := int64(7)
	cases := []struct {
		name      string
		role      string
		userID    int64
		requested *int64
		want      *int64
	}{
		{"member pinned to own", roleMember, 3, nil, int64Ptr(3)},
		{"member cannot request another user", roleMember, 3, &requested, int64Ptr(3)},
		{"leader lists all", roleLeader, 3, nil, nil},
		{"leader filters by user", roleLeader, 3, &requested, &requested},
		{"admin lists all", roleAdmin, 3, nil, nil},
		{"admin filters by user", roleAdmin, 3, &requested, &requested},
		{"lowercase role still ranked", "leader", 3, nil, nil},
		{"unknown role treated as member", "GUEST", 3, &requested, int64Ptr(3)},
	}
	for _, tc := range cases {
		got := dsrScopeFilter(tc.role, tc.userID, tc.requested)
		switch {
		case tc.want == nil && got != nil:
			t.Errorf("%s: dsrScopeFilter = %d, want nil", tc.name, *got)
		case tc.want != nil && got == nil:
			t.Errorf("%s: dsrScopeFilter = nil, want %d", tc.name, *tc.want)
		case tc.want != nil && *got != *tc.want:
			t.Errorf("%s: dsrScopeFilter = %d, want %d", tc.name, *got, *tc.want)
		}
	}
}

func int64Ptr(value int64) *int64 { return &value }
