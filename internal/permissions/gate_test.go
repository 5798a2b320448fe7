package permissions

import (
	"testing"

	"github.com/northfarm/sales-backend/pkg/enums"
)

var (
	admin   = Actor{Username: "admin", Role: enums.ActorRoleAdmin}
	staff   = Actor{Username: "staff", Role: enums.ActorRoleStaff}
	nobody  = Actor{}
	badRole = Actor{Username: "ghost", Role: enums.ActorRole("owner")}
)

func TestCanMutate(t *testing.T) {
	cases := []struct {
		name   string
		actor  Actor
		closed bool
		want   bool
	}{
		{"staff on open date", staff, false, true},
		{"staff on closed date", staff, true, false},
		{"admin on open date", admin, false, true},
		{"admin on closed date", admin, true, true},
		{"anonymous on open date", nobody, false, false},
		{"unknown role on open date", badRole, false, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CanMutate(tc.actor, tc.closed); got != tc.want {
				t.Fatalf("CanMutate(%v, closed=%v) = %v, want %v", tc.actor, tc.closed, got, tc.want)
			}
		})
	}
}

func TestCanClose(t *testing.T) {
	if !CanClose(staff) {
		t.Fatal("staff should be able to close a day")
	}
	if !CanClose(admin) {
		t.Fatal("admin should be able to close a day")
	}
	if CanClose(nobody) {
		t.Fatal("anonymous actor should not close a day")
	}
}

func TestCanReopenIsAdminOnly(t *testing.T) {
	if CanReopen(staff) {
		t.Fatal("staff must not reopen a closed day")
	}
	if !CanReopen(admin) {
		t.Fatal("admin should reopen a closed day")
	}
	if CanReopen(nobody) {
		t.Fatal("anonymous actor must not reopen")
	}
}
