package domain

import (
	"testing"
	"time"
)

func TestWorkedHours(t *testing.T) {
	tests := []struct {
		name    string
		in, out string
		want    float64
		wantErr bool
	}{
		{name: "full day", in: "08:00", out: "17:00", want: 9},
		{name: "with seconds", in: "08:00:00", out: "16:20:00", want: 8.33},
		{name: "overnight", in: "22:00", out: "06:30", want: 8.5},
		{name: "same time", in: "09:15", out: "09:15", want: 0},
		{name: "bad check-in", in: "8am", out: "17:00", wantErr: true},
		{name: "bad check-out", in: "08:00", out: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := WorkedHours(tt.in, tt.out)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %v hours, got %v", tt.want, got)
			}
		})
	}
}

func TestParseStep(t *testing.T) {
	for i, st := range Steps() {
		got, err := ParseStep(st.String())
		if err != nil {
			t.Fatalf("parse %q: %v", st, err)
		}
		if got != st {
			t.Fatalf("expected %q, got %q", st, got)
		}
		if got.Index() != i {
			t.Fatalf("expected %q at index %d, got %d", st, i, got.Index())
		}
	}

	if _, err := ParseStep("shipping"); err == nil {
		t.Fatal("expected error for unknown step")
	}
	if Step("shipping").Index() != -1 {
		t.Fatal("expected -1 index for unknown step")
	}
}

func TestStepsReturnsCopy(t *testing.T) {
	s := Steps()
	s[0] = StepPerformance
	if Steps()[0] != StepInput {
		t.Fatal("Steps must not expose the internal order")
	}
}

func TestUserPatchApply(t *testing.T) {
	u := &User{Name: "Old", Role: RoleKurir, Phone: "0811", Status: UserStatusActive}

	name := "New"
	role := RolePIC
	UserPatch{Name: &name, Role: &role}.Apply(u)

	if u.Name != "New" || u.Role != RolePIC {
		t.Fatalf("patch not applied: %+v", u)
	}
	if u.Phone != "0811" || u.Status != UserStatusActive {
		t.Fatalf("unset fields changed: %+v", u)
	}
}

func TestShipmentPatchStampsDelivery(t *testing.T) {
	now := time.Date(2025, 3, 1, 14, 0, 0, 0, time.UTC)

	s := &Shipment{Status: ShipmentInTransit}
	status := ShipmentDelivered
	ShipmentPatch{Status: &status}.Apply(s, now)

	if s.TanggalTerkirim == nil || !s.TanggalTerkirim.Equal(now) {
		t.Fatalf("expected delivery stamped at %v, got %v", now, s.TanggalTerkirim)
	}

	// An explicit or existing stamp is kept.
	earlier := now.Add(-time.Hour)
	s2 := &Shipment{Status: ShipmentInTransit}
	ShipmentPatch{Status: &status, TanggalTerkirim: &earlier}.Apply(s2, now)
	if !s2.TanggalTerkirim.Equal(earlier) {
		t.Fatalf("expected %v, got %v", earlier, s2.TanggalTerkirim)
	}
	ShipmentPatch{}.Apply(s2, now.Add(time.Hour))
	if !s2.TanggalTerkirim.Equal(earlier) {
		t.Fatalf("empty patch moved the stamp to %v", s2.TanggalTerkirim)
	}

	pending := ShipmentPending
	s3 := &Shipment{Status: ShipmentInTransit}
	ShipmentPatch{Status: &pending}.Apply(s3, now)
	if s3.TanggalTerkirim != nil {
		t.Fatal("non-delivered status must not stamp delivery")
	}
}

func TestDecisionApply(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	a := &ApprovalRequest{Status: ApprovalPending, Notes: "keep"}

	Decision{Status: ApprovalApproved, ApprovedBy: "ADMIN1"}.Apply(a, now)
	if a.Status != ApprovalApproved || a.ApprovedBy != "ADMIN1" {
		t.Fatalf("decision not applied: %+v", a)
	}
	if a.ApprovedAt == nil || !a.ApprovedAt.Equal(now) {
		t.Fatalf("expected approval time %v, got %v", now, a.ApprovedAt)
	}
	if a.Notes != "keep" {
		t.Fatalf("nil notes must keep existing notes, got %q", a.Notes)
	}

	notes := "wrong area"
	Decision{Status: ApprovalRejected, ApprovedBy: "ADMIN2", Notes: &notes}.Apply(a, now)
	if a.Notes != notes {
		t.Fatalf("expected notes %q, got %q", notes, a.Notes)
	}
}

func TestValidators(t *testing.T) {
	if !ValidDecision(ApprovalApproved) || !ValidDecision(ApprovalRejected) || ValidDecision(ApprovalPending) {
		t.Fatal("ValidDecision accepts only final statuses")
	}
	if !Role("kurir").Valid() || Role("driver").Valid() {
		t.Fatal("unexpected Role.Valid result")
	}
	if !ValidShipmentStatus(ShipmentReturned) || ValidShipmentStatus("lost") {
		t.Fatal("unexpected ValidShipmentStatus result")
	}
	if !ValidAttendanceStatus(AttendanceLate) || ValidAttendanceStatus("cuti") {
		t.Fatal("unexpected ValidAttendanceStatus result")
	}
}
