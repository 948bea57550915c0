package models

import (
	"testing"

	"seatime-backend/internal/compliance"
)

func intPtr(n int) *int       { return &n }
func strPtr(s string) *string { return &s }

func TestRegisterRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     RegisterRequest
		invalid []string
	}{
		{"valid", RegisterRequest{Email: "bosun@example.com", Password: "longenough", Name: "Ana"}, nil},
		{"bad email", RegisterRequest{Email: "bosun", Password: "longenough", Name: "Ana"}, []string{"email"}},
		{"short password", RegisterRequest{Email: "bosun@example.com", Password: "short", Name: "Ana"}, []string{"password"}},
		{"everything missing", RegisterRequest{}, []string{"email", "password", "name"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := tt.req.Validate()
			if len(errs) != len(tt.invalid) {
				t.Fatalf("expected %d errors, got %v", len(tt.invalid), errs)
			}
			for _, f := range tt.invalid {
				if _, ok := errs[f]; !ok {
					t.Errorf("expected error on %s, got %v", f, errs)
				}
			}
		})
	}
}

func TestRegisterRequest_Normalize(t *testing.T) {
	r := RegisterRequest{Email: "  Deck@Example.COM ", Name: " Ana ", Rank: " Bosun "}
	r.Normalize()
	if r.Email != "deck@example.com" || r.Name != "Ana" || r.Rank != "Bosun" {
		t.Errorf("unexpected normalized request %+v", r)
	}
}

func TestCreateVesselRequest_Validate(t *testing.T) {
	r := CreateVesselRequest{Name: " M/Y Aurora "}
	if errs := r.Validate(); len(errs) != 0 {
		t.Fatalf("unexpected errors %v", errs)
	}
	if r.VesselType != "motor_yacht" || r.Name != "M/Y Aurora" {
		t.Errorf("defaults not applied: %+v", r)
	}

	bad := CreateVesselRequest{Name: "X", VesselType: "submarine", IMONumber: strPtr("12AB"), GrossTonnage: intPtr(0)}
	errs := bad.Validate()
	for _, f := range []string{"name", "vesselType", "imoNumber", "grossTonnage"} {
		if _, ok := errs[f]; !ok {
			t.Errorf("expected error on %s, got %v", f, errs)
		}
	}
}

func TestUpsertStateLogRequest_Validate(t *testing.T) {
	r := UpsertStateLogRequest{State: " At_Anchor "}
	if errs := r.Validate(); len(errs) != 0 {
		t.Fatalf("unexpected errors %v", errs)
	}
	if r.ParsedState() != compliance.StateAtAnchor {
		t.Errorf("expected at_anchor, got %s", r.ParsedState())
	}

	bad := UpsertStateLogRequest{State: "drifting"}
	if errs := bad.Validate(); errs["state"] == "" {
		t.Error("expected state error")
	}
}

func TestGapFillRequest_Validate(t *testing.T) {
	r := GapFillRequest{Days: []string{"2026-10-15", "15/10/2026", "2026-10-16"}}
	errs := r.Validate()
	if len(errs) != 1 || errs["days[1]"] == "" {
		t.Fatalf("expected one error on days[1], got %v", errs)
	}
	if len(r.ParsedDays()) != 2 {
		t.Errorf("expected 2 parsed days, got %d", len(r.ParsedDays()))
	}
}

func TestCreateVisaAreaRequest_Validate(t *testing.T) {
	t.Run("preset resolved from name", func(t *testing.T) {
		r := CreateVisaAreaRequest{AreaName: "Schengen Area"}
		if errs := r.Validate(); len(errs) != 0 {
			t.Fatalf("unexpected errors %v", errs)
		}
		rule := r.ResolvedRule()
		if rule.RuleType != compliance.RuleRolling || rule.DaysAllowed != 90 || rule.PeriodDays != 180 {
			t.Errorf("unexpected rule %+v", rule)
		}
	})

	t.Run("unknown name without rule", func(t *testing.T) {
		r := CreateVisaAreaRequest{AreaName: "Atlantis"}
		if errs := r.Validate(); errs["ruleType"] == "" {
			t.Errorf("expected ruleType error, got %v", errs)
		}
	})

	t.Run("explicit rule", func(t *testing.T) {
		r := CreateVisaAreaRequest{AreaName: "Atlantis", RuleType: strPtr("Rolling"), DaysAllowed: intPtr(30), PeriodDays: intPtr(60)}
		if errs := r.Validate(); len(errs) != 0 {
			t.Fatalf("unexpected errors %v", errs)
		}
		if r.ResolvedRule().PeriodDays != 60 {
			t.Errorf("unexpected rule %+v", r.ResolvedRule())
		}
	})

	t.Run("explicit rule invalid", func(t *testing.T) {
		r := CreateVisaAreaRequest{AreaName: "Atlantis", RuleType: strPtr("rolling"), DaysAllowed: intPtr(30)}
		if errs := r.Validate(); errs["rule"] == "" {
			t.Errorf("expected rule error for missing period, got %v", errs)
		}
	})

	t.Run("missing name", func(t *testing.T) {
		r := CreateVisaAreaRequest{AreaName: "  "}
		if errs := r.Validate(); errs["areaName"] == "" {
			t.Errorf("expected areaName error, got %v", errs)
		}
	})
}

func TestVisaArea_Rule(t *testing.T) {
	a := VisaArea{RuleType: "rolling", DaysAllowed: 90, PeriodDays: intPtr(180)}
	if r := a.Rule(); r.Validate() != nil || r.PeriodDays != 180 {
		t.Errorf("unexpected rule %+v", r)
	}

	fixed := VisaArea{RuleType: "fixed", DaysAllowed: 90}
	if r := fixed.Rule(); r.PeriodDays != 0 || r.RuleType != compliance.RuleFixed {
		t.Errorf("unexpected rule %+v", r)
	}
}

func TestUpdateRoleRequest_Validate(t *testing.T) {
	for _, role := range []string{"crew", "admin", "super_admin"} {
		r := UpdateRoleRequest{Role: role}
		if errs := r.Validate(); len(errs) != 0 {
			t.Errorf("role %q: unexpected errors %v", role, errs)
		}
	}
	r := UpdateRoleRequest{Role: "captain"}
	if errs := r.Validate(); errs["role"] == "" {
		t.Error("unknown role should fail validation")
	}
}
