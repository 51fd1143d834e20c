package employee

import "testing"

func TestInputValidate(t *testing.T) {
	valid := Input{Name: "Asha", Username: "asha", Password: "Secret123", Role: "Engineer", Exp: 2, WorkingHours: 160}

	tests := []struct {
		name      string
		mutate    func(in *Input)
		wantField string
	}{
		{name: "valid", mutate: func(in *Input) {}},
		{name: "missing name", mutate: func(in *Input) { in.Name = "" }, wantField: "name"},
		{name: "short username", mutate: func(in *Input) { in.Username = "ab" }, wantField: "username"},
		{name: "negative exp", mutate: func(in *Input) { in.Exp = -1 }, wantField: "exp"},
		{name: "negative hours", mutate: func(in *Input) { in.WorkingHours = -0.5 }, wantField: "working_hours"},
		{name: "negative loan", mutate: func(in *Input) { in.LoanBalance = -1 }, wantField: "loan_balance"},
		{name: "short password", mutate: func(in *Input) { in.Password = "short" }, wantField: "password"},
		{name: "empty password allowed", mutate: func(in *Input) { in.Password = "" }},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			in := valid
			tc.mutate(&in)
			issues := in.Validate()
			if tc.wantField == "" {
				if len(issues) != 0 {
					t.Fatalf("unexpected issues: %+v", issues)
				}
				return
			}
			if len(issues) != 1 || issues[0].Field != tc.wantField {
				t.Fatalf("expected single issue on %q, got %+v", tc.wantField, issues)
			}
		})
	}
}

func TestInputApplyDefaultsDepartment(t *testing.T) {
	var rec Record
	Input{Name: " Asha ", Username: "asha", Role: "Engineer"}.Apply(&rec)
	if rec.Name != "Asha" || rec.Department != "General" {
		t.Fatalf("unexpected record: %+v", rec)
	}
}
