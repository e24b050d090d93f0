package dialog

import (
	"errors"
	"testing"

	"github.com/iwvelando/use-of-proceeds/internal/proceeds"
)

func projectLoans() []proceeds.ProjectLoan {
	rate := 6.25
	term := 25
	return []proceeds.ProjectLoan{
		{LoanID: "L1", LoanType: "SBA 504", Amount: 500000, Rate: &rate, Term: &term, Status: "active"},
		{LoanID: "L2", LoanType: "Line of Credit", Amount: 50000, Status: "pending"},
	}
}

func TestAddColumnManualValidation(t *testing.T) {
	tests := []struct {
		name      string
		setup     func(d *AddColumn)
		canSubmit bool
	}{
		{
			name:      "Empty",
			setup:     func(d *AddColumn) {},
			canSubmit: false,
		},
		{
			name:      "Plain capital source",
			setup:     func(d *AddColumn) { d.SetName("Owner Equity") },
			canSubmit: true,
		},
		{
			name: "Loan missing rate",
			setup: func(d *AddColumn) {
				d.SetName("Bank Loan")
				d.SetLoan(true)
				d.SetTermYears("10")
			},
			canSubmit: false,
		},
		{
			name: "Loan missing term and amortization",
			setup: func(d *AddColumn) {
				d.SetName("Bank Loan")
				d.SetLoan(true)
				d.SetInterestRate("6")
			},
			canSubmit: false,
		},
		{
			name: "Loan missing term with amortization override",
			setup: func(d *AddColumn) {
				d.SetName("Bank Loan")
				d.SetLoan(true)
				d.SetInterestRate("6")
				d.SetAmortizationMonths("120")
				d.SetTermYears("")
			},
			canSubmit: false,
		},
		{
			name: "Loan with zero rate",
			setup: func(d *AddColumn) {
				d.SetName("Bank Loan")
				d.SetLoan(true)
				d.SetInterestRate("0")
				d.SetTermYears("10")
			},
			canSubmit: false,
		},
		{
			name: "Loan with fractional term",
			setup: func(d *AddColumn) {
				d.SetName("Bank Loan")
				d.SetLoan(true)
				d.SetInterestRate("6")
				d.SetTermYears("2.5")
				d.SetAmortizationMonths("30")
			},
			canSubmit: false,
		},
		{
			name: "Complete loan",
			setup: func(d *AddColumn) {
				d.SetName("Bank Loan")
				d.SetLoan(true)
				d.SetInterestRate("6%")
				d.SetTermYears("10")
			},
			canSubmit: true,
		},
		{
			name: "Select mode without a loan",
			setup: func(d *AddColumn) {
				d.SetName("Bank Loan")
				d.SetLoan(true)
				_ = d.SetMode(LoanModeSelect)
			},
			canSubmit: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewAddColumn()
			tt.setup(d)
			if got := d.CanSubmit(); got != tt.canSubmit {
				t.Errorf("CanSubmit() = %v, expected %v (validate: %v)", got, tt.canSubmit, d.Validate())
			}
			if !tt.canSubmit {
				called := false
				err := d.Submit(func(proceeds.ColumnSpec) error { called = true; return nil })
				if !errors.Is(err, ErrIncomplete) {
					t.Errorf("Submit() error = %v, expected ErrIncomplete", err)
				}
				if called {
					t.Error("add callback must not run for an incomplete dialog")
				}
			}
		})
	}
}

func TestAddColumnAmortizationFollowsTerm(t *testing.T) {
	d := NewAddColumn()
	d.SetLoan(true)
	d.SetTermYears("10")
	if got := d.AmortizationMonths(); got != "120" {
		t.Fatalf("amortization = %q, expected 120", got)
	}

	d.SetAmortizationMonths("180")
	d.SetTermYears("20")
	if got := d.AmortizationMonths(); got != "180" {
		t.Errorf("overridden amortization changed to %q", got)
	}

	d.SetAmortizationMonths("")
	if got := d.AmortizationMonths(); got != "240" {
		t.Errorf("amortization = %q after clearing override, expected 240", got)
	}
}

func TestAddColumnManualSubmit(t *testing.T) {
	d := NewAddColumn()
	d.SetName("  Bank Loan ")
	d.SetLoan(true)
	d.SetInterestRate("6")
	d.SetTermYears("10")

	var got proceeds.ColumnSpec
	if err := d.Submit(func(spec proceeds.ColumnSpec) error { got = spec; return nil }); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	expected := proceeds.ColumnSpec{Name: "Bank Loan", IsLoan: true, InterestRate: 6, TermYears: 10, AmortizationMonths: 120}
	if got != expected {
		t.Errorf("spec = %+v, expected %+v", got, expected)
	}
	if d.Name() != "" || d.IsLoan() || d.InterestRate() != "" {
		t.Error("dialog not reset after successful submit")
	}
}

func TestAddColumnSubmitFailureKeepsInput(t *testing.T) {
	d := NewAddColumn()
	d.SetName("Equity")
	boom := errors.New("duplicate")
	if err := d.Submit(func(proceeds.ColumnSpec) error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("Submit() error = %v, expected %v", err, boom)
	}
	if d.Name() != "Equity" {
		t.Error("input lost after failed submit")
	}
}

func TestAddColumnSelectLoan(t *testing.T) {
	d := NewAddColumn()
	d.SetProjectLoans(projectLoans())
	d.SetName("typed name")

	if err := d.SelectLoan("missing"); !errors.Is(err, ErrUnknownLoan) {
		t.Fatalf("expected ErrUnknownLoan, got %v", err)
	}
	if err := d.SelectLoan("L1"); err != nil {
		t.Fatalf("SelectLoan() error = %v", err)
	}

	if !d.Locked() || d.Mode() != LoanModeSelect || !d.IsLoan() {
		t.Fatal("expected locked select mode after choosing a loan")
	}
	if d.Name() != "SBA 504" || d.InterestRate() != "6.25" || d.TermYears() != "25" || d.AmortizationMonths() != "300" {
		t.Errorf("fields = %q %q %q %q", d.Name(), d.InterestRate(), d.TermYears(), d.AmortizationMonths())
	}

	d.SetName("other")
	d.SetInterestRate("9")
	d.SetTermYears("1")
	d.SetAmortizationMonths("12")
	if d.Name() != "SBA 504" || d.InterestRate() != "6.25" || d.AmortizationMonths() != "300" {
		t.Error("locked fields were modified")
	}

	spec, err := d.Spec()
	if err != nil {
		t.Fatalf("Spec() error = %v", err)
	}
	if spec.Loan == nil || spec.Loan.LoanID != "L1" || spec.AmortizationMonths != 300 {
		t.Errorf("spec = %+v", spec)
	}

	if err := d.SetMode(LoanModeManual); err != nil {
		t.Fatal(err)
	}
	if d.Locked() || d.Name() != "" || d.InterestRate() != "" {
		t.Error("switching to manual must release the loan")
	}
	if err := d.SetMode("auto"); !errors.Is(err, ErrInvalidMode) {
		t.Errorf("expected ErrInvalidMode, got %v", err)
	}
}

func TestAddColumnSelectLoanWithoutTerms(t *testing.T) {
	d := NewAddColumn()
	d.SetProjectLoans(projectLoans())
	if err := d.SelectLoan("L2"); err != nil {
		t.Fatal(err)
	}
	if d.CanSubmit() {
		t.Error("a loan without rate and term must not be submittable")
	}
}

func TestAddColumnLateProjectLoans(t *testing.T) {
	d := NewAddColumn()
	d.SetName("Bank Loan")
	d.SetLoan(true)
	d.SetInterestRate("7")

	d.SetProjectLoans(projectLoans())
	if d.Name() != "Bank Loan" || d.InterestRate() != "7" || !d.IsLoan() {
		t.Error("late loan list disturbed in-progress input")
	}
	if len(d.ProjectLoans()) != 2 {
		t.Errorf("expected 2 loans, got %d", len(d.ProjectLoans()))
	}

	if err := d.SelectLoan("L1"); err != nil {
		t.Fatal(err)
	}
	d.SetProjectLoans(nil)
	if loan, ok := d.SelectedLoan(); !ok || loan.LoanID != "L1" {
		t.Error("replacing the loan list dropped the selection")
	}
}

func TestAddColumnCancel(t *testing.T) {
	d := NewAddColumn()
	d.SetProjectLoans(projectLoans())
	if err := d.SelectLoan("L1"); err != nil {
		t.Fatal(err)
	}
	d.Cancel()

	if d.Name() != "" || d.IsLoan() || d.Locked() || d.Mode() != LoanModeManual {
		t.Error("cancel did not reset the dialog")
	}
	if len(d.ProjectLoans()) != 2 {
		t.Error("cancel must keep the project loan list")
	}
}

func TestAddColumnApply(t *testing.T) {
	tests := []struct {
		name    string
		in      ColumnInput
		wantErr error
		check   func(t *testing.T, spec proceeds.ColumnSpec)
	}{
		{
			name: "Plain source ignores loan fields",
			in:   ColumnInput{Name: "Grant", InterestRate: "5"},
			check: func(t *testing.T, spec proceeds.ColumnSpec) {
				if spec.IsLoan || spec.Name != "Grant" || spec.InterestRate != 0 {
					t.Errorf("unexpected spec %+v", spec)
				}
			},
		},
		{
			name: "Manual terms derive amortization",
			in:   ColumnInput{Name: "Bank Loan", IsLoan: true, InterestRate: "6%", TermYears: "10"},
			check: func(t *testing.T, spec proceeds.ColumnSpec) {
				if spec.InterestRate != 6 || spec.TermYears != 10 || spec.AmortizationMonths != 120 || spec.Loan != nil {
					t.Errorf("unexpected spec %+v", spec)
				}
			},
		},
		{
			name: "Manual amortization override",
			in:   ColumnInput{Name: "Balloon", IsLoan: true, Mode: "Manual", InterestRate: "7", TermYears: "5", AmortizationMonths: "300"},
			check: func(t *testing.T, spec proceeds.ColumnSpec) {
				if spec.TermYears != 5 || spec.AmortizationMonths != 300 {
					t.Errorf("unexpected spec %+v", spec)
				}
			},
		},
		{
			name: "Loan id implies select mode",
			in:   ColumnInput{Name: "typed", IsLoan: true, LoanID: "L1", InterestRate: "9"},
			check: func(t *testing.T, spec proceeds.ColumnSpec) {
				if spec.Name != "SBA 504" || spec.InterestRate != 6.25 || spec.AmortizationMonths != 300 || spec.Loan == nil {
					t.Errorf("selected loan not applied: %+v", spec)
				}
			},
		},
		{
			name:    "Unknown mode",
			in:      ColumnInput{Name: "x", IsLoan: true, Mode: "auto"},
			wantErr: ErrInvalidMode,
		},
		{
			name:    "Unknown loan",
			in:      ColumnInput{IsLoan: true, Mode: "select", LoanID: "L9"},
			wantErr: ErrUnknownLoan,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewAddColumn()
			d.SetProjectLoans(projectLoans())
			err := d.Apply(tt.in)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Apply() error = %v, expected %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Apply() error = %v", err)
			}
			spec, err := d.Spec()
			if err != nil {
				t.Fatalf("Spec() error = %v", err)
			}
			tt.check(t, spec)
		})
	}
}
