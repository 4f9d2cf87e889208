package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func useSQLite(t *testing.T) {
	t.Helper()
	t.Setenv("DATA_BACKEND", "sqlite")
	t.Setenv("SQLITE_DB_PATH", filepath.Join(t.TempDir(), "ledger.db"))
}

func TestSeedThenQuery(t *testing.T) {
	useSQLite(t)

	out, err := run(t, "seed")
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if got := strings.Count(out, "created"); got != 3 {
		t.Fatalf("seed output:\n%s", out)
	}

	out, err = run(t, "balance", "--to", "2024-01-10")
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if strings.TrimSpace(out) != "100.00" {
		t.Fatalf("balance = %q", out)
	}

	out, err = run(t, "report", "--from", "2024-01-10", "--to", "2024-01-10", "--daybook", "--csv")
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if !strings.Contains(out, ",Opening balance,100.00,,Closing balance,70.00") {
		t.Fatalf("report csv:\n%s", out)
	}

	out, err = run(t, "report", "--from", "2024-01-01", "--to", "2024-01-31")
	if err != nil {
		t.Fatalf("report json: %v", err)
	}
	if !strings.Contains(out, `"income": 150.00`) || !strings.Contains(out, `"expense": 30.00`) {
		t.Fatalf("report json:\n%s", out)
	}
}

func TestSeedFromFile(t *testing.T) {
	useSQLite(t)
	path := filepath.Join(t.TempDir(), "seed.yaml")
	data := `transactions:
  - amount: 12.5
    type: expense
    date: 2024-03-01
    description: Stamps
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := run(t, "seed", "--file", path); err != nil {
		t.Fatalf("seed: %v", err)
	}
	out, err := run(t, "balance", "--to", "2024-03-02")
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if strings.TrimSpace(out) != "-12.50" {
		t.Fatalf("balance = %q", out)
	}
}

func TestSeedRejectsInvalidRows(t *testing.T) {
	useSQLite(t)
	path := filepath.Join(t.TempDir(), "seed.yaml")
	if err := os.WriteFile(path, []byte("transactions:\n  - amount: -1\n    type: income\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := run(t, "seed", "--file", path); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestMigrate(t *testing.T) {
	useSQLite(t)
	out, err := run(t, "migrate")
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if !strings.Contains(out, "schema version") || !strings.Contains(out, "dirty=false") {
		t.Fatalf("migrate output %q", out)
	}

	out, err = run(t, "migrate", "--backend", "memory")
	if err != nil {
		t.Fatalf("migrate memory: %v", err)
	}
	if !strings.Contains(out, "no schema") {
		t.Fatalf("migrate memory output %q", out)
	}
}

func TestReportErrors(t *testing.T) {
	t.Setenv("DATA_BACKEND", "memory")
	if _, err := run(t, "report", "--from", "2024-02-01", "--to", "2024-01-01"); err == nil {
		t.Fatal("expected range error")
	}
	if _, err := run(t, "balance"); err == nil {
		t.Fatal("expected missing flag error")
	}
}
