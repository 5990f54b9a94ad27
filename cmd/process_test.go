package cmd

import (
	"strings"
	"testing"

	"github.com/google/subcommands"
)

const exampleCSV = `type, client, tx, amount
deposit, 1, 1, 1.0
deposit, 2, 2, 2.0
deposit, 1, 3, 2.0
withdrawal, 1, 4, 1.5
withdrawal, 2, 5, 3.0
`

func TestProcessCSV(t *testing.T) {
	out := quiet(t)
	file := createTempEvents(t, "events.csv", exampleCSV)

	status := execute(t, &processCmd{}, file)
	if status != subcommands.ExitSuccess {
		t.Fatalf("Expected ExitSuccess, got %v", status)
	}

	want := "client,available,held,total,locked\n1,1.5,0,1.5,false\n2,2,0,2,false\n"
	if got := out.String(); got != want {
		t.Errorf("process output mismatch.\nGot:\n%s\nWant:\n%s", got, want)
	}
}

func TestProcessJSONL(t *testing.T) {
	out := quiet(t)
	file := createTempEvents(t, "events.jsonl", `{"type":"deposit","client":4,"tx":1,"amount":"10"}
{"type":"deposit","client":4,"tx":2,"amount":2.5}
{"type":"dispute","client":4,"tx":2}
`)

	status := execute(t, &processCmd{}, "-o", "jsonl", file)
	if status != subcommands.ExitSuccess {
		t.Fatalf("Expected ExitSuccess, got %v", status)
	}

	want := `{"client":4,"available":10,"held":2.5,"total":12.5,"locked":false}` + "\n"
	if got := out.String(); got != want {
		t.Errorf("process output mismatch.\nGot:\n%s\nWant:\n%s", got, want)
	}
}

func TestProcessJSONPath(t *testing.T) {
	out := quiet(t)
	file := createTempEvents(t, "batch.json", `{"transactions":[{"type":"deposit","client":1,"tx":1,"amount":"3"}]}`)

	status := execute(t, &processCmd{}, "-path", "$.transactions[*]", file)
	if status != subcommands.ExitSuccess {
		t.Fatalf("Expected ExitSuccess, got %v", status)
	}
	if got, want := out.String(), "client,available,held,total,locked\n1,3,0,3,false\n"; got != want {
		t.Errorf("process output mismatch.\nGot:\n%s\nWant:\n%s", got, want)
	}
}

func TestProcessMarkdown(t *testing.T) {
	out := quiet(t)
	file := createTempEvents(t, "events.csv", exampleCSV)

	status := execute(t, &processCmd{}, "-o", "markdown", file)
	if status != subcommands.ExitSuccess {
		t.Fatalf("Expected ExitSuccess, got %v", status)
	}
	got := out.String()
	for _, want := range []string{"# Accounts", "## Totals", "4 applied, 1 rejected.", "insufficient_funds"} {
		if !strings.Contains(got, want) {
			t.Errorf("markdown output should contain %q, got:\n%s", want, got)
		}
	}
}

func TestProcessMissingHeader(t *testing.T) {
	out := quiet(t)
	file := createTempEvents(t, "events.csv", "deposit, 1, 1, 1.0\n")

	status := execute(t, &processCmd{}, file)
	if status != subcommands.ExitFailure {
		t.Errorf("Expected ExitFailure, got %v", status)
	}
	// the accounts are printed anyway.
	if got, want := out.String(), "client,available,held,total,locked\n"; got != want {
		t.Errorf("process output mismatch.\nGot:\n%s\nWant:\n%s", got, want)
	}
}

func TestProcessUsageErrors(t *testing.T) {
	quiet(t)
	file := createTempEvents(t, "events.csv", exampleCSV)

	tests := []struct {
		name string
		args []string
	}{
		{"no file", nil},
		{"two files", []string{file, file}},
		{"json output", []string{"-o", "json", file}},
		{"unknown output", []string{"-o", "xml", file}},
		{"markdown input", []string{"-f", "markdown", file}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if status := execute(t, &processCmd{}, tt.args...); status != subcommands.ExitUsageError {
				t.Errorf("Expected ExitUsageError, got %v", status)
			}
		})
	}
}

func TestProcessDisputeWindow(t *testing.T) {
	out := quiet(t)
	old := *disputeWindow
	*disputeWindow = 1
	defer func() { *disputeWindow = old }()

	file := createTempEvents(t, "events.csv", `type, client, tx, amount
deposit, 1, 1, 5
deposit, 1, 2, 3
dispute, 1, 1
dispute, 1, 2
`)
	if status := execute(t, &processCmd{}, file); status != subcommands.ExitSuccess {
		t.Fatalf("Expected ExitSuccess, got %v", status)
	}
	if got, want := out.String(), "client,available,held,total,locked\n1,5,3,8,false\n"; got != want {
		t.Errorf("process output mismatch.\nGot:\n%s\nWant:\n%s", got, want)
	}
}

func TestConvert(t *testing.T) {
	out := quiet(t)
	file := createTempEvents(t, "events.csv", `type, client, tx, amount
deposit, 1, 1, 1.25
withdrawal, 1, 2, 9
deposit, 1, 3, abc
dispute, 1, 1,
`)

	if status := execute(t, &convertCmd{}, file); status != subcommands.ExitSuccess {
		t.Fatalf("Expected ExitSuccess, got %v", status)
	}

	want := `{"type":"deposit","client":1,"tx":1,"amount":1.25}
{"type":"withdrawal","client":1,"tx":2,"amount":9}
{"type":"dispute","client":1,"tx":1}
`
	if got := out.String(); got != want {
		t.Errorf("convert output mismatch.\nGot:\n%s\nWant:\n%s", got, want)
	}
}

func TestReportUnknownCurrency(t *testing.T) {
	quiet(t)
	file := createTempEvents(t, "events.csv", exampleCSV)

	if status := execute(t, &reportCmd{}, "-currency", "XXQ", file); status != subcommands.ExitUsageError {
		t.Errorf("Expected ExitUsageError, got %v", status)
	}
}

func TestExportWithoutDatabase(t *testing.T) {
	quiet(t)
	old := *databaseURL
	*databaseURL = ""
	defer func() { *databaseURL = old }()
	file := createTempEvents(t, "events.csv", exampleCSV)

	if status := execute(t, &exportCmd{}, file); status != subcommands.ExitFailure {
		t.Errorf("Expected ExitFailure, got %v", status)
	}
}

func TestReport(t *testing.T) {
	out := quiet(t)
	file := createTempEvents(t, "events.csv", exampleCSV)

	if status := execute(t, &reportCmd{}, "-currency", "USD", file); status != subcommands.ExitSuccess {
		t.Fatalf("Expected ExitSuccess, got %v", status)
	}
	got := out.String()
	for _, want := range []string{"Accounts after events.csv", "$1.5000", "$3.5000", "insufficient_funds"} {
		if !strings.Contains(got, want) {
			t.Errorf("report should contain %q, got:\n%s", want, got)
		}
	}
}

func TestReportPartialInput(t *testing.T) {
	out := quiet(t)
	// the second line is longer than a JSON lines scanner accepts.
	file := createTempEvents(t, "events.jsonl", `{"type":"deposit","client":5,"tx":1,"amount":"4"}
`+strings.Repeat("x", 100000)+"\n")

	if status := execute(t, &reportCmd{}, file); status != subcommands.ExitFailure {
		t.Errorf("Expected ExitFailure, got %v", status)
	}
	got := out.String()
	for _, want := range []string{"Accounts after events.jsonl", "4.0000", "1 applied, 0 rejected."} {
		if !strings.Contains(got, want) {
			t.Errorf("report should contain %q, got:\n%s", want, got)
		}
	}
}
