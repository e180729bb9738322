package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	for _, k := range []string{"ID_PREFIX", "TOP_LEVEL_DEPTH", "PLACEHOLDER_BODY", "ROOT_PATH", "CLEAR_COMPLETED_ON_START"} {
		t.Setenv(k, "")
	}
	var out, errOut bytes.Buffer
	cmd := newRootCmd(strings.NewReader(stdin), &out, &errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func tempDoc(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "plan.md")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func fileText(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

const planText = "# Plan\n\n## R1 [completed] Setup\n\nsetup notes\n\n### R1.1 Tools\n\n## R2 Build\n\nSee [design](./docs/design.md).\n"

func TestList(t *testing.T) {
	path := tempDoc(t, planText)
	out, err := run(t, "", "-f", path, "list")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "R1 [x] Setup\n  R1.1 Tools\nR2 Build\n"
	if out != want {
		t.Errorf("expected %q, got %q", want, out)
	}
}

func TestFileFlagRequired(t *testing.T) {
	if _, err := run(t, "", "list"); err == nil {
		t.Fatal("expected error without --file")
	}
}

func TestAddAndStatusCommands(t *testing.T) {
	path := tempDoc(t, planText)

	out, err := run(t, "", "-f", path, "add-sub", "R2", "Survey users")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "R2.1\n" {
		t.Errorf("expected R2.1, got %q", out)
	}
	if _, err := run(t, "", "-f", path, "start", "R2.1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := run(t, "", "-f", path, "reset", "R1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out, err = run(t, "", "-f", path, "add", "Ship", "--body", "release it")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "R3\n" {
		t.Errorf("expected R3, got %q", out)
	}

	want := "# Plan\n\n## R1 Setup\n\nsetup notes\n\n### R1.1 Tools\n\n## R2 Build\n\nSee [design](./docs/design.md).\n\n" +
		"### R2.1 [in_progress] Survey users\n\n_No description yet._\n\n## R3 Ship\n\nrelease it\n"
	if got := fileText(t, path); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestSetBodyFromStdin(t *testing.T) {
	path := tempDoc(t, planText)
	if _, err := run(t, "new notes\n\n- one\n", "-f", path, "set-body", "R1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out, err := run(t, "", "-f", path, "show", "R1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "## R1 [completed] Setup\n\nnew notes\n\n- one\n\nsubtasks: R1.1\n"
	if out != want {
		t.Errorf("expected %q, got %q", want, out)
	}
}

func TestDeleteAndErrors(t *testing.T) {
	path := tempDoc(t, planText)
	if _, err := run(t, "", "-f", path, "delete", "R1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(fileText(t, path), "R1") {
		t.Error("expected R1 and its subtree gone")
	}
	_, err := run(t, "", "-f", path, "done", "R1")
	if err == nil || !strings.Contains(err.Error(), "not_found") {
		t.Errorf("expected not_found error, got %v", err)
	}
}

func TestNextIDAndLinks(t *testing.T) {
	path := tempDoc(t, planText)

	out, err := run(t, "", "-f", path, "next-id")
	if err != nil || out != "R3\n" {
		t.Errorf("expected R3, got %q, %v", out, err)
	}
	out, err = run(t, "", "-f", path, "next-id", "R1")
	if err != nil || out != "R1.2\n" {
		t.Errorf("expected R1.2, got %q, %v", out, err)
	}

	root := filepath.Dir(path)
	out, err = run(t, "", "-f", path, "--root", root, "links", "R2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "./docs/design.md\tdocs/design.md\n" {
		t.Errorf("unexpected links output %q", out)
	}

	out, err = run(t, "", "-f", path, "--root", root, "resolve", "./a/./b.md")
	if err != nil || out != "a/b.md\n" {
		t.Errorf("expected a/b.md, got %q, %v", out, err)
	}
}

func TestStructuredOutput(t *testing.T) {
	path := tempDoc(t, planText)

	out, err := run(t, "", "-f", path, "--format", "yaml", "add", "Ship")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "id: R3\nop: insert_main\n" {
		t.Errorf("unexpected yaml %q", out)
	}

	out, err = run(t, "", "-f", path, "--format", "json", "show", "R1.1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, `"id": "R1.1"`) || !strings.Contains(out, `"level": 1`) {
		t.Errorf("unexpected json %q", out)
	}

	if _, err := run(t, "", "-f", path, "--format", "xml", "list"); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestRelativeFileAndRoot(t *testing.T) {
	path := tempDoc(t, planText)
	dir := filepath.Dir(path)
	t.Chdir(dir)

	out, err := run(t, "", "-f", "plan.md", "--root", dir, "links", "R2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "./docs/design.md\tdocs/design.md\n" {
		t.Errorf("unexpected links output %q", out)
	}

	out, err = run(t, "", "-f", "plan.md", "resolve", "./a/./b.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := filepath.Join(dir, "a", "b.md") + "\n"; out != want {
		t.Errorf("expected %q, got %q", want, out)
	}

	out, err = run(t, "", "-f", "plan.md", "--root", ".", "resolve", "./a/./b.md")
	if err != nil || out != "a/b.md\n" {
		t.Errorf("expected a/b.md, got %q, %v", out, err)
	}
}
