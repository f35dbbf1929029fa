package authz

import "testing"

func TestCompileEq(t *testing.T) {
	clause, args := CompileSQL(Eq("creator_id", int64(7)), 1)
	if clause != "creator_id = $1" {
		t.Fatalf("unexpected clause %q", clause)
	}
	if len(args) != 1 || args[0] != int64(7) {
		t.Fatalf("unexpected args %v", args)
	}
}

func TestCompileNested(t *testing.T) {
	p := And(
		Or(Eq("creator_id", int64(1)), Eq("assignee_id", int64(1))),
		Eq("status", "open"),
	)
	clause, args := CompileSQL(p, 3)
	want := "((creator_id = $3 OR assignee_id = $4) AND status = $5)"
	if clause != want {
		t.Fatalf("expected %q got %q", want, clause)
	}
	if len(args) != 3 {
		t.Fatalf("expected 3 args got %d", len(args))
	}
}

func TestCompileReportsOf(t *testing.T) {
	clause, args := CompileSQL(ReportsOf("assignee_id", 20), 1)
	want := "assignee_id IN (SELECT id FROM users WHERE manager_id = $1)"
	if clause != want {
		t.Fatalf("expected %q got %q", want, clause)
	}
	if len(args) != 1 || args[0] != int64(20) {
		t.Fatalf("unexpected args %v", args)
	}
}

func TestCompileIn(t *testing.T) {
	clause, args := CompileSQL(In("status", "open", "done"), 1)
	if clause != "status IN ($1, $2)" {
		t.Fatalf("unexpected clause %q", clause)
	}
	if len(args) != 2 {
		t.Fatalf("unexpected args %v", args)
	}
}

func TestInWithoutValuesMatchesNothing(t *testing.T) {
	clause, _ := CompileSQL(In("status"), 1)
	if clause != "FALSE" {
		t.Fatalf("expected FALSE got %q", clause)
	}
}

func TestAndSimplification(t *testing.T) {
	clause, _ := CompileSQL(And(True(), Eq("id", int64(1))), 1)
	if clause != "id = $1" {
		t.Fatalf("expected True dropped, got %q", clause)
	}
	clause, _ = CompileSQL(And(False(), Eq("id", int64(1))), 1)
	if clause != "FALSE" {
		t.Fatalf("expected False collapse, got %q", clause)
	}
	clause, _ = CompileSQL(And(), 1)
	if clause != "TRUE" {
		t.Fatalf("empty conjunction should be TRUE, got %q", clause)
	}
}

func TestOrSimplification(t *testing.T) {
	clause, _ := CompileSQL(Or(False(), Eq("id", int64(1))), 1)
	if clause != "id = $1" {
		t.Fatalf("expected False dropped, got %q", clause)
	}
	clause, _ = CompileSQL(Or(True(), Eq("id", int64(1))), 1)
	if clause != "TRUE" {
		t.Fatalf("expected True collapse, got %q", clause)
	}
	clause, _ = CompileSQL(Or(), 1)
	if clause != "FALSE" {
		t.Fatalf("empty disjunction should be FALSE, got %q", clause)
	}
}
