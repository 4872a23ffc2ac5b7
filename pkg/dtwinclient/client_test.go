package dtwinclient

import (
	"context"
	"testing"
)

func TestNew_RequiresGraphName(t *testing.T) {
	_, err := New(context.Background(), Config{})
	if err == nil {
		t.Fatal("expected an error when Graph is empty")
	}
}

func TestTranslateIfTDQL_PassesThroughPGQL(t *testing.T) {
	got, err := translateIfTDQL(`MATCH (t:Twin) RETURN t`, "mygraph")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != `MATCH (t:Twin) RETURN t` {
		t.Fatalf("got %q, want input unchanged", got)
	}
}

func TestTranslateIfTDQL_TranslatesSelect(t *testing.T) {
	got, err := translateIfTDQL(`SELECT * FROM DIGITALTWINS`, "mygraph")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == `SELECT * FROM DIGITALTWINS` {
		t.Fatal("expected SELECT input to be translated into PGQL")
	}
}
