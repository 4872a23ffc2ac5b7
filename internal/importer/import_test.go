package importer

import (
	"errors"
	"testing"

	"github.com/evalgo/digitaltwins/internal/jobs"
)

var errInjected = errors.New("injected failure")

func TestSectionRank_OrdersModelsTwinsRelationships(t *testing.T) {
	models, ok := sectionRank("Models")
	if !ok || models != sectionModels {
		t.Fatalf("sectionRank(Models) = %v, %v", models, ok)
	}
	twins, _ := sectionRank("Twins")
	rels, _ := sectionRank("Relationships")
	if !(models < twins && twins < rels) {
		t.Fatalf("expected Models < Twins < Relationships, got %v < %v < %v", models, twins, rels)
	}
	if _, ok := sectionRank("Bogus"); ok {
		t.Fatal("expected unknown section name to be rejected")
	}
}

func TestRecordFailure_AbortsWithoutContinueOnFailure(t *testing.T) {
	imp := &Importer{}
	st := &importState{outcome: jobs.JobOutcome{Errors: map[string]string{}}}

	cont := imp.recordFailure(st, "line 3", errInjected, Options{ContinueOnFailure: false})
	if cont {
		t.Fatal("expected recordFailure to signal stop when ContinueOnFailure is false")
	}
	if st.outcome.Status != jobs.StatusFailed {
		t.Fatalf("status = %v, want Failed", st.outcome.Status)
	}
	if st.outcome.ErrorCount != 1 {
		t.Fatalf("error count = %d, want 1", st.outcome.ErrorCount)
	}
}

func TestRecordFailure_ContinuesAndEndsPartiallySucceeded(t *testing.T) {
	imp := &Importer{}
	st := &importState{outcome: jobs.JobOutcome{Errors: map[string]string{}}}

	cont := imp.recordFailure(st, "line 3", errInjected, Options{ContinueOnFailure: true})
	if !cont {
		t.Fatal("expected recordFailure to signal continue when ContinueOnFailure is true")
	}

	final := imp.finalOutcome(st)
	if final.Status != jobs.StatusPartiallySucceeded {
		t.Fatalf("final status = %v, want PartiallySucceeded", final.Status)
	}
}

func TestFinalOutcome_SucceededWhenNoErrors(t *testing.T) {
	imp := &Importer{}
	st := &importState{outcome: jobs.JobOutcome{Errors: map[string]string{}, TwinsCreated: 2}}

	final := imp.finalOutcome(st)
	if final.Status != jobs.StatusSucceeded {
		t.Fatalf("final status = %v, want Succeeded", final.Status)
	}
}

