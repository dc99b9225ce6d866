package main

import "testing"

func TestParseWorkflowInputs(t *testing.T) {
	got, err := parseWorkflowInputs([]string{"name=release", "env=prod=east"})
	if err != nil {
		t.Fatalf("parseWorkflowInputs: %v", err)
	}
	if got["name"] != "release" {
		t.Fatalf("expected name=release, got %q", got["name"])
	}
	// only the first '=' splits the flag, so the value may itself contain '='.
	if got["env"] != "prod=east" {
		t.Fatalf("expected env=prod=east, got %q", got["env"])
	}
}

func TestParseWorkflowInputsRejectsMissingEquals(t *testing.T) {
	if _, err := parseWorkflowInputs([]string{"noequalssign"}); err == nil {
		t.Fatal("expected an error for an input with no '='")
	}
}
