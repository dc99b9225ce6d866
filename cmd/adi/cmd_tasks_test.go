package main

import "testing"

func TestParseTaskID(t *testing.T) {
	id, err := parseTaskID("42")
	if err != nil {
		t.Fatalf("parseTaskID: %v", err)
	}
	if id != 42 {
		t.Fatalf("expected 42, got %d", id)
	}
}

func TestParseTaskIDRejectsNonNumeric(t *testing.T) {
	if _, err := parseTaskID("abc"); err == nil {
		t.Fatal("expected an error for a non-numeric task id")
	}
}
