package main

import "testing"

func TestHistoryListEmpty(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env, "history", "list")
	if err != nil {
		t.Fatalf("history list: %v", err)
	}
	requireContains(t, out, "History is empty")
}

func TestHistoryClearRequiresConfirmation(t *testing.T) {
	env := setupCLITestEnv(t)

	if _, _, err := runCLI(t, env, "history", "clear"); err == nil {
		t.Fatal("clear without --yes should fail")
	}

	out, _, err := runCLI(t, env, "history", "clear", "--yes")
	if err != nil {
		t.Fatalf("history clear: %v", err)
	}
	requireContains(t, out, "History cleared")
}
