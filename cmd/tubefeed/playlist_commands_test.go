package main

import "testing"

func TestPlaylistLifecycle(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env, "playlist", "create", "later")
	if err != nil {
		t.Fatalf("playlist create: %v", err)
	}
	requireContains(t, out, "Created playlist later")

	if _, _, err = runCLI(t, env, "playlist", "create", "later"); err == nil {
		t.Fatal("duplicate playlist create should fail")
	}

	out, _, err = runCLI(t, env, "playlist", "list")
	if err != nil {
		t.Fatalf("playlist list: %v", err)
	}
	requireContains(t, out, "later")

	out, _, err = runCLI(t, env, "playlist", "show", "later")
	if err != nil {
		t.Fatalf("playlist show: %v", err)
	}
	requireContains(t, out, "Playlist is empty")

	if out, _, err = runCLI(t, env, "playlist", "rm", "later"); err != nil {
		t.Fatalf("playlist rm: %v", err)
	}
	requireContains(t, out, "Deleted playlist later")

	if _, _, err = runCLI(t, env, "playlist", "show", "later"); err == nil {
		t.Fatal("showing a deleted playlist should fail")
	}
}
