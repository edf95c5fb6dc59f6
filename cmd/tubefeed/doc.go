// Command tubefeed tracks video subscriptions, watch history, and
// playlists locally, resolving metadata without an account.
package main
