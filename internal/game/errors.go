package game

import "errors"

// ErrUserNotFound marks a user id with no account behind it.
var ErrUserNotFound = errors.New("user not found")

// ErrUsernameTaken marks an account-creation collision.
var ErrUsernameTaken = errors.New("username already exists")

// ErrUnknownSong marks a play report for a song id the pool never issued.
var ErrUnknownSong = errors.New("unknown song id")
