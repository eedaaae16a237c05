package repositories

import "errors"

// errDB is a generic database failure used across repository tests.
var errDB = errors.New("database failure")
