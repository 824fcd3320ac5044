package server

import "github.com/zsiec/cadence/internal/errors"

func errNoSession() error {
	return errors.NewNotFoundError("conversion session")
}
