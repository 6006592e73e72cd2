package main

import (
	"strconv"

	"github.com/rotisserie/eris"
)

func parseBoolFlag(name, v string) (bool, error) {
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, eris.Errorf("--%s: expected true or false, got %q", name, v)
	}
	return b, nil
}
