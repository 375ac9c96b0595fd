// Package contentstore keeps image bytes under generated names and hands out
// references that can later be used to fetch or delete them.
package contentstore

import (
	"errors"
	"strings"
)

var (
	ErrNotFound         = errors.New("content not found")
	ErrInvalidReference = errors.New("invalid content reference")
)

// nameFromRef strips prefix from ref and returns the object name. Only flat
// names are accepted so a reference can never point outside the store.
func nameFromRef(prefix, ref string) (string, error) {
	name, ok := strings.CutPrefix(ref, prefix+"/")
	if !ok || !validName(name) {
		return "", ErrInvalidReference
	}

	return name, nil
}

func validName(name string) bool {
	return name != "" && name != "." && name != ".." && !strings.ContainsAny(name, `/\`)
}
