package store

import (
	"strings"

	"github.com/google/uuid"
)

func newID() string {
	return uuid.NewString()
}

func clean(v string) string {
	return strings.TrimSpace(v)
}
