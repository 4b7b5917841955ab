package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMigrationsOrdered(t *testing.T) {
	seen := make(map[int]bool)
	prev := 0
	for _, m := range migrations {
		assert.Greater(t, m.Version, prev, "migration %d out of order", m.Version)
		assert.False(t, seen[m.Version], "duplicate migration %d", m.Version)
		assert.NotEmpty(t, m.SQL)
		seen[m.Version] = true
		prev = m.Version
	}
}
