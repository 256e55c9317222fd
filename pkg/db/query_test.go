package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContainsPattern(t *testing.T) {
	assert.Equal(t, "%abc trading%", ContainsPattern("  ABC Trading "))
	assert.Equal(t, `%50\% off\_x%`, ContainsPattern("50% off_x"))
	assert.Equal(t, `%a\\b%`, ContainsPattern(`a\b`))
}
