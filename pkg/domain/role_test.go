package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestParseRole(t *testing.T) {
	assert.Equal(t, RoleAdmin, ParseRole("  Admin "))
	assert.Equal(t, RoleEmployee, ParseRole("employee"))
	assert.Equal(t, Role("auditor"), ParseRole("AUDITOR"))
	assert.True(t, ParseRole("  ").IsZero())
}

func TestRefIsZero(t *testing.T) {
	assert.True(t, Ref{}.IsZero())
	assert.True(t, Ref{Name: "orphan"}.IsZero())
	assert.False(t, Ref{ID: uuid.New()}.IsZero())
}
