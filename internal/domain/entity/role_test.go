package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRole_IsValid(t *testing.T) {
	assert.True(t, RoleUser.IsValid())
	assert.True(t, RoleAdmin.IsValid())
	assert.False(t, Role("merchant").IsValid())
	assert.False(t, Role("").IsValid())
}

func TestRole_Scopes(t *testing.T) {
	assert.Equal(t, []Scope{ScopeReadProfile}, RoleUser.Scopes())
	assert.ElementsMatch(t,
		[]Scope{ScopeAdmin, ScopeReadProfile, ScopeWriteProfile},
		RoleAdmin.Scopes(),
	)

	// Unknown roles fall back to the least privilege.
	assert.Equal(t, []Scope{ScopeReadProfile}, Role("other").Scopes())
}
