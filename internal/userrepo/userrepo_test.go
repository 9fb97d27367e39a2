package userrepo_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/etopay/sigilwallet/internal/userrepo"
)

func TestHasPasswordAndHasLocalShare(t *testing.T) {
	t.Parallel()

	u := userrepo.UserEntity{}
	assert.False(t, u.HasPassword())
	assert.False(t, u.HasLocalShare())

	u.EncryptedPassword = []byte{1, 2, 3}
	u.LocalShare = "ME-RS-N-AQID"
	assert.True(t, u.HasPassword())
	assert.True(t, u.HasLocalShare())
}
