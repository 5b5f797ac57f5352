//go:build !windows

package singleinstance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquire_SecondFails(t *testing.T) {
	dir := t.TempDir()
	lockDir = func() string { return dir }
	t.Cleanup(func() { lockDir = defaultLockDir })

	first, err := Acquire()
	require.NoError(t, err)

	_, err = Acquire()
	assert.ErrorIs(t, err, ErrAlreadyRunning)

	first.Release()
	first.Release()

	again, err := Acquire()
	require.NoError(t, err)
	again.Release()
}
