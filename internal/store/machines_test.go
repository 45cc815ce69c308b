package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyberguild/guildhall/pkg/models"
)

func TestMachineRegistry(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.AddMachine(&models.Machine{Hostname: "jumpbox", Description: "entry point"}))
	require.NoError(t, s.AddMachine(&models.Machine{Hostname: "crackbox", Description: "gpu rig"}))

	t.Run("duplicate hostname rejected", func(t *testing.T) {
		err := s.AddMachine(&models.Machine{Hostname: "jumpbox", Description: "again"})
		assert.ErrorIs(t, err, models.ErrDuplicate)
	})

	t.Run("fetch by hostname", func(t *testing.T) {
		m, err := s.MachineByHostname("crackbox")
		require.NoError(t, err)
		assert.Equal(t, "gpu rig", m.Description)
	})

	t.Run("list is sorted", func(t *testing.T) {
		ms, err := s.AllMachines()
		require.NoError(t, err)
		require.Len(t, ms, 2)
		assert.Equal(t, "crackbox", ms[0].Hostname)
		assert.Equal(t, "jumpbox", ms[1].Hostname)
	})

	t.Run("remove", func(t *testing.T) {
		require.NoError(t, s.RemoveMachine("jumpbox"))
		_, err := s.MachineByHostname("jumpbox")
		assert.ErrorIs(t, err, models.ErrNotFound)
		assert.ErrorIs(t, s.RemoveMachine("jumpbox"), models.ErrNotFound)
	})
}
