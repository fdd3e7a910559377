package scene_test

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/require"

	"stageport.dev/stageport/internal/scene"
)

func TestNotUnmountByKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		commands []scene.Command
		key      scene.Key
		want     int
	}{
		{
			name: "unknown key",
			commands: []scene.Command{
				scene.MountCmd("c", 1, scene.P(0), nil),
				scene.UpdateCmd("c", 2, scene.P(0), nil),
				scene.UnmountCmd("c", 3),
			},
			key:  -1,
			want: -1,
		},
		{
			name: "first mount",
			commands: []scene.Command{
				scene.MountCmd("c", 1, scene.P(0), nil),
				scene.MountCmd("c", 2, scene.P(0), nil),
				scene.UnmountCmd("c", 3),
				scene.MountCmd("c", 3, scene.P(0), nil),
				scene.UpdateCmd("c", 3, scene.P(0), nil),
			},
			key:  3,
			want: 3,
		},
		{
			name: "first update",
			commands: []scene.Command{
				scene.MountCmd("c", 1, scene.P(0), nil),
				scene.UpdateCmd("c", 3, scene.P(0), nil),
				scene.MountCmd("c", 3, scene.P(0), nil),
				scene.UnmountCmd("c", 3),
			},
			key:  3,
			want: 1,
		},
		{
			name: "ignores unmount",
			commands: []scene.Command{
				scene.MountCmd("c", 1, scene.P(0), nil),
				scene.UnmountCmd("c", 2),
				scene.MountCmd("c", 3, scene.P(0), nil),
				scene.MountCmd("c", 2, scene.P(0), nil),
			},
			key:  2,
			want: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, slices.IndexFunc(tt.commands, scene.NotUnmountByKey(tt.key)))
		})
	}
}

func TestCommandApplyTo(t *testing.T) {
	t.Parallel()

	table := scene.NewTable(0)
	require.True(t, scene.MountCmd("c", 1, scene.NoPriority, "a").ApplyTo(table))
	require.True(t, scene.UpdateCmd("c", 1, scene.P(3), "a2").ApplyTo(table))
	require.False(t, scene.UpdateCmd("c", 2, scene.P(3), "b").ApplyTo(table))
	require.True(t, scene.UnmountCmd("c", 1).ApplyTo(table))
	require.False(t, scene.UnmountCmd("c", 1).ApplyTo(table))
	require.Zero(t, table.Len())
}

func TestCommandString(t *testing.T) {
	t.Parallel()

	require.Equal(t, "mount layer#4 z=2.5", scene.MountCmd("layer", 4, scene.P(2.5), nil).String())
	require.Equal(t, "update layer#4 z=unset", scene.UpdateCmd("layer", 4, scene.NoPriority, nil).String())
	require.Equal(t, "unmount layer#4", scene.UnmountCmd("layer", 4).String())
	require.Equal(t, "CommandKind(9)", scene.CommandKind(9).String())
}
