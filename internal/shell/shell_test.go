package shell

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTray struct {
	installs  int
	removes   int
	menu      []MenuItem
	installed bool
	failWith  error
}

func (t *fakeTray) Install(menu []MenuItem) error {
	if t.failWith != nil {
		return t.failWith
	}
	t.installs++
	t.installed = true
	t.menu = menu
	return nil
}

func (t *fakeTray) Remove() error {
	t.removes++
	t.installed = false
	return nil
}

type fakeWindow struct {
	restores int
	quits    []int
	failWith error
}

func (w *fakeWindow) Restore() error {
	if w.failWith != nil {
		return w.failWith
	}
	w.restores++
	return nil
}

func (w *fakeWindow) Quit(code int) {
	w.quits = append(w.quits, code)
}

func started(t *testing.T) (*Shell, *fakeTray, *fakeWindow) {
	t.Helper()
	tray, win := &fakeTray{}, &fakeWindow{}
	s := New(tray, win)
	require.NoError(t, s.Start())
	return s, tray, win
}

func TestShell_StartInstallsIconHidden(t *testing.T) {
	s, tray, _ := started(t)

	assert.Equal(t, StateHidden, s.State())
	assert.True(t, tray.installed)
	assert.Equal(t, Menu(), tray.menu)

	require.NoError(t, s.Start())
	assert.Equal(t, 1, tray.installs)
}

func TestShell_StartFailure(t *testing.T) {
	boom := errors.New("shell_notifyicon failed")
	s := New(&fakeTray{failWith: boom}, &fakeWindow{})

	assert.ErrorIs(t, s.Start(), boom)
	assert.Equal(t, StateHidden, s.State())
}

func TestMenu_ThreeItems(t *testing.T) {
	menu := Menu()
	require.Len(t, menu, 3)

	labels := []string{menu[0].Label, menu[1].Label, menu[2].Label}
	assert.Equal(t, []string{"Open", "Options", "Exit"}, labels)
	assert.Equal(t, []MenuID{0x8003, 0x8004, 0x8005}, []MenuID{menu[0].ID, menu[1].ID, menu[2].ID})
	for _, item := range menu {
		assert.True(t, item.Enabled, item.Label)
	}
	assert.True(t, menu[2].Default)
}

func TestShell_OpenMenuAndDismiss(t *testing.T) {
	s, _, win := started(t)

	items := s.OpenMenu()
	assert.Len(t, items, 3)
	assert.Equal(t, StateMenuOpen, s.State())

	s.CloseMenu()
	assert.Equal(t, StateHidden, s.State())
	assert.Zero(t, win.restores)
	assert.Empty(t, win.quits)
}

func TestShell_OpenRestoresWindow(t *testing.T) {
	s, tray, win := started(t)

	s.OpenMenu()
	require.NoError(t, s.Select(MenuOpen))
	s.CloseMenu()

	assert.Equal(t, StateRestored, s.State())
	assert.Equal(t, 1, win.restores)
	assert.True(t, tray.installed)
	assert.Equal(t, 1, tray.installs)
	assert.Zero(t, tray.removes)

	// Dismissing a menu opened over the restored window goes back to Restored.
	s.OpenMenu()
	s.CloseMenu()
	assert.Equal(t, StateRestored, s.State())

	s.Hidden()
	assert.Equal(t, StateHidden, s.State())
}

func TestShell_RestoreFailureKeepsState(t *testing.T) {
	boom := errors.New("no window")
	tray, win := &fakeTray{}, &fakeWindow{failWith: boom}
	s := New(tray, win)
	require.NoError(t, s.Start())

	s.OpenMenu()
	assert.ErrorIs(t, s.Select(MenuOpen), boom)
	assert.Equal(t, StateHidden, s.State())
}

func TestShell_OptionsIsNoop(t *testing.T) {
	s, tray, win := started(t)

	s.OpenMenu()
	require.NoError(t, s.Select(MenuOptions))

	assert.Equal(t, StateHidden, s.State())
	assert.Zero(t, win.restores)
	assert.True(t, tray.installed)
}

func TestShell_ExitOnce(t *testing.T) {
	s, tray, win := started(t)

	s.OpenMenu()
	require.NoError(t, s.Select(MenuExit))

	assert.Equal(t, StateTerminated, s.State())
	assert.False(t, tray.installed)
	assert.Equal(t, 1, tray.removes)
	assert.Equal(t, []int{0}, win.quits)

	select {
	case <-s.Done():
	default:
		t.Fatal("Done not closed after Exit")
	}

	require.NoError(t, s.Select(MenuExit))
	s.Destroy()
	assert.Equal(t, 1, tray.removes)
	assert.Equal(t, []int{0}, win.quits)

	assert.Nil(t, s.OpenMenu())
	assert.ErrorIs(t, s.Select(MenuOpen), ErrTerminated)
	assert.ErrorIs(t, s.Start(), ErrTerminated)
	assert.Zero(t, win.restores)
}

func TestShell_DestroyTerminates(t *testing.T) {
	s, tray, win := started(t)

	s.Destroy()
	s.Destroy()

	assert.Equal(t, StateTerminated, s.State())
	assert.Equal(t, 1, tray.removes)
	assert.Equal(t, []int{0}, win.quits)
}

func TestShell_ConcurrentExit(t *testing.T) {
	s, tray, win := started(t)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = s.Select(MenuExit)
		}()
		go func() {
			defer wg.Done()
			s.Destroy()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, tray.removes)
	assert.Len(t, win.quits, 1)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "hidden", StateHidden.String())
	assert.Equal(t, "menu-open", StateMenuOpen.String())
	assert.Equal(t, "restored", StateRestored.String())
	assert.Equal(t, "terminated", StateTerminated.String())
	assert.Equal(t, "unknown", State(99).String())
}
