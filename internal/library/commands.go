package library

// Command is an abstract input to the Library. Front ends translate keys,
// buttons or GPIO pins into commands.
type Command interface {
	command()
}

// MoveSelection moves the cursor by Delta entries, clamped to the list.
type MoveSelection struct{ Delta int }

// Activate installs the selected game, or launches it when installed.
type Activate struct{}

// Remove uninstalls the selected game.
type Remove struct{}

// Refresh re-fetches the catalog.
type Refresh struct{}

// RequestExit ends the front end's loop.
type RequestExit struct{}

func (MoveSelection) command() {}
func (Activate) command()      {}
func (Remove) command()        {}
func (Refresh) command()       {}
func (RequestExit) command()   {}
