package app

import (
	"time"

	"github.com/llehouerou/silence-with-sound/internal/instance"
)

// tickMsg triggers a refresh of the sound list.
type tickMsg time.Time

type soundsMsg struct {
	sounds []instance.Info
	err    error
}

type activatedMsg struct {
	source string
	id     instance.ID
	err    error
}

type appliedMsg struct {
	id  instance.ID
	err error
}

type closedMsg struct {
	id  instance.ID
	err error
}

type shutdownMsg struct {
	err error
}
