package lifecycle

import (
	"os"
	"os/signal"
)

// WatchSignal installs a handler for sig that sets the end-record or
// end-replay flag (whichever matches the controller's mode at the
// moment the signal arrives) instead of touching the emulator's main
// loop directly. Returns a function that stops watching.
//
// This is the one legitimate exception to "the whole of ndlog runs on
// one thread": signal delivery runs on its own goroutine,
// and the only thing it is allowed to do is set a word-sized atomic.
func (c *Controller) WatchSignal(sig os.Signal) (stop func()) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, sig)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-ch:
				switch c.Mode() {
				case ModeRecord:
					c.RequestEndRecord()
				case ModeReplay:
					c.RequestEndReplay()
				}
			case <-done:
				return
			}
		}
	}()
	return func() {
		signal.Stop(ch)
		close(done)
	}
}
