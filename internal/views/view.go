package views

import (
	"context"
	"io"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/shiftswap/internal/notify"
	"github.com/desertthunder/shiftswap/internal/shared"
)

// Options configures a view.
type Options struct {
	Notifier notify.Notifier
	Logger   *log.Logger
}

func (o Options) withDefaults(name string) Options {
	if o.Notifier == nil {
		o.Notifier = notify.Discard
	}
	if o.Logger == nil {
		o.Logger = shared.NewLogger(io.Discard)
	}
	o.Logger = o.Logger.WithPrefix(name)
	return o
}

// refresher runs background reloads and lets callers wait for them.
type refresher struct {
	wg sync.WaitGroup
}

// spawn runs load in the background unless the view is unmounted.
func (r *refresher) spawn(ctx context.Context, mounted bool, load func(context.Context) error) {
	if !mounted {
		return
	}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		load(ctx)
	}()
}

// Wait blocks until every background reload started so far has finished.
func (r *refresher) Wait() {
	r.wg.Wait()
}
