package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/PetoAdam/homenavi/weather-app/internal/app"
	"github.com/PetoAdam/homenavi/weather-app/internal/search"
	"github.com/PetoAdam/homenavi/weather-app/internal/view"
)

// ui drives the session and the search box from parsed commands and redraws
// the terminal when either changes.
type ui struct {
	ctx    context.Context
	logger *slog.Logger

	outMu sync.Mutex
	out   io.Writer

	sess *app.Session
	sugg *search.Suggester

	wg sync.WaitGroup
}

func (u *ui) drawState(st app.State) {
	u.outMu.Lock()
	defer u.outMu.Unlock()
	fmt.Fprintln(u.out)
	if err := view.Render(u.out, st); err != nil {
		u.logger.Warn("render failed", "error", err)
	}
}

func (u *ui) drawSuggestions() {
	if u.sugg == nil {
		return
	}
	u.outMu.Lock()
	defer u.outMu.Unlock()
	if err := view.RenderSuggestions(u.out, u.sugg.Query(), u.sugg.Suggestions(), u.sugg.Loading()); err != nil {
		u.logger.Warn("render failed", "error", err)
	}
}

func (u *ui) drawDrawer() {
	st := u.sess.Snapshot()
	u.outMu.Lock()
	defer u.outMu.Unlock()
	if err := view.RenderDrawer(u.out, st.Favorites); err != nil {
		u.logger.Warn("render failed", "error", err)
	}
}

func (u *ui) printf(format string, args ...any) {
	u.outMu.Lock()
	defer u.outMu.Unlock()
	fmt.Fprintf(u.out, format, args...)
}

// handle executes one command. It returns false when the loop should stop.
// Selections run in the background; wait blocks until they settle.
func (u *ui) handle(cmd command) bool {
	switch cmd.kind {
	case cmdNone:
	case cmdQuit:
		return false
	case cmdType:
		u.sugg.Type(cmd.text)
	case cmdPick:
		c, err := u.sugg.Pick(cmd.index)
		if err != nil {
			u.printf("%v\n", err)
			return true
		}
		u.sugg.Reset()
		u.goSelect(func(ctx context.Context) { u.sess.Select(ctx, c) })
	case cmdFavorite:
		if n := len(u.sess.Snapshot().Favorites); cmd.index >= n {
			u.printf("favorite %d out of range (have %d)\n", cmd.index+1, n)
			return true
		}
		i := cmd.index
		u.goSelect(func(ctx context.Context) {
			if _, err := u.sess.SelectFavorite(ctx, i); err != nil {
				u.printf("%v\n", err)
			}
		})
	case cmdRefresh:
		if u.sess.Snapshot().City == nil {
			u.printf("no city selected\n")
			return true
		}
		u.goSelect(func(ctx context.Context) { u.sess.Refresh(ctx) })
	case cmdShow:
		u.drawState(u.sess.Snapshot())
	case cmdDrawer:
		u.drawDrawer()
	}
	return true
}

func (u *ui) goSelect(fn func(ctx context.Context)) {
	u.wg.Add(1)
	go func() {
		defer u.wg.Done()
		fn(u.ctx)
	}()
}

func (u *ui) wait() {
	u.wg.Wait()
}
