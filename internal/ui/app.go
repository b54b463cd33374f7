// Package ui is the desktop chart window: the price panel with its annotation
// overlay, the tool bar and the keyboard shortcuts.
package ui

import (
	"context"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
	log "github.com/sirupsen/logrus"

	"LiveChartBoard/internal/render"
	"LiveChartBoard/internal/session"
)

var logger = log.WithField("component", "ui")

type Options struct {
	Title     string
	ShareLink string

	FPS           int
	SkipUnchanged bool
}

// App is one chart window bound to a session.
type App struct {
	app     fyne.App
	window  fyne.Window
	session *session.Session
	chart   *ChartWidget
	status  *widget.Label
	options Options
}

// New builds the window. It must be called before the session starts so that
// every change callback is registered up front.
func New(s *session.Session, options Options) *App {
	a := &App{
		app:     app.New(),
		session: s,
		options: options,
		status:  widget.NewLabel("Ready"),
	}
	if a.options.Title == "" {
		a.options.Title = "LiveChartBoard"
	}

	a.window = a.app.NewWindow(a.options.Title)
	vp := s.Viewport()
	a.window.Resize(fyne.NewSize(float32(vp.Width), float32(vp.Height)))

	a.chart = NewChartWidget(s)
	toolbar := NewToolbar(s, a.window)

	role := "Viewing"
	if s.CanDraw() {
		role = "Hosting"
	}
	footer := container.NewHBox(widget.NewLabel(role+" session "+s.ID()), a.status)
	if options.ShareLink != "" {
		link := widget.NewEntry()
		link.SetText(options.ShareLink)
		footer.Add(link)
	}

	a.window.SetContent(container.NewBorder(toolbar.Content(), footer, nil, nil, a.chart))
	a.bindKeys()
	return a
}

func (a *App) bindKeys() {
	c := a.window.Canvas()
	c.SetOnTypedKey(func(e *fyne.KeyEvent) {
		switch e.Name {
		case fyne.KeyEscape:
			a.session.Escape()
		case fyne.KeyDelete, fyne.KeyBackspace:
			a.session.DeleteSelectedEmoji()
		}
	})
	c.AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyZ, Modifier: fyne.KeyModifierShortcutDefault}, func(fyne.Shortcut) {
		a.session.UndoLast()
	})
}

// SetStatus updates the footer from any goroutine.
func (a *App) SetStatus(text string) {
	fyne.Do(func() { a.status.SetText(text) })
}

// Run starts the render loop and blocks until the window is closed or ctx is
// done.
func (a *App) Run(parent context.Context) {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	loop := render.NewLoop(render.NewCompositor(), a.session, render.NewRasterSurface(a.chart.Present),
		render.WithFPS(a.options.FPS), render.WithSkipUnchanged(a.options.SkipUnchanged))
	go loop.Run(ctx)

	closed := make(chan struct{})
	a.window.SetOnClosed(func() {
		close(closed)
		cancel()
	})
	go func() {
		select {
		case <-closed:
		case <-parent.Done():
			fyne.Do(a.window.Close)
		}
	}()

	logger.Infof("opening %s", a.options.Title)
	a.window.ShowAndRun()
}
