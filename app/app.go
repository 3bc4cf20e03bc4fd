// Package app ties the session, the route guard and the dashboards together
// into the screens a user navigates.
package app

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/jrsteele09/attendance-client/apiclient"
	"github.com/jrsteele09/attendance-client/dashboard"
	"github.com/jrsteele09/attendance-client/router"
	"github.com/jrsteele09/attendance-client/sessions"
	"github.com/rs/zerolog/log"
)

const maxRedirects = 5

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// API is every backend call a dashboard makes.
type API interface {
	dashboard.StudentAPI
	dashboard.FacultyAPI
	dashboard.AdminAPI
}

// SessionSource supplies the current session.
type SessionSource interface {
	Session() sessions.Session
}

type Options struct {
	Title         string    // Shown on the login screen
	FacultyCourse int64     // Course the attendance sheet is built for
	FacultyDate   time.Time // Class date of the sheet, default today
}

type App struct {
	sessions SessionSource
	api      API
	opts     Options
}

func New(sessions SessionSource, api API, opts Options) *App {
	if opts.Title == "" {
		opts.Title = "College Attendance System"
	}
	return &App{sessions: sessions, api: api, opts: opts}
}

// Navigate resolves path against the current session, follows redirects and
// renders the screen it lands on into w. It returns the final path. A view
// that fails to load is rendered as a message and its error returned; when
// that failure ended the session the guard runs again.
func (a *App) Navigate(ctx context.Context, path string, w io.Writer) (final string, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("path", path).Msg("recovered from panic while rendering")
			fmt.Fprintln(w, "Something went wrong. Please try again.")
			final, err = path, fmt.Errorf("[app Navigate] panic rendering %s: %v", path, r)
		}
	}()

	path = router.Normalize(path)
	var viewErr error
	for hops := 0; hops <= maxRedirects; hops++ {
		d := router.Resolve(a.sessions.Session(), path)
		switch d.Kind {
		case router.DecisionLoading:
			fmt.Fprintln(w, "Loading...")
			return path, nil

		case router.DecisionRedirect:
			log.Debug().Str("from", path).Str("to", d.Target).Msg("redirect")
			path = d.Target
			continue

		case router.DecisionRender:
			before := a.sessions.Session()
			err := a.render(ctx, d, w)
			if err != nil && before.IsAuthenticated() && !a.sessions.Session().IsAuthenticated() {
				viewErr = err
				continue
			}
			if err == nil {
				err = viewErr
			}
			return path, err
		}
	}
	if viewErr != nil {
		return path, viewErr
	}
	return path, fmt.Errorf("[app Navigate] too many redirects, stopped at %s", path)
}

func (a *App) render(ctx context.Context, d router.Decision, w io.Writer) error {
	if d.Layout {
		renderHeader(w, a.sessions.Session().User, d.Route.Path)
	}

	var err error
	switch d.Route.View {
	case router.ViewLogin:
		fmt.Fprintf(w, "%s\nPlease log in with your username, password and role.\n", a.opts.Title)
	case router.ViewStudentDashboard:
		err = a.renderStudent(ctx, w)
	case router.ViewFacultyDashboard:
		err = a.renderFaculty(ctx, w)
	case router.ViewAdminDashboard:
		err = a.renderAdmin(ctx, w)
	default:
		err = fmt.Errorf("[app render] no view for route %q", d.Route.Path)
	}
	if err != nil {
		log.Err(err).Str("path", d.Route.Path).Msg("failed to render view")
		fmt.Fprintf(w, "Error: %s\n", apiclient.UserMessage(err))
	}
	return err
}

func (a *App) renderStudent(ctx context.Context, w io.Writer) error {
	d, err := dashboard.LoadStudent(ctx, a.api)
	if err != nil {
		return err
	}
	return d.Render(w)
}

func (a *App) renderFaculty(ctx context.Context, w io.Writer) error {
	d, err := a.FacultySheet(ctx)
	if err != nil {
		return err
	}
	return d.Render(w)
}

func (a *App) renderAdmin(ctx context.Context, w io.Writer) error {
	d, err := dashboard.LoadAdmin(ctx, a.api)
	if err != nil {
		return err
	}
	return d.Render(w)
}

// FacultySheet loads the attendance sheet for the configured course and
// date.
func (a *App) FacultySheet(ctx context.Context) (*dashboard.FacultyDashboard, error) {
	day := a.opts.FacultyDate
	if day.IsZero() {
		day = NowTimeFunc()
	}
	return dashboard.LoadFaculty(ctx, a.api, a.opts.FacultyCourse, day)
}
