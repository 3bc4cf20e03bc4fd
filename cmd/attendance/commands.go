package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jrsteele09/attendance-client/apiclient"
	"github.com/jrsteele09/attendance-client/dashboard"
	apperrors "github.com/jrsteele09/attendance-client/internal/errors"
	"github.com/jrsteele09/attendance-client/router"
	"github.com/jrsteele09/attendance-client/users"
)

var errUsage = errors.New("usage")

const usage = `usage: attendance <command> [flags]

commands:
  login   -username NAME -password PASS [-role student|faculty|admin]
  logout
  whoami
  open    [PATH]                       render a route, default /
  mark    -course ID [-date YYYY-MM-DD] [-absent ID,ID...]
  admin   create-faculty -username NAME [-first F] [-last L] [-email E] [-department D]
  admin   create-course -code CODE -title TITLE [-faculty ID]
  admin   delete-faculty ID
  admin   delete-course ID
`

func (c *cli) dispatch(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprint(c.out, usage)
		return errUsage
	}
	c.sessions.Boot(ctx)

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "login":
		return c.login(ctx, rest)
	case "logout":
		return c.sessions.Logout()
	case "whoami":
		return c.whoami()
	case "open":
		return c.open(ctx, rest)
	case "mark":
		return c.mark(ctx, rest)
	case "admin":
		return c.admin(ctx, rest)
	case "help", "-h", "--help":
		fmt.Fprint(c.out, usage)
		return nil
	}
	fmt.Fprintf(c.out, "unknown command %q\n\n%s", cmd, usage)
	return errUsage
}

func (c *cli) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	username := fs.String("username", "", "account username")
	password := fs.String("password", "", "account password")
	role := fs.String("role", "", "expected role: student, faculty or admin")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	var expected users.RoleType
	if *role != "" {
		r, err := users.ParseRole(*role)
		if err != nil {
			return apperrors.NewUserError(apperrors.ErrValidation, "Unknown role %q.", *role)
		}
		expected = r
	}

	displayAppname(c.out, c.config.GetAppName())
	user, err := c.sessions.Login(ctx, *username, *password, expected)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Logged in as %s (%s).\n", user.DisplayName(), user.Role.Title())
	return c.navigate(ctx, router.RouteRoot, 0)
}

func (c *cli) whoami() error {
	s := c.sessions.Session()
	if !s.IsAuthenticated() {
		fmt.Fprintln(c.out, "Not logged in.")
		return nil
	}
	fmt.Fprintf(c.out, "%s | %s Portal\n", s.User.DisplayName(), s.User.Role.Title())
	return nil
}

func (c *cli) open(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("open", flag.ContinueOnError)
	course := fs.Int64("course", 0, "course for the faculty attendance sheet")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	path := router.RouteRoot
	if fs.NArg() > 0 {
		path = fs.Arg(0)
	}
	displayAppname(c.out, c.config.GetAppName())
	return c.navigate(ctx, path, *course)
}

func (c *cli) navigate(ctx context.Context, path string, course int64) error {
	_, err := c.app(course, time.Time{}).Navigate(ctx, path, c.out)
	return err
}

func (c *cli) mark(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("mark", flag.ContinueOnError)
	course := fs.Int64("course", 0, "course id")
	date := fs.String("date", "", "class date, default today")
	absent := fs.String("absent", "", "comma separated student ids to mark absent")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	if !c.sessions.Session().HasRole(users.RoleFaculty) {
		return apperrors.NewUserError(apperrors.ErrForbidden, "Marking attendance needs a faculty login.")
	}
	var day time.Time
	if *date != "" {
		parsed, err := time.Parse(apiclient.DateLayout, *date)
		if err != nil {
			return apperrors.NewUserError(apperrors.ErrValidation, "Dates use the YYYY-MM-DD format.")
		}
		day = parsed
	}

	sheet, err := c.app(*course, day).FacultySheet(ctx)
	if err != nil {
		return err
	}
	ids, err := parseIDs(*absent)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if err := sheet.SetStatus(id, apiclient.StatusAbsent); err != nil {
			return err
		}
	}
	if err := sheet.Render(c.out); err != nil {
		return err
	}

	outcome, err := sheet.Submit(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.out)
	dashboard.RenderOutcome(c.out, outcome)
	return nil
}

func (c *cli) admin(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprint(c.out, usage)
		return errUsage
	}
	if !c.sessions.Session().HasRole(users.RoleAdmin) {
		return apperrors.NewUserError(apperrors.ErrForbidden, "Admin commands need an admin login.")
	}
	d, err := dashboard.LoadAdmin(ctx, c.client)
	if err != nil {
		return err
	}

	sub, rest := args[0], args[1:]
	switch sub {
	case "create-faculty":
		fs := flag.NewFlagSet(sub, flag.ContinueOnError)
		nf := apiclient.NewFaculty{}
		fs.StringVar(&nf.Username, "username", "", "login name")
		fs.StringVar(&nf.FirstName, "first", "", "first name")
		fs.StringVar(&nf.LastName, "last", "", "last name")
		fs.StringVar(&nf.Email, "email", "", "email address")
		fs.StringVar(&nf.Department, "department", "", "department")
		if err := fs.Parse(rest); err != nil {
			return errUsage
		}
		if _, err := d.CreateFaculty(ctx, nf); err != nil {
			return err
		}
	case "create-course":
		fs := flag.NewFlagSet(sub, flag.ContinueOnError)
		nc := apiclient.NewCourse{}
		fs.StringVar(&nc.CourseCode, "code", "", "course code")
		fs.StringVar(&nc.Title, "title", "", "course title")
		faculty := fs.Int64("faculty", 0, "faculty id")
		if err := fs.Parse(rest); err != nil {
			return errUsage
		}
		if *faculty != 0 {
			nc.Faculty = faculty
		}
		if _, err := d.CreateCourse(ctx, nc); err != nil {
			return err
		}
	case "delete-faculty", "delete-course":
		if len(rest) != 1 {
			return errUsage
		}
		id, err := strconv.ParseInt(rest[0], 10, 64)
		if err != nil {
			return apperrors.NewUserError(apperrors.ErrValidation, "%q is not a valid id.", rest[0])
		}
		if sub == "delete-faculty" {
			err = d.DeleteFaculty(ctx, id)
		} else {
			err = d.DeleteCourse(ctx, id)
		}
		if err != nil {
			return err
		}
	default:
		fmt.Fprintf(c.out, "unknown admin command %q\n\n%s", sub, usage)
		return errUsage
	}
	return d.Render(c.out)
}

func parseIDs(s string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, apperrors.NewUserError(apperrors.ErrValidation, "%q is not a valid student id.", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
