package dashboard

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/jrsteele09/attendance-client/apiclient"
	apperrors "github.com/jrsteele09/attendance-client/internal/errors"
)

type FacultyAPI interface {
	FacultyRoster(ctx context.Context) ([]apiclient.StudentProfile, error)
	MarkAttendance(ctx context.Context, marks []apiclient.AttendanceMark) (*apiclient.MarkResult, error)
}

// SheetEntry is one student's row of the attendance sheet.
type SheetEntry struct {
	StudentID  int64
	RollNumber string
	Name       string
	Status     apiclient.AttendanceStatus
}

// FacultyDashboard is an attendance sheet for one course and date. Every
// student starts Present.
type FacultyDashboard struct {
	api      FacultyAPI
	roster   []apiclient.StudentProfile
	CourseID int64 // 0 lists the whole roster and can't be submitted
	Date     time.Time
	Entries  []SheetEntry
}

// LoadFaculty fetches the roster, keeping only students enrolled in courseID
// when it is set.
func LoadFaculty(ctx context.Context, api FacultyAPI, courseID int64, date time.Time) (*FacultyDashboard, error) {
	roster, err := api.FacultyRoster(ctx)
	if err != nil {
		return nil, fmt.Errorf("[dashboard LoadFaculty] %w", err)
	}

	d := &FacultyDashboard{api: api, roster: roster, CourseID: courseID, Date: date}
	for _, p := range roster {
		if courseID != 0 && !p.EnrolledIn(courseID) {
			continue
		}
		d.Entries = append(d.Entries, SheetEntry{
			StudentID:  p.User.ID,
			RollNumber: p.RollNumber,
			Name:       p.User.DisplayName(),
			Status:     apiclient.StatusPresent,
		})
	}
	return d, nil
}

// Courses lists the ids of every course the roster's students take.
func (d *FacultyDashboard) Courses() []int64 {
	seen := map[int64]bool{}
	var ids []int64
	for _, p := range d.roster {
		for _, id := range p.EnrolledCourses {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (d *FacultyDashboard) entry(studentID int64) (*SheetEntry, error) {
	for i := range d.Entries {
		if d.Entries[i].StudentID == studentID {
			return &d.Entries[i], nil
		}
	}
	return nil, apperrors.NewUserError(apperrors.ErrNotFound, "Student %d is not on this attendance sheet.", studentID)
}

// Toggle flips a student between Present and Absent.
func (d *FacultyDashboard) Toggle(studentID int64) error {
	e, err := d.entry(studentID)
	if err != nil {
		return err
	}
	e.Status = e.Status.Toggle()
	return nil
}

func (d *FacultyDashboard) SetStatus(studentID int64, status apiclient.AttendanceStatus) error {
	if status != apiclient.StatusPresent && status != apiclient.StatusAbsent {
		return apperrors.NewUserError(apperrors.ErrValidation, "Unknown attendance status %q.", status)
	}
	e, err := d.entry(studentID)
	if err != nil {
		return err
	}
	e.Status = status
	return nil
}

func (d *FacultyDashboard) PresentCount() int {
	n := 0
	for _, e := range d.Entries {
		if e.Status == apiclient.StatusPresent {
			n++
		}
	}
	return n
}

// Rate is the share of the sheet marked Present, as a percentage.
func (d *FacultyDashboard) Rate() float64 {
	present, total := d.PresentCount(), len(d.Entries)
	return CalculatePercentage(&present, &total)
}

// SubmitOutcome reports a submission. Errors holds one message per record
// the backend rejected.
type SubmitOutcome struct {
	Message string
	Errors  []string
}

func (o *SubmitOutcome) Partial() bool {
	return len(o.Errors) > 0
}

// Submit sends the whole sheet in one request.
func (d *FacultyDashboard) Submit(ctx context.Context) (*SubmitOutcome, error) {
	if d.CourseID == 0 {
		return nil, apperrors.NewUserError(apperrors.ErrValidation, "Select a course before submitting attendance.")
	}
	if len(d.Entries) == 0 {
		return nil, apperrors.NewUserError(apperrors.ErrValidation, "No students to mark for course %d.", d.CourseID)
	}

	marks := make([]apiclient.AttendanceMark, 0, len(d.Entries))
	for _, e := range d.Entries {
		marks = append(marks, apiclient.NewAttendanceMark(d.CourseID, e.StudentID, d.Date, e.Status))
	}
	result, err := d.api.MarkAttendance(ctx, marks)
	if err != nil {
		return nil, fmt.Errorf("[dashboard Submit] %w", err)
	}

	outcome := &SubmitOutcome{Message: result.Message}
	for _, e := range result.Errors {
		outcome.Errors = append(outcome.Errors, e.String())
	}
	return outcome, nil
}

func (d *FacultyDashboard) Render(w io.Writer) error {
	heading(w, "Attendance Sheet")
	course := "all courses"
	if d.CourseID != 0 {
		course = fmt.Sprintf("course %d", d.CourseID)
	}
	fmt.Fprintf(w, "%s | %s\n\n", course, d.Date.Format("Monday, January 2, 2006"))
	fmt.Fprintf(w, "Current Rate:         %.1f%% Present\n", d.Rate())
	fmt.Fprintf(w, "Total Class Strength: %d\n", len(d.Entries))
	fmt.Fprintf(w, "Present / Absent:     %d / %d\n", d.PresentCount(), len(d.Entries)-d.PresentCount())

	section(w, "Students")
	if len(d.Entries) == 0 {
		fmt.Fprintln(w, "No students enrolled.")
		return nil
	}
	t := newTable(w, "ID", "ROLL NO", "STUDENT NAME", "STATUS")
	for _, e := range d.Entries {
		t.row(fmt.Sprint(e.StudentID), e.RollNumber, e.Name, e.Status.Label())
	}
	return t.flush()
}

// RenderOutcome prints a submission result.
func RenderOutcome(w io.Writer, o *SubmitOutcome) {
	fmt.Fprintln(w, o.Message)
	for _, e := range o.Errors {
		fmt.Fprintf(w, "  - %s\n", e)
	}
}
