package dashboard_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/jrsteele09/attendance-client/apiclient"
	"github.com/jrsteele09/attendance-client/dashboard"
	apperrors "github.com/jrsteele09/attendance-client/internal/errors"
	"github.com/jrsteele09/attendance-client/internal/fakeapi"
	"github.com/jrsteele09/attendance-client/internal/utils"
	"github.com/jrsteele09/attendance-client/token"
	tokenfakerepo "github.com/jrsteele09/attendance-client/token/repofake"
	"github.com/stretchr/testify/require"
)

var sheetDate = time.Date(2025, 2, 3, 0, 0, 0, 0, time.UTC)

// signedInClient returns a client holding a fresh token for username.
func signedInClient(t *testing.T, username string) (*apiclient.Client, *fakeapi.Backend) {
	t.Helper()

	backend := fakeapi.New(fakeapi.Options{})
	t.Cleanup(backend.Close)

	store := tokenfakerepo.NewFakeTokenStore()
	client, err := apiclient.New(backend.URL(), store, apiclient.Options{})
	require.NoError(t, err)

	access, refresh := backend.Issue(username)
	pair := token.TokenPair{AccessToken: access, RefreshToken: refresh}
	require.NoError(t, store.Save(pair))
	client.SetToken(pair)
	return client, backend
}

func TestCalculatePercentage(t *testing.T) {
	tests := []struct {
		name            string
		attended, total *int
		want            float64
	}{
		{"regular", utils.Ptr(42), utils.Ptr(50), 84},
		{"threshold", utils.Ptr(3), utils.Ptr(4), 75},
		{"zero total", utils.Ptr(0), utils.Ptr(0), 0},
		{"missing total", utils.Ptr(5), nil, 0},
		{"missing attended", nil, utils.Ptr(5), 0},
		{"full", utils.Ptr(12), utils.Ptr(12), 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, dashboard.CalculatePercentage(tt.attended, tt.total))
		})
	}
}

func TestStanding(t *testing.T) {
	require.Equal(t, "Good", dashboard.Standing(85))
	require.Equal(t, "OK", dashboard.Standing(75))
	require.Equal(t, "Low", dashboard.Standing(74.99))
}

func TestStudentDashboard(t *testing.T) {
	client, _ := signedInClient(t, "alice")

	d, err := dashboard.LoadStudent(context.Background(), client)
	require.NoError(t, err)
	require.Equal(t, "Alice Johnson", d.Name)
	require.Equal(t, "S101", d.RollNumber)
	require.InDelta(t, 66.67, d.Overall, 0.01)
	require.Len(t, d.Courses, 2)

	require.Equal(t, 75.0, d.Courses[0].Percentage)
	require.False(t, d.Courses[0].Low)
	require.Equal(t, 50.0, d.Courses[1].Percentage)
	require.True(t, d.Courses[1].Low)

	low := d.LowCourses()
	require.Len(t, low, 1)
	require.Equal(t, "Intro to CS", low[0].Subject)

	var out bytes.Buffer
	require.NoError(t, d.Render(&out))
	require.Contains(t, out.String(), "Alice Johnson's Dashboard")
	require.Contains(t, out.String(), "Roll No: S101 | Course: Computer Science")
	require.Contains(t, out.String(), "66.67%")
	require.Contains(t, out.String(), "LOW")
}

func TestStudentDashboardWrongRole(t *testing.T) {
	client, _ := signedInClient(t, "ada")

	_, err := dashboard.LoadStudent(context.Background(), client)
	require.True(t, apperrors.Is(err, apperrors.ErrForbidden))
}

func TestFacultySheet(t *testing.T) {
	client, backend := signedInClient(t, "ada")
	ctx := context.Background()

	d, err := dashboard.LoadFaculty(ctx, client, fakeapi.CourseMathID, sheetDate)
	require.NoError(t, err)
	require.Len(t, d.Entries, 2)
	require.Equal(t, 2, d.PresentCount())
	require.Equal(t, []int64{fakeapi.CourseMathID, fakeapi.CourseCSID}, d.Courses())

	require.NoError(t, d.Toggle(fakeapi.StudentBobID))
	require.Equal(t, 1, d.PresentCount())
	require.Equal(t, 50.0, d.Rate())

	outcome, err := d.Submit(ctx)
	require.NoError(t, err)
	require.False(t, outcome.Partial())
	require.Equal(t, "Successfully marked attendance for 2 students.", outcome.Message)

	status, ok := backend.AttendanceStatus(fakeapi.CourseMathID, fakeapi.StudentBobID, "2025-02-03")
	require.True(t, ok)
	require.Equal(t, "A", status)

	var out bytes.Buffer
	require.NoError(t, d.Render(&out))
	require.Contains(t, out.String(), "Monday, February 3, 2025")
	require.Contains(t, out.String(), "50.0% Present")
	require.Contains(t, out.String(), "Absent")
}

func TestFacultySheetRejectedCourse(t *testing.T) {
	client, _ := signedInClient(t, "ada")
	ctx := context.Background()

	d, err := dashboard.LoadFaculty(ctx, client, fakeapi.CourseCSID, sheetDate)
	require.NoError(t, err)
	require.Len(t, d.Entries, 1)

	outcome, err := d.Submit(ctx)
	require.NoError(t, err)
	require.True(t, outcome.Partial())
	require.Equal(t, "Processed 0 records. Errors: 1", outcome.Message)
	require.Equal(t, []string{"Unauthorized to mark attendance for Course 101"}, outcome.Errors)
}

type stubFacultyAPI struct {
	roster []apiclient.StudentProfile
	result *apiclient.MarkResult
	marks  []apiclient.AttendanceMark
}

func (s *stubFacultyAPI) FacultyRoster(context.Context) ([]apiclient.StudentProfile, error) {
	return s.roster, nil
}

func (s *stubFacultyAPI) MarkAttendance(_ context.Context, marks []apiclient.AttendanceMark) (*apiclient.MarkResult, error) {
	s.marks = marks
	return s.result, nil
}

func TestFacultySheetMixedResults(t *testing.T) {
	api := &stubFacultyAPI{
		roster: []apiclient.StudentProfile{
			{User: usersUser(1, "ann"), RollNumber: "R1", EnrolledCourses: []int64{7}},
			{User: usersUser(2, "ben"), RollNumber: "R2", EnrolledCourses: []int64{7}},
			{User: usersUser(3, "cat"), RollNumber: "R3", EnrolledCourses: []int64{8}},
		},
		result: &apiclient.MarkResult{
			Message: "Processed 1 records. Errors: 1",
			Errors: []apiclient.RecordError{
				{Fields: map[string][]string{"student": {`Invalid pk "2" - object does not exist.`}}},
			},
		},
	}

	d, err := dashboard.LoadFaculty(context.Background(), api, 7, sheetDate)
	require.NoError(t, err)
	require.Len(t, d.Entries, 2)
	require.NoError(t, d.SetStatus(2, apiclient.StatusAbsent))

	outcome, err := d.Submit(context.Background())
	require.NoError(t, err)
	require.True(t, outcome.Partial())
	require.Equal(t, []string{`student: Invalid pk "2" - object does not exist.`}, outcome.Errors)

	require.Len(t, api.marks, 2)
	require.Equal(t, apiclient.AttendanceMark{CourseID: 7, StudentID: 2, Date: "2025-02-03", Status: apiclient.StatusAbsent}, api.marks[1])

	var out bytes.Buffer
	dashboard.RenderOutcome(&out, outcome)
	require.Equal(t, "Processed 1 records. Errors: 1\n  - student: Invalid pk \"2\" - object does not exist.\n", out.String())
}

func TestFacultySheetValidation(t *testing.T) {
	api := &stubFacultyAPI{roster: []apiclient.StudentProfile{{User: usersUser(1, "ann"), EnrolledCourses: []int64{7}}}}

	d, err := dashboard.LoadFaculty(context.Background(), api, 0, sheetDate)
	require.NoError(t, err)
	_, err = d.Submit(context.Background())
	require.True(t, apperrors.Is(err, apperrors.ErrValidation))
	require.Equal(t, "Select a course before submitting attendance.", apiclient.UserMessage(err))

	require.True(t, apperrors.Is(d.Toggle(99), apperrors.ErrNotFound))
	require.True(t, apperrors.Is(d.SetStatus(1, "L"), apperrors.ErrValidation))
	require.Nil(t, api.marks)
}

func TestAdminDashboard(t *testing.T) {
	client, _ := signedInClient(t, "admin")
	ctx := context.Background()

	d, err := dashboard.LoadAdmin(ctx, client)
	require.NoError(t, err)
	require.Equal(t, dashboard.AdminSummary{Faculty: 2, Courses: 2, UnassignedCourses: 0, ClassesHeld: 6}, d.Summary())
	require.Equal(t, 1, d.ClassesAssigned(fakeapi.FacultyAdaID))

	require.NoError(t, d.DeleteFaculty(ctx, fakeapi.FacultyAdaID))
	require.Equal(t, 1, d.Summary().Faculty)
	require.Equal(t, 1, d.Summary().UnassignedCourses)

	course, err := d.CreateCourse(ctx, apiclient.NewCourse{CourseCode: "PHY101", Title: "Mechanics", Faculty: utils.Ptr(fakeapi.FacultyAlanID)})
	require.NoError(t, err)
	require.Equal(t, 3, d.Summary().Courses)
	require.Equal(t, 2, d.ClassesAssigned(fakeapi.FacultyAlanID))

	require.NoError(t, d.DeleteCourse(ctx, course.ID))
	require.Equal(t, 2, d.Summary().Courses)

	f, err := d.CreateFaculty(ctx, apiclient.NewFaculty{Username: "emmy", FirstName: "Emmy", LastName: "Noether"})
	require.NoError(t, err)
	require.Equal(t, "emmy", f.Username)
	require.Equal(t, 2, d.Summary().Faculty)

	var out bytes.Buffer
	require.NoError(t, d.Render(&out))
	require.Contains(t, out.String(), "Manage Faculty Records")
	require.Contains(t, out.String(), "Emmy Noether")
	require.Contains(t, out.String(), "Total Faculty: 2 | Total Courses: 2 | Unassigned Courses: 1")
}

func TestAdminDashboardValidation(t *testing.T) {
	client, backend := signedInClient(t, "admin")
	ctx := context.Background()

	d, err := dashboard.LoadAdmin(ctx, client)
	require.NoError(t, err)

	_, err = d.CreateCourse(ctx, apiclient.NewCourse{CourseCode: "X1"})
	require.True(t, apperrors.Is(err, apperrors.ErrValidation))
	_, err = d.CreateFaculty(ctx, apiclient.NewFaculty{})
	require.True(t, apperrors.Is(err, apperrors.ErrValidation))
	require.Zero(t, backend.Requests("POST /api/courses/"))

	err = d.DeleteCourse(ctx, 4242)
	require.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}
