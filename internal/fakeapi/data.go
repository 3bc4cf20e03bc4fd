package fakeapi

import (
	"sort"

	"golang.org/x/crypto/bcrypt"
)

type user struct {
	ID           int64
	Username     string
	PasswordHash string
	FirstName    string
	LastName     string
	Email        string
	Role         string
	Department   string
}

type studentProfile struct {
	UserID        int64
	RollNumber    string
	CourseOfStudy string
	Enrolled      []int64
}

type course struct {
	ID        int64
	Code      string
	Title     string
	FacultyID *int64
}

type attendanceKey struct {
	CourseID  int64
	StudentID int64
	Date      string
}

// Seed password for every seeded account.
const SeedPassword = "pass"

// Seeded ids.
const (
	StudentAliceID int64 = 10
	StudentBobID   int64 = 11
	FacultyAdaID   int64 = 20
	FacultyAlanID  int64 = 21
	AdminID        int64 = 30

	CourseMathID int64 = 100
	CourseCSID   int64 = 101
)

func hashPassword(password string) string {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	return string(bytes)
}

func checkPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func (b *Backend) seed() {
	hash := hashPassword(SeedPassword)
	for _, u := range []*user{
		{ID: StudentAliceID, Username: "alice", FirstName: "Alice", LastName: "Johnson", Email: "alice@college.test", Role: "student"},
		{ID: StudentBobID, Username: "bob", FirstName: "Bob", LastName: "Smith", Email: "bob@college.test", Role: "student"},
		{ID: FacultyAdaID, Username: "ada", FirstName: "Ada", LastName: "Lovelace", Email: "ada@college.test", Role: "faculty", Department: "Mathematics"},
		{ID: FacultyAlanID, Username: "alan", FirstName: "Alan", LastName: "Turing", Email: "alan@college.test", Role: "faculty", Department: "Computer Science"},
		{ID: AdminID, Username: "admin", FirstName: "Grace", LastName: "Hopper", Email: "admin@college.test", Role: "admin"},
	} {
		u.PasswordHash = hash
		b.users[u.ID] = u
	}

	ada, alan := FacultyAdaID, FacultyAlanID
	b.courses[CourseMathID] = &course{ID: CourseMathID, Code: "MATH101", Title: "Calculus I", FacultyID: &ada}
	b.courses[CourseCSID] = &course{ID: CourseCSID, Code: "CS101", Title: "Intro to CS", FacultyID: &alan}

	b.profiles[StudentAliceID] = &studentProfile{UserID: StudentAliceID, RollNumber: "S101", CourseOfStudy: "Computer Science", Enrolled: []int64{CourseMathID, CourseCSID}}
	b.profiles[StudentBobID] = &studentProfile{UserID: StudentBobID, RollNumber: "S102", CourseOfStudy: "Mathematics", Enrolled: []int64{CourseMathID}}

	for date, status := range map[string]string{"2025-01-06": "P", "2025-01-07": "P", "2025-01-08": "A", "2025-01-09": "P"} {
		b.attendance[attendanceKey{CourseMathID, StudentAliceID, date}] = status
	}
	for date, status := range map[string]string{"2025-01-06": "P", "2025-01-07": "A"} {
		b.attendance[attendanceKey{CourseCSID, StudentAliceID, date}] = status
	}
	b.nextID = 1000
}

func (b *Backend) userByUsername(username string) *user {
	for _, u := range b.users {
		if u.Username == username {
			return u
		}
	}
	return nil
}

func sortedIDs[T any](m map[int64]T) []int64 {
	ids := make([]int64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
