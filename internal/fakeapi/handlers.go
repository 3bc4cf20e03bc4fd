package fakeapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

func (b *Backend) routes() http.Handler {
	mux := http.NewServeMux()
	handle := func(pattern string, h http.HandlerFunc) {
		mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
			b.record(r)
			h(w, r)
		})
	}

	handle("POST /api/auth/login/{$}", b.login)
	handle("POST /api/token/refresh/{$}", b.refresh)
	handle("GET /api/student/dashboard/{$}", b.studentDashboard)
	handle("GET /api/faculty/students-for-class/{$}", b.facultyRoster)
	handle("POST /api/faculty/mark-attendance/{$}", b.markAttendance)
	handle("GET /api/faculty/{$}", b.listFaculty)
	handle("POST /api/faculty/{$}", b.createFaculty)
	handle("GET /api/faculty/{id}/{$}", b.getFaculty)
	handle("DELETE /api/faculty/{id}/{$}", b.deleteFaculty)
	handle("GET /api/courses/{$}", b.listCourses)
	handle("POST /api/courses/{$}", b.createCourse)
	handle("GET /api/courses/{id}/{$}", b.getCourse)
	handle("DELETE /api/courses/{id}/{$}", b.deleteCourse)
	return mux
}

func (b *Backend) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "JSON parse error")
		return
	}
	fields := map[string][]string{}
	if req.Username == "" {
		fields["username"] = []string{"This field is required."}
	}
	if req.Password == "" {
		fields["password"] = []string{"This field is required."}
	}
	if len(fields) > 0 {
		writeJSON(w, http.StatusBadRequest, fields)
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	u := b.userByUsername(req.Username)
	if u == nil || !checkPasswordHash(req.Password, u.PasswordHash) {
		writeDetail(w, http.StatusUnauthorized, "Invalid credentials or user not found.")
		return
	}
	access, refresh := b.issueLocked(u)
	payload := b.userJSON(u)
	if p, ok := b.profiles[u.ID]; ok && u.Role == "student" {
		payload["roll_number"] = p.RollNumber
		payload["course_of_study"] = p.CourseOfStudy
	}
	writeJSON(w, http.StatusOK, map[string]any{"access": access, "refresh": refresh, "user": payload})
}

func (b *Backend) refresh(w http.ResponseWriter, r *http.Request) {
	b.refreshCalls.Add(1)

	var req struct {
		Refresh string `json:"refresh"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Refresh == "" {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"refresh": {"This field is required."}})
		return
	}

	b.mu.Lock()
	delay := b.refreshDelay
	b.mu.Unlock()
	if delay > 0 {
		time.Sleep(delay)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	id, ok := b.refreshTokens[req.Refresh]
	u := b.users[id]
	if b.failRefresh || !ok || u == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"detail": "Token is invalid or expired", "code": "token_not_valid"})
		return
	}
	access, rotated := b.issueLocked(u)
	resp := map[string]any{"access": access}
	if b.opts.RotateRefresh {
		delete(b.refreshTokens, req.Refresh)
		resp["refresh"] = rotated
	} else {
		delete(b.refreshTokens, rotated)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (b *Backend) studentDashboard(w http.ResponseWriter, r *http.Request) {
	u, ok := b.authenticate(w, r, "student")
	if !ok {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	p, ok := b.profiles[u.ID]
	if !ok {
		writeDetail(w, http.StatusNotFound, "Student profile not found.")
		return
	}
	resp := b.profileJSON(p)

	details := make([]map[string]any, 0, len(p.Enrolled))
	overallAttended, overallTotal := 0, 0
	for _, courseID := range p.Enrolled {
		c := b.courses[courseID]
		if c == nil {
			continue
		}
		total, attended := 0, 0
		for k, status := range b.attendance {
			if k.CourseID == courseID && k.StudentID == p.UserID {
				total++
				if status == "P" {
					attended++
				}
			}
		}
		overallAttended += attended
		overallTotal += total
		details = append(details, map[string]any{
			"course_id":          c.ID,
			"subject":            c.Title,
			"faculty":            b.facultyNameLocked(c.FacultyID),
			"total_classes_held": total,
			"attended_classes":   attended,
		})
	}
	resp["overall"] = map[string]int{"attendedClasses": overallAttended, "totalClasses": overallTotal}
	resp["detailedAttendance"] = details
	writeJSON(w, http.StatusOK, resp)
}

func (b *Backend) facultyRoster(w http.ResponseWriter, r *http.Request) {
	u, ok := b.authenticate(w, r, "faculty")
	if !ok {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	roster := make([]map[string]any, 0)
	for _, id := range sortedIDs(b.profiles) {
		p := b.profiles[id]
		for _, courseID := range p.Enrolled {
			if c := b.courses[courseID]; c != nil && c.FacultyID != nil && *c.FacultyID == u.ID {
				roster = append(roster, b.profileJSON(p))
				break
			}
		}
	}
	writeJSON(w, http.StatusOK, roster)
}

func (b *Backend) markAttendance(w http.ResponseWriter, r *http.Request) {
	u, ok := b.authenticate(w, r, "faculty")
	if !ok {
		return
	}
	var records []map[string]any
	if err := json.NewDecoder(r.Body).Decode(&records); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid format. Expected list.")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	saved := 0
	errs := make([]any, 0)
	for _, rec := range records {
		courseID, studentID := intField(rec["course_id"]), intField(rec["student_id"])
		date, _ := rec["date"].(string)
		status, _ := rec["status"].(string)

		fieldErrs := map[string][]string{}
		c := b.courses[courseID]
		if c == nil {
			fieldErrs["course"] = []string{fmt.Sprintf("Invalid pk \"%v\" - object does not exist.", rec["course_id"])}
		}
		if _, ok := b.profiles[studentID]; !ok {
			fieldErrs["student"] = []string{fmt.Sprintf("Invalid pk \"%v\" - object does not exist.", rec["student_id"])}
		}
		if _, err := time.Parse("2006-01-02", date); err != nil {
			fieldErrs["date"] = []string{"Date has wrong format. Use one of these formats instead: YYYY-MM-DD."}
		}
		if status != "P" && status != "A" {
			fieldErrs["status"] = []string{fmt.Sprintf("\"%s\" is not a valid choice.", status)}
		}
		if len(fieldErrs) > 0 {
			errs = append(errs, fieldErrs)
			continue
		}
		if c.FacultyID == nil || *c.FacultyID != u.ID {
			errs = append(errs, fmt.Sprintf("Unauthorized to mark attendance for Course %d", c.ID))
			continue
		}
		b.attendance[attendanceKey{courseID, studentID, date}] = status
		saved++
	}

	if len(errs) > 0 {
		writeJSON(w, http.StatusMultiStatus, map[string]any{
			"message": fmt.Sprintf("Processed %d records. Errors: %d", saved, len(errs)),
			"errors":  errs,
		})
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": fmt.Sprintf("Successfully marked attendance for %d students.", saved),
	})
}

func (b *Backend) listFaculty(w http.ResponseWriter, r *http.Request) {
	if _, ok := b.authenticate(w, r, "admin"); !ok {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	list := make([]map[string]any, 0)
	for _, id := range sortedIDs(b.users) {
		if u := b.users[id]; u.Role == "faculty" {
			list = append(list, b.userJSON(u))
		}
	}
	writeJSON(w, http.StatusOK, list)
}

func (b *Backend) getFaculty(w http.ResponseWriter, r *http.Request) {
	if _, ok := b.authenticate(w, r, "admin"); !ok {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	u := b.users[pathID(r)]
	if u == nil || u.Role != "faculty" {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	writeJSON(w, http.StatusOK, b.userJSON(u))
}

func (b *Backend) createFaculty(w http.ResponseWriter, r *http.Request) {
	if _, ok := b.authenticate(w, r, "admin"); !ok {
		return
	}
	var req struct {
		Username   string `json:"username"`
		FirstName  string `json:"first_name"`
		LastName   string `json:"last_name"`
		Email      string `json:"email"`
		Department string `json:"department"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "JSON parse error")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	switch {
	case strings.TrimSpace(req.Username) == "":
		writeJSON(w, http.StatusBadRequest, map[string][]string{"username": {"This field is required."}})
		return
	case b.userByUsername(req.Username) != nil:
		writeJSON(w, http.StatusBadRequest, map[string][]string{"username": {"A user with that username already exists."}})
		return
	}
	b.nextID++
	u := &user{ID: b.nextID, Username: req.Username, FirstName: req.FirstName, LastName: req.LastName, Email: req.Email, Department: req.Department, Role: "faculty"}
	b.users[u.ID] = u
	writeJSON(w, http.StatusCreated, b.userJSON(u))
}

func (b *Backend) deleteFaculty(w http.ResponseWriter, r *http.Request) {
	if _, ok := b.authenticate(w, r, "admin"); !ok {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	id := pathID(r)
	u := b.users[id]
	if u == nil || u.Role != "faculty" {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	delete(b.users, id)
	for _, c := range b.courses {
		if c.FacultyID != nil && *c.FacultyID == id {
			c.FacultyID = nil
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (b *Backend) listCourses(w http.ResponseWriter, r *http.Request) {
	if _, ok := b.authenticate(w, r, "admin"); !ok {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	list := make([]map[string]any, 0, len(b.courses))
	for _, id := range sortedIDs(b.courses) {
		list = append(list, b.courseJSON(b.courses[id]))
	}
	writeJSON(w, http.StatusOK, list)
}

func (b *Backend) getCourse(w http.ResponseWriter, r *http.Request) {
	if _, ok := b.authenticate(w, r, "admin"); !ok {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	c := b.courses[pathID(r)]
	if c == nil {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	writeJSON(w, http.StatusOK, b.courseJSON(c))
}

func (b *Backend) createCourse(w http.ResponseWriter, r *http.Request) {
	if _, ok := b.authenticate(w, r, "admin"); !ok {
		return
	}
	var req struct {
		CourseCode string `json:"course_code"`
		Title      string `json:"title"`
		Faculty    *int64 `json:"faculty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "JSON parse error")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	fields := map[string][]string{}
	if req.CourseCode == "" {
		fields["course_code"] = []string{"This field is required."}
	} else if len(req.CourseCode) > 10 {
		fields["course_code"] = []string{"Ensure this field has no more than 10 characters."}
	}
	for _, c := range b.courses {
		if req.CourseCode != "" && c.Code == req.CourseCode {
			fields["course_code"] = []string{"course with this course code already exists."}
		}
	}
	if req.Title == "" {
		fields["title"] = []string{"This field is required."}
	}
	if req.Faculty != nil {
		if f := b.users[*req.Faculty]; f == nil || f.Role != "faculty" {
			fields["faculty"] = []string{fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", *req.Faculty)}
		}
	}
	if len(fields) > 0 {
		writeJSON(w, http.StatusBadRequest, fields)
		return
	}
	b.nextID++
	c := &course{ID: b.nextID, Code: req.CourseCode, Title: req.Title, FacultyID: req.Faculty}
	b.courses[c.ID] = c
	writeJSON(w, http.StatusCreated, b.courseJSON(c))
}

func (b *Backend) deleteCourse(w http.ResponseWriter, r *http.Request) {
	if _, ok := b.authenticate(w, r, "admin"); !ok {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	id := pathID(r)
	if b.courses[id] == nil {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	delete(b.courses, id)
	for k := range b.attendance {
		if k.CourseID == id {
			delete(b.attendance, k)
		}
	}
	for _, p := range b.profiles {
		kept := p.Enrolled[:0]
		for _, c := range p.Enrolled {
			if c != id {
				kept = append(kept, c)
			}
		}
		p.Enrolled = kept
	}
	w.WriteHeader(http.StatusNoContent)
}

func (b *Backend) userJSON(u *user) map[string]any {
	var dept any
	if u.Department != "" {
		dept = u.Department
	}
	return map[string]any{
		"id":         u.ID,
		"username":   u.Username,
		"first_name": u.FirstName,
		"last_name":  u.LastName,
		"email":      u.Email,
		"role":       u.Role,
		"department": dept,
	}
}

func (b *Backend) profileJSON(p *studentProfile) map[string]any {
	enrolled := append([]int64{}, p.Enrolled...)
	return map[string]any{
		"user":             b.userJSON(b.users[p.UserID]),
		"roll_number":      p.RollNumber,
		"course_of_study":  p.CourseOfStudy,
		"enrolled_courses": enrolled,
	}
}

// courseJSON reports total_classes as the number of distinct dates marked.
func (b *Backend) courseJSON(c *course) map[string]any {
	dates := map[string]struct{}{}
	for k := range b.attendance {
		if k.CourseID == c.ID {
			dates[k.Date] = struct{}{}
		}
	}
	return map[string]any{
		"id":            c.ID,
		"course_code":   c.Code,
		"title":         c.Title,
		"faculty":       c.FacultyID,
		"faculty_name":  b.facultyNameLocked(c.FacultyID),
		"total_classes": len(dates),
	}
}

func (b *Backend) facultyNameLocked(id *int64) string {
	if id == nil {
		return ""
	}
	u := b.users[*id]
	if u == nil {
		return ""
	}
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

func pathID(r *http.Request) int64 {
	id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id
}

func intField(v any) int64 {
	switch t := v.(type) {
	case float64:
		return int64(t)
	case string:
		id, _ := strconv.ParseInt(t, 10, 64)
		return id
	}
	return 0
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
