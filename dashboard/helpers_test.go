package dashboard_test

import "github.com/jrsteele09/attendance-client/users"

func usersUser(id int64, username string) users.User {
	return users.User{ID: id, Username: username, Role: users.RoleStudent}
}
