package nav

import "campus-relay/internal/identity"

var (
	admin   = identity.RoleAdmin
	teacher = identity.RoleTeacher
	student = identity.RoleStudent
	parent  = identity.RoleParent

	all       = []identity.Role{admin, teacher, student, parent}
	staff     = []identity.Role{admin, teacher}
	adminOnly = []identity.Role{admin}
)

// DefaultTree is the dashboard menu. Role gates on parents are the union
// of their children's so a role with any visible child sees the section.
func DefaultTree() []Node {
	return []Node{
		{Name: "Dashboard", Icon: "layout-dashboard", Path: "/", Roles: all},
		{Name: "General Settings", Icon: "settings", Roles: []identity.Role{admin, teacher, student}, Children: []Node{
			{Name: "Institute Profile", Path: "/settings/profile", Roles: adminOnly},
			{Name: "Fees Particulars", Path: "/settings/fees-particulars", Roles: adminOnly},
			{Name: "Fees Structure", Path: "/settings/fees-structure", Roles: adminOnly},
			{Name: "Marks Grading", Path: "/settings/grading", Roles: adminOnly},
			{Name: "Theme & Language", Path: "/settings/theme", Roles: adminOnly},
			{Name: "Account Settings", Path: "/settings/account", Roles: []identity.Role{admin, teacher, student}},
		}},
		{Name: "Classes", Icon: "home", Roles: staff, Children: []Node{
			{Name: "All Classes", Path: "/classes/all"},
			{Name: "New Class", Path: "/classes/new", Roles: adminOnly},
		}},
		{Name: "Subjects", Icon: "book-open", Roles: staff, Children: []Node{
			{Name: "Classes With Subjects", Path: "/subjects/classes"},
			{Name: "Assign Subjects", Path: "/subjects/assign", Roles: adminOnly},
		}},
		{Name: "Students", Icon: "graduation-cap", Roles: []identity.Role{admin, teacher, student}, Children: []Node{
			{Name: "All Students", Path: "/students/all", Roles: staff},
			{Name: "Add New", Path: "/students/new", Roles: adminOnly},
			{Name: "Manage Families", Path: "/students/families", Roles: adminOnly},
			{Name: "Admission Letter", Path: "/students/admission-letter", Roles: []identity.Role{admin, teacher, student}},
			{Name: "Promote Students", Path: "/students/promote", Roles: adminOnly},
		}},
		{Name: "Employees", Icon: "briefcase", Roles: adminOnly, Children: []Node{
			{Name: "All Employees", Path: "/employees/all"},
			{Name: "Add New", Path: "/employees/new"},
		}},
		{Name: "Fees", Icon: "credit-card", Roles: []identity.Role{admin, parent}, Children: []Node{
			{Name: "Collect Fees", Path: "/fees/collect", Roles: adminOnly},
			{Name: "Fees Report", Path: "/fees/report", Roles: []identity.Role{admin, parent}},
		}},
		{Name: "Attendance", Icon: "clipboard-check", Roles: staff, Children: []Node{
			{Name: "Mark Attendance", Path: "/attendance/mark"},
			{Name: "Attendance Report", Path: "/attendance/report"},
		}},
		{Name: "Exams", Icon: "pen-tool", Roles: staff, Children: []Node{
			{Name: "Manage Exams", Path: "/exams/manage", Roles: adminOnly},
			{Name: "Enter Marks", Path: "/exams/marks"},
			{Name: "Result Cards", Path: "/exams/results"},
		}},
		{Name: "Messaging", Icon: "message-square", Path: "/chat", Roles: all},
		{Name: "Live Class", Icon: "video", Path: "/live-class", Roles: []identity.Role{admin, teacher, student}},
		{Name: "Reports", Icon: "file-search", Roles: adminOnly, Children: []Node{
			{Name: "Student Report", Path: "/reports/students"},
			{Name: "Fees Report", Path: "/reports/fees"},
		}},
	}
}
