// Package routeguard encodes the portal's page access policy as a pure
// decision table over (role, requested path).
package routeguard

import (
	"strings"

	"codeceylon/portal/internal/catalog"
	"codeceylon/portal/internal/model"
)

type Action string

const (
	ActionRender   Action = "render"
	ActionRedirect Action = "redirect"
)

// Decision is the outcome for one navigation: either render the requested
// page or redirect to Target.
type Decision struct {
	Action Action
	Target string
}

func render() Decision            { return Decision{Action: ActionRender} }
func redirect(to string) Decision { return Decision{Action: ActionRedirect, Target: to} }

// homeFor maps a role to the one landing page it may see. The three home
// destinations are mutually exclusive per role.
func homeFor(role model.Role) string {
	switch role {
	case model.RoleAdmin:
		return "/admin"
	case model.RoleUser:
		return "/dashboard"
	default:
		return "/"
	}
}

// Decide applies the access policy. Subject pages (one per catalog stack)
// render for every role; the three home pages redirect to the caller's own
// home; anything unmatched goes back to the landing page.
func Decide(role model.Role, path string) Decision {
	path = normalize(path)
	if !role.Valid() {
		role = model.RoleAnonymous
	}

	switch path {
	case "/", "/dashboard", "/admin":
		if path == homeFor(role) {
			return render()
		}
		return redirect(homeFor(role))
	}

	if isSubjectPath(path) {
		return render()
	}
	return redirect("/")
}

func isSubjectPath(path string) bool {
	_, ok := catalog.StackByID(strings.TrimPrefix(path, "/"))
	return ok
}

func normalize(path string) string {
	if path == "" {
		return "/"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
		if path == "" {
			path = "/"
		}
	}
	return path
}
