package routeguard

import (
	"testing"

	"codeceylon/portal/internal/model"
)

func TestHomePagesMutuallyExclusive(t *testing.T) {
	cases := []struct {
		role model.Role
		path string
		want Decision
	}{
		{model.RoleAnonymous, "/", Decision{Action: ActionRender}},
		{model.RoleAnonymous, "/dashboard", Decision{Action: ActionRedirect, Target: "/"}},
		{model.RoleAnonymous, "/admin", Decision{Action: ActionRedirect, Target: "/"}},

		{model.RoleUser, "/", Decision{Action: ActionRedirect, Target: "/dashboard"}},
		{model.RoleUser, "/dashboard", Decision{Action: ActionRender}},
		{model.RoleUser, "/admin", Decision{Action: ActionRedirect, Target: "/dashboard"}},

		{model.RoleAdmin, "/", Decision{Action: ActionRedirect, Target: "/admin"}},
		{model.RoleAdmin, "/dashboard", Decision{Action: ActionRedirect, Target: "/admin"}},
		{model.RoleAdmin, "/admin", Decision{Action: ActionRender}},
	}
	for _, c := range cases {
		got := Decide(c.role, c.path)
		if got != c.want {
			t.Fatalf("Decide(%s, %s) = %+v, want %+v", c.role, c.path, got, c.want)
		}
	}
}

func TestEachRoleLandsOnExactlyOneHome(t *testing.T) {
	homes := []string{"/", "/dashboard", "/admin"}
	for _, role := range []model.Role{model.RoleAnonymous, model.RoleUser, model.RoleAdmin} {
		rendered := 0
		for _, home := range homes {
			if Decide(role, home).Action == ActionRender {
				rendered++
			}
		}
		if rendered != 1 {
			t.Fatalf("role %s renders %d home pages, want exactly 1", role, rendered)
		}
	}
}

func TestSubjectPagesRenderForAllRoles(t *testing.T) {
	for _, role := range []model.Role{model.RoleAnonymous, model.RoleUser, model.RoleAdmin} {
		for _, path := range []string{"/java", "/python", "/react", "/html-css"} {
			got := Decide(role, path)
			if got.Action != ActionRender {
				t.Fatalf("Decide(%s, %s) = %+v, want render", role, path, got)
			}
		}
	}
}

func TestUnmatchedPathsRedirectToLanding(t *testing.T) {
	for _, role := range []model.Role{model.RoleAnonymous, model.RoleUser, model.RoleAdmin} {
		for _, path := range []string{"/nope", "/admin/secrets", "/java/extra"} {
			got := Decide(role, path)
			if got.Action != ActionRedirect || got.Target != "/" {
				t.Fatalf("Decide(%s, %s) = %+v, want redirect to /", role, path, got)
			}
		}
	}
}

func TestNormalization(t *testing.T) {
	if got := Decide(model.RoleUser, "dashboard"); got.Action != ActionRender {
		t.Fatalf("expected bare path to normalize, got %+v", got)
	}
	if got := Decide(model.RoleUser, "/java/"); got.Action != ActionRender {
		t.Fatalf("expected trailing slash to normalize, got %+v", got)
	}
	if got := Decide(model.RoleAnonymous, ""); got.Action != ActionRender {
		t.Fatalf("empty path should be the landing page, got %+v", got)
	}
}

func TestUnknownRoleTreatedAsAnonymous(t *testing.T) {
	got := Decide(model.Role("root"), "/admin")
	if got.Action != ActionRedirect || got.Target != "/" {
		t.Fatalf("unknown role must fall back to anonymous, got %+v", got)
	}
}
