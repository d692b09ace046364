package normalize

import (
	"fmt"
	"strings"

	"github.com/example/guildlog/internal/event"
	"github.com/example/guildlog/internal/routes"
)

func (b *builder) roleCreate(e event.RoleCreate) {
	b.emit(routes.CategoryRole, "ROLE CREATED",
		fmt.Sprintf("🎭 Role **%s** (`%s`) was created", orUnknown(e.Role.Name), e.Role.ID))
}

func (b *builder) roleDelete(e event.RoleDelete) {
	b.emit(routes.CategoryRole, "ROLE DELETED",
		fmt.Sprintf("🎭 Role **%s** (`%s`) was deleted", orUnknown(e.Role.Name), e.Role.ID))
}

func (b *builder) roleUpdate(e event.RoleUpdate) {
	before, after := e.Before, e.After
	var changes []string

	if before.Name != after.Name {
		changes = append(changes, fmt.Sprintf("**Name:** '%s' → '%s'", before.Name, after.Name))
	}
	if before.Color != after.Color {
		changes = append(changes, fmt.Sprintf("**Color:** %s → %s", color(before.Color), color(after.Color)))
	}
	added := difference(after.Permissions, before.Permissions)
	removed := difference(before.Permissions, after.Permissions)
	if len(added) > 0 {
		changes = append(changes, "**Added Permissions:** "+strings.Join(added, ", "))
	}
	if len(removed) > 0 {
		changes = append(changes, "**Removed Permissions:** "+strings.Join(removed, ", "))
	}

	if len(changes) == 0 {
		return
	}
	body := fmt.Sprintf("🎭 Role **%s** (`%s`) was updated\n", orUnknown(after.Name), after.ID) + strings.Join(changes, "\n")
	b.emit(routes.CategoryRole, "ROLE UPDATED", body)
}

// roleAssignment diffs a member's role set; it is independent of the
// role-definition rules above.
func (b *builder) roleAssignment(e event.MemberUpdate) {
	if e.Before.Automated || e.After.Automated {
		return
	}
	who := actor(e.After.User)

	if added := roleDifference(e.After.Roles, e.Before.Roles); len(added) > 0 {
		b.emit(routes.CategoryRole, "ROLES ADDED",
			fmt.Sprintf("👤 %s was given the following role(s): %s", who, roleNames(added)))
	}
	if removed := roleDifference(e.Before.Roles, e.After.Roles); len(removed) > 0 {
		b.emit(routes.CategoryRole, "ROLES REMOVED",
			fmt.Sprintf("👤 %s had the following role(s) removed: %s", who, roleNames(removed)))
	}
}

// difference returns the items of a missing from b, keeping a's order.
func difference(a, b []string) []string {
	seen := make(map[string]struct{}, len(b))
	for _, s := range b {
		seen[s] = struct{}{}
	}
	var out []string
	for _, s := range a {
		if _, ok := seen[s]; !ok {
			out = append(out, s)
		}
	}
	return out
}

func roleDifference(a, b []event.Role) []event.Role {
	seen := make(map[string]struct{}, len(b))
	for _, r := range b {
		seen[r.ID] = struct{}{}
	}
	var out []event.Role
	for _, r := range a {
		if _, ok := seen[r.ID]; !ok {
			out = append(out, r)
		}
	}
	return out
}

func roleNames(roles []event.Role) string {
	names := make([]string, 0, len(roles))
	for _, r := range roles {
		names = append(names, "**"+orUnknown(r.Name)+"**")
	}
	return strings.Join(names, ", ")
}
