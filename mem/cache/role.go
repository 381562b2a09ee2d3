package cache

import "fmt"

// A Role selects how a level treats inclusion with respect to the levels
// above and below it.
type Role int

const (
	// RolePrivateL1 levels pick victims at random and write back only dirty
	// lines.
	RolePrivateL1 Role = iota

	// RolePrivateL2 levels write back every valid victim and invalidate
	// their children's copies of it.
	RolePrivateL2

	// RoleSharedLastLevel levels are kept exclusive of the levels above:
	// read misses do not install and every hit removes the line.
	RoleSharedLastLevel
)

func (r Role) String() string {
	switch r {
	case RolePrivateL1:
		return "private-l1"
	case RolePrivateL2:
		return "private-l2"
	case RoleSharedLastLevel:
		return "shared-last-level"
	default:
		return fmt.Sprintf("Role(%d)", int(r))
	}
}

// ParseRole converts the name returned by String back into a Role.
func ParseRole(s string) (Role, error) {
	for _, r := range []Role{RolePrivateL1, RolePrivateL2, RoleSharedLastLevel} {
		if r.String() == s {
			return r, nil
		}
	}

	return 0, fmt.Errorf("unknown cache role %q", s)
}
