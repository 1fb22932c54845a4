package core

// Permission levels, ordered from most to least restrictive.
// The gateway must never default to anything above LevelView.
const (
	LevelView  = "view"
	LevelEdit  = "edit"
	LevelAdmin = "admin"
)

var levelRank = map[string]int{
	LevelView:  1,
	LevelEdit:  2,
	LevelAdmin: 3,
}

// LevelRank returns the ordering rank of a permission level.
// Unknown levels rank below LevelView so they never satisfy a minimum.
func LevelRank(level string) int {
	return levelRank[level]
}

// ValidLevel reports whether level is one of the configured permission levels.
func ValidLevel(level string) bool {
	_, ok := levelRank[level]
	return ok
}

// Identity is the verified caller identity the gateway attaches to
// forwarded requests. It is produced from an upstream verification
// response and never stored beyond the verification cache.
type Identity struct {
	// ID is the upstream user identifier (subject).
	ID string

	// DBID is the optional internal database id of the user.
	DBID string

	Email    string
	FullName string

	// Brands is the set of brand codes the user may act on.
	Brands []string

	// Apps holds the permission slugs granted across the app family.
	Apps []string

	// PermissionLevel is the single ordered label governing write access
	// for this app. Defaults to LevelView when the upstream omits it.
	PermissionLevel string
}
