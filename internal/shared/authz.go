package shared

// Core authority names checked by the authorization gate. Role names double
// as authorities alongside the privileges attached to them.
const (
	AuthorityAdmin = "ADMIN"
	AuthorityUser  = "USER"

	PrivReadItem  = "priv-read-item"
	PrivWriteItem = "priv-write-item"
)

// CoreAuthorities lists every authority the seed data grants.
func CoreAuthorities() []string {
	return []string{
		AuthorityAdmin,
		AuthorityUser,
		PrivReadItem,
		PrivWriteItem,
	}
}
