package model

// Object visibility states for the access descriptor stamped on stored
// objects. Public objects are readable by anyone, including anonymous
// viewers; private objects only by their recorded owner.
const (
	VisibilityPublic  = "public"
	VisibilityPrivate = "private"
)

// ObjectACL is the {owner, visibility} descriptor attached to a stored
// object. It is independent of any recipe's privacy flag until the attach
// flow stamps it.
type ObjectACL struct {
	OwnerID    int64  `json:"owner_id"`
	Visibility string `json:"visibility"`
}
