// Package policy decides who may read or mutate recipes and stored
// objects. Decisions are pure given the actor and the resource; only the
// share-grant check touches storage.
package policy

import (
	"github.com/dukerupert/larder/internal/model"
	"github.com/dukerupert/larder/internal/store"
)

// Actor identifies the caller of an operation. A nil UserID is an
// anonymous viewer. Email, when set, is asserted by the caller and not
// verified (share grants key on it).
type Actor struct {
	UserID *int64
	Email  string
}

// Anonymous is the actor for unauthenticated requests.
var Anonymous = Actor{}

func (a Actor) isUser(id int64) bool {
	return a.UserID != nil && *a.UserID == id
}

type Service struct {
	shares *store.ShareStore
}

func NewService(ss *store.ShareStore) *Service {
	return &Service{shares: ss}
}

// CanReadRecipe evaluates, in order: public flag, ownership, share grant.
// The first matching rule wins; no rule for other resource kinds applies.
func (s *Service) CanReadRecipe(recipe *model.Recipe, actor Actor) (bool, error) {
	if recipe == nil {
		return false, nil
	}
	if !recipe.IsPrivate {
		return true, nil
	}
	if actor.isUser(recipe.UserID) {
		return true, nil
	}
	if actor.Email != "" {
		granted, err := s.shares.Exists(recipe.ID, actor.Email)
		if err != nil {
			return false, err
		}
		if granted {
			return true, nil
		}
	}
	return false, nil
}

// CanWriteRecipe allows only the owning user. Share grants are read-only.
func (s *Service) CanWriteRecipe(recipe *model.Recipe, actor Actor) bool {
	return recipe != nil && actor.isUser(recipe.UserID)
}

// CanReadObject checks a stored object's access descriptor. A missing
// descriptor denies everyone.
func CanReadObject(acl *model.ObjectACL, actor Actor) bool {
	if acl == nil {
		return false
	}
	if acl.Visibility == model.VisibilityPublic {
		return true
	}
	return actor.isUser(acl.OwnerID)
}

// CanWriteObject allows only the object's recorded owner.
func CanWriteObject(acl *model.ObjectACL, actor Actor) bool {
	return acl != nil && actor.isUser(acl.OwnerID)
}
