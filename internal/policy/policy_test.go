package policy

import (
	"database/sql"
	"testing"

	"github.com/dukerupert/larder/internal/database"
	"github.com/dukerupert/larder/internal/model"
	"github.com/dukerupert/larder/internal/store"
)

type fixture struct {
	db     *sql.DB
	svc    *Service
	shares *store.ShareStore
	users  *store.UserStore
	owner  int64
	other  int64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	f := &fixture{
		db:     db,
		shares: store.NewShareStore(db),
		users:  store.NewUserStore(db),
	}
	f.svc = NewService(f.shares)

	owner, err := f.users.Create("owner@example.com", "hash", "Owner")
	if err != nil {
		t.Fatalf("create owner: %v", err)
	}
	other, err := f.users.Create("other@example.com", "hash", "Other")
	if err != nil {
		t.Fatalf("create other: %v", err)
	}
	f.owner = owner.ID
	f.other = other.ID
	return f
}

func (f *fixture) recipe(t *testing.T, private bool) *model.Recipe {
	t.Helper()
	rs := store.NewRecipeStore(f.db)
	r, err := rs.Create(f.owner, store.RecipeInput{
		Title:      "Secret Sauce",
		PrepTime:   "10 min",
		Servings:   2,
		Directions: "Blend.",
		IsPrivate:  private,
	})
	if err != nil {
		t.Fatalf("create recipe: %v", err)
	}
	return r
}

func actorFor(userID int64, email string) Actor {
	return Actor{UserID: &userID, Email: email}
}

func TestCanReadRecipePublic(t *testing.T) {
	f := newFixture(t)
	recipe := f.recipe(t, false)

	for name, actor := range map[string]Actor{
		"anonymous": Anonymous,
		"owner":     actorFor(f.owner, "owner@example.com"),
		"stranger":  actorFor(f.other, "other@example.com"),
	} {
		ok, err := f.svc.CanReadRecipe(recipe, actor)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if !ok {
			t.Errorf("%s should read a public recipe", name)
		}
	}
}

func TestCanReadRecipePrivate(t *testing.T) {
	f := newFixture(t)
	recipe := f.recipe(t, true)

	// Grants are keyed by email and unverified: the owner decides who to
	// trust when they type the address.
	if _, err := f.shares.Create(recipe.ID, "friend@example.com"); err != nil {
		t.Fatalf("create grant: %v", err)
	}

	cases := []struct {
		name  string
		actor Actor
		want  bool
	}{
		{"owner", actorFor(f.owner, "owner@example.com"), true},
		{"granted email", actorFor(f.other, "friend@example.com"), true},
		{"other user", actorFor(f.other, "other@example.com"), false},
		{"anonymous", Anonymous, false},
	}
	for _, tc := range cases {
		ok, err := f.svc.CanReadRecipe(recipe, tc.actor)
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if ok != tc.want {
			t.Errorf("%s: read = %v, want %v", tc.name, ok, tc.want)
		}
	}
}

func TestCanReadRecipeNil(t *testing.T) {
	f := newFixture(t)

	ok, err := f.svc.CanReadRecipe(nil, actorFor(f.owner, "owner@example.com"))
	if err != nil {
		t.Fatalf("read nil: %v", err)
	}
	if ok {
		t.Error("nil recipe must be denied")
	}
}

func TestCanWriteRecipeOwnerOnly(t *testing.T) {
	f := newFixture(t)
	recipe := f.recipe(t, true)

	// A share grant is read-only; the holder still cannot write
	if _, err := f.shares.Create(recipe.ID, "friend@example.com"); err != nil {
		t.Fatalf("create grant: %v", err)
	}

	if !f.svc.CanWriteRecipe(recipe, actorFor(f.owner, "owner@example.com")) {
		t.Error("owner should write")
	}
	if f.svc.CanWriteRecipe(recipe, actorFor(f.other, "friend@example.com")) {
		t.Error("grant holder must not write")
	}
	if f.svc.CanWriteRecipe(recipe, Anonymous) {
		t.Error("anonymous must not write")
	}
	if f.svc.CanWriteRecipe(nil, actorFor(f.owner, "owner@example.com")) {
		t.Error("nil recipe must not be writable")
	}
}

func TestCanReadObject(t *testing.T) {
	public := &model.ObjectACL{OwnerID: 10, Visibility: model.VisibilityPublic}
	private := &model.ObjectACL{OwnerID: 10, Visibility: model.VisibilityPrivate}

	if !CanReadObject(public, Anonymous) {
		t.Error("anyone should read a public object")
	}
	if !CanReadObject(private, actorFor(10, "")) {
		t.Error("owner should read a private object")
	}
	if CanReadObject(private, actorFor(20, "")) {
		t.Error("non-owner must not read a private object")
	}
	if CanReadObject(private, Anonymous) {
		t.Error("anonymous must not read a private object")
	}
	if CanReadObject(nil, actorFor(10, "")) {
		t.Error("an unstamped object must deny everyone")
	}
}

func TestCanWriteObject(t *testing.T) {
	acl := &model.ObjectACL{OwnerID: 10, Visibility: model.VisibilityPublic}

	if !CanWriteObject(acl, actorFor(10, "")) {
		t.Error("owner should write")
	}
	if CanWriteObject(acl, actorFor(20, "")) {
		t.Error("non-owner must not write even when the object is public")
	}
	if CanWriteObject(nil, actorFor(10, "")) {
		t.Error("an unstamped object must deny writes")
	}
}
