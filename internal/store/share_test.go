package store

import "testing"

func TestShareCreateAndExists(t *testing.T) {
	db := newTestDB(t)
	userID := seedUser(t, db, "alice@example.com")
	recipeID := seedRecipe(t, db, userID, "Chili", true)
	ss := NewShareStore(db)

	grant, err := ss.Create(recipeID, "friend@example.com")
	if err != nil {
		t.Fatalf("create grant: %v", err)
	}
	if grant.RecipeID != recipeID || grant.SharedWithEmail != "friend@example.com" {
		t.Errorf("grant = %+v, want recipe %d for friend@example.com", grant, recipeID)
	}

	ok, err := ss.Exists(recipeID, "friend@example.com")
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	if !ok {
		t.Error("expected grant to exist")
	}

	ok, err = ss.Exists(recipeID, "stranger@example.com")
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	if ok {
		t.Error("expected no grant for a different email")
	}
}

func TestShareCreateIdempotent(t *testing.T) {
	db := newTestDB(t)
	userID := seedUser(t, db, "alice@example.com")
	recipeID := seedRecipe(t, db, userID, "Chili", true)
	ss := NewShareStore(db)

	first, err := ss.Create(recipeID, "friend@example.com")
	if err != nil {
		t.Fatalf("first create: %v", err)
	}
	second, err := ss.Create(recipeID, "friend@example.com")
	if err != nil {
		t.Fatalf("second create: %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("expected same grant back, got %d then %d", first.ID, second.ID)
	}

	var count int
	if err := db.QueryRow(
		`SELECT COUNT(*) FROM share_grants WHERE recipe_id = ?`, recipeID,
	).Scan(&count); err != nil {
		t.Fatalf("count grants: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 grant row, got %d", count)
	}
}

func TestShareExistsCaseInsensitiveEmail(t *testing.T) {
	db := newTestDB(t)
	userID := seedUser(t, db, "alice@example.com")
	recipeID := seedRecipe(t, db, userID, "Chili", true)
	ss := NewShareStore(db)

	if _, err := ss.Create(recipeID, "friend@example.com"); err != nil {
		t.Fatalf("create grant: %v", err)
	}

	ok, err := ss.Exists(recipeID, "Friend@Example.COM")
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	if !ok {
		t.Error("expected grant lookup to ignore email case")
	}
}

func TestShareListRecipeIDsByEmailInGrantOrder(t *testing.T) {
	db := newTestDB(t)
	userID := seedUser(t, db, "alice@example.com")
	ss := NewShareStore(db)

	r1 := seedRecipe(t, db, userID, "First", true)
	r2 := seedRecipe(t, db, userID, "Second", true)

	if _, err := ss.Create(r2, "friend@example.com"); err != nil {
		t.Fatalf("create grant: %v", err)
	}
	if _, err := ss.Create(r1, "friend@example.com"); err != nil {
		t.Fatalf("create grant: %v", err)
	}

	ids, err := ss.ListRecipeIDsByEmail("friend@example.com")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []int64{r2, r1}
	if len(ids) != len(want) {
		t.Fatalf("expected %d ids, got %d", len(want), len(ids))
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("ids[%d] = %d, want %d", i, ids[i], want[i])
		}
	}
}

func TestShareRevoke(t *testing.T) {
	db := newTestDB(t)
	userID := seedUser(t, db, "alice@example.com")
	recipeID := seedRecipe(t, db, userID, "Chili", true)
	ss := NewShareStore(db)

	if _, err := ss.Create(recipeID, "friend@example.com"); err != nil {
		t.Fatalf("create grant: %v", err)
	}
	if err := ss.Revoke(recipeID, "friend@example.com"); err != nil {
		t.Fatalf("revoke: %v", err)
	}

	ok, err := ss.Exists(recipeID, "friend@example.com")
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	if ok {
		t.Error("expected grant gone after revoke")
	}
}

func TestShareRevokeNonexistentIsNoop(t *testing.T) {
	db := newTestDB(t)
	userID := seedUser(t, db, "alice@example.com")
	recipeID := seedRecipe(t, db, userID, "Chili", true)
	ss := NewShareStore(db)

	if err := ss.Revoke(recipeID, "never-granted@example.com"); err != nil {
		t.Fatalf("revoke should be a no-op, got %v", err)
	}
}
