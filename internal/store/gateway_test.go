package store_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/nikshvein/personhub/internal/domain"
	"github.com/nikshvein/personhub/internal/errs"
	"github.com/nikshvein/personhub/internal/store"
)

func openTestGateway(t *testing.T) *store.Gateway {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	g, err := store.OpenSQLiteForTest(path)
	if err != nil {
		t.Fatalf("open sqlite gateway: %v", err)
	}
	t.Cleanup(func() { g.Close() })
	return g
}

func mustSaveUser(t *testing.T, g *store.Gateway, username string) domain.User {
	t.Helper()
	u, err := g.SaveUser(context.Background(), username, "deadbeef")
	if err != nil {
		t.Fatalf("save user %q: %v", username, err)
	}
	return *u
}

func samplePerson(ownerID int64) domain.Person {
	return domain.Person{
		OwnerID:     ownerID,
		Name:        "Grace Hopper",
		Coordinates: domain.Coordinates{X: 3, Y: 4},
		Height:      165,
		Weight:      60,
		HairColor:   domain.HairWhite,
		Nationality: domain.NationalityUSA,
		Location:    domain.Location{X: 1.0, HasY: true, Y: 2.0, Name: "Arlington"},
	}
}

func TestSaveAndFindAllPersons(t *testing.T) {
	g := openTestGateway(t)
	ctx := context.Background()
	owner := mustSaveUser(t, g, "alice")

	saved, err := g.SavePerson(ctx, samplePerson(owner.ID))
	if err != nil {
		t.Fatalf("save person: %v", err)
	}
	if saved.ID == 0 {
		t.Fatal("expected a non-zero assigned id")
	}
	if saved.CreationDate.IsZero() {
		t.Fatal("expected a populated creation date")
	}

	all, err := g.FindAllPersons(ctx)
	if err != nil {
		t.Fatalf("find all: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected 1 person, got %d", len(all))
	}
	if all[0].ID != saved.ID || all[0].Name != saved.Name {
		t.Fatalf("mismatch: got %+v, want %+v", all[0], saved)
	}
}

func TestRemovePersonByID(t *testing.T) {
	g := openTestGateway(t)
	ctx := context.Background()
	owner := mustSaveUser(t, g, "bob")

	saved, err := g.SavePerson(ctx, samplePerson(owner.ID))
	if err != nil {
		t.Fatalf("save person: %v", err)
	}

	removed, err := g.RemovePersonByID(ctx, saved.ID)
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if !removed {
		t.Fatal("expected removal to report true")
	}

	removedAgain, err := g.RemovePersonByID(ctx, saved.ID)
	if err != nil {
		t.Fatalf("remove again: %v", err)
	}
	if removedAgain {
		t.Fatal("expected second removal of the same id to report false")
	}
}

func TestSaveUserRejectsDuplicateUsername(t *testing.T) {
	g := openTestGateway(t)
	ctx := context.Background()

	mustSaveUser(t, g, "carol")
	_, err := g.SaveUser(ctx, "carol", "anotherhash")
	if !errors.Is(err, errs.ErrDuplicateUser) {
		t.Fatalf("expected ErrDuplicateUser, got %v", err)
	}
}

func TestFindUserByUsernameMissing(t *testing.T) {
	g := openTestGateway(t)
	u, err := g.FindUserByUsername(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("find user: %v", err)
	}
	if u != nil {
		t.Fatalf("expected nil for a missing user, got %+v", u)
	}
}

func TestExistsUserByUsername(t *testing.T) {
	g := openTestGateway(t)
	ctx := context.Background()
	mustSaveUser(t, g, "dave")

	exists, err := g.ExistsUserByUsername(ctx, "dave")
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	if !exists {
		t.Fatal("expected dave to exist")
	}

	exists, err = g.ExistsUserByUsername(ctx, "ghost")
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	if exists {
		t.Fatal("expected ghost to not exist")
	}
}
