package main

import (
	"context"
	"errors"

	pkgerrors "github.com/pkg/errors"

	"github.com/trezcool/coursehub/apps/api/di"
	"github.com/trezcool/coursehub/core/program"
	appfs "github.com/trezcool/coursehub/fs"
	"github.com/trezcool/coursehub/storage/database/mockdb"
)

var errStoreNotEmpty = errors.New("the store already holds programs, seed aborted")

// seed copies the embedded fixtures into the configured store.
// Fixture IDs are remapped to the IDs the store assigns.
func (cli *commandLine) seed() error {
	ctx := context.Background()
	store, err := cli.openStore()
	if err != nil {
		return err
	}

	progs, err := store.Programs.List(ctx, program.QueryFilter{})
	if err != nil {
		return err
	}
	if len(progs) > 0 {
		return errStoreNotEmpty
	}

	fx, err := mockdb.LoadFixtures(appfs.FS, appfs.FixturesDir)
	if err != nil {
		return err
	}
	return seedStore(ctx, store, fx)
}

func seedStore(ctx context.Context, store di.Store, fx mockdb.Fixtures) error {
	progIDs := make(map[int]int, len(fx.Programs))
	for _, prog := range fx.Programs {
		oldID := prog.ID
		prog.ID = 0
		created, err := store.Programs.Create(ctx, prog)
		if err != nil {
			return pkgerrors.Wrapf(err, "seeding program %q", prog.Slug)
		}
		progIDs[oldID] = created.ID
	}

	for _, lec := range fx.Lectures {
		progID, ok := progIDs[lec.ProgramID]
		if !ok {
			return pkgerrors.Errorf("lecture %q: unknown program %d", lec.Title, lec.ProgramID)
		}
		lec.ID = 0
		lec.ProgramID = progID
		if _, err := store.Lectures.Create(ctx, lec); err != nil {
			return pkgerrors.Wrapf(err, "seeding lecture %q", lec.Title)
		}
	}

	userIDs := make(map[int]int, len(fx.Users))
	for _, fu := range fx.Users {
		usr := fu.User
		oldID := usr.ID
		usr.ID = 0
		if err := usr.SetPassword(fu.Password); err != nil {
			return err
		}
		created, err := store.Users.Create(ctx, usr)
		if err != nil {
			return pkgerrors.Wrapf(err, "seeding user %q", usr.Email)
		}
		userIDs[oldID] = created.ID
	}

	for _, rev := range fx.Reviews {
		rev.ID = 0
		rev.AuthorID = userIDs[rev.AuthorID]
		likes := make([]int, 0, len(rev.Likes))
		for _, id := range rev.Likes {
			if newID, ok := userIDs[id]; ok {
				likes = append(likes, newID)
			}
		}
		rev.Likes = likes
		if _, err := store.Reviews.Create(ctx, rev); err != nil {
			return pkgerrors.Wrapf(err, "seeding review of %q", rev.AuthorName)
		}
	}

	for _, p := range fx.Posts {
		p.ID = 0
		if _, err := store.Posts.Create(ctx, p); err != nil {
			return pkgerrors.Wrapf(err, "seeding post %q", p.Slug)
		}
	}

	for _, entry := range fx.Waitlist {
		entry.ID = 0
		if _, err := store.Waitlist.Create(ctx, entry); err != nil {
			return pkgerrors.Wrapf(err, "seeding waitlist entry of %q", entry.Email)
		}
	}
	return nil
}
