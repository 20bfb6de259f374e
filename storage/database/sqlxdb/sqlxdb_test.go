package sqlxdb

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/coursehub/core/account"
	"github.com/trezcool/coursehub/core/lecture"
	"github.com/trezcool/coursehub/core/post"
	"github.com/trezcool/coursehub/core/program"
	"github.com/trezcool/coursehub/core/review"
	"github.com/trezcool/coursehub/core/user"
	"github.com/trezcool/coursehub/core/waitlist"
	"github.com/trezcool/coursehub/storage/database"
)

// openTestDB migrates a fresh schema on TEST_DATABASE_URL, skipping the test if unset.
func openTestDB(t *testing.T) *sqlx.DB {
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	db, err := database.OpenURL(dbURL)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, database.Migrate(ctx, db.DB, "reset"))
	require.NoError(t, database.Migrate(ctx, db.DB, "up"))
	t.Cleanup(func() {
		_ = database.Migrate(ctx, db.DB, "reset")
		_ = db.Close()
	})
	return db
}

func createProgram(t *testing.T, repo program.Repository, slug string, typ program.Type, at time.Time) program.Program {
	prog, err := repo.Create(context.Background(), program.Program{
		Slug:      slug,
		Title:     slug,
		Type:      typ,
		Tags:      []string{"go"},
		CreatedAt: at,
	})
	require.NoError(t, err)
	return prog
}

func TestRepositories(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	progRepo := NewProgramRepository(db)
	lecRepo := NewLectureRepository(db)

	member := createProgram(t, progRepo, "go-basics", program.TypeMember, now.Add(-time.Hour))
	master := createProgram(t, progRepo, "go-master", program.TypeMaster, now)

	t.Run("programs", func(t *testing.T) {
		assert.Equal(t, program.ErrSlugExists, progRepo.CheckSlugUniqueness(ctx, "go-basics"))
		assert.NoError(t, progRepo.CheckSlugUniqueness(ctx, "go-basics", member))

		_, err := progRepo.Create(ctx, program.Program{Slug: "go-basics", Title: "dup", Type: program.TypeMember, CreatedAt: now})
		assert.Equal(t, program.ErrSlugExists, err)

		progs, err := progRepo.List(ctx, program.QueryFilter{})
		require.NoError(t, err)
		if assert.Len(t, progs, 2) {
			assert.Equal(t, master.ID, progs[0].ID)
		}

		progs, err = progRepo.List(ctx, program.QueryFilter{Type: program.TypeMember})
		require.NoError(t, err)
		if assert.Len(t, progs, 1) {
			assert.Equal(t, member, progs[0])
		}

		progs, err = progRepo.List(ctx, program.QueryFilter{Search: "MASTER"})
		require.NoError(t, err)
		assert.Len(t, progs, 1)

		got, err := progRepo.GetBySlug(ctx, "go-master")
		require.NoError(t, err)
		assert.Equal(t, master, got)

		_, err = progRepo.Get(ctx, 0)
		assert.Equal(t, program.ErrNotFound, err)
	})

	t.Run("lectures", func(t *testing.T) {
		cohort := 2
		second, err := lecRepo.Create(ctx, lecture.Lecture{
			ProgramID: master.ID, Title: "second", Level: lecture.LevelMaster, CohortNumber: &cohort, Order: 2, CreatedAt: now,
		})
		require.NoError(t, err)
		require.NotNil(t, second.CohortNumber)
		assert.Equal(t, 2, *second.CohortNumber)

		first, err := lecRepo.Create(ctx, lecture.Lecture{
			ProgramID: master.ID, Title: "first", Level: lecture.LevelMasterCommon, Order: 1, CreatedAt: now,
		})
		require.NoError(t, err)
		assert.Nil(t, first.CohortNumber)

		lecs, err := lecRepo.ListByProgram(ctx, master.ID)
		require.NoError(t, err)
		if assert.Len(t, lecs, 2) {
			assert.Equal(t, "first", lecs[0].Title)
			assert.Equal(t, "second", lecs[1].Title)
		}

		first.Title = "intro"
		updated, err := lecRepo.Update(ctx, first)
		require.NoError(t, err)
		assert.Equal(t, "intro", updated.Title)

		// deleting the program cascades
		require.NoError(t, progRepo.Delete(ctx, master.ID))
		_, err = lecRepo.Get(ctx, first.ID)
		assert.Equal(t, lecture.ErrNotFound, err)
		assert.Equal(t, program.ErrNotFound, progRepo.Delete(ctx, master.ID))
	})

	t.Run("reviews", func(t *testing.T) {
		repo := NewReviewRepository(db)
		rev, err := repo.Create(ctx, review.Review{AuthorName: "Ada", Rating: 5, Text: "great", CreatedAt: now})
		require.NoError(t, err)
		assert.Empty(t, rev.Likes)

		rev, err = repo.ToggleLike(ctx, rev.ID, 7)
		require.NoError(t, err)
		assert.Equal(t, []int{7}, rev.Likes)

		rev.Featured = true
		rev, err = repo.Update(ctx, rev)
		require.NoError(t, err)
		assert.Equal(t, []int{7}, rev.Likes)

		featured, err := repo.ListFeatured(ctx)
		require.NoError(t, err)
		assert.Len(t, featured, 1)

		rev, err = repo.ToggleLike(ctx, rev.ID, 7)
		require.NoError(t, err)
		assert.Empty(t, rev.Likes)

		_, err = repo.ToggleLike(ctx, rev.ID+100, 7)
		assert.Equal(t, review.ErrNotFound, err)
	})

	t.Run("users", func(t *testing.T) {
		repo := NewUserRepository(db)
		usr, err := repo.Create(ctx, user.User{
			Name: "Ada", Email: "ada@test.io", Role: account.RoleMaster, Cohort: "3",
			PasswordHash: []byte("hash"), CreatedAt: now, UpdatedAt: now,
		})
		require.NoError(t, err)
		assert.True(t, usr.LastLogin.IsZero())

		_, err = repo.Create(ctx, user.User{Name: "Ada", Email: "ada@test.io", PasswordHash: []byte("x"), CreatedAt: now, UpdatedAt: now})
		assert.Equal(t, user.ErrEmailExists, err)

		usr.PasswordHash = nil
		usr.LastLogin = now
		usr, err = repo.Update(ctx, usr)
		require.NoError(t, err)
		assert.Equal(t, []byte("hash"), usr.PasswordHash)
		assert.Equal(t, now, usr.LastLogin)

		isAdmin := false
		users, err := repo.List(ctx, user.QueryFilter{Role: account.RoleMaster, IsAdmin: &isAdmin, Search: "ADA"})
		require.NoError(t, err)
		assert.Len(t, users, 1)
	})

	t.Run("posts", func(t *testing.T) {
		repo := NewPostRepository(db)
		p, err := repo.Create(ctx, post.Post{
			Title: "Hello", Slug: "hello", Content: "world", Status: post.StatusPublished, CreatedAt: now, UpdatedAt: now,
		})
		require.NoError(t, err)
		assert.Equal(t, []string{}, p.Tags)

		posts, err := repo.List(ctx, post.QueryFilter{Status: post.StatusDraft})
		require.NoError(t, err)
		assert.Empty(t, posts)

		got, err := repo.GetBySlug(ctx, "hello")
		require.NoError(t, err)
		assert.Equal(t, p, got)
	})

	t.Run("waitlist", func(t *testing.T) {
		repo := NewWaitlistRepository(db)
		_, err := repo.Create(ctx, waitlist.Entry{Email: "ada@test.io", ProgramSlug: "go-master", CreatedAt: now})
		require.NoError(t, err)

		_, err = repo.Create(ctx, waitlist.Entry{Email: "ada@test.io", ProgramSlug: "go-master", CreatedAt: now})
		assert.Equal(t, waitlist.ErrAlreadyOnWaitlist, err)

		ok, err := repo.Exists(ctx, "ada@test.io", "go-master")
		require.NoError(t, err)
		assert.True(t, ok)
	})
}
