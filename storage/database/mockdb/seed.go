package mockdb

import (
	"encoding/json"
	"io/fs"
	"path"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/coursehub/core/lecture"
	"github.com/trezcool/coursehub/core/post"
	"github.com/trezcool/coursehub/core/program"
	"github.com/trezcool/coursehub/core/review"
	"github.com/trezcool/coursehub/core/user"
	"github.com/trezcool/coursehub/core/waitlist"
	appfs "github.com/trezcool/coursehub/fs"
)

// Fixtures holds the records a DB is seeded with.
type Fixtures struct {
	Programs []program.Program
	Lectures []lecture.Lecture
	Reviews  []review.Review
	Users    []FixtureUser
	Posts    []post.Post
	Waitlist []waitlist.Entry
}

// FixtureUser is a user.User with a clear text password.
type FixtureUser struct {
	user.User
	Password string `json:"password"`
}

// LoadFixtures reads the `<name>.json` fixture files found in `dir`.
func LoadFixtures(fsys fs.FS, dir string) (Fixtures, error) {
	var fx Fixtures
	files := []struct {
		name string
		dest interface{}
	}{
		{"programs", &fx.Programs},
		{"lectures", &fx.Lectures},
		{"reviews", &fx.Reviews},
		{"users", &fx.Users},
		{"posts", &fx.Posts},
		{"waitlist", &fx.Waitlist},
	}
	for _, f := range files {
		fp := path.Join(dir, f.name+".json")
		data, err := fs.ReadFile(fsys, fp)
		if err != nil {
			return Fixtures{}, errors.Wrapf(err, "reading %s", fp)
		}
		if err = json.Unmarshal(data, f.dest); err != nil {
			return Fixtures{}, errors.Wrapf(err, "decoding %s", fp)
		}
	}
	return fx, nil
}

func (db *DB) seed() error {
	fx, err := LoadFixtures(appfs.FS, appfs.FixturesDir)
	if err != nil {
		return errors.Wrap(err, "loading fixtures")
	}
	return db.Load(fx)
}

// Load stores the fixtures, keeping their IDs.
func (db *DB) Load(fx Fixtures) error {
	db.program.Lock()
	for _, p := range fx.Programs {
		stored := copyProgram(p)
		db.program.table[p.ID] = &stored
		db.program.pk = maxInt(db.program.pk, p.ID)
	}
	db.program.Unlock()

	db.lecture.Lock()
	for _, l := range fx.Lectures {
		stored := copyLecture(l)
		db.lecture.table[l.ID] = &stored
		db.lecture.pk = maxInt(db.lecture.pk, l.ID)
	}
	db.lecture.Unlock()

	db.review.Lock()
	for _, r := range fx.Reviews {
		stored := copyReview(r)
		db.review.table[r.ID] = &stored
		db.review.pk = maxInt(db.review.pk, r.ID)
	}
	db.review.Unlock()

	db.user.Lock()
	defer db.user.Unlock()
	for _, fu := range fx.Users {
		usr := fu.User
		hash, err := bcrypt.GenerateFromPassword([]byte(fu.Password), bcrypt.MinCost)
		if err != nil {
			return errors.Wrapf(err, "hashing password of %s", usr.Email)
		}
		usr.PasswordHash = hash
		db.user.table[usr.ID] = &usr
		db.user.pk = maxInt(db.user.pk, usr.ID)
	}

	db.post.Lock()
	for _, p := range fx.Posts {
		stored := copyPost(p)
		db.post.table[p.ID] = &stored
		db.post.pk = maxInt(db.post.pk, p.ID)
	}
	db.post.Unlock()

	db.waitlist.Lock()
	for _, e := range fx.Waitlist {
		stored := e
		db.waitlist.table[e.ID] = &stored
		db.waitlist.pk = maxInt(db.waitlist.pk, e.ID)
	}
	db.waitlist.Unlock()
	return nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
