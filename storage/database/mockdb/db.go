// Package mockdb is an in-memory data store emulating a remote backend.
// Every DB returned by Open owns its own tables.
package mockdb

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/trezcool/coursehub/core/lecture"
	"github.com/trezcool/coursehub/core/post"
	"github.com/trezcool/coursehub/core/program"
	"github.com/trezcool/coursehub/core/review"
	"github.com/trezcool/coursehub/core/user"
	"github.com/trezcool/coursehub/core/waitlist"
)

// Default latency range.
const (
	DefaultMinLatency = 200 * time.Millisecond
	DefaultMaxLatency = 400 * time.Millisecond
)

type (
	Options struct {
		MinLatency time.Duration
		MaxLatency time.Duration
		Seed       bool // load the embedded fixtures
	}

	DB struct {
		program  *programTable
		lecture  *lectureTable
		review   *reviewTable
		user     *userTable
		post     *postTable
		waitlist *waitlistTable

		minLatency time.Duration
		maxLatency time.Duration
		rndMu      sync.Mutex
		rnd        *rand.Rand
	}

	programTable struct {
		sync.RWMutex
		table map[int]*program.Program
		pk    int
	}

	lectureTable struct {
		sync.RWMutex
		table map[int]*lecture.Lecture
		pk    int
	}

	reviewTable struct {
		sync.RWMutex
		table map[int]*review.Review
		pk    int
	}

	userTable struct {
		sync.RWMutex
		table map[int]*user.User
		pk    int
	}

	postTable struct {
		sync.RWMutex
		table map[int]*post.Post
		pk    int
	}

	waitlistTable struct {
		sync.RWMutex
		table map[int]*waitlist.Entry
		pk    int
	}
)

// Open returns a new, isolated DB.
func Open(opts Options) (*DB, error) {
	if opts.MaxLatency < opts.MinLatency {
		opts.MaxLatency = opts.MinLatency
	}
	db := &DB{
		program:    &programTable{table: make(map[int]*program.Program)},
		lecture:    &lectureTable{table: make(map[int]*lecture.Lecture)},
		review:     &reviewTable{table: make(map[int]*review.Review)},
		user:       &userTable{table: make(map[int]*user.User)},
		post:       &postTable{table: make(map[int]*post.Post)},
		waitlist:   &waitlistTable{table: make(map[int]*waitlist.Entry)},
		minLatency: opts.MinLatency,
		maxLatency: opts.MaxLatency,
		rnd:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	if opts.Seed {
		if err := db.seed(); err != nil {
			return nil, err
		}
	}
	return db, nil
}

func (db *DB) latency() time.Duration {
	spread := db.maxLatency - db.minLatency
	if spread <= 0 {
		return db.minLatency
	}
	db.rndMu.Lock()
	defer db.rndMu.Unlock()
	return db.minLatency + time.Duration(db.rnd.Int63n(int64(spread)+1))
}

// wait simulates the network round trip. It returns early with ctx.Err() on cancellation.
func (db *DB) wait(ctx context.Context) error {
	d := db.latency()
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func copyStrings(ss []string) []string {
	out := make([]string, len(ss))
	copy(out, ss)
	return out
}

func copyInts(is []int) []int {
	out := make([]int, len(is))
	copy(out, is)
	return out
}
