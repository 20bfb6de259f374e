package lecture

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/coursehub/core"
)

// Level is the content tier of a Lecture.
type Level string

const (
	LevelMemberBasic        Level = "member_basic"
	LevelMemberIntermediate Level = "member_intermediate"
	LevelMasterCommon       Level = "master_common"
	LevelMaster             Level = "master" // cohort specific
)

var Levels = []Level{LevelMemberBasic, LevelMemberIntermediate, LevelMasterCommon, LevelMaster}

// ParseLevel maps a raw value to a Level. ok is false for unknown values.
func ParseLevel(s string) (lvl Level, ok bool) {
	switch Level(core.CleanString(s, true /* lower */)) {
	case LevelMemberBasic:
		return LevelMemberBasic, true
	case LevelMemberIntermediate:
		return LevelMemberIntermediate, true
	case LevelMasterCommon:
		return LevelMasterCommon, true
	case LevelMaster:
		return LevelMaster, true
	}
	return "", false
}

func (l Level) IsValid() bool {
	_, ok := ParseLevel(string(l))
	return ok
}

// Label is the human readable badge of the level.
func (l Level) Label() string {
	switch l {
	case LevelMemberBasic:
		return "Basic"
	case LevelMemberIntermediate:
		return "Intermediate"
	case LevelMasterCommon:
		return "Master Common"
	case LevelMaster:
		return "Master"
	}
	return ""
}

type Lecture struct {
	ID           int       `json:"id"`
	ProgramID    int       `json:"program_id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Category     string    `json:"category"`
	Level        Level     `json:"level"`
	CohortNumber *int      `json:"cohort_number,omitempty"`
	Order        int       `json:"order"`
	Duration     int       `json:"duration"` // minutes
	Content      string    `json:"content,omitempty"`
	VideoURL     string    `json:"video_url,omitempty"`
	Tags         []string  `json:"tags"`
	CreatedAt    time.Time `json:"created_at"` // UTC
}

// HasCohort reports whether the lecture belongs to cohort `n`.
func (l Lecture) HasCohort(n int) bool {
	return l.CohortNumber != nil && *l.CohortNumber == n
}

// Locked returns a copy of the lecture without its protected content.
func (l Lecture) Locked() Lecture {
	l.Content = ""
	l.VideoURL = ""
	return l
}

// NewLecture contains information needed to create a new Lecture.
type NewLecture struct {
	ProgramID    int      `json:"program_id" validate:"required,gt=0"`
	Title        string   `json:"title" validate:"required,notblank"`
	Description  string   `json:"description"`
	Category     string   `json:"category"`
	Level        Level    `json:"level" validate:"required,lecturelevel"`
	CohortNumber *int     `json:"cohort_number" validate:"omitempty,gt=0"`
	Order        int      `json:"order" validate:"gte=0"`
	Duration     int      `json:"duration" validate:"gte=0"`
	Content      string   `json:"content"`
	VideoURL     string   `json:"video_url" validate:"omitempty,httpsurl"`
	Tags         []string `json:"tags"`
}

func (nl *NewLecture) Validate(ctx context.Context, validate *validator.Validate, svc ServiceInterface) error {
	nl.Title = core.CleanString(nl.Title)
	nl.Category = core.CleanString(nl.Category)
	nl.Level = Level(core.CleanString(string(nl.Level), true /* lower */))
	nl.VideoURL = core.CleanString(nl.VideoURL)
	nl.Tags = core.CleanStrings(nl.Tags)

	if err := validate.Struct(nl); err != nil {
		return err
	}
	return svc.CheckProgram(ctx, nl.ProgramID)
}

// UpdateLecture defines what information may be provided to modify an existing Lecture.
// Zero values keep the original ones.
type UpdateLecture struct {
	ProgramID    int      `json:"program_id" validate:"omitempty,gt=0"`
	Title        string   `json:"title"`
	Description  *string  `json:"description"`
	Category     *string  `json:"category"`
	Level        Level    `json:"level" validate:"omitempty,lecturelevel"`
	CohortNumber *int     `json:"cohort_number" validate:"omitempty,gt=0"`
	Order        *int     `json:"order" validate:"omitempty,gte=0"`
	Duration     *int     `json:"duration" validate:"omitempty,gte=0"`
	Content      *string  `json:"content"`
	VideoURL     string   `json:"video_url" validate:"omitempty,httpsurl"`
	Tags         []string `json:"tags"`
}

func (ul *UpdateLecture) Validate(ctx context.Context, orig Lecture, validate *validator.Validate, svc ServiceInterface) error {
	if ul.ProgramID == 0 {
		ul.ProgramID = orig.ProgramID
	}
	if ul.Title = core.CleanString(ul.Title); ul.Title == "" {
		ul.Title = orig.Title
	}
	if ul.Level = Level(core.CleanString(string(ul.Level), true /* lower */)); ul.Level == "" {
		ul.Level = orig.Level
	}
	if ul.CohortNumber == nil {
		ul.CohortNumber = orig.CohortNumber
	}
	if ul.VideoURL = core.CleanString(ul.VideoURL); ul.VideoURL == "" {
		ul.VideoURL = orig.VideoURL
	}
	if ul.Tags != nil {
		ul.Tags = core.CleanStrings(ul.Tags)
	}

	if err := validate.Struct(ul); err != nil {
		return err
	}
	if ul.ProgramID != orig.ProgramID {
		return svc.CheckProgram(ctx, ul.ProgramID)
	}
	return nil
}

// apply returns `orig` with the changes of `ul` applied.
func (ul UpdateLecture) apply(orig Lecture) Lecture {
	lec := orig
	lec.ProgramID = ul.ProgramID
	lec.Title = ul.Title
	lec.Level = ul.Level
	lec.CohortNumber = ul.CohortNumber
	if lec.Level != LevelMaster {
		lec.CohortNumber = nil // cohorts only apply to master lectures
	}
	lec.VideoURL = ul.VideoURL
	if ul.Description != nil {
		lec.Description = *ul.Description
	}
	if ul.Category != nil {
		lec.Category = core.CleanString(*ul.Category)
	}
	if ul.Order != nil {
		lec.Order = *ul.Order
	}
	if ul.Duration != nil {
		lec.Duration = *ul.Duration
	}
	if ul.Content != nil {
		lec.Content = *ul.Content
	}
	if ul.Tags != nil {
		lec.Tags = ul.Tags
	}
	return lec
}

type QueryFilter struct {
	ProgramID int `query:"program_id"`
}
