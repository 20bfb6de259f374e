package lecture_test

import (
	"context"
	"testing"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/coursehub/core"
	"github.com/trezcool/coursehub/core/lecture"
	"github.com/trezcool/coursehub/core/program"
	"github.com/trezcool/coursehub/storage/database/mockdb"
	"github.com/trezcool/coursehub/testutil"
)

func setup(t *testing.T) (*lecture.Service, lecture.Repository, program.Program, *validator.Validate, ut.Translator) {
	db, err := mockdb.Open(mockdb.Options{})
	require.NoError(t, err)
	progRepo := mockdb.NewProgramRepository(db)
	repo := mockdb.NewLectureRepository(db)
	prog := testutil.CreateProgram(t, progRepo, "go-master", program.TypeMaster, true)

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	lecture.InitValidators(validate, translator)
	return lecture.NewService(repo, progRepo), repo, prog, validate, translator
}

func TestNewLecture_Validate(t *testing.T) {
	ctx := context.Background()
	svc, _, prog, validate, translator := setup(t)
	cohort, badCohort := 2, 0

	tests := []struct {
		name       string
		nl         lecture.NewLecture
		wantFields map[string]string
	}{
		{name: "common lecture", nl: lecture.NewLecture{ProgramID: prog.ID, Title: "Welcome", Level: " MASTER_COMMON "}},
		{name: "cohort lecture", nl: lecture.NewLecture{ProgramID: prog.ID, Title: "Channels", Level: lecture.LevelMaster, CohortNumber: &cohort}},
		{
			name:       "cohort lecture without cohort",
			nl:         lecture.NewLecture{ProgramID: prog.ID, Title: "Channels", Level: lecture.LevelMaster},
			wantFields: map[string]string{"cohort_number": "master lectures must have a cohort number"},
		},
		{
			name:       "invalid cohort",
			nl:         lecture.NewLecture{ProgramID: prog.ID, Title: "Channels", Level: lecture.LevelMaster, CohortNumber: &badCohort},
			wantFields: map[string]string{"cohort_number": "cohort_number must be greater than 0"},
		},
		{
			name:       "blank title & http video",
			nl:         lecture.NewLecture{ProgramID: prog.ID, Title: "  ", Level: lecture.LevelMemberBasic, VideoURL: "http://videos.test/x"},
			wantFields: map[string]string{"title": "this field is required", "video_url": "URL must start with https://"},
		},
		{
			name:       "unknown program",
			nl:         lecture.NewLecture{ProgramID: prog.ID + 1, Title: "Channels", Level: lecture.LevelMemberBasic},
			wantFields: map[string]string{"program_id": "program does not exist"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nl := tt.nl
			err := nl.Validate(ctx, validate, svc)
			if tt.wantFields == nil {
				assert.NoError(t, err)
				assert.True(t, nl.Level.IsValid())
				return
			}

			var fields map[string]string
			switch e := err.(type) {
			case validator.ValidationErrors:
				fields = core.TranslateValidationErrors(e, translator)
			case *core.ValidationError:
				fields = map[string]string{e.Fields[0].Field: e.Fields[0].Error}
			default:
				t.Fatalf("unexpected error: %v", err)
			}
			assert.Equal(t, tt.wantFields, fields)
		})
	}
}

func TestService_ListByProgram(t *testing.T) {
	ctx := context.Background()
	svc, repo, prog, validate, _ := setup(t)

	third := testutil.CreateLecture(t, repo, prog.ID, "third", lecture.LevelMasterCommon, 3)
	first := testutil.CreateLecture(t, repo, prog.ID, "first", lecture.LevelMasterCommon, 1)
	second := testutil.CreateLecture(t, repo, prog.ID, "second", lecture.LevelMaster, 2, 1)

	lecs, err := svc.ListByProgram(ctx, prog.ID)
	require.NoError(t, err)
	assert.Equal(t, []lecture.Lecture{first, second, third}, lecs)

	all, err := svc.List(ctx, lecture.QueryFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	t.Run("update keeps cohort", func(t *testing.T) {
		order := 0
		ul := lecture.UpdateLecture{Title: "zeroth", Order: &order}
		require.NoError(t, ul.Validate(ctx, second, validate, svc))
		lec, err := svc.Update(ctx, second, ul)
		require.NoError(t, err)
		assert.Equal(t, "zeroth", lec.Title)
		assert.True(t, lec.HasCohort(1))

		lecs, err := svc.ListByProgram(ctx, prog.ID)
		require.NoError(t, err)
		assert.Equal(t, lec.ID, lecs[0].ID)
	})
	t.Run("leaving master level clears cohort", func(t *testing.T) {
		orig, err := repo.Get(ctx, second.ID)
		require.NoError(t, err)
		require.True(t, orig.HasCohort(1))

		ul := lecture.UpdateLecture{Level: lecture.LevelMasterCommon}
		require.NoError(t, ul.Validate(ctx, orig, validate, svc))
		lec, err := svc.Update(ctx, orig, ul)
		require.NoError(t, err)
		assert.Equal(t, lecture.LevelMasterCommon, lec.Level)
		assert.Nil(t, lec.CohortNumber)

		stored, err := repo.Get(ctx, second.ID)
		require.NoError(t, err)
		assert.Nil(t, stored.CohortNumber)
	})

	t.Run("back to master level needs a cohort", func(t *testing.T) {
		orig, err := repo.Get(ctx, second.ID)
		require.NoError(t, err)

		ul := lecture.UpdateLecture{Level: lecture.LevelMaster}
		assert.Error(t, ul.Validate(ctx, orig, validate, svc))
	})
}
