package core

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "", want: ""},
		{in: "Go Masterclass", want: "go-masterclass"},
		{in: "  React & Redux: 2024!  ", want: "react-redux-2024"},
		{in: "already-a-slug", want: "already-a-slug"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.in))
		})
	}
}

func TestMostSimilar(t *testing.T) {
	candidates := []string{"golang-master", "react-basic", "membership"}

	tests := []struct {
		name string
		key  string
		want int
	}{
		{name: "exact", key: "membership", want: 2},
		{name: "typo", key: "react-basics", want: 1},
		{name: "spaced title", key: "Golang Master", want: 0},
		{name: "nothing close", key: "kubernetes", want: -1},
		{name: "empty key", key: "", want: -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MostSimilar(tt.key, candidates, 0.6))
		})
	}
}

func TestErrorTaxonomy(t *testing.T) {
	errNotFound := NewNotFoundError("program")

	assert.True(t, IsNotFound(errNotFound))
	assert.True(t, IsNotFound(errors.Wrap(errNotFound, "getting program")))
	assert.False(t, IsNotFound(errors.New("program not found")))
	assert.Equal(t, "program not found", errNotFound.Error())

	rf := NewRequestFailedError("record service unavailable")
	assert.True(t, IsRequestFailed(errors.Wrap(rf, "listing programs")))
	assert.False(t, IsRequestFailed(errNotFound))
	assert.Equal(t, "record service unavailable", rf.Error())

	assert.Equal(t, "email: already on waitlist", NewValidationError(nil, FieldError{Field: "email", Error: "already on waitlist"}).Error())
}

func TestCustomValidators(t *testing.T) {
	validate := validator.New()
	translator := NewTranslator()
	InitValidators(validate, translator)

	type payload struct {
		Slug  string `json:"slug" validate:"required,slug"`
		Thumb string `json:"thumbnail_url" validate:"omitempty,httpsurl"`
		Name  string `json:"name" validate:"notblank"`
	}

	tests := []struct {
		name       string
		data       payload
		wantFields map[string]string
	}{
		{name: "valid", data: payload{Slug: "go-master", Thumb: "https://cdn.test/x.png", Name: "Go"}},
		{name: "valid without thumbnail", data: payload{Slug: "go", Name: "Go"}},
		{
			name:       "bad slug",
			data:       payload{Slug: "Go Master", Name: "Go"},
			wantFields: map[string]string{"slug": slugText},
		},
		{
			name:       "http thumbnail",
			data:       payload{Slug: "go", Thumb: "http://cdn.test/x.png", Name: "Go"},
			wantFields: map[string]string{"thumbnail_url": httpsURLText},
		},
		{
			name:       "blank name & missing slug",
			data:       payload{Name: "   "},
			wantFields: map[string]string{"slug": requiredText, "name": notBlankText},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validate.Struct(tt.data)
			if tt.wantFields == nil {
				assert.NoError(t, err)
				return
			}
			vErrs, ok := err.(validator.ValidationErrors)
			if !assert.True(t, ok, "want validator.ValidationErrors, got %T", err) {
				return
			}
			assert.Equal(t, tt.wantFields, TranslateValidationErrors(vErrs, translator))
		})
	}
}
