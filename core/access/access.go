// Package access decides which lecture content a viewer may open.
package access

import (
	"sort"
	"strconv"
	"strings"

	"github.com/trezcool/coursehub/core/account"
	"github.com/trezcool/coursehub/core/lecture"
	"github.com/trezcool/coursehub/core/program"
)

// DefaultCategory groups the lectures without a category.
const DefaultCategory = "General"

// CourseType narrows the master lectures a viewer is browsing.
type CourseType string

const (
	CourseTypeAny    CourseType = ""
	CourseTypeCommon CourseType = "common" // shared by all cohorts
	CourseTypeCohort CourseType = "cohort"
)

// ParseCourseType maps a raw value to a CourseType. Unknown values resolve to CourseTypeAny.
func ParseCourseType(s string) CourseType {
	switch CourseType(strings.ToLower(strings.TrimSpace(s))) {
	case CourseTypeCommon:
		return CourseTypeCommon
	case CourseTypeCohort:
		return CourseTypeCohort
	}
	return CourseTypeAny
}

// Filter is the cohort & course type selection of the viewer.
type Filter struct {
	Cohort     string     `json:"cohort" query:"cohort"`
	CourseType CourseType `json:"course_type" query:"course_type"`
}

func (f Filter) cohortNumber() (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(f.Cohort))
	return n, err == nil
}

// noCohortSelected reports whether cohort lectures are requested without a cohort to match.
func (f Filter) noCohortSelected() bool {
	return f.CourseType == CourseTypeCohort && strings.TrimSpace(f.Cohort) == ""
}

// Resolve defaults the selected cohort to the viewer's own cohort when they have master access.
// On master programs, a missing course type defaults to CourseTypeCommon.
func (f Filter) Resolve(viewer account.Viewer, programType program.Type) Filter {
	f.CourseType = ParseCourseType(string(f.CourseType))
	if f.CourseType == CourseTypeAny && programType == program.TypeMaster {
		f.CourseType = CourseTypeCommon
	}
	f.Cohort = strings.TrimSpace(f.Cohort)
	if f.Cohort == "" && viewer.Role.HasMasterAccess() {
		f.Cohort = viewer.Cohort
	}
	return f
}

// CanAccessLecture reports whether a viewer with `role` may open `lec`.
//
// The first lecture of each category is a free preview. Master program lectures need master access,
// narrowed by the course type: cohort lectures must match the selected cohort, otherwise the lecture
// must be master_common. Member program lectures need member access. Anything else is locked.
func CanAccessLecture(role account.Role, lec lecture.Lecture, programType program.Type, isFirstInCategory bool, filter Filter) bool {
	if isFirstInCategory {
		return true
	}

	switch programType {
	case program.TypeMaster:
		if !role.HasMasterAccess() {
			return false
		}
		switch filter.CourseType {
		case CourseTypeCohort:
			n, ok := filter.cohortNumber()
			return ok && lec.Level == lecture.LevelMaster && lec.HasCohort(n)
		}
		return lec.Level == lecture.LevelMasterCommon
	case program.TypeMember:
		return role.HasMemberAccess()
	}
	return false
}

// Category is a named group of lectures ordered by Order asc.
type Category struct {
	Name     string            `json:"name"`
	Lectures []lecture.Lecture `json:"lectures"`
}

// GroupByCategory groups `lectures` by category, in order of first appearance.
// The first lecture of each group is the one with the lowest Order.
func GroupByCategory(lectures []lecture.Lecture) []Category {
	idx := make(map[string]int)
	cats := make([]Category, 0)
	for _, lec := range lectures {
		name := categoryName(lec)
		i, ok := idx[name]
		if !ok {
			i = len(cats)
			idx[name] = i
			cats = append(cats, Category{Name: name})
		}
		cats[i].Lectures = append(cats[i].Lectures, lec)
	}

	for _, cat := range cats {
		lecs := cat.Lectures
		sort.SliceStable(lecs, func(i, j int) bool { return lecs[i].Order < lecs[j].Order })
	}
	return cats
}

func categoryName(lec lecture.Lecture) string {
	if name := strings.TrimSpace(lec.Category); name != "" {
		return name
	}
	return DefaultCategory
}

// Entry is a lecture as a viewer sees it. Locked entries carry no content.
type Entry struct {
	lecture.Lecture
	Locked  bool `json:"locked"`
	Preview bool `json:"preview"` // first in category
}

func newEntry(role account.Role, lec lecture.Lecture, programType program.Type, first bool, filter Filter) Entry {
	if !CanAccessLecture(role, lec, programType, first, filter) {
		return Entry{Lecture: lec.Locked(), Locked: true, Preview: first}
	}
	return Entry{Lecture: lec, Preview: first}
}

type (
	OutlineCategory struct {
		Name     string  `json:"name"`
		Lectures []Entry `json:"lectures"`
	}

	// Outline is the table of contents of a program for a given viewer.
	Outline struct {
		Program    program.Program   `json:"program"`
		Filter     Filter            `json:"filter"`
		Categories []OutlineCategory `json:"categories"`
	}
)

// LectureCount returns the number of lectures in the outline.
func (o Outline) LectureCount() int {
	var n int
	for _, cat := range o.Categories {
		n += len(cat.Lectures)
	}
	return n
}

// BuildOutline applies CanAccessLecture to every lecture of `prog`, stripping the content of locked ones.
// Selecting cohort lectures without a cohort on a master program yields an empty outline.
func BuildOutline(viewer account.Viewer, prog program.Program, lectures []lecture.Lecture, filter Filter) Outline {
	filter = filter.Resolve(viewer, prog.Type)
	outline := Outline{
		Program:    prog,
		Filter:     filter,
		Categories: make([]OutlineCategory, 0),
	}
	if prog.IsMaster() && filter.noCohortSelected() {
		return outline
	}

	for _, cat := range GroupByCategory(lectures) {
		oc := OutlineCategory{Name: cat.Name, Lectures: make([]Entry, 0, len(cat.Lectures))}
		for i, lec := range cat.Lectures {
			oc.Lectures = append(oc.Lectures, newEntry(viewer.Role, lec, prog.Type, i == 0, filter))
		}
		outline.Categories = append(outline.Categories, oc)
	}
	return outline
}

// LectureEntry decides how `viewer` sees `lec`, given all the lectures of its program (`siblings`).
// Like BuildOutline, selecting cohort lectures without a cohort on a master program locks every lecture.
func LectureEntry(viewer account.Viewer, prog program.Program, lec lecture.Lecture, siblings []lecture.Lecture, filter Filter) Entry {
	filter = filter.Resolve(viewer, prog.Type)
	first := isFirstInCategory(lec, siblings)
	if prog.IsMaster() && filter.noCohortSelected() {
		return Entry{Lecture: lec.Locked(), Locked: true, Preview: first}
	}
	return newEntry(viewer.Role, lec, prog.Type, first, filter)
}

func isFirstInCategory(lec lecture.Lecture, siblings []lecture.Lecture) bool {
	name := categoryName(lec)
	for _, cat := range GroupByCategory(siblings) {
		if cat.Name == name {
			return len(cat.Lectures) > 0 && cat.Lectures[0].ID == lec.ID
		}
	}
	return false
}
