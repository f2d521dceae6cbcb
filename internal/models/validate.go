package models

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"
)

// StoryContentMinLength is enforced only by form validation; the API accepts
// shorter content.
const StoryContentMinLength = 50

// FieldErrors maps a field name to its validation message.
type FieldErrors map[string]string

func (f FieldErrors) Error() string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, f[k]))
	}
	return strings.Join(parts, "; ")
}

type lengthRule struct {
	field    string
	value    *string
	min, max int
	required bool
}

func (r lengthRule) check(errs FieldErrors) {
	v := ""
	if r.value != nil {
		v = strings.TrimSpace(*r.value)
	}
	n := utf8.RuneCountInString(v)
	switch {
	case n == 0 && r.required:
		errs[r.field] = "is required"
	case n == 0:
	case r.min > 0 && n < r.min:
		errs[r.field] = fmt.Sprintf("must be at least %d characters", r.min)
	case r.max > 0 && n > r.max:
		errs[r.field] = fmt.Sprintf("must be at most %d characters", r.max)
	}
}

func runRules(rules ...lengthRule) error {
	errs := FieldErrors{}
	for _, r := range rules {
		r.check(errs)
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// ValidateMemberForm applies the member form rules.
func ValidateMemberForm(in MemberInput) error {
	return runRules(
		lengthRule{field: "name", value: in.Name, min: 2, max: 100, required: true},
		lengthRule{field: "nickname", value: in.Nickname, min: 2, max: 50, required: true},
		lengthRule{field: "bio", value: in.Bio, max: 500},
		lengthRule{field: "role", value: in.Role, max: 100},
	)
}

// ValidateEventForm applies the event form rules.
func ValidateEventForm(in EventInput) error {
	err := runRules(
		lengthRule{field: "title", value: in.Title, min: 3, max: 100, required: true},
		lengthRule{field: "description", value: in.Description, max: 500},
		lengthRule{field: "location", value: in.Location, max: 200},
		lengthRule{field: "createdBy", value: in.CreatedBy, min: 2, max: 50, required: true},
	)
	errs, _ := err.(FieldErrors)
	if errs == nil {
		errs = FieldErrors{}
	}
	if in.Date == nil || in.Date.IsZero() {
		errs["date"] = "is required"
	}
	if in.Status != nil && !ValidEventStatus(*in.Status) {
		errs["status"] = "must be one of upcoming, ongoing, completed, cancelled"
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// ValidateStoryForm applies the story form rules, including the minimum
// content length.
func ValidateStoryForm(in StoryInput) error {
	return runRules(
		lengthRule{field: "title", value: in.Title, min: 3, max: 100, required: true},
		lengthRule{field: "content", value: in.Content, min: StoryContentMinLength, max: 10000, required: true},
		lengthRule{field: "excerpt", value: in.Excerpt, max: 300},
		lengthRule{field: "author", value: in.Author, min: 2, max: 50, required: true},
	)
}
