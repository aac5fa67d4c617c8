package domain

import (
	"errors"
	"testing"
)

func strPtr(s string) *string { return &s }

func TestParseStatusFilter(t *testing.T) {
	cases := []struct {
		in   string
		want StatusFilter
	}{
		{"finished", StatusFinished},
		{" Pending ", StatusPending},
		{"all", StatusAll},
		{"", StatusAll},
		{"archived", StatusAll},
	}
	for _, tc := range cases {
		if got := ParseStatusFilter(tc.in); got != tc.want {
			t.Fatalf("ParseStatusFilter(%q) = %s; want %s", tc.in, got, tc.want)
		}
	}
}

func TestTaskFilterMatches(t *testing.T) {
	gym := &Task{Title: "Gym"}
	groceries := &Task{Title: "Groceries", IsFinished: true}
	described := &Task{Title: "Errands", Description: strPtr("pick up GRAVEL")}

	f := TaskFilter{Search: "gr", Status: StatusAll}
	if f.Matches(gym) {
		t.Fatalf("Gym must not match %q", f.Search)
	}
	if !f.Matches(groceries) || !f.Matches(described) {
		t.Fatalf("expected title and description matches")
	}

	f = TaskFilter{Status: StatusPending}
	if f.Matches(groceries) || !f.Matches(gym) {
		t.Fatalf("pending filter mismatch")
	}
}

func TestAuthorizationErrorIsForbidden(t *testing.T) {
	var err error = &AuthorizationError{TaskID: 7}
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected errors.Is(ErrForbidden)")
	}
	if Failure(err).Message != MsgForbidden {
		t.Fatalf("unexpected message %q", Failure(err).Message)
	}
}

func TestValidationErrorResult(t *testing.T) {
	verr := &ValidationError{}
	if verr.OrNil() != nil {
		t.Fatalf("empty validation error must be nil")
	}
	verr.Add("title", "first")
	verr.Add("title", "second")

	res := Failure(verr.OrNil())
	if res.OK || res.Errors["title"] != "first" {
		t.Fatalf("unexpected result %+v", res)
	}
}
