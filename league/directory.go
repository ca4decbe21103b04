// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package league

import (
	"context"
	"errors"
	"slices"
)

// Member is a guild member and the role ids it holds.
type Member struct {
	ID    string   `json:"id" yaml:"id"`
	Name  string   `json:"name" yaml:"name"`
	Roles []string `json:"roles" yaml:"roles"`
}

// Directory looks up guild members.
type Directory interface {
	Members(ctx context.Context) ([]Member, error)
	Member(ctx context.Context, id string) (Member, error)
}

// HasAny reports whether roles contains any of want.
func HasAny(roles []string, want ...string) bool {
	for _, w := range want {
		if w != "" && slices.Contains(roles, w) {
			return true
		}
	}
	return false
}

// MemberHasRole looks the member up and checks for any of roles.
// An unknown member simply has no roles.
func MemberHasRole(ctx context.Context, dir Directory, memberID string, roles ...string) (bool, error) {
	m, err := dir.Member(ctx, memberID)
	if errors.Is(err, ErrMemberNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return HasAny(m.Roles, roles...), nil
}

// StaticDirectory serves a fixed member list, e.g. from the league file.
type StaticDirectory []Member

func (d StaticDirectory) Members(ctx context.Context) ([]Member, error) {
	return slices.Clone(d), nil
}

func (d StaticDirectory) Member(ctx context.Context, id string) (Member, error) {
	for _, m := range d {
		if m.ID == id {
			return m, nil
		}
	}
	return Member{}, ErrMemberNotFound
}
