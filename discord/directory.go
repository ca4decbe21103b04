// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package discord

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/danielhkuo/courtside/league"
)

// DefaultMemberTTL is how long a fetched member list is reused.
const DefaultMemberTTL = time.Minute

const memberPageSize = 1000

// Directory lists guild members through the REST API with a short cache.
type Directory struct {
	session  Session
	guildID  string
	ttl      time.Duration
	pageSize int
	now      func() time.Time

	mu        sync.Mutex
	members   []league.Member
	fetchedAt time.Time
}

func NewDirectory(s Session, guildID string, ttl time.Duration) *Directory {
	if ttl <= 0 {
		ttl = DefaultMemberTTL
	}
	return &Directory{
		session:  s,
		guildID:  guildID,
		ttl:      ttl,
		pageSize: memberPageSize,
		now:      time.Now,
	}
}

// Members returns every guild member, paging through the API when the
// cache is older than the TTL.
func (d *Directory) Members(ctx context.Context) ([]league.Member, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.members != nil && d.now().Sub(d.fetchedAt) < d.ttl {
		return slices.Clone(d.members), nil
	}

	var all []league.Member
	after := ""
	for {
		page, err := d.session.GuildMembers(d.guildID, after, d.pageSize, discordgo.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("failed to list guild members: %w", err)
		}
		for _, m := range page {
			all = append(all, toMember(m))
		}
		if len(page) < d.pageSize {
			break
		}
		after = page[len(page)-1].User.ID
	}

	d.members = all
	d.fetchedAt = d.now()
	return slices.Clone(all), nil
}

// Member fetches one member directly so role changes are seen at once.
func (d *Directory) Member(ctx context.Context, id string) (league.Member, error) {
	m, err := d.session.GuildMember(d.guildID, id, discordgo.WithContext(ctx))
	if err != nil {
		if isUnknownMember(err) {
			return league.Member{}, league.ErrMemberNotFound
		}
		return league.Member{}, fmt.Errorf("failed to fetch member %s: %w", id, err)
	}
	return toMember(m), nil
}

// Invalidate drops the cached member list.
func (d *Directory) Invalidate() {
	d.mu.Lock()
	d.members = nil
	d.mu.Unlock()
}

func toMember(m *discordgo.Member) league.Member {
	out := league.Member{Roles: slices.Clone(m.Roles)}
	if m.User != nil {
		out.ID = m.User.ID
		out.Name = m.User.Username
		if m.User.GlobalName != "" {
			out.Name = m.User.GlobalName
		}
	}
	if m.Nick != "" {
		out.Name = m.Nick
	}
	return out
}

func isUnknownMember(err error) bool {
	var rest *discordgo.RESTError
	if !errors.As(err, &rest) {
		return false
	}
	if rest.Message != nil && (rest.Message.Code == discordgo.ErrCodeUnknownMember || rest.Message.Code == discordgo.ErrCodeUnknownUser) {
		return true
	}
	return rest.Response != nil && rest.Response.StatusCode == http.StatusNotFound
}
