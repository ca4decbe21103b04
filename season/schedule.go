// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package season

import "github.com/danielhkuo/courtside/models"

// RoundRobin builds a schedule with the circle method. Each team plays
// every other team once per cycle of len(teams)-1 weeks (one more with an
// odd count, where the team paired with the bye sits out). Later cycles
// swap home and away. weeks <= 0 means a single cycle.
func RoundRobin(teams []string, weeks int) []models.ScheduledGame {
	if len(teams) < 2 {
		return []models.ScheduledGame{}
	}

	ring := append([]string(nil), teams...)
	if len(ring)%2 == 1 {
		ring = append(ring, "")
	}
	n := len(ring)
	rounds := n - 1
	if weeks <= 0 {
		weeks = rounds
	}

	// rotation[r] is the ring order for round r; ring[0] stays fixed.
	rotation := make([][]string, rounds)
	cur := append([]string(nil), ring...)
	for r := 0; r < rounds; r++ {
		rotation[r] = append([]string(nil), cur...)
		last := cur[n-1]
		copy(cur[2:], cur[1:n-1])
		cur[1] = last
	}

	games := []models.ScheduledGame{}
	for w := 1; w <= weeks; w++ {
		r := (w - 1) % rounds
		swap := ((w-1)/rounds)%2 == 1
		order := rotation[r]
		for i := 0; i < n/2; i++ {
			home, away := order[i], order[n-1-i]
			if home == "" || away == "" {
				continue
			}
			// Alternate the fixed team's venue round to round
			if (i == 0 && r%2 == 1) != swap {
				home, away = away, home
			}
			games = append(games, models.ScheduledGame{Week: w, Home: home, Away: away})
		}
	}
	return games
}
