package entity

import (
	"encoding/json"
	"sort"
)

// SessionMember is one connection taking part in a session under a player id.
type SessionMember struct {
	PlayerID     int    `json:"playerId"`
	ConnectionID string `json:"connectionId"`
}

// Session is a multiplayer game instance kept by the relay. State holds the last
// game state any member sent, verbatim.
type Session struct {
	Code    string          `json:"code"`
	Members []SessionMember `json:"members"`
	State   json.RawMessage `json:"state,omitempty"`
}

// PlayerIDs - returns the member player ids in ascending order.
func (that *Session) PlayerIDs() []int {
	ids := make([]int, 0, len(that.Members))
	for _, member := range that.Members {
		ids = append(ids, member.PlayerID)
	}

	sort.Ints(ids)

	return ids
}

func (that *Session) IsEmpty() bool {
	return len(that.Members) == 0
}

// RemoveConnection - drops the member using the connection. Returns false if it was not a member.
func (that *Session) RemoveConnection(connectionID string) bool {
	for i, member := range that.Members {
		if member.ConnectionID == connectionID {
			that.Members = append(that.Members[:i], that.Members[i+1:]...)
			return true
		}
	}

	return false
}

// FirstFreePlayerID - returns the lowest id in 1..4 not present in taken, or 0 when all are used.
func FirstFreePlayerID(taken []int) int {
	used := make(map[int]bool, len(taken))
	for _, id := range taken {
		used[id] = true
	}

	for id := 1; id <= MaxPlayers; id++ {
		if !used[id] {
			return id
		}
	}

	return 0
}
