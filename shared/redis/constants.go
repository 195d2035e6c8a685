// shared/redis/constants.go
package redis

import "fmt"

const (
	// Lock keys. The braces are cluster hash tags so each key lives on a single slot.
	PlayerLockKeyPrefix     = "lock:player:{%s}:"      // serializes affiliation/progression changes of one player
	PlayerNameLockKeyPrefix = "lock:player_name:{%s}:" // serializes registration of one player name
	TeamLockKeyPrefix       = "lock:team:{%s}:"        // serializes membership changes of one team
	TeamNameLockKeyPrefix   = "lock:team_name:{%s}:"   // serializes creation under one team name
)

func PlayerLockKey(playerID string) string {
	return fmt.Sprintf(PlayerLockKeyPrefix, playerID)
}

func PlayerNameLockKey(name string) string {
	return fmt.Sprintf(PlayerNameLockKeyPrefix, name)
}

func TeamLockKey(teamID string) string {
	return fmt.Sprintf(TeamLockKeyPrefix, teamID)
}

func TeamNameLockKey(name string) string {
	return fmt.Sprintf(TeamNameLockKeyPrefix, name)
}
