package match

import (
	"fmt"
	"strconv"
	"strings"
)

// ScoreLine is the parsed result of a raw score-token string.
type ScoreLine struct {
	Games        []Game
	WinnerSide   *int
	WalkoverSide *int
}

// ParseScoreTokens parses the compact loser-points notation used by the
// upstream result sheets. Each comma-separated token is the losing side's
// points in one game, signed: positive means side 1 won the game, negative
// means side 2 won it. Winner points follow the 11-point rule: 11, or
// loser+2 once the loser passes 9 (deuce).
//
// "WO:S1" / "WO:S2" mark a walkover by the given side; the other side wins
// and no games exist. A bare "WO" parses to an empty line with neither side
// decided, and the caller infers direction when exactly one side is a
// placeholder.
func ParseScoreTokens(tokens string, bestOf int) (ScoreLine, error) {
	trimmed := strings.TrimSpace(tokens)
	if trimmed == "" {
		return ScoreLine{}, fmt.Errorf("empty score tokens")
	}

	upper := strings.ToUpper(trimmed)
	switch upper {
	case "WO":
		return ScoreLine{}, nil
	case "WO:S1", "WO:S2":
		wo := 1
		if upper == "WO:S2" {
			wo = 2
		}
		winner := otherSide(wo)
		return ScoreLine{WalkoverSide: &wo, WinnerSide: &winner}, nil
	}

	parts := strings.Split(trimmed, ",")
	games := make([]Game, 0, len(parts))
	side1Wins, side2Wins := 0, 0
	for i, part := range parts {
		loserPoints, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return ScoreLine{}, fmt.Errorf("malformed score token %q: %w", part, err)
		}

		absLoser := loserPoints
		if absLoser < 0 {
			absLoser = -absLoser
		}
		winnerPoints := 11
		if absLoser > 9 {
			winnerPoints = absLoser + 2
		}

		game := Game{GameNo: i + 1}
		if loserPoints >= 0 {
			game.PointsSide1 = winnerPoints
			game.PointsSide2 = absLoser
			side1Wins++
		} else {
			game.PointsSide1 = absLoser
			game.PointsSide2 = winnerPoints
			side2Wins++
		}
		games = append(games, game)
	}

	requiredWins := len(games)/2 + 1
	if bestOf > 0 {
		requiredWins = bestOf/2 + 1
	}

	line := ScoreLine{Games: games}
	switch {
	case side1Wins >= requiredWins:
		winner := 1
		line.WinnerSide = &winner
	case side2Wins >= requiredWins:
		winner := 2
		line.WinnerSide = &winner
	}
	return line, nil
}

func otherSide(side int) int {
	if side == 1 {
		return 2
	}
	return 1
}
