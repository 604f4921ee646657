package server

import (
	"time"

	"github.com/gamemaster/gamemaster-server-go/internal/bot"
	"github.com/gamemaster/gamemaster-server-go/internal/scoring"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// The payload builders return plain maps built only from string, int, bool,
// []any and map[string]any so the same value can become a structpb.Struct for
// gRPC or a JSON body for HTTP.

func scorePayload(result scoring.ScoreResult, computedAt *timestamppb.Timestamp) map[string]any {
	breakdown := make([]any, 0, len(result.Breakdown))
	for _, e := range result.Breakdown {
		breakdown = append(breakdown, map[string]any{
			"label":  e.Label,
			"points": e.Points,
		})
	}

	tally := make(map[string]any, len(result.Tally))
	for ct, n := range result.Tally {
		tally[string(ct)] = n
	}

	return map[string]any{
		"text":        result.Text(),
		"outcome":     result.Outcome.String(),
		"total":       result.Total,
		"breakdown":   breakdown,
		"tally":       tally,
		"computed_at": computedAt.AsTime().Format(time.RFC3339Nano),
	}
}

func colorBonusPayload(result scoring.ColorBonusResult, computedAt *timestamppb.Timestamp) map[string]any {
	groups := make([]any, 0, len(result.SelectedGroups))
	for _, g := range result.SelectedGroups {
		groups = append(groups, g)
	}

	return map[string]any{
		"text":            result.Text(),
		"outcome":         result.Outcome.String(),
		"total":           result.Total,
		"unlock_count":    result.UnlockCount,
		"selected_groups": groups,
		"computed_at":     computedAt.AsTime().Format(time.RFC3339Nano),
	}
}

func replyPayload(chatID string, reply bot.Reply) map[string]any {
	return map[string]any{
		"chat_id": chatID,
		"text":    reply.Text,
		"kind":    string(reply.Kind),
	}
}
