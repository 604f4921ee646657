package server

import (
	"context"
	"fmt"
	"time"

	"github.com/gamemaster/gamemaster-server-go/internal/bot"
	"github.com/mitchellh/mapstructure"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ScoreLine is one itemized line of a ScoreResponse.
type ScoreLine struct {
	Label  string `mapstructure:"label"`
	Points int    `mapstructure:"points"`
}

// ScoreResponse is the decoded result of a Score call.
type ScoreResponse struct {
	Text       string         `mapstructure:"text"`
	Outcome    string         `mapstructure:"outcome"`
	Total      int            `mapstructure:"total"`
	Breakdown  []ScoreLine    `mapstructure:"breakdown"`
	Tally      map[string]int `mapstructure:"tally"`
	ComputedAt time.Time      `mapstructure:"computed_at"`
}

// ColorBonusResponse is the decoded result of a ColorBonus call.
type ColorBonusResponse struct {
	Text           string    `mapstructure:"text"`
	Outcome        string    `mapstructure:"outcome"`
	Total          int       `mapstructure:"total"`
	UnlockCount    int       `mapstructure:"unlock_count"`
	SelectedGroups []int     `mapstructure:"selected_groups"`
	ComputedAt     time.Time `mapstructure:"computed_at"`
}

// MessageResponse is the decoded result of a SendMessage call.
type MessageResponse struct {
	ChatID string        `mapstructure:"chat_id"`
	Text   string        `mapstructure:"text"`
	Kind   bot.ReplyKind `mapstructure:"kind"`
}

// Client calls the GameMaster service over an existing connection.
type Client struct {
	conn grpc.ClientConnInterface
}

// NewClient wraps conn.
func NewClient(conn grpc.ClientConnInterface) *Client {
	return &Client{conn: conn}
}

// Score scores a card declaration.
func (c *Client) Score(ctx context.Context, text string, opts ...grpc.CallOption) (*ScoreResponse, error) {
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, scoreMethod, wrapperspb.String(text), out, opts...); err != nil {
		return nil, err
	}

	var resp ScoreResponse
	if err := decodeStruct(out, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ColorBonus evaluates a color bonus declaration.
func (c *Client) ColorBonus(ctx context.Context, text string, opts ...grpc.CallOption) (*ColorBonusResponse, error) {
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, colorBonusMethod, wrapperspb.String(text), out, opts...); err != nil {
		return nil, err
	}

	var resp ColorBonusResponse
	if err := decodeStruct(out, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SendMessage sends one chat message. chatID may be empty.
func (c *Client) SendMessage(ctx context.Context, chatID, text string, opts ...grpc.CallOption) (*MessageResponse, error) {
	in, err := structpb.NewStruct(map[string]any{"chat_id": chatID, "text": text})
	if err != nil {
		return nil, fmt.Errorf("encode message: %w", err)
	}

	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, sendMessageMethod, in, out, opts...); err != nil {
		return nil, err
	}

	var resp MessageResponse
	if err := decodeStruct(out, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// decodeStruct decodes s into target. Numbers arrive as float64 and timestamps
// as RFC 3339 strings.
func decodeStruct(s *structpb.Struct, target any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.StringToTimeHookFunc(time.RFC3339Nano),
		Result:     target,
	})
	if err != nil {
		return fmt.Errorf("create decoder: %w", err)
	}
	if err := decoder.Decode(s.AsMap()); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
