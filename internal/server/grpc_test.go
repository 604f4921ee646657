package server

import (
	"context"
	"errors"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/gamemaster/gamemaster-server-go/internal/bot"
	"github.com/gamemaster/gamemaster-server-go/internal/config"
	"github.com/gamemaster/gamemaster-server-go/internal/history"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

var fixedNow = time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)

// echoAssistant answers every question with the question itself.
type echoAssistant struct{}

func (echoAssistant) Answer(_ context.Context, question string, _ []history.Message) (string, error) {
	return "you asked: " + question, nil
}

func newTestDispatcher(t *testing.T) *bot.Dispatcher {
	t.Helper()
	return bot.NewDispatcher(echoAssistant{}, history.NewMemoryStore(), nil, 8, zaptest.NewLogger(t))
}

func newTestClient(t *testing.T) *Client {
	t.Helper()

	logger := zaptest.NewLogger(t)
	lis := bufconn.Listen(1 << 20)
	srv := NewGRPCServer(config.GRPCConfig{MaxConcurrentStreams: 10}, &gameMasterServer{
		dispatcher: newTestDispatcher(t),
		logger:     logger,
		now:        func() time.Time { return fixedNow },
	}, logger)

	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return NewClient(conn)
}

func TestGRPC_Score(t *testing.T) {
	client := newTestClient(t)

	resp, err := client.Score(context.Background(), "2 crabs, 3 shells")
	require.NoError(t, err)

	assert.Equal(t, "SCORED", resp.Outcome)
	assert.Equal(t, 5, resp.Total)
	assert.Equal(t, []ScoreLine{
		{Label: "3 Shells", Points: 4},
		{Label: "1 pair(s) of Crabs", Points: 1},
	}, resp.Breakdown)
	assert.Equal(t, map[string]int{"crab": 2, "shell": 3}, resp.Tally)
	assert.Contains(t, resp.Text, "**Total Score: 5**")
	assert.True(t, fixedNow.Equal(resp.ComputedAt))
}

func TestGRPC_ScoreOutcomes(t *testing.T) {
	client := newTestClient(t)

	resp, err := client.Score(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "NO_CARDS", resp.Outcome)
	assert.Empty(t, resp.Breakdown)

	resp, err = client.Score(context.Background(), "3 sharks")
	require.NoError(t, err)
	assert.Equal(t, "NOTHING_SCORABLE", resp.Outcome)
	assert.Equal(t, map[string]int{"shark": 3}, resp.Tally)
}

func TestGRPC_ColorBonus(t *testing.T) {
	client := newTestClient(t)

	resp, err := client.ColorBonus(context.Background(), "4 blue, 3 pink, 2 yellow, 2 mermaids")
	require.NoError(t, err)

	assert.Equal(t, "SCORED", resp.Outcome)
	assert.Equal(t, 2, resp.UnlockCount)
	assert.Equal(t, 7, resp.Total)
	assert.Equal(t, []int{4, 3}, resp.SelectedGroups)

	resp, err = client.ColorBonus(context.Background(), "4 blue")
	require.NoError(t, err)
	assert.Equal(t, "NEED_UNLOCK", resp.Outcome)
	assert.Empty(t, resp.SelectedGroups)
}

func TestGRPC_BlankTextIsInvalid(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	_, err := client.Score(ctx, "   ")
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = client.ColorBonus(ctx, "")
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = client.SendMessage(ctx, "chat", " ")
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestGRPC_SendMessage(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	resp, err := client.SendMessage(ctx, "chat-1", "/score 10 shells")
	require.NoError(t, err)
	assert.Equal(t, "chat-1", resp.ChatID)
	assert.Equal(t, bot.ReplyCommand, resp.Kind)
	assert.Contains(t, resp.Text, "**Total Score: 10**")

	resp, err = client.SendMessage(ctx, "", "what is a mermaid?")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(resp.ChatID, "grpc:"), resp.ChatID)
	assert.Equal(t, bot.ReplyAnswer, resp.Kind)
	assert.Equal(t, "you asked: what is a mermaid?", resp.Text)
}

func TestRecoveryInterceptor(t *testing.T) {
	interceptor := RecoveryInterceptor(zaptest.NewLogger(t))
	info := &grpc.UnaryServerInfo{FullMethod: scoreMethod}

	_, err := interceptor(context.Background(), nil, info, func(context.Context, any) (any, error) {
		panic("boom")
	})
	assert.Equal(t, codes.Internal, status.Code(err))

	resp, err := interceptor(context.Background(), nil, info, func(context.Context, any) (any, error) {
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp)
}

func TestChainUnaryInterceptors(t *testing.T) {
	var order []string
	record := func(name string) grpc.UnaryServerInterceptor {
		return func(ctx context.Context, req any, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
			order = append(order, name)
			return handler(ctx, req)
		}
	}

	chained := ChainUnaryInterceptors(record("first"), record("second"), LoggingInterceptor(zaptest.NewLogger(t)))
	_, err := chained(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: scoreMethod},
		func(context.Context, any) (any, error) {
			order = append(order, "handler")
			return nil, errors.New("failed")
		})

	assert.EqualError(t, err, "failed")
	assert.Equal(t, []string{"first", "second", "handler"}, order)
}

func TestExtractHostFromContext(t *testing.T) {
	assert.Equal(t, "unknown", extractHostFromContext(context.Background()))
}
