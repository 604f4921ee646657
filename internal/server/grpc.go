package server

import (
	"context"
	"net"
	"strings"
	"time"

	"github.com/gamemaster/gamemaster-server-go/internal/bot"
	"github.com/gamemaster/gamemaster-server-go/internal/scoring"
	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/timestamppb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "gamemaster.v1.GameMaster"

const (
	scoreMethod       = "/" + ServiceName + "/Score"
	colorBonusMethod  = "/" + ServiceName + "/ColorBonus"
	sendMessageMethod = "/" + ServiceName + "/SendMessage"
)

// GameMasterServer is the server API of the GameMaster service.
type GameMasterServer interface {
	Score(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	ColorBonus(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	SendMessage(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// GameMasterServiceDesc describes the GameMaster service for grpc.Server.
var GameMasterServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*GameMasterServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Score", Handler: scoreHandler},
		{MethodName: "ColorBonus", Handler: colorBonusHandler},
		{MethodName: "SendMessage", Handler: sendMessageHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "gamemaster/v1/gamemaster.proto",
}

// RegisterGameMasterServer registers srv on s.
func RegisterGameMasterServer(s grpc.ServiceRegistrar, srv GameMasterServer) {
	s.RegisterService(&GameMasterServiceDesc, srv)
}

func scoreHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(GameMasterServer).Score(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: scoreMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(GameMasterServer).Score(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func colorBonusHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(GameMasterServer).ColorBonus(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: colorBonusMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(GameMasterServer).ColorBonus(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func sendMessageHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(GameMasterServer).SendMessage(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: sendMessageMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(GameMasterServer).SendMessage(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// messageRequest is the decoded SendMessage payload.
type messageRequest struct {
	ChatID string `mapstructure:"chat_id" json:"chat_id"`
	Text   string `mapstructure:"text" json:"text" binding:"required"`
}

// gameMasterServer implements GameMasterServer on top of the scoring core and
// the chat dispatcher.
type gameMasterServer struct {
	dispatcher *bot.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// NewGameMasterServer creates the GameMaster service implementation.
func NewGameMasterServer(dispatcher *bot.Dispatcher, logger *zap.Logger) GameMasterServer {
	return &gameMasterServer{
		dispatcher: dispatcher,
		logger:     logger,
		now:        time.Now,
	}
}

// Score evaluates a card declaration.
func (s *gameMasterServer) Score(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	text := strings.TrimSpace(req.GetValue())
	if text == "" {
		return nil, status.Error(codes.InvalidArgument, "text is required")
	}

	result := scoring.EvaluateScore(text)
	return toStruct(scorePayload(result, timestamppb.New(s.now())))
}

// ColorBonus evaluates a color bonus declaration.
func (s *gameMasterServer) ColorBonus(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	text := strings.TrimSpace(req.GetValue())
	if text == "" {
		return nil, status.Error(codes.InvalidArgument, "text is required")
	}

	result := scoring.EvaluateColorBonus(text)
	return toStruct(colorBonusPayload(result, timestamppb.New(s.now())))
}

// SendMessage routes one chat message through the dispatcher. Without a
// chat_id the caller's host is used as the conversation key.
func (s *gameMasterServer) SendMessage(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var msg messageRequest
	if err := mapstructure.Decode(req.AsMap(), &msg); err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid message: %v", err)
	}
	if strings.TrimSpace(msg.Text) == "" {
		return nil, status.Error(codes.InvalidArgument, "text is required")
	}

	chatID := strings.TrimSpace(msg.ChatID)
	if chatID == "" {
		chatID = "grpc:" + extractHostFromContext(ctx)
	}

	reply, err := s.dispatcher.Handle(ctx, chatID, msg.Text)
	if err != nil {
		s.logger.Error("failed to handle message",
			zap.String("chat_id", chatID),
			zap.Error(err),
		)
		return nil, status.Error(codes.Internal, "failed to handle message")
	}

	return toStruct(replyPayload(chatID, reply))
}

func toStruct(payload map[string]any) (*structpb.Struct, error) {
	out, err := structpb.NewStruct(payload)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return out, nil
}

func extractHostFromContext(ctx context.Context) string {
	if p, ok := peer.FromContext(ctx); ok && p.Addr != net.Addr(nil) {
		if host, _, err := net.SplitHostPort(p.Addr.String()); err == nil {
			return host
		}
		return p.Addr.String()
	}
	return "unknown"
}
