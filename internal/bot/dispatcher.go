// Package bot routes chat messages to the scoring engine or the rules
// assistant. It produces plain text; escaping for a chat surface belongs to the
// platform adapter.
package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gamemaster/gamemaster-server-go/internal/history"
	"github.com/gamemaster/gamemaster-server-go/internal/repository"
	"github.com/gamemaster/gamemaster-server-go/internal/scoring"
	"go.uber.org/zap"
)

// ReplyKind tells a platform adapter how a reply was produced.
type ReplyKind string

const (
	// ReplyCommand is the immediate answer to a slash command.
	ReplyCommand ReplyKind = "command"
	// ReplyAnswer is an assistant answer to a free-text question.
	ReplyAnswer ReplyKind = "answer"
)

// Reply is the text to send back to a chat.
type Reply struct {
	Text string
	Kind ReplyKind
}

// Assistant answers free-text rules questions.
type Assistant interface {
	Answer(ctx context.Context, question string, hist []history.Message) (string, error)
}

// ScoreRecorder persists evaluated score requests.
type ScoreRecorder interface {
	Record(ctx context.Context, rec *repository.ScoreRecord) error
}

// ErrEmptyAnswer is reported when the assistant returns only whitespace.
var ErrEmptyAnswer = errors.New("assistant returned an empty answer")

const (
	GreetingMessage = "Hello! I am the Game Master 🤖🎲\n" +
		"Ask me anything about the rules of the current game or use the /score and /color_bonus commands!"

	ScoreArgsMessage      = "Please list your cards after the command.\nExample: `/score 2 crabs, 4 shells`"
	ColorBonusArgsMessage = "Please list your cards by color count.\nExample: `/color_bonus 4 blue, 3 pink, 1 mermaid`"
	ResetMessage          = "I've forgotten our conversation. Ask me anything!"
	AssistantErrorMessage = "⚠️ Sorry, I had trouble generating an answer. Please try asking again."
)

// Command names understood by the dispatcher.
const (
	CommandStart      = "start"
	CommandHelp       = "help"
	CommandScore      = "score"
	CommandColorBonus = "color_bonus"
	CommandReset      = "reset"
)

// Dispatcher handles one incoming chat message at a time. It is safe for
// concurrent use as long as its collaborators are.
type Dispatcher struct {
	assistant   Assistant
	history     history.Store
	recorder    ScoreRecorder
	maxMessages int
	logger      *zap.Logger
}

// NewDispatcher creates a dispatcher. recorder may be nil to disable the score
// log. maxMessages bounds the stored history per chat.
func NewDispatcher(assistant Assistant, store history.Store, recorder ScoreRecorder, maxMessages int, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		assistant:   assistant,
		history:     store,
		recorder:    recorder,
		maxMessages: maxMessages,
		logger:      logger,
	}
}

// IsCommand reports whether text is a slash command.
func IsCommand(text string) bool {
	return strings.HasPrefix(strings.TrimSpace(text), "/")
}

// ParseCommand splits "/name@bot args" into its lowercase name and the text
// after the first space.
func ParseCommand(text string) (name, args string) {
	text = strings.TrimSpace(text)
	head, rest, _ := strings.Cut(text, " ")
	name = strings.TrimPrefix(head, "/")
	if at := strings.IndexByte(name, '@'); at >= 0 {
		name = name[:at]
	}
	name = strings.ReplaceAll(strings.ToLower(name), "-", "_")
	return name, strings.TrimSpace(rest)
}

// Handle answers one message from chatID.
func (d *Dispatcher) Handle(ctx context.Context, chatID, text string) (Reply, error) {
	if !IsCommand(text) {
		return d.answer(ctx, chatID, text)
	}

	name, args := ParseCommand(text)
	d.logger.Debug("command received",
		zap.String("chat_id", chatID),
		zap.String("command", name),
	)

	switch name {
	case CommandStart, CommandHelp:
		return commandReply(GreetingMessage), nil
	case CommandScore:
		return d.score(ctx, chatID, args), nil
	case CommandColorBonus:
		return d.colorBonus(ctx, chatID, args), nil
	case CommandReset:
		if err := d.history.Clear(ctx, chatID); err != nil {
			return Reply{}, fmt.Errorf("reset chat %s: %w", chatID, err)
		}
		return commandReply(ResetMessage), nil
	default:
		return commandReply(fmt.Sprintf("Unknown command /%s. Try /score, /color_bonus, /reset or just ask me a question.", name)), nil
	}
}

func commandReply(text string) Reply {
	return Reply{Text: text, Kind: ReplyCommand}
}

func (d *Dispatcher) score(ctx context.Context, chatID, args string) Reply {
	if args == "" {
		return commandReply(ScoreArgsMessage)
	}

	result := scoring.EvaluateScore(args)

	tally := make(map[string]int, len(result.Tally))
	for ct, n := range result.Tally {
		tally[string(ct)] = n
	}
	d.record(ctx, &repository.ScoreRecord{
		ChatID:  chatID,
		Command: CommandScore,
		Input:   args,
		Outcome: result.Outcome.String(),
		Total:   result.Total,
		Tally:   tally,
	})

	return commandReply(result.Text())
}

func (d *Dispatcher) colorBonus(ctx context.Context, chatID, args string) Reply {
	if args == "" {
		return commandReply(ColorBonusArgsMessage)
	}

	result := scoring.EvaluateColorBonus(args)
	d.record(ctx, &repository.ScoreRecord{
		ChatID:  chatID,
		Command: CommandColorBonus,
		Input:   args,
		Outcome: result.Outcome.String(),
		Total:   result.Total,
	})

	return commandReply(result.Text())
}

// record writes to the score log. Failures are logged and never reach the user.
func (d *Dispatcher) record(ctx context.Context, rec *repository.ScoreRecord) {
	if d.recorder == nil {
		return
	}
	if err := d.recorder.Record(ctx, rec); err != nil {
		d.logger.Warn("failed to record score",
			zap.String("chat_id", rec.ChatID),
			zap.String("command", rec.Command),
			zap.Error(err),
		)
	}
}

func (d *Dispatcher) answer(ctx context.Context, chatID, question string) (Reply, error) {
	hist, err := d.history.Get(ctx, chatID)
	if err != nil {
		d.logger.Warn("failed to load chat history",
			zap.String("chat_id", chatID),
			zap.Error(err),
		)
		hist = nil
	}

	answer, err := d.assistant.Answer(ctx, question, hist)
	if err == nil && strings.TrimSpace(answer) == "" {
		err = ErrEmptyAnswer
	}
	if err != nil {
		d.logger.Error("assistant failed",
			zap.String("chat_id", chatID),
			zap.Error(err),
		)
		return Reply{Text: AssistantErrorMessage, Kind: ReplyAnswer}, nil
	}

	now := time.Now().UTC()
	err = d.history.Append(ctx, chatID, d.maxMessages,
		history.Message{Role: history.RoleHuman, Content: question, CreatedAt: now},
		history.Message{Role: history.RoleAssistant, Content: answer, CreatedAt: now},
	)
	if err != nil {
		d.logger.Warn("failed to store chat history",
			zap.String("chat_id", chatID),
			zap.Error(err),
		)
	}

	return Reply{Text: answer, Kind: ReplyAnswer}, nil
}
