package bot

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/msmirnov/askanswerbot/bank"
	"github.com/msmirnov/askanswerbot/config"
	"github.com/msmirnov/askanswerbot/models"
	"github.com/msmirnov/askanswerbot/quiz"
	"github.com/msmirnov/askanswerbot/storage"
)

// Bot represents the Telegram bot
type Bot struct {
	api    *tgbotapi.BotAPI
	engine *quiz.Engine
	admins map[int64]bool
}

const (
	cmdStart      = "start"
	cmdHelp       = "help"
	cmdNext       = "next"
	cmdJump       = "jump"
	cmdAdd        = "add"
	cmdClear      = "clear"
	cmdSolved     = "solved"
	cmdRanking    = "ranking"
	cmdBanks      = "banks"
	cmdSwitchBank = "switchbank"
	cmdCreateBank = "createbank"
	cmdDeleteBank = "deletebank"
)

// New creates a new bot instance
func New(cfg *config.Config, engine *quiz.Engine) (*Bot, error) {
	botAPI, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot API: %w", err)
	}

	// Set bot debugging mode
	botAPI.Debug = os.Getenv("DEBUG") == "true"

	return &Bot{
		api:    botAPI,
		engine: engine,
		admins: cfg.AdminIDs,
	}, nil
}

// Start starts the bot and listens for updates
func (b *Bot) Start() {
	log.Println("Starting bot polling...")

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for update := range updates {
		if update.Message != nil {
			b.handleMessage(update.Message)
		}
	}
}

// handleMessage processes incoming messages. Commands are dispatched to
// their handlers; every other text message is treated as a candidate
// answer to the current question.
func (b *Bot) handleMessage(message *tgbotapi.Message) {
	if message.Text == "" || message.From == nil {
		return
	}

	if !message.IsCommand() {
		b.handleAnswer(message)
		return
	}

	log.Printf("Received command from %s (ID: %d): %s", message.From.UserName, message.From.ID, message.Text)

	switch message.Command() {
	case cmdStart, cmdHelp:
		b.handleHelpCommand(message)
	case cmdNext:
		b.handleNextCommand(message)
	case cmdJump:
		b.handleJumpCommand(message)
	case cmdAdd:
		b.handleAddCommand(message)
	case cmdClear:
		b.handleClearCommand(message)
	case cmdSolved:
		b.handleSolvedCommand(message)
	case cmdRanking:
		b.handleRankingCommand(message)
	case cmdBanks:
		b.handleBanksCommand(message)
	case cmdSwitchBank:
		b.handleSwitchBankCommand(message)
	case cmdCreateBank:
		b.handleCreateBankCommand(message)
	case cmdDeleteBank:
		b.handleDeleteBankCommand(message)
	default:
		b.sendMessage(message.Chat.ID, "Unknown command. Use /help to see what I can do.")
	}
}

// handleAnswer submits plain text as a candidate answer. Wrong answers,
// duplicates, and messages arriving with no active question stay silent
// so normal chat is not disturbed.
func (b *Bot) handleAnswer(message *tgbotapi.Message) {
	responder := models.Responder{
		Nickname: senderName(message.From),
		UserID:   message.From.ID,
	}

	outcome, question, err := b.engine.SubmitAnswer(message.Text, responder)
	if err != nil {
		log.Printf("Error recording answer: %v", err)
		return
	}
	if outcome != quiz.SubmitAccepted {
		return
	}

	log.Printf("Question %d solved by %s (ID: %d)", question.ID, responder.Nickname, responder.UserID)
	b.sendMessage(message.Chat.ID, fmt.Sprintf("🎉 %s answered question #%d correctly!", responder.Nickname, question.ID))
}

// handleHelpCommand handles the /start and /help commands
func (b *Bot) handleHelpCommand(message *tgbotapi.Message) {
	helpText := `Welcome to the group quiz bot!

I keep named question banks and let the group race to answer. Just type
your answer as a normal message; the first correct reply wins.

Commands:
/next - Move on to the next unsolved question
/jump <id> - Switch to a specific question by id
/solved - Show who solved which question
/ranking - Show the participation ranking

Admin commands:
/add <question>|<answer> - Add a question
/clear - Remove all questions from the active bank
/banks - List question banks
/switchbank <name> - Switch the active bank
/createbank <name> - Create a new bank
/deletebank <name> - Delete a bank`

	b.sendMessage(message.Chat.ID, helpText)
}

// handleNextCommand handles the /next command
func (b *Bot) handleNextCommand(message *tgbotapi.Message) {
	question, err := b.engine.Advance()
	if errors.Is(err, quiz.ErrNoMoreQuestions) {
		b.sendMessage(message.Chat.ID, "No more questions.")
		return
	}
	if err != nil {
		log.Printf("Error advancing question: %v", err)
		b.sendMessage(message.Chat.ID, "Sorry, I couldn't switch questions. Please try again later.")
		return
	}

	b.sendMessage(message.Chat.ID, fmt.Sprintf("Question #%d:\n%s", question.ID, question.Text))
}

// handleJumpCommand handles the /jump command
func (b *Bot) handleJumpCommand(message *tgbotapi.Message) {
	arg := strings.TrimSpace(message.CommandArguments())
	if arg == "" {
		b.sendMessage(message.Chat.ID, "Usage: /jump <question id>")
		return
	}
	id, err := strconv.Atoi(arg)
	if err != nil {
		b.sendMessage(message.Chat.ID, "The question id must be a number.")
		return
	}

	question, err := b.engine.JumpTo(id)
	if errors.Is(err, quiz.ErrQuestionNotFound) {
		b.sendMessage(message.Chat.ID, fmt.Sprintf("Question %d does not exist.", id))
		return
	}
	if err != nil {
		log.Printf("Error jumping to question %d: %v", id, err)
		b.sendMessage(message.Chat.ID, "Sorry, I couldn't switch questions. Please try again later.")
		return
	}

	b.sendMessage(message.Chat.ID, fmt.Sprintf("Question #%d:\n%s", question.ID, question.Text))
}

// handleAddCommand handles the /add command
func (b *Bot) handleAddCommand(message *tgbotapi.Message) {
	if !b.requireAdmin(message) {
		return
	}

	text, answer, ok := splitQuestionAnswer(message.CommandArguments())
	if !ok {
		b.sendMessage(message.Chat.ID, "Usage: /add <question>|<answer>")
		return
	}

	question, err := b.engine.AddQuestion(text, answer)
	if errors.Is(err, quiz.ErrEmptyField) {
		b.sendMessage(message.Chat.ID, "The question and the answer must not be empty.")
		return
	}
	if err != nil {
		log.Printf("Error adding question: %v", err)
		b.sendMessage(message.Chat.ID, "Sorry, I couldn't save the question. Please try again later.")
		return
	}

	b.sendMessage(message.Chat.ID, fmt.Sprintf("Added question #%d:\n%s", question.ID, question.Text))
}

// handleClearCommand handles the /clear command
func (b *Bot) handleClearCommand(message *tgbotapi.Message) {
	if !b.requireAdmin(message) {
		return
	}

	if err := b.engine.ClearAll(); err != nil {
		log.Printf("Error clearing questions: %v", err)
		b.sendMessage(message.Chat.ID, "Sorry, I couldn't clear the questions. Please try again later.")
		return
	}

	b.sendMessage(message.Chat.ID, "All questions cleared.")
}

// handleSolvedCommand handles the /solved command
func (b *Bot) handleSolvedCommand(message *tgbotapi.Message) {
	entries := b.engine.Solved()
	if len(entries) == 0 {
		b.sendMessage(message.Chat.ID, "No questions solved yet.")
		return
	}

	var lines []string
	for _, entry := range entries {
		lines = append(lines, fmt.Sprintf("Question %d: %s (%d)", entry.QuestionID, entry.Solver.Nickname, entry.Solver.UserID))
	}
	b.sendMessage(message.Chat.ID, "Solved questions:\n"+strings.Join(lines, "\n"))
}

// handleRankingCommand handles the /ranking command
func (b *Bot) handleRankingCommand(message *tgbotapi.Message) {
	entries, total := b.engine.Ranking()
	if total == 0 {
		b.sendMessage(message.Chat.ID, "No answers recorded yet.")
		return
	}

	var lines []string
	for rank, entry := range entries {
		lines = append(lines, fmt.Sprintf("%d. %s (%d): %d solved", rank+1, entry.Nickname, entry.UserID, entry.Count))
	}
	if total > len(entries) {
		lines = append(lines, fmt.Sprintf("\n%d users participated in total", total))
	}
	b.sendMessage(message.Chat.ID, "Ranking by questions solved:\n"+strings.Join(lines, "\n"))
}

// handleBanksCommand handles the /banks command
func (b *Bot) handleBanksCommand(message *tgbotapi.Message) {
	if !b.requireAdmin(message) {
		return
	}

	names, err := b.engine.Banks()
	if err != nil {
		log.Printf("Error listing banks: %v", err)
		b.sendMessage(message.Chat.ID, "Sorry, I couldn't list the banks. Please try again later.")
		return
	}

	active := b.engine.ActiveBank()
	var lines []string
	for _, name := range names {
		if name == active {
			lines = append(lines, name+" (active)")
		} else {
			lines = append(lines, name)
		}
	}
	b.sendMessage(message.Chat.ID, "Question banks:\n"+strings.Join(lines, "\n"))
}

// handleSwitchBankCommand handles the /switchbank command
func (b *Bot) handleSwitchBankCommand(message *tgbotapi.Message) {
	if !b.requireAdmin(message) {
		return
	}

	name := strings.TrimSpace(message.CommandArguments())
	if name == "" {
		b.sendMessage(message.Chat.ID, "Usage: /switchbank <name>")
		return
	}

	err := b.engine.SwitchBank(name)
	if errors.Is(err, bank.ErrNotFound) {
		b.sendMessage(message.Chat.ID, fmt.Sprintf("Bank %q does not exist.", name))
		return
	}
	if err != nil {
		log.Printf("Error switching to bank %q: %v", name, err)
		b.sendMessage(message.Chat.ID, "Sorry, I couldn't switch banks. Please try again later.")
		return
	}

	b.sendMessage(message.Chat.ID, fmt.Sprintf("Switched to bank %q.", name))
}

// handleCreateBankCommand handles the /createbank command
func (b *Bot) handleCreateBankCommand(message *tgbotapi.Message) {
	if !b.requireAdmin(message) {
		return
	}

	name := strings.TrimSpace(message.CommandArguments())
	if name == "" {
		b.sendMessage(message.Chat.ID, "Usage: /createbank <name>")
		return
	}

	err := b.engine.CreateBank(name)
	switch {
	case errors.Is(err, bank.ErrAlreadyExists):
		b.sendMessage(message.Chat.ID, fmt.Sprintf("Bank %q already exists.", name))
	case errors.Is(err, storage.ErrBadName):
		b.sendMessage(message.Chat.ID, "That bank name contains characters I can't store.")
	case err != nil:
		log.Printf("Error creating bank %q: %v", name, err)
		b.sendMessage(message.Chat.ID, "Sorry, I couldn't create the bank. Please try again later.")
	default:
		b.sendMessage(message.Chat.ID, fmt.Sprintf("Bank %q created.", name))
	}
}

// handleDeleteBankCommand handles the /deletebank command
func (b *Bot) handleDeleteBankCommand(message *tgbotapi.Message) {
	if !b.requireAdmin(message) {
		return
	}

	name := strings.TrimSpace(message.CommandArguments())
	if name == "" {
		b.sendMessage(message.Chat.ID, "Usage: /deletebank <name>")
		return
	}

	err := b.engine.DeleteBank(name)
	switch {
	case errors.Is(err, bank.ErrNotFound):
		b.sendMessage(message.Chat.ID, fmt.Sprintf("Bank %q does not exist.", name))
	case errors.Is(err, bank.ErrActiveBank):
		b.sendMessage(message.Chat.ID, "I can't delete the active bank. Switch to another bank first.")
	case err != nil:
		log.Printf("Error deleting bank %q: %v", name, err)
		b.sendMessage(message.Chat.ID, "Sorry, I couldn't delete the bank. Please try again later.")
	default:
		b.sendMessage(message.Chat.ID, fmt.Sprintf("Bank %q deleted.", name))
	}
}

// requireAdmin replies with a refusal and returns false when the sender
// is not listed in ADMIN_IDS.
func (b *Bot) requireAdmin(message *tgbotapi.Message) bool {
	if b.admins[message.From.ID] {
		return true
	}
	log.Printf("Denied admin command from %s (ID: %d)", message.From.UserName, message.From.ID)
	b.sendMessage(message.Chat.ID, "This command is restricted to bot admins.")
	return false
}

// splitQuestionAnswer splits "question|answer" on the first separator.
func splitQuestionAnswer(args string) (text, answer string, ok bool) {
	parts := strings.SplitN(args, "|", 2)
	if len(parts) < 2 {
		return "", "", false
	}
	text = strings.TrimSpace(parts[0])
	answer = strings.TrimSpace(parts[1])
	if text == "" || answer == "" {
		return "", "", false
	}
	return text, answer, true
}

// senderName picks the display name for a responder. Telegram users may
// carry neither a first name nor a username; the numeric id is the last
// resort so a solver is never recorded nameless.
func senderName(user *tgbotapi.User) string {
	if user.FirstName != "" {
		return user.FirstName
	}
	if user.UserName != "" {
		return user.UserName
	}
	return strconv.FormatInt(user.ID, 10)
}

// sendMessage sends a text message to the specified chat
func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		log.Printf("Error sending message: %v", err)
	}
}
