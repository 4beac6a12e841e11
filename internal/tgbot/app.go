package tgbot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"devthon-registration/internal/config"
	"devthon-registration/internal/models"
	"devthon-registration/internal/payments"
	"devthon-registration/internal/registration"
	"devthon-registration/internal/store"
	"devthon-registration/internal/submission"
)

// sender is the part of *tgbotapi.BotAPI the app uses.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

type App struct {
	cfg config.Config
	bot sender
	api *tgbotapi.BotAPI
	svc *submission.Service
	pay payments.PaymentProvider
	log *slog.Logger

	// per-chat conversation state
	mu    sync.Mutex
	state map[int64]*userState
}

type userState struct {
	Flow string
	Step int
	Data map[string]string

	form    registration.Form
	session *submission.Session
}

const flowReg = "reg"

const (
	stepTeamName = iota + 1
	stepCollege
	stepLeaderName
	stepLeaderRoll
	stepLeaderEmail
	stepLeaderPhone
	stepMembers
	stepMemberName
	stepMemberRoll
	stepMemberEmail
	stepTransaction
	stepConfirm
)

func New(cfg config.Config, svc *submission.Service, pay payments.PaymentProvider, log *slog.Logger) (*App, error) {
	b, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		return nil, err
	}
	b.Debug = false
	a := newApp(cfg, b, svc, pay, log)
	a.api = b
	return a, nil
}

func newApp(cfg config.Config, bot sender, svc *submission.Service, pay payments.PaymentProvider, log *slog.Logger) *App {
	return &App{
		cfg:   cfg,
		bot:   bot,
		svc:   svc,
		pay:   pay,
		log:   log,
		state: map[int64]*userState{},
	}
}

func (a *App) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := a.api.GetUpdatesChan(u)
	defer a.api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case upd := <-updates:
			a.handleUpdate(ctx, upd)
		}
	}
}

func (a *App) handleUpdate(ctx context.Context, upd tgbotapi.Update) {
	if upd.Message != nil {
		if err := a.handleMessage(ctx, upd.Message); err != nil {
			a.log.Error("handle message", "chat", upd.Message.Chat.ID, "err", err)
		}
	} else if upd.CallbackQuery != nil {
		if err := a.handleCallback(ctx, upd.CallbackQuery); err != nil {
			a.log.Error("handle callback", "from", upd.CallbackQuery.From.ID, "err", err)
		}
	}
}

func (a *App) SendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	_, err := a.bot.Send(msg)
	return err
}

// NotifyRegistration tells every admin about a new pending registration so
// the payment can be checked against the transaction id.
func (a *App) NotifyRegistration(ctx context.Context, reg models.Registration) error {
	text := fmt.Sprintf("🆕 New registration\nTeam: %s\nCollege: %s\nLeader: %s (%s, %s)\nMembers: %d\nFee: ₹%d\nUPI txn: %s\nID: %s",
		reg.TeamName, reg.CollegeName, reg.LeaderName, reg.LeaderEmail, reg.LeaderPhone,
		reg.TotalMembers, reg.TotalFee, reg.UPITransactionID, reg.ID,
	)
	var errs []error
	for id := range a.cfg.AdminTGIDs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := a.SendText(id, text); err != nil {
			errs = append(errs, fmt.Errorf("admin %d: %w", id, err))
		}
	}
	return errors.Join(errs...)
}

func (a *App) getState(chatID int64) *userState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state[chatID]
}

func (a *App) setState(chatID int64, st *userState) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if st == nil {
		delete(a.state, chatID)
		return
	}
	a.state[chatID] = st
}

// ---------- Message handling ----------

func (a *App) handleMessage(ctx context.Context, m *tgbotapi.Message) error {
	chatID := m.Chat.ID
	txt := strings.TrimSpace(m.Text)

	if strings.HasPrefix(txt, "/start") {
		a.setState(chatID, &userState{
			Flow:    flowReg,
			Step:    stepTeamName,
			Data:    map[string]string{},
			session: a.svc.NewSession(),
		})
		return a.SendText(chatID, "👋 Welcome to Devthon registration!\nTeams have 2 to 4 members including the leader, ₹75 per person.\n\nEnter your team name:")
	}
	if strings.HasPrefix(txt, "/cancel") {
		a.setState(chatID, nil)
		return a.SendText(chatID, "Registration cancelled. Send /start to begin again.")
	}

	st := a.getState(chatID)
	if st == nil || st.Flow == "" {
		return a.SendText(chatID, "Send /start to register your team.")
	}
	return a.handleRegistrationFlow(ctx, chatID, txt, st)
}

// ---------- Callback handling ----------

func (a *App) handleCallback(ctx context.Context, q *tgbotapi.CallbackQuery) error {
	chatID := q.From.ID
	if q.Message != nil {
		chatID = q.Message.Chat.ID
	}

	// ack
	_, _ = a.bot.Request(tgbotapi.NewCallback(q.ID, ""))

	st := a.getState(chatID)
	if st == nil || st.Flow != flowReg {
		return a.SendText(chatID, "Send /start to register your team.")
	}

	switch data := q.Data; {
	case data == "r:add_member":
		if len(st.form.Members) >= registration.MaxExtraMembers {
			return a.SendText(chatID, (&registration.CapacityError{Limit: registration.MaxExtraMembers}).Error())
		}
		st.Step = stepMemberName
		return a.SendText(chatID, fmt.Sprintf("Member %d name:", len(st.form.Members)+1))
	case data == "r:members_done":
		return a.finishMembers(ctx, chatID, st)
	case strings.HasPrefix(data, "r:remove:"):
		i, err := strconv.Atoi(strings.TrimPrefix(data, "r:remove:"))
		if err != nil {
			return nil
		}
		st.form.Members = registration.RemoveMember(st.form.Members, i)
		return a.showMembers(chatID, st)
	case data == "r:submit":
		if st.Step != stepConfirm {
			return nil
		}
		return a.submit(ctx, chatID, st)
	}
	return nil
}

// ---------- Flow ----------

func (a *App) handleRegistrationFlow(ctx context.Context, chatID int64, txt string, st *userState) error {
	if txt == "" {
		return a.SendText(chatID, "This field cannot be empty. Try again:")
	}

	switch st.Step {
	case stepTeamName:
		taken, err := a.svc.CheckName(ctx, txt)
		switch {
		case err != nil:
			a.log.Warn("team name check failed", "chat", chatID, "err", err)
			if sendErr := a.SendText(chatID, "⚠️ Could not verify the team name right now. We'll check again on submit."); sendErr != nil {
				return sendErr
			}
		case taken:
			return a.SendText(chatID, "❌ Team name is already taken, please choose another:")
		}
		st.form.TeamName = txt
		if st.Data["rename"] != "" {
			delete(st.Data, "rename")
			st.Step = stepConfirm
			return a.showConfirm(chatID, st)
		}
		st.Step = stepCollege
		return a.SendText(chatID, "College name:")
	case stepCollege:
		st.form.CollegeName = txt
		st.Step = stepLeaderName
		return a.SendText(chatID, "Team leader name:")
	case stepLeaderName:
		st.form.LeaderName = txt
		st.Step = stepLeaderRoll
		return a.SendText(chatID, "Leader roll number:")
	case stepLeaderRoll:
		st.form.LeaderRollNo = txt
		st.Step = stepLeaderEmail
		return a.SendText(chatID, "Leader email:")
	case stepLeaderEmail:
		if !registration.IsEmail(txt) {
			return a.SendText(chatID, "That doesn't look like an email address. Try again:")
		}
		st.form.LeaderEmail = txt
		st.Step = stepLeaderPhone
		return a.SendText(chatID, "Leader phone number:")
	case stepLeaderPhone:
		st.form.LeaderPhone = txt
		st.Step = stepMembers
		return a.showMembers(chatID, st)
	case stepMembers:
		return a.showMembers(chatID, st)
	case stepMemberName:
		members, err := registration.AddMember(st.form.Members)
		if err != nil {
			st.Step = stepMembers
			return a.SendText(chatID, err.Error())
		}
		st.form.Members = registration.UpdateMember(members, len(members)-1, registration.FieldName, txt)
		st.Step = stepMemberRoll
		return a.SendText(chatID, "Member roll number:")
	case stepMemberRoll:
		st.form.Members = registration.UpdateMember(st.form.Members, len(st.form.Members)-1, registration.FieldRollNo, txt)
		st.Step = stepMemberEmail
		return a.SendText(chatID, "Member email:")
	case stepMemberEmail:
		st.form.Members = registration.UpdateMember(st.form.Members, len(st.form.Members)-1, registration.FieldEmail, txt)
		st.Step = stepMembers
		return a.showMembers(chatID, st)
	case stepTransaction, stepConfirm:
		st.form.TransactionID = txt
		st.Step = stepConfirm
		return a.showConfirm(chatID, st)
	default:
		a.setState(chatID, nil)
		return a.SendText(chatID, "Something went wrong. Send /start")
	}
}

func (a *App) showMembers(chatID int64, st *userState) error {
	totals := st.form.Totals()
	var b strings.Builder
	fmt.Fprintf(&b, "👥 Team %s\nLeader: %s\n", st.form.TeamName, st.form.LeaderName)
	for i, m := range st.form.Members {
		fmt.Fprintf(&b, "%d. %s (%s, %s)\n", i+1, m.Name, m.RollNo, m.Email)
	}
	fmt.Fprintf(&b, "\nTotal members: %d\nFee: ₹%d", totals.TotalMembers, totals.TotalFee)

	rows := [][]tgbotapi.InlineKeyboardButton{}
	for i, m := range st.form.Members {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("➖ Remove "+m.Name, fmt.Sprintf("r:remove:%d", i)),
		))
	}
	ctl := []tgbotapi.InlineKeyboardButton{}
	if len(st.form.Members) < registration.MaxExtraMembers {
		ctl = append(ctl, tgbotapi.NewInlineKeyboardButtonData("➕ Add member", "r:add_member"))
	}
	ctl = append(ctl, tgbotapi.NewInlineKeyboardButtonData("✅ Done", "r:members_done"))
	rows = append(rows, ctl)

	msg := tgbotapi.NewMessage(chatID, b.String())
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	_, err := a.bot.Send(msg)
	return err
}

func (a *App) finishMembers(ctx context.Context, chatID int64, st *userState) error {
	if err := registration.ValidateForSubmission(st.form.Normalized()); err != nil {
		var ve *registration.ValidationError
		if errors.As(err, &ve) {
			return a.SendText(chatID, "⚠️ "+ve.Message)
		}
		return err
	}

	totals := st.form.Totals()
	// Telegram clients open upi:// links in the installed UPI app
	instr, err := payments.Instruct(ctx, a.pay, payments.Environment{IsMobileLike: true}, st.form.TeamName, totals.TotalFee)
	if err != nil {
		return err
	}
	st.Step = stepTransaction
	return a.SendText(chatID, fmt.Sprintf("💳 Pay ₹%d for %d members using UPI:\n%s\n\nAfter paying, enter the UPI transaction ID:",
		instr.Amount, totals.TotalMembers, instr.Link))
}

func (a *App) showConfirm(chatID int64, st *userState) error {
	f := st.form
	text := fmt.Sprintf("Please confirm:\nTeam: %s\nCollege: %s\nLeader: %s\nMembers: %d\nFee: ₹%d\nUPI txn: %s\n\nSend a different transaction ID to change it.",
		f.TeamName, f.CollegeName, f.LeaderName, f.Totals().TotalMembers, f.Totals().TotalFee, f.TransactionID)
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🚀 Submit registration", "r:submit"),
		),
	)
	_, err := a.bot.Send(msg)
	return err
}

func (a *App) submit(ctx context.Context, chatID int64, st *userState) error {
	conf, err := st.session.Submit(ctx, st.form)
	switch {
	case err == nil:
	case errors.Is(err, submission.ErrSubmissionInProgress):
		return a.SendText(chatID, "⏳ Your registration is being submitted, please wait.")
	case errors.Is(err, store.ErrTeamNameTaken):
		st.Step = stepTeamName
		st.Data["rename"] = "1"
		return a.SendText(chatID, "❌ Team name is already taken, please choose another:")
	default:
		var ve *registration.ValidationError
		if errors.As(err, &ve) {
			return a.SendText(chatID, "⚠️ "+ve.Message)
		}
		a.log.Error("submit registration", "chat", chatID, "team", st.form.TeamName, "err", err)
		return a.SendText(chatID, "❌ Registration failed: "+err.Error()+"\nTap Submit to try again.")
	}

	a.setState(chatID, nil)
	return a.SendText(chatID, fmt.Sprintf("✅ Registration received!\nTeam: %s\nTeam ID: %s\nAmount: ₹%d\nUPI txn: %s\n\nPayment status is pending until an organizer verifies it.",
		conf.TeamName, conf.TeamID, conf.Amount, conf.TransactionID))
}
