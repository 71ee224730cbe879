package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"cloud.google.com/go/civil"
	"github.com/cmlabs-hris/attendance-bot/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-bot/internal/domain/identity"
	"github.com/cmlabs-hris/attendance-bot/internal/domain/notification"
	"github.com/cmlabs-hris/attendance-bot/internal/domain/request"
	"github.com/cmlabs-hris/attendance-bot/internal/pkg/clock"
	"github.com/cmlabs-hris/attendance-bot/internal/pkg/slackapi"
)

// Invocation is one slash command as received from Slack.
type Invocation struct {
	Command     string
	Text        string
	UserID      string
	UserName    string
	ChannelID   string
	ResponseURL string
}

// Decision is an Approve or Deny button press.
type Decision struct {
	ActionID    string
	RequestID   string
	UserID      string
	ResponseURL string
}

// Responder delivers a reply to a Slack response_url.
type Responder interface {
	Respond(ctx context.Context, responseURL string, reply slackapi.Reply) error
}

type Config struct {
	// AsyncRangeDays is the longest range answered inline. Longer ranges
	// are acknowledged at once and delivered to the response_url.
	AsyncRangeDays int
	AsyncTimeout   time.Duration
}

type handlerFunc func(ctx context.Context, inv Invocation) (slackapi.Reply, error)

// Dispatcher routes slash commands to the attendance, request and identity
// services and renders their results as Slack replies.
type Dispatcher struct {
	attendance attendance.AttendanceService
	requests   request.RequestService
	identity   identity.IdentityService
	responder  Responder
	clock      clock.Source
	config     Config

	handlers map[string]handlerFunc
	wg       sync.WaitGroup
}

func NewDispatcher(
	attendanceService attendance.AttendanceService,
	requestService request.RequestService,
	identityService identity.IdentityService,
	responder Responder,
	src clock.Source,
	cfg Config,
) *Dispatcher {
	if cfg.AsyncRangeDays == 0 {
		cfg.AsyncRangeDays = 14
	}
	if cfg.AsyncTimeout == 0 {
		cfg.AsyncTimeout = 2 * time.Minute
	}

	d := &Dispatcher{
		attendance: attendanceService,
		requests:   requestService,
		identity:   identityService,
		responder:  responder,
		clock:      src,
		config:     cfg,
	}
	d.handlers = map[string]handlerFunc{
		"clockin":        d.clockIn,
		"clockout":       d.clockOut,
		"myattendance":   d.myAttendance,
		"viewattendance": d.viewAttendance,
		"overtime":       d.submitter(attendance.AdjustmentOvertime),
		"undertime":      d.submitter(attendance.AdjustmentUndertime),
		"addovertime":    d.adjuster(attendance.AdjustmentOvertime),
		"addundertime":   d.adjuster(attendance.AdjustmentUndertime),
		"editattendance": d.editAttendance,
		"history":        d.history,
		"addadmin":       d.addAdmin,
		"removeadmin":    d.removeAdmin,
		"pending":        d.pending,
		"help":           d.help,
	}
	return d
}

// Dispatch runs one command. Failures become replies; Dispatch itself never
// returns an error.
func (d *Dispatcher) Dispatch(ctx context.Context, inv Invocation) slackapi.Reply {
	name := normalizeCommand(inv.Command)
	handler, ok := d.handlers[name]
	if !ok {
		return slackapi.Reply{Text: fmt.Sprintf("Unknown command `/%s`. Try `/help`.", name)}
	}

	reply, err := handler(ctx, inv)
	if err != nil {
		return replyForError(name, err)
	}
	return reply
}

// Wait blocks until deferred replies have been delivered.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func normalizeCommand(c string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(c), "/"))
}

// caller resolves the invoking user. A failed lookup falls back to the
// handle Slack sent with the command.
func (d *Dispatcher) caller(ctx context.Context, inv Invocation) attendance.Employee {
	profile, err := d.identity.Profile(ctx, inv.UserID)
	if err != nil {
		slog.Warn("Failed to resolve caller, using handle", "user_id", inv.UserID, "error", err)
		name := inv.UserName
		if name == "" {
			name = identity.UnknownName
		}
		return attendance.Employee{ID: inv.UserID, Name: name}
	}
	return attendance.Employee{ID: inv.UserID, Name: profile.DisplayName}
}

// target resolves a mentioned user, filling the name from the directory
// when the mention carries none.
func (d *Dispatcher) target(ctx context.Context, e attendance.Employee) attendance.Employee {
	if e.Name != "" {
		return e
	}
	if profile, err := d.identity.Profile(ctx, e.ID); err == nil {
		e.Name = profile.DisplayName
	}
	return e
}

func (d *Dispatcher) requireAdmin(ctx context.Context, userID string) error {
	ok, err := d.identity.IsAdmin(ctx, userID)
	if err != nil {
		return err
	}
	if !ok {
		return identity.ErrUnauthorized
	}
	return nil
}

func (d *Dispatcher) today() civil.Date {
	return clock.Today(d.clock)
}

// deferIfLong answers ranges longer than AsyncRangeDays with an
// acknowledgment and posts the real reply to the response_url later.
func (d *Dispatcher) deferIfLong(ctx context.Context, inv Invocation, r clock.Range, inChannel bool, run func(ctx context.Context) (slackapi.Reply, error)) (slackapi.Reply, error) {
	if r.Days() <= d.config.AsyncRangeDays || inv.ResponseURL == "" || d.responder == nil {
		return run(ctx)
	}

	d.background(normalizeCommand(inv.Command), inv.ResponseURL, run)

	return slackapi.Reply{
		Text:      fmt.Sprintf("⏳ Fetching attendance for %s, results will follow shortly.", r),
		InChannel: inChannel,
	}, nil
}

// background runs run outside the request and posts its reply to
// responseURL.
func (d *Dispatcher) background(name, responseURL string, run func(ctx context.Context) (slackapi.Reply, error)) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() {
			if p := recover(); p != nil {
				slog.Error("Deferred command panicked", "command", name, "panic", p, "stack", string(debug.Stack()))
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), d.config.AsyncTimeout)
		defer cancel()

		reply, err := run(ctx)
		if err != nil {
			reply = replyForError(name, err)
		}
		if err := d.responder.Respond(ctx, responseURL, reply); err != nil {
			slog.Error("Failed to deliver deferred reply", "command", name, "error", err)
		}
	}()
}

func (d *Dispatcher) clockIn(ctx context.Context, inv Invocation) (slackapi.Reply, error) {
	employee := d.caller(ctx, inv)
	rec, err := d.attendance.ClockIn(ctx, attendance.ClockRequest{Employee: employee, Time: inv.Text})
	if err != nil {
		return slackapi.Reply{}, err
	}
	return slackapi.Reply{
		Text: fmt.Sprintf("✅ Clocked in as *%s* at *%s* on %s.", employee.Name, rec.ClockIn, clock.FormatDate(rec.Date)),
	}, nil
}

func (d *Dispatcher) clockOut(ctx context.Context, inv Invocation) (slackapi.Reply, error) {
	employee := d.caller(ctx, inv)
	rec, err := d.attendance.ClockOut(ctx, attendance.ClockRequest{Employee: employee, Time: inv.Text})
	if err != nil {
		return slackapi.Reply{}, err
	}
	return slackapi.Reply{
		Text: fmt.Sprintf("✅ Clocked out as *%s* at *%s* on %s. Total hours: *%s*.",
			employee.Name, rec.ClockOut, clock.FormatDate(rec.Date), rec.TotalHours),
	}, nil
}

func (d *Dispatcher) myAttendance(ctx context.Context, inv Invocation) (slackapi.Reply, error) {
	r, err := clock.ParseRange(inv.Text, d.today())
	if err != nil {
		return slackapi.Reply{}, err
	}
	employee := d.caller(ctx, inv)

	return d.deferIfLong(ctx, inv, r, false, func(ctx context.Context) (slackapi.Reply, error) {
		records, err := d.attendance.History(ctx, employee, r)
		if err != nil {
			return slackapi.Reply{}, err
		}
		if len(records) == 0 {
			return slackapi.Reply{Text: "No attendance records found for that period."}, nil
		}
		return slackapi.Reply{Text: fmt.Sprintf("*Your attendance for %s:*\n%s", r, personalTable(records))}, nil
	})
}

func (d *Dispatcher) viewAttendance(ctx context.Context, inv Invocation) (slackapi.Reply, error) {
	today := d.today()
	r, err := clock.ParseRange(inv.Text, today)
	if err != nil {
		return slackapi.Reply{}, err
	}

	return d.deferIfLong(ctx, inv, r, true, func(ctx context.Context) (slackapi.Reply, error) {
		records, err := d.attendance.View(ctx, r)
		if err != nil {
			return slackapi.Reply{}, err
		}
		if len(records) == 0 {
			text := fmt.Sprintf("No attendance records for %s.", r)
			if r == clock.SingleDay(today) {
				text = fmt.Sprintf("No attendance records for today (%s).", r)
			}
			return slackapi.Reply{Text: text, InChannel: true}, nil
		}
		return slackapi.Reply{
			Text:      fmt.Sprintf("*Attendance for %s:*\n%s", r, teamTable(records, r.Days() > 1)),
			InChannel: true,
		}, nil
	})
}

func (d *Dispatcher) submitter(kind attendance.AdjustmentType) handlerFunc {
	syntax := fmt.Sprintf("/%s MM/DD/YYYY hours [reason]", kind)
	return func(ctx context.Context, inv Invocation) (slackapi.Reply, error) {
		fields := strings.Fields(inv.Text)
		if len(fields) < 2 {
			return slackapi.Reply{}, usage(syntax)
		}
		date, err := clock.ParseDate(fields[0])
		if err != nil {
			return slackapi.Reply{}, err
		}
		if _, err := clock.ParseHours(fields[1]); err != nil {
			return slackapi.Reply{}, err
		}

		req, err := d.requests.Submit(ctx, request.SubmitRequest{
			Type:     kind,
			Employee: d.caller(ctx, inv),
			Date:     date,
			Hours:    fields[1],
			Reason:   restAfter(inv.Text, 2),
		})
		switch {
		case errors.Is(err, request.ErrNotifyFailed):
			return slackapi.Reply{
				Text: fmt.Sprintf("📝 %s request for %s (%s hours) was saved, but approvers could not be notified. Please let them know directly.",
					capitalize(string(kind)), clock.FormatDate(req.Date), req.Hours),
			}, nil
		case err != nil:
			return slackapi.Reply{}, err
		}
		return slackapi.Reply{
			Text: fmt.Sprintf("📝 %s request for %s (%s hours) submitted for approval.", capitalize(string(kind)), clock.FormatDate(req.Date), req.Hours),
		}, nil
	}
}

func (d *Dispatcher) adjuster(kind attendance.AdjustmentType) handlerFunc {
	syntax := fmt.Sprintf("/add%s @user MM/DD/YYYY hours", kind)
	return func(ctx context.Context, inv Invocation) (slackapi.Reply, error) {
		if err := d.requireAdmin(ctx, inv.UserID); err != nil {
			return slackapi.Reply{}, err
		}

		fields := strings.Fields(inv.Text)
		if len(fields) < 3 {
			return slackapi.Reply{}, usage(syntax)
		}
		employee, ok := parseMention(fields[0])
		if !ok {
			return slackapi.Reply{}, usage(syntax)
		}
		employee = d.target(ctx, employee)
		date, err := clock.ParseDate(fields[1])
		if err != nil {
			return slackapi.Reply{}, err
		}

		rec, err := d.attendance.SetAdjustment(ctx, attendance.AdjustmentRequest{
			Employee: employee,
			Date:     date,
			Type:     kind,
			Hours:    fields[2],
		})
		if errors.Is(err, attendance.ErrRecordNotFound) {
			return slackapi.Reply{Text: fmt.Sprintf("⚠️ No attendance record for %s on %s.", mention(employee), clock.FormatDate(date))}, nil
		}
		if err != nil {
			return slackapi.Reply{}, err
		}

		hours := rec.OvertimeHours
		if kind == attendance.AdjustmentUndertime {
			hours = rec.UndertimeHours
		}
		return slackapi.Reply{
			Text: fmt.Sprintf("✅ Set %s for %s on %s to *%s*.", kind, mention(employee), clock.FormatDate(date), hours),
		}, nil
	}
}

func (d *Dispatcher) editAttendance(ctx context.Context, inv Invocation) (slackapi.Reply, error) {
	const syntax = "/editattendance @user MM/DD/YYYY IN OUT"
	if err := d.requireAdmin(ctx, inv.UserID); err != nil {
		return slackapi.Reply{}, err
	}

	fields := strings.Fields(inv.Text)
	if len(fields) < 4 {
		return slackapi.Reply{}, usage(syntax)
	}
	employee, ok := parseMention(fields[0])
	if !ok {
		return slackapi.Reply{}, usage(syntax)
	}
	employee = d.target(ctx, employee)
	date, err := clock.ParseDate(fields[1])
	if err != nil {
		return slackapi.Reply{}, err
	}
	times := splitTimes(fields[2:])
	if len(times) != 2 {
		return slackapi.Reply{}, usage(syntax)
	}

	rec, err := d.attendance.Edit(ctx, attendance.EditRequest{
		Employee: employee,
		Date:     date,
		ClockIn:  times[0],
		ClockOut: times[1],
	})
	if err != nil {
		return slackapi.Reply{}, err
	}
	return slackapi.Reply{
		Text: fmt.Sprintf("✅ Updated %s on %s: in *%s*, out *%s*, total *%s*.",
			mention(employee), clock.FormatDate(date), rec.ClockIn, rec.ClockOut, rec.TotalHours),
	}, nil
}

func (d *Dispatcher) history(ctx context.Context, inv Invocation) (slackapi.Reply, error) {
	const syntax = "/history @user [date|range]"
	if err := d.requireAdmin(ctx, inv.UserID); err != nil {
		return slackapi.Reply{}, err
	}

	fields := strings.Fields(inv.Text)
	if len(fields) < 1 {
		return slackapi.Reply{}, usage(syntax)
	}
	employee, ok := parseMention(fields[0])
	if !ok {
		return slackapi.Reply{}, usage(syntax)
	}
	employee = d.target(ctx, employee)
	r, err := clock.ParseRange(restAfter(inv.Text, 1), d.today())
	if err != nil {
		return slackapi.Reply{}, err
	}

	return d.deferIfLong(ctx, inv, r, false, func(ctx context.Context) (slackapi.Reply, error) {
		records, err := d.attendance.History(ctx, employee, r)
		if err != nil {
			return slackapi.Reply{}, err
		}
		if len(records) == 0 {
			return slackapi.Reply{Text: fmt.Sprintf("No attendance records for %s in %s.", mention(employee), r)}, nil
		}
		return slackapi.Reply{Text: fmt.Sprintf("*Attendance of %s for %s:*\n%s", mention(employee), r, personalTable(records))}, nil
	})
}

func (d *Dispatcher) addAdmin(ctx context.Context, inv Invocation) (slackapi.Reply, error) {
	email := parseEmail(inv.Text)
	if email == "" {
		return slackapi.Reply{}, usage("/addadmin email")
	}
	if err := d.identity.AddAdmin(ctx, inv.UserID, email); err != nil {
		return slackapi.Reply{}, err
	}
	return slackapi.Reply{Text: fmt.Sprintf("✅ %s is now an admin.", email)}, nil
}

func (d *Dispatcher) removeAdmin(ctx context.Context, inv Invocation) (slackapi.Reply, error) {
	email := parseEmail(inv.Text)
	if email == "" {
		return slackapi.Reply{}, usage("/removeadmin email")
	}
	if err := d.identity.RemoveAdmin(ctx, inv.UserID, email); err != nil {
		return slackapi.Reply{}, err
	}
	return slackapi.Reply{Text: fmt.Sprintf("✅ %s is no longer an admin.", email)}, nil
}

func (d *Dispatcher) pending(ctx context.Context, inv Invocation) (slackapi.Reply, error) {
	ok, err := d.identity.CanApprove(ctx, inv.UserID)
	if err != nil {
		return slackapi.Reply{}, err
	}
	if !ok {
		return slackapi.Reply{}, identity.ErrUnauthorized
	}

	reqs, err := d.requests.ListPending(ctx)
	if err != nil {
		return slackapi.Reply{}, err
	}
	if len(reqs) == 0 {
		return slackapi.Reply{Text: "No pending requests. 🎉"}, nil
	}
	return slackapi.Reply{Text: fmt.Sprintf("*Pending requests (%d):*\n%s", len(reqs), pendingList(reqs))}, nil
}

// HandleDecision applies an Approve or Deny button press. The reply replaces
// the message that carried the buttons.
func (d *Dispatcher) HandleDecision(ctx context.Context, dec Decision) slackapi.Reply {
	reply, err := d.decide(ctx, dec)
	if err != nil {
		return replyForError("decision", err)
	}
	reply.ReplaceOriginal = true
	return reply
}

// HandleDecisionAsync returns immediately and delivers the outcome of dec to
// its response_url. Without one it decides inline and drops the reply.
func (d *Dispatcher) HandleDecisionAsync(dec Decision) {
	if dec.ResponseURL == "" || d.responder == nil {
		ctx, cancel := context.WithTimeout(context.Background(), d.config.AsyncTimeout)
		defer cancel()
		d.HandleDecision(ctx, dec)
		return
	}
	d.background("decision", dec.ResponseURL, func(ctx context.Context) (slackapi.Reply, error) {
		return d.HandleDecision(ctx, dec), nil
	})
}

func (d *Dispatcher) decide(ctx context.Context, dec Decision) (slackapi.Reply, error) {
	var approved bool
	switch dec.ActionID {
	case notification.ActionApprove:
		approved = true
	case notification.ActionDeny:
	default:
		return slackapi.Reply{}, fmt.Errorf("unknown action %q", dec.ActionID)
	}

	ok, err := d.identity.CanApprove(ctx, dec.UserID)
	if err != nil {
		return slackapi.Reply{}, err
	}
	if !ok {
		return slackapi.Reply{}, identity.ErrUnauthorized
	}

	req, err := d.requests.Decide(ctx, request.DecideRequest{
		ID:        dec.RequestID,
		Approved:  approved,
		DeciderID: dec.UserID,
	})
	if errors.Is(err, request.ErrRequestNotPending) {
		// Stale buttons are replaced so they cannot be pressed again.
		return slackapi.Reply{
			Text: fmt.Sprintf("This request has already been processed (%s).", strings.ToLower(string(req.Status))),
		}, nil
	}
	if err != nil {
		return slackapi.Reply{}, err
	}

	icon, verb := "✅", "Approved"
	if !approved {
		icon, verb = "❌", "Denied"
	}
	return slackapi.Reply{
		Text: fmt.Sprintf("%s %s %s request of %s for %s (%s hours).",
			icon, verb, req.Type, mention(req.Employee()), clock.FormatDate(req.Date), req.Hours),
	}, nil
}
