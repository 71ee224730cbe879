package command

import (
	"context"
	"log/slog"
	"strings"

	"github.com/cmlabs-hris/attendance-bot/internal/pkg/slackapi"
)

var employeeHelp = []string{
	"`/clockin [h:mm AM/PM]` Clock in, optionally at a given time.",
	"`/clockout [h:mm AM/PM]` Clock out, optionally at a given time.",
	"`/myattendance [date|range]` See your attendance.",
	"`/viewattendance [date|range]` Show everyone's attendance, today by default.",
	"`/overtime MM/DD/YYYY hours [reason]` Request overtime approval.",
	"`/undertime MM/DD/YYYY hours [reason]` Request undertime approval.",
}

var adminHelp = []string{
	"`/editattendance @user MM/DD/YYYY IN OUT` Edit a user's record.",
	"`/addovertime @user MM/DD/YYYY hours` Set overtime directly.",
	"`/addundertime @user MM/DD/YYYY hours` Set undertime directly.",
	"`/history @user [date|range]` Get a user's attendance history.",
	"`/pending` List requests waiting for a decision.",
	"`/addadmin email` Add an admin.",
	"`/removeadmin email` Remove an admin.",
}

func (d *Dispatcher) help(ctx context.Context, inv Invocation) (slackapi.Reply, error) {
	admin, err := d.identity.IsAdmin(ctx, inv.UserID)
	if err != nil {
		slog.Warn("Could not check admin status for help", "user_id", inv.UserID, "error", err)
	}

	var b strings.Builder
	b.WriteString("*Attendance Bot Help*\n\n")
	for _, line := range employeeHelp {
		b.WriteString("• " + line + "\n")
	}
	b.WriteString("Dates are MM/DD/YYYY. Ranges are MM/DD/YYYY-MM/DD/YYYY, today, yesterday, this week, last week, this month or last month.\n")
	b.WriteString("Overtime and undertime requests are approved by an admin.\n")

	if admin {
		b.WriteString("\n*Admin Commands:*\n")
		for _, line := range adminHelp {
			b.WriteString("• " + line + "\n")
		}
	}
	return slackapi.Reply{Text: strings.TrimRight(b.String(), "\n")}, nil
}
