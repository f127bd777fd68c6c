package cli

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"text/tabwriter"

	"github.com/dmitrijs2005/carefollow/internal/client/gate"
	"github.com/dmitrijs2005/carefollow/internal/client/models"
	"github.com/dmitrijs2005/carefollow/internal/common"
	"github.com/dmitrijs2005/carefollow/internal/logging"
)

type patient struct {
	ID        string `json:"patient_id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	BirthDate string `json:"birth_date,omitempty"`
	Notes     string `json:"notes,omitempty"`
}

type appointment struct {
	ID          string `json:"appointment_id"`
	PatientName string `json:"patient_name,omitempty"`
	Procedure   string `json:"procedure"`
	Diagnosis   string `json:"diagnosis"`
	Date        string `json:"appointment_date,omitempty"`
}

type instruction struct {
	ID            string `json:"instruction_id"`
	AppointmentID string `json:"appointment_id"`
	Text          string `json:"text_content"`
}

type reminder struct {
	ID           string `json:"reminder_id"`
	Message      string `json:"message"`
	Type         string `json:"reminder_type"`
	ScheduledFor string `json:"scheduled_for"`
	Sent         bool   `json:"sent"`
}

type followup struct {
	ID          string `json:"followup_id"`
	PatientName string `json:"patient_name,omitempty"`
	Date        string `json:"follow_up_date"`
	Reason      string `json:"reason"`
	Completed   bool   `json:"completed"`
}

type dashboardStats struct {
	TotalPatients      int           `json:"total_patients"`
	TotalAppointments  int           `json:"total_appointments"`
	TotalInstructions  int           `json:"total_instructions"`
	PendingFollowups   int           `json:"pending_followups"`
	PendingReminders   int           `json:"pending_reminders"`
	RecentAppointments []appointment `json:"recent_appointments"`
}

type portalData struct {
	Patient      *patient      `json:"patient"`
	Appointments []appointment `json:"appointments"`
	Instructions []instruction `json:"instructions"`
	Reminders    []reminder    `json:"reminders"`
	Followups    []followup    `json:"followups"`
}

// render draws the screen for the current location. The location has
// already been through the gate.
func (a *App) render(ctx context.Context) error {
	loc := a.nav.Current()
	route, ok := a.routes.Match(loc.Path)
	if !ok {
		a.loginScreen()
		return nil
	}

	var err error
	switch route.Pattern {
	case models.LoginPath:
		a.loginScreen()
	case "/register":
		a.println("Create an account: type 'register'.")
	case gate.CallbackPath:
		return a.handleCallback(ctx)
	case models.StaffHome:
		err = a.dashboardScreen(ctx)
	case models.PatientHome:
		err = a.portalScreen(ctx)
	case "/patients":
		err = a.patientsScreen(ctx)
	case "/patients/:patientId":
		err = a.patientScreen(ctx, route.Params(loc.Path)["patientId"])
	case "/appointments":
		err = a.appointmentsScreen(ctx)
	case "/appointments/new":
		a.println("New appointments are created in the web application.")
	case "/instructions":
		err = a.instructionsScreen(ctx)
	case "/reminders":
		err = a.remindersScreen(ctx)
	case "/followups":
		err = a.followupsScreen(ctx)
	}

	// A rejected token has already ended the session and moved us to login.
	if errors.Is(err, common.ErrAuthorizationExpired) && a.nav.Current().Path == models.LoginPath {
		a.loginScreen()
	}
	return err
}

func (a *App) loginScreen() {
	a.println("Sign in with 'login', or 'google' for an external account. New here? Type 'register'.")
}

func (a *App) fetch(ctx context.Context, path string, out any) error {
	err := a.api.GetJSON(ctx, path, out)
	if err == nil {
		return nil
	}
	a.log.Warn(ctx, "screen data request failed", "path", path, logging.Err(err))
	if !errors.Is(err, common.ErrAuthorizationExpired) {
		a.notify.Error(common.UserMessage(err))
	}
	return err
}

func (a *App) dashboardScreen(ctx context.Context) error {
	var s dashboardStats
	if err := a.fetch(ctx, "/dashboard/stats", &s); err != nil {
		return err
	}

	a.println("Dashboard")
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "  Patients\t%d\n", s.TotalPatients)
	fmt.Fprintf(tw, "  Appointments\t%d\n", s.TotalAppointments)
	fmt.Fprintf(tw, "  Care instructions\t%d\n", s.TotalInstructions)
	fmt.Fprintf(tw, "  Pending follow-ups\t%d\n", s.PendingFollowups)
	fmt.Fprintf(tw, "  Pending reminders\t%d\n", s.PendingReminders)
	_ = tw.Flush()

	if len(s.RecentAppointments) > 0 {
		a.println("Recent appointments")
		a.appointmentTable(s.RecentAppointments)
	}
	return nil
}

func (a *App) portalScreen(ctx context.Context) error {
	var p portalData
	if err := a.fetch(ctx, "/patient/portal", &p); err != nil {
		return err
	}

	if p.Patient == nil {
		a.println("No patient record is linked to this account yet.")
		return nil
	}
	a.printf("Welcome, %s\n", p.Patient.Name)

	a.printf("Appointments (%d)\n", len(p.Appointments))
	a.appointmentTable(p.Appointments)
	a.printf("Care instructions (%d)\n", len(p.Instructions))
	for _, in := range p.Instructions {
		a.printf("  - %s\n", in.Text)
	}
	a.printf("Reminders (%d)\n", len(p.Reminders))
	a.reminderTable(p.Reminders)
	a.printf("Follow-ups (%d)\n", len(p.Followups))
	a.followupTable(p.Followups)
	return nil
}

func (a *App) patientsScreen(ctx context.Context) error {
	var ps []patient
	if err := a.fetch(ctx, "/patients", &ps); err != nil {
		return err
	}
	a.printf("Patients (%d)\n", len(ps))
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	for _, p := range ps {
		fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n", p.ID, p.Name, p.Email, p.Phone)
	}
	_ = tw.Flush()
	return nil
}

func (a *App) patientScreen(ctx context.Context, id string) error {
	var p patient
	if err := a.fetch(ctx, "/patients/"+url.PathEscape(id), &p); err != nil {
		return err
	}
	a.println(p.Name)
	a.printf("  Email: %s\n  Phone: %s\n", p.Email, p.Phone)
	if p.BirthDate != "" {
		a.printf("  Born: %s\n", p.BirthDate)
	}
	if p.Notes != "" {
		a.printf("  Notes: %s\n", p.Notes)
	}
	return nil
}

func (a *App) appointmentsScreen(ctx context.Context) error {
	var as []appointment
	if err := a.fetch(ctx, "/appointments", &as); err != nil {
		return err
	}
	a.printf("Appointments (%d)\n", len(as))
	a.appointmentTable(as)
	return nil
}

func (a *App) instructionsScreen(ctx context.Context) error {
	var is []instruction
	if err := a.fetch(ctx, "/instructions", &is); err != nil {
		return err
	}
	a.printf("Care instructions (%d)\n", len(is))
	for _, in := range is {
		a.printf("  %s (appointment %s)\n    %s\n", in.ID, in.AppointmentID, in.Text)
	}
	return nil
}

func (a *App) remindersScreen(ctx context.Context) error {
	var rs []reminder
	if err := a.fetch(ctx, "/reminders", &rs); err != nil {
		return err
	}
	a.printf("Reminders (%d)\n", len(rs))
	a.reminderTable(rs)
	return nil
}

func (a *App) followupsScreen(ctx context.Context) error {
	var fs []followup
	if err := a.fetch(ctx, "/followups", &fs); err != nil {
		return err
	}
	a.printf("Follow-ups (%d)\n", len(fs))
	a.followupTable(fs)
	return nil
}

func (a *App) appointmentTable(as []appointment) {
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	for _, ap := range as {
		fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n", ap.Date, ap.PatientName, ap.Procedure, ap.Diagnosis)
	}
	_ = tw.Flush()
}

func (a *App) reminderTable(rs []reminder) {
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	for _, r := range rs {
		status := "pending"
		if r.Sent {
			status = "sent"
		}
		fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n", r.ScheduledFor, r.Type, status, r.Message)
	}
	_ = tw.Flush()
}

func (a *App) followupTable(fs []followup) {
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	for _, f := range fs {
		status := "open"
		if f.Completed {
			status = "done"
		}
		fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n", f.Date, f.PatientName, status, f.Reason)
	}
	_ = tw.Flush()
}
