package main

import (
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hackgods/clinic-frontdesk/internal/appointment"
	"github.com/hackgods/clinic-frontdesk/internal/display"
	"github.com/hackgods/clinic-frontdesk/internal/store"
	"github.com/hackgods/clinic-frontdesk/internal/workspace"
)

func loginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Exchange credentials for a session token and print it",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newBaseEnv(cmd)
			if err != nil {
				return err
			}

			user, _ := cmd.Flags().GetString("user")
			password, _ := cmd.Flags().GetString("password")
			if password == "" {
				password = os.Getenv("CLINIC_PASSWORD")
			}
			if user == "" || password == "" {
				return fmt.Errorf("--user and --password (or $CLINIC_PASSWORD) are required")
			}

			sess, err := store.Login(cmd.Context(), e.http, e.cfg.StoreBaseURL, user, password)
			if err != nil {
				return err
			}
			token, err := sess.Token()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().String("user", "", "store username")
	cmd.Flags().String("password", "", "store password")
	return cmd
}

func todayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "today",
		Short: "List today's appointments",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			v, err := e.ws.Open(cmd.Context(), appointment.ViewToday)
			if err != nil {
				return err
			}
			page, _ := cmd.Flags().GetInt("page")
			printPage(cmd.OutOrStdout(), e.format, v.SetPage(page))
			return nil
		},
	}
	cmd.Flags().Int("page", 1, "page number")
	return cmd
}

func listCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List every appointment by scheduled time",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			v, err := e.ws.Open(cmd.Context(), appointment.ViewAll)
			if err != nil {
				return err
			}
			if desc, _ := cmd.Flags().GetBool("desc"); desc {
				v.ToggleSort()
			}
			page, _ := cmd.Flags().GetInt("page")
			printPage(cmd.OutOrStdout(), e.format, v.SetPage(page))
			return nil
		},
	}
	cmd.Flags().Int("page", 1, "page number")
	cmd.Flags().Bool("desc", false, "newest first")
	return cmd
}

func dashboardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show the front desk counters and upcoming appointments",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			d, err := e.ws.OpenDashboard(cmd.Context())
			if err != nil {
				return err
			}

			k := d.KPIs()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "patients: %s  today: %s  pending: %s\n\n",
				e.format.Count(k.TotalPatients), e.format.Count(k.AppointmentsToday), e.format.Count(k.Pending))

			b := d.Breakdown()
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "STATUS\tCOUNT")
			for _, bucket := range b.Status {
				fmt.Fprintf(tw, "%s\t%s\n", e.format.Status(appointment.Status(bucket.Key)), e.format.Count(bucket.Count))
			}
			printBuckets(tw, "SERVICE", b.Service, e.format)
			printBuckets(tw, "STAFF", b.Staff, e.format)
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintln(out)

			page, _ := cmd.Flags().GetInt("page")
			printPage(out, e.format, d.Upcoming.SetPage(page))
			return nil
		},
	}
	cmd.Flags().Int("page", 1, "page number")
	return cmd
}

func arriveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "arrive ID",
		Short: "Register a patient's arrival for one of today's appointments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if yes, _ := cmd.Flags().GetBool("yes"); !yes {
				return fmt.Errorf("arrival for appointment %d not confirmed, pass --yes", id)
			}

			e, err := newEnv(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			v, err := e.ws.Open(cmd.Context(), appointment.ViewToday)
			if err != nil {
				return err
			}
			updated, err := e.ws.RegisterArrival(cmd.Context(), id)
			if err != nil {
				return err
			}
			if updated == nil {
				return fmt.Errorf("appointment %d is not in today's list", id)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%d %s: %s\n\n", updated.ID, updated.PatientName, e.format.Status(updated.Status))
			printPage(out, e.format, v.Projection())
			return nil
		},
	}
	cmd.Flags().Bool("yes", false, "confirm the arrival")
	return cmd
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status ID STATUS",
		Short: "Move an appointment to another lifecycle status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			to, err := appointment.ParseStatus(args[1])
			if err != nil {
				return err
			}

			e, err := newEnv(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			updated, err := mutateResident(cmd, e, id, func() (*appointment.Appointment, error) {
				return e.ws.TransitionStatus(cmd.Context(), id, to)
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d: %s\n", updated.ID, e.format.Status(updated.Status))
			return nil
		},
	}
}

func editCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit ID",
		Short: "Change the time, service, staff or notes of an appointment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			e, err := newEnv(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			var p appointment.Patch
			flags := cmd.Flags()
			if flags.Changed("at") {
				raw, _ := flags.GetString("at")
				at, err := workspace.ParseScheduledAt(raw, e.cfg.Location)
				if err != nil {
					return err
				}
				p.ScheduledAt = &at
			}
			if flags.Changed("service") {
				s, _ := flags.GetString("service")
				p.Service = &s
			}
			if flags.Changed("staff") {
				s, _ := flags.GetString("staff")
				p.AssignedStaff = &s
			}
			if flags.Changed("notes") {
				s, _ := flags.GetString("notes")
				p.Notes = &s
			}
			if p.Empty() {
				return fmt.Errorf("nothing to change")
			}

			updated, err := mutateResident(cmd, e, id, func() (*appointment.Appointment, error) {
				return e.ws.EditAppointment(cmd.Context(), id, p)
			})
			if err != nil {
				return err
			}
			printPage(cmd.OutOrStdout(), e.format, appointment.Page{
				Rows:       []appointment.Appointment{*updated},
				Page:       1,
				PageSize:   1,
				PageCount:  1,
				TotalCount: 1,
			})
			return nil
		},
	}
	cmd.Flags().String("at", "", "new date and time, YYYY-MM-DD HH:MM")
	cmd.Flags().String("service", "", "new service")
	cmd.Flags().String("staff", "", "new assigned staff")
	cmd.Flags().String("notes", "", "new notes")
	return cmd
}

func deleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete an appointment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			e, err := newEnv(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			yes, _ := cmd.Flags().GetBool("yes")
			if !yes {
				if err := e.ws.DeleteAppointment(cmd.Context(), id, false); err != nil {
					return fmt.Errorf("%w, pass --yes", err)
				}
			}

			v, err := e.ws.Open(cmd.Context(), appointment.ViewAll)
			if err != nil {
				return err
			}
			if _, ok := v.Lookup(id); !ok {
				return fmt.Errorf("appointment %d not found", id)
			}
			if err := e.ws.DeleteAppointment(cmd.Context(), id, true); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "appointment %d deleted\n", id)
			return nil
		},
	}
	cmd.Flags().Bool("yes", false, "confirm the deletion")
	return cmd
}

func createCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Book a new appointment",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			flags := cmd.Flags()
			var d appointment.Draft
			d.PatientID, _ = flags.GetString("patient")
			d.ScheduledAt, _ = flags.GetString("at")
			d.Service, _ = flags.GetString("service")
			d.AssignedStaff, _ = flags.GetString("staff")
			d.Notes, _ = flags.GetString("notes")

			created, err := e.ws.CreateAppointment(cmd.Context(), d)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "appointment %d booked for %s\n", created.ID, e.format.DateTime(created.ScheduledAt))
			return nil
		},
	}
	cmd.Flags().String("patient", "", "patient id")
	cmd.Flags().String("at", "", "date and time, YYYY-MM-DD HH:MM")
	cmd.Flags().String("service", "", "service (defaults to "+workspace.DefaultService+")")
	cmd.Flags().String("staff", "", "assigned staff")
	cmd.Flags().String("notes", "", "notes")
	return cmd
}

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show population statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			s, err := e.client.Statistics(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			f := e.format
			fmt.Fprintf(out, "patients: %s  events: %s  rate: %s\n",
				f.Count(s.TotalPatients), f.Count(s.TotalEvents), f.Percent(s.EventRate))

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "\nRISK FACTOR\tPREVALENCE")
			for _, name := range slices.Sorted(maps.Keys(s.RiskFactorPrevalence)) {
				fmt.Fprintf(tw, "%s\t%s\n", name, f.Percent(s.RiskFactorPrevalence[name]))
			}
			fmt.Fprintln(tw, "\nMONTH\tEVENTS")
			for _, m := range s.MonthlyIncidence {
				fmt.Fprintf(tw, "%s\t%s\n", m.Month, f.Count(m.Events))
			}
			printBuckets(tw, "SEX", s.SexDistribution, f)
			printBuckets(tw, "AGE", s.AgeDistribution, f)
			return tw.Flush()
		},
	}
}

func predictCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "predict PATIENT_ID",
		Short: "Show the risk score for one patient",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			e, err := newEnv(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			patient, err := e.client.GetPatient(cmd.Context(), id)
			if err != nil {
				return err
			}
			p, err := e.client.Predict(cmd.Context(), id)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "patient %d (%s): %s\n\n", p.PatientID, patient.Name, e.format.Percent(p.Probability))

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "FACTOR\tWEIGHT")
			for _, factor := range display.RankFactors(p.Factors) {
				fmt.Fprintf(tw, "%s\t%.3f\n", factor.Name, factor.Weight)
			}
			return tw.Flush()
		},
	}
}

// mutateResident loads the full list so id is resident before fn runs.
func mutateResident(cmd *cobra.Command, e *env, id int64, fn func() (*appointment.Appointment, error)) (*appointment.Appointment, error) {
	if _, err := e.ws.Open(cmd.Context(), appointment.ViewAll); err != nil {
		return nil, err
	}
	updated, err := fn()
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, fmt.Errorf("appointment %d not found", id)
	}
	return updated, nil
}

func printPage(w io.Writer, f *display.Formatter, p appointment.Page) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tPATIENT\tSCHEDULED\tSERVICE\tSTAFF\tSTATUS")
	for _, a := range p.Rows {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			a.ID, a.PatientName, f.DateTime(a.ScheduledAt), a.Service, f.Staff(a.AssignedStaff), f.Status(a.Status))
	}
	_ = tw.Flush()
	fmt.Fprintf(w, "\n%s (%d/%d)\n", f.Range(p), p.Page, max(p.PageCount, 1))
}

func printBuckets(w io.Writer, title string, buckets []appointment.Bucket, f *display.Formatter) {
	fmt.Fprintf(w, "\n%s\tCOUNT\n", title)
	for _, b := range buckets {
		fmt.Fprintf(w, "%s\t%s\n", b.Key, f.Count(b.Count))
	}
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}
