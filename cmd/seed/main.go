package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/hackgods/clinic-frontdesk/internal/appointment"
	"github.com/hackgods/clinic-frontdesk/internal/config"
	"github.com/hackgods/clinic-frontdesk/internal/store"
	"github.com/hackgods/clinic-frontdesk/internal/workspace"
)

var notes = []string{
	"",
	"control",
	"primera vez",
	"trae examenes",
	"requiere acompanante",
}

var services = []string{
	workspace.DefaultService,
	"neurologia",
	"cardiologia",
	"medicina interna",
	"fisioterapia",
	"nutricion",
}

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	cmd := &cobra.Command{
		Use:          "seed",
		Short:        "Fill the record store with fake patients and appointments",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			patients, _ := cmd.Flags().GetInt("patients")
			perPatient, _ := cmd.Flags().GetInt("appointments")
			workers, _ := cmd.Flags().GetInt("workers")
			user, _ := cmd.Flags().GetString("user")
			password := os.Getenv("CLINIC_PASSWORD")
			return run(cmd.Context(), logger, user, password, patients, perPatient, workers)
		},
	}
	cmd.Flags().Int("patients", 50, "patients to create")
	cmd.Flags().Int("appointments", 3, "appointments per patient")
	cmd.Flags().Int("workers", 4, "concurrent store requests")
	cmd.Flags().String("user", os.Getenv("CLINIC_USER"), "store username")

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		logger.Fatal().Err(err).Msg("seed failed")
	}
}

func run(ctx context.Context, log zerolog.Logger, user, password string, patients, perPatient, workers int) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if user == "" || password == "" {
		return fmt.Errorf("--user (or $CLINIC_USER) and $CLINIC_PASSWORD are required")
	}

	h := &http.Client{Timeout: cfg.StoreTimeout}
	sess, err := store.Login(ctx, h, cfg.StoreBaseURL, user, password)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	client := store.NewClient(cfg.StoreBaseURL, sess, store.WithHTTPClient(h), store.WithLocation(cfg.Location))

	faker := gofakeit.New(uint64(time.Now().UnixNano()))
	now := time.Now().In(cfg.Location)

	log.Info().Int("patients", patients).Int("appointments_per_patient", perPatient).Msg("seed starting")

	var created, booked atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(workers, 1))

	for i := 0; i < patients; i++ {
		// the faker is not safe for concurrent use; draw everything up front
		p := fakePatient(faker, now)
		slots := make([]appointment.Appointment, perPatient)
		for j := range slots {
			slots[j] = fakeAppointment(faker, now)
		}

		g.Go(func() error {
			stored, err := client.CreatePatient(gctx, p)
			if err != nil {
				return fmt.Errorf("create patient %q: %w", p.Name, err)
			}
			created.Add(1)

			for _, a := range slots {
				a.PatientID = stored.ID
				if _, err := client.CreateAppointment(gctx, a); err != nil {
					return fmt.Errorf("create appointment for patient %d: %w", stored.ID, err)
				}
				booked.Add(1)
			}
			return nil
		})
	}

	err = g.Wait()
	log.Info().Int64("patients", created.Load()).Int64("appointments", booked.Load()).Msg("seed finished")
	return err
}

func fakePatient(f *gofakeit.Faker, now time.Time) appointment.Patient {
	age := f.Number(18, 90)
	birth := now.AddDate(-age, -f.Number(0, 11), -f.Number(0, 27))
	sex := "F"
	if f.Bool() {
		sex = "M"
	}

	return appointment.Patient{
		Name:         f.Name(),
		DocumentType: "CC",
		Document:     strconv.Itoa(f.Number(10_000_000, 1_999_999_999)),
		BirthDate:    birth,
		Sex:          sex,
		Phone:        f.Phone(),
		Email:        f.Email(),
		Risk: appointment.RiskFactors{
			// older patients carry more of the common risk factors
			Hypertension:       chance(f, 20+age/2),
			Diabetes:           chance(f, 15),
			Smoking:            chance(f, 20),
			Sedentary:          chance(f, 35),
			HighCholesterol:    chance(f, 10+age/3),
			FamilyStrokeRecord: chance(f, 10),
			PriorStroke:        chance(f, 5),
		},
	}
}

// fakeAppointment books within two weeks either side of today, on the
// quarter hour inside clinic hours.
func fakeAppointment(f *gofakeit.Faker, now time.Time) appointment.Appointment {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, f.Number(-14, 14))
	at := day.Add(time.Duration(f.Number(7, 17))*time.Hour + time.Duration(f.Number(0, 3)*15)*time.Minute)

	return appointment.Appointment{
		ScheduledAt: at,
		Service:     services[f.Number(0, len(services)-1)],
		Status:      appointment.StatusAwaited,
		Notes:       f.RandomString(notes),
	}
}

// chance is true pct percent of the time.
func chance(f *gofakeit.Faker, pct int) bool {
	return f.Number(1, 100) <= pct
}
