// Package main is the entry point for the MedTrack daemon and CLI
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/mrcode/medtrack/internal/app"
	"github.com/mrcode/medtrack/internal/autostart"
	"github.com/mrcode/medtrack/internal/config"
	"github.com/mrcode/medtrack/internal/logger"
	"github.com/mrcode/medtrack/internal/models"
	"github.com/mrcode/medtrack/internal/schedule"
)

const usage = `usage: medtrack <command> [args]

commands:
  run                          start the reminder daemon
  list [YYYY-MM-DD]            show doses for a date (default today)
  meds                         show all medications
  add -name N -times HH:MM[,HH:MM...] [-dosage D] [-unit U] [-custom-unit L] [-color C] [-notes S]
                               add a daily medication
  remove <medication-id>       delete a medication and its history
  take <medication-id> <YYYY-MM-DD> <HH:MM> [actual HH:MM]
  untake <medication-id> <YYYY-MM-DD> <HH:MM>
  snooze <medication-id> <HH:MM> <new HH:MM>
                               reschedule one of today's doses
  test-notify                  send a test notification
  autostart <on|off|status>    manage starting the daemon at login
`

func main() {
	// .env is optional; real environment wins
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "medtrack: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel)

	args := os.Args[1:]
	command := "run"
	if len(args) > 0 {
		command = args[0]
		args = args[1:]
	}

	switch command {
	case "help", "-h", "--help":
		fmt.Print(usage)
		return
	case "autostart":
		if err := runAutostart(args); err != nil {
			fmt.Fprintf(os.Stderr, "medtrack: %v\n", err)
			os.Exit(1)
		}
		return
	case "run", "list", "meds", "add", "remove", "take", "untake", "snooze", "test-notify":
	default:
		fmt.Fprintf(os.Stderr, "medtrack: unknown command %q\n\n%s", command, usage)
		os.Exit(2)
	}

	a, err := app.New(cfg, log)
	if err != nil {
		log.Fatalf("starting: %v", err)
	}

	if command == "run" {
		runDaemon(a, log)
		return
	}

	if cmdErr := runCommand(a, command, args); cmdErr != nil {
		fmt.Fprintf(os.Stderr, "medtrack: operation failed: %v\n", cmdErr)
		os.Exit(1)
	}
}

// runCommand dispatches a one-shot subcommand, closing the store on the
// way out regardless of outcome
func runCommand(a *app.App, command string, args []string) error {
	defer a.Shutdown()

	switch command {
	case "list":
		return runList(a, args)
	case "meds":
		return runMeds(a)
	case "add":
		return runAdd(a, args)
	case "remove":
		return runRemove(a, args)
	case "take":
		return runTake(a, args)
	case "untake":
		return runUntake(a, args)
	case "snooze":
		return runSnooze(a, args)
	case "test-notify":
		a.Startup()
		return a.SendTestNotification()
	}
	return nil
}

// runDaemon starts the notification engine and blocks until interrupted
func runDaemon(a *app.App, log *logrus.Logger) {
	a.Startup()
	log.Info("medtrack daemon started")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	log.Info("shutting down")
	a.Shutdown()
}

// runList prints the resolved doses for one date
func runList(a *app.App, args []string) error {
	date := time.Now()
	if len(args) > 0 {
		parsed, err := time.ParseInLocation(models.DateLayout, args[0], time.Local)
		if err != nil {
			return fmt.Errorf("invalid date %q, want YYYY-MM-DD", args[0])
		}
		date = parsed
	}

	items := a.ForDate(date)
	if len(items) == 0 {
		fmt.Printf("no doses on %s\n", date.Format(models.DateLayout))
		return nil
	}
	for _, item := range items {
		fmt.Println(formatItem(item))
	}
	return nil
}

// formatItem renders one dose occurrence as a list line
func formatItem(item schedule.Item) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %-20s %s %s",
		item.Intake.Time, item.Medication.Name,
		item.Intake.DisplayDosage(), item.Intake.DisplayUnit())
	if item.IsRescheduled {
		fmt.Fprintf(&b, "  (moved from %s)", item.ScheduledTime)
	}
	if item.IsTaken {
		b.WriteString("  [taken]")
	}
	return b.String()
}

// runMeds prints all medications with their ids
func runMeds(a *app.App) error {
	meds := a.Medications()
	if len(meds) == 0 {
		fmt.Println("no medications")
		return nil
	}
	for _, med := range meds {
		fmt.Printf("%s  %-20s %s\n", med.ID, med.Name, med.FrequencyType)
	}
	return nil
}

// runAdd adds a daily medication from flags. Cyclical and weekly rules are
// edited through the UI layer, not this shell.
func runAdd(a *app.App, args []string) error {
	fs := flag.NewFlagSet("add", flag.ContinueOnError)
	name := fs.String("name", "", "medication name")
	times := fs.String("times", "", "comma-separated HH:MM intake times")
	dosage := fs.String("dosage", "1", "dosage magnitude")
	unit := fs.String("unit", "pill", "dosage unit")
	customUnit := fs.String("custom-unit", "", "label when unit is custom")
	color := fs.String("color", "#4ade80", "display color")
	notes := fs.String("notes", "", "free-text notes")
	if err := fs.Parse(args); err != nil {
		return err
	}

	amount, err := strconv.ParseFloat(*dosage, 64)
	if err != nil {
		return fmt.Errorf("invalid dosage %q", *dosage)
	}

	var intakes []models.Intake
	for _, t := range strings.Split(*times, ",") {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		intakes = append(intakes, models.Intake{
			Time:       t,
			Dosage:     amount,
			Unit:       models.DosageUnit(*unit),
			CustomUnit: *customUnit,
		})
	}

	med, err := a.AddMedication(models.Medication{
		Name:          *name,
		Color:         *color,
		FrequencyType: models.FrequencyDaily,
		DailyIntakes:  intakes,
		Notes:         *notes,
	})
	if err != nil {
		return err
	}
	fmt.Printf("added %s (%s)\n", med.Name, med.ID)
	return nil
}

// runRemove deletes a medication and all of its history
func runRemove(a *app.App, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: medtrack remove <medication-id>")
	}
	return a.DeleteMedication(args[0])
}

// runTake marks one occurrence taken
func runTake(a *app.App, args []string) error {
	if len(args) < 3 || len(args) > 4 {
		return fmt.Errorf("usage: medtrack take <medication-id> <YYYY-MM-DD> <HH:MM> [actual HH:MM]")
	}
	actual := ""
	if len(args) == 4 {
		actual = args[3]
	}
	return a.MarkAsTaken(args[0], args[1], args[2], actual)
}

// runUntake reverts a mark-as-taken
func runUntake(a *app.App, args []string) error {
	if len(args) != 3 {
		return fmt.Errorf("usage: medtrack untake <medication-id> <YYYY-MM-DD> <HH:MM>")
	}
	return a.UnmarkAsTaken(args[0], args[1], args[2])
}

// runSnooze moves one of today's doses to a new time for today only
func runSnooze(a *app.App, args []string) error {
	if len(args) != 3 {
		return fmt.Errorf("usage: medtrack snooze <medication-id> <HH:MM> <new HH:MM>")
	}
	today := time.Now().Format(models.DateLayout)
	return a.AddReschedule(args[0], today, args[1], args[2])
}

// runAutostart manages the login item
func runAutostart(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: medtrack autostart <on|off|status>")
	}
	switch args[0] {
	case "on":
		return autostart.Enable()
	case "off":
		return autostart.Disable()
	case "status":
		enabled, err := autostart.IsEnabled()
		if err != nil {
			return err
		}
		if enabled {
			fmt.Println("autostart is on")
		} else {
			fmt.Println("autostart is off")
		}
		return nil
	default:
		return fmt.Errorf("usage: medtrack autostart <on|off|status>")
	}
}
