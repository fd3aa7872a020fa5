package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/veldhuizen/magister-cli/filter"
	"github.com/veldhuizen/magister-cli/magister"
)

var (
	fromDate    string
	toDate      string
	filterExpr  string
	preset      string
	fillPersons bool
	noAbsences  bool

	createDescription string
	createStart       string
	createEnd         string
	createFullDay     bool
	createLocation    string
	createContent     string
)

// appointmentsCmd represents the appointments command
var appointmentsCmd = &cobra.Command{
	Use:   "appointments",
	Short: "List appointments in a date range",
	Long: `List the appointments on your schedule, with their linked absence
records, optionally narrowed down by a filter expression.`,
	RunE: runAppointments,
}

func init() {
	rootCmd.AddCommand(appointmentsCmd)

	appointmentsCmd.Flags().StringVar(&fromDate, "from", "", "start of the date range (YYYY-MM-DD, default today)")
	appointmentsCmd.Flags().StringVar(&toDate, "to", "", "end of the date range (YYYY-MM-DD, default same as --from)")
	appointmentsCmd.Flags().StringVarP(&filterExpr, "filter", "f", "", "filter expression")
	appointmentsCmd.Flags().StringVarP(&preset, "preset", "p", "", "use a preset filter from config")
	appointmentsCmd.Flags().BoolVar(&fillPersons, "fill-persons", false, "resolve teacher references to full person records")
	appointmentsCmd.Flags().BoolVar(&noAbsences, "no-absences", false, "skip fetching absence records")
}

func runAppointments(cmd *cobra.Command, args []string) error {
	from := time.Now()
	if fromDate != "" {
		parsed, err := time.Parse("2006-01-02", fromDate)
		if err != nil {
			return fmt.Errorf("invalid --from date: %w", err)
		}
		from = parsed
	}
	to := from
	if toDate != "" {
		parsed, err := time.Parse("2006-01-02", toDate)
		if err != nil {
			return fmt.Errorf("invalid --to date: %w", err)
		}
		to = parsed
	}

	ctx := context.Background()
	appointments, err := client.Appointments(ctx, from, to, magister.AppointmentOptions{
		SkipAbsences: noAbsences,
		FillPersons:  fillPersons,
	})
	if err != nil {
		return err
	}

	if expr := appointmentFilterExpression(); expr != "" {
		compiled, err := filter.NewExprCompiler().Compile(expr)
		if err != nil {
			return fmt.Errorf("invalid filter expression: %w", err)
		}
		appointments = filter.Apply(compiled, appointments)
	}

	if len(appointments) == 0 {
		fmt.Println("No appointments found.")
		return nil
	}

	fmt.Printf("\nFound %d appointments:\n", len(appointments))
	fmt.Println(strings.Repeat("-", 80))

	for _, appointment := range appointments {
		fmt.Printf("• %s", appointment.Description)
		if appointment.FullDay {
			fmt.Printf(" [%s, full day]", appointment.Start.Format("2006-01-02"))
		} else {
			fmt.Printf(" [%s – %s]",
				appointment.Start.Format("2006-01-02 15:04"),
				appointment.End.Format("15:04"))
		}
		if appointment.Absence != nil {
			fmt.Printf(" [ABSENT]")
		}
		fmt.Println()
		if appointment.Location != "" {
			fmt.Printf("  Location: %s\n", appointment.Location)
		}
		if len(appointment.Teachers) > 0 {
			var names []string
			for _, teacher := range appointment.Teachers {
				names = append(names, teacher.FullName)
			}
			fmt.Printf("  Teachers: %s\n", strings.Join(names, ", "))
		}
	}

	return nil
}

// appointmentFilterExpression determines the filter expression to use.
// Priority: command line filter > preset > configured default > none.
func appointmentFilterExpression() string {
	if filterExpr != "" {
		return filterExpr
	}
	if preset != "" {
		if expr, ok := cfg.Filter.Presets[preset]; ok {
			return expr
		}
	}
	return cfg.Filter.DefaultExpression
}

// createCmd represents the create command
var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a personal calendar appointment",
	RunE:  runCreate,
}

func init() {
	rootCmd.AddCommand(createCmd)

	createCmd.Flags().StringVar(&createDescription, "description", "", "appointment description (required)")
	createCmd.Flags().StringVar(&createStart, "start", "", "start time (RFC 3339, required)")
	createCmd.Flags().StringVar(&createEnd, "end", "", "end time (RFC 3339, required)")
	createCmd.Flags().BoolVar(&createFullDay, "full-day", false, "create a full-day appointment")
	createCmd.Flags().StringVar(&createLocation, "location", "", "appointment location")
	createCmd.Flags().StringVar(&createContent, "content", "", "free-text appointment content")
}

func runCreate(cmd *cobra.Command, args []string) error {
	opts := magister.CreateAppointmentOptions{
		Description: createDescription,
		FullDay:     createFullDay,
		Location:    createLocation,
		Content:     createContent,
	}
	if createStart != "" {
		parsed, err := time.Parse(time.RFC3339, createStart)
		if err != nil {
			return fmt.Errorf("invalid --start time: %w", err)
		}
		opts.Start = parsed
	}
	if createEnd != "" {
		parsed, err := time.Parse(time.RFC3339, createEnd)
		if err != nil {
			return fmt.Errorf("invalid --end time: %w", err)
		}
		opts.End = parsed
	}

	appointment, err := client.CreateAppointment(context.Background(), opts)
	if err != nil {
		return err
	}

	fmt.Printf("✓ Created appointment '%s'\n", appointment.Description)
	if appointment.URL != "" {
		fmt.Printf("  %s\n", appointment.URL)
	}
	return nil
}
