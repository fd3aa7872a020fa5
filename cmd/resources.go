package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/veldhuizen/magister-cli/magister"
)

var personType string

// coursesCmd represents the courses command
var coursesCmd = &cobra.Command{
	Use:   "courses",
	Short: "List your course enrollments",
	RunE:  runCourses,
}

// messagesCmd represents the messages command
var messagesCmd = &cobra.Command{
	Use:   "messages",
	Short: "List your message folders",
	RunE:  runMessages,
}

// personsCmd represents the persons command
var personsCmd = &cobra.Command{
	Use:   "persons <query>",
	Short: "Search contact persons",
	Long: `Search the portal's contact persons. Without --type both teachers and
pupils are searched, with teacher results listed first.`,
	Args: cobra.ExactArgs(1),
	RunE: runPersons,
}

// schoolsCmd represents the schools command. It talks to the public school
// lookup and needs no login, so it bypasses the usual client initialization.
var schoolsCmd = &cobra.Command{
	Use:               "schools <query>",
	Short:             "Search schools by name",
	Args:              cobra.ExactArgs(1),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE:              runSchools,
}

func init() {
	personsCmd.Flags().StringVar(&personType, "type", "", "person type: teacher, pupil or project (default both teacher and pupil)")

	rootCmd.AddCommand(coursesCmd)
	rootCmd.AddCommand(messagesCmd)
	rootCmd.AddCommand(personsCmd)
	rootCmd.AddCommand(schoolsCmd)
}

func runCourses(cmd *cobra.Command, args []string) error {
	courses, err := client.Courses(context.Background())
	if err != nil {
		return err
	}

	if len(courses) == 0 {
		fmt.Println("No courses found.")
		return nil
	}

	for _, course := range courses {
		fmt.Printf("• %s", course.Study)
		if course.Group != "" {
			fmt.Printf(" (%s)", course.Group)
		}
		fmt.Printf("  %s – %s\n", course.Start.Format("2006-01-02"), course.End.Format("2006-01-02"))
	}
	return nil
}

func runMessages(cmd *cobra.Command, args []string) error {
	folders, err := client.MessageFolders(context.Background())
	if err != nil {
		return err
	}

	for _, folder := range folders {
		fmt.Printf("• %s", folder.Name)
		if folder.Unread > 0 {
			fmt.Printf(" (%d unread)", folder.Unread)
		}
		fmt.Println()
	}
	return nil
}

func runPersons(cmd *cobra.Command, args []string) error {
	persons, err := client.Persons(context.Background(), args[0], magister.PersonType(personType))
	if err != nil {
		return err
	}

	if len(persons) == 0 {
		fmt.Println("No persons found.")
		return nil
	}

	for _, person := range persons {
		fmt.Printf("• %-30s %s", person.FullName, person.Type)
		if person.Code != "" {
			fmt.Printf(" (%s)", person.Code)
		}
		fmt.Println()
	}
	return nil
}

func runSchools(cmd *cobra.Command, args []string) error {
	schools, err := magister.SearchSchools(context.Background(), args[0])
	if err != nil {
		return err
	}

	if len(schools) == 0 {
		fmt.Println("No schools found.")
		return nil
	}

	fmt.Printf("Found %d schools:\n", len(schools))
	fmt.Println(strings.Repeat("-", 60))
	for _, school := range schools {
		fmt.Printf("• %-40s %s\n", school.Name, school.URL)
	}
	return nil
}
