package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"

	"peoplecatalog/internal/api/dto/v1/person"
	"peoplecatalog/internal/catalog"
)

// pageSizeChoices is the selectable page-size whitelist. It is
// enforced here at the presentation layer, not by the types.
var pageSizeChoices = map[int]bool{5: true, 10: true, 20: true, 50: true, 100: true}

var (
	listPage     int
	listPageSize int
	listSearch   string
	listActive   string

	formFirstName string
	formLastName  string
	formEmail     string
	formPhone     string
	formBirthDate string
	formDocument  string
	formActive    bool

	deleteYes bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List person records",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		api := newPersonsClient(cfg)

		if !pageSizeChoices[listPageSize] {
			fmt.Println("page size must be one of 5, 10, 20, 50, 100")
			os.Exit(1)
		}
		isActive, err := parseActiveFilter(listActive)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		query := person.ListQuery{
			Page:     listPage,
			PageSize: listPageSize,
			Search:   listSearch,
			IsActive: isActive,
		}

		s := newSpinner("Fetching persons...")
		s.Start()
		page, err := api.List(context.Background(), query)
		s.Stop()
		if err != nil {
			fail("List", err)
		}

		printPage(page)
	},
}

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a person record",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		api := newPersonsClient(cfg)

		values := catalog.Values{
			FirstName:      formFirstName,
			LastName:       formLastName,
			Email:          formEmail,
			Phone:          formPhone,
			BirthDate:      formBirthDate,
			DocumentNumber: formDocument,
		}
		normalized, fieldErrors := values.Validate()
		if len(fieldErrors) > 0 {
			printFieldErrors(fieldErrors)
			os.Exit(1)
		}

		s := newSpinner("Creating person...")
		s.Start()
		created, err := api.Create(context.Background(), normalized.CreatePayload())
		s.Stop()
		if err != nil {
			fail("Create", err)
		}

		fmt.Printf("Created %s %s (%s)\n", created.FirstName, created.LastName, created.PersonID)
	},
}

var updateCmd = &cobra.Command{
	Use:   "update <personId>",
	Short: "Update a person record",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		api := newPersonsClient(cfg)

		values := catalog.Values{
			FirstName:      formFirstName,
			LastName:       formLastName,
			Email:          formEmail,
			Phone:          formPhone,
			BirthDate:      formBirthDate,
			DocumentNumber: formDocument,
			IsActive:       formActive,
		}
		normalized, fieldErrors := values.Validate()
		if len(fieldErrors) > 0 {
			printFieldErrors(fieldErrors)
			os.Exit(1)
		}

		s := newSpinner("Updating person...")
		s.Start()
		err := api.Update(context.Background(), args[0], normalized.UpdatePayload())
		s.Stop()
		if err != nil {
			fail("Update", err)
		}

		fmt.Println("Person updated")
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <personId>",
	Short: "Soft-delete a person record",
	Long:  `Soft-delete marks the record inactive on the server; nothing is removed.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		api := newPersonsClient(cfg)

		if !deleteYes && !confirm(fmt.Sprintf("Delete person %s? This marks the record inactive.", args[0])) {
			fmt.Println("Cancelled")
			return
		}

		s := newSpinner("Deleting person...")
		s.Start()
		err := api.Delete(context.Background(), args[0])
		s.Stop()
		if err != nil {
			fail("Delete", err)
		}

		fmt.Println("Person deleted")
	},
}

func init() {
	listCmd.Flags().IntVar(&listPage, "page", 1, "Page number (1-based)")
	listCmd.Flags().IntVar(&listPageSize, "page-size", 10, "Page size (5, 10, 20, 50 or 100)")
	listCmd.Flags().StringVar(&listSearch, "search", "", "Search text (name, email, document)")
	listCmd.Flags().StringVar(&listActive, "active", "all", "Filter by status: active, inactive or all")

	for _, cmd := range []*cobra.Command{createCmd, updateCmd} {
		cmd.Flags().StringVar(&formFirstName, "first-name", "", "First name")
		cmd.Flags().StringVar(&formLastName, "last-name", "", "Last name")
		cmd.Flags().StringVar(&formEmail, "email", "", "Email address")
		cmd.Flags().StringVar(&formPhone, "phone", "", "Phone number (optional)")
		cmd.Flags().StringVar(&formBirthDate, "birth-date", "", "Birth date, YYYY-MM-DD (optional)")
		cmd.Flags().StringVar(&formDocument, "document", "", "Document number")
	}
	updateCmd.Flags().BoolVar(&formActive, "active", true, "Whether the record stays active")

	deleteCmd.Flags().BoolVar(&deleteYes, "yes", false, "Skip the confirmation prompt")
}

func newSpinner(suffix string) *spinner.Spinner {
	s := spinner.New(spinner.CharSets[14], 120*time.Millisecond)
	s.Suffix = " " + suffix
	return s
}

// parseActiveFilter maps the tri-state flag onto the query parameter:
// "all" is expressed by omission.
func parseActiveFilter(value string) (*bool, error) {
	switch value {
	case "active":
		active := true
		return &active, nil
	case "inactive":
		active := false
		return &active, nil
	case "all":
		return nil, nil
	}
	return nil, fmt.Errorf("invalid --active value %q: want active, inactive or all", value)
}

func printFieldErrors(fieldErrors map[string]string) {
	fields := make([]string, 0, len(fieldErrors))
	for field := range fieldErrors {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	fmt.Println("Invalid input:")
	for _, field := range fields {
		fmt.Printf("  %s: %s\n", field, fieldErrors[field])
	}
}

func printPage(page *person.PagedResponse) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "#\tNAME\tEMAIL\tPHONE\tDOCUMENT\tSTATUS")
	for i, p := range page.Items {
		phone := "-"
		if p.Phone != nil && *p.Phone != "" {
			phone = *p.Phone
		}
		status := "ACTIVE"
		if !p.IsActive {
			status = "INACTIVE"
		}
		fmt.Fprintf(w, "%d\t%s %s\t%s\t%s\t%s\t%s\n",
			i+1, p.FirstName, p.LastName, p.Email, phone, p.DocumentNumber, status)
	}
	w.Flush()
	fmt.Printf("Page %d/%d | %d total\n", page.Page, page.TotalPages, page.TotalItems)
}

func confirm(prompt string) bool {
	fmt.Printf("%s [y/N]: ", prompt)
	var answer string
	fmt.Scanln(&answer)
	return answer == "y" || answer == "Y" || answer == "yes"
}
