package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"peoplecatalog/internal/api/dto/v1/person"
	"peoplecatalog/internal/catalog"
)

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse the catalog interactively",
	Long: `Browse starts an interactive session over the persons list. Type 'help'
for the available commands. Search input is debounced before it hits
the server, and results always reflect the most recent query.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		api := newPersonsClient(cfg)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		store := catalog.NewStore(ctx, api)
		session := &browseSession{
			store:   store,
			scanner: bufio.NewScanner(os.Stdin),
		}
		session.run(ctx)
	},
}

// browseSession renders store state and translates typed commands into
// store intents. It is the subscriber side of the synchronization
// layer: every published change repaints, no polling.
type browseSession struct {
	store   *catalog.Store
	scanner *bufio.Scanner
}

func (b *browseSession) run(ctx context.Context) {
	unsubscribe := b.store.Subscribe(b.render)
	defer unsubscribe()
	defer b.store.Stop()

	fmt.Println("People Catalog (type 'help' for commands)")
	b.store.Start()

	for {
		fmt.Printf("people %s> ", b.statusLine())
		if !b.scanner.Scan() {
			return
		}
		line := strings.TrimSpace(b.scanner.Text())
		if line == "" {
			continue
		}

		parts := strings.Fields(line)
		command := parts[0]
		args := parts[1:]

		switch command {
		case "help":
			b.printHelp()
		case "quit", "exit":
			return
		case "search":
			b.store.SetSearch(strings.Join(args, " "))
		case "filter":
			b.handleFilter(args)
		case "page":
			b.handlePage(args)
		case "next":
			b.moveBy(1)
		case "prev":
			b.moveBy(-1)
		case "size":
			b.handleSize(args)
		case "refresh":
			b.store.Refresh()
		case "new":
			b.handleCreate(ctx)
		case "edit":
			b.handleEdit(ctx, args)
		case "delete":
			b.handleDelete(ctx, args)
		default:
			fmt.Printf("Unknown command %q, type 'help'\n", command)
		}
	}
}

func (b *browseSession) statusLine() string {
	state := b.store.State()
	status := fmt.Sprintf("(p%d", state.Page)
	if state.Search != "" {
		status += fmt.Sprintf(" %q", state.Search)
	}
	switch {
	case state.IsActive == nil:
		status += " all"
	case *state.IsActive:
		status += " active"
	default:
		status += " inactive"
	}
	if state.Busy() {
		status += " ..."
	}
	return status + ")"
}

// render repaints on published state changes. Fetch starts are skipped:
// the previous rows stay on screen until the new result commits, so
// typing never causes a flash of emptiness.
func (b *browseSession) render(state catalog.State) {
	if state.Notice != "" {
		fmt.Printf("\n%s\n", state.Notice)
	}
	if state.MutationError != nil {
		fmt.Printf("\nOperation failed: %s\n", state.MutationError.Message)
	}
	if state.ListError != nil {
		fmt.Printf("\nFailed to load persons: %s\n", state.ListError.Message)
		return
	}
	if state.Fetching || state.Data == nil {
		return
	}
	fmt.Println()
	printPage(state.Data)
}

func (b *browseSession) handleFilter(args []string) {
	if len(args) != 1 {
		fmt.Println("Usage: filter active|inactive|all")
		return
	}
	isActive, err := parseActiveFilter(args[0])
	if err != nil {
		fmt.Println(err)
		return
	}
	b.store.SetActive(isActive)
}

func (b *browseSession) handlePage(args []string) {
	if len(args) != 1 {
		fmt.Println("Usage: page <number>")
		return
	}
	page, err := strconv.Atoi(args[0])
	if err != nil || page < 1 {
		fmt.Println("Page must be a positive number")
		return
	}
	b.store.SetPage(page)
}

func (b *browseSession) moveBy(delta int) {
	state := b.store.State()
	b.store.SetPage(state.Page + delta)
}

func (b *browseSession) handleSize(args []string) {
	if len(args) != 1 {
		fmt.Println("Usage: size 5|10|20|50|100")
		return
	}
	size, err := strconv.Atoi(args[0])
	if err != nil || !pageSizeChoices[size] {
		fmt.Println("Page size must be one of 5, 10, 20, 50, 100")
		return
	}
	b.store.SetPageSize(size)
}

// rowAt resolves a 1-based row number against the current page.
func (b *browseSession) rowAt(args []string) (person.Person, bool) {
	state := b.store.State()
	if state.Data == nil || len(state.Data.Items) == 0 {
		fmt.Println("No rows on the current page")
		return person.Person{}, false
	}
	if len(args) != 1 {
		fmt.Println("Give a row number from the current page")
		return person.Person{}, false
	}
	row, err := strconv.Atoi(args[0])
	if err != nil || row < 1 || row > len(state.Data.Items) {
		fmt.Printf("Row must be between 1 and %d\n", len(state.Data.Items))
		return person.Person{}, false
	}
	return state.Data.Items[row-1], true
}

func (b *browseSession) handleCreate(ctx context.Context) {
	if b.store.State().Busy() {
		fmt.Println("Busy, try again in a moment")
		return
	}
	b.store.OpenCreateForm()
	values, ok := b.collectValues(catalog.Values{IsActive: true}, false)
	if !ok {
		b.store.CloseForm()
		return
	}
	b.submit(ctx, values, false)
}

func (b *browseSession) handleEdit(ctx context.Context, args []string) {
	if b.store.State().Busy() {
		fmt.Println("Busy, try again in a moment")
		return
	}
	p, ok := b.rowAt(args)
	if !ok {
		return
	}
	if !p.IsActive {
		fmt.Println("Inactive records are view-only")
		return
	}
	b.store.OpenEditForm(p)
	values, ok := b.collectValues(catalog.ValuesFromPerson(p), true)
	if !ok {
		b.store.CloseForm()
		return
	}
	b.submit(ctx, values, true)
}

func (b *browseSession) handleDelete(ctx context.Context, args []string) {
	if b.store.State().Busy() {
		fmt.Println("Busy, try again in a moment")
		return
	}
	p, ok := b.rowAt(args)
	if !ok {
		return
	}
	if !p.IsActive {
		fmt.Println("Inactive records are view-only")
		return
	}
	if !b.confirm(fmt.Sprintf("Delete %s %s? This marks the person inactive (soft delete).", p.FirstName, p.LastName)) {
		fmt.Println("Cancelled")
		return
	}
	if err := b.store.DeletePerson(ctx, p.PersonID); err != nil {
		// Already surfaced through the subscription as a classified
		// message; nothing else to do here.
		return
	}
}

// submit validates and sends the form, re-prompting on field errors so
// the entered input is never lost.
func (b *browseSession) submit(ctx context.Context, values catalog.Values, withActive bool) {
	for {
		err := b.store.SubmitForm(ctx, values)
		if err == nil {
			return
		}
		if validationErr, ok := err.(*catalog.ValidationError); ok {
			printFieldErrors(validationErr.Fields)
			corrected, ok := b.collectValues(values, withActive)
			if !ok {
				b.store.CloseForm()
				return
			}
			values = corrected
			continue
		}
		// Mutation failure: the form stays open with its input; the
		// classified message was published to the renderer.
		return
	}
}

// collectValues prompts field by field, offering the current value as
// the default. Entering "-" on the first prompt cancels.
func (b *browseSession) collectValues(current catalog.Values, withActive bool) (catalog.Values, bool) {
	fmt.Println("Enter values (blank keeps the shown value, '-' cancels):")

	first, ok := b.prompt("First name", current.FirstName)
	if !ok {
		return current, false
	}
	current.FirstName = first

	if current.LastName, ok = b.prompt("Last name", current.LastName); !ok {
		return current, false
	}
	if current.Email, ok = b.prompt("Email", current.Email); !ok {
		return current, false
	}
	if current.Phone, ok = b.prompt("Phone (optional)", current.Phone); !ok {
		return current, false
	}
	if current.BirthDate, ok = b.prompt("Birth date YYYY-MM-DD (optional)", current.BirthDate); !ok {
		return current, false
	}
	if current.DocumentNumber, ok = b.prompt("Document number", current.DocumentNumber); !ok {
		return current, false
	}

	if withActive {
		status := "true"
		if !current.IsActive {
			status = "false"
		}
		answer, ok := b.prompt("Active (true/false)", status)
		if !ok {
			return current, false
		}
		current.IsActive = answer != "false"
	}

	return current, true
}

func (b *browseSession) prompt(label, current string) (string, bool) {
	if current != "" {
		fmt.Printf("  %s [%s]: ", label, current)
	} else {
		fmt.Printf("  %s: ", label)
	}
	if !b.scanner.Scan() {
		return "", false
	}
	line := b.scanner.Text()
	if strings.TrimSpace(line) == "-" {
		return "", false
	}
	if line == "" {
		return current, true
	}
	return line, true
}

func (b *browseSession) confirm(prompt string) bool {
	fmt.Printf("%s [y/N]: ", prompt)
	if !b.scanner.Scan() {
		return false
	}
	answer := strings.TrimSpace(b.scanner.Text())
	return answer == "y" || answer == "Y" || answer == "yes"
}

func (b *browseSession) printHelp() {
	fmt.Println(`Commands:
  search <text>        set the search text (debounced)
  filter active|inactive|all
  page <n> | next | prev
  size 5|10|20|50|100
  new                  create a person
  edit <row>           edit the person shown at <row>
  delete <row>         soft-delete the person shown at <row>
  refresh              discard cached pages and re-fetch
  help | quit`)
}
