package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/zombor/xpensify-agent/internal/xpensify"
)

// Selector prompts for a project on a terminal. It implements claim.ProjectSelector.
type Selector struct {
	in  *bufio.Reader
	out io.Writer
}

// NewSelector creates a Selector reading answers from in and writing prompts to out
func NewSelector(in io.Reader, out io.Writer) *Selector {
	return &Selector{
		in:  bufio.NewReader(in),
		out: out,
	}
}

// SelectProject lists projects 1-based and asks until a valid number is entered.
// There is no attempt limit; only the end of input or a done context stops it.
func (s *Selector) SelectProject(ctx context.Context, projects []xpensify.Project) (xpensify.Project, error) {
	if len(projects) == 0 {
		return xpensify.Project{}, fmt.Errorf("no projects to choose from")
	}

	fmt.Fprintln(s.out, "\n"+headerStyle.Render("Available projects:"))
	for i, p := range projects {
		fmt.Fprintf(s.out, "%s %s\n", mutedStyle.Render(fmt.Sprintf("%d.", i+1)), p.TimesheetName)
	}

	for {
		if err := ctx.Err(); err != nil {
			return xpensify.Project{}, err
		}

		fmt.Fprint(s.out, "\nSelect a project by number: ")
		line, err := s.in.ReadString('\n')
		answer := strings.TrimSpace(line)
		if err != nil && answer == "" {
			if err == io.EOF {
				return xpensify.Project{}, fmt.Errorf("reading selection: %w", io.ErrUnexpectedEOF)
			}
			return xpensify.Project{}, fmt.Errorf("reading selection: %w", err)
		}

		choice, convErr := strconv.Atoi(answer)
		switch {
		case convErr != nil:
			fmt.Fprintln(s.out, errorStyle.Render("Enter a valid number."))
		case choice < 1 || choice > len(projects):
			fmt.Fprintln(s.out, errorStyle.Render("Invalid choice. Try again."))
		default:
			selected := projects[choice-1]
			fmt.Fprintln(s.out, successStyle.Render("Selected project: "+selected.TimesheetName))
			return selected, nil
		}
	}
}
